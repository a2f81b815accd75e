package catalog

import (
	"github.com/smallbiznis/partdesk/internal/catalog/domain"
	"github.com/smallbiznis/partdesk/internal/catalog/repository"
	"github.com/smallbiznis/partdesk/internal/catalog/service"
	"go.uber.org/fx"
	"gorm.io/gorm"
)

var Module = fx.Module("catalog.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
	fx.Invoke(migrate),
)

func migrate(db *gorm.DB) error {
	return db.AutoMigrate(&domain.Part{}, &domain.SyncLog{})
}
