package quotation

import (
	"github.com/smallbiznis/partdesk/internal/quotation/domain"
	"github.com/smallbiznis/partdesk/internal/quotation/repository"
	"github.com/smallbiznis/partdesk/internal/quotation/service"
	"go.uber.org/fx"
	"gorm.io/gorm"
)

var Module = fx.Module("quotation.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
	fx.Invoke(migrate),
)

func migrate(db *gorm.DB) error {
	return db.AutoMigrate(&domain.Quotation{})
}
