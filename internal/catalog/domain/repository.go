package domain

import (
	"context"

	"gorm.io/gorm"
)

type Repository interface {
	ReplaceAll(ctx context.Context, db *gorm.DB, parts []Part) error
	Search(ctx context.Context, db *gorm.DB, query string, limit int, caseSensitive, includeInactive bool) ([]Part, error)
	FindByCode(ctx context.Context, db *gorm.DB, code string) (*Part, error)
	Count(ctx context.Context, db *gorm.DB) (int64, error)
	AppendSyncLog(ctx context.Context, db *gorm.DB, entry *SyncLog) error
	LastSyncLog(ctx context.Context, db *gorm.DB) (*SyncLog, error)
	LastSuccessfulSync(ctx context.Context, db *gorm.DB) (*SyncLog, error)
}
