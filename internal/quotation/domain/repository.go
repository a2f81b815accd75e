package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, quotation *Quotation) error
	UpdateStatus(ctx context.Context, db *gorm.DB, id snowflake.ID, status string, at time.Time) error
	FindByToken(ctx context.Context, db *gorm.DB, token string) (*Quotation, error)
	MarkAccepted(ctx context.Context, db *gorm.DB, token string, at time.Time) error
	List(ctx context.Context, db *gorm.DB, customerEmail string, limit int) ([]Quotation, error)
}
