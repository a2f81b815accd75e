package repository

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	quotationdomain "github.com/smallbiznis/partdesk/internal/quotation/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() quotationdomain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, q *quotationdomain.Quotation) error {
	return db.WithContext(ctx).Create(q).Error
}

func (r *repo) UpdateStatus(ctx context.Context, db *gorm.DB, id snowflake.ID, status string, at time.Time) error {
	return db.WithContext(ctx).
		Model(&quotationdomain.Quotation{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":     status,
			"updated_at": at,
		}).Error
}

func (r *repo) FindByToken(ctx context.Context, db *gorm.DB, token string) (*quotationdomain.Quotation, error) {
	var q quotationdomain.Quotation
	err := db.WithContext(ctx).
		Where("accept_token = ?", token).
		First(&q).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &q, nil
}

func (r *repo) MarkAccepted(ctx context.Context, db *gorm.DB, token string, at time.Time) error {
	return db.WithContext(ctx).
		Model(&quotationdomain.Quotation{}).
		Where("accept_token = ?", token).
		Updates(map[string]interface{}{
			"status":      quotationdomain.StatusAccepted,
			"accepted_at": at,
			"updated_at":  at,
		}).Error
}

func (r *repo) List(ctx context.Context, db *gorm.DB, customerEmail string, limit int) ([]quotationdomain.Quotation, error) {
	var quotations []quotationdomain.Quotation
	query := db.WithContext(ctx).Order("created_at DESC").Limit(limit)
	if customerEmail != "" {
		query = query.Where("customer_email = ?", customerEmail)
	}
	err := query.Find(&quotations).Error
	return quotations, err
}
