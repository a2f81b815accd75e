package repository

import (
	"context"
	"strings"

	catalogdomain "github.com/smallbiznis/partdesk/internal/catalog/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() catalogdomain.Repository {
	return &repo{}
}

// ReplaceAll swaps the whole catalog in one transaction so readers never
// observe a partially refreshed table.
func (r *repo) ReplaceAll(ctx context.Context, db *gorm.DB, parts []catalogdomain.Part) error {
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Exec(`DELETE FROM parts`).Error; err != nil {
			return err
		}
		for i := range parts {
			if err := tx.Exec(
				`INSERT INTO parts (id, product_code, description, sales_price, quantity_in_stock,
				                    free_stock, category, supplier, inactive, position, source_row_id, created_at)
				 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
				parts[i].ID,
				parts[i].ProductCode,
				parts[i].Description,
				parts[i].SalesPrice,
				parts[i].QuantityInStock,
				parts[i].FreeStock,
				parts[i].Category,
				parts[i].Supplier,
				parts[i].Inactive,
				parts[i].Position,
				parts[i].SourceRowID,
				parts[i].CreatedAt,
			).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

// Search matches code, description, category or supplier as a substring
// and ranks exact code, code prefix, description hit, then the rest.
// Within each tier rows keep their catalog order. Filtering inactive
// parts happens inside the query so the limit window only spans
// returnable rows.
func (r *repo) Search(ctx context.Context, db *gorm.DB, query string, limit int, caseSensitive, includeInactive bool) ([]catalogdomain.Part, error) {
	var parts []catalogdomain.Part

	visibility := ""
	if !includeInactive {
		visibility = " AND inactive = 0"
	}

	if caseSensitive {
		pattern := "%" + query + "%"
		err := db.WithContext(ctx).Raw(
			`SELECT id, product_code, description, sales_price, quantity_in_stock,
			        free_stock, category, supplier, inactive, position, source_row_id, created_at
			 FROM parts
			 WHERE (product_code LIKE ? OR description LIKE ? OR category LIKE ? OR supplier LIKE ?)`+visibility+`
			 ORDER BY
			     CASE
			         WHEN product_code = ? THEN 1
			         WHEN product_code LIKE ? THEN 2
			         WHEN description LIKE ? THEN 3
			         ELSE 4
			     END,
			     position
			 LIMIT ?`,
			pattern, pattern, pattern, pattern,
			query,
			query+"%",
			pattern,
			limit,
		).Scan(&parts).Error
		return parts, err
	}

	lowered := strings.ToLower(query)
	pattern := "%" + lowered + "%"
	err := db.WithContext(ctx).Raw(
		`SELECT id, product_code, description, sales_price, quantity_in_stock,
		        free_stock, category, supplier, inactive, position, source_row_id, created_at
		 FROM parts
		 WHERE (LOWER(product_code) LIKE ?
		    OR LOWER(description) LIKE ?
		    OR LOWER(category) LIKE ?
		    OR LOWER(supplier) LIKE ?)`+visibility+`
		 ORDER BY
		     CASE
		         WHEN LOWER(product_code) = ? THEN 1
		         WHEN LOWER(product_code) LIKE ? THEN 2
		         WHEN LOWER(description) LIKE ? THEN 3
		         ELSE 4
		     END,
		     position
		 LIMIT ?`,
		pattern, pattern, pattern, pattern,
		lowered,
		lowered+"%",
		pattern,
		limit,
	).Scan(&parts).Error
	return parts, err
}

func (r *repo) FindByCode(ctx context.Context, db *gorm.DB, code string) (*catalogdomain.Part, error) {
	var part catalogdomain.Part
	err := db.WithContext(ctx).Raw(
		`SELECT id, product_code, description, sales_price, quantity_in_stock,
		        free_stock, category, supplier, inactive, position, source_row_id, created_at
		 FROM parts WHERE LOWER(product_code) = LOWER(?)`,
		code,
	).Scan(&part).Error
	if err != nil {
		return nil, err
	}
	if part.ID == 0 {
		return nil, nil
	}
	return &part, nil
}

func (r *repo) Count(ctx context.Context, db *gorm.DB) (int64, error) {
	var count int64
	err := db.WithContext(ctx).Raw(`SELECT COUNT(*) FROM parts`).Scan(&count).Error
	return count, err
}

func (r *repo) AppendSyncLog(ctx context.Context, db *gorm.DB, entry *catalogdomain.SyncLog) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO sync_logs (id, timestamp, sync_trigger, row_count, status, message)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		entry.ID,
		entry.Timestamp,
		entry.Trigger,
		entry.RowCount,
		entry.Status,
		entry.Message,
	).Error
}

func (r *repo) LastSyncLog(ctx context.Context, db *gorm.DB) (*catalogdomain.SyncLog, error) {
	var entry catalogdomain.SyncLog
	err := db.WithContext(ctx).Raw(
		`SELECT id, timestamp, sync_trigger, row_count, status, message
		 FROM sync_logs ORDER BY timestamp DESC LIMIT 1`,
	).Scan(&entry).Error
	if err != nil {
		return nil, err
	}
	if entry.ID == 0 {
		return nil, nil
	}
	return &entry, nil
}

func (r *repo) LastSuccessfulSync(ctx context.Context, db *gorm.DB) (*catalogdomain.SyncLog, error) {
	var entry catalogdomain.SyncLog
	err := db.WithContext(ctx).Raw(
		`SELECT id, timestamp, sync_trigger, row_count, status, message
		 FROM sync_logs WHERE status = ? ORDER BY timestamp DESC LIMIT 1`,
		catalogdomain.SyncStatusSuccess,
	).Scan(&entry).Error
	if err != nil {
		return nil, err
	}
	if entry.ID == 0 {
		return nil, nil
	}
	return &entry, nil
}
