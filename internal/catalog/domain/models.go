package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

// Part is one catalog entry mirrored from the remote parts table. The
// whole table is replaced on every sync, rows are never edited in place.
type Part struct {
	ID              snowflake.ID `json:"id" gorm:"primaryKey"`
	ProductCode     string       `json:"product_code" gorm:"type:text;not null;uniqueIndex:ux_parts_code"`
	Description     string       `json:"description" gorm:"type:text;not null"`
	SalesPrice      float64      `json:"sales_price" gorm:"not null;default:0"`
	QuantityInStock float64      `json:"quantity_in_stock" gorm:"not null;default:0"`
	FreeStock       float64      `json:"free_stock" gorm:"not null;default:0"`
	Category        string       `json:"category" gorm:"type:text"`
	Supplier        string       `json:"supplier" gorm:"type:text"`
	Inactive        bool         `json:"inactive" gorm:"not null;default:false"`
	Position        int          `json:"-" gorm:"not null;default:0;index"`
	SourceRowID     int64        `json:"-" gorm:"not null;default:0"`
	CreatedAt       time.Time    `json:"created_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
}

// TableName sets the database table name.
func (Part) TableName() string { return "parts" }

// SyncLog records one catalog refresh attempt.
type SyncLog struct {
	ID        snowflake.ID `json:"id" gorm:"primaryKey"`
	Timestamp time.Time    `json:"timestamp" gorm:"not null;index"`
	Trigger   string       `json:"trigger" gorm:"column:sync_trigger;type:text;not null"`
	RowCount  int          `json:"row_count" gorm:"not null;default:0"`
	Status    string       `json:"status" gorm:"type:text;not null"`
	Message   string       `json:"message" gorm:"type:text"`
}

// TableName sets the database table name.
func (SyncLog) TableName() string { return "sync_logs" }

const (
	SyncStatusSuccess = "success"
	SyncStatusFailed  = "failed"

	TriggerStartup   = "startup"
	TriggerScheduled = "scheduled"
	TriggerManual    = "manual"
)
