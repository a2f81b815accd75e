package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
)

// Quotation statuses.
const (
	StatusPending  = "pending"
	StatusSent     = "sent"
	StatusAccepted = "accepted"
)

// Quotation is a persisted priced quote, addressable by its acceptance
// token.
type Quotation struct {
	ID            snowflake.ID      `json:"id" gorm:"primaryKey"`
	QuoteNumber   string            `json:"quote_number" gorm:"type:text;not null;uniqueIndex:ux_quotations_number"`
	AcceptToken   string            `json:"-" gorm:"type:text;not null;uniqueIndex:ux_quotations_token"`
	CustomerEmail string            `json:"customer_email" gorm:"type:text;not null;index"`
	CustomerName  string            `json:"customer_name" gorm:"type:text"`
	Status        string            `json:"status" gorm:"type:text;not null;default:pending"`
	Items         datatypes.JSON    `json:"items" gorm:"not null"`
	TotalOriginal float64           `json:"total_original" gorm:"not null;default:0"`
	TotalDiscount float64           `json:"total_discount" gorm:"not null;default:0"`
	TotalFinal    float64           `json:"total_final" gorm:"not null;default:0"`
	OverallPct    float64           `json:"overall_discount_percentage" gorm:"column:overall_pct;not null;default:0"`
	VATAmount     float64           `json:"vat_amount" gorm:"column:vat_amount;not null;default:0"`
	TotalWithVAT  float64           `json:"total_with_vat" gorm:"column:total_with_vat;not null;default:0"`
	Currency      string            `json:"currency" gorm:"type:text;not null"`
	Degraded      bool              `json:"degraded" gorm:"not null;default:false"`
	OrderRowID    int64             `json:"-" gorm:"not null;default:0"`
	Metadata      datatypes.JSONMap `json:"metadata,omitempty"`
	CreatedAt     time.Time         `json:"created_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt     time.Time         `json:"updated_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
	AcceptedAt    *time.Time        `json:"accepted_at,omitempty"`
}

// TableName sets the database table name.
func (Quotation) TableName() string { return "quotations" }
