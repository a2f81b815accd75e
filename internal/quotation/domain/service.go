package domain

import (
	"context"
	"errors"
	"time"

	"github.com/smallbiznis/partdesk/internal/pricing"
)

type Service interface {
	Calculate(ctx context.Context, req CalculateRequest) (*pricing.PricedQuotation, error)
	Create(ctx context.Context, req CreateRequest) (*Response, error)
	Accept(ctx context.Context, token string) (*Response, error)
	GetByToken(ctx context.Context, token string) (*Response, error)
	List(ctx context.Context, customerEmail string, limit int) ([]Response, error)
}

// RequestItem is one requested line. A nil UnitPrice asks the assembler
// to fill the price from the parts catalog.
type RequestItem struct {
	ProductCode string   `json:"product_code"`
	Description string   `json:"description,omitempty"`
	Quantity    int      `json:"quantity"`
	UnitPrice   *float64 `json:"unit_price,omitempty"`
}

type CalculateRequest struct {
	CustomerEmail string        `json:"customer_email"`
	Items         []RequestItem `json:"items"`
}

type CreateRequest struct {
	CustomerEmail string        `json:"customer_email"`
	CustomerName  string        `json:"customer_name,omitempty"`
	Items         []RequestItem `json:"items"`
	OrderRowID    int64         `json:"order_row_id,omitempty"`
	SendEmail     bool          `json:"send_email,omitempty"`
}

type Response struct {
	ID            string                   `json:"id"`
	QuoteNumber   string                   `json:"quote_number"`
	CustomerEmail string                   `json:"customer_email"`
	CustomerName  string                   `json:"customer_name,omitempty"`
	Status        string                   `json:"status"`
	Items         []pricing.PricedLineItem `json:"items"`
	Summary       pricing.Summary          `json:"summary"`
	VATAmount     float64                  `json:"vat_amount"`
	TotalWithVAT  float64                  `json:"total_with_vat"`
	Degraded      bool                     `json:"degraded,omitempty"`
	AcceptURL     string                   `json:"accept_url,omitempty"`
	CreatedAt     time.Time                `json:"created_at"`
	AcceptedAt    *time.Time               `json:"accepted_at,omitempty"`
}

var (
	ErrNotFound     = errors.New("quotation_not_found")
	ErrInvalidEmail = errors.New("invalid_customer_email")
	ErrNoItems      = errors.New("no_line_items")
	ErrInvalidItem  = errors.New("invalid_line_item")
)
