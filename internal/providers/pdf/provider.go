package pdf

import (
	"context"
	"io"
)

// QuotationData carries the rendered values for a quotation document.
// All monetary fields arrive pre-formatted.
type QuotationData struct {
	CompanyName  string
	CompanyEmail string

	QuoteNumber   string
	IssueDate     string
	ValidUntil    string
	CustomerName  string
	CustomerEmail string

	Items []QuotationItem

	Subtotal        string
	TotalDiscount   string
	VATLabel        string
	VATAmount       string
	Total           string
	Currency        string
	DiscountApplied bool
}

type QuotationItem struct {
	ProductCode string
	Description string
	Qty         int
	UnitPrice   string
	Discount    string
	Amount      string
}

type Provider interface {
	GenerateQuotation(ctx context.Context, data QuotationData) (io.Reader, error)
}

type NoOpProvider struct{}

func (p *NoOpProvider) GenerateQuotation(ctx context.Context, data QuotationData) (io.Reader, error) {
	return nil, nil
}
