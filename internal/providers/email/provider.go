package email

import "context"

// Attachment is a file attached to an outgoing message.
type Attachment struct {
	FileName string
	Content  []byte
}

// QuotationEmailData fills the quotation proposal template.
type QuotationEmailData struct {
	CustomerName string
	QuoteNumber  string
	Total        string
	ValidUntil   string
	AcceptURL    string
	CompanyName  string
}

type Provider interface {
	SendQuotation(ctx context.Context, toEmail string, data QuotationEmailData, attachments ...Attachment) error
}

// NoOpProvider drops messages. Used when email delivery is disabled.
type NoOpProvider struct{}

func (p *NoOpProvider) SendQuotation(ctx context.Context, toEmail string, data QuotationEmailData, attachments ...Attachment) error {
	return nil
}
