package email

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"time"

	gomail "github.com/wneessen/go-mail"
)

type Config struct {
	Host      string
	Port      int
	Username  string
	Password  string
	FromEmail string
	FromName  string
}

// SMTPProvider delivers quotation emails over the configured SMTP server.
type SMTPProvider struct {
	cfg  Config
	tmpl *template.Template
}

func NewSMTP(cfg Config) (*SMTPProvider, error) {
	tmpl, err := template.New("quotation").Parse(quotationTemplate)
	if err != nil {
		return nil, fmt.Errorf("parse quotation template: %w", err)
	}
	return &SMTPProvider{cfg: cfg, tmpl: tmpl}, nil
}

func (p *SMTPProvider) SendQuotation(ctx context.Context, toEmail string, data QuotationEmailData, attachments ...Attachment) error {
	var body bytes.Buffer
	if err := p.tmpl.Execute(&body, data); err != nil {
		return fmt.Errorf("render quotation email: %w", err)
	}

	msg := gomail.NewMsg()
	if err := msg.FromFormat(p.cfg.FromName, p.cfg.FromEmail); err != nil {
		return fmt.Errorf("smtp from: %w", err)
	}
	if err := msg.To(toEmail); err != nil {
		return fmt.Errorf("smtp to: %w", err)
	}
	msg.Subject(fmt.Sprintf("Quotation %s from %s", data.QuoteNumber, data.CompanyName))
	msg.SetBodyString(gomail.TypeTextHTML, body.String())

	for _, att := range attachments {
		msg.AttachReader(att.FileName, bytes.NewReader(att.Content))
	}

	client, err := gomail.NewClient(p.cfg.Host,
		gomail.WithPort(p.cfg.Port),
		gomail.WithSMTPAuth(gomail.SMTPAuthPlain),
		gomail.WithUsername(p.cfg.Username),
		gomail.WithPassword(p.cfg.Password),
		gomail.WithTLSPortPolicy(gomail.TLSOpportunistic),
		gomail.WithTimeout(15*time.Second),
	)
	if err != nil {
		return fmt.Errorf("smtp client: %w", err)
	}

	if err := client.DialAndSendWithContext(ctx, msg); err != nil {
		return fmt.Errorf("smtp send: %w", err)
	}

	return nil
}

const quotationTemplate = `<!DOCTYPE html>
<html>
<body style="font-family: Arial, sans-serif; color: #333;">
  <h2>Quotation {{.QuoteNumber}}</h2>
  <p>Dear {{if .CustomerName}}{{.CustomerName}}{{else}}customer{{end}},</p>
  <p>Thank you for your enquiry. Please find your quotation attached.</p>
  <p><strong>Total: {{.Total}}</strong></p>
  <p>This quotation is valid until {{.ValidUntil}}.</p>
  {{if .AcceptURL}}
  <p>
    <a href="{{.AcceptURL}}"
       style="background-color: #2d7a2d; color: #fff; padding: 10px 20px; text-decoration: none; border-radius: 4px;">
      Accept quotation
    </a>
  </p>
  {{end}}
  <p>Kind regards,<br>{{.CompanyName}}</p>
</body>
</html>`
