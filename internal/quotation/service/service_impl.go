package service

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/google/uuid"
	catalogdomain "github.com/smallbiznis/partdesk/internal/catalog/domain"
	"github.com/smallbiznis/partdesk/internal/clock"
	"github.com/smallbiznis/partdesk/internal/config"
	discountdomain "github.com/smallbiznis/partdesk/internal/discount/domain"
	obsmetrics "github.com/smallbiznis/partdesk/internal/observability/metrics"
	"github.com/smallbiznis/partdesk/internal/pricing"
	"github.com/smallbiznis/partdesk/internal/providers/email"
	"github.com/smallbiznis/partdesk/internal/providers/pdf"
	quotationdomain "github.com/smallbiznis/partdesk/internal/quotation/domain"
	tabledomain "github.com/smallbiznis/partdesk/internal/tablestore/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Status column of the remote orders table, written back on quote events.
const colOrderStatus = "Status"

type Params struct {
	fx.In

	DB        *gorm.DB
	Log       *zap.Logger
	GenID     *snowflake.Node
	Repo      quotationdomain.Repository
	Catalog   catalogdomain.Service
	Discounts discountdomain.Service
	Engine    *pricing.Engine
	PDF       pdf.Provider
	Email     email.Provider
	Gateway   tabledomain.Gateway
	Clock     clock.Clock
	Cfg       config.Config
	Metrics   *obsmetrics.Metrics `optional:"true"`
}

type Service struct {
	db        *gorm.DB
	log       *zap.Logger
	genID     *snowflake.Node
	repo      quotationdomain.Repository
	catalog   catalogdomain.Service
	discounts discountdomain.Service
	engine    *pricing.Engine
	pdf       pdf.Provider
	email     email.Provider
	gateway   tabledomain.Gateway
	clock     clock.Clock
	cfg       config.Config
	metrics   *obsmetrics.Metrics
}

func New(p Params) quotationdomain.Service {
	return &Service{
		db:        p.DB,
		log:       p.Log.Named("quotation.service"),
		genID:     p.GenID,
		repo:      p.Repo,
		catalog:   p.Catalog,
		discounts: p.Discounts,
		engine:    p.Engine,
		pdf:       p.PDF,
		email:     p.Email,
		gateway:   p.Gateway,
		clock:     p.Clock,
		cfg:       p.Cfg,
		metrics:   p.Metrics,
	}
}

// Calculate resolves the customer discount and prices the requested
// lines without persisting anything.
func (s *Service) Calculate(ctx context.Context, req quotationdomain.CalculateRequest) (*pricing.PricedQuotation, error) {
	email, items, err := s.validate(req.CustomerEmail, req.Items)
	if err != nil {
		return nil, err
	}

	resolved, err := s.discounts.Resolve(ctx, email)
	if err != nil {
		return nil, err
	}

	lines := s.assembleLines(ctx, items)
	priced := s.engine.PriceQuotation(ctx, resolved, lines)
	return &priced, nil
}

// Create prices, persists and optionally emails a quotation with its PDF.
func (s *Service) Create(ctx context.Context, req quotationdomain.CreateRequest) (*quotationdomain.Response, error) {
	priced, err := s.Calculate(ctx, quotationdomain.CalculateRequest{
		CustomerEmail: req.CustomerEmail,
		Items:         req.Items,
	})
	if err != nil {
		return nil, err
	}

	now := s.clock.Now()
	id := s.genID.Generate()
	quoteNumber := fmt.Sprintf("Q-%s", id.String())
	token := uuid.NewString()

	vatAmount := roundMoney(priced.Summary.TotalFinal * s.cfg.Quote.VATRate)
	totalWithVAT := roundMoney(priced.Summary.TotalFinal + vatAmount)

	itemsJSON, err := json.Marshal(priced.Items)
	if err != nil {
		return nil, fmt.Errorf("encode quotation items: %w", err)
	}

	record := &quotationdomain.Quotation{
		ID:            id,
		QuoteNumber:   quoteNumber,
		AcceptToken:   token,
		CustomerEmail: strings.ToLower(strings.TrimSpace(req.CustomerEmail)),
		CustomerName:  strings.TrimSpace(req.CustomerName),
		Status:        quotationdomain.StatusPending,
		Items:         itemsJSON,
		TotalOriginal: priced.Summary.TotalOriginal,
		TotalDiscount: priced.Summary.TotalDiscount,
		TotalFinal:    priced.Summary.TotalFinal,
		OverallPct:    priced.Summary.OverallDiscountPercentage,
		VATAmount:     vatAmount,
		TotalWithVAT:  totalWithVAT,
		Currency:      priced.Summary.Currency,
		Degraded:      priced.Degraded,
		OrderRowID:    req.OrderRowID,
		Metadata: datatypes.JSONMap{
			"vat_rate": s.cfg.Quote.VATRate,
		},
		CreatedAt: now,
		UpdatedAt: now,
	}

	// Persist before delivering so the accept link in the email always
	// resolves to a stored quotation.
	if err := s.repo.Insert(ctx, s.db, record); err != nil {
		return nil, err
	}

	if req.SendEmail {
		if err := s.deliver(ctx, record, priced); err != nil {
			s.log.Warn("quotation email delivery failed",
				zap.String("quote_number", quoteNumber),
				zap.Error(err),
			)
		} else {
			if err := s.repo.UpdateStatus(ctx, s.db, record.ID, quotationdomain.StatusSent, now); err != nil {
				s.log.Warn("quotation status update failed",
					zap.String("quote_number", quoteNumber),
					zap.Error(err),
				)
			}
			record.Status = quotationdomain.StatusSent
		}
	}

	s.writeOrderStatus(ctx, record.OrderRowID, "Quote Sent")
	s.metrics.RecordQuotationAssembled(ctx, record.Status)

	s.log.Info("quotation created",
		zap.String("quote_number", quoteNumber),
		zap.Int("lines", len(priced.Items)),
		zap.Float64("total_with_vat", totalWithVAT),
		zap.Bool("degraded", priced.Degraded),
	)

	return s.toResponse(record), nil
}

// Accept marks the quotation accepted. Accepting twice is a no-op that
// returns the already-accepted record.
func (s *Service) Accept(ctx context.Context, token string) (*quotationdomain.Response, error) {
	record, err := s.repo.FindByToken(ctx, s.db, token)
	if err != nil {
		return nil, err
	}
	if record == nil {
		return nil, quotationdomain.ErrNotFound
	}

	if record.AcceptedAt == nil {
		now := s.clock.Now()
		if err := s.repo.MarkAccepted(ctx, s.db, token, now); err != nil {
			return nil, err
		}
		record.Status = quotationdomain.StatusAccepted
		record.AcceptedAt = &now
		record.UpdatedAt = now

		s.writeOrderStatus(ctx, record.OrderRowID, "Quote Accepted")

		s.log.Info("quotation accepted", zap.String("quote_number", record.QuoteNumber))
	}

	return s.toResponse(record), nil
}

func (s *Service) GetByToken(ctx context.Context, token string) (*quotationdomain.Response, error) {
	record, err := s.repo.FindByToken(ctx, s.db, token)
	if err != nil {
		return nil, err
	}
	if record == nil {
		return nil, quotationdomain.ErrNotFound
	}
	return s.toResponse(record), nil
}

func (s *Service) List(ctx context.Context, customerEmail string, limit int) ([]quotationdomain.Response, error) {
	if limit <= 0 || limit > 100 {
		limit = 100
	}
	records, err := s.repo.List(ctx, s.db, strings.ToLower(strings.TrimSpace(customerEmail)), limit)
	if err != nil {
		return nil, err
	}

	out := make([]quotationdomain.Response, 0, len(records))
	for i := range records {
		out = append(out, *s.toResponse(&records[i]))
	}
	return out, nil
}

func (s *Service) validate(customerEmail string, items []quotationdomain.RequestItem) (string, []quotationdomain.RequestItem, error) {
	email := strings.ToLower(strings.TrimSpace(customerEmail))
	if email == "" || !strings.Contains(email, "@") {
		return "", nil, quotationdomain.ErrInvalidEmail
	}
	if len(items) == 0 {
		return "", nil, quotationdomain.ErrNoItems
	}
	for _, item := range items {
		if strings.TrimSpace(item.ProductCode) == "" {
			return "", nil, quotationdomain.ErrInvalidItem
		}
	}
	return email, items, nil
}

// assembleLines fills missing unit prices from the catalog. A catalog
// miss leaves the price at 0 so the quotation still goes out.
func (s *Service) assembleLines(ctx context.Context, items []quotationdomain.RequestItem) []pricing.LineItem {
	lines := make([]pricing.LineItem, 0, len(items))
	for _, item := range items {
		line := pricing.LineItem{
			ProductCode: strings.TrimSpace(item.ProductCode),
			Description: strings.TrimSpace(item.Description),
			Quantity:    item.Quantity,
		}
		if line.Quantity < 1 {
			line.Quantity = 1
		}

		switch {
		case item.UnitPrice != nil:
			line.UnitPrice = *item.UnitPrice
		default:
			part, err := s.catalog.GetByCode(ctx, line.ProductCode)
			if err != nil {
				s.log.Warn("catalog price lookup failed, defaulting to 0",
					zap.String("product_code", line.ProductCode),
					zap.Error(err),
				)
				line.UnitPrice = s.cfg.Catalog.DefaultPriceFallback
				break
			}
			line.UnitPrice = part.SalesPrice
			if line.Description == "" {
				line.Description = part.Description
			}
		}

		lines = append(lines, line)
	}
	return lines
}

// deliver renders the PDF and emails it with the acceptance link.
func (s *Service) deliver(ctx context.Context, record *quotationdomain.Quotation, priced *pricing.PricedQuotation) error {
	acceptURL := s.acceptURL(record.AcceptToken)
	validUntil := record.CreatedAt.AddDate(0, 0, 30).Format("2006-01-02")

	doc, err := s.pdf.GenerateQuotation(ctx, s.pdfData(record, priced, validUntil))
	if err != nil {
		return fmt.Errorf("generate quotation pdf: %w", err)
	}

	var attachments []email.Attachment
	if doc != nil {
		content, readErr := io.ReadAll(doc)
		if readErr != nil {
			return fmt.Errorf("read quotation pdf: %w", readErr)
		}
		attachments = append(attachments, email.Attachment{
			FileName: record.QuoteNumber + ".pdf",
			Content:  content,
		})
	}

	return s.email.SendQuotation(ctx, record.CustomerEmail, email.QuotationEmailData{
		CustomerName: record.CustomerName,
		QuoteNumber:  record.QuoteNumber,
		Total:        s.money(record.TotalWithVAT),
		ValidUntil:   validUntil,
		AcceptURL:    acceptURL,
		CompanyName:  s.cfg.Quote.CompanyName,
	}, attachments...)
}

func (s *Service) pdfData(record *quotationdomain.Quotation, priced *pricing.PricedQuotation, validUntil string) pdf.QuotationData {
	items := make([]pdf.QuotationItem, 0, len(priced.Items))
	for _, line := range priced.Items {
		items = append(items, pdf.QuotationItem{
			ProductCode: line.ProductCode,
			Description: line.Description,
			Qty:         line.Quantity,
			UnitPrice:   s.money(line.OriginalPrice),
			Discount:    fmt.Sprintf("%.f%%", line.DiscountPercentage),
			Amount:      s.money(line.TotalDiscounted),
		})
	}

	return pdf.QuotationData{
		CompanyName:     s.cfg.Quote.CompanyName,
		CompanyEmail:    s.cfg.Quote.CompanyEmail,
		QuoteNumber:     record.QuoteNumber,
		IssueDate:       record.CreatedAt.Format("2006-01-02"),
		ValidUntil:      validUntil,
		CustomerName:    record.CustomerName,
		CustomerEmail:   record.CustomerEmail,
		Items:           items,
		Subtotal:        s.money(record.TotalOriginal),
		TotalDiscount:   s.money(record.TotalDiscount),
		VATLabel:        fmt.Sprintf("VAT (%.f%%)", s.cfg.Quote.VATRate*100),
		VATAmount:       s.money(record.VATAmount),
		Total:           s.money(record.TotalWithVAT),
		Currency:        record.Currency,
		DiscountApplied: record.TotalDiscount > 0,
	}
}

// writeOrderStatus updates the originating order row, best effort.
func (s *Service) writeOrderStatus(ctx context.Context, orderRowID int64, status string) {
	if orderRowID <= 0 {
		return
	}
	err := s.gateway.UpdateRow(ctx, s.cfg.Sheets.OrdersSheet, orderRowID, map[string]string{
		colOrderStatus: status,
	})
	if err != nil {
		s.log.Warn("order status write-back failed",
			zap.Int64("order_row_id", orderRowID),
			zap.String("status", status),
			zap.Error(err),
		)
	}
}

func (s *Service) toResponse(record *quotationdomain.Quotation) *quotationdomain.Response {
	var items []pricing.PricedLineItem
	if err := json.Unmarshal(record.Items, &items); err != nil {
		s.log.Error("decode quotation items", zap.Error(err))
	}

	resp := &quotationdomain.Response{
		ID:            record.ID.String(),
		QuoteNumber:   record.QuoteNumber,
		CustomerEmail: record.CustomerEmail,
		CustomerName:  record.CustomerName,
		Status:        record.Status,
		Items:         items,
		Summary: pricing.Summary{
			TotalOriginal:             record.TotalOriginal,
			TotalDiscount:             record.TotalDiscount,
			TotalFinal:                record.TotalFinal,
			OverallDiscountPercentage: record.OverallPct,
			Currency:                  record.Currency,
		},
		VATAmount:    record.VATAmount,
		TotalWithVAT: record.TotalWithVAT,
		Degraded:     record.Degraded,
		CreatedAt:    record.CreatedAt,
		AcceptedAt:   record.AcceptedAt,
	}
	if record.Status != quotationdomain.StatusAccepted {
		resp.AcceptURL = s.acceptURL(record.AcceptToken)
	}
	return resp
}

func (s *Service) acceptURL(token string) string {
	base := strings.TrimRight(s.cfg.Quote.AcceptBaseURL, "/")
	return fmt.Sprintf("%s/api/quotes/%s/accept", base, token)
}

func (s *Service) money(value float64) string {
	symbol := s.cfg.Quote.Currency
	switch symbol {
	case "EUR":
		symbol = "€"
	case "USD":
		symbol = "$"
	case "GBP":
		symbol = "£"
	}
	return fmt.Sprintf("%s%.2f", symbol, value)
}

func roundMoney(value float64) float64 {
	return math.Round(value*100) / 100
}
