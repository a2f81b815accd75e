package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	catalogdomain "github.com/smallbiznis/partdesk/internal/catalog/domain"
	catalogrepository "github.com/smallbiznis/partdesk/internal/catalog/repository"
	catalogservice "github.com/smallbiznis/partdesk/internal/catalog/service"
	"github.com/smallbiznis/partdesk/internal/clock"
	"github.com/smallbiznis/partdesk/internal/config"
	discountservice "github.com/smallbiznis/partdesk/internal/discount/service"
	"github.com/smallbiznis/partdesk/internal/pricing"
	"github.com/smallbiznis/partdesk/internal/providers/email"
	"github.com/smallbiznis/partdesk/internal/providers/pdf"
	quotationdomain "github.com/smallbiznis/partdesk/internal/quotation/domain"
	quotationrepository "github.com/smallbiznis/partdesk/internal/quotation/repository"
	tabledomain "github.com/smallbiznis/partdesk/internal/tablestore/domain"
	"github.com/smallbiznis/partdesk/internal/tablestore/memory"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	partsSheet     = "Parts Database"
	discountsSheet = "Customer Discounts"
	ordersSheet    = "Orders Intake"
)

type fixture struct {
	svc     quotationdomain.Service
	gateway *memory.Gateway
	db      *gorm.DB
}

func newFixture(t *testing.T, dbName string) *fixture {
	t.Helper()
	return newFixtureWith(t, dbName, nil)
}

func newFixtureWith(t *testing.T, dbName string, mutate func(*Params)) *fixture {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file:"+dbName+"?mode=memory&cache=shared"), &gorm.Config{})
	assert.NoError(t, err)
	assert.NoError(t, db.AutoMigrate(
		&catalogdomain.Part{},
		&catalogdomain.SyncLog{},
		&quotationdomain.Quotation{},
	))

	node, err := snowflake.NewNode(1)
	assert.NoError(t, err)

	fake := clock.NewFakeClock(time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC))
	gateway := memory.New()
	gateway.Seed(partsSheet, []map[string]string{
		{"Product Code": "ABC-1", "Description": "angle bracket", "Sales Price": "€100.00"},
		{"Product Code": "DEF-2", "Description": "hex bolt", "Sales Price": "25.00"},
	})
	gateway.Seed(discountsSheet, []map[string]string{
		{
			"Customer Email":      "buyer@example.com",
			"Discount Percentage": "15",
			"Discount Type":       "Global",
			"Active":              "true",
		},
	})
	gateway.Seed(ordersSheet, []map[string]string{
		{"Customer Email": "buyer@example.com", "Status": "New"},
	})

	cfg := config.Config{
		Sheets: config.SheetsConfig{
			PartsSheet:     partsSheet,
			DiscountsSheet: discountsSheet,
			OrdersSheet:    ordersSheet,
		},
		Catalog: config.CatalogConfig{SearchMinimumChars: 2, MaxSearchResults: 50, InactivePartsVisible: true},
		Discount: config.DiscountConfig{
			MaxDiscountPercentage: 50,
			GlobalPriority:        true,
			DomainMatching:        true,
			RoundingPlaces:        2,
			ResolveTimeoutSeconds: 5,
		},
		Quote: config.QuoteConfig{
			Currency:      "EUR",
			VATRate:       0.23,
			AcceptBaseURL: "http://localhost:8080",
			CompanyName:   "PartDesk",
			CompanyEmail:  "sales@partdesk.local",
		},
	}

	catalogRepo := catalogrepository.Provide()
	catalog := catalogservice.New(catalogservice.Params{
		DB:      db,
		Log:     zap.NewNop(),
		GenID:   node,
		Repo:    catalogRepo,
		Gateway: gateway,
		Clock:   fake,
		Cfg:     cfg,
	})
	_, err = catalog.Sync(context.Background(), catalogdomain.TriggerManual)
	assert.NoError(t, err)

	discounts := discountservice.New(discountservice.Params{
		Log:     zap.NewNop(),
		Gateway: gateway,
		Clock:   fake,
		Cfg:     cfg,
	})

	engine := pricing.New(pricing.Params{Log: zap.NewNop(), Cfg: cfg})

	params := Params{
		DB:        db,
		Log:       zap.NewNop(),
		GenID:     node,
		Repo:      quotationrepository.Provide(),
		Catalog:   catalog,
		Discounts: discounts,
		Engine:    engine,
		PDF:       &pdf.NoOpProvider{},
		Email:     &email.NoOpProvider{},
		Gateway:   gateway,
		Clock:     fake,
		Cfg:       cfg,
	}
	if mutate != nil {
		mutate(&params)
	}

	return &fixture{svc: New(params), gateway: gateway, db: db}
}

var errInsertRefused = errors.New("insert refused")

type failingInsertRepo struct {
	quotationdomain.Repository
}

func (r *failingInsertRepo) Insert(context.Context, *gorm.DB, *quotationdomain.Quotation) error {
	return errInsertRefused
}

type countingEmail struct {
	sent int
}

func (p *countingEmail) SendQuotation(ctx context.Context, toEmail string, data email.QuotationEmailData, attachments ...email.Attachment) error {
	p.sent++
	return nil
}

func TestCalculate_FillsPricesFromCatalog(t *testing.T) {
	f := newFixture(t, "quote_calculate")

	priced, err := f.svc.Calculate(context.Background(), quotationdomain.CalculateRequest{
		CustomerEmail: "buyer@example.com",
		Items: []quotationdomain.RequestItem{
			{ProductCode: "ABC-1", Quantity: 2},
		},
	})

	assert.NoError(t, err)
	assert.Len(t, priced.Items, 1)
	assert.Equal(t, 100.0, priced.Items[0].OriginalPrice)
	assert.Equal(t, "angle bracket", priced.Items[0].Description)
	assert.Equal(t, 15.0, priced.Items[0].DiscountPercentage)
	assert.InDelta(t, 170.0, priced.Summary.TotalFinal, 0.001)
}

func TestCalculate_ExplicitPriceWins(t *testing.T) {
	f := newFixture(t, "quote_explicit_price")
	price := 42.0

	priced, err := f.svc.Calculate(context.Background(), quotationdomain.CalculateRequest{
		CustomerEmail: "nobody@other.com",
		Items: []quotationdomain.RequestItem{
			{ProductCode: "ABC-1", Quantity: 1, UnitPrice: &price},
		},
	})

	assert.NoError(t, err)
	assert.Equal(t, 42.0, priced.Items[0].OriginalPrice)
	assert.Equal(t, pricing.TypeNone, priced.Items[0].DiscountType)
}

func TestCalculate_CatalogMissDefaultsToZero(t *testing.T) {
	f := newFixture(t, "quote_catalog_miss")

	priced, err := f.svc.Calculate(context.Background(), quotationdomain.CalculateRequest{
		CustomerEmail: "nobody@other.com",
		Items: []quotationdomain.RequestItem{
			{ProductCode: "MISSING-99", Quantity: 1},
		},
	})

	assert.NoError(t, err)
	assert.Equal(t, 0.0, priced.Items[0].OriginalPrice)
	assert.Equal(t, 0.0, priced.Summary.TotalFinal)
}

func TestCalculate_Validation(t *testing.T) {
	f := newFixture(t, "quote_validation")
	ctx := context.Background()

	_, err := f.svc.Calculate(ctx, quotationdomain.CalculateRequest{
		CustomerEmail: "not-an-email",
		Items:         []quotationdomain.RequestItem{{ProductCode: "ABC-1", Quantity: 1}},
	})
	assert.ErrorIs(t, err, quotationdomain.ErrInvalidEmail)

	_, err = f.svc.Calculate(ctx, quotationdomain.CalculateRequest{CustomerEmail: "a@x.com"})
	assert.ErrorIs(t, err, quotationdomain.ErrNoItems)

	_, err = f.svc.Calculate(ctx, quotationdomain.CalculateRequest{
		CustomerEmail: "a@x.com",
		Items:         []quotationdomain.RequestItem{{ProductCode: "  ", Quantity: 1}},
	})
	assert.ErrorIs(t, err, quotationdomain.ErrInvalidItem)
}

func TestCreate_PersistsAndAddsVAT(t *testing.T) {
	f := newFixture(t, "quote_create")

	resp, err := f.svc.Create(context.Background(), quotationdomain.CreateRequest{
		CustomerEmail: "buyer@example.com",
		CustomerName:  "Buyer",
		Items: []quotationdomain.RequestItem{
			{ProductCode: "ABC-1", Quantity: 2},
		},
	})

	assert.NoError(t, err)
	assert.Equal(t, quotationdomain.StatusPending, resp.Status)
	assert.NotEmpty(t, resp.QuoteNumber)
	assert.InDelta(t, 170.0, resp.Summary.TotalFinal, 0.001)
	assert.InDelta(t, 39.10, resp.VATAmount, 0.001)
	assert.InDelta(t, 209.10, resp.TotalWithVAT, 0.001)
	assert.Contains(t, resp.AcceptURL, "/api/quotes/")

	listed, err := f.svc.List(context.Background(), "buyer@example.com", 10)
	assert.NoError(t, err)
	assert.Len(t, listed, 1)
	assert.Equal(t, resp.QuoteNumber, listed[0].QuoteNumber)
}

func TestCreate_SendEmailMarksSent(t *testing.T) {
	f := newFixture(t, "quote_send_email")

	resp, err := f.svc.Create(context.Background(), quotationdomain.CreateRequest{
		CustomerEmail: "buyer@example.com",
		Items:         []quotationdomain.RequestItem{{ProductCode: "DEF-2", Quantity: 1}},
		SendEmail:     true,
	})

	assert.NoError(t, err)
	assert.Equal(t, quotationdomain.StatusSent, resp.Status)

	listed, err := f.svc.List(context.Background(), "buyer@example.com", 10)
	assert.NoError(t, err)
	assert.Len(t, listed, 1)
	assert.Equal(t, quotationdomain.StatusSent, listed[0].Status)
}

func TestCreate_InsertFailureSkipsEmail(t *testing.T) {
	mailer := &countingEmail{}
	f := newFixtureWith(t, "quote_insert_failure", func(p *Params) {
		p.Repo = &failingInsertRepo{Repository: p.Repo}
		p.Email = mailer
	})

	_, err := f.svc.Create(context.Background(), quotationdomain.CreateRequest{
		CustomerEmail: "buyer@example.com",
		Items:         []quotationdomain.RequestItem{{ProductCode: "ABC-1", Quantity: 1}},
		SendEmail:     true,
	})

	assert.ErrorIs(t, err, errInsertRefused)
	assert.Equal(t, 0, mailer.sent)
}

func TestCreate_WritesOrderStatusBack(t *testing.T) {
	f := newFixture(t, "quote_order_status")
	ctx := context.Background()

	orders, err := f.gateway.GetRows(ctx, ordersSheet)
	assert.NoError(t, err)
	assert.Len(t, orders, 1)

	_, err = f.svc.Create(ctx, quotationdomain.CreateRequest{
		CustomerEmail: "buyer@example.com",
		Items:         []quotationdomain.RequestItem{{ProductCode: "ABC-1", Quantity: 1}},
		OrderRowID:    orders[0].ID,
	})
	assert.NoError(t, err)

	rows, err := f.gateway.GetRows(ctx, ordersSheet)
	assert.NoError(t, err)
	assert.Equal(t, "Quote Sent", rows[0].Cell("Status"))
}

func TestAccept_IsIdempotent(t *testing.T) {
	f := newFixture(t, "quote_accept")
	ctx := context.Background()

	created, err := f.svc.Create(ctx, quotationdomain.CreateRequest{
		CustomerEmail: "buyer@example.com",
		Items:         []quotationdomain.RequestItem{{ProductCode: "ABC-1", Quantity: 1}},
	})
	assert.NoError(t, err)

	token := tokenFromURL(t, created.AcceptURL)

	accepted, err := f.svc.Accept(ctx, token)
	assert.NoError(t, err)
	assert.Equal(t, quotationdomain.StatusAccepted, accepted.Status)
	assert.NotNil(t, accepted.AcceptedAt)
	assert.Empty(t, accepted.AcceptURL)

	again, err := f.svc.Accept(ctx, token)
	assert.NoError(t, err)
	assert.Equal(t, quotationdomain.StatusAccepted, again.Status)
	assert.Equal(t, accepted.AcceptedAt.Unix(), again.AcceptedAt.Unix())
}

func TestAccept_UnknownToken(t *testing.T) {
	f := newFixture(t, "quote_accept_unknown")

	_, err := f.svc.Accept(context.Background(), "does-not-exist")
	assert.ErrorIs(t, err, quotationdomain.ErrNotFound)
}

func TestCreate_DegradedDiscountStillQuotes(t *testing.T) {
	f := newFixture(t, "quote_degraded")

	f.gateway.FailNext(tabledomain.ErrRemoteUnavailable)
	resp, err := f.svc.Create(context.Background(), quotationdomain.CreateRequest{
		CustomerEmail: "buyer@example.com",
		Items:         []quotationdomain.RequestItem{{ProductCode: "ABC-1", Quantity: 1}},
	})

	assert.NoError(t, err)
	assert.True(t, resp.Degraded)
	assert.InDelta(t, 100.0, resp.Summary.TotalFinal, 0.001)
	assert.Equal(t, 0.0, resp.Summary.TotalDiscount)
}

func tokenFromURL(t *testing.T, acceptURL string) string {
	t.Helper()
	const prefix = "/api/quotes/"
	const suffix = "/accept"
	i := len(acceptURL) - len(suffix)
	assert.Greater(t, i, 0)
	assert.Equal(t, suffix, acceptURL[i:])
	j := len("http://localhost:8080" + prefix)
	return acceptURL[j:i]
}
