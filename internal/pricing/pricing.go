package pricing

import (
	"context"
	"math"

	"github.com/smallbiznis/partdesk/internal/config"
	discountdomain "github.com/smallbiznis/partdesk/internal/discount/domain"
	obsmetrics "github.com/smallbiznis/partdesk/internal/observability/metrics"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// Discount types reported per priced line.
const (
	TypeNone         = "None"
	TypeGlobal       = "Global"
	TypePartSpecific = "Part-Specific"
	TypeError        = "Error"
)

// LineItem is one requested order line.
type LineItem struct {
	ProductCode string  `json:"product_code"`
	Description string  `json:"description,omitempty"`
	Quantity    int     `json:"quantity"`
	UnitPrice   float64 `json:"unit_price"`
}

// PricedLineItem is one line after discount application. Every monetary
// field is rounded to the configured precision.
type PricedLineItem struct {
	ProductCode        string  `json:"product_code"`
	Description        string  `json:"description,omitempty"`
	Quantity           int     `json:"quantity"`
	OriginalPrice      float64 `json:"original_price"`
	DiscountPercentage float64 `json:"discount_percentage"`
	DiscountAmount     float64 `json:"discount_amount"`
	DiscountedPrice    float64 `json:"discounted_price"`
	TotalOriginal      float64 `json:"total_original"`
	TotalDiscount      float64 `json:"total_discount"`
	TotalDiscounted    float64 `json:"total_discounted"`
	DiscountType       string  `json:"discount_type"`
}

// Summary aggregates a priced quotation.
type Summary struct {
	TotalOriginal             float64 `json:"total_original"`
	TotalDiscount             float64 `json:"total_discount"`
	TotalFinal                float64 `json:"total_final"`
	OverallDiscountPercentage float64 `json:"overall_discount_percentage"`
	Currency                  string  `json:"currency"`
}

// PricedQuotation is the full pricing result for a set of lines.
type PricedQuotation struct {
	Items    []PricedLineItem `json:"items"`
	Summary  Summary          `json:"summary"`
	Degraded bool             `json:"degraded,omitempty"`
}

type Params struct {
	fx.In

	Log     *zap.Logger
	Cfg     config.Config
	Metrics *obsmetrics.Metrics `optional:"true"`
}

// Engine computes per-line and aggregate discounted pricing. It holds no
// state beyond configuration and is safe for concurrent use.
type Engine struct {
	log      *zap.Logger
	cfg      config.DiscountConfig
	currency string
	metrics  *obsmetrics.Metrics
}

func New(p Params) *Engine {
	return &Engine{
		log:      p.Log.Named("pricing.engine"),
		cfg:      p.Cfg.Discount,
		currency: p.Cfg.Quote.Currency,
		metrics:  p.Metrics,
	}
}

// PriceLine prices a single line under the resolved discount. Malformed
// input never fails the line: it comes back at full price tagged Error.
func (e *Engine) PriceLine(ctx context.Context, resolved *discountdomain.EffectiveDiscount, productCode string, unitPrice float64, quantity int) PricedLineItem {
	if quantity < 1 || unitPrice < 0 || math.IsNaN(unitPrice) || math.IsInf(unitPrice, 0) {
		e.log.Warn("unpriceable line, falling back to full price",
			zap.String("product_code", productCode),
			zap.Float64("unit_price", unitPrice),
			zap.Int("quantity", quantity),
		)
		e.metrics.RecordPricingDegraded(ctx, "invalid_line")
		return e.passThrough(productCode, unitPrice, quantity, TypeError)
	}

	if resolved == nil || !resolved.HasDiscount {
		return e.passThrough(productCode, unitPrice, quantity, TypeNone)
	}

	percentage := 0.0
	discountType := TypeNone

	if override, ok := resolved.PartOverrides[productCode]; ok {
		percentage = override.Percentage
		discountType = TypePartSpecific
	}

	// The global percentage replaces a part override under the priority
	// flag, otherwise the higher of the two wins.
	if resolved.GlobalPercentage > 0 {
		switch {
		case resolved.GlobalPriority || percentage == 0:
			percentage = resolved.GlobalPercentage
			discountType = TypeGlobal
		case resolved.GlobalPercentage > percentage:
			percentage = resolved.GlobalPercentage
			discountType = TypeGlobal
		}
	}

	if percentage > e.cfg.MaxDiscountPercentage {
		e.log.Warn("discount clamped to maximum",
			zap.String("product_code", productCode),
			zap.Float64("requested", percentage),
			zap.Float64("maximum", e.cfg.MaxDiscountPercentage),
		)
		e.metrics.RecordDiscountClamp(ctx)
		percentage = e.cfg.MaxDiscountPercentage
	}

	discountAmount := unitPrice * percentage / 100
	discountedPrice := unitPrice - discountAmount

	places := e.cfg.RoundingPlaces
	return PricedLineItem{
		ProductCode:        productCode,
		Quantity:           quantity,
		OriginalPrice:      roundTo(unitPrice, places),
		DiscountPercentage: roundTo(percentage, places),
		DiscountAmount:     roundTo(discountAmount, places),
		DiscountedPrice:    roundTo(discountedPrice, places),
		TotalOriginal:      roundTo(unitPrice*float64(quantity), places),
		TotalDiscount:      roundTo(discountAmount*float64(quantity), places),
		TotalDiscounted:    roundTo(discountedPrice*float64(quantity), places),
		DiscountType:       discountType,
	}
}

// PriceQuotation prices every line and aggregates totals. Per-line totals
// are rounded first; the summary sums those rounded totals and re-rounds,
// so the summary always matches what the lines display.
func (e *Engine) PriceQuotation(ctx context.Context, resolved *discountdomain.EffectiveDiscount, items []LineItem) PricedQuotation {
	priced := make([]PricedLineItem, 0, len(items))
	var totalOriginal, totalDiscount, totalFinal float64
	degraded := resolved != nil && resolved.Degraded

	for _, item := range items {
		line := e.PriceLine(ctx, resolved, item.ProductCode, item.UnitPrice, item.Quantity)
		line.Description = item.Description
		if line.DiscountType == TypeError {
			degraded = true
		}
		priced = append(priced, line)
		totalOriginal += line.TotalOriginal
		totalDiscount += line.TotalDiscount
		totalFinal += line.TotalDiscounted
	}

	places := e.cfg.RoundingPlaces
	overall := 0.0
	if totalOriginal > 0 {
		overall = totalDiscount / totalOriginal * 100
	}

	status := "ok"
	if degraded {
		status = "degraded"
	}
	e.metrics.RecordPricingCalculation(ctx, status)

	return PricedQuotation{
		Items: priced,
		Summary: Summary{
			TotalOriginal:             roundTo(totalOriginal, places),
			TotalDiscount:             roundTo(totalDiscount, places),
			TotalFinal:                roundTo(totalFinal, places),
			OverallDiscountPercentage: roundTo(overall, places),
			Currency:                  e.currency,
		},
		Degraded: degraded,
	}
}

func (e *Engine) passThrough(productCode string, unitPrice float64, quantity int, discountType string) PricedLineItem {
	if quantity < 1 {
		quantity = 1
	}
	if unitPrice < 0 || math.IsNaN(unitPrice) || math.IsInf(unitPrice, 0) {
		unitPrice = 0
	}

	places := e.cfg.RoundingPlaces
	total := roundTo(unitPrice*float64(quantity), places)
	return PricedLineItem{
		ProductCode:        productCode,
		Quantity:           quantity,
		OriginalPrice:      roundTo(unitPrice, places),
		DiscountPercentage: 0,
		DiscountAmount:     0,
		DiscountedPrice:    roundTo(unitPrice, places),
		TotalOriginal:      total,
		TotalDiscount:      0,
		TotalDiscounted:    total,
		DiscountType:       discountType,
	}
}

// roundTo rounds half away from zero at the given decimal place.
func roundTo(value float64, places int) float64 {
	if places < 0 {
		places = 0
	}
	factor := math.Pow(10, float64(places))
	return math.Round(value*factor) / factor
}
