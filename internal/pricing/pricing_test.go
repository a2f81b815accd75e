package pricing

import (
	"context"
	"testing"

	"github.com/smallbiznis/partdesk/internal/config"
	discountdomain "github.com/smallbiznis/partdesk/internal/discount/domain"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func newTestEngine(globalPriority bool) *Engine {
	return New(Params{
		Log: zap.NewNop(),
		Cfg: config.Config{
			Discount: config.DiscountConfig{
				MaxDiscountPercentage: 50,
				GlobalPriority:        globalPriority,
				RoundingPlaces:        2,
			},
			Quote: config.QuoteConfig{Currency: "EUR"},
		},
	})
}

func resolvedWith(globalPct float64, globalPriority bool, overrides map[string]float64) *discountdomain.EffectiveDiscount {
	resolved := &discountdomain.EffectiveDiscount{
		HasDiscount:      globalPct > 0 || len(overrides) > 0,
		GlobalPercentage: globalPct,
		GlobalPriority:   globalPriority,
		PartOverrides:    map[string]discountdomain.PartOverride{},
	}
	if globalPct > 0 {
		resolved.GlobalRule = &discountdomain.Rule{Percentage: globalPct, Scope: discountdomain.ScopeGlobal}
	}
	for code, pct := range overrides {
		resolved.PartOverrides[code] = discountdomain.PartOverride{Percentage: pct}
	}
	return resolved
}

func TestPriceLine_NoDiscount(t *testing.T) {
	engine := newTestEngine(true)

	line := engine.PriceLine(context.Background(), nil, "ABC-1", 100, 2)

	assert.Equal(t, TypeNone, line.DiscountType)
	assert.Equal(t, 0.0, line.DiscountPercentage)
	assert.Equal(t, 200.0, line.TotalOriginal)
	assert.Equal(t, 200.0, line.TotalDiscounted)
}

func TestPriceLine_GlobalPriorityReplacesOverride(t *testing.T) {
	engine := newTestEngine(true)
	resolved := resolvedWith(10, true, map[string]float64{"ABC-1": 20})

	line := engine.PriceLine(context.Background(), resolved, "ABC-1", 100, 1)

	assert.Equal(t, TypeGlobal, line.DiscountType)
	assert.Equal(t, 10.0, line.DiscountPercentage)
	assert.Equal(t, 90.0, line.DiscountedPrice)
}

func TestPriceLine_HigherOverrideWinsWithoutPriority(t *testing.T) {
	engine := newTestEngine(false)
	resolved := resolvedWith(10, false, map[string]float64{"ABC-1": 20})

	line := engine.PriceLine(context.Background(), resolved, "ABC-1", 100, 1)

	assert.Equal(t, TypePartSpecific, line.DiscountType)
	assert.Equal(t, 20.0, line.DiscountPercentage)
	assert.Equal(t, 80.0, line.DiscountedPrice)
}

func TestPriceLine_HigherGlobalWinsWithoutPriority(t *testing.T) {
	engine := newTestEngine(false)
	resolved := resolvedWith(30, false, map[string]float64{"ABC-1": 20})

	line := engine.PriceLine(context.Background(), resolved, "ABC-1", 100, 1)

	assert.Equal(t, TypeGlobal, line.DiscountType)
	assert.Equal(t, 30.0, line.DiscountPercentage)
}

func TestPriceLine_OverrideOnlyAppliesToItsCode(t *testing.T) {
	engine := newTestEngine(false)
	resolved := resolvedWith(0, false, map[string]float64{"ABC-1": 20})

	matched := engine.PriceLine(context.Background(), resolved, "ABC-1", 100, 1)
	other := engine.PriceLine(context.Background(), resolved, "XYZ-9", 100, 1)

	assert.Equal(t, TypePartSpecific, matched.DiscountType)
	assert.Equal(t, TypeNone, other.DiscountType)
	assert.Equal(t, 100.0, other.DiscountedPrice)
}

func TestPriceLine_ClampsToMaximum(t *testing.T) {
	engine := newTestEngine(true)
	resolved := resolvedWith(75, true, nil)

	line := engine.PriceLine(context.Background(), resolved, "ABC-1", 100, 1)

	assert.Equal(t, 50.0, line.DiscountPercentage)
	assert.Equal(t, 50.0, line.DiscountedPrice)
}

func TestPriceLine_Rounding(t *testing.T) {
	engine := newTestEngine(true)
	resolved := resolvedWith(10, true, nil)

	line := engine.PriceLine(context.Background(), resolved, "ABC-1", 33.33, 3)

	assert.InDelta(t, 3.33, line.DiscountAmount, 0.001)
	assert.InDelta(t, 30.0, line.DiscountedPrice, 0.001)
	assert.InDelta(t, 99.99, line.TotalOriginal, 0.001)
	assert.InDelta(t, 10.0, line.TotalDiscount, 0.001)
	assert.InDelta(t, 89.99, line.TotalDiscounted, 0.001)
}

func TestPriceLine_InvalidInputFallsBackToFullPrice(t *testing.T) {
	engine := newTestEngine(true)
	resolved := resolvedWith(10, true, nil)

	line := engine.PriceLine(context.Background(), resolved, "ABC-1", 100, 0)

	assert.Equal(t, TypeError, line.DiscountType)
	assert.Equal(t, 0.0, line.DiscountAmount)
	assert.Equal(t, 100.0, line.TotalDiscounted)
}

func TestPriceQuotation_SummaryMatchesLines(t *testing.T) {
	engine := newTestEngine(true)
	resolved := resolvedWith(15, true, nil)

	priced := engine.PriceQuotation(context.Background(), resolved, []LineItem{
		{ProductCode: "ABC-1", Quantity: 1, UnitPrice: 100},
		{ProductCode: "DEF-2", Quantity: 1, UnitPrice: 100},
	})

	assert.Len(t, priced.Items, 2)
	assert.InDelta(t, 200.0, priced.Summary.TotalOriginal, 0.001)
	assert.InDelta(t, 30.0, priced.Summary.TotalDiscount, 0.001)
	assert.InDelta(t, 170.0, priced.Summary.TotalFinal, 0.001)
	assert.InDelta(t, 15.0, priced.Summary.OverallDiscountPercentage, 0.001)
	assert.Equal(t, "EUR", priced.Summary.Currency)
	assert.False(t, priced.Degraded)
}

func TestPriceQuotation_ZeroTotalGuard(t *testing.T) {
	engine := newTestEngine(true)

	priced := engine.PriceQuotation(context.Background(), nil, []LineItem{
		{ProductCode: "FREE-1", Quantity: 1, UnitPrice: 0},
	})

	assert.Equal(t, 0.0, priced.Summary.OverallDiscountPercentage)
	assert.Equal(t, 0.0, priced.Summary.TotalFinal)
}

func TestPriceQuotation_DegradedFlagPropagates(t *testing.T) {
	engine := newTestEngine(true)
	resolved := resolvedWith(0, true, nil)
	resolved.Degraded = true

	priced := engine.PriceQuotation(context.Background(), resolved, []LineItem{
		{ProductCode: "ABC-1", Quantity: 1, UnitPrice: 100},
	})

	assert.True(t, priced.Degraded)
	assert.Equal(t, TypeNone, priced.Items[0].DiscountType)
	assert.Equal(t, 100.0, priced.Summary.TotalFinal)
}

func TestPriceQuotation_ErrorLineMarksDegraded(t *testing.T) {
	engine := newTestEngine(true)

	priced := engine.PriceQuotation(context.Background(), nil, []LineItem{
		{ProductCode: "ABC-1", Quantity: -1, UnitPrice: 100},
	})

	assert.True(t, priced.Degraded)
	assert.Equal(t, TypeError, priced.Items[0].DiscountType)
}

func TestRoundTo_HalfAwayFromZero(t *testing.T) {
	assert.Equal(t, 2.68, roundTo(2.675000001, 2))
	assert.Equal(t, 0.13, roundTo(0.125000001, 2))
	assert.Equal(t, -0.13, roundTo(-0.125000001, 2))
	assert.Equal(t, 100.0, roundTo(99.999, 2))
}

func TestPassThrough_NormalizesInput(t *testing.T) {
	engine := newTestEngine(true)

	line := engine.passThrough("ABC-1", -5, 0, TypeError)

	assert.Equal(t, 1, line.Quantity)
	assert.Equal(t, 0.0, line.OriginalPrice)
	assert.Equal(t, 0.0, line.TotalOriginal)
}
