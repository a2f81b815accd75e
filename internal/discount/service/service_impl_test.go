package service

import (
	"context"
	"testing"
	"time"

	"github.com/smallbiznis/partdesk/internal/clock"
	"github.com/smallbiznis/partdesk/internal/config"
	discountdomain "github.com/smallbiznis/partdesk/internal/discount/domain"
	tabledomain "github.com/smallbiznis/partdesk/internal/tablestore/domain"
	"github.com/smallbiznis/partdesk/internal/tablestore/memory"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

const discountsSheet = "Customer Discounts"

func newTestService(gateway *memory.Gateway, now time.Time) discountdomain.Service {
	return New(Params{
		Log:     zap.NewNop(),
		Gateway: gateway,
		Clock:   clock.NewFakeClock(now),
		Cfg: config.Config{
			Sheets: config.SheetsConfig{DiscountsSheet: discountsSheet},
			Discount: config.DiscountConfig{
				MaxDiscountPercentage: 50,
				GlobalPriority:        true,
				DomainMatching:        true,
				RoundingPlaces:        2,
				ResolveTimeoutSeconds: 5,
			},
		},
	})
}

func globalRow(email, pct, validFrom, validUntil, active string) map[string]string {
	return map[string]string{
		"Customer Email":      email,
		"Discount Percentage": pct,
		"Discount Type":       "Global",
		"Valid From":          validFrom,
		"Valid Until":         validUntil,
		"Active":              active,
	}
}

func partRow(email, code, pct string) map[string]string {
	return map[string]string{
		"Customer Email":      email,
		"Product Code":        code,
		"Discount Percentage": pct,
		"Discount Type":       "Part-Specific",
		"Active":              "true",
	}
}

func TestResolve_EmailMatch(t *testing.T) {
	now := time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)
	gateway := memory.New()
	gateway.Seed(discountsSheet, []map[string]string{
		globalRow("Buyer@Example.com", "15", "2026-01-01", "2026-12-31", "true"),
	})
	svc := newTestService(gateway, now)

	resolved, err := svc.Resolve(context.Background(), "buyer@example.com")

	assert.NoError(t, err)
	assert.True(t, resolved.HasDiscount)
	assert.Equal(t, 15.0, resolved.GlobalPercentage)
	assert.False(t, resolved.Degraded)
}

func TestResolve_DomainMatch(t *testing.T) {
	now := time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)
	gateway := memory.New()
	gateway.Seed(discountsSheet, []map[string]string{
		{
			"Customer Domain":     "example.com",
			"Discount Percentage": "10",
			"Discount Type":       "Global",
			"Active":              "true",
		},
	})
	svc := newTestService(gateway, now)

	resolved, err := svc.Resolve(context.Background(), "anyone@example.com")
	assert.NoError(t, err)
	assert.Equal(t, 10.0, resolved.GlobalPercentage)

	other, err := svc.Resolve(context.Background(), "anyone@other.com")
	assert.NoError(t, err)
	assert.False(t, other.HasDiscount)
}

func TestResolve_DateWindow(t *testing.T) {
	now := time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)
	gateway := memory.New()
	gateway.Seed(discountsSheet, []map[string]string{
		globalRow("a@x.com", "10", "2026-03-01", "2026-03-15", "true"),
		globalRow("b@x.com", "10", "2026-03-01", "2026-03-14", "true"),
		globalRow("c@x.com", "10", "2026-03-16", "2026-03-31", "true"),
	})
	svc := newTestService(gateway, now)

	endsToday, err := svc.Resolve(context.Background(), "a@x.com")
	assert.NoError(t, err)
	assert.True(t, endsToday.HasDiscount)

	expired, err := svc.Resolve(context.Background(), "b@x.com")
	assert.NoError(t, err)
	assert.False(t, expired.HasDiscount)

	notYet, err := svc.Resolve(context.Background(), "c@x.com")
	assert.NoError(t, err)
	assert.False(t, notYet.HasDiscount)
}

func TestResolve_UnparsableDatesLeaveRuleValid(t *testing.T) {
	now := time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)
	gateway := memory.New()
	gateway.Seed(discountsSheet, []map[string]string{
		globalRow("a@x.com", "10", "not a date", "also bad", "true"),
	})
	svc := newTestService(gateway, now)

	resolved, err := svc.Resolve(context.Background(), "a@x.com")

	assert.NoError(t, err)
	assert.True(t, resolved.HasDiscount)
	assert.Equal(t, 10.0, resolved.GlobalPercentage)
}

func TestResolve_InactiveRuleIgnored(t *testing.T) {
	now := time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)
	gateway := memory.New()
	gateway.Seed(discountsSheet, []map[string]string{
		globalRow("a@x.com", "10", "", "", "false"),
	})
	svc := newTestService(gateway, now)

	resolved, err := svc.Resolve(context.Background(), "a@x.com")

	assert.NoError(t, err)
	assert.False(t, resolved.HasDiscount)
}

func TestResolve_BestGlobalWins(t *testing.T) {
	now := time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)
	gateway := memory.New()
	gateway.Seed(discountsSheet, []map[string]string{
		globalRow("a@x.com", "10", "", "", "true"),
		globalRow("a@x.com", "25", "", "", "true"),
		globalRow("a@x.com", "5", "", "", "true"),
	})
	svc := newTestService(gateway, now)

	resolved, err := svc.Resolve(context.Background(), "a@x.com")

	assert.NoError(t, err)
	assert.Equal(t, 25.0, resolved.GlobalPercentage)
}

func TestResolve_PartOverridesKeepHighestPerCode(t *testing.T) {
	now := time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)
	gateway := memory.New()
	gateway.Seed(discountsSheet, []map[string]string{
		partRow("a@x.com", "ABC-1", "10"),
		partRow("a@x.com", "ABC-1", "20"),
		partRow("a@x.com", "DEF-2", "5"),
	})
	svc := newTestService(gateway, now)

	resolved, err := svc.Resolve(context.Background(), "a@x.com")

	assert.NoError(t, err)
	assert.True(t, resolved.HasDiscount)
	assert.Len(t, resolved.PartOverrides, 2)
	assert.Equal(t, 20.0, resolved.PartOverrides["ABC-1"].Percentage)
	assert.Equal(t, 5.0, resolved.PartOverrides["DEF-2"].Percentage)
}

func TestResolve_DegradesWhenRemoteUnavailable(t *testing.T) {
	now := time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)
	gateway := memory.New()
	gateway.FailNext(tabledomain.ErrRemoteUnavailable)
	svc := newTestService(gateway, now)

	resolved, err := svc.Resolve(context.Background(), "a@x.com")

	assert.NoError(t, err)
	assert.True(t, resolved.Degraded)
	assert.Equal(t, "remote_table_unavailable", resolved.DegradedReason)
	assert.False(t, resolved.HasDiscount)
}

func TestAddRule_Validation(t *testing.T) {
	now := time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)
	svc := newTestService(memory.New(), now)
	ctx := context.Background()

	_, err := svc.AddRule(ctx, discountdomain.AddRuleRequest{CustomerEmail: "nope", Percentage: 10})
	assert.ErrorIs(t, err, discountdomain.ErrInvalidEmail)

	_, err = svc.AddRule(ctx, discountdomain.AddRuleRequest{CustomerEmail: "a@x.com", Percentage: 120})
	assert.ErrorIs(t, err, discountdomain.ErrInvalidPercentage)

	_, err = svc.AddRule(ctx, discountdomain.AddRuleRequest{CustomerEmail: "a@x.com", Percentage: 10, Scope: "Weird"})
	assert.ErrorIs(t, err, discountdomain.ErrInvalidScope)

	_, err = svc.AddRule(ctx, discountdomain.AddRuleRequest{
		CustomerEmail: "a@x.com",
		Percentage:    10,
		Scope:         discountdomain.ScopePartSpecific,
	})
	assert.ErrorIs(t, err, discountdomain.ErrProductCodeRequired)
}

func TestAddRule_WritesAndResolves(t *testing.T) {
	now := time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)
	gateway := memory.New()
	svc := newTestService(gateway, now)
	ctx := context.Background()

	rule, err := svc.AddRule(ctx, discountdomain.AddRuleRequest{
		CustomerEmail: "Buyer@Example.com",
		Percentage:    12.5,
		Notes:         "negotiated",
	})

	assert.NoError(t, err)
	assert.Equal(t, "buyer@example.com", rule.CustomerEmail)
	assert.Equal(t, discountdomain.ScopeGlobal, rule.Scope)
	assert.Equal(t, 12.5, rule.Percentage)
	assert.True(t, rule.Active)

	resolved, err := svc.Resolve(ctx, "buyer@example.com")
	assert.NoError(t, err)
	assert.Equal(t, 12.5, resolved.GlobalPercentage)
}

func TestParsePercentage(t *testing.T) {
	assert.Equal(t, 15.0, parsePercentage("15"))
	assert.Equal(t, 15.0, parsePercentage(" 15% "))
	assert.Equal(t, 0.0, parsePercentage("abc"))
	assert.Equal(t, 0.0, parsePercentage("-5"))
	assert.Equal(t, 0.0, parsePercentage(""))
}

func TestDomainFromEmail(t *testing.T) {
	assert.Equal(t, "example.com", domainFromEmail("a@example.com"))
	assert.Equal(t, "", domainFromEmail("no-at-sign"))
	assert.Equal(t, "", domainFromEmail("trailing@"))
}
