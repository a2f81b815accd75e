package service

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/smallbiznis/partdesk/internal/clock"
	"github.com/smallbiznis/partdesk/internal/config"
	discountdomain "github.com/smallbiznis/partdesk/internal/discount/domain"
	obsmetrics "github.com/smallbiznis/partdesk/internal/observability/metrics"
	tabledomain "github.com/smallbiznis/partdesk/internal/tablestore/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// Column titles of the remote discounts table.
const (
	colCustomerEmail  = "Customer Email"
	colCustomerDomain = "Customer Domain"
	colPercentage     = "Discount Percentage"
	colGlobal         = "Global Discount"
	colPartSpecific   = "Part Specific Discount"
	colProductCode    = "Product Code"
	colDiscountType   = "Discount Type"
	colValidFrom      = "Valid From"
	colValidUntil     = "Valid Until"
	colActive         = "Active"
	colNotes          = "Notes"
	colCreatedDate    = "Created Date"
)

const dateLayout = "2006-01-02"

type Params struct {
	fx.In

	Log     *zap.Logger
	Gateway tabledomain.Gateway
	Clock   clock.Clock
	Cfg     config.Config
	Metrics *obsmetrics.Metrics `optional:"true"`
}

type Service struct {
	log     *zap.Logger
	gateway tabledomain.Gateway
	clock   clock.Clock
	cfg     config.Config
	metrics *obsmetrics.Metrics
}

func New(p Params) discountdomain.Service {
	return &Service{
		log:     p.Log.Named("discount.service"),
		gateway: p.Gateway,
		clock:   p.Clock,
		cfg:     p.Cfg,
		metrics: p.Metrics,
	}
}

// Resolve computes the effective discount for a customer from the live
// remote table. A failed remote read degrades to the default structure
// instead of failing the caller.
func (s *Service) Resolve(ctx context.Context, customerEmail string) (*discountdomain.EffectiveDiscount, error) {
	customerEmail = strings.ToLower(strings.TrimSpace(customerEmail))
	customerDomain := domainFromEmail(customerEmail)

	timeout := time.Duration(s.cfg.Discount.ResolveTimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	rows, err := s.gateway.GetRows(ctx, s.cfg.Sheets.DiscountsSheet)
	if err != nil {
		s.log.Warn("discount table unavailable, using default discount",
			zap.String("customer_domain", customerDomain),
			zap.Error(err),
		)
		resolved := s.defaultDiscount()
		resolved.Degraded = true
		resolved.DegradedReason = "remote_table_unavailable"
		s.metrics.RecordDiscountLookup(ctx, "degraded")
		return resolved, nil
	}

	today := s.clock.Now()
	applying := make([]discountdomain.Rule, 0)
	for _, row := range rows {
		rule := ruleFromRow(row)
		if !rule.Active {
			continue
		}
		if !s.appliesToCustomer(rule, customerEmail, customerDomain) {
			continue
		}
		if !validOnDate(rule, today) {
			continue
		}
		applying = append(applying, rule)
	}

	resolved := s.combine(applying)
	s.metrics.RecordDiscountLookup(ctx, lookupKind(resolved))
	return resolved, nil
}

// ListRules returns every rule in the remote table, active or not.
func (s *Service) ListRules(ctx context.Context) ([]discountdomain.Rule, error) {
	rows, err := s.gateway.GetRows(ctx, s.cfg.Sheets.DiscountsSheet)
	if err != nil {
		return nil, err
	}

	rules := make([]discountdomain.Rule, 0, len(rows))
	for _, row := range rows {
		rules = append(rules, ruleFromRow(row))
	}
	return rules, nil
}

// AddRule validates and appends a new rule to the remote table.
func (s *Service) AddRule(ctx context.Context, req discountdomain.AddRuleRequest) (*discountdomain.Rule, error) {
	email := strings.ToLower(strings.TrimSpace(req.CustomerEmail))
	if email == "" || !strings.Contains(email, "@") {
		return nil, discountdomain.ErrInvalidEmail
	}
	if req.Percentage < 0 || req.Percentage > 100 {
		return nil, discountdomain.ErrInvalidPercentage
	}

	scope := strings.TrimSpace(req.Scope)
	if scope == "" {
		scope = discountdomain.ScopeGlobal
	}
	if scope != discountdomain.ScopeGlobal && scope != discountdomain.ScopePartSpecific {
		return nil, discountdomain.ErrInvalidScope
	}

	productCode := strings.TrimSpace(req.ProductCode)
	if scope == discountdomain.ScopePartSpecific && productCode == "" {
		return nil, discountdomain.ErrProductCodeRequired
	}

	validDays := req.ValidDays
	if validDays <= 0 {
		validDays = 365
	}

	now := s.clock.Now()
	validFrom := now
	validUntil := now.AddDate(0, 0, validDays)

	cells := map[string]string{
		colCustomerEmail:  email,
		colCustomerDomain: domainFromEmail(email),
		colPercentage:     strconv.FormatFloat(req.Percentage, 'f', -1, 64),
		colGlobal:         strconv.FormatBool(scope == discountdomain.ScopeGlobal),
		colPartSpecific:   strconv.FormatBool(scope == discountdomain.ScopePartSpecific),
		colProductCode:    productCode,
		colDiscountType:   scope,
		colValidFrom:      validFrom.Format(dateLayout),
		colValidUntil:     validUntil.Format(dateLayout),
		colActive:         "true",
		colNotes:          strings.TrimSpace(req.Notes),
		colCreatedDate:    now.Format(dateLayout),
	}

	row, err := s.gateway.AddRow(ctx, s.cfg.Sheets.DiscountsSheet, cells)
	if err != nil {
		return nil, err
	}

	s.log.Info("discount rule added",
		zap.String("scope", scope),
		zap.Float64("percentage", req.Percentage),
	)

	rule := ruleFromRow(row)
	return &rule, nil
}

func (s *Service) defaultDiscount() *discountdomain.EffectiveDiscount {
	return &discountdomain.EffectiveDiscount{
		HasDiscount:      false,
		GlobalPercentage: s.cfg.Discount.DefaultDiscount,
		PartOverrides:    map[string]discountdomain.PartOverride{},
		GlobalPriority:   s.cfg.Discount.GlobalPriority,
	}
}

func (s *Service) appliesToCustomer(rule discountdomain.Rule, email, domain string) bool {
	if rule.CustomerEmail != "" && rule.CustomerEmail == email {
		return true
	}
	if s.cfg.Discount.DomainMatching && domain != "" && rule.CustomerDomain == domain {
		return true
	}
	return false
}

// combine folds applying rules into the single effective structure:
// highest global percentage wins, part overrides keep the highest
// percentage per product code.
func (s *Service) combine(rules []discountdomain.Rule) *discountdomain.EffectiveDiscount {
	resolved := s.defaultDiscount()
	if len(rules) == 0 {
		return resolved
	}

	for i := range rules {
		rule := rules[i]
		switch rule.Scope {
		case discountdomain.ScopeGlobal:
			resolved.HasDiscount = true
			if resolved.GlobalRule == nil || rule.Percentage > resolved.GlobalPercentage {
				resolved.GlobalPercentage = rule.Percentage
				resolved.GlobalRule = &rules[i]
			}
		case discountdomain.ScopePartSpecific:
			if rule.ProductCode == "" || rule.Percentage <= 0 {
				continue
			}
			resolved.HasDiscount = true
			existing, ok := resolved.PartOverrides[rule.ProductCode]
			if !ok || rule.Percentage > existing.Percentage {
				resolved.PartOverrides[rule.ProductCode] = discountdomain.PartOverride{
					Percentage: rule.Percentage,
					Rule:       &rules[i],
				}
			}
		}
	}

	return resolved
}

func ruleFromRow(row tabledomain.Row) discountdomain.Rule {
	scope := strings.TrimSpace(row.Cell(colDiscountType))
	if scope == "" {
		if parseBool(row.Cell(colPartSpecific)) {
			scope = discountdomain.ScopePartSpecific
		} else if parseBool(row.Cell(colGlobal)) {
			scope = discountdomain.ScopeGlobal
		}
	}

	return discountdomain.Rule{
		RowID:          row.ID,
		CustomerEmail:  strings.ToLower(strings.TrimSpace(row.Cell(colCustomerEmail))),
		CustomerDomain: strings.ToLower(strings.TrimSpace(row.Cell(colCustomerDomain))),
		Percentage:     parsePercentage(row.Cell(colPercentage)),
		Scope:          scope,
		ProductCode:    strings.TrimSpace(row.Cell(colProductCode)),
		ValidFrom:      parseDate(row.Cell(colValidFrom)),
		ValidUntil:     parseDate(row.Cell(colValidUntil)),
		Active:         parseBool(row.Cell(colActive)),
		Notes:          strings.TrimSpace(row.Cell(colNotes)),
	}
}

// validOnDate checks valid_from <= today <= valid_until by calendar day.
// Missing bounds are unbounded on that side; unparsable dates leave the
// rule valid.
func validOnDate(rule discountdomain.Rule, today time.Time) bool {
	day := today.Truncate(24 * time.Hour)
	if rule.ValidFrom != nil && day.Before(rule.ValidFrom.Truncate(24*time.Hour)) {
		return false
	}
	if rule.ValidUntil != nil && day.After(rule.ValidUntil.Truncate(24*time.Hour)) {
		return false
	}
	return true
}

func parseDate(raw string) *time.Time {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	parsed, err := time.Parse(dateLayout, raw)
	if err != nil {
		// Unparsable dates leave the rule valid on that side.
		return nil
	}
	return &parsed
}

func parsePercentage(raw string) float64 {
	cleaned := strings.TrimSuffix(strings.TrimSpace(raw), "%")
	if cleaned == "" {
		return 0
	}
	value, err := strconv.ParseFloat(cleaned, 64)
	if err != nil || value < 0 {
		return 0
	}
	return value
}

func parseBool(raw string) bool {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "1", "true", "yes", "y", "on":
		return true
	default:
		return false
	}
}

func domainFromEmail(email string) string {
	at := strings.LastIndex(email, "@")
	if at < 0 || at == len(email)-1 {
		return ""
	}
	return strings.ToLower(email[at+1:])
}

func lookupKind(resolved *discountdomain.EffectiveDiscount) string {
	switch {
	case !resolved.HasDiscount:
		return "none"
	case resolved.GlobalRule != nil && len(resolved.PartOverrides) > 0:
		return "mixed"
	case resolved.GlobalRule != nil:
		return "global"
	default:
		return "part_specific"
	}
}
