package domain

import "time"

// Rule scopes.
const (
	ScopeGlobal       = "Global"
	ScopePartSpecific = "Part-Specific"
)

// Rule is one discount row from the remote discounts table. Rules are
// pulled live on every resolution so spreadsheet edits apply immediately.
type Rule struct {
	RowID          int64      `json:"row_id"`
	CustomerEmail  string     `json:"customer_email"`
	CustomerDomain string     `json:"customer_domain"`
	Percentage     float64    `json:"discount_percentage"`
	Scope          string     `json:"scope"`
	ProductCode    string     `json:"product_code,omitempty"`
	ValidFrom      *time.Time `json:"valid_from,omitempty"`
	ValidUntil     *time.Time `json:"valid_until,omitempty"`
	Active         bool       `json:"active"`
	Notes          string     `json:"notes,omitempty"`
}

// PartOverride is the winning part-specific percentage for one code.
type PartOverride struct {
	Percentage float64 `json:"percentage"`
	Rule       *Rule   `json:"rule,omitempty"`
}

// EffectiveDiscount is the resolved discount structure for one customer.
// It is computed fresh per request and never cached.
type EffectiveDiscount struct {
	HasDiscount      bool                    `json:"has_discount"`
	GlobalPercentage float64                 `json:"global_percentage"`
	GlobalRule       *Rule                   `json:"global_rule,omitempty"`
	PartOverrides    map[string]PartOverride `json:"part_overrides,omitempty"`
	GlobalPriority   bool                    `json:"global_priority"`

	// Degraded marks a resolution that fell back to the default
	// structure because the remote store could not be read. Callers
	// can distinguish this from a clean zero discount.
	Degraded       bool   `json:"degraded,omitempty"`
	DegradedReason string `json:"degraded_reason,omitempty"`
}
