package domain

import (
	"context"
	"errors"
)

type Service interface {
	Resolve(ctx context.Context, customerEmail string) (*EffectiveDiscount, error)
	ListRules(ctx context.Context) ([]Rule, error)
	AddRule(ctx context.Context, req AddRuleRequest) (*Rule, error)
}

// AddRuleRequest creates a new discount rule in the remote table.
type AddRuleRequest struct {
	CustomerEmail string  `json:"customer_email"`
	Percentage    float64 `json:"discount_percentage"`
	Scope         string  `json:"discount_type"`
	ProductCode   string  `json:"product_code,omitempty"`
	Notes         string  `json:"notes,omitempty"`
	ValidDays     int     `json:"valid_days,omitempty"`
}

var (
	ErrInvalidEmail        = errors.New("invalid_customer_email")
	ErrInvalidPercentage   = errors.New("invalid_discount_percentage")
	ErrInvalidScope        = errors.New("invalid_discount_scope")
	ErrProductCodeRequired = errors.New("product_code_required")
)
