package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/noah-isme/mkt-backoffice-api/internal/models"
)

// CreateCommissionRuleRequest appends a new rule to the rule history.
type CreateCommissionRuleRequest struct {
	Scope         models.RuleScope `json:"scope" validate:"required,oneof=sku category shop global"`
	SKU           *string          `json:"sku,omitempty"`
	Category      *string          `json:"category,omitempty"`
	ShopID        *string          `json:"shop_id,omitempty"`
	Type          models.RuleType  `json:"type" validate:"required,oneof=percent_profit percent_gross flat_per_item"`
	RateDecimal   decimal.Decimal  `json:"rate_decimal" validate:"required"`
	EffectiveFrom time.Time        `json:"effective_from" validate:"required"`
	EffectiveTo   *time.Time       `json:"effective_to,omitempty"`
}
