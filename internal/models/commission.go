package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// RuleScope is the specificity level a commission rule applies at.
type RuleScope string

const (
	ScopeSKU      RuleScope = "sku"
	ScopeCategory RuleScope = "category"
	ScopeShop     RuleScope = "shop"
	ScopeGlobal   RuleScope = "global"
)

// RuleType selects the commission formula.
type RuleType string

const (
	RulePercentProfit RuleType = "percent_profit"
	RulePercentGross  RuleType = "percent_gross"
	RuleFlatPerItem   RuleType = "flat_per_item"
)

// CommissionRule defines a commission formula for a scope. Rules are
// append-only; a newer rule supersedes by scope priority rather than editing
// history.
type CommissionRule struct {
	ID            string          `db:"id" json:"id"`
	Scope         RuleScope       `db:"scope" json:"scope"`
	SKU           *string         `db:"sku" json:"sku,omitempty"`
	Category      *string         `db:"category" json:"category,omitempty"`
	ShopID        *string         `db:"shop_id" json:"shop_id,omitempty"`
	Type          RuleType        `db:"type" json:"type"`
	RateDecimal   decimal.Decimal `db:"rate_decimal" json:"rate_decimal"`
	EffectiveFrom time.Time       `db:"effective_from" json:"effective_from"`
	EffectiveTo   *time.Time      `db:"effective_to" json:"effective_to,omitempty"`
	CreatedBy     string          `db:"created_by" json:"created_by"`
	CreatedAt     time.Time       `db:"created_at" json:"created_at"`
}

// ActiveAt reports whether the rule's effectivity window covers ts.
func (r CommissionRule) ActiveAt(ts time.Time) bool {
	if ts.Before(r.EffectiveFrom) {
		return false
	}
	if r.EffectiveTo != nil && ts.After(*r.EffectiveTo) {
		return false
	}
	return true
}

// EarningStatus captures the ledger state of a commission earning.
type EarningStatus string

const (
	EarningPending  EarningStatus = "pending"
	EarningApproved EarningStatus = "approved"
	EarningReversed EarningStatus = "reversed"
)

// CommissionEarning is the ledger entry for a staff member's commission on an
// order item. Earnings are keyed on (order_item_id, staff_id) so recomputes
// reconcile in place instead of appending duplicates.
type CommissionEarning struct {
	ID          string          `db:"id" json:"id"`
	OrderItemID string          `db:"order_item_id" json:"order_item_id"`
	StaffID     string          `db:"staff_id" json:"staff_id"`
	Amount      decimal.Decimal `db:"amount" json:"amount"`
	Detail      []byte          `db:"detail" json:"detail"`
	Status      EarningStatus   `db:"status" json:"status"`
	CreatedAt   time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time       `db:"updated_at" json:"updated_at"`
}

// CommissionBasis is the financial snapshot a rule is resolved and computed
// against.
type CommissionBasis struct {
	Revenue  decimal.Decimal `json:"revenue"`
	Profit   decimal.Decimal `json:"profit"`
	Qty      int             `json:"qty"`
	SKU      string          `json:"sku"`
	Category string          `json:"category"`
	ShopID   string          `json:"shop_id"`
	At       time.Time       `json:"at"`
}

// CommissionDetail records the formula trace for audit traceability.
type CommissionDetail struct {
	RuleID string          `json:"rule_id"`
	Type   RuleType        `json:"type"`
	Rate   decimal.Decimal `json:"rate"`
}
