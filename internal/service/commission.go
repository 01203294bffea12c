package service

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/noah-isme/mkt-backoffice-api/internal/models"
)

// PickRule selects the single rule applicable to the basis. Rules inactive at
// basis.At are ignored; among active rules the most specific scope wins:
// sku > category > shop > global. A nil result means no commission applies.
func PickRule(rules []models.CommissionRule, basis models.CommissionBasis) *models.CommissionRule {
	active := rules[:0:0]
	for _, rule := range rules {
		if rule.ActiveAt(basis.At) {
			active = append(active, rule)
		}
	}

	for _, rule := range active {
		if rule.Scope == models.ScopeSKU && rule.SKU != nil && *rule.SKU == basis.SKU {
			r := rule
			return &r
		}
	}
	for _, rule := range active {
		if rule.Scope == models.ScopeCategory && rule.Category != nil && *rule.Category == basis.Category {
			r := rule
			return &r
		}
	}
	for _, rule := range active {
		if rule.Scope == models.ScopeShop && rule.ShopID != nil && *rule.ShopID == basis.ShopID {
			r := rule
			return &r
		}
	}
	for _, rule := range active {
		if rule.Scope == models.ScopeGlobal {
			r := rule
			return &r
		}
	}
	return nil
}

// ComputeCommission applies the rule's formula to the basis and returns the
// signed amount plus a trace detail for the ledger.
func ComputeCommission(rule models.CommissionRule, basis models.CommissionBasis) (decimal.Decimal, models.CommissionDetail, error) {
	detail := models.CommissionDetail{
		RuleID: rule.ID,
		Type:   rule.Type,
		Rate:   rule.RateDecimal,
	}

	var amount decimal.Decimal
	switch rule.Type {
	case models.RulePercentProfit:
		amount = basis.Profit.Mul(rule.RateDecimal)
	case models.RulePercentGross:
		amount = basis.Revenue.Mul(rule.RateDecimal)
	case models.RuleFlatPerItem:
		// RateDecimal is a flat currency amount here, not a fraction.
		amount = rule.RateDecimal.Mul(decimal.NewFromInt(int64(basis.Qty)))
	default:
		return decimal.Zero, detail, fmt.Errorf("unknown commission rule type %q", rule.Type)
	}

	return amount, detail, nil
}

// ReverseCommission returns the negative magnitude of the amount. Reversal is
// always a negative adjustment regardless of the original sign, so reversing
// an already-negative entry cannot double-negate.
func ReverseCommission(amount decimal.Decimal) decimal.Decimal {
	return amount.Abs().Neg()
}
