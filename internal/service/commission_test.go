package service

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/mkt-backoffice-api/internal/models"
)

func strPtr(s string) *string { return &s }

func testRule(id string, scope models.RuleScope, ruleType models.RuleType, rate string) models.CommissionRule {
	return models.CommissionRule{
		ID:            id,
		Scope:         scope,
		Type:          ruleType,
		RateDecimal:   decimal.RequireFromString(rate),
		EffectiveFrom: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}

func TestPickRuleScopePriority(t *testing.T) {
	skuRule := testRule("r-sku", models.ScopeSKU, models.RulePercentProfit, "0.10")
	skuRule.SKU = strPtr("SKU-1")
	catRule := testRule("r-cat", models.ScopeCategory, models.RulePercentProfit, "0.08")
	catRule.Category = strPtr("electronics")
	shopRule := testRule("r-shop", models.ScopeShop, models.RulePercentProfit, "0.05")
	shopRule.ShopID = strPtr("shop-1")
	globalRule := testRule("r-global", models.ScopeGlobal, models.RulePercentProfit, "0.02")

	basis := models.CommissionBasis{
		SKU:      "SKU-1",
		Category: "electronics",
		ShopID:   "shop-1",
		At:       time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC),
	}

	rules := []models.CommissionRule{globalRule, shopRule, catRule, skuRule}

	picked := PickRule(rules, basis)
	require.NotNil(t, picked)
	require.Equal(t, "r-sku", picked.ID)

	basis.SKU = "SKU-other"
	picked = PickRule(rules, basis)
	require.Equal(t, "r-cat", picked.ID)

	basis.Category = "furniture"
	picked = PickRule(rules, basis)
	require.Equal(t, "r-shop", picked.ID)

	basis.ShopID = "shop-other"
	picked = PickRule(rules, basis)
	require.Equal(t, "r-global", picked.ID)
}

func TestPickRuleEffectivityWindow(t *testing.T) {
	rule := testRule("r-1", models.ScopeGlobal, models.RulePercentGross, "0.03")
	until := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)
	rule.EffectiveTo = &until

	basis := models.CommissionBasis{At: time.Date(2025, 12, 1, 0, 0, 0, 0, time.UTC)}
	require.Nil(t, PickRule([]models.CommissionRule{rule}, basis))

	basis.At = time.Date(2026, 1, 15, 0, 0, 0, 0, time.UTC)
	require.NotNil(t, PickRule([]models.CommissionRule{rule}, basis))

	basis.At = time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	require.Nil(t, PickRule([]models.CommissionRule{rule}, basis))
}

func TestPickRuleNoMatch(t *testing.T) {
	skuRule := testRule("r-sku", models.ScopeSKU, models.RulePercentProfit, "0.10")
	skuRule.SKU = strPtr("SKU-1")

	basis := models.CommissionBasis{
		SKU: "SKU-2",
		At:  time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC),
	}
	require.Nil(t, PickRule([]models.CommissionRule{skuRule}, basis))
}

func TestComputeCommissionFormulas(t *testing.T) {
	basis := models.CommissionBasis{
		Revenue: decimal.RequireFromString("2500"),
		Profit:  decimal.RequireFromString("1000"),
		Qty:     4,
	}

	tests := []struct {
		name     string
		ruleType models.RuleType
		rate     string
		want     string
	}{
		{"percent of profit", models.RulePercentProfit, "0.10", "100"},
		{"percent of gross", models.RulePercentGross, "0.02", "50"},
		{"flat per item", models.RuleFlatPerItem, "12.5", "50"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rule := testRule("r-1", models.ScopeGlobal, tt.ruleType, tt.rate)
			amount, detail, err := ComputeCommission(rule, basis)
			require.NoError(t, err)
			require.True(t, amount.Equal(decimal.RequireFromString(tt.want)),
				"got %s want %s", amount, tt.want)
			require.Equal(t, "r-1", detail.RuleID)
			require.Equal(t, tt.ruleType, detail.Type)
		})
	}
}

func TestComputeCommissionUnknownType(t *testing.T) {
	rule := testRule("r-1", models.ScopeGlobal, models.RuleType("bogus"), "0.1")
	_, _, err := ComputeCommission(rule, models.CommissionBasis{})
	require.Error(t, err)
}

func TestComputeCommissionNegativeProfit(t *testing.T) {
	rule := testRule("r-1", models.ScopeGlobal, models.RulePercentProfit, "0.10")
	basis := models.CommissionBasis{Profit: decimal.RequireFromString("-200")}
	amount, _, err := ComputeCommission(rule, basis)
	require.NoError(t, err)
	require.True(t, amount.Equal(decimal.RequireFromString("-20")))
}

func TestReverseCommissionIdempotent(t *testing.T) {
	amount := decimal.RequireFromString("100")
	reversed := ReverseCommission(amount)
	require.True(t, reversed.Equal(decimal.RequireFromString("-100")))

	// Reversing an already reversed amount keeps the negative magnitude.
	require.True(t, ReverseCommission(reversed).Equal(reversed))
	require.True(t, ReverseCommission(decimal.Zero).Equal(decimal.Zero))
}
