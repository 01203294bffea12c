package service

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/mkt-backoffice-api/internal/dto"
	"github.com/noah-isme/mkt-backoffice-api/internal/models"
)

type ruleStoreStub struct {
	rules []models.CommissionRule
}

func (r *ruleStoreStub) CreateRule(ctx context.Context, rule *models.CommissionRule) error {
	rule.ID = "rule-1"
	r.rules = append(r.rules, *rule)
	return nil
}

func (r *ruleStoreStub) ListRules(ctx context.Context) ([]models.CommissionRule, error) {
	return r.rules, nil
}

func validRuleRequest() dto.CreateCommissionRuleRequest {
	return dto.CreateCommissionRuleRequest{
		Scope:         models.ScopeGlobal,
		Type:          models.RulePercentProfit,
		RateDecimal:   decimal.RequireFromString("0.10"),
		EffectiveFrom: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}

func TestCommissionRuleServiceCreate(t *testing.T) {
	store := &ruleStoreStub{}
	audit := &auditStub{}
	svc := NewCommissionRuleService(store, audit, nil)

	rule, err := svc.Create(context.Background(), validRuleRequest(), "admin-1")
	require.NoError(t, err)
	require.Equal(t, "rule-1", rule.ID)
	require.Equal(t, "admin-1", rule.CreatedBy)
	require.Contains(t, audit.actions(), models.AuditActionRuleCreate)
}

func TestCommissionRuleServiceScopeKeyRequired(t *testing.T) {
	svc := NewCommissionRuleService(&ruleStoreStub{}, nil, nil)

	tests := []struct {
		name  string
		scope models.RuleScope
	}{
		{"sku scope needs sku", models.ScopeSKU},
		{"category scope needs category", models.ScopeCategory},
		{"shop scope needs shop_id", models.ScopeShop},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := validRuleRequest()
			req.Scope = tt.scope
			_, err := svc.Create(context.Background(), req, "admin-1")
			require.Error(t, err)
		})
	}
}

func TestCommissionRuleServiceWindowOrdering(t *testing.T) {
	svc := NewCommissionRuleService(&ruleStoreStub{}, nil, nil)

	req := validRuleRequest()
	before := req.EffectiveFrom.Add(-time.Hour)
	req.EffectiveTo = &before
	_, err := svc.Create(context.Background(), req, "admin-1")
	require.Error(t, err)
	require.ErrorContains(t, err, "effective_to precedes effective_from")
}
