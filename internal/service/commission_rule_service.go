package service

import (
	"context"
	"encoding/json"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/mkt-backoffice-api/internal/dto"
	"github.com/noah-isme/mkt-backoffice-api/internal/models"
	appErrors "github.com/noah-isme/mkt-backoffice-api/pkg/errors"
)

type ruleStore interface {
	CreateRule(ctx context.Context, rule *models.CommissionRule) error
	ListRules(ctx context.Context) ([]models.CommissionRule, error)
}

// CommissionRuleService manages the append-only rule history.
type CommissionRuleService struct {
	repo      ruleStore
	audit     auditLogger
	validator *validator.Validate
	logger    *zap.Logger
}

// NewCommissionRuleService constructs the service.
func NewCommissionRuleService(repo ruleStore, audit auditLogger, logger *zap.Logger) *CommissionRuleService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CommissionRuleService{
		repo:      repo,
		audit:     audit,
		validator: validator.New(),
		logger:    logger,
	}
}

// List returns all rules, newest first.
func (s *CommissionRuleService) List(ctx context.Context) ([]models.CommissionRule, error) {
	rules, err := s.repo.ListRules(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list commission rules")
	}
	return rules, nil
}

// Create appends a new rule. Existing rules are never edited; superseding
// happens through scope priority at resolution time.
func (s *CommissionRuleService) Create(ctx context.Context, req dto.CreateCommissionRuleRequest, actorID string) (*models.CommissionRule, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid commission rule payload")
	}
	if err := validateScopeKey(req); err != nil {
		return nil, err
	}
	if req.EffectiveTo != nil && req.EffectiveTo.Before(req.EffectiveFrom) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "effective_to precedes effective_from")
	}

	rule := &models.CommissionRule{
		Scope:         req.Scope,
		SKU:           req.SKU,
		Category:      req.Category,
		ShopID:        req.ShopID,
		Type:          req.Type,
		RateDecimal:   req.RateDecimal,
		EffectiveFrom: req.EffectiveFrom,
		EffectiveTo:   req.EffectiveTo,
		CreatedBy:     actorID,
	}
	if err := s.repo.CreateRule(ctx, rule); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create commission rule")
	}

	if s.audit != nil {
		body, _ := json.Marshal(rule)
		if err := s.audit.CreateAuditLog(ctx, &models.AuditLog{
			UserID:     &actorID,
			Action:     models.AuditActionRuleCreate,
			Resource:   "commission_rule",
			ResourceID: &rule.ID,
			NewValues:  body,
		}); err != nil {
			s.logger.Warn("failed to write rule audit log", zap.Error(err))
		}
	}
	return rule, nil
}

// validateScopeKey enforces that the scoping key matches the scope.
func validateScopeKey(req dto.CreateCommissionRuleRequest) error {
	switch req.Scope {
	case models.ScopeSKU:
		if req.SKU == nil || *req.SKU == "" {
			return appErrors.Clone(appErrors.ErrValidation, "sku is required for sku-scoped rules")
		}
	case models.ScopeCategory:
		if req.Category == nil || *req.Category == "" {
			return appErrors.Clone(appErrors.ErrValidation, "category is required for category-scoped rules")
		}
	case models.ScopeShop:
		if req.ShopID == nil || *req.ShopID == "" {
			return appErrors.Clone(appErrors.ErrValidation, "shop_id is required for shop-scoped rules")
		}
	}
	return nil
}
