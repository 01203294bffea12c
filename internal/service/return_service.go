package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/noah-isme/mkt-backoffice-api/internal/dto"
	"github.com/noah-isme/mkt-backoffice-api/internal/models"
	"github.com/noah-isme/mkt-backoffice-api/internal/policy"
	"github.com/noah-isme/mkt-backoffice-api/internal/repository"
	appErrors "github.com/noah-isme/mkt-backoffice-api/pkg/errors"
)

type returnStore interface {
	Create(ctx context.Context, ret *models.ReturnCase) error
	GetByID(ctx context.Context, id string) (*models.ReturnCase, error)
	List(ctx context.Context, filter models.ReturnFilter) ([]models.ReturnCase, error)
	UpdateStatusCAS(ctx context.Context, params repository.UpdateStatusParams) error
	CreateEvidence(ctx context.Context, evidence []models.ReturnEvidence) error
	ListEvidence(ctx context.Context, returnCaseID string) ([]models.ReturnEvidence, error)
	CreatePickup(ctx context.Context, pickup *models.ReturnPickup) error
	GetPickup(ctx context.Context, returnCaseID string) (*models.ReturnPickup, error)
	CreateAdjustment(ctx context.Context, adjustment *models.ReturnAdjustment) error
	ListAdjustments(ctx context.Context, returnCaseID string) ([]models.ReturnAdjustment, error)
}

type earningReverser interface {
	GetEarning(ctx context.Context, orderItemID, staffID string) (*models.CommissionEarning, error)
	ReverseEarning(ctx context.Context, orderItemID, staffID string, amount decimal.Decimal) error
}

type orderItemReader interface {
	GetItem(ctx context.Context, id string) (*models.OrderItem, error)
}

type auditLogger interface {
	CreateAuditLog(ctx context.Context, log *models.AuditLog) error
}

// ReturnService orchestrates the return case lifecycle. All status mutations
// flow through the transition guard and a CAS-guarded update.
type ReturnService struct {
	repo      returnStore
	earnings  earningReverser
	orders    orderItemReader
	audit     auditLogger
	policies  *policy.Provider
	validator *validator.Validate
	logger    *zap.Logger
	metrics   *MetricsService
}

// ReturnServiceOption configures the service.
type ReturnServiceOption func(*ReturnService)

// WithReturnMetrics attaches the metrics service.
func WithReturnMetrics(metrics *MetricsService) ReturnServiceOption {
	return func(s *ReturnService) { s.metrics = metrics }
}

// WithEarningReverser wires the commission ledger used when a resolution
// reverses an earning.
func WithEarningReverser(earnings earningReverser, orders orderItemReader) ReturnServiceOption {
	return func(s *ReturnService) {
		s.earnings = earnings
		s.orders = orders
	}
}

// NewReturnService constructs the service.
func NewReturnService(repo returnStore, audit auditLogger, policies *policy.Provider, logger *zap.Logger, opts ...ReturnServiceOption) *ReturnService {
	if logger == nil {
		logger = zap.NewNop()
	}
	svc := &ReturnService{
		repo:      repo,
		audit:     audit,
		policies:  policies,
		validator: validator.New(),
		logger:    logger,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(svc)
		}
	}
	return svc
}

// Create opens a return case in the reported state.
func (s *ReturnService) Create(ctx context.Context, req dto.CreateReturnRequest) (*models.ReturnCase, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid return payload")
	}
	ret := &models.ReturnCase{
		ShopID:   req.ShopID,
		Status:   models.ReturnStatusReported,
		Category: req.Category,
	}
	if err := s.repo.Create(ctx, ret); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create return case")
	}
	return ret, nil
}

// Get returns the case with its evidence, pickup and adjustments.
func (s *ReturnService) Get(ctx context.Context, id string) (*models.ReturnDetail, error) {
	ret, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "return case not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to fetch return case")
	}

	detail := &models.ReturnDetail{Case: *ret}
	if detail.Evidence, err = s.repo.ListEvidence(ctx, id); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to fetch return evidence")
	}
	if pickup, err := s.repo.GetPickup(ctx, id); err == nil {
		detail.Pickup = pickup
	} else if !errors.Is(err, sql.ErrNoRows) {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to fetch return pickup")
	}
	if detail.Adjustments, err = s.repo.ListAdjustments(ctx, id); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to fetch return adjustments")
	}
	return detail, nil
}

// List returns cases matching the filter.
func (s *ReturnService) List(ctx context.Context, filter models.ReturnFilter) ([]models.ReturnCase, error) {
	cases, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list return cases")
	}
	return cases, nil
}

// Transition applies a plain status transition. Guard rejections come back
// as a result, not an error; a lost CAS race surfaces as ErrStaleState.
func (s *ReturnService) Transition(ctx context.Context, caseID string, target models.ReturnStatus, actor *models.JWTClaims) (*dto.TransitionResult, error) {
	ret, err := s.loadCase(ctx, caseID)
	if err != nil {
		return nil, err
	}

	guardCtx, err := s.guardContext(ctx, ret, actor)
	if err != nil {
		return nil, err
	}
	if result := GuardTransition(ret.Status, target, guardCtx); !result.OK {
		s.observeTransition(target, "rejected")
		return &dto.TransitionResult{OK: false, Status: ret.Status, Reason: result.Reason}, nil
	}

	params := repository.UpdateStatusParams{ID: ret.ID, Expected: ret.Status, Target: target}
	now := time.Now().UTC()
	switch target {
	case models.ReturnStatusPickedUp:
		params.PickedAt = &now
	case models.ReturnStatusApproved:
		params.ApprovedBy = &actor.UserID
	}
	if err := s.applyTransition(ctx, ret, params, actor, models.AuditActionReturnTransition); err != nil {
		return nil, err
	}

	s.observeTransition(target, "applied")
	return &dto.TransitionResult{OK: true, Status: target}, nil
}

// Pick marks an immediate pickup (reported -> picked_up), persisting any
// evidence captured on the spot stamped with the actor and current time.
func (s *ReturnService) Pick(ctx context.Context, caseID string, req dto.PickReturnRequest, actor *models.JWTClaims) (*dto.TransitionResult, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid pick payload")
	}

	ret, err := s.loadCase(ctx, caseID)
	if err != nil {
		return nil, err
	}

	guardCtx, err := s.guardContext(ctx, ret, actor)
	if err != nil {
		return nil, err
	}
	if result := GuardTransition(ret.Status, models.ReturnStatusPickedUp, guardCtx); !result.OK {
		s.observeTransition(models.ReturnStatusPickedUp, "rejected")
		return &dto.TransitionResult{OK: false, Status: ret.Status, Reason: result.Reason}, nil
	}

	now := time.Now().UTC()
	params := repository.UpdateStatusParams{
		ID:       ret.ID,
		Expected: ret.Status,
		Target:   models.ReturnStatusPickedUp,
		PickedAt: &now,
	}
	if err := s.applyTransition(ctx, ret, params, actor, models.AuditActionReturnPick); err != nil {
		return nil, err
	}

	if len(req.Evidence) > 0 {
		evidence := make([]models.ReturnEvidence, len(req.Evidence))
		for i, in := range req.Evidence {
			evidence[i] = models.ReturnEvidence{
				ReturnCaseID: ret.ID,
				Type:         in.Type,
				URI:          in.URI,
				ContentHash:  in.ContentHash,
				TakenBy:      actor.UserID,
				TakenAt:      now,
				Geo:          in.Geo,
			}
		}
		if err := s.repo.CreateEvidence(ctx, evidence); err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to persist pick evidence")
		}
	}

	s.observeTransition(models.ReturnStatusPickedUp, "applied")
	return &dto.TransitionResult{OK: true, Status: models.ReturnStatusPickedUp}, nil
}

// SchedulePickup moves reported -> pickup_scheduled and records the pickup.
func (s *ReturnService) SchedulePickup(ctx context.Context, caseID string, req dto.SchedulePickupRequest, actor *models.JWTClaims) (*dto.SchedulePickupResult, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "scheduled_at, carrier and assigned_to are required")
	}

	ret, err := s.loadCase(ctx, caseID)
	if err != nil {
		return nil, err
	}

	guardCtx, err := s.guardContext(ctx, ret, actor)
	if err != nil {
		return nil, err
	}
	if result := GuardTransition(ret.Status, models.ReturnStatusPickupScheduled, guardCtx); !result.OK {
		s.observeTransition(models.ReturnStatusPickupScheduled, "rejected")
		return nil, appErrors.Clone(appErrors.ErrInvalidTransition, result.Reason)
	}

	params := repository.UpdateStatusParams{
		ID:       ret.ID,
		Expected: ret.Status,
		Target:   models.ReturnStatusPickupScheduled,
	}
	if err := s.applyTransition(ctx, ret, params, actor, models.AuditActionReturnPickup); err != nil {
		return nil, err
	}

	pickup := &models.ReturnPickup{
		ReturnCaseID: ret.ID,
		ScheduledAt:  req.ScheduledAt,
		Carrier:      req.Carrier,
		Tracking:     req.Tracking,
		AssignedTo:   req.AssignedTo,
		Notes:        req.Notes,
	}
	if err := s.repo.CreatePickup(ctx, pickup); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create pickup")
	}

	s.observeTransition(models.ReturnStatusPickupScheduled, "applied")
	return &dto.SchedulePickupResult{OK: true, PickupID: pickup.ID, Status: models.ReturnStatusPickupScheduled}, nil
}

// SubmitEvidence appends evidence to an in-flight case. Evidence inserts are
// append-only and safe to run concurrently.
func (s *ReturnService) SubmitEvidence(ctx context.Context, caseID string, req dto.SubmitEvidenceRequest, actor *models.JWTClaims) ([]models.ReturnEvidence, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid evidence payload")
	}

	ret, err := s.loadCase(ctx, caseID)
	if err != nil {
		return nil, err
	}
	if ret.Status.Terminal() {
		return nil, appErrors.Clone(appErrors.ErrConflict, "cannot attach evidence to a resolved return")
	}

	now := time.Now().UTC()
	evidence := make([]models.ReturnEvidence, len(req.Evidence))
	for i, in := range req.Evidence {
		evidence[i] = models.ReturnEvidence{
			ReturnCaseID: ret.ID,
			Type:         in.Type,
			URI:          in.URI,
			ContentHash:  in.ContentHash,
			TakenBy:      actor.UserID,
			TakenAt:      now,
			Geo:          in.Geo,
		}
	}
	if err := s.repo.CreateEvidence(ctx, evidence); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to persist evidence")
	}
	return evidence, nil
}

// Resolve closes a case from received (or approved). When the request names
// an order item and amount it records a return adjustment, defaulting the
// commission impact to reverse, and reverses the item's earned commission.
func (s *ReturnService) Resolve(ctx context.Context, caseID string, req dto.ResolveReturnRequest, actor *models.JWTClaims) (*dto.ResolveResult, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "resolution is required")
	}
	if (req.OrderItemID == nil) != (req.Amount == nil) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "order_item_id and amount must be supplied together")
	}

	ret, err := s.loadCase(ctx, caseID)
	if err != nil {
		return nil, err
	}

	guardCtx, err := s.guardContext(ctx, ret, actor)
	if err != nil {
		return nil, err
	}
	if result := GuardTransition(ret.Status, models.ReturnStatusResolved, guardCtx); !result.OK {
		s.observeTransition(models.ReturnStatusResolved, "rejected")
		return &dto.ResolveResult{OK: false, Status: ret.Status, Reason: result.Reason}, nil
	}

	params := repository.UpdateStatusParams{
		ID:         ret.ID,
		Expected:   ret.Status,
		Target:     models.ReturnStatusResolved,
		Resolution: &req.Resolution,
	}
	if err := s.applyTransition(ctx, ret, params, actor, models.AuditActionReturnResolve); err != nil {
		return nil, err
	}

	result := &dto.ResolveResult{OK: true, Status: models.ReturnStatusResolved}
	if req.OrderItemID != nil && req.Amount != nil {
		impact := models.CommissionImpactReverse
		if req.CommissionImpact != nil {
			impact = *req.CommissionImpact
		}
		adjustment := &models.ReturnAdjustment{
			ReturnCaseID:     ret.ID,
			OrderItemID:      *req.OrderItemID,
			Amount:           *req.Amount,
			CommissionImpact: impact,
			Notes:            req.Notes,
		}
		if err := s.repo.CreateAdjustment(ctx, adjustment); err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create return adjustment")
		}
		result.AdjustmentID = &adjustment.ID

		if impact == models.CommissionImpactReverse {
			s.reverseEarnedCommission(ctx, *req.OrderItemID)
		}
	}

	s.observeTransition(models.ReturnStatusResolved, "applied")
	return result, nil
}

func (s *ReturnService) loadCase(ctx context.Context, caseID string) (*models.ReturnCase, error) {
	ret, err := s.repo.GetByID(ctx, caseID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "return case not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to fetch return case")
	}
	return ret, nil
}

// guardContext assembles everything the transition guard consults for this
// case: the actor role, current evidence, and the category's policy.
func (s *ReturnService) guardContext(ctx context.Context, ret *models.ReturnCase, actor *models.JWTClaims) (GuardContext, error) {
	evidence, err := s.repo.ListEvidence(ctx, ret.ID)
	if err != nil {
		return GuardContext{}, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to fetch return evidence")
	}
	types := make([]models.EvidenceType, len(evidence))
	for i, e := range evidence {
		types[i] = e.Type
	}

	category := ""
	if ret.Category != nil {
		category = *ret.Category
	}

	received := ret.Status == models.ReturnStatusReceived || ret.Status == models.ReturnStatusApproved
	return GuardContext{
		Role:     actor.Role,
		Evidence: types,
		Category: category,
		Policy:   s.policies.ForCategory(category),
		Received: received,
	}, nil
}

// applyTransition performs the CAS update and emits the audit record with
// before/after snapshots. A zero-row update is a stale-state conflict.
func (s *ReturnService) applyTransition(ctx context.Context, ret *models.ReturnCase, params repository.UpdateStatusParams, actor *models.JWTClaims, action string) error {
	if err := s.repo.UpdateStatusCAS(ctx, params); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			s.observeTransition(params.Target, "conflict")
			return appErrors.ErrStaleState
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update return status")
	}

	before, _ := json.Marshal(map[string]interface{}{"status": ret.Status})
	after, _ := json.Marshal(map[string]interface{}{"status": params.Target, "resolution": params.Resolution})
	s.emitAudit(ctx, &models.AuditLog{
		UserID:     &actor.UserID,
		Action:     action,
		Resource:   "return_case",
		ResourceID: &ret.ID,
		OldValues:  before,
		NewValues:  after,
	})
	return nil
}

// reverseEarnedCommission flips the ledger entry for the returned item to a
// negative-magnitude amount. A missing earning is not an error; the item may
// never have earned commission.
func (s *ReturnService) reverseEarnedCommission(ctx context.Context, orderItemID string) {
	if s.earnings == nil || s.orders == nil {
		return
	}
	item, err := s.orders.GetItem(ctx, orderItemID)
	if err != nil {
		s.logger.Warn("fetch order item for commission reversal", zap.String("order_item_id", orderItemID), zap.Error(err))
		return
	}
	earning, err := s.earnings.GetEarning(ctx, orderItemID, item.StaffID)
	if err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			s.logger.Warn("fetch earning for commission reversal", zap.String("order_item_id", orderItemID), zap.Error(err))
		}
		return
	}
	reversed := ReverseCommission(earning.Amount)
	if err := s.earnings.ReverseEarning(ctx, orderItemID, item.StaffID, reversed); err != nil {
		s.logger.Warn("reverse commission earning", zap.String("order_item_id", orderItemID), zap.Error(err))
	}
}

// emitAudit writes the audit record without blocking the primary mutation.
func (s *ReturnService) emitAudit(ctx context.Context, log *models.AuditLog) {
	if s.audit == nil {
		return
	}
	if err := s.audit.CreateAuditLog(ctx, log); err != nil {
		s.logger.Warn("failed to write audit log", zap.String("action", log.Action), zap.Error(err))
	}
}

func (s *ReturnService) observeTransition(target models.ReturnStatus, outcome string) {
	if s.metrics != nil {
		s.metrics.ObserveReturnTransition(string(target), outcome)
	}
}
