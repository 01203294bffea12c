package service

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/noah-isme/mkt-backoffice-api/internal/dto"
	"github.com/noah-isme/mkt-backoffice-api/internal/models"
	"github.com/noah-isme/mkt-backoffice-api/internal/repository"
	appErrors "github.com/noah-isme/mkt-backoffice-api/pkg/errors"
)

type recomputeOrderStore interface {
	ListItemsInWindow(ctx context.Context, window repository.ItemWindow) ([]models.OrderItem, error)
	ListAdjustmentsForItems(ctx context.Context, itemIDs []string) (map[string][]models.SettlementAdjustment, error)
}

type recomputeLedger interface {
	ListRules(ctx context.Context) ([]models.CommissionRule, error)
	UpsertEarning(ctx context.Context, earning *models.CommissionEarning) (repository.UpsertEarningResult, error)
}

type snapshotWriter interface {
	CreateSnapshots(ctx context.Context, snapshots []models.ProfitSnapshot) error
}

type summaryCache interface {
	Key(kind, shopID string, from, to time.Time) string
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration)
}

// RecomputeService re-derives commission ledger entries and profit snapshots
// for a time window. Runs are idempotent: earnings reconcile in place keyed
// on (order_item_id, staff_id), and profit snapshots version by run id.
//
// A failed item never aborts the batch; it is skipped and recorded in the
// summary. The same policy applies to both operations.
type RecomputeService struct {
	orders    recomputeOrderStore
	ledger    recomputeLedger
	snapshots snapshotWriter
	audit     auditLogger
	cache     summaryCache
	logger    *zap.Logger
	metrics   *MetricsService

	chunkSize int
	cacheTTL  time.Duration
}

// RecomputeServiceOption configures the service.
type RecomputeServiceOption func(*RecomputeService)

// WithRecomputeChunkSize bounds how many items one store round-trip handles.
func WithRecomputeChunkSize(size int) RecomputeServiceOption {
	return func(s *RecomputeService) {
		if size > 0 {
			s.chunkSize = size
		}
	}
}

// WithSummaryCache caches commission summaries per (shop, window).
func WithSummaryCache(cache summaryCache, ttl time.Duration) RecomputeServiceOption {
	return func(s *RecomputeService) {
		s.cache = cache
		if ttl > 0 {
			s.cacheTTL = ttl
		}
	}
}

// WithRecomputeMetrics attaches the metrics service.
func WithRecomputeMetrics(metrics *MetricsService) RecomputeServiceOption {
	return func(s *RecomputeService) { s.metrics = metrics }
}

// NewRecomputeService constructs the engine.
func NewRecomputeService(orders recomputeOrderStore, ledger recomputeLedger, snapshots snapshotWriter, audit auditLogger, logger *zap.Logger, opts ...RecomputeServiceOption) *RecomputeService {
	if logger == nil {
		logger = zap.NewNop()
	}
	svc := &RecomputeService{
		orders:    orders,
		ledger:    ledger,
		snapshots: snapshots,
		audit:     audit,
		logger:    logger,
		chunkSize: 200,
		cacheTTL:  10 * time.Minute,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(svc)
		}
	}
	return svc
}

// RecomputeCommissions re-resolves and recomputes commission for every order
// item in the window, reconciling the earnings ledger. Safe to re-run for an
// overlapping window; already-processed items update in place.
func (s *RecomputeService) RecomputeCommissions(ctx context.Context, req dto.RecomputeRequest, actorID string) (*dto.CommissionRecomputeSummary, error) {
	if err := validateWindow(req); err != nil {
		return nil, err
	}

	rules, err := s.ledger.ListRules(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load commission rules")
	}

	summary := &dto.CommissionRecomputeSummary{
		From:        req.From,
		To:          req.To,
		ShopID:      req.ShopID,
		TotalAmount: decimal.Zero,
	}

	err = s.eachChunk(ctx, req, func(items []models.OrderItem, adjustments map[string][]models.SettlementAdjustment) {
		for _, item := range items {
			summary.Processed++
			if err := s.recomputeItemCommission(ctx, rules, item, adjustments[item.ID], summary); err != nil {
				summary.Failures = append(summary.Failures, dto.ItemFailure{OrderItemID: item.ID, Error: err.Error()})
				s.observeItemFailure()
				s.logger.Warn("commission recompute item skipped",
					zap.String("order_item_id", item.ID), zap.Error(err))
			}
		}
	})
	if err != nil {
		return nil, err
	}

	s.emitBatchAudit(ctx, actorID, models.AuditActionRecomputeCommissions, summary)
	s.observeBatch("commissions")

	if s.cache != nil {
		key := s.cache.Key("commissions", req.ShopID, req.From, req.To)
		s.cache.Set(ctx, key, summary, s.cacheTTL)
	}
	return summary, nil
}

func (s *RecomputeService) recomputeItemCommission(ctx context.Context, rules []models.CommissionRule, item models.OrderItem, adjustments []models.SettlementAdjustment, summary *dto.CommissionRecomputeSummary) error {
	breakdown := ComputeProfit(profitInputsFor(item, adjustments))
	basis := models.CommissionBasis{
		Revenue:  breakdown.Revenue,
		Profit:   breakdown.Profit,
		Qty:      item.Qty,
		SKU:      item.SKU,
		Category: item.Category,
		ShopID:   item.ShopID,
		At:       item.OrderedAt,
	}

	rule := PickRule(rules, basis)
	if rule == nil {
		// No applicable rule means zero commission, not an error.
		summary.NoRule++
		return nil
	}

	amount, detail, err := ComputeCommission(*rule, basis)
	if err != nil {
		return err
	}
	detailJSON, err := json.Marshal(detail)
	if err != nil {
		return err
	}

	result, err := s.ledger.UpsertEarning(ctx, &models.CommissionEarning{
		OrderItemID: item.ID,
		StaffID:     item.StaffID,
		Amount:      amount,
		Detail:      detailJSON,
		Status:      models.EarningPending,
	})
	if err != nil {
		return err
	}

	if result.Created {
		summary.Created++
	} else {
		summary.Updated++
	}
	summary.TotalAmount = summary.TotalAmount.Add(amount)
	return nil
}

// CachedCommissionSummary returns the summary of the last commission
// recompute for the exact (shop, window), if one is still cached.
func (s *RecomputeService) CachedCommissionSummary(ctx context.Context, shopID string, from, to time.Time) (*dto.CommissionRecomputeSummary, error) {
	if s.cache == nil {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "no cached summary for this window")
	}
	var summary dto.CommissionRecomputeSummary
	key := s.cache.Key("commissions", shopID, from, to)
	if err := s.cache.Get(ctx, key, &summary); err != nil {
		if errors.Is(err, appErrors.ErrCacheMiss) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "no cached summary for this window")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to read cached summary")
	}
	return &summary, nil
}

// RecomputeProfit computes a fresh profit snapshot per order item in the
// window under a new run id, attributed to the actor for audit.
func (s *RecomputeService) RecomputeProfit(ctx context.Context, req dto.RecomputeRequest, actorID string) (*dto.ProfitRecomputeResult, error) {
	if err := validateWindow(req); err != nil {
		return nil, err
	}

	result := &dto.ProfitRecomputeResult{RunID: uuid.NewString()}
	computedAt := time.Now().UTC()

	err := s.eachChunk(ctx, req, func(items []models.OrderItem, adjustments map[string][]models.SettlementAdjustment) {
		chunk := make([]models.ProfitSnapshot, 0, len(items))
		for _, item := range items {
			breakdown := ComputeProfit(profitInputsFor(item, adjustments[item.ID]))
			chunk = append(chunk, models.ProfitSnapshot{
				RunID:       result.RunID,
				OrderItemID: item.ID,
				ShopID:      item.ShopID,
				Revenue:     breakdown.Revenue,
				Fees:        breakdown.Fees,
				Shipping:    breakdown.Shipping,
				Refunds:     breakdown.Refunds,
				UnitCost:    item.UnitCost,
				Qty:         item.Qty,
				Profit:      breakdown.Profit,
				ComputedAt:  computedAt,
			})
		}
		if len(chunk) == 0 {
			return
		}
		if err := s.snapshots.CreateSnapshots(ctx, chunk); err != nil {
			for _, snap := range chunk {
				result.Failures = append(result.Failures, dto.ItemFailure{OrderItemID: snap.OrderItemID, Error: err.Error()})
				s.observeItemFailure()
			}
			s.logger.Warn("profit snapshot chunk skipped", zap.Int("items", len(chunk)), zap.Error(err))
			return
		}
		result.Snapshots = append(result.Snapshots, chunk...)
	})
	if err != nil {
		return nil, err
	}

	s.emitBatchAudit(ctx, actorID, models.AuditActionRecomputeProfit, map[string]interface{}{
		"run_id":    result.RunID,
		"snapshots": len(result.Snapshots),
		"failures":  len(result.Failures),
		"from":      req.From,
		"to":        req.To,
		"shop_id":   req.ShopID,
	})
	s.observeBatch("profit")
	return result, nil
}

// eachChunk walks the window in keyset-paginated chunks so no single store
// transaction holds the whole window.
func (s *RecomputeService) eachChunk(ctx context.Context, req dto.RecomputeRequest, fn func([]models.OrderItem, map[string][]models.SettlementAdjustment)) error {
	afterID := ""
	for {
		items, err := s.orders.ListItemsInWindow(ctx, repository.ItemWindow{
			ShopID:  req.ShopID,
			From:    req.From,
			To:      req.To,
			AfterID: afterID,
			Limit:   s.chunkSize,
		})
		if err != nil {
			return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list order items")
		}
		if len(items) == 0 {
			return nil
		}

		itemIDs := make([]string, len(items))
		for i, item := range items {
			itemIDs[i] = item.ID
		}
		adjustments, err := s.orders.ListAdjustmentsForItems(ctx, itemIDs)
		if err != nil {
			return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list settlement adjustments")
		}

		fn(items, adjustments)

		if len(items) < s.chunkSize {
			return nil
		}
		afterID = items[len(items)-1].ID
	}
}

func (s *RecomputeService) emitBatchAudit(ctx context.Context, actorID, action string, payload interface{}) {
	if s.audit == nil {
		return
	}
	body, _ := json.Marshal(payload)
	log := &models.AuditLog{
		Action:    action,
		Resource:  "recompute",
		NewValues: body,
	}
	if actorID != "" {
		log.UserID = &actorID
	}
	if err := s.audit.CreateAuditLog(ctx, log); err != nil {
		s.logger.Warn("failed to write recompute audit log", zap.String("action", action), zap.Error(err))
	}
}

func (s *RecomputeService) observeBatch(kind string) {
	if s.metrics != nil {
		s.metrics.ObserveRecomputeBatch(kind)
	}
}

func (s *RecomputeService) observeItemFailure() {
	if s.metrics != nil {
		s.metrics.ObserveRecomputeItemFailure()
	}
}

func validateWindow(req dto.RecomputeRequest) error {
	if req.From.IsZero() || req.To.IsZero() {
		return appErrors.Clone(appErrors.ErrValidation, "from and to are required")
	}
	if req.To.Before(req.From) {
		return appErrors.Clone(appErrors.ErrValidation, "window end precedes its start")
	}
	return nil
}

func profitInputsFor(item models.OrderItem, adjustments []models.SettlementAdjustment) ProfitInputs {
	settlement := make(map[models.AdjustmentKind][]decimal.Decimal, 4)
	for _, adj := range adjustments {
		settlement[adj.Kind] = append(settlement[adj.Kind], adj.Amount)
	}
	return ProfitInputs{
		SellPrice:  item.SellPrice,
		Qty:        item.Qty,
		UnitCost:   item.UnitCost,
		Settlement: settlement,
	}
}
