package service

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/mkt-backoffice-api/internal/dto"
	"github.com/noah-isme/mkt-backoffice-api/internal/models"
	"github.com/noah-isme/mkt-backoffice-api/internal/repository"
	appErrors "github.com/noah-isme/mkt-backoffice-api/pkg/errors"
)

type orderStoreStub struct {
	items       []models.OrderItem
	adjustments map[string][]models.SettlementAdjustment
}

func (o *orderStoreStub) ListItemsInWindow(ctx context.Context, window repository.ItemWindow) ([]models.OrderItem, error) {
	result := make([]models.OrderItem, 0)
	for _, item := range o.items {
		if window.ShopID != "" && item.ShopID != window.ShopID {
			continue
		}
		if item.OrderedAt.Before(window.From) || item.OrderedAt.After(window.To) {
			continue
		}
		if window.AfterID != "" && item.ID <= window.AfterID {
			continue
		}
		result = append(result, item)
		if len(result) == window.Limit {
			break
		}
	}
	return result, nil
}

func (o *orderStoreStub) ListAdjustmentsForItems(ctx context.Context, itemIDs []string) (map[string][]models.SettlementAdjustment, error) {
	result := make(map[string][]models.SettlementAdjustment)
	for _, id := range itemIDs {
		if adj, ok := o.adjustments[id]; ok {
			result[id] = adj
		}
	}
	return result, nil
}

type recomputeLedgerStub struct {
	rules    []models.CommissionRule
	earnings map[string]*models.CommissionEarning

	failFor map[string]error
}

func newRecomputeLedgerStub(rules ...models.CommissionRule) *recomputeLedgerStub {
	return &recomputeLedgerStub{
		rules:    rules,
		earnings: make(map[string]*models.CommissionEarning),
		failFor:  make(map[string]error),
	}
}

func (l *recomputeLedgerStub) ListRules(ctx context.Context) ([]models.CommissionRule, error) {
	return l.rules, nil
}

func (l *recomputeLedgerStub) UpsertEarning(ctx context.Context, earning *models.CommissionEarning) (repository.UpsertEarningResult, error) {
	if err, ok := l.failFor[earning.OrderItemID]; ok {
		return repository.UpsertEarningResult{}, err
	}
	key := earning.OrderItemID + "/" + earning.StaffID
	_, exists := l.earnings[key]
	l.earnings[key] = earning
	return repository.UpsertEarningResult{Created: !exists}, nil
}

type snapshotWriterStub struct {
	snapshots []models.ProfitSnapshot
	err       error
}

func (s *snapshotWriterStub) CreateSnapshots(ctx context.Context, snapshots []models.ProfitSnapshot) error {
	if s.err != nil {
		return s.err
	}
	s.snapshots = append(s.snapshots, snapshots...)
	return nil
}

func recomputeWindow() dto.RecomputeRequest {
	return dto.RecomputeRequest{
		From: time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC),
		To:   time.Date(2026, 6, 30, 23, 59, 59, 0, time.UTC),
	}
}

func testOrderItem(id, staffID string, price, cost string) models.OrderItem {
	return models.OrderItem{
		ID:        id,
		ShopID:    "shop-1",
		StaffID:   staffID,
		SKU:       "SKU-" + id,
		Category:  "electronics",
		SellPrice: decimal.RequireFromString(price),
		Qty:       1,
		UnitCost:  decimal.RequireFromString(cost),
		OrderedAt: time.Date(2026, 6, 10, 0, 0, 0, 0, time.UTC),
	}
}

func TestRecomputeCommissionsIdempotentRerun(t *testing.T) {
	ctx := context.Background()
	orders := &orderStoreStub{
		items: []models.OrderItem{
			testOrderItem("item-1", "staff-1", "100", "60"),
			testOrderItem("item-2", "staff-2", "200", "150"),
		},
	}
	rule := testRule("r-global", models.ScopeGlobal, models.RulePercentProfit, "0.10")
	ledger := newRecomputeLedgerStub(rule)
	audit := &auditStub{}

	svc := NewRecomputeService(orders, ledger, &snapshotWriterStub{}, audit, nil)

	summary, err := svc.RecomputeCommissions(ctx, recomputeWindow(), "admin-1")
	require.NoError(t, err)
	require.Equal(t, 2, summary.Processed)
	require.Equal(t, 2, summary.Created)
	require.Equal(t, 0, summary.Updated)
	require.Empty(t, summary.Failures)
	// 40*0.10 + 50*0.10
	require.True(t, summary.TotalAmount.Equal(decimal.RequireFromString("9")), "got %s", summary.TotalAmount)
	require.Len(t, ledger.earnings, 2)

	// Re-running the same window reconciles in place rather than duplicating.
	summary, err = svc.RecomputeCommissions(ctx, recomputeWindow(), "admin-1")
	require.NoError(t, err)
	require.Equal(t, 2, summary.Processed)
	require.Equal(t, 0, summary.Created)
	require.Equal(t, 2, summary.Updated)
	require.Len(t, ledger.earnings, 2)

	require.Contains(t, audit.actions(), models.AuditActionRecomputeCommissions)
}

func TestRecomputeCommissionsSkipsFailedItems(t *testing.T) {
	ctx := context.Background()
	orders := &orderStoreStub{
		items: []models.OrderItem{
			testOrderItem("item-1", "staff-1", "100", "60"),
			testOrderItem("item-2", "staff-2", "200", "150"),
			testOrderItem("item-3", "staff-3", "300", "250"),
		},
	}
	rule := testRule("r-global", models.ScopeGlobal, models.RulePercentProfit, "0.10")
	ledger := newRecomputeLedgerStub(rule)
	ledger.failFor["item-2"] = errors.New("constraint violation")

	svc := NewRecomputeService(orders, ledger, &snapshotWriterStub{}, &auditStub{}, nil)

	summary, err := svc.RecomputeCommissions(ctx, recomputeWindow(), "admin-1")
	require.NoError(t, err)
	require.Equal(t, 3, summary.Processed)
	require.Equal(t, 2, summary.Created)
	require.Len(t, summary.Failures, 1)
	require.Equal(t, "item-2", summary.Failures[0].OrderItemID)
	require.Len(t, ledger.earnings, 2)
}

func TestRecomputeCommissionsNoRuleMeansZero(t *testing.T) {
	ctx := context.Background()
	orders := &orderStoreStub{
		items: []models.OrderItem{testOrderItem("item-1", "staff-1", "100", "60")},
	}
	// Only rule starts after the window; nothing applies.
	rule := testRule("r-late", models.ScopeGlobal, models.RulePercentProfit, "0.10")
	rule.EffectiveFrom = time.Date(2027, 1, 1, 0, 0, 0, 0, time.UTC)
	ledger := newRecomputeLedgerStub(rule)

	svc := NewRecomputeService(orders, ledger, &snapshotWriterStub{}, &auditStub{}, nil)

	summary, err := svc.RecomputeCommissions(ctx, recomputeWindow(), "admin-1")
	require.NoError(t, err)
	require.Equal(t, 1, summary.Processed)
	require.Equal(t, 1, summary.NoRule)
	require.Empty(t, ledger.earnings)
	require.True(t, summary.TotalAmount.IsZero())
}

func TestRecomputeCommissionsChunking(t *testing.T) {
	ctx := context.Background()
	orders := &orderStoreStub{}
	for i := 1; i <= 5; i++ {
		orders.items = append(orders.items, testOrderItem(
			// IDs sort lexicographically for the keyset stub.
			"item-"+string(rune('a'+i-1)), "staff-1", "100", "60"))
	}
	ledger := newRecomputeLedgerStub(testRule("r-global", models.ScopeGlobal, models.RulePercentGross, "0.01"))

	svc := NewRecomputeService(orders, ledger, &snapshotWriterStub{}, &auditStub{}, nil,
		WithRecomputeChunkSize(2))

	summary, err := svc.RecomputeCommissions(ctx, recomputeWindow(), "admin-1")
	require.NoError(t, err)
	require.Equal(t, 5, summary.Processed)
	require.Equal(t, 5, summary.Created)
	require.Len(t, ledger.earnings, 5)
}

func TestRecomputeCommissionsRejectsInvalidWindow(t *testing.T) {
	svc := NewRecomputeService(&orderStoreStub{}, newRecomputeLedgerStub(), &snapshotWriterStub{}, &auditStub{}, nil)

	_, err := svc.RecomputeCommissions(context.Background(), dto.RecomputeRequest{}, "admin-1")
	require.Error(t, err)

	_, err = svc.RecomputeCommissions(context.Background(), dto.RecomputeRequest{
		From: time.Date(2026, 6, 30, 0, 0, 0, 0, time.UTC),
		To:   time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC),
	}, "admin-1")
	require.Error(t, err)
}

type summaryCacheStub struct {
	entries map[string][]byte
}

func newSummaryCacheStub() *summaryCacheStub {
	return &summaryCacheStub{entries: make(map[string][]byte)}
}

func (c *summaryCacheStub) Key(kind, shopID string, from, to time.Time) string {
	if shopID == "" {
		shopID = "all"
	}
	return kind + ":" + shopID + ":" + from.Format(time.RFC3339) + ":" + to.Format(time.RFC3339)
}

func (c *summaryCacheStub) Get(ctx context.Context, key string, dest interface{}) error {
	raw, ok := c.entries[key]
	if !ok {
		return appErrors.ErrCacheMiss
	}
	return json.Unmarshal(raw, dest)
}

func (c *summaryCacheStub) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) {
	raw, _ := json.Marshal(value)
	c.entries[key] = raw
}

func TestRecomputeCommissionsCachesSummary(t *testing.T) {
	ctx := context.Background()
	orders := &orderStoreStub{
		items: []models.OrderItem{testOrderItem("item-1", "staff-1", "100", "60")},
	}
	ledger := newRecomputeLedgerStub(testRule("r-global", models.ScopeGlobal, models.RulePercentProfit, "0.10"))
	cache := newSummaryCacheStub()

	svc := NewRecomputeService(orders, ledger, &snapshotWriterStub{}, &auditStub{}, nil,
		WithSummaryCache(cache, time.Minute))

	req := recomputeWindow()
	summary, err := svc.RecomputeCommissions(ctx, req, "admin-1")
	require.NoError(t, err)

	cached, err := svc.CachedCommissionSummary(ctx, "", req.From, req.To)
	require.NoError(t, err)
	require.Equal(t, summary.Processed, cached.Processed)
	require.True(t, cached.TotalAmount.Equal(summary.TotalAmount))

	// A different window has no cached run.
	_, err = svc.CachedCommissionSummary(ctx, "", req.From.AddDate(0, 1, 0), req.To.AddDate(0, 1, 0))
	require.Error(t, err)
}

func TestRecomputeProfitCreatesVersionedSnapshots(t *testing.T) {
	ctx := context.Background()
	orders := &orderStoreStub{
		items: []models.OrderItem{
			testOrderItem("item-1", "staff-1", "50", "20"),
		},
		adjustments: map[string][]models.SettlementAdjustment{
			"item-1": {
				{OrderItemID: "item-1", Kind: models.AdjustmentCommission, Amount: decimal.RequireFromString("5")},
				{OrderItemID: "item-1", Kind: models.AdjustmentShippingFee, Amount: decimal.RequireFromString("3")},
			},
		},
	}
	writer := &snapshotWriterStub{}
	audit := &auditStub{}

	svc := NewRecomputeService(orders, newRecomputeLedgerStub(), writer, audit, nil)

	result, err := svc.RecomputeProfit(ctx, recomputeWindow(), "admin-1")
	require.NoError(t, err)
	require.NotEmpty(t, result.RunID)
	require.Len(t, result.Snapshots, 1)
	require.Empty(t, result.Failures)

	snap := writer.snapshots[0]
	require.Equal(t, result.RunID, snap.RunID)
	require.True(t, snap.Profit.Equal(decimal.RequireFromString("22")), "got %s", snap.Profit)

	// A second run gets its own run id; earlier snapshots are never touched.
	second, err := svc.RecomputeProfit(ctx, recomputeWindow(), "admin-1")
	require.NoError(t, err)
	require.NotEqual(t, result.RunID, second.RunID)
	require.Len(t, writer.snapshots, 2)

	require.Contains(t, audit.actions(), models.AuditActionRecomputeProfit)
}

func TestRecomputeProfitRecordsChunkFailures(t *testing.T) {
	ctx := context.Background()
	orders := &orderStoreStub{
		items: []models.OrderItem{
			testOrderItem("item-1", "staff-1", "50", "20"),
			testOrderItem("item-2", "staff-1", "60", "30"),
		},
	}
	writer := &snapshotWriterStub{err: errors.New("insert failed")}

	svc := NewRecomputeService(orders, newRecomputeLedgerStub(), writer, &auditStub{}, nil)

	result, err := svc.RecomputeProfit(ctx, recomputeWindow(), "admin-1")
	require.NoError(t, err)
	require.Empty(t, result.Snapshots)
	require.Len(t, result.Failures, 2)
}
