package service

import (
	"context"
	"database/sql"
	"fmt"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/mkt-backoffice-api/internal/dto"
	"github.com/noah-isme/mkt-backoffice-api/internal/models"
	"github.com/noah-isme/mkt-backoffice-api/internal/policy"
	"github.com/noah-isme/mkt-backoffice-api/internal/repository"
)

type returnRepoStub struct {
	cases       map[string]*models.ReturnCase
	evidence    map[string][]models.ReturnEvidence
	pickups     map[string]*models.ReturnPickup
	adjustments map[string][]models.ReturnAdjustment
	nextID      int

	failCAS bool
}

func newReturnRepoStub() *returnRepoStub {
	return &returnRepoStub{
		cases:       make(map[string]*models.ReturnCase),
		evidence:    make(map[string][]models.ReturnEvidence),
		pickups:     make(map[string]*models.ReturnPickup),
		adjustments: make(map[string][]models.ReturnAdjustment),
	}
}

func (r *returnRepoStub) id(prefix string) string {
	r.nextID++
	return fmt.Sprintf("%s-%d", prefix, r.nextID)
}

func (r *returnRepoStub) Create(ctx context.Context, ret *models.ReturnCase) error {
	if ret.ID == "" {
		ret.ID = r.id("ret")
	}
	r.cases[ret.ID] = ret
	return nil
}

func (r *returnRepoStub) GetByID(ctx context.Context, id string) (*models.ReturnCase, error) {
	if ret, ok := r.cases[id]; ok {
		copy := *ret
		return &copy, nil
	}
	return nil, sql.ErrNoRows
}

func (r *returnRepoStub) List(ctx context.Context, filter models.ReturnFilter) ([]models.ReturnCase, error) {
	result := make([]models.ReturnCase, 0, len(r.cases))
	for _, ret := range r.cases {
		result = append(result, *ret)
	}
	return result, nil
}

func (r *returnRepoStub) UpdateStatusCAS(ctx context.Context, params repository.UpdateStatusParams) error {
	if r.failCAS {
		return sql.ErrNoRows
	}
	ret, ok := r.cases[params.ID]
	if !ok || ret.Status != params.Expected {
		return sql.ErrNoRows
	}
	ret.Status = params.Target
	if params.PickedAt != nil {
		ret.PickedAt = params.PickedAt
	}
	if params.ApprovedBy != nil {
		ret.ApprovedBy = params.ApprovedBy
	}
	if params.Resolution != nil {
		ret.Resolution = params.Resolution
	}
	return nil
}

func (r *returnRepoStub) CreateEvidence(ctx context.Context, evidence []models.ReturnEvidence) error {
	for i := range evidence {
		if evidence[i].ID == "" {
			evidence[i].ID = r.id("ev")
		}
		r.evidence[evidence[i].ReturnCaseID] = append(r.evidence[evidence[i].ReturnCaseID], evidence[i])
	}
	return nil
}

func (r *returnRepoStub) ListEvidence(ctx context.Context, returnCaseID string) ([]models.ReturnEvidence, error) {
	return r.evidence[returnCaseID], nil
}

func (r *returnRepoStub) CreatePickup(ctx context.Context, pickup *models.ReturnPickup) error {
	if pickup.ID == "" {
		pickup.ID = r.id("pk")
	}
	r.pickups[pickup.ReturnCaseID] = pickup
	return nil
}

func (r *returnRepoStub) GetPickup(ctx context.Context, returnCaseID string) (*models.ReturnPickup, error) {
	if pickup, ok := r.pickups[returnCaseID]; ok {
		return pickup, nil
	}
	return nil, sql.ErrNoRows
}

func (r *returnRepoStub) CreateAdjustment(ctx context.Context, adjustment *models.ReturnAdjustment) error {
	if adjustment.ID == "" {
		adjustment.ID = r.id("adj")
	}
	r.adjustments[adjustment.ReturnCaseID] = append(r.adjustments[adjustment.ReturnCaseID], *adjustment)
	return nil
}

func (r *returnRepoStub) ListAdjustments(ctx context.Context, returnCaseID string) ([]models.ReturnAdjustment, error) {
	return r.adjustments[returnCaseID], nil
}

type auditStub struct {
	logs []*models.AuditLog
}

func (a *auditStub) CreateAuditLog(ctx context.Context, log *models.AuditLog) error {
	a.logs = append(a.logs, log)
	return nil
}

func (a *auditStub) actions() []string {
	out := make([]string, len(a.logs))
	for i, log := range a.logs {
		out[i] = log.Action
	}
	return out
}

type ledgerStub struct {
	earnings map[string]*models.CommissionEarning
	reversed map[string]decimal.Decimal
}

func newLedgerStub() *ledgerStub {
	return &ledgerStub{
		earnings: make(map[string]*models.CommissionEarning),
		reversed: make(map[string]decimal.Decimal),
	}
}

func (l *ledgerStub) GetEarning(ctx context.Context, orderItemID, staffID string) (*models.CommissionEarning, error) {
	if e, ok := l.earnings[orderItemID]; ok {
		return e, nil
	}
	return nil, sql.ErrNoRows
}

func (l *ledgerStub) ReverseEarning(ctx context.Context, orderItemID, staffID string, amount decimal.Decimal) error {
	l.reversed[orderItemID] = amount
	return nil
}

type orderReaderStub struct {
	items map[string]*models.OrderItem
}

func (o *orderReaderStub) GetItem(ctx context.Context, id string) (*models.OrderItem, error) {
	if item, ok := o.items[id]; ok {
		return item, nil
	}
	return nil, sql.ErrNoRows
}

func testPolicies() *policy.Provider {
	return policy.NewProvider(
		policy.EvidencePolicy{models.EvidencePhoto: 2},
		nil,
	)
}

func claims(role models.UserRole) *models.JWTClaims {
	return &models.JWTClaims{UserID: "user-1", Role: role}
}

func TestReturnLifecycleEndToEnd(t *testing.T) {
	ctx := context.Background()
	repo := newReturnRepoStub()
	audit := &auditStub{}
	ledger := newLedgerStub()
	ledger.earnings["item-1"] = &models.CommissionEarning{
		OrderItemID: "item-1",
		StaffID:     "staff-1",
		Amount:      decimal.RequireFromString("100"),
		Status:      models.EarningPending,
	}
	orders := &orderReaderStub{items: map[string]*models.OrderItem{
		"item-1": {ID: "item-1", StaffID: "staff-1"},
	}}

	svc := NewReturnService(repo, audit, testPolicies(), nil,
		WithEarningReverser(ledger, orders))

	ret, err := svc.Create(ctx, dto.CreateReturnRequest{ShopID: "shop-1"})
	require.NoError(t, err)
	require.Equal(t, models.ReturnStatusReported, ret.Status)

	// Attendant picks up the return with one photo on the spot.
	pickResult, err := svc.Pick(ctx, ret.ID, dto.PickReturnRequest{
		Evidence: []dto.EvidenceInput{{Type: models.EvidencePhoto, URI: "s3://ev/1.jpg"}},
	}, claims(models.RoleAttendant))
	require.NoError(t, err)
	require.True(t, pickResult.OK)
	require.Equal(t, models.ReturnStatusPickedUp, pickResult.Status)

	// Receiving needs two photos; one is not enough.
	result, err := svc.Transition(ctx, ret.ID, models.ReturnStatusReceived, claims(models.RoleSupervisor))
	require.NoError(t, err)
	require.False(t, result.OK)
	require.Equal(t, "insufficient evidence: photo requires 2, have 1", result.Reason)

	_, err = svc.SubmitEvidence(ctx, ret.ID, dto.SubmitEvidenceRequest{
		Evidence: []dto.EvidenceInput{{Type: models.EvidencePhoto, URI: "s3://ev/2.jpg"}},
	}, claims(models.RoleAttendant))
	require.NoError(t, err)

	result, err = svc.Transition(ctx, ret.ID, models.ReturnStatusReceived, claims(models.RoleSupervisor))
	require.NoError(t, err)
	require.True(t, result.OK)

	amount := decimal.RequireFromString("200")
	itemID := "item-1"
	resolveResult, err := svc.Resolve(ctx, ret.ID, dto.ResolveReturnRequest{
		Resolution:  "refunded",
		OrderItemID: &itemID,
		Amount:      &amount,
	}, claims(models.RoleAdmin))
	require.NoError(t, err)
	require.True(t, resolveResult.OK)
	require.Equal(t, models.ReturnStatusResolved, resolveResult.Status)
	require.NotNil(t, resolveResult.AdjustmentID)

	// Adjustment defaults to reverse impact and the earning was reversed to a
	// negative magnitude.
	adjustments := repo.adjustments[ret.ID]
	require.Len(t, adjustments, 1)
	require.Equal(t, models.CommissionImpactReverse, adjustments[0].CommissionImpact)
	require.True(t, ledger.reversed["item-1"].Equal(decimal.RequireFromString("-100")))

	require.Contains(t, audit.actions(), models.AuditActionReturnPick)
	require.Contains(t, audit.actions(), models.AuditActionReturnTransition)
	require.Contains(t, audit.actions(), models.AuditActionReturnResolve)

	// Terminal cases refuse further evidence.
	_, err = svc.SubmitEvidence(ctx, ret.ID, dto.SubmitEvidenceRequest{
		Evidence: []dto.EvidenceInput{{Type: models.EvidencePhoto, URI: "s3://ev/3.jpg"}},
	}, claims(models.RoleAttendant))
	require.Error(t, err)
}

func TestReturnTransitionStaleState(t *testing.T) {
	ctx := context.Background()
	repo := newReturnRepoStub()
	svc := NewReturnService(repo, &auditStub{}, policy.NewProvider(nil, nil), nil)

	ret, err := svc.Create(ctx, dto.CreateReturnRequest{ShopID: "shop-1"})
	require.NoError(t, err)

	repo.failCAS = true
	_, err = svc.Transition(ctx, ret.ID, models.ReturnStatusPickedUp, claims(models.RoleAttendant))
	require.Error(t, err)
	require.ErrorContains(t, err, "state changed concurrently")
}

func TestReturnSchedulePickup(t *testing.T) {
	ctx := context.Background()
	repo := newReturnRepoStub()
	svc := NewReturnService(repo, &auditStub{}, policy.NewProvider(nil, nil), nil)

	ret, err := svc.Create(ctx, dto.CreateReturnRequest{ShopID: "shop-1"})
	require.NoError(t, err)

	result, err := svc.SchedulePickup(ctx, ret.ID, dto.SchedulePickupRequest{
		ScheduledAt: ret.CreatedAt.AddDate(0, 0, 1),
		Carrier:     "dhl",
		AssignedTo:  "staff-2",
	}, claims(models.RoleAttendant))
	require.NoError(t, err)
	require.True(t, result.OK)
	require.NotEmpty(t, result.PickupID)
	require.Equal(t, models.ReturnStatusPickupScheduled, repo.cases[ret.ID].Status)

	// Scheduling twice is an invalid transition, surfaced as an error.
	_, err = svc.SchedulePickup(ctx, ret.ID, dto.SchedulePickupRequest{
		ScheduledAt: ret.CreatedAt.AddDate(0, 0, 2),
		Carrier:     "dhl",
		AssignedTo:  "staff-2",
	}, claims(models.RoleAttendant))
	require.Error(t, err)
}

func TestReturnResolveRequiresPairedAdjustmentFields(t *testing.T) {
	ctx := context.Background()
	repo := newReturnRepoStub()
	svc := NewReturnService(repo, &auditStub{}, policy.NewProvider(nil, nil), nil)

	ret, err := svc.Create(ctx, dto.CreateReturnRequest{ShopID: "shop-1"})
	require.NoError(t, err)

	itemID := "item-1"
	_, err = svc.Resolve(ctx, ret.ID, dto.ResolveReturnRequest{
		Resolution:  "refunded",
		OrderItemID: &itemID,
	}, claims(models.RoleAdmin))
	require.Error(t, err)
	require.ErrorContains(t, err, "order_item_id and amount must be supplied together")
}

func TestReturnResolveRejectedBeforeReceived(t *testing.T) {
	ctx := context.Background()
	repo := newReturnRepoStub()
	svc := NewReturnService(repo, &auditStub{}, policy.NewProvider(nil, nil), nil)

	ret, err := svc.Create(ctx, dto.CreateReturnRequest{ShopID: "shop-1"})
	require.NoError(t, err)

	result, err := svc.Resolve(ctx, ret.ID, dto.ResolveReturnRequest{Resolution: "rejected"}, claims(models.RoleAdmin))
	require.NoError(t, err)
	require.False(t, result.OK)
	require.NotEmpty(t, result.Reason)
	require.Equal(t, models.ReturnStatusReported, repo.cases[ret.ID].Status)
}
