package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/mkt-backoffice-api/internal/models"
	"github.com/noah-isme/mkt-backoffice-api/internal/repository"
)

type earningListerStub struct {
	earnings []models.CommissionEarning
	filter   repository.EarningFilter
}

func (e *earningListerStub) ListEarnings(ctx context.Context, filter repository.EarningFilter) ([]models.CommissionEarning, error) {
	e.filter = filter
	return e.earnings, nil
}

type snapshotReaderStub struct {
	snapshots []models.ProfitSnapshot
}

func (s *snapshotReaderStub) LatestSnapshots(ctx context.Context, shopID string, from, to time.Time) ([]models.ProfitSnapshot, error) {
	return s.snapshots, nil
}

func TestExportServiceEarningsCSV(t *testing.T) {
	earnings := &earningListerStub{earnings: []models.CommissionEarning{
		{
			OrderItemID: "item-1",
			StaffID:     "staff-1",
			Amount:      decimal.RequireFromString("42.5"),
			Status:      models.EarningPending,
			UpdatedAt:   time.Date(2026, 6, 15, 12, 0, 0, 0, time.UTC),
		},
	}}
	svc := NewExportService(earnings, &snapshotReaderStub{}, nil)

	from := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2026, 6, 30, 0, 0, 0, 0, time.UTC)
	body, filename, err := svc.EarningsCSV(context.Background(), "shop-1", from, to)
	require.NoError(t, err)
	require.True(t, strings.HasSuffix(filename, ".csv"))
	require.Equal(t, "shop-1", earnings.filter.ShopID)

	lines := strings.Split(strings.TrimSpace(string(body)), "\n")
	require.Len(t, lines, 2)
	require.Equal(t, "order_item_id,staff_id,amount,status,updated_at", lines[0])
	require.Contains(t, lines[1], "item-1,staff-1,42.50,pending")
}

func TestExportServiceProfitPDF(t *testing.T) {
	snapshots := &snapshotReaderStub{snapshots: []models.ProfitSnapshot{
		{
			OrderItemID: "item-1",
			Revenue:     decimal.RequireFromString("100"),
			Fees:        decimal.RequireFromString("5"),
			Shipping:    decimal.RequireFromString("3"),
			Refunds:     decimal.Zero,
			UnitCost:    decimal.RequireFromString("20"),
			Qty:         2,
			Profit:      decimal.RequireFromString("52"),
		},
	}}
	svc := NewExportService(&earningListerStub{}, snapshots, nil)

	from := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2026, 6, 30, 0, 0, 0, 0, time.UTC)
	body, filename, err := svc.ProfitPDF(context.Background(), "", from, to)
	require.NoError(t, err)
	require.True(t, strings.HasSuffix(filename, ".pdf"))
	require.True(t, strings.HasPrefix(string(body), "%PDF"))
}
