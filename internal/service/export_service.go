package service

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/noah-isme/mkt-backoffice-api/internal/models"
	"github.com/noah-isme/mkt-backoffice-api/internal/repository"
	appErrors "github.com/noah-isme/mkt-backoffice-api/pkg/errors"
	"github.com/noah-isme/mkt-backoffice-api/pkg/export"
)

type earningLister interface {
	ListEarnings(ctx context.Context, filter repository.EarningFilter) ([]models.CommissionEarning, error)
}

type snapshotReader interface {
	LatestSnapshots(ctx context.Context, shopID string, from, to time.Time) ([]models.ProfitSnapshot, error)
}

// ExportService renders back-office reports as downloadable files.
type ExportService struct {
	earnings  earningLister
	snapshots snapshotReader
	csv       *export.CSVExporter
	pdf       *export.PDFExporter
	logger    *zap.Logger
}

// NewExportService constructs the export service.
func NewExportService(earnings earningLister, snapshots snapshotReader, logger *zap.Logger) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ExportService{
		earnings:  earnings,
		snapshots: snapshots,
		csv:       export.NewCSVExporter(),
		pdf:       export.NewPDFExporter(),
		logger:    logger,
	}
}

// EarningsCSV exports the commission ledger for a window as CSV.
func (s *ExportService) EarningsCSV(ctx context.Context, shopID string, from, to time.Time) ([]byte, string, error) {
	earnings, err := s.earnings.ListEarnings(ctx, repository.EarningFilter{ShopID: shopID, From: from, To: to})
	if err != nil {
		return nil, "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list commission earnings")
	}

	dataset := export.Dataset{
		Headers: []string{"order_item_id", "staff_id", "amount", "status", "updated_at"},
		Rows:    make([]map[string]string, 0, len(earnings)),
	}
	for _, e := range earnings {
		dataset.Rows = append(dataset.Rows, map[string]string{
			"order_item_id": e.OrderItemID,
			"staff_id":      e.StaffID,
			"amount":        e.Amount.StringFixed(2),
			"status":        string(e.Status),
			"updated_at":    e.UpdatedAt.UTC().Format(time.RFC3339),
		})
	}

	body, err := s.csv.Render(dataset)
	if err != nil {
		return nil, "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render earnings csv")
	}
	filename := fmt.Sprintf("commission-earnings-%s.csv", time.Now().UTC().Format("20060102-150405"))
	return body, filename, nil
}

// ProfitPDF exports the latest profit snapshot per order item as a PDF report.
func (s *ExportService) ProfitPDF(ctx context.Context, shopID string, from, to time.Time) ([]byte, string, error) {
	snapshots, err := s.snapshots.LatestSnapshots(ctx, shopID, from, to)
	if err != nil {
		return nil, "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list profit snapshots")
	}

	dataset := export.Dataset{
		Headers: []string{"order_item_id", "revenue", "fees", "shipping", "refunds", "cost", "profit"},
		Rows:    make([]map[string]string, 0, len(snapshots)),
	}
	for _, snap := range snapshots {
		cost := snap.UnitCost.Mul(decimal.NewFromInt(int64(snap.Qty)))
		dataset.Rows = append(dataset.Rows, map[string]string{
			"order_item_id": snap.OrderItemID,
			"revenue":       snap.Revenue.StringFixed(2),
			"fees":          snap.Fees.StringFixed(2),
			"shipping":      snap.Shipping.StringFixed(2),
			"refunds":       snap.Refunds.StringFixed(2),
			"cost":          cost.StringFixed(2),
			"profit":        snap.Profit.StringFixed(2),
		})
	}

	title := "Profit Report"
	if shopID != "" {
		title = fmt.Sprintf("Profit Report - Shop %s", shopID)
	}
	body, err := s.pdf.Render(dataset, title)
	if err != nil {
		return nil, "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render profit pdf")
	}
	filename := fmt.Sprintf("profit-report-%s.pdf", time.Now().UTC().Format("20060102-150405"))
	return body, filename, nil
}
