package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/mkt-backoffice-api/internal/models"
)

// ProfitRepository persists versioned profit snapshots.
type ProfitRepository struct {
	db *sqlx.DB
}

// NewProfitRepository constructs the repository.
func NewProfitRepository(db *sqlx.DB) *ProfitRepository {
	return &ProfitRepository{db: db}
}

// CreateSnapshots appends snapshot rows for one recompute run. Snapshots are
// never mutated; later runs write new rows under their own run id.
func (r *ProfitRepository) CreateSnapshots(ctx context.Context, snapshots []models.ProfitSnapshot) error {
	const query = `INSERT INTO profit_snapshots
	(id, run_id, order_item_id, shop_id, revenue, fees, shipping, refunds, unit_cost, qty, profit, computed_at)
	VALUES (:id, :run_id, :order_item_id, :shop_id, :revenue, :fees, :shipping, :refunds, :unit_cost, :qty, :profit, :computed_at)`
	for i := range snapshots {
		if snapshots[i].ID == "" {
			snapshots[i].ID = uuid.NewString()
		}
		if snapshots[i].ComputedAt.IsZero() {
			snapshots[i].ComputedAt = time.Now().UTC()
		}
		if _, err := r.db.NamedExecContext(ctx, query, snapshots[i]); err != nil {
			return fmt.Errorf("create profit snapshot: %w", err)
		}
	}
	return nil
}

// ListSnapshotsByRun returns the snapshots written by one recompute run.
func (r *ProfitRepository) ListSnapshotsByRun(ctx context.Context, runID string) ([]models.ProfitSnapshot, error) {
	const query = `SELECT id, run_id, order_item_id, shop_id, revenue, fees, shipping, refunds, unit_cost, qty, profit, computed_at
	FROM profit_snapshots WHERE run_id = $1 ORDER BY order_item_id ASC`
	var snapshots []models.ProfitSnapshot
	if err := r.db.SelectContext(ctx, &snapshots, query, runID); err != nil {
		return nil, fmt.Errorf("list profit snapshots: %w", err)
	}
	return snapshots, nil
}

// LatestSnapshots returns the most recent snapshot per order item inside a
// window, optionally filtered by shop. Used by the profit report export.
func (r *ProfitRepository) LatestSnapshots(ctx context.Context, shopID string, from, to time.Time) ([]models.ProfitSnapshot, error) {
	query := `SELECT DISTINCT ON (order_item_id)
	id, run_id, order_item_id, shop_id, revenue, fees, shipping, refunds, unit_cost, qty, profit, computed_at
	FROM profit_snapshots WHERE computed_at >= $1 AND computed_at <= $2`
	args := []interface{}{from, to}
	if shopID != "" {
		args = append(args, shopID)
		query += " AND shop_id = $3"
	}
	query += " ORDER BY order_item_id, computed_at DESC"

	var snapshots []models.ProfitSnapshot
	if err := r.db.SelectContext(ctx, &snapshots, query, args...); err != nil {
		return nil, fmt.Errorf("list latest profit snapshots: %w", err)
	}
	return snapshots, nil
}
