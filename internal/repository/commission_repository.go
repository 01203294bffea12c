package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"

	"github.com/noah-isme/mkt-backoffice-api/internal/models"
)

// CommissionRepository persists commission rules and the earnings ledger.
type CommissionRepository struct {
	db *sqlx.DB
}

// NewCommissionRepository constructs the repository.
func NewCommissionRepository(db *sqlx.DB) *CommissionRepository {
	return &CommissionRepository{db: db}
}

// CreateRule appends a new rule. Rules are never edited; a newer rule
// supersedes by scope priority.
func (r *CommissionRepository) CreateRule(ctx context.Context, rule *models.CommissionRule) error {
	if rule.ID == "" {
		rule.ID = uuid.NewString()
	}
	if rule.CreatedAt.IsZero() {
		rule.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO commission_rules
	(id, scope, sku, category, shop_id, type, rate_decimal, effective_from, effective_to, created_by, created_at)
	VALUES (:id, :scope, :sku, :category, :shop_id, :type, :rate_decimal, :effective_from, :effective_to, :created_by, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, rule); err != nil {
		return fmt.Errorf("create commission rule: %w", err)
	}
	return nil
}

// ListRules returns all rules, most recent first. The resolver filters by
// effectivity window in memory.
func (r *CommissionRepository) ListRules(ctx context.Context) ([]models.CommissionRule, error) {
	const query = `SELECT id, scope, sku, category, shop_id, type, rate_decimal, effective_from, effective_to, created_by, created_at
	FROM commission_rules ORDER BY created_at DESC`
	var rules []models.CommissionRule
	if err := r.db.SelectContext(ctx, &rules, query); err != nil {
		return nil, fmt.Errorf("list commission rules: %w", err)
	}
	return rules, nil
}

// UpsertEarningResult distinguishes fresh inserts from reconciled rows.
type UpsertEarningResult struct {
	Created bool
}

// UpsertEarning writes or reconciles a ledger entry keyed on
// (order_item_id, staff_id) so recompute re-runs never duplicate rows.
func (r *CommissionRepository) UpsertEarning(ctx context.Context, earning *models.CommissionEarning) (UpsertEarningResult, error) {
	if earning.ID == "" {
		earning.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if earning.CreatedAt.IsZero() {
		earning.CreatedAt = now
	}
	earning.UpdatedAt = now
	const query = `INSERT INTO commission_earnings
	(id, order_item_id, staff_id, amount, detail, status, created_at, updated_at)
	VALUES (:id, :order_item_id, :staff_id, :amount, :detail, :status, :created_at, :updated_at)
	ON CONFLICT (order_item_id, staff_id)
	DO UPDATE SET amount = EXCLUDED.amount, detail = EXCLUDED.detail, status = EXCLUDED.status, updated_at = EXCLUDED.updated_at
	RETURNING (xmax = 0) AS inserted`
	rows, err := r.db.NamedQueryContext(ctx, query, earning)
	if err != nil {
		return UpsertEarningResult{}, fmt.Errorf("upsert commission earning: %w", err)
	}
	defer rows.Close()

	var inserted bool
	if rows.Next() {
		if err := rows.Scan(&inserted); err != nil {
			return UpsertEarningResult{}, fmt.Errorf("scan upsert result: %w", err)
		}
	}
	if err := rows.Err(); err != nil {
		return UpsertEarningResult{}, fmt.Errorf("upsert commission earning rows: %w", err)
	}
	return UpsertEarningResult{Created: inserted}, nil
}

// GetEarning fetches the ledger entry for one (order item, staff) pair.
func (r *CommissionRepository) GetEarning(ctx context.Context, orderItemID, staffID string) (*models.CommissionEarning, error) {
	const query = `SELECT id, order_item_id, staff_id, amount, detail, status, created_at, updated_at
	FROM commission_earnings WHERE order_item_id = $1 AND staff_id = $2`
	var earning models.CommissionEarning
	if err := r.db.GetContext(ctx, &earning, query, orderItemID, staffID); err != nil {
		return nil, err
	}
	return &earning, nil
}

// EarningFilter constrains ledger queries for exports and listings.
type EarningFilter struct {
	ShopID string
	From   time.Time
	To     time.Time
	Status []models.EarningStatus
}

// ListEarnings returns ledger entries whose order item was ordered inside the
// window, optionally filtered by shop and status.
func (r *CommissionRepository) ListEarnings(ctx context.Context, filter EarningFilter) ([]models.CommissionEarning, error) {
	builder := strings.Builder{}
	builder.WriteString(`SELECT e.id, e.order_item_id, e.staff_id, e.amount, e.detail, e.status, e.created_at, e.updated_at
	FROM commission_earnings e
	JOIN order_items oi ON oi.id = e.order_item_id
	WHERE oi.ordered_at >= $1 AND oi.ordered_at <= $2`)
	args := []interface{}{filter.From, filter.To}

	if filter.ShopID != "" {
		args = append(args, filter.ShopID)
		builder.WriteString(fmt.Sprintf(" AND oi.shop_id = $%d", len(args)))
	}
	if len(filter.Status) > 0 {
		placeholders := make([]string, len(filter.Status))
		for i, status := range filter.Status {
			args = append(args, status)
			placeholders[i] = fmt.Sprintf("$%d", len(args))
		}
		builder.WriteString(fmt.Sprintf(" AND e.status IN (%s)", strings.Join(placeholders, ",")))
	}
	builder.WriteString(" ORDER BY e.updated_at DESC")

	var earnings []models.CommissionEarning
	if err := r.db.SelectContext(ctx, &earnings, builder.String(), args...); err != nil {
		return nil, fmt.Errorf("list commission earnings: %w", err)
	}
	return earnings, nil
}

// ReverseEarning marks the ledger entry for an order item as reversed and
// replaces its amount with the reversal value.
func (r *CommissionRepository) ReverseEarning(ctx context.Context, orderItemID, staffID string, amount decimal.Decimal) error {
	const query = `UPDATE commission_earnings
	SET amount = $3, status = $4, updated_at = $5
	WHERE order_item_id = $1 AND staff_id = $2`
	if _, err := r.db.ExecContext(ctx, query, orderItemID, staffID, amount, models.EarningReversed, time.Now().UTC()); err != nil {
		return fmt.Errorf("reverse commission earning: %w", err)
	}
	return nil
}
