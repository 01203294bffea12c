package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/mkt-backoffice-api/internal/models"
)

// OrderRepository reads order items and settlement adjustments synced in by
// the vendor clients. This service never writes order data.
type OrderRepository struct {
	db *sqlx.DB
}

// NewOrderRepository constructs the repository.
func NewOrderRepository(db *sqlx.DB) *OrderRepository {
	return &OrderRepository{db: db}
}

// GetItem fetches a single order item.
func (r *OrderRepository) GetItem(ctx context.Context, id string) (*models.OrderItem, error) {
	const query = `SELECT id, order_id, shop_id, staff_id, sku, category, sell_price, qty, unit_cost, ordered_at
	FROM order_items WHERE id = $1`
	var item models.OrderItem
	if err := r.db.GetContext(ctx, &item, query, id); err != nil {
		return nil, err
	}
	return &item, nil
}

// ItemWindow selects order items whose order falls inside a window,
// optionally filtered by shop. AfterID supports keyset chunking: only items
// with id > AfterID are returned, ordered by id.
type ItemWindow struct {
	ShopID  string
	From    time.Time
	To      time.Time
	AfterID string
	Limit   int
}

// ListItemsInWindow returns one chunk of order items for a recompute run.
func (r *OrderRepository) ListItemsInWindow(ctx context.Context, window ItemWindow) ([]models.OrderItem, error) {
	builder := strings.Builder{}
	builder.WriteString(`SELECT id, order_id, shop_id, staff_id, sku, category, sell_price, qty, unit_cost, ordered_at
	FROM order_items WHERE ordered_at >= $1 AND ordered_at <= $2`)
	args := []interface{}{window.From, window.To}

	if window.ShopID != "" {
		args = append(args, window.ShopID)
		builder.WriteString(fmt.Sprintf(" AND shop_id = $%d", len(args)))
	}
	if window.AfterID != "" {
		args = append(args, window.AfterID)
		builder.WriteString(fmt.Sprintf(" AND id > $%d", len(args)))
	}
	builder.WriteString(" ORDER BY id ASC")

	limit := window.Limit
	if limit <= 0 || limit > 1000 {
		limit = 200
	}
	builder.WriteString(fmt.Sprintf(" LIMIT %d", limit))

	var items []models.OrderItem
	if err := r.db.SelectContext(ctx, &items, builder.String(), args...); err != nil {
		return nil, fmt.Errorf("list order items in window: %w", err)
	}
	return items, nil
}

// ListAdjustmentsForItems returns settlement adjustments grouped by order
// item id for one chunk of items.
func (r *OrderRepository) ListAdjustmentsForItems(ctx context.Context, itemIDs []string) (map[string][]models.SettlementAdjustment, error) {
	grouped := make(map[string][]models.SettlementAdjustment, len(itemIDs))
	if len(itemIDs) == 0 {
		return grouped, nil
	}

	query, args, err := sqlx.In(`SELECT id, order_item_id, kind, amount, created_at
	FROM settlement_adjustments WHERE order_item_id IN (?) ORDER BY created_at ASC`, itemIDs)
	if err != nil {
		return nil, fmt.Errorf("build settlement adjustment query: %w", err)
	}

	var adjustments []models.SettlementAdjustment
	if err := r.db.SelectContext(ctx, &adjustments, r.db.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("list settlement adjustments: %w", err)
	}
	for _, adj := range adjustments {
		grouped[adj.OrderItemID] = append(grouped[adj.OrderItemID], adj)
	}
	return grouped, nil
}
