package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// ProfitSnapshot is a point-in-time computed profit record for one order
// item. Snapshots are versioned by recompute run and never mutated in place.
type ProfitSnapshot struct {
	ID          string          `db:"id" json:"id"`
	RunID       string          `db:"run_id" json:"run_id"`
	OrderItemID string          `db:"order_item_id" json:"order_item_id"`
	ShopID      string          `db:"shop_id" json:"shop_id"`
	Revenue     decimal.Decimal `db:"revenue" json:"revenue"`
	Fees        decimal.Decimal `db:"fees" json:"fees"`
	Shipping    decimal.Decimal `db:"shipping" json:"shipping"`
	Refunds     decimal.Decimal `db:"refunds" json:"refunds"`
	UnitCost    decimal.Decimal `db:"unit_cost" json:"unit_cost"`
	Qty         int             `db:"qty" json:"qty"`
	Profit      decimal.Decimal `db:"profit" json:"profit"`
	ComputedAt  time.Time       `db:"computed_at" json:"computed_at"`
}
