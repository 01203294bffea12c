package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// OrderItem is one sold line item. Order/feed synchronisation lives in the
// vendor clients; this service only reads what they persisted.
type OrderItem struct {
	ID        string          `db:"id" json:"id"`
	OrderID   string          `db:"order_id" json:"order_id"`
	ShopID    string          `db:"shop_id" json:"shop_id"`
	StaffID   string          `db:"staff_id" json:"staff_id"`
	SKU       string          `db:"sku" json:"sku"`
	Category  string          `db:"category" json:"category"`
	SellPrice decimal.Decimal `db:"sell_price" json:"sell_price"`
	Qty       int             `db:"qty" json:"qty"`
	UnitCost  decimal.Decimal `db:"unit_cost" json:"unit_cost"`
	OrderedAt time.Time       `db:"ordered_at" json:"ordered_at"`
}

// AdjustmentKind classifies a settlement adjustment line.
type AdjustmentKind string

const (
	AdjustmentCommission  AdjustmentKind = "commission"
	AdjustmentPenalty     AdjustmentKind = "penalty"
	AdjustmentShippingFee AdjustmentKind = "shipping_fee"
	AdjustmentRefund      AdjustmentKind = "refund"
)

// SettlementAdjustment is an itemized financial correction applied against an
// order item by the marketplace.
type SettlementAdjustment struct {
	ID          string          `db:"id" json:"id"`
	OrderItemID string          `db:"order_item_id" json:"order_item_id"`
	Kind        AdjustmentKind  `db:"kind" json:"kind"`
	Amount      decimal.Decimal `db:"amount" json:"amount"`
	CreatedAt   time.Time       `db:"created_at" json:"created_at"`
}
