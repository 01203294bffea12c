package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/noah-isme/mkt-backoffice-api/internal/models"
)

// RecomputeRequest bounds a recompute run to a window and optional shop.
type RecomputeRequest struct {
	ShopID string    `json:"shop_id,omitempty"`
	From   time.Time `json:"from" validate:"required"`
	To     time.Time `json:"to" validate:"required"`
}

// ItemFailure records one order item the batch skipped.
type ItemFailure struct {
	OrderItemID string `json:"order_item_id"`
	Error       string `json:"error"`
}

// CommissionRecomputeSummary is the result of one commission recompute run.
type CommissionRecomputeSummary struct {
	Processed   int             `json:"processed"`
	Created     int             `json:"created"`
	Updated     int             `json:"updated"`
	NoRule      int             `json:"no_rule"`
	Failures    []ItemFailure   `json:"failures,omitempty"`
	TotalAmount decimal.Decimal `json:"total_amount"`
	From        time.Time       `json:"from"`
	To          time.Time       `json:"to"`
	ShopID      string          `json:"shop_id,omitempty"`
}

// ProfitRecomputeResult is the result of one profit recompute run.
type ProfitRecomputeResult struct {
	RunID     string                  `json:"run_id"`
	Snapshots []models.ProfitSnapshot `json:"snapshots"`
	Failures  []ItemFailure           `json:"failures,omitempty"`
}
