package service

import (
	"github.com/shopspring/decimal"

	"github.com/noah-isme/mkt-backoffice-api/internal/models"
)

// ProfitInputs carries the raw figures for one order item at computation
// time. Any settlement list may be empty.
type ProfitInputs struct {
	SellPrice  decimal.Decimal
	Qty        int
	UnitCost   decimal.Decimal
	Settlement map[models.AdjustmentKind][]decimal.Decimal
}

// ProfitBreakdown exposes every intermediate term for auditability, not just
// the final profit.
type ProfitBreakdown struct {
	Revenue  decimal.Decimal `json:"revenue"`
	Fees     decimal.Decimal `json:"fees"`
	Shipping decimal.Decimal `json:"shipping"`
	Refunds  decimal.Decimal `json:"refunds"`
	Cost     decimal.Decimal `json:"cost"`
	Profit   decimal.Decimal `json:"profit"`
}

// ComputeProfit derives item-level profit:
//
//	profit = revenue - unitCost*qty - fees - shipping + refunds
//
// where fees aggregates commission and penalty adjustments.
func ComputeProfit(in ProfitInputs) ProfitBreakdown {
	qty := decimal.NewFromInt(int64(in.Qty))
	revenue := in.SellPrice.Mul(qty)
	cost := in.UnitCost.Mul(qty)

	fees := sumAmounts(in.Settlement[models.AdjustmentCommission]).
		Add(sumAmounts(in.Settlement[models.AdjustmentPenalty]))
	shipping := sumAmounts(in.Settlement[models.AdjustmentShippingFee])
	refunds := sumAmounts(in.Settlement[models.AdjustmentRefund])

	return ProfitBreakdown{
		Revenue:  revenue,
		Fees:     fees,
		Shipping: shipping,
		Refunds:  refunds,
		Cost:     cost,
		Profit:   revenue.Sub(cost).Sub(fees).Sub(shipping).Add(refunds),
	}
}

func sumAmounts(amounts []decimal.Decimal) decimal.Decimal {
	total := decimal.Zero
	for _, a := range amounts {
		total = total.Add(a)
	}
	return total
}
