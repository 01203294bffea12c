package service

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/mkt-backoffice-api/internal/models"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func TestComputeProfit(t *testing.T) {
	breakdown := ComputeProfit(ProfitInputs{
		SellPrice: dec("100"),
		Qty:       2,
		UnitCost:  dec("60"),
		Settlement: map[models.AdjustmentKind][]decimal.Decimal{
			models.AdjustmentCommission:  {dec("10")},
			models.AdjustmentPenalty:     {dec("5")},
			models.AdjustmentShippingFee: {dec("8")},
			models.AdjustmentRefund:      {dec("-15")},
		},
	})

	require.True(t, breakdown.Revenue.Equal(dec("200")))
	require.True(t, breakdown.Cost.Equal(dec("120")))
	require.True(t, breakdown.Fees.Equal(dec("15")))
	require.True(t, breakdown.Shipping.Equal(dec("8")))
	require.True(t, breakdown.Refunds.Equal(dec("-15")))
	// 200 - 120 - 15 - 8 + (-15) = 42
	require.True(t, breakdown.Profit.Equal(dec("42")), "got %s", breakdown.Profit)
}

func TestComputeProfitWithPartialSettlement(t *testing.T) {
	breakdown := ComputeProfit(ProfitInputs{
		SellPrice: dec("50"),
		Qty:       2,
		UnitCost:  dec("20"),
		Settlement: map[models.AdjustmentKind][]decimal.Decimal{
			models.AdjustmentCommission:  {dec("5")},
			models.AdjustmentShippingFee: {dec("3")},
		},
	})
	require.True(t, breakdown.Revenue.Equal(dec("100")))
	require.True(t, breakdown.Fees.Equal(dec("5")))
	require.True(t, breakdown.Shipping.Equal(dec("3")))
	require.True(t, breakdown.Refunds.IsZero())
	// 100 - 40 - 5 - 3 + 0 = 52
	require.True(t, breakdown.Profit.Equal(dec("52")), "got %s", breakdown.Profit)
}

func TestComputeProfitNoSettlement(t *testing.T) {
	breakdown := ComputeProfit(ProfitInputs{
		SellPrice: dec("19.99"),
		Qty:       3,
		UnitCost:  dec("12.50"),
	})
	require.True(t, breakdown.Revenue.Equal(dec("59.97")))
	require.True(t, breakdown.Profit.Equal(dec("22.47")), "got %s", breakdown.Profit)
}

func TestComputeProfitMultipleAdjustmentsPerKind(t *testing.T) {
	breakdown := ComputeProfit(ProfitInputs{
		SellPrice: dec("50"),
		Qty:       1,
		UnitCost:  dec("20"),
		Settlement: map[models.AdjustmentKind][]decimal.Decimal{
			models.AdjustmentCommission: {dec("2"), dec("3")},
			models.AdjustmentRefund:     {dec("1"), dec("4")},
		},
	})
	require.True(t, breakdown.Fees.Equal(dec("5")))
	require.True(t, breakdown.Refunds.Equal(dec("5")))
	// 50 - 20 - 5 - 0 + 5 = 30
	require.True(t, breakdown.Profit.Equal(dec("30")))
}

func TestComputeProfitZeroQty(t *testing.T) {
	breakdown := ComputeProfit(ProfitInputs{
		SellPrice: dec("100"),
		Qty:       0,
		UnitCost:  dec("60"),
	})
	require.True(t, breakdown.Revenue.IsZero())
	require.True(t, breakdown.Profit.IsZero())
}
