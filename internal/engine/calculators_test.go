package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

const eps = 1e-9

func TestSharesFromCash(t *testing.T) {
	assert.InDelta(t, 2.0, SharesFromCash(100, 50), eps)
	assert.Equal(t, 0.0, SharesFromCash(100, 0))
	assert.Equal(t, 0.0, SharesFromCash(100, -5))
	assert.Equal(t, 0.0, SharesFromCash(0, 50))
}

func TestDividendIncome(t *testing.T) {
	assert.InDelta(t, 2.0, DividendIncome(2, 1), eps)
	assert.Equal(t, 0.0, DividendIncome(0, 1))
	assert.Equal(t, 0.0, DividendIncome(10, 0))
}

func TestMonthlyInterest(t *testing.T) {
	assert.InDelta(t, 10000*0.055/12, MonthlyInterest(10000, 0.05), eps)
	assert.InDelta(t, 10000*0.005/12, MonthlyInterest(10000, 0), eps)
	assert.Equal(t, 0.0, MonthlyInterest(0, 0.05))
}

func TestEquityRatio(t *testing.T) {
	assert.InDelta(t, 0.5, EquityRatio(20000, 0, 10000), eps)
	assert.InDelta(t, 0.55, EquityRatio(20000, 1000, 10000), eps)
	// negative cash never adds equity
	assert.InDelta(t, 0.5, EquityRatio(20000, -500, 10000), eps)
	assert.Equal(t, 0.0, EquityRatio(0, 1000, 0))
}

func TestLiquidationTargetValue(t *testing.T) {
	assert.InDelta(t, 12000.0, LiquidationTargetValue(10000, 1000, 0.25), eps)
	assert.InDelta(t, 10000/0.75, LiquidationTargetValue(10000, -50, 0.25), eps)
	assert.Equal(t, 0.0, LiquidationTargetValue(10000, 0, 1))
}

func TestSharesToSellForWithdrawal(t *testing.T) {
	t.Run("debt and withdrawal net of cash", func(t *testing.T) {
		assert.InDelta(t, 13.0, SharesToSellForWithdrawal(500, 1000, 200, 100), eps)
	})

	t.Run("cash covers everything", func(t *testing.T) {
		assert.Equal(t, 0.0, SharesToSellForWithdrawal(500, 0, 800, 100))
	})

	t.Run("debt only", func(t *testing.T) {
		assert.InDelta(t, 25.0, SharesToSellForWithdrawal(0, 3000, 500, 100), eps)
	})

	t.Run("zero price", func(t *testing.T) {
		assert.Equal(t, 0.0, SharesToSellForWithdrawal(500, 1000, 0, 0))
	})
}

func TestPeriod(t *testing.T) {
	jan := PeriodOf(date("2024-01-31"))
	assert.Equal(t, Period{Year: 2024, Month: 1}, jan)
	assert.NotEqual(t, jan, PeriodOf(date("2025-01-02")))
	assert.True(t, Period{}.IsZero())
	assert.False(t, jan.IsZero())
}

func TestCash(t *testing.T) {
	c := TrackedCash(-10)
	assert.True(t, c.Tracked())
	assert.Equal(t, 0.0, c.Amount())

	u := UntrackedCash()
	assert.False(t, u.Tracked())
	assert.Nil(t, u.Ptr())
	assert.Equal(t, 0.0, u.Amount())

	assert.Equal(t, 5.0, *TrackedCash(5).Ptr())
}
