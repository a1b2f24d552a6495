package engine

import "math"

const (
	// InterestMarkup is the spread charged over the reference rate on margin debt.
	InterestMarkup = 0.005
	// MonthsPerYear converts an annual rate into a monthly charge.
	MonthsPerYear = 12.0
	// DefaultMaintenanceMargin is the equity ratio below which a margin call fires.
	DefaultMaintenanceMargin = 0.25
	// NoMarginRatio disables borrowing.
	NoMarginRatio = 1.0
	// MaxMarginRatio is the highest supported leverage.
	MaxMarginRatio = 2.0
	// DefaultReferenceRate is the annual rate used when no rate is available.
	DefaultReferenceRate = 0.05
)

// SharesFromCash returns the shares bought with investment at price.
// A non-positive price buys nothing.
func SharesFromCash(investment, price float64) float64 {
	if price <= 0 || investment <= 0 {
		return 0
	}
	return investment / price
}

// DividendIncome returns the cash paid on shares at dividendPerShare.
func DividendIncome(shares, dividendPerShare float64) float64 {
	if shares <= 0 || dividendPerShare <= 0 {
		return 0
	}
	return shares * dividendPerShare
}

// MonthlyInterest returns one month of interest on borrowed at annualRate plus markup.
func MonthlyInterest(borrowed, annualRate float64) float64 {
	if borrowed <= 0 {
		return 0
	}
	return borrowed * (annualRate + InterestMarkup) / MonthsPerYear
}

// EquityRatio returns equity as a fraction of portfolio value.
// A non-positive portfolio value yields 0, treated as fully impaired.
func EquityRatio(portfolioValue, cash, borrowed float64) float64 {
	if portfolioValue <= 0 {
		return 0
	}
	return (portfolioValue + math.Max(0, cash) - borrowed) / portfolioValue
}

// LiquidationTargetValue returns the portfolio value at which the equity
// ratio equals maintenanceMargin.
func LiquidationTargetValue(borrowed, cash, maintenanceMargin float64) float64 {
	if maintenanceMargin >= 1 {
		return 0
	}
	return (borrowed - math.Max(0, cash)) / (1 - maintenanceMargin)
}

// SharesToSellForWithdrawal returns the shares to sell at price so that cash
// plus proceeds cover outstanding debt first and then the withdrawal.
// The result is not capped by the shares actually held.
func SharesToSellForWithdrawal(withdrawal, borrowed, cash, price float64) float64 {
	if price <= 0 {
		return 0
	}
	needed := math.Max(0, borrowed) + math.Max(0, withdrawal) - math.Max(0, cash)
	if needed <= 0 {
		return 0
	}
	return needed / price
}
