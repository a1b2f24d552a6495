// Package analytics derives post-hoc performance statistics from a simulated
// equity curve. Every function is read-only and returns nil for values that
// are undefined for the given input instead of failing.
package analytics

import (
	"math"
	"time"

	"gonum.org/v1/gonum/stat"

	"github.com/ndewijer/DCA-Backtester-Backend/internal/marketdata"
	"github.com/ndewijer/DCA-Backtester-Backend/internal/money"
)

const (
	// TradingDaysPerYear annualizes daily statistics.
	TradingDaysPerYear = 252.0
	// DaysPerYear converts calendar spans into years for CAGR.
	DaysPerYear = 365.25
	// RiskFreeRate is the annual rate subtracted in the Sharpe ratio.
	RiskFreeRate = 0.02
)

// Report is the analytics block of a result. Percentages are expressed as
// percent (12.5 means 12.5%); ratios are plain numbers.
type Report struct {
	TotalReturn           *float64 `json:"total_return"`
	CAGR                  *float64 `json:"cagr"`
	Volatility            *float64 `json:"volatility"`
	SharpeRatio           *float64 `json:"sharpe_ratio"`
	MaxDrawdown           *float64 `json:"max_drawdown"`
	MaxDrawdownPeakDate   *string  `json:"max_drawdown_peak_date"`
	MaxDrawdownTroughDate *string  `json:"max_drawdown_trough_date"`
	WinRate               *float64 `json:"win_rate"`
	BestDay               *float64 `json:"best_day"`
	BestDayDate           *string  `json:"best_day_date"`
	WorstDay              *float64 `json:"worst_day"`
	WorstDayDate          *string  `json:"worst_day_date"`
	CalmarRatio           *float64 `json:"calmar_ratio"`
	Alpha                 *float64 `json:"alpha"`
	Beta                  *float64 `json:"beta"`
}

// Compute builds the report for an equity curve. dates and values must have
// the same length; a mismatch yields an empty report.
func Compute(dates []time.Time, values []float64) Report {
	var r Report
	if len(values) == 0 || len(dates) != len(values) {
		return r
	}

	first, last := values[0], values[len(values)-1]
	r.TotalReturn = TotalReturn(first, last)
	r.CAGR = CAGR(first, last, dates[0], dates[len(dates)-1])

	returns := DailyReturns(values)
	r.Volatility = Volatility(returns)
	r.SharpeRatio = SharpeRatio(returns, RiskFreeRate)
	r.WinRate = WinRate(returns)

	if dd, ok := MaxDrawdown(values); ok {
		r.MaxDrawdown = &dd.Percent
		r.MaxDrawdownPeakDate = dateKey(dates[dd.PeakIndex])
		r.MaxDrawdownTroughDate = dateKey(dates[dd.TroughIndex])
	}

	if best, worst, ok := BestWorstDays(returns); ok {
		bestPct, worstPct := best.Return*100, worst.Return*100
		r.BestDay, r.WorstDay = &bestPct, &worstPct
		// returns[i] is the move into day i+1
		r.BestDayDate = dateKey(dates[best.Index+1])
		r.WorstDayDate = dateKey(dates[worst.Index+1])
	}

	r.CalmarRatio = CalmarRatio(r.CAGR, r.MaxDrawdown)
	return r
}

// WithBenchmark fills alpha and beta by regressing the portfolio's daily
// returns on the benchmark's. Both curves must cover the same dates.
func (r Report) WithBenchmark(portfolio, benchmark []float64) Report {
	r.Alpha, r.Beta = AlphaBeta(DailyReturns(portfolio), DailyReturns(benchmark))
	return r
}

// Rounded returns a copy with every value rounded to two decimals.
func (r Report) Rounded() Report {
	out := r
	out.TotalReturn = money.Round2Ptr(r.TotalReturn)
	out.CAGR = money.Round2Ptr(r.CAGR)
	out.Volatility = money.Round2Ptr(r.Volatility)
	out.SharpeRatio = money.Round2Ptr(r.SharpeRatio)
	out.MaxDrawdown = money.Round2Ptr(r.MaxDrawdown)
	out.WinRate = money.Round2Ptr(r.WinRate)
	out.BestDay = money.Round2Ptr(r.BestDay)
	out.WorstDay = money.Round2Ptr(r.WorstDay)
	out.CalmarRatio = money.Round2Ptr(r.CalmarRatio)
	out.Alpha = money.Round2Ptr(r.Alpha)
	out.Beta = money.Round2Ptr(r.Beta)
	return out
}

// TotalReturn returns the percent change from first to last.
func TotalReturn(first, last float64) *float64 {
	if first <= 0 {
		return nil
	}
	return finite((last - first) / first * 100)
}

// CAGR returns the compound annual growth rate in percent between two values
// observed on start and end. A non-positive final value is a total loss.
func CAGR(first, last float64, start, end time.Time) *float64 {
	years := end.Sub(start).Hours() / 24 / DaysPerYear
	if first <= 0 || years <= 0 {
		return nil
	}
	if last <= 0 {
		return finite(-100)
	}
	return finite((math.Pow(last/first, 1/years) - 1) * 100)
}

// DailyReturns returns the fractional change between consecutive values.
// The result has one element fewer than values; a move from a non-positive
// value counts as 0.
func DailyReturns(values []float64) []float64 {
	if len(values) < 2 {
		return nil
	}
	out := make([]float64, len(values)-1)
	for i := 1; i < len(values); i++ {
		prev := values[i-1]
		if prev > 0 {
			out[i-1] = (values[i] - prev) / prev
		}
	}
	return out
}

// Volatility returns the annualized sample standard deviation of returns in percent.
func Volatility(returns []float64) *float64 {
	if len(returns) < 2 {
		return nil
	}
	return finite(stat.StdDev(returns, nil) * math.Sqrt(TradingDaysPerYear) * 100)
}

// SharpeRatio returns the annualized mean excess daily return over its
// standard deviation. A flat series has no defined ratio.
func SharpeRatio(returns []float64, annualRiskFree float64) *float64 {
	if len(returns) < 2 {
		return nil
	}
	mean, std := stat.MeanStdDev(returns, nil)
	if std == 0 || math.IsNaN(std) {
		return nil
	}
	return finite((mean - annualRiskFree/TradingDaysPerYear) / std * math.Sqrt(TradingDaysPerYear))
}

// Drawdown is the largest peak-to-trough decline of a curve.
type Drawdown struct {
	Percent     float64
	PeakIndex   int
	TroughIndex int
}

// MaxDrawdown returns the worst decline from a running peak, as a non-positive
// percent. It reports false for fewer than two values.
func MaxDrawdown(values []float64) (Drawdown, bool) {
	if len(values) < 2 {
		return Drawdown{}, false
	}
	var worst Drawdown
	peak, peakIdx := values[0], 0
	for i, v := range values {
		if v > peak {
			peak, peakIdx = v, i
		}
		if peak <= 0 {
			continue
		}
		if dd := (v - peak) / peak * 100; dd < worst.Percent {
			worst = Drawdown{Percent: dd, PeakIndex: peakIdx, TroughIndex: i}
		}
	}
	return worst, true
}

// WinRate returns the percent of returns that are positive.
func WinRate(returns []float64) *float64 {
	if len(returns) == 0 {
		return nil
	}
	wins := 0
	for _, r := range returns {
		if r > 0 {
			wins++
		}
	}
	return finite(float64(wins) / float64(len(returns)) * 100)
}

// DayReturn is one daily return and its position in the returns slice.
type DayReturn struct {
	Return float64
	Index  int
}

// BestWorstDays returns the largest and smallest daily return. The first
// occurrence wins ties.
func BestWorstDays(returns []float64) (DayReturn, DayReturn, bool) {
	if len(returns) == 0 {
		return DayReturn{}, DayReturn{}, false
	}
	best := DayReturn{Return: returns[0]}
	worst := best
	for i, r := range returns {
		if r > best.Return {
			best = DayReturn{Return: r, Index: i}
		}
		if r < worst.Return {
			worst = DayReturn{Return: r, Index: i}
		}
	}
	return best, worst, true
}

// CalmarRatio returns CAGR over the magnitude of the max drawdown.
func CalmarRatio(cagr, maxDrawdown *float64) *float64 {
	if cagr == nil || maxDrawdown == nil || *maxDrawdown >= 0 {
		return nil
	}
	return finite(*cagr / math.Abs(*maxDrawdown))
}

// AlphaBeta regresses portfolio returns on benchmark returns. Beta is the
// slope; alpha is the intercept annualized in percent. Both are nil when the
// slices differ in length, are too short, or the benchmark never moves.
func AlphaBeta(portfolio, benchmark []float64) (*float64, *float64) {
	if len(portfolio) < 2 || len(portfolio) != len(benchmark) {
		return nil, nil
	}
	if stat.Variance(benchmark, nil) == 0 {
		return nil, nil
	}
	alpha, beta := stat.LinearRegression(benchmark, portfolio, nil, false)
	return finite(alpha * TradingDaysPerYear * 100), finite(beta)
}

func finite(v float64) *float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}

func dateKey(t time.Time) *string {
	s := marketdata.DateKey(t)
	return &s
}
