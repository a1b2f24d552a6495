// Package engine implements the day-by-day DCA portfolio simulation:
// stateless calculators, single-day ledger operations, and the orchestrator
// that applies them in a fixed daily order.
package engine

import (
	"fmt"
	"math"
	"time"

	"github.com/ndewijer/DCA-Backtester-Backend/internal/apperrors"
	"github.com/ndewijer/DCA-Backtester-Backend/internal/marketdata"
)

// Frequency is how often the periodic amount is invested.
type Frequency string

const (
	FrequencyDaily   Frequency = "DAILY"
	FrequencyWeekly  Frequency = "WEEKLY"
	FrequencyMonthly Frequency = "MONTHLY"
)

// MarginCheckPolicy controls when maintenance margin is enforced each day.
type MarginCheckPolicy string

const (
	// MarginCheckBeforeAndAfter checks before and after the day's purchase.
	MarginCheckBeforeAndAfter MarginCheckPolicy = "before_and_after"
	// MarginCheckAfterOnly checks only after the day's purchase.
	MarginCheckAfterOnly MarginCheckPolicy = "after_only"
)

// Parameters is the validated input of one simulation run.
type Parameters struct {
	Ticker    string
	StartDate time.Time
	EndDate   time.Time

	DailyAmount   float64
	InitialAmount float64
	Reinvest      bool

	// AccountBalance is the starting cash; nil means unlimited.
	AccountBalance    *float64
	MarginRatio       float64
	MaintenanceMargin float64

	WithdrawalThreshold     *float64
	MonthlyWithdrawalAmount *float64

	Frequency   Frequency
	MarginCheck MarginCheckPolicy
}

// RateFunc returns the annual reference rate in effect on a date.
type RateFunc func(time.Time) float64

// ConstantRate returns a RateFunc that always yields rate.
func ConstantRate(rate float64) RateFunc {
	return func(time.Time) float64 { return rate }
}

// DayRecord is the end-of-day snapshot written once per processed trading day.
// Values keep full precision; rounding happens when results are rendered.
type DayRecord struct {
	Date                time.Time
	Price               float64
	Shares              float64
	PortfolioValue      float64
	NetPortfolioValue   float64
	Invested            float64
	Dividends           float64
	Balance             *float64
	Borrowed            float64
	Interest            float64
	Leverage            float64
	AverageCost         float64
	CostBasis           float64
	WithdrawalMode      bool
	CumulativeWithdrawn float64
}

// Simulator runs one simulation. It owns its PortfolioState exclusively and
// is not safe for concurrent use; independent runs use independent Simulators.
type Simulator struct {
	params Parameters
	series marketdata.Series
	rates  RateFunc
	state  *PortfolioState

	records []DayRecord

	weekday         time.Weekday
	lastInvestMonth Period

	minEquity     float64
	minEquityDate time.Time
	peakEquity    float64
	worstDrawdown float64
}

// NewSimulator prepares a run over series. A nil rates function falls back to
// DefaultReferenceRate.
func NewSimulator(p Parameters, series marketdata.Series, rates RateFunc) *Simulator {
	if rates == nil {
		rates = ConstantRate(DefaultReferenceRate)
	}
	if p.MarginRatio < NoMarginRatio {
		p.MarginRatio = NoMarginRatio
	}
	if p.MaintenanceMargin <= 0 || p.MaintenanceMargin >= 1 {
		p.MaintenanceMargin = DefaultMaintenanceMargin
	}
	if p.Frequency == "" {
		p.Frequency = FrequencyDaily
	}
	if p.MarginCheck == "" {
		p.MarginCheck = MarginCheckBeforeAndAfter
	}
	return &Simulator{
		params:    p,
		series:    series,
		rates:     rates,
		state:     NewPortfolioState(p.AccountBalance),
		minEquity: math.Inf(1),
	}
}

// Simulate runs p over series and returns the result.
func Simulate(p Parameters, series marketdata.Series, rates RateFunc) (*Result, error) {
	return NewSimulator(p, series, rates).Run()
}

// Run walks every trading day in order and builds the result. It stops after
// the day the account becomes insolvent.
func (sim *Simulator) Run() (*Result, error) {
	if sim.series.Len() == 0 {
		return nil, fmt.Errorf("%w: simulate %s: empty series", apperrors.ErrDataUnavailable, sim.params.Ticker)
	}
	if len(sim.series.Closes) != sim.series.Len() {
		return nil, fmt.Errorf("simulate %s: %d dates but %d closes",
			sim.params.Ticker, sim.series.Len(), len(sim.series.Closes))
	}

	sim.weekday = sim.series.Dates[0].Weekday()
	if !sim.params.StartDate.IsZero() {
		sim.weekday = sim.params.StartDate.Weekday()
	}
	for i, date := range sim.series.Dates {
		if sim.state.Insolvent {
			break
		}
		sim.step(marketdata.Day(date), sim.series.Closes[i], i == 0)
	}

	return sim.result(), nil
}

// State exposes the ledger for inspection after Run.
func (sim *Simulator) State() *PortfolioState {
	return sim.state
}

// step applies one trading day. The order of operations is fixed.
func (sim *Simulator) step(date time.Time, price float64, first bool) {
	s := sim.state
	p := sim.params

	if dps, ok := sim.series.Dividend(date); ok {
		cashBefore := s.Cash.Amount()
		out := ProcessDividend(s, dps, price, p.Reinvest && !s.WithdrawalModeActive)
		if s.WithdrawalModeActive && out.Income > 0 {
			recordDividendIncome(s, date, price, dps, out, cashBefore)
		}
	}

	if period := PeriodOf(date); period != s.LastInterestPeriod {
		if s.Borrowed > 0 {
			ChargeInterest(s, sim.rates(date))
		}
		s.LastInterestPeriod = period
	}

	if p.MarginCheck == MarginCheckBeforeAndAfter {
		sim.enforceMargin(date, price)
		if s.Insolvent {
			sim.record(date, price)
			return
		}
	}

	if !s.WithdrawalModeActive && p.WithdrawalThreshold != nil && s.NetEquity(price) >= *p.WithdrawalThreshold {
		ActivateWithdrawalMode(s, date, price)
	}

	if s.WithdrawalModeActive {
		amount := p.MonthlyWithdrawalAmount
		if amount != nil && *amount > 0 && PeriodOf(date) != s.LastWithdrawalPeriod {
			ExecuteMonthlyWithdrawal(s, date, price, *amount)
		}
	} else {
		var amount float64
		if sim.shouldInvest(date) || first {
			amount = p.DailyAmount
		}
		if first {
			amount += p.InitialAmount
		}
		ExecutePurchase(s, amount, price, p.MarginRatio)
	}

	sim.enforceMargin(date, price)
	sim.record(date, price)
}

// enforceMargin runs the maintenance check when margin is enabled and flags
// insolvency when debt is left that the account can no longer cover.
func (sim *Simulator) enforceMargin(date time.Time, price float64) {
	s := sim.state
	if sim.params.MarginRatio <= NoMarginRatio {
		return
	}
	ExecuteMarginCall(s, date, price, sim.params.MaintenanceMargin)
	if !s.Insolvent && s.Borrowed > 0 && s.NetEquity(price) <= 0 {
		s.markInsolvent(date)
	}
}

// shouldInvest reports whether the periodic amount is due on date. Weekly
// runs buy on the weekday of the start date; a holiday on that weekday skips
// the week.
func (sim *Simulator) shouldInvest(date time.Time) bool {
	switch sim.params.Frequency {
	case FrequencyWeekly:
		return date.Weekday() == sim.weekday
	case FrequencyMonthly:
		period := PeriodOf(date)
		if period != sim.lastInvestMonth {
			sim.lastInvestMonth = period
			return true
		}
		return false
	default:
		return true
	}
}

// record appends the end-of-day snapshot and updates equity extremes.
func (sim *Simulator) record(date time.Time, price float64) {
	s := sim.state
	s.clampShares()

	pv := s.PortfolioValue(price)
	net := s.NetEquity(price)

	// pv/net is undefined once equity is gone, which only happens on the
	// insolvency day; that day reports 1.
	leverage := 1.0
	if s.Borrowed > 0 && net > 0 {
		leverage = pv / net
	}
	avgCost := 0.0
	if s.Shares > 0 {
		avgCost = s.TotalCostBasis / s.Shares
	}

	sim.records = append(sim.records, DayRecord{
		Date:                date,
		Price:               price,
		Shares:              s.Shares,
		PortfolioValue:      pv,
		NetPortfolioValue:   net,
		Invested:            s.PrincipalInvested,
		Dividends:           s.CumulativeDividends,
		Balance:             s.Cash.Ptr(),
		Borrowed:            s.Borrowed,
		Interest:            s.TotalInterestPaid,
		Leverage:            leverage,
		AverageCost:         avgCost,
		CostBasis:           s.TotalCostBasis,
		WithdrawalMode:      s.WithdrawalModeActive,
		CumulativeWithdrawn: s.TotalWithdrawn,
	})

	if net < sim.minEquity {
		sim.minEquity = net
		sim.minEquityDate = date
	}
	if net > sim.peakEquity {
		sim.peakEquity = net
	}
	if sim.peakEquity > 0 {
		if dd := (net - sim.peakEquity) / sim.peakEquity * 100; dd < sim.worstDrawdown {
			sim.worstDrawdown = dd
		}
	}
}
