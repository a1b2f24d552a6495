package engine

import (
	"time"

	"github.com/ndewijer/DCA-Backtester-Backend/internal/marketdata"
	"github.com/ndewijer/DCA-Backtester-Backend/internal/money"
)

// Result is the outcome of one run. Records keep full precision for analytics;
// Summary and Series are rounded for output.
type Result struct {
	Summary       Summary           `json:"summary"`
	Series        SeriesOutput      `json:"series"`
	MarginCallLog []MarginCallEvent `json:"margin_call_log"`
	WithdrawalLog []WithdrawalEvent `json:"withdrawal_log"`
	Records       []DayRecord       `json:"-"`
}

// Summary holds the final scalars of a run.
type Summary struct {
	TotalInvested      float64  `json:"total_invested"`
	CurrentValue       float64  `json:"current_value"`
	NetPortfolioValue  float64  `json:"net_portfolio_value"`
	TotalShares        float64  `json:"total_shares"`
	AverageCost        float64  `json:"average_cost"`
	TotalDividends     float64  `json:"total_dividends"`
	ROI                *float64 `json:"roi"`
	AccountBalance     *float64 `json:"account_balance"`
	TotalBorrowed      float64  `json:"total_borrowed"`
	TotalInterestPaid  float64  `json:"total_interest_paid"`
	CurrentLeverage    float64  `json:"current_leverage"`
	MarginCalls        int      `json:"margin_calls"`
	MarginCallDates    []string `json:"margin_call_dates"`
	TotalWithdrawn     float64  `json:"total_withdrawn"`
	WithdrawalDates    []string `json:"withdrawal_dates"`
	InsolvencyDetected bool     `json:"insolvency_detected"`
	InsolvencyDate     *string  `json:"insolvency_date"`

	MinEquityValue    float64 `json:"min_equity_value"`
	MinEquityDate     *string `json:"min_equity_date"`
	ActualMaxDrawdown float64 `json:"actual_max_drawdown"`

	WithdrawalModeActive    bool    `json:"withdrawal_mode_active"`
	WithdrawalModeStartDate *string `json:"withdrawal_mode_start_date"`
	ActualStartDate         string  `json:"actual_start_date"`
}

// SeriesOutput is the column-oriented time series of a run.
type SeriesOutput struct {
	Dates               []string   `json:"dates"`
	Prices              []float64  `json:"prices"`
	Portfolio           []float64  `json:"portfolio"`
	NetPortfolio        []float64  `json:"net_portfolio"`
	Invested            []float64  `json:"invested"`
	Dividends           []float64  `json:"dividends"`
	Balance             []*float64 `json:"balance"`
	Borrowed            []float64  `json:"borrowed"`
	Interest            []float64  `json:"interest"`
	Leverage            []float64  `json:"leverage"`
	AverageCost         []float64  `json:"average_cost"`
	WithdrawalMode      []bool     `json:"withdrawal_mode"`
	CumulativeWithdrawn []float64  `json:"cumulative_withdrawn"`
}

// NetValues returns the unrounded net equity of every record.
func (r *Result) NetValues() []float64 {
	out := make([]float64, len(r.Records))
	for i, rec := range r.Records {
		out[i] = rec.NetPortfolioValue
	}
	return out
}

// Dates returns the trading day of every record.
func (r *Result) Dates() []time.Time {
	out := make([]time.Time, len(r.Records))
	for i, rec := range r.Records {
		out[i] = rec.Date
	}
	return out
}

func (sim *Simulator) result() *Result {
	s := sim.state
	res := &Result{
		Records:       sim.records,
		MarginCallLog: append([]MarginCallEvent{}, s.MarginCallLog...),
		WithdrawalLog: append([]WithdrawalEvent{}, s.WithdrawalLog...),
		Series:        buildSeries(sim.records),
	}

	last := sim.records[len(sim.records)-1]
	sum := Summary{
		TotalInvested:        money.Round2(s.PrincipalInvested),
		CurrentValue:         money.Round2(last.PortfolioValue),
		NetPortfolioValue:    money.Round2(last.NetPortfolioValue),
		TotalShares:          money.Round(s.Shares, money.SharePlaces),
		AverageCost:          money.Round2(last.AverageCost),
		TotalDividends:       money.Round2(s.CumulativeDividends),
		AccountBalance:       money.Round2Ptr(s.Cash.Ptr()),
		TotalBorrowed:        money.Round2(s.Borrowed),
		TotalInterestPaid:    money.Round2(s.TotalInterestPaid),
		CurrentLeverage:      money.Round2(last.Leverage),
		MarginCalls:          s.MarginCallsCount,
		MarginCallDates:      []string{},
		TotalWithdrawn:       money.Round2(s.TotalWithdrawn),
		WithdrawalDates:      []string{},
		InsolvencyDetected:   s.Insolvent,
		MinEquityValue:       money.Round2(sim.minEquity),
		ActualMaxDrawdown:    money.Round2(sim.worstDrawdown),
		WithdrawalModeActive: s.WithdrawalModeActive,
		ActualStartDate:      marketdata.DateKey(sim.records[0].Date),
	}

	if s.PrincipalInvested > 0 {
		gain := last.NetPortfolioValue - s.AvailablePrincipal + s.TotalWithdrawn - s.PrincipalInvested
		roi := money.Round2(gain / s.PrincipalInvested * 100)
		sum.ROI = &roi
	}
	for _, ev := range s.MarginCallLog {
		sum.MarginCallDates = append(sum.MarginCallDates, marketdata.DateKey(ev.Date))
	}
	for _, ev := range s.WithdrawalLog {
		if ev.EventType == EventScheduledWithdrawal {
			sum.WithdrawalDates = append(sum.WithdrawalDates, marketdata.DateKey(ev.Date))
		}
	}
	sum.InsolvencyDate = datePtr(s.InsolvencyDate)
	sum.WithdrawalModeStartDate = datePtr(s.WithdrawalStartDate)
	if !sim.minEquityDate.IsZero() {
		sum.MinEquityDate = datePtr(&sim.minEquityDate)
	}

	res.Summary = sum
	return res
}

func buildSeries(records []DayRecord) SeriesOutput {
	n := len(records)
	out := SeriesOutput{
		Dates:               make([]string, n),
		Prices:              make([]float64, n),
		Portfolio:           make([]float64, n),
		NetPortfolio:        make([]float64, n),
		Invested:            make([]float64, n),
		Dividends:           make([]float64, n),
		Balance:             make([]*float64, n),
		Borrowed:            make([]float64, n),
		Interest:            make([]float64, n),
		Leverage:            make([]float64, n),
		AverageCost:         make([]float64, n),
		WithdrawalMode:      make([]bool, n),
		CumulativeWithdrawn: make([]float64, n),
	}
	for i, r := range records {
		out.Dates[i] = marketdata.DateKey(r.Date)
		out.Prices[i] = money.Round2(r.Price)
		out.Portfolio[i] = money.Round2(r.PortfolioValue)
		out.NetPortfolio[i] = money.Round2(r.NetPortfolioValue)
		out.Invested[i] = money.Round2(r.Invested)
		out.Dividends[i] = money.Round2(r.Dividends)
		out.Balance[i] = money.Round2Ptr(r.Balance)
		out.Borrowed[i] = money.Round2(r.Borrowed)
		out.Interest[i] = money.Round2(r.Interest)
		out.Leverage[i] = money.Round2(r.Leverage)
		out.AverageCost[i] = money.Round2(r.AverageCost)
		out.WithdrawalMode[i] = r.WithdrawalMode
		out.CumulativeWithdrawn[i] = money.Round2(r.CumulativeWithdrawn)
	}
	return out
}

func datePtr(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := marketdata.DateKey(*t)
	return &s
}
