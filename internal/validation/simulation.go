package validation

import (
	"math"
	"strings"
	"time"

	"github.com/ndewijer/DCA-Backtester-Backend/internal/api/request"
	"github.com/ndewijer/DCA-Backtester-Backend/internal/engine"
	"github.com/ndewijer/DCA-Backtester-Backend/internal/marketdata"
)

// ValidateSimulationRequest checks a decoded request body: required fields,
// date formats, enumerations and numeric ranges.
func ValidateSimulationRequest(req request.SimulationRequest) error {
	errors := make(map[string]string)

	ticker := strings.TrimSpace(req.Ticker)
	if ticker == "" {
		errors["ticker"] = "ticker is required"
	} else if err := ValidateSymbol(ticker); err != nil {
		errors["ticker"] = "ticker contains invalid characters"
	}

	if req.BenchmarkTicker != "" {
		if err := ValidateSymbol(strings.TrimSpace(req.BenchmarkTicker)); err != nil {
			errors["benchmark_ticker"] = "benchmark_ticker contains invalid characters"
		}
	}

	var start, end time.Time
	if strings.TrimSpace(req.StartDate) == "" {
		errors["start_date"] = "start_date is required"
	} else if d, err := marketdata.ParseDate(req.StartDate); err != nil {
		errors["start_date"] = "start_date must be YYYY-MM-DD"
	} else {
		start = d
	}
	if strings.TrimSpace(req.EndDate) != "" {
		if d, err := marketdata.ParseDate(req.EndDate); err != nil {
			errors["end_date"] = "end_date must be YYYY-MM-DD"
		} else {
			end = d
		}
	}

	for _, d := range req.TargetDates {
		if _, err := marketdata.ParseDate(d); err != nil {
			errors["target_dates"] = "target_dates must contain YYYY-MM-DD dates"
			break
		}
	}

	if req.Frequency != "" && !validFrequency(engine.Frequency(strings.ToUpper(req.Frequency))) {
		errors["frequency"] = "frequency must be one of DAILY, WEEKLY, MONTHLY"
	}
	if req.MarginCheck != "" && !validMarginCheck(engine.MarginCheckPolicy(strings.ToLower(req.MarginCheck))) {
		errors["margin_check"] = "margin_check must be before_and_after or after_only"
	}

	marginRatio := engine.NoMarginRatio
	if req.MarginRatio != nil {
		marginRatio = *req.MarginRatio
	}
	maintenance := engine.DefaultMaintenanceMargin
	if req.MaintenanceMargin != nil {
		maintenance = *req.MaintenanceMargin
	}

	checkRanges(errors, ranges{
		start:             start,
		end:               end,
		amount:            req.Amount,
		initialAmount:     req.InitialAmount,
		balance:           req.AccountBalance.Value,
		marginRatio:       marginRatio,
		maintenanceMargin: maintenance,
		threshold:         req.WithdrawalThreshold.Value,
		withdrawal:        req.MonthlyWithdrawalAmount.Value,
	})

	if len(errors) > 0 {
		return &Error{Fields: errors}
	}
	return nil
}

// ValidateParameters checks engine parameters assembled outside the HTTP
// layer. Empty enumerations are accepted and defaulted by the engine.
func ValidateParameters(p engine.Parameters) error {
	errors := make(map[string]string)

	if strings.TrimSpace(p.Ticker) == "" {
		errors["ticker"] = "ticker is required"
	}
	if p.StartDate.IsZero() {
		errors["start_date"] = "start_date is required"
	}
	if p.Frequency != "" && !validFrequency(p.Frequency) {
		errors["frequency"] = "frequency must be one of DAILY, WEEKLY, MONTHLY"
	}
	if p.MarginCheck != "" && !validMarginCheck(p.MarginCheck) {
		errors["margin_check"] = "margin_check must be before_and_after or after_only"
	}

	checkRanges(errors, ranges{
		start:             p.StartDate,
		end:               p.EndDate,
		amount:            p.DailyAmount,
		initialAmount:     p.InitialAmount,
		balance:           p.AccountBalance,
		marginRatio:       p.MarginRatio,
		maintenanceMargin: p.MaintenanceMargin,
		threshold:         p.WithdrawalThreshold,
		withdrawal:        p.MonthlyWithdrawalAmount,
	})

	if len(errors) > 0 {
		return &Error{Fields: errors}
	}
	return nil
}

type ranges struct {
	start, end        time.Time
	amount            float64
	initialAmount     float64
	balance           *float64
	marginRatio       float64
	maintenanceMargin float64
	threshold         *float64
	withdrawal        *float64
}

func checkRanges(errors map[string]string, r ranges) {
	if !r.start.IsZero() && !r.end.IsZero() && r.end.Before(r.start) {
		errors["end_date"] = "end_date must not be before start_date"
	}
	if !nonNegative(r.amount) {
		errors["amount"] = "amount must be a non-negative number"
	}
	if !nonNegative(r.initialAmount) {
		errors["initial_amount"] = "initial_amount must be a non-negative number"
	}
	if r.balance != nil && !nonNegative(*r.balance) {
		errors["account_balance"] = "account_balance must be a non-negative number"
	}
	if !finite(r.marginRatio) || r.marginRatio < engine.NoMarginRatio || r.marginRatio > engine.MaxMarginRatio {
		errors["margin_ratio"] = "margin_ratio must be between 1.0 and 2.0"
	}
	if !finite(r.maintenanceMargin) || r.maintenanceMargin <= 0 || r.maintenanceMargin >= 1 {
		errors["maintenance_margin"] = "maintenance_margin must be between 0 and 1 (exclusive)"
	}
	if r.threshold != nil && !nonNegative(*r.threshold) {
		errors["withdrawal_threshold"] = "withdrawal_threshold must be a non-negative number"
	}
	if r.withdrawal != nil && !nonNegative(*r.withdrawal) {
		errors["monthly_withdrawal_amount"] = "monthly_withdrawal_amount must be a non-negative number"
	}
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

func nonNegative(v float64) bool {
	return finite(v) && v >= 0
}

func validFrequency(f engine.Frequency) bool {
	switch f {
	case engine.FrequencyDaily, engine.FrequencyWeekly, engine.FrequencyMonthly:
		return true
	}
	return false
}

func validMarginCheck(p engine.MarginCheckPolicy) bool {
	switch p {
	case engine.MarginCheckBeforeAndAfter, engine.MarginCheckAfterOnly:
		return true
	}
	return false
}
