package request

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// SimulationRequest represents the request body for running a backtest.
// Dates use "2006-01-02". Amount is the per-period contribution.
type SimulationRequest struct {
	Ticker                  string   `json:"ticker"`
	StartDate               string   `json:"start_date"`
	EndDate                 string   `json:"end_date,omitempty"`
	Amount                  float64  `json:"amount"`
	InitialAmount           float64  `json:"initial_amount"`
	Reinvest                bool     `json:"reinvest"`
	AccountBalance          Amount   `json:"account_balance"`
	MarginRatio             *float64 `json:"margin_ratio,omitempty"`
	MaintenanceMargin       *float64 `json:"maintenance_margin,omitempty"`
	WithdrawalThreshold     Amount   `json:"withdrawal_threshold"`
	MonthlyWithdrawalAmount Amount   `json:"monthly_withdrawal_amount"`
	Frequency               string   `json:"frequency,omitempty"`
	MarginCheck             string   `json:"margin_check,omitempty"`
	BenchmarkTicker         string   `json:"benchmark_ticker,omitempty"`
	TargetDates             []string `json:"target_dates,omitempty"`
}

// Amount is an optional monetary value. It accepts a JSON number, a numeric
// string, null, an empty string, or "infinite"; all but the numeric forms
// leave the value unset. NaN and infinite numbers are rejected.
type Amount struct {
	Value *float64
}

// NewAmount returns a set Amount.
func NewAmount(v float64) Amount {
	return Amount{Value: &v}
}

// IsSet reports whether a numeric value was supplied.
func (a Amount) IsSet() bool {
	return a.Value != nil
}

// UnmarshalJSON implements json.Unmarshaler.
func (a *Amount) UnmarshalJSON(data []byte) error {
	a.Value = nil
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return nil
	}

	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		s = strings.TrimSpace(s)
		switch strings.ToLower(s) {
		case "", "infinite", "inf", "unlimited":
			return nil
		}
		v, err := strconv.ParseFloat(s, 64)
		if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("invalid amount %q", s)
		}
		a.Value = &v
		return nil
	}

	var v float64
	if err := json.Unmarshal(data, &v); err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return fmt.Errorf("invalid amount %s", string(data))
	}
	a.Value = &v
	return nil
}

// MarshalJSON implements json.Marshaler. An unset amount encodes as null.
func (a Amount) MarshalJSON() ([]byte, error) {
	if a.Value == nil {
		return []byte("null"), nil
	}
	return json.Marshal(*a.Value)
}
