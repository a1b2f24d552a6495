package request

import (
	"encoding/json"
	"testing"
)

func TestAmountUnmarshal(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    *float64
		wantErr bool
	}{
		{name: "number", input: `1500.5`, want: ptr(1500.5)},
		{name: "numeric string", input: `"2500"`, want: ptr(2500)},
		{name: "null", input: `null`},
		{name: "empty string", input: `""`},
		{name: "infinite", input: `"infinite"`},
		{name: "infinite mixed case", input: `"Infinite"`},
		{name: "garbage", input: `"lots"`, wantErr: true},
		{name: "NaN string", input: `"NaN"`, wantErr: true},
		{name: "Infinity string", input: `"Infinity"`, wantErr: true},
		{name: "negative infinity string", input: `"-Inf"`, wantErr: true},
		{name: "overflowing number", input: `1e999`, wantErr: true},
		{name: "bool", input: `true`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var a Amount
			err := json.Unmarshal([]byte(tt.input), &a)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error for %s", tt.input)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if tt.want == nil {
				if a.IsSet() {
					t.Errorf("expected unset amount, got %v", *a.Value)
				}
				return
			}
			if !a.IsSet() || *a.Value != *tt.want {
				t.Errorf("got %v, want %v", a.Value, *tt.want)
			}
		})
	}
}

func TestSimulationRequestDecode(t *testing.T) {
	body := `{
		"ticker": "SPY",
		"start_date": "2024-01-01",
		"amount": 100,
		"account_balance": "infinite",
		"margin_ratio": 1.5,
		"monthly_withdrawal_amount": "500"
	}`

	var req SimulationRequest
	if err := json.Unmarshal([]byte(body), &req); err != nil {
		t.Fatalf("decode failed: %v", err)
	}

	if req.Ticker != "SPY" || req.Amount != 100 {
		t.Errorf("unexpected request: %+v", req)
	}
	if req.AccountBalance.IsSet() {
		t.Error("infinite balance should be unset")
	}
	if req.WithdrawalThreshold.IsSet() {
		t.Error("missing threshold should be unset")
	}
	if !req.MonthlyWithdrawalAmount.IsSet() || *req.MonthlyWithdrawalAmount.Value != 500 {
		t.Errorf("monthly withdrawal = %v, want 500", req.MonthlyWithdrawalAmount.Value)
	}
	if req.MarginRatio == nil || *req.MarginRatio != 1.5 {
		t.Errorf("margin ratio = %v, want 1.5", req.MarginRatio)
	}
}

func ptr(v float64) *float64 { return &v }
