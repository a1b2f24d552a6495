package main

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ndewijer/DCA-Backtester-Backend/internal/analytics"
	"github.com/ndewijer/DCA-Backtester-Backend/internal/engine"
	"github.com/ndewijer/DCA-Backtester-Backend/internal/service"
)

func sampleResult() *service.SimulationResult {
	roi := 12.5
	beta := 1.1
	return &service.SimulationResult{
		RunID: "run-1",
		Result: &engine.Result{
			Summary: engine.Summary{
				TotalInvested:     1000,
				NetPortfolioValue: 1125,
				ROI:               &roi,
				ActualStartDate:   "2024-01-02",
			},
			Series: engine.SeriesOutput{Dates: []string{"2024-01-02", "2024-01-31"}},
		},
		Analytics: analytics.Report{TotalReturn: &roi, Beta: &beta},
		Benchmark: &service.ComparisonResult{Ticker: "SPY", Summary: engine.Summary{TotalInvested: 1000}},
	}
}

func TestResultMarkdown(t *testing.T) {
	md := resultMarkdown(sampleResult())

	assert.Contains(t, md, "# Backtest 2024-01-02 to 2024-01-31")
	assert.Contains(t, md, "| ROI | 12.50% |")
	assert.Contains(t, md, "| Beta | 1.10 |")
	assert.Contains(t, md, "## Benchmark SPY")
	assert.NotContains(t, md, "Without margin")
	assert.NotContains(t, md, "Margin calls")
	assert.Contains(t, md, "| CAGR | n/a |")
}

func TestWriteResultJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, writeResult(&buf, "json", sampleResult()))

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, "run-1", decoded["run_id"])
	assert.Contains(t, decoded, "summary")
	assert.Contains(t, decoded, "benchmark")
}

func TestParseAmount(t *testing.T) {
	a, err := parseAmount("balance", "infinite")
	require.NoError(t, err)
	assert.False(t, a.IsSet())

	a, err = parseAmount("balance", " 2500 ")
	require.NoError(t, err)
	require.True(t, a.IsSet())
	assert.Equal(t, 2500.0, *a.Value)

	_, err = parseAmount("balance", "lots")
	require.Error(t, err)
	assert.True(t, strings.HasPrefix(err.Error(), "-balance:"))
}
