package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/glamour"

	"github.com/ndewijer/DCA-Backtester-Backend/internal/analytics"
	"github.com/ndewijer/DCA-Backtester-Backend/internal/engine"
	"github.com/ndewijer/DCA-Backtester-Backend/internal/service"
)

// printMarkdown renders md for the terminal.
func printMarkdown(w io.Writer, md string) error {
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(100),
	)
	if err != nil {
		return fmt.Errorf("failed to create renderer: %w", err)
	}
	out, err := r.Render(md)
	if err != nil {
		return fmt.Errorf("failed to render markdown: %w", err)
	}
	_, err = io.WriteString(w, out)
	return err
}

// resultMarkdown formats the summary and analytics of a run, followed by the
// comparison runs when present.
func resultMarkdown(res *service.SimulationResult) string {
	var b strings.Builder
	s := res.Summary
	last := len(res.Series.Dates) - 1

	fmt.Fprintf(&b, "# Backtest %s to %s\n\n", s.ActualStartDate, res.Series.Dates[last])

	b.WriteString("| Metric | Value |\n|---|---:|\n")
	row(&b, "Total invested", money(s.TotalInvested))
	row(&b, "Portfolio value", money(s.CurrentValue))
	row(&b, "Net value", money(s.NetPortfolioValue))
	row(&b, "ROI", percent(s.ROI))
	row(&b, "Shares", fmt.Sprintf("%.4f", s.TotalShares))
	row(&b, "Average cost", money(s.AverageCost))
	row(&b, "Dividends", money(s.TotalDividends))
	if s.AccountBalance != nil {
		row(&b, "Cash balance", money(*s.AccountBalance))
	}
	if s.TotalBorrowed > 0 || s.MarginCalls > 0 {
		row(&b, "Borrowed", money(s.TotalBorrowed))
		row(&b, "Interest paid", money(s.TotalInterestPaid))
		row(&b, "Leverage", fmt.Sprintf("%.2fx", s.CurrentLeverage))
		row(&b, "Margin calls", fmt.Sprintf("%d", s.MarginCalls))
	}
	if s.WithdrawalModeActive {
		row(&b, "Withdrawals since", deref(s.WithdrawalModeStartDate))
		row(&b, "Total withdrawn", money(s.TotalWithdrawn))
	}
	row(&b, "Worst drawdown", fmt.Sprintf("%.2f%%", s.ActualMaxDrawdown))
	if s.InsolvencyDetected {
		row(&b, "**Insolvent on**", deref(s.InsolvencyDate))
	}

	b.WriteString("\n## Analytics\n\n")
	analyticsTable(&b, res.Analytics)

	if res.Benchmark != nil {
		fmt.Fprintf(&b, "\n## Benchmark %s\n\n", res.Benchmark.Ticker)
		comparisonTable(&b, res.Benchmark.Summary)
		if res.Benchmark.Analytics != nil {
			b.WriteString("\n")
			analyticsTable(&b, *res.Benchmark.Analytics)
		}
	}
	if res.NoMargin != nil {
		b.WriteString("\n## Without margin\n\n")
		comparisonTable(&b, res.NoMargin.Summary)
	}
	return b.String()
}

func analyticsTable(b *strings.Builder, r analytics.Report) {
	b.WriteString("| Metric | Value |\n|---|---:|\n")
	row(b, "Total return", percent(r.TotalReturn))
	row(b, "CAGR", percent(r.CAGR))
	row(b, "Volatility", percent(r.Volatility))
	row(b, "Sharpe ratio", ratio(r.SharpeRatio))
	row(b, "Max drawdown", percent(r.MaxDrawdown))
	row(b, "Win rate", percent(r.WinRate))
	row(b, "Calmar ratio", ratio(r.CalmarRatio))
	if r.Beta != nil {
		row(b, "Alpha", percent(r.Alpha))
		row(b, "Beta", ratio(r.Beta))
	}
}

func comparisonTable(b *strings.Builder, s engine.Summary) {
	b.WriteString("| Metric | Value |\n|---|---:|\n")
	row(b, "Total invested", money(s.TotalInvested))
	row(b, "Net value", money(s.NetPortfolioValue))
	row(b, "ROI", percent(s.ROI))
}

func row(b *strings.Builder, name, value string) {
	fmt.Fprintf(b, "| %s | %s |\n", name, value)
}

func money(v float64) string {
	return fmt.Sprintf("%.2f", v)
}

func percent(v *float64) string {
	if v == nil {
		return "n/a"
	}
	return fmt.Sprintf("%.2f%%", *v)
}

func ratio(v *float64) string {
	if v == nil {
		return "n/a"
	}
	return fmt.Sprintf("%.2f", *v)
}

func deref(s *string) string {
	if s == nil {
		return "n/a"
	}
	return *s
}
