package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/ndewijer/DCA-Backtester-Backend/internal/analytics"
	"github.com/ndewijer/DCA-Backtester-Backend/internal/api/request"
	"github.com/ndewijer/DCA-Backtester-Backend/internal/apperrors"
	"github.com/ndewijer/DCA-Backtester-Backend/internal/engine"
	"github.com/ndewijer/DCA-Backtester-Backend/internal/marketdata"
	"github.com/ndewijer/DCA-Backtester-Backend/internal/metrics"
	"github.com/ndewijer/DCA-Backtester-Backend/internal/validation"
)

// RateSource resolves the reference rate schedule for a run.
type RateSource interface {
	RateFunc(ctx context.Context) engine.RateFunc
}

// SimulationInput is a fully parsed simulation request.
type SimulationInput struct {
	Params          engine.Parameters
	BenchmarkTicker string
	// TargetDates, when set, re-indexes the primary series onto these days.
	TargetDates []time.Time
}

// SimulationResult is the response bundle of one request: the primary run,
// its analytics, and the optional comparison runs.
type SimulationResult struct {
	RunID string `json:"run_id"`
	*engine.Result
	Analytics analytics.Report  `json:"analytics"`
	Benchmark *ComparisonResult `json:"benchmark,omitempty"`
	NoMargin  *ComparisonResult `json:"no_margin,omitempty"`
}

// ComparisonResult is a secondary run aligned to the primary run's dates.
type ComparisonResult struct {
	Ticker       string            `json:"ticker"`
	Dates        []string          `json:"dates"`
	Portfolio    []float64         `json:"portfolio"`
	NetPortfolio []float64         `json:"net_portfolio"`
	Summary      engine.Summary    `json:"summary"`
	Analytics    *analytics.Report `json:"analytics,omitempty"`
}

// SimulationService orchestrates data loading, the engine runs and analytics.
type SimulationService struct {
	provider marketdata.Provider
	rates    RateSource
	logger   zerolog.Logger
}

// NewSimulationService creates a new SimulationService.
func NewSimulationService(provider marketdata.Provider, rates RateSource, logger zerolog.Logger) *SimulationService {
	return &SimulationService{
		provider: provider,
		rates:    rates,
		logger:   logger.With().Str("component", "simulation").Logger(),
	}
}

// Run validates and executes a request decoded from the API.
func (s *SimulationService) Run(ctx context.Context, req request.SimulationRequest) (*SimulationResult, error) {
	if err := validation.ValidateSimulationRequest(req); err != nil {
		return nil, fmt.Errorf("%w: %w", apperrors.ErrInvalidParameters, err)
	}
	in, err := InputFromRequest(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", apperrors.ErrInvalidParameters, err)
	}
	return s.Simulate(ctx, in)
}

// Simulate executes the primary run and, when requested, a benchmark run on
// BenchmarkTicker and a no-margin comparison. With a benchmark, the primary
// series is first restricted to the date range both tickers share.
//
// Parameters:
//   - ctx: Context for provider I/O
//   - in: Parsed input; zero margin settings take the engine defaults
//
// Returns:
//   - *SimulationResult: Rounded result bundle
//   - error: ErrInvalidParameters, ErrDataUnavailable, ErrNoCommonDateRange,
//     or a wrapped provider failure
func (s *SimulationService) Simulate(ctx context.Context, in SimulationInput) (result *SimulationResult, err error) {
	start := time.Now()
	defer func() {
		metrics.SimulationDuration.Observe(time.Since(start).Seconds())
		outcome := "success"
		if err != nil {
			outcome = "error"
		}
		metrics.SimulationsTotal.WithLabelValues(outcome).Inc()
	}()

	params := withDefaults(in.Params)
	if err := validation.ValidateParameters(params); err != nil {
		return nil, fmt.Errorf("%w: %w", apperrors.ErrInvalidParameters, err)
	}
	benchTicker := strings.ToUpper(strings.TrimSpace(in.BenchmarkTicker))

	primary, bench, err := s.loadSeries(ctx, params, benchTicker)
	if err != nil {
		return nil, err
	}

	if benchTicker != "" {
		from, to, err := marketdata.CommonDateRange(primary, bench)
		if err != nil {
			return nil, err
		}
		primary = primary.Trim(from, to)
		bench = bench.Trim(from, to)
	}

	if len(in.TargetDates) > 0 {
		primary, err = marketdata.AlignToReference(primary, in.TargetDates)
		if err != nil {
			return nil, err
		}
	}

	rates := s.rates.RateFunc(ctx)

	res, err := engine.Simulate(params, primary, rates)
	if err != nil {
		return nil, err
	}
	s.observe(res)

	report := analytics.Compute(res.Dates(), res.NetValues())
	result = &SimulationResult{
		RunID:  uuid.NewString(),
		Result: res,
	}

	g, _ := errgroup.WithContext(ctx)
	var benchRes *engine.Result
	if benchTicker != "" {
		g.Go(func() error {
			aligned, err := marketdata.AlignToReference(bench, res.Dates())
			if err != nil {
				return fmt.Errorf("benchmark %s: %w", benchTicker, err)
			}
			benchRes, err = engine.Simulate(benchmarkParameters(params, benchTicker), aligned, rates)
			if err != nil {
				return fmt.Errorf("benchmark %s: %w", benchTicker, err)
			}
			s.observe(benchRes)
			return nil
		})
	}
	if params.MarginRatio > engine.NoMarginRatio {
		g.Go(func() error {
			noMargin, err := engine.Simulate(noMarginParameters(params), primary, rates)
			if err != nil {
				return fmt.Errorf("no-margin comparison: %w", err)
			}
			s.observe(noMargin)
			result.NoMargin = comparison(params.Ticker, noMargin, nil)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	if benchRes != nil {
		benchReport := analytics.Compute(benchRes.Dates(), benchRes.NetValues()).Rounded()
		result.Benchmark = comparison(benchTicker, benchRes, &benchReport)
		report = report.WithBenchmark(res.NetValues(), benchRes.NetValues())
	}
	result.Analytics = report.Rounded()

	s.logger.Info().
		Str("run_id", result.RunID).
		Str("ticker", params.Ticker).
		Str("benchmark", benchTicker).
		Int("days", len(res.Records)).
		Bool("insolvent", res.Summary.InsolvencyDetected).
		Dur("elapsed", time.Since(start)).
		Msg("simulation complete")

	return result, nil
}

func (s *SimulationService) loadSeries(ctx context.Context, params engine.Parameters, benchTicker string) (marketdata.Series, marketdata.Series, error) {
	var primary, bench marketdata.Series

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		primary, err = marketdata.FetchSeries(gctx, s.provider, params.Ticker, params.StartDate, params.EndDate)
		return err
	})
	if benchTicker != "" {
		g.Go(func() error {
			var err error
			bench, err = marketdata.FetchSeries(gctx, s.provider, benchTicker, params.StartDate, params.EndDate)
			if err != nil {
				return fmt.Errorf("benchmark %s: %w", benchTicker, err)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return marketdata.Series{}, marketdata.Series{}, err
	}
	return primary, bench, nil
}

func (s *SimulationService) observe(res *engine.Result) {
	metrics.SimulatedDays.Add(float64(len(res.Records)))
	if res.Summary.InsolvencyDetected {
		metrics.InsolventRuns.Inc()
	}
}

// InputFromRequest converts a validated request into a SimulationInput.
func InputFromRequest(req request.SimulationRequest) (SimulationInput, error) {
	start, err := marketdata.ParseDate(req.StartDate)
	if err != nil {
		return SimulationInput{}, fmt.Errorf("%w: start_date", apperrors.ErrInvalidDate)
	}
	var end time.Time
	if strings.TrimSpace(req.EndDate) != "" {
		if end, err = marketdata.ParseDate(req.EndDate); err != nil {
			return SimulationInput{}, fmt.Errorf("%w: end_date", apperrors.ErrInvalidDate)
		}
	}

	targets := make([]time.Time, 0, len(req.TargetDates))
	for _, d := range req.TargetDates {
		t, err := marketdata.ParseDate(d)
		if err != nil {
			return SimulationInput{}, fmt.Errorf("%w: target_dates", apperrors.ErrInvalidDate)
		}
		targets = append(targets, t)
	}

	params := engine.Parameters{
		Ticker:                  strings.ToUpper(strings.TrimSpace(req.Ticker)),
		StartDate:               start,
		EndDate:                 end,
		DailyAmount:             req.Amount,
		InitialAmount:           req.InitialAmount,
		Reinvest:                req.Reinvest,
		AccountBalance:          req.AccountBalance.Value,
		WithdrawalThreshold:     req.WithdrawalThreshold.Value,
		MonthlyWithdrawalAmount: req.MonthlyWithdrawalAmount.Value,
		Frequency:               engine.Frequency(strings.ToUpper(req.Frequency)),
		MarginCheck:             engine.MarginCheckPolicy(strings.ToLower(req.MarginCheck)),
	}
	if req.MarginRatio != nil {
		params.MarginRatio = *req.MarginRatio
	}
	if req.MaintenanceMargin != nil {
		params.MaintenanceMargin = *req.MaintenanceMargin
	}

	return SimulationInput{
		Params:          params,
		BenchmarkTicker: req.BenchmarkTicker,
		TargetDates:     targets,
	}, nil
}

func withDefaults(p engine.Parameters) engine.Parameters {
	if p.MarginRatio == 0 {
		p.MarginRatio = engine.NoMarginRatio
	}
	if p.MaintenanceMargin == 0 {
		p.MaintenanceMargin = engine.DefaultMaintenanceMargin
	}
	if p.Frequency == "" {
		p.Frequency = engine.FrequencyDaily
	}
	if p.MarginCheck == "" {
		p.MarginCheck = engine.MarginCheckBeforeAndAfter
	}
	return p
}

// benchmarkParameters isolates ticker performance: no margin, daily buys and
// no withdrawals, with the same contributions and starting balance.
func benchmarkParameters(p engine.Parameters, ticker string) engine.Parameters {
	b := p
	b.Ticker = ticker
	b.MarginRatio = engine.NoMarginRatio
	b.MaintenanceMargin = engine.DefaultMaintenanceMargin
	b.Frequency = engine.FrequencyDaily
	b.WithdrawalThreshold = nil
	b.MonthlyWithdrawalAmount = nil
	return b
}

func noMarginParameters(p engine.Parameters) engine.Parameters {
	n := p
	n.MarginRatio = engine.NoMarginRatio
	n.MaintenanceMargin = engine.DefaultMaintenanceMargin
	return n
}

func comparison(ticker string, res *engine.Result, report *analytics.Report) *ComparisonResult {
	return &ComparisonResult{
		Ticker:       ticker,
		Dates:        res.Series.Dates,
		Portfolio:    res.Series.Portfolio,
		NetPortfolio: res.Series.NetPortfolio,
		Summary:      res.Summary,
		Analytics:    report,
	}
}
