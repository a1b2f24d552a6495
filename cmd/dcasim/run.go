package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/google/subcommands"
	"github.com/rs/zerolog"

	"github.com/ndewijer/DCA-Backtester-Backend/internal/api/request"
	"github.com/ndewijer/DCA-Backtester-Backend/internal/cache"
	"github.com/ndewijer/DCA-Backtester-Backend/internal/config"
	"github.com/ndewijer/DCA-Backtester-Backend/internal/database"
	"github.com/ndewijer/DCA-Backtester-Backend/internal/logger"
	"github.com/ndewijer/DCA-Backtester-Backend/internal/repository"
	"github.com/ndewijer/DCA-Backtester-Backend/internal/service"
	"github.com/ndewijer/DCA-Backtester-Backend/internal/yahoo"
)

type runCmd struct {
	req request.SimulationRequest

	balance     string
	margin      float64
	maintenance float64
	threshold   string
	withdrawal  string

	dbPath  string
	format  string
	verbose bool
}

func (*runCmd) Name() string     { return "run" }
func (*runCmd) Synopsis() string { return "run a DCA backtest and print the result" }
func (*runCmd) Usage() string {
	return `dcasim run -ticker <symbol> -start <date> [-end <date>] [-amount n] [-balance n|infinite]
           [-margin r] [-benchmark <symbol>] [-format json|markdown]

  Runs one backtest against Yahoo Finance data. Margin interest uses the
  reference rates stored in the database, or the fallback rate.
`
}

func (c *runCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.req.Ticker, "ticker", "", "Ticker to invest in")
	f.StringVar(&c.req.StartDate, "start", "", "First day of the backtest (YYYY-MM-DD)")
	f.StringVar(&c.req.EndDate, "end", "", "Last day of the backtest (defaults to today)")
	f.Float64Var(&c.req.Amount, "amount", 100, "Contribution per period")
	f.Float64Var(&c.req.InitialAmount, "initial", 0, "Extra amount invested on the first day")
	f.BoolVar(&c.req.Reinvest, "reinvest", false, "Reinvest dividends")
	f.StringVar(&c.req.Frequency, "frequency", "DAILY", "Contribution frequency (DAILY, WEEKLY, MONTHLY)")
	f.StringVar(&c.req.MarginCheck, "margin-check", "", "Margin check policy (before_and_after, after_only)")
	f.StringVar(&c.req.BenchmarkTicker, "benchmark", "", "Benchmark ticker")
	f.StringVar(&c.balance, "balance", "infinite", "Starting cash, or 'infinite'")
	f.Float64Var(&c.margin, "margin", 1, "Margin ratio between 1 and 2")
	f.Float64Var(&c.maintenance, "maintenance", 0.25, "Maintenance margin between 0 and 1")
	f.StringVar(&c.threshold, "withdraw-at", "", "Net value that switches the account to withdrawals")
	f.StringVar(&c.withdrawal, "withdraw", "", "Monthly withdrawal amount once withdrawals start")
	f.StringVar(&c.dbPath, "db", "", "Database holding reference rates (defaults to DB_PATH)")
	f.StringVar(&c.format, "format", "markdown", "Output format (json, markdown)")
	f.BoolVar(&c.verbose, "v", false, "Log progress to stderr")
}

func (c *runCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if c.format != "json" && c.format != "markdown" {
		fmt.Fprintf(os.Stderr, "Error: unknown format %q\n", c.format)
		return subcommands.ExitUsageError
	}
	if err := c.buildRequest(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitUsageError
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	if c.dbPath != "" {
		cfg.Database.Path = c.dbPath
	}
	log := zerolog.Nop()
	if c.verbose {
		log = logger.NewWithWriter(logger.Config{Level: cfg.Log.Level, Pretty: true}, os.Stderr)
	}

	db, err := database.Open(cfg.Database.Path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	defer db.Close()

	store, closeStore, err := cache.Open(ctx, cfg.Cache.RedisURL)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	defer closeStore() //nolint:errcheck // best effort on exit

	provider := yahoo.NewProvider(yahoo.NewFinanceClient(yahoo.Config{MaxRetries: cfg.Yahoo.MaxRetries}), store, cfg.Cache.TTL, log)
	rates := service.NewRateService(repository.NewRateRepository(db), cfg.Rates.DefaultRate, log)
	sim := service.NewSimulationService(provider, rates, log)

	result, err := sim.Run(ctx, c.req)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}

	if err := writeResult(os.Stdout, c.format, result); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}

// buildRequest copies the optional amount flags into the request.
func (c *runCmd) buildRequest() error {
	var err error
	if c.req.AccountBalance, err = parseAmount("balance", c.balance); err != nil {
		return err
	}
	if c.req.WithdrawalThreshold, err = parseAmount("withdraw-at", c.threshold); err != nil {
		return err
	}
	if c.req.MonthlyWithdrawalAmount, err = parseAmount("withdraw", c.withdrawal); err != nil {
		return err
	}
	c.req.MarginRatio = &c.margin
	c.req.MaintenanceMargin = &c.maintenance
	return nil
}

// parseAmount accepts the same spellings as the JSON API.
func parseAmount(name, s string) (request.Amount, error) {
	var a request.Amount
	if err := a.UnmarshalJSON([]byte(strconv.Quote(strings.TrimSpace(s)))); err != nil {
		return request.Amount{}, fmt.Errorf("-%s: %w", name, err)
	}
	return a, nil
}

func writeResult(w io.Writer, format string, result *service.SimulationResult) error {
	if format == "json" {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	}
	return printMarkdown(w, resultMarkdown(result))
}
