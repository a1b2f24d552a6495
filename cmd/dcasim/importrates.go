package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/google/subcommands"
	"github.com/rs/zerolog"

	"github.com/ndewijer/DCA-Backtester-Backend/internal/config"
	"github.com/ndewijer/DCA-Backtester-Backend/internal/database"
	"github.com/ndewijer/DCA-Backtester-Backend/internal/repository"
	"github.com/ndewijer/DCA-Backtester-Backend/internal/service"
)

type importRatesCmd struct {
	file   string
	dbPath string
}

func (*importRatesCmd) Name() string     { return "import-rates" }
func (*importRatesCmd) Synopsis() string { return "import a FEDFUNDS CSV into the rate table" }
func (*importRatesCmd) Usage() string {
	return `dcasim import-rates [-file <csv>] [-db <path>]

  Imports monthly reference rates (observation_date,FEDFUNDS in percent).
  Re-importing a file replaces the stored observations for the same dates.
`
}

func (c *importRatesCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.file, "file", "", "CSV file to import (defaults to FEDFUNDS_PATH)")
	f.StringVar(&c.dbPath, "db", "", "Database to import into (defaults to DB_PATH)")
}

func (c *importRatesCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	if c.file == "" {
		c.file = cfg.Rates.CSVPath
	}
	if c.dbPath != "" {
		cfg.Database.Path = c.dbPath
	}

	db, err := database.Open(cfg.Database.Path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	defer db.Close()

	rates := service.NewRateService(repository.NewRateRepository(db), cfg.Rates.DefaultRate, zerolog.Nop())
	res, err := rates.ImportFile(ctx, c.file)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}

	fmt.Printf("Imported %d observations from %s (%d rows skipped)\n", res.Imported, c.file, res.Skipped)
	return subcommands.ExitSuccess
}
