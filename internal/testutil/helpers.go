package testutil

import (
	"database/sql"
	"testing"

	"github.com/rs/zerolog"

	"github.com/ndewijer/DCA-Backtester-Backend/internal/repository"
	"github.com/ndewijer/DCA-Backtester-Backend/internal/service"
)

// DefaultTestRate is the fallback rate used by test services.
const DefaultTestRate = 0.05

// NewTestRateService creates a RateService over db with a silent logger.
func NewTestRateService(t *testing.T, db *sql.DB) *service.RateService {
	t.Helper()

	return service.NewRateService(
		repository.NewRateRepository(db),
		DefaultTestRate,
		zerolog.Nop(),
	)
}

// NewTestSimulationService creates a SimulationService over provider with
// rates read from db.
func NewTestSimulationService(t *testing.T, db *sql.DB, provider *MockProvider) *service.SimulationService {
	t.Helper()

	return service.NewSimulationService(
		provider,
		NewTestRateService(t, db),
		zerolog.Nop(),
	)
}

// NewTestSystemService creates a SystemService over db.
func NewTestSystemService(t *testing.T, db *sql.DB) *service.SystemService {
	t.Helper()

	return service.NewSystemService(db, map[string]bool{"margin": true})
}
