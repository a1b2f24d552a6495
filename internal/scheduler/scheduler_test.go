package scheduler

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ndewijer/DCA-Backtester-Backend/internal/model"
)

type stubImporter struct {
	calls []string
	err   error
}

func (s *stubImporter) ImportFile(_ context.Context, path string) (model.RateImportResult, error) {
	s.calls = append(s.calls, path)
	if s.err != nil {
		return model.RateImportResult{}, s.err
	}
	return model.RateImportResult{Imported: 12, Source: path}, nil
}

func TestAddRateRefresh(t *testing.T) {
	s := New(zerolog.Nop())

	_, err := s.AddRateRefresh("@daily", &stubImporter{}, "rates.csv")
	require.NoError(t, err)
	assert.Equal(t, 1, s.Entries())

	_, err = s.AddRateRefresh("not a schedule", &stubImporter{}, "rates.csv")
	assert.Error(t, err)
	assert.Equal(t, 1, s.Entries())
}

func TestRefreshRates(t *testing.T) {
	ok := &stubImporter{}
	RefreshRates(context.Background(), ok, "FEDFUNDS.csv", zerolog.Nop())
	assert.Equal(t, []string{"FEDFUNDS.csv"}, ok.calls)

	failing := &stubImporter{err: errors.New("disk gone")}
	RefreshRates(context.Background(), failing, "FEDFUNDS.csv", zerolog.Nop())
	assert.Len(t, failing.calls, 1)
}

func TestStartStop(t *testing.T) {
	s := New(zerolog.Nop())
	s.Start()
	s.Stop(context.Background())
}
