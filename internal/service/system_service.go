package service

import (
	"database/sql"
	"fmt"
	"maps"
	"strconv"

	"github.com/pressly/goose/v3"

	"github.com/ndewijer/DCA-Backtester-Backend/internal/apperrors"
	"github.com/ndewijer/DCA-Backtester-Backend/internal/database"
	"github.com/ndewijer/DCA-Backtester-Backend/internal/model"
	"github.com/ndewijer/DCA-Backtester-Backend/internal/version"
)

// SystemService handles system-related operations
type SystemService struct {
	db       *sql.DB
	features map[string]bool
}

// NewSystemService creates a new SystemService. features is reported as is
// by CheckVersion.
func NewSystemService(db *sql.DB, features map[string]bool) *SystemService {
	return &SystemService{
		db:       db,
		features: features,
	}
}

// CheckHealth checks the health of the system
func (s *SystemService) CheckHealth() error {
	return database.HealthCheck(s.db)
}

// CheckVersion returns the application version and the applied schema version.
func (s *SystemService) CheckVersion() (model.VersionInfo, error) {
	dbVersion, err := goose.GetDBVersion(s.db)
	if err != nil {
		return model.VersionInfo{}, fmt.Errorf("%w: %w", apperrors.ErrFailedToGetVersionInfo, err)
	}

	features := maps.Clone(s.features)
	if features == nil {
		features = map[string]bool{}
	}

	return model.VersionInfo{
		AppVersion: version.Version,
		DbVersion:  strconv.FormatInt(dbVersion, 10),
		Features:   features,
	}, nil
}
