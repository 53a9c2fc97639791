// Package sql implements the metadata store over GORM. The backing engine
// is selected by the store URL scheme; anything that is not a recognized
// server DSN (including ":memory:" and plain file paths) opens the embedded
// SQLite driver.
package sql

import (
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlserver"
	"gorm.io/gorm"

	_ "github.com/ncruces/go-sqlite3/embed"
	"github.com/ncruces/go-sqlite3/gormlite"

	"github.com/pipemeta/pipemeta/pkg/store/sql/model"
)

type Store struct {
	log *logrus.Logger
	db  *gorm.DB
}

const slowQueryThreshold = 500 * time.Millisecond

func NewStore(logger *logrus.Logger, storeURL string) (*Store, error) {
	db, err := gorm.Open(dialectorFor(storeURL), &gorm.Config{
		Logger: NewLoggerAdaptor(logger, LoggerAdaptorConfig{
			SlowThreshold:             slowQueryThreshold,
			IgnoreRecordNotFoundError: true,
		}),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database %q: %w", storeURL, err)
	}

	// The embedded engine gets a single connection: ":memory:" databases
	// are per-connection, and SQLite serializes writers anyway.
	if db.Dialector.Name() == "sqlite" {
		sqlDB, err := db.DB()
		if err != nil {
			return nil, fmt.Errorf("failed to get underlying database handle: %w", err)
		}
		sqlDB.SetMaxOpenConns(1)
	}

	store := &Store{log: logger, db: db}
	if err := store.migrate(); err != nil {
		return nil, err
	}

	return store, nil
}

//nolint:ireturn
func dialectorFor(storeURL string) gorm.Dialector {
	switch {
	case strings.HasPrefix(storeURL, "postgres://"), strings.HasPrefix(storeURL, "postgresql://"):
		return postgres.Open(storeURL)
	case strings.HasPrefix(storeURL, "mysql://"):
		return mysql.Open(strings.TrimPrefix(storeURL, "mysql://"))
	case strings.HasPrefix(storeURL, "sqlserver://"):
		return sqlserver.Open(storeURL)
	default:
		return gormlite.Open(storeURL)
	}
}

// indexStatements back the common filter patterns of the query facade.
// Creation failures (index already exists, dialect quirks) are logged and
// swallowed; a missing index costs speed, not correctness.
var indexStatements = []string{
	"CREATE INDEX idx_run_results_schedule_type ON dbt_run_results (schedule_name, resource_type)",
	"CREATE INDEX idx_run_results_schedule_type_status ON dbt_run_results (schedule_name, resource_type, status)",
	"CREATE INDEX idx_run_results_unique_id ON dbt_run_results (unique_id)",
	"CREATE INDEX idx_run_results_status ON dbt_run_results (status)",
	"CREATE INDEX idx_run_results_schedule_executed_at ON dbt_run_results (schedule_name, executed_at DESC)",
	"CREATE INDEX idx_model_metadata_schedule_unique_id ON model_metadata (schedule_name, unique_id)",
	"CREATE INDEX idx_source_freshness_schedule_status ON dbt_source_freshness_results (schedule_name, freshness_status)",
}

func (s *Store) migrate() error {
	err := s.db.AutoMigrate(
		&model.RunResult{},
		&model.SourceFreshness{},
		&model.ModelMetadata{},
		&model.Seed{},
		&model.Snapshot{},
		&model.Test{},
		&model.Exposure{},
	)
	if err != nil {
		return fmt.Errorf("failed to migrate metadata tables: %w", err)
	}

	for _, statement := range indexStatements {
		if err := s.db.Exec(statement).Error; err != nil {
			s.log.Debugf("Skipping index creation %q: %s", statement, err)
		}
	}

	return nil
}

func (s *Store) Close() error {
	db, err := s.db.DB()
	if err != nil {
		return fmt.Errorf("failed to get underlying database handle: %w", err)
	}
	if err := db.Close(); err != nil {
		return fmt.Errorf("failed to close database: %w", err)
	}

	return nil
}
