// minber/database/sqlite.go
package database

import (
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"log/slog"
	"minber/utils"

	"github.com/mattn/go-sqlite3"
)

type sqliteDialect struct{}

func (sqliteDialect) placeholder(int) string { return "?" }

func (sqliteDialect) classify(backend string, err error) error {
	var serr sqlite3.Error
	if errors.As(err, &serr) {
		switch serr.Code {
		case sqlite3.ErrConstraint:
			return &ConstraintError{Backend: backend, Err: err}
		case sqlite3.ErrCantOpen, sqlite3.ErrIoErr, sqlite3.ErrBusy, sqlite3.ErrLocked, sqlite3.ErrNotADB:
			return &ConnectionError{Backend: backend, Err: err}
		}
		return fmt.Errorf("sqlite %s: %w", backend, err)
	}
	if errors.Is(err, driver.ErrBadConn) {
		return &ConnectionError{Backend: backend, Err: err}
	}
	return fmt.Errorf("sqlite %s: %w", backend, err)
}

// NewSQLiteAdapter opens (or creates) the SQLite backing file, applies
// the base schema plus any pending versioned migrations, and returns
// the adapter.
func NewSQLiteAdapter(dataSourceName string, logger *slog.Logger) (*SQLAdapter, error) {
	db, err := sql.Open("sqlite3", dataSourceName)
	if err != nil {
		return nil, err
	}

	if _, err := db.Exec(sqliteSchema); err != nil {
		return nil, fmt.Errorf("failed to execute base schema: %w", err)
	}
	if err := runSQLiteMigrations(db, logger); err != nil {
		return nil, fmt.Errorf("sqlite migration failed: %w", err)
	}

	logger.Info("SQLite backend initialized", "dsn", dataSourceName)
	return &SQLAdapter{db: db, name: "sqlite", dialect: sqliteDialect{}, logger: logger}, nil
}

// runSQLiteMigrations applies all un-applied migrations.
func runSQLiteMigrations(db *sql.DB, logger *slog.Logger) error {
	var latestVersion uint
	err := db.QueryRow("SELECT version FROM schema_migrations ORDER BY version DESC LIMIT 1").Scan(&latestVersion)
	if err != nil && err != sql.ErrNoRows {
		return fmt.Errorf("could not get db version: %w", err)
	}

	for _, m := range allMigrations {
		if m.Version <= latestVersion {
			continue
		}
		logger.Info("Applying sqlite migration", "version", m.Version)
		tx, err := db.Begin()
		if err != nil {
			return err
		}
		if _, err := tx.Exec(m.Query); err != nil {
			if rerr := tx.Rollback(); rerr != nil {
				logger.Error("Failed to rollback migration", "version", m.Version, "error", rerr)
			}
			return fmt.Errorf("failed to apply migration v%d: %w", m.Version, err)
		}
		if _, err := tx.Exec("INSERT INTO schema_migrations (version, applied_at) VALUES (?, ?)", m.Version, utils.GetSQLTime()); err != nil {
			if rerr := tx.Rollback(); rerr != nil {
				logger.Error("Failed to rollback migration record", "version", m.Version, "error", rerr)
			}
			return fmt.Errorf("failed to record migration v%d: %w", m.Version, err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("failed to commit migration v%d: %w", m.Version, err)
		}
	}
	return nil
}
