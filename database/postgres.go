// minber/database/postgres.go
package database

import (
	"database/sql"
	"database/sql/driver"
	"embed"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"strings"

	"github.com/lib/pq"
	"github.com/pressly/goose/v3"
)

//go:embed migrations/postgres/*.sql
var postgresMigrations embed.FS

type postgresDialect struct{}

func (postgresDialect) placeholder(n int) string { return fmt.Sprintf("$%d", n) }

func (postgresDialect) classify(backend string, err error) error {
	var perr *pq.Error
	if errors.As(err, &perr) {
		code := string(perr.Code)
		switch {
		case strings.HasPrefix(code, "23"): // integrity constraint violation
			return &ConstraintError{Backend: backend, Err: err}
		case strings.HasPrefix(code, "08"), // connection exception
			strings.HasPrefix(code, "53"), // insufficient resources
			strings.HasPrefix(code, "57"): // operator intervention / shutdown
			return &ConnectionError{Backend: backend, Err: err}
		}
		return fmt.Errorf("postgres %s: %w", backend, err)
	}

	var nerr net.Error
	if errors.As(err, &nerr) || errors.Is(err, driver.ErrBadConn) {
		return &ConnectionError{Backend: backend, Err: err}
	}
	return fmt.Errorf("postgres %s: %w", backend, err)
}

// NewPostgresAdapter connects to the Postgres primary, runs goose
// migrations from the embedded directory, and returns the adapter.
func NewPostgresAdapter(dsn string, logger *slog.Logger) (*SQLAdapter, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("postgres unreachable: %w", err)
	}

	goose.SetBaseFS(postgresMigrations)
	if err := goose.SetDialect("postgres"); err != nil {
		return nil, fmt.Errorf("failed to set goose dialect: %w", err)
	}
	if err := goose.Up(db, "migrations/postgres"); err != nil {
		return nil, fmt.Errorf("postgres migration failed: %w", err)
	}

	logger.Info("Postgres backend initialized")
	return &SQLAdapter{db: db, name: "postgres", dialect: postgresDialect{}, logger: logger}, nil
}
