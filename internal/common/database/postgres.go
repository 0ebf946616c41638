// internal/common/database/postgres.go
package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"travel-orchestrator/internal/common/config"

	_ "github.com/lib/pq"
)

const (
	defaultMaxOpenConns = 10
	connMaxLifetime     = 30 * time.Minute
	connMaxIdleTime     = 5 * time.Minute
	pingTimeout         = 5 * time.Second
)

// Postgres is the connection pool behind the postgres session backend.
type Postgres struct {
	DB *sql.DB
}

// NewPostgres opens a pool. It does not dial; call Ping to check the server.
func NewPostgres(cfg config.PostgresConfig) (*Postgres, error) {
	db, err := sql.Open("postgres", cfg.GetDSN())
	if err != nil {
		return nil, fmt.Errorf("failed to open postgres: %w", err)
	}
	configurePool(db, cfg)
	return &Postgres{DB: db}, nil
}

// configurePool applies the configured limits. Session reads and writes are
// short, so idle connections never exceed half the pool unless asked for.
func configurePool(db *sql.DB, cfg config.PostgresConfig) {
	maxOpen := cfg.MaxConnections
	if maxOpen <= 0 {
		maxOpen = defaultMaxOpenConns
	}
	maxIdle := cfg.MaxIdle
	if maxIdle <= 0 || maxIdle > maxOpen {
		maxIdle = max(1, maxOpen/2)
	}
	db.SetMaxOpenConns(maxOpen)
	db.SetMaxIdleConns(maxIdle)
	db.SetConnMaxLifetime(connMaxLifetime)
	db.SetConnMaxIdleTime(connMaxIdleTime)
}

func (p *Postgres) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if err := p.DB.PingContext(ctx); err != nil {
		return fmt.Errorf("postgres ping failed: %w", err)
	}
	return nil
}

func (p *Postgres) Close() error {
	if p == nil || p.DB == nil {
		return nil
	}
	return p.DB.Close()
}
