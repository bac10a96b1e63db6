// internal/common/database/postgres.go
// PostgreSQL connection and configuration

package database

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq" // PostgreSQL driver
)

// PoolConfig holds connection pool settings
type PoolConfig struct {
	MaxOpenConns int
	MaxIdleConns int
	MaxLifetime  time.Duration
}

// DefaultPoolConfig is used when no pool settings are supplied
var DefaultPoolConfig = PoolConfig{
	MaxOpenConns: 25,
	MaxIdleConns: 5,
	MaxLifetime:  5 * time.Minute,
}

// NewPostgresDB opens a pooled connection from a URL and verifies it with a ping
func NewPostgresDB(ctx context.Context, databaseURL string, pool PoolConfig) (*sqlx.DB, error) {
	db, err := sqlx.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(pool.MaxOpenConns)
	db.SetMaxIdleConns(pool.MaxIdleConns)
	db.SetConnMaxLifetime(pool.MaxLifetime)

	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return db, nil
}
