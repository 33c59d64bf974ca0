package database

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/lib/pq"
	"github.com/safar/pos-store/internal/config"
)

// NewConnection opens a pool sized by cfg and waits up to
// cfg.ConnectTimeout for the first successful ping.
func NewConnection(ctx context.Context, cfg *config.DatabaseConfig) (*sql.DB, error) {
	db, err := sql.Open("postgres", cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	db.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)

	if cfg.ConnectTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.ConnectTimeout)
		defer cancel()
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return db, nil
}

// TxOptionsFromConfig applies the configured retry policy to the default
// read committed options used by the cart.
func TxOptionsFromConfig(cfg *config.DatabaseConfig) TxOptions {
	opts := DefaultTxOptions()
	if cfg.TxMaxRetries >= 0 {
		opts.MaxRetries = cfg.TxMaxRetries
	}
	if cfg.TxBaseBackoff > 0 {
		opts.BaseBackoff = cfg.TxBaseBackoff
	}
	return opts
}
