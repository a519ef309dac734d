// Package db persists the data spec.md §6 names as flat files
// (players/<uuid>.dat, ops.json, whitelist.json, banned-players.json,
// banned-ips.json) behind a queryable Postgres store, following
// internal/db's package shape: a thin *DB wrapping a pgxpool.Pool, one
// repository type per table, pgx error checks with fmt.Errorf
// wrapping.
package db

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// DB wraps a pgx connection pool shared by every repository.
type DB struct {
	pool *pgxpool.Pool
}

// New connects to PostgreSQL and returns a DB handle.
func New(ctx context.Context, dsn string) (*DB, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("connecting to database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}
	return &DB{pool: pool}, nil
}

// Close closes the database connection pool.
func (d *DB) Close() {
	d.pool.Close()
}

// Pool returns the underlying pgx pool (used by RunMigrations and by
// tests that want a raw handle).
func (d *DB) Pool() *pgxpool.Pool {
	return d.pool
}

// Players returns a repository for per-player save data.
func (d *DB) Players() *PlayerRepository {
	return &PlayerRepository{pool: d.pool}
}

// Bans returns a repository for player and IP bans.
func (d *DB) Bans() *BanRepository {
	return &BanRepository{pool: d.pool}
}

// Whitelist returns a repository for the whitelist.
func (d *DB) Whitelist() *WhitelistRepository {
	return &WhitelistRepository{pool: d.pool}
}

// Ops returns a repository for operator grants.
func (d *DB) Ops() *OpsRepository {
	return &OpsRepository{pool: d.pool}
}
