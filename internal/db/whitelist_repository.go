package db

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// WhitelistRepository backs whitelist.json (spec.md §6 / §4.1 step 2:
// the login pipeline enforces whitelist after IP-ban and player-ban).
type WhitelistRepository struct {
	pool *pgxpool.Pool
}

// Add whitelists xuid.
func (r *WhitelistRepository) Add(ctx context.Context, xuid, displayName string) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO whitelist (xuid, display_name) VALUES ($1, $2)
		ON CONFLICT (xuid) DO UPDATE SET display_name = EXCLUDED.display_name`,
		xuid, displayName)
	if err != nil {
		return fmt.Errorf("whitelisting %s: %w", xuid, err)
	}
	return nil
}

// Remove un-whitelists xuid.
func (r *WhitelistRepository) Remove(ctx context.Context, xuid string) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM whitelist WHERE xuid = $1`, xuid)
	if err != nil {
		return fmt.Errorf("removing %s from whitelist: %w", xuid, err)
	}
	return nil
}

// IsWhitelisted reports whether xuid is whitelisted.
func (r *WhitelistRepository) IsWhitelisted(ctx context.Context, xuid string) (bool, error) {
	var dummy string
	err := r.pool.QueryRow(ctx, `SELECT xuid FROM whitelist WHERE xuid = $1`, xuid).Scan(&dummy)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("checking whitelist for %s: %w", xuid, err)
	}
	return true, nil
}

// List returns every whitelisted display name, for the `whitelist list`
// command (spec.md §6).
func (r *WhitelistRepository) List(ctx context.Context) ([]string, error) {
	rows, err := r.pool.Query(ctx, `SELECT display_name FROM whitelist ORDER BY display_name`)
	if err != nil {
		return nil, fmt.Errorf("listing whitelist: %w", err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scanning whitelist row: %w", err)
		}
		names = append(names, name)
	}
	return names, rows.Err()
}
