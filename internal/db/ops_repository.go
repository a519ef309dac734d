package db

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// OpsRepository backs ops.json (spec.md §6) which gates the operator
// command subset (`op`, `deop`, `ban`, `kick`, `gamerule`, ...).
type OpsRepository struct {
	pool *pgxpool.Pool
}

// Grant marks xuid as an operator.
func (r *OpsRepository) Grant(ctx context.Context, xuid, displayName string) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO ops (xuid, display_name) VALUES ($1, $2)
		ON CONFLICT (xuid) DO NOTHING`, xuid, displayName)
	if err != nil {
		return fmt.Errorf("granting op to %s: %w", xuid, err)
	}
	return nil
}

// Revoke removes operator status from xuid.
func (r *OpsRepository) Revoke(ctx context.Context, xuid string) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM ops WHERE xuid = $1`, xuid)
	if err != nil {
		return fmt.Errorf("revoking op from %s: %w", xuid, err)
	}
	return nil
}

// IsOp reports whether xuid currently has operator status.
func (r *OpsRepository) IsOp(ctx context.Context, xuid string) (bool, error) {
	var dummy string
	err := r.pool.QueryRow(ctx, `SELECT xuid FROM ops WHERE xuid = $1`, xuid).Scan(&dummy)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("checking op status for %s: %w", xuid, err)
	}
	return true, nil
}
