package db

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// BanRepository backs banned-players.json / banned-ips.json (spec.md
// §6) with two tables so the login pipeline's IP-ban and player-ban
// checks (spec.md §4.1 step 2) are simple indexed lookups.
type BanRepository struct {
	pool *pgxpool.Pool
}

// BanPlayer bans a player's XUID, optionally with an expiry (zero time
// means permanent).
func (r *BanRepository) BanPlayer(ctx context.Context, xuid, reason string, expiresAt time.Time) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO player_bans (xuid, reason, expires_at)
		VALUES ($1, $2, NULLIF($3, '0001-01-01 00:00:00+00'::timestamptz))
		ON CONFLICT (xuid) DO UPDATE SET reason = EXCLUDED.reason, expires_at = EXCLUDED.expires_at`,
		xuid, reason, expiresAt)
	if err != nil {
		return fmt.Errorf("banning player %s: %w", xuid, err)
	}
	return nil
}

// UnbanPlayer removes a player ban.
func (r *BanRepository) UnbanPlayer(ctx context.Context, xuid string) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM player_bans WHERE xuid = $1`, xuid)
	if err != nil {
		return fmt.Errorf("unbanning player %s: %w", xuid, err)
	}
	return nil
}

// IsPlayerBanned reports whether xuid has an active (non-expired) ban,
// and its reason if so.
func (r *BanRepository) IsPlayerBanned(ctx context.Context, xuid string) (banned bool, reason string, err error) {
	var expiresAt *time.Time
	err = r.pool.QueryRow(ctx,
		`SELECT reason, expires_at FROM player_bans WHERE xuid = $1`, xuid,
	).Scan(&reason, &expiresAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, "", nil
	}
	if err != nil {
		return false, "", fmt.Errorf("checking player ban %s: %w", xuid, err)
	}
	if expiresAt != nil && expiresAt.Before(time.Now()) {
		return false, "", nil
	}
	return true, reason, nil
}

// BanIP bans a remote IP address.
func (r *BanRepository) BanIP(ctx context.Context, ip, reason string, expiresAt time.Time) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO ip_bans (ip, reason, expires_at)
		VALUES ($1, $2, NULLIF($3, '0001-01-01 00:00:00+00'::timestamptz))
		ON CONFLICT (ip) DO UPDATE SET reason = EXCLUDED.reason, expires_at = EXCLUDED.expires_at`,
		ip, reason, expiresAt)
	if err != nil {
		return fmt.Errorf("banning ip %s: %w", ip, err)
	}
	return nil
}

// UnbanIP removes an IP ban.
func (r *BanRepository) UnbanIP(ctx context.Context, ip string) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM ip_bans WHERE ip = $1`, ip)
	if err != nil {
		return fmt.Errorf("unbanning ip %s: %w", ip, err)
	}
	return nil
}

// IsIPBanned reports whether ip has an active ban.
func (r *BanRepository) IsIPBanned(ctx context.Context, ip string) (bool, error) {
	var expiresAt *time.Time
	err := r.pool.QueryRow(ctx, `SELECT expires_at FROM ip_bans WHERE ip = $1`, ip).Scan(&expiresAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("checking ip ban %s: %w", ip, err)
	}
	if expiresAt != nil && expiresAt.Before(time.Now()) {
		return false, nil
	}
	return true, nil
}
