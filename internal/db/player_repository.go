package db

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PlayerRecord is the durable representation of one player's save data
// (spec.md §3's Session fields that must survive a disconnect: identity,
// position/rotation, dimension, gamemode, health, survival counters, XP,
// and the inventory). It is a plain DTO so internal/session can convert
// to and from it without internal/db importing internal/session.
type PlayerRecord struct {
	UUID        string
	XUID        string
	DisplayName string
	X, Y, Z     float64
	Pitch, Yaw  float32
	Dimension   int32
	Gamemode    int32
	Health      float32
	FoodLevel   int32
	Saturation  float32
	XPTotal     int32
	XPLevel     int32
	InventoryJSON []byte // opaque blob owned by internal/inventory
	UpdatedAt   time.Time
}

// PlayerRepository persists per-player save data (players/<uuid>.dat in
// spec.md §6) to the "players" table.
type PlayerRepository struct {
	pool *pgxpool.Pool
}

// Load returns the saved record for uuid, or nil if the player has
// never been saved before (first join).
func (r *PlayerRepository) Load(ctx context.Context, uuid string) (*PlayerRecord, error) {
	var rec PlayerRecord
	var inv []byte
	err := r.pool.QueryRow(ctx, `
		SELECT uuid, xuid, display_name, x, y, z, pitch, yaw, dimension, gamemode,
		       health, food_level, saturation, xp_total, xp_level, inventory, updated_at
		FROM players WHERE uuid = $1`, uuid,
	).Scan(&rec.UUID, &rec.XUID, &rec.DisplayName, &rec.X, &rec.Y, &rec.Z, &rec.Pitch, &rec.Yaw,
		&rec.Dimension, &rec.Gamemode, &rec.Health, &rec.FoodLevel, &rec.Saturation,
		&rec.XPTotal, &rec.XPLevel, &inv, &rec.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("loading player %s: %w", uuid, err)
	}
	rec.InventoryJSON = inv
	return &rec, nil
}

// Save upserts the player's record, called from the SessionManager on
// SessionDisconnected (spec.md §3: "save player state before drop") and
// from TickLoop's periodic auto-save (spec.md §4.2 step 8).
func (r *PlayerRepository) Save(ctx context.Context, rec PlayerRecord) error {
	if rec.InventoryJSON == nil {
		rec.InventoryJSON = []byte("{}")
	}
	_, err := r.pool.Exec(ctx, `
		INSERT INTO players (uuid, xuid, display_name, x, y, z, pitch, yaw, dimension, gamemode,
		                      health, food_level, saturation, xp_total, xp_level, inventory, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,now())
		ON CONFLICT (uuid) DO UPDATE SET
			xuid = EXCLUDED.xuid,
			display_name = EXCLUDED.display_name,
			x = EXCLUDED.x, y = EXCLUDED.y, z = EXCLUDED.z,
			pitch = EXCLUDED.pitch, yaw = EXCLUDED.yaw,
			dimension = EXCLUDED.dimension, gamemode = EXCLUDED.gamemode,
			health = EXCLUDED.health, food_level = EXCLUDED.food_level, saturation = EXCLUDED.saturation,
			xp_total = EXCLUDED.xp_total, xp_level = EXCLUDED.xp_level,
			inventory = EXCLUDED.inventory, updated_at = now()`,
		rec.UUID, rec.XUID, rec.DisplayName, rec.X, rec.Y, rec.Z, rec.Pitch, rec.Yaw,
		rec.Dimension, rec.Gamemode, rec.Health, rec.FoodLevel, rec.Saturation,
		rec.XPTotal, rec.XPLevel, rec.InventoryJSON,
	)
	if err != nil {
		return fmt.Errorf("saving player %s: %w", rec.UUID, err)
	}
	return nil
}

// MarshalInventory is a small helper so callers don't need to import
// encoding/json just to build a PlayerRecord.
func MarshalInventory(v any) ([]byte, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("marshaling inventory: %w", err)
	}
	return b, nil
}
