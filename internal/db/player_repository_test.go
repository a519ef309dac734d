package db

import (
	"context"
	"testing"
	"time"
)

func TestPlayerRepository_SaveLoadRoundTrip(t *testing.T) {
	pool := setupTestDB(t)
	repo := &PlayerRepository{pool: pool}
	ctx := context.Background()

	got, err := repo.Load(ctx, "uuid-1")
	if err != nil {
		t.Fatalf("Load before save: %v", err)
	}
	if got != nil {
		t.Fatalf("Load before save = %+v, want nil", got)
	}

	rec := PlayerRecord{
		UUID: "uuid-1", XUID: "xuid-1", DisplayName: "Alice",
		X: 0.5, Y: 5.62, Z: 0.5, Pitch: 0, Yaw: 0,
		Dimension: 0, Gamemode: 0, Health: 20, FoodLevel: 20, Saturation: 5,
		XPTotal: 0, XPLevel: 0, InventoryJSON: []byte(`{"slots":[]}`),
	}
	if err := repo.Save(ctx, rec); err != nil {
		t.Fatalf("Save: %v", err)
	}

	got, err = repo.Load(ctx, "uuid-1")
	if err != nil {
		t.Fatalf("Load after save: %v", err)
	}
	if got == nil {
		t.Fatal("Load after save = nil, want record")
	}
	if got.DisplayName != "Alice" || got.X != 0.5 || got.Health != 20 {
		t.Errorf("Load after save = %+v, want matching Alice record", got)
	}

	rec.Health = 12
	rec.X = 10
	if err := repo.Save(ctx, rec); err != nil {
		t.Fatalf("Save (update): %v", err)
	}
	got, err = repo.Load(ctx, "uuid-1")
	if err != nil {
		t.Fatalf("Load after update: %v", err)
	}
	if got.Health != 12 || got.X != 10 {
		t.Errorf("Load after update = %+v, want Health=12 X=10", got)
	}
}

func TestBanRepository_PlayerBanExpiry(t *testing.T) {
	pool := setupTestDB(t)
	repo := &BanRepository{pool: pool}
	ctx := context.Background()

	if err := repo.BanPlayer(ctx, "xuid-1", "griefing", time.Now().Add(time.Hour)); err != nil {
		t.Fatalf("BanPlayer: %v", err)
	}
	banned, reason, err := repo.IsPlayerBanned(ctx, "xuid-1")
	if err != nil {
		t.Fatalf("IsPlayerBanned: %v", err)
	}
	if !banned || reason != "griefing" {
		t.Errorf("IsPlayerBanned = (%v, %q), want (true, griefing)", banned, reason)
	}

	if err := repo.BanPlayer(ctx, "xuid-2", "temp", time.Now().Add(-time.Hour)); err != nil {
		t.Fatalf("BanPlayer (expired): %v", err)
	}
	banned, _, err = repo.IsPlayerBanned(ctx, "xuid-2")
	if err != nil {
		t.Fatalf("IsPlayerBanned (expired): %v", err)
	}
	if banned {
		t.Error("IsPlayerBanned (expired) = true, want false")
	}

	if err := repo.UnbanPlayer(ctx, "xuid-1"); err != nil {
		t.Fatalf("UnbanPlayer: %v", err)
	}
	banned, _, err = repo.IsPlayerBanned(ctx, "xuid-1")
	if err != nil {
		t.Fatalf("IsPlayerBanned (after unban): %v", err)
	}
	if banned {
		t.Error("IsPlayerBanned (after unban) = true, want false")
	}
}

func TestWhitelistAndOpsRepository(t *testing.T) {
	pool := setupTestDB(t)
	wl := &WhitelistRepository{pool: pool}
	ops := &OpsRepository{pool: pool}
	ctx := context.Background()

	ok, err := wl.IsWhitelisted(ctx, "xuid-1")
	if err != nil || ok {
		t.Fatalf("IsWhitelisted before add = (%v, %v), want (false, nil)", ok, err)
	}
	if err := wl.Add(ctx, "xuid-1", "Alice"); err != nil {
		t.Fatalf("Add: %v", err)
	}
	ok, err = wl.IsWhitelisted(ctx, "xuid-1")
	if err != nil || !ok {
		t.Fatalf("IsWhitelisted after add = (%v, %v), want (true, nil)", ok, err)
	}
	names, err := wl.List(ctx)
	if err != nil || len(names) != 1 || names[0] != "Alice" {
		t.Fatalf("List = (%v, %v), want ([Alice], nil)", names, err)
	}

	isOp, err := ops.IsOp(ctx, "xuid-1")
	if err != nil || isOp {
		t.Fatalf("IsOp before grant = (%v, %v), want (false, nil)", isOp, err)
	}
	if err := ops.Grant(ctx, "xuid-1", "Alice"); err != nil {
		t.Fatalf("Grant: %v", err)
	}
	isOp, err = ops.IsOp(ctx, "xuid-1")
	if err != nil || !isOp {
		t.Fatalf("IsOp after grant = (%v, %v), want (true, nil)", isOp, err)
	}
	if err := ops.Revoke(ctx, "xuid-1"); err != nil {
		t.Fatalf("Revoke: %v", err)
	}
	isOp, err = ops.IsOp(ctx, "xuid-1")
	if err != nil || isOp {
		t.Fatalf("IsOp after revoke = (%v, %v), want (false, nil)", isOp, err)
	}
}
