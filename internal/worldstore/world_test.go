package worldstore

import (
	"context"
	"testing"
)

func TestWorld_ChunkAtLazyGeneration(t *testing.T) {
	w := NewWorld(NewMemoryChunkStore(), FlatGenerator{})
	key := ChunkKey{Dimension: 0, CX: 3, CZ: -1}

	col, err := w.ChunkAt(context.Background(), key, 1, 42)
	if err != nil {
		t.Fatalf("ChunkAt: %v", err)
	}
	if col.GetBlock(0, worldBottomY, 0) != BedrockRuntimeID {
		t.Error("generated column should have bedrock at the world bottom")
	}

	again, err := w.ChunkAt(context.Background(), key, 2, 42)
	if err != nil {
		t.Fatalf("ChunkAt (cached): %v", err)
	}
	if again != col {
		t.Error("ChunkAt should return the same cached column on second call")
	}
}

func TestWorld_EvictBeyondPersistsDirty(t *testing.T) {
	store := NewMemoryChunkStore()
	w := NewWorld(store, FlatGenerator{})
	key := ChunkKey{Dimension: 0, CX: 0, CZ: 0}

	col, err := w.ChunkAt(context.Background(), key, 1, 0)
	if err != nil {
		t.Fatalf("ChunkAt: %v", err)
	}
	col.SetBlock(0, worldBottomY+5, 0, HashBlockState("minecraft:glass"))
	if !col.Dirty() {
		t.Fatal("expected column to be dirty after mutation")
	}

	if err := w.EvictBeyond(context.Background(), func(ChunkKey) bool { return false }); err != nil {
		t.Fatalf("EvictBeyond: %v", err)
	}
	if _, ok := w.PeekChunk(key); ok {
		t.Error("evicted column should no longer be loaded")
	}

	saved, found, err := store.LoadColumn(context.Background(), key)
	if err != nil || !found {
		t.Fatalf("LoadColumn after eviction = (%v, %v, %v), want persisted", saved, found, err)
	}
	if saved.Dirty() {
		t.Error("persisted column should have dirty cleared")
	}
}

func TestWorld_MobLifecycle(t *testing.T) {
	w := NewWorld(NewMemoryChunkStore(), FlatGenerator{})
	id := w.NextRuntimeID()
	m := &Mob{RuntimeID: id, TypeID: "minecraft:zombie", Health: 20}
	w.AddMob(m)

	got, ok := w.Mob(id)
	if !ok || got != m {
		t.Fatalf("Mob(%d) = (%v, %v), want (%v, true)", id, got, ok, m)
	}

	w.RemoveMob(id)
	if _, ok := w.Mob(id); ok {
		t.Error("Mob should be gone after RemoveMob")
	}
}

func TestWorld_TickTimeWraps(t *testing.T) {
	w := NewWorld(NewMemoryChunkStore(), FlatGenerator{})
	w.Time = 23999
	w.TickTime()
	if w.Time != 0 {
		t.Errorf("Time = %d, want wrap to 0", w.Time)
	}
}

func TestWorld_TickWeatherSmoothsTowardTarget(t *testing.T) {
	w := NewWorld(NewMemoryChunkStore(), FlatGenerator{})
	w.RainTarget = 1.0
	w.WeatherDuration = 1
	elapsed := false
	w.TickWeather(func() { elapsed = true })
	if w.RainCurrent <= 0 {
		t.Error("RainCurrent should have moved toward target")
	}
	if !elapsed {
		t.Error("onDurationElapsed should fire when WeatherDuration reaches 0")
	}
}
