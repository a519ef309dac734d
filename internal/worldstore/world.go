package worldstore

import (
	"context"
	"fmt"
)

// ChunkStore is the external, LevelDB-compatible persistence contract
// (spec.md §6) keyed by (dimension, cx, cz, tag). The core only needs
// load/save of a column's raw block data plus its block entities; NBT
// encoding of that payload is an external collaborator concern.
type ChunkStore interface {
	LoadColumn(ctx context.Context, key ChunkKey) (*ChunkColumn, bool, error)
	SaveColumn(ctx context.Context, col *ChunkColumn) error
}

// MemoryChunkStore is an in-process ChunkStore used when no external
// LevelDB-compatible store is configured (e.g. tests, `generator=void`
// throwaway worlds). It honors the same dirty-flag contract a real
// store would.
type MemoryChunkStore struct {
	saved map[ChunkKey]*ChunkColumn
}

// NewMemoryChunkStore returns an empty in-memory store.
func NewMemoryChunkStore() *MemoryChunkStore {
	return &MemoryChunkStore{saved: make(map[ChunkKey]*ChunkColumn)}
}

func (m *MemoryChunkStore) LoadColumn(_ context.Context, key ChunkKey) (*ChunkColumn, bool, error) {
	col, ok := m.saved[key]
	return col, ok, nil
}

func (m *MemoryChunkStore) SaveColumn(_ context.Context, col *ChunkColumn) error {
	m.saved[col.Key] = col
	return nil
}

// World holds the dimension-indexed chunk map, block-entity index,
// mobs/projectiles, and the world clock/weather state (spec.md §3).
// Per spec.md §5 it is mutated only from the tick thread.
type World struct {
	Registry *Registry
	store    ChunkStore
	gen      Generator

	columns map[ChunkKey]*ChunkColumn
	lastSeenTick map[ChunkKey]int64

	mobs        map[uint64]*Mob
	projectiles map[uint64]*Projectile
	nextRuntimeID uint64

	// Clock/weather (spec.md §3 "World").
	Time             int64
	DoDaylightCycle  bool
	DoWeatherCycle   bool
	RainTarget       float64
	LightningTarget  float64
	RainCurrent      float64
	LightningCurrent float64
	WeatherDuration  int32
}

// Generator produces a chunk column for (dim,cx,cz); it is pure over
// seed and coordinates (spec.md §5), making it safe to run on a worker
// pool.
type Generator interface {
	Generate(dimension, cx, cz int32, seed int64) *ChunkColumn
}

// NewWorld constructs an empty world backed by store and populated
// lazily via gen.
func NewWorld(store ChunkStore, gen Generator) *World {
	return &World{
		Registry:     NewRegistry(),
		store:        store,
		gen:          gen,
		columns:      make(map[ChunkKey]*ChunkColumn),
		lastSeenTick: make(map[ChunkKey]int64),
		mobs:         make(map[uint64]*Mob),
		projectiles:  make(map[uint64]*Projectile),
		nextRuntimeID: 1,
		DoDaylightCycle: true,
		DoWeatherCycle:  true,
	}
}

// NextRuntimeID allocates a fresh entity runtime id (spec.md GLOSSARY:
// "64-bit id issued on spawn, unique while the entity lives").
func (w *World) NextRuntimeID() uint64 {
	id := w.nextRuntimeID
	w.nextRuntimeID++
	return id
}

// ChunkAt returns the loaded column at key, generating or loading it
// lazily on first reference (spec.md §3: "Chunks created lazily on
// first reference"), and marks it as referenced at tick.
func (w *World) ChunkAt(ctx context.Context, key ChunkKey, tick int64, seed int64) (*ChunkColumn, error) {
	if col, ok := w.columns[key]; ok {
		w.lastSeenTick[key] = tick
		return col, nil
	}

	col, found, err := w.store.LoadColumn(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("loading chunk %+v: %w", key, err)
	}
	if !found {
		if w.gen == nil {
			col = NewChunkColumn(key)
		} else {
			col = w.gen.Generate(key.Dimension, key.CX, key.CZ, seed)
		}
	}
	w.columns[key] = col
	w.lastSeenTick[key] = tick
	return col, nil
}

// PeekChunk returns an already-loaded column without triggering
// generation, used by callers (e.g. block-tick scheduling) that must
// not force-load neighbors.
func (w *World) PeekChunk(key ChunkKey) (*ChunkColumn, bool) {
	col, ok := w.columns[key]
	return col, ok
}

// EvictBeyond unloads columns whose Chebyshev distance from every
// online player's view radius plus a margin exceeds the configured
// cap, persisting them first if dirty (spec.md §3: "evicted by LRU
// beyond a margin past every player's view radius, persisted on
// eviction if dirty").
func (w *World) EvictBeyond(ctx context.Context, keep func(ChunkKey) bool) error {
	for key, col := range w.columns {
		if keep(key) {
			continue
		}
		if col.Dirty() {
			if err := w.store.SaveColumn(ctx, col); err != nil {
				return fmt.Errorf("persisting evicted chunk %+v: %w", key, err)
			}
			col.ClearDirty()
		}
		delete(w.columns, key)
		delete(w.lastSeenTick, key)
	}
	return nil
}

// FlushDirty persists every dirty loaded column (spec.md §4.2 step 8:
// periodic auto-save) without unloading them.
func (w *World) FlushDirty(ctx context.Context) error {
	for _, col := range w.columns {
		if !col.Dirty() {
			continue
		}
		if err := w.store.SaveColumn(ctx, col); err != nil {
			return fmt.Errorf("saving chunk %+v: %w", col.Key, err)
		}
		col.ClearDirty()
	}
	return nil
}

// AddMob registers a newly spawned mob.
func (w *World) AddMob(m *Mob) { w.mobs[m.RuntimeID] = m }

// Mob returns the mob with the given runtime id, resolved at the point
// of use per spec.md §9 ("never store a reference").
func (w *World) Mob(runtimeID uint64) (*Mob, bool) {
	m, ok := w.mobs[runtimeID]
	return m, ok
}

// RemoveMob destroys a mob (health <= 0 or chunk eviction, spec.md §3).
func (w *World) RemoveMob(runtimeID uint64) { delete(w.mobs, runtimeID) }

// Mobs returns every live mob; callers must not retain the slice across
// ticks.
func (w *World) Mobs() map[uint64]*Mob { return w.mobs }

// AddProjectile registers a newly spawned projectile.
func (w *World) AddProjectile(p *Projectile) { w.projectiles[p.RuntimeID] = p }

// Projectile resolves a projectile by runtime id.
func (w *World) Projectile(runtimeID uint64) (*Projectile, bool) {
	p, ok := w.projectiles[runtimeID]
	return p, ok
}

// RemoveProjectile destroys a projectile (despawn).
func (w *World) RemoveProjectile(runtimeID uint64) { delete(w.projectiles, runtimeID) }

// Projectiles returns every in-flight or stuck projectile.
func (w *World) Projectiles() map[uint64]*Projectile { return w.projectiles }

// TickTime advances the world clock, wrapping at 24000 (spec.md §3),
// when the daylight cycle is enabled.
func (w *World) TickTime() {
	if !w.DoDaylightCycle {
		return
	}
	w.Time = (w.Time + 1) % 24000
}

// TickWeather smooths the current rain/lightning levels toward their
// targets and advances the weather-duration countdown (spec.md §3,
// §4.2 step 6).
func (w *World) TickWeather(onDurationElapsed func()) {
	const smoothStep = 0.01
	w.RainCurrent = approach(w.RainCurrent, w.RainTarget, smoothStep)
	w.LightningCurrent = approach(w.LightningCurrent, w.LightningTarget, smoothStep)

	if w.WeatherDuration > 0 {
		w.WeatherDuration--
		if w.WeatherDuration == 0 && onDurationElapsed != nil {
			onDurationElapsed()
		}
	}
}

func approach(current, target, step float64) float64 {
	if current < target {
		next := current + step
		if next > target {
			return target
		}
		return next
	}
	if current > target {
		next := current - step
		if next < target {
			return target
		}
		return next
	}
	return current
}
