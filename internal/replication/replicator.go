// Package replication implements ChunkReplicator (spec.md §4.9): the
// per-session sent-chunks set, radius-square send-on-spawn and
// send-on-crossing logic, and the Chebyshev-distance prune. Grounded on
// internal/world/visibility_manager.go's VisibilityManager per-player
// cache-of-visible-set pattern, generalized from its LOD near/medium/far
// region buckets to Bedrock's single radius-squared chunk set — the
// distilled chunk model has no regional LOD tiers to bucket into.
package replication

import (
	"context"

	"github.com/bedrockcore/server/internal/worldstore"
)

// PruneMargin is added to chunk_radius to get the distance at which a
// previously-sent chunk is dropped from the tracked set (spec.md §4.9:
// "drop entries with Chebyshev distance > radius + 2").
const PruneMargin = 2

// UnloadTriggerBlocksPerChunk converts chunk_radius into the
// block-distance the client uses to unload chunks client-side (spec.md
// §4.9: "radius * 16").
const UnloadTriggerBlocksPerChunk = 16

// ChunkGenerator lazily produces and caches chunk columns (spec.md
// §4.9: "Chunk generation is invoked lazily and cached in WorldStore").
// worldstore.World satisfies this directly via its ChunkAt method.
type ChunkGenerator interface {
	ChunkAt(ctx context.Context, key worldstore.ChunkKey, tick int64, seed int64) (*worldstore.ChunkColumn, error)
}

// Tracker owns one session's sent_chunks set and radius.
type Tracker struct {
	Dimension int32
	Radius    int32
	sent      map[worldstore.ChunkKey]struct{}
}

// NewTracker builds an empty tracker for a session entering dimension
// with the given chunk_radius.
func NewTracker(dimension, radius int32) *Tracker {
	return &Tracker{Dimension: dimension, Radius: radius, sent: make(map[worldstore.ChunkKey]struct{})}
}

// SentCount reports how many chunks are currently tracked as sent.
func (t *Tracker) SentCount() int { return len(t.sent) }

// HasSent reports whether (cx,cz) is already in the tracked set.
func (t *Tracker) HasSent(cx, cz int32) bool {
	_, ok := t.sent[worldstore.ChunkKey{Dimension: t.Dimension, CX: cx, CZ: cz}]
	return ok
}

// SpawnSquare returns every chunk key in the (2r+1)^2 square centered
// on (centerCX, centerCZ) (spec.md §4.9: "On spawn, sends the full
// (2r+1)^2 square").
func (t *Tracker) SpawnSquare(centerCX, centerCZ int32) []worldstore.ChunkKey {
	var keys []worldstore.ChunkKey
	for dx := -t.Radius; dx <= t.Radius; dx++ {
		for dz := -t.Radius; dz <= t.Radius; dz++ {
			key := worldstore.ChunkKey{Dimension: t.Dimension, CX: centerCX + dx, CZ: centerCZ + dz}
			keys = append(keys, key)
			t.sent[key] = struct{}{}
		}
	}
	return keys
}

// CrossBoundary is run when MovementAuthority detects a chunk-column
// change (spec.md §4.9: "On crossing a chunk boundary ... iterate the
// current radius square, send those not yet in sent_chunks, update
// sent_chunks; separately, drop entries with Chebyshev distance >
// radius + 2"). It returns the newly-sent keys.
func (t *Tracker) CrossBoundary(centerCX, centerCZ int32) []worldstore.ChunkKey {
	var toSend []worldstore.ChunkKey
	for dx := -t.Radius; dx <= t.Radius; dx++ {
		for dz := -t.Radius; dz <= t.Radius; dz++ {
			key := worldstore.ChunkKey{Dimension: t.Dimension, CX: centerCX + dx, CZ: centerCZ + dz}
			if _, ok := t.sent[key]; ok {
				continue
			}
			t.sent[key] = struct{}{}
			toSend = append(toSend, key)
		}
	}

	pruneLimit := t.Radius + PruneMargin
	for key := range t.sent {
		if chebyshev(key.CX-centerCX, key.CZ-centerCZ) > pruneLimit {
			delete(t.sent, key)
		}
	}

	return toSend
}

func chebyshev(dx, dz int32) int32 {
	if dx < 0 {
		dx = -dx
	}
	if dz < 0 {
		dz = -dz
	}
	if dx > dz {
		return dx
	}
	return dz
}

// PublisherUpdate is the (block position, unload radius in blocks) pair
// sent every movement (spec.md §4.9: "send a NetworkChunkPublisherUpdate
// with the player's block position and radius*16 as the client-side
// unload trigger").
type PublisherUpdate struct {
	X, Y, Z      int32
	UnloadRadius int32
}

// BuildPublisherUpdate computes the NetworkChunkPublisherUpdate payload
// for the session's current position and radius.
func (t *Tracker) BuildPublisherUpdate(x, y, z int32) PublisherUpdate {
	return PublisherUpdate{X: x, Y: y, Z: z, UnloadRadius: t.Radius * UnloadTriggerBlocksPerChunk}
}

// ChunkAt resolves a chunk key via gen, lazily generating and caching
// it (spec.md §4.9).
func ChunkAt(ctx context.Context, gen ChunkGenerator, dimension, cx, cz int32, tick, seed int64) (*worldstore.ChunkColumn, error) {
	return gen.ChunkAt(ctx, worldstore.ChunkKey{Dimension: dimension, CX: cx, CZ: cz}, tick, seed)
}
