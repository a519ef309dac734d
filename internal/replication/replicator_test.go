package replication

import (
	"context"
	"testing"

	"github.com/bedrockcore/server/internal/worldstore"
)

type stubGenerator struct {
	calls int
}

func (g *stubGenerator) ChunkAt(ctx context.Context, key worldstore.ChunkKey, tick int64, seed int64) (*worldstore.ChunkColumn, error) {
	g.calls++
	return &worldstore.ChunkColumn{}, nil
}

func TestNewTracker_StartsEmpty(t *testing.T) {
	tr := NewTracker(0, 4)
	if tr.SentCount() != 0 {
		t.Errorf("SentCount() = %d, want 0", tr.SentCount())
	}
}

func TestSpawnSquare_SendsFullRadiusSquare(t *testing.T) {
	tr := NewTracker(0, 2)
	keys := tr.SpawnSquare(0, 0)

	want := (2*2 + 1) * (2*2 + 1)
	if len(keys) != want {
		t.Errorf("len(keys) = %d, want %d", len(keys), want)
	}
	if tr.SentCount() != want {
		t.Errorf("SentCount() = %d, want %d", tr.SentCount(), want)
	}
	if !tr.HasSent(0, 0) {
		t.Error("expected the center chunk to be marked sent")
	}
	if !tr.HasSent(2, -2) {
		t.Error("expected a corner chunk to be marked sent")
	}
}

func TestCrossBoundary_OnlySendsUnsentChunks(t *testing.T) {
	tr := NewTracker(0, 1)
	tr.SpawnSquare(0, 0)

	toSend := tr.CrossBoundary(0, 0)
	if len(toSend) != 0 {
		t.Errorf("toSend = %+v, want none since nothing moved", toSend)
	}

	toSend = tr.CrossBoundary(1, 0)
	if len(toSend) == 0 {
		t.Error("expected new chunks to be sent after crossing a boundary")
	}
	for _, k := range toSend {
		if !tr.HasSent(k.CX, k.CZ) {
			t.Errorf("key %+v returned as newly sent but not recorded", k)
		}
	}
}

func TestCrossBoundary_PrunesChunksBeyondRadiusPlusMargin(t *testing.T) {
	tr := NewTracker(0, 1)
	tr.SpawnSquare(0, 0)

	tr.CrossBoundary(10, 0)

	if tr.HasSent(0, 0) {
		t.Error("expected the far-away original chunk to be pruned")
	}
}

func TestBuildPublisherUpdate_ComputesUnloadRadius(t *testing.T) {
	tr := NewTracker(0, 8)
	update := tr.BuildPublisherUpdate(100, 64, -200)

	if update.X != 100 || update.Y != 64 || update.Z != -200 {
		t.Errorf("update position = (%d,%d,%d), want (100,64,-200)", update.X, update.Y, update.Z)
	}
	if update.UnloadRadius != 8*UnloadTriggerBlocksPerChunk {
		t.Errorf("UnloadRadius = %d, want %d", update.UnloadRadius, 8*UnloadTriggerBlocksPerChunk)
	}
}

func TestChunkAt_DelegatesToGenerator(t *testing.T) {
	gen := &stubGenerator{}
	col, err := ChunkAt(context.Background(), gen, 0, 3, -1, 42, 1234)

	if err != nil {
		t.Fatalf("ChunkAt() error = %v", err)
	}
	if col == nil {
		t.Fatal("expected a non-nil chunk column")
	}
	if gen.calls != 1 {
		t.Errorf("generator calls = %d, want 1", gen.calls)
	}
}

func TestChebyshev_MaxOfAbsoluteComponents(t *testing.T) {
	if got := chebyshev(3, -5); got != 5 {
		t.Errorf("chebyshev(3,-5) = %d, want 5", got)
	}
	if got := chebyshev(-7, 2); got != 7 {
		t.Errorf("chebyshev(-7,2) = %d, want 7", got)
	}
}
