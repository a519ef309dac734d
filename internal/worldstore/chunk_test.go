package worldstore

import "testing"

func TestChunkColumn_SetGetBlockMarksDirty(t *testing.T) {
	col := NewChunkColumn(ChunkKey{Dimension: 0, CX: 0, CZ: 0})
	if col.Dirty() {
		t.Fatal("new column should not be dirty")
	}

	stoneID := HashBlockState("minecraft:stone")
	col.SetBlock(1, 0, 2, stoneID)
	if !col.Dirty() {
		t.Error("SetBlock should mark the column dirty")
	}
	if got := col.GetBlock(1, 0, 2); got != stoneID {
		t.Errorf("GetBlock = %v, want %v", got, stoneID)
	}

	col.ClearDirty()
	if col.Dirty() {
		t.Error("ClearDirty should clear the dirty flag")
	}
}

func TestChunkColumn_OutOfRangeYReturnsAir(t *testing.T) {
	col := NewChunkColumn(ChunkKey{})
	if got := col.GetBlock(0, 1000, 0); got != AirRuntimeID {
		t.Errorf("GetBlock out of range = %v, want air", got)
	}
	// Should not panic.
	col.SetBlock(0, -1000000, 0, HashBlockState("minecraft:stone"))
}

func TestHashBlockState_KnownConstants(t *testing.T) {
	// Reproducibility matters per spec.md §9: these must be stable FNV-1a
	// hashes, not regenerated per process.
	if HashBlockState("minecraft:air") != AirRuntimeID {
		t.Error("AirRuntimeID inconsistent with HashBlockState")
	}
	if HashBlockState("minecraft:air") == HashBlockState("minecraft:bedrock") {
		t.Error("distinct states must hash distinctly")
	}
}

func TestRegistry_UnknownDefaultsSolid(t *testing.T) {
	r := NewRegistry()
	info := r.Lookup(BlockRuntimeID(0xDEADBEEF))
	if !info.Solid {
		t.Error("unknown block hash must default to solid per spec.md §9")
	}
}
