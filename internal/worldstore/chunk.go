package worldstore

// SubChunksPerColumn is the Overworld chunk height (spec.md §3: "24
// sub-chunks (Overworld)").
const SubChunksPerColumn = 24

// SubChunkSize is the edge length of a sub-chunk's 16^3 block array.
const SubChunkSize = 16

// ChunkKey identifies a chunk column by dimension and column
// coordinates (spec.md §3: "(dimension, cx, cz)").
type ChunkKey struct {
	Dimension int32
	CX, CZ    int32
}

// SubChunk is a 16^3 palette-indexed block array of block runtime ids.
// The palette indirection the real wire format uses is flattened here
// to a dense array since the core never needs to reproduce the exact
// on-wire palette encoding (an external codec concern).
type SubChunk struct {
	blocks [SubChunkSize * SubChunkSize * SubChunkSize]BlockRuntimeID
}

func subChunkIndex(x, y, z int) int {
	return (y*SubChunkSize+z)*SubChunkSize + x
}

// Get returns the block at local coordinates (x,y,z) within [0,16).
func (s *SubChunk) Get(x, y, z int) BlockRuntimeID {
	return s.blocks[subChunkIndex(x, y, z)]
}

// Set sets the block at local coordinates (x,y,z) within [0,16).
func (s *SubChunk) Set(x, y, z int, id BlockRuntimeID) {
	s.blocks[subChunkIndex(x, y, z)] = id
}

// ChunkColumn is the vertical stack of sub-chunks at (cx, cz) in a
// dimension (spec.md GLOSSARY), plus its biome map and dirty flag.
type ChunkColumn struct {
	Key        ChunkKey
	SubChunks  [SubChunksPerColumn]*SubChunk
	Biomes     [SubChunkSize * SubChunkSize]uint8
	dirty      bool
	BlockEntities map[BlockPos]*BlockEntity
}

// NewChunkColumn allocates an empty column with all sub-chunks air.
func NewChunkColumn(key ChunkKey) *ChunkColumn {
	c := &ChunkColumn{Key: key, BlockEntities: make(map[BlockPos]*BlockEntity)}
	for i := range c.SubChunks {
		c.SubChunks[i] = &SubChunk{}
	}
	return c
}

// BlockPos is an absolute block coordinate within a dimension.
type BlockPos struct {
	X, Y, Z int32
}

// worldBottomY is the minimum Y coordinate (spec.md §4.3: "world-bottom
// (−64)"); sub-chunk index 0 starts here.
const worldBottomY int32 = -64

// WorldBottomY is the minimum accepted block Y coordinate.
func WorldBottomY() int32 { return worldBottomY }

// WorldTopY is the first Y coordinate above the top loaded sub-chunk.
func WorldTopY() int32 { return worldBottomY + SubChunksPerColumn*SubChunkSize }

// localCoords converts an absolute block position to the sub-chunk
// index and local (x,y,z) within it.
func localCoords(y int32) (subIndex, localY int) {
	rel := int(y - worldBottomY)
	return rel / SubChunkSize, rel % SubChunkSize
}

// GetBlock returns the block runtime id at the absolute position. The
// bedrock layer is immutable on read-back per spec.md §3's invariant —
// callers must route writes through SetBlock, which this type does not
// special-case itself (the invariant is enforced by BlockInteraction
// refusing to target it, per spec.md §4.6's hardness<0 check).
func (c *ChunkColumn) GetBlock(localX int, y int32, localZ int) BlockRuntimeID {
	subIndex, localY := localCoords(y)
	if subIndex < 0 || subIndex >= SubChunksPerColumn {
		return AirRuntimeID
	}
	return c.SubChunks[subIndex].Get(localX, localY, localZ)
}

// SetBlock writes the block runtime id at the absolute position and
// marks the column dirty (spec.md §3 invariant: "set_block marks
// dirty").
func (c *ChunkColumn) SetBlock(localX int, y int32, localZ int, id BlockRuntimeID) {
	subIndex, localY := localCoords(y)
	if subIndex < 0 || subIndex >= SubChunksPerColumn {
		return
	}
	c.SubChunks[subIndex].Set(localX, localY, localZ, id)
	c.dirty = true
}

// Dirty reports whether the column has unsaved mutations.
func (c *ChunkColumn) Dirty() bool { return c.dirty }

// ClearDirty clears the dirty flag; callers must only do this after
// durable persistence (spec.md §3 invariant).
func (c *ChunkColumn) ClearDirty() { c.dirty = false }
