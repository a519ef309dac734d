// Package worldstore implements the dimension-indexed map of loaded
// chunks (spec.md §3 "Chunk / ChunkColumn"), the block-property
// registry, block-entity lifecycle, and the chunk-generation worker
// pool (spec.md §5). It is the leaf dependency every other core
// component reads from (spec.md §2 dependency order).
package worldstore

import "hash/fnv"

// BlockRuntimeID is the 32-bit hash identifying a concrete block state
// (spec.md §9: "Block runtime ids are FNV-1a hashes of the block-state
// string").
type BlockRuntimeID uint32

// HashBlockState reproduces the exact FNV-1a hash the client and any
// persisted chunk data expect for a block-state string such as
// "minecraft:stone" or "minecraft:oak_log[axis=y]". Implementers must
// not substitute a different hash function or on-disk chunks written
// by this server become unreadable (spec.md §9).
func HashBlockState(stateString string) BlockRuntimeID {
	h := fnv.New32a()
	_, _ = h.Write([]byte(stateString))
	return BlockRuntimeID(h.Sum32())
}

// Well-known block states referenced directly by the core (movement's
// no-clip check, block-interaction's break/place validation, the
// bedrock-layer invariant).
var (
	AirState      = "minecraft:air"
	BedrockState  = "minecraft:bedrock"
	WaterState    = "minecraft:water"
	LavaState     = "minecraft:lava"

	AirRuntimeID     = HashBlockState(AirState)
	BedrockRuntimeID = HashBlockState(BedrockState)
	WaterRuntimeID   = HashBlockState(WaterState)
	LavaRuntimeID    = HashBlockState(LavaState)
)

// BlockInfo is the external block-property-table row the core consults
// for solidity, hardness (mining time), and light/fluid behavior.
// Unknown hashes default to solid-but-unknown per spec.md §9.
type BlockInfo struct {
	State        string
	Solid        bool
	Hardness     float64 // seconds at bare-hand speed; negative = unbreakable
	IsFluid      bool
	IsGravityAffected bool
	LuminanceLevel int
}

// Registry is the in-memory stand-in for the external block/item
// property table (spec.md §1 treats it as an external collaborator);
// it is seeded with the handful of states the core's validation logic
// needs and otherwise answers "solid, unknown" for any hash it has
// never seen, matching spec.md §9's fallback rule.
type Registry struct {
	byHash map[BlockRuntimeID]BlockInfo
}

// NewRegistry builds a registry pre-populated with the vanilla states
// the core directly reasons about.
func NewRegistry() *Registry {
	r := &Registry{byHash: make(map[BlockRuntimeID]BlockInfo)}
	seed := []BlockInfo{
		{State: AirState, Solid: false, Hardness: 0},
		{State: BedrockState, Solid: true, Hardness: -1},
		{State: WaterState, Solid: false, Hardness: -1, IsFluid: true},
		{State: LavaState, Solid: false, Hardness: -1, IsFluid: true, LuminanceLevel: 15},
		{State: "minecraft:stone", Solid: true, Hardness: 7.5},
		{State: "minecraft:dirt", Solid: true, Hardness: 0.75},
		{State: "minecraft:grass_block", Solid: true, Hardness: 0.75},
		{State: "minecraft:oak_log", Solid: true, Hardness: 3.0},
		{State: "minecraft:oak_planks", Solid: true, Hardness: 3.0},
		{State: "minecraft:sand", Solid: true, Hardness: 0.75, IsGravityAffected: true},
		{State: "minecraft:gravel", Solid: true, Hardness: 0.9, IsGravityAffected: true},
		{State: "minecraft:glass", Solid: true, Hardness: 0.45},
		{State: "minecraft:torch", Solid: false, Hardness: 0, LuminanceLevel: 14},
		{State: "minecraft:crafting_table", Solid: true, Hardness: 2.5},
		{State: "minecraft:furnace", Solid: true, Hardness: 3.5},
		{State: "minecraft:chest", Solid: true, Hardness: 2.5},
	}
	for _, info := range seed {
		r.byHash[HashBlockState(info.State)] = info
	}
	return r
}

// Lookup returns the BlockInfo for id, defaulting to solid-but-unknown
// per spec.md §9 when the hash has never been registered.
func (r *Registry) Lookup(id BlockRuntimeID) BlockInfo {
	if info, ok := r.byHash[id]; ok {
		return info
	}
	return BlockInfo{State: "unknown", Solid: true, Hardness: 1.0}
}

// IsSolid is a convenience wrapper used by MovementAuthority's no-clip
// check (spec.md §4.3 step 5).
func (r *Registry) IsSolid(id BlockRuntimeID) bool {
	return r.Lookup(id).Solid
}
