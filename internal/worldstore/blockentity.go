package worldstore

// BlockEntityKind is the tagged-union discriminant for block entities
// (spec.md §3).
type BlockEntityKind int

const (
	BlockEntitySign BlockEntityKind = iota
	BlockEntityChest
	BlockEntityFurnace
	BlockEntityEnchantingTable
	BlockEntityStonecutter
	BlockEntityGrindstone
	BlockEntityLoom
	BlockEntityAnvil
)

// transientKinds never persist across a restart; closing their
// container drops their items (spec.md §3).
var transientKinds = map[BlockEntityKind]bool{
	BlockEntityStonecutter: true,
	BlockEntityGrindstone:  true,
	BlockEntityLoom:        true,
	BlockEntityAnvil:       true,
}

// IsTransient reports whether a block entity of this kind is excluded
// from persistence.
func (k BlockEntityKind) IsTransient() bool { return transientKinds[k] }

// ItemSlot is a minimal slot representation local to worldstore so
// block-entity containers don't need to import internal/inventory;
// internal/inventory converts to/from its own ItemStack when a
// container is opened (spec.md §4.5 "process_request_with_container").
type ItemSlot struct {
	RuntimeID int32
	Count     int32
	Damage    int32
	NBT       map[string]any
}

// BlockEntity is the tagged union keyed by (x,y,z) (spec.md §3).
type BlockEntity struct {
	Pos  BlockPos
	Kind BlockEntityKind

	// Sign
	SignText string

	// Chest / generic N-slot container (N depends on Kind)
	Slots []ItemSlot

	// Furnace
	CookTicks  int32
	LitTicks   int32
	StoredXP   int32
}

// NewBlockEntity builds the default block entity for kind at pos, with
// slot counts matching spec.md §3 ("Chest(N slots), Furnace(3 slots...").
func NewBlockEntity(pos BlockPos, kind BlockEntityKind) *BlockEntity {
	be := &BlockEntity{Pos: pos, Kind: kind}
	switch kind {
	case BlockEntityChest:
		be.Slots = make([]ItemSlot, 27)
	case BlockEntityFurnace:
		be.Slots = make([]ItemSlot, 3)
	case BlockEntityStonecutter, BlockEntityGrindstone, BlockEntityLoom:
		be.Slots = make([]ItemSlot, 2)
	case BlockEntityAnvil:
		be.Slots = make([]ItemSlot, 3)
	case BlockEntityEnchantingTable:
		be.Slots = make([]ItemSlot, 2)
	}
	return be
}

// anchorBlocks maps a block state to the block-entity kind it spawns
// when placed (spec.md §4.6: "on placing a block whose hash matches the
// block-entity-anchor table").
var anchorBlocks = map[string]BlockEntityKind{
	"minecraft:chest":            BlockEntityChest,
	"minecraft:furnace":          BlockEntityFurnace,
	"minecraft:enchanting_table": BlockEntityEnchantingTable,
	"minecraft:stonecutter":      BlockEntityStonecutter,
	"minecraft:grindstone":       BlockEntityGrindstone,
	"minecraft:loom":             BlockEntityLoom,
	"minecraft:anvil":            BlockEntityAnvil,
}

// AnchorKindFor returns the block-entity kind anchored to state, and
// whether one exists.
func AnchorKindFor(state string) (BlockEntityKind, bool) {
	k, ok := anchorBlocks[state]
	return k, ok
}
