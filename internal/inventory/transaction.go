package inventory

import "fmt"

// ActionType is the discriminant for one entry in an ItemStackRequest
// (spec.md §4.5).
type ActionType int

const (
	ActionTake ActionType = iota
	ActionPlace
	ActionSwap
	ActionDrop
	ActionDestroy
	ActionConsume
	ActionCraftRecipe
	ActionCraftRecipeAuto
	ActionCraftCreative
	ActionCreate
	ActionUnknown
)

// Action is one entry in an ItemStackRequest's ordered action list.
type Action struct {
	Type ActionType

	// Take/Place/Swap/Drop/Destroy/Consume
	SrcSlot, DstSlot int32
	Count            int32

	// Take/Place/Swap across an external container (process_request_with_container)
	SrcContainer, DstContainer int32

	// CraftRecipe/CraftRecipeAuto
	RecipeNetworkID int32
	Times           int32
}

// Request is one ItemStackRequest bundle (spec.md §4.5).
type Request struct {
	RequestID int32
	Actions   []Action
}

// ResponseEntry mirrors the ItemStackResponseEntry the client expects:
// success summarizes every touched slot's final state; failure carries
// no slot data and leaves inventory state untouched.
type ResponseEntry struct {
	RequestID int32
	Success   bool
	Slots     map[int32]ItemStack // touched-slot snapshot, success only
	Err       error
}

// Recipe is a lookup entry in the recipe registry the engine consumes
// for CraftRecipe/CraftRecipeAuto (spec.md §4.5).
type Recipe struct {
	NetworkID int32
	Shaped    bool
	// Ingredients indexed by crafting-grid slot offset (0-8) for shaped
	// recipes; for shapeless recipes only RuntimeID+Count are used and
	// any matching slots satisfy the requirement.
	Ingredients [CraftGridSlots]ItemStack
	Output      ItemStack
}

// RecipeBook resolves a recipe by its network id.
type RecipeBook interface {
	Recipe(networkID int32) (Recipe, bool)
}

// Engine resolves ItemStackRequest bundles against an Inventory,
// optionally routing one container id to an external slice (spec.md
// §4.5 "process_request_with_container", used when a chest or other
// block-entity container is open).
type Engine struct {
	inv     *Inventory
	recipes RecipeBook
}

// NewEngine builds an Engine bound to inv and recipes.
func NewEngine(inv *Inventory, recipes RecipeBook) *Engine {
	return &Engine{inv: inv, recipes: recipes}
}

// externalContainer lets a request address a block-entity's Slots
// slice (e.g. an open chest) instead of the player's own inventory.
// ContainerID 0 always means the player's own inventory.
type externalContainer struct {
	id    int32
	slots ItemSlotRef
}

// ItemSlotRef is the minimal slot accessor the engine needs over an
// externally-owned slice (worldstore.BlockEntity.Slots), avoiding a
// direct dependency on worldstore.
type ItemSlotRef interface {
	Get(index int) ItemStack
	Set(index int, s ItemStack)
	Len() int
}

// Process applies req atomically: the slot array (and any external
// slots) is snapshotted first, actions then modify the live state, and
// on any failure the snapshot is restored (spec.md §4.5: "on any
// failure ... leave state unchanged from before the request").
func (e *Engine) Process(req Request) ResponseEntry {
	return e.processWithContainer(req, nil)
}

// ProcessWithContainer is process_request_with_container: actions whose
// Src/DstContainer matches container.id are routed to the external
// slots instead of the player's own inventory array.
func (e *Engine) ProcessWithContainer(req Request, containerID int32, slots ItemSlotRef) ResponseEntry {
	return e.processWithContainer(req, &externalContainer{id: containerID, slots: slots})
}

func (e *Engine) processWithContainer(req Request, ext *externalContainer) ResponseEntry {
	e.inv.mu.Lock()
	defer e.inv.mu.Unlock()

	// Snapshot for rollback: the slot array is a fixed-size value type,
	// so copying it is a cheap full-state snapshot.
	before := e.inv.slots
	var extBefore []ItemStack
	if ext != nil {
		extBefore = make([]ItemStack, ext.slots.Len())
		for i := range extBefore {
			extBefore[i] = ext.slots.Get(i)
		}
	}

	touched := make(map[int32]ItemStack)

	rollback := func(err error) ResponseEntry {
		e.inv.slots = before
		if ext != nil {
			for i, s := range extBefore {
				ext.slots.Set(i, s)
			}
		}
		return ResponseEntry{RequestID: req.RequestID, Success: false, Err: err}
	}

	for _, action := range req.Actions {
		if err := e.applyAction(action, ext, touched); err != nil {
			return rollback(err)
		}
	}

	return ResponseEntry{RequestID: req.RequestID, Success: true, Slots: touched}
}

func (e *Engine) applyAction(a Action, ext *externalContainer, touched map[int32]ItemStack) error {
	switch a.Type {
	case ActionTake, ActionPlace:
		return e.applyMove(a, ext, touched)
	case ActionSwap:
		return e.applySwap(a, ext, touched)
	case ActionDrop, ActionDestroy, ActionConsume:
		return e.applyRemove(a, ext, touched)
	case ActionCraftRecipe, ActionCraftRecipeAuto:
		return e.applyCraft(a, touched)
	case ActionCraftCreative, ActionCreate, ActionUnknown:
		// Logged and accepted as no-ops (spec.md §4.5): the subsequent
		// Take/Place from the creative source container does the work.
		return nil
	default:
		return fmt.Errorf("inventory: unrecognized action type %d", a.Type)
	}
}

func (e *Engine) getSlot(container int32, ext *externalContainer, index int32) (ItemStack, error) {
	if ext != nil && container == ext.id {
		if index < 0 || int(index) >= ext.slots.Len() {
			return ItemStack{}, fmt.Errorf("inventory: external slot %d out of range", index)
		}
		return ext.slots.Get(int(index)), nil
	}
	if index < 0 || int(index) >= TotalSlots {
		return ItemStack{}, errInvalidSlot
	}
	return e.inv.slots[index], nil
}

func (e *Engine) putSlot(container int32, ext *externalContainer, index int32, s ItemStack, touched map[int32]ItemStack) error {
	if ext != nil && container == ext.id {
		if index < 0 || int(index) >= ext.slots.Len() {
			return fmt.Errorf("inventory: external slot %d out of range", index)
		}
		ext.slots.Set(int(index), s)
		touched[externalTouchKey(index)] = s
		return nil
	}
	if index < 0 || int(index) >= TotalSlots {
		return errInvalidSlot
	}
	e.inv.slots[index] = s
	touched[index] = s
	return nil
}

// externalTouchKey disambiguates external-container slot indices from
// player-inventory indices in the touched-slot map by offsetting them
// past TotalSlots.
func externalTouchKey(index int32) int32 { return TotalSlots + index }

func (e *Engine) applyMove(a Action, ext *externalContainer, touched map[int32]ItemStack) error {
	src, err := e.getSlot(a.SrcContainer, ext, a.SrcSlot)
	if err != nil {
		return err
	}
	if src.Empty() || src.Count < a.Count {
		return fmt.Errorf("inventory: source slot %d has insufficient count", a.SrcSlot)
	}
	dst, err := e.getSlot(a.DstContainer, ext, a.DstSlot)
	if err != nil {
		return err
	}

	count := a.Count
	switch {
	case dst.Empty():
		moved := src
		moved.Count = count
		if moved.Count > MaxStackSize(moved.RuntimeID) {
			moved.Count = MaxStackSize(moved.RuntimeID)
			count = moved.Count
		}
		moved.StackNetworkID = e.inv.allocateStackNetworkID()
		if err := e.putSlot(a.DstContainer, ext, a.DstSlot, moved, touched); err != nil {
			return err
		}
	case dst.SameItem(src):
		max := MaxStackSize(dst.RuntimeID)
		room := max - dst.Count
		if room <= 0 {
			return fmt.Errorf("inventory: destination slot %d is full", a.DstSlot)
		}
		if count > room {
			count = room
		}
		dst.Count += count
		if err := e.putSlot(a.DstContainer, ext, a.DstSlot, dst, touched); err != nil {
			return err
		}
	default:
		return fmt.Errorf("inventory: destination slot %d holds a different item", a.DstSlot)
	}

	src.Count -= count
	if src.Count <= 0 {
		src = ItemStack{}
	}
	return e.putSlot(a.SrcContainer, ext, a.SrcSlot, src, touched)
}

func (e *Engine) applySwap(a Action, ext *externalContainer, touched map[int32]ItemStack) error {
	src, err := e.getSlot(a.SrcContainer, ext, a.SrcSlot)
	if err != nil {
		return err
	}
	dst, err := e.getSlot(a.DstContainer, ext, a.DstSlot)
	if err != nil {
		return err
	}
	if err := e.putSlot(a.SrcContainer, ext, a.SrcSlot, dst, touched); err != nil {
		return err
	}
	return e.putSlot(a.DstContainer, ext, a.DstSlot, src, touched)
}

func (e *Engine) applyRemove(a Action, ext *externalContainer, touched map[int32]ItemStack) error {
	src, err := e.getSlot(a.SrcContainer, ext, a.SrcSlot)
	if err != nil {
		return err
	}
	if src.Empty() || src.Count < a.Count {
		return fmt.Errorf("inventory: source slot %d has insufficient count to remove", a.SrcSlot)
	}
	src.Count -= a.Count
	if src.Count <= 0 {
		src = ItemStack{}
	}
	return e.putSlot(a.SrcContainer, ext, a.SrcSlot, src, touched)
}

func (e *Engine) applyCraft(a Action, touched map[int32]ItemStack) error {
	if e.recipes == nil {
		return fmt.Errorf("inventory: no recipe book configured")
	}
	recipe, ok := e.recipes.Recipe(a.RecipeNetworkID)
	if !ok {
		return fmt.Errorf("inventory: unknown recipe network id %d", a.RecipeNetworkID)
	}
	times := a.Times
	if times <= 0 {
		times = 1
	}

	if recipe.Shaped {
		for i, ing := range recipe.Ingredients {
			if ing.Empty() {
				continue
			}
			slotIdx := int32(SlotCraftStart + i)
			have := e.inv.slots[slotIdx]
			if have.Empty() || !have.SameItem(ing) || have.Count < ing.Count*times {
				return fmt.Errorf("inventory: crafting grid slot %d missing required ingredient", slotIdx)
			}
		}
		for i, ing := range recipe.Ingredients {
			if ing.Empty() {
				continue
			}
			slotIdx := int32(SlotCraftStart + i)
			have := e.inv.slots[slotIdx]
			have.Count -= ing.Count * times
			if have.Count <= 0 {
				have = ItemStack{}
			}
			if err := e.putSlot(0, nil, slotIdx, have, touched); err != nil {
				return err
			}
		}
	} else {
		for _, ing := range recipe.Ingredients {
			if ing.Empty() {
				continue
			}
			need := ing.Count * times
			if e.countInRangeLocked(SlotCraftStart, SlotCraftStart+CraftGridSlots, ing.RuntimeID) < need {
				return fmt.Errorf("inventory: insufficient ingredient runtime id %d for recipe %d", ing.RuntimeID, recipe.NetworkID)
			}
		}
		for _, ing := range recipe.Ingredients {
			if ing.Empty() {
				continue
			}
			e.removeFromRangeLocked(SlotCraftStart, SlotCraftStart+CraftGridSlots, ing.RuntimeID, ing.Count*times, touched)
		}
	}

	output := recipe.Output
	output.Count *= times
	output.StackNetworkID = e.inv.allocateStackNetworkID()
	return e.putSlot(0, nil, SlotCraftOutput, output, touched)
}

// countInRangeLocked sums runtimeID across [lo,hi); caller holds inv.mu.
func (e *Engine) countInRangeLocked(lo, hi int, runtimeID int32) int32 {
	var total int32
	for i := lo; i < hi; i++ {
		s := e.inv.slots[i]
		if !s.Empty() && s.RuntimeID == runtimeID {
			total += s.Count
		}
	}
	return total
}

// removeFromRangeLocked removes up to count units of runtimeID from
// slots in [lo,hi); caller holds inv.mu.
func (e *Engine) removeFromRangeLocked(lo, hi int, runtimeID, count int32, touched map[int32]ItemStack) {
	remaining := count
	for i := lo; i < hi && remaining > 0; i++ {
		s := e.inv.slots[i]
		if s.Empty() || s.RuntimeID != runtimeID {
			continue
		}
		take := remaining
		if take > s.Count {
			take = s.Count
		}
		s.Count -= take
		remaining -= take
		if s.Count <= 0 {
			s = ItemStack{}
		}
		e.inv.slots[i] = s
		touched[int32(i)] = s
	}
}
