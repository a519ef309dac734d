// Package inventory implements the slot model and ItemStackRequest
// transaction engine (spec.md §3, §4.5): a fixed-size slotted container
// per session plus atomic apply-or-rollback resolution of client
// inventory actions, grounded on internal/model/inventory.go's slotted
// Inventory and internal/game/craft/controller.go's craft controller,
// generalized from an object-table inventory to Bedrock's fixed-index
// slot model.
package inventory

import (
	"fmt"
	"sync"
	"sync/atomic"
)

// Slot layout constants (spec.md §3: "36 main slots, 4 armor, 1
// offhand, 1 cursor, 9 crafting grid, 1 crafting output, held hotbar
// index (0-8)").
const (
	MainSlots     = 36
	ArmorSlots    = 4
	OffhandSlots  = 1
	CursorSlots   = 1
	CraftGridSlots = 9
	CraftOutputSlots = 1

	TotalSlots = MainSlots + ArmorSlots + OffhandSlots + CursorSlots + CraftGridSlots + CraftOutputSlots

	SlotMainStart   = 0
	SlotArmorStart  = SlotMainStart + MainSlots
	SlotOffhand     = SlotArmorStart + ArmorSlots
	SlotCursor      = SlotOffhand + OffhandSlots
	SlotCraftStart  = SlotCursor + CursorSlots
	SlotCraftOutput = SlotCraftStart + CraftGridSlots
)

// ItemStack is one inventory entry. A zero-value ItemStack (Count 0)
// represents an empty slot.
type ItemStack struct {
	RuntimeID      int32
	Count          int32
	Damage         int32
	NBT            map[string]any
	StackNetworkID int32
}

// Empty reports whether the stack represents an empty slot.
func (s ItemStack) Empty() bool { return s.Count <= 0 }

// SameItem reports whether two stacks hold the same item+metadata and
// can therefore be merged (spec.md §4.5 Take/Place rule).
func (s ItemStack) SameItem(o ItemStack) bool {
	return s.RuntimeID == o.RuntimeID && s.Damage == o.Damage
}

// Inventory is the per-session slot array plus the monotonic
// stack-network-id counter (spec.md §3 invariant: "the counter never
// decreases").
type Inventory struct {
	mu    sync.Mutex
	slots [TotalSlots]ItemStack

	nextStackNetworkID atomic.Int32

	HeldHotbarIndex int32 // 0-8, indexes into SlotMainStart..+9
}

// NewInventory returns an empty inventory with the stack-network-id
// counter seeded at 1 (0 means "no stack").
func NewInventory() *Inventory {
	inv := &Inventory{}
	inv.nextStackNetworkID.Store(1)
	return inv
}

// Slot returns a copy of the stack at index, or a zero ItemStack if out
// of range.
func (inv *Inventory) Slot(index int32) ItemStack {
	inv.mu.Lock()
	defer inv.mu.Unlock()
	if index < 0 || int(index) >= TotalSlots {
		return ItemStack{}
	}
	return inv.slots[index]
}

// setSlot writes a stack to index; callers must hold inv.mu.
func (inv *Inventory) setSlot(index int32, s ItemStack) {
	inv.slots[index] = s
}

// Snapshot returns a copy of every slot, in index order, for persistence.
func (inv *Inventory) Snapshot() []ItemStack {
	inv.mu.Lock()
	defer inv.mu.Unlock()
	out := make([]ItemStack, TotalSlots)
	copy(out, inv.slots[:])
	return out
}

// Restore overwrites every slot from a previously captured Snapshot,
// used when loading a player's saved inventory back in on join. Entries
// beyond TotalSlots are ignored; a short stacks is left padded with
// whatever was already in the higher slots (fresh inventories are
// already all-empty, so this only matters for a truncated save).
func (inv *Inventory) Restore(stacks []ItemStack) {
	inv.mu.Lock()
	defer inv.mu.Unlock()
	n := len(stacks)
	if n > TotalSlots {
		n = TotalSlots
	}
	for i := 0; i < n; i++ {
		inv.slots[i] = stacks[i]
	}
}

// allocateStackNetworkID returns the next id and advances the counter
// (spec.md §3 invariant).
func (inv *Inventory) allocateStackNetworkID() int32 {
	return inv.nextStackNetworkID.Add(1)
}

// HeldSlotIndex returns the absolute slot index of the currently held
// hotbar slot.
func (inv *Inventory) HeldSlotIndex() int32 {
	return SlotMainStart + inv.HeldHotbarIndex
}

// MaxStackSize returns the maximum stack size for an item runtime id.
// Most blocks/items stack to 64; a small table of known exceptions
// covers non-stackable and 16-stack tool/food items (spec.md §4.5
// references max_stack_size(runtime_id) without enumerating it fully,
// so this carries the vanilla default plus the exceptions the core's
// own fixtures exercise).
func MaxStackSize(runtimeID int32) int32 {
	if size, ok := nonDefaultStackSizes[runtimeID]; ok {
		return size
	}
	return 64
}

var nonDefaultStackSizes = map[int32]int32{}

// RegisterStackSize overrides the default max stack size for an item
// runtime id (called from item-registry bootstrap for tools, buckets,
// ender pearls, etc., which stack to 1 or 16).
func RegisterStackSize(runtimeID, size int32) {
	nonDefaultStackSizes[runtimeID] = size
}

// CountItem sums the quantity of runtimeID held across every slot.
func (inv *Inventory) CountItem(runtimeID int32) int32 {
	inv.mu.Lock()
	defer inv.mu.Unlock()
	var total int32
	for _, s := range inv.slots {
		if !s.Empty() && s.RuntimeID == runtimeID {
			total += s.Count
		}
	}
	return total
}

// removeItemLocked removes up to count units of runtimeID from any slots,
// preferring the crafting grid last; it is used internally for recipe
// consumption. Callers must hold inv.mu. Returns the amount actually
// removed.
func (inv *Inventory) removeItemLocked(runtimeID, count int32) int32 {
	remaining := count
	for i := range inv.slots {
		if remaining <= 0 {
			break
		}
		s := &inv.slots[i]
		if s.Empty() || s.RuntimeID != runtimeID {
			continue
		}
		take := remaining
		if take > s.Count {
			take = s.Count
		}
		s.Count -= take
		remaining -= take
		if s.Count == 0 {
			*s = ItemStack{}
		}
	}
	return count - remaining
}

// GiveItem adds count units of runtimeID/damage, first topping up any
// matching stack that has room and then filling empty main-inventory
// slots, stopping once count is exhausted or no slot is available.
// Returns the number of units actually placed, which is less than
// count when the inventory is full (spec.md §6 "give" command).
func (inv *Inventory) GiveItem(runtimeID, damage, count int32) int32 {
	inv.mu.Lock()
	defer inv.mu.Unlock()

	remaining := count
	max := MaxStackSize(runtimeID)

	for i := range inv.slots {
		if remaining <= 0 {
			break
		}
		s := &inv.slots[i]
		if s.Empty() || s.RuntimeID != runtimeID || s.Damage != damage {
			continue
		}
		room := max - s.Count
		if room <= 0 {
			continue
		}
		add := remaining
		if add > room {
			add = room
		}
		s.Count += add
		remaining -= add
	}

	for i := SlotMainStart; i < SlotMainStart+MainSlots && remaining > 0; i++ {
		s := &inv.slots[i]
		if !s.Empty() {
			continue
		}
		add := remaining
		if add > max {
			add = max
		}
		*s = ItemStack{
			RuntimeID:      runtimeID,
			Count:          add,
			Damage:         damage,
			StackNetworkID: inv.allocateStackNetworkID(),
		}
		remaining -= add
	}

	return count - remaining
}

var errInvalidSlot = fmt.Errorf("inventory: slot index out of range")
