package inventory

import (
	"reflect"
	"testing"
)

type mapRecipeBook map[int32]Recipe

func (m mapRecipeBook) Recipe(id int32) (Recipe, bool) {
	r, ok := m[id]
	return r, ok
}

func TestEngine_PlaceIntoEmptySlotAssignsStackNetworkID(t *testing.T) {
	inv := NewInventory()
	inv.slots[0] = ItemStack{RuntimeID: 5, Count: 10}

	e := NewEngine(inv, nil)
	resp := e.Process(Request{
		RequestID: 1,
		Actions: []Action{
			{Type: ActionPlace, SrcSlot: 0, DstSlot: 1, Count: 4},
		},
	})
	if !resp.Success {
		t.Fatalf("Process failed: %v", resp.Err)
	}
	if inv.slots[1].Count != 4 || inv.slots[1].StackNetworkID == 0 {
		t.Errorf("slot 1 = %+v, want count 4 with nonzero stack-network-id", inv.slots[1])
	}
	if inv.slots[0].Count != 6 {
		t.Errorf("slot 0 count = %d, want 6", inv.slots[0].Count)
	}
}

func TestEngine_PlaceOntoDifferentItemFailsAndRollsBack(t *testing.T) {
	inv := NewInventory()
	inv.slots[0] = ItemStack{RuntimeID: 5, Count: 10}
	inv.slots[1] = ItemStack{RuntimeID: 9, Count: 1}
	before := inv.slots

	e := NewEngine(inv, nil)
	resp := e.Process(Request{
		RequestID: 2,
		Actions: []Action{
			{Type: ActionPlace, SrcSlot: 0, DstSlot: 1, Count: 1},
		},
	})
	if resp.Success {
		t.Fatal("expected failure placing onto a different item")
	}
	if !reflect.DeepEqual(inv.slots, before) {
		t.Error("inventory state must be unchanged after a failed request")
	}
}

func TestEngine_SwapExchangesContents(t *testing.T) {
	inv := NewInventory()
	inv.slots[0] = ItemStack{RuntimeID: 1, Count: 1}
	inv.slots[1] = ItemStack{RuntimeID: 2, Count: 2}

	e := NewEngine(inv, nil)
	resp := e.Process(Request{
		RequestID: 3,
		Actions:   []Action{{Type: ActionSwap, SrcSlot: 0, DstSlot: 1}},
	})
	if !resp.Success {
		t.Fatalf("Process failed: %v", resp.Err)
	}
	if inv.slots[0].RuntimeID != 2 || inv.slots[1].RuntimeID != 1 {
		t.Errorf("swap did not exchange contents: %+v / %+v", inv.slots[0], inv.slots[1])
	}
}

func TestEngine_CraftRecipeShapedConsumesAndProduces(t *testing.T) {
	inv := NewInventory()
	inv.slots[SlotCraftStart] = ItemStack{RuntimeID: 100, Count: 1} // oak_log

	book := mapRecipeBook{
		7: {
			NetworkID: 7,
			Shaped:    true,
			Ingredients: func() (ing [CraftGridSlots]ItemStack) {
				ing[0] = ItemStack{RuntimeID: 100, Count: 1}
				return ing
			}(),
			Output: ItemStack{RuntimeID: 200, Count: 4}, // oak_planks
		},
	}

	e := NewEngine(inv, book)
	resp := e.Process(Request{
		RequestID: 4,
		Actions:   []Action{{Type: ActionCraftRecipe, RecipeNetworkID: 7, Times: 1}},
	})
	if !resp.Success {
		t.Fatalf("Process failed: %v", resp.Err)
	}
	if !inv.slots[SlotCraftStart].Empty() {
		t.Error("crafting grid slot should be consumed")
	}
	out := inv.slots[SlotCraftOutput]
	if out.RuntimeID != 200 || out.Count != 4 || out.StackNetworkID == 0 {
		t.Errorf("crafting output = %+v, want 4x runtime id 200 with a stack-network-id", out)
	}
}

func TestEngine_CraftRecipeMissingIngredientFails(t *testing.T) {
	inv := NewInventory()
	book := mapRecipeBook{
		7: {
			NetworkID: 7,
			Shaped:    true,
			Ingredients: func() (ing [CraftGridSlots]ItemStack) {
				ing[0] = ItemStack{RuntimeID: 100, Count: 1}
				return ing
			}(),
			Output: ItemStack{RuntimeID: 200, Count: 4},
		},
	}

	e := NewEngine(inv, book)
	resp := e.Process(Request{
		RequestID: 5,
		Actions:   []Action{{Type: ActionCraftRecipe, RecipeNetworkID: 7, Times: 1}},
	})
	if resp.Success {
		t.Fatal("expected failure with missing ingredient")
	}
}

func TestEngine_ExternalContainerRoutesByContainerID(t *testing.T) {
	inv := NewInventory()
	inv.slots[0] = ItemStack{RuntimeID: 3, Count: 5}
	chest := &SliceContainer{Slots: make([]ItemStack, 27)}

	const chestContainerID = int32(1)
	e := NewEngine(inv, nil)
	resp := e.ProcessWithContainer(Request{
		RequestID: 6,
		Actions: []Action{
			{Type: ActionPlace, SrcSlot: 0, SrcContainer: 0, DstSlot: 0, DstContainer: chestContainerID, Count: 5},
		},
	}, chestContainerID, chest)
	if !resp.Success {
		t.Fatalf("Process failed: %v", resp.Err)
	}
	if chest.Slots[0].Count != 5 {
		t.Errorf("chest slot 0 = %+v, want count 5", chest.Slots[0])
	}
	if !inv.slots[0].Empty() {
		t.Error("source inventory slot should be emptied")
	}
}
