package inventory

// SliceContainer adapts a []ItemStack (e.g. a block-entity's converted
// slot list) to the ItemSlotRef interface the transaction engine uses
// for process_request_with_container.
type SliceContainer struct {
	Slots []ItemStack
}

func (c *SliceContainer) Get(index int) ItemStack   { return c.Slots[index] }
func (c *SliceContainer) Set(index int, s ItemStack) { c.Slots[index] = s }
func (c *SliceContainer) Len() int                   { return len(c.Slots) }
