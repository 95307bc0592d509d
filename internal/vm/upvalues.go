package vm

import "github.com/dictu-lang/dictu-go/internal/value"

// captureUpvalue returns the open upvalue aliasing stack slot, reusing one
// already open at that slot (spec.md §3: "Open upvalues form a sorted
// linked list ... ordered by stack-slot address descending") or inserting
// a new one in sorted position.
func (vm *VM) captureUpvalue(slot int) *value.ObjUpvalue {
	var prev *value.ObjUpvalue
	cur := vm.openUpvalues
	for cur != nil && cur.Slot > slot {
		prev = cur
		cur = cur.Next
	}
	if cur != nil && cur.Slot == slot {
		return cur
	}
	uv := &value.ObjUpvalue{Location: &vm.stack[slot], Slot: slot, Next: cur}
	vm.Collector.Track(uv, 32)
	if prev == nil {
		vm.openUpvalues = uv
	} else {
		prev.Next = uv
	}
	return uv
}

// closeUpvalues closes every open upvalue at stack slot >= last, per
// spec.md §3/§4.5: "closing an upvalue at slot s closes all upvalues with
// slot >= s and removes them from the list."
func (vm *VM) closeUpvalues(last int) {
	for vm.openUpvalues != nil && vm.openUpvalues.Slot >= last {
		uv := vm.openUpvalues
		uv.Close()
		vm.openUpvalues = uv.Next
	}
}
