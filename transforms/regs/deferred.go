package regs

import (
	"fmt"

	"github.com/sarchlab/explicitregs/ir"
)

// DeferredValue identifies a pending slot of a DeferredValues arena.
type DeferredValue int

type deferredSlot struct {
	placeholder *ir.Value
	resolved    *ir.Value
}

// DeferredValues is an arena of placeholders for values that are
// materialized later. Every slot starts pending and is resolved exactly
// once.
type DeferredValues struct {
	slots   []deferredSlot
	pending int
}

// NewDeferredValues creates an empty arena.
func NewDeferredValues() *DeferredValues {
	return &DeferredValues{}
}

// New allocates a pending slot whose placeholder has type t.
func (d *DeferredValues) New(t ir.Type) DeferredValue {
	d.slots = append(d.slots, deferredSlot{placeholder: ir.NewPlaceholder(t)})
	d.pending++
	return DeferredValue(len(d.slots) - 1)
}

// Placeholder returns the stand-in value of slot id. It may be used as an
// operand until the slot is resolved.
func (d *DeferredValues) Placeholder(id DeferredValue) *ir.Value {
	return d.slots[id].placeholder
}

// Resolve binds slot id to v and rewires every use of its placeholder to v.
// Resolving a slot twice panics.
func (d *DeferredValues) Resolve(id DeferredValue, v *ir.Value) {
	slot := &d.slots[id]
	if slot.resolved != nil {
		panic(fmt.Sprintf("deferred value %d resolved twice", id))
	}
	if v == nil {
		panic(fmt.Sprintf("deferred value %d resolved to nil", id))
	}
	if v.Type() != slot.placeholder.Type() {
		panic(fmt.Sprintf("deferred value %d of type %s resolved to %s",
			id, slot.placeholder.Type(), v.Type()))
	}
	slot.resolved = v
	slot.placeholder.ReplaceAllUsesWith(v)
	d.pending--
}

// Value returns the value slot id was resolved to. Reading a pending slot
// panics.
func (d *DeferredValues) Value(id DeferredValue) *ir.Value {
	slot := d.slots[id]
	if slot.resolved == nil {
		panic(fmt.Sprintf("deferred value %d read before it was resolved", id))
	}
	return slot.resolved
}

// IsResolved reports whether slot id has been resolved.
func (d *DeferredValues) IsResolved(id DeferredValue) bool {
	return d.slots[id].resolved != nil
}

// Len returns the number of slots.
func (d *DeferredValues) Len() int {
	return len(d.slots)
}

// Pending returns the number of slots not resolved yet.
func (d *DeferredValues) Pending() int {
	return d.pending
}
