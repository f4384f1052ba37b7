package ir

// ValueKind tells how a Value is defined.
type ValueKind int

const (
	// ResultValue is produced by an Operation.
	ResultValue ValueKind = iota
	// ArgumentValue is an argument of a Block.
	ArgumentValue
	// PlaceholderValue stands in for a value that does not exist yet. It has
	// no definition and must be replaced before the IR is handed on.
	PlaceholderValue
)

// Value is an SSA value in the pipeline IR.
type Value struct {
	kind  ValueKind
	typ   Type
	index int

	// op is the defining operation of a ResultValue.
	op *Operation

	// block is the owning block of an ArgumentValue.
	block *Block

	uses []*Operand
}

// NewPlaceholder creates a detached value of the given type. Placeholders
// can be used as operands and are later swapped out with
// ReplaceAllUsesWith.
func NewPlaceholder(t Type) *Value {
	return &Value{kind: PlaceholderValue, typ: t}
}

// Kind returns how the value is defined.
func (v *Value) Kind() ValueKind {
	return v.kind
}

// Type returns the value's type.
func (v *Value) Type() Type {
	return v.typ
}

// Index returns the result number or argument number of the value.
func (v *Value) Index() int {
	return v.index
}

// IsPlaceholder reports whether v is a detached placeholder.
func (v *Value) IsPlaceholder() bool {
	return v.kind == PlaceholderValue
}

// DefiningOp returns the operation producing v, or nil for arguments and
// placeholders.
func (v *Value) DefiningOp() *Operation {
	return v.op
}

// ParentBlock returns the block in which v is defined.
func (v *Value) ParentBlock() *Block {
	switch v.kind {
	case ResultValue:
		return v.op.block
	case ArgumentValue:
		return v.block
	default:
		return nil
	}
}

// Stage returns the stage that ultimately owns v, looking through nested
// regions. It returns nil for placeholders and detached values.
func (v *Value) Stage() *Stage {
	b := v.ParentBlock()
	if b == nil {
		return nil
	}
	return b.Stage()
}

// Latency returns the number of stage hops v may travel without being
// registered. Only values produced by latency-carrying operations have a
// non-zero latency.
func (v *Value) Latency() int64 {
	if v.op == nil || !v.op.Has(TraitLatency) {
		return 0
	}
	lat, _ := v.op.IntAttr(AttrLatency)
	return lat
}

// Uses returns the operands currently referring to v.
func (v *Value) Uses() []*Operand {
	uses := make([]*Operand, len(v.uses))
	copy(uses, v.uses)
	return uses
}

// HasUses reports whether any operand refers to v.
func (v *Value) HasUses() bool {
	return len(v.uses) > 0
}

// ReplaceAllUsesWith rewires every operand using v to use other instead.
func (v *Value) ReplaceAllUsesWith(other *Value) {
	if v == other {
		return
	}
	for _, use := range v.Uses() {
		use.Set(other)
	}
}

func (v *Value) addUse(o *Operand) {
	v.uses = append(v.uses, o)
}

func (v *Value) removeUse(o *Operand) {
	for i, u := range v.uses {
		if u == o {
			v.uses = append(v.uses[:i], v.uses[i+1:]...)
			return
		}
	}
}

// Operand is one operand slot of an Operation.
type Operand struct {
	owner *Operation
	index int
	value *Value
}

// Owner returns the operation holding the operand.
func (o *Operand) Owner() *Operation {
	return o.owner
}

// Index returns the operand number within its owner.
func (o *Operand) Index() int {
	return o.index
}

// Get returns the value currently held by the operand.
func (o *Operand) Get() *Value {
	return o.value
}

// Set points the operand at a new value, keeping use lists in sync.
func (o *Operand) Set(v *Value) {
	if o.value == v {
		return
	}
	if o.value != nil {
		o.value.removeUse(o)
	}
	o.value = v
	if v != nil {
		v.addUse(o)
	}
}
