package ir

// Block is an ordered list of operations with arguments. Stage bodies and
// nested regions are both blocks.
type Block struct {
	args []*Value
	ops  []*Operation

	// parent is the operation owning a nested region.
	parent *Operation

	// stage is set for stage bodies.
	stage *Stage
}

// ParentOp returns the operation owning this block, or nil for stage bodies.
func (b *Block) ParentOp() *Operation {
	return b.parent
}

// Stage returns the stage that ultimately contains the block.
func (b *Block) Stage() *Stage {
	for blk := b; blk != nil; {
		if blk.stage != nil {
			return blk.stage
		}
		if blk.parent == nil {
			return nil
		}
		blk = blk.parent.block
	}
	return nil
}

// NumArgs returns the number of block arguments.
func (b *Block) NumArgs() int {
	return len(b.args)
}

// Arg returns argument i.
func (b *Block) Arg(i int) *Value {
	return b.args[i]
}

// Args returns the block arguments.
func (b *Block) Args() []*Value {
	return b.args
}

// AddArgument appends a new argument of type t.
func (b *Block) AddArgument(t Type) *Value {
	return b.InsertArgument(len(b.args), t)
}

// InsertArgument inserts a new argument of type t at position i.
func (b *Block) InsertArgument(i int, t Type) *Value {
	arg := &Value{kind: ArgumentValue, typ: t, block: b}
	b.args = append(b.args, nil)
	copy(b.args[i+1:], b.args[i:])
	b.args[i] = arg
	for j := i; j < len(b.args); j++ {
		b.args[j].index = j
	}
	return arg
}

// Operations returns a copy of the operation list, terminator included.
func (b *Block) Operations() []*Operation {
	ops := make([]*Operation, len(b.ops))
	copy(ops, b.ops)
	return ops
}

// Len returns the number of operations in the block.
func (b *Block) Len() int {
	return len(b.ops)
}

// Terminator returns the last operation if it is a terminator.
func (b *Block) Terminator() *Operation {
	if len(b.ops) == 0 {
		return nil
	}
	last := b.ops[len(b.ops)-1]
	if !last.Has(TraitTerminator) {
		return nil
	}
	return last
}

// Append adds op at the end of the block. Operations may not be appended
// after a terminator.
func (b *Block) Append(op *Operation) *Operation {
	if op.block != nil {
		panic("operation already belongs to a block")
	}
	if b.Terminator() != nil {
		panic("appending after a terminator")
	}
	op.block = b
	b.ops = append(b.ops, op)
	return op
}

// SetTerminator replaces the block terminator with op, erasing the old one.
func (b *Block) SetTerminator(op *Operation) {
	if !op.Has(TraitTerminator) {
		panic(op.Name() + " is not a terminator")
	}
	if old := b.Terminator(); old != nil {
		old.Erase()
	}
	b.Append(op)
}

func (b *Block) remove(op *Operation) {
	for i, o := range b.ops {
		if o == op {
			b.ops = append(b.ops[:i], b.ops[i+1:]...)
			op.block = nil
			return
		}
	}
}

// Walk visits every operation in the block, including those in nested
// regions. Nested operations are visited before their parent. Walking stops
// at the first error returned by fn.
func (b *Block) Walk(fn func(*Operation) error) error {
	for _, op := range b.Operations() {
		if err := op.walk(fn); err != nil {
			return err
		}
	}
	return nil
}
