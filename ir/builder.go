package ir

// Builder appends operations to a block.
type Builder struct {
	block *Block
}

// NewBuilder creates a builder inserting at the end of block.
func NewBuilder(block *Block) *Builder {
	return &Builder{block: block}
}

// Block returns the insertion block.
func (b *Builder) Block() *Block {
	return b.block
}

// Create appends a new operation and returns it.
func (b *Builder) Create(name string, operands []*Value, resultTypes ...Type) *Operation {
	return b.block.Append(NewOperation(name, operands, resultTypes...))
}

// Value appends a single-result operation and returns its result.
func (b *Builder) Value(name string, t Type, operands ...*Value) *Value {
	return b.Create(name, operands, t).Result(0)
}

// Constant appends an hw.constant and returns its result.
func (b *Builder) Constant(t Type, value int64) *Value {
	return b.block.Append(NewConstantOp(t, value)).Result(0)
}

// Latency appends a pipeline.latency op. The body callback fills the nested
// block and returns the values to yield.
func (b *Builder) Latency(latency int64, resultTypes []Type, body func(*Builder) []*Value) *Operation {
	op := b.block.Append(NewLatencyOp(latency, resultTypes...))
	inner := NewBuilder(op.Regions()[0])
	yielded := body(inner)
	inner.block.Append(NewOperation(LatencyReturnOpName, yielded))
	return op
}

// StageTo terminates the block with an empty boundary jumping to next.
func (b *Builder) StageTo(next *Stage) *Operation {
	op := NewStageOp(next, nil, nil, nil, nil)
	b.block.SetTerminator(op)
	return op
}

// Return terminates the block with a pipeline.return.
func (b *Builder) Return(vals ...*Value) *Operation {
	op := NewReturnOp(vals...)
	b.block.SetTerminator(op)
	return op
}
