package ir

import (
	"fmt"
	"sort"
)

// Attribute names understood by the built-in operations.
const (
	AttrLatency  = "latency"
	AttrValue    = "value"
	AttrName     = "name"
	AttrNameHint = "namehint"
)

// Operation is a single operation inside a Block.
type Operation struct {
	info     *OpInfo
	operands []*Operand
	results  []*Value
	attrs    map[string]any
	regions  []*Block
	block    *Block

	// Stage boundary payload, only used by pipeline.stage.
	successor *Stage
	numRegs   int
	regNames  []string
	passNames []string
}

// NewOperation creates a detached operation with the given operands and
// result types.
func NewOperation(name string, operands []*Value, resultTypes ...Type) *Operation {
	op := &Operation{
		info:  LookupOp(name),
		attrs: make(map[string]any),
	}
	op.SetOperands(operands)
	for i, t := range resultTypes {
		op.results = append(op.results, &Value{
			kind:  ResultValue,
			typ:   t,
			index: i,
			op:    op,
		})
	}
	return op
}

// Name returns the operation name, e.g. "comb.add".
func (op *Operation) Name() string {
	return op.info.Name
}

// Info returns the operation descriptor.
func (op *Operation) Info() *OpInfo {
	return op.info
}

// Has reports whether the operation has all bits of trait t.
func (op *Operation) Has(t Trait) bool {
	return op.info.Has(t)
}

// Block returns the block containing the operation.
func (op *Operation) Block() *Block {
	return op.block
}

// Stage returns the stage that ultimately contains the operation.
func (op *Operation) Stage() *Stage {
	if op.block == nil {
		return nil
	}
	return op.block.Stage()
}

// NumOperands returns the number of operands.
func (op *Operation) NumOperands() int {
	return len(op.operands)
}

// Operand returns the value of operand i.
func (op *Operation) Operand(i int) *Value {
	return op.operands[i].value
}

// Operands returns the operand values in order.
func (op *Operation) Operands() []*Value {
	vals := make([]*Value, len(op.operands))
	for i, o := range op.operands {
		vals[i] = o.value
	}
	return vals
}

// OpOperands returns the operand slots.
func (op *Operation) OpOperands() []*Operand {
	return op.operands
}

// SetOperand replaces operand i.
func (op *Operation) SetOperand(i int, v *Value) {
	op.operands[i].Set(v)
}

// SetOperands replaces the whole operand list.
func (op *Operation) SetOperands(vals []*Value) {
	op.dropOperands()
	op.operands = make([]*Operand, len(vals))
	for i, v := range vals {
		o := &Operand{owner: op, index: i}
		o.Set(v)
		op.operands[i] = o
	}
}

func (op *Operation) dropOperands() {
	for _, o := range op.operands {
		o.Set(nil)
	}
	op.operands = nil
}

// NumResults returns the number of results.
func (op *Operation) NumResults() int {
	return len(op.results)
}

// Result returns result i.
func (op *Operation) Result(i int) *Value {
	return op.results[i]
}

// Results returns all results.
func (op *Operation) Results() []*Value {
	return op.results
}

// SetAttr sets an attribute. Supported attribute values are string and
// int64.
func (op *Operation) SetAttr(name string, value any) {
	switch v := value.(type) {
	case int:
		op.attrs[name] = int64(v)
	case int64, string:
		op.attrs[name] = v
	default:
		panic(fmt.Sprintf("unsupported attribute type %T", value))
	}
}

// IntAttr returns an integer attribute.
func (op *Operation) IntAttr(name string) (int64, bool) {
	v, ok := op.attrs[name].(int64)
	return v, ok
}

// StringAttr returns a string attribute.
func (op *Operation) StringAttr(name string) (string, bool) {
	v, ok := op.attrs[name].(string)
	return v, ok
}

// AttrNames returns the attribute names in sorted order.
func (op *Operation) AttrNames() []string {
	names := make([]string, 0, len(op.attrs))
	for n := range op.attrs {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// AddRegion appends a new nested block to the operation.
func (op *Operation) AddRegion() *Block {
	b := &Block{parent: op}
	op.regions = append(op.regions, b)
	return b
}

// Regions returns the nested blocks of the operation.
func (op *Operation) Regions() []*Block {
	return op.regions
}

// Erase detaches the operation from its block and drops its operand uses.
// The results must not be used anymore.
func (op *Operation) Erase() {
	for _, r := range op.results {
		if r.HasUses() {
			panic(fmt.Sprintf("erasing %s whose result %d still has uses",
				op.Name(), r.index))
		}
	}
	op.dropOperands()
	for _, region := range op.regions {
		nested := region.Operations()
		for i := len(nested) - 1; i >= 0; i-- {
			nested[i].Erase()
		}
	}
	if op.block != nil {
		op.block.remove(op)
	}
}

// walk visits nested operations before op itself.
func (op *Operation) walk(fn func(*Operation) error) error {
	for _, region := range op.regions {
		if err := region.Walk(fn); err != nil {
			return err
		}
	}
	return fn(op)
}
