package ir

import "fmt"

// Trait is a capability bit of an operation kind.
type Trait uint32

const (
	// TraitConstantLike marks operations whose results are available in
	// every stage without being carried across boundaries.
	TraitConstantLike Trait = 1 << iota
	// TraitNamedResults marks operations that name their own results through
	// OpInfo.ResultNames.
	TraitNamedResults
	// TraitLatency marks operations carrying a "latency" attribute.
	TraitLatency
	// TraitTerminator marks block terminators.
	TraitTerminator
)

// OpInfo describes an operation kind.
type OpInfo struct {
	// Name is the fully qualified operation name.
	Name string

	// Traits is the capability set of the operation kind.
	Traits Trait

	// ResultNames is the result naming hook. It is only consulted for
	// operations with TraitNamedResults. Entries may be empty.
	ResultNames func(op *Operation) []string
}

// Has reports whether the kind carries all bits of t.
func (i *OpInfo) Has(t Trait) bool {
	return i.Traits&t == t
}

// Names of the built-in operations.
const (
	ConstantOpName      = "hw.constant"
	CompRegOpName       = "seq.compreg"
	LatencyOpName       = "pipeline.latency"
	LatencyReturnOpName = "pipeline.latency.return"
	StageOpName         = "pipeline.stage"
	ReturnOpName        = "pipeline.return"
)

var registry = map[string]*OpInfo{}

// Register adds an operation kind. It is meant to be called from init
// functions; registering the same name twice panics.
func Register(info *OpInfo) {
	if _, ok := registry[info.Name]; ok {
		panic(fmt.Sprintf("operation %q registered twice", info.Name))
	}
	registry[info.Name] = info
}

// LookupOp returns the descriptor for name. Unknown operations get a
// descriptor without traits.
func LookupOp(name string) *OpInfo {
	if info, ok := registry[name]; ok {
		return info
	}
	return &OpInfo{Name: name}
}

func init() {
	Register(&OpInfo{
		Name:        ConstantOpName,
		Traits:      TraitConstantLike | TraitNamedResults,
		ResultNames: constantResultNames,
	})
	Register(&OpInfo{
		Name:        CompRegOpName,
		Traits:      TraitNamedResults,
		ResultNames: nameAttrResultNames,
	})
	Register(&OpInfo{Name: LatencyOpName, Traits: TraitLatency})
	Register(&OpInfo{Name: LatencyReturnOpName, Traits: TraitTerminator})
	Register(&OpInfo{Name: StageOpName, Traits: TraitTerminator})
	Register(&OpInfo{Name: ReturnOpName, Traits: TraitTerminator})
}

// constantResultNames names constants like c42_i32.
func constantResultNames(op *Operation) []string {
	v, ok := op.IntAttr(AttrValue)
	if !ok || op.NumResults() == 0 {
		return nil
	}
	return []string{fmt.Sprintf("c%d_%s", v, op.Result(0).Type())}
}

func nameAttrResultNames(op *Operation) []string {
	name, ok := op.StringAttr(AttrName)
	if !ok || op.NumResults() == 0 {
		return nil
	}
	return []string{name}
}

// NewConstantOp creates an hw.constant producing value of type t.
func NewConstantOp(t Type, value int64) *Operation {
	op := NewOperation(ConstantOpName, nil, t)
	op.SetAttr(AttrValue, value)
	return op
}

// NewLatencyOp creates a pipeline.latency with an empty body. The body must
// be terminated with a pipeline.latency.return yielding the results.
func NewLatencyOp(latency int64, resultTypes ...Type) *Operation {
	op := NewOperation(LatencyOpName, nil, resultTypes...)
	op.SetAttr(AttrLatency, latency)
	op.AddRegion()
	return op
}

// NewReturnOp creates the pipeline.return terminating the last stage.
func NewReturnOp(vals ...*Value) *Operation {
	return NewOperation(ReturnOpName, vals)
}

// NewStageOp creates a stage boundary terminator jumping to next. The
// operand list is regs followed by passes; names are parallel to each list.
func NewStageOp(next *Stage, regs, passes []*Value, regNames, passNames []string) *Operation {
	if len(regNames) != len(regs) || len(passNames) != len(passes) {
		panic("stage boundary names do not match operands")
	}
	operands := make([]*Value, 0, len(regs)+len(passes))
	operands = append(operands, regs...)
	operands = append(operands, passes...)
	op := NewOperation(StageOpName, operands)
	op.successor = next
	op.numRegs = len(regs)
	op.regNames = append([]string(nil), regNames...)
	op.passNames = append([]string(nil), passNames...)
	return op
}

// NextStage returns the successor of a stage boundary, or nil for any other
// operation.
func (op *Operation) NextStage() *Stage {
	return op.successor
}

// Registers returns the register-routed operands of a stage boundary.
func (op *Operation) Registers() []*Value {
	return op.Operands()[:op.numRegs]
}

// Passthroughs returns the passthrough-routed operands of a stage boundary.
func (op *Operation) Passthroughs() []*Value {
	return op.Operands()[op.numRegs:]
}

// RegisterNames returns the display names of the register operands.
func (op *Operation) RegisterNames() []string {
	return op.regNames
}

// PassthroughNames returns the display names of the passthrough operands.
func (op *Operation) PassthroughNames() []string {
	return op.passNames
}

// BoundaryName returns the display name attached to boundary operand i.
func (op *Operation) BoundaryName(i int) string {
	if i < op.numRegs {
		return op.regNames[i]
	}
	i -= op.numRegs
	if i < len(op.passNames) {
		return op.passNames[i]
	}
	return ""
}
