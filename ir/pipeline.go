package ir

// Stage is one block of a pipeline. Its terminator is either a
// pipeline.stage boundary feeding the next stage or a pipeline.return.
type Stage struct {
	Block

	name     string
	pipeline *Pipeline
}

// Name returns the stage label.
func (s *Stage) Name() string {
	return s.name
}

// SetName changes the stage label.
func (s *Stage) SetName(name string) {
	s.name = name
}

// Pipeline returns the pipeline owning the stage.
func (s *Stage) Pipeline() *Pipeline {
	return s.pipeline
}

// Body returns the stage block.
func (s *Stage) Body() *Block {
	return &s.Block
}

// IsEntry reports whether s is the pipeline entry stage.
func (s *Stage) IsEntry() bool {
	return s.pipeline != nil && s.pipeline.stages[0] == s
}

// Predecessors returns the stages whose boundary terminator jumps to s, in
// stage creation order.
func (s *Stage) Predecessors() []*Stage {
	var preds []*Stage
	for _, other := range s.pipeline.stages {
		term := other.Terminator()
		if term != nil && term.NextStage() == s {
			preds = append(preds, other)
		}
	}
	return preds
}

// SinglePredecessor returns the only predecessor of s, or nil if s has none
// or more than one.
func (s *Stage) SinglePredecessor() *Stage {
	preds := s.Predecessors()
	if len(preds) != 1 {
		return nil
	}
	return preds[0]
}

// Port is a named, typed pipeline input.
type Port struct {
	Name string
	Type Type
}

// Pipeline is a linear chain of stages. The entry stage's arguments are the
// pipeline inputs, followed by the external inputs, the clock, the reset and
// the optional stall signal.
type Pipeline struct {
	name      string
	stages    []*Stage
	inputs    []Port
	extInputs []Port
	hasStall  bool
}

// NewPipeline creates a pipeline with an empty entry stage named "s0".
func NewPipeline(name string, inputs, extInputs []Port, stall bool) *Pipeline {
	p := &Pipeline{
		name:      name,
		inputs:    append([]Port(nil), inputs...),
		extInputs: append([]Port(nil), extInputs...),
		hasStall:  stall,
	}
	entry := p.AddStage("s0")
	for _, in := range inputs {
		entry.AddArgument(in.Type)
	}
	for _, in := range extInputs {
		entry.AddArgument(in.Type)
	}
	entry.AddArgument(ClockType())
	entry.AddArgument(IntType(1))
	if stall {
		entry.AddArgument(IntType(1))
	}
	return p
}

// Name returns the pipeline name.
func (p *Pipeline) Name() string {
	return p.name
}

// AddStage appends a new empty stage.
func (p *Pipeline) AddStage(name string) *Stage {
	s := &Stage{name: name, pipeline: p}
	s.Block.stage = s
	p.stages = append(p.stages, s)
	return s
}

// Stages returns the stages in creation order. This need not be pipeline
// order.
func (p *Pipeline) Stages() []*Stage {
	return p.stages
}

// EntryStage returns the first stage.
func (p *Pipeline) EntryStage() *Stage {
	return p.stages[0]
}

// Stage returns the stage with the given name, or nil.
func (p *Pipeline) Stage(name string) *Stage {
	for _, s := range p.stages {
		if s.name == name {
			return s
		}
	}
	return nil
}

// Inputs returns the pipeline input values.
func (p *Pipeline) Inputs() []*Value {
	return p.EntryStage().args[:len(p.inputs)]
}

// ExtInputs returns the external input values. They are never routed.
func (p *Pipeline) ExtInputs() []*Value {
	start := len(p.inputs)
	return p.EntryStage().args[start : start+len(p.extInputs)]
}

// Clock returns the clock argument.
func (p *Pipeline) Clock() *Value {
	return p.EntryStage().args[len(p.inputs)+len(p.extInputs)]
}

// Reset returns the reset argument.
func (p *Pipeline) Reset() *Value {
	return p.EntryStage().args[len(p.inputs)+len(p.extInputs)+1]
}

// HasStall reports whether the pipeline has a stall signal.
func (p *Pipeline) HasStall() bool {
	return p.hasStall
}

// Stall returns the stall argument, or nil if the pipeline has none.
func (p *Pipeline) Stall() *Value {
	if !p.hasStall {
		return nil
	}
	return p.EntryStage().args[len(p.inputs)+len(p.extInputs)+2]
}

// ExternalLike returns the values that are never routed across stages:
// external inputs, clock, reset and stall.
func (p *Pipeline) ExternalLike() []*Value {
	vals := append([]*Value(nil), p.ExtInputs()...)
	vals = append(vals, p.Clock(), p.Reset())
	if p.hasStall {
		vals = append(vals, p.Stall())
	}
	return vals
}

// ArgumentName names a stage argument. Entry arguments take the input
// names; arguments of later stages take the name attached to the matching
// operand of the feeding boundary. It returns "" when no name is known.
func (p *Pipeline) ArgumentName(v *Value) string {
	if v.kind != ArgumentValue || v.block == nil || v.block.stage == nil {
		return ""
	}
	stage := v.block.stage
	if stage.pipeline != p {
		return ""
	}
	if stage.IsEntry() {
		return p.entryArgName(v.index)
	}
	pred := stage.SinglePredecessor()
	if pred == nil {
		return ""
	}
	return pred.Terminator().BoundaryName(v.index)
}

func (p *Pipeline) entryArgName(i int) string {
	if i < len(p.inputs) {
		return p.inputs[i].Name
	}
	i -= len(p.inputs)
	if i < len(p.extInputs) {
		return p.extInputs[i].Name
	}
	i -= len(p.extInputs)
	switch i {
	case 0:
		return "clk"
	case 1:
		return "rst"
	case 2:
		return "stall"
	}
	return ""
}

// Module is a collection of pipelines.
type Module struct {
	pipelines []*Pipeline
}

// NewModule creates an empty module.
func NewModule() *Module {
	return &Module{}
}

// Add appends a pipeline to the module.
func (m *Module) Add(p *Pipeline) {
	m.pipelines = append(m.pipelines, p)
}

// Pipelines returns the pipelines in insertion order.
func (m *Module) Pipelines() []*Pipeline {
	return m.pipelines
}

// Pipeline returns the pipeline with the given name, or nil.
func (m *Module) Pipeline(name string) *Pipeline {
	for _, p := range m.pipelines {
		if p.name == name {
			return p
		}
	}
	return nil
}
