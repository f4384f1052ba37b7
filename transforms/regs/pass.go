// Package regs makes cross-stage dependencies of a pipeline explicit.
//
// Any value used in a stage other than the one defining it is carried across
// every intervening stage boundary, either as a register or as a
// combinational passthrough. A value may travel as many hops as its latency
// without a register; past that it is registered at each hop. Constants and
// external-like inputs (external inputs, clock, reset, stall) are never
// routed.
//
// The pass works in two phases. Planning walks the stages in order and
// records, per stage, which values are routed through it, using placeholder
// values for the stage arguments that do not exist yet. Rewriting then
// rebuilds every boundary and resolves the placeholders.
package regs

import (
	"github.com/go-logr/logr"
	"github.com/sarchlab/akita/v4/sim"

	"github.com/sarchlab/explicitregs/ir"
)

// Stats counts what the pass did.
type Stats struct {
	// Registers is the number of register arguments created.
	Registers int
	// Passthroughs is the number of passthrough arguments created.
	Passthroughs int
	// OperandsRewritten is the number of operands switched to a routed value.
	OperandsRewritten int
	// BoundariesRewritten is the number of stage boundaries rebuilt.
	BoundariesRewritten int
}

// Add accumulates other into s.
func (s *Stats) Add(other Stats) {
	s.Registers += other.Registers
	s.Passthroughs += other.Passthroughs
	s.OperandsRewritten += other.OperandsRewritten
	s.BoundariesRewritten += other.BoundariesRewritten
}

// Pass is the explicit register pass.
type Pass struct {
	*sim.HookableBase

	logger logr.Logger
}

// Option configures a Pass.
type Option func(*Pass)

// WithLogger sets the logger used for routing decisions and summaries.
func WithLogger(logger logr.Logger) Option {
	return func(p *Pass) {
		p.logger = logger
	}
}

// New creates a Pass.
func New(opts ...Option) *Pass {
	p := &Pass{
		HookableBase: sim.NewHookableBase(),
		logger:       logr.Discard(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Name returns the pass name.
func (p *Pass) Name() string {
	return "explicit-regs"
}

// Run rewrites every pipeline of m in order. It stops at the first pipeline
// that fails; pipelines before it stay rewritten.
func (p *Pass) Run(m *ir.Module) (Stats, error) {
	var total Stats
	for _, pl := range m.Pipelines() {
		stats, err := p.RunOnPipeline(pl)
		if err != nil {
			return total, err
		}
		total.Add(stats)
	}
	return total, nil
}

// RunOnPipeline rewrites one pipeline. On error the pipeline is left
// unchanged and the error is a *PipelineError.
func (p *Pass) RunOnPipeline(pl *ir.Pipeline) (Stats, error) {
	c, err := newPipelineContext(p, pl)
	if err != nil {
		return Stats{}, &PipelineError{Pipeline: pl.Name(), Err: err}
	}

	if err := c.plan(); err != nil {
		c.rollback()
		return Stats{}, &PipelineError{Pipeline: pl.Name(), Err: err}
	}
	c.rewrite()

	p.logger.Info("rewrote pipeline",
		"pipeline", pl.Name(),
		"stages", c.stages.Len(),
		"registers", c.stats.Registers,
		"passthroughs", c.stats.Passthroughs,
		"boundaries", c.stats.BoundariesRewritten)

	return c.stats, nil
}

// pipelineContext is the state of one pipeline rewrite. It is discarded once
// the pipeline is done.
type pipelineContext struct {
	pass     *Pass
	pipeline *ir.Pipeline
	stages   *StageIndex
	names    *NameResolver
	deferred *DeferredValues
	routes   map[*ir.Stage]*routeTable
	external map[*ir.Value]bool

	substitutions []substitution
	stats         Stats
}

type substitution struct {
	op       *ir.Operation
	index    int
	original *ir.Value
}

func newPipelineContext(p *Pass, pl *ir.Pipeline) (*pipelineContext, error) {
	stages, err := IndexStages(pl)
	if err != nil {
		return nil, err
	}

	external := make(map[*ir.Value]bool)
	for _, v := range pl.ExternalLike() {
		external[v] = true
	}

	return &pipelineContext{
		pass:     p,
		pipeline: pl,
		stages:   stages,
		names:    NewNameResolver(pl),
		deferred: NewDeferredValues(),
		routes:   make(map[*ir.Stage]*routeTable),
		external: external,
	}, nil
}
