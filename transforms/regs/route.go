package regs

import (
	"fmt"

	"github.com/sarchlab/explicitregs/ir"
)

// RoutedValue records that a value is carried through a stage, either as a
// register or as a passthrough, on its way from its defining stage.
type RoutedValue struct {
	// Value is the original value being routed.
	Value *ir.Value

	// Stage is the stage the value is routed into.
	Stage *ir.Stage

	// Deferred is the slot standing in for the stage argument that will
	// carry the value.
	Deferred DeferredValue

	// IsReg is true if the value is registered at the boundary feeding
	// Stage, and false if it is passed through combinationally.
	IsReg bool

	// Name is the display name, taken from the hop closest to the
	// definition.
	Name string

	named bool
}

// routeTable is the per-stage memo of routed values, iterated in insertion
// order.
type routeTable struct {
	records []*RoutedValue
	byValue map[*ir.Value]*RoutedValue
}

func newRouteTable() *routeTable {
	return &routeTable{byValue: make(map[*ir.Value]*RoutedValue)}
}

func (t *routeTable) lookup(v *ir.Value) (*RoutedValue, bool) {
	if t == nil {
		return nil, false
	}
	r, ok := t.byValue[v]
	return r, ok
}

func (t *routeTable) insert(r *RoutedValue) {
	t.records = append(t.records, r)
	t.byValue[r.Value] = r
}

func (t *routeTable) len() int {
	if t == nil {
		return 0
	}
	return len(t.records)
}

// routeThroughStage returns the version of v usable inside stage, together
// with its display name. Values of other stages are routed backwards one hop
// at a time; every hop is recorded once per stage and reused afterwards.
func (c *pipelineContext) routeThroughStage(v *ir.Value, stage *ir.Stage) (*ir.Value, string, error) {
	defStage := v.Stage()
	if defStage == stage {
		return v, c.names.Name(v), nil
	}

	if r, ok := c.routes[stage].lookup(v); ok {
		return c.deferred.Placeholder(r.Deferred), r.Name, nil
	}

	if defStage == nil || defStage.Pipeline() != c.pipeline {
		return nil, "", fmt.Errorf("%w: used in stage %s", ErrExternalValue, stage.Name())
	}

	if op := v.DefiningOp(); op != nil && op.Has(ir.TraitConstantLike) {
		return v, "", nil
	}
	distance := c.stages.Distance(defStage, stage)
	if distance < 1 {
		return nil, "", fmt.Errorf("%w: defined in stage %s, used in stage %s",
			ErrBackwardReference, defStage.Name(), stage.Name())
	}

	r := &RoutedValue{
		Value:    v,
		Stage:    stage,
		Deferred: c.deferred.New(v.Type()),
		IsReg:    v.Latency() < int64(distance),
	}
	c.table(stage).insert(r)

	pred := c.stages.Predecessor(stage)
	if pred == nil {
		return nil, "", fmt.Errorf("%w: stage %s has no single predecessor",
			ErrUnsupportedTopology, stage.Name())
	}
	_, name, err := c.routeThroughStage(v, pred)
	if err != nil {
		return nil, "", err
	}
	r.Name = name
	r.named = true

	c.pass.logger.V(1).Info("routed value",
		"pipeline", c.pipeline.Name(),
		"stage", stage.Name(),
		"name", name,
		"register", r.IsReg,
		"distance", distance,
		"latency", v.Latency())
	c.pass.invokeHook(HookPosValueRouted, r, nil)

	return c.deferred.Placeholder(r.Deferred), name, nil
}

func (c *pipelineContext) table(stage *ir.Stage) *routeTable {
	t, ok := c.routes[stage]
	if !ok {
		t = newRouteTable()
		c.routes[stage] = t
	}
	return t
}

// plan walks every stage in pipeline order and routes each operand that is
// defined in another stage. Operands are switched to the routed placeholders
// as soon as they are known.
func (c *pipelineContext) plan() error {
	for _, stage := range c.stages.Ordered() {
		err := stage.Walk(func(op *ir.Operation) error {
			for i, v := range op.Operands() {
				if v == nil {
					return fmt.Errorf("%w: %s operand %d in stage %s is missing",
						ErrMalformedPipeline, op.Name(), i, stage.Name())
				}
				if c.external[v] || v.Stage() == stage {
					continue
				}
				routed, _, err := c.routeThroughStage(v, stage)
				if err != nil {
					return fmt.Errorf("%s operand %d in stage %s: %w", op.Name(), i, stage.Name(), err)
				}
				if routed != v {
					c.substitute(op, i, routed)
				}
			}
			return nil
		})
		if err != nil {
			return err
		}
	}
	return nil
}

func (c *pipelineContext) substitute(op *ir.Operation, i int, v *ir.Value) {
	c.substitutions = append(c.substitutions, substitution{
		op:       op,
		index:    i,
		original: op.Operand(i),
	})
	op.SetOperand(i, v)
	c.stats.OperandsRewritten++
}

// rollback undoes every operand substitution made by plan.
func (c *pipelineContext) rollback() {
	for i := len(c.substitutions) - 1; i >= 0; i-- {
		s := c.substitutions[i]
		s.op.SetOperand(s.index, s.original)
	}
	c.substitutions = nil
}
