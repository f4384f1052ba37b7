package regs

import (
	"fmt"

	"github.com/sarchlab/explicitregs/ir"
)

// BoundaryRewrite is the hook detail published for every rewritten stage
// boundary.
type BoundaryRewrite struct {
	From         *ir.Stage
	To           *ir.Stage
	Registers    []*RoutedValue
	Passthroughs []*RoutedValue
}

// rewrite materializes the routing plan. For every stage with routed values
// the feeding boundary gets the new register and passthrough operands, the
// stage gets matching arguments, and the placeholders are resolved to those
// arguments. Stages are processed in pipeline order so that a predecessor's
// placeholders are always resolved before they are read.
func (c *pipelineContext) rewrite() {
	for _, stage := range c.stages.Ordered() {
		table := c.routes[stage]
		if table.len() == 0 {
			continue
		}
		c.rewriteBoundary(stage, table)
	}

	if n := c.deferred.Pending(); n != 0 {
		panic(fmt.Sprintf("pipeline %s: %d deferred values left unresolved",
			c.pipeline.Name(), n))
	}
}

func (c *pipelineContext) rewriteBoundary(stage *ir.Stage, table *routeTable) {
	pred := c.stages.Predecessor(stage)
	if pred == nil {
		panic(fmt.Sprintf("stage %s routes values but has no predecessor", stage.Name()))
	}

	var regs, passes []*RoutedValue
	for _, r := range table.records {
		if !r.named {
			panic(fmt.Sprintf("value routed into stage %s was never named", stage.Name()))
		}
		if r.IsReg {
			regs = append(regs, r)
		} else {
			passes = append(passes, r)
		}
	}

	old := pred.Terminator()
	oldRegs, oldPasses := old.Registers(), old.Passthroughs()

	regIns := append([]*ir.Value(nil), oldRegs...)
	regNames := append([]string(nil), old.RegisterNames()...)
	for _, r := range regs {
		regIns = append(regIns, c.boundaryInput(pred, r))
		regNames = append(regNames, r.Name)
	}
	passIns := append([]*ir.Value(nil), oldPasses...)
	passNames := append([]string(nil), old.PassthroughNames()...)
	for _, r := range passes {
		passIns = append(passIns, c.boundaryInput(pred, r))
		passNames = append(passNames, r.Name)
	}

	pred.SetTerminator(ir.NewStageOp(stage, regIns, passIns, regNames, passNames))

	// Registers go after the existing registers, passthroughs after the
	// existing passthroughs.
	regAt := len(oldRegs)
	for i, r := range regs {
		arg := stage.InsertArgument(regAt+i, r.Value.Type())
		c.deferred.Resolve(r.Deferred, arg)
	}
	passAt := len(oldRegs) + len(regs) + len(oldPasses)
	for i, r := range passes {
		arg := stage.InsertArgument(passAt+i, r.Value.Type())
		c.deferred.Resolve(r.Deferred, arg)
	}

	c.stats.Registers += len(regs)
	c.stats.Passthroughs += len(passes)
	c.stats.BoundariesRewritten++

	c.pass.logger.V(1).Info("rewrote boundary",
		"pipeline", c.pipeline.Name(),
		"from", pred.Name(),
		"to", stage.Name(),
		"registers", len(regs),
		"passthroughs", len(passes))
	c.pass.invokeHook(HookPosBoundaryRewritten, stage, BoundaryRewrite{
		From:         pred,
		To:           stage,
		Registers:    regs,
		Passthroughs: passes,
	})
}

// boundaryInput returns the value fed into the boundary for r: the
// predecessor's own routed argument if the value is routed through the
// predecessor too, or the original value at the hop next to its definition.
func (c *pipelineContext) boundaryInput(pred *ir.Stage, r *RoutedValue) *ir.Value {
	if p, ok := c.routes[pred].lookup(r.Value); ok {
		return c.deferred.Value(p.Deferred)
	}
	return r.Value
}
