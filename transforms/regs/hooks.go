package regs

import "github.com/sarchlab/akita/v4/sim"

var (
	// HookPosValueRouted is invoked once for every new routing record. The
	// hook item is the *RoutedValue.
	HookPosValueRouted = &sim.HookPos{Name: "ValueRouted"}

	// HookPosBoundaryRewritten is invoked after a stage boundary has been
	// rebuilt. The item is the successor *ir.Stage and the detail a
	// BoundaryRewrite.
	HookPosBoundaryRewritten = &sim.HookPos{Name: "BoundaryRewritten"}
)

func (p *Pass) invokeHook(pos *sim.HookPos, item, detail interface{}) {
	if p.NumHooks() == 0 {
		return
	}
	p.InvokeHook(sim.HookCtx{
		Domain: p,
		Pos:    pos,
		Item:   item,
		Detail: detail,
	})
}
