package regs

import "github.com/sarchlab/explicitregs/ir"

// NameResolver derives display names for values that get materialized at
// stage boundaries. Names only serve diagnostics.
type NameResolver struct {
	pipeline *ir.Pipeline
}

// NewNameResolver creates a resolver for values of p.
func NewNameResolver(p *ir.Pipeline) *NameResolver {
	return &NameResolver{pipeline: p}
}

// Name returns the display name of v, which may be empty.
//
// Operations that name their own results win. Otherwise a namehint
// attribute on the defining operation is used, and stage arguments are named
// by the pipeline.
func (r *NameResolver) Name(v *ir.Value) string {
	if op := v.DefiningOp(); op != nil {
		if hook := op.Info().ResultNames; hook != nil && op.Has(ir.TraitNamedResults) {
			names := hook(op)
			if v.Index() < len(names) {
				return names[v.Index()]
			}
			return ""
		}
		if hint, ok := op.StringAttr(ir.AttrNameHint); ok {
			return hint
		}
		return ""
	}
	if v.Kind() == ir.ArgumentValue {
		return r.pipeline.ArgumentName(v)
	}
	return ""
}
