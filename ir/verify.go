package ir

import "fmt"

// Verify checks the structural integrity of a pipeline: every stage is
// terminated, boundaries jump inside the pipeline, use lists are coherent,
// operands are defined inside the pipeline and every stage boundary carries
// as many operands as its successor has arguments.
func Verify(p *Pipeline) error {
	for _, s := range p.stages {
		if err := verifyStage(p, s); err != nil {
			return fmt.Errorf("pipeline %s: stage %s: %w", p.name, s.name, err)
		}
	}
	return nil
}

func verifyStage(p *Pipeline, s *Stage) error {
	term := s.Terminator()
	if term == nil {
		return fmt.Errorf("missing terminator")
	}
	switch term.Name() {
	case StageOpName:
		next := term.NextStage()
		if next == nil || next.pipeline != p {
			return fmt.Errorf("boundary jumps outside the pipeline")
		}
		if next.IsEntry() {
			return fmt.Errorf("boundary jumps to the entry stage")
		}
		if len(next.Predecessors()) == 1 {
			if err := verifyBoundary(term, next); err != nil {
				return err
			}
		}
	case ReturnOpName:
	default:
		return fmt.Errorf("unexpected terminator %s", term.Name())
	}

	return s.Walk(func(op *Operation) error {
		return verifyOp(p, op)
	})
}

func verifyBoundary(term *Operation, next *Stage) error {
	if term.NumOperands() != next.NumArgs() {
		return fmt.Errorf("boundary carries %d values but stage %s has %d arguments",
			term.NumOperands(), next.name, next.NumArgs())
	}
	for i, v := range term.Operands() {
		if v.Type() != next.Arg(i).Type() {
			return fmt.Errorf("boundary operand %d is %s but stage %s argument is %s",
				i, v.Type(), next.name, next.Arg(i).Type())
		}
	}
	return nil
}

func verifyOp(p *Pipeline, op *Operation) error {
	for i, o := range op.operands {
		v := o.value
		if v == nil {
			return fmt.Errorf("%s operand %d is missing", op.Name(), i)
		}
		if v.IsPlaceholder() {
			return fmt.Errorf("%s operand %d is an unresolved placeholder", op.Name(), i)
		}
		if !containsOperand(v.uses, o) {
			return fmt.Errorf("%s operand %d is missing from its value's uses", op.Name(), i)
		}
		if st := v.Stage(); st == nil || st.pipeline != p {
			return fmt.Errorf("%s operand %d is defined outside the pipeline", op.Name(), i)
		}
	}
	if op.Name() == LatencyOpName {
		body := op.regions[0]
		ret := body.Terminator()
		if ret == nil || ret.Name() != LatencyReturnOpName {
			return fmt.Errorf("%s body is not terminated", op.Name())
		}
		if ret.NumOperands() != op.NumResults() {
			return fmt.Errorf("%s yields %d values for %d results",
				op.Name(), ret.NumOperands(), op.NumResults())
		}
		if lat, ok := op.IntAttr(AttrLatency); !ok || lat < 0 {
			return fmt.Errorf("%s needs a non-negative latency", op.Name())
		}
	}
	return nil
}

func containsOperand(uses []*Operand, o *Operand) bool {
	for _, u := range uses {
		if u == o {
			return true
		}
	}
	return false
}

// VerifyExplicit checks that no stage refers to a value of another stage
// except external-like inputs and constant-like results. It holds for any
// pipeline whose stage boundaries have been made explicit.
func VerifyExplicit(p *Pipeline) error {
	external := make(map[*Value]bool)
	for _, v := range p.ExternalLike() {
		external[v] = true
	}

	for _, s := range p.stages {
		err := s.Walk(func(op *Operation) error {
			for i, v := range op.Operands() {
				if external[v] || v.Stage() == s {
					continue
				}
				if def := v.DefiningOp(); def != nil && def.Has(TraitConstantLike) {
					continue
				}
				return fmt.Errorf("%s operand %d refers to a value of another stage",
					op.Name(), i)
			}
			return nil
		})
		if err != nil {
			return fmt.Errorf("pipeline %s: stage %s: %w", p.name, s.name, err)
		}
	}
	return nil
}
