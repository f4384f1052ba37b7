package regs

import (
	"fmt"

	"github.com/sarchlab/explicitregs/ir"
)

// StageIndex holds the position of every stage in pipeline order.
type StageIndex struct {
	ordered []*ir.Stage
	index   map[*ir.Stage]int
	pred    map[*ir.Stage]*ir.Stage
}

// IndexStages orders the stages of p by following the boundaries from the
// entry stage. It fails unless the stages form one linear chain: every
// stage but the entry has exactly one predecessor, the entry has none, and
// every stage is reachable. It also checks that each boundary carries as
// many values as its successor has arguments.
func IndexStages(p *ir.Pipeline) (*StageIndex, error) {
	preds := make(map[*ir.Stage][]*ir.Stage)
	for _, s := range p.Stages() {
		term := s.Terminator()
		if term == nil {
			return nil, fmt.Errorf("%w: stage %s has no terminator", ErrMalformedPipeline, s.Name())
		}
		if term.Name() != ir.StageOpName {
			continue
		}
		next := term.NextStage()
		if next == nil || next.Pipeline() != p {
			return nil, fmt.Errorf("%w: stage %s jumps outside the pipeline",
				ErrMalformedPipeline, s.Name())
		}
		preds[next] = append(preds[next], s)
	}

	idx := &StageIndex{
		index: make(map[*ir.Stage]int),
		pred:  make(map[*ir.Stage]*ir.Stage),
	}

	entry := p.EntryStage()
	if n := len(preds[entry]); n != 0 {
		return nil, fmt.Errorf("%w: entry stage %s has %d predecessors",
			ErrUnsupportedTopology, entry.Name(), n)
	}

	for s := entry; s != nil; {
		if _, seen := idx.index[s]; seen {
			return nil, fmt.Errorf("%w: stage %s is reached twice", ErrUnsupportedTopology, s.Name())
		}
		idx.index[s] = len(idx.ordered)
		idx.ordered = append(idx.ordered, s)

		term := s.Terminator()
		if term.Name() != ir.StageOpName {
			break
		}
		next := term.NextStage()
		if n := len(preds[next]); n != 1 {
			return nil, fmt.Errorf("%w: stage %s has %d predecessors",
				ErrUnsupportedTopology, next.Name(), n)
		}
		if term.NumOperands() != next.NumArgs() {
			return nil, fmt.Errorf("%w: boundary %s -> %s carries %d values for %d arguments",
				ErrMalformedPipeline, s.Name(), next.Name(), term.NumOperands(), next.NumArgs())
		}
		idx.pred[next] = s
		s = next
	}

	if len(idx.ordered) != len(p.Stages()) {
		for _, s := range p.Stages() {
			if _, ok := idx.index[s]; !ok {
				return nil, fmt.Errorf("%w: stage %s is not reachable from the entry stage",
					ErrUnsupportedTopology, s.Name())
			}
		}
	}

	return idx, nil
}

// Ordered returns the stages in pipeline order.
func (x *StageIndex) Ordered() []*ir.Stage {
	return x.ordered
}

// Len returns the number of stages.
func (x *StageIndex) Len() int {
	return len(x.ordered)
}

// Index returns the position of s in pipeline order.
func (x *StageIndex) Index(s *ir.Stage) (int, bool) {
	i, ok := x.index[s]
	return i, ok
}

// Predecessor returns the stage feeding s, or nil for the entry stage.
func (x *StageIndex) Predecessor(s *ir.Stage) *ir.Stage {
	return x.pred[s]
}

// Distance returns index(to) - index(from).
func (x *StageIndex) Distance(from, to *ir.Stage) int {
	return x.index[to] - x.index[from]
}
