package regs

import (
	"errors"
	"fmt"
)

var (
	// ErrMalformedPipeline is the root of every error reported for a
	// pipeline that cannot be rewritten.
	ErrMalformedPipeline = errors.New("malformed pipeline")

	// ErrUnsupportedTopology reports a stage graph that is not a single
	// linear chain, e.g. reconverging stages.
	ErrUnsupportedTopology = fmt.Errorf("%w: stage graph is not a linear chain", ErrMalformedPipeline)

	// ErrBackwardReference reports a use of a value in a stage that precedes
	// the value's defining stage.
	ErrBackwardReference = fmt.Errorf("%w: value used before its defining stage", ErrMalformedPipeline)

	// ErrExternalValue reports a use of a value that is not defined inside
	// the pipeline.
	ErrExternalValue = fmt.Errorf("%w: value defined outside the pipeline", ErrMalformedPipeline)
)

// PipelineError reports a failure to rewrite one pipeline. Nothing in the
// pipeline has been changed when it is returned.
type PipelineError struct {
	Pipeline string
	Err      error
}

func (e *PipelineError) Error() string {
	return fmt.Sprintf("explicit regs: pipeline %s: %v", e.Pipeline, e.Err)
}

func (e *PipelineError) Unwrap() error {
	return e.Err
}
