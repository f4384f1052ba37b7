// Package driver runs the explicit register pass over whole modules.
// It wraps the pass with verification, dumps, tracing and error collection.
package driver

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/go-logr/logr"
	"github.com/sarchlab/akita/v4/sim"

	"github.com/sarchlab/explicitregs/ir"
	"github.com/sarchlab/explicitregs/transforms/regs"
)

// PipelineReport is the outcome for one pipeline.
type PipelineReport struct {
	// Name is the pipeline name.
	Name string
	// Stats is what the pass did to the pipeline.
	Stats regs.Stats
	// Skipped is true if the pipeline was filtered out by the config.
	Skipped bool
	// Err is the failure, if any.
	Err error
}

// Report is the outcome of a driver run.
type Report struct {
	// Pipelines holds one entry per pipeline, in module order, up to the
	// point where the run stopped.
	Pipelines []PipelineReport
	// Total adds up the stats of all rewritten pipelines.
	Total regs.Stats
}

// Failed returns the reports of failed pipelines.
func (r Report) Failed() []PipelineReport {
	var failed []PipelineReport
	for _, p := range r.Pipelines {
		if p.Err != nil {
			failed = append(failed, p)
		}
	}
	return failed
}

// Driver runs the explicit register pass according to a Config.
type Driver struct {
	config *Config
	pass   *regs.Pass
	logger logr.Logger
	out    io.Writer
}

// Option configures a Driver.
type Option func(*Driver)

// WithLogger sets the logger of the driver and the pass.
func WithLogger(logger logr.Logger) Option {
	return func(d *Driver) {
		d.logger = logger
	}
}

// WithOutput sets where pipeline dumps are written. Default: stdout.
func WithOutput(w io.Writer) Option {
	return func(d *Driver) {
		d.out = w
	}
}

// New creates a Driver. The config is validated and copied.
func New(config *Config, opts ...Option) (*Driver, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid driver config: %w", err)
	}

	d := &Driver{
		config: config.Clone(),
		logger: logr.Discard(),
		out:    os.Stdout,
	}
	for _, opt := range opts {
		opt(d)
	}

	d.pass = regs.New(regs.WithLogger(d.logger.WithName("explicit-regs")))
	if d.config.Trace {
		d.pass.AcceptHook(&traceHook{logger: d.logger.WithName("trace")})
	}

	return d, nil
}

// Pass returns the underlying pass, e.g. to attach more hooks.
func (d *Driver) Pass() *regs.Pass {
	return d.pass
}

// Run processes the pipelines of m in order.
func (d *Driver) Run(m *ir.Module) (Report, error) {
	var report Report

	for _, name := range d.config.Pipelines {
		if m.Pipeline(name) == nil {
			return report, fmt.Errorf("pipeline %q not found in module", name)
		}
	}

	var errs []error
	for _, p := range m.Pipelines() {
		if !d.config.selects(p.Name()) {
			d.logger.V(1).Info("skipping pipeline", "pipeline", p.Name())
			report.Pipelines = append(report.Pipelines, PipelineReport{Name: p.Name(), Skipped: true})
			continue
		}

		stats, err := d.runPipeline(p)
		report.Pipelines = append(report.Pipelines, PipelineReport{
			Name:  p.Name(),
			Stats: stats,
			Err:   err,
		})
		if err != nil {
			d.logger.Error(err, "pipeline failed", "pipeline", p.Name())
			if !d.config.ContinueOnError {
				return report, err
			}
			errs = append(errs, err)
			continue
		}
		report.Total.Add(stats)
	}

	return report, errors.Join(errs...)
}

func (d *Driver) runPipeline(p *ir.Pipeline) (regs.Stats, error) {
	if d.config.VerifyBefore {
		if err := ir.Verify(p); err != nil {
			return regs.Stats{}, fmt.Errorf("failed to verify input: %w", err)
		}
	}
	if d.config.DumpBefore {
		if err := d.dump("before", p); err != nil {
			return regs.Stats{}, err
		}
	}

	stats, err := d.pass.RunOnPipeline(p)
	if err != nil {
		return regs.Stats{}, err
	}

	if d.config.VerifyAfter {
		if err := ir.Verify(p); err != nil {
			return stats, fmt.Errorf("failed to verify output: %w", err)
		}
		if err := ir.VerifyExplicit(p); err != nil {
			return stats, fmt.Errorf("failed to verify output: %w", err)
		}
	}
	if d.config.DumpAfter {
		if err := d.dump("after", p); err != nil {
			return stats, err
		}
	}

	return stats, nil
}

func (d *Driver) dump(when string, p *ir.Pipeline) error {
	if _, err := fmt.Fprintf(d.out, "// %s %s\n", when, d.pass.Name()); err != nil {
		return fmt.Errorf("failed to write dump: %w", err)
	}
	if err := ir.Print(d.out, p); err != nil {
		return fmt.Errorf("failed to write dump: %w", err)
	}
	return nil
}

// traceHook logs the events published by the pass.
type traceHook struct {
	logger logr.Logger
}

func (h *traceHook) Func(ctx sim.HookCtx) {
	switch ctx.Pos {
	case regs.HookPosValueRouted:
		r := ctx.Item.(*regs.RoutedValue)
		h.logger.Info("route",
			"stage", r.Stage.Name(),
			"value", r.Name,
			"kind", routeKind(r))
	case regs.HookPosBoundaryRewritten:
		b := ctx.Detail.(regs.BoundaryRewrite)
		h.logger.Info("boundary",
			"from", b.From.Name(),
			"to", b.To.Name(),
			"registers", routedNames(b.Registers),
			"passthroughs", routedNames(b.Passthroughs))
	}
}

func routeKind(r *regs.RoutedValue) string {
	if r.IsReg {
		return "register"
	}
	return "passthrough"
}

func routedNames(rs []*regs.RoutedValue) []string {
	names := make([]string, len(rs))
	for i, r := range rs {
		names[i] = r.Name
	}
	return names
}
