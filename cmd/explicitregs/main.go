// Package main provides the explicitregs command.
// It loads YAML pipeline descriptions, makes every cross-stage value explicit
// and prints the rewritten pipelines.
package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/go-logr/logr"
	"github.com/go-logr/logr/funcr"

	"github.com/sarchlab/explicitregs/ir"
	"github.com/sarchlab/explicitregs/loader"
	"github.com/sarchlab/explicitregs/transforms/driver"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

// run executes the command and returns the exit code.
func run(args []string, stdout, stderr io.Writer) int {
	flags := flag.NewFlagSet("explicitregs", flag.ContinueOnError)
	flags.SetOutput(stderr)
	configPath := flags.String("config", "", "Path to driver configuration JSON file")
	outPath := flags.String("o", "", "Write the rewritten pipelines to this file instead of stdout")
	verbosity := flags.Int("v", 0, "Log verbosity (0: summaries, 1: every routing decision)")
	trace := flags.Bool("trace", false, "Trace routing decisions")
	keepGoing := flags.Bool("continue", false, "Keep going after a pipeline fails")
	only := flags.String("pipelines", "", "Comma separated list of pipelines to process")
	flags.Usage = func() {
		fmt.Fprintf(stderr, "Usage: explicitregs [options] <pipelines.yaml>\n")
		fmt.Fprintf(stderr, "\nOptions:\n")
		flags.PrintDefaults()
	}

	if err := flags.Parse(args); err != nil {
		return 2
	}
	if flags.NArg() != 1 {
		flags.Usage()
		return 2
	}

	logger := newLogger(stderr, *verbosity)

	config := driver.DefaultConfig()
	if *configPath != "" {
		var err error
		config, err = driver.LoadConfig(*configPath)
		if err != nil {
			fmt.Fprintf(stderr, "Error loading driver config: %v\n", err)
			return 1
		}
	}
	if *trace {
		config.Trace = true
	}
	if *keepGoing {
		config.ContinueOnError = true
	}
	if *only != "" {
		config.Pipelines = nil
		for _, name := range strings.Split(*only, ",") {
			config.Pipelines = append(config.Pipelines, strings.TrimSpace(name))
		}
	}

	m, err := loader.Load(flags.Arg(0))
	if err != nil {
		fmt.Fprintf(stderr, "Error loading pipelines: %v\n", err)
		return 1
	}

	d, err := driver.New(config, driver.WithLogger(logger), driver.WithOutput(stderr))
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}

	report, err := d.Run(m)
	for _, p := range report.Pipelines {
		switch {
		case p.Skipped:
			logger.V(1).Info("skipped", "pipeline", p.Name)
		case p.Err == nil:
			logger.Info("rewrote pipeline",
				"pipeline", p.Name,
				"registers", p.Stats.Registers,
				"passthroughs", p.Stats.Passthroughs)
		}
	}
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}

	if err := writeOutput(*outPath, stdout, m); err != nil {
		fmt.Fprintf(stderr, "Error writing output: %v\n", err)
		return 1
	}

	return 0
}

// writeOutput prints m to path, or to stdout if path is empty.
func writeOutput(path string, stdout io.Writer, m *ir.Module) error {
	if path == "" {
		return ir.PrintModule(stdout, m)
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := ir.PrintModule(f, m); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func newLogger(w io.Writer, verbosity int) logr.Logger {
	return funcr.New(func(prefix, args string) {
		if prefix != "" {
			fmt.Fprintf(w, "%s: %s\n", prefix, args)
			return
		}
		fmt.Fprintln(w, args)
	}, funcr.Options{Verbosity: verbosity})
}
