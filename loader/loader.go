// Package loader reads pipeline descriptions written in YAML.
//
// A description lists pipelines; each pipeline lists its inputs and its
// stages in order. Values are referred to by name and must be defined
// before they are used, in file order:
//
//	pipelines:
//	  - name: mac
//	    inputs: [{name: a, type: i32}, {name: b, type: i32}]
//	    stages:
//	      - name: s0
//	        ops:
//	          - {results: [p], op: comb.mul, operands: [a, b], type: i32}
//	        next: s1
//	      - name: s1
//	        ops:
//	          - {results: [s], op: comb.add, operands: [p, a], type: i32}
//	        return: [s]
package loader

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/sarchlab/explicitregs/ir"
)

// Document is the top level of a pipeline description.
type Document struct {
	Pipelines []PipelineDesc `yaml:"pipelines"`
}

// PipelineDesc describes one pipeline.
type PipelineDesc struct {
	Name      string      `yaml:"name"`
	Inputs    []PortDesc  `yaml:"inputs,omitempty"`
	ExtInputs []PortDesc  `yaml:"ext_inputs,omitempty"`
	Stall     bool        `yaml:"stall,omitempty"`
	Stages    []StageDesc `yaml:"stages"`
}

// PortDesc is a named, typed input or stage argument.
type PortDesc struct {
	Name string `yaml:"name"`
	Type string `yaml:"type"`
}

// StageDesc describes one stage. A stage either continues to Next, carrying
// Regs and Passes explicitly, or returns values.
type StageDesc struct {
	Name   string     `yaml:"name"`
	Args   []PortDesc `yaml:"args,omitempty"`
	Ops    []OpDesc   `yaml:"ops,omitempty"`
	Next   string     `yaml:"next,omitempty"`
	Regs   []string   `yaml:"regs,omitempty"`
	Passes []string   `yaml:"passes,omitempty"`
	Return []string   `yaml:"return,omitempty"`
}

// OpDesc describes one operation. Every result has type Type.
type OpDesc struct {
	Results  []string `yaml:"results,omitempty"`
	Op       string   `yaml:"op"`
	Operands []string `yaml:"operands,omitempty"`
	Type     string   `yaml:"type,omitempty"`
	Latency  *int64   `yaml:"latency,omitempty"`
	Value    *int64   `yaml:"value,omitempty"`
	Name     string   `yaml:"name,omitempty"`
	NameHint string   `yaml:"namehint,omitempty"`

	// Body and Yield describe the nested region of a pipeline.latency.
	Body  []OpDesc `yaml:"body,omitempty"`
	Yield []string `yaml:"yield,omitempty"`
}

// Load reads a pipeline description file.
func Load(path string) (*ir.Module, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read pipeline description: %w", err)
	}

	m, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("failed to load %s: %w", path, err)
	}
	return m, nil
}

// Parse decodes a pipeline description and builds the module.
func Parse(data []byte) (*ir.Module, error) {
	var doc Document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse pipeline description: %w", err)
	}
	return Build(&doc)
}

// Build turns a decoded description into a module.
func Build(doc *Document) (*ir.Module, error) {
	m := ir.NewModule()
	seen := make(map[string]bool)
	for i := range doc.Pipelines {
		desc := &doc.Pipelines[i]
		if desc.Name == "" {
			return nil, fmt.Errorf("pipeline %d has no name", i)
		}
		if seen[desc.Name] {
			return nil, fmt.Errorf("pipeline %s defined twice", desc.Name)
		}
		seen[desc.Name] = true

		p, err := buildPipeline(desc)
		if err != nil {
			return nil, fmt.Errorf("pipeline %s: %w", desc.Name, err)
		}
		m.Add(p)
	}
	return m, nil
}

// scope maps names to values. Nested latency bodies get their own scope that
// falls back to the enclosing one.
type scope struct {
	values map[string]*ir.Value
	parent *scope
}

func newScope(parent *scope) *scope {
	return &scope{values: make(map[string]*ir.Value), parent: parent}
}

func (s *scope) define(name string, v *ir.Value) error {
	if name == "" {
		return fmt.Errorf("empty value name")
	}
	for cur := s; cur != nil; cur = cur.parent {
		if _, ok := cur.values[name]; ok {
			return fmt.Errorf("value %s defined twice", name)
		}
	}
	s.values[name] = v
	return nil
}

func (s *scope) lookup(name string) (*ir.Value, error) {
	for cur := s; cur != nil; cur = cur.parent {
		if v, ok := cur.values[name]; ok {
			return v, nil
		}
	}
	return nil, fmt.Errorf("value %s used before it is defined", name)
}

func (s *scope) lookupAll(names []string) ([]*ir.Value, error) {
	vals := make([]*ir.Value, len(names))
	for i, name := range names {
		v, err := s.lookup(name)
		if err != nil {
			return nil, err
		}
		vals[i] = v
	}
	return vals, nil
}

func buildPipeline(desc *PipelineDesc) (*ir.Pipeline, error) {
	if len(desc.Stages) == 0 {
		return nil, fmt.Errorf("no stages")
	}

	inputs, err := parsePorts(desc.Inputs)
	if err != nil {
		return nil, fmt.Errorf("inputs: %w", err)
	}
	extInputs, err := parsePorts(desc.ExtInputs)
	if err != nil {
		return nil, fmt.Errorf("ext_inputs: %w", err)
	}

	p := ir.NewPipeline(desc.Name, inputs, extInputs, desc.Stall)
	syms := newScope(nil)
	if err := defineEntryArgs(p, syms); err != nil {
		return nil, err
	}

	// Create every stage first so boundaries can jump forward.
	stages := make([]*ir.Stage, len(desc.Stages))
	stageNames := make(map[string]bool)
	for i := range desc.Stages {
		sd := &desc.Stages[i]
		if sd.Name == "" {
			return nil, fmt.Errorf("stage %d has no name", i)
		}
		if stageNames[sd.Name] {
			return nil, fmt.Errorf("stage %s defined twice", sd.Name)
		}
		stageNames[sd.Name] = true
		if i == 0 {
			if len(sd.Args) != 0 {
				return nil, fmt.Errorf("entry stage %s cannot declare args", sd.Name)
			}
			p.EntryStage().SetName(sd.Name)
			stages[i] = p.EntryStage()
			continue
		}
		stages[i] = p.AddStage(sd.Name)
	}

	for i := range desc.Stages {
		if err := buildStage(p, stages[i], &desc.Stages[i], syms); err != nil {
			return nil, fmt.Errorf("stage %s: %w", stages[i].Name(), err)
		}
	}

	return p, nil
}

func parsePorts(descs []PortDesc) ([]ir.Port, error) {
	ports := make([]ir.Port, len(descs))
	for i, d := range descs {
		if d.Name == "" {
			return nil, fmt.Errorf("port %d has no name", i)
		}
		t, err := ir.ParseType(d.Type)
		if err != nil {
			return nil, fmt.Errorf("port %s: %w", d.Name, err)
		}
		ports[i] = ir.Port{Name: d.Name, Type: t}
	}
	return ports, nil
}

// defineEntryArgs binds the entry stage arguments to their port names and to
// clk, rst and stall.
func defineEntryArgs(p *ir.Pipeline, syms *scope) error {
	for _, v := range p.EntryStage().Args() {
		if err := syms.define(p.ArgumentName(v), v); err != nil {
			return fmt.Errorf("inputs: %w", err)
		}
	}
	return nil
}

func buildStage(p *ir.Pipeline, stage *ir.Stage, sd *StageDesc, syms *scope) error {
	for _, arg := range sd.Args {
		t, err := ir.ParseType(arg.Type)
		if err != nil {
			return fmt.Errorf("arg %s: %w", arg.Name, err)
		}
		if err := syms.define(arg.Name, stage.AddArgument(t)); err != nil {
			return err
		}
	}

	b := ir.NewBuilder(stage.Body())
	for i := range sd.Ops {
		if err := buildOp(b, &sd.Ops[i], syms); err != nil {
			return fmt.Errorf("op %d (%s): %w", i, sd.Ops[i].Op, err)
		}
	}

	return buildTerminator(p, b, sd, syms)
}

func buildTerminator(p *ir.Pipeline, b *ir.Builder, sd *StageDesc, syms *scope) error {
	if sd.Next == "" {
		if len(sd.Regs) != 0 || len(sd.Passes) != 0 {
			return fmt.Errorf("regs and passes need a next stage")
		}
		vals, err := syms.lookupAll(sd.Return)
		if err != nil {
			return fmt.Errorf("return: %w", err)
		}
		b.Return(vals...)
		return nil
	}

	if len(sd.Return) != 0 {
		return fmt.Errorf("stage cannot both return and continue to %s", sd.Next)
	}
	next := p.Stage(sd.Next)
	if next == nil {
		return fmt.Errorf("next stage %s does not exist", sd.Next)
	}
	regs, err := syms.lookupAll(sd.Regs)
	if err != nil {
		return fmt.Errorf("regs: %w", err)
	}
	passes, err := syms.lookupAll(sd.Passes)
	if err != nil {
		return fmt.Errorf("passes: %w", err)
	}
	b.Block().SetTerminator(ir.NewStageOp(next, regs, passes, sd.Regs, sd.Passes))
	return nil
}

func buildOp(b *ir.Builder, od *OpDesc, syms *scope) error {
	switch od.Op {
	case "":
		return fmt.Errorf("missing op name")
	case ir.StageOpName, ir.ReturnOpName, ir.LatencyReturnOpName:
		return fmt.Errorf("terminators are written as next, return or yield")
	}

	var resultTypes []ir.Type
	if len(od.Results) > 0 {
		t, err := ir.ParseType(od.Type)
		if err != nil {
			return err
		}
		resultTypes = make([]ir.Type, len(od.Results))
		for i := range resultTypes {
			resultTypes[i] = t
		}
	}

	operands, err := syms.lookupAll(od.Operands)
	if err != nil {
		return err
	}

	var op *ir.Operation
	switch od.Op {
	case ir.ConstantOpName:
		if od.Value == nil || len(od.Results) != 1 || len(operands) != 0 {
			return fmt.Errorf("a constant needs a value, one result and no operands")
		}
		op = b.Block().Append(ir.NewConstantOp(resultTypes[0], *od.Value))
	case ir.LatencyOpName:
		if od.Latency == nil {
			return fmt.Errorf("missing latency")
		}
		if *od.Latency < 0 {
			return fmt.Errorf("negative latency %d", *od.Latency)
		}
		if len(od.Yield) != len(od.Results) {
			return fmt.Errorf("yields %d values for %d results", len(od.Yield), len(od.Results))
		}
		op = ir.NewLatencyOp(*od.Latency, resultTypes...)
		op.SetOperands(operands)
		b.Block().Append(op)
		if err := buildLatencyBody(op, od, syms); err != nil {
			return err
		}
	default:
		if od.Value != nil || od.Latency != nil || len(od.Body) != 0 || len(od.Yield) != 0 {
			return fmt.Errorf("value, latency, body and yield only apply to %s and %s",
				ir.ConstantOpName, ir.LatencyOpName)
		}
		op = b.Create(od.Op, operands, resultTypes...)
	}

	if od.Name != "" {
		op.SetAttr(ir.AttrName, od.Name)
	}
	if od.NameHint != "" {
		op.SetAttr(ir.AttrNameHint, od.NameHint)
	}

	for i, name := range od.Results {
		if err := syms.define(name, op.Result(i)); err != nil {
			return err
		}
	}
	return nil
}

func buildLatencyBody(op *ir.Operation, od *OpDesc, syms *scope) error {
	inner := newScope(syms)
	b := ir.NewBuilder(op.Regions()[0])
	for i := range od.Body {
		if err := buildOp(b, &od.Body[i], inner); err != nil {
			return fmt.Errorf("body op %d (%s): %w", i, od.Body[i].Op, err)
		}
	}

	yielded, err := inner.lookupAll(od.Yield)
	if err != nil {
		return fmt.Errorf("yield: %w", err)
	}
	for i, v := range yielded {
		if v.Type() != op.Result(i).Type() {
			return fmt.Errorf("yield %s has type %s, result has type %s",
				od.Yield[i], v.Type(), op.Result(i).Type())
		}
	}
	b.Block().Append(ir.NewOperation(ir.LatencyReturnOpName, yielded))
	return nil
}
