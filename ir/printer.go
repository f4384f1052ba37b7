package ir

import (
	"bytes"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// printer renders a pipeline as text. Values are numbered in order of first
// appearance, so the output only depends on the IR structure.
type printer struct {
	buf          bytes.Buffer
	names        map[*Value]string
	next         int
	placeholders int
}

func newPrinter() *printer {
	return &printer{names: make(map[*Value]string)}
}

// Print writes a textual dump of p to w.
func Print(w io.Writer, p *Pipeline) error {
	pr := newPrinter()
	pr.pipeline(p)
	_, err := w.Write(pr.buf.Bytes())
	return err
}

// PrintModule writes every pipeline of m to w.
func PrintModule(w io.Writer, m *Module) error {
	for i, p := range m.pipelines {
		if i > 0 {
			if _, err := io.WriteString(w, "\n"); err != nil {
				return err
			}
		}
		if err := Print(w, p); err != nil {
			return err
		}
	}
	return nil
}

// String returns the textual dump of the pipeline.
func (p *Pipeline) String() string {
	var sb strings.Builder
	_ = Print(&sb, p)
	return sb.String()
}

func (pr *printer) name(v *Value) string {
	if v == nil {
		return "<nil>"
	}
	if n, ok := pr.names[v]; ok {
		return n
	}
	var n string
	if v.IsPlaceholder() {
		n = "%?" + strconv.Itoa(pr.placeholders)
		pr.placeholders++
	} else {
		n = "%" + strconv.Itoa(pr.next)
		pr.next++
	}
	pr.names[v] = n
	return n
}

func (pr *printer) pipeline(p *Pipeline) {
	entry := p.EntryStage()
	for i, arg := range entry.args {
		n := p.entryArgName(i)
		if n == "" {
			n = "arg" + strconv.Itoa(i)
		}
		pr.names[arg] = "%" + n
	}

	fmt.Fprintf(&pr.buf, "pipeline @%s(%s)", p.name, pr.ports(entry.args[:len(p.inputs)]))
	if len(p.extInputs) > 0 {
		fmt.Fprintf(&pr.buf, " ext(%s)", pr.ports(p.ExtInputs()))
	}
	fmt.Fprintf(&pr.buf, " clk(%s) rst(%s)", pr.name(p.Clock()), pr.name(p.Reset()))
	if p.hasStall {
		fmt.Fprintf(&pr.buf, " stall(%s)", pr.name(p.Stall()))
	}
	pr.buf.WriteString(" {\n")

	for _, s := range p.stages {
		pr.stage(s)
	}
	pr.buf.WriteString("}\n")
}

func (pr *printer) ports(vals []*Value) string {
	parts := make([]string, len(vals))
	for i, v := range vals {
		parts[i] = pr.name(v) + ": " + v.Type().String()
	}
	return strings.Join(parts, ", ")
}

func (pr *printer) stage(s *Stage) {
	fmt.Fprintf(&pr.buf, "^%s", s.name)
	if !s.IsEntry() && len(s.args) > 0 {
		fmt.Fprintf(&pr.buf, "(%s)", pr.ports(s.args))
	}
	pr.buf.WriteString(":\n")
	for _, op := range s.ops {
		pr.op(op, 1)
	}
}

func (pr *printer) op(op *Operation, depth int) {
	indent := strings.Repeat("  ", depth)
	pr.buf.WriteString(indent)

	if op.Name() == StageOpName {
		pr.boundary(op)
		return
	}

	if len(op.results) > 0 {
		res := make([]string, len(op.results))
		for i, r := range op.results {
			res[i] = pr.name(r)
		}
		fmt.Fprintf(&pr.buf, "%s = ", strings.Join(res, ", "))
	}
	pr.buf.WriteString(op.Name())
	if len(op.operands) > 0 {
		pr.buf.WriteString(" " + pr.operandList(op.Operands()))
	}
	if len(op.attrs) > 0 {
		pr.buf.WriteString(" " + pr.attrDict(op))
	}
	if len(op.results) > 0 {
		types := make([]string, len(op.results))
		for i, r := range op.results {
			types[i] = r.Type().String()
		}
		fmt.Fprintf(&pr.buf, " : %s", strings.Join(types, ", "))
	}
	if len(op.regions) == 0 {
		pr.buf.WriteString("\n")
		return
	}
	pr.buf.WriteString(" {\n")
	for _, region := range op.regions {
		for _, nested := range region.ops {
			pr.op(nested, depth+1)
		}
	}
	pr.buf.WriteString(indent + "}\n")
}

func (pr *printer) boundary(op *Operation) {
	fmt.Fprintf(&pr.buf, "%s ^%s", op.Name(), op.successor.name)
	pr.buf.WriteString(" regs(" + pr.namedList(op.Registers(), op.regNames) + ")")
	pr.buf.WriteString(" pass(" + pr.namedList(op.Passthroughs(), op.passNames) + ")\n")
}

func (pr *printer) namedList(vals []*Value, names []string) string {
	parts := make([]string, len(vals))
	for i, v := range vals {
		parts[i] = fmt.Sprintf("%s : %s %q", pr.name(v), v.Type(), names[i])
	}
	return strings.Join(parts, ", ")
}

func (pr *printer) operandList(vals []*Value) string {
	parts := make([]string, len(vals))
	for i, v := range vals {
		parts[i] = pr.name(v)
	}
	return strings.Join(parts, ", ")
}

func (pr *printer) attrDict(op *Operation) string {
	names := op.AttrNames()
	parts := make([]string, len(names))
	for i, n := range names {
		switch v := op.attrs[n].(type) {
		case string:
			parts[i] = fmt.Sprintf("%s = %q", n, v)
		default:
			parts[i] = fmt.Sprintf("%s = %v", n, v)
		}
	}
	return "{" + strings.Join(parts, ", ") + "}"
}
