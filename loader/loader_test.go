package loader_test

import (
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/explicitregs/ir"
	"github.com/sarchlab/explicitregs/loader"
)

const macYAML = `
pipelines:
  - name: mac
    inputs:
      - {name: a, type: i32}
      - {name: b, type: i32}
    ext_inputs:
      - {name: bias, type: i32}
    stall: true
    stages:
      - name: s0
        ops:
          - {results: [p], op: comb.mul, operands: [a, b], type: i32, namehint: prod}
          - {results: [one], op: hw.constant, value: 1, type: i32}
        next: s1
      - name: s1
        ops:
          - results: [m]
            op: pipeline.latency
            latency: 2
            type: i32
            body:
              - {results: [q], op: comb.add, operands: [p, one], type: i32}
            yield: [q]
        next: s2
      - name: s2
        ops:
          - {results: [s], op: comb.add, operands: [m, bias], type: i32}
        return: [s]
`

var _ = Describe("Parse", func() {
	It("should build a pipeline with stages, ops and nested bodies", func() {
		m, err := loader.Parse([]byte(macYAML))

		Expect(err).NotTo(HaveOccurred())
		Expect(m.Pipelines()).To(HaveLen(1))
		p := m.Pipeline("mac")
		Expect(p).NotTo(BeNil())
		Expect(p.Stages()).To(HaveLen(3))
		Expect(p.Inputs()).To(HaveLen(2))
		Expect(p.ExtInputs()).To(HaveLen(1))
		Expect(p.HasStall()).To(BeTrue())
		Expect(ir.Verify(p)).To(Succeed())

		s0 := p.EntryStage()
		ops := s0.Body().Operations()
		Expect(ops).To(HaveLen(3))
		Expect(ops[0].Name()).To(Equal("comb.mul"))
		Expect(ops[0].Operands()).To(Equal(p.Inputs()))
		hint, ok := ops[0].StringAttr(ir.AttrNameHint)
		Expect(ok).To(BeTrue())
		Expect(hint).To(Equal("prod"))
		Expect(ops[1].Has(ir.TraitConstantLike)).To(BeTrue())
		Expect(s0.Terminator().NextStage()).To(Equal(p.Stage("s1")))

		lat := p.Stage("s1").Body().Operations()[0]
		Expect(lat.Name()).To(Equal(ir.LatencyOpName))
		Expect(lat.Result(0).Latency()).To(Equal(int64(2)))
		body := lat.Regions()[0].Operations()
		Expect(body).To(HaveLen(2))
		Expect(body[0].Operand(0)).To(Equal(ops[0].Result(0)))
		Expect(body[1].Name()).To(Equal(ir.LatencyReturnOpName))

		add := p.Stage("s2").Body().Operations()[0]
		Expect(add.Operand(0)).To(Equal(lat.Result(0)))
		Expect(add.Operand(1)).To(Equal(p.ExtInputs()[0]))
		Expect(p.Stage("s2").Terminator().Name()).To(Equal(ir.ReturnOpName))
	})

	It("should rename the entry stage", func() {
		m, err := loader.Parse([]byte(`
pipelines:
  - name: p
    stages:
      - {name: first, return: [clk]}
`))

		Expect(err).NotTo(HaveOccurred())
		p := m.Pipeline("p")
		Expect(p.EntryStage().Name()).To(Equal("first"))
		Expect(p.EntryStage().Terminator().Operand(0)).To(Equal(p.Clock()))
	})

	It("should keep explicit boundary operands and stage args", func() {
		m, err := loader.Parse([]byte(`
pipelines:
  - name: p
    inputs: [{name: a, type: i8}, {name: b, type: i8}]
    stages:
      - {name: s0, next: s1, regs: [a], passes: [b]}
      - name: s1
        args: [{name: x, type: i8}, {name: y, type: i8}]
        ops:
          - {results: [r], op: seq.compreg, operands: [x, clk], type: i8, name: held}
        return: [r, y]
`))

		Expect(err).NotTo(HaveOccurred())
		p := m.Pipeline("p")
		term := p.EntryStage().Terminator()
		Expect(term.Registers()).To(Equal(p.Inputs()[:1]))
		Expect(term.Passthroughs()).To(Equal(p.Inputs()[1:]))
		Expect(term.RegisterNames()).To(Equal([]string{"a"}))
		Expect(term.PassthroughNames()).To(Equal([]string{"b"}))
		s1 := p.Stage("s1")
		Expect(s1.NumArgs()).To(Equal(2))
		Expect(p.ArgumentName(s1.Arg(1))).To(Equal("b"))
		name, _ := s1.Body().Operations()[0].StringAttr(ir.AttrName)
		Expect(name).To(Equal("held"))
		Expect(ir.Verify(p)).To(Succeed())
	})

	It("should load several pipelines in order", func() {
		m, err := loader.Parse([]byte(`
pipelines:
  - {name: p, stages: [{name: s0}]}
  - {name: q, stages: [{name: s0}]}
`))

		Expect(err).NotTo(HaveOccurred())
		Expect(m.Pipelines()).To(HaveLen(2))
		Expect(m.Pipelines()[0].Name()).To(Equal("p"))
		Expect(m.Pipelines()[1].Name()).To(Equal("q"))
	})

	DescribeTable("should reject malformed descriptions",
		func(doc, message string) {
			_, err := loader.Parse([]byte(doc))
			Expect(err).To(MatchError(ContainSubstring(message)))
		},
		Entry("invalid yaml", "pipelines: [", "failed to parse"),
		Entry("unnamed pipeline", `pipelines: [{stages: [{name: s0}]}]`, "has no name"),
		Entry("duplicate pipeline",
			`pipelines: [{name: p, stages: [{name: s0}]}, {name: p, stages: [{name: s0}]}]`,
			"pipeline p defined twice"),
		Entry("no stages", `pipelines: [{name: p}]`, "no stages"),
		Entry("bad type", `pipelines: [{name: p, inputs: [{name: a, type: f32}], stages: [{name: s0}]}]`,
			"port a"),
		Entry("duplicate stage",
			`pipelines: [{name: p, stages: [{name: s0, next: s0}, {name: s0}]}]`,
			"stage s0 defined twice"),
		Entry("use before definition", `
pipelines:
  - name: p
    stages:
      - {name: s0, ops: [{results: [x], op: comb.add, operands: [y], type: i1}]}
`, "value y used before it is defined"),
		Entry("unknown next stage", `pipelines: [{name: p, stages: [{name: s0, next: s9}]}]`,
			"next stage s9 does not exist"),
		Entry("return and next", `
pipelines:
  - {name: p, stages: [{name: s0, next: s1, return: [clk]}, {name: s1}]}
`, "cannot both return and continue"),
		Entry("constant without value", `
pipelines:
  - {name: p, stages: [{name: s0, ops: [{results: [c], op: hw.constant, type: i4}]}]}
`, "a constant needs a value"),
		Entry("latency without latency", `
pipelines:
  - {name: p, stages: [{name: s0, ops: [{results: [c], op: pipeline.latency, type: i4, yield: [clk]}]}]}
`, "missing latency"),
		Entry("negative latency", `
pipelines:
  - {name: p, stages: [{name: s0, ops: [{results: [c], op: pipeline.latency, latency: -3, type: i4, yield: [clk]}]}]}
`, "negative latency -3"),
		Entry("zero width type", `pipelines: [{name: p, inputs: [{name: a, type: i0}], stages: [{name: s0}]}]`,
			`invalid type "i0"`),
		Entry("yield mismatch", `
pipelines:
  - {name: p, stages: [{name: s0, ops: [{results: [c], op: pipeline.latency, latency: 1, type: i4}]}]}
`, "yields 0 values for 1 results"),
		Entry("explicit terminator", `
pipelines:
  - {name: p, stages: [{name: s0, ops: [{op: pipeline.return}]}]}
`, "terminators are written as"),
		Entry("redefined value", `
pipelines:
  - name: p
    inputs: [{name: a, type: i1}]
    stages:
      - {name: s0, ops: [{results: [a], op: comb.not, operands: [a], type: i1}]}
`, "value a defined twice"),
		Entry("entry args", `
pipelines:
  - {name: p, stages: [{name: s0, args: [{name: x, type: i1}]}]}
`, "entry stage s0 cannot declare args"),
	)
})

var _ = Describe("Load", func() {
	var dir string

	BeforeEach(func() {
		var err error
		dir, err = os.MkdirTemp("", "loader-test")
		Expect(err).NotTo(HaveOccurred())
	})

	AfterEach(func() {
		os.RemoveAll(dir)
	})

	It("should load a description from disk", func() {
		path := filepath.Join(dir, "mac.yaml")
		Expect(os.WriteFile(path, []byte(macYAML), 0o644)).To(Succeed())

		m, err := loader.Load(path)

		Expect(err).NotTo(HaveOccurred())
		Expect(m.Pipeline("mac")).NotTo(BeNil())
	})

	It("should return an error for a missing file", func() {
		_, err := loader.Load(filepath.Join(dir, "missing.yaml"))

		Expect(err).To(MatchError(ContainSubstring("failed to read pipeline description")))
	})

	It("should name the file in load errors", func() {
		path := filepath.Join(dir, "bad.yaml")
		Expect(os.WriteFile(path, []byte("pipelines: [{name: p}]"), 0o644)).To(Succeed())

		_, err := loader.Load(path)

		Expect(err).To(MatchError(ContainSubstring(path)))
	})
})
