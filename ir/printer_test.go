package ir_test

import (
	"bytes"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/explicitregs/ir"
)

var _ = Describe("Printer", func() {
	var (
		p      *ir.Pipeline
		s0, s1 *ir.Stage
		a      *ir.Value
	)

	BeforeEach(func() {
		p = ir.NewPipeline("p", []ir.Port{{Name: "a", Type: ir.IntType(32)}}, nil, false)
		s0 = p.EntryStage()
		s1 = p.AddStage("s1")
		a = p.Inputs()[0]
	})

	It("should print stages, operations and attributes", func() {
		b := ir.NewBuilder(s0.Body())
		c := b.Constant(ir.IntType(32), 3)
		x := b.Value("comb.add", ir.IntType(32), a, c)
		b.StageTo(s1)
		ir.NewBuilder(s1.Body()).Return(x)

		Expect(p.String()).To(Equal(
			"pipeline @p(%a: i32) clk(%clk) rst(%rst) {\n" +
				"^s0:\n" +
				"  %0 = hw.constant {value = 3} : i32\n" +
				"  %1 = comb.add %a, %0 : i32\n" +
				"  pipeline.stage ^s1 regs() pass()\n" +
				"^s1:\n" +
				"  pipeline.return %1\n" +
				"}\n"))
	})

	It("should print boundary operands with their names", func() {
		b := ir.NewBuilder(s0.Body())
		x := b.Value("comb.add", ir.IntType(32), a, a)
		s0.SetTerminator(ir.NewStageOp(s1, []*ir.Value{x}, []*ir.Value{a}, []string{"x"}, []string{"a"}))
		r := s1.AddArgument(ir.IntType(32))
		s1.AddArgument(ir.IntType(32))
		ir.NewBuilder(s1.Body()).Return(r)

		Expect(p.String()).To(Equal(
			"pipeline @p(%a: i32) clk(%clk) rst(%rst) {\n" +
				"^s0:\n" +
				"  %0 = comb.add %a, %a : i32\n" +
				"  pipeline.stage ^s1 regs(%0 : i32 \"x\") pass(%a : i32 \"a\")\n" +
				"^s1(%1: i32, %2: i32):\n" +
				"  pipeline.return %1\n" +
				"}\n"))
	})

	It("should print nested regions", func() {
		b := ir.NewBuilder(s0.Body())
		b.Latency(2, []ir.Type{ir.IntType(32)}, func(body *ir.Builder) []*ir.Value {
			return []*ir.Value{body.Value("comb.mul", ir.IntType(32), a, a)}
		})
		b.Return()

		Expect(p.String()).To(ContainSubstring(
			"  %0 = pipeline.latency {latency = 2} : i32 {\n" +
				"    %1 = comb.mul %a, %a : i32\n" +
				"    pipeline.latency.return %1\n" +
				"  }\n"))
	})

	It("should separate pipelines of a module", func() {
		m := ir.NewModule()
		q := ir.NewPipeline("q", nil, nil, true)
		ir.NewBuilder(q.EntryStage().Body()).Return()
		ir.NewBuilder(s0.Body()).Return()
		m.Add(p)
		m.Add(q)

		var buf bytes.Buffer
		Expect(ir.PrintModule(&buf, m)).To(Succeed())
		Expect(buf.String()).To(ContainSubstring("}\n\npipeline @q() clk(%clk) rst(%rst) stall(%stall) {\n"))
	})
})
