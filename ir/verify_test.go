package ir_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/explicitregs/ir"
)

var _ = Describe("Verify", func() {
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

	It("should accept a well formed pipeline", func() {
		ir.NewBuilder(s0.Body()).StageTo(s1)
		b := ir.NewBuilder(s1.Body())
		b.Return(b.Value("comb.add", ir.IntType(32), a, a))

		Expect(ir.Verify(p)).To(Succeed())
	})

	It("should reject an unterminated stage", func() {
		ir.NewBuilder(s0.Body()).StageTo(s1)

		err := ir.Verify(p)
		Expect(err).To(MatchError(ContainSubstring("stage s1: missing terminator")))
	})

	It("should reject a boundary whose arity does not match", func() {
		s0.SetTerminator(ir.NewStageOp(s1, []*ir.Value{a}, nil, []string{"a"}, nil))
		ir.NewBuilder(s1.Body()).Return()

		err := ir.Verify(p)
		Expect(err).To(MatchError(ContainSubstring("carries 1 values but stage s1 has 0 arguments")))
	})

	It("should reject placeholders", func() {
		ir.NewBuilder(s0.Body()).StageTo(s1)
		ir.NewBuilder(s1.Body()).Return(ir.NewPlaceholder(ir.IntType(32)))

		Expect(ir.Verify(p)).To(MatchError(ContainSubstring("unresolved placeholder")))
	})

	It("should reject values from another pipeline", func() {
		other := ir.NewPipeline("other", []ir.Port{{Name: "z", Type: ir.IntType(32)}}, nil, false)
		ir.NewBuilder(s0.Body()).StageTo(s1)
		ir.NewBuilder(s1.Body()).Return(other.Inputs()[0])

		Expect(ir.Verify(p)).To(MatchError(ContainSubstring("defined outside the pipeline")))
	})

	It("should reject an unterminated latency body", func() {
		b := ir.NewBuilder(s0.Body())
		b.Create(ir.LatencyOpName, nil, ir.IntType(32)).AddRegion()
		b.StageTo(s1)
		ir.NewBuilder(s1.Body()).Return()

		Expect(ir.Verify(p)).To(MatchError(ContainSubstring("body is not terminated")))
	})

	It("should reject a negative latency", func() {
		b := ir.NewBuilder(s0.Body())
		b.Latency(-3, []ir.Type{ir.IntType(32)}, func(body *ir.Builder) []*ir.Value {
			return []*ir.Value{a}
		})
		b.StageTo(s1)
		ir.NewBuilder(s1.Body()).Return()

		Expect(ir.Verify(p)).To(MatchError(ContainSubstring("needs a non-negative latency")))
	})

	It("should accept a zero latency", func() {
		b := ir.NewBuilder(s0.Body())
		b.Latency(0, []ir.Type{ir.IntType(32)}, func(body *ir.Builder) []*ir.Value {
			return []*ir.Value{a}
		})
		b.StageTo(s1)
		ir.NewBuilder(s1.Body()).Return()

		Expect(ir.Verify(p)).To(Succeed())
	})

	Describe("VerifyExplicit", func() {
		It("should flag implicit cross stage references", func() {
			ir.NewBuilder(s0.Body()).StageTo(s1)
			ir.NewBuilder(s1.Body()).Return(a)

			Expect(ir.VerifyExplicit(p)).To(MatchError(ContainSubstring("refers to a value of another stage")))
		})

		It("should allow constants, clocks and local values", func() {
			b0 := ir.NewBuilder(s0.Body())
			c := b0.Constant(ir.IntType(32), 1)
			b0.StageTo(s1)
			b1 := ir.NewBuilder(s1.Body())
			reg := b1.Value(ir.CompRegOpName, ir.IntType(32), c, p.Clock())
			b1.Return(reg)

			Expect(ir.VerifyExplicit(p)).To(Succeed())
		})
	})
})
