package regs_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/explicitregs/ir"
	"github.com/sarchlab/explicitregs/transforms/regs"
)

var _ = Describe("NameResolver", func() {
	var (
		p        *ir.Pipeline
		b        *ir.Builder
		a        *ir.Value
		resolver *regs.NameResolver
	)

	BeforeEach(func() {
		p = ir.NewPipeline("p", []ir.Port{{Name: "a", Type: ir.IntType(32)}}, nil, false)
		b = ir.NewBuilder(p.EntryStage().Body())
		a = p.Inputs()[0]
		resolver = regs.NewNameResolver(p)
	})

	It("should use the naming hook of constants", func() {
		c := b.Constant(ir.IntType(32), 42)

		Expect(resolver.Name(c)).To(Equal("c42_i32"))
	})

	It("should use the name attribute of registers", func() {
		op := b.Create(ir.CompRegOpName, []*ir.Value{a, p.Clock()}, ir.IntType(32))
		op.SetAttr(ir.AttrName, "acc")

		Expect(resolver.Name(op.Result(0))).To(Equal("acc"))
	})

	It("should prefer the naming hook over a name hint", func() {
		op := b.Create(ir.CompRegOpName, []*ir.Value{a, p.Clock()}, ir.IntType(32))
		op.SetAttr(ir.AttrNameHint, "hint")

		Expect(resolver.Name(op.Result(0))).To(Equal(""))
	})

	It("should use name hints", func() {
		op := b.Create("comb.add", []*ir.Value{a, a}, ir.IntType(32))
		op.SetAttr(ir.AttrNameHint, "sum")

		Expect(resolver.Name(op.Result(0))).To(Equal("sum"))
	})

	It("should name pipeline arguments", func() {
		Expect(resolver.Name(a)).To(Equal("a"))
		Expect(resolver.Name(p.Clock())).To(Equal("clk"))
	})

	It("should fall back to an empty name", func() {
		v := b.Value("comb.add", ir.IntType(32), a, a)

		Expect(resolver.Name(v)).To(Equal(""))
		Expect(resolver.Name(ir.NewPlaceholder(ir.IntType(1)))).To(Equal(""))
	})
})
