package bytecode

// Instruction is implemented by every opcode. Pops and Pushes give the
// net stack effect used for depth tracking; BranchTargets, FallsThrough
// and Leaves describe control flow; ToA produces the serialized
// [opcode, operand...] form resolved against the owning sequence.
type Instruction interface {
	Name() string
	Length() int
	Pops() int
	Pushes() int
	BranchTargets() []*Label
	FallsThrough() bool
	Leaves() bool
	SideEffects() bool
	ToA(iseq *InstructionSequence) []any
	Disasm(d *Disassembler) string
}

// Canonicalizer is implemented by specialized instructions that can be
// expressed as a more general one.
type Canonicalizer interface {
	Canonical() Instruction
}

// Canonical returns the general form of insn, or insn itself.
func Canonical(insn Instruction) Instruction {
	if c, ok := insn.(Canonicalizer); ok {
		return c.Canonical()
	}
	return insn
}

// ChildISeqs returns the sequences an instruction owns.
func ChildISeqs(insn Instruction) []*InstructionSequence {
	var out []*InstructionSequence
	add := func(iseq *InstructionSequence) {
		if iseq != nil {
			out = append(out, iseq)
		}
	}
	switch i := insn.(type) {
	case *DefineClass:
		add(i.ClassISeq)
	case *DefineMethod:
		add(i.MethodISeq)
	case *DefineSMethod:
		add(i.MethodISeq)
	case *Send:
		add(i.BlockISeq)
	case *InvokeSuper:
		add(i.BlockISeq)
	case *Once:
		add(i.ISeq)
	}
	return out
}

// insn supplies the defaults shared by most instructions: no branch
// targets, no fall-through flag, stays in frame, has side effects.
type insn struct{}

func (insn) BranchTargets() []*Label { return nil }
func (insn) FallsThrough() bool      { return false }
func (insn) Leaves() bool            { return false }
func (insn) SideEffects() bool       { return true }

// pure marks instructions that only shuffle the operand stack.
type pure struct{ insn }

func (pure) SideEffects() bool { return false }

// branch supplies the flags of a conditional branch.
type branch struct {
	insn
	Label *Label
}

func (b branch) BranchTargets() []*Label { return []*Label{b.Label} }
func (branch) FallsThrough() bool        { return true }
func (branch) Length() int               { return 2 }
func (branch) Pops() int                 { return 1 }
func (branch) Pushes() int               { return 0 }

func op(name string, operands ...any) []any {
	return append([]any{Symbol(name)}, operands...)
}
