package bytecode

// throw operands: a tag in the low byte, optionally or'ed with
// ThrowNoEnsure.
const (
	TagNone   = 0x0
	TagReturn = 0x1
	TagBreak  = 0x2
	TagNext   = 0x3
	TagRetry  = 0x4
	TagRedo   = 0x5
	TagRaise  = 0x6
	TagThrow  = 0x7
	TagFatal  = 0x8

	ThrowNoEnsure  = 0x8000
	ThrowStateMask = 0xff
)

// defineclass flags.
const (
	DefineClassTypeClass          = 0
	DefineClassTypeSingletonClass = 1
	DefineClassTypeModule         = 2
	DefineClassFlagScoped         = 8
	DefineClassFlagHasSuperclass  = 16
)

type Jump struct {
	insn
	Label *Label
}

func (*Jump) Name() string              { return "jump" }
func (*Jump) Length() int               { return 2 }
func (*Jump) Pops() int                 { return 0 }
func (*Jump) Pushes() int               { return 0 }
func (i *Jump) BranchTargets() []*Label { return []*Label{i.Label} }
func (i *Jump) ToA(*InstructionSequence) []any {
	return op("jump", i.Label.Symbol())
}
func (i *Jump) Disasm(d *Disassembler) string {
	return d.Instruction("jump", d.Label(i.Label))
}

type BranchIf struct{ branch }

func (*BranchIf) Name() string { return "branchif" }
func (i *BranchIf) ToA(*InstructionSequence) []any {
	return op("branchif", i.Label.Symbol())
}
func (i *BranchIf) Disasm(d *Disassembler) string {
	return d.Instruction("branchif", d.Label(i.Label))
}

type BranchUnless struct{ branch }

func (*BranchUnless) Name() string { return "branchunless" }
func (i *BranchUnless) ToA(*InstructionSequence) []any {
	return op("branchunless", i.Label.Symbol())
}
func (i *BranchUnless) Disasm(d *Disassembler) string {
	return d.Instruction("branchunless", d.Label(i.Label))
}

type BranchNil struct{ branch }

func (*BranchNil) Name() string { return "branchnil" }
func (i *BranchNil) ToA(*InstructionSequence) []any {
	return op("branchnil", i.Label.Symbol())
}
func (i *BranchNil) Disasm(d *Disassembler) string {
	return d.Instruction("branchnil", d.Label(i.Label))
}

// Leave returns the top of the stack to the caller. It is recorded as
// pushing nothing so the depth of a finished frame is zero.
type Leave struct{ insn }

func (*Leave) Name() string                   { return "leave" }
func (*Leave) Length() int                    { return 1 }
func (*Leave) Pops() int                      { return 1 }
func (*Leave) Pushes() int                    { return 0 }
func (*Leave) Leaves() bool                   { return true }
func (*Leave) ToA(*InstructionSequence) []any { return op("leave") }
func (*Leave) Disasm(d *Disassembler) string  { return d.Instruction("leave") }

type Throw struct {
	insn
	Type int
}

func (*Throw) Name() string  { return "throw" }
func (*Throw) Length() int   { return 2 }
func (*Throw) Pops() int     { return 1 }
func (*Throw) Pushes() int   { return 1 }
func (*Throw) Leaves() bool  { return true }
func (i *Throw) ToA(*InstructionSequence) []any {
	return op("throw", int64(i.Type))
}
func (i *Throw) Disasm(d *Disassembler) string {
	return d.Instruction("throw", d.Object(i.Type))
}

// Once runs ISeq the first time it is reached and caches the result.
type Once struct {
	insn
	ISeq  *InstructionSequence
	Cache int
}

func (*Once) Name() string { return "once" }
func (*Once) Length() int  { return 3 }
func (*Once) Pops() int    { return 0 }
func (*Once) Pushes() int  { return 1 }
func (i *Once) ToA(*InstructionSequence) []any {
	return op("once", i.ISeq.ToA(), int64(i.Cache))
}
func (i *Once) Disasm(d *Disassembler) string {
	d.Enqueue(i.ISeq)
	return d.Instruction("once", d.ISeq(i.ISeq), d.InlineStorage(i.Cache))
}

// OptCaseDispatch jumps straight to the matching when clause for static
// literal keys. Each Pairs value is a *Label.
type OptCaseDispatch struct {
	insn
	CaseDispatchHash Pairs
	ElseLabel        *Label
}

func (*OptCaseDispatch) Name() string       { return "opt_case_dispatch" }
func (*OptCaseDispatch) Length() int        { return 3 }
func (*OptCaseDispatch) Pops() int          { return 1 }
func (*OptCaseDispatch) Pushes() int        { return 0 }
func (*OptCaseDispatch) FallsThrough() bool { return true }
func (i *OptCaseDispatch) BranchTargets() []*Label {
	targets := make([]*Label, 0, len(i.CaseDispatchHash)+1)
	for _, p := range i.CaseDispatchHash {
		targets = append(targets, p.Value.(*Label))
	}
	return append(targets, i.ElseLabel)
}
func (i *OptCaseDispatch) ToA(*InstructionSequence) []any {
	flat := make([]any, 0, len(i.CaseDispatchHash)*2)
	for _, p := range i.CaseDispatchHash {
		flat = append(flat, p.Key, p.Value.(*Label).Symbol())
	}
	return op("opt_case_dispatch", flat, i.ElseLabel.Symbol())
}
func (i *OptCaseDispatch) Disasm(d *Disassembler) string {
	var sb []string
	for _, p := range i.CaseDispatchHash {
		sb = append(sb, d.Object(p.Key)+" => "+d.Label(p.Value.(*Label)))
	}
	hash := "<cdhash>"
	if len(sb) > 0 {
		hash = "<cdhash:" + joinComma(sb) + ">"
	}
	return d.Instruction("opt_case_dispatch", hash, d.Label(i.ElseLabel))
}

type DefineMethod struct {
	insn
	Method     string
	MethodISeq *InstructionSequence
}

func (*DefineMethod) Name() string { return "definemethod" }
func (*DefineMethod) Length() int  { return 3 }
func (*DefineMethod) Pops() int    { return 0 }
func (*DefineMethod) Pushes() int  { return 0 }
func (i *DefineMethod) ToA(*InstructionSequence) []any {
	return op("definemethod", Symbol(i.Method), i.MethodISeq.ToA())
}
func (i *DefineMethod) Disasm(d *Disassembler) string {
	d.Enqueue(i.MethodISeq)
	return d.Instruction("definemethod", d.Object(Symbol(i.Method)), d.ISeq(i.MethodISeq))
}

type DefineSMethod struct {
	insn
	Method     string
	MethodISeq *InstructionSequence
}

func (*DefineSMethod) Name() string { return "definesmethod" }
func (*DefineSMethod) Length() int  { return 3 }
func (*DefineSMethod) Pops() int    { return 1 }
func (*DefineSMethod) Pushes() int  { return 0 }
func (i *DefineSMethod) ToA(*InstructionSequence) []any {
	return op("definesmethod", Symbol(i.Method), i.MethodISeq.ToA())
}
func (i *DefineSMethod) Disasm(d *Disassembler) string {
	d.Enqueue(i.MethodISeq)
	return d.Instruction("definesmethod", d.Object(Symbol(i.Method)), d.ISeq(i.MethodISeq))
}

// DefineClass pops the constant base and the superclass and pushes the
// value of the class body.
type DefineClass struct {
	insn
	Constant  string
	ClassISeq *InstructionSequence
	Flags     int
}

func (*DefineClass) Name() string { return "defineclass" }
func (*DefineClass) Length() int  { return 4 }
func (*DefineClass) Pops() int    { return 2 }
func (*DefineClass) Pushes() int  { return 1 }
func (i *DefineClass) ToA(*InstructionSequence) []any {
	return op("defineclass", Symbol(i.Constant), i.ClassISeq.ToA(), int64(i.Flags))
}
func (i *DefineClass) Disasm(d *Disassembler) string {
	d.Enqueue(i.ClassISeq)
	return d.Instruction("defineclass", d.Object(Symbol(i.Constant)), d.ISeq(i.ClassISeq), d.Object(i.Flags))
}
