package bytecode

// Specialized call instructions produced by the specialization pass. Each
// carries the call site it replaced and canonicalizes back to a send.

type OptAnd struct{ optCall }

func (*OptAnd) Name() string { return "opt_and" }
func (i *OptAnd) ToA(*InstructionSequence) []any {
	return op("opt_and", i.CallData.ToH())
}
func (i *OptAnd) Disasm(d *Disassembler) string {
	return d.Instruction("opt_and", d.CallData(i.CallData))
}

type OptAref struct{ optCall }

func (*OptAref) Name() string { return "opt_aref" }
func (i *OptAref) ToA(*InstructionSequence) []any {
	return op("opt_aref", i.CallData.ToH())
}
func (i *OptAref) Disasm(d *Disassembler) string {
	return d.Instruction("opt_aref", d.CallData(i.CallData))
}

type OptAset struct{ optCall }

func (*OptAset) Name() string { return "opt_aset" }
func (i *OptAset) ToA(*InstructionSequence) []any {
	return op("opt_aset", i.CallData.ToH())
}
func (i *OptAset) Disasm(d *Disassembler) string {
	return d.Instruction("opt_aset", d.CallData(i.CallData))
}

type OptDiv struct{ optCall }

func (*OptDiv) Name() string { return "opt_div" }
func (i *OptDiv) ToA(*InstructionSequence) []any {
	return op("opt_div", i.CallData.ToH())
}
func (i *OptDiv) Disasm(d *Disassembler) string {
	return d.Instruction("opt_div", d.CallData(i.CallData))
}

type OptEmptyP struct{ optCall }

func (*OptEmptyP) Name() string { return "opt_empty_p" }
func (i *OptEmptyP) ToA(*InstructionSequence) []any {
	return op("opt_empty_p", i.CallData.ToH())
}
func (i *OptEmptyP) Disasm(d *Disassembler) string {
	return d.Instruction("opt_empty_p", d.CallData(i.CallData))
}

type OptEq struct{ optCall }

func (*OptEq) Name() string { return "opt_eq" }
func (i *OptEq) ToA(*InstructionSequence) []any {
	return op("opt_eq", i.CallData.ToH())
}
func (i *OptEq) Disasm(d *Disassembler) string {
	return d.Instruction("opt_eq", d.CallData(i.CallData))
}

type OptGe struct{ optCall }

func (*OptGe) Name() string { return "opt_ge" }
func (i *OptGe) ToA(*InstructionSequence) []any {
	return op("opt_ge", i.CallData.ToH())
}
func (i *OptGe) Disasm(d *Disassembler) string {
	return d.Instruction("opt_ge", d.CallData(i.CallData))
}

type OptGt struct{ optCall }

func (*OptGt) Name() string { return "opt_gt" }
func (i *OptGt) ToA(*InstructionSequence) []any {
	return op("opt_gt", i.CallData.ToH())
}
func (i *OptGt) Disasm(d *Disassembler) string {
	return d.Instruction("opt_gt", d.CallData(i.CallData))
}

type OptLe struct{ optCall }

func (*OptLe) Name() string { return "opt_le" }
func (i *OptLe) ToA(*InstructionSequence) []any {
	return op("opt_le", i.CallData.ToH())
}
func (i *OptLe) Disasm(d *Disassembler) string {
	return d.Instruction("opt_le", d.CallData(i.CallData))
}

type OptLength struct{ optCall }

func (*OptLength) Name() string { return "opt_length" }
func (i *OptLength) ToA(*InstructionSequence) []any {
	return op("opt_length", i.CallData.ToH())
}
func (i *OptLength) Disasm(d *Disassembler) string {
	return d.Instruction("opt_length", d.CallData(i.CallData))
}

type OptLt struct{ optCall }

func (*OptLt) Name() string { return "opt_lt" }
func (i *OptLt) ToA(*InstructionSequence) []any {
	return op("opt_lt", i.CallData.ToH())
}
func (i *OptLt) Disasm(d *Disassembler) string {
	return d.Instruction("opt_lt", d.CallData(i.CallData))
}

type OptLtLt struct{ optCall }

func (*OptLtLt) Name() string { return "opt_ltlt" }
func (i *OptLtLt) ToA(*InstructionSequence) []any {
	return op("opt_ltlt", i.CallData.ToH())
}
func (i *OptLtLt) Disasm(d *Disassembler) string {
	return d.Instruction("opt_ltlt", d.CallData(i.CallData))
}

type OptMinus struct{ optCall }

func (*OptMinus) Name() string { return "opt_minus" }
func (i *OptMinus) ToA(*InstructionSequence) []any {
	return op("opt_minus", i.CallData.ToH())
}
func (i *OptMinus) Disasm(d *Disassembler) string {
	return d.Instruction("opt_minus", d.CallData(i.CallData))
}

type OptMod struct{ optCall }

func (*OptMod) Name() string { return "opt_mod" }
func (i *OptMod) ToA(*InstructionSequence) []any {
	return op("opt_mod", i.CallData.ToH())
}
func (i *OptMod) Disasm(d *Disassembler) string {
	return d.Instruction("opt_mod", d.CallData(i.CallData))
}

type OptMult struct{ optCall }

func (*OptMult) Name() string { return "opt_mult" }
func (i *OptMult) ToA(*InstructionSequence) []any {
	return op("opt_mult", i.CallData.ToH())
}
func (i *OptMult) Disasm(d *Disassembler) string {
	return d.Instruction("opt_mult", d.CallData(i.CallData))
}

type OptNilP struct{ optCall }

func (*OptNilP) Name() string { return "opt_nil_p" }
func (i *OptNilP) ToA(*InstructionSequence) []any {
	return op("opt_nil_p", i.CallData.ToH())
}
func (i *OptNilP) Disasm(d *Disassembler) string {
	return d.Instruction("opt_nil_p", d.CallData(i.CallData))
}

type OptNot struct{ optCall }

func (*OptNot) Name() string { return "opt_not" }
func (i *OptNot) ToA(*InstructionSequence) []any {
	return op("opt_not", i.CallData.ToH())
}
func (i *OptNot) Disasm(d *Disassembler) string {
	return d.Instruction("opt_not", d.CallData(i.CallData))
}

type OptOr struct{ optCall }

func (*OptOr) Name() string { return "opt_or" }
func (i *OptOr) ToA(*InstructionSequence) []any {
	return op("opt_or", i.CallData.ToH())
}
func (i *OptOr) Disasm(d *Disassembler) string {
	return d.Instruction("opt_or", d.CallData(i.CallData))
}

type OptPlus struct{ optCall }

func (*OptPlus) Name() string { return "opt_plus" }
func (i *OptPlus) ToA(*InstructionSequence) []any {
	return op("opt_plus", i.CallData.ToH())
}
func (i *OptPlus) Disasm(d *Disassembler) string {
	return d.Instruction("opt_plus", d.CallData(i.CallData))
}

type OptRegexpMatch2 struct{ optCall }

func (*OptRegexpMatch2) Name() string { return "opt_regexpmatch2" }
func (i *OptRegexpMatch2) ToA(*InstructionSequence) []any {
	return op("opt_regexpmatch2", i.CallData.ToH())
}
func (i *OptRegexpMatch2) Disasm(d *Disassembler) string {
	return d.Instruction("opt_regexpmatch2", d.CallData(i.CallData))
}

type OptSize struct{ optCall }

func (*OptSize) Name() string { return "opt_size" }
func (i *OptSize) ToA(*InstructionSequence) []any {
	return op("opt_size", i.CallData.ToH())
}
func (i *OptSize) Disasm(d *Disassembler) string {
	return d.Instruction("opt_size", d.CallData(i.CallData))
}

type OptSucc struct{ optCall }

func (*OptSucc) Name() string { return "opt_succ" }
func (i *OptSucc) ToA(*InstructionSequence) []any {
	return op("opt_succ", i.CallData.ToH())
}
func (i *OptSucc) Disasm(d *Disassembler) string {
	return d.Instruction("opt_succ", d.CallData(i.CallData))
}
