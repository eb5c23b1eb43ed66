package bytecode

func blockArgCount(cd *CallData) int {
	if cd.Flag(CallArgsBlockarg) {
		return 1
	}
	return 0
}

// Send calls a method on the receiver below the arguments, optionally
// passing a literal block.
type Send struct {
	insn
	CallData  *CallData
	BlockISeq *InstructionSequence
}

func (*Send) Name() string  { return "send" }
func (*Send) Length() int   { return 3 }
func (i *Send) Pops() int   { return blockArgCount(i.CallData) + i.CallData.Argc + 1 }
func (*Send) Pushes() int   { return 1 }
func (i *Send) ToA(*InstructionSequence) []any {
	var block any
	if i.BlockISeq != nil {
		block = i.BlockISeq.ToA()
	}
	return op("send", i.CallData.ToH(), block)
}
func (i *Send) Disasm(d *Disassembler) string {
	if i.BlockISeq != nil {
		d.Enqueue(i.BlockISeq)
	}
	return d.Instruction("send", d.CallData(i.CallData), d.ISeq(i.BlockISeq))
}

type OptSendWithoutBlock struct {
	insn
	CallData *CallData
}

func (*OptSendWithoutBlock) Name() string  { return "opt_send_without_block" }
func (*OptSendWithoutBlock) Length() int   { return 2 }
func (i *OptSendWithoutBlock) Pops() int   { return blockArgCount(i.CallData) + i.CallData.Argc + 1 }
func (*OptSendWithoutBlock) Pushes() int   { return 1 }
func (i *OptSendWithoutBlock) Canonical() Instruction {
	return &Send{CallData: i.CallData}
}
func (i *OptSendWithoutBlock) ToA(*InstructionSequence) []any {
	return op("opt_send_without_block", i.CallData.ToH())
}
func (i *OptSendWithoutBlock) Disasm(d *Disassembler) string {
	return d.Instruction("opt_send_without_block", d.CallData(i.CallData))
}

// optCall is shared by the operator specializations: they consume the
// receiver and the call's arguments and push one result.
type optCall struct {
	insn
	CallData *CallData
}

func (optCall) Length() int              { return 2 }
func (o optCall) Pops() int              { return o.CallData.Argc + 1 }
func (optCall) Pushes() int              { return 1 }
func (o optCall) Canonical() Instruction { return &Send{CallData: o.CallData} }

// OptNEq carries the call site of the == it falls back on and the
// original != call site.
type OptNEq struct {
	insn
	EqCallData *CallData
	CallData   *CallData
}

func (*OptNEq) Name() string             { return "opt_neq" }
func (*OptNEq) Length() int              { return 3 }
func (*OptNEq) Pops() int                { return 2 }
func (*OptNEq) Pushes() int              { return 1 }
func (i *OptNEq) Canonical() Instruction { return &Send{CallData: i.CallData} }
func (i *OptNEq) ToA(*InstructionSequence) []any {
	return op("opt_neq", i.EqCallData.ToH(), i.CallData.ToH())
}
func (i *OptNEq) Disasm(d *Disassembler) string {
	return d.Instruction("opt_neq", d.CallData(i.EqCallData), d.CallData(i.CallData))
}

type OptNewArrayMax struct {
	insn
	Number int
}

func (*OptNewArrayMax) Name() string  { return "opt_newarray_max" }
func (*OptNewArrayMax) Length() int   { return 2 }
func (i *OptNewArrayMax) Pops() int   { return i.Number }
func (*OptNewArrayMax) Pushes() int   { return 1 }
func (i *OptNewArrayMax) ToA(*InstructionSequence) []any {
	return op("opt_newarray_max", int64(i.Number))
}
func (i *OptNewArrayMax) Disasm(d *Disassembler) string {
	return d.Instruction("opt_newarray_max", d.Object(i.Number))
}

type OptNewArrayMin struct {
	insn
	Number int
}

func (*OptNewArrayMin) Name() string  { return "opt_newarray_min" }
func (*OptNewArrayMin) Length() int   { return 2 }
func (i *OptNewArrayMin) Pops() int   { return i.Number }
func (*OptNewArrayMin) Pushes() int   { return 1 }
func (i *OptNewArrayMin) ToA(*InstructionSequence) []any {
	return op("opt_newarray_min", int64(i.Number))
}
func (i *OptNewArrayMin) Disasm(d *Disassembler) string {
	return d.Instruction("opt_newarray_min", d.Object(i.Number))
}

type OptStrFreeze struct {
	insn
	Object   string
	CallData *CallData
}

func (*OptStrFreeze) Name() string { return "opt_str_freeze" }
func (*OptStrFreeze) Length() int  { return 3 }
func (*OptStrFreeze) Pops() int    { return 0 }
func (*OptStrFreeze) Pushes() int  { return 1 }
func (i *OptStrFreeze) ToA(*InstructionSequence) []any {
	return op("opt_str_freeze", i.Object, i.CallData.ToH())
}
func (i *OptStrFreeze) Disasm(d *Disassembler) string {
	return d.Instruction("opt_str_freeze", d.Object(i.Object), d.CallData(i.CallData))
}

type OptStrUMinus struct {
	insn
	Object   string
	CallData *CallData
}

func (*OptStrUMinus) Name() string { return "opt_str_uminus" }
func (*OptStrUMinus) Length() int  { return 3 }
func (*OptStrUMinus) Pops() int    { return 0 }
func (*OptStrUMinus) Pushes() int  { return 1 }
func (i *OptStrUMinus) ToA(*InstructionSequence) []any {
	return op("opt_str_uminus", i.Object, i.CallData.ToH())
}
func (i *OptStrUMinus) Disasm(d *Disassembler) string {
	return d.Instruction("opt_str_uminus", d.Object(i.Object), d.CallData(i.CallData))
}

// OptArefWith is recv["literal"] with the key folded into the operand.
type OptArefWith struct {
	insn
	Object   string
	CallData *CallData
}

func (*OptArefWith) Name() string { return "opt_aref_with" }
func (*OptArefWith) Length() int  { return 3 }
func (*OptArefWith) Pops() int    { return 1 }
func (*OptArefWith) Pushes() int  { return 1 }
func (i *OptArefWith) ToA(*InstructionSequence) []any {
	return op("opt_aref_with", i.Object, i.CallData.ToH())
}
func (i *OptArefWith) Disasm(d *Disassembler) string {
	return d.Instruction("opt_aref_with", d.Object(i.Object), d.CallData(i.CallData))
}

// OptAsetWith is recv["literal"] = value with the key folded in.
type OptAsetWith struct {
	insn
	Object   string
	CallData *CallData
}

func (*OptAsetWith) Name() string { return "opt_aset_with" }
func (*OptAsetWith) Length() int  { return 3 }
func (*OptAsetWith) Pops() int    { return 2 }
func (*OptAsetWith) Pushes() int  { return 1 }
func (i *OptAsetWith) ToA(*InstructionSequence) []any {
	return op("opt_aset_with", i.Object, i.CallData.ToH())
}
func (i *OptAsetWith) Disasm(d *Disassembler) string {
	return d.Instruction("opt_aset_with", d.Object(i.Object), d.CallData(i.CallData))
}

type InvokeBlock struct {
	insn
	CallData *CallData
}

func (*InvokeBlock) Name() string  { return "invokeblock" }
func (*InvokeBlock) Length() int   { return 2 }
func (i *InvokeBlock) Pops() int   { return i.CallData.Argc }
func (*InvokeBlock) Pushes() int   { return 1 }
func (i *InvokeBlock) ToA(*InstructionSequence) []any {
	return op("invokeblock", i.CallData.ToH())
}
func (i *InvokeBlock) Disasm(d *Disassembler) string {
	return d.Instruction("invokeblock", d.CallData(i.CallData))
}

type InvokeSuper struct {
	insn
	CallData  *CallData
	BlockISeq *InstructionSequence
}

func (*InvokeSuper) Name() string  { return "invokesuper" }
func (*InvokeSuper) Length() int   { return 3 }
func (i *InvokeSuper) Pops() int   { return blockArgCount(i.CallData) + i.CallData.Argc + 1 }
func (*InvokeSuper) Pushes() int   { return 1 }
func (i *InvokeSuper) ToA(*InstructionSequence) []any {
	var block any
	if i.BlockISeq != nil {
		block = i.BlockISeq.ToA()
	}
	return op("invokesuper", i.CallData.ToH(), block)
}
func (i *InvokeSuper) Disasm(d *Disassembler) string {
	if i.BlockISeq != nil {
		d.Enqueue(i.BlockISeq)
	}
	return d.Instruction("invokesuper", d.CallData(i.CallData), d.ISeq(i.BlockISeq))
}

// InvokeBuiltin calls a function from the interpreter's builtin table.
type InvokeBuiltin struct {
	insn
	Builtin string
	Argc    int
}

func (*InvokeBuiltin) Name() string  { return "invokebuiltin" }
func (*InvokeBuiltin) Length() int   { return 2 }
func (i *InvokeBuiltin) Pops() int   { return i.Argc }
func (*InvokeBuiltin) Pushes() int   { return 1 }
func (i *InvokeBuiltin) builtin() Pairs {
	return Pairs{{Key: Symbol("name"), Value: Symbol(i.Builtin)}, {Key: Symbol("argc"), Value: int64(i.Argc)}}
}
func (i *InvokeBuiltin) ToA(*InstructionSequence) []any {
	return op("invokebuiltin", i.builtin())
}
func (i *InvokeBuiltin) Disasm(d *Disassembler) string {
	return d.Instruction("invokebuiltin", "<builtin!"+i.Builtin+"/"+d.Object(i.Argc)+">")
}

// OptInvokeBuiltinDelegate calls a builtin with a run of the frame's
// locals starting at Index.
type OptInvokeBuiltinDelegate struct {
	insn
	Builtin string
	Argc    int
	Index   int
}

func (*OptInvokeBuiltinDelegate) Name() string { return "opt_invokebuiltin_delegate" }
func (*OptInvokeBuiltinDelegate) Length() int  { return 3 }
func (*OptInvokeBuiltinDelegate) Pops() int    { return 0 }
func (*OptInvokeBuiltinDelegate) Pushes() int  { return 1 }
func (i *OptInvokeBuiltinDelegate) ToA(*InstructionSequence) []any {
	return op("opt_invokebuiltin_delegate", (&InvokeBuiltin{Builtin: i.Builtin, Argc: i.Argc}).builtin(), int64(i.Index))
}
func (i *OptInvokeBuiltinDelegate) Disasm(d *Disassembler) string {
	return d.Instruction("opt_invokebuiltin_delegate", "<builtin!"+i.Builtin+"/"+d.Object(i.Argc)+">", d.Object(i.Index))
}

type OptInvokeBuiltinDelegateLeave struct {
	insn
	Builtin string
	Argc    int
	Index   int
}

func (*OptInvokeBuiltinDelegateLeave) Name() string { return "opt_invokebuiltin_delegate_leave" }
func (*OptInvokeBuiltinDelegateLeave) Length() int  { return 3 }
func (*OptInvokeBuiltinDelegateLeave) Pops() int    { return 0 }
func (*OptInvokeBuiltinDelegateLeave) Pushes() int  { return 1 }
func (i *OptInvokeBuiltinDelegateLeave) Canonical() Instruction {
	return &OptInvokeBuiltinDelegate{Builtin: i.Builtin, Argc: i.Argc, Index: i.Index}
}
func (i *OptInvokeBuiltinDelegateLeave) ToA(*InstructionSequence) []any {
	return op("opt_invokebuiltin_delegate_leave", (&InvokeBuiltin{Builtin: i.Builtin, Argc: i.Argc}).builtin(), int64(i.Index))
}
func (i *OptInvokeBuiltinDelegateLeave) Disasm(d *Disassembler) string {
	return d.Instruction("opt_invokebuiltin_delegate_leave", "<builtin!"+i.Builtin+"/"+d.Object(i.Argc)+">", d.Object(i.Index))
}
