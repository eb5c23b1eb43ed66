package bytecode

// getspecial types.
const (
	SpecialLastLine   = 0 // $_
	SpecialBackref    = 1 // $~
	SpecialFlipFlop   = 2
)

type GetLocal struct {
	pure
	Index int
	Level int
}

func (*GetLocal) Name() string { return "getlocal" }
func (*GetLocal) Length() int  { return 3 }
func (*GetLocal) Pops() int    { return 0 }
func (*GetLocal) Pushes() int  { return 1 }
func (i *GetLocal) ToA(iseq *InstructionSequence) []any {
	return op("getlocal", int64(iseq.LocalOffset(i.Index, i.Level)), int64(i.Level))
}
func (i *GetLocal) Disasm(d *Disassembler) string {
	return d.Instruction("getlocal", d.Local(i.Index, i.Level, true))
}

type SetLocal struct {
	insn
	Index int
	Level int
}

func (*SetLocal) Name() string { return "setlocal" }
func (*SetLocal) Length() int  { return 3 }
func (*SetLocal) Pops() int    { return 1 }
func (*SetLocal) Pushes() int  { return 0 }
func (i *SetLocal) ToA(iseq *InstructionSequence) []any {
	return op("setlocal", int64(iseq.LocalOffset(i.Index, i.Level)), int64(i.Level))
}
func (i *SetLocal) Disasm(d *Disassembler) string {
	return d.Instruction("setlocal", d.Local(i.Index, i.Level, true))
}

type GetLocalWC0 struct {
	pure
	Index int
}

func (*GetLocalWC0) Name() string             { return "getlocal_WC_0" }
func (*GetLocalWC0) Length() int              { return 2 }
func (*GetLocalWC0) Pops() int                { return 0 }
func (*GetLocalWC0) Pushes() int              { return 1 }
func (i *GetLocalWC0) Canonical() Instruction { return &GetLocal{Index: i.Index, Level: 0} }
func (i *GetLocalWC0) ToA(iseq *InstructionSequence) []any {
	return op("getlocal_WC_0", int64(iseq.LocalOffset(i.Index, 0)))
}
func (i *GetLocalWC0) Disasm(d *Disassembler) string {
	return d.Instruction("getlocal_WC_0", d.Local(i.Index, 0, false))
}

type GetLocalWC1 struct {
	pure
	Index int
}

func (*GetLocalWC1) Name() string             { return "getlocal_WC_1" }
func (*GetLocalWC1) Length() int              { return 2 }
func (*GetLocalWC1) Pops() int                { return 0 }
func (*GetLocalWC1) Pushes() int              { return 1 }
func (i *GetLocalWC1) Canonical() Instruction { return &GetLocal{Index: i.Index, Level: 1} }
func (i *GetLocalWC1) ToA(iseq *InstructionSequence) []any {
	return op("getlocal_WC_1", int64(iseq.LocalOffset(i.Index, 1)))
}
func (i *GetLocalWC1) Disasm(d *Disassembler) string {
	return d.Instruction("getlocal_WC_1", d.Local(i.Index, 1, false))
}

type SetLocalWC0 struct {
	insn
	Index int
}

func (*SetLocalWC0) Name() string             { return "setlocal_WC_0" }
func (*SetLocalWC0) Length() int              { return 2 }
func (*SetLocalWC0) Pops() int                { return 1 }
func (*SetLocalWC0) Pushes() int              { return 0 }
func (i *SetLocalWC0) Canonical() Instruction { return &SetLocal{Index: i.Index, Level: 0} }
func (i *SetLocalWC0) ToA(iseq *InstructionSequence) []any {
	return op("setlocal_WC_0", int64(iseq.LocalOffset(i.Index, 0)))
}
func (i *SetLocalWC0) Disasm(d *Disassembler) string {
	return d.Instruction("setlocal_WC_0", d.Local(i.Index, 0, false))
}

type SetLocalWC1 struct {
	insn
	Index int
}

func (*SetLocalWC1) Name() string             { return "setlocal_WC_1" }
func (*SetLocalWC1) Length() int              { return 2 }
func (*SetLocalWC1) Pops() int                { return 1 }
func (*SetLocalWC1) Pushes() int              { return 0 }
func (i *SetLocalWC1) Canonical() Instruction { return &SetLocal{Index: i.Index, Level: 1} }
func (i *SetLocalWC1) ToA(iseq *InstructionSequence) []any {
	return op("setlocal_WC_1", int64(iseq.LocalOffset(i.Index, 1)))
}
func (i *SetLocalWC1) Disasm(d *Disassembler) string {
	return d.Instruction("setlocal_WC_1", d.Local(i.Index, 1, false))
}

type GetBlockParam struct {
	insn
	Index int
	Level int
}

func (*GetBlockParam) Name() string { return "getblockparam" }
func (*GetBlockParam) Length() int  { return 3 }
func (*GetBlockParam) Pops() int    { return 0 }
func (*GetBlockParam) Pushes() int  { return 1 }
func (i *GetBlockParam) ToA(iseq *InstructionSequence) []any {
	return op("getblockparam", int64(iseq.LocalOffset(i.Index, i.Level)), int64(i.Level))
}
func (i *GetBlockParam) Disasm(d *Disassembler) string {
	return d.Instruction("getblockparam", d.Local(i.Index, i.Level, true))
}

type SetBlockParam struct {
	insn
	Index int
	Level int
}

func (*SetBlockParam) Name() string { return "setblockparam" }
func (*SetBlockParam) Length() int  { return 3 }
func (*SetBlockParam) Pops() int    { return 1 }
func (*SetBlockParam) Pushes() int  { return 0 }
func (i *SetBlockParam) ToA(iseq *InstructionSequence) []any {
	return op("setblockparam", int64(iseq.LocalOffset(i.Index, i.Level)), int64(i.Level))
}
func (i *SetBlockParam) Disasm(d *Disassembler) string {
	return d.Instruction("setblockparam", d.Local(i.Index, i.Level, true))
}

type GetBlockParamProxy struct {
	insn
	Index int
	Level int
}

func (*GetBlockParamProxy) Name() string { return "getblockparamproxy" }
func (*GetBlockParamProxy) Length() int  { return 3 }
func (*GetBlockParamProxy) Pops() int    { return 0 }
func (*GetBlockParamProxy) Pushes() int  { return 1 }
func (i *GetBlockParamProxy) ToA(iseq *InstructionSequence) []any {
	return op("getblockparamproxy", int64(iseq.LocalOffset(i.Index, i.Level)), int64(i.Level))
}
func (i *GetBlockParamProxy) Disasm(d *Disassembler) string {
	return d.Instruction("getblockparamproxy", d.Local(i.Index, i.Level, true))
}

type GetInstanceVariable struct {
	insn
	Variable string
	Cache    int
}

func (*GetInstanceVariable) Name() string { return "getinstancevariable" }
func (*GetInstanceVariable) Length() int  { return 3 }
func (*GetInstanceVariable) Pops() int    { return 0 }
func (*GetInstanceVariable) Pushes() int  { return 1 }
func (i *GetInstanceVariable) ToA(*InstructionSequence) []any {
	return op("getinstancevariable", Symbol(i.Variable), int64(i.Cache))
}
func (i *GetInstanceVariable) Disasm(d *Disassembler) string {
	return d.Instruction("getinstancevariable", d.Object(Symbol(i.Variable)), d.InlineStorage(i.Cache))
}

type SetInstanceVariable struct {
	insn
	Variable string
	Cache    int
}

func (*SetInstanceVariable) Name() string { return "setinstancevariable" }
func (*SetInstanceVariable) Length() int  { return 3 }
func (*SetInstanceVariable) Pops() int    { return 1 }
func (*SetInstanceVariable) Pushes() int  { return 0 }
func (i *SetInstanceVariable) ToA(*InstructionSequence) []any {
	return op("setinstancevariable", Symbol(i.Variable), int64(i.Cache))
}
func (i *SetInstanceVariable) Disasm(d *Disassembler) string {
	return d.Instruction("setinstancevariable", d.Object(Symbol(i.Variable)), d.InlineStorage(i.Cache))
}

// GetClassVariable reads a class variable. Cache is negative for the
// pre-3.0 form that carries no cache operand.
type GetClassVariable struct {
	insn
	Variable string
	Cache    int
}

func (*GetClassVariable) Name() string { return "getclassvariable" }
func (i *GetClassVariable) Length() int {
	if i.Cache < 0 {
		return 2
	}
	return 3
}
func (*GetClassVariable) Pops() int   { return 0 }
func (*GetClassVariable) Pushes() int { return 1 }
func (i *GetClassVariable) ToA(*InstructionSequence) []any {
	if i.Cache < 0 {
		return op("getclassvariable", Symbol(i.Variable))
	}
	return op("getclassvariable", Symbol(i.Variable), int64(i.Cache))
}
func (i *GetClassVariable) Disasm(d *Disassembler) string {
	if i.Cache < 0 {
		return d.Instruction("getclassvariable", d.Object(Symbol(i.Variable)))
	}
	return d.Instruction("getclassvariable", d.Object(Symbol(i.Variable)), d.InlineStorage(i.Cache))
}

type SetClassVariable struct {
	insn
	Variable string
	Cache    int
}

func (*SetClassVariable) Name() string { return "setclassvariable" }
func (i *SetClassVariable) Length() int {
	if i.Cache < 0 {
		return 2
	}
	return 3
}
func (*SetClassVariable) Pops() int   { return 1 }
func (*SetClassVariable) Pushes() int { return 0 }
func (i *SetClassVariable) ToA(*InstructionSequence) []any {
	if i.Cache < 0 {
		return op("setclassvariable", Symbol(i.Variable))
	}
	return op("setclassvariable", Symbol(i.Variable), int64(i.Cache))
}
func (i *SetClassVariable) Disasm(d *Disassembler) string {
	if i.Cache < 0 {
		return d.Instruction("setclassvariable", d.Object(Symbol(i.Variable)))
	}
	return d.Instruction("setclassvariable", d.Object(Symbol(i.Variable)), d.InlineStorage(i.Cache))
}

type GetGlobal struct {
	insn
	Variable string
}

func (*GetGlobal) Name() string { return "getglobal" }
func (*GetGlobal) Length() int  { return 2 }
func (*GetGlobal) Pops() int    { return 0 }
func (*GetGlobal) Pushes() int  { return 1 }
func (i *GetGlobal) ToA(*InstructionSequence) []any {
	return op("getglobal", Symbol(i.Variable))
}
func (i *GetGlobal) Disasm(d *Disassembler) string {
	return d.Instruction("getglobal", d.Object(Symbol(i.Variable)))
}

type SetGlobal struct {
	insn
	Variable string
}

func (*SetGlobal) Name() string { return "setglobal" }
func (*SetGlobal) Length() int  { return 2 }
func (*SetGlobal) Pops() int    { return 1 }
func (*SetGlobal) Pushes() int  { return 0 }
func (i *SetGlobal) ToA(*InstructionSequence) []any {
	return op("setglobal", Symbol(i.Variable))
}
func (i *SetGlobal) Disasm(d *Disassembler) string {
	return d.Instruction("setglobal", d.Object(Symbol(i.Variable)))
}

// GetSpecial reads a frame-local special variable. Type is 0 for $~ and
// $_, otherwise (n << 1) for $n or (char << 1 | 1) for $&, $`, $' and $+.
type GetSpecial struct {
	insn
	Key  int
	Type int
}

func (*GetSpecial) Name() string { return "getspecial" }
func (*GetSpecial) Length() int  { return 3 }
func (*GetSpecial) Pops() int    { return 0 }
func (*GetSpecial) Pushes() int  { return 1 }
func (i *GetSpecial) ToA(*InstructionSequence) []any {
	return op("getspecial", int64(i.Key), int64(i.Type))
}
func (i *GetSpecial) Disasm(d *Disassembler) string {
	return d.Instruction("getspecial", d.Object(i.Key), d.Object(i.Type))
}

type SetSpecial struct {
	insn
	Key int
}

func (*SetSpecial) Name() string { return "setspecial" }
func (*SetSpecial) Length() int  { return 2 }
func (*SetSpecial) Pops() int    { return 1 }
func (*SetSpecial) Pushes() int  { return 0 }
func (i *SetSpecial) ToA(*InstructionSequence) []any {
	return op("setspecial", int64(i.Key))
}
func (i *SetSpecial) Disasm(d *Disassembler) string {
	return d.Instruction("setspecial", d.Object(i.Key))
}

// GetConstant pops the constant base and the allow-nil flag.
type GetConstant struct {
	insn
	Constant string
}

func (*GetConstant) Name() string { return "getconstant" }
func (*GetConstant) Length() int  { return 2 }
func (*GetConstant) Pops() int    { return 2 }
func (*GetConstant) Pushes() int  { return 1 }
func (i *GetConstant) ToA(*InstructionSequence) []any {
	return op("getconstant", Symbol(i.Constant))
}
func (i *GetConstant) Disasm(d *Disassembler) string {
	return d.Instruction("getconstant", d.Object(Symbol(i.Constant)))
}

// SetConstant pops the value and the namespace.
type SetConstant struct {
	insn
	Constant string
}

func (*SetConstant) Name() string { return "setconstant" }
func (*SetConstant) Length() int  { return 2 }
func (*SetConstant) Pops() int    { return 2 }
func (*SetConstant) Pushes() int  { return 0 }
func (i *SetConstant) ToA(*InstructionSequence) []any {
	return op("setconstant", Symbol(i.Constant))
}
func (i *SetConstant) Disasm(d *Disassembler) string {
	return d.Instruction("setconstant", d.Object(Symbol(i.Constant)))
}

// OptGetConstantPath resolves a constant path such as A::B or ::C (whose
// first segment is :"") through an inline cache.
type OptGetConstantPath struct {
	insn
	Names []string
}

func (*OptGetConstantPath) Name() string { return "opt_getconstant_path" }
func (*OptGetConstantPath) Length() int  { return 2 }
func (*OptGetConstantPath) Pops() int    { return 0 }
func (*OptGetConstantPath) Pushes() int  { return 1 }
func (i *OptGetConstantPath) symbols() []any {
	names := make([]any, len(i.Names))
	for j, n := range i.Names {
		names[j] = Symbol(n)
	}
	return names
}
func (i *OptGetConstantPath) ToA(*InstructionSequence) []any {
	return op("opt_getconstant_path", i.symbols())
}
func (i *OptGetConstantPath) Disasm(d *Disassembler) string {
	return d.Instruction("opt_getconstant_path", d.Object(i.symbols()))
}

// OptGetInlineCache is the pre-3.2 constant cache check; it jumps past the
// lookup when the cache is warm.
type OptGetInlineCache struct {
	insn
	Label *Label
	Cache int
}

func (*OptGetInlineCache) Name() string              { return "opt_getinlinecache" }
func (*OptGetInlineCache) Length() int               { return 3 }
func (*OptGetInlineCache) Pops() int                 { return 0 }
func (*OptGetInlineCache) Pushes() int               { return 1 }
func (i *OptGetInlineCache) BranchTargets() []*Label { return []*Label{i.Label} }
func (*OptGetInlineCache) FallsThrough() bool        { return true }
func (i *OptGetInlineCache) ToA(*InstructionSequence) []any {
	return op("opt_getinlinecache", i.Label.Symbol(), int64(i.Cache))
}
func (i *OptGetInlineCache) Disasm(d *Disassembler) string {
	return d.Instruction("opt_getinlinecache", d.Label(i.Label), d.InlineStorage(i.Cache))
}

type OptSetInlineCache struct {
	insn
	Cache int
}

func (*OptSetInlineCache) Name() string { return "opt_setinlinecache" }
func (*OptSetInlineCache) Length() int  { return 2 }
func (*OptSetInlineCache) Pops() int    { return 1 }
func (*OptSetInlineCache) Pushes() int  { return 1 }
func (i *OptSetInlineCache) ToA(*InstructionSequence) []any {
	return op("opt_setinlinecache", int64(i.Cache))
}
func (i *OptSetInlineCache) Disasm(d *Disassembler) string {
	return d.Instruction("opt_setinlinecache", d.InlineStorage(i.Cache))
}
