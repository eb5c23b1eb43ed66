package bytecode

import "strconv"

// putspecialobject operands.
const (
	SpecialObjectVMCore    = 1
	SpecialObjectCBase     = 2
	SpecialObjectConstBase = 3
)

// checkmatch operands.
const (
	CheckMatchWhen   = 1
	CheckMatchCase   = 2
	CheckMatchRescue = 3
	CheckMatchArray  = 4
)

// checktype operands, CRuby's value type tags.
const (
	TObject   = 0x01
	TClass    = 0x02
	TModule   = 0x03
	TFloat    = 0x04
	TString   = 0x05
	TRegexp   = 0x06
	TArray    = 0x07
	THash     = 0x08
	TStruct   = 0x09
	TBignum   = 0x0a
	TFile     = 0x0b
	TData     = 0x0c
	TMatch    = 0x0d
	TComplex  = 0x0e
	TRational = 0x0f
	TNil      = 0x11
	TTrue     = 0x12
	TFalse    = 0x13
	TSymbol   = 0x14
	TFixnum   = 0x15
	TUndef    = 0x16
)

// defined operands.
const (
	DefinedNil = iota + 1
	DefinedIVar
	DefinedLVar
	DefinedGVar
	DefinedCVar
	DefinedConst
	DefinedMethod
	DefinedYield
	DefinedZSuper
	DefinedSelf
	DefinedTrue
	DefinedFalse
	DefinedAsgn
	DefinedExpr
	DefinedRef
	DefinedFunc
	DefinedConstFrom
)

// expandarray flags.
const (
	ExpandArraySplat   = 0x01
	ExpandArrayPostarg = 0x02
)

type Nop struct{ pure }

func (*Nop) Name() string                    { return "nop" }
func (*Nop) Length() int                     { return 1 }
func (*Nop) Pops() int                       { return 0 }
func (*Nop) Pushes() int                     { return 0 }
func (*Nop) ToA(*InstructionSequence) []any  { return op("nop") }
func (*Nop) Disasm(d *Disassembler) string   { return d.Instruction("nop") }

type Pop struct{ pure }

func (*Pop) Name() string                   { return "pop" }
func (*Pop) Length() int                    { return 1 }
func (*Pop) Pops() int                      { return 1 }
func (*Pop) Pushes() int                    { return 0 }
func (*Pop) ToA(*InstructionSequence) []any { return op("pop") }
func (*Pop) Disasm(d *Disassembler) string  { return d.Instruction("pop") }

type Dup struct{ pure }

func (*Dup) Name() string                   { return "dup" }
func (*Dup) Length() int                    { return 1 }
func (*Dup) Pops() int                      { return 1 }
func (*Dup) Pushes() int                    { return 2 }
func (*Dup) ToA(*InstructionSequence) []any { return op("dup") }
func (*Dup) Disasm(d *Disassembler) string  { return d.Instruction("dup") }

type DupN struct {
	pure
	Number int
}

func (*DupN) Name() string                     { return "dupn" }
func (*DupN) Length() int                      { return 2 }
func (i *DupN) Pops() int                      { return i.Number }
func (i *DupN) Pushes() int                    { return i.Number * 2 }
func (i *DupN) ToA(*InstructionSequence) []any { return op("dupn", int64(i.Number)) }
func (i *DupN) Disasm(d *Disassembler) string {
	return d.Instruction("dupn", d.Object(i.Number))
}

type Swap struct{ pure }

func (*Swap) Name() string                   { return "swap" }
func (*Swap) Length() int                    { return 1 }
func (*Swap) Pops() int                      { return 2 }
func (*Swap) Pushes() int                    { return 2 }
func (*Swap) ToA(*InstructionSequence) []any { return op("swap") }
func (*Swap) Disasm(d *Disassembler) string  { return d.Instruction("swap") }

type TopN struct {
	pure
	Number int
}

func (*TopN) Name() string                     { return "topn" }
func (*TopN) Length() int                      { return 2 }
func (i *TopN) Pops() int                      { return i.Number }
func (i *TopN) Pushes() int                    { return i.Number + 1 }
func (i *TopN) ToA(*InstructionSequence) []any { return op("topn", int64(i.Number)) }
func (i *TopN) Disasm(d *Disassembler) string {
	return d.Instruction("topn", d.Object(i.Number))
}

type SetN struct {
	pure
	Number int
}

func (*SetN) Name() string                     { return "setn" }
func (*SetN) Length() int                      { return 2 }
func (i *SetN) Pops() int                      { return i.Number + 1 }
func (i *SetN) Pushes() int                    { return i.Number + 1 }
func (i *SetN) ToA(*InstructionSequence) []any { return op("setn", int64(i.Number)) }
func (i *SetN) Disasm(d *Disassembler) string {
	return d.Instruction("setn", d.Object(i.Number))
}

type AdjustStack struct {
	pure
	Number int
}

func (*AdjustStack) Name() string   { return "adjuststack" }
func (*AdjustStack) Length() int    { return 2 }
func (i *AdjustStack) Pops() int    { return i.Number }
func (i *AdjustStack) Pushes() int  { return 0 }
func (i *AdjustStack) ToA(*InstructionSequence) []any {
	return op("adjuststack", int64(i.Number))
}
func (i *AdjustStack) Disasm(d *Disassembler) string {
	return d.Instruction("adjuststack", d.Object(i.Number))
}

type PutNil struct{ pure }

func (*PutNil) Name() string                   { return "putnil" }
func (*PutNil) Length() int                    { return 1 }
func (*PutNil) Pops() int                      { return 0 }
func (*PutNil) Pushes() int                    { return 1 }
func (*PutNil) ToA(*InstructionSequence) []any { return op("putnil") }
func (*PutNil) Disasm(d *Disassembler) string  { return d.Instruction("putnil") }

type PutSelf struct{ pure }

func (*PutSelf) Name() string                   { return "putself" }
func (*PutSelf) Length() int                    { return 1 }
func (*PutSelf) Pops() int                      { return 0 }
func (*PutSelf) Pushes() int                    { return 1 }
func (*PutSelf) ToA(*InstructionSequence) []any { return op("putself") }
func (*PutSelf) Disasm(d *Disassembler) string  { return d.Instruction("putself") }

type PutObject struct {
	pure
	Object any
}

func (*PutObject) Name() string                     { return "putobject" }
func (*PutObject) Length() int                      { return 2 }
func (*PutObject) Pops() int                        { return 0 }
func (*PutObject) Pushes() int                      { return 1 }
func (i *PutObject) ToA(*InstructionSequence) []any { return op("putobject", i.Object) }
func (i *PutObject) Disasm(d *Disassembler) string {
	return d.Instruction("putobject", d.Object(i.Object))
}

type PutObjectInt2Fix0 struct{ pure }

func (*PutObjectInt2Fix0) Name() string          { return "putobject_INT2FIX_0_" }
func (*PutObjectInt2Fix0) Length() int           { return 1 }
func (*PutObjectInt2Fix0) Pops() int             { return 0 }
func (*PutObjectInt2Fix0) Pushes() int           { return 1 }
func (*PutObjectInt2Fix0) Canonical() Instruction { return &PutObject{Object: int64(0)} }
func (*PutObjectInt2Fix0) ToA(*InstructionSequence) []any {
	return op("putobject_INT2FIX_0_")
}
func (*PutObjectInt2Fix0) Disasm(d *Disassembler) string {
	return d.Instruction("putobject_INT2FIX_0_")
}

type PutObjectInt2Fix1 struct{ pure }

func (*PutObjectInt2Fix1) Name() string          { return "putobject_INT2FIX_1_" }
func (*PutObjectInt2Fix1) Length() int           { return 1 }
func (*PutObjectInt2Fix1) Pops() int             { return 0 }
func (*PutObjectInt2Fix1) Pushes() int           { return 1 }
func (*PutObjectInt2Fix1) Canonical() Instruction { return &PutObject{Object: int64(1)} }
func (*PutObjectInt2Fix1) ToA(*InstructionSequence) []any {
	return op("putobject_INT2FIX_1_")
}
func (*PutObjectInt2Fix1) Disasm(d *Disassembler) string {
	return d.Instruction("putobject_INT2FIX_1_")
}

type PutString struct {
	pure
	Object string
}

func (*PutString) Name() string                     { return "putstring" }
func (*PutString) Length() int                      { return 2 }
func (*PutString) Pops() int                        { return 0 }
func (*PutString) Pushes() int                      { return 1 }
func (i *PutString) ToA(*InstructionSequence) []any { return op("putstring", i.Object) }
func (i *PutString) Disasm(d *Disassembler) string {
	return d.Instruction("putstring", d.Object(i.Object))
}

type PutSpecialObject struct {
	pure
	Object int
}

func (*PutSpecialObject) Name() string { return "putspecialobject" }
func (*PutSpecialObject) Length() int  { return 2 }
func (*PutSpecialObject) Pops() int    { return 0 }
func (*PutSpecialObject) Pushes() int  { return 1 }
func (i *PutSpecialObject) ToA(*InstructionSequence) []any {
	return op("putspecialobject", int64(i.Object))
}
func (i *PutSpecialObject) Disasm(d *Disassembler) string {
	return d.Instruction("putspecialobject", d.Object(i.Object))
}

type DupArray struct {
	pure
	Object []any
}

func (*DupArray) Name() string                     { return "duparray" }
func (*DupArray) Length() int                      { return 2 }
func (*DupArray) Pops() int                        { return 0 }
func (*DupArray) Pushes() int                      { return 1 }
func (i *DupArray) ToA(*InstructionSequence) []any { return op("duparray", i.Object) }
func (i *DupArray) Disasm(d *Disassembler) string {
	return d.Instruction("duparray", d.Object(i.Object))
}

type DupHash struct {
	pure
	Object Pairs
}

func (*DupHash) Name() string                     { return "duphash" }
func (*DupHash) Length() int                      { return 2 }
func (*DupHash) Pops() int                        { return 0 }
func (*DupHash) Pushes() int                      { return 1 }
func (i *DupHash) ToA(*InstructionSequence) []any { return op("duphash", i.Object) }
func (i *DupHash) Disasm(d *Disassembler) string {
	return d.Instruction("duphash", d.Object(i.Object))
}

type NewArray struct {
	pure
	Number int
}

func (*NewArray) Name() string                     { return "newarray" }
func (*NewArray) Length() int                      { return 2 }
func (i *NewArray) Pops() int                      { return i.Number }
func (*NewArray) Pushes() int                      { return 1 }
func (i *NewArray) ToA(*InstructionSequence) []any { return op("newarray", int64(i.Number)) }
func (i *NewArray) Disasm(d *Disassembler) string {
	return d.Instruction("newarray", d.Object(i.Number))
}

type NewArrayKwSplat struct {
	insn
	Number int
}

func (*NewArrayKwSplat) Name() string  { return "newarraykwsplat" }
func (*NewArrayKwSplat) Length() int   { return 2 }
func (i *NewArrayKwSplat) Pops() int   { return i.Number }
func (*NewArrayKwSplat) Pushes() int   { return 1 }
func (i *NewArrayKwSplat) ToA(*InstructionSequence) []any {
	return op("newarraykwsplat", int64(i.Number))
}
func (i *NewArrayKwSplat) Disasm(d *Disassembler) string {
	return d.Instruction("newarraykwsplat", d.Object(i.Number))
}

type NewHash struct {
	insn
	Number int
}

func (*NewHash) Name() string                     { return "newhash" }
func (*NewHash) Length() int                      { return 2 }
func (i *NewHash) Pops() int                      { return i.Number }
func (*NewHash) Pushes() int                      { return 1 }
func (i *NewHash) ToA(*InstructionSequence) []any { return op("newhash", int64(i.Number)) }
func (i *NewHash) Disasm(d *Disassembler) string {
	return d.Instruction("newhash", d.Object(i.Number))
}

type NewRange struct {
	insn
	Exclude int
}

func (*NewRange) Name() string                     { return "newrange" }
func (*NewRange) Length() int                      { return 2 }
func (*NewRange) Pops() int                        { return 2 }
func (*NewRange) Pushes() int                      { return 1 }
func (i *NewRange) ToA(*InstructionSequence) []any { return op("newrange", int64(i.Exclude)) }
func (i *NewRange) Disasm(d *Disassembler) string {
	return d.Instruction("newrange", d.Object(i.Exclude))
}

type SplatArray struct {
	insn
	Flag bool
}

func (*SplatArray) Name() string                     { return "splatarray" }
func (*SplatArray) Length() int                      { return 2 }
func (*SplatArray) Pops() int                        { return 1 }
func (*SplatArray) Pushes() int                      { return 1 }
func (i *SplatArray) ToA(*InstructionSequence) []any { return op("splatarray", i.Flag) }
func (i *SplatArray) Disasm(d *Disassembler) string {
	return d.Instruction("splatarray", d.Object(i.Flag))
}

type ConcatArray struct{ insn }

func (*ConcatArray) Name() string                   { return "concatarray" }
func (*ConcatArray) Length() int                    { return 1 }
func (*ConcatArray) Pops() int                      { return 2 }
func (*ConcatArray) Pushes() int                    { return 1 }
func (*ConcatArray) ToA(*InstructionSequence) []any { return op("concatarray") }
func (*ConcatArray) Disasm(d *Disassembler) string  { return d.Instruction("concatarray") }

type ExpandArray struct {
	insn
	Number int
	Flags  int
}

func (*ExpandArray) Name() string { return "expandarray" }
func (*ExpandArray) Length() int  { return 3 }
func (*ExpandArray) Pops() int    { return 1 }
func (i *ExpandArray) Pushes() int {
	if i.Flags&ExpandArraySplat != 0 {
		return i.Number + 1
	}
	return i.Number
}
func (i *ExpandArray) ToA(*InstructionSequence) []any {
	return op("expandarray", int64(i.Number), int64(i.Flags))
}
func (i *ExpandArray) Disasm(d *Disassembler) string {
	return d.Instruction("expandarray", d.Object(i.Number), d.Object(i.Flags))
}

type ConcatStrings struct {
	insn
	Number int
}

func (*ConcatStrings) Name() string   { return "concatstrings" }
func (*ConcatStrings) Length() int    { return 2 }
func (i *ConcatStrings) Pops() int    { return i.Number }
func (*ConcatStrings) Pushes() int    { return 1 }
func (i *ConcatStrings) ToA(*InstructionSequence) []any {
	return op("concatstrings", int64(i.Number))
}
func (i *ConcatStrings) Disasm(d *Disassembler) string {
	return d.Instruction("concatstrings", d.Object(i.Number))
}

type AnyToString struct{ insn }

func (*AnyToString) Name() string                   { return "anytostring" }
func (*AnyToString) Length() int                    { return 1 }
func (*AnyToString) Pops() int                      { return 2 }
func (*AnyToString) Pushes() int                    { return 1 }
func (*AnyToString) ToA(*InstructionSequence) []any { return op("anytostring") }
func (*AnyToString) Disasm(d *Disassembler) string  { return d.Instruction("anytostring") }

type ObjToString struct {
	insn
	CallData *CallData
}

func (*ObjToString) Name() string { return "objtostring" }
func (*ObjToString) Length() int  { return 2 }
func (*ObjToString) Pops() int    { return 1 }
func (*ObjToString) Pushes() int  { return 1 }
func (i *ObjToString) ToA(*InstructionSequence) []any {
	return op("objtostring", i.CallData.ToH())
}
func (i *ObjToString) Disasm(d *Disassembler) string {
	return d.Instruction("objtostring", d.CallData(i.CallData))
}

type Intern struct{ insn }

func (*Intern) Name() string                   { return "intern" }
func (*Intern) Length() int                    { return 1 }
func (*Intern) Pops() int                      { return 1 }
func (*Intern) Pushes() int                    { return 1 }
func (*Intern) ToA(*InstructionSequence) []any { return op("intern") }
func (*Intern) Disasm(d *Disassembler) string  { return d.Instruction("intern") }

type ToRegExp struct {
	insn
	Options int
	Count   int
}

func (*ToRegExp) Name() string  { return "toregexp" }
func (*ToRegExp) Length() int   { return 3 }
func (i *ToRegExp) Pops() int   { return i.Count }
func (*ToRegExp) Pushes() int   { return 1 }
func (i *ToRegExp) ToA(*InstructionSequence) []any {
	return op("toregexp", int64(i.Options), int64(i.Count))
}
func (i *ToRegExp) Disasm(d *Disassembler) string {
	return d.Instruction("toregexp", d.Object(i.Options), d.Object(i.Count))
}

type CheckMatch struct {
	insn
	Type int
}

func (*CheckMatch) Name() string                     { return "checkmatch" }
func (*CheckMatch) Length() int                      { return 2 }
func (*CheckMatch) Pops() int                        { return 2 }
func (*CheckMatch) Pushes() int                      { return 1 }
func (i *CheckMatch) ToA(*InstructionSequence) []any { return op("checkmatch", int64(i.Type)) }
func (i *CheckMatch) Disasm(d *Disassembler) string {
	return d.Instruction("checkmatch", d.Object(i.Type))
}

// CheckType tests the class tag of the top value. It is recorded as
// popping one value and pushing two so stack_max agrees with CRuby.
type CheckType struct {
	insn
	Type int
}

func (*CheckType) Name() string                     { return "checktype" }
func (*CheckType) Length() int                      { return 2 }
func (*CheckType) Pops() int                        { return 1 }
func (*CheckType) Pushes() int                      { return 2 }
func (i *CheckType) ToA(*InstructionSequence) []any { return op("checktype", int64(i.Type)) }
func (i *CheckType) Disasm(d *Disassembler) string {
	return d.Instruction("checktype", checkTypeName(i.Type))
}

func checkTypeName(t int) string {
	names := map[int]string{
		TObject: "T_OBJECT", TClass: "T_CLASS", TModule: "T_MODULE",
		TFloat: "T_FLOAT", TString: "T_STRING", TRegexp: "T_REGEXP",
		TArray: "T_ARRAY", THash: "T_HASH", TStruct: "T_STRUCT",
		TBignum: "T_BIGNUM", TFile: "T_FILE", TData: "T_DATA",
		TMatch: "T_MATCH", TComplex: "T_COMPLEX", TRational: "T_RATIONAL",
		TNil: "T_NIL", TTrue: "T_TRUE", TFalse: "T_FALSE",
		TSymbol: "T_SYMBOL", TFixnum: "T_FIXNUM", TUndef: "T_UNDEF",
	}
	if name, ok := names[t]; ok {
		return name
	}
	return strconv.Itoa(t)
}

type CheckKeyword struct {
	insn
	KeywordBitsIndex int
	KeywordIndex     int
}

func (*CheckKeyword) Name() string { return "checkkeyword" }
func (*CheckKeyword) Length() int  { return 3 }
func (*CheckKeyword) Pops() int    { return 0 }
func (*CheckKeyword) Pushes() int  { return 1 }
func (i *CheckKeyword) ToA(iseq *InstructionSequence) []any {
	return op("checkkeyword", int64(iseq.Locals.Offset(i.KeywordBitsIndex)), int64(i.KeywordIndex))
}
func (i *CheckKeyword) Disasm(d *Disassembler) string {
	return d.Instruction("checkkeyword", d.Object(d.current.Locals.Offset(i.KeywordBitsIndex)), d.Object(i.KeywordIndex))
}

type Defined struct {
	insn
	Type    int
	Operand any
	Message any
}

func (*Defined) Name() string  { return "defined" }
func (*Defined) Length() int   { return 4 }
func (*Defined) Pops() int     { return 1 }
func (*Defined) Pushes() int   { return 1 }
func (i *Defined) ToA(*InstructionSequence) []any {
	return op("defined", int64(i.Type), i.Operand, i.Message)
}
func (i *Defined) Disasm(d *Disassembler) string {
	return d.Instruction("defined", definedTypeName(i.Type), d.Object(i.Operand), d.Object(i.Message))
}

func definedTypeName(t int) string {
	names := []string{
		"", "nil", "ivar", "local-variable", "global-variable", "class variable",
		"constant", "method", "yield", "super", "self", "true", "false",
		"assignment", "expression", "ref", "func", "constant-from",
	}
	if t > 0 && t < len(names) {
		return names[t]
	}
	return strconv.Itoa(t)
}
