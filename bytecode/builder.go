package bytecode

// Builder methods: one per instruction. Methods that depend on compile
// options (operand unification, inline caches, frozen strings) choose the
// concrete instruction here so the compiler never has to.

// PushLine records a source line marker.
func (s *InstructionSequence) PushLine(line int) { s.Push(Line(line)) }

// PushEvent records a trace event marker.
func (s *InstructionSequence) PushEvent(name string) { s.Push(Event(name)) }

func (s *InstructionSequence) AdjustStack(n int) { s.Push(&AdjustStack{Number: n}) }
func (s *InstructionSequence) AnyToString()      { s.Push(&AnyToString{}) }

func (s *InstructionSequence) BranchIf(l *Label) {
	s.Push(&BranchIf{branch{Label: l}})
}

func (s *InstructionSequence) BranchNil(l *Label) {
	s.Push(&BranchNil{branch{Label: l}})
}

func (s *InstructionSequence) BranchUnless(l *Label) {
	s.Push(&BranchUnless{branch{Label: l}})
}

func (s *InstructionSequence) CheckKeyword(bitsIndex, keywordIndex int) {
	s.Push(&CheckKeyword{KeywordBitsIndex: bitsIndex, KeywordIndex: keywordIndex})
}

func (s *InstructionSequence) CheckMatch(typ int) { s.Push(&CheckMatch{Type: typ}) }
func (s *InstructionSequence) CheckType(typ int)  { s.Push(&CheckType{Type: typ}) }
func (s *InstructionSequence) ConcatArray()       { s.Push(&ConcatArray{}) }
func (s *InstructionSequence) ConcatStrings(n int) {
	s.Push(&ConcatStrings{Number: n})
}

func (s *InstructionSequence) DefineClass(name string, class *InstructionSequence, flags int) {
	s.Push(&DefineClass{Constant: name, ClassISeq: class, Flags: flags})
}

func (s *InstructionSequence) Defined(typ int, operand, message any) {
	s.Push(&Defined{Type: typ, Operand: operand, Message: message})
}

func (s *InstructionSequence) DefineMethod(name string, method *InstructionSequence) {
	s.Push(&DefineMethod{Method: name, MethodISeq: method})
}

func (s *InstructionSequence) DefineSMethod(name string, method *InstructionSequence) {
	s.Push(&DefineSMethod{Method: name, MethodISeq: method})
}

func (s *InstructionSequence) Dup()                 { s.Push(&Dup{}) }
func (s *InstructionSequence) DupArray(obj []any)   { s.Push(&DupArray{Object: obj}) }
func (s *InstructionSequence) DupHash(obj Pairs)    { s.Push(&DupHash{Object: obj}) }
func (s *InstructionSequence) DupN(n int)           { s.Push(&DupN{Number: n}) }
func (s *InstructionSequence) ExpandArray(n, f int) { s.Push(&ExpandArray{Number: n, Flags: f}) }

func (s *InstructionSequence) GetBlockParam(index, level int) {
	s.Push(&GetBlockParam{Index: index, Level: level})
}

func (s *InstructionSequence) GetBlockParamProxy(index, level int) {
	s.Push(&GetBlockParamProxy{Index: index, Level: level})
}

func (s *InstructionSequence) GetClassVariable(name string) {
	s.Push(&GetClassVariable{Variable: name, Cache: s.InlineStorageFor(name)})
}

func (s *InstructionSequence) GetConstant(name string) { s.Push(&GetConstant{Constant: name}) }
func (s *InstructionSequence) GetGlobal(name string)   { s.Push(&GetGlobal{Variable: name}) }

func (s *InstructionSequence) GetInstanceVariable(name string) {
	s.Push(&GetInstanceVariable{Variable: name, Cache: s.InlineStorageFor(name)})
}

// GetLocal reads a local, using the _WC_ forms for levels 0 and 1 when
// operands unification is on.
func (s *InstructionSequence) GetLocal(index, level int) {
	if s.Options.OperandsUnification {
		switch level {
		case 0:
			s.Push(&GetLocalWC0{Index: index})
			return
		case 1:
			s.Push(&GetLocalWC1{Index: index})
			return
		}
	}
	s.Push(&GetLocal{Index: index, Level: level})
}

func (s *InstructionSequence) GetSpecial(key, typ int) { s.Push(&GetSpecial{Key: key, Type: typ}) }
func (s *InstructionSequence) Intern()                 { s.Push(&Intern{}) }
func (s *InstructionSequence) InvokeBlock(cd *CallData) {
	s.Push(&InvokeBlock{CallData: cd})
}

func (s *InstructionSequence) InvokeSuper(cd *CallData, block *InstructionSequence) {
	s.Push(&InvokeSuper{CallData: cd, BlockISeq: block})
}

func (s *InstructionSequence) Jump(l *Label)            { s.Push(&Jump{Label: l}) }
func (s *InstructionSequence) Leave()                   { s.Push(&Leave{}) }
func (s *InstructionSequence) NewArray(n int)           { s.Push(&NewArray{Number: n}) }
func (s *InstructionSequence) NewArrayKwSplat(n int)    { s.Push(&NewArrayKwSplat{Number: n}) }
func (s *InstructionSequence) NewHash(n int)            { s.Push(&NewHash{Number: n}) }
func (s *InstructionSequence) NewRange(exclude int)     { s.Push(&NewRange{Exclude: exclude}) }
func (s *InstructionSequence) Nop()                     { s.Push(&Nop{}) }
func (s *InstructionSequence) ObjToString(cd *CallData) { s.Push(&ObjToString{CallData: cd}) }

func (s *InstructionSequence) Once(iseq *InstructionSequence, cache int) {
	s.Push(&Once{ISeq: iseq, Cache: cache})
}

func (s *InstructionSequence) OptArefWith(obj string, cd *CallData) {
	s.Push(&OptArefWith{Object: obj, CallData: cd})
}

func (s *InstructionSequence) OptAsetWith(obj string, cd *CallData) {
	s.Push(&OptAsetWith{Object: obj, CallData: cd})
}

func (s *InstructionSequence) OptCaseDispatch(hash Pairs, elseLabel *Label) {
	s.Push(&OptCaseDispatch{CaseDispatchHash: hash, ElseLabel: elseLabel})
}

// OptGetConstantPath resolves a constant path. Without the inline constant
// cache the path is expanded into putnil/putobject/getconstant steps. A
// leading "" segment denotes a top-level path.
func (s *InstructionSequence) OptGetConstantPath(names []string) {
	if s.Options.InlineConstCache {
		s.Push(&OptGetConstantPath{Names: names})
		return
	}
	if len(names) > 0 && names[0] == "" {
		names = names[1:]
		s.PutObject(ClassRef("Object"))
	} else {
		s.PutNil()
	}
	for i, name := range names {
		s.PutObject(i == 0)
		s.GetConstant(name)
	}
}

func (s *InstructionSequence) OptGetInlineCache(l *Label, cache int) {
	s.Push(&OptGetInlineCache{Label: l, Cache: cache})
}

func (s *InstructionSequence) OptSetInlineCache(cache int) {
	s.Push(&OptSetInlineCache{Cache: cache})
}

func (s *InstructionSequence) Pop() { s.Push(&Pop{}) }

// PutNil pushes nil.
func (s *InstructionSequence) PutNil() { s.Push(&PutNil{}) }

// PutObject pushes a literal, using the INT2FIX forms for 0 and 1 when
// operands unification is on.
func (s *InstructionSequence) PutObject(obj any) {
	if s.Options.OperandsUnification {
		switch obj {
		case int64(0):
			s.Push(&PutObjectInt2Fix0{})
			return
		case int64(1):
			s.Push(&PutObjectInt2Fix1{})
			return
		}
	}
	s.Push(&PutObject{Object: obj})
}

func (s *InstructionSequence) PutSelf()                 { s.Push(&PutSelf{}) }
func (s *InstructionSequence) PutSpecialObject(obj int) { s.Push(&PutSpecialObject{Object: obj}) }

// PutString pushes a fresh copy of a string literal, or the literal itself
// when frozen string literals are on.
func (s *InstructionSequence) PutString(obj string) {
	if s.Options.FrozenStringLiteral {
		s.Push(&PutObject{Object: obj})
		return
	}
	s.Push(&PutString{Object: obj})
}

// Send calls a method. Specialization into opt_* forms happens at close.
func (s *InstructionSequence) Send(cd *CallData, block *InstructionSequence) {
	s.Push(&Send{CallData: cd, BlockISeq: block})
}

func (s *InstructionSequence) SetBlockParam(index, level int) {
	s.Push(&SetBlockParam{Index: index, Level: level})
}

func (s *InstructionSequence) SetClassVariable(name string) {
	s.Push(&SetClassVariable{Variable: name, Cache: s.InlineStorageFor(name)})
}

func (s *InstructionSequence) SetConstant(name string) { s.Push(&SetConstant{Constant: name}) }
func (s *InstructionSequence) SetGlobal(name string)   { s.Push(&SetGlobal{Variable: name}) }

func (s *InstructionSequence) SetInstanceVariable(name string) {
	s.Push(&SetInstanceVariable{Variable: name, Cache: s.InlineStorageFor(name)})
}

// SetLocal writes a local, with the same unification as GetLocal.
func (s *InstructionSequence) SetLocal(index, level int) {
	if s.Options.OperandsUnification {
		switch level {
		case 0:
			s.Push(&SetLocalWC0{Index: index})
			return
		case 1:
			s.Push(&SetLocalWC1{Index: index})
			return
		}
	}
	s.Push(&SetLocal{Index: index, Level: level})
}

func (s *InstructionSequence) SetN(n int)           { s.Push(&SetN{Number: n}) }
func (s *InstructionSequence) SetSpecial(key int)   { s.Push(&SetSpecial{Key: key}) }
func (s *InstructionSequence) SplatArray(flag bool) { s.Push(&SplatArray{Flag: flag}) }
func (s *InstructionSequence) Swap()                { s.Push(&Swap{}) }
func (s *InstructionSequence) Throw(typ int)        { s.Push(&Throw{Type: typ}) }
func (s *InstructionSequence) TopN(n int)           { s.Push(&TopN{Number: n}) }

func (s *InstructionSequence) ToRegExp(options, length int) {
	s.Push(&ToRegExp{Options: options, Count: length})
}
