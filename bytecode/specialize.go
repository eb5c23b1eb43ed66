package bytecode

type specializeKey struct {
	method string
	argc   int
}

var specializations = map[specializeKey]func(*CallData) Instruction{
	{"length", 0}: func(cd *CallData) Instruction { return &OptLength{optCall{CallData: cd}} },
	{"size", 0}:   func(cd *CallData) Instruction { return &OptSize{optCall{CallData: cd}} },
	{"empty?", 0}: func(cd *CallData) Instruction { return &OptEmptyP{optCall{CallData: cd}} },
	{"nil?", 0}:   func(cd *CallData) Instruction { return &OptNilP{optCall{CallData: cd}} },
	{"succ", 0}:   func(cd *CallData) Instruction { return &OptSucc{optCall{CallData: cd}} },
	{"!", 0}:      func(cd *CallData) Instruction { return &OptNot{optCall{CallData: cd}} },
	{"+", 1}:      func(cd *CallData) Instruction { return &OptPlus{optCall{CallData: cd}} },
	{"-", 1}:      func(cd *CallData) Instruction { return &OptMinus{optCall{CallData: cd}} },
	{"*", 1}:      func(cd *CallData) Instruction { return &OptMult{optCall{CallData: cd}} },
	{"/", 1}:      func(cd *CallData) Instruction { return &OptDiv{optCall{CallData: cd}} },
	{"%", 1}:      func(cd *CallData) Instruction { return &OptMod{optCall{CallData: cd}} },
	{"==", 1}:     func(cd *CallData) Instruction { return &OptEq{optCall{CallData: cd}} },
	{"=~", 1}:     func(cd *CallData) Instruction { return &OptRegexpMatch2{optCall{CallData: cd}} },
	{"<", 1}:      func(cd *CallData) Instruction { return &OptLt{optCall{CallData: cd}} },
	{"<=", 1}:     func(cd *CallData) Instruction { return &OptLe{optCall{CallData: cd}} },
	{">", 1}:      func(cd *CallData) Instruction { return &OptGt{optCall{CallData: cd}} },
	{">=", 1}:     func(cd *CallData) Instruction { return &OptGe{optCall{CallData: cd}} },
	{"<<", 1}:     func(cd *CallData) Instruction { return &OptLtLt{optCall{CallData: cd}} },
	{"[]", 1}:     func(cd *CallData) Instruction { return &OptAref{optCall{CallData: cd}} },
	{"&", 1}:      func(cd *CallData) Instruction { return &OptAnd{optCall{CallData: cd}} },
	{"|", 1}:      func(cd *CallData) Instruction { return &OptOr{optCall{CallData: cd}} },
	{"[]=", 2}:    func(cd *CallData) Instruction { return &OptAset{optCall{CallData: cd}} },
	{"!=", 1}: func(cd *CallData) Instruction {
		return &OptNEq{EqCallData: NewCallData("==", 1, CallArgsSimple), CallData: cd}
	},
}

// Specialize rewrites generic instruction pairs into fused or operator
// specific instructions, looking one element ahead. It returns the number
// of rewrites. Running it again on its own output changes nothing.
func (s *InstructionSequence) Specialize() int {
	rewrites := 0
	out := make([]any, 0, len(s.insns))
	for i := 0; i < len(s.insns); i++ {
		var next any
		if i+1 < len(s.insns) {
			next = s.insns[i+1]
		}
		switch insn := s.insns[i].(type) {
		case *NewArray:
			if send, ok := next.(*Send); ok && simpleZeroArgSend(send) {
				switch send.CallData.Method {
				case "max":
					out = append(out, &OptNewArrayMax{Number: insn.Number})
					rewrites++
					i++
					continue
				case "min":
					out = append(out, &OptNewArrayMin{Number: insn.Number})
					rewrites++
					i++
					continue
				}
			}
		case *PutString, *PutObject:
			str, isString := stringOperand(insn)
			if send, ok := next.(*Send); ok && isString && simpleZeroArgSend(send) {
				switch send.CallData.Method {
				case "freeze":
					out = append(out, &OptStrFreeze{Object: str, CallData: send.CallData})
					rewrites++
					i++
					continue
				case "-@":
					out = append(out, &OptStrUMinus{Object: str, CallData: send.CallData})
					rewrites++
					i++
					continue
				}
			}
		case *Send:
			if insn.BlockISeq == nil && !insn.CallData.Flag(CallArgsBlockarg) {
				out = append(out, specializeSend(insn.CallData))
				rewrites++
				continue
			}
		}
		out = append(out, s.insns[i])
	}
	s.insns = out
	if rewrites > 0 {
		log.Debugf("specialized %d instructions in %q", rewrites, s.Name)
		if s.closed {
			s.nameLabels()
		}
	}
	return rewrites
}

func specializeSend(cd *CallData) Instruction {
	if cd.Flag(CallArgsSimple) {
		if build, ok := specializations[specializeKey{cd.Method, cd.Argc}]; ok {
			return build(cd)
		}
	}
	return &OptSendWithoutBlock{CallData: cd}
}

func simpleZeroArgSend(send *Send) bool {
	cd := send.CallData
	return send.BlockISeq == nil && cd.Argc == 0 && cd.Flags == CallArgsSimple
}

func stringOperand(insn any) (string, bool) {
	switch i := insn.(type) {
	case *PutString:
		return i.Object, true
	case *PutObject:
		str, ok := i.Object.(string)
		return str, ok
	}
	return "", false
}
