package bytecode

import (
	"fmt"
	"strings"
)

// Load rebuilds a closed sequence from the nested array produced by ToA.
// Malformed input is reported as an error rather than a fault.
func Load(dumped []any) (iseq *InstructionSequence, err error) {
	defer func() {
		if r := recover(); r != nil {
			if ie, ok := r.(*InternalError); ok {
				err = fmt.Errorf("bytecode: load: %w", ie)
				return
			}
			if le, ok := r.(loadError); ok {
				err = fmt.Errorf("bytecode: load: %s", string(le))
				return
			}
			panic(r)
		}
	}()
	return newLoader(nil).load(dumped), nil
}

type loadError string

func failf(format string, args ...any) {
	panic(loadError(fmt.Sprintf(format, args...)))
}

type loader struct {
	parent *InstructionSequence
	iseq   *InstructionSequence
	labels map[string]*Label
}

func newLoader(parent *InstructionSequence) *loader {
	return &loader{parent: parent, labels: make(map[string]*Label)}
}

func (l *loader) label(v any) *Label {
	name := asString(v)
	if !strings.HasPrefix(name, "label_") {
		failf("expected label, got %v", v)
	}
	if lbl, ok := l.labels[name]; ok {
		return lbl
	}
	lbl := NewLabelNamed(name)
	l.labels[name] = lbl
	return lbl
}

func (l *loader) child(v any) *InstructionSequence {
	if v == nil {
		return nil
	}
	arr, ok := v.([]any)
	if !ok {
		failf("expected nested sequence, got %T", v)
	}
	return newLoader(l.iseq).load(arr)
}

func (l *loader) load(dumped []any) *InstructionSequence {
	if len(dumped) != 14 {
		failf("expected 14 fields, got %d", len(dumped))
	}
	if asString(dumped[0]) != Magic {
		failf("bad magic %v", dumped[0])
	}
	misc := asPairs(dumped[4])
	iseq := NewInstructionSequence(ISeqType(asString(dumped[9])), asString(dumped[5]), l.parent, asInt(dumped[8]), DefaultOptions())
	iseq.File = asString(dumped[6])
	l.iseq = iseq

	if v, ok := misc.Get(Symbol("arg_size")); ok {
		iseq.ArgumentSize = asInt(v)
	}
	if v, ok := misc.Get(Symbol("stack_max")); ok {
		iseq.stackMax = asInt(v)
	}
	for _, name := range asArray(dumped[10]) {
		iseq.Locals.locals = append(iseq.Locals.locals, &Local{Name: asString(name)})
	}
	l.loadParams(asPairs(dumped[11]))

	for _, entry := range asArray(dumped[12]) {
		e := asArray(entry)
		if len(e) != 6 {
			failf("catch entry of length %d", len(e))
		}
		iseq.CatchTable = append(iseq.CatchTable, &CatchEntry{
			Type:       CatchType(asString(e[0])),
			ISeq:       l.child(e[1]),
			BeginLabel: l.label(e[2]),
			EndLabel:   l.label(e[3]),
			ExitLabel:  l.label(e[4]),
			RestoreSP:  asInt(e[5]),
		})
	}

	for _, e := range asArray(dumped[13]) {
		switch v := e.(type) {
		case int64, int:
			iseq.insns = append(iseq.insns, Line(asInt(v)))
		case Symbol:
			if strings.HasPrefix(string(v), "label_") {
				iseq.insns = append(iseq.insns, l.label(v))
			} else {
				iseq.insns = append(iseq.insns, Event(v))
			}
		case []any:
			iseq.insns = append(iseq.insns, l.instruction(v))
		default:
			failf("unexpected instruction stream element %T", e)
		}
	}
	for name, lbl := range l.labels {
		if !l.placed(lbl) {
			failf("label %s referenced but never placed", name)
		}
	}
	iseq.closed = true
	return iseq
}

func (l *loader) placed(lbl *Label) bool {
	for _, e := range l.iseq.insns {
		if e == any(lbl) {
			return true
		}
	}
	return false
}

func (l *loader) loadParams(params Pairs) {
	args := &l.iseq.Args
	for _, p := range params {
		switch asString(p.Key) {
		case "lead_num":
			args.LeadNum = asInt(p.Value)
		case "opt":
			for _, lbl := range asArray(p.Value) {
				args.Opt = append(args.Opt, l.label(lbl))
			}
		case "rest_start":
			args.RestStart = asInt(p.Value)
		case "post_start":
			args.PostStart = asInt(p.Value)
		case "post_num":
			args.PostNum = asInt(p.Value)
		case "kwbits":
			args.KwBits = asInt(p.Value)
		case "keyword":
			args.Keyword = asArray(p.Value)
		case "kwrest":
			args.KwRest = asInt(p.Value)
		case "block_start":
			args.BlockStart = asInt(p.Value)
		case "ambiguous_param0":
			args.AmbiguousParam0, _ = p.Value.(bool)
		}
	}
}

func (l *loader) local(offset, level any) (int, int) {
	lvl := asInt(level)
	return l.iseq.Ancestor(lvl).Locals.IndexForOffset(asInt(offset)), lvl
}

func (l *loader) instruction(arr []any) Instruction {
	if len(arr) == 0 {
		failf("empty instruction")
	}
	name := asString(arr[0])
	ops := arr[1:]
	need := func(n int) {
		if len(ops) < n {
			failf("%s expects %d operands, got %d", name, n, len(ops))
		}
	}
	switch name {
	case "adjuststack":
		need(1)
		return &AdjustStack{Number: asInt(ops[0])}
	case "anytostring":
		return &AnyToString{}
	case "branchif":
		need(1)
		return &BranchIf{branch{Label: l.label(ops[0])}}
	case "branchnil":
		need(1)
		return &BranchNil{branch{Label: l.label(ops[0])}}
	case "branchunless":
		need(1)
		return &BranchUnless{branch{Label: l.label(ops[0])}}
	case "checkkeyword":
		need(2)
		return &CheckKeyword{KeywordBitsIndex: l.iseq.Locals.IndexForOffset(asInt(ops[0])), KeywordIndex: asInt(ops[1])}
	case "checkmatch":
		need(1)
		return &CheckMatch{Type: asInt(ops[0])}
	case "checktype":
		need(1)
		return &CheckType{Type: asInt(ops[0])}
	case "concatarray":
		return &ConcatArray{}
	case "concatstrings":
		need(1)
		return &ConcatStrings{Number: asInt(ops[0])}
	case "defineclass":
		need(3)
		return &DefineClass{Constant: asString(ops[0]), ClassISeq: l.child(ops[1]), Flags: asInt(ops[2])}
	case "defined":
		need(3)
		return &Defined{Type: asInt(ops[0]), Operand: ops[1], Message: ops[2]}
	case "definemethod":
		need(2)
		return &DefineMethod{Method: asString(ops[0]), MethodISeq: l.child(ops[1])}
	case "definesmethod":
		need(2)
		return &DefineSMethod{Method: asString(ops[0]), MethodISeq: l.child(ops[1])}
	case "dup":
		return &Dup{}
	case "duparray":
		need(1)
		return &DupArray{Object: asArray(ops[0])}
	case "duphash":
		need(1)
		return &DupHash{Object: asPairs(ops[0])}
	case "dupn":
		need(1)
		return &DupN{Number: asInt(ops[0])}
	case "expandarray":
		need(2)
		return &ExpandArray{Number: asInt(ops[0]), Flags: asInt(ops[1])}
	case "getblockparam":
		need(2)
		idx, lvl := l.local(ops[0], ops[1])
		return &GetBlockParam{Index: idx, Level: lvl}
	case "getblockparamproxy":
		need(2)
		idx, lvl := l.local(ops[0], ops[1])
		return &GetBlockParamProxy{Index: idx, Level: lvl}
	case "getclassvariable":
		need(1)
		if len(ops) == 1 {
			return &GetClassVariable{Variable: asString(ops[0]), Cache: -1}
		}
		return &GetClassVariable{Variable: asString(ops[0]), Cache: asInt(ops[1])}
	case "getconstant":
		need(1)
		return &GetConstant{Constant: asString(ops[0])}
	case "getglobal":
		need(1)
		return &GetGlobal{Variable: asString(ops[0])}
	case "getinstancevariable":
		need(2)
		return &GetInstanceVariable{Variable: asString(ops[0]), Cache: asInt(ops[1])}
	case "getlocal":
		need(2)
		idx, lvl := l.local(ops[0], ops[1])
		return &GetLocal{Index: idx, Level: lvl}
	case "getlocal_WC_0":
		need(1)
		idx, _ := l.local(ops[0], int64(0))
		return &GetLocalWC0{Index: idx}
	case "getlocal_WC_1":
		need(1)
		idx, _ := l.local(ops[0], int64(1))
		return &GetLocalWC1{Index: idx}
	case "getspecial":
		need(2)
		return &GetSpecial{Key: asInt(ops[0]), Type: asInt(ops[1])}
	case "intern":
		return &Intern{}
	case "invokeblock":
		need(1)
		return &InvokeBlock{CallData: asCallData(ops[0])}
	case "invokebuiltin":
		need(1)
		bname, argc := asBuiltin(ops[0])
		return &InvokeBuiltin{Builtin: bname, Argc: argc}
	case "invokesuper":
		need(2)
		return &InvokeSuper{CallData: asCallData(ops[0]), BlockISeq: l.child(ops[1])}
	case "jump":
		need(1)
		return &Jump{Label: l.label(ops[0])}
	case "leave":
		return &Leave{}
	case "newarray":
		need(1)
		return &NewArray{Number: asInt(ops[0])}
	case "newarraykwsplat":
		need(1)
		return &NewArrayKwSplat{Number: asInt(ops[0])}
	case "newhash":
		need(1)
		return &NewHash{Number: asInt(ops[0])}
	case "newrange":
		need(1)
		return &NewRange{Exclude: asInt(ops[0])}
	case "nop":
		return &Nop{}
	case "objtostring":
		need(1)
		return &ObjToString{CallData: asCallData(ops[0])}
	case "once":
		need(2)
		return &Once{ISeq: l.child(ops[0]), Cache: asInt(ops[1])}
	case "opt_aref_with":
		need(2)
		return &OptArefWith{Object: asString(ops[0]), CallData: asCallData(ops[1])}
	case "opt_aset_with":
		need(2)
		return &OptAsetWith{Object: asString(ops[0]), CallData: asCallData(ops[1])}
	case "opt_case_dispatch":
		need(2)
		flat := asArray(ops[0])
		var hash Pairs
		for i := 0; i+1 < len(flat); i += 2 {
			hash = append(hash, Pair{Key: flat[i], Value: l.label(flat[i+1])})
		}
		return &OptCaseDispatch{CaseDispatchHash: hash, ElseLabel: l.label(ops[1])}
	case "opt_getconstant_path":
		need(1)
		var names []string
		for _, n := range asArray(ops[0]) {
			names = append(names, asString(n))
		}
		return &OptGetConstantPath{Names: names}
	case "opt_getinlinecache":
		need(2)
		return &OptGetInlineCache{Label: l.label(ops[0]), Cache: asInt(ops[1])}
	case "opt_setinlinecache":
		need(1)
		return &OptSetInlineCache{Cache: asInt(ops[0])}
	case "opt_invokebuiltin_delegate", "opt_invokebuiltin_delegate_leave":
		need(2)
		bname, argc := asBuiltin(ops[0])
		if name == "opt_invokebuiltin_delegate" {
			return &OptInvokeBuiltinDelegate{Builtin: bname, Argc: argc, Index: asInt(ops[1])}
		}
		return &OptInvokeBuiltinDelegateLeave{Builtin: bname, Argc: argc, Index: asInt(ops[1])}
	case "opt_neq":
		need(2)
		return &OptNEq{EqCallData: asCallData(ops[0]), CallData: asCallData(ops[1])}
	case "opt_newarray_max":
		need(1)
		return &OptNewArrayMax{Number: asInt(ops[0])}
	case "opt_newarray_min":
		need(1)
		return &OptNewArrayMin{Number: asInt(ops[0])}
	case "opt_send_without_block":
		need(1)
		return &OptSendWithoutBlock{CallData: asCallData(ops[0])}
	case "opt_str_freeze":
		need(2)
		return &OptStrFreeze{Object: asString(ops[0]), CallData: asCallData(ops[1])}
	case "opt_str_uminus":
		need(2)
		return &OptStrUMinus{Object: asString(ops[0]), CallData: asCallData(ops[1])}
	case "pop":
		return &Pop{}
	case "putnil":
		return &PutNil{}
	case "putobject":
		need(1)
		return &PutObject{Object: ops[0]}
	case "putobject_INT2FIX_0_":
		return &PutObjectInt2Fix0{}
	case "putobject_INT2FIX_1_":
		return &PutObjectInt2Fix1{}
	case "putself":
		return &PutSelf{}
	case "putspecialobject":
		need(1)
		return &PutSpecialObject{Object: asInt(ops[0])}
	case "putstring":
		need(1)
		return &PutString{Object: asString(ops[0])}
	case "send":
		need(2)
		return &Send{CallData: asCallData(ops[0]), BlockISeq: l.child(ops[1])}
	case "setblockparam":
		need(2)
		idx, lvl := l.local(ops[0], ops[1])
		return &SetBlockParam{Index: idx, Level: lvl}
	case "setclassvariable":
		need(1)
		if len(ops) == 1 {
			return &SetClassVariable{Variable: asString(ops[0]), Cache: -1}
		}
		return &SetClassVariable{Variable: asString(ops[0]), Cache: asInt(ops[1])}
	case "setconstant":
		need(1)
		return &SetConstant{Constant: asString(ops[0])}
	case "setglobal":
		need(1)
		return &SetGlobal{Variable: asString(ops[0])}
	case "setinstancevariable":
		need(2)
		return &SetInstanceVariable{Variable: asString(ops[0]), Cache: asInt(ops[1])}
	case "setlocal":
		need(2)
		idx, lvl := l.local(ops[0], ops[1])
		return &SetLocal{Index: idx, Level: lvl}
	case "setlocal_WC_0":
		need(1)
		idx, _ := l.local(ops[0], int64(0))
		return &SetLocalWC0{Index: idx}
	case "setlocal_WC_1":
		need(1)
		idx, _ := l.local(ops[0], int64(1))
		return &SetLocalWC1{Index: idx}
	case "setn":
		need(1)
		return &SetN{Number: asInt(ops[0])}
	case "setspecial":
		need(1)
		return &SetSpecial{Key: asInt(ops[0])}
	case "splatarray":
		need(1)
		flag, _ := ops[0].(bool)
		return &SplatArray{Flag: flag}
	case "swap":
		return &Swap{}
	case "throw":
		need(1)
		return &Throw{Type: asInt(ops[0])}
	case "topn":
		need(1)
		return &TopN{Number: asInt(ops[0])}
	case "toregexp":
		need(2)
		return &ToRegExp{Options: asInt(ops[0]), Count: asInt(ops[1])}
	}
	if build, ok := optCallByName[name]; ok {
		need(1)
		return build(asCallData(ops[0]))
	}
	failf("unknown instruction %s", name)
	return nil
}

var optCallByName = func() map[string]func(*CallData) Instruction {
	out := make(map[string]func(*CallData) Instruction)
	blank := NewCallData("", 0, 0)
	for _, build := range specializations {
		out[build(blank).Name()] = build
	}
	delete(out, "opt_neq")
	return out
}()

func asInt(v any) int {
	switch n := v.(type) {
	case int:
		return n
	case int64:
		return int(n)
	case uint64:
		return int(n)
	case float64:
		return int(n)
	}
	failf("expected integer, got %T", v)
	return 0
}

func asString(v any) string {
	switch s := v.(type) {
	case string:
		return s
	case Symbol:
		return string(s)
	}
	failf("expected string or symbol, got %T", v)
	return ""
}

func asArray(v any) []any {
	if v == nil {
		return nil
	}
	arr, ok := v.([]any)
	if !ok {
		failf("expected array, got %T", v)
	}
	return arr
}

func asPairs(v any) Pairs {
	p, ok := v.(Pairs)
	if !ok {
		failf("expected hash, got %T", v)
	}
	return p
}

func asCallData(v any) *CallData {
	pairs := asPairs(v)
	cd := &CallData{}
	if mid, ok := pairs.Get(Symbol("mid")); ok && mid != nil {
		cd.Method = asString(mid)
	}
	if flag, ok := pairs.Get(Symbol("flag")); ok {
		cd.Flags = asInt(flag)
	}
	if argc, ok := pairs.Get(Symbol("orig_argc")); ok {
		cd.Argc = asInt(argc)
	}
	if kw, ok := pairs.Get(Symbol("kw_arg")); ok {
		for _, name := range asArray(kw) {
			cd.KwArg = append(cd.KwArg, asString(name))
		}
	}
	return cd
}

func asBuiltin(v any) (string, int) {
	pairs := asPairs(v)
	name, _ := pairs.Get(Symbol("name"))
	argc, _ := pairs.Get(Symbol("argc"))
	return asString(name), asInt(argc)
}
