package vm

import (
	"math/big"
	"slices"
	"strings"

	"github.com/ruby-syntax-tree/syntax-tree-sub003/bytecode"
)

// ---------------------------------------------------------------------------
// Stack operations
// ---------------------------------------------------------------------------

func (vm *VM) push(v Value) {
	vm.stack = append(vm.stack, v)
}

func (vm *VM) pop() Value {
	n := len(vm.stack) - 1
	if n < 0 {
		bytecode.Fault(nil, "operand stack underflow")
	}
	v := vm.stack[n]
	vm.stack[n] = nil
	vm.stack = vm.stack[:n]
	return v
}

// popN pops n values, deepest first.
func (vm *VM) popN(n int) []Value {
	if n == 0 {
		return nil
	}
	sp := len(vm.stack) - n
	if sp < 0 {
		bytecode.Fault(n, "operand stack underflow")
	}
	out := slices.Clone(vm.stack[sp:])
	vm.truncate(sp)
	return out
}

func (vm *VM) top() Value { return vm.peek(0) }

// peek returns the value n slots below the top.
func (vm *VM) peek(n int) Value {
	return vm.stack[len(vm.stack)-1-n]
}

func (vm *VM) truncate(sp int) {
	if sp < len(vm.stack) {
		clear(vm.stack[sp:])
		vm.stack = vm.stack[:sp]
	}
}

// ---------------------------------------------------------------------------
// Frame stack
// ---------------------------------------------------------------------------

func (vm *VM) pushFrame(f *Frame) {
	if len(vm.frames) >= vm.MaxFrames {
		vm.raiseError("SystemStackError", "stack level too deep")
	}
	f.base = len(vm.stack)
	vm.frames = append(vm.frames, f)
	log.Debugf("push %s frame %q (depth %d)", f.ISeq.Type, f.ISeq.Name, len(vm.frames))
}

func (vm *VM) popFrame(f *Frame) {
	f.done = true
	vm.truncate(f.base)
	vm.frames = vm.frames[:len(vm.frames)-1]
}

// currentFrame is the innermost executing frame, the caller of any
// builtin being run.
func (vm *VM) currentFrame() *Frame {
	if len(vm.frames) == 0 {
		return nil
	}
	return vm.frames[len(vm.frames)-1]
}

// ---------------------------------------------------------------------------
// Execution
// ---------------------------------------------------------------------------

// run executes f to completion and returns the value it leaves with.
// Signals unwinding through f are matched against its catch table; those
// that f does not handle keep unwinding to the caller.
func (vm *VM) run(f *Frame) Value {
	vm.pushFrame(f)
	defer vm.popFrame(f)

	for {
		v, sig := vm.execute(f)
		if sig == nil {
			return v
		}
		for sig != nil {
			entry := vm.findCatch(f, sig)
			if entry != nil {
				sig = vm.handle(f, entry, sig)
				continue
			}
			if sig.target != f {
				panic(sig)
			}
			switch {
			case sig.tag == bytecode.TagReturn, sig.tag == bytecode.TagBreak && f.lambda:
				log.Debugf("%s leaves %q", tagName(sig.tag), f.ISeq.Name)
				return sig.value
			case sig.tag == bytecode.TagBreak:
				vm.raiseError("LocalJumpError", "break from proc-closure")
			default:
				bytecode.Fault(tagName(sig.tag), "no catch entry in %s", f.ISeq.Name)
			}
		}
	}
}

func (vm *VM) execute(f *Frame) (result Value, sig *signal) {
	defer catchSignal(&sig)
	return vm.loop(f), nil
}

// loop is the fetch, decode and execute cycle. It returns at leave.
func (vm *VM) loop(f *Frame) Value {
	p := f.prog
	for {
		if f.pc >= len(p.insns) {
			bytecode.Fault(f.ISeq.Name, "execution ran past the last instruction")
		}
		i := f.pc
		f.pc++

		switch in := p.insns[i].(type) {
		// Stack
		case *bytecode.Nop:
		case *bytecode.Pop:
			vm.pop()
		case *bytecode.Dup:
			vm.push(vm.top())
		case *bytecode.DupN:
			vm.stack = append(vm.stack, slices.Clone(vm.stack[len(vm.stack)-in.Number:])...)
		case *bytecode.Swap:
			n := len(vm.stack)
			vm.stack[n-1], vm.stack[n-2] = vm.stack[n-2], vm.stack[n-1]
		case *bytecode.TopN:
			vm.push(vm.peek(in.Number))
		case *bytecode.SetN:
			vm.stack[len(vm.stack)-1-in.Number] = vm.top()
		case *bytecode.AdjustStack:
			vm.truncate(len(vm.stack) - in.Number)

		// Literals
		case *bytecode.PutNil:
			vm.push(nil)
		case *bytecode.PutSelf:
			vm.push(f.Self)
		case *bytecode.PutObject:
			vm.push(vm.fromOperand(in.Object, true))
		case *bytecode.PutString:
			vm.push(NewString(in.Object))
		case *bytecode.PutSpecialObject:
			switch in.Object {
			case bytecode.SpecialObjectVMCore:
				vm.push(vm.core)
			default:
				vm.push(f.Cref.Class)
			}
		case *bytecode.DupArray:
			vm.push(vm.fromOperand(in.Object, false))
		case *bytecode.DupHash:
			vm.push(vm.fromOperand(in.Object, false))
		case *bytecode.NewArray:
			vm.push(NewArray(vm.popN(in.Number)...))
		case *bytecode.NewArrayKwSplat:
			elems := vm.popN(in.Number)
			if n := len(elems); n > 0 {
				if h, ok := elems[n-1].(*Hash); ok && h.Len() == 0 {
					elems = elems[:n-1]
				}
			}
			vm.push(NewArray(elems...))
		case *bytecode.NewHash:
			vals := vm.popN(in.Number)
			h := NewHash()
			for j := 0; j+1 < len(vals); j += 2 {
				h.Set(vals[j], vals[j+1])
			}
			vm.push(h)
		case *bytecode.NewRange:
			end := vm.pop()
			vm.push(vm.newRange(vm.pop(), end, in.Exclude != 0))
		case *bytecode.SplatArray:
			a := vm.splat(vm.pop())
			if in.Flag {
				a = NewArray(slices.Clone(a.Elements)...)
			}
			vm.push(a)
		case *bytecode.ConcatArray:
			b := vm.splat(vm.pop())
			a := vm.splat(vm.pop())
			vm.push(NewArray(append(slices.Clone(a.Elements), b.Elements...)...))
		case *bytecode.ExpandArray:
			vm.expandArray(vm.pop(), in.Number, in.Flags)

		// Strings and regexps
		case *bytecode.ConcatStrings:
			var sb strings.Builder
			for _, part := range vm.popN(in.Number) {
				sb.WriteString(vm.ToS(part))
			}
			vm.push(NewString(sb.String()))
		case *bytecode.AnyToString:
			str := vm.pop()
			obj := vm.pop()
			if s, ok := str.(*String); ok {
				vm.push(s)
			} else {
				vm.push(NewString(vm.defaultToS(obj)))
			}
		case *bytecode.ObjToString:
			v := vm.pop()
			if s, ok := v.(*String); ok {
				vm.push(s)
			} else {
				vm.push(vm.callMethod(v, "to_s", nil, nil, true))
			}
		case *bytecode.Intern:
			vm.push(Symbol(vm.ToS(vm.pop())))
		case *bytecode.ToRegExp:
			var sb strings.Builder
			for _, part := range vm.popN(in.Count) {
				sb.WriteString(vm.ToS(part))
			}
			re, err := NewRegexp(sb.String(), in.Options)
			if err != nil {
				vm.raiseError("RegexpError", "%s", err.Error())
			}
			vm.push(re)

		// Checks
		case *bytecode.CheckMatch:
			pattern := vm.pop()
			vm.push(vm.checkMatch(vm.pop(), pattern, in.Type))
		case *bytecode.CheckType:
			vm.push(vm.checkType(vm.pop(), in.Type))
		case *bytecode.CheckKeyword:
			bits, _ := f.Locals[in.KeywordBitsIndex].(int64)
			vm.push(bits>>in.KeywordIndex&1 == 0)
		case *bytecode.Defined:
			vm.push(vm.defined(f, in, vm.pop()))

		// Variables
		case *bytecode.GetLocal:
			vm.push(f.env(in.Level).Locals[in.Index])
		case *bytecode.SetLocal:
			f.env(in.Level).Locals[in.Index] = vm.pop()
		case *bytecode.GetBlockParam:
			vm.push(f.env(in.Level).Locals[in.Index])
		case *bytecode.GetBlockParamProxy:
			vm.push(f.env(in.Level).Locals[in.Index])
		case *bytecode.SetBlockParam:
			f.env(in.Level).Locals[in.Index] = vm.pop()
		case *bytecode.GetInstanceVariable:
			vm.push(vm.ivarGet(f.Self, in.Variable))
		case *bytecode.SetInstanceVariable:
			vm.ivarSet(f.Self, in.Variable, vm.pop())
		case *bytecode.GetClassVariable:
			vm.push(vm.cvarGet(f, in.Variable))
		case *bytecode.SetClassVariable:
			vm.cvarBase(f).SetClassVar(in.Variable, vm.pop())
		case *bytecode.GetGlobal:
			vm.push(vm.getGlobal(in.Variable))
		case *bytecode.SetGlobal:
			vm.setGlobal(in.Variable, vm.pop())
		case *bytecode.GetSpecial:
			vm.push(vm.getSpecial(f, in.Key, in.Type))
		case *bytecode.SetSpecial:
			vm.setSpecial(f, in.Key, vm.pop())

		// Constants
		case *bytecode.GetConstant:
			allowNil := vm.pop()
			vm.push(vm.getConstant(f, vm.pop(), Truthy(allowNil), in.Constant))
		case *bytecode.SetConstant:
			cbase := vm.pop()
			vm.moduleOf(cbase).ConstSet(in.Constant, vm.pop())
		case *bytecode.OptGetConstantPath:
			vm.push(vm.constPath(f, in.Names))
		case *bytecode.OptGetInlineCache:
			if v, ok := vm.constSlot[constSlotKey{f.ISeq, in.Cache}]; ok {
				vm.push(v)
				f.pc = p.target(in.Label)
			} else {
				vm.push(nil)
			}
		case *bytecode.OptSetInlineCache:
			vm.constSlot[constSlotKey{f.ISeq, in.Cache}] = vm.top()

		// Control
		case *bytecode.Jump:
			f.pc = p.target(in.Label)
		case *bytecode.BranchIf:
			if Truthy(vm.pop()) {
				f.pc = p.target(in.Label)
			}
		case *bytecode.BranchUnless:
			if !Truthy(vm.pop()) {
				f.pc = p.target(in.Label)
			}
		case *bytecode.BranchNil:
			if vm.pop() == nil {
				f.pc = p.target(in.Label)
			}
		case *bytecode.Leave:
			return vm.pop()
		case *bytecode.Throw:
			vm.throw(f, in.Type, vm.pop())
		case *bytecode.Once:
			v, ok := vm.onceCache[in]
			if !ok {
				v = vm.run(vm.newFrame(in.ISeq, f.Self, f))
				vm.onceCache[in] = v
			}
			vm.push(v)
		case *bytecode.OptCaseDispatch:
			if target, ok := vm.caseDispatch(p, in, vm.pop()); ok {
				f.pc = target
			}

		// Definitions
		case *bytecode.DefineMethod:
			vm.defineMethod(f, f.Cref.Class, in.Method, in.MethodISeq, false)
		case *bytecode.DefineSMethod:
			vm.defineMethod(f, vm.singletonClass(vm.pop()), in.Method, in.MethodISeq, true)
		case *bytecode.DefineClass:
			super := vm.pop()
			vm.push(vm.openClass(f, in, vm.pop(), super))

		// Calls
		case *bytecode.Send:
			vm.push(vm.execSend(f, in.CallData, in.BlockISeq, p.keys[i]))
		case *bytecode.InvokeSuper:
			vm.push(vm.execSuper(f, in.CallData, in.BlockISeq))
		case *bytecode.InvokeBlock:
			vm.push(vm.execYield(f, in.CallData))
		case *bytecode.OptNewArrayMax:
			vm.push(vm.extreme(vm.popN(in.Number), 1))
		case *bytecode.OptNewArrayMin:
			vm.push(vm.extreme(vm.popN(in.Number), -1))
		case *bytecode.OptStrFreeze:
			s := NewString(in.Object)
			s.Freeze()
			vm.push(s)
		case *bytecode.OptStrUMinus:
			s := NewString(in.Object)
			s.Freeze()
			vm.push(s)
		case *bytecode.OptArefWith:
			vm.push(vm.Send(vm.pop(), "[]", NewString(in.Object)))
		case *bytecode.OptAsetWith:
			v := vm.pop()
			vm.Send(vm.pop(), "[]=", NewString(in.Object), v)
			vm.push(v)
		case *bytecode.InvokeBuiltin:
			vm.push(vm.invokeBuiltin(f, in.Builtin, vm.popN(in.Argc)))
		case *bytecode.OptInvokeBuiltinDelegate:
			vm.push(vm.invokeBuiltin(f, in.Builtin, slices.Clone(f.Locals[in.Index:in.Index+in.Argc])))

		default:
			bytecode.Fault(in.Name(), "instruction not supported by the interpreter")
		}
	}
}

func (vm *VM) invokeBuiltin(f *Frame, name string, args []Value) Value {
	fn, ok := vm.builtins[name]
	if !ok {
		vm.raiseError("NotImplementedError", "builtin %s is not registered", name)
	}
	return fn(vm, f.Self, args, f.Block)
}

// ---------------------------------------------------------------------------
// Instruction helpers
// ---------------------------------------------------------------------------

func (vm *VM) newRange(begin, end Value, exclusive bool) *Range {
	_, bInt := begin.(int64)
	_, eInt := end.(int64)
	if !(bInt && eInt) && begin != nil && end != nil {
		if _, ok := vm.compare(begin, end); !ok {
			vm.raiseError("ArgumentError", "bad value for range")
		}
	}
	r := &Range{Begin: begin, End: end, Exclusive: exclusive}
	r.Freeze()
	return r
}

// splat converts v the way *v does: arrays as they are, nil to [], values
// answering to_a through it, anything else wrapped.
func (vm *VM) splat(v Value) *Array {
	switch x := v.(type) {
	case *Array:
		return x
	case nil:
		return NewArray()
	case *Hash:
		return vm.hashToA(x)
	case *Range:
		return NewArray(vm.rangeElements(x)...)
	}
	if vm.respondTo(v, "to_a", true) {
		if a, ok := vm.Send(v, "to_a").(*Array); ok {
			return a
		}
		vm.raiseError("TypeError", "can't convert %s to Array", vm.ClassOf(v).FullName())
	}
	return NewArray(v)
}

// expandArray pushes the elements of v for multiple assignment: the first
// element ends up on top, and the rest array (with the splat flag) below
// the elements or, with the postarg flag, on top of them.
func (vm *VM) expandArray(v Value, num, flags int) {
	var elems []Value
	switch x := v.(type) {
	case *Array:
		elems = x.Elements
	default:
		if v != nil && vm.respondTo(v, "to_ary", true) {
			if a, ok := vm.Send(v, "to_ary").(*Array); ok {
				elems = a.Elements
				break
			}
		}
		elems = []Value{v}
	}
	at := func(i int) Value {
		if i < len(elems) {
			return elems[i]
		}
		return nil
	}

	if flags&bytecode.ExpandArrayPostarg != 0 {
		var post, rest []Value
		if len(elems) >= num {
			rest, post = elems[:len(elems)-num], elems[len(elems)-num:]
		} else {
			post = append(slices.Clone(elems), make([]Value, num-len(elems))...)
		}
		for j := num - 1; j >= 0; j-- {
			vm.push(post[j])
		}
		if flags&bytecode.ExpandArraySplat != 0 {
			vm.push(NewArray(slices.Clone(rest)...))
		}
		return
	}
	if flags&bytecode.ExpandArraySplat != 0 {
		var rest []Value
		if len(elems) > num {
			rest = slices.Clone(elems[num:])
		}
		vm.push(NewArray(rest...))
	}
	for j := num - 1; j >= 0; j-- {
		vm.push(at(j))
	}
}

// checkMatch implements checkmatch: a when without a case value tests the
// pattern itself, case patterns use ===, rescue clauses test the class of
// the error. The array flag tests every
// element of a splatted pattern list.
func (vm *VM) checkMatch(target, pattern Value, typ int) bool {
	if typ&bytecode.CheckMatchArray != 0 {
		for _, p := range vm.splat(pattern).Elements {
			if vm.checkMatch(target, p, typ&^bytecode.CheckMatchArray) {
				return true
			}
		}
		return false
	}
	if typ == bytecode.CheckMatchWhen {
		return Truthy(pattern)
	}
	if typ == bytecode.CheckMatchRescue {
		c, ok := pattern.(*Class)
		if !ok {
			vm.raiseError("TypeError", "class or module required for rescue clause")
		}
		return vm.ClassOf(target).IsSubclassOf(c) || vm.dispatchClass(target).IsSubclassOf(c)
	}
	return Truthy(vm.callMethod(pattern, "===", []Value{target}, nil, true))
}

func (vm *VM) checkType(v Value, typ int) bool {
	switch typ {
	case bytecode.TNil:
		return v == nil
	case bytecode.TTrue:
		return v == true
	case bytecode.TFalse:
		return v == false
	case bytecode.TFixnum:
		_, ok := v.(int64)
		return ok
	case bytecode.TBignum:
		_, ok := v.(*big.Int)
		return ok
	case bytecode.TFloat:
		_, ok := v.(float64)
		return ok
	case bytecode.TSymbol:
		_, ok := v.(Symbol)
		return ok
	case bytecode.TString:
		_, ok := v.(*String)
		return ok
	case bytecode.TArray:
		_, ok := v.(*Array)
		return ok
	case bytecode.THash:
		_, ok := v.(*Hash)
		return ok
	case bytecode.TRegexp:
		_, ok := v.(*Regexp)
		return ok
	case bytecode.TMatch:
		_, ok := v.(*MatchData)
		return ok
	case bytecode.TRational:
		_, ok := v.(*Rational)
		return ok
	case bytecode.TComplex:
		_, ok := v.(*Complex)
		return ok
	case bytecode.TClass:
		c, ok := v.(*Class)
		return ok && !c.IsModule
	case bytecode.TModule:
		c, ok := v.(*Class)
		return ok && c.IsModule
	case bytecode.TObject:
		_, ok := v.(*Object)
		return ok
	}
	return false
}

// caseDispatch looks a static when value up in the dispatch hash. Values
// of other kinds fall through to the sequential === checks.
func (vm *VM) caseDispatch(p *program, in *bytecode.OptCaseDispatch, key Value) (int, bool) {
	var operand any
	switch k := key.(type) {
	case nil, bool, int64, float64:
		operand = k
	case Symbol:
		operand = bytecode.Symbol(k)
	case *String:
		operand = k.Value
	default:
		return 0, false
	}
	if f, ok := operand.(float64); ok && f == float64(int64(f)) {
		if _, found := in.CaseDispatchHash.Get(int64(f)); found {
			operand = int64(f)
		}
	}
	if target, ok := in.CaseDispatchHash.Get(operand); ok {
		if l, ok := target.(*bytecode.Label); ok {
			return p.target(l), true
		}
	}
	return p.target(in.ElseLabel), true
}

// extreme returns the largest (dir 1) or smallest (dir -1) value.
func (vm *VM) extreme(vals []Value, dir int) Value {
	var best Value
	for i, v := range vals {
		if i == 0 {
			best = v
			continue
		}
		c, ok := vm.compare(v, best)
		if !ok {
			vm.raiseError("ArgumentError", "comparison of %s with %s failed", vm.ClassOf(v).FullName(), vm.Inspect(best))
		}
		if c*dir > 0 {
			best = v
		}
	}
	return best
}
