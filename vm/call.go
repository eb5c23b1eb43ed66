package vm

import (
	"fmt"
	"slices"
	"strings"

	"github.com/ruby-syntax-tree/syntax-tree-sub003/bytecode"
)

// ---------------------------------------------------------------------------
// Call sites
// ---------------------------------------------------------------------------

// execSend pops the block argument, the arguments and the receiver of a
// send and dispatches it.
func (vm *VM) execSend(f *Frame, cd *bytecode.CallData, blockISeq *bytecode.InstructionSequence, key string) Value {
	var blk *Proc
	if cd.Flag(bytecode.CallArgsBlockarg) {
		blk = vm.toBlock(vm.pop())
	}
	args := vm.popN(cd.Argc)
	recv := vm.pop()
	if blockISeq != nil {
		blk = vm.newBlock(f, blockISeq)
	}
	pos, kw := vm.unpackArgs(cd, args)
	return vm.dispatch(recv, cd.Method, pos, kw, blk, cd.Flag(bytecode.CallFCall), cd.Flag(bytecode.CallVCall), key)
}

// execSuper runs invokesuper. Without an explicit block the current
// method's block is passed along.
func (vm *VM) execSuper(f *Frame, cd *bytecode.CallData, blockISeq *bytecode.InstructionSequence) Value {
	var blk *Proc
	blockArg := cd.Flag(bytecode.CallArgsBlockarg)
	if blockArg {
		blk = vm.toBlock(vm.pop())
	}
	args := vm.popN(cd.Argc)
	recv := vm.pop()
	switch {
	case blockISeq != nil:
		blk = vm.newBlock(f, blockISeq)
	case !blockArg:
		blk = f.Block
	}
	m := f.Method
	if m == nil {
		vm.raiseError("RuntimeError", "super called outside of method")
	}
	pos, kw := vm.unpackArgs(cd, args)
	sm := vm.dispatchClass(recv).LookupSuper(m.Owner, m.Name)
	if sm == nil {
		vm.raiseError("NoMethodError", "super: no superclass method `%s' for %s", m.Name, vm.describe(recv))
	}
	return vm.invoke(sm, recv, pos, kw, blk)
}

// execYield runs invokeblock against the block of the enclosing method.
func (vm *VM) execYield(f *Frame, cd *bytecode.CallData) Value {
	args := vm.popN(cd.Argc)
	if f.Block == nil {
		vm.raiseError("LocalJumpError", "no block given (yield)")
	}
	pos, kw := vm.unpackArgs(cd, args)
	return vm.yield(f.Block, nil, false, pos, kw, nil, nil)
}

// unpackArgs splits the stacked arguments into positionals and keywords,
// flattening a splat.
func (vm *VM) unpackArgs(cd *bytecode.CallData, args []Value) ([]Value, *Hash) {
	var kw *Hash
	switch {
	case cd.Flag(bytecode.CallKwarg):
		n := len(cd.KwArg)
		vals := args[len(args)-n:]
		args = args[:len(args)-n]
		kw = NewHash()
		for i, name := range cd.KwArg {
			kw.Set(Symbol(name), vals[i])
		}
	case cd.Flag(bytecode.CallKwSplat) && len(args) > 0:
		last := args[len(args)-1]
		args = args[:len(args)-1]
		switch h := last.(type) {
		case *Hash:
			if h.Len() > 0 {
				kw = h.Copy()
			}
		case nil:
		default:
			vm.raiseError("TypeError", "no implicit conversion of %s into Hash", vm.ClassOf(last).FullName())
		}
	}
	if cd.Flag(bytecode.CallArgsSplat) && len(args) > 0 {
		last := args[len(args)-1]
		args = append(slices.Clone(args[:len(args)-1]), vm.splat(last).Elements...)
	}
	return args, kw
}

func (vm *VM) newBlock(f *Frame, iseq *bytecode.InstructionSequence) *Proc {
	return &Proc{ISeq: iseq, Env: f, Self: f.Self}
}

// toBlock converts a &arg to a proc: procs pass through, symbols call the
// named method, other values answer to_proc.
func (vm *VM) toBlock(v Value) *Proc {
	switch x := v.(type) {
	case nil:
		return nil
	case *Proc:
		return x
	case Symbol:
		return vm.symbolProc(x)
	}
	if vm.respondTo(v, "to_proc", true) {
		if p, ok := vm.Send(v, "to_proc").(*Proc); ok {
			return p
		}
	}
	vm.raiseError("TypeError", "wrong argument type %s (expected Proc)", vm.ClassOf(v).FullName())
	return nil
}

func (vm *VM) symbolProc(name Symbol) *Proc {
	return &Proc{Lambda: true, arity: -2, Fn: func(vm *VM, args []Value, blk *Proc) Value {
		if len(args) == 0 {
			vm.raiseError("ArgumentError", "no receiver given")
		}
		return vm.dispatch(args[0], string(name), args[1:], nil, blk, false, false, "")
	}}
}

// ---------------------------------------------------------------------------
// Dispatch
// ---------------------------------------------------------------------------

// Send calls name on recv with the given arguments, as a receiverless call
// would, so private methods are reachable.
func (vm *VM) Send(recv Value, name string, args ...Value) Value {
	return vm.dispatch(recv, name, args, nil, nil, true, false, "")
}

// callMethod is Send with a block.
func (vm *VM) callMethod(recv Value, name string, args []Value, blk *Proc, fcall bool) Value {
	return vm.dispatch(recv, name, args, nil, blk, fcall, false, "")
}

// dispatch looks name up for recv, checks visibility and invokes it,
// falling back to method_missing. key selects the call-site cache.
func (vm *VM) dispatch(recv Value, name string, args []Value, kw *Hash, blk *Proc, fcall, vcall bool, key string) Value {
	class := vm.dispatchClass(recv)
	m := vm.findMethod(class, name, key)
	if m != nil && !fcall && m.Visibility != Public {
		if !vm.visible(m, recv) {
			vm.raiseNameError("NoMethodError", name, recv, args, "%s method `%s' called for %s", m.Visibility, name, vm.describe(recv))
		}
	}
	if m == nil {
		if mm := class.LookupMethod("method_missing"); mm != nil && !mm.IsBuiltin() {
			return vm.invoke(mm, recv, append([]Value{Symbol(name)}, args...), kw, blk)
		}
		if vcall {
			vm.raiseNameError("NameError", name, recv, nil, "undefined local variable or method `%s' for %s", name, vm.describe(recv))
		}
		vm.raiseNameError("NoMethodError", name, recv, args, "undefined method `%s' for %s", name, vm.describe(recv))
	}
	return vm.invoke(m, recv, args, kw, blk)
}

// visible decides whether a private or protected method may be called
// with an explicit receiver from the current frame.
func (vm *VM) visible(m *Method, recv Value) bool {
	f := vm.currentFrame()
	if f == nil {
		return false
	}
	if m.Visibility == Private {
		return f.Self == recv
	}
	return vm.dispatchClass(f.Self).IsSubclassOf(m.Owner)
}

func (vm *VM) findMethod(class *Class, name, key string) *Method {
	if key == "" {
		return class.LookupMethod(name)
	}
	ic := vm.calls.GetOrCreate(key)
	if ic.serial != vm.serial {
		ic.invalidate(vm.serial)
	}
	if m := ic.Lookup(class); m != nil {
		return m
	}
	m := class.LookupMethod(name)
	ic.Update(class, m)
	return m
}

// addMethod installs m in c and invalidates call-site caches.
func (vm *VM) addMethod(c *Class, m *Method) {
	c.AddMethod(m)
	vm.serial++
}

func (vm *VM) respondTo(v Value, name string, private bool) bool {
	m := vm.dispatchClass(v).LookupMethod(name)
	return m != nil && (private || m.Visibility == Public)
}

// describe renders a receiver for error messages.
func (vm *VM) describe(v Value) string {
	switch x := v.(type) {
	case nil:
		return "nil"
	case bool:
		return fmt.Sprint(x)
	case *Class:
		if x.IsModule {
			return "module " + x.FullName()
		}
		return "class " + x.FullName()
	}
	if v == vm.main {
		return "main:Object"
	}
	return "an instance of " + vm.ClassOf(v).FullName()
}

// invoke runs m with self bound to recv.
func (vm *VM) invoke(m *Method, recv Value, args []Value, kw *Hash, blk *Proc) Value {
	switch {
	case m.Fn != nil:
		if kw != nil {
			args = append(args, kw)
		}
		if m.Arity >= 0 && len(args) != m.Arity {
			vm.raiseError("ArgumentError", "wrong number of arguments (given %d, expected %d)", len(args), m.Arity)
		}
		return m.Fn(vm, recv, args, blk)
	case m.Proc != nil:
		return vm.yield(m.Proc, recv, true, args, kw, blk, m)
	}
	f := vm.newFrame(m.ISeq, recv, nil)
	f.Cref, f.Block, f.Method = m.Cref, blk, m
	vm.setupArgs(f, args, kw, blk, true)
	return vm.run(f)
}

// ---------------------------------------------------------------------------
// Blocks
// ---------------------------------------------------------------------------

// yield runs a block. With rebind set, self is replaced (instance_eval,
// define_method); m is the method a define_method body runs as.
func (vm *VM) yield(p *Proc, self Value, rebind bool, args []Value, kw *Hash, blk *Proc, m *Method) Value {
	if p.Fn != nil {
		if kw != nil {
			args = append(args, kw)
		}
		return p.Fn(vm, args, blk)
	}
	f := vm.newFrame(p.ISeq, p.Self, p.Env)
	if rebind {
		f.Self = self
	}
	if m != nil {
		f.Method = m
		f.lambda = true
	} else {
		f.lambda = p.Lambda
	}
	vm.setupArgs(f, args, kw, blk, f.lambda)
	return vm.run(f)
}

// callProc calls p with positional arguments.
func (vm *VM) callProc(p *Proc, args []Value, blk *Proc) Value {
	return vm.yield(p, nil, false, args, nil, blk, nil)
}

// ---------------------------------------------------------------------------
// Argument binding
// ---------------------------------------------------------------------------

// setupArgs binds arguments to the parameters of f's sequence: leading
// positionals, optionals (choosing the entry point past the defaults that
// were supplied), the rest array, trailing positionals, keywords and the
// block. Strict binding raises ArgumentError on an arity mismatch; proc
// binding pads with nil, drops extras and splats a lone array.
func (vm *VM) setupArgs(f *Frame, args []Value, kw *Hash, blk *Proc, strict bool) {
	a := f.ISeq.Args
	lead := max(a.LeadNum, 0)
	post := max(a.PostNum, 0)
	optN := max(len(a.Opt)-1, 0)
	hasRest := a.RestStart >= 0
	acceptsKw := len(a.Keyword) > 0 || a.KwRest >= 0

	if kw != nil && !acceptsKw {
		args = append(args, kw)
		kw = nil
	}
	if !strict && len(args) == 1 && !a.AmbiguousParam0 && (lead+post > 0 || optN > 0 || acceptsKw) {
		if arr, ok := args[0].(*Array); ok {
			args = slices.Clone(arr.Elements)
		}
	}

	required := lead + post
	if strict {
		if len(args) < required || (!hasRest && len(args) > required+optN) {
			vm.raiseError("ArgumentError", "wrong number of arguments (given %d, expected %s)", len(args), arityRange(required, optN, hasRest))
		}
	} else {
		if len(args) < required {
			args = append(args, make([]Value, required-len(args))...)
		}
		if !hasRest && len(args) > required+optN {
			args = args[:required+optN]
		}
	}

	locals := f.Locals
	copy(locals[:lead], args[:lead])
	optGiven := min(len(args)-required, optN)
	copy(locals[lead:lead+optGiven], args[lead:lead+optGiven])
	pos := lead + optGiven
	if hasRest {
		n := len(args) - pos - post
		locals[a.RestStart] = NewArray(slices.Clone(args[pos : pos+n])...)
		pos += n
	}
	if post > 0 {
		copy(locals[a.PostStart:a.PostStart+post], args[pos:pos+post])
	}
	if len(a.Opt) > 0 {
		f.pc = f.prog.target(a.Opt[optGiven])
	}
	if acceptsKw {
		vm.setupKeywords(f, kw)
	}
	if a.BlockStart >= 0 && blk != nil {
		locals[a.BlockStart] = blk
	}
}

func arityRange(required, optional int, rest bool) string {
	switch {
	case rest:
		return fmt.Sprintf("%d+", required)
	case optional > 0:
		return fmt.Sprintf("%d..%d", required, required+optional)
	}
	return fmt.Sprint(required)
}

// setupKeywords binds keyword parameters by name. The bits local records
// which optional keywords were left to their defaults, for checkkeyword.
func (vm *VM) setupKeywords(f *Frame, kw *Hash) {
	a := f.ISeq.Args
	locals := f.Locals
	first := a.KwBits - len(a.Keyword)
	known := make(map[string]bool, len(a.Keyword))
	var missing []string
	var unspecified int64
	required := 0

	for i, entry := range a.Keyword {
		var name string
		var def any
		isRequired, static := false, false
		switch e := entry.(type) {
		case bytecode.Symbol:
			name, isRequired = string(e), true
			required++
		case []any:
			name = string(e[0].(bytecode.Symbol))
			if len(e) > 1 {
				def, static = e[1], true
			}
		}
		known[name] = true
		if kw != nil {
			if v, ok := kw.Get(Symbol(name)); ok {
				locals[first+i] = v
				continue
			}
		}
		switch {
		case isRequired:
			missing = append(missing, ":"+name)
		case static:
			locals[first+i] = vm.fromOperand(def, false)
		default:
			unspecified |= 1 << (i - required)
		}
	}
	if a.KwBits >= 0 {
		locals[a.KwBits] = unspecified
	}
	if len(missing) > 0 {
		vm.raiseError("ArgumentError", "missing %s: %s", plural("keyword", len(missing)), strings.Join(missing, ", "))
	}

	rest := NewHash()
	var unknown []string
	if kw != nil {
		for _, e := range kw.Entries() {
			if s, ok := e.Key.(Symbol); ok && known[string(s)] {
				continue
			}
			if a.KwRest < 0 {
				unknown = append(unknown, vm.Inspect(e.Key))
				continue
			}
			rest.Set(e.Key, e.Value)
		}
	}
	if len(unknown) > 0 {
		vm.raiseError("ArgumentError", "unknown %s: %s", plural("keyword", len(unknown)), strings.Join(unknown, ", "))
	}
	if a.KwRest >= 0 {
		locals[a.KwRest] = rest
	}
}

func plural(word string, n int) string {
	if n == 1 {
		return word
	}
	return word + "s"
}
