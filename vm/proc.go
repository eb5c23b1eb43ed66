package vm

import "github.com/ruby-syntax-tree/syntax-tree-sub003/bytecode"

// ---------------------------------------------------------------------------
// Proc
// ---------------------------------------------------------------------------

// parameters describes a block's parameter list as [kind, name] pairs.
func parameters(p *Proc) *Array {
	out := NewArray()
	if p.ISeq == nil {
		if p.arity < 0 {
			out.Elements = append(out.Elements, NewArray(Symbol("rest")))
		}
		return out
	}
	iseq := p.ISeq
	a := iseq.Args
	name := func(i int) Value {
		if i < 0 || i >= iseq.Locals.Size() {
			return nil
		}
		return Symbol(iseq.Locals.Get(i).Name)
	}
	pair := func(kind string, i int) {
		if n := name(i); n != nil {
			out.Elements = append(out.Elements, NewArray(Symbol(kind), n))
			return
		}
		out.Elements = append(out.Elements, NewArray(Symbol(kind)))
	}
	lead := "opt"
	if p.Lambda {
		lead = "req"
	}
	for i := 0; i < max(a.LeadNum, 0); i++ {
		pair(lead, i)
	}
	for i := 0; i < max(len(a.Opt)-1, 0); i++ {
		pair("opt", max(a.LeadNum, 0)+i)
	}
	if a.RestStart >= 0 {
		pair("rest", a.RestStart)
	}
	for i := 0; i < max(a.PostNum, 0); i++ {
		pair(lead, a.PostStart+i)
	}
	first := a.KwBits - len(a.Keyword)
	for i, entry := range a.Keyword {
		kind := "key"
		if _, ok := entry.(bytecode.Symbol); ok {
			kind = "keyreq"
		}
		pair(kind, first+i)
	}
	if a.KwRest >= 0 {
		pair("keyrest", a.KwRest)
	}
	if a.BlockStart >= 0 {
		pair("block", a.BlockStart)
	}
	return out
}

// curry returns a proc collecting arity arguments across calls before
// calling p.
func (vm *VM) curry(p *Proc, arity int, collected []Value) *Proc {
	return &Proc{Lambda: true, arity: -1, Fn: func(vm *VM, args []Value, blk *Proc) Value {
		all := append(append([]Value{}, collected...), args...)
		if len(all) >= arity {
			return vm.callProc(p, all, blk)
		}
		return vm.curry(p, arity, all)
	}}
}

func (vm *VM) registerProcPrimitives() {
	c := vm.ProcClass
	proc := func(v Value) *Proc { return v.(*Proc) }

	meta := vm.singletonClass(c)
	meta.AddMethodN("new", func(vm *VM, _ Value, _ []Value, blk *Proc) Value {
		if blk == nil {
			vm.raiseError("ArgumentError", "tried to create Proc object without a block")
		}
		return blk
	})

	call := func(vm *VM, self Value, args []Value, blk *Proc) Value {
		args, kw := splitKeywords(args)
		return vm.yield(proc(self), nil, false, args, kw, blk, nil)
	}
	c.AddMethodN("call", call)
	c.AddMethodN("()", call)
	c.AddMethodN("yield", call)
	c.AddMethodN("[]", call)
	c.AddMethodN("===", call)
	c.AddMethod0("arity", func(_ *VM, self Value) Value {
		p := proc(self)
		n := procArity(p)
		// optional arguments make a proc's arity negative only if it is a
		// lambda or has a rest parameter
		if !p.Lambda && p.ISeq != nil && n < 0 && p.ISeq.Args.RestStart < 0 {
			return int64(-n - 1)
		}
		return int64(n)
	})
	c.AddMethod0("lambda?", func(_ *VM, self Value) Value { return proc(self).Lambda })
	c.AddMethod0("parameters", func(_ *VM, self Value) Value { return parameters(proc(self)) })
	c.AddMethodN("curry", func(vm *VM, self Value, args []Value, _ *Proc) Value {
		vm.checkArgs(args, 0, 1)
		p := proc(self)
		arity := procArity(p)
		if arity < 0 {
			arity = -arity - 1
		}
		if len(args) == 1 {
			n := int(vm.toInt(args[0]))
			if p.Lambda && procArity(p) >= 0 && n != arity {
				vm.raiseError("ArgumentError", "wrong number of arguments (given %d, expected %d)", n, arity)
			}
			arity = n
		}
		return vm.curry(p, arity, nil)
	})
	c.AddMethod0("to_proc", func(_ *VM, self Value) Value { return self })
	c.AddMethod0("to_s", func(vm *VM, self Value) Value { return NewString(vm.inspectValue(self)) })
	c.aliasBuiltin("inspect", "to_s")
	c.AddMethod1(">>", func(vm *VM, self, g Value) Value {
		f := proc(self)
		return &Proc{Lambda: true, arity: -1, Fn: func(vm *VM, args []Value, blk *Proc) Value {
			return vm.Send(g, "call", vm.callProc(f, args, blk))
		}}
	})
	c.AddMethod1("<<", func(vm *VM, self, g Value) Value {
		f := proc(self)
		return &Proc{Lambda: true, arity: -1, Fn: func(vm *VM, args []Value, blk *Proc) Value {
			return vm.callProc(f, []Value{vm.callMethod(g, "call", args, blk, false)}, nil)
		}}
	})
}
