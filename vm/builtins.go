package vm

import (
	"math"
	"math/big"

	"github.com/ruby-syntax-tree/syntax-tree-sub003/bytecode"
)

// ---------------------------------------------------------------------------
// Registering builtins
// ---------------------------------------------------------------------------

// AddMethod0 registers a builtin taking no arguments.
func (c *Class) AddMethod0(name string, fn func(vm *VM, self Value) Value) {
	c.AddMethod(&Method{Name: name, Arity: 0, Fn: func(vm *VM, self Value, _ []Value, _ *Proc) Value {
		return fn(vm, self)
	}})
}

// AddMethod1 registers a builtin taking one argument.
func (c *Class) AddMethod1(name string, fn func(vm *VM, self, arg Value) Value) {
	c.AddMethod(&Method{Name: name, Arity: 1, Fn: func(vm *VM, self Value, args []Value, _ *Proc) Value {
		return fn(vm, self, args[0])
	}})
}

// AddMethod2 registers a builtin taking two arguments.
func (c *Class) AddMethod2(name string, fn func(vm *VM, self, a, b Value) Value) {
	c.AddMethod(&Method{Name: name, Arity: 2, Fn: func(vm *VM, self Value, args []Value, _ *Proc) Value {
		return fn(vm, self, args[0], args[1])
	}})
}

// AddMethodN registers a builtin that checks its own arguments and may
// take a block.
func (c *Class) AddMethodN(name string, fn Builtin) {
	c.AddMethod(&Method{Name: name, Arity: -1, Fn: fn})
}

// AddPrivateMethodN is AddMethodN for a private builtin.
func (c *Class) AddPrivateMethodN(name string, fn Builtin) {
	c.AddMethod(&Method{Name: name, Arity: -1, Fn: fn, Visibility: Private})
}

// aliasBuiltin makes newName call the builtin registered as old.
func (c *Class) aliasBuiltin(newName, old string) {
	m := c.OwnMethod(old)
	if m == nil {
		bytecode.Fault(old, "aliasing a missing builtin of %s", c.Name)
	}
	c.AddMethod(m.clone(newName))
}

// ---------------------------------------------------------------------------
// Argument helpers
// ---------------------------------------------------------------------------

// checkArgs raises ArgumentError unless min <= len(args) <= max. A
// negative max means no upper bound.
func (vm *VM) checkArgs(args []Value, min, max int) {
	n := len(args)
	if n >= min && (max < 0 || n <= max) {
		return
	}
	expected := arityRange(min, max-min, max < 0)
	vm.raiseError("ArgumentError", "wrong number of arguments (given %d, expected %s)", n, expected)
}

// arg returns args[i], or def when it was not given.
func arg(args []Value, i int, def Value) Value {
	if i < len(args) {
		return args[i]
	}
	return def
}

// toInt converts an Integer argument, truncating Floats.
func (vm *VM) toInt(v Value) int64 {
	switch x := v.(type) {
	case int64:
		return x
	case float64:
		if math.IsNaN(x) || math.IsInf(x, 0) {
			vm.raiseError("FloatDomainError", "%s", formatFloat(x))
		}
		return int64(x)
	case *big.Int:
		vm.raiseError("RangeError", "bignum too big to convert into `long'")
	case nil:
		vm.raiseError("TypeError", "no implicit conversion from nil to integer")
	}
	vm.raiseError("TypeError", "no implicit conversion of %s into Integer", vm.ClassOf(v).FullName())
	return 0
}

// toStr converts a String argument. Symbols are accepted where Ruby
// accepts a name.
func (vm *VM) toStr(v Value) string {
	switch x := v.(type) {
	case *String:
		return x.Value
	case Symbol:
		return string(x)
	}
	vm.raiseError("TypeError", "no implicit conversion of %s into String", vm.typeName(v))
	return ""
}

// typeName names v's class for conversion errors, using nil, true and
// false for the singletons.
func (vm *VM) typeName(v Value) string {
	switch v.(type) {
	case nil:
		return "nil"
	case bool:
		return vm.Inspect(v)
	}
	return vm.ClassOf(v).FullName()
}

func (vm *VM) toArray(v Value) *Array {
	if a, ok := v.(*Array); ok {
		return a
	}
	vm.raiseError("TypeError", "no implicit conversion of %s into Array", vm.typeName(v))
	return nil
}

func (vm *VM) toHash(v Value) *Hash {
	if h, ok := v.(*Hash); ok {
		return h
	}
	vm.raiseError("TypeError", "no implicit conversion of %s into Hash", vm.typeName(v))
	return nil
}

func (vm *VM) toClass(v Value) *Class {
	if c, ok := v.(*Class); ok {
		return c
	}
	vm.raiseError("TypeError", "%s is not a class/module", vm.Inspect(v))
	return nil
}

// name converts a Symbol or String method or variable name.
func (vm *VM) name(v Value) string {
	switch x := v.(type) {
	case Symbol:
		return string(x)
	case *String:
		return x.Value
	}
	vm.raiseError("TypeError", "%s is not a symbol nor a string", vm.Inspect(v))
	return ""
}

// ---------------------------------------------------------------------------
// Blocks from Go
// ---------------------------------------------------------------------------

// nativeProc wraps fn as a block.
func nativeProc(arity int, fn func(vm *VM, args []Value, blk *Proc) Value) *Proc {
	return &Proc{arity: arity, Fn: fn}
}

// packArgs turns the values a block received into one element the way
// Enumerable sees yielded values.
func packArgs(args []Value) Value {
	switch len(args) {
	case 0:
		return nil
	case 1:
		return args[0]
	}
	return NewArray(args...)
}

// iterate calls fn with each value recv.each yields until fn returns false.
func (vm *VM) iterate(recv Value, fn func(v Value) bool) {
	stop := &Frame{}
	defer func() {
		if r := recover(); r != nil {
			if s, ok := r.(*signal); ok && s.target == stop {
				return
			}
			panic(r)
		}
	}()
	blk := nativeProc(-1, func(vm *VM, args []Value, _ *Proc) Value {
		if !fn(packArgs(args)) {
			panic(&signal{tag: bytecode.TagBreak, target: stop})
		}
		return nil
	})
	vm.callMethod(recv, "each", nil, blk, true)
}

// each collects the values recv.each yields.
func (vm *VM) each(recv Value) []Value {
	if a, ok := recv.(*Array); ok && vm.dispatchClass(a) == vm.ArrayClass {
		return a.Elements
	}
	var out []Value
	vm.iterate(recv, func(v Value) bool {
		out = append(out, v)
		return true
	})
	return out
}

// yieldValue calls blk with one value.
func (vm *VM) yieldValue(blk *Proc, v Value) Value {
	return vm.callProc(blk, []Value{v}, nil)
}

// ---------------------------------------------------------------------------
// Enumerator
// ---------------------------------------------------------------------------

// enumFor returns an Enumerator that replays recv.meth(*args) with a
// block.
func (vm *VM) enumFor(recv Value, meth string, args ...Value) Value {
	e := &Object{class: vm.classNamed("Enumerator")}
	e.SetIvar("receiver", recv)
	e.SetIvar("method", Symbol(meth))
	e.SetIvar("args", NewArray(args...))
	return e
}

// enumEach runs the method an Enumerator stands for with blk.
func (vm *VM) enumEach(e Value, blk *Proc) Value {
	o := e.(*Object)
	recv, _ := o.Ivar("receiver")
	meth, _ := o.Ivar("method")
	args, _ := o.Ivar("args")
	return vm.callMethod(recv, string(meth.(Symbol)), args.(*Array).Elements, blk, true)
}
