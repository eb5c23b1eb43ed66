package vm

import (
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/ruby-syntax-tree/syntax-tree-sub003/bytecode"
)

// ---------------------------------------------------------------------------
// Kernel
// ---------------------------------------------------------------------------

type catchTag struct {
	tag   Value
	frame *Frame
}

func (vm *VM) registerKernelPrimitives() {
	k := vm.KernelModule

	// Output
	k.AddPrivateMethodN("puts", func(vm *VM, _ Value, args []Value, _ *Proc) Value {
		vm.puts(vm.Stdout, args)
		return nil
	})
	k.AddPrivateMethodN("print", func(vm *VM, _ Value, args []Value, _ *Proc) Value {
		for _, a := range args {
			io.WriteString(vm.Stdout, vm.ToS(a))
		}
		return nil
	})
	k.AddPrivateMethodN("p", func(vm *VM, _ Value, args []Value, _ *Proc) Value {
		for _, a := range args {
			io.WriteString(vm.Stdout, vm.Inspect(a)+"\n")
		}
		switch len(args) {
		case 0:
			return nil
		case 1:
			return args[0]
		}
		return NewArray(args...)
	})
	k.aliasBuiltin("pp", "p")
	k.AddPrivateMethodN("format", func(vm *VM, _ Value, args []Value, _ *Proc) Value {
		vm.checkArgs(args, 1, -1)
		return NewString(vm.sprintf(vm.toStr(args[0]), args[1:]))
	})
	k.aliasBuiltin("sprintf", "format")
	k.AddPrivateMethodN("printf", func(vm *VM, _ Value, args []Value, _ *Proc) Value {
		if len(args) > 0 {
			io.WriteString(vm.Stdout, vm.sprintf(vm.toStr(args[0]), args[1:]))
		}
		return nil
	})
	k.AddPrivateMethodN("gets", func(*VM, Value, []Value, *Proc) Value { return nil })

	// Loading is a no-op: a program is a single compiled unit.
	k.AddPrivateMethodN("require", func(*VM, Value, []Value, *Proc) Value { return false })
	k.aliasBuiltin("require_relative", "require")

	// Exceptions
	k.AddPrivateMethodN("raise", func(vm *VM, _ Value, args []Value, _ *Proc) Value {
		vm.raise(vm.makeException(args))
		return nil
	})
	k.aliasBuiltin("fail", "raise")
	k.AddPrivateMethodN("exit", func(vm *VM, _ Value, args []Value, _ *Proc) Value {
		status := int64(0)
		switch s := arg(args, 0, true).(type) {
		case bool:
			if !s {
				status = 1
			}
		default:
			status = vm.toInt(s)
		}
		exc := vm.newError("SystemExit", "exit")
		exc.SetIvar("status", status)
		vm.raise(exc)
		return nil
	})
	k.AddPrivateMethodN("abort", func(vm *VM, _ Value, args []Value, _ *Proc) Value {
		msg := "exit"
		if len(args) > 0 {
			msg = vm.toStr(args[0])
			io.WriteString(vm.Stdout, msg+"\n")
		}
		exc := vm.newError("SystemExit", "%s", msg)
		exc.SetIvar("status", int64(1))
		vm.raise(exc)
		return nil
	})
	k.AddPrivateMethodN("catch", func(vm *VM, _ Value, args []Value, blk *Proc) Value {
		vm.checkArgs(args, 0, 1)
		tag := arg(args, 0, nil)
		if tag == nil {
			tag = &Object{class: vm.ObjectClass}
		}
		return vm.catch(tag, blk)
	})
	k.AddPrivateMethodN("throw", func(vm *VM, _ Value, args []Value, _ *Proc) Value {
		vm.checkArgs(args, 1, 2)
		for i := len(vm.catches) - 1; i >= 0; i-- {
			if c := vm.catches[i]; vm.equal(c.tag, args[0]) {
				panic(&signal{tag: bytecode.TagThrow, value: arg(args, 1, nil), target: c.frame})
			}
		}
		exc := vm.newError("UncaughtThrowError", "uncaught throw %s", vm.Inspect(args[0]))
		exc.SetIvar("tag", args[0])
		exc.SetIvar("value", arg(args, 1, nil))
		vm.raise(exc)
		return nil
	})

	// Blocks
	k.AddPrivateMethodN("block_given?", func(vm *VM, _ Value, _ []Value, _ *Proc) Value {
		f := vm.currentFrame()
		return f != nil && f.Block != nil
	})
	k.AddPrivateMethodN("lambda", func(vm *VM, _ Value, _ []Value, blk *Proc) Value {
		if blk == nil {
			vm.raiseError("ArgumentError", "tried to create Proc object without a block")
		}
		if blk.Lambda {
			return blk
		}
		l := *blk
		l.Lambda = true
		return &l
	})
	k.AddPrivateMethodN("proc", func(vm *VM, _ Value, _ []Value, blk *Proc) Value {
		if blk == nil {
			vm.raiseError("ArgumentError", "tried to create Proc object without a block")
		}
		return blk
	})
	k.AddPrivateMethodN("loop", func(vm *VM, self Value, _ []Value, blk *Proc) Value {
		if blk == nil {
			return vm.enumFor(self, "loop")
		}
		_, exc := vm.rescue(vm.classNamed("StopIteration"), func() Value {
			for {
				vm.callProc(blk, nil, nil)
			}
		})
		result, _ := exc.Ivar("result")
		return result
	})
	k.AddPrivateMethodN("at_exit", func(vm *VM, _ Value, _ []Value, blk *Proc) Value {
		if blk == nil {
			vm.raiseError("ArgumentError", "called without a block")
		}
		vm.postExe = append(vm.postExe, blk)
		return blk
	})

	// Conversions
	k.AddPrivateMethodN("Integer", func(vm *VM, _ Value, args []Value, _ *Proc) Value {
		vm.checkArgs(args, 1, 2)
		return vm.convertInteger(args[0], int(vm.toInt(arg(args, 1, int64(0)))))
	})
	k.AddPrivateMethodN("Float", func(vm *VM, _ Value, args []Value, _ *Proc) Value {
		vm.checkArgs(args, 1, 1)
		return vm.convertFloat(args[0])
	})
	k.AddPrivateMethodN("String", func(vm *VM, _ Value, args []Value, _ *Proc) Value {
		vm.checkArgs(args, 1, 1)
		return NewString(vm.ToS(args[0]))
	})
	k.AddPrivateMethodN("Array", func(vm *VM, _ Value, args []Value, _ *Proc) Value {
		vm.checkArgs(args, 1, 1)
		if a, ok := args[0].(*Array); ok {
			return a
		}
		return NewArray(vm.splat(args[0]).Elements...)
	})
	k.AddPrivateMethodN("Rational", func(vm *VM, _ Value, args []Value, _ *Proc) Value {
		vm.checkArgs(args, 1, 2)
		num, den := vm.toInt(args[0]), vm.toInt(arg(args, 1, int64(1)))
		if den == 0 {
			vm.raiseError("ZeroDivisionError", "divided by 0")
		}
		return newRational(num, den)
	})
	k.AddPrivateMethodN("`", func(vm *VM, _ Value, args []Value, _ *Proc) Value {
		vm.raiseError("NotImplementedError", "command execution is not supported")
		return nil
	})

	// Basic object protocol, shared by every object through Kernel.
	k.AddMethod0("class", func(vm *VM, self Value) Value { return vm.ClassOf(self) })
	k.AddMethod0("singleton_class", func(vm *VM, self Value) Value { return vm.singletonClass(self) })
	k.AddMethod0("frozen?", func(vm *VM, self Value) Value {
		h, ok := self.(heapValue)
		return !ok || h.hdr().IsFrozen()
	})
	k.AddMethod0("freeze", func(vm *VM, self Value) Value {
		if h, ok := self.(heapValue); ok {
			h.hdr().Freeze()
		}
		return self
	})
	k.AddMethod0("nil?", func(*VM, Value) Value { return false })
	k.AddMethod0("itself", func(_ *VM, self Value) Value { return self })
	k.AddMethod0("object_id", func(vm *VM, self Value) Value { return vm.objectID(self) })
	k.AddMethod0("hash", func(vm *VM, self Value) Value { return vm.objectID(self) })
	k.AddMethod0("to_s", func(vm *VM, self Value) Value { return NewString(vm.defaultToS(self)) })
	k.AddMethod0("inspect", func(vm *VM, self Value) Value { return NewString(vm.inspectValue(self)) })
	k.AddMethod1("eql?", func(_ *VM, self, other Value) Value { return self == other })
	k.AddMethod1("===", func(vm *VM, self, other Value) Value { return self == other || vm.equal(self, other) })
	k.AddMethod1("=~", func(*VM, Value, Value) Value { return nil })
	k.AddMethod1("!~", func(vm *VM, self, other Value) Value { return !Truthy(vm.Send(self, "=~", other)) })
	k.AddMethod1("is_a?", func(vm *VM, self, c Value) Value { return vm.dispatchClass(self).IsSubclassOf(vm.toClass(c)) })
	k.aliasBuiltin("kind_of?", "is_a?")
	k.AddMethod1("instance_of?", func(vm *VM, self, c Value) Value { return vm.ClassOf(self) == vm.toClass(c) })
	k.AddMethodN("respond_to?", func(vm *VM, self Value, args []Value, _ *Proc) Value {
		vm.checkArgs(args, 1, 2)
		name := vm.name(args[0])
		if vm.respondTo(self, name, Truthy(arg(args, 1, false))) {
			return true
		}
		if m := vm.dispatchClass(self).LookupMethod("respond_to_missing?"); m != nil && !m.IsBuiltin() {
			return Truthy(vm.invoke(m, self, []Value{Symbol(name), Truthy(arg(args, 1, false))}, nil, nil))
		}
		return false
	})
	k.AddMethodN("send", func(vm *VM, self Value, args []Value, blk *Proc) Value {
		vm.checkArgs(args, 1, -1)
		args, kw := splitKeywords(args)
		return vm.dispatch(self, vm.name(args[0]), args[1:], kw, blk, true, false, "")
	})
	k.aliasBuiltin("__send__", "send")
	k.AddMethodN("public_send", func(vm *VM, self Value, args []Value, blk *Proc) Value {
		vm.checkArgs(args, 1, -1)
		args, kw := splitKeywords(args)
		return vm.dispatch(self, vm.name(args[0]), args[1:], kw, blk, false, false, "")
	})
	k.AddMethodN("tap", func(vm *VM, self Value, _ []Value, blk *Proc) Value {
		vm.yieldValue(vm.requireBlock(blk), self)
		return self
	})
	k.AddMethodN("then", func(vm *VM, self Value, _ []Value, blk *Proc) Value {
		return vm.yieldValue(vm.requireBlock(blk), self)
	})
	k.aliasBuiltin("yield_self", "then")
	k.AddMethod0("dup", func(vm *VM, self Value) Value { return vm.copyValue(self, false) })
	k.AddMethodN("clone", func(vm *VM, self Value, args []Value, _ *Proc) Value {
		freeze := true
		if len(args) > 0 {
			if kw, ok := args[len(args)-1].(*Hash); ok {
				if v, ok := kw.Get(Symbol("freeze")); ok {
					freeze = Truthy(v)
				}
			}
		}
		return vm.copyValue(self, freeze)
	})
	k.AddMethod1("display", func(vm *VM, self, _ Value) Value {
		io.WriteString(vm.Stdout, vm.ToS(self))
		return nil
	})

	// Instance variables
	k.AddMethod1("instance_variable_get", func(vm *VM, self, name Value) Value {
		return vm.ivarGet(self, vm.ivarName(name))
	})
	k.AddMethod2("instance_variable_set", func(vm *VM, self, name, v Value) Value {
		vm.ivarSet(self, vm.ivarName(name), v)
		return v
	})
	k.AddMethod1("instance_variable_defined?", func(vm *VM, self, name Value) Value {
		h, ok := self.(heapValue)
		if !ok {
			return false
		}
		_, found := h.hdr().Ivar(vm.ivarName(name))
		return found
	})
	k.AddMethod0("instance_variables", func(vm *VM, self Value) Value {
		out := NewArray()
		if h, ok := self.(heapValue); ok {
			for _, name := range h.hdr().IvarNames() {
				out.Elements = append(out.Elements, Symbol(name))
			}
		}
		return out
	})

	// Singleton behavior
	k.AddMethodN("extend", func(vm *VM, self Value, args []Value, _ *Proc) Value {
		vm.checkArgs(args, 1, -1)
		meta := vm.singletonClass(self)
		for _, m := range args {
			meta.Include(vm.toClass(m))
		}
		vm.serial++
		return self
	})
	k.AddMethodN("define_singleton_method", func(vm *VM, self Value, args []Value, blk *Proc) Value {
		vm.checkArgs(args, 1, 2)
		return vm.defineProcMethod(vm.singletonClass(self), vm.name(args[0]), arg(args, 1, nil), blk)
	})
	k.AddMethodN("singleton_methods", func(vm *VM, self Value, _ []Value, _ *Proc) Value {
		out := NewArray()
		if h, ok := self.(heapValue); ok && h.hdr().meta != nil {
			for _, name := range sortedNames(h.hdr().meta.MethodNames()) {
				out.Elements = append(out.Elements, Symbol(name))
			}
		}
		return out
	})
	k.AddMethodN("methods", func(vm *VM, self Value, _ []Value, _ *Proc) Value {
		seen := make(map[string]bool)
		out := NewArray()
		for _, c := range vm.dispatchClass(self).Ancestors() {
			for _, name := range sortedNames(c.MethodNames()) {
				if !seen[name] {
					seen[name] = true
					out.Elements = append(out.Elements, Symbol(name))
				}
			}
		}
		return out
	})
}

// puts writes each argument on its own line, flattening arrays.
func (vm *VM) puts(w io.Writer, args []Value) {
	if len(args) == 0 {
		io.WriteString(w, "\n")
		return
	}
	for _, a := range args {
		if arr, ok := a.(*Array); ok {
			vm.guardInspect(arr, "", func() string {
				if arr.Len() == 0 {
					io.WriteString(w, "\n")
				}
				vm.puts(w, arr.Elements)
				return ""
			})
			continue
		}
		s := ""
		if a != nil {
			s = vm.ToS(a)
		}
		if !strings.HasSuffix(s, "\n") {
			s += "\n"
		}
		io.WriteString(w, s)
	}
}

// makeException builds the exception raise(*args) raises.
func (vm *VM) makeException(args []Value) *Object {
	vm.checkArgs(args, 0, 3)
	if len(args) == 0 {
		if exc, ok := vm.errinfo.(*Object); ok {
			return exc
		}
		return vm.newError("RuntimeError", "unhandled exception")
	}
	var exc *Object
	switch x := args[0].(type) {
	case *String:
		if len(args) > 1 {
			vm.raiseError("TypeError", "exception class/object expected")
		}
		return vm.newException(vm.classNamed("RuntimeError"), NewString(x.Value))
	case *Class:
		if !x.IsSubclassOf(vm.ExceptionClass) {
			vm.raiseError("TypeError", "exception class/object expected")
		}
		exc = vm.asException(vm.Send(x, "new", args[1:min(len(args), 2)]...))
	case *Object:
		if !x.class.IsSubclassOf(vm.ExceptionClass) {
			vm.raiseError("TypeError", "exception class/object expected")
		}
		exc = x
		if len(args) > 1 {
			exc.SetIvar("mesg", args[1])
		}
	default:
		vm.raiseError("TypeError", "exception class/object expected")
	}
	if len(args) > 2 {
		exc.SetIvar("bt", args[2])
	}
	return exc
}

// rescue runs fn and returns the exception it raised if that is a class
// instance. Other exceptions and signals keep unwinding.
func (vm *VM) rescue(class *Class, fn func() Value) (v Value, exc *Object) {
	stack, frames := len(vm.stack), len(vm.frames)
	defer func() {
		r := recover()
		if r == nil {
			return
		}
		if s, ok := r.(*signal); ok && s.tag == bytecode.TagRaise {
			if o, ok := s.value.(*Object); ok && o.class.IsSubclassOf(class) {
				vm.truncate(stack)
				vm.frames = vm.frames[:frames]
				v, exc = nil, o
				return
			}
		}
		panic(r)
	}()
	return fn(), nil
}

// catch runs blk with tag, returning the value of a matching throw.
func (vm *VM) catch(tag Value, blk *Proc) (result Value) {
	blk = vm.requireBlock(blk)
	c := &catchTag{tag: tag, frame: &Frame{}}
	vm.catches = append(vm.catches, c)
	depth := len(vm.catches) - 1
	defer func() {
		vm.catches = vm.catches[:depth]
		r := recover()
		if r == nil {
			return
		}
		if s, ok := r.(*signal); ok && s.tag == bytecode.TagThrow && s.target == c.frame {
			result = s.value
			return
		}
		panic(r)
	}()
	return vm.yieldValue(blk, tag)
}

func (vm *VM) requireBlock(blk *Proc) *Proc {
	if blk == nil {
		vm.raiseError("LocalJumpError", "no block given (yield)")
	}
	return blk
}

func (vm *VM) ivarName(v Value) string {
	name := vm.name(v)
	if !strings.HasPrefix(name, "@") || strings.HasPrefix(name, "@@") || len(name) < 2 {
		vm.raiseError("NameError", "'%s' is not allowed as an instance variable name", name)
	}
	return name
}

// splitKeywords separates a trailing keyword hash passed to a builtin that
// forwards its arguments.
func splitKeywords(args []Value) ([]Value, *Hash) {
	if len(args) > 1 {
		if kw, ok := args[len(args)-1].(*Hash); ok {
			return args[:len(args)-1], kw
		}
	}
	return args, nil
}

// copyValue implements dup and clone: a shallow copy that keeps instance
// variables. clone also keeps the frozen state and singleton class.
func (vm *VM) copyValue(v Value, clone bool) Value {
	var out Value
	switch x := v.(type) {
	case nil, bool, int64, float64, Symbol, *Class, *Range, *Proc, *Regexp:
		return v
	case *String:
		out = NewString(x.Value)
	case *Array:
		out = NewArray(append([]Value(nil), x.Elements...)...)
	case *Hash:
		h := x.Copy()
		h.Default, h.DefaultProc = x.Default, x.DefaultProc
		out = h
	case *Object:
		out = &Object{class: x.class}
	default:
		return v
	}
	src, dst := v.(heapValue).hdr(), out.(heapValue).hdr()
	for _, name := range src.allIvarNames() {
		iv, _ := src.Ivar(name)
		dst.SetIvar(name, iv)
	}
	if clone {
		dst.frozen = src.frozen
		dst.meta = src.meta
	}
	if m := vm.dispatchClass(out).LookupMethod("initialize_copy"); m != nil && !m.IsBuiltin() {
		vm.invoke(m, out, []Value{v}, nil, nil)
	}
	return out
}

// convertInteger implements Kernel#Integer.
func (vm *VM) convertInteger(v Value, base int) Value {
	switch x := v.(type) {
	case int64:
		return x
	case float64:
		if math.IsNaN(x) || math.IsInf(x, 0) {
			vm.raiseError("FloatDomainError", "%s", formatFloat(x))
		}
		return int64(x)
	case *String:
		s := strings.TrimSpace(x.Value)
		n, err := strconv.ParseInt(s, base, 64)
		if err != nil && base != 0 {
			n, err = strconv.ParseInt(strings.ReplaceAll(s, "_", ""), base, 64)
		}
		if err != nil {
			vm.raiseError("ArgumentError", "invalid value for Integer(): %s", quoteString(x.Value))
		}
		return n
	case nil:
		vm.raiseError("TypeError", "can't convert nil into Integer")
	}
	return vm.Send(v, "to_i")
}

// convertFloat implements Kernel#Float.
func (vm *VM) convertFloat(v Value) Value {
	switch x := v.(type) {
	case int64:
		return float64(x)
	case float64:
		return x
	case *String:
		f, err := strconv.ParseFloat(strings.ReplaceAll(strings.TrimSpace(x.Value), "_", ""), 64)
		if err != nil {
			vm.raiseError("ArgumentError", "invalid value for Float(): %s", quoteString(x.Value))
		}
		return f
	case nil:
		vm.raiseError("TypeError", "can't convert nil into Float")
	}
	return vm.Send(v, "to_f")
}

// ---------------------------------------------------------------------------
// BasicObject, Object, nil, true and false
// ---------------------------------------------------------------------------

func (vm *VM) registerObjectPrimitives() {
	b := vm.BasicObjectClass
	b.AddMethod(&Method{Name: "initialize", Arity: -1, Visibility: Private, Fn: func(vm *VM, self Value, args []Value, _ *Proc) Value {
		if len(args) > 0 {
			vm.raiseError("ArgumentError", "wrong number of arguments (given %d, expected 0)", len(args))
		}
		return nil
	}})
	b.AddMethod1("==", func(_ *VM, self, other Value) Value { return self == other })
	b.AddMethod1("equal?", func(_ *VM, self, other Value) Value { return self == other })
	b.AddMethod1("!=", func(vm *VM, self, other Value) Value { return !vm.equal(self, other) })
	b.AddMethod0("!", func(_ *VM, self Value) Value { return !Truthy(self) })
	b.AddMethod0("__id__", func(vm *VM, self Value) Value { return vm.objectID(self) })
	b.AddMethodN("__send__", func(vm *VM, self Value, args []Value, blk *Proc) Value {
		vm.checkArgs(args, 1, -1)
		return vm.callMethod(self, vm.name(args[0]), args[1:], blk, true)
	})
	b.AddMethodN("instance_eval", func(vm *VM, self Value, _ []Value, blk *Proc) Value {
		return vm.yield(vm.requireBlock(blk), self, true, []Value{self}, nil, nil, nil)
	})
	b.AddMethodN("instance_exec", func(vm *VM, self Value, args []Value, blk *Proc) Value {
		return vm.yield(vm.requireBlock(blk), self, true, args, nil, nil, nil)
	})
	b.AddPrivateMethodN("method_missing", func(vm *VM, self Value, args []Value, _ *Proc) Value {
		vm.checkArgs(args, 1, -1)
		vm.raiseError("NoMethodError", "undefined method `%s' for %s", vm.name(args[0]), vm.describe(self))
		return nil
	})
	b.AddPrivateMethodN("singleton_method_added", func(*VM, Value, []Value, *Proc) Value { return nil })
	vm.ObjectClass.AddPrivateMethodN("initialize_copy", func(*VM, Value, []Value, *Proc) Value { return nil })
	vm.ObjectClass.AddMethod1("<=>", func(_ *VM, self, other Value) Value {
		if self == other {
			return int64(0)
		}
		return nil
	})

	n := vm.NilClass
	n.AddMethod0("to_s", func(*VM, Value) Value { return NewString("") })
	n.AddMethod0("to_a", func(*VM, Value) Value { return NewArray() })
	n.AddMethod0("to_h", func(*VM, Value) Value { return NewHash() })
	n.AddMethod0("to_i", func(*VM, Value) Value { return int64(0) })
	n.AddMethod0("to_f", func(*VM, Value) Value { return float64(0) })
	n.AddMethod0("inspect", func(*VM, Value) Value { return NewString("nil") })
	n.AddMethod0("nil?", func(*VM, Value) Value { return true })
	n.AddMethod1("&", func(*VM, Value, Value) Value { return false })
	n.AddMethod1("|", func(_ *VM, _, other Value) Value { return Truthy(other) })
	n.AddMethod1("==", func(_ *VM, _, other Value) Value { return other == nil })

	for _, c := range []*Class{vm.TrueClass, vm.FalseClass} {
		c.AddMethod0("to_s", func(_ *VM, self Value) Value { return NewString(fmt.Sprint(self)) })
		c.aliasBuiltin("inspect", "to_s")
		c.AddMethod1("&", func(_ *VM, self, other Value) Value { return self.(bool) && Truthy(other) })
		c.AddMethod1("|", func(_ *VM, self, other Value) Value { return self.(bool) || Truthy(other) })
		c.AddMethod1("^", func(_ *VM, self, other Value) Value { return self.(bool) != Truthy(other) })
		c.AddMethod1("==", func(_ *VM, self, other Value) Value { return self == other })
	}
}

// ---------------------------------------------------------------------------
// Comparable
// ---------------------------------------------------------------------------

func (vm *VM) registerComparablePrimitives() {
	c := vm.ComparableModule
	cmp := func(vm *VM, a, b Value) int {
		n, ok := vm.compare(a, b)
		if !ok {
			vm.raiseError("ArgumentError", "comparison of %s with %s failed", vm.ClassOf(a).FullName(), vm.Inspect(b))
		}
		return n
	}
	c.AddMethod1("==", func(vm *VM, self, other Value) Value {
		if self == other {
			return true
		}
		n, ok := vm.compare(self, other)
		return ok && n == 0
	})
	c.AddMethod1("<", func(vm *VM, self, other Value) Value { return cmp(vm, self, other) < 0 })
	c.AddMethod1("<=", func(vm *VM, self, other Value) Value { return cmp(vm, self, other) <= 0 })
	c.AddMethod1(">", func(vm *VM, self, other Value) Value { return cmp(vm, self, other) > 0 })
	c.AddMethod1(">=", func(vm *VM, self, other Value) Value { return cmp(vm, self, other) >= 0 })
	c.AddMethod2("between?", func(vm *VM, self, lo, hi Value) Value {
		return cmp(vm, self, lo) >= 0 && cmp(vm, self, hi) <= 0
	})
	c.AddMethodN("clamp", func(vm *VM, self Value, args []Value, _ *Proc) Value {
		vm.checkArgs(args, 1, 2)
		lo, hi := args[0], arg(args, 1, nil)
		if r, ok := lo.(*Range); ok && len(args) == 1 {
			lo, hi = r.Begin, r.End
		}
		if lo != nil && cmp(vm, self, lo) < 0 {
			return lo
		}
		if hi != nil && cmp(vm, self, hi) > 0 {
			return hi
		}
		return self
	})
}
