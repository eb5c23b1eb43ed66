package vm

import (
	"fmt"
	"strings"
)

// ---------------------------------------------------------------------------
// Exception
// ---------------------------------------------------------------------------

// raiseNameError raises a NameError or NoMethodError that remembers the
// missing name, its receiver and, for NoMethodError, the arguments.
func (vm *VM) raiseNameError(class, name string, recv Value, args []Value, format string, fmtArgs ...any) {
	exc := vm.newError(class, format, fmtArgs...)
	exc.SetIvar("name", Symbol(name))
	exc.SetIvar("receiver", recv)
	if class == "NoMethodError" {
		exc.SetIvar("args", NewArray(args...))
	}
	vm.raise(exc)
}

// fullMessage renders an exception the way an uncaught one is reported.
func (vm *VM) fullMessage(exc *Object) string {
	bt := backtraceOf(exc)
	var sb strings.Builder
	if len(bt) > 0 {
		sb.WriteString(bt[0])
		sb.WriteString(": ")
	}
	fmt.Fprintf(&sb, "%s (%s)", vm.exceptionMessage(exc), exc.class.FullName())
	for _, line := range bt[min(1, len(bt)):] {
		sb.WriteString("\n\tfrom ")
		sb.WriteString(line)
	}
	return sb.String()
}

func (vm *VM) registerExceptionPrimitives() {
	c := vm.ExceptionClass
	exc := func(v Value) *Object { return v.(*Object) }
	ivar := func(name string) func(*VM, Value) Value {
		return func(_ *VM, self Value) Value {
			v, _ := exc(self).Ivar(name)
			return v
		}
	}

	vm.singletonClass(c).AddMethodN("exception", func(vm *VM, self Value, args []Value, blk *Proc) Value {
		return vm.callMethod(self, "new", args, blk, false)
	})
	c.AddPrivateMethodN("initialize", func(vm *VM, self Value, args []Value, _ *Proc) Value {
		vm.checkArgs(args, 0, 1)
		exc(self).SetIvar("mesg", arg(args, 0, nil))
		return nil
	})
	c.AddMethodN("exception", func(vm *VM, self Value, args []Value, _ *Proc) Value {
		vm.checkArgs(args, 0, 1)
		if len(args) == 0 || args[0] == self {
			return self
		}
		out := vm.copyValue(self, false).(*Object)
		out.SetIvar("mesg", args[0])
		return out
	})
	c.AddMethod0("to_s", func(vm *VM, self Value) Value {
		e := exc(self)
		if msg, _ := e.Ivar("mesg"); msg != nil {
			return NewString(vm.ToS(msg))
		}
		return NewString(e.class.FullName())
	})
	c.AddMethod0("message", func(vm *VM, self Value) Value { return NewString(vm.ToS(vm.Send(self, "to_s"))) })
	c.AddMethodN("detailed_message", func(vm *VM, self Value, _ []Value, _ *Proc) Value {
		e := exc(self)
		msg := vm.ToS(vm.Send(self, "message"))
		if msg == "" {
			return NewString(e.class.FullName())
		}
		lines := strings.SplitN(msg, "\n", 2)
		lines[0] += " (" + e.class.FullName() + ")"
		return NewString(strings.Join(lines, "\n"))
	})
	c.AddMethodN("full_message", func(vm *VM, self Value, _ []Value, _ *Proc) Value {
		return NewString(vm.fullMessage(exc(self)))
	})
	c.AddMethod0("inspect", func(vm *VM, self Value) Value {
		e := exc(self)
		msg := vm.ToS(vm.Send(self, "to_s"))
		if msg == "" {
			return NewString(e.class.FullName())
		}
		if strings.Contains(msg, "\n") {
			msg = quoteString(msg)
		}
		return NewString("#<" + e.class.FullName() + ": " + msg + ">")
	})
	c.AddMethod0("backtrace", ivar("bt"))
	c.AddMethod0("backtrace_locations", func(*VM, Value) Value { return nil })
	c.AddMethod1("set_backtrace", func(vm *VM, self, bt Value) Value {
		switch x := bt.(type) {
		case *String:
			bt = NewArray(x)
		case *Array, nil:
		default:
			vm.raiseError("TypeError", "backtrace must be an Array of String or an Array of Thread::Backtrace::Location")
		}
		exc(self).SetIvar("bt", bt)
		return bt
	})
	c.AddMethod0("cause", ivar("cause"))
	c.AddMethod1("==", func(vm *VM, self, other Value) Value {
		o, ok := other.(*Object)
		if !ok || o.class != exc(self).class {
			return false
		}
		if self == other {
			return true
		}
		return vm.equal(vm.Send(self, "message"), vm.Send(o, "message")) &&
			vm.equal(vm.Send(self, "backtrace"), vm.Send(o, "backtrace"))
	})

	name := vm.classNamed("NameError")
	name.AddPrivateMethodN("initialize", func(vm *VM, self Value, args []Value, _ *Proc) Value {
		args, kw := splitKeywords(args)
		vm.checkArgs(args, 0, 3)
		e := exc(self)
		e.SetIvar("mesg", arg(args, 0, nil))
		e.SetIvar("name", arg(args, 1, nil))
		if kw != nil {
			if recv, ok := kw.Get(Symbol("receiver")); ok {
				e.SetIvar("receiver", recv)
			}
		}
		if len(args) > 2 {
			e.SetIvar("args", args[2])
		}
		return nil
	})
	name.AddMethod0("name", ivar("name"))
	name.AddMethod0("receiver", func(vm *VM, self Value) Value {
		v, ok := exc(self).Ivar("receiver")
		if !ok {
			vm.raiseError("ArgumentError", "no receiver is available")
		}
		return v
	})
	vm.classNamed("NoMethodError").AddMethod0("args", func(_ *VM, self Value) Value {
		if v, ok := exc(self).Ivar("args"); ok && v != nil {
			return v
		}
		return NewArray()
	})

	key := vm.classNamed("KeyError")
	key.AddPrivateMethodN("initialize", func(vm *VM, self Value, args []Value, _ *Proc) Value {
		args, kw := splitKeywords(args)
		vm.checkArgs(args, 0, 1)
		e := exc(self)
		e.SetIvar("mesg", arg(args, 0, nil))
		if kw != nil {
			for _, k := range []string{"receiver", "key"} {
				if v, ok := kw.Get(Symbol(k)); ok {
					e.SetIvar(k, v)
				}
			}
		}
		return nil
	})
	for _, k := range []string{"key", "receiver"} {
		key.AddMethod0(k, func(vm *VM, self Value) Value {
			v, ok := exc(self).Ivar(k)
			if !ok {
				vm.raiseError("ArgumentError", "no %s is available", k)
			}
			return v
		})
	}
	vm.classNamed("NoMatchingPatternKeyError").AddMethod0("key", ivar("key"))
	vm.classNamed("NoMatchingPatternKeyError").AddMethod0("matchee", ivar("matchee"))
	vm.classNamed("FrozenError").AddMethod0("receiver", ivar("receiver"))
	vm.classNamed("StopIteration").AddMethod0("result", ivar("result"))

	thrown := vm.classNamed("UncaughtThrowError")
	thrown.AddMethod0("tag", ivar("tag"))
	thrown.AddMethod0("value", ivar("value"))

	exit := vm.classNamed("SystemExit")
	exit.AddPrivateMethodN("initialize", func(vm *VM, self Value, args []Value, _ *Proc) Value {
		vm.checkArgs(args, 0, 2)
		e := exc(self)
		status := int64(0)
		switch s := arg(args, 0, nil).(type) {
		case bool:
			if !s {
				status = 1
			}
			args = args[1:]
		case int64:
			status = s
			args = args[1:]
		}
		e.SetIvar("status", status)
		e.SetIvar("mesg", arg(args, 0, NewString("exit")))
		return nil
	})
	exit.AddMethod0("status", func(_ *VM, self Value) Value {
		if v, ok := exc(self).Ivar("status"); ok {
			return v
		}
		return int64(0)
	})
	exit.AddMethod0("success?", func(vm *VM, self Value) Value { return vm.Send(self, "status") == int64(0) })
}
