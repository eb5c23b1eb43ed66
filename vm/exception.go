package vm

import (
	"fmt"
	"strings"

	"github.com/ruby-syntax-tree/syntax-tree-sub003/bytecode"
)

// ---------------------------------------------------------------------------
// Signals: non-local control transfer
// ---------------------------------------------------------------------------

// signal is panicked to unwind Go frames for raise, break, next, redo,
// retry and return. Target is the frame whose catch table or return ends
// the unwinding; raised exceptions have no target.
type signal struct {
	tag    int
	value  Value
	target *Frame
}

func (s *signal) String() string {
	return fmt.Sprintf("signal(%s)", tagName(s.tag))
}

func tagName(tag int) string {
	switch tag {
	case bytecode.TagReturn:
		return "return"
	case bytecode.TagBreak:
		return "break"
	case bytecode.TagNext:
		return "next"
	case bytecode.TagRetry:
		return "retry"
	case bytecode.TagRedo:
		return "redo"
	case bytecode.TagRaise:
		return "raise"
	case bytecode.TagThrow:
		return "throw"
	case bytecode.TagFatal:
		return "fatal"
	}
	return "none"
}

// catchSignal recovers a *signal panic into *sigp. Anything else keeps
// unwinding.
func catchSignal(sigp **signal) {
	r := recover()
	if r == nil {
		return
	}
	if s, ok := r.(*signal); ok {
		*sigp = s
		return
	}
	panic(r)
}

// ---------------------------------------------------------------------------
// RubyError: an uncaught exception surfaced to Go
// ---------------------------------------------------------------------------

// RubyError is returned by Run when the program ends with an uncaught
// exception.
type RubyError struct {
	Exception *Object
	vm        *VM
}

// ClassName returns the name of the exception's class.
func (e *RubyError) ClassName() string { return e.Exception.class.FullName() }

// Message returns the exception message.
func (e *RubyError) Message() string { return e.vm.exceptionMessage(e.Exception) }

// Backtrace returns the "file:line:in `name'" entries recorded at raise.
func (e *RubyError) Backtrace() []string { return backtraceOf(e.Exception) }

func (e *RubyError) Error() string {
	msg := e.Message()
	if bt := e.Backtrace(); len(bt) > 0 {
		return fmt.Sprintf("%s: %s (%s)", bt[0], msg, e.ClassName())
	}
	return fmt.Sprintf("%s (%s)", msg, e.ClassName())
}

// ---------------------------------------------------------------------------
// Exception class registration
// ---------------------------------------------------------------------------

var exceptionHierarchy = []struct{ name, super string }{
	{"ScriptError", "Exception"},
	{"NotImplementedError", "ScriptError"},
	{"NoMemoryError", "Exception"},
	{"SystemExit", "Exception"},
	{"SystemStackError", "Exception"},
	{"SecurityError", "Exception"},
	{"StandardError", "Exception"},
	{"RuntimeError", "StandardError"},
	{"FrozenError", "RuntimeError"},
	{"ArgumentError", "StandardError"},
	{"UncaughtThrowError", "ArgumentError"},
	{"NameError", "StandardError"},
	{"NoMethodError", "NameError"},
	{"TypeError", "StandardError"},
	{"ZeroDivisionError", "StandardError"},
	{"IndexError", "StandardError"},
	{"KeyError", "IndexError"},
	{"StopIteration", "IndexError"},
	{"RangeError", "StandardError"},
	{"FloatDomainError", "RangeError"},
	{"RegexpError", "StandardError"},
	{"LocalJumpError", "StandardError"},
	{"FiberError", "StandardError"},
	{"IOError", "StandardError"},
	{"NoMatchingPatternError", "StandardError"},
	{"NoMatchingPatternKeyError", "NoMatchingPatternError"},
}

func (vm *VM) bootstrapExceptionClasses() {
	vm.ExceptionClass = vm.defineClass("Exception", vm.ObjectClass)
	for _, e := range exceptionHierarchy {
		vm.defineClass(e.name, vm.classNamed(e.super))
	}
	vm.StandardErrorClass = vm.classNamed("StandardError")
}

// ---------------------------------------------------------------------------
// Raising
// ---------------------------------------------------------------------------

// newError builds an instance of the core exception class name.
func (vm *VM) newError(name, format string, args ...any) *Object {
	msg := format
	if len(args) > 0 {
		msg = fmt.Sprintf(format, args...)
	}
	return vm.newException(vm.classNamed(name), NewString(msg))
}

func (vm *VM) newException(class *Class, msg Value) *Object {
	exc := &Object{class: class}
	exc.SetIvar("mesg", msg)
	return exc
}

// raise panics with exc, recording a backtrace if it has none.
func (vm *VM) raise(exc *Object) {
	if _, ok := exc.Ivar("bt"); !ok {
		exc.SetIvar("bt", vm.backtrace())
	}
	if _, ok := exc.Ivar("cause"); !ok {
		var cause Value
		if c, ok := vm.errinfo.(*Object); ok && c != exc {
			cause = c
		}
		exc.SetIvar("cause", cause)
	}
	log.Debugf("raise %s: %s", exc.class.Name, vm.exceptionMessage(exc))
	panic(&signal{tag: bytecode.TagRaise, value: exc})
}

// raiseError raises a new core exception.
func (vm *VM) raiseError(name, format string, args ...any) {
	vm.raise(vm.newError(name, format, args...))
}

// raiseValue raises v, which must be an exception, an exception class or
// a message string.
func (vm *VM) raiseValue(v Value) {
	switch x := v.(type) {
	case *Object:
		if x.class.IsSubclassOf(vm.ExceptionClass) {
			vm.raise(x)
		}
	case *Class:
		if x.IsSubclassOf(vm.ExceptionClass) {
			vm.raise(vm.asException(vm.Send(x, "new")))
		}
	case *String:
		vm.raise(vm.newException(vm.classNamed("RuntimeError"), NewString(x.Value)))
	}
	vm.raiseError("TypeError", "exception class/object expected")
}

func (vm *VM) asException(v Value) *Object {
	if o, ok := v.(*Object); ok && o.class.IsSubclassOf(vm.ExceptionClass) {
		return o
	}
	vm.raiseError("TypeError", "exception object expected")
	return nil
}

func (vm *VM) exceptionMessage(exc *Object) string {
	for _, name := range []string{"message", "to_s"} {
		if m := exc.class.LookupMethod(name); m != nil && !m.IsBuiltin() {
			return vm.ToS(vm.Send(exc, "message"))
		}
	}
	msg, _ := exc.Ivar("mesg")
	if msg == nil {
		return exc.class.FullName()
	}
	return vm.ToS(msg)
}

func backtraceOf(exc *Object) []string {
	bt, _ := exc.Ivar("bt")
	a, ok := bt.(*Array)
	if !ok {
		return nil
	}
	out := make([]string, 0, a.Len())
	for _, e := range a.Elements {
		if s, ok := e.(*String); ok {
			out = append(out, s.Value)
		}
	}
	return out
}

func (vm *VM) backtrace() *Array {
	bt := NewArray()
	for i := len(vm.frames) - 1; i >= 0; i-- {
		f := vm.frames[i]
		bt.Elements = append(bt.Elements, NewString(fmt.Sprintf("%s:%d:in `%s'", f.ISeq.File, f.Line(), frameLabel(f))))
	}
	return bt
}

func frameLabel(f *Frame) string {
	switch f.ISeq.Type {
	case bytecode.TypeTop:
		return "<main>"
	case bytecode.TypeClass:
		return "<class:" + strings.TrimPrefix(f.ISeq.Name, "<class:")
	}
	return f.ISeq.Name
}

// ---------------------------------------------------------------------------
// Throw: starting a non-local transfer
// ---------------------------------------------------------------------------

// throw executes the throw instruction: it works out which frame the
// transfer ends in and panics with the signal.
func (vm *VM) throw(f *Frame, state int, v Value) {
	tag := state & bytecode.ThrowStateMask
	home := f.scope()
	switch tag {
	case bytecode.TagNone:
		if s, ok := v.(*signal); ok {
			panic(s)
		}
		vm.raiseValue(v)
	case bytecode.TagBreak:
		switch {
		case vm.hasCatch(home, bytecode.CatchTypeBreak):
			vm.signal(tag, v, home)
		case home.ISeq.Type != bytecode.TypeBlock:
			vm.raiseError("LocalJumpError", "break from proc-closure")
		case home.lambda:
			vm.signal(tag, v, home)
		default:
			vm.signal(tag, v, home.Parent)
		}
	case bytecode.TagNext, bytecode.TagRedo:
		vm.signal(tag, v, home)
	case bytecode.TagRetry:
		e := f
		for e.ISeq.Type != bytecode.TypeRescue && e.Parent != nil {
			e = e.Parent
		}
		vm.signal(tag, v, e.Parent)
	case bytecode.TagReturn:
		vm.signal(tag, v, returnTarget(f))
	default:
		bytecode.Fault(state, "unsupported throw state")
	}
}

func (vm *VM) signal(tag int, v Value, target *Frame) {
	if target == nil || target.done {
		vm.raiseError("LocalJumpError", "unexpected %s", tagName(tag))
	}
	log.Debugf("throw %s to %s", tagName(tag), target.ISeq.Name)
	panic(&signal{tag: tag, value: v, target: target})
}

// returnTarget finds the frame a return leaves: the enclosing lambda or
// method, or the top level.
func returnTarget(f *Frame) *Frame {
	for e := f; e != nil; e = e.Parent {
		switch e.ISeq.Type {
		case bytecode.TypeMethod, bytecode.TypeTop:
			return e
		case bytecode.TypeBlock:
			if e.lambda {
				return e
			}
		}
	}
	return nil
}

func (vm *VM) hasCatch(f *Frame, typ bytecode.CatchType) bool {
	for _, entry := range f.ISeq.CatchTable {
		if entry.Type == typ && f.covers(entry) {
			return true
		}
	}
	return false
}

// ---------------------------------------------------------------------------
// Catch: ending a non-local transfer
// ---------------------------------------------------------------------------

// findCatch returns the first entry of f's catch table that handles sig at
// the current pc. Ensure entries run for every signal; rescue entries take
// exceptions; the loop and block entries only take signals aimed at f.
func (vm *VM) findCatch(f *Frame, sig *signal) *bytecode.CatchEntry {
	for _, entry := range f.ISeq.CatchTable {
		if !f.covers(entry) {
			continue
		}
		switch entry.Type {
		case bytecode.CatchTypeEnsure:
			return entry
		case bytecode.CatchTypeRescue:
			if sig.tag == bytecode.TagRaise {
				return entry
			}
		case bytecode.CatchTypeBreak:
			if sig.tag == bytecode.TagBreak && sig.target == f {
				return entry
			}
		case bytecode.CatchTypeNext:
			if sig.tag == bytecode.TagNext && sig.target == f {
				return entry
			}
		case bytecode.CatchTypeRedo:
			if sig.tag == bytecode.TagRedo && sig.target == f {
				return entry
			}
		case bytecode.CatchTypeRetry:
			if sig.tag == bytecode.TagRetry && sig.target == f {
				return entry
			}
		}
	}
	return nil
}

// handle resumes f after entry caught sig: the stack is cut back to the
// entry's depth, pc moves to the exit label, and a rescue or ensure body
// runs in a sub-frame first. A signal raised by that body is returned for
// the caller to examine against f's table again.
func (vm *VM) handle(f *Frame, entry *bytecode.CatchEntry, sig *signal) (next *signal) {
	log.Debugf("%s caught by %s entry of %s", tagName(sig.tag), entry.Type, f.ISeq.Name)
	vm.truncate(f.base + entry.RestoreSP)
	f.pc = f.prog.target(entry.ExitLabel)

	switch entry.Type {
	case bytecode.CatchTypeRescue:
		defer catchSignal(&next)
		saved := vm.errinfo
		vm.errinfo = sig.value
		defer func() { vm.errinfo = saved }()
		vm.push(vm.runHandler(f, entry.ISeq, sig.value))
	case bytecode.CatchTypeEnsure:
		defer catchSignal(&next)
		var errinfo Value = sig
		if sig.tag == bytecode.TagRaise {
			errinfo = sig.value
		}
		vm.push(vm.runHandler(f, entry.ISeq, errinfo))
	case bytecode.CatchTypeBreak, bytecode.CatchTypeNext:
		vm.push(sig.value)
	}
	return nil
}

// runHandler runs a rescue or ensure body with the caught value in its
// first local.
func (vm *VM) runHandler(f *Frame, iseq *bytecode.InstructionSequence, errinfo Value) Value {
	h := vm.newFrame(iseq, f.Self, f)
	if len(h.Locals) > 0 {
		h.Locals[0] = errinfo
	}
	return vm.run(h)
}
