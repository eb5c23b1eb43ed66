package vm

import (
	"fmt"
	"io"
	"math/big"
	"os"

	"github.com/ruby-syntax-tree/syntax-tree-sub003/bytecode"
)

// ---------------------------------------------------------------------------
// VM: the bytecode interpreter
// ---------------------------------------------------------------------------

// DefaultMaxFrames bounds the frame stack unless configured otherwise.
const DefaultMaxFrames = 10000

// Options configure a VM.
type Options struct {
	// Stdout receives puts, p and print output.
	Stdout io.Writer
	// MaxFrames is the frame depth at which SystemStackError is raised.
	MaxFrames int
}

// DefaultOptions writes to os.Stdout with DefaultMaxFrames.
func DefaultOptions() Options {
	return Options{Stdout: os.Stdout, MaxFrames: DefaultMaxFrames}
}

// VM executes closed instruction sequences. A VM is single threaded; it
// keeps its classes, globals and constants between Run calls.
type VM struct {
	Stdout    io.Writer
	MaxFrames int

	// Well-known classes
	BasicObjectClass   *Class
	ObjectClass        *Class
	ModuleClass        *Class
	ClassClass         *Class
	KernelModule       *Class
	ComparableModule   *Class
	EnumerableModule   *Class
	NilClass           *Class
	TrueClass          *Class
	FalseClass         *Class
	NumericClass       *Class
	IntegerClass       *Class
	FloatClass         *Class
	RationalClass      *Class
	ComplexClass       *Class
	StringClass        *Class
	SymbolClass        *Class
	ArrayClass         *Class
	HashClass          *Class
	RangeClass         *Class
	RegexpClass        *Class
	MatchDataClass     *Class
	ProcClass          *Class
	ExceptionClass     *Class
	StandardErrorClass *Class

	main *Object
	core *Object

	// Execution state
	stack  []Value
	frames []*Frame

	globals   map[string]Value
	aliases   map[string]string
	errinfo   Value
	programs  map[*bytecode.InstructionSequence]*program
	onceCache map[*bytecode.Once]Value
	constSlot map[constSlotKey]Value
	builtins  map[string]Builtin
	postExe   []*Proc
	// active catch blocks, innermost last
	catches []*catchTag

	calls     *InlineCacheTable
	serial    uint64
	objectIDs map[any]int64
	nextID    int64
	// values being inspected, to print recursive structures as [...]
	inspecting map[any]bool
}

type constSlotKey struct {
	iseq *bytecode.InstructionSequence
	slot int
}

// New creates a VM with the core classes loaded.
func New(opts Options) *VM {
	if opts.Stdout == nil {
		opts.Stdout = os.Stdout
	}
	if opts.MaxFrames <= 0 {
		opts.MaxFrames = DefaultMaxFrames
	}
	vm := &VM{
		Stdout:    opts.Stdout,
		MaxFrames: opts.MaxFrames,
		globals:   make(map[string]Value),
		aliases:   make(map[string]string),
		programs:  make(map[*bytecode.InstructionSequence]*program),
		onceCache: make(map[*bytecode.Once]Value),
		constSlot: make(map[constSlotKey]Value),
		builtins:  make(map[string]Builtin),
		calls:     NewInlineCacheTable(),
		objectIDs: make(map[any]int64),

		inspecting: make(map[any]bool),
	}
	vm.bootstrap()
	return vm
}

func (vm *VM) bootstrap() {
	vm.BasicObjectClass = NewClass("BasicObject", nil)
	vm.ObjectClass = NewClass("Object", vm.BasicObjectClass)
	vm.ModuleClass = NewClass("Module", vm.ObjectClass)
	vm.ClassClass = NewClass("Class", vm.ModuleClass)
	for _, c := range []*Class{vm.BasicObjectClass, vm.ObjectClass, vm.ModuleClass, vm.ClassClass} {
		vm.ObjectClass.ConstSet(c.Name, c)
	}

	vm.KernelModule = vm.defineModule("Kernel")
	vm.ComparableModule = vm.defineModule("Comparable")
	vm.EnumerableModule = vm.defineModule("Enumerable")
	vm.ObjectClass.Include(vm.KernelModule)

	vm.NilClass = vm.defineClass("NilClass", vm.ObjectClass)
	vm.TrueClass = vm.defineClass("TrueClass", vm.ObjectClass)
	vm.FalseClass = vm.defineClass("FalseClass", vm.ObjectClass)
	vm.NumericClass = vm.defineClass("Numeric", vm.ObjectClass)
	vm.NumericClass.Include(vm.ComparableModule)
	vm.IntegerClass = vm.defineClass("Integer", vm.NumericClass)
	vm.FloatClass = vm.defineClass("Float", vm.NumericClass)
	vm.RationalClass = vm.defineClass("Rational", vm.NumericClass)
	vm.ComplexClass = vm.defineClass("Complex", vm.NumericClass)
	vm.StringClass = vm.defineClass("String", vm.ObjectClass)
	vm.StringClass.Include(vm.ComparableModule)
	vm.SymbolClass = vm.defineClass("Symbol", vm.ObjectClass)
	vm.SymbolClass.Include(vm.ComparableModule)
	vm.ArrayClass = vm.defineClass("Array", vm.ObjectClass)
	vm.ArrayClass.Include(vm.EnumerableModule)
	vm.HashClass = vm.defineClass("Hash", vm.ObjectClass)
	vm.HashClass.Include(vm.EnumerableModule)
	vm.RangeClass = vm.defineClass("Range", vm.ObjectClass)
	vm.RangeClass.Include(vm.EnumerableModule)
	vm.RegexpClass = vm.defineClass("Regexp", vm.ObjectClass)
	vm.MatchDataClass = vm.defineClass("MatchData", vm.ObjectClass)
	vm.ProcClass = vm.defineClass("Proc", vm.ObjectClass)
	vm.bootstrapExceptionClasses()

	vm.main = &Object{class: vm.ObjectClass}
	vm.core = &Object{class: NewClass("FrozenCore", vm.BasicObjectClass)}
	vm.core.Freeze()

	vm.globals["$,"] = nil
	vm.globals["$/"] = NewString("\n")
	vm.globals["$0"] = NewString("-")

	vm.registerKernelPrimitives()
	vm.registerObjectPrimitives()
	vm.registerModulePrimitives()
	vm.registerComparablePrimitives()
	vm.registerNumericPrimitives()
	vm.registerStringPrimitives()
	vm.registerSymbolPrimitives()
	vm.registerArrayPrimitives()
	vm.registerHashPrimitives()
	vm.registerRangePrimitives()
	vm.registerRegexpPrimitives()
	vm.registerEnumerablePrimitives()
	vm.registerProcPrimitives()
	vm.registerExceptionPrimitives()
	vm.registerCorePrimitives()
	vm.defineSingletonMethod(vm.main, "to_s", 0, func(*VM, Value, []Value, *Proc) Value { return NewString("main") })
	vm.defineSingletonMethod(vm.main, "inspect", 0, func(*VM, Value, []Value, *Proc) Value { return NewString("main") })
}

func (vm *VM) defineClass(name string, super *Class) *Class {
	c := NewClass(name, super)
	vm.ObjectClass.ConstSet(name, c)
	return c
}

func (vm *VM) defineModule(name string) *Class {
	m := NewModule(name)
	vm.ObjectClass.ConstSet(name, m)
	return m
}

// classNamed returns a core class registered under name in Object.
func (vm *VM) classNamed(name string) *Class {
	v, ok := vm.ObjectClass.ConstGet(name)
	c, isClass := v.(*Class)
	if !ok || !isClass {
		bytecode.Fault(name, "no core class")
	}
	return c
}

// RegisterBuiltin makes fn callable through invokebuiltin as name.
func (vm *VM) RegisterBuiltin(name string, fn Builtin) { vm.builtins[name] = fn }

// ---------------------------------------------------------------------------
// Running programs
// ---------------------------------------------------------------------------

// Run executes a closed top-level sequence with main as self and returns
// the value of its last expression. An exception that nothing rescues
// comes back as a *RubyError; the VM stays usable afterwards. END blocks
// registered by the program run before Run returns.
func (vm *VM) Run(iseq *bytecode.InstructionSequence) (result Value, err error) {
	log.Debugf("run %q", iseq.Name)
	result, err = vm.protect(func() Value {
		f := vm.newFrame(iseq, vm.main, nil)
		f.Cref = &Cref{Class: vm.ObjectClass}
		f.visibility = Private
		return vm.run(f)
	})
	for len(vm.postExe) > 0 {
		p := vm.postExe[len(vm.postExe)-1]
		vm.postExe = vm.postExe[:len(vm.postExe)-1]
		if _, perr := vm.protect(func() Value { return vm.callProc(p, nil, nil) }); perr != nil && err == nil {
			err = perr
		}
	}
	return result, err
}

// Call sends name to recv from Go, returning an uncaught exception as a
// *RubyError.
func (vm *VM) Call(recv Value, name string, args ...Value) (Value, error) {
	return vm.protect(func() Value { return vm.Send(recv, name, args...) })
}

func (vm *VM) protect(fn func() Value) (result Value, err error) {
	stack, frames := len(vm.stack), len(vm.frames)
	defer func() {
		r := recover()
		if r == nil {
			return
		}
		vm.stack, vm.frames = vm.stack[:stack], vm.frames[:frames]
		switch x := r.(type) {
		case *signal:
			err = vm.uncaught(x)
		case *bytecode.InternalError:
			err = fmt.Errorf("vm: %w", x)
		default:
			panic(r)
		}
	}()
	return fn(), nil
}

func (vm *VM) uncaught(sig *signal) error {
	if sig.tag == bytecode.TagRaise {
		return &RubyError{Exception: sig.value.(*Object), vm: vm}
	}
	exc := vm.newError("LocalJumpError", "unexpected %s", tagName(sig.tag))
	exc.SetIvar("bt", NewArray())
	return &RubyError{Exception: exc, vm: vm}
}

// Global returns the global variable name.
func (vm *VM) Global(name string) Value { return vm.getGlobal(name) }

// Main returns the top-level self.
func (vm *VM) Main() Value { return vm.main }

// CallCacheStats reports the call-site cache counters.
func (vm *VM) CallCacheStats() ICStats { return vm.calls.ICStats() }

// ---------------------------------------------------------------------------
// Class of a value
// ---------------------------------------------------------------------------

// ClassOf returns the class of v, ignoring singleton classes.
func (vm *VM) ClassOf(v Value) *Class {
	switch x := v.(type) {
	case nil:
		return vm.NilClass
	case bool:
		if x {
			return vm.TrueClass
		}
		return vm.FalseClass
	case int64, *big.Int:
		return vm.IntegerClass
	case float64:
		return vm.FloatClass
	case Symbol:
		return vm.SymbolClass
	case *String:
		return vm.StringClass
	case *Array:
		return vm.ArrayClass
	case *Hash:
		return vm.HashClass
	case *Range:
		return vm.RangeClass
	case *Regexp:
		return vm.RegexpClass
	case *MatchData:
		return vm.MatchDataClass
	case *Proc:
		return vm.ProcClass
	case *Rational:
		return vm.RationalClass
	case *Complex:
		return vm.ComplexClass
	case *Class:
		if x.IsModule {
			return vm.ModuleClass
		}
		return vm.ClassClass
	case *Object:
		return x.class
	}
	bytecode.Fault(v, "value of type %T has no class", v)
	return nil
}

// dispatchClass is where method lookup for v starts: its singleton class
// if it has one.
func (vm *VM) dispatchClass(v Value) *Class {
	if h, ok := v.(heapValue); ok {
		if meta := h.hdr().meta; meta != nil {
			return meta
		}
	}
	if c, ok := v.(*Class); ok {
		return vm.singletonClass(c)
	}
	return vm.ClassOf(v)
}

// singletonClass returns v's singleton class, creating it. A class's
// singleton inherits from its superclass's singleton, so class methods
// are inherited.
func (vm *VM) singletonClass(v Value) *Class {
	h, ok := v.(heapValue)
	if !ok {
		vm.raiseError("TypeError", "can't define singleton")
	}
	hd := h.hdr()
	if hd.meta != nil {
		return hd.meta
	}
	var super *Class
	switch x := v.(type) {
	case *Class:
		switch {
		case x.IsModule:
			super = vm.ModuleClass
		case x.Superclass != nil:
			super = vm.singletonClass(x.Superclass)
		default:
			super = vm.ClassClass
		}
	default:
		super = vm.ClassOf(v)
	}
	meta := NewClass("", super)
	meta.Attached = v
	hd.meta = meta
	vm.serial++
	return meta
}

func (vm *VM) defineSingletonMethod(v Value, name string, arity int, fn Builtin) {
	vm.singletonClass(v).AddMethod(&Method{Name: name, Fn: fn, Arity: arity})
	vm.serial++
}

// objectID returns a stable id for v.
func (vm *VM) objectID(v Value) int64 {
	switch x := v.(type) {
	case nil:
		return 8
	case bool:
		if x {
			return 20
		}
		return 0
	case int64:
		return 2*x + 1
	}
	if id, ok := vm.objectIDs[v]; ok {
		return id
	}
	vm.nextID += 8
	id := 1000 + vm.nextID
	vm.objectIDs[v] = id
	return id
}
