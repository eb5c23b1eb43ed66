package vm

import (
	"strconv"

	"github.com/ruby-syntax-tree/syntax-tree-sub003/bytecode"
)

// ---------------------------------------------------------------------------
// Instance variables
// ---------------------------------------------------------------------------

func (vm *VM) ivarGet(self Value, name string) Value {
	if h, ok := self.(heapValue); ok {
		v, _ := h.hdr().Ivar(name)
		return v
	}
	return nil
}

func (vm *VM) ivarSet(self Value, name string, v Value) {
	vm.checkFrozen(self)
	self.(heapValue).hdr().SetIvar(name, v)
}

// checkFrozen raises FrozenError when v cannot be modified. Immediates are
// always frozen.
func (vm *VM) checkFrozen(v Value) {
	if h, ok := v.(heapValue); ok && !h.hdr().IsFrozen() {
		return
	}
	exc := vm.newError("FrozenError", "can't modify frozen %s: %s", vm.ClassOf(v).FullName(), vm.Inspect(v))
	exc.SetIvar("receiver", v)
	vm.raise(exc)
}

// ---------------------------------------------------------------------------
// Class variables
// ---------------------------------------------------------------------------

// classVarScope is the class that class variable access in f resolves
// against, or nil at the top level.
func classVarScope(f *Frame) *Class {
	if f.Cref == nil || f.Cref.Next == nil {
		return nil
	}
	c := f.Cref.Class
	for c.IsSingleton() {
		attached, ok := c.Attached.(*Class)
		if !ok {
			break
		}
		c = attached
	}
	return c
}

func (vm *VM) cvarBase(f *Frame) *Class {
	c := classVarScope(f)
	if c == nil {
		vm.raiseError("RuntimeError", "class variable access from toplevel")
	}
	return c
}

func (vm *VM) cvarGet(f *Frame, name string) Value {
	c := vm.cvarBase(f)
	v, ok := c.GetClassVar(name)
	if !ok {
		vm.raiseError("NameError", "uninitialized class variable %s in %s", name, c.FullName())
	}
	return v
}

// ---------------------------------------------------------------------------
// Globals and frame specials
// ---------------------------------------------------------------------------

func (vm *VM) resolveGlobal(name string) string {
	if target, ok := vm.aliases[name]; ok {
		return target
	}
	return name
}

func (vm *VM) getGlobal(name string) Value {
	name = vm.resolveGlobal(name)
	switch name {
	case "$!":
		return vm.errinfo
	case "$~":
		if f := vm.currentFrame(); f != nil {
			return f.local().backref
		}
		return nil
	case "$_":
		if f := vm.currentFrame(); f != nil {
			return f.local().lastLine
		}
		return nil
	}
	return vm.globals[name]
}

func (vm *VM) setGlobal(name string, v Value) {
	name = vm.resolveGlobal(name)
	switch name {
	case "$!":
		vm.raiseError("NameError", "$! is a read-only variable")
	case "$~":
		if _, ok := v.(*MatchData); !ok && v != nil {
			vm.raiseError("TypeError", "wrong argument type %s (expected MatchData)", vm.ClassOf(v).FullName())
		}
		if f := vm.currentFrame(); f != nil {
			f.local().backref = v
		}
		return
	case "$_":
		if f := vm.currentFrame(); f != nil {
			f.local().lastLine = v
		}
		return
	}
	vm.globals[name] = v
}

func (vm *VM) globalDefined(name string) bool {
	name = vm.resolveGlobal(name)
	switch name {
	case "$!", "$~", "$_":
		return vm.getGlobal(name) != nil
	}
	_, ok := vm.globals[name]
	return ok
}

func (vm *VM) getSpecial(f *Frame, key, typ int) Value {
	l := f.local()
	switch key {
	case bytecode.SpecialLastLine:
		return l.lastLine
	case bytecode.SpecialBackref:
		if typ == 0 {
			return l.backref
		}
		m, ok := l.backref.(*MatchData)
		if !ok {
			return nil
		}
		return backrefValue(m, typ)
	}
	bytecode.Fault(key, "unsupported special variable")
	return nil
}

// backrefValue decodes a getspecial type: even types are group numbers,
// odd types name $& $` $' or $+.
func backrefValue(m *MatchData, typ int) Value {
	if typ&1 == 0 {
		return m.Group(typ >> 1)
	}
	switch byte(typ >> 1) {
	case '&':
		return m.Group(0)
	case '`':
		return NewString(m.PreMatch())
	case '\'':
		return NewString(m.PostMatch())
	case '+':
		for i := m.Size() - 1; i > 0; i-- {
			if g := m.Group(i); g != nil {
				return g
			}
		}
	}
	return nil
}

func (vm *VM) setSpecial(f *Frame, key int, v Value) {
	l := f.local()
	switch key {
	case bytecode.SpecialLastLine:
		l.lastLine = v
	case bytecode.SpecialBackref:
		l.backref = v
	default:
		bytecode.Fault(key, "unsupported special variable")
	}
}

// setBackref records the result of a match for $~ in the calling scope.
func (vm *VM) setBackref(m Value) {
	if f := vm.currentFrame(); f != nil {
		f.local().backref = m
	}
}

// ---------------------------------------------------------------------------
// Constants
// ---------------------------------------------------------------------------

func (vm *VM) moduleOf(v Value) *Class {
	c, ok := v.(*Class)
	if !ok {
		vm.raiseError("TypeError", "%s is not a class/module", vm.Inspect(v))
	}
	return c
}

// lexicalConst resolves a bare constant: the lexically enclosing class
// bodies, then the ancestors of the innermost one, then Object.
func (vm *VM) lexicalConst(f *Frame, name string) (Value, bool) {
	if f.Cref == nil {
		return vm.ObjectClass.lookupConst(name)
	}
	for c := f.Cref; c != nil && c.Next != nil; c = c.Next {
		if v, ok := c.Class.ConstGet(name); ok {
			return v, true
		}
	}
	if v, ok := f.Cref.Class.lookupConst(name); ok {
		return v, true
	}
	return vm.ObjectClass.lookupConst(name)
}

// scopedConst resolves Scope::Name through the scope's ancestors. Object's
// constants are only visible through Object itself.
func (vm *VM) scopedConst(scope *Class, name string) (Value, bool) {
	for _, a := range scope.Ancestors() {
		if a == vm.ObjectClass && scope != vm.ObjectClass {
			break
		}
		if v, ok := a.ConstGet(name); ok {
			return v, true
		}
	}
	return nil, false
}

func (vm *VM) getConstant(f *Frame, scope Value, lexical bool, name string) Value {
	if scope == nil && lexical {
		if v, ok := vm.lexicalConst(f, name); ok {
			return v
		}
		vm.raiseError("NameError", "uninitialized constant %s", name)
	}
	return vm.constGet(vm.moduleOf(scope), name)
}

// constGet resolves name in class, raising NameError when it is missing.
func (vm *VM) constGet(class *Class, name string) Value {
	if v, ok := vm.scopedConst(class, name); ok {
		return v
	}
	if class == vm.ObjectClass {
		vm.raiseError("NameError", "uninitialized constant %s", name)
	}
	vm.raiseError("NameError", "uninitialized constant %s::%s", class.FullName(), name)
	return nil
}

// constPath resolves A::B::C. A leading "" starts from Object.
func (vm *VM) constPath(f *Frame, names []string) Value {
	var v Value
	for i, name := range names {
		switch {
		case i == 0 && name == "":
			v = vm.ObjectClass
		case i == 0:
			v = vm.getConstant(f, nil, true, name)
		default:
			v = vm.constGet(vm.moduleOf(v), name)
		}
	}
	return v
}

// ---------------------------------------------------------------------------
// Definitions
// ---------------------------------------------------------------------------

var alwaysPrivate = map[string]bool{
	"initialize":          true,
	"initialize_copy":     true,
	"initialize_clone":    true,
	"initialize_dup":      true,
	"respond_to_missing?": true,
}

// defineMethod installs a compiled method. Instance methods take the
// default visibility of the defining scope; under module_function a public
// copy also goes on the singleton class.
func (vm *VM) defineMethod(f *Frame, class *Class, name string, iseq *bytecode.InstructionSequence, singleton bool) {
	m := &Method{Name: name, ISeq: iseq, Cref: f.Cref, Arity: -1}
	scope := f.scope()
	if !singleton {
		m.Visibility = scope.visibility
		if alwaysPrivate[name] {
			m.Visibility = Private
		}
	}
	vm.addMethod(class, m)
	log.Debugf("defined %s#%s", class.FullName(), name)
	if !singleton && scope.moduleFunc {
		fn := m.clone(name)
		fn.Visibility = Public
		vm.addMethod(vm.singletonClass(class), fn)
	}
}

// openClass runs defineclass: it finds or creates the class, module or
// singleton class and evaluates the body with it as self.
func (vm *VM) openClass(f *Frame, in *bytecode.DefineClass, cbase, super Value) Value {
	var class *Class
	switch typ := in.Flags & 7; typ {
	case bytecode.DefineClassTypeSingletonClass:
		class = vm.singletonClass(cbase)
	default:
		scope := vm.moduleOf(cbase)
		isModule := typ == bytecode.DefineClassTypeModule
		hasSuper := in.Flags&bytecode.DefineClassFlagHasSuperclass != 0
		var superclass *Class
		if hasSuper {
			sc, ok := super.(*Class)
			if !ok || sc.IsModule {
				vm.raiseError("TypeError", "superclass must be an instance of Class (given an instance of %s)", vm.ClassOf(super).FullName())
			}
			superclass = sc
		}
		if existing, ok := scope.ConstGet(in.Constant); ok {
			c, isClass := existing.(*Class)
			switch {
			case !isClass || (c.IsModule && !isModule):
				vm.raiseError("TypeError", "%s is not a class", in.Constant)
			case !c.IsModule && isModule:
				vm.raiseError("TypeError", "%s is not a module", in.Constant)
			case hasSuper && c.Superclass != superclass:
				vm.raiseError("TypeError", "superclass mismatch for class %s", in.Constant)
			}
			class = c
		} else if isModule {
			class = NewModule("")
			scope.ConstSet(in.Constant, class)
		} else {
			if superclass == nil {
				superclass = vm.ObjectClass
			}
			class = NewClass("", superclass)
			scope.ConstSet(in.Constant, class)
			vm.Send(superclass, "inherited", class)
		}
	}
	body := vm.newFrame(in.ClassISeq, class, nil)
	body.Cref = &Cref{Class: class, Next: f.Cref}
	return vm.run(body)
}

// ---------------------------------------------------------------------------
// defined?
// ---------------------------------------------------------------------------

func (vm *VM) defined(f *Frame, in *bytecode.Defined, v Value) Value {
	name := ""
	if s, ok := in.Operand.(bytecode.Symbol); ok {
		name = string(s)
	}
	ok := false
	switch in.Type {
	case bytecode.DefinedNil, bytecode.DefinedSelf, bytecode.DefinedTrue, bytecode.DefinedFalse,
		bytecode.DefinedAsgn, bytecode.DefinedExpr, bytecode.DefinedLVar:
		ok = true
	case bytecode.DefinedIVar:
		if h, isHeap := f.Self.(heapValue); isHeap {
			_, ok = h.hdr().Ivar(name)
		}
	case bytecode.DefinedGVar:
		ok = vm.globalDefined(name)
	case bytecode.DefinedCVar:
		if c := classVarScope(f); c != nil {
			ok = c.HasClassVar(name)
		}
	case bytecode.DefinedConst:
		_, ok = vm.lexicalConst(f, name)
	case bytecode.DefinedConstFrom:
		if c, isClass := v.(*Class); isClass {
			_, ok = vm.scopedConst(c, name)
		}
	case bytecode.DefinedFunc:
		ok = vm.respondTo(v, name, true)
	case bytecode.DefinedMethod:
		if m := vm.dispatchClass(v).LookupMethod(name); m != nil {
			ok = m.Visibility == Public || (m.Visibility == Protected && vm.dispatchClass(f.Self).IsSubclassOf(m.Owner))
		}
	case bytecode.DefinedYield:
		ok = f.Block != nil
	case bytecode.DefinedZSuper:
		if m := f.Method; m != nil {
			ok = vm.dispatchClass(f.Self).LookupSuper(m.Owner, m.Name) != nil
		}
	case bytecode.DefinedRef:
		if m, isMatch := f.local().backref.(*MatchData); isMatch && len(name) > 1 {
			if n, err := strconv.Atoi(name[1:]); err == nil {
				ok = m.Group(n) != nil
			} else {
				ok = true
			}
		}
	default:
		bytecode.Fault(in.Type, "unknown defined? type")
	}
	if !ok {
		return nil
	}
	if msg, isString := in.Message.(string); isString {
		return NewString(msg)
	}
	return true
}
