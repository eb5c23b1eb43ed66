package vm

import (
	"slices"
	"strings"
)

// ---------------------------------------------------------------------------
// Module and Class
// ---------------------------------------------------------------------------

func (vm *VM) registerModulePrimitives() {
	m := vm.ModuleClass

	m.AddMethod0("name", func(_ *VM, self Value) Value {
		if name := self.(*Class).FullName(); name != "" && !self.(*Class).IsSingleton() {
			return NewString(name)
		}
		return nil
	})
	m.AddMethod0("to_s", func(vm *VM, self Value) Value { return NewString(vm.className(self.(*Class))) })
	m.aliasBuiltin("inspect", "to_s")
	m.AddMethod1("===", func(vm *VM, self, v Value) Value { return vm.dispatchClass(v).IsSubclassOf(self.(*Class)) })
	m.AddMethod1("==", func(_ *VM, self, other Value) Value { return self == other })
	m.AddMethod1("<", func(vm *VM, self, other Value) Value { return vm.classOrder(self, other, false) })
	m.AddMethod1("<=", func(vm *VM, self, other Value) Value { return vm.classOrder(self, other, true) })
	m.AddMethod1(">", func(vm *VM, self, other Value) Value { return vm.classOrder(other, self, false) })
	m.AddMethod1(">=", func(vm *VM, self, other Value) Value { return vm.classOrder(other, self, true) })
	m.AddMethod0("ancestors", func(_ *VM, self Value) Value {
		out := NewArray()
		for _, a := range self.(*Class).Ancestors() {
			out.Elements = append(out.Elements, a)
		}
		return out
	})
	m.AddMethod0("included_modules", func(_ *VM, self Value) Value {
		out := NewArray()
		for _, a := range self.(*Class).Ancestors() {
			if a.IsModule {
				out.Elements = append(out.Elements, a)
			}
		}
		return out
	})
	m.AddMethod1("include?", func(vm *VM, self, mod Value) Value {
		c := vm.toClass(mod)
		return c.IsModule && self != mod && self.(*Class).IsSubclassOf(c)
	})

	// Mixins
	m.AddMethodN("include", func(vm *VM, self Value, args []Value, _ *Proc) Value {
		vm.checkArgs(args, 1, -1)
		c := self.(*Class)
		for _, a := range args {
			mod := vm.toClass(a)
			if !mod.IsModule {
				vm.raiseError("TypeError", "wrong argument type Class (expected Module)")
			}
			if c.Include(mod) {
				vm.serial++
				vm.Send(mod, "included", c)
			}
		}
		return self
	})
	m.AddPrivateMethodN("included", func(*VM, Value, []Value, *Proc) Value { return nil })
	m.AddPrivateMethodN("extended", func(*VM, Value, []Value, *Proc) Value { return nil })
	m.AddPrivateMethodN("method_added", func(*VM, Value, []Value, *Proc) Value { return nil })

	// Visibility
	for _, v := range []Visibility{Public, Private, Protected} {
		vis := v
		m.AddPrivateMethodN(vis.String(), func(vm *VM, self Value, args []Value, _ *Proc) Value {
			return vm.setVisibility(self.(*Class), vis, args)
		})
	}
	m.AddPrivateMethodN("module_function", func(vm *VM, self Value, args []Value, _ *Proc) Value {
		c := self.(*Class)
		if len(args) == 0 {
			if f := vm.currentFrame(); f != nil {
				f.scope().moduleFunc = true
			}
			return nil
		}
		meta := vm.singletonClass(c)
		for _, name := range vm.methodNames(args) {
			method := vm.findOwnOrInherited(c, name)
			fn := method.clone(name)
			fn.Visibility = Public
			vm.addMethod(meta, fn)
			private := method.clone(name)
			private.Visibility = Private
			vm.addMethod(c, private)
		}
		return nil
	})
	m.AddMethodN("private_class_method", func(vm *VM, self Value, args []Value, _ *Proc) Value {
		vm.setVisibility(vm.singletonClass(self), Private, args)
		return nil
	})
	m.AddMethodN("public_class_method", func(vm *VM, self Value, args []Value, _ *Proc) Value {
		vm.setVisibility(vm.singletonClass(self), Public, args)
		return nil
	})
	m.AddMethodN("private_constant", func(*VM, Value, []Value, *Proc) Value { return nil })

	// Method definition
	m.AddMethodN("attr_reader", func(vm *VM, self Value, args []Value, _ *Proc) Value {
		return vm.defineAttrs(self.(*Class), args, true, false)
	})
	m.AddMethodN("attr_writer", func(vm *VM, self Value, args []Value, _ *Proc) Value {
		return vm.defineAttrs(self.(*Class), args, false, true)
	})
	m.AddMethodN("attr_accessor", func(vm *VM, self Value, args []Value, _ *Proc) Value {
		return vm.defineAttrs(self.(*Class), args, true, true)
	})
	m.aliasBuiltin("attr", "attr_reader")
	m.AddMethodN("define_method", func(vm *VM, self Value, args []Value, blk *Proc) Value {
		vm.checkArgs(args, 1, 2)
		return vm.defineProcMethod(self.(*Class), vm.name(args[0]), arg(args, 1, nil), blk)
	})
	m.AddMethod2("alias_method", func(vm *VM, self, newName, old Value) Value {
		vm.aliasMethod(self.(*Class), vm.name(newName), vm.name(old))
		return Symbol(vm.name(newName))
	})
	m.AddMethodN("remove_method", func(vm *VM, self Value, args []Value, _ *Proc) Value {
		c := self.(*Class)
		for _, name := range vm.methodNames(args) {
			if !c.RemoveMethod(name) {
				vm.raiseError("NameError", "method `%s' not defined in %s", name, vm.className(c))
			}
			vm.serial++
		}
		return self
	})
	m.AddMethodN("undef_method", func(vm *VM, self Value, args []Value, _ *Proc) Value {
		for _, name := range vm.methodNames(args) {
			vm.undefMethod(self.(*Class), name)
		}
		return self
	})
	m.AddMethodN("instance_methods", func(vm *VM, self Value, args []Value, _ *Proc) Value {
		return vm.listMethods(self.(*Class), Truthy(arg(args, 0, true)))
	})
	m.aliasBuiltin("public_instance_methods", "instance_methods")
	m.AddMethodN("method_defined?", func(vm *VM, self Value, args []Value, _ *Proc) Value {
		vm.checkArgs(args, 1, 2)
		method := self.(*Class).LookupMethod(vm.name(args[0]))
		return method != nil && method.Visibility != Private
	})
	m.aliasBuiltin("public_method_defined?", "method_defined?")
	m.AddMethodN("private_method_defined?", func(vm *VM, self Value, args []Value, _ *Proc) Value {
		vm.checkArgs(args, 1, 2)
		method := self.(*Class).LookupMethod(vm.name(args[0]))
		return method != nil && method.Visibility == Private
	})
	m.AddMethodN("instance_method", func(vm *VM, self Value, args []Value, _ *Proc) Value {
		vm.checkArgs(args, 1, 1)
		name := vm.name(args[0])
		if self.(*Class).LookupMethod(name) == nil {
			vm.raiseError("NameError", "undefined method `%s' for %s", name, vm.describe(self))
		}
		return Symbol(name)
	})
	m.AddMethodN("module_eval", func(vm *VM, self Value, args []Value, blk *Proc) Value {
		return vm.classEval(self.(*Class), vm.requireBlock(blk), []Value{self})
	})
	m.aliasBuiltin("class_eval", "module_eval")
	m.AddMethodN("class_exec", func(vm *VM, self Value, args []Value, blk *Proc) Value {
		return vm.classEval(self.(*Class), vm.requireBlock(blk), args)
	})
	m.aliasBuiltin("module_exec", "class_exec")

	// Constants
	m.AddMethodN("const_get", func(vm *VM, self Value, args []Value, _ *Proc) Value {
		vm.checkArgs(args, 1, 2)
		v := self
		for _, name := range strings.Split(vm.name(args[0]), "::") {
			if name == "" {
				v = vm.ObjectClass
				continue
			}
			v = vm.constGet(vm.moduleOf(v), name)
		}
		return v
	})
	m.AddMethod2("const_set", func(vm *VM, self, name, v Value) Value {
		n := vm.name(name)
		if n == "" || n[0] < 'A' || n[0] > 'Z' {
			vm.raiseError("NameError", "wrong constant name %s", n)
		}
		self.(*Class).ConstSet(n, v)
		return v
	})
	m.AddMethodN("const_defined?", func(vm *VM, self Value, args []Value, _ *Proc) Value {
		vm.checkArgs(args, 1, 2)
		_, ok := vm.scopedConst(self.(*Class), vm.name(args[0]))
		return ok
	})
	m.AddMethodN("constants", func(vm *VM, self Value, _ []Value, _ *Proc) Value {
		out := NewArray()
		for _, name := range self.(*Class).ConstNames() {
			out.Elements = append(out.Elements, Symbol(name))
		}
		return out
	})

	// Class variables
	m.AddMethod1("class_variable_get", func(vm *VM, self, name Value) Value {
		n := vm.name(name)
		v, ok := self.(*Class).GetClassVar(n)
		if !ok {
			vm.raiseError("NameError", "uninitialized class variable %s in %s", n, vm.className(self.(*Class)))
		}
		return v
	})
	m.AddMethod2("class_variable_set", func(vm *VM, self, name, v Value) Value {
		self.(*Class).SetClassVar(vm.name(name), v)
		return v
	})
	m.AddMethod1("class_variable_defined?", func(vm *VM, self, name Value) Value {
		return self.(*Class).HasClassVar(vm.name(name))
	})
	m.AddMethod0("class_variables", func(vm *VM, self Value) Value {
		out := NewArray()
		for _, name := range sortedNames(mapKeys(self.(*Class).classVars)) {
			out.Elements = append(out.Elements, Symbol(name))
		}
		return out
	})

	c := vm.ClassClass
	c.AddMethodN("new", func(vm *VM, self Value, args []Value, blk *Proc) Value {
		obj := vm.Send(self, "allocate")
		args, kw := splitKeywords(args)
		if init := vm.dispatchClass(obj).LookupMethod("initialize"); init != nil {
			vm.invoke(init, obj, args, kw, blk)
		}
		return obj
	})
	c.AddMethod0("allocate", func(vm *VM, self Value) Value {
		class := self.(*Class)
		if class.IsSingleton() {
			vm.raiseError("TypeError", "can't create instance of singleton class")
		}
		return &Object{class: class}
	})
	c.AddMethod0("superclass", func(_ *VM, self Value) Value {
		if s := self.(*Class).Superclass; s != nil {
			return s
		}
		return nil
	})
	c.AddPrivateMethodN("inherited", func(*VM, Value, []Value, *Proc) Value { return nil })

	meta := vm.singletonClass(vm.ClassClass)
	meta.AddMethodN("new", func(vm *VM, _ Value, args []Value, blk *Proc) Value {
		vm.checkArgs(args, 0, 1)
		super := vm.ObjectClass
		if len(args) > 0 {
			super = vm.toClass(args[0])
			if super.IsModule {
				vm.raiseError("TypeError", "superclass must be an instance of Class (given an instance of Module)")
			}
		}
		class := NewClass("", super)
		vm.Send(super, "inherited", class)
		if blk != nil {
			vm.classEval(class, blk, []Value{class})
		}
		return class
	})
	vm.singletonClass(vm.ModuleClass).AddMethodN("new", func(vm *VM, _ Value, _ []Value, blk *Proc) Value {
		mod := NewModule("")
		if blk != nil {
			vm.classEval(mod, blk, []Value{mod})
		}
		return mod
	})
}

// classOrder answers a < b (or a <= b): true when a inherits from b,
// false when b inherits from a, nil when they are unrelated.
func (vm *VM) classOrder(a, b Value, orEqual bool) Value {
	x, y := vm.toClass(a), vm.toClass(b)
	switch {
	case x == y:
		return orEqual
	case x.IsSubclassOf(y):
		return true
	case y.IsSubclassOf(x):
		return false
	}
	return nil
}

// classEval runs blk with self and the definition target set to c.
func (vm *VM) classEval(c *Class, blk *Proc, args []Value) Value {
	if blk.Fn != nil {
		return blk.Fn(vm, args, nil)
	}
	f := vm.newFrame(blk.ISeq, c, blk.Env)
	f.Cref = &Cref{Class: c, Next: blk.Env.Cref}
	vm.setupArgs(f, args, nil, nil, false)
	return vm.run(f)
}

// setVisibility implements public, private and protected. Without names
// it changes the default for later definitions in the calling class body.
func (vm *VM) setVisibility(c *Class, vis Visibility, args []Value) Value {
	if len(args) == 0 {
		if f := vm.currentFrame(); f != nil {
			s := f.scope()
			s.visibility = vis
			s.moduleFunc = false
		}
		return nil
	}
	for _, name := range vm.methodNames(args) {
		method := vm.findOwnOrInherited(c, name)
		if method.Owner != c {
			method = method.clone(name)
			method.Visibility = vis
			vm.addMethod(c, method)
			continue
		}
		method.Visibility = vis
		vm.serial++
	}
	if len(args) == 1 {
		return args[0]
	}
	return NewArray(args...)
}

func (vm *VM) findOwnOrInherited(c *Class, name string) *Method {
	m := c.LookupMethod(name)
	if m == nil {
		vm.raiseError("NameError", "undefined method `%s' for %s", name, vm.describe(c))
	}
	return m
}

// methodNames flattens symbol, string and array arguments into names.
func (vm *VM) methodNames(args []Value) []string {
	var names []string
	for _, a := range args {
		if arr, ok := a.(*Array); ok {
			names = append(names, vm.methodNames(arr.Elements)...)
			continue
		}
		names = append(names, vm.name(a))
	}
	return names
}

func (vm *VM) defineAttrs(c *Class, args []Value, reader, writer bool) Value {
	out := NewArray()
	for _, name := range vm.methodNames(args) {
		ivar := "@" + name
		if reader {
			c.AddMethod0(name, func(vm *VM, self Value) Value { return vm.ivarGet(self, ivar) })
			out.Elements = append(out.Elements, Symbol(name))
		}
		if writer {
			c.AddMethod1(name+"=", func(vm *VM, self, v Value) Value {
				vm.ivarSet(self, ivar, v)
				return v
			})
			out.Elements = append(out.Elements, Symbol(name+"="))
		}
	}
	vm.serial++
	return out
}

// defineProcMethod implements define_method: the body is a proc run as a
// lambda with self bound to the receiver.
func (vm *VM) defineProcMethod(c *Class, name string, body Value, blk *Proc) Value {
	var p *Proc
	switch b := body.(type) {
	case *Proc:
		p = b
	case nil:
		p = blk
	default:
		vm.raiseError("TypeError", "wrong argument type %s (expected Proc/Method/UnboundMethod)", vm.ClassOf(body).FullName())
	}
	if p == nil {
		vm.raiseError("ArgumentError", "tried to create Proc object without a block")
	}
	vm.addMethod(c, &Method{Name: name, Proc: p, Arity: -1})
	return Symbol(name)
}

func (vm *VM) aliasMethod(c *Class, newName, old string) {
	m := c.LookupMethod(old)
	if m == nil {
		vm.raiseError("NameError", "undefined method `%s' for %s", old, vm.describe(c))
	}
	vm.addMethod(c, m.clone(newName))
}

func (vm *VM) undefMethod(c *Class, name string) {
	if c.LookupMethod(name) == nil {
		vm.raiseError("NameError", "undefined method `%s' for %s", name, vm.describe(c))
	}
	vm.addMethod(c, &Method{Name: name, Undefined: true})
}

// listMethods returns the public method names of c, with inherited ones
// when inherit is set.
func (vm *VM) listMethods(c *Class, inherit bool) *Array {
	classes := []*Class{c}
	if inherit {
		classes = c.Ancestors()
	}
	seen := make(map[string]bool)
	out := NewArray()
	for _, k := range classes {
		for _, name := range sortedNames(k.MethodNames()) {
			if !seen[name] {
				seen[name] = true
				out.Elements = append(out.Elements, Symbol(name))
			}
		}
	}
	return out
}

func sortedNames(names []string) []string {
	slices.Sort(names)
	return names
}

func mapKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	return keys
}
