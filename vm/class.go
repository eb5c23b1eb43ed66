package vm

import (
	"github.com/emirpasic/gods/maps/linkedhashmap"
)

// ---------------------------------------------------------------------------
// Class: classes, modules and singleton classes
// ---------------------------------------------------------------------------

// Class is a Ruby class or module. Singleton classes are classes with
// Attached set; they sit in front of the attached value's class in the
// lookup chain.
type Class struct {
	header
	Name       string
	Superclass *Class
	IsModule   bool
	Attached   Value

	methods   map[string]*Method
	constants *linkedhashmap.Map
	classVars map[string]Value
	includes  []*Class
	lexical   *Class
}

// NewClass creates a class with the given name and superclass.
func NewClass(name string, superclass *Class) *Class {
	return &Class{
		Name:       name,
		Superclass: superclass,
		methods:    make(map[string]*Method),
		constants:  linkedhashmap.New(),
		classVars:  make(map[string]Value),
	}
}

// NewModule creates a module.
func NewModule(name string) *Class {
	c := NewClass(name, nil)
	c.IsModule = true
	return c
}

// IsSingleton reports whether c is the singleton class of some value.
func (c *Class) IsSingleton() bool { return c.Attached != nil }

// FullName returns the name qualified by the lexically enclosing classes.
func (c *Class) FullName() string {
	if c.Name == "" {
		return ""
	}
	if c.lexical != nil && c.lexical.Name != "" && c.lexical.Name != "Object" {
		return c.lexical.FullName() + "::" + c.Name
	}
	return c.Name
}

// IsSubclassOf reports whether c is other or inherits from it, modules
// included.
func (c *Class) IsSubclassOf(other *Class) bool {
	for _, a := range c.Ancestors() {
		if a == other {
			return true
		}
	}
	return false
}

// Include mixes module m into c. Including a module twice does nothing.
func (c *Class) Include(m *Class) bool {
	for _, inc := range c.includes {
		if inc == m {
			return false
		}
	}
	c.includes = append(c.includes, m)
	return true
}

// Ancestors returns the method resolution order: c, the modules it
// includes (most recent first), then the superclass chain.
func (c *Class) Ancestors() []*Class {
	var out []*Class
	seen := make(map[*Class]bool)
	var add func(k *Class)
	add = func(k *Class) {
		if seen[k] {
			return
		}
		seen[k] = true
		out = append(out, k)
		for i := len(k.includes) - 1; i >= 0; i-- {
			add(k.includes[i])
		}
	}
	for k := c; k != nil; k = k.Superclass {
		add(k)
	}
	return out
}

// ---------------------------------------------------------------------------
// Method table
// ---------------------------------------------------------------------------

// AddMethod installs m under its name, setting its owner.
func (c *Class) AddMethod(m *Method) {
	m.Owner = c
	c.methods[m.Name] = m
}

// RemoveMethod deletes the method defined directly in c.
func (c *Class) RemoveMethod(name string) bool {
	if _, ok := c.methods[name]; !ok {
		return false
	}
	delete(c.methods, name)
	return true
}

// OwnMethod returns the method defined directly in c.
func (c *Class) OwnMethod(name string) *Method { return c.methods[name] }

// LookupMethod walks the ancestors for name. An undefined entry stops the
// search and reports a miss.
func (c *Class) LookupMethod(name string) *Method {
	for _, a := range c.Ancestors() {
		if m, ok := a.methods[name]; ok {
			if m.Undefined {
				return nil
			}
			return m
		}
	}
	return nil
}

// LookupSuper finds name in the ancestors of c that follow owner.
func (c *Class) LookupSuper(owner *Class, name string) *Method {
	found := false
	for _, a := range c.Ancestors() {
		if !found {
			found = a == owner
			continue
		}
		if m, ok := a.methods[name]; ok {
			if m.Undefined {
				return nil
			}
			return m
		}
	}
	return nil
}

// MethodNames returns the names of the methods defined directly in c.
func (c *Class) MethodNames() []string {
	names := make([]string, 0, len(c.methods))
	for name, m := range c.methods {
		if !m.Undefined && m.Visibility == Public {
			names = append(names, name)
		}
	}
	return names
}

// ---------------------------------------------------------------------------
// Constants
// ---------------------------------------------------------------------------

// ConstGet returns the constant defined directly in c.
func (c *Class) ConstGet(name string) (Value, bool) {
	return c.constants.Get(name)
}

// ConstSet defines a constant in c. An anonymous class or module takes the
// constant's name.
func (c *Class) ConstSet(name string, v Value) {
	if k, ok := v.(*Class); ok && k.Name == "" {
		k.Name = name
		k.lexical = c
	}
	c.constants.Put(name, v)
}

// ConstNames returns the constants defined directly in c, in order.
func (c *Class) ConstNames() []string {
	keys := c.constants.Keys()
	names := make([]string, len(keys))
	for i, k := range keys {
		names[i] = k.(string)
	}
	return names
}

// lookupConst searches c and its ancestors.
func (c *Class) lookupConst(name string) (Value, bool) {
	for _, a := range c.Ancestors() {
		if v, ok := a.constants.Get(name); ok {
			return v, true
		}
	}
	return nil, false
}

// ---------------------------------------------------------------------------
// Class variables
// ---------------------------------------------------------------------------

func (c *Class) findClassVarOwner(name string) *Class {
	for _, a := range c.Ancestors() {
		if _, ok := a.classVars[name]; ok {
			return a
		}
	}
	return nil
}

// HasClassVar reports whether name is defined in c or an ancestor.
func (c *Class) HasClassVar(name string) bool { return c.findClassVarOwner(name) != nil }

// GetClassVar returns the class variable name.
func (c *Class) GetClassVar(name string) (Value, bool) {
	owner := c.findClassVarOwner(name)
	if owner == nil {
		return nil, false
	}
	return owner.classVars[name], true
}

// SetClassVar assigns name in the ancestor that already defines it, or in c.
func (c *Class) SetClassVar(name string, v Value) {
	if owner := c.findClassVarOwner(name); owner != nil {
		owner.classVars[name] = v
		return
	}
	c.classVars[name] = v
}

// ---------------------------------------------------------------------------
// Cref: the lexical class nesting
// ---------------------------------------------------------------------------

// Cref is one link of the lexical nesting chain: the class a scope defines
// methods and constants in, and the scope around it.
type Cref struct {
	Class *Class
	Next  *Cref
}
