package vm

import "github.com/ruby-syntax-tree/syntax-tree-sub003/bytecode"

// Builtin is a method implemented in Go. Keyword arguments arrive as a
// trailing *Hash.
type Builtin func(vm *VM, self Value, args []Value, blk *Proc) Value

// Visibility controls which call sites may invoke a method.
type Visibility int

const (
	Public Visibility = iota
	Private
	Protected
)

func (v Visibility) String() string {
	switch v {
	case Private:
		return "private"
	case Protected:
		return "protected"
	}
	return "public"
}

// Method is an entry of a class's method table: either a compiled method
// body or a builtin. An Undefined entry hides the name from lookup.
type Method struct {
	Name       string
	Owner      *Class
	Visibility Visibility
	Undefined  bool

	ISeq *bytecode.InstructionSequence
	Cref *Cref

	Fn Builtin
	// Arity is the number of arguments a builtin accepts; -1 means any.
	Arity int
	// Proc is set for methods defined with define_method.
	Proc *Proc
}

// IsBuiltin reports whether the method is implemented in Go.
func (m *Method) IsBuiltin() bool { return m.Fn != nil }

// clone returns a copy registered under name, used by alias.
func (m *Method) clone(name string) *Method {
	c := *m
	c.Name = name
	return &c
}

// MethodArity returns the arity Method#arity would report.
func MethodArity(m *Method) int {
	if m.Fn != nil {
		return m.Arity
	}
	if m.Proc != nil {
		return procArity(m.Proc)
	}
	return iseqArity(m.ISeq)
}

func iseqArity(iseq *bytecode.InstructionSequence) int {
	args := iseq.Args
	required := max(args.LeadNum, 0) + max(args.PostNum, 0)
	for _, kw := range args.Keyword {
		if _, ok := kw.(bytecode.Symbol); ok {
			required++
			break
		}
	}
	if len(args.Opt) > 1 || args.RestStart >= 0 {
		return -required - 1
	}
	return required
}

func procArity(p *Proc) int {
	if p.Fn != nil {
		return p.arity
	}
	return iseqArity(p.ISeq)
}
