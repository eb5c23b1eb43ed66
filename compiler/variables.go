package compiler

import (
	"strconv"
	"unicode"
	"unicode/utf8"

	"github.com/ruby-syntax-tree/syntax-tree-sub003/ast"
	"github.com/ruby-syntax-tree/syntax-tree-sub003/bytecode"
)

type varKind int

const (
	localVar varKind = iota
	instanceVar
	classVar
	globalVar
	constantVar
)

func kindOf(name string) varKind {
	switch {
	case len(name) > 2 && name[:2] == "@@":
		return classVar
	case len(name) > 1 && name[0] == '@':
		return instanceVar
	case len(name) > 1 && name[0] == '$':
		return globalVar
	}
	r, _ := utf8.DecodeRuneInString(name)
	if unicode.IsUpper(r) {
		return constantVar
	}
	return localVar
}

// ---------------------------------------------------------------------------
// Reads
// ---------------------------------------------------------------------------

func (c *Compiler) VisitVarRef(n *ast.VarRef) {
	switch kindOf(n.Name) {
	case localVar:
		lookup, ok := c.lookupLocal(n.Name)
		if !ok {
			c.VisitVCall(&ast.VCall{Base: n.Base, Name: n.Name})
			return
		}
		c.literal(func() { c.getLocal(lookup) })
	case instanceVar:
		c.literal(func() { c.iseq.GetInstanceVariable(n.Name) })
	case classVar:
		c.iseq.GetClassVariable(n.Name)
	case globalVar:
		c.iseq.GetGlobal(n.Name)
	case constantVar:
		c.iseq.OptGetConstantPath([]string{n.Name})
	}
}

func (c *Compiler) VisitVCall(n *ast.VCall) {
	c.iseq.PutSelf()
	c.iseq.Send(bytecode.NewCallData(n.Name, 0, bytecode.CallFCall|bytecode.CallVCall|bytecode.CallArgsSimple), nil)
}

// Backrefs read the last match through getspecial: $~ itself, the named
// specials ($& $` $' $+) by character, and numbered groups by index.
func (c *Compiler) VisitBackref(n *ast.Backref) {
	name := n.Name
	if len(name) < 2 || name[0] != '$' {
		bytecode.Fault(name, "malformed backref")
	}
	switch rest := name[1:]; {
	case rest == "~":
		c.iseq.GetSpecial(bytecode.SpecialBackref, 0)
	case len(rest) == 1 && (rest == "&" || rest == "`" || rest == "'" || rest == "+"):
		c.iseq.GetSpecial(bytecode.SpecialBackref, int(rest[0])<<1|1)
	default:
		group, err := strconv.Atoi(rest)
		if err != nil {
			c.iseq.GetGlobal(name)
			return
		}
		c.iseq.GetSpecial(bytecode.SpecialBackref, group<<1)
	}
}

// constantPath returns the segments of a path made only of constants. A
// leading "" marks a top-level path.
func constantPath(node ast.Node) ([]string, bool) {
	switch n := node.(type) {
	case *ast.VarRef:
		if kindOf(n.Name) == constantVar {
			return []string{n.Name}, true
		}
	case *ast.TopConstRef:
		return []string{"", n.Constant}, true
	case *ast.ConstPathRef:
		parent, ok := constantPath(n.Parent)
		if ok {
			return append(parent, n.Constant), true
		}
	}
	return nil, false
}

func (c *Compiler) VisitConstPathRef(n *ast.ConstPathRef) {
	if names, ok := constantPath(n); ok {
		c.iseq.OptGetConstantPath(names)
		return
	}
	c.visit(n.Parent)
	c.iseq.PutObject(false)
	c.iseq.GetConstant(n.Constant)
}

func (c *Compiler) VisitTopConstRef(n *ast.TopConstRef) {
	c.iseq.OptGetConstantPath([]string{"", n.Constant})
}

// constantBase pushes the scope a path-qualified constant lives in.
func (c *Compiler) constantBase(parent ast.Node) {
	if names, ok := constantPath(parent); ok {
		c.iseq.OptGetConstantPath(names)
		return
	}
	c.visit(parent)
}

// ---------------------------------------------------------------------------
// Writes
// ---------------------------------------------------------------------------

// assignVar stores the value on top of the stack into a named variable,
// consuming it.
func (c *Compiler) assignVar(name string) {
	switch kindOf(name) {
	case localVar:
		c.setLocal(c.declareLocal(name))
	case instanceVar:
		c.iseq.SetInstanceVariable(name)
	case classVar:
		c.iseq.SetClassVariable(name)
	case globalVar:
		c.iseq.SetGlobal(name)
	case constantVar:
		c.iseq.PutSpecialObject(bytecode.SpecialObjectConstBase)
		c.iseq.SetConstant(name)
	}
}

func (c *Compiler) VisitAssign(n *ast.Assign) {
	popped := c.takePopped()
	switch t := n.Target.(type) {
	case *ast.VarField:
		c.visit(n.Value)
		if !popped {
			c.iseq.Dup()
		}
		c.assignVar(t.Name)

	case *ast.ARefField:
		if key, ok := c.stringIndex(t.Index); ok {
			if !popped {
				c.iseq.PutNil()
			}
			c.visit(t.Collection)
			c.visit(n.Value)
			if !popped {
				c.iseq.SetN(2)
			}
			c.iseq.OptAsetWith(key, bytecode.NewCallData("[]=", 2, bytecode.CallArgsSimple))
			c.iseq.Pop()
			return
		}
		if !popped {
			c.iseq.PutNil()
		}
		c.visit(t.Collection)
		args := c.pushArgs(t.Index)
		c.visit(n.Value)
		if !popped {
			c.iseq.SetN(args.depth + 1)
		}
		argc, flags := args.argc+1, args.flags
		if flags&bytecode.CallArgsSplat != 0 {
			c.iseq.NewArray(1)
			c.iseq.ConcatArray()
			argc = args.argc
		}
		if flags == 0 {
			flags = bytecode.CallArgsSimple
		}
		c.iseq.Send(bytecode.NewCallData("[]=", argc, flags), nil)
		c.iseq.Pop()

	case *ast.Field:
		if !popped {
			c.iseq.PutNil()
		}
		c.visit(t.Parent)
		var skip *bytecode.Label
		if t.Operator == "&." {
			skip = c.iseq.Label()
			c.iseq.Dup()
			c.iseq.BranchNil(skip)
		}
		c.visit(n.Value)
		if !popped {
			c.iseq.SetN(2)
		}
		c.iseq.Send(bytecode.NewCallData(t.Name+"=", 1, c.receiverFlags(t.Parent)|bytecode.CallArgsSimple), nil)
		if skip != nil {
			c.iseq.PushLabel(skip)
		}
		c.iseq.Pop()

	case *ast.ConstPathField:
		c.constantBase(t.Parent)
		c.storeScopedConstant(n.Value, t.Constant, popped)

	case *ast.TopConstField:
		c.iseq.PutObject(bytecode.ClassRef("Object"))
		c.storeScopedConstant(n.Value, t.Constant, popped)

	default:
		bytecode.Fault(n.Target, "unsupported assignment target")
	}
}

// storeScopedConstant stores value under name in the scope on top of the
// stack.
func (c *Compiler) storeScopedConstant(value ast.Node, name string, popped bool) {
	c.visit(value)
	c.iseq.Swap()
	if !popped {
		c.iseq.TopN(1)
		c.iseq.Swap()
	}
	c.iseq.SetConstant(name)
}

// receiverFlags marks calls on an explicit self as FCALL, which lets them
// reach private methods.
func (c *Compiler) receiverFlags(receiver ast.Node) int {
	if _, ok := receiver.(*ast.SelfNode); ok {
		return bytecode.CallFCall
	}
	return 0
}

// stringIndex reports whether index is a single plain string literal that
// can use opt_aref_with / opt_aset_with.
func (c *Compiler) stringIndex(index *ast.Args) (string, bool) {
	if !c.iseq.Options.SpecializedInstruction || c.iseq.Options.FrozenStringLiteral {
		return "", false
	}
	if index == nil || len(index.Parts) != 1 {
		return "", false
	}
	s, ok := index.Parts[0].(*ast.StringLiteral)
	if !ok {
		return "", false
	}
	return plainText(s.Parts)
}

func (c *Compiler) VisitVarField(n *ast.VarField) {
	bytecode.Fault(n.Name, "assignment target outside of an assignment")
}

func (c *Compiler) VisitConstPathField(n *ast.ConstPathField) {
	bytecode.Fault(n.Constant, "assignment target outside of an assignment")
}

func (c *Compiler) VisitTopConstField(n *ast.TopConstField) {
	bytecode.Fault(n.Constant, "assignment target outside of an assignment")
}

func (c *Compiler) VisitARefField(n *ast.ARefField) {
	bytecode.Fault("[]=", "assignment target outside of an assignment")
}

func (c *Compiler) VisitField(n *ast.Field) {
	bytecode.Fault(n.Name, "assignment target outside of an assignment")
}

func (c *Compiler) VisitMLHS(n *ast.MLHS) {
	bytecode.Fault("mlhs", "assignment target outside of an assignment")
}

func (c *Compiler) VisitSplatTarget(n *ast.SplatTarget) {
	bytecode.Fault("splat", "assignment target outside of an assignment")
}

// ---------------------------------------------------------------------------
// Multiple assignment
// ---------------------------------------------------------------------------

func (c *Compiler) VisitMAssign(n *ast.MAssign) {
	popped := c.takePopped()
	c.visit(n.Value)
	if !popped {
		c.iseq.Dup()
	}
	c.destructure(n.Target)
}

// destructure expands the array on top of the stack into the targets of
// mlhs, consuming it.
func (c *Compiler) destructure(mlhs *ast.MLHS) {
	var pre, post []ast.Node
	var splat *ast.SplatTarget
	for _, part := range mlhs.Parts {
		switch p := part.(type) {
		case *ast.SplatTarget:
			if splat != nil {
				bytecode.Fault("splat", "multiple splats in one assignment")
			}
			splat = p
		default:
			if splat == nil {
				pre = append(pre, p)
			} else {
				post = append(post, p)
			}
		}
	}

	if splat == nil {
		c.iseq.ExpandArray(len(pre), 0)
		for _, t := range pre {
			c.assignTarget(t)
		}
		return
	}
	if len(pre) > 0 || len(post) == 0 {
		c.iseq.ExpandArray(len(pre), bytecode.ExpandArraySplat)
		for _, t := range pre {
			c.assignTarget(t)
		}
	}
	if len(post) > 0 {
		c.iseq.ExpandArray(len(post), bytecode.ExpandArraySplat|bytecode.ExpandArrayPostarg)
	}
	c.assignTarget(splat)
	for _, t := range post {
		c.assignTarget(t)
	}
}

// assignTarget stores the value on top of the stack into target.
func (c *Compiler) assignTarget(target ast.Node) {
	switch t := target.(type) {
	case *ast.VarField:
		c.assignVar(t.Name)
	case *ast.MLHS:
		c.destructure(t)
	case *ast.SplatTarget:
		if t.Value == nil {
			c.iseq.Pop()
			return
		}
		c.assignTarget(t.Value)
	case *ast.Field:
		c.visit(t.Parent)
		c.iseq.Swap()
		c.iseq.Send(bytecode.NewCallData(t.Name+"=", 1, c.receiverFlags(t.Parent)|bytecode.CallArgsSimple), nil)
		c.iseq.Pop()
	case *ast.ARefField:
		c.visit(t.Collection)
		args := c.pushArgs(t.Index)
		c.iseq.TopN(args.depth + 1)
		c.iseq.Send(bytecode.NewCallData("[]=", args.argc+1, bytecode.CallArgsSimple), nil)
		c.iseq.AdjustStack(2)
	case *ast.ConstPathField:
		c.constantBase(t.Parent)
		c.iseq.SetConstant(t.Constant)
	case *ast.TopConstField:
		c.iseq.PutObject(bytecode.ClassRef("Object"))
		c.iseq.SetConstant(t.Constant)
	default:
		bytecode.Fault(target, "unsupported multiple assignment target")
	}
}

// ---------------------------------------------------------------------------
// Operator assignment
// ---------------------------------------------------------------------------

func (c *Compiler) VisitOpAssign(n *ast.OpAssign) {
	popped := c.takePopped()
	op := n.Operator
	if len(op) > 1 && op[len(op)-1] == '=' {
		op = op[:len(op)-1]
	}
	switch t := n.Target.(type) {
	case *ast.VarField:
		c.opAssignVar(t, op, n.Value, popped)
	case *ast.ARefField:
		c.opAssignIndex(t, op, n.Value)
		if popped {
			c.iseq.Pop()
		}
	case *ast.Field:
		c.opAssignField(t, op, n.Value, popped)
	case *ast.ConstPathField:
		c.constantBase(t.Parent)
		c.opAssignScopedConstant(t.Constant, op, n.Value)
		if popped {
			c.iseq.Pop()
		}
	case *ast.TopConstField:
		c.iseq.PutObject(bytecode.ClassRef("Object"))
		c.opAssignScopedConstant(t.Constant, op, n.Value)
		if popped {
			c.iseq.Pop()
		}
	default:
		bytecode.Fault(n.Target, "unsupported operator assignment target")
	}
}

func (c *Compiler) getVar(name string) {
	switch kindOf(name) {
	case localVar:
		c.getLocal(c.declareLocal(name))
	case instanceVar:
		c.iseq.GetInstanceVariable(name)
	case classVar:
		c.iseq.GetClassVariable(name)
	case globalVar:
		c.iseq.GetGlobal(name)
	case constantVar:
		c.iseq.OptGetConstantPath([]string{name})
	}
}

// opAssignVar handles x op= v for every variable kind. Constants, class
// variables and globals test defined? first under ||= so an unset one
// does not raise.
func (c *Compiler) opAssignVar(t *ast.VarField, op string, value ast.Node, popped bool) {
	switch op {
	case "&&", "||":
		kind := kindOf(t.Name)
		valueLabel := c.iseq.Label()
		skip := c.iseq.Label()
		guarded := op == "||" && (kind == constantVar || kind == classVar || kind == globalVar)
		if guarded {
			c.iseq.PutNil()
			c.iseq.Defined(definedTypeFor(kind), bytecode.Symbol(t.Name), true)
			c.iseq.BranchUnless(valueLabel)
		}
		c.getVar(t.Name)
		c.iseq.Dup()
		if op == "&&" {
			c.iseq.BranchUnless(skip)
		} else {
			c.iseq.BranchIf(skip)
		}
		c.iseq.Pop()
		if guarded {
			c.iseq.PushLabel(valueLabel)
		}
		c.visit(value)
		c.iseq.Dup()
		c.assignVar(t.Name)
		c.iseq.PushLabel(skip)
		if popped {
			c.iseq.Pop()
		}
	default:
		c.getVar(t.Name)
		c.visit(value)
		c.iseq.Send(bytecode.NewCallData(op, 1, bytecode.CallArgsSimple), nil)
		if !popped {
			c.iseq.Dup()
		}
		c.assignVar(t.Name)
	}
}

func definedTypeFor(kind varKind) int {
	switch kind {
	case constantVar:
		return bytecode.DefinedConst
	case classVar:
		return bytecode.DefinedCVar
	case globalVar:
		return bytecode.DefinedGVar
	case instanceVar:
		return bytecode.DefinedIVar
	}
	return bytecode.DefinedLVar
}

// opAssignIndex handles recv[args] op= v, keeping one slot below the
// receiver for the result.
func (c *Compiler) opAssignIndex(t *ast.ARefField, op string, value ast.Node) {
	c.iseq.PutNil()
	c.visit(t.Collection)
	args := c.pushArgs(t.Index)
	k := args.depth
	c.iseq.DupN(k + 1)
	c.iseq.Send(bytecode.NewCallData("[]", args.argc, bytecode.CallArgsSimple), nil)

	switch op {
	case "&&", "||":
		skip := c.iseq.Label()
		done := c.iseq.Label()
		c.iseq.Dup()
		if op == "&&" {
			c.iseq.BranchUnless(skip)
		} else {
			c.iseq.BranchIf(skip)
		}
		c.iseq.Pop()
		c.visit(value)
		c.iseq.SetN(k + 2)
		c.iseq.Send(bytecode.NewCallData("[]=", args.argc+1, bytecode.CallArgsSimple), nil)
		c.iseq.Pop()
		c.iseq.Jump(done)
		c.iseq.PushLabel(skip)
		c.iseq.SetN(k + 2)
		c.iseq.AdjustStack(k + 2)
		c.iseq.PushLabel(done)
	default:
		c.visit(value)
		c.iseq.Send(bytecode.NewCallData(op, 1, bytecode.CallArgsSimple), nil)
		c.iseq.SetN(k + 2)
		c.iseq.Send(bytecode.NewCallData("[]=", args.argc+1, bytecode.CallArgsSimple), nil)
		c.iseq.Pop()
	}
}

// opAssignField handles recv.name op= v.
func (c *Compiler) opAssignField(t *ast.Field, op string, value ast.Node, popped bool) {
	flags := c.receiverFlags(t.Parent) | bytecode.CallArgsSimple
	reader := bytecode.NewCallData(t.Name, 0, flags)
	writer := bytecode.NewCallData(t.Name+"=", 1, flags)

	c.visit(t.Parent)
	c.iseq.Dup()
	c.iseq.Send(reader, nil)

	switch op {
	case "&&", "||":
		skip := c.iseq.Label()
		done := c.iseq.Label()
		c.iseq.Dup()
		if op == "&&" {
			c.iseq.BranchUnless(skip)
		} else {
			c.iseq.BranchIf(skip)
		}
		c.iseq.Pop()
		c.visit(value)
		c.iseq.Swap()
		c.iseq.TopN(1)
		c.iseq.Send(writer, nil)
		c.iseq.Pop()
		c.iseq.Jump(done)
		c.iseq.PushLabel(skip)
		c.iseq.Swap()
		c.iseq.Pop()
		c.iseq.PushLabel(done)
		if popped {
			c.iseq.Pop()
		}
	default:
		c.visit(value)
		c.iseq.Send(bytecode.NewCallData(op, 1, bytecode.CallArgsSimple), nil)
		if !popped {
			c.iseq.Swap()
			c.iseq.TopN(1)
		}
		c.iseq.Send(writer, nil)
		c.iseq.Pop()
	}
}

// opAssignScopedConstant handles Scope::Name op= v with the scope already
// on the stack.
func (c *Compiler) opAssignScopedConstant(name, op string, value ast.Node) {
	switch op {
	case "||":
		valueLabel := c.iseq.Label()
		skip := c.iseq.Label()
		c.iseq.Dup()
		c.iseq.Defined(bytecode.DefinedConstFrom, bytecode.Symbol(name), true)
		c.iseq.BranchUnless(valueLabel)
		c.iseq.Dup()
		c.iseq.PutObject(true)
		c.iseq.GetConstant(name)
		c.iseq.Dup()
		c.iseq.BranchIf(skip)
		c.iseq.Pop()
		c.iseq.PushLabel(valueLabel)
		c.visit(value)
		c.iseq.DupN(2)
		c.iseq.Swap()
		c.iseq.SetConstant(name)
		c.iseq.PushLabel(skip)
		c.iseq.Swap()
		c.iseq.Pop()
	case "&&":
		skip := c.iseq.Label()
		c.iseq.Dup()
		c.iseq.PutObject(true)
		c.iseq.GetConstant(name)
		c.iseq.Dup()
		c.iseq.BranchUnless(skip)
		c.iseq.Pop()
		c.visit(value)
		c.iseq.DupN(2)
		c.iseq.Swap()
		c.iseq.SetConstant(name)
		c.iseq.PushLabel(skip)
		c.iseq.Swap()
		c.iseq.Pop()
	default:
		c.iseq.Dup()
		c.iseq.PutObject(true)
		c.iseq.GetConstant(name)
		c.visit(value)
		c.iseq.Send(bytecode.NewCallData(op, 1, bytecode.CallArgsSimple), nil)
		c.iseq.Swap()
		c.iseq.TopN(1)
		c.iseq.Swap()
		c.iseq.SetConstant(name)
	}
}
