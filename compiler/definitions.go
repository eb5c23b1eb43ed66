package compiler

import (
	"github.com/ruby-syntax-tree/syntax-tree-sub003/ast"
	"github.com/ruby-syntax-tree/syntax-tree-sub003/bytecode"
)

// ---------------------------------------------------------------------------
// Methods
// ---------------------------------------------------------------------------

func (c *Compiler) VisitDefNode(n *ast.DefNode) {
	popped := c.takePopped()
	line := n.Location().StartLine
	method := c.iseq.MethodChild(n.Name, line)
	c.withChild(method, func() {
		c.compileParams(n.Params, false)
		c.iseq.PushEvent("RUBY_EVENT_CALL")
		if n.Body == nil {
			c.iseq.PutNil()
		} else {
			c.visitTail(n.Body)
		}
		c.iseq.PushEvent("RUBY_EVENT_RETURN")
		c.iseq.Leave()
	})

	if n.Target != nil {
		c.visit(n.Target)
		c.iseq.DefineSMethod(n.Name, method)
	} else {
		c.iseq.DefineMethod(n.Name, method)
	}
	if !popped {
		c.iseq.PutObject(bytecode.Symbol(n.Name))
	}
}

// ---------------------------------------------------------------------------
// Classes and modules
// ---------------------------------------------------------------------------

// compileClassBody fills a class, module or singleton class sequence.
func (c *Compiler) compileClassBody(iseq *bytecode.InstructionSequence, body *ast.Bodystmt) {
	c.withChild(iseq, func() {
		c.iseq.PushEvent("RUBY_EVENT_CLASS")
		if body == nil {
			c.iseq.PutNil()
		} else {
			c.visit(body)
		}
		c.iseq.PushEvent("RUBY_EVENT_END")
		c.iseq.Leave()
	})
}

// classScope pushes the lexical scope a class or module is defined under
// and returns the flags describing it.
func (c *Compiler) classScope(constant ast.Node) (string, int) {
	switch n := constant.(type) {
	case *ast.ConstPathRef:
		c.visit(n.Parent)
		return n.Constant, bytecode.DefineClassFlagScoped
	case *ast.TopConstRef:
		c.iseq.PutObject(bytecode.ClassRef("Object"))
		return n.Constant, bytecode.DefineClassFlagScoped
	case *ast.VarRef:
		c.iseq.PutSpecialObject(bytecode.SpecialObjectConstBase)
		return n.Name, 0
	}
	bytecode.Fault(constant, "unsupported class name")
	return "", 0
}

func constantName(constant ast.Node) string {
	switch n := constant.(type) {
	case *ast.ConstPathRef:
		return n.Constant
	case *ast.TopConstRef:
		return n.Constant
	case *ast.VarRef:
		return n.Name
	}
	bytecode.Fault(constant, "unsupported class name")
	return ""
}

func (c *Compiler) VisitClassDeclaration(n *ast.ClassDeclaration) {
	line := n.Location().StartLine
	class := c.iseq.ClassChild(constantName(n.Constant), line)
	c.compileClassBody(class, n.Bodystmt)

	name, flags := c.classScope(n.Constant)
	flags |= bytecode.DefineClassTypeClass
	if n.Superclass != nil {
		c.visit(n.Superclass)
		flags |= bytecode.DefineClassFlagHasSuperclass
	} else {
		c.iseq.PutNil()
	}
	c.iseq.DefineClass(name, class, flags)
}

func (c *Compiler) VisitModuleDeclaration(n *ast.ModuleDeclaration) {
	line := n.Location().StartLine
	module := c.iseq.ModuleChild(constantName(n.Constant), line)
	c.compileClassBody(module, n.Bodystmt)

	name, flags := c.classScope(n.Constant)
	c.iseq.PutNil()
	c.iseq.DefineClass(name, module, flags|bytecode.DefineClassTypeModule)
}

func (c *Compiler) VisitSClass(n *ast.SClass) {
	singleton := c.iseq.SingletonClassChild(n.Location().StartLine)
	c.compileClassBody(singleton, n.Bodystmt)

	c.visit(n.Target)
	c.iseq.PutNil()
	c.iseq.DefineClass("singletonclass", singleton, bytecode.DefineClassTypeSingletonClass)
}

// ---------------------------------------------------------------------------
// alias and undef
// ---------------------------------------------------------------------------

func (c *Compiler) VisitAlias(n *ast.Alias) {
	left, lok := n.Left.(*ast.VarRef)
	right, rok := n.Right.(*ast.VarRef)
	if lok && rok && kindOf(left.Name) == globalVar {
		c.iseq.PutSpecialObject(bytecode.SpecialObjectVMCore)
		c.iseq.PutObject(bytecode.Symbol(left.Name))
		c.iseq.PutObject(bytecode.Symbol(right.Name))
		c.iseq.Send(bytecode.NewCallData("core#set_variable_alias", 2, bytecode.CallArgsSimple), nil)
		return
	}
	c.iseq.PutSpecialObject(bytecode.SpecialObjectVMCore)
	c.iseq.PutSpecialObject(bytecode.SpecialObjectCBase)
	c.methodName(n.Left)
	c.methodName(n.Right)
	c.iseq.Send(bytecode.NewCallData("core#set_method_alias", 3, bytecode.CallArgsSimple), nil)
}

// methodName pushes the symbol naming a method in alias or undef.
func (c *Compiler) methodName(node ast.Node) {
	switch n := node.(type) {
	case *ast.SymbolLiteral:
		c.iseq.PutObject(bytecode.Symbol(n.Value))
	case *ast.VarRef:
		c.iseq.PutObject(bytecode.Symbol(n.Name))
	case *ast.VCall:
		c.iseq.PutObject(bytecode.Symbol(n.Name))
	default:
		c.visit(node)
	}
}

func (c *Compiler) VisitUndef(n *ast.Undef) {
	for i, sym := range n.Symbols {
		if i > 0 {
			c.iseq.Pop()
		}
		c.iseq.PutSpecialObject(bytecode.SpecialObjectVMCore)
		c.iseq.PutSpecialObject(bytecode.SpecialObjectCBase)
		c.methodName(sym)
		c.iseq.Send(bytecode.NewCallData("core#undef_method", 2, bytecode.CallArgsSimple), nil)
	}
	if len(n.Symbols) == 0 {
		c.iseq.PutNil()
	}
}

// ---------------------------------------------------------------------------
// defined?
// ---------------------------------------------------------------------------

func (c *Compiler) VisitDefined(n *ast.Defined) {
	popped := c.takePopped()
	done := c.iseq.Label()
	c.definedExpr(n.Value, done)
	c.iseq.PushLabel(done)
	if popped {
		c.iseq.Pop()
	}
}

// definedExpr pushes the description of value, or nil. A receiver that is
// itself undefined short-circuits to done with nil.
func (c *Compiler) definedExpr(value ast.Node, done *bytecode.Label) {
	switch n := value.(type) {
	case *ast.Paren:
		if n.Contents == nil {
			c.iseq.PutObject("nil")
			return
		}
		if _, ok := n.Contents.(*ast.Statements); !ok {
			c.definedExpr(n.Contents, done)
			return
		}
		c.iseq.PutObject("expression")
	case *ast.NilNode:
		c.iseq.PutObject("nil")
	case *ast.SelfNode:
		c.iseq.PutObject("self")
	case *ast.TrueNode:
		c.iseq.PutObject("true")
	case *ast.FalseNode:
		c.iseq.PutObject("false")
	case *ast.Assign, *ast.OpAssign, *ast.MAssign:
		c.iseq.PutObject("assignment")
	case *ast.VarRef:
		c.definedVariable(n.Name)
	case *ast.VCall:
		c.iseq.PutSelf()
		c.iseq.Defined(bytecode.DefinedFunc, bytecode.Symbol(n.Name), "method")
	case *ast.Backref:
		c.iseq.PutNil()
		c.iseq.Defined(bytecode.DefinedRef, bytecode.Symbol(n.Name), "global-variable")
	case *ast.ConstPathRef:
		c.definedReceiver(n.Parent, done)
		c.iseq.Defined(bytecode.DefinedConstFrom, bytecode.Symbol(n.Constant), "constant")
	case *ast.TopConstRef:
		c.iseq.PutObject(bytecode.ClassRef("Object"))
		c.iseq.Defined(bytecode.DefinedConstFrom, bytecode.Symbol(n.Constant), "constant")
	case *ast.CallNode:
		if n.Receiver == nil {
			c.iseq.PutSelf()
			c.iseq.Defined(bytecode.DefinedFunc, bytecode.Symbol(n.Message), "method")
			return
		}
		c.definedReceiver(n.Receiver, done)
		c.iseq.Defined(bytecode.DefinedMethod, bytecode.Symbol(n.Message), "method")
	case *ast.Yield:
		c.iseq.PutNil()
		c.iseq.Defined(bytecode.DefinedYield, false, "yield")
	case *ast.Super, *ast.ZSuper:
		c.iseq.PutNil()
		c.iseq.Defined(bytecode.DefinedZSuper, false, "super")
	default:
		c.iseq.PutObject("expression")
	}
}

func (c *Compiler) definedVariable(name string) {
	switch kindOf(name) {
	case localVar:
		if _, ok := c.lookupLocal(name); ok {
			c.iseq.PutObject("local-variable")
			return
		}
		c.iseq.PutSelf()
		c.iseq.Defined(bytecode.DefinedFunc, bytecode.Symbol(name), "method")
	case instanceVar:
		c.iseq.PutNil()
		c.iseq.Defined(bytecode.DefinedIVar, bytecode.Symbol(name), "instance-variable")
	case classVar:
		c.iseq.PutNil()
		c.iseq.Defined(bytecode.DefinedCVar, bytecode.Symbol(name), "class variable")
	case globalVar:
		c.iseq.PutNil()
		c.iseq.Defined(bytecode.DefinedGVar, bytecode.Symbol(name), "global-variable")
	case constantVar:
		c.iseq.PutNil()
		c.iseq.Defined(bytecode.DefinedConst, bytecode.Symbol(name), "constant")
	}
}

// definedReceiver pushes a receiver for a defined? test, first checking
// that a variable, constant or call receiver is itself defined.
func (c *Compiler) definedReceiver(receiver ast.Node, done *bytecode.Label) {
	switch receiver.(type) {
	case *ast.VarRef, *ast.VCall, *ast.ConstPathRef, *ast.CallNode:
		c.definedExpr(receiver, done)
		c.iseq.Dup()
		c.iseq.BranchNil(done)
		c.iseq.Pop()
	}
	c.visit(receiver)
}

