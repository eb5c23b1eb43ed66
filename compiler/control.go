package compiler

import (
	"github.com/ruby-syntax-tree/syntax-tree-sub003/ast"
	"github.com/ruby-syntax-tree/syntax-tree-sub003/bytecode"
)

// branch compiles one arm of a conditional in the given position.
type branch func(popped, tail bool)

func statementsBranch(c *Compiler, stmts *ast.Statements) branch {
	return func(popped, tail bool) { c.compileBody(statementsOf(stmts), popped, tail) }
}

func nodeBranch(c *Compiler, node ast.Node) branch {
	if node == nil {
		return nil
	}
	return func(popped, tail bool) { c.visitAs(node, popped, tail) }
}

// branchOn compiles cond and jumps to target when its truth equals when.
// && and || chains branch on each operand without materializing the
// combined value.
func (c *Compiler) branchOn(cond ast.Node, target *bytecode.Label, when bool) {
	switch n := cond.(type) {
	case *ast.Binary:
		and := n.Operator == "&&" || n.Operator == "and"
		or := n.Operator == "||" || n.Operator == "or"
		switch {
		case and && !when, or && when:
			c.branchOn(n.Left, target, when)
			c.branchOn(n.Right, target, when)
			return
		case and, or:
			skip := c.iseq.Label()
			c.branchOn(n.Left, skip, !when)
			c.branchOn(n.Right, target, when)
			c.iseq.PushLabel(skip)
			return
		}
	case *ast.Paren:
		if n.Contents != nil {
			if _, ok := n.Contents.(*ast.Statements); !ok {
				c.branchOn(n.Contents, target, when)
				return
			}
		}
	}
	c.visit(cond)
	if when {
		c.iseq.BranchIf(target)
	} else {
		c.iseq.BranchUnless(target)
	}
}

// conditional lays out pred ? then : els. A nil arm yields nil. In tail
// position the first arm leaves directly instead of jumping to the end.
func (c *Compiler) conditional(pred ast.Node, then, els branch) {
	popped, tail := c.takePopped(), c.tail
	end := c.iseq.Label()

	if popped && then == nil {
		c.branchOn(pred, end, true)
		els(true, false)
		c.iseq.PushLabel(end)
		return
	}
	if popped && els == nil {
		c.branchOn(pred, end, false)
		then(true, false)
		c.iseq.PushLabel(end)
		return
	}

	elseLabel := c.iseq.Label()
	c.branchOn(pred, elseLabel, false)
	if then != nil {
		then(popped, tail)
	} else if !popped {
		c.iseq.PutNil()
	}
	c.finishArm(popped, tail, false, end)

	c.iseq.PushLabel(elseLabel)
	if els != nil {
		els(popped, tail)
	} else if !popped {
		c.iseq.PutNil()
	}
	c.iseq.PushLabel(end)
}

// finishArm ends one arm of a multi-way branch. In tail position the arm
// laid out last falls through to end so the enclosing leave sees its value.
func (c *Compiler) finishArm(popped, tail, last bool, end *bytecode.Label) {
	if tail && !popped {
		if !last {
			c.iseq.Leave()
		}
		return
	}
	c.iseq.Jump(end)
}

func (c *Compiler) VisitIf(n *ast.If) {
	c.conditional(n.Predicate, statementsBranch(c, n.Statements), nodeBranch(c, n.Consequent))
}

// unless swaps the arms of an if.
func (c *Compiler) VisitUnless(n *ast.Unless) {
	var els branch
	if n.Consequent != nil {
		els = nodeBranch(c, n.Consequent)
	}
	c.conditional(n.Predicate, els, statementsBranch(c, n.Statements))
}

func (c *Compiler) VisitIfOp(n *ast.IfOp) {
	c.conditional(n.Predicate, nodeBranch(c, n.Truthy), nodeBranch(c, n.Falsy))
}

func (c *Compiler) VisitElse(n *ast.Else) {
	popped, tail := c.takePopped(), c.tail
	c.compileBody(statementsOf(n.Statements), popped, tail)
}

// ---------------------------------------------------------------------------
// case / when
// ---------------------------------------------------------------------------

func whenClauses(first ast.Node) ([]*ast.When, *ast.Else) {
	var clauses []*ast.When
	for node := first; node != nil; {
		switch w := node.(type) {
		case *ast.When:
			clauses = append(clauses, w)
			node = w.Consequent
		case *ast.Else:
			return clauses, w
		default:
			bytecode.Fault(node, "unexpected clause in case")
		}
	}
	return clauses, nil
}

func whenValues(w *ast.When) []ast.Node {
	if w.Arguments == nil {
		return nil
	}
	return w.Arguments.Parts
}

func (c *Compiler) VisitCase(n *ast.Case) {
	if _, ok := n.Consequent.(*ast.In); ok {
		c.casePattern(n)
		return
	}
	clauses, elseClause := whenClauses(n.Consequent)
	if n.Value == nil {
		c.caseWithoutValue(clauses, elseClause)
		return
	}

	popped, tail := c.takePopped(), c.tail
	end := c.iseq.Label()
	elseLabel := c.iseq.Label()
	labels := make([]*bytecode.Label, len(clauses))
	for i := range labels {
		labels[i] = c.iseq.Label()
	}

	c.visit(n.Value)
	if hash, ok := c.caseDispatch(clauses, labels); ok {
		c.iseq.Dup()
		c.iseq.OptCaseDispatch(hash, elseLabel)
	}
	for i, w := range clauses {
		for _, value := range whenValues(w) {
			if star, ok := value.(*ast.ArgStar); ok {
				c.iseq.Dup()
				c.visit(star.Value)
				c.iseq.SplatArray(false)
				c.iseq.CheckMatch(bytecode.CheckMatchCase | bytecode.CheckMatchArray)
				c.iseq.BranchIf(labels[i])
				continue
			}
			c.visit(value)
			c.iseq.TopN(1)
			c.iseq.Send(bytecode.NewCallData("===", 1, bytecode.CallFCall|bytecode.CallArgsSimple), nil)
			c.iseq.BranchIf(labels[i])
		}
	}

	c.iseq.PushLabel(elseLabel)
	c.iseq.Pop()
	if elseClause != nil {
		c.compileBody(statementsOf(elseClause.Statements), popped, tail)
	} else if !popped {
		c.iseq.PutNil()
	}
	c.finishArm(popped, tail, len(clauses) == 0, end)

	for i, w := range clauses {
		c.iseq.PushLabel(labels[i])
		c.iseq.Pop()
		c.compileBody(statementsOf(w.Statements), popped, tail)
		c.finishArm(popped, tail, i == len(clauses)-1, end)
	}
	c.iseq.PushLabel(end)
}

// caseDispatch builds the opt_case_dispatch table when every when value is
// a literal the VM can hash. The first clause naming a value wins.
func (c *Compiler) caseDispatch(clauses []*ast.When, labels []*bytecode.Label) (bytecode.Pairs, bool) {
	if !c.iseq.Options.SpecializedInstruction {
		return nil, false
	}
	var hash bytecode.Pairs
	for i, w := range clauses {
		for _, value := range whenValues(w) {
			key, ok := dispatchKey(value)
			if !ok {
				return nil, false
			}
			if _, seen := hash.Get(key); seen {
				continue
			}
			hash = append(hash, bytecode.Pair{Key: key, Value: labels[i]})
		}
	}
	return hash, len(hash) > 0
}

func dispatchKey(node ast.Node) (any, bool) {
	switch n := node.(type) {
	case *ast.Int:
		return parseInteger(n.Value)
	case *ast.FloatLiteral:
		return parseFloat(n.Value)
	case *ast.SymbolLiteral:
		return bytecode.Symbol(n.Value), true
	case *ast.StringLiteral:
		return plainText(n.Parts)
	case *ast.NilNode:
		return nil, true
	case *ast.TrueNode:
		return true, true
	case *ast.FalseNode:
		return false, true
	}
	return nil, false
}

// caseWithoutValue compiles `case; when cond` as a chain of tests.
func (c *Compiler) caseWithoutValue(clauses []*ast.When, elseClause *ast.Else) {
	popped, tail := c.takePopped(), c.tail
	end := c.iseq.Label()
	labels := make([]*bytecode.Label, len(clauses))
	for i, w := range clauses {
		labels[i] = c.iseq.Label()
		for _, value := range whenValues(w) {
			if star, ok := value.(*ast.ArgStar); ok {
				c.iseq.PutNil()
				c.visit(star.Value)
				c.iseq.SplatArray(false)
				c.iseq.CheckMatch(bytecode.CheckMatchWhen | bytecode.CheckMatchArray)
				c.iseq.BranchIf(labels[i])
				continue
			}
			c.branchOn(value, labels[i], true)
		}
	}
	if elseClause != nil {
		c.compileBody(statementsOf(elseClause.Statements), popped, tail)
	} else if !popped {
		c.iseq.PutNil()
	}
	c.finishArm(popped, tail, len(clauses) == 0, end)
	for i, w := range clauses {
		c.iseq.PushLabel(labels[i])
		c.compileBody(statementsOf(w.Statements), popped, tail)
		c.finishArm(popped, tail, i == len(clauses)-1, end)
	}
	c.iseq.PushLabel(end)
}

func (c *Compiler) VisitWhen(n *ast.When) {
	bytecode.Fault("when", "when clause outside of case")
}

// ---------------------------------------------------------------------------
// Loops
// ---------------------------------------------------------------------------

func (c *Compiler) VisitWhile(n *ast.While) {
	c.compileLoop(n.Predicate, n.Statements, n.Modifier, true)
}

func (c *Compiler) VisitUntil(n *ast.Until) {
	c.compileLoop(n.Predicate, n.Statements, n.Modifier, false)
}

// compileLoop lays out while/until. The test sits after the body so each
// iteration takes one branch; next from a nested frame lands on a pop
// that discards its value before re-testing.
func (c *Compiler) compileLoop(pred ast.Node, body *ast.Statements, modifier, while bool) {
	depth := c.iseq.StackSize()
	cond := c.iseq.Label()
	nextCont := c.iseq.Label()
	redo := c.iseq.Label()
	end := c.iseq.Label()

	if modifier {
		c.iseq.Jump(redo)
	} else {
		c.iseq.Jump(cond)
	}
	c.iseq.PutNil()
	c.iseq.PushLabel(nextCont)
	c.iseq.Pop()
	c.iseq.Jump(cond)

	outer := c.loop
	c.loop = &loop{iseq: c.iseq, next: cond, redo: redo, end: end, depth: depth, ensures: len(c.scope.ensures)}
	c.iseq.PushLabel(redo)
	c.compileBody(statementsOf(body), true, false)
	c.iseq.PushLabel(cond)
	c.branchOn(pred, redo, while)
	c.loop = outer

	c.iseq.PutNil()
	c.iseq.PushLabel(end)

	c.iseq.CatchBreak(nil, redo, end, end, depth)
	c.iseq.CatchNext(redo, end, nextCont, depth)
	c.iseq.CatchRedo(redo, end, redo, depth)
}

// for compiles to collection.each with a block whose single parameter is
// assigned to the index variables of the enclosing scope.
func (c *Compiler) VisitFor(n *ast.For) {
	for _, name := range forIndexNames(n.Index) {
		c.declareLocal(name)
	}

	begin := c.iseq.Label()
	sp := c.iseq.StackSize()
	c.iseq.PushLabel(begin)
	c.visit(n.Collection)

	line := n.Location().StartLine
	block := c.iseq.BlockChild(line)
	c.withChild(block, func() {
		param := block.Locals.Plain("?")
		block.Args.LeadNum = 1
		block.ArgumentSize = 1
		if _, single := n.Index.(*ast.VarField); single {
			block.Args.AmbiguousParam0 = true
		}
		c.iseq.GetLocal(param, 0)
		switch index := n.Index.(type) {
		case *ast.MLHS:
			c.destructure(index)
		default:
			c.assignTarget(index)
		}
		c.compileBlockBody(n.Statements)
	})
	c.iseq.Send(bytecode.NewCallData("each", 0, 0), block)

	end := c.iseq.Label()
	c.iseq.PushLabel(end)
	c.iseq.CatchBreak(nil, begin, end, end, sp)
}

func forIndexNames(index ast.Node) []string {
	switch t := index.(type) {
	case *ast.VarField:
		if kindOf(t.Name) == localVar {
			return []string{t.Name}
		}
	case *ast.MLHS:
		var names []string
		for _, part := range t.Parts {
			names = append(names, forIndexNames(part)...)
		}
		return names
	case *ast.SplatTarget:
		if t.Value != nil {
			return forIndexNames(t.Value)
		}
	}
	return nil
}

// ---------------------------------------------------------------------------
// Jumps
// ---------------------------------------------------------------------------

// jumpValue pushes the value carried by break, next or return.
func (c *Compiler) jumpValue(args *ast.Args) {
	if args == nil || len(args.Parts) == 0 {
		c.iseq.PutNil()
		return
	}
	c.visit(args)
}

// inlineEnsures compiles the ensure bodies entered since level, innermost
// first, ahead of a jump that leaves them.
func (c *Compiler) inlineEnsures(level int) {
	ensures := c.scope.ensures
	for i := len(ensures) - 1; i >= level; i-- {
		c.scope.ensures = ensures[:i]
		c.compileBody(statementsOf(ensures[i].Statements), true, false)
	}
	c.scope.ensures = ensures
}

// keepTop discards the slots between the value on top of the stack and
// depth, leaving the value at depth.
func (c *Compiler) keepTop(depth int) {
	if extra := c.iseq.StackSize() - depth - 1; extra > 0 {
		c.iseq.SetN(extra)
		c.iseq.AdjustStack(extra)
	}
}

// dropTo discards slots down to depth.
func (c *Compiler) dropTo(depth int) {
	if extra := c.iseq.StackSize() - depth; extra > 0 {
		c.iseq.AdjustStack(extra)
	}
}

// localLoop returns the innermost loop when it lives in this sequence.
func (c *Compiler) localLoop() *loop {
	if c.loop != nil && c.loop.iseq == c.iseq {
		return c.loop
	}
	return nil
}

// throwable reports whether a break, next or redo in a handler can reach
// a loop or block frame by unwinding.
func (c *Compiler) throwable() bool {
	if c.loop != nil {
		return true
	}
	for s := c.iseq; s != nil && handlerType(s.Type); s = s.Parent {
		if s.Parent != nil && s.Parent.Type == bytecode.TypeBlock {
			return true
		}
	}
	return false
}

func (c *Compiler) VisitBreak(n *ast.Break) {
	popped := c.takePopped()
	start := c.iseq.StackSize()
	switch lp := c.localLoop(); {
	case lp != nil:
		c.jumpValue(n.Arguments)
		c.inlineEnsures(lp.ensures)
		c.keepTop(lp.depth)
		c.iseq.Jump(lp.end)
	case c.iseq.Type == bytecode.TypeBlock, c.throwable():
		c.jumpValue(n.Arguments)
		c.iseq.Throw(bytecode.TagBreak)
	default:
		bytecode.Fault("break", "Invalid break")
	}
	c.settle(resultDepth(start, popped))
}

func (c *Compiler) VisitNext(n *ast.Next) {
	popped := c.takePopped()
	start := c.iseq.StackSize()
	switch lp := c.localLoop(); {
	case lp != nil:
		if n.Arguments != nil && len(n.Arguments.Parts) > 0 {
			c.visitPopped(n.Arguments)
		}
		c.inlineEnsures(lp.ensures)
		c.dropTo(lp.depth)
		c.iseq.Jump(lp.next)
	case c.iseq.Type == bytecode.TypeBlock:
		c.jumpValue(n.Arguments)
		c.inlineEnsures(0)
		c.keepTop(0)
		c.iseq.Jump(c.scope.end)
	case c.throwable():
		c.jumpValue(n.Arguments)
		c.iseq.Throw(bytecode.TagNext)
	default:
		bytecode.Fault("next", "Invalid next")
	}
	c.settle(resultDepth(start, popped))
}

func (c *Compiler) VisitRedo(n *ast.Redo) {
	popped := c.takePopped()
	start := c.iseq.StackSize()
	switch lp := c.localLoop(); {
	case lp != nil:
		c.inlineEnsures(lp.ensures)
		c.dropTo(lp.depth)
		c.iseq.Jump(lp.redo)
	case c.iseq.Type == bytecode.TypeBlock:
		c.inlineEnsures(0)
		c.dropTo(0)
		c.iseq.Jump(c.scope.start)
	case c.throwable():
		c.iseq.PutNil()
		c.iseq.Throw(bytecode.TagRedo)
	default:
		bytecode.Fault("redo", "Invalid redo")
	}
	c.settle(resultDepth(start, popped))
}

func (c *Compiler) VisitRetry(n *ast.Retry) {
	popped := c.takePopped()
	start := c.iseq.StackSize()
	if c.iseq.Type != bytecode.TypeRescue {
		bytecode.Fault("retry", "Invalid retry")
	}
	c.iseq.PutNil()
	c.iseq.Throw(bytecode.TagRetry)
	c.settle(resultDepth(start, popped))
}

// return leaves the frame directly from a method or the top level; from
// anywhere else it unwinds to the method frame.
func (c *Compiler) VisitReturnNode(n *ast.ReturnNode) {
	popped, tail := c.takePopped(), c.tail
	start := c.iseq.StackSize()
	switch c.iseq.Type {
	case bytecode.TypeMethod, bytecode.TypeTop:
		c.jumpValue(n.Arguments)
		if tail && len(c.scope.ensures) == 0 {
			return
		}
		c.inlineEnsures(0)
		c.iseq.Leave()
	case bytecode.TypeClass:
		bytecode.Fault("return", "Invalid return in class/module body")
	default:
		c.jumpValue(n.Arguments)
		c.iseq.Throw(bytecode.TagReturn)
	}
	c.settle(resultDepth(start, popped))
}
