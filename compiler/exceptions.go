package compiler

import (
	"github.com/ruby-syntax-tree/syntax-tree-sub003/ast"
	"github.com/ruby-syntax-tree/syntax-tree-sub003/bytecode"
)

// errinfo is the local holding the exception inside rescue and ensure
// handlers.
const errinfo = "$!"

func (c *Compiler) VisitBegin(n *ast.Begin) {
	popped, tail := c.takePopped(), c.tail
	if n.Bodystmt == nil {
		if !popped {
			c.iseq.PutNil()
		}
		return
	}
	c.visitAs(n.Bodystmt, popped, tail)
}

func (c *Compiler) VisitBodystmt(n *ast.Bodystmt) {
	switch {
	case n.EnsureClause != nil:
		c.compileEnsure(n)
	case n.RescueClause != nil:
		c.compileRescue(n.Statements, n.RescueClause, n.ElseClause)
	default:
		popped, tail := c.takePopped(), c.tail
		if n.ElseClause == nil {
			c.compileBody(statementsOf(n.Statements), popped, tail)
			return
		}
		c.compileBody(statementsOf(n.Statements), true, false)
		c.compileBody(statementsOf(n.ElseClause), popped, tail)
	}
}

// compileRescue protects body with a rescue handler sequence:
//
//	start: body
//	end:   [pop; else]
//	       nop
//	cont:
//
// An exception raised in [start, end) runs the handler, whose value lands
// on cont. A retry thrown from the handler restarts at start.
func (c *Compiler) compileRescue(body *ast.Statements, clause *ast.Rescue, elseClause *ast.Statements) {
	sp := c.iseq.StackSize()
	start := c.iseq.Label()
	end := c.iseq.Label()
	cont := c.iseq.Label()

	c.iseq.PushLabel(start)
	c.compileBody(statementsOf(body), false, false)
	c.iseq.PushLabel(end)
	if elseClause != nil {
		c.iseq.Pop()
		c.compileBody(statementsOf(elseClause), false, false)
	}
	c.iseq.Nop()
	c.iseq.PushLabel(cont)

	handler := c.iseq.RescueChild(clause.Location().StartLine)
	c.withChild(handler, func() { c.compileRescueHandler(clause) })

	c.iseq.CatchRescue(handler, start, end, cont, sp)
	c.iseq.CatchRetry(end, cont, start, sp)
}

// compileRescueHandler tests each clause in turn and re-raises when none
// matches.
func (c *Compiler) compileRescueHandler(first *ast.Rescue) {
	err := c.iseq.Locals.Plain(errinfo)
	for clause := first; clause != nil; clause = clause.Consequent {
		body := c.iseq.Label()
		next := c.iseq.Label()

		if len(clause.Exceptions) == 0 {
			c.iseq.GetLocal(err, 0)
			c.iseq.PutObject(bytecode.ClassRef("StandardError"))
			c.iseq.CheckMatch(bytecode.CheckMatchRescue)
			c.iseq.BranchIf(body)
		}
		for _, exc := range clause.Exceptions {
			c.iseq.GetLocal(err, 0)
			if star, ok := exc.(*ast.ArgStar); ok {
				c.visit(star.Value)
				c.iseq.SplatArray(false)
				c.iseq.CheckMatch(bytecode.CheckMatchRescue | bytecode.CheckMatchArray)
			} else {
				c.visit(exc)
				c.iseq.CheckMatch(bytecode.CheckMatchRescue)
			}
			c.iseq.BranchIf(body)
		}
		c.iseq.Jump(next)

		c.iseq.PushLabel(body)
		if clause.Variable != nil {
			c.iseq.GetLocal(err, 0)
			c.assignTarget(clause.Variable)
		}
		c.compileBody(statementsOf(clause.Statements), false, false)
		c.iseq.Leave()
		c.iseq.PushLabel(next)
	}
	c.iseq.GetLocal(err, 0)
	c.iseq.Throw(bytecode.TagNone)
}

// compileEnsure runs the ensure clause inline on the normal path and from
// a handler sequence when the body is left by a throw:
//
//	start: body (with rescue)
//	end:   ensure (popped)
//	cont:
func (c *Compiler) compileEnsure(n *ast.Bodystmt) {
	sp := c.iseq.StackSize()
	start := c.iseq.Label()
	end := c.iseq.Label()
	cont := c.iseq.Label()
	ensure := n.EnsureClause

	c.scope.ensures = append(c.scope.ensures, ensure)
	c.iseq.PushLabel(start)
	if n.RescueClause != nil {
		c.compileRescue(n.Statements, n.RescueClause, n.ElseClause)
	} else {
		c.compileBody(statementsOf(n.Statements), n.ElseClause != nil, false)
		if n.ElseClause != nil {
			c.compileBody(statementsOf(n.ElseClause), false, false)
		}
	}
	c.iseq.PushLabel(end)
	c.scope.ensures = c.scope.ensures[:len(c.scope.ensures)-1]

	c.compileBody(statementsOf(ensure.Statements), true, false)
	c.iseq.PushLabel(cont)

	handler := c.iseq.EnsureChild(ensure.Location().StartLine)
	c.withChild(handler, func() {
		err := c.iseq.Locals.Plain(errinfo)
		c.compileBody(statementsOf(ensure.Statements), true, false)
		c.iseq.GetLocal(err, 0)
		c.iseq.Throw(bytecode.TagNone)
	})
	c.iseq.CatchEnsure(handler, start, end, cont, sp)
}

// `stmt rescue value` rescues StandardError from a single expression.
func (c *Compiler) VisitRescueMod(n *ast.RescueMod) {
	loc := n.Location()
	body := &ast.Statements{Base: ast.Base{Loc: loc}, Body: []ast.Node{n.Statement}}
	clause := &ast.Rescue{
		Base:       ast.Base{Loc: loc},
		Statements: &ast.Statements{Base: ast.Base{Loc: loc}, Body: []ast.Node{n.Value}},
	}
	c.compileRescue(body, clause, nil)
}

func (c *Compiler) VisitRescue(n *ast.Rescue) {
	bytecode.Fault("rescue", "rescue clause outside of a body")
}

func (c *Compiler) VisitEnsure(n *ast.Ensure) {
	bytecode.Fault("ensure", "ensure clause outside of a body")
}
