package compiler

import (
	"github.com/ruby-syntax-tree/syntax-tree-sub003/ast"
	"github.com/ruby-syntax-tree/syntax-tree-sub003/bytecode"
)

// Pattern code takes the value on top of the stack and consumes it. A
// match falls through; a mismatch jumps to the fail label. Both leave the
// stack at base, the depth below the value.

func (c *Compiler) pattern(node ast.Node, failed *bytecode.Label, base int) {
	switch n := node.(type) {
	case *ast.VarField:
		c.assignVar(n.Name)
	case *ast.BindingPattern:
		c.bindingPattern(n, failed, base)
	case *ast.AltPattern:
		c.altPattern(n, failed, base)
	case *ast.AryPtn:
		c.aryPattern(n, failed, base)
	case *ast.FndPtn:
		c.fndPattern(n, failed, base)
	case *ast.HshPtn:
		c.hshPattern(n, failed, base, nil)
	case *ast.PinnedVarRef:
		c.valuePattern(n.Value, failed)
	case *ast.PinnedExpr:
		c.valuePattern(n.Statement, failed)
	case *ast.RestPattern, *ast.NoKeywordRest:
		bytecode.Fault(node, "rest pattern outside of a collection pattern")
	default:
		c.valuePattern(n, failed)
	}
}

// valuePattern matches with expr === value.
func (c *Compiler) valuePattern(expr ast.Node, failed *bytecode.Label) {
	c.visit(expr)
	c.iseq.CheckMatch(bytecode.CheckMatchCase)
	c.iseq.BranchUnless(failed)
}

func (c *Compiler) bindingPattern(n *ast.BindingPattern, failed *bytecode.Label, base int) {
	unmatched := c.iseq.Label()
	done := c.iseq.Label()
	c.iseq.Dup()
	c.pattern(n.Pattern, unmatched, base+1)
	c.assignVar(n.Name)
	c.iseq.Jump(done)
	c.iseq.PushLabel(unmatched)
	c.iseq.Pop()
	c.iseq.Jump(failed)
	c.iseq.PushLabel(done)
}

func (c *Compiler) altPattern(n *ast.AltPattern, failed *bytecode.Label, base int) {
	right := c.iseq.Label()
	done := c.iseq.Label()
	c.iseq.Dup()
	c.pattern(n.Left, right, base+1)
	c.iseq.Pop()
	c.iseq.Jump(done)
	c.iseq.PushLabel(right)
	c.pattern(n.Right, failed, base)
	c.iseq.PushLabel(done)
}

// deconstruct checks the optional constant and that the value responds
// to method, then replaces it with the result of calling method.
func (c *Compiler) deconstruct(constant ast.Node, method string, arg func(), unmatched *bytecode.Label) {
	if constant != nil {
		c.iseq.Dup()
		c.visit(constant)
		c.iseq.CheckMatch(bytecode.CheckMatchCase)
		c.iseq.BranchUnless(unmatched)
	}
	c.iseq.Dup()
	c.iseq.PutObject(bytecode.Symbol(method))
	c.iseq.Send(bytecode.NewCallData("respond_to?", 1, bytecode.CallArgsSimple), nil)
	c.iseq.BranchUnless(unmatched)
	argc := 0
	if arg != nil {
		arg()
		argc = 1
	}
	c.iseq.Send(bytecode.NewCallData(method, argc, bytecode.CallArgsSimple), nil)
}

func (c *Compiler) send(method string, argc int) {
	c.iseq.Send(bytecode.NewCallData(method, argc, bytecode.CallArgsSimple), nil)
}

// finishCollection ends a collection pattern whose deconstructed value is
// still on the stack: pop it on both paths.
func (c *Compiler) finishCollection(unmatched, failed *bytecode.Label) {
	done := c.iseq.Label()
	c.iseq.Pop()
	c.iseq.Jump(done)
	c.iseq.PushLabel(unmatched)
	c.iseq.Pop()
	c.iseq.Jump(failed)
	c.iseq.PushLabel(done)
}

func (c *Compiler) aryPattern(n *ast.AryPtn, failed *bytecode.Label, base int) {
	unmatched := c.iseq.Label()
	required, posts := len(n.Requireds), len(n.Posts)

	c.deconstruct(n.Constant, "deconstruct", nil, unmatched)
	c.iseq.Dup()
	c.send("length", 0)
	c.iseq.PutObject(int64(required + posts))
	if n.Rest != nil {
		c.send(">=", 1)
	} else {
		c.send("==", 1)
	}
	c.iseq.BranchUnless(unmatched)

	for i, elem := range n.Requireds {
		c.iseq.Dup()
		c.iseq.PutObject(int64(i))
		c.send("[]", 1)
		c.pattern(elem, unmatched, base+1)
	}
	if n.Rest != nil && n.Rest.Name != "" {
		c.iseq.Dup()
		c.iseq.PutObject(int64(required))
		c.iseq.TopN(1)
		c.send("length", 0)
		c.iseq.PutObject(int64(required + posts))
		c.send("-", 1)
		c.send("[]", 2)
		c.assignVar(n.Rest.Name)
	}
	for j, elem := range n.Posts {
		c.iseq.Dup()
		c.iseq.PutObject(int64(j - posts))
		c.send("[]", 1)
		c.pattern(elem, unmatched, base+1)
	}
	c.finishCollection(unmatched, failed)
}

// fndPattern slides a window of len(Values) over the array until every
// element pattern matches.
func (c *Compiler) fndPattern(n *ast.FndPtn, failed *bytecode.Label, base int) {
	unmatched := c.iseq.Label()
	exhausted := c.iseq.Label()
	loopStart := c.iseq.Label()
	advance := c.iseq.Label()
	done := c.iseq.Label()
	width := int64(len(n.Values))

	c.deconstruct(n.Constant, "deconstruct", nil, unmatched)
	c.iseq.Dup()
	c.send("length", 0)
	c.iseq.PutObject(width)
	c.send(">=", 1)
	c.iseq.BranchUnless(unmatched)

	c.iseq.PutObject(int64(0))
	c.iseq.PushLabel(loopStart)
	c.iseq.Dup()
	c.iseq.TopN(2)
	c.send("length", 0)
	c.iseq.PutObject(width)
	c.send("-", 1)
	c.send("<=", 1)
	c.iseq.BranchUnless(exhausted)

	for k, value := range n.Values {
		c.iseq.TopN(1)
		c.iseq.TopN(1)
		c.iseq.PutObject(int64(k))
		c.send("+", 1)
		c.send("[]", 1)
		c.pattern(value, advance, base+2)
	}
	if n.Left != nil && n.Left.Name != "" {
		c.iseq.TopN(1)
		c.iseq.PutObject(int64(0))
		c.iseq.TopN(2)
		c.send("[]", 2)
		c.assignVar(n.Left.Name)
	}
	if n.Right != nil && n.Right.Name != "" {
		c.iseq.TopN(1)
		c.iseq.TopN(1)
		c.iseq.PutObject(width)
		c.send("+", 1)
		c.iseq.PutObject(int64(-1))
		c.iseq.NewRange(0)
		c.send("[]", 1)
		c.assignVar(n.Right.Name)
	}
	c.iseq.AdjustStack(2)
	c.iseq.Jump(done)

	c.iseq.PushLabel(advance)
	c.iseq.PutObject(int64(1))
	c.send("+", 1)
	c.iseq.Jump(loopStart)

	c.iseq.PushLabel(exhausted)
	c.iseq.Pop()
	c.iseq.PushLabel(unmatched)
	c.iseq.Pop()
	c.iseq.Jump(failed)
	c.iseq.PushLabel(done)
}

// hshPattern matches through deconstruct_keys. When keyFailed is set, a
// missing key jumps to its label with the deconstructed hash on top.
func (c *Compiler) hshPattern(n *ast.HshPtn, failed *bytecode.Label, base int, keyFailed func(key string) *bytecode.Label) {
	unmatched := c.iseq.Label()

	namedRest := false
	if rest, ok := n.KeywordRest.(*ast.RestPattern); ok && rest.Name != "" {
		namedRest = true
	}
	keys := func() {
		if namedRest || len(n.Keywords) == 0 {
			c.iseq.PutNil()
			return
		}
		syms := make([]any, len(n.Keywords))
		for i, kw := range n.Keywords {
			syms[i] = bytecode.Symbol(kw.Key)
		}
		c.iseq.DupArray(syms)
	}
	c.deconstruct(n.Constant, "deconstruct_keys", keys, unmatched)

	for _, kw := range n.Keywords {
		missing := unmatched
		if keyFailed != nil {
			missing = keyFailed(kw.Key)
		}
		c.iseq.Dup()
		c.iseq.PutObject(bytecode.Symbol(kw.Key))
		c.send("key?", 1)
		c.iseq.BranchUnless(missing)

		c.iseq.Dup()
		c.iseq.PutObject(bytecode.Symbol(kw.Key))
		c.send("[]", 1)
		if kw.Value == nil {
			c.assignVar(kw.Key)
			continue
		}
		c.pattern(kw.Value, unmatched, base+1)
	}

	remaining := func() {
		c.iseq.Dup()
		c.send("dup", 0)
		for _, kw := range n.Keywords {
			c.iseq.Dup()
			c.iseq.PutObject(bytecode.Symbol(kw.Key))
			c.send("delete", 1)
			c.iseq.Pop()
		}
	}
	switch rest := n.KeywordRest.(type) {
	case *ast.RestPattern:
		if rest.Name != "" {
			remaining()
			c.assignVar(rest.Name)
		}
	case *ast.NoKeywordRest:
		remaining()
		c.send("empty?", 0)
		c.iseq.BranchUnless(unmatched)
	case nil:
		if len(n.Keywords) == 0 {
			c.iseq.Dup()
			c.send("empty?", 0)
			c.iseq.BranchUnless(unmatched)
		}
	}
	c.finishCollection(unmatched, failed)
}

func (c *Compiler) VisitAryPtn(n *ast.AryPtn)                 { c.patternOutsideMatch(n) }
func (c *Compiler) VisitFndPtn(n *ast.FndPtn)                 { c.patternOutsideMatch(n) }
func (c *Compiler) VisitHshPtn(n *ast.HshPtn)                 { c.patternOutsideMatch(n) }
func (c *Compiler) VisitAltPattern(n *ast.AltPattern)         { c.patternOutsideMatch(n) }
func (c *Compiler) VisitBindingPattern(n *ast.BindingPattern) { c.patternOutsideMatch(n) }
func (c *Compiler) VisitPinnedVarRef(n *ast.PinnedVarRef)     { c.patternOutsideMatch(n) }
func (c *Compiler) VisitPinnedExpr(n *ast.PinnedExpr)         { c.patternOutsideMatch(n) }
func (c *Compiler) VisitRestPattern(n *ast.RestPattern)       { c.patternOutsideMatch(n) }

func (c *Compiler) VisitNoKeywordRest(n *ast.NoKeywordRest) {
	bytecode.Fault("**nil", "**nil outside of a parameter list or pattern")
}

func (c *Compiler) patternOutsideMatch(n ast.Node) {
	bytecode.Fault(n, "pattern outside of a pattern match")
}

func (c *Compiler) VisitIn(n *ast.In) {
	bytecode.Fault("in", "in clause outside of case")
}

// ---------------------------------------------------------------------------
// Matching
// ---------------------------------------------------------------------------

// raiseNoMatch raises NoMatchingPatternError (or the key variant) for the
// value on top of the stack, formatting it with format.
func (c *Compiler) raiseNoMatch(class, format string) {
	c.iseq.PutSelf()
	c.iseq.PutObject(bytecode.ClassRef(class))
	c.iseq.PutSpecialObject(bytecode.SpecialObjectVMCore)
	c.iseq.PutObject(format)
	c.iseq.TopN(4)
	c.iseq.Send(bytecode.NewCallData("core#sprintf", 2, bytecode.CallArgsSimple), nil)
	c.iseq.Send(bytecode.NewCallData("raise", 2, bytecode.CallFCall|bytecode.CallArgsSimple), nil)
}

// casePattern compiles case/in. Without an else a value no clause matches
// raises NoMatchingPatternError.
func (c *Compiler) casePattern(n *ast.Case) {
	popped, tail := c.takePopped(), c.tail
	start := c.iseq.StackSize()
	end := c.iseq.Label()

	c.visit(n.Value)
	var elseClause *ast.Else
	for node := n.Consequent; node != nil; {
		switch clause := node.(type) {
		case *ast.In:
			next := c.iseq.Label()
			c.iseq.Dup()
			c.pattern(clause.Pattern, next, start+1)
			c.iseq.Pop()
			c.compileBody(statementsOf(clause.Statements), popped, tail)
			c.finishArm(popped, tail, false, end)
			c.iseq.PushLabel(next)
			node = clause.Consequent
		case *ast.Else:
			elseClause = clause
			node = nil
		default:
			bytecode.Fault(node, "unexpected clause in case")
		}
	}

	if elseClause != nil {
		c.iseq.Pop()
		c.compileBody(statementsOf(elseClause.Statements), popped, tail)
	} else {
		c.raiseNoMatch("NoMatchingPatternError", "%p")
		c.settle(resultDepth(start, popped))
	}
	c.iseq.PushLabel(end)
}

// RAssign is `value => pattern`, which raises on mismatch and yields nil,
// or `value in pattern`, which yields whether it matched.
func (c *Compiler) VisitRAssign(n *ast.RAssign) {
	popped := c.takePopped()
	start := c.iseq.StackSize()
	end := c.iseq.Label()
	failed := c.iseq.Label()

	c.visit(n.Value)
	if n.Operator == "in" {
		c.pattern(n.Pattern, failed, start)
		if !popped {
			c.iseq.PutObject(true)
		}
		c.iseq.Jump(end)
		c.iseq.PushLabel(failed)
		if !popped {
			c.iseq.PutObject(false)
		}
		c.iseq.PushLabel(end)
		return
	}

	type keyFailure struct {
		key   string
		label *bytecode.Label
	}
	var keyFailures []keyFailure
	c.iseq.Dup()
	if hash, ok := n.Pattern.(*ast.HshPtn); ok {
		c.hshPattern(hash, failed, start+1, func(key string) *bytecode.Label {
			l := c.iseq.Label()
			keyFailures = append(keyFailures, keyFailure{key, l})
			return l
		})
	} else {
		c.pattern(n.Pattern, failed, start+1)
	}
	c.iseq.Pop()
	if !popped {
		c.iseq.PutNil()
	}
	c.iseq.Jump(end)

	c.iseq.PushLabel(failed)
	c.raiseNoMatch("NoMatchingPatternError", "%p")
	c.settle(resultDepth(start, popped))
	c.iseq.Jump(end)
	for _, kf := range keyFailures {
		c.iseq.PushLabel(kf.label)
		c.iseq.Pop()
		c.raiseNoMatch("NoMatchingPatternKeyError", "%p: key not found: "+bytecode.InspectSymbol(kf.key))
		c.settle(resultDepth(start, popped))
		c.iseq.Jump(end)
	}
	c.iseq.PushLabel(end)
}
