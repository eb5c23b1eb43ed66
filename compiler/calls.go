package compiler

import (
	"github.com/ruby-syntax-tree/syntax-tree-sub003/ast"
	"github.com/ruby-syntax-tree/syntax-tree-sub003/bytecode"
)

// argInfo describes an argument list after it has been pushed.
type argInfo struct {
	argc  int // orig_argc of the call site
	depth int // stack slots pushed
	flags int
	kwArg []string
}

func (a argInfo) simple() bool {
	return a.flags&(bytecode.CallArgsSplat|bytecode.CallArgsBlockarg|bytecode.CallKwarg|bytecode.CallKwSplat) == 0
}

// pushArgs pushes an argument list. Positional arguments after a splat
// are folded into the splatted array; static symbol keywords are passed
// individually, anything else as one keyword hash.
func (c *Compiler) pushArgs(args *ast.Args) argInfo {
	var info argInfo
	if args == nil {
		return info
	}
	parts := args.Parts
	splatted := false
	pending := 0
	flushPending := func() {
		if pending > 0 {
			c.iseq.NewArray(pending)
			c.iseq.ConcatArray()
			pending = 0
		}
	}

	for i, part := range parts {
		switch p := part.(type) {
		case *ast.ArgStar:
			c.visit(p.Value)
			if splatted {
				flushPending()
				c.iseq.ConcatArray()
				continue
			}
			c.iseq.SplatArray(moreArgsFollow(parts[i+1:]))
			splatted = true
			info.argc++
			info.depth++
			info.flags |= bytecode.CallArgsSplat

		case *ast.BareAssocHash:
			flushPending()
			if names, ok := staticKeywords(p.Assocs); ok && !splatted {
				for _, a := range p.Assocs {
					c.assocValue(a.(*ast.Assoc))
				}
				info.argc += len(names)
				info.depth += len(names)
				info.kwArg = names
				info.flags |= bytecode.CallKwarg
				continue
			}
			if len(p.Assocs) == 1 {
				if splat, ok := p.Assocs[0].(*ast.AssocSplat); ok {
					c.visit(splat.Value)
					info.argc++
					info.depth++
					info.flags |= bytecode.CallKwSplat
					continue
				}
			}
			c.hashElements(p.Assocs)
			info.argc++
			info.depth++
			info.flags |= bytecode.CallKwSplat | bytecode.CallKwSplatMut

		case *ast.ArgBlock:
			flushPending()
			c.blockArgument(p)
			info.depth++
			info.flags |= bytecode.CallArgsBlockarg

		case *ast.ArgsForward:
			flushPending()
			rest, ok := c.lookupLocal("*")
			block, bok := c.lookupLocal("&")
			if !ok || !bok {
				bytecode.Fault("...", "argument forwarding outside of a forwarding method")
			}
			c.iseq.GetLocal(rest.Index, rest.Level)
			c.iseq.SplatArray(len(parts) > 1)
			c.iseq.GetBlockParamProxy(block.Index, block.Level)
			info.argc++
			info.depth += 2
			info.flags |= bytecode.CallArgsSplat | bytecode.CallArgsBlockarg
			if c.iseq.Options.TailcallOptimization {
				info.flags |= bytecode.CallTailcall
			}

		default:
			c.visit(p)
			if splatted {
				pending++
				continue
			}
			info.argc++
			info.depth++
		}
	}
	flushPending()
	return info
}

func moreArgsFollow(rest []ast.Node) bool {
	for _, p := range rest {
		switch p.(type) {
		case *ast.ArgBlock:
		default:
			return true
		}
	}
	return false
}

// staticKeywords returns the keyword names when every pair has a symbol
// literal key.
func staticKeywords(assocs []ast.Node) ([]string, bool) {
	names := make([]string, 0, len(assocs))
	for _, a := range assocs {
		assoc, ok := a.(*ast.Assoc)
		if !ok {
			return nil, false
		}
		sym, ok := assoc.Key.(*ast.SymbolLiteral)
		if !ok {
			return nil, false
		}
		names = append(names, sym.Value)
	}
	return names, len(names) > 0
}

// blockArgument pushes &value. A block parameter is passed through its
// proxy without materializing a Proc.
func (c *Compiler) blockArgument(arg *ast.ArgBlock) {
	if arg.Value == nil {
		lookup, ok := c.lookupLocal("&")
		if !ok {
			bytecode.Fault("&", "anonymous block argument without an anonymous block parameter")
		}
		c.iseq.GetBlockParamProxy(lookup.Index, lookup.Level)
		return
	}
	if ref, ok := arg.Value.(*ast.VarRef); ok {
		if lookup, found := c.lookupLocal(ref.Name); found && lookup.Local.Kind == bytecode.BlockLocal {
			c.iseq.GetBlockParamProxy(lookup.Index, lookup.Level)
			return
		}
	}
	c.visit(arg.Value)
}

// callFlags finishes the flags of a call site.
func callFlags(info argInfo, block *bytecode.InstructionSequence) int {
	flags := info.flags
	if block == nil && info.simple() {
		flags |= bytecode.CallArgsSimple
	}
	return flags
}

// ---------------------------------------------------------------------------
// Method calls
// ---------------------------------------------------------------------------

func (c *Compiler) VisitCallNode(n *ast.CallNode) {
	var begin *bytecode.Label
	var sp int
	if n.Block != nil {
		begin = c.iseq.Label()
		sp = c.iseq.StackSize()
		c.iseq.PushLabel(begin)
	}

	flags := 0
	switch recv := n.Receiver.(type) {
	case nil:
		c.iseq.PutSelf()
		flags |= bytecode.CallFCall
	case *ast.VarRef:
		if lookup, ok := c.lookupLocal(recv.Name); ok && lookup.Local.Kind == bytecode.BlockLocal {
			c.iseq.GetBlockParamProxy(lookup.Index, lookup.Level)
			break
		}
		c.visit(recv)
	case *ast.ArrayLiteral:
		if c.optNewArray(n, recv) {
			c.arrayElements(recv.Elements)
			break
		}
		c.visit(recv)
	case *ast.SelfNode:
		c.iseq.PutSelf()
		flags |= bytecode.CallFCall
	default:
		c.visit(recv)
	}

	var skip *bytecode.Label
	if n.Operator == "&." {
		skip = c.iseq.Label()
		c.iseq.Dup()
		c.iseq.BranchNil(skip)
	}

	info := c.pushArgs(n.Arguments)
	var block *bytecode.InstructionSequence
	if n.Block != nil {
		block = c.compileBlock(n.Block.Params, n.Block.Locals, n.Block.Body, n.Block.Location().StartLine, false)
	}
	flags |= callFlags(info, block)
	c.iseq.Send(bytecode.NewCallData(n.Message, info.argc, flags, info.kwArg...), block)

	if skip != nil {
		c.iseq.PushLabel(skip)
	}
	if begin != nil {
		end := c.iseq.Label()
		c.iseq.PushLabel(end)
		c.iseq.CatchBreak(nil, begin, end, end, sp)
	}
}

// optNewArray reports whether [..].max / [..].min can skip building the
// array, leaving the elements for opt_newarray_max/min.
func (c *Compiler) optNewArray(n *ast.CallNode, recv *ast.ArrayLiteral) bool {
	if !c.iseq.Options.SpecializedInstruction || n.Block != nil || len(recv.Elements) == 0 {
		return false
	}
	if n.Message != "max" && n.Message != "min" {
		return false
	}
	if n.Arguments != nil && len(n.Arguments.Parts) > 0 {
		return false
	}
	for _, e := range recv.Elements {
		switch e.(type) {
		case *ast.ArgStar, *ast.BareAssocHash:
			return false
		}
	}
	return true
}

func (c *Compiler) VisitARef(n *ast.ARef) {
	c.visit(n.Collection)
	if key, ok := c.stringIndex(n.Index); ok {
		c.iseq.OptArefWith(key, bytecode.NewCallData("[]", 1, bytecode.CallArgsSimple))
		return
	}
	info := c.pushArgs(n.Index)
	c.iseq.Send(bytecode.NewCallData("[]", info.argc, callFlags(info, nil), info.kwArg...), nil)
}

func (c *Compiler) VisitBinary(n *ast.Binary) {
	switch n.Operator {
	case "&&", "and":
		c.shortCircuit(n, false)
	case "||", "or":
		c.shortCircuit(n, true)
	default:
		c.visit(n.Left)
		c.visit(n.Right)
		c.iseq.Send(bytecode.NewCallData(n.Operator, 1, bytecode.CallArgsSimple), nil)
	}
}

// shortCircuit compiles && and ||. In statement position the left value
// is tested and dropped without a dup.
func (c *Compiler) shortCircuit(n *ast.Binary, or bool) {
	popped := c.takePopped()
	done := c.iseq.Label()
	c.visit(n.Left)
	if !popped {
		c.iseq.Dup()
	}
	if or {
		c.iseq.BranchIf(done)
	} else {
		c.iseq.BranchUnless(done)
	}
	if popped {
		c.visitPopped(n.Right)
	} else {
		c.iseq.Pop()
		c.visit(n.Right)
	}
	c.iseq.PushLabel(done)
}

func (c *Compiler) VisitUnary(n *ast.Unary) {
	c.visit(n.Statement)
	c.iseq.Send(bytecode.NewCallData(n.Operator, 0, bytecode.CallArgsSimple), nil)
}

func (c *Compiler) VisitNot(n *ast.Not) {
	c.visit(n.Statement)
	c.iseq.Send(bytecode.NewCallData("!", 0, bytecode.CallArgsSimple), nil)
}

// ---------------------------------------------------------------------------
// super and yield
// ---------------------------------------------------------------------------

func (c *Compiler) VisitSuper(n *ast.Super) {
	c.iseq.PutSelf()
	info := c.pushArgs(n.Arguments)
	var block *bytecode.InstructionSequence
	if n.Block != nil {
		block = c.compileBlock(n.Block.Params, n.Block.Locals, n.Block.Body, n.Block.Location().StartLine, false)
	}
	flags := callFlags(info, block) | bytecode.CallFCall | bytecode.CallSuper
	c.iseq.InvokeSuper(bytecode.NewCallData("", info.argc, flags, info.kwArg...), block)
}

// ZSuper passes the current method's parameters on as they are now.
func (c *Compiler) VisitZSuper(n *ast.ZSuper) {
	method, level := c.methodScope()
	if method.Type != bytecode.TypeMethod {
		bytecode.Fault("super", "implicit argument passing of super from method defined by define_method() is not supported")
	}
	c.iseq.PutSelf()

	args := method.Args
	local := func(index int) { c.iseq.GetLocal(index, level) }
	info := argInfo{}
	positional := max(args.LeadNum, 0) + len(args.Opt) - min(len(args.Opt), 1)
	for i := 0; i < positional; i++ {
		local(i)
		info.argc++
		info.depth++
	}
	if args.RestStart >= 0 {
		local(args.RestStart)
		c.iseq.SplatArray(args.PostNum > 0)
		info.argc++
		info.depth++
		info.flags |= bytecode.CallArgsSplat
		if args.PostNum > 0 {
			for i := 0; i < args.PostNum; i++ {
				local(args.PostStart + i)
			}
			c.iseq.NewArray(args.PostNum)
			c.iseq.ConcatArray()
		}
	} else if args.PostNum > 0 {
		for i := 0; i < args.PostNum; i++ {
			local(args.PostStart + i)
			info.argc++
			info.depth++
		}
	}
	if len(args.Keyword) > 0 || args.KwRest >= 0 {
		pairs := 0
		for _, kw := range args.Keyword {
			name := keywordName(kw)
			c.iseq.PutObject(bytecode.Symbol(name))
			local(method.Locals.Find(name))
			pairs++
		}
		c.iseq.NewHash(pairs * 2)
		if args.KwRest >= 0 {
			c.iseq.PutSpecialObject(bytecode.SpecialObjectVMCore)
			c.iseq.Swap()
			local(args.KwRest)
			c.iseq.Send(bytecode.NewCallData("core#hash_merge_kwd", 2, bytecode.CallArgsSimple), nil)
		}
		info.argc++
		info.depth++
		info.flags |= bytecode.CallKwSplat | bytecode.CallKwSplatMut
	}

	var block *bytecode.InstructionSequence
	if n.Block != nil {
		block = c.compileBlock(n.Block.Params, n.Block.Locals, n.Block.Body, n.Block.Location().StartLine, false)
	}
	flags := callFlags(info, block) | bytecode.CallFCall | bytecode.CallSuper | bytecode.CallZSuper
	c.iseq.InvokeSuper(bytecode.NewCallData("", info.argc, flags), block)
}

// keywordName extracts the name from an entry of the keyword parameter
// list: a bare symbol, or an array starting with one.
func keywordName(kw any) string {
	switch k := kw.(type) {
	case bytecode.Symbol:
		return string(k)
	case []any:
		if len(k) > 0 {
			if s, ok := k[0].(bytecode.Symbol); ok {
				return string(s)
			}
		}
	}
	bytecode.Fault(kw, "malformed keyword parameter")
	return ""
}

func (c *Compiler) VisitYield(n *ast.Yield) {
	if method, _ := c.methodScope(); method.Type != bytecode.TypeMethod {
		bytecode.Fault("yield", "Invalid yield")
	}
	info := c.pushArgs(n.Arguments)
	c.iseq.InvokeBlock(bytecode.NewCallData("", info.argc, callFlags(info, nil), info.kwArg...))
}

// ---------------------------------------------------------------------------
// Argument nodes outside of an argument list
// ---------------------------------------------------------------------------

func (c *Compiler) VisitArgs(n *ast.Args) {
	popped := c.takePopped()
	parts := n.Parts
	switch {
	case len(parts) == 0:
		if !popped {
			c.iseq.PutNil()
		}
	case len(parts) == 1:
		if star, ok := parts[0].(*ast.ArgStar); ok {
			c.visit(star.Value)
			c.iseq.SplatArray(false)
			if popped {
				c.iseq.Pop()
			}
			return
		}
		c.visitAs(parts[0], popped, false)
	default:
		c.arrayElements(parts)
		if popped {
			c.iseq.Pop()
		}
	}
}

func (c *Compiler) VisitArgStar(n *ast.ArgStar) {
	c.visit(n.Value)
	c.iseq.SplatArray(true)
}

func (c *Compiler) VisitArgBlock(n *ast.ArgBlock) {
	bytecode.Fault("&", "block argument outside of an argument list")
}

func (c *Compiler) VisitArgsForward(n *ast.ArgsForward) {
	bytecode.Fault("...", "argument forwarding outside of an argument list")
}

// ---------------------------------------------------------------------------
// Blocks and parameters
// ---------------------------------------------------------------------------

func (c *Compiler) VisitBlockNode(n *ast.BlockNode) {
	bytecode.Fault("block", "block outside of a call")
}

// Lambdas are blocks handed to the VM core's lambda.
func (c *Compiler) VisitLambda(n *ast.Lambda) {
	c.iseq.PutSpecialObject(bytecode.SpecialObjectVMCore)
	block := c.compileBlock(n.Params, n.Locals, n.Body, n.Location().StartLine, true)
	c.iseq.Send(bytecode.NewCallData("lambda", 0, bytecode.CallFCall), block)
}

func (c *Compiler) compileBlock(params *ast.Params, locals []string, body ast.Node, line int, lambda bool) *bytecode.InstructionSequence {
	block := c.iseq.BlockChild(line)
	c.withChild(block, func() {
		c.compileParams(params, !lambda)
		for _, name := range locals {
			block.Locals.Plain(name)
		}
		c.compileBlockBody(body)
	})
	return block
}

// compileBlockBody emits a block body between the labels that redo and
// next land on.
func (c *Compiler) compileBlockBody(body ast.Node) {
	start := c.iseq.Label()
	end := c.iseq.Label()
	c.scope.start, c.scope.end = start, end

	c.iseq.PushLabel(start)
	c.iseq.PushEvent("RUBY_EVENT_B_CALL")
	if body == nil {
		c.iseq.PutNil()
	} else {
		c.visitTail(body)
	}
	c.iseq.PushLabel(end)
	c.iseq.PushEvent("RUBY_EVENT_B_RETURN")
	c.iseq.Leave()

	c.iseq.CatchRedo(start, end, start, 0)
	c.iseq.CatchNext(start, end, end, 0)
}

// compileParams declares parameters in order (lead, optional, rest, post,
// keywords, keyword bits, keyword rest, block) and emits the code that
// fills in optional defaults.
func (c *Compiler) compileParams(p *ast.Params, block bool) {
	if p == nil {
		return
	}
	iseq := c.iseq
	args := &iseq.Args
	locals := &iseq.Locals

	if len(p.Requireds) > 0 {
		args.LeadNum = len(p.Requireds)
		for _, name := range p.Requireds {
			locals.Plain(name)
			iseq.ArgumentSize++
		}
	}

	for i, opt := range p.Optionals {
		index := locals.Plain(opt.Name)
		iseq.ArgumentSize++
		if i == 0 {
			first := iseq.Label()
			iseq.PushLabel(first)
			args.Opt = append(args.Opt, first)
		}
		c.visit(opt.Value)
		iseq.SetLocal(index, 0)
		next := iseq.Label()
		iseq.PushLabel(next)
		args.Opt = append(args.Opt, next)
	}

	if p.Rest != nil {
		name := p.Rest.Name
		if name == "" {
			name = "*"
		}
		args.RestStart = iseq.ArgumentSize
		locals.Plain(name)
		iseq.ArgumentSize++
	}

	if len(p.Posts) > 0 {
		args.PostStart = iseq.ArgumentSize
		args.PostNum = len(p.Posts)
		for _, name := range p.Posts {
			locals.Plain(name)
			iseq.ArgumentSize++
		}
	}

	if len(p.Keywords) > 0 {
		keywords := make([]ast.KeywordParam, 0, len(p.Keywords))
		for _, kw := range p.Keywords {
			if kw.Value == nil {
				keywords = append(keywords, kw)
			}
		}
		required := len(keywords)
		for _, kw := range p.Keywords {
			if kw.Value != nil {
				keywords = append(keywords, kw)
			}
		}

		bitsIndex := locals.Size() + len(keywords)
		args.KwBits = bitsIndex
		args.Keyword = []any{}
		iseq.ArgumentSize++

		for i, kw := range keywords {
			index := locals.Plain(kw.Name)
			iseq.ArgumentSize++
			name := bytecode.Symbol(kw.Name)
			if kw.Value == nil {
				args.Keyword = append(args.Keyword, name)
				continue
			}
			if v, ok := c.staticValue(kw.Value); ok {
				args.Keyword = append(args.Keyword, []any{name, v})
				continue
			}
			args.Keyword = append(args.Keyword, []any{name})
			skip := iseq.Label()
			iseq.CheckKeyword(bitsIndex, i-required)
			iseq.BranchIf(skip)
			c.visit(kw.Value)
			iseq.SetLocal(index, 0)
			iseq.PushLabel(skip)
		}
		locals.Plain("?")
	}

	switch rest := p.KeywordRest.(type) {
	case *ast.KwRestParam:
		name := rest.Name
		if name == "" {
			name = "**"
		}
		args.KwRest = iseq.ArgumentSize
		locals.Plain(name)
		iseq.ArgumentSize++
	case *ast.ArgsForward:
		args.RestStart = iseq.ArgumentSize
		args.BlockStart = iseq.ArgumentSize + 1
		locals.Plain("*")
		locals.Block("&")
		locals.Plain("...")
		iseq.ArgumentSize += 2
	}

	if p.Block != nil {
		name := p.Block.Name
		if name == "" {
			name = "&"
		}
		args.BlockStart = iseq.ArgumentSize
		locals.Block(name)
		iseq.ArgumentSize++
	}

	if block && args.LeadNum == 1 && len(p.Optionals) == 0 && p.Rest == nil &&
		len(p.Posts) == 0 && len(p.Keywords) == 0 && p.KeywordRest == nil && p.Block == nil {
		args.AmbiguousParam0 = true
	}
}

func (c *Compiler) VisitParams(n *ast.Params) {
	bytecode.Fault("params", "parameter list outside of a definition")
}

func (c *Compiler) VisitRestParam(n *ast.RestParam) {
	bytecode.Fault(n.Name, "parameter outside of a parameter list")
}

func (c *Compiler) VisitKwRestParam(n *ast.KwRestParam) {
	bytecode.Fault(n.Name, "parameter outside of a parameter list")
}

func (c *Compiler) VisitBlockParam(n *ast.BlockParam) {
	bytecode.Fault(n.Name, "parameter outside of a parameter list")
}
