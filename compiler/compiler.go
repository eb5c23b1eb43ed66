// Package compiler lowers a syntax tree into YARV instruction sequences.
//
// The Compiler walks the tree as an ast.Visitor. Every visit leaves exactly
// one value on the operand stack unless the node was visited in popped
// (statement) position, in which case it leaves nothing. Scopes such as
// method bodies, blocks and rescue handlers get their own child sequence.
package compiler

import (
	"strings"

	"github.com/ruby-syntax-tree/syntax-tree-sub003/ast"
	"github.com/ruby-syntax-tree/syntax-tree-sub003/bytecode"
	"github.com/tliron/commonlog"
)

var log = commonlog.GetLogger("yarv.compiler")

// Options control the shape of the emitted instructions.
type Options = bytecode.Options

// DefaultOptions matches the defaults of RubyVM::InstructionSequence.
func DefaultOptions() Options { return bytecode.DefaultOptions() }

// Compile lowers a whole program into a closed top-level sequence.
// Structural problems in the tree surface as an *bytecode.InternalError.
func Compile(program *ast.Program, opts Options) (iseq *bytecode.InstructionSequence, err error) {
	defer bytecode.RecoverInternal(&err)

	for _, comment := range program.MagicComments {
		if magicFrozenStringLiteral(comment) {
			opts.FrozenStringLiteral = true
		}
	}

	c := &Compiler{options: opts}
	iseq = c.compileProgram(program)
	iseq.Close()
	log.Infof("compiled %d top-level statements", len(statementsOf(program.Statements)))
	return iseq, nil
}

// magicFrozenStringLiteral recognizes "# frozen_string_literal: true",
// including the emacs -*- form.
func magicFrozenStringLiteral(comment string) bool {
	text := strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(comment), "#"))
	text = strings.TrimSpace(strings.Trim(text, "-*"))
	for _, part := range strings.Split(text, ";") {
		key, value, ok := strings.Cut(part, ":")
		if !ok {
			continue
		}
		key = strings.ReplaceAll(strings.ToLower(strings.TrimSpace(key)), "-", "_")
		if key == "frozen_string_literal" && strings.EqualFold(strings.TrimSpace(value), "true") {
			return true
		}
	}
	return false
}

// ---------------------------------------------------------------------------
// Compiler state
// ---------------------------------------------------------------------------

// Compiler holds the sequence being built and the context of the node
// being visited.
type Compiler struct {
	options Options
	iseq    *bytecode.InstructionSequence
	scope   *scope
	loop    *loop

	// popped is set when the visited node's value is discarded. A visitor
	// that honours it calls takePopped; otherwise the caller pops.
	popped  bool
	handled bool

	// tail is set when the visited node's value is returned straight from
	// the current scope.
	tail bool

	line int
}

// scope is per-sequence state.
type scope struct {
	start   *bytecode.Label // block body, for redo
	end     *bytecode.Label // block body, for next
	ensures []*ast.Ensure
}

// loop is the innermost while/until in the current method or block.
type loop struct {
	iseq    *bytecode.InstructionSequence
	next    *bytecode.Label
	redo    *bytecode.Label
	end     *bytecode.Label
	depth   int
	ensures int
}

func (c *Compiler) visit(node ast.Node) {
	popped, handled, tail := c.popped, c.handled, c.tail
	c.popped, c.handled, c.tail = false, false, false
	node.Accept(c)
	c.popped, c.handled, c.tail = popped, handled, tail
}

func (c *Compiler) visitPopped(node ast.Node) {
	popped, handled, tail := c.popped, c.handled, c.tail
	c.popped, c.handled, c.tail = true, false, false
	node.Accept(c)
	if !c.handled {
		c.iseq.Pop()
	}
	c.popped, c.handled, c.tail = popped, handled, tail
}

func (c *Compiler) visitTail(node ast.Node) {
	popped, handled, tail := c.popped, c.handled, c.tail
	c.popped, c.handled, c.tail = false, false, true
	node.Accept(c)
	c.popped, c.handled, c.tail = popped, handled, tail
}

// visitAs visits node in the same position as the node being compiled.
func (c *Compiler) visitAs(node ast.Node, popped, tail bool) {
	switch {
	case popped:
		c.visitPopped(node)
	case tail:
		c.visitTail(node)
	default:
		c.visit(node)
	}
}

// takePopped claims responsibility for the popped position of the current
// node and reports whether its value is discarded.
func (c *Compiler) takePopped() bool {
	c.handled = true
	return c.popped
}

// settle brings the tracked depth to what the enclosing expression
// expects after an unconditional transfer of control. Anything it emits
// is unreachable.
func (c *Compiler) settle(depth int) {
	for c.iseq.StackSize() < depth {
		c.iseq.PutNil()
	}
	if extra := c.iseq.StackSize() - depth; extra > 0 {
		c.iseq.AdjustStack(extra)
	}
}

// resultDepth is the depth a node started at start must finish at.
func resultDepth(start int, popped bool) int {
	if popped {
		return start
	}
	return start + 1
}

// withChild compiles fn into child. Loop context survives only into
// handler sequences, which share the frame's control flow.
func (c *Compiler) withChild(child *bytecode.InstructionSequence, fn func()) {
	iseq, sc, lp, line := c.iseq, c.scope, c.loop, c.line
	popped, handled, tail := c.popped, c.handled, c.tail

	c.iseq = child
	c.scope = &scope{}
	switch child.Type {
	case bytecode.TypeRescue, bytecode.TypeEnsure:
	default:
		c.loop = nil
	}
	c.popped, c.handled, c.tail = false, false, false
	c.line = 0
	fn()

	c.iseq, c.scope, c.loop, c.line = iseq, sc, lp, line
	c.popped, c.handled, c.tail = popped, handled, tail
	log.Debugf("compiled %s %q", child.Type, child.Name)
}

func (c *Compiler) markLine(node ast.Node) {
	line := node.Location().StartLine
	if line <= 0 || line == c.line {
		return
	}
	c.line = line
	c.iseq.PushLine(line)
	c.iseq.PushEvent("RUBY_EVENT_LINE")
}

// ---------------------------------------------------------------------------
// Locals
// ---------------------------------------------------------------------------

// lookupLocal resolves name through the lexical scopes.
func (c *Compiler) lookupLocal(name string) (bytecode.LocalLookup, bool) {
	return c.iseq.FindLocal(name)
}

// declareLocal resolves name, declaring it in the nearest scope that owns
// locals when it does not exist yet. Handler sequences share the locals of
// the frame they protect.
func (c *Compiler) declareLocal(name string) bytecode.LocalLookup {
	if lookup, ok := c.lookupLocal(name); ok {
		return lookup
	}
	owner, level := c.iseq, 0
	for owner.Parent != nil && handlerType(owner.Type) {
		owner = owner.Parent
		level++
	}
	index := owner.Locals.Plain(name)
	return bytecode.LocalLookup{Local: owner.Locals.Get(index), Index: index, Level: level}
}

func handlerType(t bytecode.ISeqType) bool {
	return t == bytecode.TypeRescue || t == bytecode.TypeEnsure || t == bytecode.TypePlain
}

func (c *Compiler) getLocal(lookup bytecode.LocalLookup) {
	if lookup.Local.Kind == bytecode.BlockLocal {
		c.iseq.GetBlockParam(lookup.Index, lookup.Level)
		return
	}
	c.iseq.GetLocal(lookup.Index, lookup.Level)
}

func (c *Compiler) setLocal(lookup bytecode.LocalLookup) {
	if lookup.Local.Kind == bytecode.BlockLocal {
		c.iseq.SetBlockParam(lookup.Index, lookup.Level)
		return
	}
	c.iseq.SetLocal(lookup.Index, lookup.Level)
}

// methodScope returns the sequence of the method a block or handler
// belongs to, and how many levels up it is.
func (c *Compiler) methodScope() (*bytecode.InstructionSequence, int) {
	current, level := c.iseq, 0
	for current.Parent != nil && current.Type != bytecode.TypeMethod {
		if current.Type == bytecode.TypeClass || current.Type == bytecode.TypeTop {
			break
		}
		current = current.Parent
		level++
	}
	return current, level
}

// ---------------------------------------------------------------------------
// Program and statements
// ---------------------------------------------------------------------------

func (c *Compiler) compileProgram(program *ast.Program) *bytecode.InstructionSequence {
	top := bytecode.NewTopLevel(c.options)

	var preexes, body []ast.Node
	for _, stmt := range statementsOf(program.Statements) {
		if b, ok := stmt.(*ast.BEGINBlock); ok {
			preexes = append(preexes, b)
			continue
		}
		body = append(body, stmt)
	}

	c.withChild(top, func() {
		for _, pre := range preexes {
			c.visitPopped(pre)
		}
		c.compileBody(body, false, true)
		c.iseq.Leave()
	})
	return top
}

// statementsOf drops void statements.
func statementsOf(stmts *ast.Statements) []ast.Node {
	if stmts == nil {
		return nil
	}
	out := make([]ast.Node, 0, len(stmts.Body))
	for _, s := range stmts.Body {
		if _, ok := s.(*ast.VoidStmt); ok || s == nil {
			continue
		}
		out = append(out, s)
	}
	return out
}

// compileBody compiles a statement list. Every statement but the last is
// popped; the last takes the position of the list itself.
func (c *Compiler) compileBody(body []ast.Node, popped, tail bool) {
	if len(body) == 0 {
		if !popped {
			c.iseq.PutNil()
		}
		return
	}
	for _, stmt := range body[:len(body)-1] {
		c.markLine(stmt)
		c.visitPopped(stmt)
	}
	last := body[len(body)-1]
	c.markLine(last)
	c.visitAs(last, popped, tail)
}

func (c *Compiler) VisitProgram(n *ast.Program) {
	bytecode.Fault("program", "nested program node")
}

func (c *Compiler) VisitStatements(n *ast.Statements) {
	popped, tail := c.takePopped(), c.tail
	c.compileBody(statementsOf(n), popped, tail)
}

func (c *Compiler) VisitVoidStmt(n *ast.VoidStmt) {
	if !c.takePopped() {
		c.iseq.PutNil()
	}
}

func (c *Compiler) VisitParen(n *ast.Paren) {
	popped, tail := c.takePopped(), c.tail
	if n.Contents == nil {
		if !popped {
			c.iseq.PutNil()
		}
		return
	}
	c.visitAs(n.Contents, popped, tail)
}

func (c *Compiler) VisitBEGINBlock(n *ast.BEGINBlock) {
	popped := c.takePopped()
	c.compileBody(statementsOf(n.Statements), popped, false)
}

// END { } registers its block once, the first time it is reached.
func (c *Compiler) VisitENDBlock(n *ast.ENDBlock) {
	line := n.Location().StartLine
	once := c.iseq.PlainChild("block in "+c.iseq.Name, line)
	c.withChild(once, func() {
		block := c.iseq.BlockChild(line)
		c.withChild(block, func() {
			c.compileBlockBody(n.Statements)
		})
		c.iseq.PutSpecialObject(bytecode.SpecialObjectVMCore)
		c.iseq.Send(bytecode.NewCallData("core#set_postexe", 0, bytecode.CallFCall), block)
		c.iseq.Leave()
	})
	c.iseq.Once(once, c.iseq.InlineStorage())
}
