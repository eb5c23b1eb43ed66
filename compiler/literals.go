package compiler

import (
	"math/big"
	"strconv"
	"strings"

	"github.com/ruby-syntax-tree/syntax-tree-sub003/ast"
	"github.com/ruby-syntax-tree/syntax-tree-sub003/bytecode"
)

// ---------------------------------------------------------------------------
// Static values
// ---------------------------------------------------------------------------

// staticValue folds a literal subtree into an operand value. Strings count
// only under frozen string literals, matching which literals CRuby shares
// through duparray and duphash.
func (c *Compiler) staticValue(node ast.Node) (any, bool) {
	switch n := node.(type) {
	case *ast.Int:
		return parseInteger(n.Value)
	case *ast.FloatLiteral:
		return parseFloat(n.Value)
	case *ast.RationalLiteral:
		return parseRational(n.Value)
	case *ast.Imaginary:
		return parseImaginary(n.Value)
	case *ast.SymbolLiteral:
		return bytecode.Symbol(n.Value), true
	case *ast.DynaSymbol:
		if text, ok := plainText(n.Parts); ok {
			return bytecode.Symbol(text), true
		}
	case *ast.RegexpLiteral:
		if text, ok := plainText(n.Parts); ok && !strings.Contains(n.Options, "o") {
			return bytecode.Regexp{Source: text, Options: regexpOptions(n.Options)}, true
		}
	case *ast.StringLiteral:
		if text, ok := plainText(n.Parts); ok && c.iseq.Options.FrozenStringLiteral {
			return text, true
		}
	case *ast.NilNode:
		return nil, true
	case *ast.TrueNode:
		return true, true
	case *ast.FalseNode:
		return false, true
	case *ast.RangeNode:
		left, lok := staticRangeEnd(n.Left)
		right, rok := staticRangeEnd(n.Right)
		if lok && rok && (left != nil || right != nil) {
			return bytecode.Range{Begin: left, End: right, ExcludeEnd: n.ExcludeEnd}, true
		}
	case *ast.ArrayLiteral:
		out := make([]any, 0, len(n.Elements))
		for _, e := range n.Elements {
			v, ok := c.staticValue(e)
			if !ok {
				return nil, false
			}
			out = append(out, v)
		}
		return out, true
	case *ast.HashLiteral:
		out := make(bytecode.Pairs, 0, len(n.Assocs))
		for _, e := range n.Assocs {
			assoc, ok := e.(*ast.Assoc)
			if !ok || assoc.Value == nil {
				return nil, false
			}
			k, kok := c.staticValue(assoc.Key)
			v, vok := c.staticValue(assoc.Value)
			if !kok || !vok {
				return nil, false
			}
			out = append(out, bytecode.Pair{Key: k, Value: v})
		}
		return out, true
	}
	return nil, false
}

func staticRangeEnd(node ast.Node) (any, bool) {
	switch n := node.(type) {
	case nil:
		return nil, true
	case *ast.Int:
		return parseInteger(n.Value)
	}
	return nil, false
}

// plainText joins parts made only of uninterpolated content.
func plainText(parts []ast.Node) (string, bool) {
	var sb strings.Builder
	for _, p := range parts {
		t, ok := p.(*ast.TStringContent)
		if !ok {
			return "", false
		}
		sb.WriteString(t.Value)
	}
	return sb.String(), true
}

func parseInteger(text string) (any, bool) {
	text = strings.ReplaceAll(text, "_", "")
	negative := false
	if strings.HasPrefix(text, "-") || strings.HasPrefix(text, "+") {
		negative = text[0] == '-'
		text = text[1:]
	}
	base := 10
	lower := strings.ToLower(text)
	switch {
	case strings.HasPrefix(lower, "0x"):
		base, text = 16, text[2:]
	case strings.HasPrefix(lower, "0b"):
		base, text = 2, text[2:]
	case strings.HasPrefix(lower, "0o"):
		base, text = 8, text[2:]
	case strings.HasPrefix(lower, "0d"):
		text = text[2:]
	case len(text) > 1 && text[0] == '0':
		base, text = 8, text[1:]
	}
	value, ok := new(big.Int).SetString(text, base)
	if !ok {
		return nil, false
	}
	if negative {
		value.Neg(value)
	}
	if value.IsInt64() {
		return value.Int64(), true
	}
	return value, true
}

func parseFloat(text string) (any, bool) {
	f, err := strconv.ParseFloat(strings.ReplaceAll(text, "_", ""), 64)
	if err != nil {
		return nil, false
	}
	return f, true
}

func parseRational(text string) (any, bool) {
	text = strings.ReplaceAll(strings.TrimSuffix(text, "r"), "_", "")
	whole, frac, decimal := strings.Cut(text, ".")
	if !decimal {
		n, ok := parseInteger(text)
		num, isInt := n.(int64)
		if !ok || !isInt {
			return nil, false
		}
		return bytecode.NewRational(num, 1), true
	}
	num, err := strconv.ParseInt(whole+frac, 10, 64)
	if err != nil {
		return nil, false
	}
	den := int64(1)
	for range frac {
		den *= 10
	}
	return bytecode.NewRational(num, den), true
}

func parseImaginary(text string) (any, bool) {
	text = strings.TrimSuffix(text, "i")
	var imag any
	var ok bool
	switch {
	case strings.HasSuffix(text, "r"):
		imag, ok = parseRational(text)
	case strings.ContainsAny(text, ".eE") && !strings.HasPrefix(strings.ToLower(text), "0x"):
		imag, ok = parseFloat(text)
	default:
		imag, ok = parseInteger(text)
	}
	if !ok {
		return nil, false
	}
	return bytecode.Complex{Real: int64(0), Imag: imag}, true
}

func regexpOptions(flags string) int {
	options := 0
	for _, f := range flags {
		switch f {
		case 'i':
			options |= bytecode.RegexpIgnoreCase
		case 'x':
			options |= bytecode.RegexpExtended
		case 'm':
			options |= bytecode.RegexpMultiline
		}
	}
	return options
}

// putStatic pushes a folded value, duplicating mutable containers.
func (c *Compiler) putStatic(v any) {
	switch val := v.(type) {
	case nil:
		c.iseq.PutNil()
	case []any:
		if len(val) == 0 {
			c.iseq.NewArray(0)
			return
		}
		c.iseq.DupArray(val)
	case bytecode.Pairs:
		if len(val) == 0 {
			c.iseq.NewHash(0)
			return
		}
		c.iseq.DupHash(val)
	default:
		c.iseq.PutObject(val)
	}
}

// literal compiles a node whose only effect is its value.
func (c *Compiler) literal(fn func()) {
	if c.takePopped() {
		return
	}
	fn()
}

// ---------------------------------------------------------------------------
// Numbers and keywords
// ---------------------------------------------------------------------------

func (c *Compiler) visitNumber(node ast.Node, text string) {
	c.literal(func() {
		v, ok := c.staticValue(node)
		if !ok {
			bytecode.Fault(text, "malformed numeric literal")
		}
		c.iseq.PutObject(v)
	})
}

func (c *Compiler) VisitInt(n *ast.Int)                   { c.visitNumber(n, n.Value) }
func (c *Compiler) VisitFloatLiteral(n *ast.FloatLiteral) { c.visitNumber(n, n.Value) }
func (c *Compiler) VisitRationalLiteral(n *ast.RationalLiteral) {
	c.visitNumber(n, n.Value)
}
func (c *Compiler) VisitImaginary(n *ast.Imaginary) { c.visitNumber(n, n.Value) }

func (c *Compiler) VisitNilNode(n *ast.NilNode)     { c.literal(c.iseq.PutNil) }
func (c *Compiler) VisitTrueNode(n *ast.TrueNode)   { c.literal(func() { c.iseq.PutObject(true) }) }
func (c *Compiler) VisitFalseNode(n *ast.FalseNode) { c.literal(func() { c.iseq.PutObject(false) }) }
func (c *Compiler) VisitSelfNode(n *ast.SelfNode)   { c.literal(c.iseq.PutSelf) }

func (c *Compiler) VisitFileNode(n *ast.FileNode) {
	c.literal(func() { c.iseq.PutString(c.iseq.File) })
}

func (c *Compiler) VisitLineNode(n *ast.LineNode) {
	c.literal(func() { c.iseq.PutObject(int64(n.Location().StartLine)) })
}

// ---------------------------------------------------------------------------
// Strings, symbols and regexps
// ---------------------------------------------------------------------------

// stringParts pushes each part as a string and returns how many were
// pushed. Interpolated values go through objtostring/anytostring.
func (c *Compiler) stringParts(parts []ast.Node) int {
	count := 0
	for _, part := range parts {
		switch p := part.(type) {
		case *ast.TStringContent:
			c.iseq.PutObject(p.Value)
		case *ast.StringEmbExpr:
			if text, ok := embeddedText(p); ok {
				c.iseq.PutObject(text)
				break
			}
			c.visit(p.Statements)
			c.toStringConversion()
		case *ast.StringDVar:
			c.visit(p.Variable)
			c.toStringConversion()
		default:
			c.visit(p)
			c.toStringConversion()
		}
		count++
	}
	return count
}

func embeddedText(e *ast.StringEmbExpr) (string, bool) {
	body := statementsOf(e.Statements)
	if len(body) != 1 {
		return "", false
	}
	s, ok := body[0].(*ast.StringLiteral)
	if !ok {
		return "", false
	}
	return plainText(s.Parts)
}

func (c *Compiler) toStringConversion() {
	c.iseq.Dup()
	c.iseq.ObjToString(bytecode.NewCallData("to_s", 0, bytecode.CallFCall|bytecode.CallArgsSimple))
	c.iseq.AnyToString()
}

// buildString pushes one string built from parts.
func (c *Compiler) buildString(parts []ast.Node) {
	if text, ok := plainText(parts); ok {
		c.iseq.PutString(text)
		return
	}
	if n := c.stringParts(parts); n > 1 {
		c.iseq.ConcatStrings(n)
	}
}

func (c *Compiler) VisitStringLiteral(n *ast.StringLiteral) {
	c.literal(func() { c.buildString(n.Parts) })
}

func (c *Compiler) VisitTStringContent(n *ast.TStringContent) {
	c.literal(func() { c.iseq.PutString(n.Value) })
}

func (c *Compiler) VisitStringEmbExpr(n *ast.StringEmbExpr) {
	popped := c.takePopped()
	c.visitAs(n.Statements, popped, false)
}

func (c *Compiler) VisitStringDVar(n *ast.StringDVar) {
	popped := c.takePopped()
	c.visitAs(n.Variable, popped, false)
}

func (c *Compiler) VisitCHAR(n *ast.CHAR) {
	c.literal(func() { c.iseq.PutString(strings.TrimPrefix(n.Value, "?")) })
}

// Backticks call Kernel#` on self.
func (c *Compiler) VisitXStringLiteral(n *ast.XStringLiteral) {
	popped := c.takePopped()
	c.iseq.PutSelf()
	if text, ok := plainText(n.Parts); ok {
		c.iseq.PutObject(text)
	} else {
		c.buildString(n.Parts)
	}
	c.iseq.Send(bytecode.NewCallData("`", 1, bytecode.CallFCall|bytecode.CallArgsSimple), nil)
	if popped {
		c.iseq.Pop()
	}
}

func (c *Compiler) VisitSymbolLiteral(n *ast.SymbolLiteral) {
	c.literal(func() { c.iseq.PutObject(bytecode.Symbol(n.Value)) })
}

func (c *Compiler) VisitDynaSymbol(n *ast.DynaSymbol) {
	c.literal(func() {
		if text, ok := plainText(n.Parts); ok {
			c.iseq.PutObject(bytecode.Symbol(text))
			return
		}
		c.buildString(n.Parts)
		c.iseq.Intern()
	})
}

// Interpolated regexps with the o flag are built once.
func (c *Compiler) VisitRegexpLiteral(n *ast.RegexpLiteral) {
	c.literal(func() {
		if v, ok := c.staticValue(n); ok {
			c.iseq.PutObject(v)
			return
		}
		build := func() {
			count := c.stringParts(n.Parts)
			c.iseq.ToRegExp(regexpOptions(n.Options), count)
		}
		if !strings.Contains(n.Options, "o") {
			build()
			return
		}
		once := c.iseq.PlainChild("block in "+c.iseq.Name, n.Location().StartLine)
		c.withChild(once, func() {
			build()
			c.iseq.Leave()
		})
		c.iseq.Once(once, c.iseq.InlineStorage())
	})
}

// ---------------------------------------------------------------------------
// Ranges, arrays and hashes
// ---------------------------------------------------------------------------

func (c *Compiler) VisitRangeNode(n *ast.RangeNode) {
	if v, ok := c.staticValue(n); ok {
		c.literal(func() { c.iseq.PutObject(v) })
		return
	}
	popped := c.takePopped()
	for _, end := range []ast.Node{n.Left, n.Right} {
		if end == nil {
			c.iseq.PutNil()
		} else {
			c.visit(end)
		}
	}
	exclude := 0
	if n.ExcludeEnd {
		exclude = 1
	}
	c.iseq.NewRange(exclude)
	if popped {
		c.iseq.Pop()
	}
}

func (c *Compiler) VisitArrayLiteral(n *ast.ArrayLiteral) {
	popped := c.takePopped()
	if v, ok := c.staticValue(n); ok {
		if !popped {
			c.putStatic(v)
		}
		return
	}
	c.arrayElements(n.Elements)
	if popped {
		c.iseq.Pop()
	}
}

// arrayElements pushes one array built from elements. Runs of plain
// elements become newarray; splats are concatenated.
func (c *Compiler) arrayElements(elements []ast.Node) {
	if len(elements) == 0 {
		c.iseq.NewArray(0)
		return
	}
	kwsplat := false
	if last, ok := elements[len(elements)-1].(*ast.BareAssocHash); ok && onlySplats(last.Assocs) {
		kwsplat = true
	}

	onStack := false
	pending := 0
	flush := func(final bool) {
		if pending == 0 {
			return
		}
		if final && kwsplat && !onStack {
			c.iseq.NewArrayKwSplat(pending)
		} else {
			c.iseq.NewArray(pending)
		}
		if onStack {
			c.iseq.ConcatArray()
		}
		onStack = true
		pending = 0
	}

	for _, e := range elements {
		if star, ok := e.(*ast.ArgStar); ok {
			if pending > 0 {
				flush(false)
			}
			c.visit(star.Value)
			if onStack {
				c.iseq.ConcatArray()
			} else {
				c.iseq.SplatArray(true)
				onStack = true
			}
			continue
		}
		c.visit(e)
		pending++
	}
	flush(true)
}

func onlySplats(assocs []ast.Node) bool {
	for _, a := range assocs {
		if _, ok := a.(*ast.AssocSplat); !ok {
			return false
		}
	}
	return len(assocs) > 0
}

func (c *Compiler) VisitHashLiteral(n *ast.HashLiteral) {
	popped := c.takePopped()
	if v, ok := c.staticValue(n); ok {
		if !popped {
			c.putStatic(v)
		}
		return
	}
	c.hashElements(n.Assocs)
	if popped {
		c.iseq.Pop()
	}
}

func (c *Compiler) VisitBareAssocHash(n *ast.BareAssocHash) {
	popped := c.takePopped()
	c.hashElements(n.Assocs)
	if popped {
		c.iseq.Pop()
	}
}

// hashElements pushes one hash built from assocs. Double splats merge
// into the hash built so far through the VM core object.
func (c *Compiler) hashElements(assocs []ast.Node) {
	onStack := false
	pending := 0
	flush := func() {
		if !onStack {
			c.iseq.NewHash(pending * 2)
			onStack = true
		} else if pending > 0 {
			c.iseq.Send(bytecode.NewCallData("core#hash_merge_ptr", pending*2+1, bytecode.CallArgsSimple), nil)
		}
		pending = 0
	}
	for _, a := range assocs {
		switch assoc := a.(type) {
		case *ast.Assoc:
			if onStack && pending == 0 {
				c.iseq.PutSpecialObject(bytecode.SpecialObjectVMCore)
				c.iseq.Swap()
			}
			c.visit(assoc.Key)
			c.assocValue(assoc)
			pending++
		case *ast.AssocSplat:
			if pending > 0 || !onStack {
				flush()
			}
			c.iseq.PutSpecialObject(bytecode.SpecialObjectVMCore)
			c.iseq.Swap()
			c.visit(assoc.Value)
			c.iseq.Send(bytecode.NewCallData("core#hash_merge_kwd", 2, bytecode.CallArgsSimple), nil)
		default:
			bytecode.Fault(a, "unexpected hash element")
		}
	}
	if pending > 0 || !onStack {
		flush()
	}
}

// assocValue pushes the value of a pair. A shorthand pair { x: } reads the
// variable or method named by its key.
func (c *Compiler) assocValue(assoc *ast.Assoc) {
	if assoc.Value != nil {
		c.visit(assoc.Value)
		return
	}
	key, ok := assoc.Key.(*ast.SymbolLiteral)
	if !ok {
		bytecode.Fault(assoc.Key, "shorthand hash pair without a label")
	}
	c.visit(&ast.VarRef{Base: ast.Base{Loc: assoc.Location()}, Name: key.Value})
}

func (c *Compiler) VisitAssoc(n *ast.Assoc) {
	bytecode.Fault("assoc", "pair outside of a hash")
}

func (c *Compiler) VisitAssocSplat(n *ast.AssocSplat) {
	bytecode.Fault("assoc_splat", "double splat outside of a hash")
}
