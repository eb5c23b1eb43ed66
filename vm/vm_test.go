package vm

import (
	"bytes"
	"errors"
	"math/big"
	"testing"

	"github.com/ruby-syntax-tree/syntax-tree-sub003/ast"
	"github.com/ruby-syntax-tree/syntax-tree-sub003/compiler"
)

// ---------------------------------------------------------------------------
// AST helpers
// ---------------------------------------------------------------------------

func prog(nodes ...ast.Node) *ast.Program {
	return &ast.Program{Statements: stmts(nodes...)}
}

func stmts(nodes ...ast.Node) *ast.Statements { return &ast.Statements{Body: nodes} }

func integer(text string) *ast.Int { return &ast.Int{Value: text} }

func str(s string) *ast.StringLiteral {
	return &ast.StringLiteral{Parts: []ast.Node{&ast.TStringContent{Value: s}}}
}

func sym(name string) *ast.SymbolLiteral { return &ast.SymbolLiteral{Value: name} }

func ref(name string) *ast.VarRef { return &ast.VarRef{Name: name} }

func assign(name string, value ast.Node) *ast.Assign {
	return &ast.Assign{Target: &ast.VarField{Name: name}, Value: value}
}

func binary(left ast.Node, op string, right ast.Node) *ast.Binary {
	return &ast.Binary{Left: left, Operator: op, Right: right}
}

func array(elems ...ast.Node) *ast.ArrayLiteral { return &ast.ArrayLiteral{Elements: elems} }

func call(recv ast.Node, msg string, args ...ast.Node) *ast.CallNode {
	n := &ast.CallNode{Receiver: recv, Message: msg}
	if recv != nil {
		n.Operator = "."
	}
	if len(args) > 0 {
		n.Arguments = &ast.Args{Parts: args}
	}
	return n
}

func withBlock(n *ast.CallNode, params []string, body ...ast.Node) *ast.CallNode {
	n.Block = &ast.BlockNode{Params: &ast.Params{Requireds: params}, Body: stmts(body...)}
	return n
}

func def(name string, params *ast.Params, body ast.Node) *ast.DefNode {
	return &ast.DefNode{Name: name, Params: params, Body: body}
}

func class(name string, super ast.Node, body ...ast.Node) *ast.ClassDeclaration {
	return &ast.ClassDeclaration{
		Constant:   ref(name),
		Superclass: super,
		Bodystmt:   &ast.Bodystmt{Statements: stmts(body...)},
	}
}

// run compiles p and runs it on a fresh VM writing to out.
func run(t *testing.T, p *ast.Program, out *bytes.Buffer) (*VM, Value, error) {
	t.Helper()
	iseq, err := compiler.Compile(p, compiler.DefaultOptions())
	if err != nil {
		t.Fatalf("compile error: %v", err)
	}
	vm := New(Options{Stdout: out})
	v, err := vm.Run(iseq)
	return vm, v, err
}

func mustRun(t *testing.T, p *ast.Program) (*VM, Value) {
	t.Helper()
	var out bytes.Buffer
	vm, v, err := run(t, p, &out)
	if err != nil {
		t.Fatalf("run error: %v", err)
	}
	return vm, v
}

// ---------------------------------------------------------------------------
// Programs
// ---------------------------------------------------------------------------

func TestRunInspect(t *testing.T) {
	tests := []struct {
		name    string
		program *ast.Program
		want    string
	}{
		{
			name:    "precedence",
			program: prog(binary(integer("1"), "+", binary(integer("2"), "*", integer("3")))),
			want:    "7",
		},
		{
			name:    "floor division",
			program: prog(binary(integer("-7"), "/", integer("2"))),
			want:    "-4",
		},
		{
			name:    "bignum promotion",
			program: prog(call(binary(integer("2"), "**", integer("64")), "to_s")),
			want:    `"18446744073709551616"`,
		},
		{
			name: "locals",
			program: prog(
				assign("x", integer("40")),
				binary(ref("x"), "+", integer("2")),
			),
			want: "42",
		},
		{
			name:    "map with block",
			program: prog(withBlock(call(array(integer("1"), integer("2"), integer("3")), "map"), []string{"i"}, binary(ref("i"), "*", integer("2")))),
			want:    "[2, 4, 6]",
		},
		{
			name:    "string concatenation",
			program: prog(binary(str("foo"), "+", str("bar"))),
			want:    `"foobar"`,
		},
		{
			name:    "symbol array",
			program: prog(array(sym("a"), sym("b"))),
			want:    "[:a, :b]",
		},
		{
			name: "hash literal",
			program: prog(&ast.HashLiteral{Assocs: []ast.Node{
				&ast.Assoc{Key: sym("a"), Value: integer("1")},
			}}),
			want: "{:a=>1}",
		},
		{
			name:    "range to_a",
			program: prog(call(&ast.RangeNode{Left: integer("1"), Right: integer("4"), ExcludeEnd: true}, "to_a")),
			want:    "[1, 2, 3]",
		},
		{
			name: "if else",
			program: prog(&ast.If{
				Predicate:  binary(integer("1"), ">", integer("2")),
				Statements: stmts(str("yes")),
				Consequent: &ast.Else{Statements: stmts(str("no"))},
			}),
			want: `"no"`,
		},
		{
			name: "while loop",
			program: prog(
				assign("i", integer("0")),
				assign("sum", integer("0")),
				&ast.While{
					Predicate: binary(ref("i"), "<", integer("5")),
					Statements: stmts(
						assign("sum", binary(ref("sum"), "+", ref("i"))),
						assign("i", binary(ref("i"), "+", integer("1"))),
					),
				},
				ref("sum"),
			),
			want: "10",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			vm, v := mustRun(t, tt.program)
			if got := vm.Inspect(v); got != tt.want {
				t.Errorf("got %s, want %s", got, tt.want)
			}
		})
	}
}

func TestRunPutsOutput(t *testing.T) {
	var out bytes.Buffer
	p := prog(
		call(nil, "puts", str("hello")),
		call(nil, "puts", array(integer("1"), integer("2"))),
		call(nil, "p", sym("x")),
	)
	if _, _, err := run(t, p, &out); err != nil {
		t.Fatalf("run error: %v", err)
	}
	if got, want := out.String(), "hello\n1\n2\n:x\n"; got != want {
		t.Errorf("output = %q, want %q", got, want)
	}
}

func TestRunBreakFromBlock(t *testing.T) {
	p := prog(withBlock(
		call(array(integer("1"), integer("2"), integer("3")), "each"),
		[]string{"i"},
		&ast.If{
			Predicate:  binary(ref("i"), "==", integer("2")),
			Statements: stmts(&ast.Break{Arguments: &ast.Args{Parts: []ast.Node{binary(ref("i"), "*", integer("10"))}}}),
		},
	))
	_, v := mustRun(t, p)
	if v != int64(20) {
		t.Errorf("break value = %v, want 20", v)
	}
}

func TestRunRescue(t *testing.T) {
	p := prog(&ast.Begin{Bodystmt: &ast.Bodystmt{
		Statements: stmts(call(nil, "raise", str("boom"))),
		RescueClause: &ast.Rescue{
			Variable:   &ast.VarField{Name: "e"},
			Statements: stmts(call(ref("e"), "message")),
		},
	}})
	vm, v := mustRun(t, p)
	if got := vm.ToS(v); got != "boom" {
		t.Errorf("rescued message = %q, want boom", got)
	}
}

func TestRunEnsure(t *testing.T) {
	p := prog(
		assign("x", integer("0")),
		&ast.Begin{Bodystmt: &ast.Bodystmt{
			Statements:   stmts(assign("x", integer("1"))),
			EnsureClause: &ast.Ensure{Statements: stmts(assign("x", binary(ref("x"), "+", integer("10"))))},
		}},
		ref("x"),
	)
	_, v := mustRun(t, p)
	if v != int64(11) {
		t.Errorf("x = %v, want 11", v)
	}
}

func TestRunUncaughtException(t *testing.T) {
	var out bytes.Buffer
	p := prog(call(nil, "raise", ref("ArgumentError"), str("bad input")))
	vm, _, err := run(t, p, &out)
	var rerr *RubyError
	if !errors.As(err, &rerr) {
		t.Fatalf("error = %v, want *RubyError", err)
	}
	if rerr.ClassName() != "ArgumentError" || rerr.Message() != "bad input" {
		t.Errorf("got %s: %s", rerr.ClassName(), rerr.Message())
	}

	// the VM stays usable after an uncaught exception
	v, err := vm.Call(int64(2), "+", int64(3))
	if err != nil || v != int64(5) {
		t.Errorf("Call after error = %v, %v", v, err)
	}
}

func TestRunNoMethodError(t *testing.T) {
	var out bytes.Buffer
	_, _, err := run(t, prog(call(integer("1"), "frobnicate")), &out)
	var rerr *RubyError
	if !errors.As(err, &rerr) {
		t.Fatalf("error = %v, want *RubyError", err)
	}
	if rerr.ClassName() != "NoMethodError" {
		t.Errorf("class = %s, want NoMethodError", rerr.ClassName())
	}
	if name, _ := rerr.Exception.Ivar("name"); name != Symbol("frobnicate") {
		t.Errorf("name = %v", name)
	}
}

func TestRunMethodsAndKeywords(t *testing.T) {
	params := &ast.Params{
		Requireds: []string{"a"},
		Keywords:  []ast.KeywordParam{{Name: "b", Value: integer("2")}},
	}
	kw := &ast.BareAssocHash{Assocs: []ast.Node{&ast.Assoc{Key: sym("b"), Value: integer("5")}}}
	p := prog(
		def("add", params, binary(ref("a"), "+", ref("b"))),
		array(call(nil, "add", integer("1")), call(nil, "add", integer("1"), kw)),
	)
	vm, v := mustRun(t, p)
	if got := vm.Inspect(v); got != "[3, 6]" {
		t.Errorf("got %s, want [3, 6]", got)
	}
}

func TestRunClassesAndSuper(t *testing.T) {
	p := prog(
		class("Greeter", nil, def("hi", nil, str("hi"))),
		class("Loud", ref("Greeter"), def("hi", nil, binary(&ast.ZSuper{}, "+", str("!")))),
		call(call(ref("Loud"), "new"), "hi"),
	)
	vm, v := mustRun(t, p)
	if got := vm.ToS(v); got != "hi!" {
		t.Errorf("got %q, want hi!", got)
	}
	loud, _ := vm.ObjectClass.ConstGet("Loud")
	greeter, _ := vm.ObjectClass.ConstGet("Greeter")
	if !loud.(*Class).IsSubclassOf(greeter.(*Class)) {
		t.Error("Loud should inherit from Greeter")
	}
}

func TestRunArrayPattern(t *testing.T) {
	p := prog(&ast.Case{
		Value: array(integer("1"), integer("2")),
		Consequent: &ast.In{
			Pattern: &ast.AryPtn{Requireds: []ast.Node{
				&ast.VarField{Name: "a"},
				&ast.VarField{Name: "b"},
			}},
			Statements: stmts(binary(ref("a"), "+", ref("b"))),
		},
	})
	_, v := mustRun(t, p)
	if v != int64(3) {
		t.Errorf("got %v, want 3", v)
	}
}

func TestRunNoMatchingPattern(t *testing.T) {
	var out bytes.Buffer
	p := prog(&ast.Case{
		Value: integer("5"),
		Consequent: &ast.In{
			Pattern:    ref("String"),
			Statements: stmts(integer("1")),
		},
	})
	_, _, err := run(t, p, &out)
	var rerr *RubyError
	if !errors.As(err, &rerr) || rerr.ClassName() != "NoMatchingPatternError" {
		t.Fatalf("error = %v, want NoMatchingPatternError", err)
	}
	if rerr.Message() != "5" {
		t.Errorf("message = %q, want 5", rerr.Message())
	}
}

func TestRunStackOverflow(t *testing.T) {
	var out bytes.Buffer
	iseq, err := compiler.Compile(prog(
		def("down", nil, call(nil, "down")),
		call(nil, "down"),
	), compiler.DefaultOptions())
	if err != nil {
		t.Fatalf("compile error: %v", err)
	}
	vm := New(Options{Stdout: &out, MaxFrames: 200})
	_, err = vm.Run(iseq)
	var rerr *RubyError
	if !errors.As(err, &rerr) || rerr.ClassName() != "SystemStackError" {
		t.Fatalf("error = %v, want SystemStackError", err)
	}
}

func TestRunEndBlocks(t *testing.T) {
	var out bytes.Buffer
	p := prog(
		&ast.ENDBlock{Statements: stmts(call(nil, "puts", str("bye")))},
		call(nil, "puts", str("hi")),
	)
	if _, _, err := run(t, p, &out); err != nil {
		t.Fatalf("run error: %v", err)
	}
	if got := out.String(); got != "hi\nbye\n" {
		t.Errorf("output = %q", got)
	}
}

// ---------------------------------------------------------------------------
// Calls from Go
// ---------------------------------------------------------------------------

func TestCallBuiltins(t *testing.T) {
	vm := New(Options{Stdout: &bytes.Buffer{}})
	tests := []struct {
		name string
		recv Value
		meth string
		args []Value
		want string
	}{
		{"succ", NewString("az"), "succ", nil, `"ba"`},
		{"split", NewString("a,b,,c"), "split", []Value{NewString(",")}, `["a", "b", "", "c"]`},
		{"format", NewString("%05.2f|%-3s|%x"), "%", []Value{NewArray(3.14159, NewString("a"), int64(255))}, `"03.14|a  |ff"`},
		{"sort", NewArray(int64(3), int64(1), int64(2)), "sort", nil, "[1, 2, 3]"},
		{"flatten", NewArray(int64(1), NewArray(int64(2), NewArray(int64(3)))), "flatten", nil, "[1, 2, 3]"},
		{"uniq", NewArray(int64(1), int64(1), NewString("a"), NewString("a")), "uniq", nil, `[1, "a"]`},
		{"join", NewArray(int64(1), int64(2)), "join", []Value{NewString("-")}, `"1-2"`},
		{"float", 1e20, "to_s", nil, `"1.0e+20"`},
		{"divmod", int64(-7), "divmod", []Value{int64(2)}, "[-4, 1]"},
		{"overflow", int64(1 << 62), "*", []Value{int64(4)}, "18446744073709551616"},
		{"range sum", &Range{Begin: int64(1), End: int64(100)}, "sum", nil, "5050"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v, err := vm.Call(tt.recv, tt.meth, tt.args...)
			if err != nil {
				t.Fatalf("call error: %v", err)
			}
			if got := vm.Inspect(v); got != tt.want {
				t.Errorf("got %s, want %s", got, tt.want)
			}
		})
	}
}

func TestHashFetch(t *testing.T) {
	vm := New(Options{Stdout: &bytes.Buffer{}})
	h := NewHash()
	h.Set(Symbol("a"), int64(1))

	if _, err := vm.Call(h, "fetch", Symbol("b")); err == nil {
		t.Fatal("fetch of a missing key should raise")
	} else {
		var rerr *RubyError
		if !errors.As(err, &rerr) || rerr.ClassName() != "KeyError" || rerr.Message() != "key not found: :b" {
			t.Errorf("got %v", err)
		}
	}

	h.Default = int64(0)
	if v := vm.hashFetch(h, Symbol("b")); v != int64(0) {
		t.Errorf("default = %v, want 0", v)
	}
	if v := vm.hashFetch(h, Symbol("a")); v != int64(1) {
		t.Errorf("stored = %v, want 1", v)
	}
}

func TestArithPromotion(t *testing.T) {
	vm := New(Options{Stdout: &bytes.Buffer{}})
	v := vm.arith("+", int64(1<<63-1), int64(1))
	b, ok := v.(*big.Int)
	if !ok || b.String() != "9223372036854775808" {
		t.Fatalf("got %v", v)
	}
	if back := vm.arith("-", v, int64(1)); back != int64(1<<63-1) {
		t.Errorf("demotion = %v (%T)", back, back)
	}
}
