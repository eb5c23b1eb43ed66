package compiler

import (
	"errors"
	"reflect"
	"testing"

	"github.com/ruby-syntax-tree/syntax-tree-sub003/ast"
	"github.com/ruby-syntax-tree/syntax-tree-sub003/bytecode"
)

func program(stmts ...ast.Node) *ast.Program {
	return &ast.Program{Statements: &ast.Statements{Body: stmts}}
}

func stmts(nodes ...ast.Node) *ast.Statements { return &ast.Statements{Body: nodes} }

func integer(text string) *ast.Int { return &ast.Int{Value: text} }

func args(parts ...ast.Node) *ast.Args { return &ast.Args{Parts: parts} }

func assign(name string, value ast.Node) *ast.Assign {
	return &ast.Assign{Target: &ast.VarField{Name: name}, Value: value}
}

func ref(name string) *ast.VarRef { return &ast.VarRef{Name: name} }

func str(text string) *ast.StringLiteral {
	return &ast.StringLiteral{Parts: []ast.Node{&ast.TStringContent{Value: text}}}
}

func mustCompile(t *testing.T, p *ast.Program) *bytecode.InstructionSequence {
	t.Helper()
	iseq, err := Compile(p, DefaultOptions())
	if err != nil {
		t.Fatalf("compile error: %v", err)
	}
	return iseq
}

func names(iseq *bytecode.InstructionSequence) []string {
	var out []string
	for _, insn := range iseq.Instructions() {
		out = append(out, insn.Name())
	}
	return out
}

func catchTypes(iseq *bytecode.InstructionSequence) []bytecode.CatchType {
	var out []bytecode.CatchType
	for _, entry := range iseq.CatchTable {
		out = append(out, entry.Type)
	}
	return out
}

type compileCase struct {
	name    string
	program *ast.Program
	want    []string
}

var instructionCases = []compileCase{
	{
		name:    "integer addition",
		program: program(&ast.Binary{Left: integer("1"), Operator: "+", Right: integer("2")}),
		want:    []string{"putobject_INT2FIX_1_", "putobject", "opt_plus", "leave"},
	},
	{
		name: "array max",
		program: program(&ast.CallNode{
			Receiver: &ast.ArrayLiteral{Elements: []ast.Node{integer("1"), integer("2"), integer("3")}},
			Operator: ".",
			Message:  "max",
		}),
		want: []string{"putobject_INT2FIX_1_", "putobject", "putobject", "opt_newarray_max", "leave"},
	},
	{
		name: "local variable",
		program: program(
			assign("x", integer("1")),
			&ast.Binary{Left: ref("x"), Operator: "+", Right: integer("2")},
		),
		want: []string{"putobject_INT2FIX_1_", "setlocal_WC_0", "getlocal_WC_0", "putobject", "opt_plus", "leave"},
	},
	{
		name: "if else in tail position",
		program: program(
			assign("x", integer("1")),
			&ast.If{
				Predicate:  ref("x"),
				Statements: stmts(integer("2")),
				Consequent: &ast.Else{Statements: stmts(integer("3"))},
			},
		),
		want: []string{
			"putobject_INT2FIX_1_", "setlocal_WC_0",
			"getlocal_WC_0", "branchunless",
			"putobject", "leave",
			"putobject", "leave",
		},
	},
	{
		name:    "statement literals are dropped",
		program: program(integer("5"), &ast.NilNode{}),
		want:    []string{"putnil", "leave"},
	},
	{
		name:    "method call on self",
		program: program(&ast.CallNode{Message: "puts", Arguments: args(integer("0"))}),
		want:    []string{"putself", "putobject_INT2FIX_0_", "opt_send_without_block", "leave"},
	},
	{
		name: "and in statement position",
		program: program(
			assign("x", &ast.TrueNode{}),
			&ast.Binary{Left: ref("x"), Operator: "&&", Right: integer("1")},
			&ast.NilNode{},
		),
		want: []string{
			"putobject", "setlocal_WC_0",
			"getlocal_WC_0", "branchunless",
			"putnil", "leave",
		},
	},
	{
		name: "case when in tail position",
		program: program(
			assign("x", integer("1")),
			&ast.Case{
				Value: ref("x"),
				Consequent: &ast.When{
					Arguments:  args(integer("1")),
					Statements: stmts(str("a")),
					Consequent: &ast.Else{Statements: stmts(str("b"))},
				},
			},
		),
		want: []string{
			"putobject_INT2FIX_1_", "setlocal_WC_0",
			"getlocal_WC_0", "dup", "opt_case_dispatch",
			"putobject_INT2FIX_1_", "topn", "opt_send_without_block", "branchif",
			"pop", "putstring", "leave",
			"pop", "putstring", "leave",
		},
	},
	{
		name: "case without value in tail position",
		program: program(
			assign("x", integer("1")),
			&ast.Case{Consequent: &ast.When{Arguments: args(ref("x")), Statements: stmts(str("a"))}},
		),
		want: []string{
			"putobject_INT2FIX_1_", "setlocal_WC_0",
			"getlocal_WC_0", "branchif",
			"putnil", "leave",
			"putstring", "leave",
		},
	},
	{
		name: "case when in statement position",
		program: program(
			assign("x", integer("1")),
			&ast.Case{Consequent: &ast.When{Arguments: args(ref("x")), Statements: stmts(&ast.CallNode{Message: "a"})}},
			&ast.NilNode{},
		),
		want: []string{
			"putobject_INT2FIX_1_", "setlocal_WC_0",
			"getlocal_WC_0", "branchif",
			"jump",
			"putself", "opt_send_without_block", "pop",
			"putnil", "leave",
		},
	},
	{
		name: "safe navigation",
		program: program(
			assign("x", &ast.NilNode{}),
			&ast.CallNode{Receiver: ref("x"), Operator: "&.", Message: "length"},
		),
		want: []string{"putnil", "setlocal_WC_0", "getlocal_WC_0", "dup", "branchnil", "opt_length", "leave"},
	},
	{
		name: "global or-assign",
		program: program(
			&ast.OpAssign{Target: &ast.VarField{Name: "$g"}, Operator: "||=", Value: integer("1")},
		),
		want: []string{
			"putnil", "defined", "branchunless",
			"getglobal", "dup", "branchif", "pop",
			"putobject_INT2FIX_1_", "dup", "setglobal",
			"leave",
		},
	},
	{
		name: "global or-assign in statement position",
		program: program(
			&ast.OpAssign{Target: &ast.VarField{Name: "$g"}, Operator: "||=", Value: integer("1")},
			&ast.NilNode{},
		),
		want: []string{
			"putnil", "defined", "branchunless",
			"getglobal", "dup", "branchif", "pop",
			"putobject_INT2FIX_1_", "dup", "setglobal",
			"pop", "putnil", "leave",
		},
	},
	{
		name: "constant or-assign",
		program: program(
			&ast.OpAssign{Target: &ast.VarField{Name: "Foo"}, Operator: "||=", Value: integer("1")},
		),
		want: []string{
			"putnil", "defined", "branchunless",
			"opt_getconstant_path", "dup", "branchif", "pop",
			"putobject_INT2FIX_1_", "dup", "putspecialobject", "setconstant",
			"leave",
		},
	},
	{
		name: "local or-assign skips the defined check",
		program: program(
			&ast.OpAssign{Target: &ast.VarField{Name: "x"}, Operator: "||=", Value: integer("1")},
		),
		want: []string{
			"getlocal_WC_0", "dup", "branchif", "pop",
			"putobject_INT2FIX_1_", "dup", "setlocal_WC_0",
			"leave",
		},
	},
	{
		name: "indexed op-assign",
		program: program(
			assign("a", &ast.ArrayLiteral{Elements: []ast.Node{integer("1")}}),
			&ast.OpAssign{
				Target:   &ast.ARefField{Collection: ref("a"), Index: args(integer("0"))},
				Operator: "+=",
				Value:    integer("1"),
			},
		),
		want: []string{
			"duparray", "setlocal_WC_0",
			"putnil", "getlocal_WC_0", "putobject_INT2FIX_0_", "dupn", "opt_aref",
			"putobject_INT2FIX_1_", "opt_plus", "setn", "opt_aset", "pop",
			"leave",
		},
	},
	{
		name: "attribute op-assign",
		program: program(
			assign("o", &ast.NilNode{}),
			&ast.OpAssign{
				Target:   &ast.Field{Parent: ref("o"), Operator: ".", Name: "x"},
				Operator: "+=",
				Value:    integer("1"),
			},
		),
		want: []string{
			"putnil", "setlocal_WC_0",
			"getlocal_WC_0", "dup", "opt_send_without_block",
			"putobject_INT2FIX_1_", "opt_plus",
			"swap", "topn", "opt_send_without_block", "pop",
			"leave",
		},
	},
	{
		name:    "static array",
		program: program(&ast.ArrayLiteral{Elements: []ast.Node{integer("1"), integer("2")}}),
		want:    []string{"duparray", "leave"},
	},
	{
		name: "static hash",
		program: program(&ast.HashLiteral{Assocs: []ast.Node{
			&ast.Assoc{Key: &ast.SymbolLiteral{Value: "a"}, Value: integer("1")},
		}}),
		want: []string{"duphash", "leave"},
	},
	{
		name: "array with splat",
		program: program(
			assign("a", &ast.ArrayLiteral{Elements: []ast.Node{integer("3")}}),
			&ast.ArrayLiteral{Elements: []ast.Node{integer("1"), &ast.ArgStar{Value: ref("a")}, integer("2")}},
		),
		want: []string{
			"duparray", "setlocal_WC_0",
			"putobject_INT2FIX_1_", "newarray",
			"getlocal_WC_0", "concatarray",
			"putobject", "newarray", "concatarray",
			"leave",
		},
	},
	{
		name: "array starting with splat",
		program: program(
			assign("a", &ast.ArrayLiteral{Elements: []ast.Node{integer("3")}}),
			&ast.ArrayLiteral{Elements: []ast.Node{&ast.ArgStar{Value: ref("a")}}},
		),
		want: []string{"duparray", "setlocal_WC_0", "getlocal_WC_0", "splatarray", "leave"},
	},
}

func TestCompileInstructions(t *testing.T) {
	for _, tt := range instructionCases {
		t.Run(tt.name, func(t *testing.T) {
			iseq := mustCompile(t, tt.program)
			if got := names(iseq); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("instructions = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestCompileWithoutSpecialization(t *testing.T) {
	opts := DefaultOptions()
	opts.SpecializedInstruction = false
	opts.OperandsUnification = false

	p := program(&ast.Binary{Left: integer("1"), Operator: "+", Right: integer("2")})
	iseq, err := Compile(p, opts)
	if err != nil {
		t.Fatalf("compile error: %v", err)
	}
	want := []string{"putobject", "putobject", "send", "leave"}
	if got := names(iseq); !reflect.DeepEqual(got, want) {
		t.Errorf("instructions = %v, want %v", got, want)
	}
}

func TestCompileFrozenStringLiteral(t *testing.T) {
	hello := str("hello")

	tests := []struct {
		comments []string
		want     string
	}{
		{nil, "putstring"},
		{[]string{"# frozen_string_literal: true"}, "putobject"},
		{[]string{"# -*- frozen-string-literal: true -*-"}, "putobject"},
		{[]string{"# frozen_string_literal: false"}, "putstring"},
	}

	for _, tt := range tests {
		p := program(hello)
		p.MagicComments = tt.comments
		iseq := mustCompile(t, p)
		if got := iseq.Instructions()[0].Name(); got != tt.want {
			t.Errorf("comments %q: first instruction = %s, want %s", tt.comments, got, tt.want)
		}
	}
}

func TestCompileWhileCatchTable(t *testing.T) {
	loop := &ast.While{
		Predicate:  ref("x"),
		Statements: stmts(assign("x", &ast.FalseNode{})),
	}
	iseq := mustCompile(t, program(assign("x", &ast.TrueNode{}), loop))

	want := []bytecode.CatchType{bytecode.CatchTypeBreak, bytecode.CatchTypeNext, bytecode.CatchTypeRedo}
	if got := catchTypes(iseq); !reflect.DeepEqual(got, want) {
		t.Errorf("catch table = %v, want %v", got, want)
	}
	for _, entry := range iseq.CatchTable {
		if !entry.BeginLabel.Resolved() || !entry.EndLabel.Resolved() || !entry.ExitLabel.Resolved() {
			t.Errorf("%s entry has unresolved labels", entry.Type)
		}
	}
	if _, max := bytecode.StackDepths(iseq); max != iseq.StackMax() {
		t.Errorf("replayed stack max = %d, tracked %d", max, iseq.StackMax())
	}
}

func TestCompileBlockBreak(t *testing.T) {
	call := &ast.CallNode{
		Receiver: &ast.ArrayLiteral{Elements: []ast.Node{integer("1")}},
		Operator: ".",
		Message:  "each",
		Block: &ast.BlockNode{
			Body: stmts(&ast.Break{Arguments: args(integer("2"))}),
		},
	}
	iseq := mustCompile(t, program(call))

	if got := catchTypes(iseq); !reflect.DeepEqual(got, []bytecode.CatchType{bytecode.CatchTypeBreak}) {
		t.Fatalf("catch table = %v, want [break]", got)
	}
	entry := iseq.CatchTable[0]
	if entry.ISeq != nil {
		t.Errorf("break entry has a handler sequence")
	}
	if entry.EndLabel != entry.ExitLabel {
		t.Errorf("break entry should exit at its end label")
	}

	children := iseq.Children()
	if len(children) != 1 || children[0].Type != bytecode.TypeBlock {
		t.Fatalf("children = %v, want one block", children)
	}
	block := children[0]
	found := false
	for _, insn := range block.Instructions() {
		if th, ok := insn.(*bytecode.Throw); ok && th.Type == bytecode.TagBreak {
			found = true
		}
	}
	if !found {
		t.Errorf("block %v does not throw break", names(block))
	}
	if got := catchTypes(block); !reflect.DeepEqual(got, []bytecode.CatchType{bytecode.CatchTypeRedo, bytecode.CatchTypeNext}) {
		t.Errorf("block catch table = %v, want [redo next]", got)
	}
}

func TestCompileRescueEnsure(t *testing.T) {
	body := &ast.Bodystmt{
		Statements: stmts(&ast.CallNode{Message: "risky"}),
		RescueClause: &ast.Rescue{
			Exceptions: []ast.Node{&ast.VarRef{Name: "ArgumentError"}},
			Variable:   &ast.VarField{Name: "e"},
			Statements: stmts(ref("e")),
		},
		EnsureClause: &ast.Ensure{Statements: stmts(&ast.CallNode{Message: "cleanup"})},
	}
	iseq := mustCompile(t, program(&ast.Begin{Bodystmt: body}))

	want := []bytecode.CatchType{bytecode.CatchTypeRescue, bytecode.CatchTypeRetry, bytecode.CatchTypeEnsure}
	if got := catchTypes(iseq); !reflect.DeepEqual(got, want) {
		t.Fatalf("catch table = %v, want %v", got, want)
	}
	rescue := iseq.CatchTable[0].ISeq
	if rescue == nil || rescue.Type != bytecode.TypeRescue {
		t.Fatalf("rescue handler = %v", rescue)
	}
	if rescue.Locals.Find("$!") != 0 {
		t.Errorf("rescue locals = %v, want $! first", rescue.Locals.Names())
	}
	if iseq.Locals.Find("e") < 0 {
		t.Errorf("rescue variable should be declared in the protected scope, locals = %v", iseq.Locals.Names())
	}
	ensure := iseq.CatchTable[2].ISeq
	if ensure == nil || ensure.Type != bytecode.TypeEnsure {
		t.Fatalf("ensure handler = %v", ensure)
	}
	last := ensure.Instructions()[len(ensure.Instructions())-1]
	if th, ok := last.(*bytecode.Throw); !ok || th.Type != bytecode.TagNone {
		t.Errorf("ensure handler should end by rethrowing, ends with %s", last.Name())
	}
}

func TestCompileMethodDefinition(t *testing.T) {
	def := &ast.DefNode{
		Name:   "double",
		Params: &ast.Params{Requireds: []string{"n"}},
		Body: stmts(&ast.Binary{Left: ref("n"), Operator: "*", Right: integer("2")}),
	}
	iseq := mustCompile(t, program(def))

	want := []string{"definemethod", "putobject", "leave"}
	if got := names(iseq); !reflect.DeepEqual(got, want) {
		t.Fatalf("instructions = %v, want %v", got, want)
	}
	method := iseq.Children()[0]
	if method.Type != bytecode.TypeMethod || method.Name != "double" {
		t.Errorf("method = %s %q", method.Type, method.Name)
	}
	if method.Args.LeadNum != 1 || method.ArgumentSize != 1 {
		t.Errorf("lead_num = %d, arg_size = %d", method.Args.LeadNum, method.ArgumentSize)
	}
	wantBody := []string{"getlocal_WC_0", "putobject", "opt_mult", "leave"}
	if got := names(method); !reflect.DeepEqual(got, wantBody) {
		t.Errorf("method body = %v, want %v", got, wantBody)
	}
}

func TestCompileFaults(t *testing.T) {
	tests := []struct {
		name    string
		program *ast.Program
	}{
		{"break outside a loop", program(&ast.Break{})},
		{"yield outside a method", program(&ast.Yield{})},
		{"retry outside rescue", program(&ast.Retry{})},
		{"nested program", program(program())},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Compile(tt.program, DefaultOptions())
			var internal *bytecode.InternalError
			if !errors.As(err, &internal) {
				t.Fatalf("err = %v, want *bytecode.InternalError", err)
			}
		})
	}
}

func TestMagicFrozenStringLiteral(t *testing.T) {
	tests := []struct {
		comment string
		want    bool
	}{
		{"# frozen_string_literal: true", true},
		{"#frozen_string_literal:true", true},
		{"# -*- coding: utf-8; frozen_string_literal: true -*-", true},
		{"# Frozen-String-Literal: TRUE", true},
		{"# frozen_string_literal: false", false},
		{"# encoding: utf-8", false},
	}
	for _, tt := range tests {
		if got := magicFrozenStringLiteral(tt.comment); got != tt.want {
			t.Errorf("magicFrozenStringLiteral(%q) = %v, want %v", tt.comment, got, tt.want)
		}
	}
}

func TestCompileKeywordDefaults(t *testing.T) {
	tests := []struct {
		name    string
		value   ast.Node
		want    []string
		keyword int
	}{
		{
			name:    "computed default",
			value:   &ast.CallNode{Message: "foo"},
			want:    []string{"checkkeyword", "branchif", "putself", "opt_send_without_block", "setlocal_WC_0", "getlocal_WC_0", "leave"},
			keyword: 1,
		},
		{
			name:    "static default",
			value:   integer("1"),
			want:    []string{"getlocal_WC_0", "leave"},
			keyword: 2,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			def := &ast.DefNode{
				Name:   "m",
				Params: &ast.Params{Keywords: []ast.KeywordParam{{Name: "k", Value: tt.value}}},
				Body:   stmts(ref("k")),
			}
			method := mustCompile(t, program(def)).Children()[0]
			if got := names(method); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("method body = %v, want %v", got, tt.want)
			}
			if len(method.Args.Keyword) != 1 {
				t.Fatalf("keywords = %v, want one", method.Args.Keyword)
			}
			entry, ok := method.Args.Keyword[0].([]any)
			if !ok || len(entry) != tt.keyword {
				t.Errorf("keyword entry = %#v, want %d elements", method.Args.Keyword[0], tt.keyword)
			}
		})
	}
}

// patternCalls lists the methods a sequence sends and the class and string
// operands it pushes.
func patternCalls(iseq *bytecode.InstructionSequence) (sends []string, objects []any) {
	for _, insn := range iseq.Instructions() {
		switch v := bytecode.Canonical(insn).(type) {
		case *bytecode.Send:
			sends = append(sends, v.CallData.Method)
		case *bytecode.PutObject:
			switch v.Object.(type) {
			case bytecode.ClassRef, string:
				objects = append(objects, v.Object)
			}
		}
	}
	return sends, objects
}

func count(list []string, s string) int {
	n := 0
	for _, v := range list {
		if v == s {
			n++
		}
	}
	return n
}

func contains(list []any, v any) bool {
	for _, x := range list {
		if x == v {
			return true
		}
	}
	return false
}

func TestCompileRightwardPatternFailures(t *testing.T) {
	tests := []struct {
		name    string
		program *ast.Program
		sends   []string
		raises  int
		objects []any
	}{
		{
			name: "array of the wrong length",
			program: program(&ast.RAssign{
				Value:    &ast.ArrayLiteral{Elements: []ast.Node{integer("1")}},
				Operator: "=>",
				Pattern:  &ast.AryPtn{Requireds: []ast.Node{&ast.VarField{Name: "a"}, &ast.VarField{Name: "b"}}},
			}),
			sends:   []string{"respond_to?", "deconstruct", "length", "=="},
			raises:  1,
			objects: []any{bytecode.ClassRef("NoMatchingPatternError"), "%p"},
		},
		{
			name: "hash without the key",
			program: program(&ast.RAssign{
				Value: &ast.HashLiteral{Assocs: []ast.Node{
					&ast.Assoc{Key: &ast.SymbolLiteral{Value: "a"}, Value: integer("1")},
				}},
				Operator: "=>",
				Pattern:  &ast.HshPtn{Keywords: []ast.HshPtnEntry{{Key: "b"}}},
			}),
			sends:  []string{"respond_to?", "deconstruct_keys", "key?"},
			raises: 2,
			objects: []any{
				bytecode.ClassRef("NoMatchingPatternError"), "%p",
				bytecode.ClassRef("NoMatchingPatternKeyError"), "%p: key not found: :b",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sends, objects := patternCalls(mustCompile(t, tt.program))
			for _, want := range tt.sends {
				if count(sends, want) == 0 {
					t.Errorf("sends %v do not include %s", sends, want)
				}
			}
			if got := count(sends, "raise"); got != tt.raises {
				t.Errorf("raise sent %d times, want %d", got, tt.raises)
			}
			if got := count(sends, "core#sprintf"); got != tt.raises {
				t.Errorf("core#sprintf sent %d times, want %d", got, tt.raises)
			}
			for _, want := range tt.objects {
				if !contains(objects, want) {
					t.Errorf("operands %v do not include %#v", objects, want)
				}
			}
		})
	}
}
