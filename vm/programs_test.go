package vm

import (
	"testing"

	"github.com/ruby-syntax-tree/syntax-tree-sub003/ast"
)

func when(values []ast.Node, body ast.Node, next ast.Node) *ast.When {
	return &ast.When{Arguments: &ast.Args{Parts: values}, Statements: stmts(body), Consequent: next}
}

func TestRunLanguageFeatures(t *testing.T) {
	tests := []struct {
		name    string
		program *ast.Program
		want    string
	}{
		{
			name: "case when dispatch",
			program: prog(&ast.Case{
				Value: integer("2"),
				Consequent: when([]ast.Node{integer("1")}, str("one"),
					when([]ast.Node{integer("2"), integer("3")}, str("two or three"),
						&ast.Else{Statements: stmts(str("other"))})),
			}),
			want: `"two or three"`,
		},
		{
			name: "case when range",
			program: prog(&ast.Case{
				Value: integer("15"),
				Consequent: when([]ast.Node{&ast.RangeNode{Left: integer("1"), Right: integer("9")}}, str("small"),
					when([]ast.Node{&ast.RangeNode{Left: integer("10"), Right: integer("99")}}, str("medium"), nil)),
			}),
			want: `"medium"`,
		},
		{
			name: "string interpolation",
			program: prog(&ast.StringLiteral{Parts: []ast.Node{
				&ast.TStringContent{Value: "a"},
				&ast.StringEmbExpr{Statements: stmts(binary(integer("1"), "+", integer("2")))},
				&ast.TStringContent{Value: "b"},
			}}),
			want: `"a3b"`,
		},
		{
			name: "multiple assignment with splat",
			program: prog(
				&ast.MAssign{
					Target: &ast.MLHS{Parts: []ast.Node{
						&ast.VarField{Name: "a"},
						&ast.SplatTarget{Value: &ast.VarField{Name: "b"}},
					}},
					Value: array(integer("1"), integer("2"), integer("3")),
				},
				array(ref("a"), ref("b")),
			),
			want: "[1, [2, 3]]",
		},
		{
			name: "operator assignment",
			program: prog(
				assign("x", &ast.NilNode{}),
				&ast.OpAssign{Target: &ast.VarField{Name: "x"}, Operator: "||=", Value: integer("5")},
				&ast.OpAssign{Target: &ast.VarField{Name: "x"}, Operator: "+=", Value: integer("1")},
				ref("x"),
			),
			want: "6",
		},
		{
			name: "instance variables",
			program: prog(
				class("Box", nil,
					def("initialize", &ast.Params{Requireds: []string{"v"}}, assign("@v", ref("v"))),
					def("v", nil, ref("@v")),
				),
				call(call(ref("Box"), "new", integer("4")), "v"),
			),
			want: "4",
		},
		{
			name: "yield",
			program: prog(
				def("twice", nil, binary(
					&ast.Yield{Arguments: &ast.Args{Parts: []ast.Node{integer("1")}}},
					"+",
					&ast.Yield{Arguments: &ast.Args{Parts: []ast.Node{integer("2")}}},
				)),
				withBlock(call(nil, "twice"), []string{"x"}, binary(ref("x"), "*", integer("10"))),
			),
			want: "30",
		},
		{
			name: "hash pattern",
			program: prog(&ast.Case{
				Value: &ast.HashLiteral{Assocs: []ast.Node{
					&ast.Assoc{Key: sym("a"), Value: integer("1")},
					&ast.Assoc{Key: sym("b"), Value: integer("2")},
				}},
				Consequent: &ast.In{
					Pattern:    &ast.HshPtn{Keywords: []ast.HshPtnEntry{{Key: "b"}}},
					Statements: stmts(ref("b")),
				},
			}),
			want: "2",
		},
		{
			name: "binding pattern",
			program: prog(&ast.Case{
				Value: integer("7"),
				Consequent: &ast.In{
					Pattern:    &ast.BindingPattern{Pattern: ref("Integer"), Name: "n"},
					Statements: stmts(binary(ref("n"), "*", integer("2"))),
				},
			}),
			want: "14",
		},
		{
			name: "unless",
			program: prog(&ast.Unless{
				Predicate:  binary(integer("1"), "==", integer("2")),
				Statements: stmts(sym("different")),
			}),
			want: ":different",
		},
		{
			name: "until",
			program: prog(
				assign("n", integer("1")),
				&ast.Until{
					Predicate:  binary(ref("n"), ">", integer("100")),
					Statements: stmts(assign("n", binary(ref("n"), "*", integer("3")))),
				},
				ref("n"),
			),
			want: "243",
		},
		{
			name: "rescue modifier",
			program: prog(&ast.RescueMod{
				Statement: call(nil, "raise", str("x")),
				Value:     sym("rescued"),
			}),
			want: ":rescued",
		},
		{
			name: "lambda call",
			program: prog(
				assign("sq", &ast.Lambda{
					Params: &ast.Params{Requireds: []string{"x"}},
					Body:   stmts(binary(ref("x"), "*", ref("x"))),
				}),
				call(ref("sq"), "call", integer("9")),
			),
			want: "81",
		},
		{
			name: "defined",
			program: prog(
				array(&ast.Defined{Value: ref("puts")}, &ast.Defined{Value: ref("@nope")}),
			),
			want: `["method", nil]`,
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
