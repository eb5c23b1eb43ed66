package compiler

import (
	"reflect"
	"testing"

	"github.com/ruby-syntax-tree/syntax-tree-sub003/analysis"
	"github.com/ruby-syntax-tree/syntax-tree-sub003/ast"
	"github.com/ruby-syntax-tree/syntax-tree-sub003/bytecode"
)

func replay(iseq *bytecode.InstructionSequence) (max int, err error) {
	defer bytecode.RecoverInternal(&err)
	_, max = bytecode.StackDepths(iseq)
	return max, nil
}

func eachISeq(iseq *bytecode.InstructionSequence, f func(*bytecode.InstructionSequence)) {
	f(iseq)
	for _, child := range iseq.Children() {
		eachISeq(child, f)
	}
}

func stackCases() []compileCase {
	cases := append([]compileCase(nil), instructionCases...)
	method := func(name string, params *ast.Params, body ...ast.Node) *ast.DefNode {
		return &ast.DefNode{Name: name, Params: params, Body: stmts(body...)}
	}
	return append(cases,
		compileCase{name: "while loop", program: program(
			assign("x", &ast.TrueNode{}),
			&ast.While{Predicate: ref("x"), Statements: stmts(assign("x", &ast.FalseNode{}))},
		)},
		compileCase{name: "block break", program: program(&ast.CallNode{
			Receiver: &ast.ArrayLiteral{Elements: []ast.Node{integer("1")}},
			Operator: ".",
			Message:  "each",
			Block:    &ast.BlockNode{Body: stmts(&ast.Break{Arguments: args(integer("2"))})},
		})},
		compileCase{name: "rescue and ensure", program: program(&ast.Begin{Bodystmt: &ast.Bodystmt{
			Statements: stmts(&ast.CallNode{Message: "risky"}),
			RescueClause: &ast.Rescue{
				Exceptions: []ast.Node{ref("ArgumentError")},
				Variable:   &ast.VarField{Name: "e"},
				Statements: stmts(ref("e")),
			},
			EnsureClause: &ast.Ensure{Statements: stmts(&ast.CallNode{Message: "cleanup"})},
		}})},
		compileCase{name: "method definition", program: program(
			method("double", &ast.Params{Requireds: []string{"n"}},
				&ast.Binary{Left: ref("n"), Operator: "*", Right: integer("2")}),
		)},
		compileCase{name: "case when as a method body", program: program(
			method("f", &ast.Params{Requireds: []string{"x"}}, &ast.Case{
				Value:      ref("x"),
				Consequent: &ast.When{Arguments: args(ref("x")), Statements: stmts(str("a"))},
			}),
		)},
		compileCase{name: "code after return", program: program(
			method("g", nil,
				&ast.ReturnNode{Arguments: args(integer("7"))},
				&ast.ArrayLiteral{Elements: []ast.Node{integer("1"), &ast.CallNode{Message: "zz"}, integer("2")}},
			),
		)},
		compileCase{name: "return through ensure", program: program(&ast.DefNode{
			Name: "e",
			Body: &ast.Bodystmt{
				Statements:   stmts(&ast.ReturnNode{Arguments: args(integer("1"))}),
				EnsureClause: &ast.Ensure{Statements: stmts(assign("$z", integer("2")))},
			},
		})},
		compileCase{name: "keyword default", program: program(
			method("m", &ast.Params{Keywords: []ast.KeywordParam{{Name: "k", Value: &ast.CallNode{Message: "foo"}}}}, ref("k")),
		)},
		compileCase{name: "rightward array pattern", program: program(&ast.RAssign{
			Value:    &ast.ArrayLiteral{Elements: []ast.Node{integer("1")}},
			Operator: "=>",
			Pattern:  &ast.AryPtn{Requireds: []ast.Node{&ast.VarField{Name: "a"}, &ast.VarField{Name: "b"}}},
		})},
		compileCase{name: "rightward hash pattern", program: program(&ast.RAssign{
			Value:    &ast.HashLiteral{Assocs: []ast.Node{&ast.Assoc{Key: &ast.SymbolLiteral{Value: "a"}, Value: integer("1")}}},
			Operator: "=>",
			Pattern:  &ast.HshPtn{Keywords: []ast.HshPtnEntry{{Key: "b"}}},
		})},
	)
}

func TestCompiledStackDepths(t *testing.T) {
	for _, tt := range stackCases() {
		t.Run(tt.name, func(t *testing.T) {
			eachISeq(mustCompile(t, tt.program), func(iseq *bytecode.InstructionSequence) {
				max, err := replay(iseq)
				if err != nil {
					t.Errorf("%s: replay: %v", iseq.Name, err)
					return
				}
				if max != iseq.StackMax() {
					t.Errorf("%s: replayed stack max = %d, recorded %d", iseq.Name, max, iseq.StackMax())
				}
				if _, err := analysis.BuildSeaOfNodes(iseq); err != nil {
					t.Errorf("%s: sea of nodes: %v\n%v", iseq.Name, err, names(iseq))
				}
			})
		})
	}
}

func TestDeadCodeDoesNotRaiseStackMax(t *testing.T) {
	def := &ast.DefNode{Name: "g", Body: stmts(
		&ast.ReturnNode{Arguments: args(integer("7"))},
		&ast.ArrayLiteral{Elements: []ast.Node{integer("1"), &ast.CallNode{Message: "zz"}, integer("2")}},
	)}
	method := mustCompile(t, program(def)).Children()[0]
	if got := names(method); !reflect.DeepEqual(got, []string{"putobject", "leave"}) {
		t.Errorf("method body = %v, want [putobject leave]", got)
	}
	if got := method.StackMax(); got != 1 {
		t.Errorf("stack max = %d, want 1", got)
	}
}
