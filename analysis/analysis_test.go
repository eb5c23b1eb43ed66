package analysis

import (
	"errors"
	"reflect"
	"strings"
	"testing"

	"github.com/ruby-syntax-tree/syntax-tree-sub003/ast"
	"github.com/ruby-syntax-tree/syntax-tree-sub003/bytecode"
	"github.com/ruby-syntax-tree/syntax-tree-sub003/compiler"
)

// ifElse builds
//
//	0000 putobject true
//	0002 branchunless 8
//	0004 putobject 2
//	0006 jump 10
//	0008 putobject 3
//	0010 leave
func ifElse() *bytecode.InstructionSequence {
	iseq := bytecode.NewTopLevel(bytecode.DefaultOptions())
	otherwise, done := iseq.Label(), iseq.Label()
	iseq.PutObject(true)
	iseq.BranchUnless(otherwise)
	iseq.PutObject(int64(2))
	iseq.Jump(done)
	iseq.PushLabel(otherwise)
	iseq.PutObject(int64(3))
	iseq.PushLabel(done)
	iseq.Leave()
	iseq.Close()
	return iseq
}

// passThrough builds a value that survives a conditional block untouched:
//
//	0000 putobject 5
//	0002 putobject true
//	0004 branchunless 8
//	0006 putnil
//	0007 pop
//	0008 leave
func passThrough() *bytecode.InstructionSequence {
	iseq := bytecode.NewTopLevel(bytecode.DefaultOptions())
	done := iseq.Label()
	iseq.PutObject(int64(5))
	iseq.PutObject(true)
	iseq.BranchUnless(done)
	iseq.PutNil()
	iseq.Pop()
	iseq.PushLabel(done)
	iseq.Leave()
	iseq.Close()
	return iseq
}

func ids(blocks []*BasicBlock) []string {
	var out []string
	for _, b := range blocks {
		out = append(out, b.ID)
	}
	return out
}

func TestControlFlowGraphBlocks(t *testing.T) {
	cfg, err := BuildCFG(ifElse())
	if err != nil {
		t.Fatalf("BuildCFG: %v", err)
	}

	if got, want := ids(cfg.Blocks), []string{"block_0", "block_4", "block_8", "block_10"}; !reflect.DeepEqual(got, want) {
		t.Fatalf("blocks = %v, want %v", got, want)
	}
	tests := []struct {
		block string
		preds []string
		succs []string
	}{
		{"block_0", nil, []string{"block_8", "block_4"}},
		{"block_4", []string{"block_0"}, []string{"block_10"}},
		{"block_8", []string{"block_0"}, []string{"block_10"}},
		{"block_10", []string{"block_4", "block_8"}, nil},
	}
	for _, tt := range tests {
		var b *BasicBlock
		for _, candidate := range cfg.Blocks {
			if candidate.ID == tt.block {
				b = candidate
			}
		}
		if got := ids(b.Predecessors); !reflect.DeepEqual(got, tt.preds) {
			t.Errorf("%s predecessors = %v, want %v", tt.block, got, tt.preds)
		}
		if got := ids(b.Successors); !reflect.DeepEqual(got, tt.succs) {
			t.Errorf("%s successors = %v, want %v", tt.block, got, tt.succs)
		}
	}
}

func TestControlFlowGraphDropsDeadCode(t *testing.T) {
	opts := bytecode.DefaultOptions()
	opts.PeepholeOptimization = false
	iseq := bytecode.NewTopLevel(opts)
	iseq.PutNil()
	iseq.Leave()
	iseq.PutObject(int64(2))
	iseq.Leave()
	iseq.Close()

	cfg := NewControlFlowGraph(iseq)
	if len(cfg.Blocks) != 1 {
		t.Fatalf("blocks = %v", ids(cfg.Blocks))
	}
	if n := len(cfg.Entry().Insns); n != 2 {
		t.Errorf("entry block has %d instructions, want 2", n)
	}
}

func TestControlFlowGraphDisasm(t *testing.T) {
	out := NewControlFlowGraph(ifElse()).Disasm()
	for _, want := range []string{
		"== cfg: #<ISeq:<compiled>@<compiled>:1",
		"block_0\n    0000 putobject",
		"    # to: block_8, block_4\n",
		"block_10\n    # from: block_4, block_8\n    0010 leave\n    # to: leaves\n",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("disasm missing %q:\n%s", want, out)
		}
	}
}

func TestBuildCFGOpenSequence(t *testing.T) {
	iseq := bytecode.NewTopLevel(bytecode.DefaultOptions())
	iseq.PutNil()
	_, err := BuildCFG(iseq)
	var ie *bytecode.InternalError
	if !errors.As(err, &ie) {
		t.Errorf("err = %v, want *bytecode.InternalError", err)
	}
}

func TestDataFlowGraphArguments(t *testing.T) {
	dfg, err := BuildDFG(ifElse())
	if err != nil {
		t.Fatalf("BuildDFG: %v", err)
	}
	flows := dfg.BlockFlows
	if got := values(flows["block_10"].In); got != "in_0" {
		t.Errorf("block_10 in = %s", got)
	}
	if got := values(flows["block_4"].Out); got != "0004" {
		t.Errorf("block_4 out = %s", got)
	}
	if got := values(flows["block_8"].Out); got != "0008" {
		t.Errorf("block_8 out = %s", got)
	}
	if got := values(dfg.InsnFlows[2].In); got != "0000" {
		t.Errorf("branchunless in = %s", got)
	}
	if got := values(dfg.InsnFlows[4].Out); got != "out_0" {
		t.Errorf("putobject 2 out = %s", got)
	}

	out := dfg.Disasm()
	for _, want := range []string{"== dfg:", "block_10\n    # in: in_0\n", "# out: out_0"} {
		if !strings.Contains(out, want) {
			t.Errorf("disasm missing %q:\n%s", want, out)
		}
	}
}

func TestDataFlowGraphPassThrough(t *testing.T) {
	dfg := NewDataFlowGraph(NewControlFlowGraph(passThrough()))
	flows := dfg.BlockFlows

	if got := values(flows["block_0"].Out); got != "0000" {
		t.Errorf("block_0 out = %s", got)
	}
	if got := values(flows["block_6"].In); got != "pass_0" {
		t.Errorf("block_6 in = %s", got)
	}
	if got := values(flows["block_6"].Out); got != "pass_0" {
		t.Errorf("block_6 out = %s", got)
	}
	if got := values(flows["block_8"].In); got != "in_0" {
		t.Errorf("block_8 in = %s", got)
	}
	if got := values(dfg.InsnFlows[7].In); got != "0006" {
		t.Errorf("pop in = %s", got)
	}
}

func TestDataFlowGraphRejectsEntryArguments(t *testing.T) {
	dumped := ifElse().ToA()
	dumped[13] = []any{[]any{bytecode.Symbol("leave")}}
	iseq, err := bytecode.Load(dumped)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if _, err := BuildDFG(iseq); err == nil {
		t.Error("a leave with nothing pushed should not balance")
	}
}

func liveKinds(s *SeaOfNodes, kind NodeKind) []*Node {
	var out []*Node
	for _, n := range s.Nodes() {
		if n.Kind == kind {
			out = append(out, n)
		}
	}
	return out
}

func labels(edges []*Edge, kind EdgeKind) []string {
	var out []string
	for _, e := range edges {
		if e.Kind == kind {
			out = append(out, e.Label)
		}
	}
	return out
}

func TestSeaOfNodesMergesBranches(t *testing.T) {
	son, err := BuildSeaOfNodes(ifElse())
	if err != nil {
		t.Fatalf("BuildSeaOfNodes: %v", err)
	}

	phis := liveKinds(son, PhiNode)
	if len(phis) != 1 || phis[0].ID != 1001 {
		t.Fatalf("phis = %v", phis)
	}
	if got := labels(son.Inputs(phis[0]), DataEdge); !reflect.DeepEqual(got, []string{"6", "8"}) {
		t.Errorf("phi inputs = %v, want [6 8]", got)
	}
	if merges := liveKinds(son, MergeNode); len(merges) != 1 || merges[0].ID != 1000 {
		t.Errorf("merges = %v", merges)
	}

	if _, ok := son.NodeByID(6); ok {
		t.Error("jump node should have been collapsed")
	}
	branch, ok := son.NodeByID(2)
	if !ok {
		t.Fatal("branchunless node missing")
	}
	if got := labels(son.Outputs(branch), ControlEdge); !reflect.DeepEqual(got, []string{"branch0", "fallthrough"}) {
		t.Errorf("branch edges = %v", got)
	}
}

func TestSeaOfNodesCleanup(t *testing.T) {
	son := NewSeaOfNodes(NewDataFlowGraph(NewControlFlowGraph(passThrough())))

	if phis := liveKinds(son, PhiNode); len(phis) != 0 {
		t.Errorf("phis with one distinct input survived: %v", phis)
	}
	for _, id := range []int{6, 7} {
		if _, ok := son.NodeByID(id); ok {
			t.Errorf("node %d should have been spliced out", id)
		}
	}
	leave, ok := son.NodeByID(8)
	if !ok {
		t.Fatal("leave node missing")
	}
	var inputs []*Edge
	for _, e := range son.Inputs(leave) {
		if e.Kind == DataEdge {
			inputs = append(inputs, e)
		}
	}
	if len(inputs) != 1 || son.Node(inputs[0].From).ID != 0 || inputs[0].Label != "0" {
		t.Errorf("leave data inputs = %v", inputs)
	}
}

// partlyDead drops one computed value and one that is pushed only to be
// dropped:
//
//	0000 putobject 3
//	0002 putobject 4
//	0004 newarray 2
//	0006 putnil
//	0007 adjuststack 2
//	0009 putobject true
//	0011 leave
func partlyDead() *bytecode.InstructionSequence {
	iseq := bytecode.NewTopLevel(bytecode.DefaultOptions())
	iseq.PutObject(int64(3))
	iseq.PutObject(int64(4))
	iseq.NewArray(2)
	iseq.PutNil()
	iseq.AdjustStack(2)
	iseq.PutObject(true)
	iseq.Leave()
	iseq.Close()
	return iseq
}

func TestSeaOfNodesNarrowsAdjustStack(t *testing.T) {
	son, err := BuildSeaOfNodes(partlyDead())
	if err != nil {
		t.Fatalf("BuildSeaOfNodes: %v", err)
	}
	if _, ok := son.NodeByID(6); ok {
		t.Error("putnil feeding only the adjuststack should have been removed")
	}
	if _, ok := son.NodeByID(4); !ok {
		t.Error("newarray node missing")
	}
	adjust, ok := son.NodeByID(7)
	if !ok {
		t.Fatal("adjuststack node missing")
	}
	if insn, ok := adjust.Insn.(*bytecode.AdjustStack); !ok || insn.Number != 1 {
		t.Errorf("adjuststack = %#v, want adjuststack 1", adjust.Insn)
	}
	if adjust.Label != "0007 adjuststack 1" {
		t.Errorf("label = %q", adjust.Label)
	}
	if got := labels(son.Inputs(adjust), DataEdge); !reflect.DeepEqual(got, []string{"0"}) {
		t.Errorf("adjuststack data inputs = %v, want [0]", got)
	}
}

func TestDiagramExport(t *testing.T) {
	son, err := BuildSeaOfNodes(ifElse())
	if err != nil {
		t.Fatalf("BuildSeaOfNodes: %v", err)
	}
	d := son.Diagram()

	mermaid := d.Mermaid()
	for _, want := range []string{
		"flowchart TD\n",
		`node_1001(("phi"))`,
		`node_1000{"merge"}`,
		"node_1000 -.-> node_1001",
		"node_2 -->|fallthrough| node_1000",
		"stroke:red",
	} {
		if !strings.Contains(mermaid, want) {
			t.Errorf("mermaid missing %q:\n%s", want, mermaid)
		}
	}

	dot := d.Dot()
	for _, want := range []string{
		"digraph {",
		`node_1001 [shape=circle label="phi"]`,
		`node_2 -> node_1000 [label="fallthrough", color=red]`,
		`node_1000 -> node_1001 [color=blue, style=dotted]`,
	} {
		if !strings.Contains(dot, want) {
			t.Errorf("dot missing %q:\n%s", want, dot)
		}
	}

	blocks := NewControlFlowGraph(ifElse()).Diagram()
	if n := len(blocks.Nodes()); n != 4 {
		t.Errorf("cfg diagram has %d nodes, want 4", n)
	}
	if n := len(blocks.Edges()); n != 4 {
		t.Errorf("cfg diagram has %d edges, want 4", n)
	}
}

func TestCompiledWhileLoop(t *testing.T) {
	program := &ast.Program{Statements: &ast.Statements{Body: []ast.Node{
		&ast.Assign{Target: &ast.VarField{Name: "x"}, Value: &ast.TrueNode{}},
		&ast.While{
			Predicate: &ast.VarRef{Name: "x"},
			Statements: &ast.Statements{Body: []ast.Node{
				&ast.Assign{Target: &ast.VarField{Name: "x"}, Value: &ast.FalseNode{}},
			}},
		},
	}}}
	iseq, err := compiler.Compile(program, compiler.DefaultOptions())
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}

	son, err := BuildSeaOfNodes(iseq)
	if err != nil {
		t.Fatalf("BuildSeaOfNodes: %v", err)
	}
	cfg := son.DFG.CFG
	// The next continuation is reached only through the catch table.
	if got, want := ids(cfg.Blocks), []string{"block_0", "block_9", "block_13", "block_17"}; !reflect.DeepEqual(got, want) {
		t.Errorf("blocks = %v, want %v", got, want)
	}
	for _, b := range cfg.Blocks {
		for _, insn := range b.Insns[:len(b.Insns)-1] {
			if len(insn.BranchTargets()) > 0 {
				t.Errorf("%s: %s branches mid-block", b.ID, insn.Name())
			}
		}
	}
	if len(son.DFG.Block(cfg.Entry()).In) != 0 {
		t.Error("entry block takes arguments")
	}
}
