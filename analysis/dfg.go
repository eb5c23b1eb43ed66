package analysis

import (
	"fmt"
	"strings"

	"github.com/emirpasic/gods/stacks/arraystack"
	"github.com/ruby-syntax-tree/syntax-tree-sub003/bytecode"
)

// Value is one operand stack slot as the data flow graph sees it: either
// the instruction at Offset, or a named block argument (in_N, pass_N,
// out_N).
type Value struct {
	Offset int
	Name   string
}

func instructionValue(offset int) Value { return Value{Offset: offset} }
func argumentValue(name string) Value   { return Value{Offset: -1, Name: name} }

// IsArgument reports whether v crosses a block boundary.
func (v Value) IsArgument() bool { return v.Name != "" }

func (v Value) String() string {
	if v.IsArgument() {
		return v.Name
	}
	return fmt.Sprintf("%04d", v.Offset)
}

// DataFlow lists the values flowing into and out of an instruction or a
// block, deepest stack slot first. For an instruction, In holds the
// producers of its operands and Out the instructions consuming its
// results; for a block, In holds its arguments and Out the values it
// leaves for its successors.
type DataFlow struct {
	In  []Value
	Out []Value
}

// DataFlowGraph records which instruction produces each value consumed,
// and which values pass between blocks.
type DataFlowGraph struct {
	CFG        *ControlFlowGraph
	InsnFlows  map[int]*DataFlow
	BlockFlows map[string]*DataFlow
}

// BuildDFG builds the control flow and data flow graphs of iseq.
func BuildDFG(iseq *bytecode.InstructionSequence) (dfg *DataFlowGraph, err error) {
	defer bytecode.RecoverInternal(&err)
	return NewDataFlowGraph(NewControlFlowGraph(iseq)), nil
}

// NewDataFlowGraph builds the data flow graph over cfg, panicking with
// *bytecode.InternalError if the blocks disagree about what is on the
// stack between them.
func NewDataFlowGraph(cfg *ControlFlowGraph) *DataFlowGraph {
	g := &DataFlowGraph{
		CFG:        cfg,
		InsnFlows:  make(map[int]*DataFlow),
		BlockFlows: make(map[string]*DataFlow),
	}
	for _, b := range cfg.Blocks {
		g.findInternalFlow(b)
	}
	g.findExternalFlow()
	g.verify()
	return g
}

// Block returns the flow of b.
func (g *DataFlowGraph) Block(b *BasicBlock) *DataFlow { return g.BlockFlows[b.ID] }

func (g *DataFlowGraph) insnFlow(offset int) *DataFlow {
	flow, ok := g.InsnFlows[offset]
	if !ok {
		flow = &DataFlow{}
		g.InsnFlows[offset] = flow
	}
	return flow
}

// findInternalFlow runs an abstract stack through b. A pop from the empty
// stack becomes a block input; what is left at the end becomes its output.
func (g *DataFlowGraph) findInternalFlow(b *BasicBlock) {
	flow := &DataFlow{}
	g.BlockFlows[b.ID] = flow

	var stack []Value
	inputs := 0
	for i, insn := range b.Insns {
		offset := b.Offsets[i]
		in := make([]Value, insn.Pops())
		for j := len(in) - 1; j >= 0; j-- {
			if n := len(stack); n > 0 {
				in[j] = stack[n-1]
				stack = stack[:n-1]
				producer := g.insnFlow(in[j].Offset)
				producer.Out = append(producer.Out, instructionValue(offset))
				continue
			}
			in[j] = argumentValue(fmt.Sprintf("in_%d", inputs))
			inputs++
			flow.In = append([]Value{in[j]}, flow.In...)
		}
		g.insnFlow(offset).In = in
		for k := 0; k < insn.Pushes(); k++ {
			stack = append(stack, instructionValue(offset))
		}
	}

	// Values under a frame exit are never seen again.
	if b.Last().Leaves() {
		return
	}
	for i, v := range stack {
		flow.Out = append(flow.Out, v)
		producer := g.insnFlow(v.Offset)
		producer.Out = append(producer.Out, argumentValue(fmt.Sprintf("out_%d", i)))
	}
}

// findExternalFlow balances every edge. A predecessor short of outputs
// passes values through from its own inputs; a successor short of inputs
// takes the extra values underneath everything it touches. Slots are only
// ever added, so the worklist drains.
func (g *DataFlowGraph) findExternalFlow() {
	work := arraystack.New()
	for i := len(g.CFG.Blocks) - 1; i >= 0; i-- {
		work.Push(g.CFG.Blocks[i])
	}
	for !work.Empty() {
		v, _ := work.Pop()
		b := v.(*BasicBlock)
		flow := g.Block(b)

		for _, pred := range b.Predecessors {
			if missing := len(flow.In) - len(g.Block(pred).Out); missing > 0 {
				g.passThrough(pred, missing, true)
				work.Push(pred)
			}
		}
		for _, succ := range b.Successors {
			if extra := len(flow.Out) - len(g.Block(succ).In); extra > 0 {
				g.passThrough(succ, extra, !succ.Last().Leaves())
				work.Push(succ)
			}
		}
	}
}

// passThrough adds n arguments below b's existing ones, forwarding them to
// its outputs unless b leaves the frame.
func (g *DataFlowGraph) passThrough(b *BasicBlock, n int, forward bool) {
	flow := g.Block(b)
	slots := make([]Value, n)
	for i := range slots {
		slots[i] = argumentValue(fmt.Sprintf("pass_%d", len(flow.In)+n-1-i))
	}
	flow.In = append(slots, flow.In...)
	if forward {
		flow.Out = append(append([]Value(nil), slots...), flow.Out...)
	}
	log.Debugf("%s: %d pass-through slots", b.ID, n)
}

func (g *DataFlowGraph) verify() {
	entry := g.CFG.Entry()
	if in := g.Block(entry).In; len(in) > 0 {
		bytecode.Fault(entry.ID, "entry block takes %d arguments", len(in))
	}
	for _, b := range g.CFG.Blocks {
		flow := g.Block(b)
		if len(b.Successors) == 0 && len(flow.Out) > 0 {
			bytecode.Fault(b.ID, "block without successors has %d outputs", len(flow.Out))
		}
		for _, succ := range b.Successors {
			if in := g.Block(succ).In; len(in) != len(flow.Out) {
				bytecode.Fault(b.ID, "passes %d values to %s, which takes %d", len(flow.Out), succ.ID, len(in))
			}
		}
	}
}

// Disasm renders the control flow graph annotated with where each value
// comes from and goes to.
func (g *DataFlowGraph) Disasm() string {
	d := bytecode.NewDisassembler()
	d.SetCurrent(g.CFG.ISeq)

	var sb strings.Builder
	fmt.Fprintf(&sb, "== dfg: %s\n", g.CFG.ISeq.Inspect())
	for _, b := range g.CFG.Blocks {
		flow := g.Block(b)
		sb.WriteString(b.ID + "\n")
		if len(flow.In) > 0 {
			fmt.Fprintf(&sb, "    # in: %s\n", values(flow.In))
		}
		for i, insn := range b.Insns {
			fmt.Fprintf(&sb, "    %04d %s", b.Offsets[i], insn.Disasm(d))
			if f := g.InsnFlows[b.Offsets[i]]; f != nil {
				if len(f.In) > 0 {
					fmt.Fprintf(&sb, "  # in: %s", values(f.In))
				}
				if len(f.Out) > 0 {
					fmt.Fprintf(&sb, "  # out: %s", values(f.Out))
				}
			}
			sb.WriteString("\n")
		}
		if len(flow.Out) > 0 {
			fmt.Fprintf(&sb, "    # out: %s\n", values(flow.Out))
		}
	}
	return sb.String()
}

func values(vs []Value) string {
	parts := make([]string, len(vs))
	for i, v := range vs {
		parts[i] = v.String()
	}
	return strings.Join(parts, ", ")
}
