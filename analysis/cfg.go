package analysis

import (
	"fmt"
	"strings"

	"github.com/emirpasic/gods/sets/hashset"
	"github.com/emirpasic/gods/sets/treeset"
	"github.com/emirpasic/gods/stacks/arraystack"
	"github.com/ruby-syntax-tree/syntax-tree-sub003/bytecode"
)

// BasicBlock is a straight-line run of instructions entered only at the
// top and left only through its last instruction.
type BasicBlock struct {
	ID     string
	Offset int
	Insns  []bytecode.Instruction
	// Offsets[i] is the offset of Insns[i] in the sequence.
	Offsets []int

	Predecessors []*BasicBlock
	Successors   []*BasicBlock
}

// Last returns the instruction that ends the block.
func (b *BasicBlock) Last() bytecode.Instruction { return b.Insns[len(b.Insns)-1] }

// LastOffset returns the offset of the instruction that ends the block.
func (b *BasicBlock) LastOffset() int { return b.Offsets[len(b.Offsets)-1] }

// End returns the offset just past the block.
func (b *BasicBlock) End() int { return b.LastOffset() + b.Last().Length() }

// ControlFlowGraph partitions a closed instruction sequence into basic
// blocks. Only blocks reachable from offset 0 are kept; Blocks is ordered
// by offset and Blocks[0] is the entry.
type ControlFlowGraph struct {
	ISeq   *bytecode.InstructionSequence
	Blocks []*BasicBlock

	labels   map[*bytecode.Label]int
	byOffset map[int]*BasicBlock
}

// BuildCFG builds the control flow graph of iseq, reporting a malformed
// sequence as an error.
func BuildCFG(iseq *bytecode.InstructionSequence) (cfg *ControlFlowGraph, err error) {
	defer bytecode.RecoverInternal(&err)
	return NewControlFlowGraph(iseq), nil
}

// NewControlFlowGraph builds the control flow graph of iseq. It panics with
// *bytecode.InternalError if the sequence is open or malformed.
//
// Catch table handlers are not followed: code reached only by unwinding
// is not part of the graph.
func NewControlFlowGraph(iseq *bytecode.InstructionSequence) *ControlFlowGraph {
	if !iseq.Closed() {
		bytecode.Fault(iseq.Name, "control flow graph of an open instruction sequence")
	}
	g := &ControlFlowGraph{
		ISeq:     iseq,
		labels:   iseq.Offsets(),
		byOffset: make(map[int]*BasicBlock),
	}

	var insns []bytecode.Instruction
	var offsets []int
	length := 0
	for _, insn := range iseq.Instructions() {
		insns = append(insns, insn)
		offsets = append(offsets, length)
		length += insn.Length()
	}
	if len(insns) == 0 {
		bytecode.Fault(iseq.Name, "control flow graph of an empty instruction sequence")
	}

	g.partition(insns, offsets, g.blockStarts(insns, offsets, length))
	g.connect()
	g.prune()
	g.verify()
	log.Debugf("cfg of %q: %d blocks", iseq.Name, len(g.Blocks))
	return g
}

// Entry returns the block at offset 0.
func (g *ControlFlowGraph) Entry() *BasicBlock { return g.Blocks[0] }

// Block returns the block starting at offset.
func (g *ControlFlowGraph) Block(offset int) (*BasicBlock, bool) {
	b, ok := g.byOffset[offset]
	return b, ok
}

// Target returns the block a branch to l lands on.
func (g *ControlFlowGraph) Target(l *bytecode.Label) *BasicBlock {
	offset, ok := g.labels[l]
	if !ok {
		bytecode.Fault(l.String(), "branch to a label outside %s", g.ISeq.Name)
	}
	b, ok := g.byOffset[offset]
	if !ok {
		bytecode.Fault(l.String(), "branch target is not a block start")
	}
	return b
}

// blockStarts collects offset 0, every branch target and the offset after
// every branch that may fall through.
func (g *ControlFlowGraph) blockStarts(insns []bytecode.Instruction, offsets []int, length int) *treeset.Set {
	starts := treeset.NewWithIntComparator()
	starts.Add(0)
	for i, insn := range insns {
		targets := insn.BranchTargets()
		if len(targets) == 0 {
			continue
		}
		for _, t := range targets {
			offset, ok := g.labels[t]
			if !ok {
				bytecode.Fault(insn.Name(), "branch to a label outside %s", g.ISeq.Name)
			}
			if offset >= length {
				bytecode.Fault(t.String(), "branch past the end of %s", g.ISeq.Name)
			}
			starts.Add(offset)
		}
		if next := offsets[i] + insn.Length(); insn.FallsThrough() && next < length {
			starts.Add(next)
		}
	}
	return starts
}

// partition cuts the stream at each start. Anything after a transfer of
// control inside one block is unreachable and dropped.
func (g *ControlFlowGraph) partition(insns []bytecode.Instruction, offsets []int, starts *treeset.Set) {
	index := make(map[int]int, len(offsets))
	for i, offset := range offsets {
		index[offset] = i
	}

	values := starts.Values()
	for n, v := range values {
		from, ok := index[v.(int)]
		if !ok {
			bytecode.Fault(v, "block start inside an instruction")
		}
		to := len(insns)
		if n+1 < len(values) {
			to = index[values[n+1].(int)]
		}

		b := &BasicBlock{ID: fmt.Sprintf("block_%d", offsets[from]), Offset: offsets[from]}
		for i := from; i < to; i++ {
			b.Insns = append(b.Insns, insns[i])
			b.Offsets = append(b.Offsets, offsets[i])
			if stopsFlow(insns[i]) {
				if i+1 < to {
					log.Debugf("%s: dropping %d unreachable instructions", b.ID, to-i-1)
				}
				break
			}
		}
		g.Blocks = append(g.Blocks, b)
		g.byOffset[b.Offset] = b
	}
}

func (g *ControlFlowGraph) connect() {
	for _, b := range g.Blocks {
		last := b.Last()
		for _, t := range last.BranchTargets() {
			link(b, g.Target(t))
		}
		if continues(last) {
			if next, ok := g.byOffset[b.End()]; ok {
				link(b, next)
			}
		}
	}
}

func link(from, to *BasicBlock) {
	for _, s := range from.Successors {
		if s == to {
			return
		}
	}
	from.Successors = append(from.Successors, to)
	to.Predecessors = append(to.Predecessors, from)
}

// prune drops every block that cannot be reached from the entry.
func (g *ControlFlowGraph) prune() {
	reached := hashset.New()
	work := arraystack.New()
	work.Push(g.Blocks[0])
	for !work.Empty() {
		v, _ := work.Pop()
		b := v.(*BasicBlock)
		if reached.Contains(b) {
			continue
		}
		reached.Add(b)
		for _, s := range b.Successors {
			work.Push(s)
		}
	}

	kept := g.Blocks[:0]
	for _, b := range g.Blocks {
		if !reached.Contains(b) {
			delete(g.byOffset, b.Offset)
			log.Debugf("pruned unreachable %s", b.ID)
			continue
		}
		preds := b.Predecessors[:0]
		for _, p := range b.Predecessors {
			if reached.Contains(p) {
				preds = append(preds, p)
			}
		}
		b.Predecessors = preds
		kept = append(kept, b)
	}
	g.Blocks = kept
}

func (g *ControlFlowGraph) verify() {
	if g.Blocks[0].Offset != 0 {
		bytecode.Fault(g.Blocks[0].ID, "entry block does not start at offset 0")
	}
	for _, b := range g.Blocks {
		for _, insn := range b.Insns[:len(b.Insns)-1] {
			if len(insn.BranchTargets()) > 0 {
				bytecode.Fault(b.ID, "%s branches before the end of the block", insn.Name())
			}
		}
	}
}

// Disasm renders each block with its instructions and edges.
func (g *ControlFlowGraph) Disasm() string {
	d := bytecode.NewDisassembler()
	d.SetCurrent(g.ISeq)

	var sb strings.Builder
	fmt.Fprintf(&sb, "== cfg: %s\n", g.ISeq.Inspect())
	for _, b := range g.Blocks {
		sb.WriteString(b.ID + "\n")
		if len(b.Predecessors) > 0 {
			fmt.Fprintf(&sb, "    # from: %s\n", blockIDs(b.Predecessors))
		}
		for i, insn := range b.Insns {
			fmt.Fprintf(&sb, "    %04d %s\n", b.Offsets[i], insn.Disasm(d))
		}
		to := blockIDs(b.Successors)
		if b.Last().Leaves() {
			to = appendList(to, "leaves")
		}
		fmt.Fprintf(&sb, "    # to: %s\n", to)
	}
	return sb.String()
}

func blockIDs(blocks []*BasicBlock) string {
	ids := make([]string, len(blocks))
	for i, b := range blocks {
		ids[i] = b.ID
	}
	return strings.Join(ids, ", ")
}

func appendList(list, item string) string {
	if list == "" {
		return item
	}
	return list + ", " + item
}

// stopsFlow reports whether nothing after insn runs unless it is jumped to.
func stopsFlow(insn bytecode.Instruction) bool {
	return !insn.FallsThrough() && (len(insn.BranchTargets()) > 0 || insn.Leaves())
}

// continues reports whether control can reach the instruction after insn.
func continues(insn bytecode.Instruction) bool {
	return insn.FallsThrough() || (len(insn.BranchTargets()) == 0 && !insn.Leaves())
}
