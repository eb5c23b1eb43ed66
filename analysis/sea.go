package analysis

import (
	"fmt"
	"sort"
	"strconv"

	"github.com/emirpasic/gods/sets/hashset"
	"github.com/ruby-syntax-tree/syntax-tree-sub003/bytecode"
)

// NodeKind distinguishes the three kinds of sea-of-nodes node.
type NodeKind int

const (
	InsnNode NodeKind = iota
	PhiNode
	MergeNode
)

func (k NodeKind) String() string {
	switch k {
	case PhiNode:
		return "phi"
	case MergeNode:
		return "merge"
	}
	return "insn"
}

// EdgeKind says what an edge carries. Info edges tie a phi to the merge
// that selects its input.
type EdgeKind int

const (
	DataEdge EdgeKind = iota
	ControlEdge
	InfoEdge
)

func (k EdgeKind) String() string {
	switch k {
	case ControlEdge:
		return "control"
	case InfoEdge:
		return "info"
	}
	return "data"
}

// Node is one vertex of the sea. Instruction nodes are identified by
// their offset; phi and merge nodes get ids above every offset.
type Node struct {
	ID    int
	Kind  NodeKind
	Insn  bytecode.Instruction
	Label string

	in, out []int
	dead    bool
}

// Edge connects two nodes by handle. Control edges leaving a branch are
// labeled branchN or fallthrough, data edges into an instruction carry
// the operand index, and data edges into a phi the offset of the last
// instruction on the incoming path.
type Edge struct {
	From, To int
	Kind     EdgeKind
	Label    string

	dead bool
}

// SeaOfNodes merges control and data flow into one graph. Nodes and
// edges live in arenas addressed by integer handles; removal marks them
// dead.
type SeaOfNodes struct {
	DFG *DataFlowGraph

	nodes     []*Node
	edges     []*Edge
	insnNodes map[int]int
	nextID    int
}

// BuildSeaOfNodes builds the control flow, data flow and sea-of-nodes
// graphs of iseq.
func BuildSeaOfNodes(iseq *bytecode.InstructionSequence) (son *SeaOfNodes, err error) {
	defer bytecode.RecoverInternal(&err)
	return NewSeaOfNodes(NewDataFlowGraph(NewControlFlowGraph(iseq))), nil
}

type localGraph struct{ first, last int }

// NewSeaOfNodes builds and cleans up the sea of nodes for dfg.
func NewSeaOfNodes(dfg *DataFlowGraph) *SeaOfNodes {
	s := &SeaOfNodes{
		DFG:       dfg,
		insnNodes: make(map[int]int),
		nextID:    syntheticBase(dfg.CFG),
	}

	d := bytecode.NewSquishedDisassembler()
	d.SetCurrent(dfg.CFG.ISeq)
	for _, b := range dfg.CFG.Blocks {
		for i, insn := range b.Insns {
			offset := b.Offsets[i]
			s.insnNodes[offset] = s.addNode(&Node{
				ID:    offset,
				Kind:  InsnNode,
				Insn:  insn,
				Label: fmt.Sprintf("%04d %s", offset, insn.Disasm(d)),
			})
		}
	}

	locals := make(map[*BasicBlock]localGraph)
	for _, b := range dfg.CFG.Blocks {
		locals[b] = s.connectLocalControl(b)
		s.connectLocalData(b)
	}
	s.connectGlobal(locals)

	s.cleanupPhis()
	s.cleanupPops()
	s.cleanupJumps()
	s.verify()
	return s
}

// syntheticBase is the first id handed to phi and merge nodes.
func syntheticBase(cfg *ControlFlowGraph) int {
	end := 0
	for _, b := range cfg.Blocks {
		if b.End() > end {
			end = b.End()
		}
	}
	base := 1000
	for base <= end {
		base += 1000
	}
	return base
}

func (s *SeaOfNodes) addNode(n *Node) int {
	s.nodes = append(s.nodes, n)
	return len(s.nodes) - 1
}

func (s *SeaOfNodes) addSynthetic(kind NodeKind, label string) int {
	id := s.nextID
	s.nextID++
	return s.addNode(&Node{ID: id, Kind: kind, Label: label})
}

func (s *SeaOfNodes) connect(from, to int, kind EdgeKind, label string) {
	s.edges = append(s.edges, &Edge{From: from, To: to, Kind: kind, Label: label})
	h := len(s.edges) - 1
	s.nodes[from].out = append(s.nodes[from].out, h)
	s.nodes[to].in = append(s.nodes[to].in, h)
}

// connectLocalControl chains the instructions of b that have side effects,
// plus the last instruction so every block has a control exit.
func (s *SeaOfNodes) connectLocalControl(b *BasicBlock) localGraph {
	local := localGraph{first: -1, last: -1}
	for i, insn := range b.Insns {
		if !insn.SideEffects() && i != len(b.Insns)-1 {
			continue
		}
		h := s.insnNodes[b.Offsets[i]]
		if local.last >= 0 {
			s.connect(local.last, h, ControlEdge, "")
		} else {
			local.first = h
		}
		local.last = h
	}
	return local
}

func (s *SeaOfNodes) connectLocalData(b *BasicBlock) {
	for _, offset := range b.Offsets {
		for i, v := range s.DFG.InsnFlows[offset].In {
			if !v.IsArgument() {
				s.connect(s.insnNodes[v.Offset], s.insnNodes[offset], DataEdge, strconv.Itoa(i))
			}
		}
	}
}

// connectGlobal links blocks together: control from each block's last
// control node to its successors, and data from producers to the
// consumers of block arguments, through phis where blocks join.
func (s *SeaOfNodes) connectGlobal(locals map[*BasicBlock]localGraph) {
	cfg := s.DFG.CFG
	merges := make(map[*BasicBlock]int)
	phis := make(map[*BasicBlock][]int)
	for _, b := range cfg.Blocks {
		in := s.DFG.Block(b).In
		if len(b.Predecessors) < 2 || len(in) == 0 {
			continue
		}
		merge := s.addSynthetic(MergeNode, "merge")
		s.connect(merge, locals[b].first, ControlEdge, "")
		merges[b] = merge
		for range in {
			phi := s.addSynthetic(PhiNode, "phi")
			s.connect(merge, phi, InfoEdge, "")
			phis[b] = append(phis[b], phi)
		}
	}

	entry := func(b *BasicBlock) int {
		if m, ok := merges[b]; ok {
			return m
		}
		return locals[b].first
	}
	for _, b := range cfg.Blocks {
		last := b.Last()
		from := locals[b].last
		for i, t := range last.BranchTargets() {
			s.connect(from, entry(cfg.Target(t)), ControlEdge, "branch"+strconv.Itoa(i))
		}
		if continues(last) {
			if next, ok := cfg.Block(b.End()); ok {
				s.connect(from, entry(next), ControlEdge, "fallthrough")
			}
		}
	}

	var input func(b *BasicBlock, index int) int
	resolve := func(b *BasicBlock, v Value) int {
		if !v.IsArgument() {
			return s.insnNodes[v.Offset]
		}
		return input(b, argumentIndex(s.DFG.Block(b).In, v.Name))
	}
	input = func(b *BasicBlock, index int) int {
		if p, ok := phis[b]; ok {
			return p[index]
		}
		if len(b.Predecessors) != 1 {
			return -1
		}
		pred := b.Predecessors[0]
		return resolve(pred, s.DFG.Block(pred).Out[index])
	}

	for _, b := range cfg.Blocks {
		for _, pred := range b.Predecessors {
			out := s.DFG.Block(pred).Out
			for i, phi := range phis[b] {
				src := resolve(pred, out[i])
				if src < 0 {
					continue
				}
				label := ""
				if s.nodes[src].Kind != PhiNode {
					label = strconv.Itoa(pred.LastOffset())
				}
				s.connect(src, phi, DataEdge, label)
			}
		}

		in := s.DFG.Block(b).In
		for _, offset := range b.Offsets {
			for i, v := range s.DFG.InsnFlows[offset].In {
				if !v.IsArgument() {
					continue
				}
				if src := input(b, argumentIndex(in, v.Name)); src >= 0 {
					s.connect(src, s.insnNodes[offset], DataEdge, strconv.Itoa(i))
				}
			}
		}
	}
}

func argumentIndex(in []Value, name string) int {
	for i, v := range in {
		if v.Name == name {
			return i
		}
	}
	bytecode.Fault(name, "unknown block argument")
	return -1
}

// live returns the handles of the live edges of kind among hs.
func (s *SeaOfNodes) live(hs []int, kind EdgeKind) []int {
	var out []int
	for _, h := range hs {
		if e := s.edges[h]; !e.dead && e.Kind == kind {
			out = append(out, h)
		}
	}
	return out
}

func (s *SeaOfNodes) removeNode(h int) {
	n := s.nodes[h]
	n.dead = true
	for _, e := range n.in {
		s.edges[e].dead = true
	}
	for _, e := range n.out {
		s.edges[e].dead = true
	}
}

// splice removes h, connecting each control predecessor straight to each
// control successor.
func (s *SeaOfNodes) splice(h int) {
	for _, in := range s.live(s.nodes[h].in, ControlEdge) {
		for _, out := range s.live(s.nodes[h].out, ControlEdge) {
			label := s.edges[in].Label
			if label == "" && s.edges[out].Label == "fallthrough" {
				label = "fallthrough"
			}
			s.connect(s.edges[in].From, s.edges[out].To, ControlEdge, label)
		}
	}
	s.removeNode(h)
}

// cleanupPhis replaces every phi that selects among one distinct value
// with that value, until none is left.
func (s *SeaOfNodes) cleanupPhis() {
	for changed := true; changed; {
		changed = false
		for h, n := range s.nodes {
			if n.dead || n.Kind != PhiNode {
				continue
			}
			ins := s.live(n.in, DataEdge)
			sources := hashset.New()
			for _, e := range ins {
				if from := s.edges[e].From; from != h {
					sources.Add(from)
				}
			}
			if sources.Size() != 1 {
				continue
			}
			src := sources.Values()[0].(int)
			label := ""
			for _, e := range ins {
				if s.edges[e].From == src {
					label = s.edges[e].Label
				}
			}
			for _, e := range s.live(n.out, DataEdge) {
				to := s.edges[e].To
				switch {
				case to == h:
				case s.nodes[to].Kind == PhiNode && s.nodes[src].Kind == PhiNode:
					s.connect(src, to, DataEdge, "")
				case s.nodes[to].Kind == PhiNode:
					s.connect(src, to, DataEdge, label)
				default:
					s.connect(src, to, DataEdge, s.edges[e].Label)
				}
			}
			s.removeNode(h)
			changed = true
		}
	}
}

// cleanupPops removes pops and stack adjustments of values that were
// pushed only to be thrown away, together with their producers. An
// adjuststack that also drops live values is narrowed to those.
func (s *SeaOfNodes) cleanupPops() {
	for h, n := range s.nodes {
		if n.dead || n.Kind != InsnNode {
			continue
		}
		switch n.Insn.(type) {
		case *bytecode.Pop, *bytecode.AdjustStack:
		default:
			continue
		}

		ins := s.live(n.in, DataEdge)
		if len(ins) == 0 {
			continue
		}
		if len(s.live(n.in, ControlEdge)) > 0 && len(s.live(n.out, ControlEdge)) == 0 {
			continue
		}
		producers := hashset.New()
		for _, e := range ins {
			producers.Add(s.edges[e].From)
		}
		var dead []int
		for _, v := range producers.Values() {
			if s.deadProducer(v.(int)) {
				dead = append(dead, v.(int))
			}
		}
		if len(dead) == 0 {
			continue
		}
		if len(dead) < producers.Size() {
			adjust, ok := n.Insn.(*bytecode.AdjustStack)
			if !ok {
				continue
			}
			for _, v := range dead {
				s.removeNode(v)
			}
			s.narrow(n, adjust.Number-len(dead))
			continue
		}
		for _, v := range dead {
			s.removeNode(v)
		}
		s.splice(h)
	}
}

func (s *SeaOfNodes) narrow(n *Node, number int) {
	n.Insn = &bytecode.AdjustStack{Number: number}
	d := bytecode.NewSquishedDisassembler()
	d.SetCurrent(s.DFG.CFG.ISeq)
	n.Label = fmt.Sprintf("%04d %s", n.ID, n.Insn.Disasm(d))
}

// deadProducer reports whether h is an instruction that only pushes a
// value, outside the control chain, feeding exactly one consumer.
func (s *SeaOfNodes) deadProducer(h int) bool {
	n := s.nodes[h]
	if n.Kind != InsnNode || n.Insn.Pops() != 0 {
		return false
	}
	if len(s.live(n.in, ControlEdge))+len(s.live(n.out, ControlEdge)) > 0 {
		return false
	}
	outs := 0
	for _, e := range n.out {
		if !s.edges[e].dead {
			outs++
		}
	}
	return outs == 1
}

// cleanupJumps splices out unconditional jumps with a single way in and
// a single way out.
func (s *SeaOfNodes) cleanupJumps() {
	for h, n := range s.nodes {
		if n.dead || n.Kind != InsnNode {
			continue
		}
		if _, ok := n.Insn.(*bytecode.Jump); !ok {
			continue
		}
		in := s.live(n.in, ControlEdge)
		out := s.live(n.out, ControlEdge)
		if len(in) != 1 || len(out) != 1 || s.edges[in[0]].From == h {
			continue
		}
		if len(s.live(n.in, DataEdge))+len(s.live(n.out, DataEdge)) > 0 {
			continue
		}
		s.splice(h)
	}
}

func (s *SeaOfNodes) verify() {
	for _, n := range s.nodes {
		if n.dead {
			continue
		}
		switch n.Kind {
		case PhiNode:
			if len(s.live(n.in, DataEdge)) == 1 {
				bytecode.Fault(n.ID, "phi with a single input")
			}
		case InsnNode:
			if len(n.Insn.BranchTargets()) > 0 {
				branch0, fallthroughs := 0, 0
				for _, e := range s.live(n.out, ControlEdge) {
					switch s.edges[e].Label {
					case "branch0":
						branch0++
					case "fallthrough":
						fallthroughs++
					}
				}
				if branch0 == 0 || fallthroughs > 1 {
					bytecode.Fault(n.ID, "%s has %d branch0 and %d fallthrough edges", n.Insn.Name(), branch0, fallthroughs)
				}
			}
			ins := s.live(n.in, DataEdge)
			if len(ins) < 2 {
				continue
			}
			labels := make([]int, 0, len(ins))
			for _, e := range ins {
				i, err := strconv.Atoi(s.edges[e].Label)
				if err != nil {
					bytecode.Fault(n.ID, "unlabeled data input")
				}
				labels = append(labels, i)
			}
			sort.Ints(labels)
			for i, l := range labels {
				if l != i {
					bytecode.Fault(n.ID, "data inputs are not labeled 0..%d", len(labels)-1)
				}
			}
		}
	}
}

// Nodes returns the live nodes in creation order.
func (s *SeaOfNodes) Nodes() []*Node {
	var out []*Node
	for _, n := range s.nodes {
		if !n.dead {
			out = append(out, n)
		}
	}
	return out
}

// Edges returns the live edges in creation order.
func (s *SeaOfNodes) Edges() []*Edge {
	var out []*Edge
	for _, e := range s.edges {
		if !e.dead {
			out = append(out, e)
		}
	}
	return out
}

// Node returns the node behind a handle taken from an Edge.
func (s *SeaOfNodes) Node(h int) *Node { return s.nodes[h] }

// NodeByID returns the live node with the given id.
func (s *SeaOfNodes) NodeByID(id int) (*Node, bool) {
	for _, n := range s.nodes {
		if !n.dead && n.ID == id {
			return n, true
		}
	}
	return nil, false
}

// Inputs returns the live edges arriving at n.
func (s *SeaOfNodes) Inputs(n *Node) []*Edge {
	var out []*Edge
	for _, h := range n.in {
		if e := s.edges[h]; !e.dead {
			out = append(out, e)
		}
	}
	return out
}

// Outputs returns the live edges leaving n.
func (s *SeaOfNodes) Outputs(n *Node) []*Edge {
	var out []*Edge
	for _, h := range n.out {
		if e := s.edges[h]; !e.dead {
			out = append(out, e)
		}
	}
	return out
}
