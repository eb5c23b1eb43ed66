package analysis

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/emirpasic/gods/lists/arraylist"
	"github.com/ruby-syntax-tree/syntax-tree-sub003/bytecode"
)

// Shape is how a renderer should draw a diagram node.
type Shape int

const (
	ShapeBox Shape = iota
	ShapeRounded
	ShapeCircle
	ShapeDiamond
)

// DiagramNode is one vertex of an exported graph.
type DiagramNode struct {
	ID    string
	Label string
	Shape Shape
}

// DiagramEdge is one directed edge of an exported graph.
type DiagramEdge struct {
	From, To string
	Label    string
	Dotted   bool
	Color    string
}

// Diagram is a renderer-neutral description of a graph. Mermaid and Dot
// produce text for the two common renderers.
type Diagram struct {
	Title string
	nodes *arraylist.List
	edges *arraylist.List
}

// NewDiagram returns an empty diagram.
func NewDiagram(title string) *Diagram {
	return &Diagram{Title: title, nodes: arraylist.New(), edges: arraylist.New()}
}

// AddNode appends a node.
func (d *Diagram) AddNode(n DiagramNode) { d.nodes.Add(n) }

// AddEdge appends an edge.
func (d *Diagram) AddEdge(e DiagramEdge) { d.edges.Add(e) }

// Nodes returns the nodes in insertion order.
func (d *Diagram) Nodes() []DiagramNode {
	out := make([]DiagramNode, 0, d.nodes.Size())
	it := d.nodes.Iterator()
	for it.Next() {
		out = append(out, it.Value().(DiagramNode))
	}
	return out
}

// Edges returns the edges in insertion order.
func (d *Diagram) Edges() []DiagramEdge {
	out := make([]DiagramEdge, 0, d.edges.Size())
	it := d.edges.Iterator()
	for it.Next() {
		out = append(out, it.Value().(DiagramEdge))
	}
	return out
}

// Mermaid renders the diagram as a Mermaid flowchart.
func (d *Diagram) Mermaid() string {
	var sb strings.Builder
	sb.WriteString("flowchart TD\n")
	for _, n := range d.Nodes() {
		label := `"` + strings.ReplaceAll(strings.ReplaceAll(n.Label, `"`, "#quot;"), "\n", "<br>") + `"`
		var shaped string
		switch n.Shape {
		case ShapeRounded:
			shaped = "(" + label + ")"
		case ShapeCircle:
			shaped = "((" + label + "))"
		case ShapeDiamond:
			shaped = "{" + label + "}"
		default:
			shaped = "[" + label + "]"
		}
		fmt.Fprintf(&sb, "  %s%s\n", n.ID, shaped)
	}
	var styles []string
	for i, e := range d.Edges() {
		arrow := "-->"
		if e.Dotted {
			arrow = "-.->"
		}
		if e.Label != "" {
			arrow += "|" + e.Label + "|"
		}
		fmt.Fprintf(&sb, "  %s %s %s\n", e.From, arrow, e.To)
		if e.Color != "" {
			styles = append(styles, fmt.Sprintf("  linkStyle %d stroke:%s", i, e.Color))
		}
	}
	for _, s := range styles {
		sb.WriteString(s + "\n")
	}
	return sb.String()
}

// Dot renders the diagram in the Graphviz dot language.
func (d *Diagram) Dot() string {
	var sb strings.Builder
	sb.WriteString(`digraph {
graph [splines=true, fontname=Helvetica, fontsize=10];
node [fontname=Helvetica, fontsize=10];
edge [fontname=Helvetica, fontsize=10];
`)
	if d.Title != "" {
		fmt.Fprintf(&sb, "label=%s\n", strconv.Quote(d.Title))
	}
	sb.WriteString("\n")
	for _, n := range d.Nodes() {
		shape := "box"
		switch n.Shape {
		case ShapeRounded:
			shape = "box, style=rounded"
		case ShapeCircle:
			shape = "circle"
		case ShapeDiamond:
			shape = "diamond"
		}
		fmt.Fprintf(&sb, "%s [shape=%s label=%s]\n", n.ID, shape, strconv.Quote(n.Label))
	}
	for _, e := range d.Edges() {
		var attrs []string
		if e.Label != "" {
			attrs = append(attrs, "label="+strconv.Quote(e.Label))
		}
		if e.Color != "" {
			attrs = append(attrs, "color="+e.Color)
		}
		if e.Dotted {
			attrs = append(attrs, "style=dotted")
		}
		fmt.Fprintf(&sb, "%s -> %s [%s]\n", e.From, e.To, strings.Join(attrs, ", "))
	}
	sb.WriteString("}\n")
	return sb.String()
}

func edgeColor(kind EdgeKind) string {
	switch kind {
	case ControlEdge:
		return "red"
	case InfoEdge:
		return "blue"
	}
	return "green"
}

// Diagram exports the control flow graph with one node per block.
func (g *ControlFlowGraph) Diagram() *Diagram {
	d := NewDiagram(g.ISeq.Inspect())
	dis := bytecode.NewSquishedDisassembler()
	dis.SetCurrent(g.ISeq)
	for _, b := range g.Blocks {
		lines := []string{b.ID}
		for i, insn := range b.Insns {
			lines = append(lines, fmt.Sprintf("%04d %s", b.Offsets[i], insn.Disasm(dis)))
		}
		d.AddNode(DiagramNode{ID: b.ID, Label: strings.Join(lines, "\n"), Shape: ShapeBox})
	}
	for _, b := range g.Blocks {
		for _, s := range b.Successors {
			d.AddEdge(DiagramEdge{From: b.ID, To: s.ID, Color: edgeColor(ControlEdge)})
		}
	}
	return d
}

// Diagram exports the sea of nodes: instructions as boxes, merges as
// diamonds, phis as circles; info edges are dotted.
func (s *SeaOfNodes) Diagram() *Diagram {
	d := NewDiagram(s.DFG.CFG.ISeq.Inspect())
	for _, n := range s.Nodes() {
		shape := ShapeBox
		switch n.Kind {
		case PhiNode:
			shape = ShapeCircle
		case MergeNode:
			shape = ShapeDiamond
		}
		d.AddNode(DiagramNode{ID: nodeName(n), Label: n.Label, Shape: shape})
	}
	for _, e := range s.Edges() {
		d.AddEdge(DiagramEdge{
			From:   nodeName(s.nodes[e.From]),
			To:     nodeName(s.nodes[e.To]),
			Label:  e.Label,
			Dotted: e.Kind == InfoEdge,
			Color:  edgeColor(e.Kind),
		})
	}
	return d
}

func nodeName(n *Node) string { return "node_" + strconv.Itoa(n.ID) }
