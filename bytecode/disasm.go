package bytecode

import (
	"fmt"
	"strconv"
	"strings"
)

// Disassembler renders instructions and whole sequences in the style of
// RubyVM::InstructionSequence#disasm. Child sequences reached while
// rendering are queued and printed after their parent.
type Disassembler struct {
	current *InstructionSequence
	queue   []*InstructionSequence
	seen    map[*InstructionSequence]bool
	squish  bool
}

// NewDisassembler returns a disassembler producing padded listings.
func NewDisassembler() *Disassembler {
	return &Disassembler{seen: make(map[*InstructionSequence]bool)}
}

// NewSquishedDisassembler returns a disassembler that renders each
// instruction on one unpadded line, for graph node labels.
func NewSquishedDisassembler() *Disassembler {
	d := NewDisassembler()
	d.squish = true
	return d
}

// SetCurrent sets the sequence used to resolve local names.
func (d *Disassembler) SetCurrent(iseq *InstructionSequence) { d.current = iseq }

// Instruction formats an opcode and its rendered operands.
func (d *Disassembler) Instruction(name string, operands ...string) string {
	if len(operands) == 0 {
		return name
	}
	if d.squish {
		return name + " " + strings.Join(operands, ", ")
	}
	return fmt.Sprintf("%-38s %s", name, strings.Join(operands, ", "))
}

// Object renders a literal operand.
func (d *Disassembler) Object(v any) string { return Inspect(v) }

// Label renders a branch target as its offset.
func (d *Disassembler) Label(l *Label) string {
	return strings.TrimPrefix(l.Name(), "label_")
}

// Local renders a local operand as name@index, with the level appended
// when the instruction carries it explicitly.
func (d *Disassembler) Local(index, level int, explicit bool) string {
	name := "?"
	if d.current != nil {
		table := &d.current.Ancestor(level).Locals
		if index >= 0 && index < table.Size() {
			name = table.Get(index).Name
		}
	}
	out := name + "@" + strconv.Itoa(index)
	if explicit {
		out += ", " + strconv.Itoa(level)
	}
	return out
}

// CallData renders a call site.
func (d *Disassembler) CallData(cd *CallData) string { return cd.Inspect() }

// InlineStorage renders an inline cache slot.
func (d *Disassembler) InlineStorage(n int) string { return "<is:" + strconv.Itoa(n) + ">" }

// ISeq renders a child sequence operand by name.
func (d *Disassembler) ISeq(iseq *InstructionSequence) string {
	if iseq == nil {
		return "nil"
	}
	return iseq.Name
}

// Enqueue schedules a child sequence to be printed after the current one.
func (d *Disassembler) Enqueue(iseq *InstructionSequence) {
	if iseq == nil || d.seen[iseq] {
		return
	}
	d.seen[iseq] = true
	d.queue = append(d.queue, iseq)
}

// Disasm renders a closed sequence and everything it owns.
func (s *InstructionSequence) Disasm() string {
	return NewDisassembler().Format(s)
}

// Format renders iseq and then every queued child.
func (d *Disassembler) Format(iseq *InstructionSequence) string {
	var sb strings.Builder
	d.Enqueue(iseq)
	for len(d.queue) > 0 {
		next := d.queue[0]
		d.queue = d.queue[1:]
		if sb.Len() > 0 {
			sb.WriteString("\n")
		}
		d.formatOne(&sb, next)
	}
	return sb.String()
}

func (d *Disassembler) formatOne(sb *strings.Builder, iseq *InstructionSequence) {
	d.current = iseq
	fmt.Fprintf(sb, "== disasm: %s\n", iseq.Inspect())

	if len(iseq.CatchTable) > 0 {
		offsets := iseq.Offsets()
		sb.WriteString("== catch table\n")
		for _, c := range iseq.CatchTable {
			fmt.Fprintf(sb, "| catch type: %-6s st: %04d ed: %04d sp: %04d cont: %04d\n",
				c.Type, offsets[c.BeginLabel], offsets[c.EndLabel], c.RestoreSP, offsets[c.ExitLabel])
			if c.ISeq != nil {
				sb.WriteString(indent(NewDisassembler().Format(c.ISeq), "| "))
			}
		}
		sb.WriteString("|" + strings.Repeat("-", 72) + "\n")
	}

	if iseq.Locals.Size() > 0 {
		fmt.Fprintf(sb, "local table (size: %d, argc: %d)\n", iseq.Locals.Size(), iseq.ArgumentSize)
		var entries []string
		for i, l := range iseq.Locals.Locals() {
			entries = append(entries, fmt.Sprintf("[%2d] %s@%d", iseq.Locals.Size()-i, l.Name, i))
		}
		sb.WriteString(strings.Join(entries, "    ") + "\n")
	}

	offset := 0
	for _, e := range iseq.insns {
		insn, ok := e.(Instruction)
		if !ok {
			continue
		}
		fmt.Fprintf(sb, "%04d %s\n", offset, insn.Disasm(d))
		offset += insn.Length()
	}
}

func indent(text, prefix string) string {
	lines := strings.Split(strings.TrimRight(text, "\n"), "\n")
	for i, l := range lines {
		lines[i] = prefix + l
	}
	return strings.Join(lines, "\n") + "\n"
}

func joinComma(parts []string) string { return strings.Join(parts, ", ") }
