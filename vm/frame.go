package vm

import (
	"github.com/ruby-syntax-tree/syntax-tree-sub003/bytecode"
)

// ---------------------------------------------------------------------------
// program: a closed sequence decoded for execution
// ---------------------------------------------------------------------------

// program is the executable form of an instruction sequence: markers are
// folded away, specialized instructions are replaced by their general
// form, and labels resolve to instruction indexes.
type program struct {
	iseq  *bytecode.InstructionSequence
	insns []bytecode.Instruction
	// offsets[i] is the serialized offset of insns[i]; the extra last
	// entry is the length of the whole sequence.
	offsets []int
	lines   []int
	labels  map[*bytecode.Label]int
	// keys[i] is the call-site cache key of a call instruction.
	keys []string
}

func decode(iseq *bytecode.InstructionSequence) *program {
	if !iseq.Closed() {
		bytecode.Fault(iseq.Name, "executing an open instruction sequence")
	}
	p := &program{iseq: iseq, labels: make(map[*bytecode.Label]int)}
	line, offset := iseq.Line, 0
	for _, elem := range iseq.Elements() {
		switch e := elem.(type) {
		case *bytecode.Label:
			p.labels[e] = len(p.insns)
		case bytecode.Line:
			line = int(e)
		case bytecode.Event:
		case bytecode.Instruction:
			insn := bytecode.Canonical(e)
			key := ""
			switch i := insn.(type) {
			case *bytecode.Send:
				key = i.CallData.Key()
			case *bytecode.InvokeSuper:
				key = i.CallData.Key()
			}
			p.insns = append(p.insns, insn)
			p.offsets = append(p.offsets, offset)
			p.lines = append(p.lines, line)
			p.keys = append(p.keys, key)
			offset += e.Length()
		}
	}
	p.offsets = append(p.offsets, offset)
	return p
}

func (p *program) target(l *bytecode.Label) int {
	i, ok := p.labels[l]
	if !ok {
		bytecode.Fault(l.String(), "jump to a label outside %s", p.iseq.Name)
	}
	return i
}

// ---------------------------------------------------------------------------
// Frame: one activation
// ---------------------------------------------------------------------------

// Frame is one activation of an instruction sequence: the top level, a
// method, a block, a class body, or a rescue, ensure or once handler.
type Frame struct {
	ISeq *bytecode.InstructionSequence
	prog *program
	pc   int
	// base is the operand stack index where this frame's values start.
	base int

	Self   Value
	Locals []Value
	// Parent is the lexically enclosing frame that (index, level) local
	// lookups walk: the defining frame of a block, the protected frame of
	// a handler.
	Parent *Frame
	Cref   *Cref
	// Block is the block passed to the enclosing method.
	Block *Proc
	// Method is the method whose body this frame belongs to, for super.
	Method *Method

	lambda     bool
	visibility Visibility
	moduleFunc bool
	done       bool

	// frame-local special variables ($_ and $~), kept on local frames.
	lastLine Value
	backref  Value
}

func (vm *VM) newFrame(iseq *bytecode.InstructionSequence, self Value, parent *Frame) *Frame {
	f := &Frame{
		ISeq:   iseq,
		prog:   vm.program(iseq),
		Self:   self,
		Locals: make([]Value, iseq.Locals.Size()),
		Parent: parent,
	}
	if parent != nil {
		f.Cref = parent.Cref
		f.Block = parent.Block
		f.Method = parent.Method
	}
	return f
}

func (vm *VM) program(iseq *bytecode.InstructionSequence) *program {
	if p, ok := vm.programs[iseq]; ok {
		return p
	}
	p := decode(iseq)
	vm.programs[iseq] = p
	return p
}

// Line returns the source line of the instruction being executed.
func (f *Frame) Line() int {
	i := f.pc - 1
	if i < 0 {
		i = 0
	}
	if i >= len(f.prog.lines) {
		return f.ISeq.Line
	}
	return f.prog.lines[i]
}

// env returns the frame level steps up the lexical chain.
func (f *Frame) env(level int) *Frame {
	e := f
	for ; level > 0; level-- {
		if e.Parent == nil {
			bytecode.Fault(level, "local lookup past the outermost frame of %s", f.ISeq.Name)
		}
		e = e.Parent
	}
	return e
}

// local returns the frame that owns the special variables: the nearest
// frame without a lexical parent.
func (f *Frame) local() *Frame {
	e := f
	for e.Parent != nil {
		e = e.Parent
	}
	return e
}

// isHandler reports whether f runs a rescue, ensure or once body on behalf
// of its parent.
func (f *Frame) isHandler() bool {
	switch f.ISeq.Type {
	case bytecode.TypeRescue, bytecode.TypeEnsure, bytecode.TypePlain:
		return f.Parent != nil
	}
	return false
}

// scope strips handler frames off f.
func (f *Frame) scope() *Frame {
	e := f
	for e.isHandler() {
		e = e.Parent
	}
	return e
}

// pcOffset is the serialized offset of the next instruction, which is what
// catch table ranges are compared against.
func (f *Frame) pcOffset() int { return f.prog.offsets[f.pc] }

// covers reports whether a catch entry's range holds the current pc.
func (f *Frame) covers(entry *bytecode.CatchEntry) bool {
	pc := f.pcOffset()
	begin := f.prog.offsets[f.prog.target(entry.BeginLabel)]
	end := f.prog.offsets[f.prog.target(entry.EndLabel)]
	return begin < pc && pc <= end
}
