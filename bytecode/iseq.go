package bytecode

import (
	"fmt"
	"strconv"
)

// ISeqType is the kind of scope a sequence compiles.
type ISeqType string

const (
	TypeTop    ISeqType = "top"
	TypeMethod ISeqType = "method"
	TypeBlock  ISeqType = "block"
	TypeClass  ISeqType = "class"
	TypeRescue ISeqType = "rescue"
	TypeEnsure ISeqType = "ensure"
	TypePlain  ISeqType = "plain"
)

// Magic and version stamped on every serialized sequence.
const (
	Magic        = "YARVInstructionSequence/SimpleDataFormat"
	MajorVersion = 3
	MinorVersion = 2
	FormatType   = 1
)

// Line marks the source line of the instructions that follow it.
type Line int

// Event marks a trace event such as RUBY_EVENT_LINE.
type Event string

// Options are the compile options that shape emitted instructions.
type Options struct {
	FrozenStringLiteral    bool `toml:"frozen_string_literal"`
	InlineConstCache       bool `toml:"inline_const_cache"`
	OperandsUnification    bool `toml:"operands_unification"`
	PeepholeOptimization   bool `toml:"peephole_optimization"`
	SpecializedInstruction bool `toml:"specialized_instruction"`
	TailcallOptimization   bool `toml:"tailcall_optimization"`
}

// DefaultOptions matches RubyVM::InstructionSequence's defaults.
func DefaultOptions() Options {
	return Options{
		InlineConstCache:       true,
		OperandsUnification:    true,
		PeepholeOptimization:   true,
		SpecializedInstruction: true,
	}
}

// ArgumentOptions describes the parameter shape of a method or block.
// Fields that do not apply hold -1.
type ArgumentOptions struct {
	LeadNum         int
	Opt             []*Label
	RestStart       int
	PostStart       int
	PostNum         int
	KwBits          int
	Keyword         []any
	KwRest          int
	BlockStart      int
	AmbiguousParam0 bool
}

func newArgumentOptions() ArgumentOptions {
	return ArgumentOptions{LeadNum: -1, RestStart: -1, PostStart: -1, PostNum: -1, KwBits: -1, KwRest: -1, BlockStart: -1}
}

// InstructionSequence is one compiled scope. The exported metadata may be
// adjusted while the sequence is open; instructions are appended through
// the builder methods.
type InstructionSequence struct {
	Type    ISeqType
	Name    string
	File    string
	Line    int
	Parent  *InstructionSequence
	Options Options

	Locals       LocalTable
	Args         ArgumentOptions
	ArgumentSize int
	CatchTable   []*CatchEntry

	insns  []any
	closed bool

	stackCurrent  int
	stackMax      int
	labelDepths   map[*Label]int
	lastStopsFlow bool

	storageIndex   int
	inlineStorages map[string]int
}

// NewInstructionSequence starts an open sequence.
func NewInstructionSequence(typ ISeqType, name string, parent *InstructionSequence, line int, opts Options) *InstructionSequence {
	file := "<compiled>"
	if parent != nil {
		file = parent.File
	}
	return &InstructionSequence{
		Type:           typ,
		Name:           name,
		File:           file,
		Line:           line,
		Parent:         parent,
		Options:        opts,
		Args:           newArgumentOptions(),
		labelDepths:    make(map[*Label]int),
		inlineStorages: make(map[string]int),
	}
}

// NewTopLevel starts the sequence for a whole program.
func NewTopLevel(opts Options) *InstructionSequence {
	return NewInstructionSequence(TypeTop, "<compiled>", nil, 1, opts)
}

func (s *InstructionSequence) child(name string, line int, typ ISeqType) *InstructionSequence {
	return NewInstructionSequence(typ, name, s, line, s.Options)
}

// MethodChild starts the body of a method definition.
func (s *InstructionSequence) MethodChild(name string, line int) *InstructionSequence {
	return s.child(name, line, TypeMethod)
}

// BlockChild starts a block. Blocks are named after the nearest enclosing
// non-block scope.
func (s *InstructionSequence) BlockChild(line int) *InstructionSequence {
	current := s
	for current.Type == TypeBlock && current.Parent != nil {
		current = current.Parent
	}
	return s.child("block in "+current.Name, line, TypeBlock)
}

// ClassChild starts a class body.
func (s *InstructionSequence) ClassChild(name string, line int) *InstructionSequence {
	return s.child("<class:"+name+">", line, TypeClass)
}

// ModuleChild starts a module body.
func (s *InstructionSequence) ModuleChild(name string, line int) *InstructionSequence {
	return s.child("<module:"+name+">", line, TypeClass)
}

// SingletonClassChild starts a class << self body.
func (s *InstructionSequence) SingletonClassChild(line int) *InstructionSequence {
	return s.child("singleton class", line, TypeClass)
}

// RescueChild starts a rescue handler.
func (s *InstructionSequence) RescueChild(line int) *InstructionSequence {
	return s.child("rescue in "+s.Name, line, TypeRescue)
}

// EnsureChild starts an ensure handler.
func (s *InstructionSequence) EnsureChild(line int) *InstructionSequence {
	return s.child("ensure in "+s.Name, line, TypeEnsure)
}

// PlainChild starts a plain sequence such as the body of a once.
func (s *InstructionSequence) PlainChild(name string, line int) *InstructionSequence {
	return s.child(name, line, TypePlain)
}

// Closed reports whether Close has run.
func (s *InstructionSequence) Closed() bool { return s.closed }

// StackSize is the tracked depth after the last pushed instruction.
func (s *InstructionSequence) StackSize() int { return s.stackCurrent }

// StackMax is the deepest tracked depth.
func (s *InstructionSequence) StackMax() int { return s.stackMax }

// Elements returns the instruction stream: Instruction, *Label, Line and
// Event values in order.
func (s *InstructionSequence) Elements() []any { return s.insns }

// Instructions returns only the instructions, in order.
func (s *InstructionSequence) Instructions() []Instruction {
	var out []Instruction
	for _, e := range s.insns {
		if insn, ok := e.(Instruction); ok {
			out = append(out, insn)
		}
	}
	return out
}

// Last returns the most recently pushed instruction, or nil.
func (s *InstructionSequence) Last() Instruction {
	for i := len(s.insns) - 1; i >= 0; i-- {
		if insn, ok := s.insns[i].(Instruction); ok {
			return insn
		}
	}
	return nil
}

// Label allocates a new, unplaced label.
func (s *InstructionSequence) Label() *Label {
	return &Label{}
}

// PushLabel places l at the current position.
func (s *InstructionSequence) PushLabel(l *Label) {
	s.Push(l)
}

// Push appends one element of the stream and updates depth tracking.
// Depth at a label is the depth recorded by the first branch to it when
// the preceding instruction stops the flow, otherwise the running depth.
// A label nothing has branched to yet does not end a stopped flow, so a
// run of labels after a leave takes the depth of the first one entered.
func (s *InstructionSequence) Push(elem any) {
	if s.closed {
		Fault(s.Name, "push onto a closed instruction sequence")
	}
	switch e := elem.(type) {
	case *Label:
		if e.placed {
			Fault(s.Name, "label placed twice")
		}
		e.placed = true
		if depth, ok := s.labelDepths[e]; !ok {
			s.labelDepths[e] = s.stackCurrent
		} else {
			if s.lastStopsFlow {
				s.stackCurrent = depth
			}
			s.lastStopsFlow = false
		}
	case Instruction:
		s.stackCurrent -= e.Pops()
		if s.stackCurrent < 0 {
			Fault(e.Name(), "stack underflow in %s", s.Name)
		}
		s.stackCurrent += e.Pushes()
		if s.stackCurrent > s.stackMax {
			s.stackMax = s.stackCurrent
		}
		targets := e.BranchTargets()
		for _, t := range targets {
			if _, ok := s.labelDepths[t]; !ok {
				s.labelDepths[t] = s.stackCurrent
			}
		}
		s.lastStopsFlow = stopsFlow(e)
	case Line, Event:
	default:
		Fault(elem, "unexpected element pushed onto %s", s.Name)
	}
	s.insns = append(s.insns, elem)
}

// InlineStorage allocates a fresh inline cache slot.
func (s *InstructionSequence) InlineStorage() int {
	idx := s.storageIndex
	s.storageIndex++
	return idx
}

// InlineStorageFor returns the cache slot shared by every access to name.
func (s *InstructionSequence) InlineStorageFor(name string) int {
	if idx, ok := s.inlineStorages[name]; ok {
		return idx
	}
	idx := s.InlineStorage()
	s.inlineStorages[name] = idx
	return idx
}

// Ancestor returns the sequence level scopes up.
func (s *InstructionSequence) Ancestor(level int) *InstructionSequence {
	current := s
	for i := 0; i < level; i++ {
		if current.Parent == nil {
			Fault(level, "no enclosing scope %d levels above %s", level, s.Name)
		}
		current = current.Parent
	}
	return current
}

// LocalOffset resolves a table index level scopes up to its operand form.
func (s *InstructionSequence) LocalOffset(index, level int) int {
	return s.Ancestor(level).Locals.Offset(index)
}

// FindLocal looks name up in this scope and its lexical parents. Method,
// class and top scopes stop the walk.
func (s *InstructionSequence) FindLocal(name string) (LocalLookup, bool) {
	current := s
	level := 0
	for current != nil {
		if idx := current.Locals.Find(name); idx >= 0 {
			return LocalLookup{Local: current.Locals.Get(idx), Index: idx, Level: level}, true
		}
		if current.Type != TypeBlock && current.Type != TypeRescue && current.Type != TypeEnsure && current.Type != TypePlain {
			break
		}
		current = current.Parent
		level++
	}
	return LocalLookup{}, false
}

// Children returns the sequences owned by this one, in stream order,
// followed by catch table handlers.
func (s *InstructionSequence) Children() []*InstructionSequence {
	var out []*InstructionSequence
	for _, e := range s.insns {
		if insn, ok := e.(Instruction); ok {
			out = append(out, ChildISeqs(insn)...)
		}
	}
	for _, entry := range s.CatchTable {
		if entry.ISeq != nil {
			out = append(out, entry.ISeq)
		}
	}
	return out
}

// Close finalizes the sequence: children close first, then the
// specialization pass runs if enabled, labels are named after their
// offsets and every referenced label is checked. Closing twice is an
// internal fault.
func (s *InstructionSequence) Close() {
	if s.closed {
		Fault(s.Name, "instruction sequence closed twice")
	}
	for _, child := range s.Children() {
		child.Close()
	}
	if s.Options.PeepholeOptimization {
		s.dropUnreachable()
		s.dropJumpsToNext()
	}
	if s.Options.SpecializedInstruction {
		s.Specialize()
	}
	_, s.stackMax = StackDepths(s)

	s.nameLabels()
	for _, e := range s.insns {
		if insn, ok := e.(Instruction); ok {
			for _, t := range insn.BranchTargets() {
				if !t.Resolved() {
					Fault(insn.Name(), "unresolved label in %s", s.Name)
				}
			}
		}
	}
	for _, entry := range s.CatchTable {
		for _, l := range []*Label{entry.BeginLabel, entry.EndLabel, entry.ExitLabel} {
			if !l.Resolved() {
				Fault(entry.Type, "unresolved catch table label in %s", s.Name)
			}
		}
	}
	s.closed = true
	log.Debugf("closed %s %q: %d elements, stack_max %d", s.Type, s.Name, len(s.insns), s.stackMax)
}

func (s *InstructionSequence) nameLabels() {
	offset := 0
	for _, e := range s.insns {
		switch v := e.(type) {
		case *Label:
			v.name = "label_" + strconv.Itoa(offset)
		case Instruction:
			offset += v.Length()
		}
	}
}

// dropUnreachable removes instructions between a transfer of control and
// the next label that control can enter. Labels, lines and events are
// kept. It repeats until a pass drops nothing, since dropped branches can
// leave their targets unentered.
func (s *InstructionSequence) dropUnreachable() {
	for {
		entered := s.enteredLabels()
		out := s.insns[:0:0]
		dead := false
		for _, e := range s.insns {
			switch v := e.(type) {
			case *Label:
				if entered[v] {
					dead = false
				}
			case Instruction:
				if dead {
					continue
				}
				dead = stopsFlow(v)
			}
			out = append(out, e)
		}
		if len(out) == len(s.insns) {
			return
		}
		s.insns = out
	}
}

// enteredLabels returns the labels reached other than by falling through:
// branch targets and catch table exits.
func (s *InstructionSequence) enteredLabels() map[*Label]bool {
	entered := make(map[*Label]bool)
	for _, e := range s.insns {
		if insn, ok := e.(Instruction); ok {
			for _, t := range insn.BranchTargets() {
				entered[t] = true
			}
		}
	}
	for _, entry := range s.CatchTable {
		entered[entry.ExitLabel] = true
	}
	return entered
}

func stopsFlow(insn Instruction) bool {
	return !insn.FallsThrough() && (len(insn.BranchTargets()) > 0 || insn.Leaves())
}

// dropJumpsToNext removes jumps whose target is placed right after them.
func (s *InstructionSequence) dropJumpsToNext() {
	out := s.insns[:0:0]
	for i, e := range s.insns {
		if j, ok := e.(*Jump); ok && labelFollows(s.insns[i+1:], j.Label) {
			continue
		}
		out = append(out, e)
	}
	s.insns = out
}

func labelFollows(rest []any, target *Label) bool {
	for _, e := range rest {
		switch v := e.(type) {
		case *Label:
			if v == target {
				return true
			}
		case Line, Event:
		default:
			return false
		}
	}
	return false
}

// Offsets maps every label of a closed sequence to its offset.
func (s *InstructionSequence) Offsets() map[*Label]int {
	out := make(map[*Label]int)
	offset := 0
	for _, e := range s.insns {
		switch v := e.(type) {
		case *Label:
			out[v] = offset
		case Instruction:
			offset += v.Length()
		}
	}
	return out
}

// Inspect renders the sequence the way RubyVM::InstructionSequence#inspect
// does.
func (s *InstructionSequence) Inspect() string {
	return fmt.Sprintf("#<ISeq:%s@%s:%d (%d,0)-(%d,0)>", s.Name, s.File, s.Line, s.Line, s.Line)
}
