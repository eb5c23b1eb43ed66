package bytecode

// CatchType names a catch table handler kind.
type CatchType string

const (
	CatchTypeBreak  CatchType = "break"
	CatchTypeEnsure CatchType = "ensure"
	CatchTypeNext   CatchType = "next"
	CatchTypeRedo   CatchType = "redo"
	CatchTypeRescue CatchType = "rescue"
	CatchTypeRetry  CatchType = "retry"
)

// CatchEntry covers the instructions between BeginLabel and EndLabel.
// When a matching throw unwinds into that range the stack is cut back to
// RestoreSP, ISeq (if any) runs, and execution continues at ExitLabel.
type CatchEntry struct {
	Type       CatchType
	ISeq       *InstructionSequence
	BeginLabel *Label
	EndLabel   *Label
	ExitLabel  *Label
	RestoreSP  int
}

// ToA serializes the entry as [type, iseq, begin, end, exit, sp].
func (c *CatchEntry) ToA() []any {
	var iseq any
	if c.ISeq != nil {
		iseq = c.ISeq.ToA()
	}
	return []any{
		Symbol(c.Type), iseq,
		c.BeginLabel.Symbol(), c.EndLabel.Symbol(), c.ExitLabel.Symbol(),
		int64(c.RestoreSP),
	}
}

// ExitDepth is the operand stack depth at ExitLabel once the handler has
// run. Redo and retry resume with the stack cut back; every other kind
// leaves the handler's value on top.
func (c *CatchEntry) ExitDepth() int {
	switch c.Type {
	case CatchTypeRedo, CatchTypeRetry:
		return c.RestoreSP
	}
	return c.RestoreSP + 1
}

func (s *InstructionSequence) addCatch(typ CatchType, iseq *InstructionSequence, begin, end, exit *Label, sp int) *CatchEntry {
	entry := &CatchEntry{Type: typ, ISeq: iseq, BeginLabel: begin, EndLabel: end, ExitLabel: exit, RestoreSP: sp}
	s.CatchTable = append(s.CatchTable, entry)
	return entry
}

// CatchBreak registers a break handler, used around calls with a block.
func (s *InstructionSequence) CatchBreak(iseq *InstructionSequence, begin, end, exit *Label, sp int) *CatchEntry {
	return s.addCatch(CatchTypeBreak, iseq, begin, end, exit, sp)
}

// CatchEnsure registers an ensure handler.
func (s *InstructionSequence) CatchEnsure(iseq *InstructionSequence, begin, end, exit *Label, sp int) *CatchEntry {
	return s.addCatch(CatchTypeEnsure, iseq, begin, end, exit, sp)
}

// CatchNext registers a next handler.
func (s *InstructionSequence) CatchNext(begin, end, exit *Label, sp int) *CatchEntry {
	return s.addCatch(CatchTypeNext, nil, begin, end, exit, sp)
}

// CatchRedo registers a redo handler.
func (s *InstructionSequence) CatchRedo(begin, end, exit *Label, sp int) *CatchEntry {
	return s.addCatch(CatchTypeRedo, nil, begin, end, exit, sp)
}

// CatchRescue registers a rescue handler.
func (s *InstructionSequence) CatchRescue(iseq *InstructionSequence, begin, end, exit *Label, sp int) *CatchEntry {
	return s.addCatch(CatchTypeRescue, iseq, begin, end, exit, sp)
}

// CatchRetry registers the retry target of a rescue.
func (s *InstructionSequence) CatchRetry(begin, end, exit *Label, sp int) *CatchEntry {
	return s.addCatch(CatchTypeRetry, nil, begin, end, exit, sp)
}
