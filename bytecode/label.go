package bytecode

// Label is a jump target inside one instruction sequence. It is an opaque
// handle until the sequence is closed, when it is named after the offset
// of the instruction that follows it.
type Label struct {
	name   string
	placed bool
}

// Name returns the resolved name, label_<offset>. It is empty before the
// owning sequence is closed.
func (l *Label) Name() string { return l.name }

// Resolved reports whether the label has been named.
func (l *Label) Resolved() bool { return l.name != "" }

// Symbol returns the serialized form of the label.
func (l *Label) Symbol() Symbol {
	if l.name == "" {
		Fault(l, "label referenced before its sequence was closed")
	}
	return Symbol(l.name)
}

// NewLabelNamed returns a label that is already resolved. Load uses it to
// rebuild sequences from their serialized form.
func NewLabelNamed(name string) *Label {
	return &Label{name: name, placed: true}
}

func (l *Label) String() string {
	if l.name == "" {
		return "label_?"
	}
	return l.name
}
