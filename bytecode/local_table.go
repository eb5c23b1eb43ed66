package bytecode

// envDataSize is the number of environment slots CRuby keeps below the
// locals of every frame (VM_ENV_DATA_SIZE).
const envDataSize = 3

// LocalKind distinguishes a plain local from a block parameter proxy.
type LocalKind int

const (
	PlainLocal LocalKind = iota
	BlockLocal
)

// Local is one named slot.
type Local struct {
	Name string
	Kind LocalKind
}

// LocalLookup is the result of resolving a name: its index in the table
// that owns it and how many scopes up that table lives.
type LocalLookup struct {
	Local *Local
	Index int
	Level int
}

// LocalTable holds the locals of one instruction sequence in declaration
// order.
type LocalTable struct {
	locals []*Local
}

// Size returns the number of slots.
func (lt *LocalTable) Size() int { return len(lt.locals) }

// Locals returns the slots in declaration order.
func (lt *LocalTable) Locals() []*Local { return lt.locals }

// Names returns the slot names as symbols, in declaration order.
func (lt *LocalTable) Names() []any {
	names := make([]any, len(lt.locals))
	for i, l := range lt.locals {
		names[i] = Symbol(l.Name)
	}
	return names
}

// Find returns the index of name, or -1.
func (lt *LocalTable) Find(name string) int {
	for i, l := range lt.locals {
		if l.Name == name {
			return i
		}
	}
	return -1
}

// Get returns the slot at index.
func (lt *LocalTable) Get(index int) *Local { return lt.locals[index] }

// Plain declares a plain local unless it exists already and returns its
// index.
func (lt *LocalTable) Plain(name string) int {
	return lt.declare(name, PlainLocal)
}

// Block declares a block parameter proxy slot and returns its index.
func (lt *LocalTable) Block(name string) int {
	return lt.declare(name, BlockLocal)
}

func (lt *LocalTable) declare(name string, kind LocalKind) int {
	if i := lt.Find(name); i >= 0 {
		return i
	}
	lt.locals = append(lt.locals, &Local{Name: name, Kind: kind})
	return len(lt.locals) - 1
}

// Offset converts a table index into the environment-relative offset used
// by getlocal and setlocal operands.
func (lt *LocalTable) Offset(index int) int {
	return lt.Size() - (index - envDataSize) - 1
}

// IndexForOffset is the inverse of Offset.
func (lt *LocalTable) IndexForOffset(offset int) int {
	return lt.Size() - offset - 1 + envDataSize
}
