package vm

import (
	"fmt"
	"math/big"
	"regexp"
	"strings"

	"github.com/emirpasic/gods/maps/linkedhashmap"
	"github.com/ruby-syntax-tree/syntax-tree-sub003/bytecode"
)

// ---------------------------------------------------------------------------
// Value: the representation of Ruby values
// ---------------------------------------------------------------------------

// Value is any Ruby value. nil, true, false, Integer (int64), Float
// (float64) and Symbol stand for themselves; everything else is a pointer
// to one of the heap types below. Integer literals too wide for int64 load
// as *big.Int.
type Value = any

// Symbol is an interned name.
type Symbol string

// header is the state every heap value carries: a frozen flag, instance
// variables in assignment order, and a lazily created singleton class.
type header struct {
	frozen bool
	ivars  *linkedhashmap.Map
	meta   *Class
}

func (h *header) hdr() *header { return h }

// IsFrozen reports whether the value has been frozen.
func (h *header) IsFrozen() bool { return h.frozen }

// Freeze marks the value as frozen.
func (h *header) Freeze() { h.frozen = true }

// Ivar returns the instance variable name, or nil.
func (h *header) Ivar(name string) (Value, bool) {
	if h.ivars == nil {
		return nil, false
	}
	return h.ivars.Get(name)
}

// SetIvar assigns the instance variable name.
func (h *header) SetIvar(name string, v Value) {
	if h.ivars == nil {
		h.ivars = linkedhashmap.New()
	}
	h.ivars.Put(name, v)
}

// IvarNames returns the assigned instance variables in order. Internal
// slots, whose names do not start with @, are left out.
func (h *header) IvarNames() []string {
	if h.ivars == nil {
		return nil
	}
	var names []string
	for _, k := range h.ivars.Keys() {
		if name := k.(string); strings.HasPrefix(name, "@") {
			names = append(names, name)
		}
	}
	return names
}

func (h *header) allIvarNames() []string {
	if h.ivars == nil {
		return nil
	}
	keys := h.ivars.Keys()
	names := make([]string, len(keys))
	for i, k := range keys {
		names[i] = k.(string)
	}
	return names
}

type heapValue interface {
	hdr() *header
}

// String is a mutable Ruby string.
type String struct {
	header
	Value string
}

// NewString returns an unfrozen string.
func NewString(s string) *String { return &String{Value: s} }

func (s *String) String() string { return s.Value }

// Array is a Ruby array.
type Array struct {
	header
	Elements []Value
}

// NewArray returns an array holding elems.
func NewArray(elems ...Value) *Array {
	if elems == nil {
		elems = []Value{}
	}
	return &Array{Elements: elems}
}

// Len returns the number of elements.
func (a *Array) Len() int { return len(a.Elements) }

// At returns the element at i, counting from the end when i is negative.
func (a *Array) At(i int) Value {
	if i < 0 {
		i += len(a.Elements)
	}
	if i < 0 || i >= len(a.Elements) {
		return nil
	}
	return a.Elements[i]
}

// hashEntry is what a Hash stores under the normalized key.
type hashEntry struct {
	Key   Value
	Value Value
}

// Hash is an insertion ordered Ruby hash.
type Hash struct {
	header
	table       *linkedhashmap.Map
	Default     Value
	DefaultProc *Proc
}

// NewHash returns an empty hash.
func NewHash() *Hash { return &Hash{table: linkedhashmap.New()} }

// Len returns the number of entries.
func (h *Hash) Len() int { return h.table.Size() }

// Get returns the value stored under key.
func (h *Hash) Get(key Value) (Value, bool) {
	e, ok := h.table.Get(hashKey(key))
	if !ok {
		return nil, false
	}
	return e.(*hashEntry).Value, true
}

// Set stores value under key. An unfrozen string key is copied and frozen
// first.
func (h *Hash) Set(key, value Value) {
	k := hashKey(key)
	if e, ok := h.table.Get(k); ok {
		e.(*hashEntry).Value = value
		return
	}
	if s, ok := key.(*String); ok && !s.frozen {
		key = &String{header: header{frozen: true}, Value: s.Value}
	}
	h.table.Put(k, &hashEntry{Key: key, Value: value})
}

// Delete removes key, returning the value it held.
func (h *Hash) Delete(key Value) (Value, bool) {
	k := hashKey(key)
	e, ok := h.table.Get(k)
	if !ok {
		return nil, false
	}
	h.table.Remove(k)
	return e.(*hashEntry).Value, true
}

// Clear removes every entry.
func (h *Hash) Clear() { h.table.Clear() }

// Entries returns the entries in insertion order. The slice is a snapshot,
// so the hash may be modified while it is walked.
func (h *Hash) Entries() []hashEntry {
	out := make([]hashEntry, 0, h.table.Size())
	it := h.table.Iterator()
	for it.Next() {
		out = append(out, *it.Value().(*hashEntry))
	}
	return out
}

// Keys returns the keys in insertion order.
func (h *Hash) Keys() []Value {
	entries := h.Entries()
	out := make([]Value, len(entries))
	for i, e := range entries {
		out[i] = e.Key
	}
	return out
}

// Copy returns a shallow copy with the same defaults.
func (h *Hash) Copy() *Hash {
	out := NewHash()
	for _, e := range h.Entries() {
		out.Set(e.Key, e.Value)
	}
	out.Default, out.DefaultProc = h.Default, h.DefaultProc
	return out
}

type strKey string
type bigKey string
type compositeKey string

// hashKey normalizes v into a comparable Go value: strings by content,
// arrays and ranges by structure, everything else by identity.
func hashKey(v Value) any {
	switch x := v.(type) {
	case *String:
		return strKey(x.Value)
	case *big.Int:
		return bigKey(x.String())
	case *Array:
		parts := make([]string, len(x.Elements))
		for i, e := range x.Elements {
			parts[i] = keyString(hashKey(e))
		}
		return compositeKey("a\x01" + strings.Join(parts, "\x01"))
	case *Range:
		return compositeKey(fmt.Sprintf("r\x01%s\x01%s\x01%t", keyString(hashKey(x.Begin)), keyString(hashKey(x.End)), x.Exclusive))
	case float64:
		if x == 0 {
			return float64(0)
		}
	}
	return v
}

func keyString(k any) string {
	switch k.(type) {
	case nil, bool, int64, float64, Symbol, strKey, bigKey, compositeKey:
		return fmt.Sprintf("%T\x00%v", k, k)
	}
	return fmt.Sprintf("%T\x00%p", k, k)
}

// Range is a Ruby range. A nil end is endless.
type Range struct {
	header
	Begin     Value
	End       Value
	Exclusive bool
}

// Regexp is a compiled regular expression. Matching runs on Go's regexp
// engine after translating the Ruby source.
type Regexp struct {
	header
	Source  string
	Options int
	re      *regexp.Regexp
}

// NewRegexp compiles source with the bytecode option bits.
func NewRegexp(source string, options int) (*Regexp, error) {
	flags := "m"
	if options&bytecode.RegexpIgnoreCase != 0 {
		flags += "i"
	}
	if options&bytecode.RegexpMultiline != 0 {
		flags += "s"
	}
	pattern := translateRegexp(source, options&bytecode.RegexpExtended != 0)
	re, err := regexp.Compile("(?" + flags + ")" + pattern)
	if err != nil {
		return nil, err
	}
	return &Regexp{header: header{frozen: true}, Source: source, Options: options, re: re}, nil
}

var regexpEscapes = strings.NewReplacer(`\h`, `[0-9a-fA-F]`, `\H`, `[^0-9a-fA-F]`, `\Z`, `\z`, `(?<`, `(?P<`)

func translateRegexp(source string, extended bool) string {
	if extended {
		var sb strings.Builder
		escaped, inClass, comment := false, false, false
		for _, r := range source {
			switch {
			case comment:
				if r == '\n' {
					comment = false
				}
				continue
			case escaped:
				escaped = false
			case r == '\\':
				escaped = true
			case r == '[':
				inClass = true
			case r == ']':
				inClass = false
			case !inClass && (r == ' ' || r == '\t' || r == '\n'):
				continue
			case !inClass && r == '#':
				comment = true
				continue
			}
			sb.WriteRune(r)
		}
		source = sb.String()
	}
	return regexpEscapes.Replace(source)
}

// MatchData is the result of a successful match.
type MatchData struct {
	header
	Regexp  *Regexp
	Subject string
	indexes []int
}

// Group returns capture n, or nil when it did not participate.
func (m *MatchData) Group(n int) Value {
	if n < 0 || 2*n+1 >= len(m.indexes) || m.indexes[2*n] < 0 {
		return nil
	}
	return NewString(m.Subject[m.indexes[2*n]:m.indexes[2*n+1]])
}

// Named returns the named capture, or nil.
func (m *MatchData) Named(name string) (Value, bool) {
	i := m.Regexp.re.SubexpIndex(name)
	if i < 0 {
		return nil, false
	}
	return m.Group(i), true
}

// PreMatch returns the text before the match.
func (m *MatchData) PreMatch() string { return m.Subject[:m.indexes[0]] }

// PostMatch returns the text after the match.
func (m *MatchData) PostMatch() string { return m.Subject[m.indexes[1]:] }

// Size returns the number of groups, counting the whole match.
func (m *MatchData) Size() int { return len(m.indexes) / 2 }

// Object is an instance of a user defined or core class without a more
// specific representation, exceptions included.
type Object struct {
	header
	class *Class
}

// Class returns the object's class, not its singleton.
func (o *Object) Class() *Class { return o.class }

// Proc is a block turned into a value. Procs compiled from a block carry
// the frame they were created in; native procs carry Fn instead.
type Proc struct {
	header
	ISeq   *bytecode.InstructionSequence
	Env    *Frame
	Self   Value
	Lambda bool
	Fn     func(vm *VM, args []Value, blk *Proc) Value
	arity  int
}

// Rational is an exact fraction.
type Rational struct {
	header
	Rat *big.Rat
}

// Complex is a complex number literal. Arithmetic on complex values is not
// provided.
type Complex struct {
	header
	Real Value
	Imag Value
}

// Truthy reports whether v counts as true: everything but nil and false.
func Truthy(v Value) bool {
	switch b := v.(type) {
	case nil:
		return false
	case bool:
		return b
	}
	return true
}

// ---------------------------------------------------------------------------
// Operand conversion
// ---------------------------------------------------------------------------

// fromOperand turns an instruction operand into a fresh runtime value.
// Strings and collections come back unfrozen unless frozen is set.
func (vm *VM) fromOperand(v any, frozen bool) Value {
	switch x := v.(type) {
	case nil, bool, int64, float64:
		return x
	case int:
		return int64(x)
	case *big.Int:
		if x.IsInt64() {
			return x.Int64()
		}
		return x
	case string:
		s := NewString(x)
		s.frozen = frozen
		return s
	case bytecode.Symbol:
		return Symbol(x)
	case []any:
		elems := make([]Value, len(x))
		for i, e := range x {
			elems[i] = vm.fromOperand(e, frozen)
		}
		a := NewArray(elems...)
		a.frozen = frozen
		return a
	case bytecode.Pairs:
		h := NewHash()
		for _, p := range x {
			h.Set(vm.fromOperand(p.Key, true), vm.fromOperand(p.Value, frozen))
		}
		h.frozen = frozen
		return h
	case bytecode.Range:
		return &Range{header: header{frozen: true}, Begin: vm.fromOperand(x.Begin, true), End: vm.fromOperand(x.End, true), Exclusive: x.ExcludeEnd}
	case bytecode.Regexp:
		re, err := NewRegexp(x.Source, x.Options)
		if err != nil {
			vm.raise(vm.newError("RegexpError", "%s", err.Error()))
		}
		return re
	case bytecode.Rational:
		return &Rational{header: header{frozen: true}, Rat: big.NewRat(x.Num, x.Den)}
	case bytecode.Complex:
		return &Complex{header: header{frozen: true}, Real: vm.fromOperand(x.Real, true), Imag: vm.fromOperand(x.Imag, true)}
	case bytecode.ClassRef:
		return vm.constGet(vm.ObjectClass, string(x))
	}
	bytecode.Fault(v, "operand of type %T has no runtime value", v)
	return nil
}
