package bytecode

import (
	"strconv"
	"strings"

	"github.com/cnf/structhash"
)

// Call site flags, in CRuby's bit order.
const (
	CallArgsSplat   = 1 << iota // f(*a)
	CallArgsBlockarg            // f(&b)
	CallFCall                   // receiverless call
	CallVCall                   // bare identifier call
	CallArgsSimple              // no splat, kwargs or block arg
	CallBlockISeq               // literal block
	CallKwarg                   // static keyword arguments
	CallKwSplat                 // f(**h)
	CallTailcall                // tail call hint
	CallSuper                   // super(...)
	CallZSuper                  // bare super
	CallOptSend                 // internal send
	CallKwSplatMut              // kwsplat hash may be mutated
)

var callFlagNames = []string{
	"ARGS_SPLAT", "ARGS_BLOCKARG", "FCALL", "VCALL", "ARGS_SIMPLE",
	"BLOCKISEQ", "KWARG", "KW_SPLAT", "TAILCALL", "SUPER", "ZSUPER",
	"OPT_SEND", "KW_SPLAT_MUT",
}

// CallData describes one call site: method name, positional argument
// count, flags and the names of static keyword arguments. Method is empty
// for blocks and super calls.
type CallData struct {
	Method string
	Argc   int
	Flags  int
	KwArg  []string
}

// NewCallData builds a call site descriptor.
func NewCallData(method string, argc, flags int, kwArg ...string) *CallData {
	return &CallData{Method: method, Argc: argc, Flags: flags, KwArg: kwArg}
}

// Flag reports whether every bit in mask is set.
func (cd *CallData) Flag(mask int) bool {
	return cd.Flags&mask == mask
}

// Equal compares two call sites by field values.
func (cd *CallData) Equal(other *CallData) bool {
	if cd == nil || other == nil {
		return cd == other
	}
	if cd.Method != other.Method || cd.Argc != other.Argc || cd.Flags != other.Flags || len(cd.KwArg) != len(other.KwArg) {
		return false
	}
	for i := range cd.KwArg {
		if cd.KwArg[i] != other.KwArg[i] {
			return false
		}
	}
	return true
}

// Key returns a structural hash of the call site, stable across processes.
// Equal call sites have equal keys.
func (cd *CallData) Key() string {
	key, err := structhash.Hash(cd, 1)
	if err != nil {
		Fault(cd, "hash call data: %v", err)
	}
	return key
}

// ToH serializes the call site as {mid:, flag:, orig_argc:, kw_arg:}.
func (cd *CallData) ToH() Pairs {
	var mid any
	if cd.Method != "" {
		mid = Symbol(cd.Method)
	}
	out := Pairs{
		{Key: Symbol("mid"), Value: mid},
		{Key: Symbol("flag"), Value: int64(cd.Flags)},
		{Key: Symbol("orig_argc"), Value: int64(cd.Argc)},
	}
	if len(cd.KwArg) > 0 {
		kw := make([]any, len(cd.KwArg))
		for i, name := range cd.KwArg {
			kw[i] = Symbol(name)
		}
		out = append(out, Pair{Key: Symbol("kw_arg"), Value: kw})
	}
	return out
}

// Inspect renders the call site the way CRuby's disassembler does, for
// example <calldata!mid:foo, argc:1, FCALL|ARGS_SIMPLE>.
func (cd *CallData) Inspect() string {
	var parts []string
	if cd.Method != "" {
		parts = append(parts, "mid:"+cd.Method)
	}
	parts = append(parts, "argc:"+strconv.Itoa(cd.Argc))
	if len(cd.KwArg) > 0 {
		parts = append(parts, "kw:["+strings.Join(cd.KwArg, ", ")+"]")
	}
	var flags []string
	for i, name := range callFlagNames {
		if cd.Flags&(1<<i) != 0 {
			flags = append(flags, name)
		}
	}
	if len(flags) > 0 {
		parts = append(parts, strings.Join(flags, "|"))
	}
	return "<calldata!" + strings.Join(parts, ", ") + ">"
}
