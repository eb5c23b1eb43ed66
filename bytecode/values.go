package bytecode

import (
	"fmt"
	"math"
	"math/big"
	"strconv"
	"strings"
)

// Operand values carried by instructions are plain Go values: nil, bool,
// int64, *big.Int, float64, string, []any, and the types below.

// Symbol is an interned name, serialized as a Ruby symbol.
type Symbol string

// Pair is one entry of an ordered mapping.
type Pair struct {
	Key   any
	Value any
}

// Pairs is an insertion-ordered mapping, serialized as a Ruby hash.
type Pairs []Pair

// Get returns the value stored under key.
func (p Pairs) Get(key any) (any, bool) {
	for _, pair := range p {
		if ValuesEqual(pair.Key, key) {
			return pair.Value, true
		}
	}
	return nil, false
}

// Range is a static range literal.
type Range struct {
	Begin      any
	End        any
	ExcludeEnd bool
}

// ClassRef names a core class used as an operand, such as the Object
// pushed before a top-level constant lookup.
type ClassRef string

func (c ClassRef) String() string { return string(c) }

// Regexp option bits.
const (
	RegexpIgnoreCase = 1
	RegexpExtended   = 2
	RegexpMultiline  = 4
)

// Regexp is a static regular expression literal.
type Regexp struct {
	Source  string
	Options int
}

// Rational is a reduced fraction.
type Rational struct {
	Num int64
	Den int64
}

// NewRational reduces num/den.
func NewRational(num, den int64) Rational {
	if den < 0 {
		num, den = -num, -den
	}
	g := gcd(abs64(num), den)
	if g > 1 {
		num, den = num/g, den/g
	}
	return Rational{Num: num, Den: den}
}

func gcd(a, b int64) int64 {
	for b != 0 {
		a, b = b, a%b
	}
	if a == 0 {
		return 1
	}
	return a
}

func abs64(v int64) int64 {
	if v < 0 {
		return -v
	}
	return v
}

// Complex is a complex literal. Real and Imag are numeric operand values.
type Complex struct {
	Real any
	Imag any
}

// ValuesEqual compares two operand values structurally.
func ValuesEqual(a, b any) bool {
	switch av := a.(type) {
	case []any:
		bv, ok := b.([]any)
		if !ok || len(av) != len(bv) {
			return false
		}
		for i := range av {
			if !ValuesEqual(av[i], bv[i]) {
				return false
			}
		}
		return true
	case Pairs:
		bv, ok := b.(Pairs)
		if !ok || len(av) != len(bv) {
			return false
		}
		for i := range av {
			if !ValuesEqual(av[i].Key, bv[i].Key) || !ValuesEqual(av[i].Value, bv[i].Value) {
				return false
			}
		}
		return true
	case *big.Int:
		bv, ok := b.(*big.Int)
		return ok && av.Cmp(bv) == 0
	case Range:
		bv, ok := b.(Range)
		return ok && av.ExcludeEnd == bv.ExcludeEnd && ValuesEqual(av.Begin, bv.Begin) && ValuesEqual(av.End, bv.End)
	case Complex:
		bv, ok := b.(Complex)
		return ok && ValuesEqual(av.Real, bv.Real) && ValuesEqual(av.Imag, bv.Imag)
	case *CallData:
		bv, ok := b.(*CallData)
		return ok && av.Equal(bv)
	}
	return a == b
}

// Inspect renders an operand value the way Ruby's #inspect would.
func Inspect(v any) string {
	switch val := v.(type) {
	case nil:
		return "nil"
	case bool:
		return strconv.FormatBool(val)
	case int:
		return strconv.Itoa(val)
	case int64:
		return strconv.FormatInt(val, 10)
	case *big.Int:
		return val.String()
	case float64:
		return FormatFloat(val)
	case string:
		return QuoteString(val)
	case Symbol:
		return InspectSymbol(string(val))
	case []any:
		parts := make([]string, len(val))
		for i, e := range val {
			parts[i] = Inspect(e)
		}
		return "[" + strings.Join(parts, ", ") + "]"
	case Pairs:
		if len(val) == 0 {
			return "{}"
		}
		parts := make([]string, len(val))
		for i, p := range val {
			parts[i] = Inspect(p.Key) + "=>" + Inspect(p.Value)
		}
		return "{" + strings.Join(parts, ", ") + "}"
	case Range:
		op := ".."
		if val.ExcludeEnd {
			op = "..."
		}
		b, e := "", ""
		if val.Begin != nil {
			b = Inspect(val.Begin)
		}
		if val.End != nil {
			e = Inspect(val.End)
		}
		return b + op + e
	case Regexp:
		return "/" + val.Source + "/" + RegexpFlags(val.Options)
	case Rational:
		return fmt.Sprintf("(%d/%d)", val.Num, val.Den)
	case Complex:
		imag := Inspect(val.Imag)
		if !strings.HasPrefix(imag, "-") {
			imag = "+" + imag
		}
		return "(" + Inspect(val.Real) + imag + "i)"
	case *CallData:
		return val.Inspect()
	case *InstructionSequence:
		return val.Inspect()
	case fmt.Stringer:
		return val.String()
	}
	return fmt.Sprintf("%v", v)
}

// RegexpFlags renders option bits as a suffix such as "mix".
func RegexpFlags(options int) string {
	var sb strings.Builder
	if options&RegexpMultiline != 0 {
		sb.WriteByte('m')
	}
	if options&RegexpIgnoreCase != 0 {
		sb.WriteByte('i')
	}
	if options&RegexpExtended != 0 {
		sb.WriteByte('x')
	}
	return sb.String()
}

// FormatFloat renders a float the way Float#to_s does.
func FormatFloat(f float64) string {
	switch {
	case math.IsInf(f, 1):
		return "Infinity"
	case math.IsInf(f, -1):
		return "-Infinity"
	case math.IsNaN(f):
		return "NaN"
	}
	a := math.Abs(f)
	if a == 0 || (a >= 1e-4 && a < 1e16) {
		s := strconv.FormatFloat(f, 'f', -1, 64)
		if !strings.Contains(s, ".") {
			s += ".0"
		}
		return s
	}
	s := strconv.FormatFloat(f, 'e', -1, 64)
	mant, exp, _ := strings.Cut(s, "e")
	if !strings.Contains(mant, ".") {
		mant += ".0"
	}
	return mant + "e" + exp
}

// QuoteString renders s as a double quoted Ruby string literal.
func QuoteString(s string) string {
	var sb strings.Builder
	sb.WriteByte('"')
	for _, r := range s {
		switch r {
		case '"':
			sb.WriteString(`\"`)
		case '\\':
			sb.WriteString(`\\`)
		case '\n':
			sb.WriteString(`\n`)
		case '\t':
			sb.WriteString(`\t`)
		case '\r':
			sb.WriteString(`\r`)
		case '\x1b':
			sb.WriteString(`\e`)
		case '#':
			sb.WriteByte('#')
		default:
			if r < 0x20 {
				fmt.Fprintf(&sb, `\x%02X`, r)
			} else {
				sb.WriteRune(r)
			}
		}
	}
	sb.WriteByte('"')
	return sb.String()
}

// InspectSymbol renders a symbol name with its leading colon, quoting it
// when it is not a plain identifier or operator.
func InspectSymbol(name string) string {
	if plainSymbol(name) {
		return ":" + name
	}
	return ":" + QuoteString(name)
}

var operatorSymbols = map[string]bool{
	"+": true, "-": true, "*": true, "/": true, "%": true, "**": true,
	"==": true, "!=": true, "===": true, "=~": true, "!~": true, "<=>": true,
	"<": true, "<=": true, ">": true, ">=": true, "<<": true, ">>": true,
	"&": true, "|": true, "^": true, "~": true, "!": true, "+@": true, "-@": true,
	"[]": true, "[]=": true, "`": true,
}

func plainSymbol(name string) bool {
	if name == "" {
		return false
	}
	if operatorSymbols[name] {
		return true
	}
	body := name
	switch {
	case strings.HasPrefix(body, "@@"):
		body = body[2:]
	case strings.HasPrefix(body, "@"), strings.HasPrefix(body, "$"):
		body = body[1:]
	}
	if body == "" {
		return false
	}
	if last := body[len(body)-1]; last == '?' || last == '!' || last == '=' {
		body = body[:len(body)-1]
	}
	if body == "" {
		return false
	}
	for i, r := range body {
		if r == '_' || r > 0x7f || (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') {
			continue
		}
		if i > 0 && r >= '0' && r <= '9' {
			continue
		}
		return false
	}
	return true
}
