package vm

import (
	"fmt"
	"math"
	"math/big"
	"strconv"
	"strings"
	"unicode"

	"github.com/ruby-syntax-tree/syntax-tree-sub003/bytecode"
)

// ---------------------------------------------------------------------------
// Conversion to text
// ---------------------------------------------------------------------------

// ToS converts v with to_s. A to_s that does not return a String falls
// back to the default #<Class> form.
func (vm *VM) ToS(v Value) string {
	if s, ok := v.(*String); ok {
		return s.Value
	}
	if s, ok := vm.Send(v, "to_s").(*String); ok {
		return s.Value
	}
	return vm.defaultToS(v)
}

// Inspect converts v with inspect.
func (vm *VM) Inspect(v Value) string {
	if s, ok := vm.Send(v, "inspect").(*String); ok {
		return s.Value
	}
	return vm.defaultToS(v)
}

// defaultToS is Kernel#to_s: the class name and an address.
func (vm *VM) defaultToS(v Value) string {
	return fmt.Sprintf("#<%s:0x%016x>", vm.ClassOf(v).FullName(), vm.objectID(v))
}

// inspectObject is Kernel#inspect: the class, an address and the instance
// variables.
func (vm *VM) inspectObject(v Value) string {
	h, ok := v.(heapValue)
	if !ok {
		return vm.defaultToS(v)
	}
	names := h.hdr().IvarNames()
	if len(names) == 0 {
		return vm.defaultToS(v)
	}
	base := vm.defaultToS(v)
	base = base[:len(base)-1]
	return vm.guardInspect(v, base+" ...>", func() string {
		parts := make([]string, len(names))
		for i, name := range names {
			iv, _ := h.hdr().Ivar(name)
			parts[i] = name + "=" + vm.Inspect(iv)
		}
		return base + " " + strings.Join(parts, ", ") + ">"
	})
}

// guardInspect runs fn unless v is already being inspected further up,
// in which case it returns the placeholder.
func (vm *VM) guardInspect(v Value, placeholder string, fn func() string) string {
	if vm.inspecting[v] {
		return placeholder
	}
	vm.inspecting[v] = true
	defer delete(vm.inspecting, v)
	return fn()
}

// inspectValue renders the core types the way their inspect methods do.
func (vm *VM) inspectValue(v Value) string {
	switch x := v.(type) {
	case nil:
		return "nil"
	case bool:
		return strconv.FormatBool(x)
	case int64:
		return strconv.FormatInt(x, 10)
	case *big.Int:
		return x.String()
	case float64:
		return formatFloat(x)
	case Symbol:
		return inspectSymbol(string(x))
	case *String:
		return quoteString(x.Value)
	case *Array:
		return vm.guardInspect(x, "[...]", func() string {
			parts := make([]string, len(x.Elements))
			for i, e := range x.Elements {
				parts[i] = vm.Inspect(e)
			}
			return "[" + strings.Join(parts, ", ") + "]"
		})
	case *Hash:
		if x.Len() == 0 {
			return "{}"
		}
		return vm.guardInspect(x, "{...}", func() string {
			entries := x.Entries()
			parts := make([]string, len(entries))
			for i, e := range entries {
				parts[i] = vm.Inspect(e.Key) + "=>" + vm.Inspect(e.Value)
			}
			return "{" + strings.Join(parts, ", ") + "}"
		})
	case *Range:
		var sb strings.Builder
		if x.Begin != nil {
			sb.WriteString(vm.Inspect(x.Begin))
		}
		sb.WriteString("..")
		if x.Exclusive {
			sb.WriteString(".")
		}
		if x.End != nil {
			sb.WriteString(vm.Inspect(x.End))
		}
		return sb.String()
	case *Regexp:
		return "/" + x.Source + "/" + regexpFlags(x.Options)
	case *MatchData:
		parts := []string{quoteString(x.Subject[x.indexes[0]:x.indexes[1]])}
		names := x.Regexp.re.SubexpNames()
		for i := 1; i < x.Size(); i++ {
			label := strconv.Itoa(i)
			if i < len(names) && names[i] != "" {
				label = names[i]
			}
			parts = append(parts, label+":"+vm.Inspect(x.Group(i)))
		}
		return "#<MatchData " + strings.Join(parts, " ") + ">"
	case *Rational:
		return "(" + x.Rat.Num().String() + "/" + x.Rat.Denom().String() + ")"
	case *Complex:
		imag := vm.Inspect(x.Imag)
		if !strings.HasPrefix(imag, "-") {
			imag = "+" + imag
		}
		return "(" + vm.Inspect(x.Real) + imag + "i)"
	case *Proc:
		base := vm.defaultToS(x)
		if x.Lambda {
			return base[:len(base)-1] + " (lambda)>"
		}
		return base
	case *Class:
		return vm.className(x)
	}
	return vm.inspectObject(v)
}

// className is Module#to_s: the qualified name, or a description of an
// anonymous or singleton class.
func (vm *VM) className(c *Class) string {
	if c.IsSingleton() {
		return "#<Class:" + vm.Inspect(c.Attached) + ">"
	}
	if name := c.FullName(); name != "" {
		return name
	}
	if c.IsModule {
		return fmt.Sprintf("#<Module:0x%016x>", vm.objectID(c))
	}
	return fmt.Sprintf("#<Class:0x%016x>", vm.objectID(c))
}

func regexpFlags(options int) string {
	flags := ""
	if options&bytecode.RegexpMultiline != 0 {
		flags += "m"
	}
	if options&bytecode.RegexpIgnoreCase != 0 {
		flags += "i"
	}
	if options&bytecode.RegexpExtended != 0 {
		flags += "x"
	}
	return flags
}

// formatFloat prints a Float the way Ruby does: always with a fraction,
// switching to exponent form outside [1e-4, 1e16).
func formatFloat(f float64) string {
	switch {
	case math.IsInf(f, 1):
		return "Infinity"
	case math.IsInf(f, -1):
		return "-Infinity"
	case math.IsNaN(f):
		return "NaN"
	}
	abs := math.Abs(f)
	if abs != 0 && (abs >= 1e16 || abs < 1e-4) {
		s := strconv.FormatFloat(f, 'e', -1, 64)
		mant, exp, _ := strings.Cut(s, "e")
		if !strings.Contains(mant, ".") {
			mant += ".0"
		}
		return mant + "e" + exp
	}
	s := strconv.FormatFloat(f, 'f', -1, 64)
	if !strings.Contains(s, ".") {
		s += ".0"
	}
	return s
}

// quoteString renders a String literal with Ruby's escapes.
func quoteString(s string) string {
	var sb strings.Builder
	sb.WriteByte('"')
	for i, r := range s {
		switch r {
		case '"', '\\':
			sb.WriteByte('\\')
			sb.WriteRune(r)
		case '\n':
			sb.WriteString(`\n`)
		case '\t':
			sb.WriteString(`\t`)
		case '\r':
			sb.WriteString(`\r`)
		case '\x1b':
			sb.WriteString(`\e`)
		case 0:
			sb.WriteString(`\0`)
		case '#':
			if i+1 < len(s) && (s[i+1] == '{' || s[i+1] == '$' || s[i+1] == '@') {
				sb.WriteByte('\\')
			}
			sb.WriteByte('#')
		default:
			if r == unicode.ReplacementChar || !unicode.IsPrint(r) {
				fmt.Fprintf(&sb, `\x%02X`, s[i])
				continue
			}
			sb.WriteRune(r)
		}
	}
	sb.WriteByte('"')
	return sb.String()
}

// inspectSymbol quotes a symbol when its name is not a plain identifier or
// operator.
func inspectSymbol(name string) string {
	if symbolIsPlain(name) {
		return ":" + name
	}
	return ":" + quoteString(name)
}

var operatorSymbols = map[string]bool{
	"+": true, "-": true, "*": true, "/": true, "%": true, "**": true,
	"==": true, "===": true, "!=": true, "<=>": true, "<": true, "<=": true,
	">": true, ">=": true, "<<": true, ">>": true, "&": true, "|": true,
	"^": true, "~": true, "!": true, "=~": true, "!~": true, "[]": true,
	"[]=": true, "+@": true, "-@": true, "call": true,
}

func symbolIsPlain(name string) bool {
	if operatorSymbols[name] {
		return true
	}
	if name == "" {
		return false
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
	for i, r := range body {
		if r == '_' || unicode.IsLetter(r) || (i > 0 && unicode.IsDigit(r)) {
			continue
		}
		return false
	}
	return body != ""
}

// ---------------------------------------------------------------------------
// Equality and ordering
// ---------------------------------------------------------------------------

// equal is ==, answered directly for the core immediates and strings.
func (vm *VM) equal(a, b Value) bool {
	switch x := a.(type) {
	case nil, bool, Symbol:
		return a == b
	case int64, float64, *big.Int:
		if c, ok := compareNumbers(a, b); ok {
			return c == 0
		}
		return false
	case *String:
		if y, ok := b.(*String); ok {
			return x.Value == y.Value
		}
		return false
	}
	return Truthy(vm.Send(a, "==", b))
}

// compare is <=>. The second result is false when the values are not
// comparable.
func (vm *VM) compare(a, b Value) (int, bool) {
	if c, ok := compareNumbers(a, b); ok {
		return c, true
	}
	if x, ok := a.(*String); ok {
		if y, ok := b.(*String); ok {
			return strings.Compare(x.Value, y.Value), true
		}
		return 0, false
	}
	switch r := vm.Send(a, "<=>", b).(type) {
	case int64:
		return sign(r), true
	case float64:
		return sign(int64(r)), true
	}
	return 0, false
}

func sign(n int64) int {
	switch {
	case n < 0:
		return -1
	case n > 0:
		return 1
	}
	return 0
}

// compareNumbers orders two numeric values. NaN is not comparable.
func compareNumbers(a, b Value) (int, bool) {
	if x, ok := a.(int64); ok {
		if y, ok := b.(int64); ok {
			switch {
			case x < y:
				return -1, true
			case x > y:
				return 1, true
			}
			return 0, true
		}
	}
	if x, ok := toBig(a); ok {
		if y, ok := toBig(b); ok {
			return x.Cmp(y), true
		}
	}
	x, okA := toFloat(a)
	y, okB := toFloat(b)
	if !okA || !okB || math.IsNaN(x) || math.IsNaN(y) {
		return 0, false
	}
	switch {
	case x < y:
		return -1, true
	case x > y:
		return 1, true
	}
	return 0, true
}

func toFloat(v Value) (float64, bool) {
	switch x := v.(type) {
	case int64:
		return float64(x), true
	case float64:
		return x, true
	case *big.Int:
		f, _ := new(big.Float).SetInt(x).Float64()
		return f, true
	case *Rational:
		f, _ := x.Rat.Float64()
		return f, true
	}
	return 0, false
}

func toBig(v Value) (*big.Int, bool) {
	switch x := v.(type) {
	case int64:
		return big.NewInt(x), true
	case *big.Int:
		return x, true
	}
	return nil, false
}

// ---------------------------------------------------------------------------
// Collection conversions
// ---------------------------------------------------------------------------

func (vm *VM) hashToA(h *Hash) *Array {
	entries := h.Entries()
	out := make([]Value, len(entries))
	for i, e := range entries {
		out[i] = NewArray(e.Key, e.Value)
	}
	return NewArray(out...)
}

// rangeElements enumerates a finite Integer or String range.
func (vm *VM) rangeElements(r *Range) []Value {
	var out []Value
	vm.eachInRange(r, func(v Value) bool {
		out = append(out, v)
		return true
	})
	return out
}

// eachInRange calls fn with each element of r until fn returns false.
func (vm *VM) eachInRange(r *Range, fn func(Value) bool) {
	switch b := r.Begin.(type) {
	case int64:
		if r.End == nil {
			for i := b; ; i++ {
				if !fn(i) {
					return
				}
			}
		}
		end, ok := r.End.(int64)
		if !ok {
			f, isFloat := r.End.(float64)
			if !isFloat {
				vm.raiseError("TypeError", "can't iterate from %s", vm.ClassOf(r.End).FullName())
			}
			end = int64(math.Floor(f))
			if r.Exclusive && float64(end) == f {
				end--
			}
		} else if r.Exclusive {
			end--
		}
		for i := b; i <= end; i++ {
			if !fn(i) {
				return
			}
		}
	case *String:
		end, ok := r.End.(*String)
		if !ok {
			vm.raiseError("TypeError", "can't iterate from String")
		}
		s := b.Value
		for len(s) <= len(end.Value) {
			if s == end.Value {
				if !r.Exclusive {
					fn(NewString(s))
				}
				return
			}
			if !fn(NewString(s)) {
				return
			}
			s = strSucc(s)
		}
	case nil:
		vm.raiseError("TypeError", "can't iterate from NilClass")
	default:
		vm.raiseError("TypeError", "can't iterate from %s", vm.ClassOf(r.Begin).FullName())
	}
}

// rangeCovers reports whether v lies within r by comparison.
func (vm *VM) rangeCovers(r *Range, v Value) bool {
	if r.Begin != nil {
		c, ok := vm.compare(r.Begin, v)
		if !ok || c > 0 {
			return false
		}
	}
	if r.End != nil {
		c, ok := vm.compare(v, r.End)
		if !ok || c > 0 || (r.Exclusive && c == 0) {
			return false
		}
	}
	return true
}
