package vm

import (
	"fmt"
	"math"
	"math/big"
	"strconv"
	"strings"
	"unicode/utf8"
)

// ---------------------------------------------------------------------------
// Kernel#format
// ---------------------------------------------------------------------------

// formatSpec is one parsed % directive.
type formatSpec struct {
	flags     string
	width     int
	precision int
	hasWidth  bool
	hasPrec   bool
	verb      byte
}

// sprintf implements Kernel#format and String#%. Directives take the
// flags "-+ 0#", a width and precision (either may be *), and the
// %<name>f and %{name} references into a trailing hash.
func (vm *VM) sprintf(format string, args []Value) string {
	var sb strings.Builder
	next := 0
	take := func() Value {
		if next >= len(args) {
			vm.raiseError("ArgumentError", "too few arguments")
		}
		v := args[next]
		next++
		return v
	}
	named := func(name string) Value {
		var h *Hash
		if len(args) > 0 {
			h, _ = args[len(args)-1].(*Hash)
		}
		if h == nil {
			vm.raiseError("ArgumentError", "one hash required")
		}
		v, ok := h.Get(Symbol(name))
		if !ok {
			if h.DefaultProc == nil && h.Default == nil {
				vm.raiseError("KeyError", "key<%s> not found", name)
			}
			v = vm.hashFetch(h, Symbol(name))
		}
		return v
	}

	for i := 0; i < len(format); i++ {
		c := format[i]
		if c != '%' {
			sb.WriteByte(c)
			continue
		}
		i++
		if i >= len(format) {
			vm.raiseError("ArgumentError", "incomplete format specifier; use %%%% (double %%) instead")
		}
		if format[i] == '%' {
			sb.WriteByte('%')
			continue
		}

		var spec formatSpec
		var value Value
		haveValue := false
	parse:
		for ; i < len(format); i++ {
			switch ch := format[i]; {
			case strings.IndexByte("-+ 0#", ch) >= 0:
				spec.flags += string(ch)
			case ch == '<' || ch == '{':
				closer := byte('>')
				if ch == '{' {
					closer = '}'
				}
				end := strings.IndexByte(format[i:], closer)
				if end < 0 {
					vm.raiseError("ArgumentError", "malformed name - unmatched parenthesis")
				}
				value = named(format[i+1 : i+end])
				haveValue = true
				i += end
				if ch == '{' {
					spec.verb = 's'
					break parse
				}
			case ch == '*':
				n := int(vm.toInt(take()))
				if n < 0 {
					spec.flags += "-"
					n = -n
				}
				spec.width, spec.hasWidth = n, true
			case ch >= '1' && ch <= '9':
				j := i
				for j < len(format) && format[j] >= '0' && format[j] <= '9' {
					j++
				}
				n, _ := strconv.Atoi(format[i:j])
				if j < len(format) && format[j] == '$' {
					if n > len(args) {
						vm.raiseError("ArgumentError", "too few arguments")
					}
					value, haveValue = args[n-1], true
					i = j
					continue
				}
				spec.width, spec.hasWidth = n, true
				i = j - 1
			case ch == '.':
				j := i + 1
				if j < len(format) && format[j] == '*' {
					spec.precision = int(vm.toInt(take()))
					spec.hasPrec = true
					i = j
					continue
				}
				for j < len(format) && format[j] >= '0' && format[j] <= '9' {
					j++
				}
				spec.precision, _ = strconv.Atoi(format[i+1 : j])
				spec.hasPrec = true
				i = j - 1
			default:
				spec.verb = ch
				break parse
			}
		}
		if spec.verb == 0 {
			vm.raiseError("ArgumentError", "malformed format string - %%")
		}
		if !haveValue {
			value = take()
		}
		sb.WriteString(vm.formatDirective(spec, value))
	}
	return sb.String()
}

func (vm *VM) formatDirective(spec formatSpec, v Value) string {
	switch spec.verb {
	case 'd', 'i', 'u':
		return spec.pad(vm.formatInt(spec, v, 10))
	case 'x', 'X', 'o', 'b', 'B':
		base := map[byte]int{'x': 16, 'X': 16, 'o': 8, 'b': 2, 'B': 2}[spec.verb]
		s := vm.formatInt(spec, v, base)
		if spec.verb == 'X' {
			s = strings.ToUpper(s)
		}
		return spec.pad(s)
	case 'f', 'e', 'E', 'g', 'G', 'a', 'A':
		f, ok := toFloat(v)
		if !ok {
			f, _ = toFloat(vm.convertFloat(v))
		}
		return spec.pad(spec.formatFloat(f))
	case 's':
		s := vm.ToS(v)
		if spec.hasPrec && utf8.RuneCountInString(s) > spec.precision {
			s = string([]rune(s)[:spec.precision])
		}
		return spec.pad(s)
	case 'p':
		s := vm.Inspect(v)
		if spec.hasPrec && utf8.RuneCountInString(s) > spec.precision {
			s = string([]rune(s)[:spec.precision])
		}
		return spec.pad(s)
	case 'c':
		if n, ok := v.(int64); ok {
			return spec.pad(string(rune(n)))
		}
		s := vm.toStr(v)
		r, _ := utf8.DecodeRuneInString(s)
		return spec.pad(string(r))
	}
	vm.raiseError("ArgumentError", "malformed format string - %%%c", spec.verb)
	return ""
}

// formatInt renders an integer directive without padding. Floats are
// floored, strings converted as Integer() does.
func (vm *VM) formatInt(spec formatSpec, v Value, base int) string {
	var n *big.Int
	switch x := v.(type) {
	case float64:
		n, _ = toBig(floatToInt(math.Floor(x)))
	default:
		var ok bool
		if n, ok = toBig(x); !ok {
			n, _ = toBig(vm.convertInteger(v, 10))
		}
	}
	digits := new(big.Int).Abs(n).Text(base)
	if spec.hasPrec && len(digits) < spec.precision {
		digits = strings.Repeat("0", spec.precision-len(digits)) + digits
	}
	if strings.Contains(spec.flags, "#") {
		switch spec.verb {
		case 'x':
			digits = "0x" + digits
		case 'X':
			digits = "0X" + digits
		case 'o':
			digits = "0" + digits
		case 'b':
			digits = "0b" + digits
		case 'B':
			digits = "0B" + digits
		}
	}
	return spec.sign(n.Sign() < 0) + digits
}

func (spec formatSpec) sign(negative bool) string {
	switch {
	case negative:
		return "-"
	case strings.Contains(spec.flags, "+"):
		return "+"
	case strings.Contains(spec.flags, " "):
		return " "
	}
	return ""
}

func (spec formatSpec) formatFloat(f float64) string {
	if math.IsInf(f, 0) || math.IsNaN(f) {
		s := "Inf"
		if math.IsNaN(f) {
			s = "NaN"
		}
		return spec.sign(math.IsInf(f, -1)) + s
	}
	prec := 6
	if spec.hasPrec {
		prec = spec.precision
	}
	verb := spec.verb
	if verb == 'a' || verb == 'A' {
		verb = 'x'
		prec = -1
	}
	s := strconv.FormatFloat(math.Abs(f), verb, prec, 64)
	if (verb == 'g' || verb == 'G') && strings.Contains(spec.flags, "#") && !strings.Contains(s, ".") {
		s += "."
	}
	return spec.sign(math.Signbit(f)) + s
}

// pad applies the width with spaces, or zeros after the sign for the 0
// flag.
func (spec formatSpec) pad(s string) string {
	n := utf8.RuneCountInString(s)
	if !spec.hasWidth || n >= spec.width {
		return s
	}
	fill := spec.width - n
	switch {
	case strings.Contains(spec.flags, "-"):
		return s + strings.Repeat(" ", fill)
	case strings.Contains(spec.flags, "0") && spec.verb != 's' && spec.verb != 'p' && spec.verb != 'c':
		prefix := ""
		if s != "" && strings.IndexByte("+- ", s[0]) >= 0 {
			prefix, s = s[:1], s[1:]
		}
		return prefix + strings.Repeat("0", fill) + s
	}
	return fmt.Sprintf("%*s", spec.width, s)
}
