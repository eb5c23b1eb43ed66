package vm

import (
	"hash/fnv"
	"math/big"
	"regexp"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"
)

// ---------------------------------------------------------------------------
// String
// ---------------------------------------------------------------------------

func isAlnum(c byte) bool {
	return c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c >= '0' && c <= '9'
}

// strSucc is String#succ: the rightmost alphanumeric is incremented with
// carry into the alphanumerics to its left.
func strSucc(s string) string {
	if s == "" {
		return ""
	}
	b := []byte(s)
	i := len(b) - 1
	for i >= 0 && !isAlnum(b[i]) {
		i--
	}
	if i < 0 {
		for j := len(b) - 1; j >= 0; j-- {
			if b[j] < 0xff {
				b[j]++
				return string(b)
			}
			b[j] = 0
		}
		return "\x01" + string(b)
	}
	for {
		c := b[i]
		switch c {
		case 'z':
			b[i] = 'a'
		case 'Z':
			b[i] = 'A'
		case '9':
			b[i] = '0'
		default:
			b[i]++
			return string(b)
		}
		j := i - 1
		for j >= 0 && !isAlnum(b[j]) {
			j--
		}
		if j < 0 {
			carry := byte('1')
			switch c {
			case 'z':
				carry = 'a'
			case 'Z':
				carry = 'A'
			}
			return string(b[:i]) + string(carry) + string(b[i:])
		}
		i = j
	}
}

func strHash(s string) int64 {
	h := fnv.New64a()
	h.Write([]byte(s))
	return int64(h.Sum64() >> 1)
}

// charSlice returns the characters [start, start+length) of s, counting
// negative starts from the end. ok is false when start is out of range.
func charSlice(s string, start, length int) (string, bool) {
	runes := []rune(s)
	n := len(runes)
	if start < 0 {
		start += n
	}
	if start < 0 || start > n || length < 0 {
		return "", false
	}
	end := min(start+length, n)
	return string(runes[start:end]), true
}

// rangeBounds resolves a Range against a sequence of n elements into a
// start and length. ok is false when the start is out of range.
func (vm *VM) rangeBounds(r *Range, n int) (start, length int, ok bool) {
	start = 0
	if r.Begin != nil {
		start = int(vm.toInt(r.Begin))
	}
	end := n
	if r.End != nil {
		end = int(vm.toInt(r.End))
		if end < 0 {
			end += n
		}
		if !r.Exclusive {
			end++
		}
	}
	if start < 0 {
		start += n
	}
	if start < 0 || start > n {
		return 0, 0, false
	}
	return start, max(0, min(end, n)-start), true
}

// strIndex implements String#[] and slice.
func (vm *VM) strIndex(s string, args []Value) Value {
	vm.checkArgs(args, 1, 2)
	if len(args) == 2 {
		if re, ok := args[0].(*Regexp); ok {
			m, ok := vm.match(re, s, 0).(*MatchData)
			if !ok {
				return nil
			}
			return vm.Send(m, "[]", args[1])
		}
		out, ok := charSlice(s, int(vm.toInt(args[0])), int(vm.toInt(args[1])))
		if !ok {
			return nil
		}
		return NewString(out)
	}
	switch x := args[0].(type) {
	case int64:
		out, ok := charSlice(s, int(x), 1)
		if !ok || out == "" {
			return nil
		}
		return NewString(out)
	case *Range:
		start, length, ok := vm.rangeBounds(x, utf8.RuneCountInString(s))
		if !ok {
			return nil
		}
		out, _ := charSlice(s, start, length)
		return NewString(out)
	case *String:
		if strings.Contains(s, x.Value) {
			return NewString(x.Value)
		}
		return nil
	case *Regexp:
		m, ok := vm.match(x, s, 0).(*MatchData)
		if !ok {
			return nil
		}
		return m.Group(0)
	}
	out, ok := charSlice(s, int(vm.toInt(args[0])), 1)
	if !ok || out == "" {
		return nil
	}
	return NewString(out)
}

// strSet implements String#[]=.
func (vm *VM) strSet(self *String, args []Value) Value {
	vm.checkArgs(args, 2, 3)
	vm.checkFrozen(self)
	runes := []rune(self.Value)
	v := args[len(args)-1]
	repl := vm.toStr(v)
	start, length := 0, 1
	switch x := args[0].(type) {
	case *String:
		i := strings.Index(self.Value, x.Value)
		if i < 0 {
			vm.raiseError("IndexError", "string not matched")
		}
		self.Value = self.Value[:i] + repl + self.Value[i+len(x.Value):]
		return v
	case *Regexp:
		m, ok := vm.match(x, self.Value, 0).(*MatchData)
		if !ok {
			vm.raiseError("IndexError", "regexp not matched")
		}
		self.Value = self.Value[:m.indexes[0]] + repl + self.Value[m.indexes[1]:]
		return v
	case *Range:
		var ok bool
		start, length, ok = vm.rangeBounds(x, len(runes))
		if !ok {
			vm.raiseError("RangeError", "%s out of range", vm.Inspect(x))
		}
	default:
		start = int(vm.toInt(x))
		if len(args) == 3 {
			length = int(vm.toInt(args[1]))
		}
		if start < 0 {
			start += len(runes)
		}
		if start < 0 || start > len(runes) || (len(args) == 2 && start == len(runes)) {
			vm.raiseError("IndexError", "index %d out of string", vm.toInt(x))
		}
	}
	end := min(start+length, len(runes))
	self.Value = string(runes[:start]) + repl + string(runes[end:])
	return v
}

// parseLeadingInt reads the integer prefix of s the way String#to_i does,
// returning 0 when there is none.
func parseLeadingInt(s string, base int) Value {
	s = strings.TrimLeftFunc(s, unicode.IsSpace)
	var sb strings.Builder
	if s != "" && (s[0] == '-' || s[0] == '+') {
		sb.WriteByte(s[0])
		s = s[1:]
	}
	if base == 16 {
		s = strings.TrimPrefix(strings.TrimPrefix(s, "0x"), "0X")
	}
	if base == 2 {
		s = strings.TrimPrefix(strings.TrimPrefix(s, "0b"), "0B")
	}
	digits := 0
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c == '_' && digits > 0 && i+1 < len(s) && s[i+1] != '_' {
			continue
		}
		d := digitValue(c)
		if d < 0 || d >= base {
			break
		}
		sb.WriteByte(c)
		digits++
	}
	if digits == 0 {
		return int64(0)
	}
	n, ok := new(big.Int).SetString(sb.String(), base)
	if !ok {
		return int64(0)
	}
	return normInt(n)
}

func digitValue(c byte) int {
	switch {
	case c >= '0' && c <= '9':
		return int(c - '0')
	case c >= 'a' && c <= 'z':
		return int(c-'a') + 10
	case c >= 'A' && c <= 'Z':
		return int(c-'A') + 10
	}
	return -1
}

var leadingFloat = regexp.MustCompile(`^\s*[+-]?(\d[\d_]*)(\.\d[\d_]*)?([eE][+-]?\d+)?`)

func parseLeadingFloat(s string) float64 {
	m := leadingFloat.FindString(s)
	if m == "" {
		return 0
	}
	f, err := strconv.ParseFloat(strings.ReplaceAll(strings.TrimSpace(m), "_", ""), 64)
	if err != nil {
		return 0
	}
	return f
}

// expandCharSet expands a tr/delete/count character specification with
// a-z ranges and a leading ^ for negation.
func expandCharSet(spec string) (set []rune, negate bool) {
	runes := []rune(spec)
	if len(runes) > 1 && runes[0] == '^' {
		negate = true
		runes = runes[1:]
	}
	for i := 0; i < len(runes); i++ {
		if i+2 < len(runes) && runes[i+1] == '-' {
			for r := runes[i]; r <= runes[i+2]; r++ {
				set = append(set, r)
			}
			i += 2
			continue
		}
		set = append(set, runes[i])
	}
	return set, negate
}

func inCharSet(r rune, set []rune, negate bool) bool {
	found := false
	for _, c := range set {
		if c == r {
			found = true
			break
		}
	}
	return found != negate
}

func strTr(s, from, to string) string {
	fromSet, negate := expandCharSet(from)
	toSet, _ := expandCharSet(to)
	var sb strings.Builder
	for _, r := range s {
		if !inCharSet(r, fromSet, negate) {
			sb.WriteRune(r)
			continue
		}
		if len(toSet) == 0 {
			continue
		}
		if negate {
			sb.WriteRune(toSet[len(toSet)-1])
			continue
		}
		i := 0
		for i < len(fromSet) && fromSet[i] != r {
			i++
		}
		sb.WriteRune(toSet[min(i, len(toSet)-1)])
	}
	return sb.String()
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	r, size := utf8.DecodeRuneInString(s)
	return string(unicode.ToUpper(r)) + strings.ToLower(s[size:])
}

func swapcase(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsUpper(r) {
			return unicode.ToLower(r)
		}
		return unicode.ToUpper(r)
	}, s)
}

// subst implements sub and gsub. It returns the new text and whether
// anything was replaced.
func (vm *VM) subst(s string, args []Value, blk *Proc, global bool) (string, bool) {
	if blk == nil {
		vm.checkArgs(args, 2, 2)
	} else {
		vm.checkArgs(args, 1, 2)
	}
	re := vm.toRegexp(args[0])
	var sb strings.Builder
	pos, changed := 0, false
	var last Value
	for pos <= len(s) {
		loc := re.re.FindStringSubmatchIndex(s[pos:])
		if loc == nil {
			break
		}
		for i := range loc {
			if loc[i] >= 0 {
				loc[i] += pos
			}
		}
		m := &MatchData{Regexp: re, Subject: s, indexes: loc}
		m.Freeze()
		last = m
		sb.WriteString(s[pos:loc[0]])
		switch {
		case len(args) == 2:
			if h, ok := args[1].(*Hash); ok {
				v, _ := h.Get(NewString(s[loc[0]:loc[1]]))
				sb.WriteString(vm.ToS(v))
			} else {
				sb.WriteString(expandReplacement(vm.toStr(args[1]), m))
			}
		default:
			vm.setBackref(m)
			sb.WriteString(vm.ToS(vm.yieldValue(blk, m.Group(0))))
		}
		changed = true
		if loc[1] == loc[0] {
			if loc[1] < len(s) {
				_, size := utf8.DecodeRuneInString(s[loc[1]:])
				sb.WriteString(s[loc[1] : loc[1]+size])
				pos = loc[1] + size
			} else {
				pos = loc[1] + 1
			}
		} else {
			pos = loc[1]
		}
		if !global {
			break
		}
	}
	if pos < len(s) {
		sb.WriteString(s[pos:])
	}
	vm.setBackref(last)
	if !changed {
		return s, false
	}
	return sb.String(), true
}

// split implements String#split.
func (vm *VM) split(s string, sep Value, limit int) *Array {
	var parts []string
	switch x := sep.(type) {
	case nil:
		parts = splitFields(s, limit)
	case *String:
		switch {
		case x.Value == " ":
			parts = splitFields(s, limit)
		case x.Value == "":
			for _, r := range s {
				parts = append(parts, string(r))
			}
		case limit > 0:
			parts = strings.SplitN(s, x.Value, limit)
		default:
			parts = strings.Split(s, x.Value)
		}
	case *Regexp:
		parts = splitRegexp(s, x.re, limit)
	default:
		vm.raiseError("TypeError", "wrong argument type %s (expected Regexp)", vm.typeName(sep))
	}
	if limit == 0 {
		for len(parts) > 0 && parts[len(parts)-1] == "" {
			parts = parts[:len(parts)-1]
		}
	}
	out := NewArray()
	if s == "" {
		return out
	}
	for _, p := range parts {
		out.Elements = append(out.Elements, NewString(p))
	}
	return out
}

func splitFields(s string, limit int) []string {
	if limit <= 0 {
		return strings.Fields(s)
	}
	var parts []string
	rest := strings.TrimLeftFunc(s, unicode.IsSpace)
	for len(parts) < limit-1 && rest != "" {
		i := strings.IndexFunc(rest, unicode.IsSpace)
		if i < 0 {
			break
		}
		parts = append(parts, rest[:i])
		rest = strings.TrimLeftFunc(rest[i:], unicode.IsSpace)
	}
	if rest != "" || len(parts) < limit-1 {
		parts = append(parts, rest)
	}
	return parts
}

func splitRegexp(s string, re *regexp.Regexp, limit int) []string {
	var parts []string
	start, search := 0, 0
	for search <= len(s) && (limit <= 0 || len(parts) < limit-1) {
		loc := re.FindStringSubmatchIndex(s[search:])
		if loc == nil {
			break
		}
		for i := range loc {
			if loc[i] >= 0 {
				loc[i] += search
			}
		}
		if loc[0] == loc[1] {
			// An empty match splits between characters, never at the ends.
			if loc[0] >= len(s) {
				break
			}
			if loc[0] == start {
				_, size := utf8.DecodeRuneInString(s[loc[0]:])
				search = loc[0] + size
				continue
			}
		}
		parts = append(parts, s[start:loc[0]])
		for g := 2; g+1 < len(loc); g += 2 {
			if loc[g] >= 0 {
				parts = append(parts, s[loc[g]:loc[g+1]])
			}
		}
		start, search = loc[1], loc[1]
	}
	return append(parts, s[start:])
}

// justify implements center, ljust and rjust.
func (vm *VM) justify(self Value, args []Value, mode byte) Value {
	vm.checkArgs(args, 1, 2)
	s := self.(*String).Value
	width := int(vm.toInt(args[0]))
	pad := vm.toStr(arg(args, 1, NewString(" ")))
	if pad == "" {
		vm.raiseError("ArgumentError", "zero width padding")
	}
	n := utf8.RuneCountInString(s)
	if width <= n {
		return NewString(s)
	}
	fill := func(count int) string {
		var sb strings.Builder
		p := []rune(pad)
		for i := 0; i < count; i++ {
			sb.WriteRune(p[i%len(p)])
		}
		return sb.String()
	}
	total := width - n
	switch mode {
	case 'l':
		return NewString(s + fill(total))
	case 'r':
		return NewString(fill(total) + s)
	}
	left := total / 2
	return NewString(fill(left) + s + fill(total-left))
}

func (vm *VM) registerStringPrimitives() {
	c := vm.StringClass
	str := func(v Value) string { return v.(*String).Value }

	meta := vm.singletonClass(c)
	meta.AddMethodN("new", func(vm *VM, _ Value, args []Value, _ *Proc) Value {
		args, _ = splitKeywords(args)
		vm.checkArgs(args, 0, 1)
		s := &String{}
		if len(args) == 1 {
			s.Value = vm.toStr(args[0])
		}
		return s
	})

	c.AddMethod0("to_s", func(_ *VM, self Value) Value { return self })
	c.aliasBuiltin("to_str", "to_s")
	c.AddMethod0("inspect", func(_ *VM, self Value) Value { return NewString(quoteString(str(self))) })
	c.aliasBuiltin("dump", "inspect")
	c.AddMethod0("to_sym", func(_ *VM, self Value) Value { return Symbol(str(self)) })
	c.aliasBuiltin("intern", "to_sym")
	c.AddMethodN("to_i", func(vm *VM, self Value, args []Value, _ *Proc) Value {
		vm.checkArgs(args, 0, 1)
		base := int(vm.toInt(arg(args, 0, int64(10))))
		if base < 2 || base > 36 {
			vm.raiseError("ArgumentError", "invalid radix %d", base)
		}
		return parseLeadingInt(str(self), base)
	})
	c.AddMethod0("to_f", func(_ *VM, self Value) Value { return parseLeadingFloat(str(self)) })
	c.AddMethod0("to_r", func(_ *VM, self Value) Value {
		r, ok := new(big.Rat).SetString(strings.TrimSpace(str(self)))
		if !ok {
			r = new(big.Rat)
		}
		return ratValue(r)
	})
	c.AddMethod0("hex", func(_ *VM, self Value) Value { return parseLeadingInt(str(self), 16) })
	c.AddMethod0("oct", func(_ *VM, self Value) Value { return parseLeadingInt(str(self), 8) })
	c.AddMethod0("hash", func(_ *VM, self Value) Value { return strHash(str(self)) })

	c.AddMethod1("==", func(_ *VM, self, other Value) Value {
		o, ok := other.(*String)
		return ok && o.Value == str(self)
	})
	c.aliasBuiltin("eql?", "==")
	c.aliasBuiltin("===", "==")
	c.AddMethod1("<=>", func(_ *VM, self, other Value) Value {
		o, ok := other.(*String)
		if !ok {
			return nil
		}
		return int64(strings.Compare(str(self), o.Value))
	})
	c.AddMethod1("casecmp", func(vm *VM, self, other Value) Value {
		o, ok := other.(*String)
		if !ok {
			return nil
		}
		return int64(strings.Compare(strings.ToLower(str(self)), strings.ToLower(o.Value)))
	})
	c.AddMethod1("casecmp?", func(vm *VM, self, other Value) Value {
		o, ok := other.(*String)
		if !ok {
			return nil
		}
		return strings.EqualFold(str(self), o.Value)
	})
	c.AddMethod1("=~", func(vm *VM, self, other Value) Value {
		if _, ok := other.(*String); ok {
			vm.raiseError("TypeError", "wrong argument type String (expected Regexp)")
		}
		return vm.Send(other, "=~", self)
	})
	c.AddMethodN("match", func(vm *VM, self Value, args []Value, blk *Proc) Value {
		vm.checkArgs(args, 1, 2)
		return vm.callMethod(vm.toRegexp(args[0]), "match", append([]Value{self}, args[1:]...), blk, false)
	})
	c.AddMethodN("match?", func(vm *VM, self Value, args []Value, _ *Proc) Value {
		vm.checkArgs(args, 1, 2)
		return vm.toRegexp(args[0]).re.MatchString(str(self))
	})

	c.AddMethod1("+", func(vm *VM, self, other Value) Value {
		o, ok := other.(*String)
		if !ok {
			vm.raiseError("TypeError", "no implicit conversion of %s into String", vm.typeName(other))
		}
		return NewString(str(self) + o.Value)
	})
	c.AddMethod1("*", func(vm *VM, self, n Value) Value {
		count := vm.toInt(n)
		if count < 0 {
			vm.raiseError("ArgumentError", "negative argument")
		}
		return NewString(strings.Repeat(str(self), int(count)))
	})
	c.AddMethod1("%", func(vm *VM, self, v Value) Value {
		args := []Value{v}
		if a, ok := v.(*Array); ok {
			args = a.Elements
		}
		return NewString(vm.sprintf(str(self), args))
	})
	c.AddMethodN("<<", func(vm *VM, self Value, args []Value, _ *Proc) Value {
		vm.checkArgs(args, 1, 1)
		s := self.(*String)
		vm.checkFrozen(s)
		if n, ok := args[0].(int64); ok {
			s.Value += string(rune(n))
			return s
		}
		s.Value += vm.toStr(args[0])
		return s
	})
	c.AddMethodN("concat", func(vm *VM, self Value, args []Value, _ *Proc) Value {
		s := self.(*String)
		vm.checkFrozen(s)
		for _, a := range args {
			s.Value += vm.toStr(a)
		}
		return s
	})
	c.AddMethod1("prepend", func(vm *VM, self, other Value) Value {
		s := self.(*String)
		vm.checkFrozen(s)
		s.Value = vm.toStr(other) + s.Value
		return s
	})
	c.AddMethod2("insert", func(vm *VM, self, i, other Value) Value {
		s := self.(*String)
		vm.checkFrozen(s)
		runes := []rune(s.Value)
		at := int(vm.toInt(i))
		if at < 0 {
			at += len(runes) + 1
		}
		if at < 0 || at > len(runes) {
			vm.raiseError("IndexError", "index %d out of string", vm.toInt(i))
		}
		s.Value = string(runes[:at]) + vm.toStr(other) + string(runes[at:])
		return s
	})
	c.AddMethod1("replace", func(vm *VM, self, other Value) Value {
		s := self.(*String)
		vm.checkFrozen(s)
		s.Value = vm.toStr(other)
		return s
	})
	c.AddMethod0("clear", func(vm *VM, self Value) Value {
		s := self.(*String)
		vm.checkFrozen(s)
		s.Value = ""
		return s
	})
	c.AddMethod0("-@", func(_ *VM, self Value) Value {
		s := self.(*String)
		if s.IsFrozen() {
			return s
		}
		out := NewString(s.Value)
		out.Freeze()
		return out
	})
	c.aliasBuiltin("dedup", "-@")
	c.AddMethod0("+@", func(_ *VM, self Value) Value {
		s := self.(*String)
		if s.IsFrozen() {
			return NewString(s.Value)
		}
		return s
	})

	c.AddMethodN("[]", func(vm *VM, self Value, args []Value, _ *Proc) Value { return vm.strIndex(str(self), args) })
	c.aliasBuiltin("slice", "[]")
	c.AddMethodN("[]=", func(vm *VM, self Value, args []Value, _ *Proc) Value { return vm.strSet(self.(*String), args) })
	c.AddMethod0("length", func(_ *VM, self Value) Value { return int64(utf8.RuneCountInString(str(self))) })
	c.aliasBuiltin("size", "length")
	c.AddMethod0("bytesize", func(_ *VM, self Value) Value { return int64(len(str(self))) })
	c.AddMethod0("empty?", func(_ *VM, self Value) Value { return str(self) == "" })
	c.AddMethod0("ord", func(vm *VM, self Value) Value {
		r, size := utf8.DecodeRuneInString(str(self))
		if size == 0 {
			vm.raiseError("ArgumentError", "empty string")
		}
		return int64(r)
	})
	c.AddMethod0("chr", func(_ *VM, self Value) Value {
		r, size := utf8.DecodeRuneInString(str(self))
		if size == 0 {
			return NewString("")
		}
		return NewString(string(r))
	})

	// Case and whitespace, each with a bang form that edits in place and
	// returns nil when nothing changed.
	transforms := map[string]func(string) string{
		"upcase":     strings.ToUpper,
		"downcase":   strings.ToLower,
		"capitalize": capitalize,
		"swapcase":   swapcase,
		"strip":      strings.TrimSpace,
		"lstrip":     func(s string) string { return strings.TrimLeftFunc(s, unicode.IsSpace) },
		"rstrip":     func(s string) string { return strings.TrimRightFunc(s, unicode.IsSpace) },
		"chop": func(s string) string {
			if strings.HasSuffix(s, "\r\n") {
				return s[:len(s)-2]
			}
			_, size := utf8.DecodeLastRuneInString(s)
			return s[:len(s)-size]
		},
		"reverse": func(s string) string {
			runes := []rune(s)
			for i, j := 0, len(runes)-1; i < j; i, j = i+1, j-1 {
				runes[i], runes[j] = runes[j], runes[i]
			}
			return string(runes)
		},
		"succ": strSucc,
	}
	for name, fn := range transforms {
		transform := fn
		c.AddMethodN(name, func(vm *VM, self Value, _ []Value, _ *Proc) Value {
			return NewString(transform(str(self)))
		})
		c.AddMethodN(name+"!", func(vm *VM, self Value, _ []Value, _ *Proc) Value {
			s := self.(*String)
			vm.checkFrozen(s)
			out := transform(s.Value)
			if out == s.Value {
				return nil
			}
			s.Value = out
			return s
		})
	}
	c.aliasBuiltin("next", "succ")
	c.aliasBuiltin("next!", "succ!")
	chomp := func(vm *VM, s string, args []Value) string {
		vm.checkArgs(args, 0, 1)
		if len(args) == 1 {
			return strings.TrimSuffix(s, vm.toStr(args[0]))
		}
		if strings.HasSuffix(s, "\r\n") {
			return s[:len(s)-2]
		}
		return strings.TrimSuffix(strings.TrimSuffix(s, "\n"), "\r")
	}
	c.AddMethodN("chomp", func(vm *VM, self Value, args []Value, _ *Proc) Value {
		return NewString(chomp(vm, str(self), args))
	})
	c.AddMethodN("chomp!", func(vm *VM, self Value, args []Value, _ *Proc) Value {
		s := self.(*String)
		vm.checkFrozen(s)
		out := chomp(vm, s.Value, args)
		if out == s.Value {
			return nil
		}
		s.Value = out
		return s
	})
	c.AddMethod1("delete_prefix", func(vm *VM, self, p Value) Value {
		return NewString(strings.TrimPrefix(str(self), vm.toStr(p)))
	})
	c.AddMethod1("delete_suffix", func(vm *VM, self, p Value) Value {
		return NewString(strings.TrimSuffix(str(self), vm.toStr(p)))
	})
	c.AddMethodN("center", func(vm *VM, self Value, args []Value, _ *Proc) Value { return vm.justify(self, args, 'c') })
	c.AddMethodN("ljust", func(vm *VM, self Value, args []Value, _ *Proc) Value { return vm.justify(self, args, 'l') })
	c.AddMethodN("rjust", func(vm *VM, self Value, args []Value, _ *Proc) Value { return vm.justify(self, args, 'r') })

	// Searching
	c.AddMethod1("include?", func(vm *VM, self, sub Value) Value {
		return strings.Contains(str(self), vm.toStr(sub))
	})
	c.AddMethodN("start_with?", func(vm *VM, self Value, args []Value, _ *Proc) Value {
		for _, a := range args {
			if re, ok := a.(*Regexp); ok {
				if loc := re.re.FindStringIndex(str(self)); loc != nil && loc[0] == 0 {
					return true
				}
				continue
			}
			if strings.HasPrefix(str(self), vm.toStr(a)) {
				return true
			}
		}
		return false
	})
	c.AddMethodN("end_with?", func(vm *VM, self Value, args []Value, _ *Proc) Value {
		for _, a := range args {
			if strings.HasSuffix(str(self), vm.toStr(a)) {
				return true
			}
		}
		return false
	})
	c.AddMethodN("index", func(vm *VM, self Value, args []Value, _ *Proc) Value {
		vm.checkArgs(args, 1, 2)
		s := str(self)
		start := int(vm.toInt(arg(args, 1, int64(0))))
		if start < 0 {
			start += utf8.RuneCountInString(s)
		}
		off := byteOffset(s, start)
		if off < 0 {
			return nil
		}
		if re, ok := args[0].(*Regexp); ok {
			m, ok := vm.match(re, s, off).(*MatchData)
			if !ok {
				return nil
			}
			return charIndex(s, m.indexes[0])
		}
		i := strings.Index(s[off:], vm.toStr(args[0]))
		if i < 0 {
			return nil
		}
		return charIndex(s, off+i)
	})
	c.AddMethodN("rindex", func(vm *VM, self Value, args []Value, _ *Proc) Value {
		vm.checkArgs(args, 1, 2)
		s := str(self)
		i := strings.LastIndex(s, vm.toStr(args[0]))
		if i < 0 {
			return nil
		}
		return charIndex(s, i)
	})
	c.AddMethodN("count", func(vm *VM, self Value, args []Value, _ *Proc) Value {
		vm.checkArgs(args, 1, -1)
		set, negate := expandCharSet(vm.toStr(args[0]))
		n := int64(0)
		for _, r := range str(self) {
			if inCharSet(r, set, negate) {
				n++
			}
		}
		return n
	})
	c.AddMethodN("delete", func(vm *VM, self Value, args []Value, _ *Proc) Value {
		vm.checkArgs(args, 1, -1)
		set, negate := expandCharSet(vm.toStr(args[0]))
		return NewString(strings.Map(func(r rune) rune {
			if inCharSet(r, set, negate) {
				return -1
			}
			return r
		}, str(self)))
	})
	c.AddMethodN("squeeze", func(vm *VM, self Value, args []Value, _ *Proc) Value {
		vm.checkArgs(args, 0, 1)
		var set []rune
		negate := true
		if len(args) == 1 {
			set, negate = expandCharSet(vm.toStr(args[0]))
		}
		var sb strings.Builder
		prev := rune(-1)
		for _, r := range str(self) {
			if r == prev && inCharSet(r, set, negate) {
				continue
			}
			sb.WriteRune(r)
			prev = r
		}
		return NewString(sb.String())
	})
	c.AddMethod2("tr", func(vm *VM, self, from, to Value) Value {
		return NewString(strTr(str(self), vm.toStr(from), vm.toStr(to)))
	})
	c.AddMethodN("scan", func(vm *VM, self Value, args []Value, blk *Proc) Value {
		vm.checkArgs(args, 1, 1)
		s := str(self)
		re := vm.toRegexp(args[0])
		out := NewArray()
		var last Value
		for _, loc := range re.re.FindAllStringSubmatchIndex(s, -1) {
			m := &MatchData{Regexp: re, Subject: s, indexes: loc}
			m.Freeze()
			last = m
			var item Value = m.Group(0)
			if m.Size() > 1 {
				item = vm.Send(m, "captures")
			}
			if blk != nil {
				vm.setBackref(m)
				vm.yieldValue(blk, item)
				continue
			}
			out.Elements = append(out.Elements, item)
		}
		vm.setBackref(last)
		if blk != nil {
			return self
		}
		return out
	})
	c.AddMethodN("sub", func(vm *VM, self Value, args []Value, blk *Proc) Value {
		out, _ := vm.subst(str(self), args, blk, false)
		return NewString(out)
	})
	c.AddMethodN("gsub", func(vm *VM, self Value, args []Value, blk *Proc) Value {
		out, _ := vm.subst(str(self), args, blk, true)
		return NewString(out)
	})
	for _, name := range []string{"sub!", "gsub!"} {
		global := name == "gsub!"
		c.AddMethodN(name, func(vm *VM, self Value, args []Value, blk *Proc) Value {
			s := self.(*String)
			vm.checkFrozen(s)
			out, changed := vm.subst(s.Value, args, blk, global)
			if !changed {
				return nil
			}
			s.Value = out
			return s
		})
	}
	c.AddMethodN("split", func(vm *VM, self Value, args []Value, blk *Proc) Value {
		vm.checkArgs(args, 0, 2)
		parts := vm.split(str(self), arg(args, 0, nil), int(vm.toInt(arg(args, 1, int64(0)))))
		if blk != nil {
			for _, p := range parts.Elements {
				vm.yieldValue(blk, p)
			}
			return self
		}
		return parts
	})
	partition := func(vm *VM, s string, sep Value, last bool) Value {
		var i, j int
		if re, ok := sep.(*Regexp); ok {
			m, ok := vm.match(re, s, 0).(*MatchData)
			if !ok {
				i, j = -1, -1
			} else {
				i, j = m.indexes[0], m.indexes[1]
			}
		} else {
			p := vm.toStr(sep)
			if last {
				i = strings.LastIndex(s, p)
			} else {
				i = strings.Index(s, p)
			}
			j = i + len(p)
		}
		if i < 0 {
			if last {
				return NewArray(NewString(""), NewString(""), NewString(s))
			}
			return NewArray(NewString(s), NewString(""), NewString(""))
		}
		return NewArray(NewString(s[:i]), NewString(s[i:j]), NewString(s[j:]))
	}
	c.AddMethod1("partition", func(vm *VM, self, sep Value) Value { return partition(vm, str(self), sep, false) })
	c.AddMethod1("rpartition", func(vm *VM, self, sep Value) Value { return partition(vm, str(self), sep, true) })

	// Iteration
	c.AddMethod0("chars", func(_ *VM, self Value) Value {
		out := NewArray()
		for _, r := range str(self) {
			out.Elements = append(out.Elements, NewString(string(r)))
		}
		return out
	})
	c.AddMethod0("bytes", func(_ *VM, self Value) Value {
		out := NewArray()
		for _, b := range []byte(str(self)) {
			out.Elements = append(out.Elements, int64(b))
		}
		return out
	})
	lines := func(s string) []Value {
		var out []Value
		for s != "" {
			i := strings.IndexByte(s, '\n')
			if i < 0 {
				out = append(out, NewString(s))
				break
			}
			out = append(out, NewString(s[:i+1]))
			s = s[i+1:]
		}
		return out
	}
	c.AddMethod0("lines", func(_ *VM, self Value) Value { return NewArray(lines(str(self))...) })
	for name, fn := range map[string]func(*VM, Value) []Value{
		"each_char": func(vm *VM, self Value) []Value { return vm.Send(self, "chars").(*Array).Elements },
		"each_byte": func(vm *VM, self Value) []Value { return vm.Send(self, "bytes").(*Array).Elements },
		"each_line": func(_ *VM, self Value) []Value { return lines(str(self)) },
	} {
		meth, elems := name, fn
		c.AddMethodN(meth, func(vm *VM, self Value, args []Value, blk *Proc) Value {
			if blk == nil {
				return vm.enumFor(self, meth)
			}
			for _, v := range elems(vm, self) {
				vm.yieldValue(blk, v)
			}
			return self
		})
	}
	c.AddMethodN("upto", func(vm *VM, self Value, args []Value, blk *Proc) Value {
		vm.checkArgs(args, 1, 2)
		if blk == nil {
			return vm.enumFor(self, "upto", args...)
		}
		r := &Range{Begin: self, End: args[0], Exclusive: Truthy(arg(args, 1, false))}
		vm.eachInRange(r, func(v Value) bool {
			vm.yieldValue(blk, v)
			return true
		})
		return self
	})

	// Encoding is always UTF-8.
	c.AddMethodN("force_encoding", func(_ *VM, self Value, _ []Value, _ *Proc) Value { return self })
	c.AddMethodN("encode", func(_ *VM, self Value, _ []Value, _ *Proc) Value { return NewString(str(self)) })
	c.AddMethodN("unicode_normalize", func(_ *VM, self Value, _ []Value, _ *Proc) Value { return NewString(str(self)) })
	c.AddMethod0("valid_encoding?", func(_ *VM, self Value) Value { return utf8.ValidString(str(self)) })
	c.AddMethod0("ascii_only?", func(_ *VM, self Value) Value {
		for i := 0; i < len(str(self)); i++ {
			if str(self)[i] >= utf8.RuneSelf {
				return false
			}
		}
		return true
	})
	c.AddMethod0("encoding", func(vm *VM, _ Value) Value { return NewString("UTF-8") })
}

// ---------------------------------------------------------------------------
// Symbol
// ---------------------------------------------------------------------------

func (vm *VM) registerSymbolPrimitives() {
	c := vm.SymbolClass
	name := func(v Value) string { return string(v.(Symbol)) }

	c.AddMethod0("to_s", func(_ *VM, self Value) Value { return NewString(name(self)) })
	c.aliasBuiltin("id2name", "to_s")
	c.AddMethod0("name", func(_ *VM, self Value) Value {
		s := NewString(name(self))
		s.Freeze()
		return s
	})
	c.AddMethod0("to_sym", func(_ *VM, self Value) Value { return self })
	c.AddMethod0("to_proc", func(vm *VM, self Value) Value { return vm.symbolProc(self.(Symbol)) })
	c.AddMethod0("inspect", func(_ *VM, self Value) Value { return NewString(inspectSymbol(name(self))) })
	c.AddMethod0("hash", func(_ *VM, self Value) Value { return strHash(":" + name(self)) })
	c.AddMethod1("==", func(_ *VM, self, other Value) Value { return self == other })
	c.AddMethod1("<=>", func(_ *VM, self, other Value) Value {
		o, ok := other.(Symbol)
		if !ok {
			return nil
		}
		return int64(strings.Compare(name(self), string(o)))
	})
	c.AddMethod0("length", func(_ *VM, self Value) Value { return int64(utf8.RuneCountInString(name(self))) })
	c.aliasBuiltin("size", "length")
	c.AddMethod0("empty?", func(_ *VM, self Value) Value { return name(self) == "" })
	for _, meth := range []string{"upcase", "downcase", "capitalize", "swapcase", "succ"} {
		m := meth
		c.AddMethod0(m, func(vm *VM, self Value) Value {
			return Symbol(vm.Send(NewString(name(self)), m).(*String).Value)
		})
	}
	c.AddMethodN("[]", func(vm *VM, self Value, args []Value, _ *Proc) Value { return vm.strIndex(name(self), args) })
	c.AddMethodN("start_with?", func(vm *VM, self Value, args []Value, _ *Proc) Value {
		return vm.callMethod(NewString(name(self)), "start_with?", args, nil, false)
	})
	c.AddMethodN("end_with?", func(vm *VM, self Value, args []Value, _ *Proc) Value {
		return vm.callMethod(NewString(name(self)), "end_with?", args, nil, false)
	})
	c.AddMethod1("=~", func(vm *VM, self, other Value) Value { return vm.Send(other, "=~", NewString(name(self))) })
}
