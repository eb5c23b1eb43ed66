package vm

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/ruby-syntax-tree/syntax-tree-sub003/bytecode"
)

// ---------------------------------------------------------------------------
// Regexp and MatchData
// ---------------------------------------------------------------------------

// match runs re against s from byte offset pos and records the result in
// $~. It returns nil when there is no match.
func (vm *VM) match(re *Regexp, s string, pos int) Value {
	var m Value
	if pos >= 0 && pos <= len(s) {
		if loc := re.re.FindStringSubmatchIndex(s[pos:]); loc != nil {
			for i := range loc {
				if loc[i] >= 0 {
					loc[i] += pos
				}
			}
			md := &MatchData{Regexp: re, Subject: s, indexes: loc}
			md.Freeze()
			m = md
		}
	}
	vm.setBackref(m)
	return m
}

// toRegexp turns a String pattern into a literal Regexp.
func (vm *VM) toRegexp(v Value) *Regexp {
	switch x := v.(type) {
	case *Regexp:
		return x
	case *String:
		re, _ := NewRegexp(regexp.QuoteMeta(x.Value), 0)
		return re
	}
	vm.raiseError("TypeError", "wrong argument type %s (expected Regexp)", vm.typeName(v))
	return nil
}

// charIndex converts a byte offset in s to a character offset.
func charIndex(s string, byteOff int) int64 {
	return int64(utf8.RuneCountInString(s[:byteOff]))
}

// byteOffset converts a character offset in s to a byte offset, or -1
// when it is past the end.
func byteOffset(s string, chars int) int {
	if chars < 0 {
		return -1
	}
	n := 0
	for i := range s {
		if n == chars {
			return i
		}
		n++
	}
	if n == chars {
		return len(s)
	}
	return -1
}

// expandReplacement substitutes \0-\9, \&, \k<name>, \` and \' in a
// sub/gsub replacement string.
func expandReplacement(repl string, m *MatchData) string {
	if !strings.Contains(repl, `\`) {
		return repl
	}
	var sb strings.Builder
	for i := 0; i < len(repl); i++ {
		c := repl[i]
		if c != '\\' || i+1 == len(repl) {
			sb.WriteByte(c)
			continue
		}
		i++
		switch d := repl[i]; {
		case d >= '0' && d <= '9':
			if g, ok := m.Group(int(d - '0')).(*String); ok {
				sb.WriteString(g.Value)
			}
		case d == '&':
			sb.WriteString(m.Group(0).(*String).Value)
		case d == '`':
			sb.WriteString(m.PreMatch())
		case d == '\'':
			sb.WriteString(m.PostMatch())
		case d == '\\':
			sb.WriteByte('\\')
		case d == 'k' && i+1 < len(repl) && repl[i+1] == '<':
			end := strings.IndexByte(repl[i:], '>')
			if end < 0 {
				sb.WriteString(`\k`)
				continue
			}
			name := repl[i+2 : i+end]
			if g, ok := m.Named(name); ok && g != nil {
				sb.WriteString(g.(*String).Value)
			}
			i += end
		default:
			sb.WriteByte('\\')
			sb.WriteByte(d)
		}
	}
	return sb.String()
}

func (vm *VM) registerRegexpPrimitives() {
	r := vm.RegexpClass
	r.ConstSet("IGNORECASE", int64(bytecode.RegexpIgnoreCase))
	r.ConstSet("EXTENDED", int64(bytecode.RegexpExtended))
	r.ConstSet("MULTILINE", int64(bytecode.RegexpMultiline))

	meta := vm.singletonClass(r)
	meta.AddMethodN("new", func(vm *VM, _ Value, args []Value, _ *Proc) Value {
		vm.checkArgs(args, 1, 2)
		if re, ok := args[0].(*Regexp); ok {
			return re
		}
		options := 0
		switch o := arg(args, 1, nil).(type) {
		case int64:
			options = int(o)
		case nil, bool:
			if Truthy(o) {
				options = bytecode.RegexpIgnoreCase
			}
		}
		re, err := NewRegexp(vm.toStr(args[0]), options)
		if err != nil {
			vm.raiseError("RegexpError", "%s", err.Error())
		}
		return re
	})
	meta.aliasBuiltin("compile", "new")
	meta.AddMethod1("escape", func(vm *VM, _, s Value) Value { return NewString(regexp.QuoteMeta(vm.toStr(s))) })
	meta.aliasBuiltin("quote", "escape")
	meta.AddMethodN("union", func(vm *VM, _ Value, args []Value, _ *Proc) Value {
		if len(args) == 1 {
			if a, ok := args[0].(*Array); ok {
				args = a.Elements
			}
		}
		parts := make([]string, len(args))
		for i, a := range args {
			if re, ok := a.(*Regexp); ok {
				parts[i] = re.Source
			} else {
				parts[i] = regexp.QuoteMeta(vm.toStr(a))
			}
		}
		re, err := NewRegexp(strings.Join(parts, "|"), 0)
		if err != nil {
			vm.raiseError("RegexpError", "%s", err.Error())
		}
		return re
	})
	meta.AddMethodN("last_match", func(vm *VM, _ Value, args []Value, _ *Proc) Value {
		f := vm.currentFrame()
		if f == nil {
			return nil
		}
		m := f.local().backref
		if len(args) == 0 || m == nil {
			return m
		}
		return m.(*MatchData).Group(int(vm.toInt(args[0])))
	})

	r.AddMethodN("match", func(vm *VM, self Value, args []Value, blk *Proc) Value {
		vm.checkArgs(args, 1, 2)
		if args[0] == nil {
			vm.setBackref(nil)
			return nil
		}
		s := vm.toStr(args[0])
		m := vm.match(self.(*Regexp), s, byteOffset(s, int(vm.toInt(arg(args, 1, int64(0))))))
		if m != nil && blk != nil {
			return vm.yieldValue(blk, m)
		}
		return m
	})
	r.AddMethodN("match?", func(vm *VM, self Value, args []Value, _ *Proc) Value {
		vm.checkArgs(args, 1, 2)
		if args[0] == nil {
			return false
		}
		s := vm.toStr(args[0])
		pos := byteOffset(s, int(vm.toInt(arg(args, 1, int64(0)))))
		return pos >= 0 && self.(*Regexp).re.MatchString(s[pos:])
	})
	r.AddMethod1("=~", func(vm *VM, self, s Value) Value {
		if s == nil {
			vm.setBackref(nil)
			return nil
		}
		str := vm.toStr(s)
		m, ok := vm.match(self.(*Regexp), str, 0).(*MatchData)
		if !ok {
			return nil
		}
		return charIndex(str, m.indexes[0])
	})
	r.AddMethod1("===", func(vm *VM, self, s Value) Value {
		var str string
		switch x := s.(type) {
		case *String:
			str = x.Value
		case Symbol:
			str = string(x)
		default:
			return false
		}
		return vm.match(self.(*Regexp), str, 0) != nil
	})
	r.AddMethod0("source", func(_ *VM, self Value) Value { return NewString(self.(*Regexp).Source) })
	r.AddMethod0("to_s", func(_ *VM, self Value) Value {
		re := self.(*Regexp)
		on := regexpFlags(re.Options)
		off := ""
		for _, f := range "mix" {
			if !strings.ContainsRune(on, f) {
				off += string(f)
			}
		}
		if off != "" {
			off = "-" + off
		}
		return NewString("(?" + on + off + ":" + re.Source + ")")
	})
	r.AddMethod0("options", func(_ *VM, self Value) Value { return int64(self.(*Regexp).Options) })
	r.AddMethod0("casefold?", func(_ *VM, self Value) Value {
		return self.(*Regexp).Options&bytecode.RegexpIgnoreCase != 0
	})
	r.AddMethod0("names", func(_ *VM, self Value) Value {
		out := NewArray()
		for _, name := range self.(*Regexp).re.SubexpNames() {
			if name != "" {
				out.Elements = append(out.Elements, NewString(name))
			}
		}
		return out
	})
	r.AddMethod1("==", func(_ *VM, self, other Value) Value {
		o, ok := other.(*Regexp)
		re := self.(*Regexp)
		return ok && o.Source == re.Source && o.Options == re.Options
	})
	r.aliasBuiltin("eql?", "==")
	r.AddMethod0("hash", func(_ *VM, self Value) Value { return int64(len(self.(*Regexp).Source)) })

	vm.registerMatchDataPrimitives()
}

func (vm *VM) registerMatchDataPrimitives() {
	c := vm.MatchDataClass
	group := func(vm *VM, m *MatchData, key Value) Value {
		switch k := key.(type) {
		case int64:
			if k < 0 {
				k += int64(m.Size())
			}
			return m.Group(int(k))
		case *String, Symbol:
			name := vm.name(k)
			v, ok := m.Named(name)
			if !ok {
				vm.raiseError("IndexError", "undefined group name reference: %s", name)
			}
			return v
		}
		vm.raiseError("TypeError", "no implicit conversion of %s into Integer", vm.typeName(key))
		return nil
	}
	c.AddMethod1("[]", func(vm *VM, self, key Value) Value { return group(vm, self.(*MatchData), key) })
	c.AddMethod0("to_a", func(_ *VM, self Value) Value {
		m := self.(*MatchData)
		out := NewArray()
		for i := 0; i < m.Size(); i++ {
			out.Elements = append(out.Elements, m.Group(i))
		}
		return out
	})
	c.AddMethod0("captures", func(_ *VM, self Value) Value {
		m := self.(*MatchData)
		out := NewArray()
		for i := 1; i < m.Size(); i++ {
			out.Elements = append(out.Elements, m.Group(i))
		}
		return out
	})
	c.aliasBuiltin("deconstruct", "captures")
	c.AddMethod0("named_captures", func(_ *VM, self Value) Value {
		m := self.(*MatchData)
		h := NewHash()
		for i, name := range m.Regexp.re.SubexpNames() {
			if name != "" {
				h.Set(NewString(name), m.Group(i))
			}
		}
		return h
	})
	c.AddMethod1("deconstruct_keys", func(vm *VM, self, keys Value) Value {
		m := self.(*MatchData)
		h := NewHash()
		for i, name := range m.Regexp.re.SubexpNames() {
			if name != "" {
				h.Set(Symbol(name), m.Group(i))
			}
		}
		return h
	})
	c.AddMethod0("names", func(vm *VM, self Value) Value {
		return vm.Send(self.(*MatchData).Regexp, "names")
	})
	c.AddMethod0("pre_match", func(_ *VM, self Value) Value { return NewString(self.(*MatchData).PreMatch()) })
	c.AddMethod0("post_match", func(_ *VM, self Value) Value { return NewString(self.(*MatchData).PostMatch()) })
	c.AddMethod0("to_s", func(_ *VM, self Value) Value { return self.(*MatchData).Group(0) })
	c.AddMethod0("string", func(_ *VM, self Value) Value {
		s := NewString(self.(*MatchData).Subject)
		s.Freeze()
		return s
	})
	c.AddMethod0("regexp", func(_ *VM, self Value) Value { return self.(*MatchData).Regexp })
	c.AddMethod0("size", func(_ *VM, self Value) Value { return int64(self.(*MatchData).Size()) })
	c.aliasBuiltin("length", "size")
	offset := func(vm *VM, self, n Value, end bool) Value {
		m := self.(*MatchData)
		i := int(vm.toInt(n))
		if i < 0 || i >= m.Size() {
			vm.raiseError("IndexError", "index %d out of matches", i)
		}
		at := m.indexes[2*i]
		if end {
			at = m.indexes[2*i+1]
		}
		if at < 0 {
			return nil
		}
		return charIndex(m.Subject, at)
	}
	c.AddMethod1("begin", func(vm *VM, self, n Value) Value { return offset(vm, self, n, false) })
	c.AddMethod1("end", func(vm *VM, self, n Value) Value { return offset(vm, self, n, true) })
	c.AddMethodN("values_at", func(vm *VM, self Value, args []Value, _ *Proc) Value {
		out := NewArray()
		for _, a := range args {
			out.Elements = append(out.Elements, group(vm, self.(*MatchData), a))
		}
		return out
	})
	c.AddMethod0("inspect", func(vm *VM, self Value) Value { return NewString(vm.inspectValue(self)) })
}
