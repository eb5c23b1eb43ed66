package vm

import (
	"slices"
	"strings"
)

// ---------------------------------------------------------------------------
// Enumerable and Enumerator
// ---------------------------------------------------------------------------

// callBlock calls blk with one yielded value, splatting it for blocks
// that take several parameters.
func (vm *VM) callBlock(blk *Proc, v Value) Value {
	return vm.callProc(blk, []Value{v}, nil)
}

// sortValues sorts vals with <=> or with the comparison block.
func (vm *VM) sortValues(vals []Value, blk *Proc) []Value {
	out := slices.Clone(vals)
	slices.SortStableFunc(out, func(a, b Value) int {
		if blk != nil {
			r := vm.callProc(blk, []Value{a, b}, nil)
			n, ok := r.(int64)
			if !ok {
				vm.raiseError("ArgumentError", "comparison of %s with %s failed", vm.ClassOf(a).FullName(), vm.ClassOf(b).FullName())
			}
			return sign(n)
		}
		c, ok := vm.compare(a, b)
		if !ok {
			vm.raiseError("ArgumentError", "comparison of %s with %s failed", vm.ClassOf(a).FullName(), vm.typeNameOrInspect(b))
		}
		return c
	})
	return out
}

// sortBy sorts vals by the keys the block returns.
func (vm *VM) sortBy(vals []Value, blk *Proc) []Value {
	type keyed struct{ key, v Value }
	pairs := make([]keyed, len(vals))
	for i, v := range vals {
		pairs[i] = keyed{vm.callBlock(blk, v), v}
	}
	slices.SortStableFunc(pairs, func(a, b keyed) int {
		c, ok := vm.compare(a.key, b.key)
		if !ok {
			vm.raiseError("ArgumentError", "comparison of %s with %s failed", vm.ClassOf(a.key).FullName(), vm.typeNameOrInspect(b.key))
		}
		return c
	})
	out := make([]Value, len(pairs))
	for i, p := range pairs {
		out[i] = p.v
	}
	return out
}

// matches tests v against the optional pattern argument of any?, all?,
// none?, one? and count, or against the block.
func (vm *VM) matches(args []Value, blk *Proc, v Value) bool {
	if len(args) > 0 {
		return Truthy(vm.callMethod(args[0], "===", []Value{v}, nil, false))
	}
	if blk != nil {
		return Truthy(vm.callBlock(blk, v))
	}
	return Truthy(v)
}

// extremeBy finds the element with the smallest (dir -1) or largest
// (dir 1) key.
func (vm *VM) extremeBy(vals []Value, dir int, key func(Value) Value) Value {
	var best, bestKey Value
	for i, v := range vals {
		k := key(v)
		if i == 0 {
			best, bestKey = v, k
			continue
		}
		c, ok := vm.compare(k, bestKey)
		if !ok {
			vm.raiseError("ArgumentError", "comparison of %s with %s failed", vm.ClassOf(k).FullName(), vm.typeNameOrInspect(bestKey))
		}
		if c*dir > 0 {
			best, bestKey = v, k
		}
	}
	return best
}

// inject implements inject and reduce: an optional initial value and
// either a block or an operator symbol.
func (vm *VM) inject(vals []Value, args []Value, blk *Proc) Value {
	vm.checkArgs(args, 0, 2)
	var op Symbol
	if len(args) > 0 {
		if s, ok := args[len(args)-1].(Symbol); ok && (blk == nil || len(args) == 2) {
			op = s
			args = args[:len(args)-1]
		}
	}
	var acc Value
	if len(args) > 0 {
		acc = args[0]
	} else if len(vals) > 0 {
		acc, vals = vals[0], vals[1:]
	}
	for _, v := range vals {
		if op != "" {
			acc = vm.callMethod(acc, string(op), []Value{v}, nil, false)
		} else {
			acc = vm.callProc(blk, []Value{acc, v}, nil)
		}
	}
	return acc
}

func (vm *VM) sum(vals []Value, init Value, blk *Proc) Value {
	acc := init
	comp := 0.0
	for _, v := range vals {
		if blk != nil {
			v = vm.callBlock(blk, v)
		}
		// Kahan summation once the total is a Float.
		if f, ok := acc.(float64); ok {
			if x, ok := toFloat(v); ok && isNumeric(v) {
				y := x - comp
				t := f + y
				comp = (t - f) - y
				acc = t
				continue
			}
		}
		acc = vm.callMethod(acc, "+", []Value{v}, nil, false)
	}
	return acc
}

func (vm *VM) registerEnumerablePrimitives() {
	e := vm.EnumerableModule
	all := func(vm *VM, self Value) []Value { return vm.each(self) }

	e.AddMethodN("to_a", func(vm *VM, self Value, _ []Value, _ *Proc) Value {
		return NewArray(slices.Clone(all(vm, self))...)
	})
	e.aliasBuiltin("entries", "to_a")
	e.AddMethodN("map", func(vm *VM, self Value, _ []Value, blk *Proc) Value {
		if blk == nil {
			return vm.enumFor(self, "map")
		}
		out := NewArray()
		vm.iterate(self, func(v Value) bool {
			out.Elements = append(out.Elements, vm.callBlock(blk, v))
			return true
		})
		return out
	})
	e.aliasBuiltin("collect", "map")
	e.AddMethodN("flat_map", func(vm *VM, self Value, _ []Value, blk *Proc) Value {
		if blk == nil {
			return vm.enumFor(self, "flat_map")
		}
		out := NewArray()
		vm.iterate(self, func(v Value) bool {
			r := vm.callBlock(blk, v)
			if a, ok := r.(*Array); ok {
				out.Elements = append(out.Elements, a.Elements...)
			} else {
				out.Elements = append(out.Elements, r)
			}
			return true
		})
		return out
	})
	e.aliasBuiltin("collect_concat", "flat_map")
	filter := func(name string, keep bool) {
		e.AddMethodN(name, func(vm *VM, self Value, _ []Value, blk *Proc) Value {
			if blk == nil {
				return vm.enumFor(self, name)
			}
			out := NewArray()
			vm.iterate(self, func(v Value) bool {
				if Truthy(vm.callBlock(blk, v)) == keep {
					out.Elements = append(out.Elements, v)
				}
				return true
			})
			return out
		})
	}
	filter("select", true)
	filter("filter", true)
	filter("find_all", true)
	filter("reject", false)
	e.AddMethodN("filter_map", func(vm *VM, self Value, _ []Value, blk *Proc) Value {
		if blk == nil {
			return vm.enumFor(self, "filter_map")
		}
		out := NewArray()
		vm.iterate(self, func(v Value) bool {
			if r := vm.callBlock(blk, v); Truthy(r) {
				out.Elements = append(out.Elements, r)
			}
			return true
		})
		return out
	})
	e.AddMethodN("find", func(vm *VM, self Value, _ []Value, blk *Proc) Value {
		if blk == nil {
			return vm.enumFor(self, "find")
		}
		var found Value
		vm.iterate(self, func(v Value) bool {
			if Truthy(vm.callBlock(blk, v)) {
				found = v
				return false
			}
			return true
		})
		return found
	})
	e.aliasBuiltin("detect", "find")
	e.AddMethodN("find_index", func(vm *VM, self Value, args []Value, blk *Proc) Value {
		var found Value
		i := int64(0)
		vm.iterate(self, func(v Value) bool {
			if (len(args) > 0 && vm.equal(v, args[0])) || (len(args) == 0 && blk != nil && Truthy(vm.callBlock(blk, v))) {
				found = i
				return false
			}
			i++
			return true
		})
		return found
	})
	e.AddMethodN("each_with_index", func(vm *VM, self Value, args []Value, blk *Proc) Value {
		if blk == nil {
			return vm.enumFor(self, "each_with_index")
		}
		i := int64(0)
		vm.iterate(self, func(v Value) bool {
			vm.callProc(blk, []Value{v, i}, nil)
			i++
			return true
		})
		return self
	})
	e.AddMethodN("each_with_object", func(vm *VM, self Value, args []Value, blk *Proc) Value {
		vm.checkArgs(args, 1, 1)
		if blk == nil {
			return vm.enumFor(self, "each_with_object", args...)
		}
		memo := args[0]
		vm.iterate(self, func(v Value) bool {
			vm.callProc(blk, []Value{v, memo}, nil)
			return true
		})
		return memo
	})
	e.AddMethodN("each_entry", func(vm *VM, self Value, _ []Value, blk *Proc) Value {
		vm.iterate(self, func(v Value) bool {
			vm.callBlock(blk, v)
			return true
		})
		return self
	})
	e.AddMethodN("reverse_each", func(vm *VM, self Value, _ []Value, blk *Proc) Value {
		if blk == nil {
			return vm.enumFor(self, "reverse_each")
		}
		vals := all(vm, self)
		for i := len(vals) - 1; i >= 0; i-- {
			vm.callBlock(blk, vals[i])
		}
		return self
	})
	e.AddMethodN("inject", func(vm *VM, self Value, args []Value, blk *Proc) Value {
		return vm.inject(all(vm, self), args, blk)
	})
	e.aliasBuiltin("reduce", "inject")
	e.AddMethodN("sum", func(vm *VM, self Value, args []Value, blk *Proc) Value {
		vm.checkArgs(args, 0, 1)
		return vm.sum(all(vm, self), arg(args, 0, int64(0)), blk)
	})
	e.AddMethodN("count", func(vm *VM, self Value, args []Value, blk *Proc) Value {
		n := int64(0)
		vm.iterate(self, func(v Value) bool {
			switch {
			case len(args) > 0:
				if vm.equal(v, args[0]) {
					n++
				}
			case blk == nil || Truthy(vm.callBlock(blk, v)):
				n++
			}
			return true
		})
		return n
	})
	for _, name := range []string{"any?", "all?", "none?", "one?"} {
		pred := name
		e.AddMethodN(pred, func(vm *VM, self Value, args []Value, blk *Proc) Value {
			count := 0
			result := pred == "all?" || pred == "none?"
			vm.iterate(self, func(v Value) bool {
				m := vm.matches(args, blk, v)
				switch pred {
				case "any?":
					if m {
						result = true
						return false
					}
				case "all?":
					if !m {
						result = false
						return false
					}
				case "none?":
					if m {
						result = false
						return false
					}
				case "one?":
					if m {
						count++
						if count > 1 {
							return false
						}
					}
				}
				return true
			})
			if pred == "one?" {
				return count == 1
			}
			return result
		})
	}
	e.AddMethodN("include?", func(vm *VM, self Value, args []Value, _ *Proc) Value {
		vm.checkArgs(args, 1, 1)
		found := false
		vm.iterate(self, func(v Value) bool {
			found = vm.equal(v, args[0])
			return !found
		})
		return found
	})
	e.aliasBuiltin("member?", "include?")
	e.AddMethodN("first", func(vm *VM, self Value, args []Value, _ *Proc) Value {
		vm.checkArgs(args, 0, 1)
		if len(args) == 0 {
			var first Value
			vm.iterate(self, func(v Value) bool {
				first = v
				return false
			})
			return first
		}
		n := vm.toInt(args[0])
		if n < 0 {
			vm.raiseError("ArgumentError", "attempt to take negative size")
		}
		out := NewArray()
		if n == 0 {
			return out
		}
		vm.iterate(self, func(v Value) bool {
			out.Elements = append(out.Elements, v)
			return int64(len(out.Elements)) < n
		})
		return out
	})
	e.AddMethodN("take", func(vm *VM, self Value, args []Value, _ *Proc) Value {
		vm.checkArgs(args, 1, 1)
		return vm.callMethod(self, "first", args, nil, true)
	})
	e.AddMethodN("drop", func(vm *VM, self Value, args []Value, _ *Proc) Value {
		vm.checkArgs(args, 1, 1)
		n := vm.toInt(args[0])
		if n < 0 {
			vm.raiseError("ArgumentError", "attempt to drop negative size")
		}
		vals := all(vm, self)
		return NewArray(slices.Clone(vals[min(int(n), len(vals)):])...)
	})
	e.AddMethodN("take_while", func(vm *VM, self Value, _ []Value, blk *Proc) Value {
		out := NewArray()
		vm.iterate(self, func(v Value) bool {
			if !Truthy(vm.callBlock(blk, v)) {
				return false
			}
			out.Elements = append(out.Elements, v)
			return true
		})
		return out
	})
	e.AddMethodN("drop_while", func(vm *VM, self Value, _ []Value, blk *Proc) Value {
		out := NewArray()
		dropping := true
		vm.iterate(self, func(v Value) bool {
			if dropping && Truthy(vm.callBlock(blk, v)) {
				return true
			}
			dropping = false
			out.Elements = append(out.Elements, v)
			return true
		})
		return out
	})
	minMax := func(name string, dir int) {
		e.AddMethodN(name, func(vm *VM, self Value, args []Value, blk *Proc) Value {
			vm.checkArgs(args, 0, 1)
			vals := all(vm, self)
			if len(args) == 1 {
				sorted := vm.sortValues(vals, blk)
				if dir > 0 {
					slices.Reverse(sorted)
				}
				return NewArray(sorted[:min(int(vm.toInt(args[0])), len(sorted))]...)
			}
			if blk != nil {
				var best Value
				for i, v := range vals {
					if i == 0 || sign(vm.toInt(vm.callProc(blk, []Value{v, best}, nil)))*dir > 0 {
						best = v
					}
				}
				return best
			}
			return vm.extreme(vals, dir)
		})
	}
	minMax("min", -1)
	minMax("max", 1)
	minMaxBy := func(name string, dir int) {
		e.AddMethodN(name, func(vm *VM, self Value, _ []Value, blk *Proc) Value {
			if blk == nil {
				return vm.enumFor(self, name)
			}
			return vm.extremeBy(all(vm, self), dir, func(v Value) Value { return vm.callBlock(blk, v) })
		})
	}
	minMaxBy("min_by", -1)
	minMaxBy("max_by", 1)
	e.AddMethodN("minmax", func(vm *VM, self Value, _ []Value, blk *Proc) Value {
		vals := all(vm, self)
		if len(vals) == 0 {
			return NewArray(nil, nil)
		}
		sorted := vm.sortValues(vals, blk)
		return NewArray(sorted[0], sorted[len(sorted)-1])
	})
	e.AddMethodN("sort", func(vm *VM, self Value, _ []Value, blk *Proc) Value {
		return NewArray(vm.sortValues(all(vm, self), blk)...)
	})
	e.AddMethodN("sort_by", func(vm *VM, self Value, _ []Value, blk *Proc) Value {
		if blk == nil {
			return vm.enumFor(self, "sort_by")
		}
		return NewArray(vm.sortBy(all(vm, self), blk)...)
	})
	e.AddMethodN("group_by", func(vm *VM, self Value, _ []Value, blk *Proc) Value {
		if blk == nil {
			return vm.enumFor(self, "group_by")
		}
		h := NewHash()
		vm.iterate(self, func(v Value) bool {
			k := vm.callBlock(blk, v)
			group, ok := h.Get(k)
			if !ok {
				group = NewArray()
				h.Set(k, group)
			}
			group.(*Array).Elements = append(group.(*Array).Elements, v)
			return true
		})
		return h
	})
	e.AddMethodN("partition", func(vm *VM, self Value, _ []Value, blk *Proc) Value {
		if blk == nil {
			return vm.enumFor(self, "partition")
		}
		yes, no := NewArray(), NewArray()
		vm.iterate(self, func(v Value) bool {
			if Truthy(vm.callBlock(blk, v)) {
				yes.Elements = append(yes.Elements, v)
			} else {
				no.Elements = append(no.Elements, v)
			}
			return true
		})
		return NewArray(yes, no)
	})
	e.AddMethodN("tally", func(vm *VM, self Value, _ []Value, _ *Proc) Value {
		h := NewHash()
		vm.iterate(self, func(v Value) bool {
			n, _ := h.Get(v)
			c, _ := n.(int64)
			h.Set(v, c+1)
			return true
		})
		return h
	})
	e.AddMethodN("uniq", func(vm *VM, self Value, _ []Value, blk *Proc) Value {
		return NewArray(vm.uniq(all(vm, self), blk)...)
	})
	e.AddMethodN("to_h", func(vm *VM, self Value, _ []Value, blk *Proc) Value {
		h := NewHash()
		vm.iterate(self, func(v Value) bool {
			if blk != nil {
				v = vm.callBlock(blk, v)
			}
			pair, ok := v.(*Array)
			if !ok || pair.Len() != 2 {
				vm.raiseError("TypeError", "wrong element type %s (expected array)", vm.ClassOf(v).FullName())
			}
			h.Set(pair.Elements[0], pair.Elements[1])
			return true
		})
		return h
	})
	e.AddMethodN("each_slice", func(vm *VM, self Value, args []Value, blk *Proc) Value {
		vm.checkArgs(args, 1, 1)
		n := int(vm.toInt(args[0]))
		if n <= 0 {
			vm.raiseError("ArgumentError", "invalid slice size")
		}
		var groups []Value
		vals := all(vm, self)
		for i := 0; i < len(vals); i += n {
			groups = append(groups, NewArray(append([]Value(nil), vals[i:min(i+n, len(vals))]...)...))
		}
		if blk == nil {
			return vm.enumFor(NewArray(groups...), "each")
		}
		for _, s := range groups {
			vm.callBlock(blk, s)
		}
		return self
	})
	e.AddMethodN("each_cons", func(vm *VM, self Value, args []Value, blk *Proc) Value {
		vm.checkArgs(args, 1, 1)
		n := int(vm.toInt(args[0]))
		if n <= 0 {
			vm.raiseError("ArgumentError", "invalid size")
		}
		var windows []Value
		vals := all(vm, self)
		for i := 0; i+n <= len(vals); i++ {
			windows = append(windows, NewArray(append([]Value(nil), vals[i:i+n]...)...))
		}
		if blk == nil {
			return vm.enumFor(NewArray(windows...), "each")
		}
		for _, w := range windows {
			vm.callBlock(blk, w)
		}
		return self
	})
	chunk := func(name string, splitWhen bool) {
		e.AddMethodN(name, func(vm *VM, self Value, _ []Value, blk *Proc) Value {
			vals := all(vm, self)
			out := NewArray()
			var cur *Array
			for i, v := range vals {
				if i > 0 && Truthy(vm.callProc(blk, []Value{vals[i-1], v}, nil)) == splitWhen {
					cur = nil
				}
				if cur == nil {
					cur = NewArray()
					out.Elements = append(out.Elements, cur)
				}
				cur.Elements = append(cur.Elements, v)
			}
			return out
		})
	}
	chunk("chunk_while", false)
	chunk("slice_when", true)
	e.AddMethodN("zip", func(vm *VM, self Value, args []Value, blk *Proc) Value {
		vals := all(vm, self)
		others := make([][]Value, len(args))
		for i, a := range args {
			others[i] = vm.each(a)
		}
		out := NewArray()
		for i, v := range vals {
			row := NewArray(v)
			for _, o := range others {
				if i < len(o) {
					row.Elements = append(row.Elements, o[i])
				} else {
					row.Elements = append(row.Elements, nil)
				}
			}
			if blk != nil {
				vm.callBlock(blk, row)
				continue
			}
			out.Elements = append(out.Elements, row)
		}
		if blk != nil {
			return nil
		}
		return out
	})
	e.AddMethodN("cycle", func(vm *VM, self Value, args []Value, blk *Proc) Value {
		vm.checkArgs(args, 0, 1)
		if blk == nil {
			return vm.enumFor(self, "cycle", args...)
		}
		vals := all(vm, self)
		if len(vals) == 0 {
			return nil
		}
		for n := int64(0); len(args) == 0 || args[0] == nil || n < vm.toInt(args[0]); n++ {
			for _, v := range vals {
				vm.callBlock(blk, v)
			}
		}
		return nil
	})
	e.AddMethodN("compact", func(vm *VM, self Value, _ []Value, _ *Proc) Value {
		out := NewArray()
		vm.iterate(self, func(v Value) bool {
			if v != nil {
				out.Elements = append(out.Elements, v)
			}
			return true
		})
		return out
	})

	vm.registerEnumeratorPrimitives()
}

// uniq removes duplicates by hash key, or by the block's result.
func (vm *VM) uniq(vals []Value, blk *Proc) []Value {
	seen := NewHash()
	out := []Value{}
	for _, v := range vals {
		k := v
		if blk != nil {
			k = vm.callBlock(blk, v)
		}
		if _, dup := seen.Get(k); dup {
			continue
		}
		seen.Set(k, true)
		out = append(out, v)
	}
	return out
}

func (vm *VM) registerEnumeratorPrimitives() {
	c := vm.defineClass("Enumerator", vm.ObjectClass)
	c.Include(vm.EnumerableModule)

	ivar := func(self Value, name string) Value {
		v, _ := self.(*Object).Ivar(name)
		return v
	}
	c.AddMethodN("each", func(vm *VM, self Value, _ []Value, blk *Proc) Value {
		if blk == nil {
			return self
		}
		return vm.enumEach(self, blk)
	})
	withIndex := func(vm *VM, self Value, offset int64, blk *Proc) Value {
		i := offset
		return vm.enumEach(self, nativeProc(-1, func(vm *VM, args []Value, _ *Proc) Value {
			r := vm.callProc(blk, []Value{packArgs(args), i}, nil)
			i++
			return r
		}))
	}
	c.AddMethodN("with_index", func(vm *VM, self Value, args []Value, blk *Proc) Value {
		vm.checkArgs(args, 0, 1)
		offset := int64(0)
		if len(args) == 1 && args[0] != nil {
			offset = vm.toInt(args[0])
		}
		if blk == nil {
			return vm.enumFor(self, "with_index", args...)
		}
		return withIndex(vm, self, offset, blk)
	})
	c.AddMethodN("each_with_index", func(vm *VM, self Value, _ []Value, blk *Proc) Value {
		if blk == nil {
			return vm.enumFor(self, "each_with_index")
		}
		return withIndex(vm, self, 0, blk)
	})
	c.AddMethodN("with_object", func(vm *VM, self Value, args []Value, blk *Proc) Value {
		vm.checkArgs(args, 1, 1)
		memo := args[0]
		vm.enumEach(self, nativeProc(-1, func(vm *VM, args []Value, _ *Proc) Value {
			return vm.callProc(blk, []Value{packArgs(args), memo}, nil)
		}))
		return memo
	})
	c.AddMethod0("size", func(vm *VM, self Value) Value { return int64(len(vm.each(self))) })
	buffer := func(vm *VM, self Value) (*Array, int64) {
		o := self.(*Object)
		buf, ok := o.Ivar("buffer")
		if !ok {
			buf = NewArray(vm.each(self)...)
			o.SetIvar("buffer", buf)
			o.SetIvar("pos", int64(0))
		}
		pos, _ := o.Ivar("pos")
		return buf.(*Array), pos.(int64)
	}
	c.AddMethod0("next", func(vm *VM, self Value) Value {
		buf, pos := buffer(vm, self)
		if pos >= int64(buf.Len()) {
			vm.raiseError("StopIteration", "iteration reached an end")
		}
		self.(*Object).SetIvar("pos", pos+1)
		return buf.Elements[pos]
	})
	c.AddMethod0("peek", func(vm *VM, self Value) Value {
		buf, pos := buffer(vm, self)
		if pos >= int64(buf.Len()) {
			vm.raiseError("StopIteration", "iteration reached an end")
		}
		return buf.Elements[pos]
	})
	c.AddMethod0("rewind", func(_ *VM, self Value) Value {
		self.(*Object).SetIvar("pos", int64(0))
		return self
	})
	c.AddMethod0("inspect", func(vm *VM, self Value) Value {
		var sb strings.Builder
		sb.WriteString("#<Enumerator: ")
		sb.WriteString(vm.Inspect(ivar(self, "receiver")))
		sb.WriteString(":")
		sb.WriteString(string(ivar(self, "method").(Symbol)))
		if args := ivar(self, "args").(*Array); args.Len() > 0 {
			parts := make([]string, args.Len())
			for i, a := range args.Elements {
				parts[i] = vm.Inspect(a)
			}
			sb.WriteString("(" + strings.Join(parts, ", ") + ")")
		}
		sb.WriteString(">")
		return NewString(sb.String())
	})
	c.aliasBuiltin("to_s", "inspect")
}
