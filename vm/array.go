package vm

import (
	"slices"
	"strings"
)

// ---------------------------------------------------------------------------
// Array
// ---------------------------------------------------------------------------

// arrayIndex implements Array#[] and slice.
func (vm *VM) arrayIndex(a *Array, args []Value) Value {
	vm.checkArgs(args, 1, 2)
	n := a.Len()
	if len(args) == 2 {
		start, length := int(vm.toInt(args[0])), int(vm.toInt(args[1]))
		if start < 0 {
			start += n
		}
		if start < 0 || start > n || length < 0 {
			return nil
		}
		return NewArray(slices.Clone(a.Elements[start:min(start+length, n)])...)
	}
	if r, ok := args[0].(*Range); ok {
		start, length, ok := vm.rangeBounds(r, n)
		if !ok {
			return nil
		}
		return NewArray(slices.Clone(a.Elements[start : start+length])...)
	}
	return a.At(int(vm.toInt(args[0])))
}

// arraySet implements Array#[]=.
func (vm *VM) arraySet(a *Array, args []Value) Value {
	vm.checkArgs(args, 2, 3)
	vm.checkFrozen(a)
	v := args[len(args)-1]
	n := a.Len()
	var start, length int
	switch {
	case len(args) == 3:
		start, length = int(vm.toInt(args[0])), int(vm.toInt(args[1]))
		if start < 0 {
			start += n
		}
		if start < 0 {
			vm.raiseError("IndexError", "index %d too small for array; minimum: -%d", vm.toInt(args[0]), n)
		}
		if length < 0 {
			vm.raiseError("IndexError", "negative length (%d)", length)
		}
	default:
		if r, ok := args[0].(*Range); ok {
			var inRange bool
			start, length, inRange = vm.rangeBounds(r, n)
			if !inRange {
				start = int(vm.toInt(r.Begin))
				if start < 0 {
					vm.raiseError("RangeError", "%s out of range", vm.Inspect(r))
				}
				length = 0
			}
			break
		}
		i := int(vm.toInt(args[0]))
		if i < 0 {
			i += n
		}
		if i < 0 {
			vm.raiseError("IndexError", "index %d too small for array; minimum: -%d", vm.toInt(args[0]), n)
		}
		for len(a.Elements) <= i {
			a.Elements = append(a.Elements, nil)
		}
		a.Elements[i] = v
		return v
	}
	for len(a.Elements) < start {
		a.Elements = append(a.Elements, nil)
	}
	end := min(start+length, len(a.Elements))
	repl := []Value{v}
	if r, ok := v.(*Array); ok {
		repl = r.Elements
	}
	a.Elements = slices.Concat(a.Elements[:start], repl, a.Elements[end:])
	return v
}

// flatten expands nested arrays up to depth levels; a negative depth
// flattens completely.
func (vm *VM) flatten(elems []Value, depth int, seen map[*Array]bool) []Value {
	var out []Value
	for _, e := range elems {
		inner, ok := e.(*Array)
		if !ok || depth == 0 {
			out = append(out, e)
			continue
		}
		if seen[inner] {
			vm.raiseError("ArgumentError", "tried to flatten recursive array")
		}
		seen[inner] = true
		out = append(out, vm.flatten(inner.Elements, depth-1, seen)...)
		delete(seen, inner)
	}
	return out
}

func (vm *VM) joinArray(a *Array, sep string) string {
	return vm.guardInspect(a, "[...]", func() string {
		parts := make([]string, len(a.Elements))
		for i, e := range a.Elements {
			if inner, ok := e.(*Array); ok {
				parts[i] = vm.joinArray(inner, sep)
				continue
			}
			parts[i] = vm.ToS(e)
		}
		return strings.Join(parts, sep)
	})
}

// mutate checks a is unfrozen and replaces its elements with fn's result.
func (vm *VM) mutate(a *Array, fn func([]Value) []Value) *Array {
	vm.checkFrozen(a)
	a.Elements = fn(a.Elements)
	return a
}

func (vm *VM) registerArrayPrimitives() {
	c := vm.ArrayClass
	arr := func(v Value) *Array { return v.(*Array) }

	meta := vm.singletonClass(c)
	meta.AddMethodN("new", func(vm *VM, _ Value, args []Value, blk *Proc) Value {
		vm.checkArgs(args, 0, 2)
		if len(args) == 1 {
			if a, ok := args[0].(*Array); ok {
				return NewArray(slices.Clone(a.Elements)...)
			}
		}
		n := vm.toInt(arg(args, 0, int64(0)))
		if n < 0 {
			vm.raiseError("ArgumentError", "negative array size")
		}
		out := make([]Value, n)
		for i := range out {
			if blk != nil {
				out[i] = vm.yieldValue(blk, int64(i))
			} else {
				out[i] = arg(args, 1, nil)
			}
		}
		return NewArray(out...)
	})
	meta.AddMethodN("[]", func(_ *VM, _ Value, args []Value, _ *Proc) Value { return NewArray(slices.Clone(args)...) })

	c.AddMethodN("each", func(vm *VM, self Value, _ []Value, blk *Proc) Value {
		if blk == nil {
			return vm.enumFor(self, "each")
		}
		a := arr(self)
		for i := 0; i < len(a.Elements); i++ {
			vm.yieldValue(blk, a.Elements[i])
		}
		return self
	})
	c.AddMethodN("each_index", func(vm *VM, self Value, _ []Value, blk *Proc) Value {
		if blk == nil {
			return vm.enumFor(self, "each_index")
		}
		for i := 0; i < arr(self).Len(); i++ {
			vm.yieldValue(blk, int64(i))
		}
		return self
	})
	c.AddMethodN("map!", func(vm *VM, self Value, _ []Value, blk *Proc) Value {
		if blk == nil {
			return vm.enumFor(self, "map!")
		}
		a := arr(self)
		vm.checkFrozen(a)
		for i, v := range a.Elements {
			a.Elements[i] = vm.callBlock(blk, v)
		}
		return a
	})
	c.aliasBuiltin("collect!", "map!")
	keepIf := func(name string, keep, nilIfSame bool) {
		c.AddMethodN(name, func(vm *VM, self Value, _ []Value, blk *Proc) Value {
			if blk == nil {
				return vm.enumFor(self, name)
			}
			a := arr(self)
			before := a.Len()
			vm.mutate(a, func(elems []Value) []Value {
				out := elems[:0:0]
				for _, v := range elems {
					if Truthy(vm.callBlock(blk, v)) == keep {
						out = append(out, v)
					}
				}
				return out
			})
			if nilIfSame && a.Len() == before {
				return nil
			}
			return a
		})
	}
	keepIf("select!", true, true)
	keepIf("filter!", true, true)
	keepIf("keep_if", true, false)
	keepIf("reject!", false, true)
	keepIf("delete_if", false, false)

	c.AddMethodN("[]", func(vm *VM, self Value, args []Value, _ *Proc) Value { return vm.arrayIndex(arr(self), args) })
	c.aliasBuiltin("slice", "[]")
	c.AddMethodN("[]=", func(vm *VM, self Value, args []Value, _ *Proc) Value { return vm.arraySet(arr(self), args) })
	c.AddMethod1("at", func(vm *VM, self, i Value) Value { return arr(self).At(int(vm.toInt(i))) })
	c.AddMethodN("dig", func(vm *VM, self Value, args []Value, _ *Proc) Value {
		vm.checkArgs(args, 1, -1)
		v := arr(self).At(int(vm.toInt(args[0])))
		if len(args) == 1 || v == nil {
			return v
		}
		return vm.callMethod(v, "dig", args[1:], nil, false)
	})
	c.AddMethodN("fetch", func(vm *VM, self Value, args []Value, blk *Proc) Value {
		vm.checkArgs(args, 1, 2)
		a := arr(self)
		i := int(vm.toInt(args[0]))
		j := i
		if j < 0 {
			j += a.Len()
		}
		if j >= 0 && j < a.Len() {
			return a.Elements[j]
		}
		switch {
		case blk != nil:
			return vm.yieldValue(blk, args[0])
		case len(args) == 2:
			return args[1]
		}
		vm.raiseError("IndexError", "index %d outside of array bounds: %d...%d", i, -a.Len(), a.Len())
		return nil
	})
	c.AddMethodN("values_at", func(vm *VM, self Value, args []Value, _ *Proc) Value {
		out := NewArray()
		for _, i := range args {
			out.Elements = append(out.Elements, arr(self).At(int(vm.toInt(i))))
		}
		return out
	})
	c.AddMethodN("first", func(vm *VM, self Value, args []Value, _ *Proc) Value {
		vm.checkArgs(args, 0, 1)
		a := arr(self)
		if len(args) == 0 {
			return a.At(0)
		}
		n := int(vm.toInt(args[0]))
		if n < 0 {
			vm.raiseError("ArgumentError", "negative array size")
		}
		return NewArray(slices.Clone(a.Elements[:min(n, a.Len())])...)
	})
	c.AddMethodN("last", func(vm *VM, self Value, args []Value, _ *Proc) Value {
		vm.checkArgs(args, 0, 1)
		a := arr(self)
		if len(args) == 0 {
			return a.At(-1)
		}
		n := int(vm.toInt(args[0]))
		if n < 0 {
			vm.raiseError("ArgumentError", "negative array size")
		}
		return NewArray(slices.Clone(a.Elements[max(0, a.Len()-n):])...)
	})
	c.AddMethod0("length", func(_ *VM, self Value) Value { return int64(arr(self).Len()) })
	c.aliasBuiltin("size", "length")
	c.AddMethod0("empty?", func(_ *VM, self Value) Value { return arr(self).Len() == 0 })
	c.AddMethodN("index", func(vm *VM, self Value, args []Value, blk *Proc) Value {
		for i, v := range arr(self).Elements {
			if (len(args) > 0 && vm.equal(v, args[0])) || (len(args) == 0 && blk != nil && Truthy(vm.callBlock(blk, v))) {
				return int64(i)
			}
		}
		return nil
	})
	c.aliasBuiltin("find_index", "index")
	c.AddMethodN("rindex", func(vm *VM, self Value, args []Value, blk *Proc) Value {
		elems := arr(self).Elements
		for i := len(elems) - 1; i >= 0; i-- {
			if (len(args) > 0 && vm.equal(elems[i], args[0])) || (len(args) == 0 && blk != nil && Truthy(vm.callBlock(blk, elems[i]))) {
				return int64(i)
			}
		}
		return nil
	})
	c.AddMethod1("include?", func(vm *VM, self, v Value) Value {
		for _, e := range arr(self).Elements {
			if vm.equal(e, v) {
				return true
			}
		}
		return false
	})

	// Mutation
	c.AddMethodN("push", func(vm *VM, self Value, args []Value, _ *Proc) Value {
		return vm.mutate(arr(self), func(elems []Value) []Value { return append(elems, args...) })
	})
	c.aliasBuiltin("append", "push")
	c.AddMethod1("<<", func(vm *VM, self, v Value) Value {
		return vm.mutate(arr(self), func(elems []Value) []Value { return append(elems, v) })
	})
	c.AddMethodN("unshift", func(vm *VM, self Value, args []Value, _ *Proc) Value {
		return vm.mutate(arr(self), func(elems []Value) []Value { return slices.Concat(args, elems) })
	})
	c.aliasBuiltin("prepend", "unshift")
	c.AddMethodN("insert", func(vm *VM, self Value, args []Value, _ *Proc) Value {
		vm.checkArgs(args, 1, -1)
		a := arr(self)
		i := int(vm.toInt(args[0]))
		if i < 0 {
			i += a.Len() + 1
		}
		if i < 0 {
			vm.raiseError("IndexError", "index %d too small for array; minimum: -%d", vm.toInt(args[0]), a.Len()+1)
		}
		return vm.mutate(a, func(elems []Value) []Value {
			for len(elems) < i {
				elems = append(elems, nil)
			}
			return slices.Insert(elems, i, args[1:]...)
		})
	})
	popShift := func(name string, fromEnd bool) {
		c.AddMethodN(name, func(vm *VM, self Value, args []Value, _ *Proc) Value {
			vm.checkArgs(args, 0, 1)
			a := arr(self)
			vm.checkFrozen(a)
			if len(args) == 0 {
				if a.Len() == 0 {
					return nil
				}
				if fromEnd {
					v := a.Elements[a.Len()-1]
					a.Elements = a.Elements[:a.Len()-1]
					return v
				}
				v := a.Elements[0]
				a.Elements = a.Elements[1:]
				return v
			}
			n := min(int(vm.toInt(args[0])), a.Len())
			if n < 0 {
				vm.raiseError("ArgumentError", "negative array size")
			}
			if fromEnd {
				out := NewArray(slices.Clone(a.Elements[a.Len()-n:])...)
				a.Elements = a.Elements[:a.Len()-n]
				return out
			}
			out := NewArray(slices.Clone(a.Elements[:n])...)
			a.Elements = a.Elements[n:]
			return out
		})
	}
	popShift("pop", true)
	popShift("shift", false)
	c.AddMethodN("delete", func(vm *VM, self Value, args []Value, blk *Proc) Value {
		vm.checkArgs(args, 1, 1)
		a := arr(self)
		var found Value
		ok := false
		vm.mutate(a, func(elems []Value) []Value {
			out := elems[:0:0]
			for _, e := range elems {
				if vm.equal(e, args[0]) {
					found, ok = e, true
					continue
				}
				out = append(out, e)
			}
			return out
		})
		if !ok {
			if blk != nil {
				return vm.yieldValue(blk, args[0])
			}
			return nil
		}
		return found
	})
	c.AddMethod1("delete_at", func(vm *VM, self, i Value) Value {
		a := arr(self)
		j := int(vm.toInt(i))
		if j < 0 {
			j += a.Len()
		}
		if j < 0 || j >= a.Len() {
			return nil
		}
		v := a.Elements[j]
		vm.mutate(a, func(elems []Value) []Value { return slices.Delete(slices.Clone(elems), j, j+1) })
		return v
	})
	c.AddMethodN("slice!", func(vm *VM, self Value, args []Value, _ *Proc) Value {
		a := arr(self)
		vm.checkFrozen(a)
		out := vm.arrayIndex(a, args)
		if out == nil {
			return nil
		}
		if len(args) == 1 {
			if _, isRange := args[0].(*Range); !isRange {
				i := int(vm.toInt(args[0]))
				if i < 0 {
					i += a.Len()
				}
				a.Elements = slices.Delete(slices.Clone(a.Elements), i, i+1)
				return out
			}
		}
		removed := out.(*Array).Len()
		start := 0
		if len(args) == 2 {
			start = int(vm.toInt(args[0]))
		} else {
			start, _, _ = vm.rangeBounds(args[0].(*Range), a.Len())
		}
		if start < 0 {
			start += a.Len()
		}
		a.Elements = slices.Delete(slices.Clone(a.Elements), start, start+removed)
		return out
	})
	c.AddMethod0("clear", func(vm *VM, self Value) Value {
		return vm.mutate(arr(self), func([]Value) []Value { return []Value{} })
	})
	c.AddMethod1("replace", func(vm *VM, self, other Value) Value {
		return vm.mutate(arr(self), func([]Value) []Value { return slices.Clone(vm.toArray(other).Elements) })
	})
	c.AddMethodN("concat", func(vm *VM, self Value, args []Value, _ *Proc) Value {
		return vm.mutate(arr(self), func(elems []Value) []Value {
			for _, o := range args {
				elems = append(elems, vm.toArray(o).Elements...)
			}
			return elems
		})
	})
	c.AddMethodN("fill", func(vm *VM, self Value, args []Value, blk *Proc) Value {
		a := arr(self)
		if blk == nil {
			vm.checkArgs(args, 1, 1)
		}
		return vm.mutate(a, func(elems []Value) []Value {
			for i := range elems {
				if blk != nil {
					elems[i] = vm.yieldValue(blk, int64(i))
				} else {
					elems[i] = args[0]
				}
			}
			return elems
		})
	})

	// Copies
	bang := func(name string, fn func(vm *VM, a *Array, args []Value, blk *Proc) []Value) {
		c.AddMethodN(name, func(vm *VM, self Value, args []Value, blk *Proc) Value {
			return NewArray(fn(vm, arr(self), args, blk)...)
		})
		c.AddMethodN(name+"!", func(vm *VM, self Value, args []Value, blk *Proc) Value {
			a := arr(self)
			vm.checkFrozen(a)
			out := fn(vm, a, args, blk)
			changed := len(out) != a.Len()
			if !changed {
				for i := range out {
					if out[i] != a.Elements[i] {
						changed = true
						break
					}
				}
			}
			a.Elements = out
			if !changed && name != "reverse" && name != "sort" && name != "sort_by" && name != "shuffle" && name != "rotate" {
				return nil
			}
			return a
		})
	}
	bang("reverse", func(_ *VM, a *Array, _ []Value, _ *Proc) []Value {
		out := slices.Clone(a.Elements)
		slices.Reverse(out)
		return out
	})
	bang("sort", func(vm *VM, a *Array, _ []Value, blk *Proc) []Value { return vm.sortValues(a.Elements, blk) })
	bang("sort_by", func(vm *VM, a *Array, _ []Value, blk *Proc) []Value {
		return vm.sortBy(a.Elements, vm.requireBlock(blk))
	})
	bang("uniq", func(vm *VM, a *Array, _ []Value, blk *Proc) []Value { return vm.uniq(a.Elements, blk) })
	bang("compact", func(_ *VM, a *Array, _ []Value, _ *Proc) []Value {
		out := []Value{}
		for _, e := range a.Elements {
			if e != nil {
				out = append(out, e)
			}
		}
		return out
	})
	bang("flatten", func(vm *VM, a *Array, args []Value, _ *Proc) []Value {
		vm.checkArgs(args, 0, 1)
		depth := -1
		if len(args) == 1 && args[0] != nil {
			depth = int(vm.toInt(args[0]))
		}
		out := vm.flatten(a.Elements, depth, map[*Array]bool{a: true})
		if out == nil {
			out = []Value{}
		}
		return out
	})
	bang("rotate", func(vm *VM, a *Array, args []Value, _ *Proc) []Value {
		vm.checkArgs(args, 0, 1)
		n := a.Len()
		if n == 0 {
			return []Value{}
		}
		k := int(vm.toInt(arg(args, 0, int64(1)))) % n
		if k < 0 {
			k += n
		}
		return slices.Concat(a.Elements[k:], a.Elements[:k])
	})

	// Set and arithmetic operations
	c.AddMethod1("+", func(vm *VM, self, other Value) Value {
		return NewArray(slices.Concat(arr(self).Elements, vm.toArray(other).Elements)...)
	})
	c.AddMethod1("-", func(vm *VM, self, other Value) Value {
		remove := NewHash()
		for _, e := range vm.toArray(other).Elements {
			remove.Set(e, true)
		}
		out := NewArray()
		for _, e := range arr(self).Elements {
			if _, ok := remove.Get(e); !ok {
				out.Elements = append(out.Elements, e)
			}
		}
		return out
	})
	c.aliasBuiltin("difference", "-")
	c.AddMethod1("*", func(vm *VM, self, n Value) Value {
		if s, ok := n.(*String); ok {
			return NewString(vm.joinArray(arr(self), s.Value))
		}
		count := int(vm.toInt(n))
		if count < 0 {
			vm.raiseError("ArgumentError", "negative argument")
		}
		out := NewArray()
		for i := 0; i < count; i++ {
			out.Elements = append(out.Elements, arr(self).Elements...)
		}
		return out
	})
	c.AddMethod1("&", func(vm *VM, self, other Value) Value {
		keep := NewHash()
		for _, e := range vm.toArray(other).Elements {
			keep.Set(e, true)
		}
		out := NewArray()
		for _, e := range vm.uniq(arr(self).Elements, nil) {
			if _, ok := keep.Get(e); ok {
				out.Elements = append(out.Elements, e)
			}
		}
		return out
	})
	c.aliasBuiltin("intersection", "&")
	c.AddMethod1("intersect?", func(vm *VM, self, other Value) Value {
		return vm.Send(self, "&", other).(*Array).Len() > 0
	})
	c.AddMethodN("|", func(vm *VM, self Value, args []Value, _ *Proc) Value {
		elems := slices.Clone(arr(self).Elements)
		for _, o := range args {
			elems = append(elems, vm.toArray(o).Elements...)
		}
		return NewArray(vm.uniq(elems, nil)...)
	})
	c.aliasBuiltin("union", "|")
	c.AddMethod1("==", func(vm *VM, self, other Value) Value {
		o, ok := other.(*Array)
		if !ok {
			return false
		}
		a := arr(self)
		if a == o {
			return true
		}
		if a.Len() != o.Len() {
			return false
		}
		for i := range a.Elements {
			if !vm.equal(a.Elements[i], o.Elements[i]) {
				return false
			}
		}
		return true
	})
	c.AddMethod1("eql?", func(_ *VM, self, other Value) Value {
		o, ok := other.(*Array)
		return ok && hashKey(self) == hashKey(o)
	})
	c.AddMethod0("hash", func(_ *VM, self Value) Value { return strHash(keyString(hashKey(self))) })
	c.AddMethod1("<=>", func(vm *VM, self, other Value) Value {
		o, ok := other.(*Array)
		if !ok {
			return nil
		}
		a := arr(self)
		for i := 0; i < min(a.Len(), o.Len()); i++ {
			cmp, ok := vm.compare(a.Elements[i], o.Elements[i])
			if !ok {
				return nil
			}
			if cmp != 0 {
				return int64(cmp)
			}
		}
		return int64(sign(int64(a.Len() - o.Len())))
	})

	// Conversion
	c.AddMethod0("to_a", func(_ *VM, self Value) Value { return self })
	c.aliasBuiltin("entries", "to_a")
	c.aliasBuiltin("to_ary", "to_a")
	c.aliasBuiltin("deconstruct", "to_a")
	c.AddMethod0("to_s", func(vm *VM, self Value) Value { return NewString(vm.inspectValue(self)) })
	c.aliasBuiltin("inspect", "to_s")
	c.AddMethodN("join", func(vm *VM, self Value, args []Value, _ *Proc) Value {
		vm.checkArgs(args, 0, 1)
		sep := ""
		if s := arg(args, 0, nil); s != nil {
			sep = vm.toStr(s)
		} else if g, ok := vm.getGlobal("$,").(*String); ok {
			sep = g.Value
		}
		return NewString(vm.joinArray(arr(self), sep))
	})
	c.AddMethodN("pack", func(vm *VM, self Value, args []Value, _ *Proc) Value {
		vm.raiseError("NotImplementedError", "Array#pack is not supported")
		return nil
	})

	// Combinatorics
	c.AddMethodN("product", func(vm *VM, self Value, args []Value, _ *Proc) Value {
		result := [][]Value{{}}
		lists := [][]Value{arr(self).Elements}
		for _, o := range args {
			lists = append(lists, vm.toArray(o).Elements)
		}
		for _, list := range lists {
			var next [][]Value
			for _, prefix := range result {
				for _, e := range list {
					next = append(next, append(slices.Clone(prefix), e))
				}
			}
			result = next
		}
		out := NewArray()
		for _, r := range result {
			out.Elements = append(out.Elements, NewArray(r...))
		}
		return out
	})
	c.AddMethodN("combination", func(vm *VM, self Value, args []Value, blk *Proc) Value {
		vm.checkArgs(args, 1, 1)
		k := int(vm.toInt(args[0]))
		elems := arr(self).Elements
		out := NewArray()
		var rec func(start int, cur []Value)
		rec = func(start int, cur []Value) {
			if len(cur) == k {
				out.Elements = append(out.Elements, NewArray(slices.Clone(cur)...))
				return
			}
			for i := start; i < len(elems); i++ {
				rec(i+1, append(cur, elems[i]))
			}
		}
		if k >= 0 && k <= len(elems) {
			rec(0, nil)
		}
		if blk != nil {
			for _, comb := range out.Elements {
				vm.yieldValue(blk, comb)
			}
			return self
		}
		return vm.enumFor(out, "each")
	})
	c.AddMethodN("permutation", func(vm *VM, self Value, args []Value, blk *Proc) Value {
		vm.checkArgs(args, 0, 1)
		elems := arr(self).Elements
		k := int(vm.toInt(arg(args, 0, int64(len(elems)))))
		out := NewArray()
		used := make([]bool, len(elems))
		var rec func(cur []Value)
		rec = func(cur []Value) {
			if len(cur) == k {
				out.Elements = append(out.Elements, NewArray(slices.Clone(cur)...))
				return
			}
			for i := range elems {
				if !used[i] {
					used[i] = true
					rec(append(cur, elems[i]))
					used[i] = false
				}
			}
		}
		if k >= 0 && k <= len(elems) {
			rec(nil)
		}
		if blk != nil {
			for _, p := range out.Elements {
				vm.yieldValue(blk, p)
			}
			return self
		}
		return vm.enumFor(out, "each")
	})
	c.AddMethod0("transpose", func(vm *VM, self Value) Value {
		rows := arr(self).Elements
		if len(rows) == 0 {
			return NewArray()
		}
		width := vm.toArray(rows[0]).Len()
		out := NewArray()
		for j := 0; j < width; j++ {
			col := NewArray()
			for _, r := range rows {
				row := vm.toArray(r)
				if row.Len() != width {
					vm.raiseError("IndexError", "element size differs (%d should be %d)", row.Len(), width)
				}
				col.Elements = append(col.Elements, row.Elements[j])
			}
			out.Elements = append(out.Elements, col)
		}
		return out
	})
	c.AddMethod1("assoc", func(vm *VM, self, key Value) Value {
		for _, e := range arr(self).Elements {
			if pair, ok := e.(*Array); ok && pair.Len() > 0 && vm.equal(pair.Elements[0], key) {
				return pair
			}
		}
		return nil
	})
	c.AddMethodN("sum", func(vm *VM, self Value, args []Value, blk *Proc) Value {
		vm.checkArgs(args, 0, 1)
		return vm.sum(arr(self).Elements, arg(args, 0, int64(0)), blk)
	})
	c.AddMethodN("count", func(vm *VM, self Value, args []Value, blk *Proc) Value {
		if len(args) == 0 && blk == nil {
			return int64(arr(self).Len())
		}
		n := int64(0)
		for _, e := range arr(self).Elements {
			if (len(args) > 0 && vm.equal(e, args[0])) || (len(args) == 0 && Truthy(vm.callBlock(blk, e))) {
				n++
			}
		}
		return n
	})
	c.AddMethodN("bsearch", func(vm *VM, self Value, _ []Value, blk *Proc) Value {
		elems := arr(self).Elements
		lo, hi := 0, len(elems)
		for lo < hi {
			mid := (lo + hi) / 2
			r := vm.callBlock(vm.requireBlock(blk), elems[mid])
			switch x := r.(type) {
			case bool:
				if x {
					hi = mid
				} else {
					lo = mid + 1
				}
			case int64:
				switch {
				case x == 0:
					return elems[mid]
				case x < 0:
					hi = mid
				default:
					lo = mid + 1
				}
			default:
				lo = mid + 1
			}
		}
		if lo < len(elems) {
			if b, ok := vm.callBlock(blk, elems[lo]).(bool); ok && b {
				return elems[lo]
			}
		}
		return nil
	})
}
