package vm

// ---------------------------------------------------------------------------
// Hash
// ---------------------------------------------------------------------------

// hashFetch is Hash#[]: the stored value, else the default proc's result,
// else the default value.
func (vm *VM) hashFetch(h *Hash, key Value) Value {
	if v, ok := h.Get(key); ok {
		return v
	}
	if h.DefaultProc != nil {
		return vm.callProc(h.DefaultProc, []Value{h, key}, nil)
	}
	return h.Default
}

// keyError raises KeyError carrying the missing key and its receiver.
func (vm *VM) keyError(recv, key Value) {
	exc := vm.newError("KeyError", "key not found: %s", vm.Inspect(key))
	exc.SetIvar("key", key)
	exc.SetIvar("receiver", recv)
	vm.raise(exc)
}

// yieldPair calls blk with a key and value, spread over two parameters.
func (vm *VM) yieldPair(blk *Proc, k, v Value) Value {
	return vm.callProc(blk, []Value{k, v}, nil)
}

func (vm *VM) registerHashPrimitives() {
	c := vm.HashClass
	hsh := func(v Value) *Hash { return v.(*Hash) }
	mutable := func(vm *VM, v Value) *Hash {
		vm.checkFrozen(v)
		return v.(*Hash)
	}

	meta := vm.singletonClass(c)
	meta.AddMethodN("new", func(vm *VM, _ Value, args []Value, blk *Proc) Value {
		args, _ = splitKeywords(args)
		vm.checkArgs(args, 0, 1)
		h := NewHash()
		h.Default = arg(args, 0, nil)
		if blk != nil {
			if len(args) > 0 {
				vm.raiseError("ArgumentError", "wrong number of arguments (given 1, expected 0)")
			}
			h.DefaultProc = blk
		}
		return h
	})
	meta.AddMethodN("[]", func(vm *VM, _ Value, args []Value, _ *Proc) Value {
		h := NewHash()
		if len(args) == 1 {
			switch x := args[0].(type) {
			case *Hash:
				return x.Copy()
			case *Array:
				for _, e := range x.Elements {
					pair := vm.toArray(e)
					h.Set(pair.At(0), pair.At(1))
				}
				return h
			}
		}
		if len(args)%2 != 0 {
			vm.raiseError("ArgumentError", "odd number of arguments for Hash")
		}
		for i := 0; i < len(args); i += 2 {
			h.Set(args[i], args[i+1])
		}
		return h
	})

	c.AddMethod1("[]", func(vm *VM, self, key Value) Value { return vm.hashFetch(hsh(self), key) })
	c.AddMethod2("[]=", func(vm *VM, self, key, v Value) Value {
		mutable(vm, self).Set(key, v)
		return v
	})
	c.aliasBuiltin("store", "[]=")
	c.AddMethodN("fetch", func(vm *VM, self Value, args []Value, blk *Proc) Value {
		vm.checkArgs(args, 1, 2)
		if v, ok := hsh(self).Get(args[0]); ok {
			return v
		}
		switch {
		case blk != nil:
			return vm.yieldValue(blk, args[0])
		case len(args) == 2:
			return args[1]
		}
		vm.keyError(self, args[0])
		return nil
	})
	c.AddMethodN("dig", func(vm *VM, self Value, args []Value, _ *Proc) Value {
		vm.checkArgs(args, 1, -1)
		v := vm.hashFetch(hsh(self), args[0])
		if len(args) == 1 || v == nil {
			return v
		}
		return vm.callMethod(v, "dig", args[1:], nil, false)
	})
	c.AddMethod1("key", func(vm *VM, self, v Value) Value {
		for _, e := range hsh(self).Entries() {
			if vm.equal(e.Value, v) {
				return e.Key
			}
		}
		return nil
	})
	c.AddMethodN("values_at", func(vm *VM, self Value, args []Value, _ *Proc) Value {
		out := NewArray()
		for _, k := range args {
			out.Elements = append(out.Elements, vm.hashFetch(hsh(self), k))
		}
		return out
	})
	c.AddMethodN("fetch_values", func(vm *VM, self Value, args []Value, blk *Proc) Value {
		out := NewArray()
		for _, k := range args {
			v, ok := hsh(self).Get(k)
			if !ok {
				if blk == nil {
					vm.keyError(self, k)
				}
				v = vm.yieldValue(blk, k)
			}
			out.Elements = append(out.Elements, v)
		}
		return out
	})
	c.AddMethod1("key?", func(_ *VM, self, k Value) Value {
		_, ok := hsh(self).Get(k)
		return ok
	})
	c.aliasBuiltin("has_key?", "key?")
	c.aliasBuiltin("include?", "key?")
	c.aliasBuiltin("member?", "key?")
	c.AddMethod1("value?", func(vm *VM, self, v Value) Value {
		for _, e := range hsh(self).Entries() {
			if vm.equal(e.Value, v) {
				return true
			}
		}
		return false
	})
	c.aliasBuiltin("has_value?", "value?")
	c.AddMethodN("delete", func(vm *VM, self Value, args []Value, blk *Proc) Value {
		vm.checkArgs(args, 1, 1)
		if v, ok := mutable(vm, self).Delete(args[0]); ok {
			return v
		}
		if blk != nil {
			return vm.yieldValue(blk, args[0])
		}
		return nil
	})
	c.AddMethod0("keys", func(_ *VM, self Value) Value { return NewArray(hsh(self).Keys()...) })
	c.AddMethod0("values", func(_ *VM, self Value) Value {
		out := NewArray()
		for _, e := range hsh(self).Entries() {
			out.Elements = append(out.Elements, e.Value)
		}
		return out
	})
	c.AddMethod0("length", func(_ *VM, self Value) Value { return int64(hsh(self).Len()) })
	c.aliasBuiltin("size", "length")
	c.AddMethod0("empty?", func(_ *VM, self Value) Value { return hsh(self).Len() == 0 })
	c.AddMethod0("clear", func(vm *VM, self Value) Value {
		mutable(vm, self).Clear()
		return self
	})
	c.AddMethod1("replace", func(vm *VM, self, other Value) Value {
		h := mutable(vm, self)
		src := vm.toHash(other)
		h.Clear()
		for _, e := range src.Entries() {
			h.Set(e.Key, e.Value)
		}
		h.Default, h.DefaultProc = src.Default, src.DefaultProc
		return h
	})
	c.AddMethod0("shift", func(vm *VM, self Value) Value {
		h := mutable(vm, self)
		entries := h.Entries()
		if len(entries) == 0 {
			return nil
		}
		h.Delete(entries[0].Key)
		return NewArray(entries[0].Key, entries[0].Value)
	})

	// Iteration
	c.AddMethodN("each", func(vm *VM, self Value, _ []Value, blk *Proc) Value {
		if blk == nil {
			return vm.enumFor(self, "each")
		}
		for _, e := range hsh(self).Entries() {
			vm.yieldValue(blk, NewArray(e.Key, e.Value))
		}
		return self
	})
	c.aliasBuiltin("each_pair", "each")
	c.AddMethodN("each_key", func(vm *VM, self Value, _ []Value, blk *Proc) Value {
		if blk == nil {
			return vm.enumFor(self, "each_key")
		}
		for _, e := range hsh(self).Entries() {
			vm.yieldValue(blk, e.Key)
		}
		return self
	})
	c.AddMethodN("each_value", func(vm *VM, self Value, _ []Value, blk *Proc) Value {
		if blk == nil {
			return vm.enumFor(self, "each_value")
		}
		for _, e := range hsh(self).Entries() {
			vm.yieldValue(blk, e.Value)
		}
		return self
	})

	filter := func(name string, keep bool) {
		c.AddMethodN(name, func(vm *VM, self Value, _ []Value, blk *Proc) Value {
			if blk == nil {
				return vm.enumFor(self, name)
			}
			out := NewHash()
			for _, e := range hsh(self).Entries() {
				if Truthy(vm.yieldPair(blk, e.Key, e.Value)) == keep {
					out.Set(e.Key, e.Value)
				}
			}
			return out
		})
		c.AddMethodN(name+"!", func(vm *VM, self Value, _ []Value, blk *Proc) Value {
			if blk == nil {
				return vm.enumFor(self, name+"!")
			}
			h := mutable(vm, self)
			changed := false
			for _, e := range h.Entries() {
				if Truthy(vm.yieldPair(blk, e.Key, e.Value)) != keep {
					h.Delete(e.Key)
					changed = true
				}
			}
			if !changed {
				return nil
			}
			return h
		})
	}
	filter("select", true)
	filter("filter", true)
	filter("reject", false)
	c.AddMethodN("keep_if", func(vm *VM, self Value, _ []Value, blk *Proc) Value {
		vm.callMethod(self, "select!", nil, vm.requireBlock(blk), false)
		return self
	})
	c.AddMethodN("delete_if", func(vm *VM, self Value, _ []Value, blk *Proc) Value {
		vm.callMethod(self, "reject!", nil, vm.requireBlock(blk), false)
		return self
	})
	c.AddMethodN("any?", func(vm *VM, self Value, args []Value, blk *Proc) Value {
		h := hsh(self)
		if blk == nil && len(args) == 0 {
			return h.Len() > 0
		}
		for _, e := range h.Entries() {
			pair := NewArray(e.Key, e.Value)
			if len(args) > 0 && Truthy(vm.Send(args[0], "===", pair)) {
				return true
			}
			if len(args) == 0 && Truthy(vm.yieldPair(blk, e.Key, e.Value)) {
				return true
			}
		}
		return false
	})
	c.AddMethodN("count", func(vm *VM, self Value, args []Value, blk *Proc) Value {
		h := hsh(self)
		if blk == nil && len(args) == 0 {
			return int64(h.Len())
		}
		n := int64(0)
		for _, e := range h.Entries() {
			pair := NewArray(e.Key, e.Value)
			if (len(args) > 0 && vm.equal(pair, args[0])) || (len(args) == 0 && Truthy(vm.yieldPair(blk, e.Key, e.Value))) {
				n++
			}
		}
		return n
	})
	transform := func(name string, keys bool) {
		c.AddMethodN(name, func(vm *VM, self Value, args []Value, blk *Proc) Value {
			var mapping *Hash
			if keys && len(args) == 1 {
				mapping = vm.toHash(args[0])
			} else if blk == nil {
				return vm.enumFor(self, name)
			}
			out := NewHash()
			for _, e := range hsh(self).Entries() {
				if !keys {
					out.Set(e.Key, vm.yieldValue(blk, e.Value))
					continue
				}
				if mapping != nil {
					if k, ok := mapping.Get(e.Key); ok {
						out.Set(k, e.Value)
						continue
					}
					if blk == nil {
						out.Set(e.Key, e.Value)
						continue
					}
				}
				out.Set(vm.yieldValue(blk, e.Key), e.Value)
			}
			return out
		})
		c.AddMethodN(name+"!", func(vm *VM, self Value, args []Value, blk *Proc) Value {
			h := mutable(vm, self)
			out := vm.callMethod(self, name, args, blk, false)
			if nh, ok := out.(*Hash); ok {
				h.Clear()
				for _, e := range nh.Entries() {
					h.Set(e.Key, e.Value)
				}
				return h
			}
			return out
		})
	}
	transform("transform_values", false)
	transform("transform_keys", true)
	c.AddMethodN("filter_map", func(vm *VM, self Value, _ []Value, blk *Proc) Value {
		out := NewArray()
		for _, e := range hsh(self).Entries() {
			if v := vm.yieldPair(vm.requireBlock(blk), e.Key, e.Value); Truthy(v) {
				out.Elements = append(out.Elements, v)
			}
		}
		return out
	})
	c.AddMethodN("sum", func(vm *VM, self Value, args []Value, blk *Proc) Value {
		vm.checkArgs(args, 0, 1)
		return vm.sum(vm.hashToA(hsh(self)).Elements, arg(args, 0, int64(0)), blk)
	})

	// Merging
	merge := func(vm *VM, dst *Hash, others []Value, blk *Proc) {
		for _, o := range others {
			for _, e := range vm.toHash(o).Entries() {
				if old, ok := dst.Get(e.Key); ok && blk != nil {
					dst.Set(e.Key, vm.callProc(blk, []Value{e.Key, old, e.Value}, nil))
					continue
				}
				dst.Set(e.Key, e.Value)
			}
		}
	}
	c.AddMethodN("merge", func(vm *VM, self Value, args []Value, blk *Proc) Value {
		out := hsh(self).Copy()
		merge(vm, out, args, blk)
		return out
	})
	c.AddMethodN("merge!", func(vm *VM, self Value, args []Value, blk *Proc) Value {
		merge(vm, mutable(vm, self), args, blk)
		return self
	})
	c.aliasBuiltin("update", "merge!")
	c.AddMethodN("to_h", func(vm *VM, self Value, _ []Value, blk *Proc) Value {
		if blk == nil {
			return self
		}
		out := NewHash()
		for _, e := range hsh(self).Entries() {
			pair := vm.toArray(vm.yieldPair(blk, e.Key, e.Value))
			if pair.Len() != 2 {
				vm.raiseError("ArgumentError", "element has wrong array length (expected 2, was %d)", pair.Len())
			}
			out.Set(pair.Elements[0], pair.Elements[1])
		}
		return out
	})
	c.AddMethod0("to_hash", func(_ *VM, self Value) Value { return self })
	c.AddMethod0("to_a", func(vm *VM, self Value) Value { return vm.hashToA(hsh(self)) })
	c.aliasBuiltin("entries", "to_a")
	c.AddMethod0("invert", func(_ *VM, self Value) Value {
		out := NewHash()
		for _, e := range hsh(self).Entries() {
			out.Set(e.Value, e.Key)
		}
		return out
	})
	c.AddMethod0("compact", func(_ *VM, self Value) Value {
		out := NewHash()
		for _, e := range hsh(self).Entries() {
			if e.Value != nil {
				out.Set(e.Key, e.Value)
			}
		}
		return out
	})
	c.AddMethodN("slice", func(_ *VM, self Value, args []Value, _ *Proc) Value {
		out := NewHash()
		for _, k := range args {
			if v, ok := hsh(self).Get(k); ok {
				out.Set(k, v)
			}
		}
		return out
	})
	c.AddMethodN("except", func(_ *VM, self Value, args []Value, _ *Proc) Value {
		out := hsh(self).Copy()
		out.Default, out.DefaultProc = nil, nil
		for _, k := range args {
			out.Delete(k)
		}
		return out
	})
	c.AddMethod0("first", func(_ *VM, self Value) Value {
		entries := hsh(self).Entries()
		if len(entries) == 0 {
			return nil
		}
		return NewArray(entries[0].Key, entries[0].Value)
	})

	// Defaults
	c.AddMethodN("default", func(vm *VM, self Value, args []Value, _ *Proc) Value {
		h := hsh(self)
		if len(args) == 1 && h.DefaultProc != nil {
			return vm.callProc(h.DefaultProc, []Value{h, args[0]}, nil)
		}
		return h.Default
	})
	c.AddMethod1("default=", func(vm *VM, self, v Value) Value {
		h := mutable(vm, self)
		h.Default, h.DefaultProc = v, nil
		return v
	})
	c.AddMethod0("default_proc", func(_ *VM, self Value) Value {
		if p := hsh(self).DefaultProc; p != nil {
			return p
		}
		return nil
	})
	c.AddMethod0("compare_by_identity", func(_ *VM, self Value) Value { return self })

	// Comparison and conversion
	c.AddMethod1("==", func(vm *VM, self, other Value) Value {
		o, ok := other.(*Hash)
		if !ok {
			return false
		}
		h := hsh(self)
		if h.Len() != o.Len() {
			return false
		}
		for _, e := range h.Entries() {
			v, ok := o.Get(e.Key)
			if !ok || !vm.equal(e.Value, v) {
				return false
			}
		}
		return true
	})
	c.aliasBuiltin("eql?", "==")
	c.AddMethod0("hash", func(vm *VM, self Value) Value {
		// order independent, so equal hashes hash alike
		var sum int64
		for _, e := range hsh(self).Entries() {
			sum += strHash(keyString(hashKey(e.Key)) + "\x02" + keyString(hashKey(e.Value)))
		}
		return sum
	})
	c.AddMethod0("to_s", func(vm *VM, self Value) Value { return NewString(vm.inspectValue(self)) })
	c.aliasBuiltin("inspect", "to_s")
	c.AddMethod1("deconstruct_keys", func(_ *VM, self, _ Value) Value { return self })
}
