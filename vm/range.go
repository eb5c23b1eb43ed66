package vm

import "math"

// ---------------------------------------------------------------------------
// Range
// ---------------------------------------------------------------------------

// rangeSize counts the integers in a numeric range; endless ranges are
// Infinity and non-numeric ranges nil.
func (vm *VM) rangeSize(r *Range) Value {
	b, ok := r.Begin.(int64)
	if !ok {
		if _, isFloat := r.Begin.(float64); !isFloat {
			return nil
		}
	}
	switch e := r.End.(type) {
	case nil:
		return math.Inf(1)
	case int64:
		if !ok {
			break
		}
		n := e - b + 1
		if r.Exclusive {
			n--
		}
		return max(n, 0)
	case float64:
		if !ok {
			break
		}
		if math.IsInf(e, 1) {
			return math.Inf(1)
		}
		end := int64(math.Floor(e))
		if r.Exclusive && float64(end) == e {
			end--
		}
		return max(end-b+1, 0)
	}
	if !ok {
		vm.raiseError("TypeError", "can't iterate from Float")
	}
	return nil
}

func (vm *VM) registerRangePrimitives() {
	c := vm.RangeClass
	rng := func(v Value) *Range { return v.(*Range) }

	meta := vm.singletonClass(c)
	meta.AddMethodN("new", func(vm *VM, _ Value, args []Value, _ *Proc) Value {
		vm.checkArgs(args, 2, 3)
		b, e := args[0], args[1]
		if b != nil && e != nil {
			if _, ok := vm.compare(b, e); !ok {
				vm.raiseError("ArgumentError", "bad value for range")
			}
		}
		r := &Range{Begin: b, End: e, Exclusive: Truthy(arg(args, 2, false))}
		r.Freeze()
		return r
	})

	c.AddMethod0("begin", func(_ *VM, self Value) Value { return rng(self).Begin })
	c.AddMethod0("end", func(_ *VM, self Value) Value { return rng(self).End })
	c.AddMethod0("exclude_end?", func(_ *VM, self Value) Value { return rng(self).Exclusive })
	c.AddMethodN("first", func(vm *VM, self Value, args []Value, _ *Proc) Value {
		vm.checkArgs(args, 0, 1)
		r := rng(self)
		if len(args) == 0 {
			if r.Begin == nil {
				vm.raiseError("RangeError", "cannot get the first element of beginless range")
			}
			return r.Begin
		}
		n := vm.toInt(args[0])
		if n < 0 {
			vm.raiseError("ArgumentError", "negative array size (or size too big)")
		}
		out := NewArray()
		vm.eachInRange(r, func(v Value) bool {
			if int64(out.Len()) >= n {
				return false
			}
			out.Elements = append(out.Elements, v)
			return true
		})
		return out
	})
	c.AddMethodN("last", func(vm *VM, self Value, args []Value, _ *Proc) Value {
		vm.checkArgs(args, 0, 1)
		r := rng(self)
		if r.End == nil {
			vm.raiseError("RangeError", "cannot get the last element of endless range")
		}
		if len(args) == 0 {
			return r.End
		}
		elems := vm.rangeElements(r)
		n := int(vm.toInt(args[0]))
		return NewArray(elems[max(0, len(elems)-n):]...)
	})
	extreme := func(name string, dir int) {
		c.AddMethodN(name, func(vm *VM, self Value, args []Value, blk *Proc) Value {
			r := rng(self)
			if blk != nil || len(args) > 0 {
				return vm.callMethod(NewArray(vm.rangeElements(r)...), name, args, blk, false)
			}
			cmp, ok := vm.compare(r.Begin, r.End)
			if !ok || cmp > 0 || (cmp == 0 && r.Exclusive) {
				return nil
			}
			if dir < 0 {
				return r.Begin
			}
			if !r.Exclusive {
				return r.End
			}
			if _, ok := r.End.(int64); !ok {
				vm.raiseError("TypeError", "cannot exclude non Integer end value")
			}
			return r.End.(int64) - 1
		})
	}
	extreme("min", -1)
	extreme("max", 1)
	c.AddMethodN("minmax", func(vm *VM, self Value, args []Value, blk *Proc) Value {
		return NewArray(vm.callMethod(self, "min", args, blk, false), vm.callMethod(self, "max", args, blk, false))
	})

	c.AddMethodN("each", func(vm *VM, self Value, _ []Value, blk *Proc) Value {
		if blk == nil {
			return vm.enumFor(self, "each")
		}
		vm.eachInRange(rng(self), func(v Value) bool {
			vm.yieldValue(blk, v)
			return true
		})
		return self
	})
	c.AddMethodN("reverse_each", func(vm *VM, self Value, _ []Value, blk *Proc) Value {
		if blk == nil {
			return vm.enumFor(self, "reverse_each")
		}
		r := rng(self)
		if e, ok := r.End.(int64); ok {
			if r.Exclusive {
				e--
			}
			b, isInt := r.Begin.(int64)
			for i := e; !isInt || i >= b; i-- {
				vm.yieldValue(blk, i)
			}
			return self
		}
		elems := vm.rangeElements(r)
		for i := len(elems) - 1; i >= 0; i-- {
			vm.yieldValue(blk, elems[i])
		}
		return self
	})
	c.AddMethodN("step", func(vm *VM, self Value, args []Value, blk *Proc) Value {
		vm.checkArgs(args, 0, 1)
		r := rng(self)
		step := arg(args, 0, int64(1))
		if blk == nil {
			return vm.enumFor(self, "step", args...)
		}
		if cmp, ok := compareNumbers(step, int64(0)); ok && cmp <= 0 {
			vm.raiseError("ArgumentError", "step can't be negative")
		}
		for v := r.Begin; ; v = vm.arith("+", v, step) {
			if r.End != nil {
				cmp, _ := vm.compare(v, r.End)
				if cmp > 0 || (cmp == 0 && r.Exclusive) {
					break
				}
			}
			vm.yieldValue(blk, v)
		}
		return self
	})
	c.aliasBuiltin("%", "step")

	c.AddMethod0("to_a", func(vm *VM, self Value) Value {
		r := rng(self)
		if r.End == nil {
			vm.raiseError("RangeError", "cannot convert endless range to an array")
		}
		return NewArray(vm.rangeElements(r)...)
	})
	c.aliasBuiltin("entries", "to_a")
	c.aliasBuiltin("to_ary", "to_a")
	c.AddMethod0("size", func(vm *VM, self Value) Value { return vm.rangeSize(rng(self)) })
	c.AddMethodN("count", func(vm *VM, self Value, args []Value, blk *Proc) Value {
		r := rng(self)
		if len(args) == 0 && blk == nil {
			if n := vm.rangeSize(r); n != nil {
				return n
			}
		}
		return vm.callMethod(NewArray(vm.rangeElements(r)...), "count", args, blk, false)
	})
	c.AddMethodN("sum", func(vm *VM, self Value, args []Value, blk *Proc) Value {
		vm.checkArgs(args, 0, 1)
		r := rng(self)
		init := arg(args, 0, int64(0))
		b, okB := r.Begin.(int64)
		e, okE := r.End.(int64)
		if blk == nil && okB && okE {
			if r.Exclusive {
				e--
			}
			if e < b {
				return init
			}
			// (b+e)*(e-b+1)/2, through the promoting arithmetic
			n := vm.arith("*", vm.arith("+", b, e), vm.arith("+", vm.arith("-", e, b), int64(1)))
			return vm.arith("+", init, vm.arith("/", n, int64(2)))
		}
		return vm.sum(vm.rangeElements(r), init, blk)
	})

	c.AddMethod1("include?", func(vm *VM, self, v Value) Value {
		r := rng(self)
		_, strBegin := r.Begin.(*String)
		if _, isStr := v.(*String); strBegin && isStr && r.End != nil {
			for _, e := range vm.rangeElements(r) {
				if vm.equal(e, v) {
					return true
				}
			}
			return false
		}
		return vm.rangeCovers(r, v)
	})
	c.aliasBuiltin("member?", "include?")
	c.AddMethod1("cover?", func(vm *VM, self, v Value) Value {
		r := rng(self)
		if o, ok := v.(*Range); ok {
			if o.Begin != nil && !vm.rangeCovers(r, o.Begin) {
				return false
			}
			if o.End == nil {
				return r.End == nil
			}
			if r.End == nil {
				return true
			}
			cmp, ok := vm.compare(o.End, r.End)
			return ok && (cmp < 0 || (cmp == 0 && (!r.Exclusive || o.Exclusive)))
		}
		return vm.rangeCovers(r, v)
	})
	c.AddMethod1("===", func(vm *VM, self, v Value) Value { return vm.rangeCovers(rng(self), v) })
	c.AddMethod1("==", func(vm *VM, self, other Value) Value {
		o, ok := other.(*Range)
		r := rng(self)
		return ok && r.Exclusive == o.Exclusive && vm.equal(r.Begin, o.Begin) && vm.equal(r.End, o.End)
	})
	c.AddMethod1("eql?", func(_ *VM, self, other Value) Value {
		o, ok := other.(*Range)
		return ok && hashKey(self) == hashKey(o)
	})
	c.AddMethod0("hash", func(_ *VM, self Value) Value { return strHash(keyString(hashKey(self))) })
	c.AddMethod0("to_s", func(vm *VM, self Value) Value {
		r := rng(self)
		dots := ".."
		if r.Exclusive {
			dots = "..."
		}
		b, e := "", ""
		if r.Begin != nil {
			b = vm.ToS(r.Begin)
		}
		if r.End != nil {
			e = vm.ToS(r.End)
		}
		return NewString(b + dots + e)
	})
	c.AddMethod0("inspect", func(vm *VM, self Value) Value { return NewString(vm.inspectValue(self)) })
}
