package vm

import (
	"math"
	"math/big"
	"math/bits"
	"strconv"
)

// ---------------------------------------------------------------------------
// Integer, Float and Rational
// ---------------------------------------------------------------------------

// normInt returns b as an int64 when it fits.
func normInt(b *big.Int) Value {
	if b.IsInt64() {
		return b.Int64()
	}
	return b
}

func newRational(num, den int64) *Rational {
	r := &Rational{Rat: big.NewRat(num, den)}
	r.Freeze()
	return r
}

func ratValue(r *big.Rat) *Rational {
	out := &Rational{Rat: r}
	out.Freeze()
	return out
}

func toRat(v Value) (*big.Rat, bool) {
	switch x := v.(type) {
	case int64:
		return new(big.Rat).SetInt64(x), true
	case *big.Int:
		return new(big.Rat).SetInt(x), true
	case *Rational:
		return x.Rat, true
	}
	return nil, false
}

func isNumeric(v Value) bool {
	switch v.(type) {
	case int64, float64, *big.Int, *Rational:
		return true
	}
	return false
}

// arith applies a binary arithmetic operator to two numbers, promoting to
// Bignum, Rational or Float as Ruby does. Non-numeric operands go through
// coerce.
func (vm *VM) arith(op string, a, b Value) Value {
	if x, ok := a.(int64); ok {
		if y, ok := b.(int64); ok {
			if v, ok := vm.intArith(op, x, y); ok {
				return v
			}
		}
	}
	_, aFloat := a.(float64)
	_, bFloat := b.(float64)
	switch {
	case !isNumeric(b):
		return vm.coerceBinary(op, a, b)
	case aFloat || bFloat:
		x, _ := toFloat(a)
		y, _ := toFloat(b)
		return floatArith(op, x, y)
	}
	_, aRat := a.(*Rational)
	_, bRat := b.(*Rational)
	if aRat || bRat {
		x, _ := toRat(a)
		y, _ := toRat(b)
		return vm.ratArith(op, x, y)
	}
	x, _ := toBig(a)
	y, _ := toBig(b)
	return vm.bigArith(op, x, y)
}

// intArith handles the common fixnum case. ok is false when the result
// overflows and must be redone with big integers.
func (vm *VM) intArith(op string, x, y int64) (Value, bool) {
	switch op {
	case "+":
		s := x + y
		if (s > x) == (y > 0) {
			return s, true
		}
	case "-":
		d := x - y
		if (d < x) == (y > 0) {
			return d, true
		}
	case "*":
		if x == 0 || y == 0 {
			return int64(0), true
		}
		hi, lo := bits.Mul64(uint64(absInt(x)), uint64(absInt(y)))
		if hi == 0 && lo <= math.MaxInt64 && x != math.MinInt64 && y != math.MinInt64 {
			p := int64(lo)
			if (x < 0) != (y < 0) {
				p = -p
			}
			return p, true
		}
	case "/":
		if y == 0 {
			vm.raiseError("ZeroDivisionError", "divided by 0")
		}
		if x == math.MinInt64 && y == -1 {
			return nil, false
		}
		return floorDiv(x, y), true
	case "%":
		if y == 0 {
			vm.raiseError("ZeroDivisionError", "divided by 0")
		}
		if y == -1 {
			return int64(0), true
		}
		return floorMod(x, y), true
	case "**":
		if y < 0 {
			return vm.ratArith("**", new(big.Rat).SetInt64(x), new(big.Rat).SetInt64(y)), true
		}
		r := new(big.Int).Exp(big.NewInt(x), big.NewInt(y), nil)
		return normInt(r), true
	}
	return nil, false
}

func absInt(x int64) int64 {
	if x < 0 {
		return -x
	}
	return x
}

func floorDiv(x, y int64) int64 {
	q := x / y
	if (x%y != 0) && ((x < 0) != (y < 0)) {
		q--
	}
	return q
}

func floorMod(x, y int64) int64 {
	m := x % y
	if m != 0 && ((m < 0) != (y < 0)) {
		m += y
	}
	return m
}

func (vm *VM) bigArith(op string, x, y *big.Int) Value {
	r := new(big.Int)
	switch op {
	case "+":
		r.Add(x, y)
	case "-":
		r.Sub(x, y)
	case "*":
		r.Mul(x, y)
	case "/", "%":
		if y.Sign() == 0 {
			vm.raiseError("ZeroDivisionError", "divided by 0")
		}
		q, m := new(big.Int).DivMod(x, y, new(big.Int))
		// DivMod is Euclidean; Ruby floors toward negative infinity.
		if m.Sign() != 0 && y.Sign() < 0 {
			q.Sub(q, big.NewInt(1))
			m.Add(m, y)
		}
		if op == "/" {
			return normInt(q)
		}
		return normInt(m)
	case "**":
		if y.Sign() < 0 {
			return vm.ratArith("**", new(big.Rat).SetInt(x), new(big.Rat).SetInt(y))
		}
		r.Exp(x, y, nil)
	default:
		vm.raiseError("NoMethodError", "undefined method `%s' for an instance of Integer", op)
	}
	return normInt(r)
}

func floatArith(op string, x, y float64) Value {
	switch op {
	case "+":
		return x + y
	case "-":
		return x - y
	case "*":
		return x * y
	case "/":
		return x / y
	case "%":
		return floatMod(x, y)
	case "**":
		return math.Pow(x, y)
	}
	return math.NaN()
}

func floatMod(x, y float64) float64 {
	m := math.Mod(x, y)
	if m != 0 && (m < 0) != (y < 0) {
		m += y
	}
	return m
}

func (vm *VM) ratArith(op string, x, y *big.Rat) Value {
	r := new(big.Rat)
	switch op {
	case "+":
		r.Add(x, y)
	case "-":
		r.Sub(x, y)
	case "*":
		r.Mul(x, y)
	case "/":
		if y.Sign() == 0 {
			vm.raiseError("ZeroDivisionError", "divided by 0")
		}
		r.Quo(x, y)
	case "%":
		if y.Sign() == 0 {
			vm.raiseError("ZeroDivisionError", "divided by 0")
		}
		q := new(big.Rat).Quo(x, y)
		fl := ratFloor(q)
		r.Sub(x, new(big.Rat).Mul(y, new(big.Rat).SetInt(fl)))
	case "**":
		if !y.IsInt() {
			fx, _ := x.Float64()
			fy, _ := y.Float64()
			return math.Pow(fx, fy)
		}
		n := y.Num()
		base := x
		if n.Sign() < 0 {
			if x.Sign() == 0 {
				vm.raiseError("ZeroDivisionError", "divided by 0")
			}
			base = new(big.Rat).Inv(x)
			n = new(big.Int).Neg(n)
		}
		num := new(big.Int).Exp(base.Num(), n, nil)
		den := new(big.Int).Exp(base.Denom(), n, nil)
		r.SetFrac(num, den)
	}
	return ratValue(r)
}

// ratFloor relies on the denominator being positive, where Euclidean
// division floors.
func ratFloor(r *big.Rat) *big.Int {
	return new(big.Int).Div(r.Num(), r.Denom())
}

// coerceBinary retries op through other.coerce(self), raising TypeError
// when other is not numeric-like.
func (vm *VM) coerceBinary(op string, self, other Value) Value {
	if other != nil && vm.respondTo(other, "coerce", false) {
		if pair, ok := vm.Send(other, "coerce", self).(*Array); ok && pair.Len() == 2 {
			return vm.Send(pair.Elements[0], op, pair.Elements[1])
		}
	}
	vm.raiseError("TypeError", "%s can't be coerced into %s", vm.typeName(other), vm.ClassOf(self).FullName())
	return nil
}

// numCompare orders two numbers for <, <=, > and >=.
func (vm *VM) numCompare(a, b Value) int {
	if x, ok := toRat(a); ok {
		if y, ok := toRat(b); ok {
			return x.Cmp(y)
		}
	}
	if c, ok := compareNumbers(a, b); ok {
		return c
	}
	vm.raiseError("ArgumentError", "comparison of %s with %s failed", vm.ClassOf(a).FullName(), vm.typeNameOrInspect(b))
	return 0
}

func (vm *VM) typeNameOrInspect(v Value) string {
	switch v.(type) {
	case nil, bool, int64, float64:
		return vm.Inspect(v)
	}
	return vm.ClassOf(v).FullName()
}

func numEqual(a, b Value) bool {
	if x, ok := toRat(a); ok {
		if y, ok := toRat(b); ok {
			return x.Cmp(y) == 0
		}
	}
	c, ok := compareNumbers(a, b)
	return ok && c == 0
}

func (vm *VM) registerNumericPrimitives() {
	n := vm.NumericClass
	for _, op := range []string{"+", "-", "*", "/", "%", "**"} {
		name := op
		n.AddMethod1(name, func(vm *VM, self, other Value) Value { return vm.arith(name, self, other) })
	}
	n.aliasBuiltin("modulo", "%")
	n.aliasBuiltin("pow", "**")
	n.AddMethod1("==", func(vm *VM, self, other Value) Value {
		if o, ok := other.(*Object); ok {
			return Truthy(vm.Send(o, "==", self))
		}
		return numEqual(self, other)
	})
	n.AddMethod1("eql?", func(vm *VM, self, other Value) Value {
		return vm.ClassOf(self) == vm.ClassOf(other) && numEqual(self, other)
	})
	n.AddMethod1("<=>", func(vm *VM, self, other Value) Value {
		if !isNumeric(other) {
			return nil
		}
		if x, ok := toRat(self); ok {
			if y, ok := toRat(other); ok {
				return int64(x.Cmp(y))
			}
		}
		if c, ok := compareNumbers(self, other); ok {
			return int64(c)
		}
		return nil
	})
	n.AddMethod1("<", func(vm *VM, self, other Value) Value { return vm.numCompare(self, other) < 0 })
	n.AddMethod1("<=", func(vm *VM, self, other Value) Value { return vm.numCompare(self, other) <= 0 })
	n.AddMethod1(">", func(vm *VM, self, other Value) Value { return vm.numCompare(self, other) > 0 })
	n.AddMethod1(">=", func(vm *VM, self, other Value) Value { return vm.numCompare(self, other) >= 0 })
	n.AddMethod0("-@", func(vm *VM, self Value) Value {
		if f, ok := self.(float64); ok {
			return -f
		}
		return vm.arith("-", int64(0), self)
	})
	n.AddMethod0("+@", func(_ *VM, self Value) Value { return self })
	n.AddMethod0("to_s", func(vm *VM, self Value) Value { return NewString(vm.inspectValue(self)) })
	n.AddMethod0("integer?", func(_ *VM, self Value) Value {
		switch self.(type) {
		case int64, *big.Int:
			return true
		}
		return false
	})
	n.AddMethod0("zero?", func(_ *VM, self Value) Value { return numEqual(self, int64(0)) })
	n.AddMethod0("nonzero?", func(_ *VM, self Value) Value {
		if numEqual(self, int64(0)) {
			return nil
		}
		return self
	})
	n.AddMethod0("positive?", func(vm *VM, self Value) Value { return vm.numCompare(self, int64(0)) > 0 })
	n.AddMethod0("negative?", func(vm *VM, self Value) Value { return vm.numCompare(self, int64(0)) < 0 })
	n.AddMethod0("abs", func(vm *VM, self Value) Value {
		if vm.numCompare(self, int64(0)) < 0 {
			return vm.arith("-", int64(0), self)
		}
		return self
	})
	n.aliasBuiltin("magnitude", "abs")
	n.AddMethod1("div", func(vm *VM, self, other Value) Value {
		return vm.floorValue(vm.arith("/", self, other))
	})
	n.AddMethod1("fdiv", func(vm *VM, self, other Value) Value {
		x, _ := toFloat(self)
		y, ok := toFloat(other)
		if !ok {
			vm.coerceBinary("fdiv", self, other)
		}
		return x / y
	})
	n.AddMethod1("divmod", func(vm *VM, self, other Value) Value {
		q := vm.floorValue(vm.arith("/", self, other))
		return NewArray(q, vm.arith("%", self, other))
	})
	n.AddMethod1("remainder", func(vm *VM, self, other Value) Value {
		m := vm.arith("%", self, other)
		if !numEqual(m, int64(0)) && (vm.numCompare(self, int64(0)) < 0) != (vm.numCompare(other, int64(0)) < 0) {
			return vm.arith("-", m, other)
		}
		return m
	})
	n.AddMethod1("coerce", func(vm *VM, self, other Value) Value {
		if _, ok := self.(float64); ok {
			f, ok := toFloat(other)
			if !ok {
				vm.raiseError("TypeError", "can't convert %s into Float", vm.typeName(other))
			}
			return NewArray(f, self)
		}
		if !isNumeric(other) {
			vm.raiseError("TypeError", "can't convert %s into %s", vm.typeName(other), vm.ClassOf(self).FullName())
		}
		return NewArray(other, self)
	})
	n.AddMethodN("step", func(vm *VM, self Value, args []Value, blk *Proc) Value {
		vm.checkArgs(args, 0, 2)
		limit, step := arg(args, 0, nil), arg(args, 1, int64(1))
		if blk == nil {
			return vm.enumFor(self, "step", args...)
		}
		if numEqual(step, int64(0)) {
			vm.raiseError("ArgumentError", "step can't be 0")
		}
		up := vm.numCompare(step, int64(0)) > 0
		for i := self; limit == nil || (up && vm.numCompare(i, limit) <= 0) || (!up && vm.numCompare(i, limit) >= 0); i = vm.arith("+", i, step) {
			vm.yieldValue(blk, i)
		}
		return self
	})
	n.AddMethod0("to_c", func(vm *VM, self Value) Value {
		c := &Complex{Real: self, Imag: int64(0)}
		c.Freeze()
		return c
	})

	vm.registerIntegerPrimitives()
	vm.registerFloatPrimitives()
	vm.registerRationalPrimitives()
}

// floorValue rounds a quotient toward negative infinity, keeping exact
// values exact.
func (vm *VM) floorValue(v Value) Value {
	switch x := v.(type) {
	case float64:
		if math.IsNaN(x) || math.IsInf(x, 0) {
			vm.raiseError("FloatDomainError", "%s", formatFloat(x))
		}
		return floatToInt(math.Floor(x))
	case *Rational:
		return normInt(ratFloor(x.Rat))
	}
	return v
}

func floatToInt(f float64) Value {
	if f >= math.MinInt64 && f < math.MaxInt64 {
		return int64(f)
	}
	b, _ := new(big.Float).SetFloat64(f).Int(nil)
	return normInt(b)
}

func (vm *VM) registerIntegerPrimitives() {
	c := vm.IntegerClass

	c.AddMethodN("to_s", func(vm *VM, self Value, args []Value, _ *Proc) Value {
		vm.checkArgs(args, 0, 1)
		base := int(vm.toInt(arg(args, 0, int64(10))))
		if base < 2 || base > 36 {
			vm.raiseError("ArgumentError", "invalid radix %d", base)
		}
		if x, ok := self.(int64); ok {
			return NewString(strconv.FormatInt(x, base))
		}
		return NewString(self.(*big.Int).Text(base))
	})
	c.aliasBuiltin("inspect", "to_s")
	c.AddMethod0("to_i", func(_ *VM, self Value) Value { return self })
	c.aliasBuiltin("to_int", "to_i")
	c.AddMethod0("to_f", func(_ *VM, self Value) Value {
		f, _ := toFloat(self)
		return f
	})
	c.AddMethod0("to_r", func(_ *VM, self Value) Value {
		r, _ := toRat(self)
		return ratValue(r)
	})
	c.AddMethod0("hash", func(_ *VM, self Value) Value {
		if x, ok := self.(int64); ok {
			return x
		}
		return int64(len(self.(*big.Int).Bits()))
	})
	c.AddMethod0("succ", func(vm *VM, self Value) Value { return vm.arith("+", self, int64(1)) })
	c.aliasBuiltin("next", "succ")
	c.AddMethod0("pred", func(vm *VM, self Value) Value { return vm.arith("-", self, int64(1)) })
	c.AddMethod0("ord", func(_ *VM, self Value) Value { return self })
	c.AddMethod0("even?", func(vm *VM, self Value) Value { return numEqual(vm.arith("%", self, int64(2)), int64(0)) })
	c.AddMethod0("odd?", func(vm *VM, self Value) Value { return !numEqual(vm.arith("%", self, int64(2)), int64(0)) })
	c.AddMethod0("chr", func(vm *VM, self Value) Value {
		n := vm.toInt(self)
		if n < 0 || n > 0xff {
			vm.raiseError("RangeError", "%d out of char range", n)
		}
		return NewString(string([]byte{byte(n)}))
	})
	c.AddMethod0("~", func(vm *VM, self Value) Value { return vm.arith("-", vm.arith("-", int64(0), self), int64(1)) })
	for _, op := range []string{"&", "|", "^", "<<", ">>"} {
		name := op
		c.AddMethod1(name, func(vm *VM, self, other Value) Value { return vm.bitOp(name, self, other) })
	}
	c.AddMethod1("[]", func(vm *VM, self, i Value) Value {
		x, _ := toBig(self)
		n := vm.toInt(i)
		if n < 0 {
			return int64(0)
		}
		return int64(x.Bit(int(n)))
	})
	c.AddMethod0("bit_length", func(_ *VM, self Value) Value {
		x, _ := toBig(self)
		if x.Sign() < 0 {
			x = new(big.Int).Not(x)
		}
		return int64(x.BitLen())
	})
	c.AddMethod1("gcd", func(vm *VM, self, other Value) Value {
		x, _ := toBig(self)
		y, ok := toBig(other)
		if !ok {
			vm.raiseError("TypeError", "not an integer")
		}
		return normInt(new(big.Int).GCD(nil, nil, new(big.Int).Abs(x), new(big.Int).Abs(y)))
	})
	c.AddMethod1("lcm", func(vm *VM, self, other Value) Value {
		x, _ := toBig(self)
		y, ok := toBig(other)
		if !ok {
			vm.raiseError("TypeError", "not an integer")
		}
		if x.Sign() == 0 || y.Sign() == 0 {
			return int64(0)
		}
		g := new(big.Int).GCD(nil, nil, new(big.Int).Abs(x), new(big.Int).Abs(y))
		l := new(big.Int).Mul(x, y)
		return normInt(l.Abs(l).Div(l, g))
	})
	c.AddMethodN("pow", func(vm *VM, self Value, args []Value, _ *Proc) Value {
		vm.checkArgs(args, 1, 2)
		if len(args) == 1 {
			return vm.arith("**", self, args[0])
		}
		x, _ := toBig(self)
		y, ok1 := toBig(args[0])
		m, ok2 := toBig(args[1])
		if !ok1 || !ok2 {
			vm.raiseError("TypeError", "Integer#pow() 2nd argument not allowed unless all arguments are integers")
		}
		if m.Sign() == 0 {
			vm.raiseError("ZeroDivisionError", "divided by 0")
		}
		r := new(big.Int).Exp(x, y, new(big.Int).Abs(m))
		return vm.arith("%", normInt(r), normInt(m))
	})
	c.AddMethodN("digits", func(vm *VM, self Value, args []Value, _ *Proc) Value {
		vm.checkArgs(args, 0, 1)
		base := vm.toInt(arg(args, 0, int64(10)))
		n := vm.toInt(self)
		if n < 0 {
			vm.raiseError("ArgumentError", "out of domain")
		}
		out := NewArray()
		for {
			out.Elements = append(out.Elements, n%base)
			n /= base
			if n == 0 {
				return out
			}
		}
	})
	c.AddMethod0("size", func(*VM, Value) Value { return int64(8) })

	c.AddMethodN("round", func(vm *VM, self Value, args []Value, _ *Proc) Value {
		return vm.roundInt(self, args, func(q, r, d int64) int64 {
			if 2*absInt(r) >= d {
				if q < 0 || (q == 0 && r < 0) {
					return q - 1
				}
				return q + 1
			}
			return q
		})
	})
	c.AddMethodN("floor", func(vm *VM, self Value, args []Value, _ *Proc) Value {
		return vm.roundInt(self, args, func(q, r, _ int64) int64 {
			if r < 0 {
				return q - 1
			}
			return q
		})
	})
	c.AddMethodN("ceil", func(vm *VM, self Value, args []Value, _ *Proc) Value {
		return vm.roundInt(self, args, func(q, r, _ int64) int64 {
			if r > 0 {
				return q + 1
			}
			return q
		})
	})
	c.AddMethodN("truncate", func(vm *VM, self Value, args []Value, _ *Proc) Value {
		return vm.roundInt(self, args, func(q, _, _ int64) int64 { return q })
	})

	c.AddMethodN("times", func(vm *VM, self Value, args []Value, blk *Proc) Value {
		vm.checkArgs(args, 0, 0)
		if blk == nil {
			return vm.enumFor(self, "times")
		}
		n := vm.toInt(self)
		for i := int64(0); i < n; i++ {
			vm.yieldValue(blk, i)
		}
		return self
	})
	c.AddMethodN("upto", func(vm *VM, self Value, args []Value, blk *Proc) Value {
		vm.checkArgs(args, 1, 1)
		if blk == nil {
			return vm.enumFor(self, "upto", args...)
		}
		for i, end := vm.toInt(self), vm.toInt(args[0]); i <= end; i++ {
			vm.yieldValue(blk, i)
		}
		return self
	})
	c.AddMethodN("downto", func(vm *VM, self Value, args []Value, blk *Proc) Value {
		vm.checkArgs(args, 1, 1)
		if blk == nil {
			return vm.enumFor(self, "downto", args...)
		}
		for i, end := vm.toInt(self), vm.toInt(args[0]); i >= end; i-- {
			vm.yieldValue(blk, i)
		}
		return self
	})
}

// roundInt implements Integer#round, floor, ceil and truncate with a
// digits argument. Non-negative digits leave the integer alone.
func (vm *VM) roundInt(self Value, args []Value, adjust func(q, r, d int64) int64) Value {
	args, _ = splitKeywords(args)
	vm.checkArgs(args, 0, 1)
	digits := vm.toInt(arg(args, 0, int64(0)))
	if digits >= 0 {
		return self
	}
	n := vm.toInt(self)
	if digits < -18 {
		return int64(0)
	}
	d := int64(math.Pow10(int(-digits)))
	q, r := n/d, n%d
	return adjust(q, r, d) * d
}

func (vm *VM) bitOp(op string, self, other Value) Value {
	x, _ := toBig(self)
	y, ok := toBig(other)
	if !ok {
		if f, isFloat := other.(float64); isFloat && (op == "<<" || op == ">>") {
			y = big.NewInt(int64(f))
		} else {
			vm.coerceBinary(op, self, other)
		}
	}
	r := new(big.Int)
	switch op {
	case "&":
		r.And(x, y)
	case "|":
		r.Or(x, y)
	case "^":
		r.Xor(x, y)
	case "<<", ">>":
		shift := y.Int64()
		if op == ">>" {
			shift = -shift
		}
		if shift >= 0 {
			if shift > 1<<20 {
				vm.raiseError("RangeError", "shift width too big")
			}
			r.Lsh(x, uint(shift))
		} else {
			r.Rsh(x, uint(-shift))
		}
	}
	return normInt(r)
}

func (vm *VM) registerFloatPrimitives() {
	c := vm.FloatClass
	vm.FloatClass.ConstSet("INFINITY", math.Inf(1))
	vm.FloatClass.ConstSet("NAN", math.NaN())
	vm.FloatClass.ConstSet("EPSILON", 2.220446049250313e-16)
	vm.FloatClass.ConstSet("MAX", math.MaxFloat64)
	vm.FloatClass.ConstSet("MIN", 2.2250738585072014e-308)

	c.AddMethod0("to_s", func(_ *VM, self Value) Value { return NewString(formatFloat(self.(float64))) })
	c.aliasBuiltin("inspect", "to_s")
	c.AddMethod0("to_f", func(_ *VM, self Value) Value { return self })
	c.AddMethod0("to_i", func(vm *VM, self Value) Value {
		f := self.(float64)
		if math.IsNaN(f) || math.IsInf(f, 0) {
			vm.raiseError("FloatDomainError", "%s", formatFloat(f))
		}
		return floatToInt(math.Trunc(f))
	})
	c.aliasBuiltin("to_int", "to_i")
	c.AddMethod0("to_r", func(vm *VM, self Value) Value {
		r := new(big.Rat)
		if r.SetFloat64(self.(float64)) == nil {
			vm.raiseError("FloatDomainError", "%s", formatFloat(self.(float64)))
		}
		return ratValue(r)
	})
	c.AddMethod0("nan?", func(_ *VM, self Value) Value { return math.IsNaN(self.(float64)) })
	c.AddMethod0("finite?", func(_ *VM, self Value) Value {
		f := self.(float64)
		return !math.IsNaN(f) && !math.IsInf(f, 0)
	})
	c.AddMethod0("infinite?", func(_ *VM, self Value) Value {
		f := self.(float64)
		switch {
		case math.IsInf(f, 1):
			return int64(1)
		case math.IsInf(f, -1):
			return int64(-1)
		}
		return nil
	})
	c.AddMethod0("hash", func(_ *VM, self Value) Value { return int64(math.Float64bits(self.(float64)) >> 1) })
	c.AddMethodN("round", func(vm *VM, self Value, args []Value, _ *Proc) Value {
		return vm.roundFloat(self.(float64), args, math.Round)
	})
	c.AddMethodN("floor", func(vm *VM, self Value, args []Value, _ *Proc) Value {
		return vm.roundFloat(self.(float64), args, math.Floor)
	})
	c.AddMethodN("ceil", func(vm *VM, self Value, args []Value, _ *Proc) Value {
		return vm.roundFloat(self.(float64), args, math.Ceil)
	})
	c.AddMethodN("truncate", func(vm *VM, self Value, args []Value, _ *Proc) Value {
		return vm.roundFloat(self.(float64), args, math.Trunc)
	})
	c.AddMethod0("next_float", func(_ *VM, self Value) Value { return math.Nextafter(self.(float64), math.Inf(1)) })
	c.AddMethod0("prev_float", func(_ *VM, self Value) Value { return math.Nextafter(self.(float64), math.Inf(-1)) })
}

// roundFloat applies fn at the requested number of decimal digits. With
// no digits the result is an Integer.
func (vm *VM) roundFloat(f float64, args []Value, fn func(float64) float64) Value {
	args, kw := splitKeywords(args)
	vm.checkArgs(args, 0, 1)
	digits := vm.toInt(arg(args, 0, int64(0)))
	if kw != nil {
		if mode, ok := kw.Get(Symbol("half")); ok && mode == Symbol("even") {
			fn = math.RoundToEven
		}
	}
	if digits > 0 {
		if math.IsNaN(f) || math.IsInf(f, 0) || digits > 15 {
			return f
		}
		p := math.Pow10(int(digits))
		return fn(f*p) / p
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		vm.raiseError("FloatDomainError", "%s", formatFloat(f))
	}
	if digits == 0 {
		return floatToInt(fn(f))
	}
	p := math.Pow10(int(-digits))
	return floatToInt(fn(f/p) * p)
}

func (vm *VM) registerRationalPrimitives() {
	c := vm.RationalClass
	c.AddMethod0("to_s", func(_ *VM, self Value) Value {
		r := self.(*Rational).Rat
		return NewString(r.Num().String() + "/" + r.Denom().String())
	})
	c.AddMethod0("numerator", func(_ *VM, self Value) Value { return normInt(new(big.Int).Set(self.(*Rational).Rat.Num())) })
	c.AddMethod0("denominator", func(_ *VM, self Value) Value {
		return normInt(new(big.Int).Set(self.(*Rational).Rat.Denom()))
	})
	c.AddMethod0("to_f", func(_ *VM, self Value) Value {
		f, _ := self.(*Rational).Rat.Float64()
		return f
	})
	c.AddMethod0("to_i", func(_ *VM, self Value) Value {
		r := self.(*Rational).Rat
		return normInt(new(big.Int).Quo(r.Num(), r.Denom()))
	})
	c.AddMethod0("to_r", func(_ *VM, self Value) Value { return self })
	c.AddMethod0("floor", func(vm *VM, self Value) Value { return vm.floorValue(self) })
}
