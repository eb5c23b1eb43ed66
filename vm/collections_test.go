package vm

import (
	"errors"
	"testing"
)

type builtinCase struct {
	name string
	recv Value
	meth string
	args []Value
	want string
}

func runBuiltinCases(t *testing.T, vm *VM, tests []builtinCase) {
	t.Helper()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v, err := vm.Call(tt.recv, tt.meth, tt.args...)
			if err != nil {
				t.Fatalf("call error: %v", err)
			}
			if got := vm.Inspect(v); got != tt.want {
				t.Errorf("got %s, want %s", got, tt.want)
			}
		})
	}
}

func ints(ns ...int64) *Array {
	a := NewArray()
	for _, n := range ns {
		a.Elements = append(a.Elements, n)
	}
	return a
}

func TestArrayBuiltins(t *testing.T) {
	vm := New(DefaultOptions())
	runBuiltinCases(t, vm, []builtinCase{
		{"index", ints(1, 2, 3), "[]", []Value{int64(-1)}, "3"},
		{"out of range", ints(1, 2, 3), "[]", []Value{int64(5)}, "nil"},
		{"slice", ints(1, 2, 3, 4), "[]", []Value{int64(1), int64(2)}, "[2, 3]"},
		{"range slice", ints(1, 2, 3, 4), "[]", []Value{&Range{Begin: int64(1), End: int64(-1)}}, "[2, 3, 4]"},
		{"first n", ints(1, 2, 3), "first", []Value{int64(2)}, "[1, 2]"},
		{"last", ints(1, 2, 3), "last", nil, "3"},
		{"plus", ints(1), "+", []Value{ints(2)}, "[1, 2]"},
		{"minus", ints(1, 2, 2, 3), "-", []Value{ints(2)}, "[1, 3]"},
		{"and", ints(1, 2, 3), "&", []Value{ints(2, 3, 4)}, "[2, 3]"},
		{"or", ints(1, 2), "|", []Value{ints(2, 3)}, "[1, 2, 3]"},
		{"times", ints(1, 2), "*", []Value{int64(2)}, "[1, 2, 1, 2]"},
		{"reverse", ints(1, 2, 3), "reverse", nil, "[3, 2, 1]"},
		{"rotate", ints(1, 2, 3), "rotate", nil, "[2, 3, 1]"},
		{"compact", NewArray(int64(1), nil, int64(2)), "compact", nil, "[1, 2]"},
		{"flatten depth", NewArray(int64(1), NewArray(NewArray(int64(2)))), "flatten", []Value{int64(1)}, "[1, [2]]"},
		{"include", ints(1, 2), "include?", []Value{int64(2)}, "true"},
		{"index of", ints(5, 6, 7), "index", []Value{int64(7)}, "2"},
		{"sum", ints(1, 2, 3), "sum", nil, "6"},
		{"min", ints(3, 1, 2), "min", nil, "1"},
		{"max", ints(3, 1, 2), "max", nil, "3"},
		{"transpose", NewArray(ints(1, 2), ints(3, 4)), "transpose", nil, "[[1, 3], [2, 4]]"},
		{"product", ints(1, 2), "product", []Value{ints(3)}, "[[1, 3], [2, 3]]"},
		{"compare", ints(1, 2), "<=>", []Value{ints(1, 3)}, "-1"},
		{"equal", ints(1, 2), "==", []Value{ints(1, 2)}, "true"},
		{"values_at", ints(10, 20, 30), "values_at", []Value{int64(0), int64(2)}, "[10, 30]"},
		{"dig", NewArray(ints(1, 2)), "dig", []Value{int64(0), int64(1)}, "2"},
		{"nested inspect", NewArray(NewString("a"), Symbol("b"), nil, true), "inspect", nil, `"[\"a\", :b, nil, true]"`},
	})
}

func TestArrayMutation(t *testing.T) {
	vm := New(DefaultOptions())
	a := ints(1, 2, 3)
	steps := []struct {
		meth string
		args []Value
	}{
		{"push", []Value{int64(4)}},
		{"unshift", []Value{int64(0)}},
		{"delete_at", []Value{int64(2)}},
		{"insert", []Value{int64(1), int64(9)}},
		{"pop", nil},
	}
	for _, s := range steps {
		if _, err := vm.Call(a, s.meth, s.args...); err != nil {
			t.Fatalf("%s: %v", s.meth, err)
		}
	}
	if got := vm.Inspect(a); got != "[0, 9, 1, 3]" {
		t.Errorf("array = %s, want [0, 9, 1, 3]", got)
	}

	a.Freeze()
	_, err := vm.Call(a, "push", int64(1))
	var rerr *RubyError
	if !errors.As(err, &rerr) || rerr.ClassName() != "FrozenError" {
		t.Fatalf("push on frozen array: %v", err)
	}
	if recv, _ := rerr.Exception.Ivar("receiver"); recv != a {
		t.Errorf("receiver = %v, want the array", recv)
	}
}

func TestHashBuiltins(t *testing.T) {
	vm := New(DefaultOptions())
	h := func() *Hash {
		h := NewHash()
		h.Set(Symbol("a"), int64(1))
		h.Set(Symbol("b"), int64(2))
		return h
	}
	other := NewHash()
	other.Set(Symbol("b"), int64(3))
	other.Set(Symbol("c"), int64(4))

	runBuiltinCases(t, vm, []builtinCase{
		{"keys", h(), "keys", nil, "[:a, :b]"},
		{"values", h(), "values", nil, "[1, 2]"},
		{"lookup", h(), "[]", []Value{Symbol("b")}, "2"},
		{"missing", h(), "[]", []Value{Symbol("z")}, "nil"},
		{"fetch default", h(), "fetch", []Value{Symbol("z"), int64(0)}, "0"},
		{"key?", h(), "key?", []Value{Symbol("a")}, "true"},
		{"key", h(), "key", []Value{int64(2)}, ":b"},
		{"merge", h(), "merge", []Value{other}, "{:a=>1, :b=>3, :c=>4}"},
		{"to_a", h(), "to_a", nil, "[[:a, 1], [:b, 2]]"},
		{"invert", h(), "invert", nil, "{1=>:a, 2=>:b}"},
		{"slice", h(), "slice", []Value{Symbol("b")}, "{:b=>2}"},
		{"except", h(), "except", []Value{Symbol("b")}, "{:a=>1}"},
		{"delete", h(), "delete", []Value{Symbol("a")}, "1"},
		{"size", h(), "size", nil, "2"},
		{"equal ignores order", h(), "==", []Value{func() *Hash {
			r := NewHash()
			r.Set(Symbol("b"), int64(2))
			r.Set(Symbol("a"), int64(1))
			return r
		}()}, "true"},
		{"string keys", func() *Hash {
			r := NewHash()
			r.Set(NewString("k"), NewString("v"))
			return r
		}(), "inspect", nil, `"{\"k\"=>\"v\"}"`},
	})
}

func TestHashStructuralKeys(t *testing.T) {
	h := NewHash()
	h.Set(NewString("k"), int64(1))
	h.Set(NewArray(int64(1), int64(2)), int64(2))
	h.Set(int64(1), int64(3))

	if v, ok := h.Get(NewString("k")); !ok || v != int64(1) {
		t.Errorf("string key lookup = %v, %v", v, ok)
	}
	if v, ok := h.Get(NewArray(int64(1), int64(2))); !ok || v != int64(2) {
		t.Errorf("array key lookup = %v, %v", v, ok)
	}
	// 1 and 1.0 are different keys
	if _, ok := h.Get(1.0); ok {
		t.Error("1.0 should not find the 1 key")
	}
	h.Set(NewString("k"), int64(9))
	if h.Len() != 3 {
		t.Errorf("len = %d, want 3 after overwriting", h.Len())
	}
	if first := h.Keys()[0]; first.(*String).Value != "k" {
		t.Errorf("overwrite moved the key: %v", first)
	}
}

func TestRangeBuiltins(t *testing.T) {
	vm := New(DefaultOptions())
	r := func(b, e Value, excl bool) *Range { return &Range{Begin: b, End: e, Exclusive: excl} }
	runBuiltinCases(t, vm, []builtinCase{
		{"to_a exclusive", r(int64(1), int64(4), true), "to_a", nil, "[1, 2, 3]"},
		{"size", r(int64(1), int64(10), false), "size", nil, "10"},
		{"endless size", r(int64(1), nil, false), "size", nil, "Infinity"},
		{"include", r(int64(1), int64(5), false), "include?", []Value{int64(5)}, "true"},
		{"exclusive end", r(int64(1), int64(5), true), "include?", []Value{int64(5)}, "false"},
		{"float cover", r(int64(1), int64(5), false), "cover?", []Value{2.5}, "true"},
		{"sub range cover", r(int64(1), int64(10), false), "cover?", []Value{r(int64(2), int64(3), false)}, "true"},
		{"exclusive max", r(int64(3), int64(7), true), "max", nil, "6"},
		{"empty max", r(int64(5), int64(1), false), "max", nil, "nil"},
		{"first n", r(int64(1), nil, false), "first", []Value{int64(3)}, "[1, 2, 3]"},
		{"last n", r(int64(1), int64(10), false), "last", []Value{int64(2)}, "[9, 10]"},
		{"string range", r(NewString("a"), NewString("e"), false), "to_a", nil, `["a", "b", "c", "d", "e"]`},
		{"sum exclusive", r(int64(1), int64(4), true), "sum", nil, "6"},
		{"to_s", r(int64(1), nil, false), "to_s", nil, `"1.."`},
		{"inspect", r(int64(1), int64(2), true), "inspect", nil, `"1...2"`},
	})
}

func TestExceptionBuiltins(t *testing.T) {
	vm := New(DefaultOptions())
	kw := NewHash()
	kw.Set(Symbol("receiver"), int64(42))
	kw.Set(Symbol("key"), Symbol("k"))

	keyErr, err := vm.Call(vm.classNamed("KeyError"), "new", NewString("no k"), kw)
	if err != nil {
		t.Fatalf("KeyError.new: %v", err)
	}
	plain, err := vm.Call(vm.classNamed("RuntimeError"), "new")
	if err != nil {
		t.Fatalf("RuntimeError.new: %v", err)
	}
	multi, err := vm.Call(vm.classNamed("ArgumentError"), "new", NewString("a\nb"))
	if err != nil {
		t.Fatalf("ArgumentError.new: %v", err)
	}

	runBuiltinCases(t, vm, []builtinCase{
		{"message", keyErr, "message", nil, `"no k"`},
		{"key", keyErr, "key", nil, ":k"},
		{"receiver", keyErr, "receiver", nil, "42"},
		{"inspect", keyErr, "inspect", nil, `"#<KeyError: no k>"`},
		{"default message", plain, "message", nil, `"RuntimeError"`},
		{"inspect without message", plain, "inspect", nil, `"#<RuntimeError: RuntimeError>"`},
		{"multi-line inspect", multi, "inspect", nil, `"#<ArgumentError: \"a\\nb\">"`},
		{"detailed", multi, "detailed_message", nil, `"a (ArgumentError)\nb"`},
		{"exception copy", keyErr, "exception", []Value{NewString("other")}, `#<KeyError: other>`},
		{"backtrace", plain, "backtrace", nil, "nil"},
	})

	if _, err := vm.Call(plain, "cause"); err != nil {
		t.Errorf("cause: %v", err)
	}
	_, err = vm.Call(vm.newException(vm.classNamed("KeyError"), nil), "key")
	var rerr *RubyError
	if !errors.As(err, &rerr) || rerr.ClassName() != "ArgumentError" || rerr.Message() != "no key is available" {
		t.Errorf("key without one: %v", err)
	}
}

func TestRaiseCause(t *testing.T) {
	vm := New(DefaultOptions())
	first := vm.newError("RuntimeError", "first")
	vm.errinfo = first
	_, err := vm.Call(nil, "raise", NewString("second"))
	var rerr *RubyError
	if !errors.As(err, &rerr) {
		t.Fatalf("error = %v, want *RubyError", err)
	}
	if cause, _ := rerr.Exception.Ivar("cause"); cause != first {
		t.Errorf("cause = %v, want the first exception", cause)
	}
}
