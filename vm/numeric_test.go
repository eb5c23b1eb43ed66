package vm

import (
	"errors"
	"math"
	"testing"
)

func TestFloorDivMod(t *testing.T) {
	tests := []struct {
		x, y     int64
		div, mod int64
	}{
		{7, 2, 3, 1},
		{-7, 2, -4, 1},
		{7, -2, -4, -1},
		{-7, -2, 3, -1},
		{6, 3, 2, 0},
		{-6, 3, -2, 0},
	}
	for _, tt := range tests {
		if got := floorDiv(tt.x, tt.y); got != tt.div {
			t.Errorf("floorDiv(%d, %d) = %d, want %d", tt.x, tt.y, got, tt.div)
		}
		if got := floorMod(tt.x, tt.y); got != tt.mod {
			t.Errorf("floorMod(%d, %d) = %d, want %d", tt.x, tt.y, got, tt.mod)
		}
	}
}

func TestArith(t *testing.T) {
	vm := New(DefaultOptions())
	tests := []struct {
		op   string
		a, b Value
		want string
	}{
		{"+", int64(1), int64(2), "3"},
		{"-", int64(1), int64(2), "-1"},
		{"*", int64(math.MaxInt64), int64(2), "18446744073709551614"},
		{"/", int64(1), 2.0, "0.5"},
		{"/", int64(7), int64(-2), "-4"},
		{"%", int64(-7), int64(3), "2"},
		{"**", int64(2), int64(10), "1024"},
		{"**", int64(2), int64(-1), "(1/2)"},
		{"+", 1.5, int64(1), "2.5"},
		{"/", int64(math.MinInt64), int64(-1), "9223372036854775808"},
	}
	for _, tt := range tests {
		t.Run(vm.Inspect(tt.a)+tt.op+vm.Inspect(tt.b), func(t *testing.T) {
			if got := vm.Inspect(vm.arith(tt.op, tt.a, tt.b)); got != tt.want {
				t.Errorf("got %s, want %s", got, tt.want)
			}
		})
	}
}

func TestZeroDivision(t *testing.T) {
	vm := New(DefaultOptions())
	for _, op := range []string{"/", "%", "divmod"} {
		_, err := vm.Call(int64(1), op, int64(0))
		var rerr *RubyError
		if !errors.As(err, &rerr) || rerr.ClassName() != "ZeroDivisionError" {
			t.Errorf("1 %s 0: error = %v, want ZeroDivisionError", op, err)
		}
	}

	// floats divide to Infinity instead
	v, err := vm.Call(1.0, "/", int64(0))
	if err != nil || v != math.Inf(1) {
		t.Errorf("1.0 / 0 = %v, %v", v, err)
	}
}

func TestIntegerBuiltins(t *testing.T) {
	vm := New(DefaultOptions())
	tests := []struct {
		recv Value
		name string
		args []Value
		want string
	}{
		{int64(255), "to_s", []Value{int64(16)}, `"ff"`},
		{int64(15), "round", []Value{int64(-1)}, "20"},
		{int64(-15), "round", []Value{int64(-1)}, "-20"},
		{int64(1234), "floor", []Value{int64(-2)}, "1200"},
		{int64(12), "gcd", []Value{int64(18)}, "6"},
		{int64(4), "lcm", []Value{int64(6)}, "12"},
		{int64(123), "digits", nil, "[3, 2, 1]"},
		{int64(5), "even?", nil, "false"},
		{int64(65), "chr", nil, `"A"`},
		{int64(3), "succ", nil, "4"},
		{int64(3), "<=>", []Value{int64(5)}, "-1"},
		{int64(3), "==", []Value{3.0}, "true"},
		{2.5, "round", nil, "3"},
		{2.567, "round", []Value{int64(2)}, "2.57"},
		{-2.5, "floor", nil, "-3"},
		{math.NaN(), "nan?", nil, "true"},
	}
	for _, tt := range tests {
		t.Run(vm.Inspect(tt.recv)+"."+tt.name, func(t *testing.T) {
			v, err := vm.Call(tt.recv, tt.name, tt.args...)
			if err != nil {
				t.Fatalf("call error: %v", err)
			}
			if got := vm.Inspect(v); got != tt.want {
				t.Errorf("got %s, want %s", got, tt.want)
			}
		})
	}
}
