package bytecode

import (
	"math/big"
	"testing"
)

func TestCallDataInspect(t *testing.T) {
	tests := []struct {
		cd   *CallData
		want string
	}{
		{NewCallData("foo", 1, CallFCall|CallArgsSimple), "<calldata!mid:foo, argc:1, FCALL|ARGS_SIMPLE>"},
		{NewCallData("+", 1, CallArgsSimple), "<calldata!mid:+, argc:1, ARGS_SIMPLE>"},
		{NewCallData("bar", 2, CallKwarg, "a", "b"), "<calldata!mid:bar, argc:2, kw:[a, b], KWARG>"},
		{NewCallData("", 0, CallFCall|CallSuper|CallZSuper), "<calldata!argc:0, FCALL|SUPER|ZSUPER>"},
		{NewCallData("baz", 0, 0), "<calldata!mid:baz, argc:0>"},
	}
	for _, tt := range tests {
		if got := tt.cd.Inspect(); got != tt.want {
			t.Errorf("Inspect() = %q, want %q", got, tt.want)
		}
	}
}

func TestCallDataKey(t *testing.T) {
	a := NewCallData("foo", 1, CallFCall|CallArgsSimple)
	b := NewCallData("foo", 1, CallFCall|CallArgsSimple)
	c := NewCallData("foo", 2, CallFCall|CallArgsSimple)
	d := NewCallData("foo", 1, CallKwarg, "x")

	if a.Key() != b.Key() {
		t.Error("equal call sites produced different keys")
	}
	if a.Key() == c.Key() || a.Key() == d.Key() {
		t.Error("different call sites share a key")
	}
	if !a.Equal(b) || a.Equal(c) || a.Equal(nil) {
		t.Error("Equal disagrees with field comparison")
	}
}

func TestCallDataFlag(t *testing.T) {
	cd := NewCallData("f", 0, CallFCall|CallVCall)
	if !cd.Flag(CallFCall) || !cd.Flag(CallFCall|CallVCall) {
		t.Error("set flags not reported")
	}
	if cd.Flag(CallArgsSimple) || cd.Flag(CallFCall|CallArgsSimple) {
		t.Error("unset flag reported")
	}
}

func TestLocalTableOffsets(t *testing.T) {
	var lt LocalTable
	a := lt.Plain("a")
	b := lt.Block("b")
	if again := lt.Plain("a"); again != a {
		t.Errorf("redeclared a at %d, want %d", again, a)
	}
	if lt.Size() != 2 || lt.Get(b).Kind != BlockLocal {
		t.Fatalf("table = %v", lt.Names())
	}
	// Two locals: a sits furthest from the environment pointer.
	if got := lt.Offset(a); got != 4 {
		t.Errorf("Offset(a) = %d, want 4", got)
	}
	if got := lt.Offset(b); got != 3 {
		t.Errorf("Offset(b) = %d, want 3", got)
	}
	for i := 0; i < lt.Size(); i++ {
		if got := lt.IndexForOffset(lt.Offset(i)); got != i {
			t.Errorf("IndexForOffset(Offset(%d)) = %d", i, got)
		}
	}
	if lt.Find("missing") != -1 {
		t.Error("Find should return -1 for an undeclared name")
	}
}

func TestInspectValues(t *testing.T) {
	tests := []struct {
		v    any
		want string
	}{
		{nil, "nil"},
		{int64(-3), "-3"},
		{new(big.Int).Lsh(big.NewInt(1), 70), "1180591620717411303424"},
		{1.5, "1.5"},
		{2.0, "2.0"},
		{1e20, "1.0e+20"},
		{"a\"b\n", `"a\"b\n"`},
		{Symbol("foo"), ":foo"},
		{Symbol("foo?"), ":foo?"},
		{Symbol("[]="), ":[]="},
		{Symbol("@iv"), ":@iv"},
		{Symbol("a b"), `:"a b"`},
		{[]any{int64(1), Symbol("x")}, "[1, :x]"},
		{Pairs{{Key: Symbol("a"), Value: int64(1)}}, "{:a=>1}"},
		{Range{Begin: int64(1), End: int64(3), ExcludeEnd: true}, "1...3"},
		{Range{Begin: int64(1)}, "1.."},
		{Regexp{Source: "ab", Options: RegexpIgnoreCase | RegexpMultiline}, "/ab/mi"},
		{NewRational(2, 4), "(1/2)"},
		{ClassRef("Object"), "Object"},
	}
	for _, tt := range tests {
		if got := Inspect(tt.v); got != tt.want {
			t.Errorf("Inspect(%#v) = %q, want %q", tt.v, got, tt.want)
		}
	}
}
