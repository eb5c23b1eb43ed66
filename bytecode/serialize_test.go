package bytecode

import (
	"fmt"
	"reflect"
	"strings"
	"testing"
)

// sampleSequence builds the equivalent of
//
//	x = 5
//	def double(n) = n * 2
//	if x then "yes" else [1, :two].max end
func sampleSequence() *InstructionSequence {
	top := NewTopLevel(DefaultOptions())
	x := top.Locals.Plain("x")

	method := top.MethodChild("double", 3)
	n := method.Locals.Plain("n")
	method.Args.LeadNum = 1
	method.ArgumentSize = 1
	method.GetLocal(n, 0)
	method.PutObject(int64(2))
	method.Send(NewCallData("*", 1, CallArgsSimple), nil)
	method.Leave()

	otherwise := top.Label()
	top.PushLine(1)
	top.PutObject(int64(5))
	top.SetLocal(x, 0)
	top.DefineMethod("double", method)
	top.PushLine(2)
	top.GetLocal(x, 0)
	top.BranchUnless(otherwise)
	top.PutString("yes")
	top.Leave()
	top.PushLabel(otherwise)
	top.DupArray([]any{int64(1), Symbol("two")})
	top.Send(NewCallData("max", 0, CallArgsSimple), nil)
	top.Leave()
	top.Close()
	return top
}

func TestToAShape(t *testing.T) {
	dumped := sampleSequence().ToA()
	if len(dumped) != 14 {
		t.Fatalf("len = %d, want 14", len(dumped))
	}
	if dumped[0] != Magic || dumped[1] != int64(3) || dumped[2] != int64(2) {
		t.Errorf("header = %v", dumped[:4])
	}
	if dumped[9] != Symbol("top") {
		t.Errorf("type = %v", dumped[9])
	}
	if !reflect.DeepEqual(dumped[10], []any{Symbol("x")}) {
		t.Errorf("locals = %v", dumped[10])
	}
	misc := dumped[4].(Pairs)
	if v, _ := misc.Get(Symbol("stack_max")); v != int64(1) {
		t.Errorf("stack_max = %v", v)
	}

	insns := dumped[13].([]any)
	want := []any{int64(1), []any{Symbol("putobject"), int64(5)}}
	if !reflect.DeepEqual(insns[:2], want) {
		t.Errorf("first elements = %v, want %v", insns[:2], want)
	}
	if got := insns[2]; !reflect.DeepEqual(got, []any{Symbol("setlocal_WC_0"), int64(3)}) {
		t.Errorf("setlocal = %v", got)
	}
}

func TestLoadRoundTrip(t *testing.T) {
	dumped := sampleSequence().ToA()
	loaded, err := Load(dumped)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !loaded.Closed() {
		t.Error("loaded sequence should be closed")
	}
	if again := loaded.ToA(); !reflect.DeepEqual(again, dumped) {
		t.Errorf("round trip mismatch:\n got %v\nwant %v", again, dumped)
	}
	children := loaded.Children()
	if len(children) != 1 || children[0].Parent != loaded {
		t.Errorf("children = %v", children)
	}
}

func TestLoadRejectsMalformed(t *testing.T) {
	valid := sampleSequence().ToA()

	tests := []struct {
		name   string
		mutate func([]any) []any
	}{
		{"short", func(d []any) []any { return d[:5] }},
		{"bad magic", func(d []any) []any { d[0] = "nope"; return d }},
		{"unknown opcode", func(d []any) []any {
			d[13] = []any{[]any{Symbol("frobnicate")}}
			return d
		}},
		{"missing label", func(d []any) []any {
			d[13] = []any{[]any{Symbol("jump"), Symbol("label_99")}}
			return d
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dumped := append([]any(nil), valid...)
			if _, err := Load(tt.mutate(dumped)); err == nil {
				t.Error("expected an error")
			}
		})
	}
}

func TestWireRoundTrip(t *testing.T) {
	iseq := sampleSequence()
	data, err := Marshal(iseq)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	back, err := Unmarshal(data)
	if err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if !reflect.DeepEqual(back.ToA(), iseq.ToA()) {
		t.Error("wire round trip changed the sequence")
	}
}

func TestWireOperandValues(t *testing.T) {
	values := []any{
		nil, true, int64(-7), int64(1 << 40), 2.5, "str",
		Symbol("sym"), ClassRef("StandardError"),
		Pairs{{Key: Symbol("a"), Value: []any{int64(1)}}},
		Range{Begin: int64(1), End: nil, ExcludeEnd: false},
		Regexp{Source: "a+", Options: RegexpExtended},
		Rational{Num: 1, Den: 3},
		Complex{Real: int64(0), Imag: int64(2)},
	}
	data, err := MarshalArray(values)
	if err != nil {
		t.Fatalf("MarshalArray: %v", err)
	}
	back, err := UnmarshalArray(data)
	if err != nil {
		t.Fatalf("UnmarshalArray: %v", err)
	}
	for i := range values {
		if !ValuesEqual(back[i], values[i]) {
			t.Errorf("value %d: got %#v, want %#v", i, back[i], values[i])
		}
	}
}

func TestMarshalOpenSequence(t *testing.T) {
	iseq := NewTopLevel(DefaultOptions())
	iseq.PutNil()
	if _, err := Marshal(iseq); err == nil {
		t.Error("marshaling an open sequence should fail")
	}
}

func TestDisasm(t *testing.T) {
	out := sampleSequence().Disasm()

	line := func(name, operands string) string { return fmt.Sprintf("%-38s %s", name, operands) }
	for _, want := range []string{
		"== disasm: #<ISeq:<compiled>@<compiled>:1 (1,0)-(1,0)>",
		"local table (size: 1, argc: 0)",
		"0000 " + line("putobject", "5"),
		line("setlocal_WC_0", "x@0"),
		line("putstring", `"yes"`),
		line("duparray", "[1, :two]"),
		line("opt_send_without_block", "<calldata!mid:max, argc:0, ARGS_SIMPLE>"),
		"== disasm: #<ISeq:double@<compiled>:3 (3,0)-(3,0)>",
		line("opt_mult", "<calldata!mid:*, argc:1, ARGS_SIMPLE>"),
	} {
		if !strings.Contains(out, want) {
			t.Errorf("disasm missing %q:\n%s", want, out)
		}
	}
}
