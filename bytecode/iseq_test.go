package bytecode

import (
	"errors"
	"reflect"
	"strings"
	"testing"
)

func insnNames(iseq *InstructionSequence) []string {
	var out []string
	for _, insn := range iseq.Instructions() {
		out = append(out, insn.Name())
	}
	return out
}

// expectFault runs fn and returns the *InternalError it panics with.
func expectFault(t *testing.T, fn func()) (ie *InternalError) {
	t.Helper()
	defer func() {
		r := recover()
		var ok bool
		if ie, ok = r.(*InternalError); !ok {
			t.Fatalf("recovered %v, want *InternalError", r)
		}
	}()
	fn()
	return nil
}

func TestCloseNamesLabelsByOffset(t *testing.T) {
	iseq := NewTopLevel(DefaultOptions())
	otherwise := iseq.Label()
	iseq.PutObject(true)
	iseq.BranchUnless(otherwise)
	iseq.PutObject(int64(1))
	iseq.Leave()
	iseq.PushLabel(otherwise)
	iseq.PutNil()
	iseq.Leave()
	iseq.Close()

	if got := otherwise.Name(); got != "label_6" {
		t.Errorf("label name = %q, want label_6", got)
	}
	if got := iseq.Offsets()[otherwise]; got != 6 {
		t.Errorf("offset = %d, want 6", got)
	}
	if !iseq.Closed() {
		t.Error("sequence not closed")
	}
}

func TestCloseTwiceFaults(t *testing.T) {
	iseq := NewTopLevel(DefaultOptions())
	iseq.PutNil()
	iseq.Leave()
	iseq.Close()

	ie := expectFault(t, iseq.Close)
	if !strings.Contains(ie.Message, "closed twice") {
		t.Errorf("message = %q", ie.Message)
	}
}

func TestPushAfterCloseFaults(t *testing.T) {
	iseq := NewTopLevel(DefaultOptions())
	iseq.PutNil()
	iseq.Leave()
	iseq.Close()
	expectFault(t, iseq.PutNil)
}

func TestUnresolvedLabelFaults(t *testing.T) {
	iseq := NewTopLevel(DefaultOptions())
	iseq.PutObject(true)
	iseq.BranchIf(iseq.Label())
	iseq.PutNil()
	iseq.Leave()
	expectFault(t, iseq.Close)
}

func TestStackTracking(t *testing.T) {
	iseq := NewTopLevel(DefaultOptions())
	done := iseq.Label()
	iseq.PutObject(int64(5))
	iseq.Dup()
	iseq.BranchNil(done)
	if got := iseq.StackSize(); got != 1 {
		t.Fatalf("depth after branchnil = %d, want 1", got)
	}
	iseq.Pop()
	iseq.PutObject(int64(7))
	iseq.PushLabel(done)
	iseq.Leave()

	if got := iseq.StackMax(); got != 2 {
		t.Errorf("stack max = %d, want 2", got)
	}
	if got := iseq.StackSize(); got != 0 {
		t.Errorf("depth after leave = %d, want 0", got)
	}
}

func TestStackDepthRestoredAtLabelAfterJump(t *testing.T) {
	iseq := NewTopLevel(DefaultOptions())
	otherwise := iseq.Label()
	end := iseq.Label()
	iseq.PutObject(true)
	iseq.BranchUnless(otherwise)
	iseq.PutObject(int64(2))
	iseq.Jump(end)
	if got := iseq.StackSize(); got != 1 {
		t.Fatalf("depth after jump = %d, want 1", got)
	}
	iseq.PushLabel(otherwise)
	if got := iseq.StackSize(); got != 0 {
		t.Fatalf("depth at branch target = %d, want 0", got)
	}
	iseq.PutObject(int64(3))
	iseq.PushLabel(end)
	iseq.Leave()
	iseq.Close()

	depths, max := StackDepths(iseq)
	if max != iseq.StackMax() {
		t.Errorf("replayed max = %d, tracked %d", max, iseq.StackMax())
	}
	if want := []int{1, 0, 1, 1, 1, 0}; !reflect.DeepEqual(depths, want) {
		t.Errorf("depths = %v, want %v", depths, want)
	}
}

func TestStackUnderflowFaults(t *testing.T) {
	iseq := NewTopLevel(DefaultOptions())
	ie := expectFault(t, iseq.Pop)
	if ie.Value != "pop" {
		t.Errorf("fault value = %v, want pop", ie.Value)
	}
}

func TestStackDepthsSeedsCatchExits(t *testing.T) {
	opts := DefaultOptions()
	iseq := NewTopLevel(opts)
	begin, end, cont := iseq.Label(), iseq.Label(), iseq.Label()
	iseq.PushLabel(begin)
	iseq.PutNil()
	iseq.PushLabel(end)
	iseq.Leave()
	iseq.PutNil()
	iseq.PushLabel(cont)
	iseq.Leave()
	iseq.CatchBreak(nil, begin, end, cont, 0)
	iseq.Close()

	if got := insnNames(iseq); !reflect.DeepEqual(got, []string{"putnil", "leave", "leave"}) {
		t.Fatalf("instructions = %v", got)
	}
	depths, _ := StackDepths(iseq)
	if want := []int{1, 0, 0}; !reflect.DeepEqual(depths, want) {
		t.Errorf("depths = %v, want %v", depths, want)
	}
}

func TestPeepholeDropsDeadCodeAndJumpsToNext(t *testing.T) {
	iseq := NewTopLevel(DefaultOptions())
	next := iseq.Label()
	iseq.PutObject(int64(2))
	iseq.Jump(next)
	iseq.PushLabel(next)
	iseq.Leave()
	iseq.PutNil()
	iseq.Pop()
	iseq.Close()

	if got, want := insnNames(iseq), []string{"putobject", "leave"}; !reflect.DeepEqual(got, want) {
		t.Errorf("instructions = %v, want %v", got, want)
	}

	opts := DefaultOptions()
	opts.PeepholeOptimization = false
	kept := NewTopLevel(opts)
	next = kept.Label()
	kept.PutObject(int64(2))
	kept.Jump(next)
	kept.PushLabel(next)
	kept.Leave()
	kept.Close()
	if got, want := insnNames(kept), []string{"putobject", "jump", "leave"}; !reflect.DeepEqual(got, want) {
		t.Errorf("without peephole: instructions = %v, want %v", got, want)
	}
}

func TestSpecialize(t *testing.T) {
	tests := []struct {
		name  string
		build func(*InstructionSequence)
		want  []string
	}{
		{
			name: "binary operator",
			build: func(s *InstructionSequence) {
				s.PutObject(int64(2))
				s.PutObject(int64(3))
				s.Send(NewCallData("+", 1, CallArgsSimple), nil)
			},
			want: []string{"putobject", "putobject", "opt_plus", "leave"},
		},
		{
			name: "not equal",
			build: func(s *InstructionSequence) {
				s.PutObject(int64(2))
				s.PutObject(int64(3))
				s.Send(NewCallData("!=", 1, CallArgsSimple), nil)
			},
			want: []string{"putobject", "putobject", "opt_neq", "leave"},
		},
		{
			name: "newarray max",
			build: func(s *InstructionSequence) {
				s.PutObject(int64(2))
				s.PutObject(int64(3))
				s.NewArray(2)
				s.Send(NewCallData("max", 0, CallArgsSimple), nil)
			},
			want: []string{"putobject", "putobject", "opt_newarray_max", "leave"},
		},
		{
			name: "string freeze",
			build: func(s *InstructionSequence) {
				s.PutString("abc")
				s.Send(NewCallData("freeze", 0, CallArgsSimple), nil)
			},
			want: []string{"opt_str_freeze", "leave"},
		},
		{
			name: "generic send",
			build: func(s *InstructionSequence) {
				s.PutSelf()
				s.Send(NewCallData("puts", 0, CallFCall|CallArgsSimple), nil)
			},
			want: []string{"putself", "opt_send_without_block", "leave"},
		},
		{
			name: "splat send stays generic",
			build: func(s *InstructionSequence) {
				s.PutSelf()
				s.NewArray(0)
				s.SplatArray(false)
				s.Send(NewCallData("+", 1, CallArgsSplat), nil)
			},
			want: []string{"putself", "newarray", "splatarray", "opt_send_without_block", "leave"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			iseq := NewTopLevel(Options{OperandsUnification: false, SpecializedInstruction: true})
			tt.build(iseq)
			iseq.Leave()
			iseq.Close()
			if got := insnNames(iseq); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("instructions = %v, want %v", got, tt.want)
			}
			if n := iseq.Specialize(); n != 0 {
				t.Errorf("second pass rewrote %d instructions", n)
			}
		})
	}
}

func TestFindLocalWalksBlockScopes(t *testing.T) {
	top := NewTopLevel(DefaultOptions())
	top.Locals.Plain("a")
	method := top.MethodChild("m", 1)
	method.Locals.Plain("b")
	block := method.BlockChild(2)
	rescue := block.RescueChild(3)

	lookup, ok := rescue.FindLocal("b")
	if !ok || lookup.Level != 2 || lookup.Index != 0 {
		t.Errorf("FindLocal(b) = %+v, %v; want level 2 index 0", lookup, ok)
	}
	if _, ok := block.FindLocal("a"); ok {
		t.Error("method scope should stop the lookup before the top level")
	}
	if got := rescue.Ancestor(2); got != method {
		t.Errorf("Ancestor(2) = %s, want the method", got.Name)
	}
	expectFault(t, func() { top.Ancestor(1) })
}

func TestInlineStorage(t *testing.T) {
	iseq := NewTopLevel(DefaultOptions())
	a := iseq.InlineStorageFor("@a")
	fresh := iseq.InlineStorage()
	if again := iseq.InlineStorageFor("@a"); again != a {
		t.Errorf("shared slot = %d, want %d", again, a)
	}
	if fresh == a {
		t.Errorf("fresh slot %d reuses a shared one", fresh)
	}
}

func TestRecoverInternal(t *testing.T) {
	run := func() (err error) {
		defer RecoverInternal(&err)
		Fault("x", "bad %s", "thing")
		return nil
	}
	err := run()
	var ie *InternalError
	if !errors.As(err, &ie) {
		t.Fatalf("err = %v, want *InternalError", err)
	}
	if got := err.Error(); got != "internal error: bad thing (x)" {
		t.Errorf("Error() = %q", got)
	}
}
