package vm

import (
	"errors"
	"reflect"
	"regexp"
	"strings"
	"testing"

	"github.com/ruby-syntax-tree/syntax-tree-sub003/bytecode"
)

func TestStrSucc(t *testing.T) {
	tests := []struct{ in, want string }{
		{"", ""},
		{"a", "b"},
		{"az", "ba"},
		{"zz", "aaa"},
		{"Zz", "AAa"},
		{"a9", "b0"},
		{"99", "100"},
		{"1.9", "2.0"},
		{"<<koala>>", "<<koalb>>"},
		{"***", "**+"},
	}
	for _, tt := range tests {
		if got := strSucc(tt.in); got != tt.want {
			t.Errorf("strSucc(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestStrTr(t *testing.T) {
	tests := []struct{ s, from, to, want string }{
		{"hello", "el", "ip", "hippo"},
		{"hello", "a-y", "b-z", "ifmmp"},
		{"hello", "^l", "*", "**ll*"},
		{"hello", "l", "", "heo"},
		{"hello", "elo", "x", "hxxxx"},
	}
	for _, tt := range tests {
		if got := strTr(tt.s, tt.from, tt.to); got != tt.want {
			t.Errorf("strTr(%q, %q, %q) = %q, want %q", tt.s, tt.from, tt.to, got, tt.want)
		}
	}
}

func TestSplitFields(t *testing.T) {
	tests := []struct {
		s     string
		limit int
		want  []string
	}{
		{"  a b  c ", 0, []string{"a", "b", "c"}},
		{"  a b  c ", 2, []string{"a", "b  c "}},
		{"a b", 5, []string{"a", "b"}},
	}
	for _, tt := range tests {
		if got := splitFields(tt.s, tt.limit); !reflect.DeepEqual(got, tt.want) {
			t.Errorf("splitFields(%q, %d) = %q, want %q", tt.s, tt.limit, got, tt.want)
		}
	}
}

func TestSplitRegexp(t *testing.T) {
	tests := []struct {
		s, pattern string
		limit      int
		want       []string
	}{
		{"a,b,,c", ",", 0, []string{"a", "b", "", "c"}},
		{"abc", "", 0, []string{"a", "b", "c"}},
		{"a-b", "(-)", 0, []string{"a", "-", "b"}},
		{"a,b,c", ",", 2, []string{"a", "b,c"}},
	}
	for _, tt := range tests {
		re := regexp.MustCompile(tt.pattern)
		if got := splitRegexp(tt.s, re, tt.limit); !reflect.DeepEqual(got, tt.want) {
			t.Errorf("splitRegexp(%q, /%s/, %d) = %q, want %q", tt.s, tt.pattern, tt.limit, got, tt.want)
		}
	}
}

func TestQuoteString(t *testing.T) {
	tests := []struct{ in, want string }{
		{"plain", `"plain"`},
		{"a\"b", `"a\"b"`},
		{"tab\there", `"tab\there"`},
		{"line\n", `"line\n"`},
		{"#{x}", `"\#{x}"`},
		{"#x", `"#x"`},
		{"é", `"é"`},
	}
	for _, tt := range tests {
		if got := quoteString(tt.in); got != tt.want {
			t.Errorf("quoteString(%q) = %s, want %s", tt.in, got, tt.want)
		}
	}
}

func TestInspectSymbol(t *testing.T) {
	tests := []struct{ in, want string }{
		{"foo", ":foo"},
		{"foo?", ":foo?"},
		{"@ivar", ":@ivar"},
		{"+", ":+"},
		{"[]=", ":[]="},
		{"foo bar", `:"foo bar"`},
		{"9lives", `:"9lives"`},
		{"", `:""`},
	}
	for _, tt := range tests {
		if got := inspectSymbol(tt.in); got != tt.want {
			t.Errorf("inspectSymbol(%q) = %s, want %s", tt.in, got, tt.want)
		}
	}
}

func TestStringBuiltins(t *testing.T) {
	vm := New(DefaultOptions())
	tests := []struct {
		recv string
		name string
		args []Value
		want string
	}{
		{"hello", "upcase", nil, `"HELLO"`},
		{"hello world", "capitalize", nil, `"Hello world"`},
		{"hello", "reverse", nil, `"olleh"`},
		{"hello", "length", nil, "5"},
		{"héllo", "bytesize", nil, "6"},
		{"  x  ", "strip", nil, `"x"`},
		{"hello", "[]", []Value{int64(1), int64(3)}, `"ell"`},
		{"hello", "[]", []Value{int64(-1)}, `"o"`},
		{"hello", "[]", []Value{int64(9)}, "nil"},
		{"hello", "include?", []Value{NewString("ell")}, "true"},
		{"a-b-c", "tr", []Value{NewString("-"), NewString("_")}, `"a_b_c"`},
		{"ab", "*", []Value{int64(3)}, `"ababab"`},
		{"42abc", "to_i", nil, "42"},
		{"ff", "to_i", []Value{int64(16)}, "255"},
		{"1.5x", "to_f", nil, "1.5"},
		{"x", "center", []Value{int64(5), NewString("*")}, `"**x**"`},
		{"hello", "start_with?", []Value{NewString("he")}, "true"},
		{"a b", "split", nil, `["a", "b"]`},
	}
	for _, tt := range tests {
		t.Run(tt.recv+"."+tt.name, func(t *testing.T) {
			v, err := vm.Call(NewString(tt.recv), tt.name, tt.args...)
			if err != nil {
				t.Fatalf("call error: %v", err)
			}
			if got := vm.Inspect(v); got != tt.want {
				t.Errorf("got %s, want %s", got, tt.want)
			}
		})
	}
}

func TestInvalidRegexpOperand(t *testing.T) {
	iseq := bytecode.NewTopLevel(bytecode.DefaultOptions())
	iseq.PutObject(bytecode.Regexp{Source: "(%d"})
	iseq.Leave()
	iseq.Close()

	_, err := New(DefaultOptions()).Run(iseq)
	var rerr *RubyError
	if !errors.As(err, &rerr) || rerr.ClassName() != "RegexpError" {
		t.Fatalf("error = %v, want RegexpError", err)
	}
	if !strings.Contains(rerr.Message(), "(%d") {
		t.Errorf("message = %q, want the source quoted verbatim", rerr.Message())
	}
}
