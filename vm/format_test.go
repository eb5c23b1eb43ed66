package vm

import (
	"errors"
	"testing"
)

func TestSprintf(t *testing.T) {
	vm := New(DefaultOptions())
	named := NewHash()
	named.Set(Symbol("a"), int64(7))

	tests := []struct {
		format string
		args   []Value
		want   string
	}{
		{"plain", nil, "plain"},
		{"100%%", nil, "100%"},
		{"%d", []Value{int64(42)}, "42"},
		{"%+d", []Value{int64(5)}, "+5"},
		{"% d", []Value{int64(5)}, " 5"},
		{"%-5d|", []Value{int64(42)}, "42   |"},
		{"%5d|", []Value{int64(42)}, "   42|"},
		{"%05.1f", []Value{3.14159}, "003.1"},
		{"%08.3f", []Value{-3.14159}, "-003.142"},
		{"%.2f", []Value{int64(2)}, "2.00"},
		{"%e", []Value{12345.678}, "1.234568e+04"},
		{"%x", []Value{int64(255)}, "ff"},
		{"%X", []Value{int64(255)}, "FF"},
		{"%#x", []Value{int64(255)}, "0xff"},
		{"%o", []Value{int64(8)}, "10"},
		{"%b", []Value{int64(5)}, "101"},
		{"%.3d", []Value{int64(7)}, "007"},
		{"%d", []Value{3.99}, "3"},
		{"%s and %s", []Value{NewString("a"), Symbol("b")}, "a and b"},
		{"%.2s", []Value{NewString("hello")}, "he"},
		{"%p", []Value{NewString("q")}, `"q"`},
		{"%c", []Value{int64(65)}, "A"},
		{"%c", []Value{NewString("xyz")}, "x"},
		{"%*d", []Value{int64(4), int64(1)}, "   1"},
		{"%2$s %1$s", []Value{NewString("a"), NewString("b")}, "b a"},
		{"%<a>03d", []Value{named}, "007"},
		{"%{a}!", []Value{named}, "7!"},
	}
	for _, tt := range tests {
		t.Run(tt.format, func(t *testing.T) {
			if got := vm.sprintf(tt.format, tt.args); got != tt.want {
				t.Errorf("sprintf(%q) = %q, want %q", tt.format, got, tt.want)
			}
		})
	}
}

func TestSprintfErrors(t *testing.T) {
	vm := New(DefaultOptions())
	tests := []struct {
		format string
		args   *Array
		class  string
	}{
		{"%d %d", NewArray(int64(1)), "ArgumentError"},
		{"%", NewArray(), "ArgumentError"},
		{"%{missing}", NewArray(NewHash()), "KeyError"},
	}
	for _, tt := range tests {
		t.Run(tt.format, func(t *testing.T) {
			_, err := vm.Call(NewString(tt.format), "%", tt.args)
			var rerr *RubyError
			if !errors.As(err, &rerr) {
				t.Fatalf("error = %v, want *RubyError", err)
			}
			if rerr.ClassName() != tt.class {
				t.Errorf("class = %s, want %s", rerr.ClassName(), tt.class)
			}
		})
	}
}

func TestFormatFloat(t *testing.T) {
	tests := []struct {
		in   float64
		want string
	}{
		{1, "1.0"},
		{-2.5, "-2.5"},
		{0.1, "0.1"},
		{1e20, "1.0e+20"},
		{1.5e-5, "1.5e-05"},
		{0, "0.0"},
		{123456789.125, "123456789.125"},
	}
	for _, tt := range tests {
		if got := formatFloat(tt.in); got != tt.want {
			t.Errorf("formatFloat(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
