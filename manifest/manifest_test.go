package manifest

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/ruby-syntax-tree/syntax-tree-sub003/vm"
)

func writeManifest(t *testing.T, dir, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, FileName), []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
}

func TestLoadManifest(t *testing.T) {
	dir := t.TempDir()
	writeManifest(t, dir, `
[compiler]
frozen_string_literal = true
specialized_instruction = false
tailcall_optimization = true

[vm]
max_frames = 500

[log]
verbosity = 2
file = "yarv.log"
`)

	m, err := Load(dir)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	opts := m.CompilerOptions()
	if !opts.FrozenStringLiteral {
		t.Error("frozen_string_literal = false, want true")
	}
	if opts.SpecializedInstruction {
		t.Error("specialized_instruction = true, want false")
	}
	if !opts.TailcallOptimization {
		t.Error("tailcall_optimization = false, want true")
	}
	// keys the file leaves out keep their defaults
	if !opts.InlineConstCache || !opts.OperandsUnification || !opts.PeepholeOptimization {
		t.Errorf("defaults lost: %+v", opts)
	}
	if m.VM.MaxFrames != 500 {
		t.Errorf("max_frames = %d, want 500", m.VM.MaxFrames)
	}
	if m.Log.Verbosity != 2 {
		t.Errorf("verbosity = %d, want 2", m.Log.Verbosity)
	}
	if want := filepath.Join(m.Dir, "yarv.log"); m.Log.File != want {
		t.Errorf("log file = %q, want %q", m.Log.File, want)
	}
}

func TestLoadManifestDefaults(t *testing.T) {
	dir := t.TempDir()
	writeManifest(t, dir, "")

	m, err := Load(dir)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if m.CompilerOptions() != Default().CompilerOptions() {
		t.Errorf("compiler options = %+v, want defaults", m.CompilerOptions())
	}
	if m.VM.MaxFrames != vm.DefaultMaxFrames {
		t.Errorf("max_frames = %d, want %d", m.VM.MaxFrames, vm.DefaultMaxFrames)
	}
	if m.Log.File != "" {
		t.Errorf("log file = %q, want empty", m.Log.File)
	}
}

func TestLoadManifestErrors(t *testing.T) {
	if _, err := Load(t.TempDir()); err == nil {
		t.Error("expected an error for a missing yarv.toml")
	}

	dir := t.TempDir()
	writeManifest(t, dir, "[compiler\nfrozen_string_literal = yes\n")
	if _, err := Load(dir); err == nil {
		t.Error("expected a parse error")
	}
}

func TestFindAndLoad(t *testing.T) {
	dir := t.TempDir()
	subDir := filepath.Join(dir, "a", "b", "c")
	if err := os.MkdirAll(subDir, 0755); err != nil {
		t.Fatal(err)
	}
	writeManifest(t, dir, "[vm]\nmax_frames = 42\n")

	// Should find manifest when starting from a deep subdirectory
	m, err := FindAndLoad(subDir)
	if err != nil {
		t.Fatalf("FindAndLoad failed: %v", err)
	}
	if m == nil {
		t.Fatal("FindAndLoad returned nil")
	}
	if m.VM.MaxFrames != 42 {
		t.Errorf("max_frames = %d, want 42", m.VM.MaxFrames)
	}
	abs, _ := filepath.Abs(dir)
	if m.Dir != abs {
		t.Errorf("dir = %q, want %q", m.Dir, abs)
	}
}

func TestFindAndLoadNotFound(t *testing.T) {
	dir := t.TempDir()
	m, err := FindAndLoad(dir)
	if err != nil {
		t.Fatalf("FindAndLoad error: %v", err)
	}
	if m != nil {
		t.Error("expected nil manifest when no yarv.toml exists")
	}
}

func TestVMOptions(t *testing.T) {
	var out bytes.Buffer
	m := Default()
	m.VM.MaxFrames = 64

	opts := m.VMOptions(&out)
	if opts.Stdout != &out {
		t.Error("stdout not passed through")
	}
	if opts.MaxFrames != 64 {
		t.Errorf("max frames = %d, want 64", opts.MaxFrames)
	}
}

func TestConfigureLogging(t *testing.T) {
	m := Default()
	m.Log.Verbosity = 1
	m.Log.File = filepath.Join(t.TempDir(), "yarv.log")
	m.ConfigureLogging()

	// back to the defaults for the other tests
	Default().ConfigureLogging()
}
