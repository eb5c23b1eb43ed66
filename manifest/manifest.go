// Package manifest handles yarv.toml configuration: compile options, VM
// limits and logging.
package manifest

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
	"github.com/tliron/commonlog"
	_ "github.com/tliron/commonlog/simple"

	"github.com/ruby-syntax-tree/syntax-tree-sub003/compiler"
	"github.com/ruby-syntax-tree/syntax-tree-sub003/vm"
)

// FileName is the name Load and FindAndLoad look for.
const FileName = "yarv.toml"

// Manifest represents a yarv.toml configuration.
type Manifest struct {
	Compiler compiler.Options `toml:"compiler"`
	VM       VMConfig         `toml:"vm"`
	Log      LogConfig        `toml:"log"`

	// Dir is the directory containing the yarv.toml file (set at load time).
	Dir string `toml:"-"`
}

// VMConfig configures the interpreter.
type VMConfig struct {
	MaxFrames int `toml:"max_frames"`
}

// LogConfig configures the commonlog backend.
type LogConfig struct {
	Verbosity int    `toml:"verbosity"`
	File      string `toml:"file"`
}

// Default returns the configuration used when no yarv.toml exists.
func Default() *Manifest {
	return &Manifest{
		Compiler: compiler.DefaultOptions(),
		VM:       VMConfig{MaxFrames: vm.DefaultMaxFrames},
	}
}

// Load parses a yarv.toml file from the given directory. Keys missing from
// the file keep their defaults.
func Load(dir string) (*Manifest, error) {
	path := filepath.Join(dir, FileName)
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read %s: %w", path, err)
	}

	m := Default()
	if err := toml.Unmarshal(data, m); err != nil {
		return nil, fmt.Errorf("parse error in %s: %w", path, err)
	}

	m.Dir, err = filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("cannot resolve path %s: %w", dir, err)
	}

	if m.VM.MaxFrames <= 0 {
		m.VM.MaxFrames = vm.DefaultMaxFrames
	}
	if m.Log.File != "" && !filepath.IsAbs(m.Log.File) {
		m.Log.File = filepath.Join(m.Dir, m.Log.File)
	}

	return m, nil
}

// FindAndLoad walks up from startDir to find a yarv.toml file,
// then loads and returns the manifest. Returns nil if no manifest is found.
func FindAndLoad(startDir string) (*Manifest, error) {
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return nil, err
	}

	for {
		path := filepath.Join(dir, FileName)
		if _, err := os.Stat(path); err == nil {
			return Load(dir)
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			// Reached root
			return nil, nil
		}
		dir = parent
	}
}

// CompilerOptions returns the options to pass to compiler.Compile.
func (m *Manifest) CompilerOptions() compiler.Options {
	return m.Compiler
}

// VMOptions returns interpreter options writing program output to stdout.
func (m *Manifest) VMOptions(stdout io.Writer) vm.Options {
	return vm.Options{Stdout: stdout, MaxFrames: m.VM.MaxFrames}
}

// ConfigureLogging applies the [log] section to the commonlog backend;
// higher verbosity logs more. An empty file logs to stderr.
func (m *Manifest) ConfigureLogging() {
	var path *string
	if m.Log.File != "" {
		path = &m.Log.File
	}
	commonlog.Configure(m.Log.Verbosity, path)
}
