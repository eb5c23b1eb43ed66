// Package vm executes closed instruction sequences.
//
// The interpreter runs one frame per activation on a shared operand
// stack. Non-local control flow (raise, break, next, redo, retry, return
// and throw) travels as a panic carrying a signal, which each frame's run
// loop matches against its catch table. Values are plain Go values for the
// immediates (nil, bool, int64, float64, Symbol) and pointers for
// everything else.
//
// The core library is a subset of Ruby's Kernel, Object, Module, Integer,
// Float, String, Symbol, Array, Hash, Range, Regexp, Proc and Exception,
// enough to run the programs the compiler accepts.
package vm

import (
	"github.com/tliron/commonlog"
)

var log = commonlog.GetLogger("yarv.vm")
