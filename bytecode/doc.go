// Package bytecode models YARV instruction sequences: the instruction
// catalog, call-site descriptors, local tables, catch tables and the
// builder that assembles one lexical scope at a time.
//
// A sequence is open while it is being built. Close resolves labels,
// optionally runs the specialization pass and flattens the instruction
// list; after that the sequence is immutable and can be serialized with
// ToA, written to CBOR with Marshal, printed with Disasm, analyzed or
// executed.
package bytecode

import "github.com/tliron/commonlog"

var log = commonlog.GetLogger("yarv.bytecode")
