// Package analysis builds graphs over closed instruction sequences: a
// control flow graph of basic blocks, a data flow graph that names the
// values crossing block boundaries, and a sea of nodes combining both.
//
// The builders panic with *bytecode.InternalError on malformed input;
// BuildCFG, BuildDFG and BuildSeaOfNodes convert those panics to errors.
package analysis

import "github.com/tliron/commonlog"

var log = commonlog.GetLogger("yarv.analysis")
