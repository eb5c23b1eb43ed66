package ast

// ---------------------------------------------------------------------------
// Program structure
// ---------------------------------------------------------------------------

// Program is the root of a parsed file. MagicComments holds the leading
// comment lines, which may switch compiler options on.
type Program struct {
	Base
	MagicComments []string
	Statements    *Statements
}

// Statements is a sequence of expressions evaluated in order.
type Statements struct {
	Base
	Body []Node
}

// VoidStmt is an empty statement (a stray semicolon).
type VoidStmt struct {
	Base
}

// Paren wraps a parenthesized expression or statement list.
type Paren struct {
	Base
	Contents Node
}

// BEGINBlock is a BEGIN { ... } block, run before the rest of the program.
type BEGINBlock struct {
	Base
	Statements *Statements
}

// ENDBlock is an END { ... } block, registered to run at exit.
type ENDBlock struct {
	Base
	Statements *Statements
}

// ---------------------------------------------------------------------------
// Literals
// ---------------------------------------------------------------------------

// Int is an integer literal, kept as source text (0x10, 1_000, 0b11).
type Int struct {
	Base
	Value string
}

// FloatLiteral is a floating point literal.
type FloatLiteral struct {
	Base
	Value string
}

// RationalLiteral is a rational literal such as 3r or 1.5r.
type RationalLiteral struct {
	Base
	Value string
}

// Imaginary is an imaginary literal such as 2i.
type Imaginary struct {
	Base
	Value string
}

// StringLiteral is a string with zero or more parts. Parts are
// TStringContent, StringEmbExpr or StringDVar.
type StringLiteral struct {
	Base
	Parts []Node
}

// XStringLiteral is a backtick command string.
type XStringLiteral struct {
	Base
	Parts []Node
}

// TStringContent is a plain run of characters inside a string-like literal.
type TStringContent struct {
	Base
	Value string
}

// StringEmbExpr is a #{...} interpolation.
type StringEmbExpr struct {
	Base
	Statements *Statements
}

// StringDVar is a #@ivar / #$gvar interpolation.
type StringDVar struct {
	Base
	Variable Node
}

// CHAR is a character literal such as ?a. Value includes the question mark.
type CHAR struct {
	Base
	Value string
}

// SymbolLiteral is a static symbol such as :foo.
type SymbolLiteral struct {
	Base
	Value string
}

// DynaSymbol is a symbol with interpolated parts such as :"a#{b}".
type DynaSymbol struct {
	Base
	Parts []Node
}

// RegexpLiteral is a regular expression. Options holds the trailing flags.
type RegexpLiteral struct {
	Base
	Parts   []Node
	Options string
}

// ArrayLiteral is [a, b, *c]. Elements may contain ArgStar and BareAssocHash.
type ArrayLiteral struct {
	Base
	Elements []Node
}

// HashLiteral is { k => v, **h }.
type HashLiteral struct {
	Base
	Assocs []Node
}

// BareAssocHash is a brace-less hash, as in trailing call arguments.
type BareAssocHash struct {
	Base
	Assocs []Node
}

// Assoc is a single key/value pair.
type Assoc struct {
	Base
	Key   Node
	Value Node
}

// AssocSplat is **value inside a hash.
type AssocSplat struct {
	Base
	Value Node
}

// RangeNode is a..b or a...b. Either end may be nil.
type RangeNode struct {
	Base
	Left       Node
	Right      Node
	ExcludeEnd bool
}

// NilNode is the nil keyword.
type NilNode struct{ Base }

// TrueNode is the true keyword.
type TrueNode struct{ Base }

// FalseNode is the false keyword.
type FalseNode struct{ Base }

// SelfNode is the self keyword.
type SelfNode struct{ Base }

// FileNode is the __FILE__ keyword.
type FileNode struct{ Base }

// LineNode is the __LINE__ keyword; its value is the start line.
type LineNode struct{ Base }

// ---------------------------------------------------------------------------
// Variables and constants
// ---------------------------------------------------------------------------

// VarRef reads a variable or constant. The kind is derived from the name:
// @@cvar, @ivar, $gvar, Constant, or a local.
type VarRef struct {
	Base
	Name string
}

// VCall is a bare identifier that the parser resolved to a method call.
type VCall struct {
	Base
	Name string
}

// Backref reads a regexp special variable such as $~, $&, $1.
type Backref struct {
	Base
	Name string
}

// ConstPathRef reads Parent::Constant.
type ConstPathRef struct {
	Base
	Parent   Node
	Constant string
}

// TopConstRef reads ::Constant.
type TopConstRef struct {
	Base
	Constant string
}

// ---------------------------------------------------------------------------
// Assignment
// ---------------------------------------------------------------------------

// VarField is an assignable variable or constant name.
type VarField struct {
	Base
	Name string
}

// ConstPathField is Parent::Constant as an assignment target.
type ConstPathField struct {
	Base
	Parent   Node
	Constant string
}

// TopConstField is ::Constant as an assignment target.
type TopConstField struct {
	Base
	Constant string
}

// ARefField is collection[index] as an assignment target.
type ARefField struct {
	Base
	Collection Node
	Index      *Args
}

// Field is receiver.name as an assignment target.
type Field struct {
	Base
	Parent   Node
	Operator string
	Name     string
}

// MLHS is the left side of a multiple assignment. Parts may be targets,
// nested MLHS nodes and at most one SplatTarget.
type MLHS struct {
	Base
	Parts []Node
}

// SplatTarget is *target in a multiple assignment. Value is nil for a bare *.
type SplatTarget struct {
	Base
	Value Node
}

// Assign is target = value.
type Assign struct {
	Base
	Target Node
	Value  Node
}

// OpAssign is target op= value, including ||= and &&=.
type OpAssign struct {
	Base
	Target   Node
	Operator string
	Value    Node
}

// MAssign is a, b = value.
type MAssign struct {
	Base
	Target *MLHS
	Value  Node
}

// ---------------------------------------------------------------------------
// Calls
// ---------------------------------------------------------------------------

// CallNode is a method call with an optional receiver, arguments and block.
// Operator is ".", "&." or "::" when a receiver is present.
type CallNode struct {
	Base
	Receiver  Node
	Operator  string
	Message   string
	Arguments *Args
	Block     *BlockNode
}

// Args is an argument list. Parts are expressions, ArgStar, ArgBlock,
// BareAssocHash or ArgsForward.
type Args struct {
	Base
	Parts []Node
}

// ArgStar is *value in an argument list or array literal.
type ArgStar struct {
	Base
	Value Node
}

// ArgBlock is &value in an argument list. Value is nil for anonymous &.
type ArgBlock struct {
	Base
	Value Node
}

// ArgsForward is ... in a parameter or argument list.
type ArgsForward struct{ Base }

// Binary is left op right, including && || and or.
type Binary struct {
	Base
	Left     Node
	Operator string
	Right    Node
}

// Unary is a prefix operator: "-@", "+@", "~" or "!".
type Unary struct {
	Base
	Operator  string
	Statement Node
}

// Not is the `not` keyword.
type Not struct {
	Base
	Statement Node
}

// ARef is collection[index].
type ARef struct {
	Base
	Collection Node
	Index      *Args
}

// Super is super(args) with explicit arguments.
type Super struct {
	Base
	Arguments *Args
	Block     *BlockNode
}

// ZSuper is a bare super that forwards the current arguments.
type ZSuper struct {
	Base
	Block *BlockNode
}

// Yield is yield(args).
type Yield struct {
	Base
	Arguments *Args
}

// ReturnNode is return(args).
type ReturnNode struct {
	Base
	Arguments *Args
}

// Break is break(args).
type Break struct {
	Base
	Arguments *Args
}

// Next is next(args).
type Next struct {
	Base
	Arguments *Args
}

// Redo is the redo keyword.
type Redo struct{ Base }

// Retry is the retry keyword.
type Retry struct{ Base }

// Defined is defined?(value).
type Defined struct {
	Base
	Value Node
}

// Alias is alias left right, for methods (symbols) or globals (VarRef).
type Alias struct {
	Base
	Left  Node
	Right Node
}

// Undef is undef a, b.
type Undef struct {
	Base
	Symbols []Node
}

// Lambda is ->(params) { body }.
type Lambda struct {
	Base
	Params *Params
	Locals []string
	Body   Node
}

// BlockNode is { |params| body } or do |params| body end.
type BlockNode struct {
	Base
	Params *Params
	Locals []string
	Body   Node
}

// ---------------------------------------------------------------------------
// Control flow
// ---------------------------------------------------------------------------

// If is if/elsif/modifier-if. Consequent is an *Else or an *If for elsif.
type If struct {
	Base
	Predicate  Node
	Statements *Statements
	Consequent Node
}

// Unless is unless/modifier-unless.
type Unless struct {
	Base
	Predicate  Node
	Statements *Statements
	Consequent *Else
}

// IfOp is the ternary operator.
type IfOp struct {
	Base
	Predicate Node
	Truthy    Node
	Falsy     Node
}

// Else is the else branch of a conditional or case.
type Else struct {
	Base
	Statements *Statements
}

// Case is case value; Consequent is a *When or an *In.
type Case struct {
	Base
	Value      Node
	Consequent Node
}

// When is a when clause. Consequent is the next *When or an *Else.
type When struct {
	Base
	Arguments  *Args
	Statements *Statements
	Consequent Node
}

// In is a pattern matching clause. Consequent is the next *In or an *Else.
type In struct {
	Base
	Pattern    Node
	Statements *Statements
	Consequent Node
}

// While is while predicate. Modifier marks begin...end while, which runs
// the body before the first test.
type While struct {
	Base
	Predicate  Node
	Statements *Statements
	Modifier   bool
}

// Until is until predicate.
type Until struct {
	Base
	Predicate  Node
	Statements *Statements
	Modifier   bool
}

// For is for index in collection.
type For struct {
	Base
	Index      Node
	Collection Node
	Statements *Statements
}

// ---------------------------------------------------------------------------
// Exceptions
// ---------------------------------------------------------------------------

// Begin is begin ... end.
type Begin struct {
	Base
	Bodystmt *Bodystmt
}

// Bodystmt is a body with optional rescue, else and ensure clauses.
type Bodystmt struct {
	Base
	Statements   *Statements
	RescueClause *Rescue
	ElseClause   *Statements
	EnsureClause *Ensure
}

// Rescue is a rescue clause. Variable is the => target, if any.
type Rescue struct {
	Base
	Exceptions []Node
	Variable   Node
	Statements *Statements
	Consequent *Rescue
}

// Ensure is an ensure clause.
type Ensure struct {
	Base
	Statements *Statements
}

// RescueMod is statement rescue value.
type RescueMod struct {
	Base
	Statement Node
	Value     Node
}

// ---------------------------------------------------------------------------
// Pattern matching
// ---------------------------------------------------------------------------

// AryPtn is an array pattern: Const[a, *rest, b].
type AryPtn struct {
	Base
	Constant  Node
	Requireds []Node
	Rest      *RestPattern
	Posts     []Node
}

// FndPtn is a find pattern: [*, x, *].
type FndPtn struct {
	Base
	Constant Node
	Left     *RestPattern
	Values   []Node
	Right    *RestPattern
}

// HshPtnEntry is one key: pattern pair in a hash pattern. A nil Value binds
// the key name as a local.
type HshPtnEntry struct {
	Key   string
	Value Node
}

// HshPtn is a hash pattern: Const(a:, b: Integer, **rest).
type HshPtn struct {
	Base
	Constant    Node
	Keywords    []HshPtnEntry
	KeywordRest Node
}

// RestPattern is *name or **name in a pattern. Name is empty for anonymous.
type RestPattern struct {
	Base
	Name string
}

// NoKeywordRest is **nil, in patterns and parameter lists.
type NoKeywordRest struct{ Base }

// AltPattern is left | right.
type AltPattern struct {
	Base
	Left  Node
	Right Node
}

// BindingPattern is pattern => name.
type BindingPattern struct {
	Base
	Pattern Node
	Name    string
}

// PinnedVarRef is ^variable.
type PinnedVarRef struct {
	Base
	Value Node
}

// PinnedExpr is ^(expression).
type PinnedExpr struct {
	Base
	Statement Node
}

// RAssign is value => pattern or value in pattern.
type RAssign struct {
	Base
	Value    Node
	Operator string
	Pattern  Node
}

// ---------------------------------------------------------------------------
// Definitions
// ---------------------------------------------------------------------------

// ClassDeclaration is class Constant < Superclass.
type ClassDeclaration struct {
	Base
	Constant   Node
	Superclass Node
	Bodystmt   *Bodystmt
}

// ModuleDeclaration is module Constant.
type ModuleDeclaration struct {
	Base
	Constant Node
	Bodystmt *Bodystmt
}

// SClass is class << target.
type SClass struct {
	Base
	Target   Node
	Bodystmt *Bodystmt
}

// DefNode is def name or def target.name. Body is a *Bodystmt, or any
// expression for an endless method.
type DefNode struct {
	Base
	Target Node
	Name   string
	Params *Params
	Body   Node
}

// OptionalParam is name = value.
type OptionalParam struct {
	Name  string
	Value Node
}

// KeywordParam is name: or name: value. Value is nil when required.
type KeywordParam struct {
	Name  string
	Value Node
}

// Params is a parameter list. KeywordRest is a *KwRestParam, *ArgsForward
// or *NoKeywordRest.
type Params struct {
	Base
	Requireds   []string
	Optionals   []OptionalParam
	Rest        *RestParam
	Posts       []string
	Keywords    []KeywordParam
	KeywordRest Node
	Block       *BlockParam
}

// RestParam is *name. Name is empty for an anonymous splat.
type RestParam struct {
	Base
	Name string
}

// KwRestParam is **name. Name is empty for an anonymous double splat.
type KwRestParam struct {
	Base
	Name string
}

// BlockParam is &name.
type BlockParam struct {
	Base
	Name string
}
