package ast

// Visitor has one method per node kind. Node.Accept dispatches to it.
type Visitor interface {
	VisitProgram(n *Program)
	VisitStatements(n *Statements)
	VisitVoidStmt(n *VoidStmt)
	VisitParen(n *Paren)
	VisitBEGINBlock(n *BEGINBlock)
	VisitENDBlock(n *ENDBlock)
	VisitInt(n *Int)
	VisitFloatLiteral(n *FloatLiteral)
	VisitRationalLiteral(n *RationalLiteral)
	VisitImaginary(n *Imaginary)
	VisitStringLiteral(n *StringLiteral)
	VisitXStringLiteral(n *XStringLiteral)
	VisitTStringContent(n *TStringContent)
	VisitStringEmbExpr(n *StringEmbExpr)
	VisitStringDVar(n *StringDVar)
	VisitCHAR(n *CHAR)
	VisitSymbolLiteral(n *SymbolLiteral)
	VisitDynaSymbol(n *DynaSymbol)
	VisitRegexpLiteral(n *RegexpLiteral)
	VisitArrayLiteral(n *ArrayLiteral)
	VisitHashLiteral(n *HashLiteral)
	VisitBareAssocHash(n *BareAssocHash)
	VisitAssoc(n *Assoc)
	VisitAssocSplat(n *AssocSplat)
	VisitRangeNode(n *RangeNode)
	VisitNilNode(n *NilNode)
	VisitTrueNode(n *TrueNode)
	VisitFalseNode(n *FalseNode)
	VisitSelfNode(n *SelfNode)
	VisitFileNode(n *FileNode)
	VisitLineNode(n *LineNode)
	VisitVarRef(n *VarRef)
	VisitVCall(n *VCall)
	VisitBackref(n *Backref)
	VisitConstPathRef(n *ConstPathRef)
	VisitTopConstRef(n *TopConstRef)
	VisitVarField(n *VarField)
	VisitConstPathField(n *ConstPathField)
	VisitTopConstField(n *TopConstField)
	VisitARefField(n *ARefField)
	VisitField(n *Field)
	VisitMLHS(n *MLHS)
	VisitSplatTarget(n *SplatTarget)
	VisitAssign(n *Assign)
	VisitOpAssign(n *OpAssign)
	VisitMAssign(n *MAssign)
	VisitCallNode(n *CallNode)
	VisitArgs(n *Args)
	VisitArgStar(n *ArgStar)
	VisitArgBlock(n *ArgBlock)
	VisitArgsForward(n *ArgsForward)
	VisitBinary(n *Binary)
	VisitUnary(n *Unary)
	VisitNot(n *Not)
	VisitARef(n *ARef)
	VisitSuper(n *Super)
	VisitZSuper(n *ZSuper)
	VisitYield(n *Yield)
	VisitReturnNode(n *ReturnNode)
	VisitBreak(n *Break)
	VisitNext(n *Next)
	VisitRedo(n *Redo)
	VisitRetry(n *Retry)
	VisitDefined(n *Defined)
	VisitAlias(n *Alias)
	VisitUndef(n *Undef)
	VisitLambda(n *Lambda)
	VisitBlockNode(n *BlockNode)
	VisitIf(n *If)
	VisitUnless(n *Unless)
	VisitIfOp(n *IfOp)
	VisitElse(n *Else)
	VisitCase(n *Case)
	VisitWhen(n *When)
	VisitIn(n *In)
	VisitWhile(n *While)
	VisitUntil(n *Until)
	VisitFor(n *For)
	VisitBegin(n *Begin)
	VisitBodystmt(n *Bodystmt)
	VisitRescue(n *Rescue)
	VisitEnsure(n *Ensure)
	VisitRescueMod(n *RescueMod)
	VisitAryPtn(n *AryPtn)
	VisitFndPtn(n *FndPtn)
	VisitHshPtn(n *HshPtn)
	VisitRestPattern(n *RestPattern)
	VisitNoKeywordRest(n *NoKeywordRest)
	VisitAltPattern(n *AltPattern)
	VisitBindingPattern(n *BindingPattern)
	VisitPinnedVarRef(n *PinnedVarRef)
	VisitPinnedExpr(n *PinnedExpr)
	VisitRAssign(n *RAssign)
	VisitClassDeclaration(n *ClassDeclaration)
	VisitModuleDeclaration(n *ModuleDeclaration)
	VisitSClass(n *SClass)
	VisitDefNode(n *DefNode)
	VisitParams(n *Params)
	VisitRestParam(n *RestParam)
	VisitKwRestParam(n *KwRestParam)
	VisitBlockParam(n *BlockParam)
}

func (n *Program) Accept(v Visitor) { v.VisitProgram(n) }
func (n *Statements) Accept(v Visitor) { v.VisitStatements(n) }
func (n *VoidStmt) Accept(v Visitor) { v.VisitVoidStmt(n) }
func (n *Paren) Accept(v Visitor) { v.VisitParen(n) }
func (n *BEGINBlock) Accept(v Visitor) { v.VisitBEGINBlock(n) }
func (n *ENDBlock) Accept(v Visitor) { v.VisitENDBlock(n) }
func (n *Int) Accept(v Visitor) { v.VisitInt(n) }
func (n *FloatLiteral) Accept(v Visitor) { v.VisitFloatLiteral(n) }
func (n *RationalLiteral) Accept(v Visitor) { v.VisitRationalLiteral(n) }
func (n *Imaginary) Accept(v Visitor) { v.VisitImaginary(n) }
func (n *StringLiteral) Accept(v Visitor) { v.VisitStringLiteral(n) }
func (n *XStringLiteral) Accept(v Visitor) { v.VisitXStringLiteral(n) }
func (n *TStringContent) Accept(v Visitor) { v.VisitTStringContent(n) }
func (n *StringEmbExpr) Accept(v Visitor) { v.VisitStringEmbExpr(n) }
func (n *StringDVar) Accept(v Visitor) { v.VisitStringDVar(n) }
func (n *CHAR) Accept(v Visitor) { v.VisitCHAR(n) }
func (n *SymbolLiteral) Accept(v Visitor) { v.VisitSymbolLiteral(n) }
func (n *DynaSymbol) Accept(v Visitor) { v.VisitDynaSymbol(n) }
func (n *RegexpLiteral) Accept(v Visitor) { v.VisitRegexpLiteral(n) }
func (n *ArrayLiteral) Accept(v Visitor) { v.VisitArrayLiteral(n) }
func (n *HashLiteral) Accept(v Visitor) { v.VisitHashLiteral(n) }
func (n *BareAssocHash) Accept(v Visitor) { v.VisitBareAssocHash(n) }
func (n *Assoc) Accept(v Visitor) { v.VisitAssoc(n) }
func (n *AssocSplat) Accept(v Visitor) { v.VisitAssocSplat(n) }
func (n *RangeNode) Accept(v Visitor) { v.VisitRangeNode(n) }
func (n *NilNode) Accept(v Visitor) { v.VisitNilNode(n) }
func (n *TrueNode) Accept(v Visitor) { v.VisitTrueNode(n) }
func (n *FalseNode) Accept(v Visitor) { v.VisitFalseNode(n) }
func (n *SelfNode) Accept(v Visitor) { v.VisitSelfNode(n) }
func (n *FileNode) Accept(v Visitor) { v.VisitFileNode(n) }
func (n *LineNode) Accept(v Visitor) { v.VisitLineNode(n) }
func (n *VarRef) Accept(v Visitor) { v.VisitVarRef(n) }
func (n *VCall) Accept(v Visitor) { v.VisitVCall(n) }
func (n *Backref) Accept(v Visitor) { v.VisitBackref(n) }
func (n *ConstPathRef) Accept(v Visitor) { v.VisitConstPathRef(n) }
func (n *TopConstRef) Accept(v Visitor) { v.VisitTopConstRef(n) }
func (n *VarField) Accept(v Visitor) { v.VisitVarField(n) }
func (n *ConstPathField) Accept(v Visitor) { v.VisitConstPathField(n) }
func (n *TopConstField) Accept(v Visitor) { v.VisitTopConstField(n) }
func (n *ARefField) Accept(v Visitor) { v.VisitARefField(n) }
func (n *Field) Accept(v Visitor) { v.VisitField(n) }
func (n *MLHS) Accept(v Visitor) { v.VisitMLHS(n) }
func (n *SplatTarget) Accept(v Visitor) { v.VisitSplatTarget(n) }
func (n *Assign) Accept(v Visitor) { v.VisitAssign(n) }
func (n *OpAssign) Accept(v Visitor) { v.VisitOpAssign(n) }
func (n *MAssign) Accept(v Visitor) { v.VisitMAssign(n) }
func (n *CallNode) Accept(v Visitor) { v.VisitCallNode(n) }
func (n *Args) Accept(v Visitor) { v.VisitArgs(n) }
func (n *ArgStar) Accept(v Visitor) { v.VisitArgStar(n) }
func (n *ArgBlock) Accept(v Visitor) { v.VisitArgBlock(n) }
func (n *ArgsForward) Accept(v Visitor) { v.VisitArgsForward(n) }
func (n *Binary) Accept(v Visitor) { v.VisitBinary(n) }
func (n *Unary) Accept(v Visitor) { v.VisitUnary(n) }
func (n *Not) Accept(v Visitor) { v.VisitNot(n) }
func (n *ARef) Accept(v Visitor) { v.VisitARef(n) }
func (n *Super) Accept(v Visitor) { v.VisitSuper(n) }
func (n *ZSuper) Accept(v Visitor) { v.VisitZSuper(n) }
func (n *Yield) Accept(v Visitor) { v.VisitYield(n) }
func (n *ReturnNode) Accept(v Visitor) { v.VisitReturnNode(n) }
func (n *Break) Accept(v Visitor) { v.VisitBreak(n) }
func (n *Next) Accept(v Visitor) { v.VisitNext(n) }
func (n *Redo) Accept(v Visitor) { v.VisitRedo(n) }
func (n *Retry) Accept(v Visitor) { v.VisitRetry(n) }
func (n *Defined) Accept(v Visitor) { v.VisitDefined(n) }
func (n *Alias) Accept(v Visitor) { v.VisitAlias(n) }
func (n *Undef) Accept(v Visitor) { v.VisitUndef(n) }
func (n *Lambda) Accept(v Visitor) { v.VisitLambda(n) }
func (n *BlockNode) Accept(v Visitor) { v.VisitBlockNode(n) }
func (n *If) Accept(v Visitor) { v.VisitIf(n) }
func (n *Unless) Accept(v Visitor) { v.VisitUnless(n) }
func (n *IfOp) Accept(v Visitor) { v.VisitIfOp(n) }
func (n *Else) Accept(v Visitor) { v.VisitElse(n) }
func (n *Case) Accept(v Visitor) { v.VisitCase(n) }
func (n *When) Accept(v Visitor) { v.VisitWhen(n) }
func (n *In) Accept(v Visitor) { v.VisitIn(n) }
func (n *While) Accept(v Visitor) { v.VisitWhile(n) }
func (n *Until) Accept(v Visitor) { v.VisitUntil(n) }
func (n *For) Accept(v Visitor) { v.VisitFor(n) }
func (n *Begin) Accept(v Visitor) { v.VisitBegin(n) }
func (n *Bodystmt) Accept(v Visitor) { v.VisitBodystmt(n) }
func (n *Rescue) Accept(v Visitor) { v.VisitRescue(n) }
func (n *Ensure) Accept(v Visitor) { v.VisitEnsure(n) }
func (n *RescueMod) Accept(v Visitor) { v.VisitRescueMod(n) }
func (n *AryPtn) Accept(v Visitor) { v.VisitAryPtn(n) }
func (n *FndPtn) Accept(v Visitor) { v.VisitFndPtn(n) }
func (n *HshPtn) Accept(v Visitor) { v.VisitHshPtn(n) }
func (n *RestPattern) Accept(v Visitor) { v.VisitRestPattern(n) }
func (n *NoKeywordRest) Accept(v Visitor) { v.VisitNoKeywordRest(n) }
func (n *AltPattern) Accept(v Visitor) { v.VisitAltPattern(n) }
func (n *BindingPattern) Accept(v Visitor) { v.VisitBindingPattern(n) }
func (n *PinnedVarRef) Accept(v Visitor) { v.VisitPinnedVarRef(n) }
func (n *PinnedExpr) Accept(v Visitor) { v.VisitPinnedExpr(n) }
func (n *RAssign) Accept(v Visitor) { v.VisitRAssign(n) }
func (n *ClassDeclaration) Accept(v Visitor) { v.VisitClassDeclaration(n) }
func (n *ModuleDeclaration) Accept(v Visitor) { v.VisitModuleDeclaration(n) }
func (n *SClass) Accept(v Visitor) { v.VisitSClass(n) }
func (n *DefNode) Accept(v Visitor) { v.VisitDefNode(n) }
func (n *Params) Accept(v Visitor) { v.VisitParams(n) }
func (n *RestParam) Accept(v Visitor) { v.VisitRestParam(n) }
func (n *KwRestParam) Accept(v Visitor) { v.VisitKwRestParam(n) }
func (n *BlockParam) Accept(v Visitor) { v.VisitBlockParam(n) }
