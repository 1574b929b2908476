package resolve

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/pynder/pynder/diag"
	"github.com/pynder/pynder/metrics"
	"github.com/pynder/pynder/syntax"
)

// Result is everything one Bind call produces. The attachments on the
// AST nodes themselves (scope, flowNode, afterFlowNode, declaration,
// codeFlowExpressions) are the primary output; Result surfaces the rest.
type Result struct {
	RunID          string
	ModuleScope    *Scope
	ModuleDocstring string
	Diagnostics    diag.Sink
}

// binder carries every piece of mutable state one file's walk threads
// through. Deferred tasks snapshot and restore the walk state (scope,
// current flow node, and the break/continue/return/finally/except target
// stacks); nothing here is shared across goroutines —
// one binder instance processes one file on a single goroutine.
type binder struct {
	fi   *FileInfo
	syms *symbolTable
	flow *CFGBuilder
	attach *syntax.Attachments
	rec  *metrics.Recorder
	deferred *deferredQueue

	scope   *Scope
	current FlowNode

	breakTargets    []*BranchLabel
	continueTargets []*LoopLabel
	returnTarget    *BranchLabel
	finallyTargets  []*BranchLabel
	exceptTargets   [][]*BranchLabel

	funcDeclStack []*FunctionDeclaration
	asyncStack    []bool
	nestedExceptDepth int
}

// Bind runs the name-binding and control-flow-graph construction pass
// over module, attaching its results to attach and reporting diagnostics
// through fi.Diagnostics. It returns no error: recoverable issues are
// reported through the sink. fi must be non-nil.
func Bind(module *syntax.Module, fi *FileInfo, attach *syntax.Attachments) *Result {
	rec := metrics.New(uuid.NewString())
	start := time.Now()
	defer func() { rec.ObserveBindDuration(time.Since(start)) }()

	b := &binder{
		fi:       fi,
		syms:     newSymbolAllocator(),
		flow:     newCFGBuilder(rec),
		attach:   attach,
		rec:      rec,
		deferred: newDeferredQueue(rec),
	}

	kind := ScopeModule
	if fi.BuiltinsScope == nil {
		kind = ScopeBuiltin
	}
	b.scope = NewScope(kind, fi.BuiltinsScope, module)
	attach.SetScope(module, b.scope)

	b.installModuleIntrinsics()

	start0 := b.flow.startNode()
	b.current = start0

	var doc string
	if len(module.Body) > 0 {
		if es, ok := module.Body[0].(*syntax.ExprStmt); ok {
			if sl, ok := es.X.(*syntax.StringList); ok && len(sl.Parts) > 0 {
				doc = sl.Parts[0].Value
			}
		}
	}

	b.walkStmts(module.Body)
	attach.SetAfterFlowNode(module, b.current)
	attach.SetCodeFlowExpressions(module, b.scope.ReferenceMap)

	b.deferred.drain()

	return &Result{
		RunID:          rec.RunID(),
		ModuleScope:    b.scope,
		ModuleDocstring: doc,
		Diagnostics:    fi.Diagnostics,
	}
}

func (b *binder) report(rule, message string, rng syntax.Range) {
	if b.fi.Diagnostics == nil {
		return
	}
	sev := diag.Error
	if b.fi.Rules != nil {
		sev = b.fi.Rules.Severity(rule)
	}
	if sev == diag.None {
		return
	}
	b.fi.Diagnostics.AddAt(sev, rule, message, rng)
	b.rec.DiagnosticEmitted(sev.String())
}

func (b *binder) installModuleIntrinsics() {
	intrinsics := []struct {
		name string
		typ  IntrinsicSemanticType
	}{
		{"__doc__", IntrinsicStr},
		{"__name__", IntrinsicStr},
		{"__loader__", IntrinsicAny},
		{"__package__", IntrinsicStr},
		{"__spec__", IntrinsicAny},
		{"__path__", IntrinsicIterableStr},
		{"__file__", IntrinsicStr},
		{"__cached__", IntrinsicStr},
		{"__dict__", IntrinsicDictStrAny},
	}
	for _, it := range intrinsics {
		sym := b.scope.AddSymbol(b.syms, it.name, InitiallyUnbound)
		sym.addDeclaration(&IntrinsicDeclaration{Type: it.typ})
		b.rec.SymbolCreated()
	}
}

// ---------------------------------------------------------------------
// statement dispatch

func (b *binder) walkStmts(stmts []syntax.Stmt) {
	for _, s := range stmts {
		b.walkStmt(s)
	}
}

func (b *binder) walkStmt(s syntax.Stmt) {
	b.attach.SetFlowNode(s, b.current)
	switch st := s.(type) {
	case *syntax.AssignStmt:
		b.walkAssign(st)
	case *syntax.AugAssignStmt:
		b.walkAugAssign(st)
	case *syntax.AnnAssignStmt:
		b.walkAnnAssign(st)
	case *syntax.ExprStmt:
		b.walkExpr(st.X)
	case *syntax.PassStmt:
		// no-op
	case *syntax.BreakStmt:
		b.walkBreak(st)
	case *syntax.ContinueStmt:
		b.walkContinue(st)
	case *syntax.ReturnStmt:
		b.walkReturn(st)
	case *syntax.RaiseStmt:
		b.walkRaise(st)
	case *syntax.DelStmt:
		b.walkDel(st)
	case *syntax.AssertStmt:
		b.walkAssert(st)
	case *syntax.GlobalStmt:
		b.walkGlobal(st)
	case *syntax.NonlocalStmt:
		b.walkNonlocal(st)
	case *syntax.ImportStmt:
		b.bindImportStmt(st)
	case *syntax.ImportFromStmt:
		b.bindImportFromStmt(st)
	case *syntax.IfStmt:
		b.walkIf(st)
	case *syntax.WhileStmt:
		b.walkWhile(st)
	case *syntax.ForStmt:
		b.walkFor(st)
	case *syntax.TryStmt:
		b.walkTry(st)
	case *syntax.WithStmt:
		b.walkWith(st)
	case *syntax.ClassDef:
		b.walkClass(st)
	case *syntax.FunctionDef:
		b.walkFunctionDef(st)
	case *syntax.MatchStmt:
		b.walkMatch(st)
	}
}

// ---------------------------------------------------------------------
// assignment family

func (b *binder) walkAssign(st *syntax.AssignStmt) {
	special := false
	for _, target := range st.LHS {
		if b.isSpecialTypingStubTarget(target) {
			special = true
			b.bindSpecialBuiltInClass(target.(*syntax.Ident))
		}
	}
	if special {
		b.walkExpr(st.RHS)
		return
	}
	for _, target := range st.LHS {
		b.preBindTargets(target)
	}
	b.walkExpr(st.RHS)
	isPossibleTypeAlias := b.scope.Kind == ScopeModule
	if _, isCall := st.RHS.(*syntax.CallExpr); isCall {
		isPossibleTypeAlias = false
	}
	for _, target := range st.LHS {
		b.addInferredDeclarations(target, st.RHS, isPossibleTypeAlias)
	}
	for _, target := range st.LHS {
		b.emitAssignmentFlow(target)
	}
}

func (b *binder) walkAugAssign(st *syntax.AugAssignStmt) {
	b.walkExpr(st.LHS)
	b.walkExpr(st.RHS)
	b.addInferredDeclarations(st.LHS, st.RHS, false)
	b.emitAssignmentFlow(st.LHS)
}

func (b *binder) walkAnnAssign(st *syntax.AnnAssignStmt) {
	b.preBindTargets(st.LHS)
	b.walkExpr(st.Ann)
	isFinal, inner := isFinalAnnotation(st.Ann)
	isTypeAlias := isTypeAliasAnnotation(st.Ann)
	if isTypeAlias && b.scope.Kind != ScopeModule {
		b.report("typeAliasNotAtModuleScope", "TypeAlias annotation is only valid at module scope", syntax.NodeRange(st))
	}
	if st.RHS != nil {
		b.walkExpr(st.RHS)
	}
	ann := st.Ann
	if isFinal && inner != nil {
		ann = inner
	}
	ident, ok := st.LHS.(*syntax.Ident)
	if !ok {
		b.report("annotationUnsupportedTarget", "annotation target must be a name", syntax.NodeRange(st.LHS))
	} else {
		sym, _ := b.scope.LookUp(ident.Name)
		if sym != nil {
			sym.addDeclaration(&VariableDeclaration{
				Rng:            syntax.NodeRange(ident),
				Node:           ident,
				TypeAnnotation: ann,
				IsFinal:        isFinal,
			})
			// A bare `Final[...]` class-body annotation with no value still
			// marks the name an instance member, matching how an
			// `__init__`-assigned `self.x` attribute would be classified.
			if isFinal && st.RHS == nil && b.scope.Kind == ScopeClass {
				sym.Flags |= InstanceMember
			}
		}
		if st.RHS == nil {
			// Bare annotation: register its reference keys so flow
			// analysis considers the name even with no branch present.
			for _, k := range classifyNarrowing(ident).keys {
				b.scope.recordReference(k)
			}
		}
	}
	if st.RHS != nil {
		b.emitAssignmentFlow(st.LHS)
	}
}

// walkAssignExpr handles the walrus operator, reached while walking an
// ordinary expression tree rather than a top-level statement.
func (b *binder) walkAssignExpr(e *syntax.AssignExpr) {
	b.walkExpr(e.Value)
	container := b.nonComprehensionAncestor()
	for s := b.scope; s != container; s = s.Parent {
		if _, ok := s.LookUp(e.Name.Name); ok {
			b.report("walrusTargetCollision", "assignment expression target \""+e.Name.Name+"\" conflicts with a comprehension variable of the same name", syntax.NodeRange(e))
			break
		}
	}
	sym, existed := container.LookUp(e.Name.Name)
	if !existed {
		sym = container.AddSymbol(b.syms, e.Name.Name, InitiallyUnbound)
		b.rec.SymbolCreated()
	}
	sym.addDeclaration(&VariableDeclaration{
		Rng:                syntax.NodeRange(e.Name),
		Node:               e.Name,
		InferredTypeSource: e.Value,
	})
	b.current = b.flow.assignment(b.current, e.Name, sym.ID(), false)
}

func (b *binder) nonComprehensionAncestor() *Scope {
	for s := b.scope; s != nil; s = s.Parent {
		if s.Kind != ScopeListComprehension {
			return s
		}
	}
	return b.scope.GlobalScope()
}

// preBindTargets recurses through tuple/list/starred assignment target
// shapes, creating (or finding) a symbol in the current scope for every
// bare name it reaches. Member-access and subscript targets are walked
// for their side effects but bind nothing.
func (b *binder) preBindTargets(target syntax.Expr) {
	switch t := target.(type) {
	case *syntax.Ident:
		if _, ok := b.scope.LookUp(t.Name); !ok {
			sym := b.scope.AddSymbol(b.syms, t.Name, InitiallyUnbound)
			b.rec.SymbolCreated()
			_ = sym
		}
	case *syntax.TupleExpr:
		for _, el := range t.List {
			b.preBindTargets(el)
		}
	case *syntax.ListExpr:
		for _, el := range t.List {
			b.preBindTargets(el)
		}
	case *syntax.StarredExpr:
		b.preBindTargets(t.X)
	case *syntax.AttributeExpr:
		b.walkExpr(t.X)
	case *syntax.SubscriptExpr:
		b.walkExpr(t.X)
		b.walkExpr(t.Index)
	}
}

func (b *binder) addInferredDeclarations(target, rhs syntax.Expr, possibleAlias bool) {
	switch t := target.(type) {
	case *syntax.Ident:
		sym, _ := b.scope.LookUp(t.Name)
		if sym == nil {
			return
		}
		decl := &VariableDeclaration{
			Rng:                syntax.NodeRange(t),
			Node:               t,
			IsConstant:         isConstantLookingName(t.Name),
			InferredTypeSource: rhs,
		}
		if possibleAlias {
			if name, ann, ok := isTypeAliasCall(rhs); ok {
				decl.TypeAliasName = name
				decl.TypeAliasAnnotation = ann
			}
		}
		sym.addDeclaration(decl)
	case *syntax.TupleExpr:
		for _, el := range t.List {
			b.addInferredDeclarations(el, nil, false)
		}
	case *syntax.ListExpr:
		for _, el := range t.List {
			b.addInferredDeclarations(el, nil, false)
		}
	case *syntax.StarredExpr:
		b.addInferredDeclarations(t.X, nil, false)
	case *syntax.AttributeExpr:
		// self.x = ... binds an instance member but no local symbol.
	}
}

func (b *binder) emitAssignmentFlow(target syntax.Expr) {
	switch t := target.(type) {
	case *syntax.Ident:
		sym, _, _ := b.scope.LookUpRecursive(t.Name)
		id := indeterminateSymbol
		if sym != nil {
			id = sym.ID()
			for _, k := range classifyNarrowing(t).keys {
				b.scope.recordReference(k)
			}
		}
		b.current = b.flow.assignment(b.current, t, id, false)
		b.fanExceptTargets()
	case *syntax.TupleExpr:
		for _, el := range t.List {
			b.emitAssignmentFlow(el)
		}
	case *syntax.ListExpr:
		for _, el := range t.List {
			b.emitAssignmentFlow(el)
		}
	case *syntax.StarredExpr:
		b.emitAssignmentFlow(t.X)
	case *syntax.AttributeExpr, *syntax.SubscriptExpr:
		b.current = b.flow.assignment(b.current, t, indeterminateSymbol, false)
		b.fanExceptTargets()
	}
}

func (b *binder) fanExceptTargets() {
	b.fanExceptTargetsNode(b.current)
}

// fanExceptTargetsNode threads node as an antecedent of every except
// label reachable from the innermost enclosing try, for a flow node
// that isn't simply b.current at the point fanning is needed (the two
// condition nodes bindConditional produces).
func (b *binder) fanExceptTargetsNode(node FlowNode) {
	if len(b.exceptTargets) == 0 {
		return
	}
	for _, lbl := range b.exceptTargets[len(b.exceptTargets)-1] {
		b.flow.addAntecedent(lbl, node)
	}
}

// ---------------------------------------------------------------------
// expression walk (for side effects: calls, walrus, narrowing leaves)

func (b *binder) walkExpr(e syntax.Expr) {
	if e == nil {
		return
	}
	switch x := e.(type) {
	case *syntax.Ident:
		for _, k := range classifyNarrowing(x).keys {
			b.scope.recordReference(k)
		}
	case *syntax.Literal:
		// leaf
	case *syntax.StringList:
		b.walkStringList(x)
	case *syntax.AssignExpr:
		b.walkAssignExpr(x)
	case *syntax.TupleExpr:
		b.walkExprs(x.List)
	case *syntax.ListExpr:
		b.walkExprs(x.List)
	case *syntax.SetExpr:
		b.walkExprs(x.List)
	case *syntax.DictExpr:
		for _, entry := range x.List {
			b.walkExpr(entry.Key)
			b.walkExpr(entry.Value)
		}
	case *syntax.StarredExpr:
		b.walkExpr(x.X)
	case *syntax.AttributeExpr:
		b.walkExpr(x.X)
	case *syntax.SubscriptExpr:
		b.walkExpr(x.X)
		b.walkExpr(x.Index)
	case *syntax.SliceExpr:
		b.walkExpr(x.Lo)
		b.walkExpr(x.Hi)
		b.walkExpr(x.Step)
	case *syntax.CallExpr:
		b.walkExpr(x.Fn)
		b.walkExprs(x.Args)
		b.current = b.flow.call(b.current, x)
		b.fanExceptTargets()
	case *syntax.Keyword:
		b.walkExpr(x.Value)
	case *syntax.UnaryExpr:
		b.walkExpr(x.X)
	case *syntax.BinaryExpr:
		b.walkExpr(x.X)
		b.walkExpr(x.Y)
	case *syntax.BoolOpExpr:
		b.walkExprs(x.Operands)
	case *syntax.CompareExpr:
		b.walkExprs(x.Operands)
	case *syntax.IfExpr:
		b.walkExpr(x.Cond)
		b.walkExpr(x.True)
		b.walkExpr(x.False)
	case *syntax.LambdaExpr:
		b.walkLambda(x)
	case *syntax.AwaitExpr:
		if !b.inAsyncContext() {
			b.report("awaitOutsideAsync", "await is only valid inside an async function", syntax.NodeRange(x))
		}
		b.walkExpr(x.X)
	case *syntax.YieldExpr:
		b.walkYield(x)
	case *syntax.YieldFromExpr:
		b.walkYieldFrom(x)
	case *syntax.Comprehension:
		b.walkComprehension(x)
	}
}

func (b *binder) walkExprs(exprs []syntax.Expr) {
	for _, e := range exprs {
		b.walkExpr(e)
	}
}

// validStringEscapes is the set of characters CPython accepts after a
// backslash in a string or bytes literal. A backslash followed by
// anything else is a legal-but-deprecated escape: the character and the
// backslash both survive verbatim in Value, but the pass still flags it
// so a caller relying on literal backslash semantics notices.
var validStringEscapes = map[byte]bool{
	'\\': true, '\'': true, '"': true, 'a': true, 'b': true, 'f': true,
	'n': true, 'r': true, 't': true, 'v': true, 'x': true, 'N': true,
	'u': true, 'U': true, '\n': true,
	'0': true, '1': true, '2': true, '3': true,
	'4': true, '5': true, '6': true, '7': true,
}

// walkStringList binds every f-string expression embedded in x and scans
// each physical part's raw text for escape-sequence and brace-matching
// problems, reporting each at the sub-string offset where it occurs.
func (b *binder) walkStringList(x *syntax.StringList) {
	for _, part := range x.Parts {
		b.scanStringEscapes(part)
		if !part.IsFString {
			continue
		}
		b.scanFormatBraces(part)
		for _, fe := range part.FormatExprs {
			b.walkExpr(fe)
		}
	}
}

func (b *binder) scanStringEscapes(part *syntax.StringPart) {
	raw := part.Raw
	for i := 0; i < len(raw)-1; i++ {
		if raw[i] != '\\' {
			continue
		}
		next := raw[i+1]
		if !validStringEscapes[next] {
			pos := part.TokenPos.Add(raw[:i])
			rng := syntax.Range{Start: pos, End: pos.Add(raw[i : i+2])}
			b.report("escapeSequenceInString", fmt.Sprintf("unsupported escape sequence \\%c", next), rng)
		}
		i++ // the escaped character is never itself a backslash starting a new escape
	}
}

// scanFormatBraces walks an f-string part's raw text tracking `{`/`}`
// nesting (doubled braces `{{`/`}}` are literal, not format markers),
// reporting an empty `{}` as a format-expression error and any brace
// left open at end of text as unterminated.
func (b *binder) scanFormatBraces(part *syntax.StringPart) {
	raw := part.Raw
	depth := 0
	openAt := -1
	for i := 0; i < len(raw); i++ {
		switch raw[i] {
		case '{':
			if i+1 < len(raw) && raw[i+1] == '{' && depth == 0 {
				i++
				continue
			}
			if depth == 0 {
				openAt = i
			}
			depth++
		case '}':
			if depth == 0 {
				if i+1 < len(raw) && raw[i+1] == '}' {
					i++
				}
				continue
			}
			depth--
			if depth == 0 {
				if i == openAt+1 {
					pos := part.TokenPos.Add(raw[:openAt])
					rng := syntax.Range{Start: pos, End: pos.Add("{}")}
					b.report("formatStringError", "f-string expression part cannot be empty", rng)
				}
				openAt = -1
			}
		}
	}
	if depth > 0 {
		pos := part.TokenPos.Add(raw[:openAt])
		rng := syntax.Range{Start: pos, End: pos.Add(raw[openAt:])}
		b.report("formatStringError", "f-string: expecting '}'", rng)
	}
}

// ---------------------------------------------------------------------
// conditional flow connectives (and/or/not)

func (b *binder) bindConditional(expr syntax.Expr, trueTarget, falseTarget *BranchLabel) {
	switch e := expr.(type) {
	case *syntax.BoolOpExpr:
		if e.Op == syntax.AND {
			for i, operand := range e.Operands {
				if i == len(e.Operands)-1 {
					b.bindConditional(operand, trueTarget, falseTarget)
					return
				}
				next := b.flow.branchLabel()
				b.bindConditional(operand, next, falseTarget)
				b.current = b.flow.finishLabel(next)
			}
			return
		}
		// OR
		for i, operand := range e.Operands {
			if i == len(e.Operands)-1 {
				b.bindConditional(operand, trueTarget, falseTarget)
				return
			}
			next := b.flow.branchLabel()
			b.bindConditional(operand, trueTarget, next)
			b.current = b.flow.finishLabel(next)
		}
		return
	case *syntax.UnaryExpr:
		if e.Op == syntax.NOT {
			b.bindConditional(e.X, falseTarget, trueTarget)
			return
		}
	}
	b.walkExpr(expr)
	antecedent := b.current
	t := b.flow.condition(antecedent, expr, TrueCondition, b.scope)
	f := b.flow.condition(antecedent, expr, FalseCondition, b.scope)
	b.fanExceptTargetsNode(t)
	b.fanExceptTargetsNode(f)
	b.flow.addAntecedent(trueTarget, t)
	b.flow.addAntecedent(falseTarget, f)
	b.current = Unreachable
}

// ---------------------------------------------------------------------
// control-flow statements

func (b *binder) walkIf(st *syntax.IfStmt) {
	thenLbl := b.flow.branchLabel()
	elseLbl := b.flow.branchLabel()
	postIf := b.flow.branchLabel()

	b.bindConditional(st.Cond, thenLbl, elseLbl)

	b.current = b.flow.finishLabel(thenLbl)
	b.walkStmts(st.Body)
	b.flow.addAntecedent(postIf, b.current)

	b.current = b.flow.finishLabel(elseLbl)
	b.walkStmts(st.Orelse)
	b.flow.addAntecedent(postIf, b.current)

	b.current = b.flow.finishLabel(postIf)
}

func (b *binder) walkWhile(st *syntax.WhileStmt) {
	preWhile := b.flow.loopLabel()
	thenLbl := b.flow.branchLabel()
	elseLbl := b.flow.branchLabel()
	postWhile := b.flow.branchLabel()

	b.flow.addAntecedent(preWhile, b.current)
	b.current = b.flow.finishLabel(preWhile)
	b.bindConditional(st.Cond, thenLbl, elseLbl)

	b.breakTargets = append(b.breakTargets, postWhile)
	b.continueTargets = append(b.continueTargets, preWhile)
	b.current = b.flow.finishLabel(thenLbl)
	b.walkStmts(st.Body)
	b.breakTargets = b.breakTargets[:len(b.breakTargets)-1]
	b.continueTargets = b.continueTargets[:len(b.continueTargets)-1]

	b.flow.addAntecedent(preWhile, b.current)
	b.current = b.flow.finishLabel(elseLbl)
	b.walkStmts(st.Orelse)
	b.flow.addAntecedent(postWhile, b.current)
	b.current = b.flow.finishLabel(postWhile)
}

func (b *binder) walkFor(st *syntax.ForStmt) {
	b.preBindTargets(st.Target)
	b.addInferredDeclarations(st.Target, st.Iter, false)
	b.walkExpr(st.Iter)

	preFor := b.flow.loopLabel()
	preElse := b.flow.branchLabel()
	postFor := b.flow.branchLabel()

	b.flow.addAntecedent(preFor, b.current)
	b.current = b.flow.finishLabel(preFor)
	b.flow.addAntecedent(preElse, b.current)
	b.emitAssignmentFlow(st.Target)

	b.breakTargets = append(b.breakTargets, postFor)
	b.continueTargets = append(b.continueTargets, preFor)
	b.walkStmts(st.Body)
	b.breakTargets = b.breakTargets[:len(b.breakTargets)-1]
	b.continueTargets = b.continueTargets[:len(b.continueTargets)-1]

	b.flow.addAntecedent(preFor, b.current)
	b.current = b.flow.finishLabel(preElse)
	b.walkStmts(st.Orelse)
	b.flow.addAntecedent(postFor, b.current)
	b.current = b.flow.finishLabel(postFor)
}

func (b *binder) walkBreak(st *syntax.BreakStmt) {
	if len(b.breakTargets) > 0 {
		b.flow.addAntecedent(b.breakTargets[len(b.breakTargets)-1], b.current)
	}
	b.current = Unreachable
}

func (b *binder) walkContinue(st *syntax.ContinueStmt) {
	if len(b.continueTargets) > 0 {
		b.flow.addAntecedent(b.continueTargets[len(b.continueTargets)-1], b.current)
	}
	b.current = Unreachable
}

func (b *binder) walkReturn(st *syntax.ReturnStmt) {
	if len(b.funcDeclStack) > 0 {
		fd := b.funcDeclStack[len(b.funcDeclStack)-1]
		fd.ReturnStmts = append(fd.ReturnStmts, st)
	}
	b.walkExpr(st.Result)
	if b.returnTarget != nil {
		b.flow.addAntecedent(b.returnTarget, b.current)
	}
	for _, ft := range b.finallyTargets {
		b.flow.addAntecedent(ft, b.current)
	}
	b.current = Unreachable
}

func (b *binder) walkRaise(st *syntax.RaiseStmt) {
	if len(b.funcDeclStack) > 0 {
		fd := b.funcDeclStack[len(b.funcDeclStack)-1]
		fd.RaiseStmts = append(fd.RaiseStmts, st)
	}
	if st.Exc == nil && b.nestedExceptDepth == 0 {
		b.report("bareRaiseOutsideExcept", "bare raise is only valid inside an except clause", syntax.NodeRange(st))
	}
	b.walkExpr(st.Exc)
	b.walkExpr(st.Cause)
	for _, ft := range b.finallyTargets {
		b.flow.addAntecedent(ft, b.current)
	}
	b.fanExceptTargets()
	b.current = Unreachable
}

func (b *binder) walkDel(st *syntax.DelStmt) {
	for _, target := range st.Targets {
		b.walkExpr(target)
		if ident, ok := target.(*syntax.Ident); ok {
			sym, _, _ := b.scope.LookUpRecursive(ident.Name)
			id := indeterminateSymbol
			if sym != nil {
				id = sym.ID()
			}
			b.current = b.flow.assignment(b.current, ident, id, true)
		} else {
			b.current = b.flow.assignment(b.current, target, indeterminateSymbol, true)
		}
		b.fanExceptTargets()
	}
}

func (b *binder) walkAssert(st *syntax.AssertStmt) {
	passLbl := b.flow.branchLabel()
	failLbl := b.flow.branchLabel()
	b.bindConditional(st.Cond, passLbl, failLbl)
	b.current = b.flow.finishLabel(failLbl)
	b.walkExpr(st.Msg)
	b.current = Unreachable
	b.current = b.flow.finishLabel(passLbl)
}

func (b *binder) walkGlobal(st *syntax.GlobalStmt) {
	global := b.scope.GlobalScope()
	for _, name := range st.Names {
		if b.scope.NonLocalBindings[name.Name] == BindingNonlocal {
			b.report("globalReassignment", "name \""+name.Name+"\" is already declared nonlocal in this scope", syntax.NodeRange(name))
			continue
		}
		if _, ok := b.scope.LookUp(name.Name); ok {
			b.report("globalReassignment", "name \""+name.Name+"\" is already bound in this scope before the global declaration", syntax.NodeRange(name))
		}
		b.scope.NonLocalBindings[name.Name] = BindingGlobal
		if _, ok := global.LookUp(name.Name); !ok {
			global.AddSymbol(b.syms, name.Name, InitiallyUnbound)
			b.rec.SymbolCreated()
		}
	}
}

func (b *binder) walkNonlocal(st *syntax.NonlocalStmt) {
	if b.scope.Kind == ScopeModule || b.scope.Kind == ScopeBuiltin {
		b.report("nonlocalAtModuleScope", "nonlocal declaration not allowed at module scope", syntax.NodeRange(st))
		return
	}
	for _, name := range st.Names {
		if b.scope.NonLocalBindings[name.Name] == BindingGlobal {
			b.report("globalReassignment", "name \""+name.Name+"\" is already declared global in this scope", syntax.NodeRange(name))
			continue
		}
		if _, ok := b.scope.LookUp(name.Name); ok {
			continue
		}
		_, foundScope, found := b.scope.Parent.LookUpRecursive(name.Name)
		if !found || foundScope.Kind == ScopeModule || foundScope.Kind == ScopeBuiltin {
			b.report("nonlocalNoBinding", "no binding for nonlocal \""+name.Name+"\" found in an enclosing function scope", syntax.NodeRange(name))
			continue
		}
		b.scope.NonLocalBindings[name.Name] = BindingNonlocal
	}
}

// ---------------------------------------------------------------------
// try/except/else/finally, with except-target fan-in

func (b *binder) walkTry(st *syntax.TryStmt) {
	exceptLabels := make([]*BranchLabel, len(st.Handlers))
	for i := range st.Handlers {
		exceptLabels[i] = b.flow.branchLabel()
		b.flow.addAntecedent(exceptLabels[i], b.current)
	}
	preFinally := b.flow.branchLabel()
	preFinallyReturnOrRaise := b.flow.branchLabel()

	hasFinally := len(st.Finally) > 0
	if hasFinally {
		b.finallyTargets = append(b.finallyTargets, preFinallyReturnOrRaise)
	}

	b.exceptTargets = append(b.exceptTargets, exceptLabels)
	b.walkStmts(st.Body)
	b.exceptTargets = b.exceptTargets[:len(b.exceptTargets)-1]

	anyReachable := !IsUnreachable(b.current)
	b.walkStmts(st.Orelse)
	anyReachable = anyReachable && !IsUnreachable(b.current)
	b.flow.addAntecedent(preFinally, b.current)

	for i, h := range st.Handlers {
		b.current = b.flow.finishLabel(exceptLabels[i])
		b.nestedExceptDepth++
		b.walkExceptHandler(h)
		b.nestedExceptDepth--
		b.flow.addAntecedent(preFinally, b.current)
		if !IsUnreachable(b.current) {
			anyReachable = true
		}
	}

	if hasFinally {
		b.finallyTargets = b.finallyTargets[:len(b.finallyTargets)-1]
	}

	if !hasFinally {
		b.current = b.flow.finishLabel(preFinally)
	} else {
		// The gate is finalized only now: every return/raise inside the
		// try, else, and except blocks has already fanned into
		// preFinallyReturnOrRaise by this point. It joins the finally
		// body's entry alongside ordinary fall-through.
		intercepted := b.flow.finishLabel(preFinallyReturnOrRaise)
		gate := b.flow.preFinallyGate(intercepted)
		if !IsUnreachable(intercepted) {
			b.flow.addAntecedent(preFinally, gate)
		}
		b.current = b.flow.finishLabel(preFinally)
		b.walkStmts(st.Finally)
		b.current = b.flow.postFinally(b.current, gate)
	}
	if !anyReachable {
		b.current = Unreachable
	}
}

func (b *binder) walkExceptHandler(h *syntax.ExceptHandler) {
	b.walkExpr(h.Type)
	if h.Name != nil {
		sym, existed := b.scope.LookUp(h.Name.Name)
		if !existed {
			sym = b.scope.AddSymbol(b.syms, h.Name.Name, 0)
			b.rec.SymbolCreated()
		}
		sym.addDeclaration(&VariableDeclaration{Rng: syntax.NodeRange(h.Name), Node: h.Name})
		b.current = b.flow.assignment(b.current, h.Name, sym.ID(), false)
	}
	b.walkStmts(h.Body)
	if h.Name != nil {
		sym, _ := b.scope.LookUp(h.Name.Name)
		if sym != nil {
			b.current = b.flow.assignment(b.current, h.Name, sym.ID(), true)
		}
	}
}

// ---------------------------------------------------------------------
// with

func (b *binder) walkWith(st *syntax.WithStmt) {
	for _, item := range st.Items {
		b.walkExpr(item.X)
		if item.Target != nil {
			b.preBindTargets(item.Target)
			b.addInferredDeclarations(item.Target, item.X, false)
			b.emitAssignmentFlow(item.Target)
		}
	}
	b.walkStmts(st.Body)
}

// ---------------------------------------------------------------------
// class

func (b *binder) walkClass(st *syntax.ClassDef) {
	for _, d := range st.Decorators {
		b.walkExpr(d.X)
	}
	for _, base := range st.Bases {
		b.walkExpr(base)
	}
	for _, kw := range st.Keywords {
		b.walkExpr(kw.Value)
	}

	sym, existed := b.scope.LookUp(st.Name.Name)
	if !existed {
		sym = b.scope.AddSymbol(b.syms, st.Name.Name, 0)
		b.rec.SymbolCreated()
	}
	decl := &ClassDeclaration{Rng: syntax.NodeRange(st), Node: st}
	sym.addDeclaration(decl)
	b.attach.AddDeclaration(st, decl)

	parent := nonClassAncestor(b.scope)
	classScope := NewScope(ScopeClass, parent, st)
	b.attach.SetScope(st, classScope)

	outer := b.scope
	b.scope = classScope
	b.current = b.flow.startNode()
	b.walkStmts(st.Body)
	b.attach.SetAfterFlowNode(st, b.current)
	b.attach.SetCodeFlowExpressions(st, classScope.ReferenceMap)
	b.scope = outer

	if _, ok := outer.LookUp(st.Name.Name); !ok {
		outer.AddSymbol(b.syms, st.Name.Name, InitiallyUnbound)
		b.rec.SymbolCreated()
	}
	b.current = b.flow.assignment(b.current, st.Name, sym.ID(), false)
}

// ---------------------------------------------------------------------
// function / lambda

func (b *binder) walkFunctionDef(st *syntax.FunctionDef) {
	sym, existed := b.scope.LookUp(st.Name.Name)
	if !existed {
		sym = b.scope.AddSymbol(b.syms, st.Name.Name, 0)
		b.rec.SymbolCreated()
	}
	fd := &FunctionDeclaration{
		Rng:      syntax.NodeRange(st),
		Node:     st,
		IsMethod: b.scope.Kind == ScopeClass,
		IsAsync:  st.IsAsync,
	}
	sym.addDeclaration(fd)
	b.attach.AddDeclaration(st, fd)

	for _, d := range st.Decorators {
		b.walkExpr(d.X)
	}
	b.walkParamDefaults(st.Params)
	if st.ReturnAnn != nil {
		b.walkExpr(st.ReturnAnn)
	}

	b.pushFunctionScope(st, fd, st.Params, st.Body, st.IsAsync)
	b.current = b.flow.assignment(b.current, st.Name, sym.ID(), false)
}

func (b *binder) walkLambda(x *syntax.LambdaExpr) {
	fd := &FunctionDeclaration{Rng: syntax.NodeRange(x), Node: x, IsMethod: false, IsAsync: x.IsAsync}
	b.attach.AddDeclaration(x, fd)
	b.walkParamDefaults(x.Params)
	b.pushFunctionScope(x, fd, x.Params, x.Body, x.IsAsync)
}

func (b *binder) walkParamDefaults(params []*syntax.Parameter) {
	for _, p := range params {
		if p.Annotation != nil {
			b.walkExpr(p.Annotation)
		}
		if p.Default != nil {
			b.walkExpr(p.Default)
		}
	}
}

// pushFunctionScope creates the function's own scope and enqueues its
// body as a deferred task. The scope, non-local-binding map, and
// reference map are created now (so the deferred callback finds them
// already installed) but the body is not walked until the queue drains.
func (b *binder) pushFunctionScope(node syntax.Node, fd *FunctionDeclaration, params []*syntax.Parameter, body []syntax.Stmt, isAsync bool) {
	parent := nonClassAncestor(b.scope)
	fnScope := NewScope(ScopeFunction, parent, node)
	b.attach.SetScope(node, fnScope)

	b.deferred.enqueue(fnScope, fnScope.NonLocalBindings, func() {
		savedScope, savedCurrent := b.scope, b.current
		savedBreak, savedContinue := b.breakTargets, b.continueTargets
		savedReturn := b.returnTarget
		savedFinally, savedExcept := b.finallyTargets, b.exceptTargets
		savedNestedExcept := b.nestedExceptDepth
		savedFuncStack, savedAsyncStack := b.funcDeclStack, b.asyncStack

		b.scope = fnScope
		b.breakTargets = nil
		b.continueTargets = nil
		b.finallyTargets = nil
		b.exceptTargets = nil
		b.nestedExceptDepth = 0
		b.funcDeclStack = append(append([]*FunctionDeclaration{}, savedFuncStack...), fd)
		b.asyncStack = append(append([]bool{}, savedAsyncStack...), isAsync)

		returnTarget := b.flow.branchLabel()
		b.returnTarget = returnTarget
		b.current = b.flow.startNode()

		for _, p := range params {
			b.bindParameter(p)
		}

		b.walkStmts(body)
		b.attach.SetAfterFlowNode(node, b.current)
		b.attach.SetCodeFlowExpressions(node, fnScope.ReferenceMap)

		b.flow.addAntecedent(returnTarget, b.current)
		fd.Node = node

		b.scope, b.current = savedScope, savedCurrent
		b.breakTargets, b.continueTargets = savedBreak, savedContinue
		b.returnTarget = savedReturn
		b.finallyTargets, b.exceptTargets = savedFinally, savedExcept
		b.nestedExceptDepth = savedNestedExcept
		b.funcDeclStack, b.asyncStack = savedFuncStack, savedAsyncStack
	})
}

func (b *binder) bindParameter(p *syntax.Parameter) {
	sym := b.scope.AddSymbol(b.syms, p.Name.Name, 0)
	b.rec.SymbolCreated()
	sym.addDeclaration(&ParameterDeclaration{Rng: syntax.NodeRange(p.Name), Param: p})
	b.current = b.flow.assignment(b.current, p.Name, sym.ID(), false)
}

func (b *binder) inAsyncContext() bool {
	return len(b.asyncStack) > 0 && b.asyncStack[len(b.asyncStack)-1]
}

func (b *binder) walkYield(x *syntax.YieldExpr) {
	if len(b.funcDeclStack) == 0 {
		b.report("yieldOutsideFunction", "yield is only valid inside a function", syntax.NodeRange(x))
	} else {
		fd := b.funcDeclStack[len(b.funcDeclStack)-1]
		fd.YieldStmts = append(fd.YieldStmts, x)
		fd.IsGenerator = true
	}
	b.walkExpr(x.X)
}

func (b *binder) walkYieldFrom(x *syntax.YieldFromExpr) {
	if len(b.funcDeclStack) == 0 {
		b.report("yieldOutsideFunction", "yield is only valid inside a function", syntax.NodeRange(x))
	} else {
		fd := b.funcDeclStack[len(b.funcDeclStack)-1]
		fd.YieldStmts = append(fd.YieldStmts, x)
		fd.IsGenerator = true
		if b.inAsyncContext() {
			b.report("yieldFromInAsync", "yield from is not allowed inside an async function", syntax.NodeRange(x))
		}
	}
	b.walkExpr(x.X)
}

// ---------------------------------------------------------------------
// comprehensions

func (b *binder) walkComprehension(x *syntax.Comprehension) {
	parent := b.scope
	compScope := NewScope(ScopeListComprehension, parent, x)
	b.attach.SetScope(x, compScope)
	outer := b.scope
	b.scope = compScope

	var newlyAdded []*syntax.Ident
	for _, clause := range x.Clauses {
		if clause.Kind == syntax.ForClause {
			newlyAdded = append(newlyAdded, b.preBindCompTargets(clause.Vars)...)
		}
	}

	for _, ident := range newlyAdded {
		if outerSym, _, ok := parent.LookUpRecursive(ident.Name); ok {
			sym, _ := compScope.LookUp(ident.Name)
			b.current = b.flow.assignmentAlias(b.current, outerSym.ID(), sym.ID())
		}
	}

	falseLabel := b.flow.branchLabel()
	for _, clause := range x.Clauses {
		switch clause.Kind {
		case syntax.ForClause:
			b.walkExpr(clause.X)
			b.emitAssignmentFlow(clause.Vars)
		case syntax.IfClause:
			passLbl := b.flow.branchLabel()
			b.bindConditional(clause.X, passLbl, falseLabel)
			b.current = b.flow.finishLabel(passLbl)
		}
	}
	b.walkExpr(x.Body)
	if x.Value != nil {
		b.walkExpr(x.Value)
	}
	b.flow.addAntecedent(falseLabel, b.current)
	b.current = b.flow.finishLabel(falseLabel)

	b.attach.SetCodeFlowExpressions(x, compScope.ReferenceMap)
	b.scope = outer
}

// preBindCompTargets binds each bare name in a for-clause's target
// pattern and returns the idents whose symbol did not already exist in
// this comprehension scope (the set that may need an AssignmentAlias).
func (b *binder) preBindCompTargets(target syntax.Expr) []*syntax.Ident {
	var added []*syntax.Ident
	var rec func(syntax.Expr)
	rec = func(e syntax.Expr) {
		switch t := e.(type) {
		case *syntax.Ident:
			if _, ok := b.scope.LookUp(t.Name); !ok {
				sym := b.scope.AddSymbol(b.syms, t.Name, InitiallyUnbound)
				b.rec.SymbolCreated()
				sym.addDeclaration(&VariableDeclaration{Rng: syntax.NodeRange(t), Node: t})
				added = append(added, t)
			}
		case *syntax.TupleExpr:
			for _, el := range t.List {
				rec(el)
			}
		case *syntax.ListExpr:
			for _, el := range t.List {
				rec(el)
			}
		case *syntax.StarredExpr:
			rec(t.X)
		}
	}
	rec(target)
	return added
}
