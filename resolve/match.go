package resolve

import "github.com/pynder/pynder/syntax"

// walkMatch binds a match statement. Each case is evaluated against the
// same pre-match flow node, mirroring how the walker treats if/elif
// chains. Patterns produce no Condition nodes, since at this stage
// nothing evaluates pattern shapes against a runtime value; only a
// case's guard goes through bindConditional. Unless the last case is an
// unguarded capture or wildcard, the pre-match node also joins the
// post-match label for the path on which no case matches.
func (b *binder) walkMatch(st *syntax.MatchStmt) {
	b.walkExpr(st.Subject)
	preMatch := b.current
	postMatch := b.flow.branchLabel()
	anyReachable := false

	for _, c := range st.Cases {
		b.current = preMatch
		b.bindPattern(c.Pattern)
		if c.Guard != nil {
			passLbl := b.flow.branchLabel()
			failLbl := b.flow.branchLabel()
			b.bindConditional(c.Guard, passLbl, failLbl)
			b.current = b.flow.finishLabel(passLbl)
		}
		b.walkStmts(c.Body)
		b.flow.addAntecedent(postMatch, b.current)
		if !IsUnreachable(b.current) {
			anyReachable = true
		}
	}

	fallsThrough := true
	if n := len(st.Cases); n > 0 && st.Cases[n-1].Guard == nil {
		switch st.Cases[n-1].Pattern.(type) {
		case *syntax.CapturePattern, *syntax.WildcardPattern:
			fallsThrough = false
		}
	}
	if fallsThrough {
		b.flow.addAntecedent(postMatch, preMatch)
		if !IsUnreachable(preMatch) {
			anyReachable = true
		}
	}

	b.current = b.flow.finishLabel(postMatch)
	if !anyReachable {
		b.current = Unreachable
	}
}

// bindPattern binds every name a capture pattern introduces and walks
// every sub-expression a value/class pattern consults.
func (b *binder) bindPattern(p syntax.Pattern) {
	switch pat := p.(type) {
	case *syntax.CapturePattern:
		b.bindCaptureName(pat.Name)
	case *syntax.WildcardPattern:
		// binds nothing
	case *syntax.SequencePattern:
		for _, el := range pat.Elts {
			b.bindPattern(el)
		}
	case *syntax.ClassPattern:
		b.walkExpr(pat.Cls)
		for _, el := range pat.Positional {
			b.bindPattern(el)
		}
		for _, el := range pat.Keywords {
			b.bindPattern(el)
		}
	case *syntax.ValuePattern:
		b.walkExpr(pat.X)
	case *syntax.OrPattern:
		for _, alt := range pat.Alternatives {
			b.bindPattern(alt)
		}
	case *syntax.AsPattern:
		b.bindPattern(pat.Inner)
		b.bindCaptureName(pat.Name)
	}
}

func (b *binder) bindCaptureName(name *syntax.Ident) {
	sym, existed := b.scope.LookUp(name.Name)
	if !existed {
		sym = b.scope.AddSymbol(b.syms, name.Name, InitiallyUnbound)
		b.rec.SymbolCreated()
	}
	sym.addDeclaration(&VariableDeclaration{Rng: syntax.NodeRange(name), Node: name})
	b.current = b.flow.assignment(b.current, name, sym.ID(), false)
}
