package resolve

import "github.com/pynder/pynder/syntax"

// specialTypingStubNames are the handful of names typeshed's typing
// stub defines through assignments the binder should not treat as
// ordinary module-level variables — they are bound as
// SpecialBuiltInClassDeclaration targets instead.
var specialTypingStubNames = map[string]bool{
	"Tuple": true, "Generic": true, "Protocol": true, "Callable": true,
	"Type": true, "ClassVar": true, "Final": true, "Literal": true,
	"Annotated": true, "TypeAlias": true, "ParamSpec": true,
	"Concatenate": true, "TypeGuard": true, "Self": true, "Never": true,
	"Unpack": true, "Required": true, "NotRequired": true, "LiteralString": true,
}

// isSpecialTypingStubTarget reports whether target is a bare name from
// specialTypingStubNames, assigned within a typing stub file. Outside a
// typing stub these names are ordinary identifiers.
func (b *binder) isSpecialTypingStubTarget(target syntax.Expr) bool {
	if !b.fi.IsTypingStubFile {
		return false
	}
	ident, ok := target.(*syntax.Ident)
	if !ok {
		return false
	}
	return specialTypingStubNames[ident.Name]
}

// bindSpecialBuiltInClass binds name as a SpecialBuiltInClassDeclaration
// rather than an ordinary VariableDeclaration: typeshed's typing stub
// defines these names through assignment, but a consumer resolving them
// needs to recognize the built-in generic/special form itself, not
// infer a type from whatever expression happens to sit on the RHS.
func (b *binder) bindSpecialBuiltInClass(name *syntax.Ident) {
	sym, existed := b.scope.LookUp(name.Name)
	if !existed {
		sym = b.scope.AddSymbol(b.syms, name.Name, 0)
		b.rec.SymbolCreated()
	}
	sym.addDeclaration(&SpecialBuiltInClassDeclaration{Rng: syntax.NodeRange(name)})
	b.current = b.flow.assignment(b.current, name, sym.ID(), false)
	b.fanExceptTargets()
}

// isFinalAnnotation reports whether ann is `Final` or `Final[T]`,
// returning the inner type node T when subscripted.
func isFinalAnnotation(ann syntax.Expr) (bool, syntax.Expr) {
	switch a := ann.(type) {
	case *syntax.Ident:
		if a.Name == "Final" {
			return true, nil
		}
	case *syntax.AttributeExpr:
		if a.Name.Name == "Final" {
			return true, nil
		}
	case *syntax.SubscriptExpr:
		if isFinalName(a.X) {
			return true, a.Index
		}
	}
	return false, nil
}

func isFinalName(e syntax.Expr) bool {
	switch a := e.(type) {
	case *syntax.Ident:
		return a.Name == "Final"
	case *syntax.AttributeExpr:
		return a.Name.Name == "Final"
	}
	return false
}

// isTypeAliasAnnotation reports whether ann is the bare `TypeAlias`
// annotation marker (as opposed to a subscripted generic type).
func isTypeAliasAnnotation(ann syntax.Expr) bool {
	switch a := ann.(type) {
	case *syntax.Ident:
		return a.Name == "TypeAlias"
	case *syntax.AttributeExpr:
		return a.Name.Name == "TypeAlias"
	}
	return false
}

// isTypeAliasCall reports whether rhs is a call to TypeAliasType(name,
// value, ...), the explicit-alias constructor some stubs use in place
// of the `type` statement, returning the aliased name and its value
// expression.
func isTypeAliasCall(rhs syntax.Expr) (*syntax.Ident, syntax.Expr, bool) {
	call, ok := rhs.(*syntax.CallExpr)
	if !ok {
		return nil, nil, false
	}
	fn, ok := call.Fn.(*syntax.Ident)
	if !ok || fn.Name != "TypeAliasType" || len(call.Args) == 0 {
		return nil, nil, false
	}
	sl, ok := call.Args[0].(*syntax.StringList)
	if !ok || len(sl.Parts) == 0 {
		return nil, nil, false
	}
	name := &syntax.Ident{NamePos: sl.Parts[0].TokenPos, Name: sl.Parts[0].Value}
	var value syntax.Expr
	if len(call.Args) > 1 {
		value = call.Args[1]
	}
	return name, value, true
}

// isConstantLookingName reports whether name looks like an ALL_CAPS
// module-level constant: every letter is uppercase and at least one
// letter is present.
func isConstantLookingName(name string) bool {
	hasLetter := false
	for _, r := range name {
		if r >= 'a' && r <= 'z' {
			return false
		}
		if r >= 'A' && r <= 'Z' {
			hasLetter = true
		}
	}
	return hasLetter
}
