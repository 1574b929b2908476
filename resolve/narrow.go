package resolve

import (
	"strings"

	"github.com/pynder/pynder/syntax"
)

// A ReferenceKey is the canonical string identity of a name or dotted
// member-access chain. Two expressions narrow together iff their keys
// are equal.
type ReferenceKey string

// referenceKey computes expr's reference key, or "" if expr is not a
// supported reference shape (a bare name or a chain of attribute
// accesses rooted at one).
func referenceKey(expr syntax.Expr) (ReferenceKey, bool) {
	switch e := expr.(type) {
	case *syntax.Ident:
		return ReferenceKey(e.Name), true
	case *syntax.AttributeExpr:
		base, ok := referenceKey(e.X)
		if !ok {
			return "", false
		}
		var b strings.Builder
		b.WriteString(string(base))
		b.WriteByte('.')
		b.WriteString(e.Name.Name)
		return ReferenceKey(b.String()), true
	default:
		return "", false
	}
}

// isNullConstant reports whether expr is a literal None.
func isNullConstant(expr syntax.Expr) bool {
	lit, ok := expr.(*syntax.Literal)
	return ok && lit.Kind == syntax.NoneLit
}

// narrowResult is what the narrowing classifier harvests from a
// supported expression shape: whether it narrows at all, and the
// reference keys it contributes.
type narrowResult struct {
	narrows bool
	keys    []ReferenceKey
}

func noNarrow() narrowResult { return narrowResult{} }

func single(k ReferenceKey, ok bool) narrowResult {
	if !ok {
		return noNarrow()
	}
	return narrowResult{narrows: true, keys: []ReferenceKey{k}}
}

// classifyNarrowing is a pure predicate on expression shape that also
// harvests the reference keys a true classification contributes. It is
// reused, unmodified, by the type-annotation visitor so annotated names
// are pre-registered as narrowable even with no branch present.
func classifyNarrowing(expr syntax.Expr) narrowResult {
	switch e := expr.(type) {
	case *syntax.Ident, *syntax.AttributeExpr:
		k, ok := referenceKey(e)
		return single(k, ok)

	case *syntax.AssignExpr:
		// Walrus expressions contribute the target name; an assignment
		// always narrows because it always rebinds.
		return narrowResult{narrows: true, keys: []ReferenceKey{ReferenceKey(e.Name.Name)}}

	case *syntax.CompareExpr:
		return classifyCompare(e)

	case *syntax.BinaryExpr:
		if e.Op == syntax.IN || e.Op == syntax.NOTIN {
			return classifyOperand(e.X)
		}
		return noNarrow()

	case *syntax.UnaryExpr:
		if e.Op == syntax.NOT {
			inner := classifyNarrowing(e.X)
			if inner.narrows {
				return narrowResult{narrows: true, keys: inner.keys}
			}
		}
		return noNarrow()

	case *syntax.CallExpr:
		return classifyCall(e)

	default:
		return noNarrow()
	}
}

// classifyOperand narrows a bare operand (used by `in`/`not in`, whose
// left side narrows if it is itself a supported reference).
func classifyOperand(x syntax.Expr) narrowResult {
	k, ok := referenceKey(x)
	return single(k, ok)
}

// classifyCompare handles `is`/`is not`/`==`/`!=` against None (narrows
// the other side), `is`/`is not` between arbitrary operands (narrows
// both sides), and `type(X) is Y` (narrows X). A chained comparison
// (more than two operands) is not classified at all.
func classifyCompare(e *syntax.CompareExpr) narrowResult {
	if len(e.Operands) != 2 || len(e.Ops) != 1 {
		return noNarrow()
	}
	op := e.Ops[0]
	lhs, rhs := e.Operands[0], e.Operands[1]

	switch op {
	case syntax.IS, syntax.ISNOT:
		if call, ok := lhs.(*syntax.CallExpr); ok {
			if fn, ok := call.Fn.(*syntax.Ident); ok && fn.Name == "type" && len(call.Args) == 1 {
				return classifyOperand(call.Args[0])
			}
		}
		if isNullConstant(rhs) {
			return classifyOperand(lhs)
		}
		if isNullConstant(lhs) {
			return classifyOperand(rhs)
		}
		lk, lok := referenceKey(lhs)
		rk, rok := referenceKey(rhs)
		var keys []ReferenceKey
		if lok {
			keys = append(keys, lk)
		}
		if rok {
			keys = append(keys, rk)
		}
		if len(keys) == 0 {
			return noNarrow()
		}
		return narrowResult{narrows: true, keys: keys}

	case syntax.EQEQ, syntax.NEQ:
		if isNullConstant(rhs) {
			return classifyOperand(lhs)
		}
		if isNullConstant(lhs) {
			return classifyOperand(rhs)
		}
		return noNarrow()

	default:
		return noNarrow()
	}
}

// staticBoolValue returns the compile-time boolean value of expr when it
// is a literal bool, None, or a non-empty/empty literal list or tuple.
// condition() consults it, which is how If and While arms are pruned.
// Its result is advisory: callers must keep the graph well-formed even
// when this disagrees with later type-based narrowing.
func staticBoolValue(expr syntax.Expr) (bool, bool) {
	switch e := expr.(type) {
	case *syntax.Literal:
		switch e.Kind {
		case syntax.BoolLit:
			if v, ok := e.Value.(bool); ok {
				return v, true
			}
		case syntax.NoneLit:
			return false, true
		}
	case *syntax.ListExpr:
		return len(e.List) != 0, true
	case *syntax.TupleExpr:
		return len(e.List) != 0, true
	}
	return false, false
}

// classifyCall handles isinstance(x, T), issubclass(x, T), and
// callable(x), each narrowing their first argument.
func classifyCall(e *syntax.CallExpr) narrowResult {
	fn, ok := e.Fn.(*syntax.Ident)
	if !ok {
		return noNarrow()
	}
	switch fn.Name {
	case "isinstance", "issubclass":
		if len(e.Args) != 2 {
			return noNarrow()
		}
	case "callable":
		if len(e.Args) != 1 {
			return noNarrow()
		}
	default:
		return noNarrow()
	}
	return classifyOperand(e.Args[0])
}
