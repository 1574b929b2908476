package resolve

import (
	"testing"

	"github.com/pynder/pynder/syntax"
)

func bindExprStmt(t *testing.T, x syntax.Expr) []string {
	t.Helper()
	fi, sink := newTestFileInfo()
	module := &syntax.Module{Body: []syntax.Stmt{&syntax.ExprStmt{X: x}}}
	Bind(module, fi, syntax.NewAttachments())
	var rules []string
	for _, d := range sink.Diagnostics {
		rules = append(rules, d.Rule)
	}
	return rules
}

func TestWalkStringListFlagsUnsupportedEscape(t *testing.T) {
	sl := &syntax.StringList{Parts: []*syntax.StringPart{
		{TokenPos: syntax.Position{Line: 1, Col: 1}, Raw: `"\q"`, Value: "q"},
	}}
	rules := bindExprStmt(t, sl)
	if len(rules) != 1 || rules[0] != "escapeSequenceInString" {
		t.Fatalf("rules = %v, want [escapeSequenceInString]", rules)
	}
}

func TestWalkStringListAcceptsKnownEscapes(t *testing.T) {
	sl := &syntax.StringList{Parts: []*syntax.StringPart{
		{TokenPos: syntax.Position{Line: 1, Col: 1}, Raw: `"a\n\t\\b"`, Value: "a\n\t\\b"},
	}}
	if rules := bindExprStmt(t, sl); len(rules) != 0 {
		t.Fatalf("unexpected diagnostics: %v", rules)
	}
}

func TestWalkStringListFlagsEmptyFormatExpression(t *testing.T) {
	sl := &syntax.StringList{Parts: []*syntax.StringPart{
		{TokenPos: syntax.Position{Line: 1, Col: 1}, Raw: `f"{}"`, IsFString: true},
	}}
	rules := bindExprStmt(t, sl)
	if len(rules) != 1 || rules[0] != "formatStringError" {
		t.Fatalf("rules = %v, want [formatStringError]", rules)
	}
}

func TestWalkStringListFlagsUnterminatedFormatExpression(t *testing.T) {
	sl := &syntax.StringList{Parts: []*syntax.StringPart{
		{TokenPos: syntax.Position{Line: 1, Col: 1}, Raw: `f"{x"`, IsFString: true,
			FormatExprs: []syntax.Expr{ident("x")}},
	}}
	rules := bindExprStmt(t, sl)
	if len(rules) != 1 || rules[0] != "formatStringError" {
		t.Fatalf("rules = %v, want [formatStringError]", rules)
	}
}

func TestWalkStringListDoubledBracesAreLiteral(t *testing.T) {
	sl := &syntax.StringList{Parts: []*syntax.StringPart{
		{TokenPos: syntax.Position{Line: 1, Col: 1}, Raw: `f"{{x}}"`, IsFString: true},
	}}
	if rules := bindExprStmt(t, sl); len(rules) != 0 {
		t.Fatalf("unexpected diagnostics: %v", rules)
	}
}

func TestWalkStringListWalksFormatExprsForNarrowing(t *testing.T) {
	x := ident("x")
	sl := &syntax.StringList{Parts: []*syntax.StringPart{
		{TokenPos: syntax.Position{Line: 1, Col: 1}, Raw: `f"{x}"`, IsFString: true,
			FormatExprs: []syntax.Expr{x}},
	}}
	fi, sink := newTestFileInfo()
	module := &syntax.Module{Body: []syntax.Stmt{
		&syntax.AssignStmt{LHS: []syntax.Expr{ident("x")}, RHS: &syntax.Literal{Kind: syntax.IntLit, Value: int64(1)}},
		&syntax.ExprStmt{X: sl},
	}}
	res := Bind(module, fi, syntax.NewAttachments())
	if sink.HasErrors() {
		t.Fatalf("unexpected diagnostics: %v", sink.Diagnostics)
	}
	if !res.ModuleScope.ReferenceMap[ReferenceKey("x")] {
		t.Fatalf("expected the f-string's embedded expression to record a reference key for %q", "x")
	}
}
