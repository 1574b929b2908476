package resolve

import (
	"testing"

	"github.com/pynder/pynder/syntax"
)

func ident(name string) *syntax.Ident { return &syntax.Ident{Name: name} }

func noneLit() *syntax.Literal { return &syntax.Literal{Kind: syntax.NoneLit} }

func TestClassifyNarrowingBareName(t *testing.T) {
	res := classifyNarrowing(ident("x"))
	if !res.narrows || len(res.keys) != 1 || res.keys[0] != "x" {
		t.Fatalf("got %+v", res)
	}
}

func TestClassifyNarrowingAttributeChain(t *testing.T) {
	e := &syntax.AttributeExpr{X: ident("a"), Name: ident("b")}
	res := classifyNarrowing(e)
	if !res.narrows || res.keys[0] != "a.b" {
		t.Fatalf("got %+v", res)
	}
}

func TestClassifyNarrowingIsNone(t *testing.T) {
	e := &syntax.CompareExpr{Operands: []syntax.Expr{ident("x"), noneLit()}, Ops: []syntax.Token{syntax.IS}}
	res := classifyNarrowing(e)
	if !res.narrows || res.keys[0] != "x" {
		t.Fatalf("got %+v", res)
	}
}

func TestClassifyNarrowingEqNoneReversed(t *testing.T) {
	e := &syntax.CompareExpr{Operands: []syntax.Expr{noneLit(), ident("x")}, Ops: []syntax.Token{syntax.EQEQ}}
	res := classifyNarrowing(e)
	if !res.narrows || res.keys[0] != "x" {
		t.Fatalf("got %+v", res)
	}
}

func TestClassifyNarrowingTypeIs(t *testing.T) {
	call := &syntax.CallExpr{Fn: ident("type"), Args: []syntax.Expr{ident("x")}}
	e := &syntax.CompareExpr{Operands: []syntax.Expr{call, ident("Y")}, Ops: []syntax.Token{syntax.IS}}
	res := classifyNarrowing(e)
	if !res.narrows || res.keys[0] != "x" {
		t.Fatalf("got %+v", res)
	}
}

func TestClassifyNarrowingIn(t *testing.T) {
	e := &syntax.BinaryExpr{X: ident("x"), Op: syntax.IN, Y: ident("xs")}
	res := classifyNarrowing(e)
	if !res.narrows || res.keys[0] != "x" {
		t.Fatalf("got %+v", res)
	}
}

func TestClassifyNarrowingNot(t *testing.T) {
	e := &syntax.UnaryExpr{Op: syntax.NOT, X: ident("x")}
	res := classifyNarrowing(e)
	if !res.narrows || res.keys[0] != "x" {
		t.Fatalf("got %+v", res)
	}
}

func TestClassifyNarrowingIsinstance(t *testing.T) {
	e := &syntax.CallExpr{Fn: ident("isinstance"), Args: []syntax.Expr{ident("x"), ident("int")}}
	res := classifyNarrowing(e)
	if !res.narrows || res.keys[0] != "x" {
		t.Fatalf("got %+v", res)
	}
}

func TestClassifyNarrowingUnsupportedShape(t *testing.T) {
	e := &syntax.BinaryExpr{X: ident("x"), Op: syntax.PLUS, Y: ident("y")}
	res := classifyNarrowing(e)
	if res.narrows {
		t.Fatalf("expected no narrowing, got %+v", res)
	}
}

func TestClassifyNarrowingWalrus(t *testing.T) {
	e := &syntax.AssignExpr{Name: ident("y"), Value: ident("x")}
	res := classifyNarrowing(e)
	if !res.narrows || res.keys[0] != "y" {
		t.Fatalf("got %+v", res)
	}
}

func TestStaticBoolValue(t *testing.T) {
	v, ok := staticBoolValue(&syntax.Literal{Kind: syntax.BoolLit, Value: true})
	if !ok || !v {
		t.Fatalf("expected true, ok, got %v %v", v, ok)
	}
	v, ok = staticBoolValue(noneLit())
	if !ok || v {
		t.Fatalf("expected false for None, got %v %v", v, ok)
	}
	_, ok = staticBoolValue(ident("x"))
	if ok {
		t.Fatalf("expected no static value for a bare name")
	}
}
