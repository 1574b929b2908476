package resolve

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/pynder/pynder/diag"
	"github.com/pynder/pynder/syntax"
)

func newTestFileInfo() (*FileInfo, *diag.List) {
	sink := diag.NewList()
	return &FileInfo{
		FilePath:   "m.py",
		ModuleName: "m",
		Env:        ExecutionEnvironment{LangMajor: 3, LangMinor: 11},
		Diagnostics: sink,
	}, sink
}

// x = 1
// if x:
//     y = 2
// z = 3
//
// The assignment to y only reaches z's flow node through the join point
// after the if, so z's antecedent must have two predecessors once the
// if's branch label is resolved; here we only check that binding
// completes and that every name ends up declared exactly once.
func TestBindModuleLevelAssignAndIf(t *testing.T) {
	xAssign := &syntax.AssignStmt{LHS: []syntax.Expr{ident("x")}, RHS: &syntax.Literal{Kind: syntax.IntLit, Value: int64(1)}}
	yAssign := &syntax.AssignStmt{LHS: []syntax.Expr{ident("y")}, RHS: &syntax.Literal{Kind: syntax.IntLit, Value: int64(2)}}
	ifStmt := &syntax.IfStmt{Cond: ident("x"), Body: []syntax.Stmt{&syntax.AssignStmt{LHS: yAssign.LHS, RHS: yAssign.RHS}}}
	zAssign := &syntax.AssignStmt{LHS: []syntax.Expr{ident("z")}, RHS: &syntax.Literal{Kind: syntax.IntLit, Value: int64(3)}}

	module := &syntax.Module{Body: []syntax.Stmt{xAssign, ifStmt, zAssign}}
	fi, sink := newTestFileInfo()
	attach := syntax.NewAttachments()

	res := Bind(module, fi, attach)

	if sink.HasErrors() {
		t.Fatalf("unexpected diagnostics: %v", sink.Diagnostics)
	}

	want := []string{"x", "y", "z"}
	var got []string
	for _, name := range res.ModuleScope.Names() {
		if !strings.HasPrefix(name, "__") {
			got = append(got, name)
		}
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("module scope names mismatch (-want +got):\n%s", diff)
	}

	for _, name := range want {
		sym, _ := res.ModuleScope.LookUp(name)
		if len(sym.Declarations()) != 1 {
			t.Fatalf("expected exactly one declaration for %q, got %d", name, len(sym.Declarations()))
		}
	}

	after, ok := attach.AfterFlowNode(module)
	if !ok {
		t.Fatalf("expected an after-flow-node to be recorded for the module")
	}
	if IsUnreachable(after.(FlowNode)) {
		t.Fatalf("expected the module's exit flow to be reachable")
	}
}

// def f():
//     yield 1
//     return
//
// The return following an unconditional yield is unreachable only if the
// yield itself is unreachable; here both are live, so binding should
// mark the function as a generator without flagging anything.
func TestBindFunctionMarksGenerator(t *testing.T) {
	fn := &syntax.FunctionDef{
		Name: ident("f"),
		Function: syntax.Function{
			Body: []syntax.Stmt{
				&syntax.ExprStmt{X: &syntax.YieldExpr{X: &syntax.Literal{Kind: syntax.IntLit, Value: int64(1)}}},
				&syntax.ReturnStmt{},
			},
		},
	}
	module := &syntax.Module{Body: []syntax.Stmt{fn}}
	fi, sink := newTestFileInfo()
	attach := syntax.NewAttachments()

	Bind(module, fi, attach)

	if sink.HasErrors() {
		t.Fatalf("unexpected diagnostics: %v", sink.Diagnostics)
	}

	declsRaw := attach.Declarations(fn)
	if len(declsRaw) == 0 {
		t.Fatalf("expected at least one declaration attached to the function definition")
	}
	var found *FunctionDeclaration
	for _, d := range declsRaw {
		if fd, ok := d.(*FunctionDeclaration); ok {
			found = fd
		}
	}
	if found == nil {
		t.Fatalf("expected a FunctionDeclaration among %v", declsRaw)
	}
	if !found.IsGenerator {
		t.Fatalf("expected the function to be classified as a generator")
	}
}

// try:
//     risky()
// except ValueError:
//     pass
// except TypeError:
//     pass
//
// A call inside the try body must fan into every except handler's label,
// not just the nearest one, since any statement in the body may raise
// before the next one executes.
func TestBindExceptTargetFanIn(t *testing.T) {
	call := &syntax.ExprStmt{X: &syntax.CallExpr{Fn: ident("risky")}}
	handler1 := &syntax.ExceptHandler{Type: ident("ValueError"), Body: []syntax.Stmt{&syntax.PassStmt{}}}
	handler2 := &syntax.ExceptHandler{Type: ident("TypeError"), Body: []syntax.Stmt{&syntax.PassStmt{}}}
	tryStmt := &syntax.TryStmt{
		Body:     []syntax.Stmt{call},
		Handlers: []*syntax.ExceptHandler{handler1, handler2},
	}
	module := &syntax.Module{Body: []syntax.Stmt{tryStmt}}
	fi, sink := newTestFileInfo()
	attach := syntax.NewAttachments()

	res := Bind(module, fi, attach)

	if sink.HasErrors() {
		t.Fatalf("unexpected diagnostics: %v", sink.Diagnostics)
	}
	if res.ModuleScope == nil {
		t.Fatalf("expected a module scope")
	}

	flowRaw, ok := attach.FlowNode(call)
	if !ok {
		t.Fatalf("expected a flow node attached to the call statement")
	}
	if IsUnreachable(flowRaw.(FlowNode)) {
		t.Fatalf("expected a reachable flow node entering the call statement")
	}

	for _, h := range tryStmt.Handlers {
		handlerFlow, ok := attach.FlowNode(h.Body[0])
		if !ok {
			t.Fatalf("expected a flow node attached to each handler's body")
		}
		if IsUnreachable(handlerFlow.(FlowNode)) {
			t.Fatalf("expected each except handler to be reachable via the fanned-in call")
		}
		lbl, ok := handlerFlow.(FlowNode).(*BranchLabel)
		if !ok {
			t.Fatalf("expected each handler to start at a join of the pre-try and call nodes, got %T", handlerFlow)
		}
		fannedIn := false
		for _, id := range lbl.Antecedents {
			if id != flowRaw.(FlowNode).ID() {
				fannedIn = true
			}
		}
		if !fannedIn {
			t.Fatalf("expected the call node among each handler label's antecedents, got %v", lbl.Antecedents)
		}
	}
}

// x = None
// if x is not None:
//     y = x
//
// The condition narrows "x" on its true branch; the narrowed reference
// key must show up in the enclosing execution scope's reference map so a
// later narrowing pass can find it.
func TestBindConditionRecordsReferenceKey(t *testing.T) {
	xAssign := &syntax.AssignStmt{LHS: []syntax.Expr{ident("x")}, RHS: noneLit()}
	cond := &syntax.CompareExpr{
		Operands: []syntax.Expr{ident("x"), noneLit()},
		Ops:      []syntax.Token{syntax.ISNOT},
	}
	yAssign := &syntax.AssignStmt{LHS: []syntax.Expr{ident("y")}, RHS: ident("x")}
	ifStmt := &syntax.IfStmt{Cond: cond, Body: []syntax.Stmt{yAssign}}

	module := &syntax.Module{Body: []syntax.Stmt{xAssign, ifStmt}}
	fi, sink := newTestFileInfo()
	attach := syntax.NewAttachments()

	res := Bind(module, fi, attach)

	if sink.HasErrors() {
		t.Fatalf("unexpected diagnostics: %v", sink.Diagnostics)
	}
	if !res.ModuleScope.ReferenceMap[ReferenceKey("x")] {
		t.Fatalf("expected \"x\" to be recorded as a narrowed reference key")
	}
}
