package resolve

import "testing"

func TestLookUpRecursiveSkipsClassAfterFunction(t *testing.T) {
	syms := newSymbolAllocator()
	module := NewScope(ScopeModule, nil, nil)
	class := NewScope(ScopeClass, module, nil)
	class.AddSymbol(syms, "shared", 0)
	fn := NewScope(ScopeFunction, class, nil)

	// A function nested directly inside a class cannot see the class's
	// own members: module is skipped-to, and "shared" isn't there.
	if _, _, ok := fn.LookUpRecursive("shared"); ok {
		t.Fatalf("expected class member to be invisible from a nested function")
	}
}

func TestLookUpRecursiveComprehensionSeesEnclosingClass(t *testing.T) {
	syms := newSymbolAllocator()
	module := NewScope(ScopeModule, nil, nil)
	class := NewScope(ScopeClass, module, nil)
	class.AddSymbol(syms, "shared", 0)
	comp := NewScope(ScopeListComprehension, class, nil)

	// A comprehension's own outermost iterable is resolved before any
	// function boundary is crossed, so it can see the class body.
	if _, _, ok := comp.LookUpRecursive("shared"); !ok {
		t.Fatalf("expected comprehension to see its immediately enclosing class")
	}
}

func TestLookUpRecursiveLambdaInComprehensionInClass(t *testing.T) {
	syms := newSymbolAllocator()
	module := NewScope(ScopeModule, nil, nil)
	class := NewScope(ScopeClass, module, nil)
	class.AddSymbol(syms, "classAttr", 0)
	comp := NewScope(ScopeListComprehension, class, nil)
	comp.AddSymbol(syms, "x", 0)
	lambda := NewScope(ScopeFunction, comp, nil)

	if _, _, ok := lambda.LookUpRecursive("x"); !ok {
		t.Fatalf("expected lambda to see the comprehension's loop variable")
	}
	if _, _, ok := lambda.LookUpRecursive("classAttr"); ok {
		t.Fatalf("expected lambda to NOT see the class body's own member")
	}
}

func TestNonClassAncestorSkipsClassChain(t *testing.T) {
	module := NewScope(ScopeModule, nil, nil)
	outerClass := NewScope(ScopeClass, module, nil)
	innerClass := NewScope(ScopeClass, outerClass, nil)

	if got := nonClassAncestor(innerClass); got != module {
		t.Fatalf("expected module scope, got kind %v", got.Kind)
	}
}

func TestAddSymbolMarksClassMember(t *testing.T) {
	syms := newSymbolAllocator()
	class := NewScope(ScopeClass, nil, nil)
	sym := class.AddSymbol(syms, "attr", 0)
	if !sym.Flags.Has(ClassMember) {
		t.Fatalf("expected ClassMember flag on a symbol added to a class scope")
	}
}

func TestGlobalScopeFindsModuleAncestor(t *testing.T) {
	module := NewScope(ScopeModule, nil, nil)
	fn := NewScope(ScopeFunction, module, nil)
	nested := NewScope(ScopeFunction, fn, nil)
	if nested.GlobalScope() != module {
		t.Fatalf("expected GlobalScope to find the module scope")
	}
}
