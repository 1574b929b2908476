package resolve

import (
	"sort"

	"github.com/pynder/pynder/syntax"
)

// ScopeKind tags the closed set of lexical scope kinds the binder creates.
type ScopeKind uint8

const (
	ScopeBuiltin ScopeKind = iota
	ScopeModule
	ScopeClass
	ScopeFunction
	ScopeListComprehension
)

func (k ScopeKind) String() string {
	switch k {
	case ScopeBuiltin:
		return "builtin"
	case ScopeModule:
		return "module"
	case ScopeClass:
		return "class"
	case ScopeFunction:
		return "function"
	case ScopeListComprehension:
		return "comprehension"
	default:
		return "?"
	}
}

// IsExecutionScope reports whether names bound in a scope of this kind
// correspond to runtime name resolution (module, function, builtin).
// Classes and comprehensions are lexical scopes but not execution scopes.
func (k ScopeKind) IsExecutionScope() bool {
	return k == ScopeBuiltin || k == ScopeModule || k == ScopeFunction
}

// NonLocalBinding records what a `global`/`nonlocal` statement declared
// about a name within the scope that contains the statement.
type NonLocalBinding uint8

const (
	BindingNone NonLocalBinding = iota
	BindingGlobal
	BindingNonlocal
)

// A Scope is one node of the binder's lexical scope tree. Once a scope is
// sealed (the walker leaves it), its symbol table only grows through
// deferred binding tasks tied to that scope — never through any other
// scope's walk.
type Scope struct {
	Kind   ScopeKind
	Parent *Scope
	Node   syntax.Node // the AST node that introduced this scope, if any

	symbols map[string]*Symbol

	// ReferenceMap records the reference keys harvested for Condition
	// nodes, the bare-name targets of assignment, augmented and annotated
	// assignment, for, with and comprehension targets, every bare name
	// read, and the names a wildcard import binds. The Assignment nodes
	// for imports, walrus targets, def/class names, parameters, except
	// and match captures, and del targets record no key of their own.
	// Only populated on execution scopes.
	ReferenceMap map[ReferenceKey]bool

	// NonLocalBindings records, for this scope only, which names a
	// global/nonlocal statement declared and how.
	NonLocalBindings map[string]NonLocalBinding
}

// NewScope creates a scope of the given kind with the given parent
// (nil for the outermost builtins scope).
func NewScope(kind ScopeKind, parent *Scope, node syntax.Node) *Scope {
	s := &Scope{
		Kind:             kind,
		Parent:           parent,
		Node:             node,
		symbols:          make(map[string]*Symbol),
		NonLocalBindings: make(map[string]NonLocalBinding),
	}
	if kind.IsExecutionScope() {
		s.ReferenceMap = make(map[ReferenceKey]bool)
	}
	return s
}

// LookUp returns the symbol defined directly in this scope, if any.
func (s *Scope) LookUp(name string) (*Symbol, bool) {
	sym, ok := s.symbols[name]
	return sym, ok
}

// AddSymbol creates and installs a new symbol named name in this scope.
// It is the caller's responsibility to check LookUp first if a symbol
// might already exist — AddSymbol always creates a fresh one.
func (s *Scope) AddSymbol(table *symbolTable, name string, flags SymbolFlags) *Symbol {
	if s.Kind == ScopeClass {
		flags |= ClassMember
	}
	sym := table.alloc(name, flags)
	s.symbols[name] = sym
	return sym
}

// Names returns every name bound directly in this scope, sorted.
func (s *Scope) Names() []string {
	names := make([]string, 0, len(s.symbols))
	for name := range s.symbols {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// GlobalScope returns the nearest ancestor of kind Module or Builtin,
// including s itself.
func (s *Scope) GlobalScope() *Scope {
	for cur := s; cur != nil; cur = cur.Parent {
		if cur.Kind == ScopeModule || cur.Kind == ScopeBuiltin {
			return cur
		}
	}
	return nil
}

// LookUpRecursive walks parent pointers starting at s, returning the
// first symbol found together with the scope it was found in.
//
// Class scopes are not part of the lexical closure chain: once the walk
// has passed through a Function scope (including s itself), any Class
// scope encountered further up is skipped — its own parent is consulted
// instead. A class scope is never skipped when it is itself the
// starting point, nor when nothing in the walk so far has entered a
// function (e.g. a comprehension's outermost iterable, which may
// legitimately see its immediately enclosing class body).
func (s *Scope) LookUpRecursive(name string) (*Symbol, *Scope, bool) {
	sawFunction := s.Kind == ScopeFunction
	for cur := s; cur != nil; cur = cur.Parent {
		if cur != s && cur.Kind == ScopeClass && sawFunction {
			continue
		}
		if sym, ok := cur.symbols[name]; ok {
			return sym, cur, true
		}
		if cur.Kind == ScopeFunction {
			sawFunction = true
		}
	}
	return nil, nil, false
}

// nonClassAncestor returns the nearest ancestor of s (s itself included)
// that is not a Class scope. Used when pushing a new Class or Function
// scope: a class's parent, and a function's parent, skip every enclosing
// class scope, because class bodies are not part of the runtime closure
// chain.
func nonClassAncestor(s *Scope) *Scope {
	for cur := s; cur != nil; cur = cur.Parent {
		if cur.Kind != ScopeClass {
			return cur
		}
	}
	return nil
}

// recordReference marks key as narrowable in s's nearest execution scope.
func (s *Scope) recordReference(key ReferenceKey) {
	exec := s
	for exec != nil && !exec.Kind.IsExecutionScope() {
		exec = exec.Parent
	}
	if exec == nil {
		return
	}
	exec.ReferenceMap[key] = true
}
