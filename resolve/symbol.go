package resolve

// A SymbolID uniquely identifies a Symbol within one binder run. Zero is
// never assigned to a real symbol.
type SymbolID uint32

// invalidSymbol names the zero SymbolID, which no symbol receives. A
// target that cannot be determined statically, such as a member-access
// assignment target (obj.attr = x), is stored as indeterminateSymbol.
const invalidSymbol SymbolID = 0

// indeterminateSymbol marks an Assignment flow node whose target could
// not be reduced to a bare name (see CFGBuilder.assignment).
const indeterminateSymbol SymbolID = ^SymbolID(0)

// SymbolFlags is a bitset of per-symbol attributes.
type SymbolFlags uint16

const (
	InitiallyUnbound SymbolFlags = 1 << iota
	ClassMember
	InstanceMember
	ClassVar
	PrivateMember
	ExternallyHidden
	IgnoredForProtocolMatch
)

func (f SymbolFlags) Has(flag SymbolFlags) bool { return f&flag != 0 }

// A Symbol ties together every Declaration that binds one name within one
// Scope. Declarations are appended in source order and are never removed;
// callers must treat the slice returned by Declarations as read-only.
type Symbol struct {
	id    SymbolID
	Name  string
	Flags SymbolFlags
	decls []Declaration
}

func newSymbol(id SymbolID, name string, flags SymbolFlags) *Symbol {
	return &Symbol{id: id, Name: name, Flags: flags}
}

func (s *Symbol) ID() SymbolID { return s.id }

// Declarations returns this symbol's declaration list in source order.
func (s *Symbol) Declarations() []Declaration { return s.decls }

// addDeclaration appends decl to the symbol's declaration list. It is the
// only mutator of that list; there is no corresponding remove.
func (s *Symbol) addDeclaration(decl Declaration) {
	s.decls = append(s.decls, decl)
}

// symbolTable allocates symbol ids, unique within one binder run and
// starting at 1.
type symbolTable struct {
	next SymbolID
}

func newSymbolAllocator() *symbolTable {
	return &symbolTable{next: 1}
}

func (t *symbolTable) alloc(name string, flags SymbolFlags) *Symbol {
	id := t.next
	t.next++
	return newSymbol(id, name, flags)
}
