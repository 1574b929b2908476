package resolve

import (
	"github.com/pynder/pynder/config"
	"github.com/pynder/pynder/diag"
	"github.com/pynder/pynder/syntax"
)

// LineIndex maps byte offsets to Positions for one source file. It is a
// caller-supplied capability: this package never re-lexes a file to
// build one.
type LineIndex interface {
	PositionAt(offset int) syntax.Position
}

// ExecutionEnvironment carries the interpreter/runtime assumptions a
// bind run is performed under. LangMajor/LangMinor are read only by
// SupportsTypeAliasStatement; the binder does not gate `TypeAlias`
// annotations or `match` statements on the language version.
type ExecutionEnvironment struct {
	LangMajor, LangMinor int
	Root                 string
}

// SupportsTypeAliasStatement reports whether the configured language
// version recognizes the `type X = ...` statement form. This pass does
// not itself bind that statement; the flag exists for callers that
// pre-desugar it.
func (e ExecutionEnvironment) SupportsTypeAliasStatement() bool {
	return e.LangMajor > 3 || (e.LangMajor == 3 && e.LangMinor >= 12)
}

// ImportResultKind classifies where a resolved import's source was found.
type ImportResultKind uint8

const (
	ImportBuiltIn ImportResultKind = iota
	ImportThirdParty
	ImportLocal
)

// ImplicitImport is one package-child module visible as an attribute of
// its package once imported anywhere, without an explicit import at the
// package root.
type ImplicitImport struct {
	Name string
	Path string
}

// ImportInfo decorates a module-name syntax node with what an import
// pre-pass discovered about it. The binder only reads this record; it
// never resolves a path itself.
type ImportInfo struct {
	IsImportFound      bool
	IsStubFile         bool
	ImportType         ImportResultKind
	IsPyTypedPresent   bool
	NonStubImportFound bool
	ResolvedPaths      []string // one entry per dotted depth
	ImplicitImports    []ImplicitImport
}

// ImportSymbolTable is what a resolved module exposes to `from X import
// Y` and wildcard imports: its bound names, plus an optional explicit
// `__all__`-style export list that overrides the "every non-underscore
// name" wildcard default when present.
type ImportSymbolTable struct {
	Names      map[string]*Symbol
	ExplicitAll []string // nil if the module declares no __all__
}

// ImportLookup resolves a dotted module path to its exported symbol
// table. A nil ImportLookup is valid; every call site treats a failed or
// absent lookup as "import not found" rather than panicking, the same
// optional-collaborator shape go.starlark.net's resolve package gives
// its own external name lookups.
type ImportLookup func(path string) (*ImportSymbolTable, bool)

// FileInfo is the external-interfaces input record of one bind run: the
// file being bound plus every capability the walker needs but does not
// own — path resolution, diagnostics, configuration, and the enclosing
// builtins scope.
type FileInfo struct {
	FilePath   string
	ModuleName string
	Lines      LineIndex
	Env        ExecutionEnvironment

	IsStubFile       bool
	IsTypingStubFile bool

	// BuiltinsScope is the parent of the module scope being bound, or nil
	// if this file is itself the builtins file (in which case the module
	// scope's kind is Builtin rather than Module).
	BuiltinsScope *Scope

	Rules *config.RuleSet

	ImportLookup ImportLookup
	ImportInfoOf func(moduleNameNode syntax.Node) (*ImportInfo, bool)

	Diagnostics diag.Sink
}
