package resolve

import "github.com/pynder/pynder/syntax"

// DeclarationKind tags the closed set of declaration shapes a Symbol's
// declaration list may contain.
type DeclarationKind uint8

const (
	DeclVariable DeclarationKind = iota
	DeclParameter
	DeclFunction
	DeclClass
	DeclAlias
	DeclIntrinsic
	DeclSpecialBuiltInClass
)

// A Declaration is one binding occurrence of a Symbol. The set of
// concrete types is closed; callers switch on Kind() for exhaustive
// dispatch rather than type-asserting speculatively.
type Declaration interface {
	Kind() DeclarationKind
	Range() syntax.Range
}

// VariableDeclaration records a simple assignment, annotated assignment,
// for-target, with-target, or comprehension-target binding.
type VariableDeclaration struct {
	Rng                  syntax.Range
	Node                 syntax.Node // the binding occurrence (often an *Ident)
	IsConstant           bool        // name looks like an ALL_CAPS constant
	InferredTypeSource   syntax.Expr // RHS expression type is inferred from, if any
	TypeAnnotation       syntax.Expr // explicit annotation, if any
	IsFinal              bool
	IsDefinedByMemberAccess bool // self.x = ... style binding
	TypeAliasName        *syntax.Ident // set when this is a `Name: TypeAlias = ...` / `Name = TypeAliasType(...)`
	TypeAliasAnnotation  syntax.Expr
}

func (d *VariableDeclaration) Kind() DeclarationKind { return DeclVariable }
func (d *VariableDeclaration) Range() syntax.Range    { return d.Rng }

// ParameterDeclaration records one function parameter binding.
type ParameterDeclaration struct {
	Rng   syntax.Range
	Param *syntax.Parameter
}

func (d *ParameterDeclaration) Kind() DeclarationKind { return DeclParameter }
func (d *ParameterDeclaration) Range() syntax.Range    { return d.Rng }

// FunctionDeclaration records a def/lambda. ReturnStmts, RaiseStmts, and
// YieldStmts are appended as the binder walks the (possibly deferred)
// body; IsGenerator flips to true the moment any yield is seen.
type FunctionDeclaration struct {
	Rng         syntax.Range
	Node        syntax.Node // *syntax.FunctionDef or *syntax.LambdaExpr
	IsMethod    bool
	IsGenerator bool
	IsAsync     bool
	ReturnStmts []*syntax.ReturnStmt
	RaiseStmts  []*syntax.RaiseStmt
	YieldStmts  []syntax.Expr // *syntax.YieldExpr or *syntax.YieldFromExpr
}

func (d *FunctionDeclaration) Kind() DeclarationKind { return DeclFunction }
func (d *FunctionDeclaration) Range() syntax.Range    { return d.Rng }

// ClassDeclaration records a class statement.
type ClassDeclaration struct {
	Rng  syntax.Range
	Node *syntax.ClassDef
}

func (d *ClassDeclaration) Kind() DeclarationKind { return DeclClass }
func (d *ClassDeclaration) Range() syntax.Range    { return d.Rng }

// ModuleLoaderActions mirrors the dotted path of one import statement: at
// each depth, Path is either empty (a non-terminal path segment) or the
// resolved file path for that prefix, and Submodules holds the next
// dotted component's own ModuleLoaderActions.
type ModuleLoaderActions struct {
	Path       string
	Submodules map[string]*ModuleLoaderActions
}

func newModuleLoaderActions() *ModuleLoaderActions {
	return &ModuleLoaderActions{Submodules: make(map[string]*ModuleLoaderActions)}
}

// AliasDeclaration records one name bound by an import statement.
type AliasDeclaration struct {
	Rng              syntax.Range
	Path             string // resolved file path, or a sentinel if unresolved
	SymbolName       string // for "from X import name" — the name within X; "" for plain import
	UsesLocalName    bool   // an "as" alias was supplied
	FirstNamePart    string // for `import a.b.c`, "a"
	SubmoduleFallback *AliasDeclaration
	ImplicitImports  map[string]*ModuleLoaderActions
}

func (d *AliasDeclaration) Kind() DeclarationKind { return DeclAlias }
func (d *AliasDeclaration) Range() syntax.Range    { return d.Rng }

// IntrinsicSemanticType tags the fixed type of a module-level intrinsic
// like __name__.
type IntrinsicSemanticType uint8

const (
	IntrinsicStr IntrinsicSemanticType = iota
	IntrinsicAny
	IntrinsicDictStrAny
	IntrinsicIterableStr
)

// IntrinsicDeclaration records one of the fixed module-level intrinsics
// (__doc__, __name__, __loader__, __package__, __spec__, __path__,
// __file__, __cached__, __dict__) installed at module-scope creation.
type IntrinsicDeclaration struct {
	Rng  syntax.Range
	Type IntrinsicSemanticType
}

func (d *IntrinsicDeclaration) Kind() DeclarationKind { return DeclIntrinsic }
func (d *IntrinsicDeclaration) Range() syntax.Range    { return d.Rng }

// SpecialBuiltInClassDeclaration records a name the typing stub's binder
// recognizes as a special built-in class (see isSpecialTypingStubTarget).
type SpecialBuiltInClassDeclaration struct {
	Rng syntax.Range
}

func (d *SpecialBuiltInClassDeclaration) Kind() DeclarationKind { return DeclSpecialBuiltInClass }
func (d *SpecialBuiltInClassDeclaration) Range() syntax.Range    { return d.Rng }
