package syntax

// Attachments holds the binder's output keyed by AST node identity rather
// than by mutating the tree itself (the AST stays immutable; see the
// "AST side-tables instead of field mutation" design note). Node values
// are pointers, so they are directly usable as map keys.
//
// The maps store interface{} because their concrete types
// (resolve.Scope, resolve.FlowNode, resolve.Declaration, a set of
// resolve.ReferenceKey) live in the resolve package, which imports this
// one — syntax must not import resolve back. Callers type-assert the
// values they read.
type Attachments struct {
	scopes     map[Node]interface{}
	flowNodes  map[Node]interface{}
	afterFlow  map[Node]interface{}
	decls      map[Node][]interface{}
	codeFlow   map[Node]interface{}
}

// NewAttachments returns an empty side-table set for one file.
func NewAttachments() *Attachments {
	return &Attachments{
		scopes:    make(map[Node]interface{}),
		flowNodes: make(map[Node]interface{}),
		afterFlow: make(map[Node]interface{}),
		decls:     make(map[Node][]interface{}),
		codeFlow:  make(map[Node]interface{}),
	}
}

func (a *Attachments) SetScope(n Node, scope interface{}) { a.scopes[n] = scope }
func (a *Attachments) Scope(n Node) (interface{}, bool)   { v, ok := a.scopes[n]; return v, ok }

func (a *Attachments) SetFlowNode(n Node, flow interface{}) { a.flowNodes[n] = flow }
func (a *Attachments) FlowNode(n Node) (interface{}, bool)  { v, ok := a.flowNodes[n]; return v, ok }

func (a *Attachments) SetAfterFlowNode(n Node, flow interface{}) { a.afterFlow[n] = flow }
func (a *Attachments) AfterFlowNode(n Node) (interface{}, bool)  { v, ok := a.afterFlow[n]; return v, ok }

// AddDeclaration appends one declaration to n's append-only declaration
// list; it never replaces or removes an earlier entry.
func (a *Attachments) AddDeclaration(n Node, decl interface{}) {
	a.decls[n] = append(a.decls[n], decl)
}
func (a *Attachments) Declarations(n Node) []interface{} { return a.decls[n] }

func (a *Attachments) SetCodeFlowExpressions(n Node, keys interface{}) { a.codeFlow[n] = keys }
func (a *Attachments) CodeFlowExpressions(n Node) (interface{}, bool) {
	v, ok := a.codeFlow[n]
	return v, ok
}
