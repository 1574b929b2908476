package resolve

import "github.com/pynder/pynder/syntax"

// FlowID is a 32-bit, process-unique (within one binder run) identifier
// for a FlowNode. Flow nodes form a dense, cyclic graph — labels hold
// antecedent ids rather than node pointers, and the PostFinally→
// PreFinallyGate back-reference is likewise an id. unreachableID is
// reserved for the Unreachable singleton and is never a valid antecedent.
type FlowID uint32

const unreachableID FlowID = 0

// FlowNodeKind tags the closed set of flow-node shapes.
type FlowNodeKind uint8

const (
	FlowStart FlowNodeKind = iota
	FlowBranchLabel
	FlowLoopLabel
	FlowAssignment
	FlowAssignmentAlias
	FlowCall
	FlowCondition
	FlowPreFinallyGate
	FlowPostFinally
	FlowWildcardImport
	FlowUnreachable
)

// A FlowNode is one node of a file's control-flow graph.
type FlowNode interface {
	ID() FlowID
	Kind() FlowNodeKind
}

type flowBase struct{ id FlowID }

func (b flowBase) ID() FlowID { return b.id }

// StartFlow marks the entry of a scope's body.
type StartFlow struct{ flowBase }

func (*StartFlow) Kind() FlowNodeKind { return FlowStart }

// ConditionFlag distinguishes which side of a test a Condition node
// represents.
type ConditionFlag uint8

const (
	TrueCondition ConditionFlag = iota
	FalseCondition
)

// BranchLabel is a join point with an antecedent list that grows as the
// builder discovers incoming edges (if/else merge, try/except fan-in,
// function return target, and so on).
type BranchLabel struct {
	flowBase
	Antecedents []FlowID
}

func (*BranchLabel) Kind() FlowNodeKind { return FlowBranchLabel }

// LoopLabel is a BranchLabel used as a loop header, distinguished only
// so later passes can apply loop-specific fixed-point narrowing.
type LoopLabel struct {
	flowBase
	Antecedents []FlowID
}

func (*LoopLabel) Kind() FlowNodeKind { return FlowLoopLabel }

// AssignmentFlow records a binding occurrence reaching a symbol.
// TargetSymbol is indeterminateSymbol for a member-access target the
// binder cannot reduce to a bare name.
type AssignmentFlow struct {
	flowBase
	Node         syntax.Node
	Antecedent   FlowID
	TargetSymbol SymbolID
	Unbind       bool
}

func (*AssignmentFlow) Kind() FlowNodeKind { return FlowAssignment }

// AssignmentAliasFlow threads a comprehension-local binding back to the
// symbol it shadows in the parent scope, so later narrowing can follow
// the alias across the comprehension boundary.
type AssignmentAliasFlow struct {
	flowBase
	Antecedent   FlowID
	TargetSymbol SymbolID
	AliasSymbol  SymbolID
}

func (*AssignmentAliasFlow) Kind() FlowNodeKind { return FlowAssignmentAlias }

// CallFlow marks a call expression's position in the graph so later
// passes can detect calls that never return (NoReturn).
type CallFlow struct {
	flowBase
	Node       syntax.Node
	Antecedent FlowID
}

func (*CallFlow) Kind() FlowNodeKind { return FlowCall }

// ConditionFlow narrows Expression along Flag's side of a branch.
type ConditionFlow struct {
	flowBase
	Antecedent FlowID
	Expression syntax.Expr
	Flag       ConditionFlag
}

func (*ConditionFlow) Kind() FlowNodeKind { return FlowCondition }

// PreFinallyGateFlow is the "gate" antecedent of a finally clause's body
// when control reaches it via an intercepted return/raise rather than
// normal fall-through. IsGateClosed is mutated by the later narrowing
// traversal, never by this pass.
type PreFinallyGateFlow struct {
	flowBase
	Antecedent   FlowID
	IsGateClosed bool
}

func (*PreFinallyGateFlow) Kind() FlowNodeKind { return FlowPreFinallyGate }

// PostFinallyFlow is reached after a finally clause completes; Gate
// names the PreFinallyGateFlow this node's downstream traversal toggles.
type PostFinallyFlow struct {
	flowBase
	Antecedent FlowID
	Gate       FlowID
}

func (*PostFinallyFlow) Kind() FlowNodeKind { return FlowPostFinally }

// WildcardImportFlow records a `from m import *` and the names it bound,
// each a narrowable reference.
type WildcardImportFlow struct {
	flowBase
	Node       syntax.Node
	Antecedent FlowID
	Names      []string
}

func (*WildcardImportFlow) Kind() FlowNodeKind { return FlowWildcardImport }

// unreachableFlow is the process-wide Unreachable singleton. It is never
// stored as an antecedent (antecedent lists only ever hold reachable
// predecessors); builder code that would otherwise add it instead no-ops.
type unreachableFlow struct{}

func (unreachableFlow) ID() FlowID        { return unreachableID }
func (unreachableFlow) Kind() FlowNodeKind { return FlowUnreachable }

// Unreachable is the shared Unreachable flow node.
var Unreachable FlowNode = unreachableFlow{}

// IsUnreachable reports whether n is the Unreachable singleton.
func IsUnreachable(n FlowNode) bool {
	_, ok := n.(unreachableFlow)
	return ok
}

// flowArena owns every FlowNode created while binding one file, indexed
// by FlowID (slot 0 is unused; ids start at 1).
type flowArena struct {
	nodes []FlowNode
}

func newFlowArena() *flowArena {
	return &flowArena{nodes: []FlowNode{nil}} // reserve index 0
}

func (a *flowArena) alloc(make_ func(id FlowID) FlowNode) FlowNode {
	id := FlowID(len(a.nodes))
	n := make_(id)
	a.nodes = append(a.nodes, n)
	return n
}

func (a *flowArena) get(id FlowID) FlowNode {
	if id == unreachableID {
		return Unreachable
	}
	return a.nodes[id]
}
