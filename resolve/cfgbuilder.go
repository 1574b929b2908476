package resolve

import (
	"github.com/pynder/pynder/metrics"
	"github.com/pynder/pynder/syntax"
)

// CFGBuilder assembles one file's flow graph into a shared arena. It has
// no notion of "current position" of its own — the walker in binder.go
// threads a current FlowNode through its traversal and calls these
// primitives to fork, join, and annotate it. Every method that takes an
// antecedent silently returns Unreachable unchanged rather than creating
// a node with an unreachable predecessor, so dead code never grows the
// arena; the exception is preFinallyGate, which always allocates its gate
// so the matching postFinally can reference it.
type CFGBuilder struct {
	arena *flowArena
	rec   *metrics.Recorder
}

func newCFGBuilder(rec *metrics.Recorder) *CFGBuilder {
	return &CFGBuilder{arena: newFlowArena(), rec: rec}
}

// startNode creates the StartFlow node marking the entry to a scope body.
func (b *CFGBuilder) startNode() FlowNode {
	n := b.arena.alloc(func(id FlowID) FlowNode { return &StartFlow{flowBase{id}} })
	b.rec.FlowNodeCreated("start")
	return n
}

// branchLabel creates a join point with no antecedents yet.
func (b *CFGBuilder) branchLabel() *BranchLabel {
	n := b.arena.alloc(func(id FlowID) FlowNode { return &BranchLabel{flowBase: flowBase{id}} })
	b.rec.FlowNodeCreated("branchLabel")
	return n.(*BranchLabel)
}

// loopLabel creates a join point used as a loop header.
func (b *CFGBuilder) loopLabel() *LoopLabel {
	n := b.arena.alloc(func(id FlowID) FlowNode { return &LoopLabel{flowBase: flowBase{id}} })
	b.rec.FlowNodeCreated("loopLabel")
	return n.(*LoopLabel)
}

// addAntecedent appends node's id to lbl's antecedent list, unless node
// is Unreachable or its id is already listed. lbl must be a *BranchLabel
// or *LoopLabel.
func (b *CFGBuilder) addAntecedent(lbl FlowNode, node FlowNode) {
	if IsUnreachable(node) {
		return
	}
	switch l := lbl.(type) {
	case *BranchLabel:
		if !containsFlowID(l.Antecedents, node.ID()) {
			l.Antecedents = append(l.Antecedents, node.ID())
		}
	case *LoopLabel:
		if !containsFlowID(l.Antecedents, node.ID()) {
			l.Antecedents = append(l.Antecedents, node.ID())
		}
	}
}

func containsFlowID(ids []FlowID, id FlowID) bool {
	for _, x := range ids {
		if x == id {
			return true
		}
	}
	return false
}

// finishLabel collapses a label that turned out to have zero antecedents
// (the join is unreachable) or exactly one (the join is redundant — the
// label is elided and its sole antecedent is returned directly). A label
// with two or more antecedents is returned as-is.
func (b *CFGBuilder) finishLabel(lbl FlowNode) FlowNode {
	var antecedents []FlowID
	switch l := lbl.(type) {
	case *BranchLabel:
		antecedents = l.Antecedents
	case *LoopLabel:
		antecedents = l.Antecedents
	default:
		return lbl
	}
	switch len(antecedents) {
	case 0:
		return Unreachable
	case 1:
		return b.arena.get(antecedents[0])
	default:
		return lbl
	}
}

// assignment records target as bound (or, if unbind, explicitly unbound
// by a del statement or at the end of an except clause) at this point in
// the flow, reached via antecedent.
// target is indeterminateSymbol when node's assignment target could not
// be reduced to a bare name.
func (b *CFGBuilder) assignment(antecedent FlowNode, node syntax.Node, target SymbolID, unbind bool) FlowNode {
	if IsUnreachable(antecedent) {
		return Unreachable
	}
	n := b.arena.alloc(func(id FlowID) FlowNode {
		return &AssignmentFlow{
			flowBase:     flowBase{id},
			Node:         node,
			Antecedent:   antecedent.ID(),
			TargetSymbol: target,
			Unbind:       unbind,
		}
	})
	b.rec.FlowNodeCreated("assignment")
	return n
}

// assignmentAlias threads a comprehension-local binding of alias back to
// the target symbol it shadows in the parent scope.
func (b *CFGBuilder) assignmentAlias(antecedent FlowNode, target, alias SymbolID) FlowNode {
	if IsUnreachable(antecedent) {
		return Unreachable
	}
	n := b.arena.alloc(func(id FlowID) FlowNode {
		return &AssignmentAliasFlow{
			flowBase:     flowBase{id},
			Antecedent:   antecedent.ID(),
			TargetSymbol: target,
			AliasSymbol:  alias,
		}
	})
	b.rec.FlowNodeCreated("assignmentAlias")
	return n
}

// call marks node's position in the graph so a later pass can detect
// calls whose declared return type is NoReturn.
func (b *CFGBuilder) call(antecedent FlowNode, node syntax.Node) FlowNode {
	if IsUnreachable(antecedent) {
		return Unreachable
	}
	n := b.arena.alloc(func(id FlowID) FlowNode {
		return &CallFlow{flowBase: flowBase{id}, Node: node, Antecedent: antecedent.ID()}
	})
	b.rec.FlowNodeCreated("call")
	return n
}

// condition narrows expr along flag's side of a test: a
// statically-resolved test collapses the wrong-flag side to Unreachable;
// an expression the narrowing classifier rejects returns antecedent
// unchanged rather than allocating a node nobody will consult; otherwise
// a Condition node is created and every reference key the classifier
// harvested is registered in scope's nearest execution scope (scope may
// be nil, e.g. when narrowing is evaluated with no scope context yet).
func (b *CFGBuilder) condition(antecedent FlowNode, expr syntax.Expr, flag ConditionFlag, scope *Scope) FlowNode {
	if IsUnreachable(antecedent) {
		return Unreachable
	}
	if val, ok := staticBoolValue(expr); ok && val != (flag == TrueCondition) {
		return Unreachable
	}
	res := classifyNarrowing(expr)
	if !res.narrows {
		return antecedent
	}
	if scope != nil {
		for _, k := range res.keys {
			scope.recordReference(k)
		}
	}
	n := b.arena.alloc(func(id FlowID) FlowNode {
		return &ConditionFlow{flowBase: flowBase{id}, Antecedent: antecedent.ID(), Expression: expr, Flag: flag}
	})
	b.rec.FlowNodeCreated("condition")
	return n
}

// wildcardImport records a `from m import *` and the names it bound.
func (b *CFGBuilder) wildcardImport(antecedent FlowNode, node syntax.Node, names []string) FlowNode {
	if IsUnreachable(antecedent) {
		return Unreachable
	}
	n := b.arena.alloc(func(id FlowID) FlowNode {
		return &WildcardImportFlow{flowBase: flowBase{id}, Node: node, Antecedent: antecedent.ID(), Names: names}
	})
	b.rec.FlowNodeCreated("wildcardImport")
	return n
}

// preFinallyGate opens a gate that the matching postFinally will close if
// control reached the finally clause via an intercepted return or raise
// rather than ordinary fall-through.
func (b *CFGBuilder) preFinallyGate(antecedent FlowNode) *PreFinallyGateFlow {
	n := b.arena.alloc(func(id FlowID) FlowNode {
		return &PreFinallyGateFlow{flowBase: flowBase{id}, Antecedent: antecedent.ID()}
	})
	b.rec.FlowNodeCreated("preFinallyGate")
	return n.(*PreFinallyGateFlow)
}

// postFinally marks the point after a finally clause completes normally,
// referencing the gate whose closedness downstream narrowing consults.
func (b *CFGBuilder) postFinally(antecedent FlowNode, gate *PreFinallyGateFlow) FlowNode {
	if IsUnreachable(antecedent) {
		return Unreachable
	}
	n := b.arena.alloc(func(id FlowID) FlowNode {
		return &PostFinallyFlow{flowBase: flowBase{id}, Antecedent: antecedent.ID(), Gate: gate.ID()}
	})
	b.rec.FlowNodeCreated("postFinally")
	return n
}
