package resolve

import "github.com/pynder/pynder/metrics"

// A deferredTask captures one function or lambda body whose binding is
// postponed until the enclosing scope chain has finished being walked,
// so that a name used before its enclosing function is fully bound (a
// forward reference to a sibling def, a mutually recursive pair of
// functions) still resolves against a complete symbol table.
type deferredTask struct {
	scope            *Scope
	nonLocalBindings map[string]NonLocalBinding
	run              func()
}

// deferredQueue is a FIFO of deferredTasks. Binding a function body can
// itself enqueue further deferred tasks (nested defs); the binder drains
// the queue until empty rather than recursing directly, so sibling
// bodies at every nesting depth are bound in source order regardless of
// how deeply they are nested.
type deferredQueue struct {
	tasks []*deferredTask
	rec   *metrics.Recorder
}

func newDeferredQueue(rec *metrics.Recorder) *deferredQueue {
	return &deferredQueue{rec: rec}
}

func (q *deferredQueue) enqueue(scope *Scope, nonLocalBindings map[string]NonLocalBinding, run func()) {
	q.tasks = append(q.tasks, &deferredTask{scope: scope, nonLocalBindings: nonLocalBindings, run: run})
	q.rec.DeferredTaskEnqueued(len(q.tasks))
}

// drain runs every queued task to completion, including any further
// tasks a task's own run enqueues, until the queue is empty.
func (q *deferredQueue) drain() {
	for len(q.tasks) > 0 {
		task := q.tasks[0]
		q.tasks = q.tasks[1:]
		task.run()
		q.rec.DeferredTaskDrained(len(q.tasks))
	}
}
