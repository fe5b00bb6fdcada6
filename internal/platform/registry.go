package platform

import (
	"github.com/bitcast-network/bitcast-sub001/internal/domain/miner"
	"github.com/bitcast-network/bitcast-sub001/pkg/logger"
)

// Registry maps platform names to evaluators and holds an ordered priority
// list consulted before falling back to insertion order.
type Registry struct {
	evaluators map[string]Evaluator
	order      []string // insertion order, for the non-priority fallback walk
	priority   []string

	log *logger.Logger
}

// NewRegistry creates an empty registry. priority names evaluators that
// should be tried first, in order; it is data, not code, and may be
// reordered at startup.
func NewRegistry(priority []string, log *logger.Logger) *Registry {
	if log == nil {
		log = logger.NewDefault("platform-registry")
	}
	return &Registry{
		evaluators: make(map[string]Evaluator),
		priority:   priority,
		log:        log,
	}
}

// Register adds an evaluator, keyed by its Name().
func (r *Registry) Register(e Evaluator) {
	name := e.Name()
	if _, exists := r.evaluators[name]; !exists {
		r.order = append(r.order, name)
	}
	r.evaluators[name] = e
	r.log.WithField("platform", name).Info("registered platform evaluator")
}

// Get returns the evaluator registered for name, if any.
func (r *Registry) Get(name string) (Evaluator, bool) {
	e, ok := r.evaluators[name]
	return e, ok
}

// Platforms returns the registered platform names in insertion order.
func (r *Registry) Platforms() []string {
	out := make([]string, len(r.order))
	copy(out, r.order)
	return out
}

// Len reports the number of registered evaluators.
func (r *Registry) Len() int {
	return len(r.evaluators)
}

// SelectFor implements the selection rule: walk the priority list first,
// then the remaining evaluators in insertion order. Returns false if no
// evaluator can handle the response.
func (r *Registry) SelectFor(response miner.Response) (Evaluator, bool) {
	if !response.Valid {
		r.log.WithField("uid", response.UID).Debug("invalid miner response, no evaluator selected")
		return nil, false
	}

	tried := make(map[string]bool, len(r.priority))
	for _, name := range r.priority {
		tried[name] = true
		e, ok := r.evaluators[name]
		if !ok {
			continue
		}
		if e.CanEvaluate(response) {
			return e, true
		}
	}

	for _, name := range r.order {
		if tried[name] {
			continue
		}
		e := r.evaluators[name]
		if e.CanEvaluate(response) {
			return e, true
		}
	}

	r.log.WithField("uid", response.UID).Warn("no evaluator found for miner response")
	return nil, false
}

// ResetCycleState calls CycleResettable.ResetCycleState on every registered
// evaluator that implements it, clearing cycle-scoped dedup state between
// cycles.
func (r *Registry) ResetCycleState() {
	for _, name := range r.order {
		if resettable, ok := r.evaluators[name].(CycleResettable); ok {
			resettable.ResetCycleState()
		}
	}
}
