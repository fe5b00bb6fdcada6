// Package platform defines the pluggable platform-evaluator capability and
// the registry that selects one for a given miner response.
package platform

import (
	"context"

	"github.com/bitcast-network/bitcast-sub001/internal/domain/brief"
	"github.com/bitcast-network/bitcast-sub001/internal/domain/evaluation"
	"github.com/bitcast-network/bitcast-sub001/internal/domain/miner"
)

// Evaluator is the capability a concrete platform (YouTube, and future
// additions) implements to turn a miner's claimed tokens into scored
// accounts.
type Evaluator interface {
	// Name is the stable platform tag used in EvaluationResult.Platform and
	// in priority-list lookups.
	Name() string

	// CanEvaluate inspects the response and reports whether this evaluator
	// recognizes the token types present and the response is valid.
	CanEvaluate(response miner.Response) bool

	// SupportedTokenTypes is descriptive only.
	SupportedTokenTypes() []string

	// EvaluateAccounts scores up to the configured maximum number of claimed
	// accounts against the cycle's briefs.
	EvaluateAccounts(ctx context.Context, response miner.Response, briefs []brief.Brief, metagraph evaluation.MetagraphInfo) (evaluation.Result, error)
}

// CycleResettable is implemented by evaluators that carry cycle-scoped
// dedup state (e.g. a set of already-scored content ids) which must be
// cleared between cycles. Evaluators that don't need this don't implement
// it, so the registry calls it through a type assertion.
type CycleResettable interface {
	ResetCycleState()
}
