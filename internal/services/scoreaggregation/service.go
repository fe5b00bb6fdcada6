// Package scoreaggregation sums per-account scores into a dense
// miner-by-brief matrix.
package scoreaggregation

import (
	"github.com/bitcast-network/bitcast-sub001/internal/domain/brief"
	"github.com/bitcast-network/bitcast-sub001/internal/domain/evaluation"
	"github.com/bitcast-network/bitcast-sub001/internal/domain/scorematrix"
)

// Service aggregates a ResultSet into a ScoreMatrix. It is a pure
// transform: no scaling, clipping, or normalization happens here —
// platform-specific transformations are already baked into each
// AccountResult's scores by the evaluator that produced them.
type Service struct{}

// New builds a Service.
func New() *Service { return &Service{} }

// Aggregate builds the ScoreMatrix: row order follows rs.UIDs, column
// order follows briefs. Cell [i,c] equals the sum of per-account scores
// for briefs[c] within miner i's Result; a brief missing from a result's
// AggregatedScores yields zero.
func (s *Service) Aggregate(rs *evaluation.ResultSet, briefs []brief.Brief) *scorematrix.Matrix {
	m := scorematrix.New(rs.Len(), len(briefs))

	for i, uid := range rs.UIDs {
		result, ok := rs.Get(uid)
		if !ok {
			continue
		}
		for c, b := range briefs {
			m.Set(i, c, result.AggregatedScores[b.ID])
		}
	}

	return m
}
