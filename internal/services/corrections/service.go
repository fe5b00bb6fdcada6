// Package corrections derives the per-(content, brief) scaling factors
// that constraint enforcement applied during reward distribution.
package corrections

import (
	"sort"

	"github.com/bitcast-network/bitcast-sub001/internal/domain/brief"
	correctiondomain "github.com/bitcast-network/bitcast-sub001/internal/domain/corrections"
	"github.com/bitcast-network/bitcast-sub001/internal/domain/evaluation"
	"github.com/bitcast-network/bitcast-sub001/internal/domain/scorematrix"
)

// Service implements WeightCorrectionsService.
type Service struct{}

// New builds a Service.
func New() *Service { return &Service{} }

// Derive walks every miner row and, for each (content item, brief) pair
// actually recorded in that miner's AccountResults, emits a Correction.
// The same pair may appear multiple times if an item participates in
// multiple miners' results; this is not deduplicated here.
func (s *Service) Derive(rs *evaluation.ResultSet, wPre, wPost *scorematrix.Matrix, briefs []brief.Brief) []correctiondomain.Correction {
	briefIdx := brief.IndexByID(briefs)

	var out []correctiondomain.Correction
	for i, uid := range rs.UIDs {
		result, ok := rs.Get(uid)
		if !ok {
			continue
		}
		for _, accountID := range result.AccountOrder {
			account := result.AccountResults[accountID]
			for _, contentKey := range sortedKeys(account.ContentItems) {
				item := account.ContentItems[contentKey]
				contentID := item.BitcastContentID
				if contentID == "" {
					contentID = contentKey
				}
				for _, briefID := range sortedMetricKeys(item.BriefMetrics) {
					c, known := briefIdx[briefID]
					if !known {
						continue
					}
					out = append(out, correctiondomain.Correction{
						ContentID:     contentID,
						BriefID:       briefID,
						ScalingFactor: scalingFactor(wPre, wPost, i, c),
					})
				}
			}
		}
	}
	return out
}

// sortedKeys returns a ContentItems map's keys in sorted order, so the
// emitted corrections list has a stable, reproducible order rather than
// Go's randomized map iteration order.
func sortedKeys(items map[string]evaluation.ContentItem) []string {
	keys := make([]string, 0, len(items))
	for k := range items {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// sortedMetricKeys returns a BriefMetrics map's keys in sorted order, for
// the same reason as sortedKeys.
func sortedMetricKeys(metrics map[string]map[string]interface{}) []string {
	keys := make([]string, 0, len(metrics))
	for k := range metrics {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// scalingFactor computes W_post[i,c]/W_pre[i,c], clamped to [0,10]. Zero
// when W_pre is zero or either index is out of bounds.
func scalingFactor(wPre, wPost *scorematrix.Matrix, i, c int) float64 {
	if i < 0 || i >= wPre.Rows() || c < 0 || c >= wPre.Cols() ||
		i >= wPost.Rows() || c >= wPost.Cols() {
		return 0
	}

	pre := wPre.At(i, c)
	if pre == 0 {
		return 0
	}
	post := wPost.At(i, c)

	factor := post / pre
	if factor < 0 {
		return 0
	}
	if factor > correctiondomain.MaxScalingFactor {
		return correctiondomain.MaxScalingFactor
	}
	return factor
}
