// Package rewarddist implements the capital-constrained reward
// distribution stages: per-brief caps, a global minimum-emission floor,
// global normalization, cross-brief mixing, and row-summing to final
// per-miner rewards.
package rewarddist

import (
	"github.com/bitcast-network/bitcast-sub001/internal/domain/brief"
	"github.com/bitcast-network/bitcast-sub001/internal/domain/emission"
	"github.com/bitcast-network/bitcast-sub001/internal/domain/evaluation"
	"github.com/bitcast-network/bitcast-sub001/internal/domain/miner"
	"github.com/bitcast-network/bitcast-sub001/internal/domain/scorematrix"
	"github.com/bitcast-network/bitcast-sub001/internal/external"
	"github.com/bitcast-network/bitcast-sub001/pkg/logger"
)

// Config carries the global minimum-emission floor.
type Config struct {
	MinTotalEmission float64 // T_min ∈ [0, 1]
}

// Stats is one uid's per-cycle stats record (§4.6 Stage F). Reward is
// filled in by the caller (the orchestrator) before publication.
type Stats struct {
	UID                      int
	Scores                   map[string]float64
	Metagraph                evaluation.MetagraphInfo
	BriefEmissionPercentages map[string]float64
	AccountDetails           map[string]evaluation.AccountResult
	Reward                   float64
}

// Result bundles everything the orchestrator needs downstream: the final
// reward vector, per-uid stats, and the pre/post-constraint weight
// matrices WeightCorrectionsService consumes.
type Result struct {
	Rewards []float64
	Stats   []Stats
	WPre    *scorematrix.Matrix
	WPost   *scorematrix.Matrix
}

// Service implements RewardDistributionService.
type Service struct {
	cfg      Config
	allocate external.ReserveAllocator
	log      *logger.Logger
}

// New builds a Service. allocate may be nil, in which case Stage E is a
// no-op (r' = r).
func New(cfg Config, allocate external.ReserveAllocator, log *logger.Logger) *Service {
	if log == nil {
		log = logger.NewDefault("reward-distribution")
	}
	return &Service{cfg: cfg, allocate: allocate, log: log}
}

// Distribute runs stages A–F over the given emission targets.
func (s *Service) Distribute(targets []emission.Target, rs *evaluation.ResultSet, briefs []brief.Brief, uids []int) Result {
	numMiners := len(uids)
	numBriefs := len(briefs)

	// Stage A — assemble W_pre.
	wPre := scorematrix.New(numMiners, numBriefs)
	for c, t := range targets {
		wPre.SetColumn(c, t.PerMinerWeights)
	}

	// Stage B — constraint enforcement on a copy.
	w := wPre.Clone()
	s.enforcePerBriefCaps(w, briefs)
	s.enforceMinEmissionFloor(w)
	s.enforceGlobalNormalization(w)
	wPost := w

	// Stage C — cross-brief mixing by brief weight.
	mixed := s.mixAcrossBriefs(wPost, briefs)

	// Stage D — sum rows to per-miner rewards.
	rewards := s.sumToRewards(mixed, uids)

	// Stage E — community reserve reallocation.
	if s.allocate != nil {
		rewards = s.allocate(rewards, uids)
	}

	// Stage F — stats assembly.
	stats := s.assembleStats(rs, uids, briefs, wPost)

	return Result{Rewards: rewards, Stats: stats, WPre: wPre, WPost: wPost}
}

// enforcePerBriefCaps is stage B1: scale each column down to its cap when
// the column sum exceeds it.
func (s *Service) enforcePerBriefCaps(w *scorematrix.Matrix, briefs []brief.Brief) {
	for c, b := range briefs {
		sum := w.ColumnSum(c)
		capVal := b.EffectiveCap()
		if sum > capVal && sum > 0 {
			s.log.WithField("brief_id", b.ID).Infof("scaling column from %.6f to cap %.6f", sum, capVal)
			w.ScaleColumn(c, capVal/sum)
		}
	}
}

// enforceMinEmissionFloor is stage B2: if the matrix total is positive but
// below the configured floor, scale the entire matrix up. This may push a
// column above its cap — an accepted ordering per SPEC_FULL.md §1/§9.
func (s *Service) enforceMinEmissionFloor(w *scorematrix.Matrix) {
	total := w.Sum()
	if total > 0 && total < s.cfg.MinTotalEmission {
		s.log.Infof("scaling matrix from total %.6f to min emission floor %.6f", total, s.cfg.MinTotalEmission)
		w.Scale(s.cfg.MinTotalEmission / total)
	}
}

// enforceGlobalNormalization is stage B3: if the matrix total now exceeds
// 1, scale it back down to sum to 1.
func (s *Service) enforceGlobalNormalization(w *scorematrix.Matrix) {
	total := w.Sum()
	if total > 1 {
		s.log.Infof("normalizing matrix from total %.6f to 1.0", total)
		w.Scale(1.0 / total)
	}
}

// mixAcrossBriefs is stage C. When all brief weights are equal the matrix
// is simply divided by the brief count; otherwise each column is scaled by
// its share of total weight. This preserves per-cap semantics only in the
// equal-weight case — see SPEC_FULL.md §1 open questions.
func (s *Service) mixAcrossBriefs(w *scorematrix.Matrix, briefs []brief.Brief) *scorematrix.Matrix {
	if len(briefs) == 0 {
		return w.Clone()
	}

	weights := make([]float64, len(briefs))
	allEqual := true
	for i, b := range briefs {
		weights[i] = b.EffectiveWeight()
		if weights[i] != weights[0] {
			allEqual = false
		}
	}

	out := w.Clone()
	if allEqual {
		out.Scale(1.0 / float64(len(briefs)))
		return out
	}

	totalWeight := 0.0
	for _, wv := range weights {
		totalWeight += wv
	}
	for c, wv := range weights {
		out.ScaleColumn(c, wv/totalWeight)
	}
	return out
}

// sumToRewards is stage D. If the burn uid is present its reward is set to
// 1 minus everyone else's, guaranteeing the total sums to exactly 1.
func (s *Service) sumToRewards(w *scorematrix.Matrix, uids []int) []float64 {
	rewards := make([]float64, len(uids))
	for i := range uids {
		rewards[i] = w.RowSum(i)
	}

	burnIdx := -1
	for i, uid := range uids {
		if uid == miner.BurnUID {
			burnIdx = i
			break
		}
	}
	if burnIdx >= 0 {
		other := 0.0
		for i, r := range rewards {
			if i != burnIdx {
				other += r
			}
		}
		rewards[burnIdx] = 1.0 - other
	}
	return rewards
}

// assembleStats is stage F. The per-uid reward field is left at its zero
// value; the orchestrator fills it in after Stage E.
func (s *Service) assembleStats(rs *evaluation.ResultSet, uids []int, briefs []brief.Brief, wPost *scorematrix.Matrix) []Stats {
	stats := make([]Stats, len(uids))
	for i, uid := range uids {
		result, ok := rs.Get(uid)
		entry := Stats{UID: uid}
		if ok {
			entry.Scores = result.AggregatedScores
			entry.Metagraph = result.MetagraphInfo
			entry.AccountDetails = result.AccountResults
		} else {
			entry.Scores = map[string]float64{}
		}

		percentages := make(map[string]float64, len(briefs))
		for c, b := range briefs {
			percentages[b.ID] = wPost.ColumnSum(c)
		}
		entry.BriefEmissionPercentages = percentages

		stats[i] = entry
	}
	return stats
}

// Fallback builds the result used both when there are no briefs and on
// error: rewards = [1 if uid==0 else 0], stats = [{uid, scores:{}}].
func Fallback(uids []int) Result {
	rewards := make([]float64, len(uids))
	stats := make([]Stats, len(uids))
	for i, uid := range uids {
		if uid == miner.BurnUID {
			rewards[i] = 1.0
		}
		stats[i] = Stats{UID: uid, Scores: map[string]float64{}}
	}
	return Result{Rewards: rewards, Stats: stats, WPre: scorematrix.New(len(uids), 0), WPost: scorematrix.New(len(uids), 0)}
}
