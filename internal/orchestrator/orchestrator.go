// Package orchestrator wires the reward engine's pipeline into a single
// entry point: one evaluation cycle per RunCycle invocation.
package orchestrator

import (
	"context"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/bitcast-network/bitcast-sub001/internal/domain/brief"
	correctionsDomain "github.com/bitcast-network/bitcast-sub001/internal/domain/corrections"
	"github.com/bitcast-network/bitcast-sub001/internal/domain/evaluation"
	"github.com/bitcast-network/bitcast-sub001/internal/domain/miner"
	"github.com/bitcast-network/bitcast-sub001/internal/external"
	"github.com/bitcast-network/bitcast-sub001/internal/platform"
	"github.com/bitcast-network/bitcast-sub001/internal/services/corrections"
	"github.com/bitcast-network/bitcast-sub001/internal/services/emissioncalc"
	"github.com/bitcast-network/bitcast-sub001/internal/services/minerquery"
	"github.com/bitcast-network/bitcast-sub001/internal/services/rewarddist"
	"github.com/bitcast-network/bitcast-sub001/internal/services/scoreaggregation"
	"github.com/bitcast-network/bitcast-sub001/internal/services/telemetry"
	"github.com/bitcast-network/bitcast-sub001/pkg/logger"
)

// MetagraphSource supplies the per-uid snapshot consumed read-only by
// evaluators and recorded on every EvaluationResult.
type MetagraphSource interface {
	InfoFor(uid int) evaluation.MetagraphInfo
}

// Orchestrator is the core's single-entry coordinator.
type Orchestrator struct {
	briefCatalog external.BriefCatalog
	query        *minerquery.Service
	registry     *platform.Registry
	aggregator   *scoreaggregation.Service
	emissionCalc *emissioncalc.Service
	distributor  *rewarddist.Service
	corrections  *corrections.Service
	publisher    *telemetry.Publisher
	metagraph    MetagraphSource
	ratioCache   *RatioCache
	log          *logger.Logger
}

// New wires the pipeline's components. ratioCache may be shared across
// Orchestrator instances if callers want the views-to-revenue scalar to
// outlive a single Orchestrator; New allocates a fresh one when nil.
func New(
	briefCatalog external.BriefCatalog,
	query *minerquery.Service,
	registry *platform.Registry,
	aggregator *scoreaggregation.Service,
	emissionCalc *emissioncalc.Service,
	distributor *rewarddist.Service,
	correctionsSvc *corrections.Service,
	publisher *telemetry.Publisher,
	metagraph MetagraphSource,
	ratioCache *RatioCache,
	log *logger.Logger,
) *Orchestrator {
	if log == nil {
		log = logger.NewDefault("orchestrator")
	}
	if ratioCache == nil {
		ratioCache = &RatioCache{}
	}
	return &Orchestrator{
		briefCatalog: briefCatalog,
		query:        query,
		registry:     registry,
		aggregator:   aggregator,
		emissionCalc: emissionCalc,
		distributor:  distributor,
		corrections:  correctionsSvc,
		publisher:    publisher,
		metagraph:    metagraph,
		ratioCache:   ratioCache,
		log:          log,
	}
}

// RunCycle drives one evaluation cycle for uids, returning the final
// reward vector and per-uid stats. It never returns an error: every
// failure mode resolves to a fallback result plus log lines, per
// SPEC_FULL.md §7.
func (o *Orchestrator) RunCycle(ctx context.Context, uids []int) ([]float64, []rewarddist.Stats) {
	if len(uids) == 0 {
		return nil, nil
	}

	briefs, err := o.briefCatalog.GetBriefs(ctx)
	if err != nil {
		o.log.Errorf("failed to fetch content briefs: %v", err)
		return o.toReturn(rewarddist.Fallback(uids))
	}
	if len(briefs) == 0 {
		o.log.Info("no briefs available, using no-briefs fallback")
		return o.toReturn(rewarddist.Fallback(uids))
	}

	result, ok := o.runSteps2Through6(ctx, uids, briefs)
	if !ok {
		return o.toReturn(rewarddist.Fallback(uids))
	}

	weightCorrections := o.corrections.Derive(result.rs, result.dist.WPre, result.dist.WPost, briefs)

	runID := uuid.New().String()
	o.publishBestEffort(ctx, runID, result.rs, weightCorrections)

	rewards, stats := o.toReturn(result.dist)
	return rewards, stats
}

type cycleResult struct {
	rs   *evaluation.ResultSet
	dist rewarddist.Result
}

// runSteps2Through6 performs steps 2–6 of SPEC_FULL.md §4.1 (query+evaluate,
// aggregate, update the ratio cache, transform, distribute), catching any
// panic from those steps and signaling the caller to fall back.
func (o *Orchestrator) runSteps2Through6(ctx context.Context, uids []int, briefs []brief.Brief) (result cycleResult, ok bool) {
	defer func() {
		if r := recover(); r != nil {
			o.log.Errorf("reward calculation failed: %v", r)
			ok = false
		}
	}()

	briefIDs := make([]string, len(briefs))
	for i, b := range briefs {
		briefIDs[i] = b.ID
	}

	rs := evaluation.NewResultSet()
	for _, uid := range uids {
		if uid == miner.BurnUID {
			o.log.Debug("burn uid: setting scores to 0")
			rs.Add(uid, evaluation.ZeroScored(uid, evaluation.PlatformBurn, briefIDs))
			continue
		}
		response := o.query.QueryOne(ctx, uid)
		rs.Add(uid, o.evaluateOne(ctx, response, briefs, briefIDs))
	}

	matrix := o.aggregator.Aggregate(rs, briefs)

	o.updateRatioCache(rs)
	o.registry.ResetCycleState()

	targets := o.emissionCalc.Transform(ctx, matrix, briefs)
	dist := o.distributor.Distribute(targets, rs, briefs, uids)

	return cycleResult{rs: rs, dist: dist}, true
}

// evaluateOne queries the registry for an evaluator and scores the
// response. Any error, or the lack of a matching evaluator, yields a
// zero-scored Result rather than failing the whole miner.
func (o *Orchestrator) evaluateOne(ctx context.Context, response miner.Response, briefs []brief.Brief, briefIDs []string) (result evaluation.Result) {
	uid := response.UID
	metagraphInfo := o.metagraph.InfoFor(uid)

	defer func() {
		if r := recover(); r != nil {
			o.log.Errorf("failed to evaluate uid %d: %v", uid, r)
			result = evaluation.ZeroScored(uid, evaluation.PlatformError, briefIDs)
		}
	}()

	evaluator, found := o.registry.SelectFor(response)
	if !found {
		o.log.WithField("uid", uid).Warn("no evaluator found")
		result = evaluation.ZeroScored(uid, evaluation.PlatformUnknown, briefIDs)
		result.MetagraphInfo = metagraphInfo
		return result
	}

	evalResult, err := evaluator.EvaluateAccounts(ctx, response, briefs, metagraphInfo)
	if err != nil {
		o.log.WithField("uid", uid).Errorf("failed to evaluate uid: %v", err)
		result = evaluation.ZeroScored(uid, evaluation.PlatformError, briefIDs)
		result.MetagraphInfo = metagraphInfo
		return result
	}
	return evalResult
}

// updateRatioCache refreshes the views-to-revenue scalar held in RatioCache.
// No platform evaluator reads the cache; the value is only stored. This runs after aggregation but
// before the emission transform, matching the ordering documented in
// SPEC_FULL.md §9; failures never abort the cycle.
func (o *Orchestrator) updateRatioCache(rs *evaluation.ResultSet) {
	defer func() {
		if r := recover(); r != nil {
			o.log.Errorf("failed to update views-to-revenue ratio: %v", r)
		}
	}()

	totalViews, totalAccounts := 0.0, 0.0
	for _, uid := range rs.UIDs {
		result, ok := rs.Get(uid)
		if !ok {
			continue
		}
		for _, account := range result.AccountResults {
			if !account.Success {
				continue
			}
			if v, ok := account.PerformanceStats["total_views"].(float64); ok {
				totalViews += v
				totalAccounts++
			}
		}
	}
	if totalAccounts == 0 {
		return
	}
	o.ratioCache.Store(totalViews / totalAccounts)
	o.log.Info("updated views-to-revenue ratio for next cycle")
}

// publishBestEffort fans the two publications out concurrently; neither
// ever fails the cycle (SPEC_FULL.md §4.8).
func (o *Orchestrator) publishBestEffort(ctx context.Context, runID string, rs *evaluation.ResultSet, weightCorrections []correctionsDomain.Correction) {
	if o.publisher == nil {
		return
	}
	var g errgroup.Group
	g.Go(func() error {
		o.publisher.PublishAccounts(ctx, runID, rs)
		return nil
	})
	g.Go(func() error {
		o.publisher.PublishCorrections(ctx, runID, weightCorrections)
		return nil
	})
	_ = g.Wait()
}

func (o *Orchestrator) toReturn(dist rewarddist.Result) ([]float64, []rewarddist.Stats) {
	for i := range dist.Stats {
		dist.Stats[i].Reward = dist.Rewards[i]
	}
	return dist.Rewards, dist.Stats
}
