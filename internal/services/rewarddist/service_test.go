package rewarddist

import (
	"math"
	"testing"

	"github.com/bitcast-network/bitcast-sub001/internal/domain/brief"
	"github.com/bitcast-network/bitcast-sub001/internal/domain/emission"
	"github.com/bitcast-network/bitcast-sub001/internal/domain/evaluation"
	"github.com/bitcast-network/bitcast-sub001/internal/domain/scorematrix"
)

func closeEnough(a, b float64) bool { return math.Abs(a-b) < 1e-9 }

func emptyResultSet(uids []int) *evaluation.ResultSet {
	rs := evaluation.NewResultSet()
	for _, uid := range uids {
		rs.Add(uid, evaluation.Result{UID: uid})
	}
	return rs
}

// S1 — single brief, two miners, within cap.
func TestDistribute_S1_WithinCap(t *testing.T) {
	briefs := []brief.Brief{{ID: "b", Weight: 100, Format: brief.FormatDedicated, Boost: 1, Cap: 1}}
	uids := []int{0, 1, 2}
	targets := []emission.Target{{BriefID: "b", PerMinerWeights: []float64{0, 0.01, 0.03}}}

	svc := New(Config{MinTotalEmission: 0}, nil, nil)
	result := svc.Distribute(targets, emptyResultSet(uids), briefs, uids)

	want := []float64{0.96, 0.01, 0.03}
	for i, w := range want {
		if !closeEnough(result.Rewards[i], w) {
			t.Fatalf("rewards[%d] = %v, want %v (all: %v)", i, result.Rewards[i], w, result.Rewards)
		}
	}
	assertSumsToOne(t, result.Rewards)
}

// S2 — cap triggered.
func TestDistribute_S2_CapTriggered(t *testing.T) {
	briefs := []brief.Brief{{ID: "b", Weight: 100, Format: brief.FormatDedicated, Boost: 1, Cap: 1}}
	uids := []int{0, 1, 2}
	targets := []emission.Target{{BriefID: "b", PerMinerWeights: []float64{0, 0.4, 0.8}}}

	svc := New(Config{MinTotalEmission: 0}, nil, nil)
	result := svc.Distribute(targets, emptyResultSet(uids), briefs, uids)

	want := []float64{0.0, 1.0 / 3.0, 2.0 / 3.0}
	for i, w := range want {
		if math.Abs(result.Rewards[i]-w) > 1e-3 {
			t.Fatalf("rewards[%d] = %v, want ~%v (all: %v)", i, result.Rewards[i], w, result.Rewards)
		}
	}
	assertSumsToOne(t, result.Rewards)
}

// S3 — two briefs, equal weight.
func TestDistribute_S3_EqualWeightMixing(t *testing.T) {
	briefs := []brief.Brief{
		{ID: "b1", Weight: 100, Cap: 0.5},
		{ID: "b2", Weight: 100, Cap: 0.5},
	}
	uids := []int{0, 1}
	targets := []emission.Target{
		{BriefID: "b1", PerMinerWeights: []float64{0, 0.6}},
		{BriefID: "b2", PerMinerWeights: []float64{0, 0.4}},
	}

	svc := New(Config{MinTotalEmission: 0}, nil, nil)
	result := svc.Distribute(targets, emptyResultSet(uids), briefs, uids)

	if !closeEnough(result.Rewards[0], 0.55) {
		t.Fatalf("uid 0 reward = %v, want 0.55", result.Rewards[0])
	}
	if !closeEnough(result.Rewards[1], 0.45) {
		t.Fatalf("uid 1 reward = %v, want 0.45", result.Rewards[1])
	}
	assertSumsToOne(t, result.Rewards)
}

func TestDistribute_PerBriefCapEnforcedBeforeMinFloor(t *testing.T) {
	// §8 testable property: for every brief, sum(W_post[:,b]) <= cap(b)+1e-10
	// immediately after stage B1, before B2's floor scale-up.
	briefs := []brief.Brief{{ID: "b", Cap: 1.0}}
	uids := []int{0, 1}
	targets := []emission.Target{{BriefID: "b", PerMinerWeights: []float64{0, 2.0}}}

	svc := New(Config{MinTotalEmission: 0}, nil, nil)
	w := scorematrix.New(2, 1)
	for c, tgt := range targets {
		w.SetColumn(c, tgt.PerMinerWeights)
	}
	svc.enforcePerBriefCaps(w, briefs)

	if got := w.ColumnSum(0); got > briefs[0].EffectiveCap()+1e-10 {
		t.Fatalf("column sum after B1 = %v, exceeds cap %v", got, briefs[0].EffectiveCap())
	}
}

func TestDistribute_MinEmissionFloorCanExceedCapAfterB2(t *testing.T) {
	// Documented accepted ordering (SPEC_FULL.md §9): B2 may push a column
	// above its cap. Use a tiny total so the floor scale-up is large.
	briefs := []brief.Brief{{ID: "b", Cap: 0.01}}
	uids := []int{0, 1}
	targets := []emission.Target{{BriefID: "b", PerMinerWeights: []float64{0, 0.005}}}

	svc := New(Config{MinTotalEmission: 1.0}, nil, nil)
	result := svc.Distribute(targets, emptyResultSet(uids), briefs, uids)

	if got := result.WPost.ColumnSum(0); got <= briefs[0].EffectiveCap() {
		t.Fatalf("expected B2 to push column sum above cap %v, got %v", briefs[0].EffectiveCap(), got)
	}
}

func TestDistribute_GlobalNormalizationWhenOverOne(t *testing.T) {
	briefs := []brief.Brief{
		{ID: "b1", Cap: 10},
		{ID: "b2", Cap: 10},
	}
	uids := []int{0, 1, 2}
	targets := []emission.Target{
		{BriefID: "b1", PerMinerWeights: []float64{0, 3, 3}},
		{BriefID: "b2", PerMinerWeights: []float64{0, 3, 3}},
	}

	svc := New(Config{MinTotalEmission: 0}, nil, nil)
	result := svc.Distribute(targets, emptyResultSet(uids), briefs, uids)

	if got := result.WPost.Sum(); !closeEnough(got, 1.0) {
		t.Fatalf("W_post total = %v, want 1.0 after global normalization", got)
	}
	assertSumsToOne(t, result.Rewards)
}

func TestDistribute_UnequalBriefWeightsMixProportionally(t *testing.T) {
	briefs := []brief.Brief{
		{ID: "b1", Weight: 300, Cap: 10},
		{ID: "b2", Weight: 100, Cap: 10},
	}
	uids := []int{1}
	targets := []emission.Target{
		{BriefID: "b1", PerMinerWeights: []float64{0.4}},
		{BriefID: "b2", PerMinerWeights: []float64{0.4}},
	}

	svc := New(Config{MinTotalEmission: 0}, nil, nil)
	result := svc.Distribute(targets, emptyResultSet(uids), briefs, uids)

	// b1 share = 300/400 = 0.75, b2 share = 100/400 = 0.25
	want := 0.4*0.75 + 0.4*0.25
	if !closeEnough(result.Rewards[0], want) {
		t.Fatalf("reward = %v, want %v", result.Rewards[0], want)
	}
}

func TestDistribute_NoBurnUIDLeavesRowSumsUnadjusted(t *testing.T) {
	briefs := []brief.Brief{{ID: "b", Cap: 1}}
	uids := []int{1, 2}
	targets := []emission.Target{{BriefID: "b", PerMinerWeights: []float64{0.2, 0.3}}}

	svc := New(Config{MinTotalEmission: 0}, nil, nil)
	result := svc.Distribute(targets, emptyResultSet(uids), briefs, uids)

	if !closeEnough(result.Rewards[0], 0.2) || !closeEnough(result.Rewards[1], 0.3) {
		t.Fatalf("rewards = %v, want [0.2 0.3] unadjusted (0 not in uids)", result.Rewards)
	}
}

func TestDistribute_ReserveAllocatorInvoked(t *testing.T) {
	briefs := []brief.Brief{{ID: "b", Cap: 1}}
	uids := []int{0, 1}
	targets := []emission.Target{{BriefID: "b", PerMinerWeights: []float64{0, 0.1}}}

	called := false
	allocate := func(rewards []float64, uids []int) []float64 {
		called = true
		out := make([]float64, len(rewards))
		copy(out, rewards)
		return out
	}

	svc := New(Config{MinTotalEmission: 0}, allocate, nil)
	svc.Distribute(targets, emptyResultSet(uids), briefs, uids)

	if !called {
		t.Fatalf("expected reserve allocator to be invoked")
	}
}

func TestFallback_BurnUIDPresent(t *testing.T) {
	result := Fallback([]int{0, 5, 9})
	if result.Rewards[0] != 1.0 {
		t.Fatalf("burn uid reward = %v, want 1.0", result.Rewards[0])
	}
	if result.Rewards[1] != 0 || result.Rewards[2] != 0 {
		t.Fatalf("non-burn rewards = %v, want zeros", result.Rewards[1:])
	}
	for _, s := range result.Stats {
		if s.Scores == nil || len(s.Scores) != 0 {
			t.Fatalf("fallback stats must carry empty scores map, got %v", s.Scores)
		}
	}
}

func TestFallback_NoBurnUID(t *testing.T) {
	result := Fallback([]int{5, 9})
	for _, r := range result.Rewards {
		if r != 0 {
			t.Fatalf("expected all-zero rewards when uid 0 absent, got %v", result.Rewards)
		}
	}
}

func assertSumsToOne(t *testing.T, rewards []float64) {
	t.Helper()
	sum := 0.0
	for _, r := range rewards {
		if r < 0 {
			t.Fatalf("reward %v is negative", r)
		}
		sum += r
	}
	if math.Abs(sum-1.0) > 1e-10 {
		t.Fatalf("rewards sum to %v, want 1.0 +/- 1e-10", sum)
	}
}
