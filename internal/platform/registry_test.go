package platform

import (
	"context"
	"testing"

	"github.com/bitcast-network/bitcast-sub001/internal/domain/brief"
	"github.com/bitcast-network/bitcast-sub001/internal/domain/evaluation"
	"github.com/bitcast-network/bitcast-sub001/internal/domain/miner"
)

type stubEvaluator struct {
	name   string
	accept bool
	reset  bool
}

func (s *stubEvaluator) Name() string                            { return s.name }
func (s *stubEvaluator) CanEvaluate(r miner.Response) bool        { return s.accept }
func (s *stubEvaluator) SupportedTokenTypes() []string            { return nil }
func (s *stubEvaluator) EvaluateAccounts(ctx context.Context, r miner.Response, b []brief.Brief, m evaluation.MetagraphInfo) (evaluation.Result, error) {
	return evaluation.Result{UID: r.UID, Platform: s.name}, nil
}
func (s *stubEvaluator) ResetCycleState() { s.reset = true }

func TestSelectFor_PriorityListWinsOverInsertionOrder(t *testing.T) {
	first := &stubEvaluator{name: "first", accept: true}
	second := &stubEvaluator{name: "second", accept: true}

	r := NewRegistry([]string{"second"}, nil)
	r.Register(first)
	r.Register(second)

	picked, ok := r.SelectFor(miner.Response{Valid: true})
	if !ok || picked.Name() != "second" {
		t.Fatalf("expected priority list to win, got %v (ok=%v)", picked, ok)
	}
}

func TestSelectFor_FallsBackToInsertionOrder(t *testing.T) {
	first := &stubEvaluator{name: "first", accept: false}
	second := &stubEvaluator{name: "second", accept: true}

	r := NewRegistry(nil, nil)
	r.Register(first)
	r.Register(second)

	picked, ok := r.SelectFor(miner.Response{Valid: true})
	if !ok || picked.Name() != "second" {
		t.Fatalf("expected insertion-order fallback to find second, got %v (ok=%v)", picked, ok)
	}
}

func TestSelectFor_NoMatchReturnsFalse(t *testing.T) {
	r := NewRegistry(nil, nil)
	r.Register(&stubEvaluator{name: "first", accept: false})

	_, ok := r.SelectFor(miner.Response{Valid: true})
	if ok {
		t.Fatalf("expected no match when no evaluator accepts")
	}
}

func TestSelectFor_InvalidResponseNeverMatches(t *testing.T) {
	r := NewRegistry(nil, nil)
	r.Register(&stubEvaluator{name: "first", accept: true})

	_, ok := r.SelectFor(miner.Response{Valid: false})
	if ok {
		t.Fatalf("expected invalid response to never match an evaluator")
	}
}

func TestResetCycleState_CallsResettableEvaluators(t *testing.T) {
	e := &stubEvaluator{name: "first", accept: true}
	r := NewRegistry(nil, nil)
	r.Register(e)

	r.ResetCycleState()

	if !e.reset {
		t.Fatalf("expected ResetCycleState to be called on the registered evaluator")
	}
}

func TestRegistry_PlatformsReturnsInsertionOrder(t *testing.T) {
	r := NewRegistry(nil, nil)
	r.Register(&stubEvaluator{name: "a", accept: true})
	r.Register(&stubEvaluator{name: "b", accept: true})

	got := r.Platforms()
	if len(got) != 2 || got[0] != "a" || got[1] != "b" {
		t.Fatalf("Platforms() = %v, want [a b]", got)
	}
}
