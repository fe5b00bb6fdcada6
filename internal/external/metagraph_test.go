package external

import "testing"

func TestSnapshot_InfoFor_PopulatesPresentColumns(t *testing.T) {
	snap := Snapshot{
		Stake:      []float64{1, 2, 3},
		AlphaStake: []float64{10, 20},
		Incentive:  []float64{},
		Emission:   nil,
	}

	info := snap.InfoFor(1)
	if info.Stake == nil || *info.Stake != 2 {
		t.Fatalf("Stake = %v, want 2", info.Stake)
	}
	if info.AlphaStake == nil || *info.AlphaStake != 20 {
		t.Fatalf("AlphaStake = %v, want 20", info.AlphaStake)
	}
	if info.Incentive != nil {
		t.Fatalf("Incentive = %v, want nil (empty column)", info.Incentive)
	}
	if info.Emission != nil {
		t.Fatalf("Emission = %v, want nil (nil column)", info.Emission)
	}
}

func TestSnapshot_InfoFor_OutOfRangeUIDOmitsFields(t *testing.T) {
	snap := Snapshot{Stake: []float64{5}}

	info := snap.InfoFor(3)
	if info.Stake != nil {
		t.Fatalf("Stake = %v, want nil for out-of-range uid", info.Stake)
	}

	negative := snap.InfoFor(-1)
	if negative.Stake != nil {
		t.Fatalf("Stake = %v, want nil for negative uid", negative.Stake)
	}
}

func TestSnapshot_InfoFor_EmptySnapshot(t *testing.T) {
	info := Snapshot{}.InfoFor(0)
	if info.Stake != nil || info.AlphaStake != nil || info.Incentive != nil || info.Emission != nil {
		t.Fatalf("expected all nil fields for an empty snapshot, got %+v", info)
	}
}
