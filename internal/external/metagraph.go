package external

import "github.com/bitcast-network/bitcast-sub001/internal/domain/evaluation"

// Snapshot is an in-memory metagraph snapshot: parallel per-uid columns
// for stake, alpha stake, incentive, and emission, consumed read-only by
// the orchestrator once per miner per cycle.
type Snapshot struct {
	Stake      []float64
	AlphaStake []float64
	Incentive  []float64
	Emission   []float64
}

// InfoFor extracts the per-uid fields present in the snapshot, mirroring
// the bounds-checked extraction the reward engine was grounded on: a
// missing/short column simply omits that field rather than erroring.
func (s Snapshot) InfoFor(uid int) evaluation.MetagraphInfo {
	info := evaluation.MetagraphInfo{}
	if uid >= 0 && uid < len(s.Stake) {
		v := s.Stake[uid]
		info.Stake = &v
	}
	if uid >= 0 && uid < len(s.AlphaStake) {
		v := s.AlphaStake[uid]
		info.AlphaStake = &v
	}
	if uid >= 0 && uid < len(s.Incentive) {
		v := s.Incentive[uid]
		info.Incentive = &v
	}
	if uid >= 0 && uid < len(s.Emission) {
		v := s.Emission[uid]
		info.Emission = &v
	}
	return info
}
