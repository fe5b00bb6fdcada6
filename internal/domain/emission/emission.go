// Package emission holds the per-brief USD-denominated emission bundle
// produced by emission calculation and consumed by reward distribution.
package emission

// Target is the emission bundle for one brief.
type Target struct {
	BriefID         string
	USDTarget       float64
	PerMinerWeights []float64
	ScalingFactors  map[string]float64
}
