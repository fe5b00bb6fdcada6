// Package corrections holds the weight-correction records that describe
// how much constraint enforcement scaled each scored content item.
package corrections

// MaxScalingFactor is the configurable upper clamp applied to every
// correction's scaling factor. The value 10 is arbitrary, kept to match
// the source behavior it was grounded on.
const MaxScalingFactor = 10.0

// Correction records the scaling a single (content, brief) pair suffered
// from constraint enforcement during reward distribution.
type Correction struct {
	ContentID     string
	BriefID       string
	ScalingFactor float64
}
