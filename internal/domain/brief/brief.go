// Package brief defines the campaign definitions that miner content is
// scored against.
package brief

import "time"

// Format names the content format a Brief targets. Unknown formats fall
// back to FormatDedicated with a warning (see emissioncalc).
type Format string

const (
	FormatDedicated Format = "dedicated"
	FormatAdRead    Format = "ad-read"
)

// DefaultWeight is used for any Brief whose Weight is unset.
const DefaultWeight = 100.0

// DefaultBoost is applied when a Brief specifies no boost multiplier.
const DefaultBoost = 1.0

// DefaultCap is the per-brief column-sum ceiling used when a Brief
// specifies no cap.
const DefaultCap = 1.0

// SubsRange bounds a channel's subscriber count; either bound may be absent.
type SubsRange struct {
	Min *int64
	Max *int64
}

// Brief is a campaign definition, immutable for the duration of one cycle.
type Brief struct {
	ID        string
	Weight    float64
	Format    Format
	Boost     float64
	Cap       float64
	StartDate time.Time
	SubsRange *SubsRange
}

// EffectiveWeight returns Weight, defaulting to DefaultWeight when unset
// (zero value).
func (b Brief) EffectiveWeight() float64 {
	if b.Weight == 0 {
		return DefaultWeight
	}
	return b.Weight
}

// EffectiveBoost returns Boost, defaulting to DefaultBoost when unset.
func (b Brief) EffectiveBoost() float64 {
	if b.Boost == 0 {
		return DefaultBoost
	}
	return b.Boost
}

// EffectiveCap returns Cap, defaulting to DefaultCap when unset.
func (b Brief) EffectiveCap() float64 {
	if b.Cap == 0 {
		return DefaultCap
	}
	return b.Cap
}

// IndexByID returns a brief-id to column-index mapping for briefs, in the
// order given — used throughout the engine to convert between a brief list
// and matrix column positions.
func IndexByID(briefs []Brief) map[string]int {
	idx := make(map[string]int, len(briefs))
	for i, b := range briefs {
		idx[b.ID] = i
	}
	return idx
}
