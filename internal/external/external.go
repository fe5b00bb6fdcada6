// Package external declares the contracts for collaborators the core
// consumes but does not implement: the brief catalog, price/emission
// lookups, and the community-reserve reallocator. SPEC_FULL.md §1 and §5
// name these out of scope beyond a thin interface.
package external

import (
	"context"

	"github.com/bitcast-network/bitcast-sub001/internal/domain/brief"
)

// BriefCatalog fetches the cycle's campaign definitions.
type BriefCatalog interface {
	GetBriefs(ctx context.Context) ([]brief.Brief, error)
}

// PriceOracle returns the current alpha token price in USD, used to
// convert USD emission targets into raw weights.
type PriceOracle interface {
	GetAlphaPriceUSD(ctx context.Context) (float64, error)
}

// EmissionOracle returns the network's total daily alpha emission.
type EmissionOracle interface {
	GetTotalDailyAlpha(ctx context.Context) (float64, error)
}

// ReserveAllocator may shift mass from the burn uid to a configured
// reserve uid. It must preserve Σ rewards = 1 and non-negativity. A nil
// ReserveAllocator is a legal no-op (r' = r).
type ReserveAllocator func(rewards []float64, uids []int) []float64
