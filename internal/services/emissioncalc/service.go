// Package emissioncalc transforms a ScoreMatrix into per-brief USD emission
// targets and then into raw per-miner-per-brief weights.
package emissioncalc

import (
	"context"
	"math"
	"time"

	svcerrors "github.com/bitcast-network/bitcast-sub001/infrastructure/errors"
	"github.com/bitcast-network/bitcast-sub001/infrastructure/resilience"
	"github.com/bitcast-network/bitcast-sub001/internal/domain/brief"
	"github.com/bitcast-network/bitcast-sub001/internal/domain/emission"
	"github.com/bitcast-network/bitcast-sub001/internal/domain/scorematrix"
	"github.com/bitcast-network/bitcast-sub001/internal/external"
	"github.com/bitcast-network/bitcast-sub001/pkg/logger"
)

// PriceRetryConfig is the 5-attempt, 1s→10s exponential backoff SPEC_FULL.md
// §6 requires for the price and daily-emission lookups.
func PriceRetryConfig() resilience.RetryConfig {
	return resilience.RetryConfig{
		MaxAttempts:  5,
		InitialDelay: time.Second,
		MaxDelay:     10 * time.Second,
		Multiplier:   2.0,
		Jitter:       0.1,
	}
}

// Config carries the per-format scaling constants and smoothing exponent.
type Config struct {
	ScalingFactorDedicated float64
	ScalingFactorAdRead    float64
	SmoothingExponent      float64 // α ∈ (0, 1]
}

// Service implements EmissionCalculationService.
type Service struct {
	price    external.PriceOracle
	emission external.EmissionOracle
	cfg      Config
	log      *logger.Logger
}

// New builds a Service.
func New(price external.PriceOracle, emissionOracle external.EmissionOracle, cfg Config, log *logger.Logger) *Service {
	if log == nil {
		log = logger.NewDefault("emission-calc")
	}
	if cfg.SmoothingExponent <= 0 || cfg.SmoothingExponent > 1 {
		cfg.SmoothingExponent = 1
	}
	return &Service{price: price, emission: emissionOracle, cfg: cfg, log: log}
}

// Transform runs the per-brief column transform (scaling factor, boost,
// smoothing with mean-preserving rescale) and then converts the resulting
// USD emission targets into raw weights via the price/emission lookups.
func (s *Service) Transform(ctx context.Context, scores *scorematrix.Matrix, briefs []brief.Brief) []emission.Target {
	usdMatrix := s.emissionTargetsMatrix(scores, briefs)
	rawWeights := s.rawWeights(ctx, usdMatrix)

	targets := make([]emission.Target, len(briefs))
	for c, b := range briefs {
		targets[c] = emission.Target{
			BriefID:         b.ID,
			USDTarget:       usdMatrix.ColumnSum(c),
			PerMinerWeights: rawWeights.Column(c),
			ScalingFactors: map[string]float64{
				"scaling_factor":   s.scalingFactor(b),
				"boost_factor":     b.EffectiveBoost(),
				"smoothing_factor": s.cfg.SmoothingExponent,
			},
		}
	}
	return targets
}

// emissionTargetsMatrix applies steps 1–4 of SPEC_FULL.md §4.5 to every
// brief column.
func (s *Service) emissionTargetsMatrix(scores *scorematrix.Matrix, briefs []brief.Brief) *scorematrix.Matrix {
	out := scorematrix.New(scores.Rows(), scores.Cols())
	for c, b := range briefs {
		col := scores.Column(c)

		scaling := s.scalingFactor(b)
		boost := b.EffectiveBoost()
		for i := range col {
			col[i] *= scaling * boost
		}

		scaled := make([]float64, len(col))
		copy(scaled, col)

		p := make([]float64, len(col))
		for i, v := range col {
			pv := math.Max(v, 0)
			p[i] = math.Pow(pv, s.cfg.SmoothingExponent)
		}

		avgScaled := mean(nonNegative(scaled))
		avgP := mean(p)

		result := p
		if avgP > 0 {
			factor := avgScaled / avgP
			for i := range result {
				result[i] *= factor
			}
		}

		out.SetColumn(c, result)
	}
	return out
}

// scalingFactor maps a brief's format to its configured constant, falling
// back to the dedicated factor for unknown formats.
func (s *Service) scalingFactor(b brief.Brief) float64 {
	switch b.Format {
	case brief.FormatDedicated:
		return s.cfg.ScalingFactorDedicated
	case brief.FormatAdRead:
		return s.cfg.ScalingFactorAdRead
	default:
		s.log.WithField("brief_id", b.ID).Warnf("unknown brief format %q, using dedicated", b.Format)
		return s.cfg.ScalingFactorDedicated
	}
}

// rawWeights converts USD emission targets into dimensionless raw weights
// by dividing by (alpha price × total daily alpha). If either lookup is
// exhausted after retry, the raw-weights matrix is all zeros and
// distribution proceeds — the burn uid absorbs everything.
func (s *Service) rawWeights(ctx context.Context, usd *scorematrix.Matrix) *scorematrix.Matrix {
	out := scorematrix.New(usd.Rows(), usd.Cols())

	price, err := s.fetchPrice(ctx)
	if err != nil {
		s.log.Errorf("alpha price lookup exhausted: %v", svcerrors.Exhausted("alpha_price", err))
		return out
	}
	dailyAlpha, err := s.fetchDailyAlpha(ctx)
	if err != nil {
		s.log.Errorf("daily alpha emission lookup exhausted: %v", svcerrors.Exhausted("total_daily_alpha", err))
		return out
	}
	if price <= 0 || dailyAlpha <= 0 {
		s.log.Warn("non-positive price or daily alpha emission, raw weights are zero")
		return out
	}

	conversion := 1.0 / (price * dailyAlpha)
	out = usd.Clone()
	out.Scale(conversion)
	return out
}

func (s *Service) fetchPrice(ctx context.Context) (float64, error) {
	var price float64
	err := resilience.Retry(ctx, PriceRetryConfig(), func() error {
		p, err := s.price.GetAlphaPriceUSD(ctx)
		if err != nil {
			return err
		}
		price = p
		return nil
	})
	return price, err
}

func (s *Service) fetchDailyAlpha(ctx context.Context) (float64, error) {
	var total float64
	err := resilience.Retry(ctx, PriceRetryConfig(), func() error {
		t, err := s.emission.GetTotalDailyAlpha(ctx)
		if err != nil {
			return err
		}
		total = t
		return nil
	})
	return total, err
}

func nonNegative(v []float64) []float64 {
	out := make([]float64, len(v))
	for i, x := range v {
		out[i] = math.Max(x, 0)
	}
	return out
}

func mean(v []float64) float64 {
	if len(v) == 0 {
		return 0
	}
	sum := 0.0
	for _, x := range v {
		sum += x
	}
	return sum / float64(len(v))
}
