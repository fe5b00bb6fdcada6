// Command validator runs one reward-engine cycle and prints the resulting
// reward vector and per-miner stats as JSON. Scheduling the next cycle and
// submitting the weights on-chain are the caller's responsibility
// (SPEC_FULL.md §1 Non-goals); this binary only drives RunCycle once.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/bitcast-network/bitcast-sub001/infrastructure/crypto"
	"github.com/bitcast-network/bitcast-sub001/internal/external"
	"github.com/bitcast-network/bitcast-sub001/internal/orchestrator"
	"github.com/bitcast-network/bitcast-sub001/internal/platform"
	"github.com/bitcast-network/bitcast-sub001/internal/platform/youtube"
	"github.com/bitcast-network/bitcast-sub001/internal/services/corrections"
	"github.com/bitcast-network/bitcast-sub001/internal/services/emissioncalc"
	"github.com/bitcast-network/bitcast-sub001/internal/services/minerquery"
	"github.com/bitcast-network/bitcast-sub001/internal/services/rewarddist"
	"github.com/bitcast-network/bitcast-sub001/internal/services/scoreaggregation"
	"github.com/bitcast-network/bitcast-sub001/internal/services/telemetry"
	"github.com/bitcast-network/bitcast-sub001/pkg/config"
	"github.com/bitcast-network/bitcast-sub001/pkg/logger"
)

// cycleInput is the JSON document describing one cycle's miner set, the
// metagraph snapshot to score against, and where to reach every external
// collaborator. Everything here is consumed read-only (SPEC_FULL.md §1).
type cycleInput struct {
	UIDs            []int               `json:"uids"`
	Metagraph       external.Snapshot   `json:"metagraph"`
	Axons           map[string]string   `json:"axons"`
	BriefsURL       string              `json:"briefs_url"`
	PriceURL        string              `json:"price_url"`
	PriceField      string              `json:"price_field"`
	EmissionURL     string              `json:"emission_url"`
	EmissionField   string              `json:"emission_field"`
	YouTubeDataURL  string              `json:"youtube_data_url"`
	YouTubeAnalytics string             `json:"youtube_analytics_url"`
	YouTubeTranscript string            `json:"youtube_transcript_url"`
}

func main() {
	configPath := flag.String("config", "", "path to configuration YAML file (overrides CONFIG_FILE env)")
	inputPath := flag.String("input", "", "path to the cycle input JSON document (required)")
	flag.Parse()

	if *configPath != "" {
		os.Setenv("CONFIG_FILE", *configPath)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("invalid config: %v", err)
	}

	lg := logger.New(cfg.Logging)

	if strings.TrimSpace(*inputPath) == "" {
		lg.Fatal("missing required -input flag")
	}

	input, err := loadCycleInput(*inputPath)
	if err != nil {
		lg.Fatalf("load cycle input: %v", err)
	}

	orch, err := buildOrchestrator(cfg, input, lg)
	if err != nil {
		lg.Fatalf("build orchestrator: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	rewards, stats := orch.RunCycle(ctx, input.UIDs)

	output := struct {
		Rewards []float64          `json:"rewards"`
		Stats   []rewarddist.Stats `json:"stats"`
	}{Rewards: rewards, Stats: stats}

	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(output); err != nil {
		lg.Fatalf("encode result: %v", err)
	}
}

func loadCycleInput(path string) (cycleInput, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return cycleInput{}, err
	}
	var in cycleInput
	if err := json.Unmarshal(data, &in); err != nil {
		return cycleInput{}, fmt.Errorf("decode cycle input: %w", err)
	}
	return in, nil
}

func buildOrchestrator(cfg *config.Config, input cycleInput, log *logger.Logger) (*orchestrator.Orchestrator, error) {
	briefCatalog, err := external.NewHTTPBriefCatalog(input.BriefsURL, 0)
	if err != nil {
		return nil, err
	}

	priceOracle, err := external.NewHTTPScalarOracle(input.PriceURL, input.PriceField, 0)
	if err != nil {
		return nil, err
	}
	emissionOracle, err := external.NewHTTPScalarOracle(input.EmissionURL, input.EmissionField, 0)
	if err != nil {
		return nil, err
	}

	resolver := axonResolver(input.Axons)
	transport := external.NewHTTPMinerTransport(resolver, 0)
	query := minerquery.New(transport, log)

	registry := platform.NewRegistry(nil, log)

	ytData := youtube.NewRESTDataClient(input.YouTubeDataURL, 0)
	ytAnalytics := youtube.NewRESTAnalyticsClient(input.YouTubeAnalytics, 0)
	ytTranscript := youtube.NewRESTTranscriptClient(input.YouTubeTranscript, 0)
	ytEvaluator := youtube.New(ytData, ytAnalytics, ytTranscript, youtube.Config{
		MinAlphaStakeThreshold: cfg.Evaluation.MinAlphaStakeThreshold,
		MaxAccountsPerMiner:    cfg.Evaluation.MaxAccountsPerMiner,
		RewardDelay:            cfg.Evaluation.RewardDelay,
		RollingWindow:          cfg.Evaluation.RollingWindow,
		EcoMode:                cfg.Evaluation.EcoMode,
		TranscriptMaxRetries:   cfg.Evaluation.TranscriptMaxRetries,
	}, log)
	registry.Register(ytEvaluator)

	aggregator := scoreaggregation.New()

	emissionSvc := emissioncalc.New(priceOracle, emissionOracle, emissioncalc.Config{
		ScalingFactorDedicated: cfg.Evaluation.ScalingFactorDedicated,
		ScalingFactorAdRead:    cfg.Evaluation.ScalingFactorAdRead,
		SmoothingExponent:      cfg.Evaluation.SmoothingExponent,
	}, log)

	distributor := rewarddist.New(rewarddist.Config{
		MinTotalEmission: cfg.Evaluation.MinTotalEmission,
	}, nil, log)

	correctionsSvc := corrections.New()

	publisher, err := buildPublisher(cfg, log)
	if err != nil {
		return nil, err
	}

	return orchestrator.New(
		briefCatalog,
		query,
		registry,
		aggregator,
		emissionSvc,
		distributor,
		correctionsSvc,
		publisher,
		input.Metagraph,
		nil,
		log,
	), nil
}

func buildPublisher(cfg *config.Config, log *logger.Logger) (*telemetry.Publisher, error) {
	if !cfg.Publish.Enabled {
		return telemetry.New(telemetry.Config{Enabled: false}, nil, log)
	}

	keyHex := strings.TrimSpace(os.Getenv("SIGNING_KEY"))
	if keyHex == "" {
		return nil, fmt.Errorf("SIGNING_KEY must be set when publishing is enabled")
	}
	keyPair, err := crypto.LoadKeyPairFromHex(keyHex)
	if err != nil {
		return nil, err
	}
	signer := telemetry.NewSigner(keyPair)

	return telemetry.New(telemetry.Config{
		Enabled:             true,
		AccountsEndpoint:     cfg.Publish.AccountsEndpoint,
		CorrectionsEndpoint:  cfg.Publish.CorrectionsEndpoint,
	}, signer, log)
}

// axonResolver builds an external.AxonResolver over a uid->endpoint map
// supplied in the cycle input.
func axonResolver(axons map[string]string) external.AxonResolver {
	return func(uid int) (string, error) {
		endpoint, ok := axons[strconv.Itoa(uid)]
		if !ok || endpoint == "" {
			return "", fmt.Errorf("no axon endpoint configured for uid %d", uid)
		}
		return endpoint, nil
	}
}
