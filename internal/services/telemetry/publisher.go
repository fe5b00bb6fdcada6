package telemetry

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"golang.org/x/sync/errgroup"

	correctiondomain "github.com/bitcast-network/bitcast-sub001/internal/domain/corrections"
	"github.com/bitcast-network/bitcast-sub001/internal/domain/evaluation"
	"github.com/bitcast-network/bitcast-sub001/infrastructure/httputil"
	"github.com/bitcast-network/bitcast-sub001/pkg/logger"
)

const (
	defaultTimeout     = 60 * time.Second
	defaultMaxBodyBytes = 1 << 20
)

// Config configures the publisher's endpoints and whether publication is
// enabled at all (SPEC_FULL.md §6 enable_data_publish).
type Config struct {
	Enabled             bool
	AccountsEndpoint    string
	CorrectionsEndpoint string
}

// Publisher posts signed per-account and weight-correction telemetry.
// Every publication is best-effort: errors are logged and never
// propagated to the orchestrator.
type Publisher struct {
	cfg        Config
	signer     *Signer
	httpClient *http.Client
	log        *logger.Logger
	now        Clock
}

// New builds a Publisher. Endpoints are validated eagerly so a
// misconfigured URL fails at startup rather than on the first publish.
func New(cfg Config, signer *Signer, log *logger.Logger) (*Publisher, error) {
	if log == nil {
		log = logger.NewDefault("telemetry-publisher")
	}
	if cfg.Enabled {
		if _, _, err := httputil.NormalizeBaseURL(cfg.AccountsEndpoint); err != nil {
			return nil, fmt.Errorf("telemetry: accounts endpoint: %w", err)
		}
		if _, _, err := httputil.NormalizeBaseURL(cfg.CorrectionsEndpoint); err != nil {
			return nil, fmt.Errorf("telemetry: corrections endpoint: %w", err)
		}
	}
	return &Publisher{
		cfg:        cfg,
		signer:     signer,
		httpClient: &http.Client{Timeout: defaultTimeout},
		log:        log,
		now:        time.Now,
	}, nil
}

// PublishAccounts posts one signed envelope per AccountResult in rs, fanned
// out across miners and across accounts within a miner.
func (p *Publisher) PublishAccounts(ctx context.Context, runID string, rs *evaluation.ResultSet) {
	if !p.cfg.Enabled {
		return
	}

	g, gctx := errgroup.WithContext(ctx)
	for _, uid := range rs.UIDs {
		uid := uid
		result, ok := rs.Get(uid)
		if !ok {
			continue
		}
		for _, accountID := range result.AccountOrder {
			accountID := accountID
			account := result.AccountResults[accountID]
			g.Go(func() error {
				p.publishOneAccount(gctx, runID, uid, result.Platform, account)
				return nil
			})
		}
	}
	_ = g.Wait()
}

func (p *Publisher) publishOneAccount(ctx context.Context, runID string, uid int, platform string, account evaluation.AccountResult) {
	payload := map[string]interface{}{
		"account_id": account.AccountID,
		"account_data": map[string]interface{}{
			"platform_data":     account.PlatformData,
			"content_items":     stripTranscripts(account.ContentItems),
			"scores":            account.Scores,
			"performance_stats": account.PerformanceStats,
			"success":           account.Success,
			"error":             account.Error,
		},
	}

	envelope, err := p.signer.Build(platform, runID, &uid, payload, p.now)
	if err != nil {
		p.log.WithField("uid", uid).Errorf("failed to sign account telemetry: %v", err)
		return
	}

	p.post(ctx, p.cfg.AccountsEndpoint, envelope)
}

// PublishCorrections posts a single batch envelope carrying every derived
// WeightCorrection for the cycle.
func (p *Publisher) PublishCorrections(ctx context.Context, runID string, corrections []correctiondomain.Correction) {
	if !p.cfg.Enabled {
		return
	}

	payload := make([]map[string]interface{}, len(corrections))
	for i, c := range corrections {
		payload[i] = map[string]interface{}{
			"content_id":     c.ContentID,
			"brief_id":       c.BriefID,
			"scaling_factor": c.ScalingFactor,
		}
	}

	envelope, err := p.signer.Build("weight_corrections", runID, nil, payload, p.now)
	if err != nil {
		p.log.Errorf("failed to sign weight corrections telemetry: %v", err)
		return
	}

	p.post(ctx, p.cfg.CorrectionsEndpoint, envelope)
}

// post sends the envelope and logs the outcome; it never returns an error
// to the caller, matching the fire-and-forget publication contract.
func (p *Publisher) post(ctx context.Context, endpoint string, envelope Envelope) {
	body, err := json.Marshal(envelope)
	if err != nil {
		p.log.Errorf("failed to marshal envelope: %v", err)
		return
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		p.log.Errorf("failed to build publish request: %v", err)
		return
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		p.log.Errorf("publish request failed: %v", err)
		return
	}
	defer resp.Body.Close()

	respBody, _, _ := httputil.ReadAllWithLimit(resp.Body, defaultMaxBodyBytes)

	if resp.StatusCode != http.StatusAccepted {
		p.logFailureStatus(resp.StatusCode, respBody)
		return
	}

	var ack struct {
		Status string `json:"status"`
	}
	if err := json.Unmarshal(respBody, &ack); err != nil || ack.Status != "success" {
		p.log.Warnf("publish acknowledged with unexpected body: %s", string(respBody))
		return
	}
}

func (p *Publisher) logFailureStatus(status int, body []byte) {
	switch status {
	case http.StatusBadRequest:
		p.log.Errorf("publish rejected (400 bad request): %s", string(body))
	case http.StatusUnauthorized:
		p.log.Errorf("publish rejected (401 unauthorized): %s", string(body))
	case http.StatusForbidden:
		p.log.Errorf("publish rejected (403 forbidden): %s", string(body))
	default:
		p.log.Errorf("publish failed with status %d: %s", status, string(body))
	}
}

// stripTranscripts deep-copies content items with description/transcript
// fields removed from Details, to reduce payload size on the wire.
func stripTranscripts(items map[string]evaluation.ContentItem) map[string]interface{} {
	out := make(map[string]interface{}, len(items))
	for id, item := range items {
		details := make(map[string]interface{}, len(item.Details))
		for k, v := range item.Details {
			if k == "description" || k == "transcript" {
				continue
			}
			details[k] = v
		}
		out[id] = map[string]interface{}{
			"details":            details,
			"bitcast_content_id": item.BitcastContentID,
			"brief_metrics":      item.BriefMetrics,
		}
	}
	return out
}
