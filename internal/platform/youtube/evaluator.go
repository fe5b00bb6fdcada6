// Package youtube implements the PlatformEvaluator capability for YouTube
// accounts claimed by miners via a yt_access_tokens credential.
package youtube

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/bitcast-network/bitcast-sub001/internal/domain/brief"
	"github.com/bitcast-network/bitcast-sub001/internal/domain/evaluation"
	"github.com/bitcast-network/bitcast-sub001/internal/domain/miner"
	"github.com/bitcast-network/bitcast-sub001/pkg/logger"
)

// TokenType is the credential tag this evaluator recognizes.
const TokenType = "yt_access_tokens"

const briefMatchWorkerLimit = 5

// Config carries the evaluator's configured knobs (SPEC_FULL.md §2/§6).
type Config struct {
	MinAlphaStakeThreshold float64
	MaxAccountsPerMiner    int
	RewardDelay            int
	RollingWindow          int
	EcoMode                bool
	TranscriptMaxRetries   int
}

// Evaluator scores YouTube accounts against the cycle's briefs.
type Evaluator struct {
	data       DataClient
	analytics  AnalyticsClient
	transcript TranscriptClient
	cfg        Config
	log        *logger.Logger

	mu            sync.Mutex
	scoredContent map[string]bool // cycle-scoped dedup, cleared by ResetCycleState
}

// New builds a YouTube evaluator from its external client dependencies.
func New(data DataClient, analytics AnalyticsClient, transcript TranscriptClient, cfg Config, log *logger.Logger) *Evaluator {
	if log == nil {
		log = logger.NewDefault("youtube-evaluator")
	}
	if cfg.MaxAccountsPerMiner <= 0 {
		cfg.MaxAccountsPerMiner = 5
	}
	return &Evaluator{
		data:          data,
		analytics:     analytics,
		transcript:    transcript,
		cfg:           cfg,
		log:           log,
		scoredContent: make(map[string]bool),
	}
}

// Name returns the stable platform tag.
func (e *Evaluator) Name() string { return "youtube" }

// SupportedTokenTypes is descriptive only.
func (e *Evaluator) SupportedTokenTypes() []string { return []string{TokenType} }

// CanEvaluate reports whether the response carries at least one YouTube
// access token and is itself valid.
func (e *Evaluator) CanEvaluate(response miner.Response) bool {
	return response.Valid && len(response.TokensOf(TokenType)) > 0
}

// ResetCycleState clears the dedup set tracking already-scored content, so
// the next cycle starts fresh.
func (e *Evaluator) ResetCycleState() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.scoredContent = make(map[string]bool)
}

// EvaluateAccounts scores up to cfg.MaxAccountsPerMiner claimed accounts.
// Accounts may be processed concurrently; account ids remain account_{1..K}
// in the order tokens appear in the response regardless of completion order.
func (e *Evaluator) EvaluateAccounts(ctx context.Context, response miner.Response, briefs []brief.Brief, metagraph evaluation.MetagraphInfo) (evaluation.Result, error) {
	briefIDs := make([]string, len(briefs))
	for i, b := range briefs {
		briefIDs[i] = b.ID
	}

	result := evaluation.Result{
		UID:              response.UID,
		Platform:         e.Name(),
		MetagraphInfo:    metagraph,
		AggregatedScores: make(map[string]float64, len(briefIDs)),
	}
	for _, id := range briefIDs {
		result.AggregatedScores[id] = 0
	}

	tokens := response.TokensOf(TokenType)
	if len(tokens) > e.cfg.MaxAccountsPerMiner {
		e.log.WithField("uid", response.UID).Infof(
			"limiting to %d accounts per miner (received %d)", e.cfg.MaxAccountsPerMiner, len(tokens))
		tokens = tokens[:e.cfg.MaxAccountsPerMiner]
	}

	minStakeOK := e.meetsMinStake(metagraph)

	accountResults := make([]evaluation.AccountResult, len(tokens))
	g, gctx := errgroup.WithContext(ctx)
	for i, token := range tokens {
		i, token := i, token
		g.Go(func() error {
			accountID := fmt.Sprintf("account_%d", i+1)
			if token == "" {
				e.log.WithField("uid", response.UID).Warnf("empty access token at index %d", i)
				accountResults[i] = evaluation.ErrorResult(accountID, "empty access token", briefIDs)
				return nil
			}
			accountResults[i] = e.processAccount(gctx, token, briefs, minStakeOK, accountID)
			return nil
		})
	}
	// processAccount traps its own errors into an error AccountResult; one
	// bad account never fails the whole miner, so Wait's error is ignored.
	_ = g.Wait()

	for i, res := range accountResults {
		accountID := fmt.Sprintf("account_%d", i+1)
		result.AddAccountResult(accountID, res)
		for briefID, score := range res.Scores {
			result.AggregatedScores[briefID] += score
		}
	}

	return result, nil
}

func (e *Evaluator) meetsMinStake(metagraph evaluation.MetagraphInfo) bool {
	if metagraph.AlphaStake == nil {
		return 0 >= e.cfg.MinAlphaStakeThreshold
	}
	return *metagraph.AlphaStake >= e.cfg.MinAlphaStakeThreshold
}

// processAccount evaluates one claimed account. Any error from the client
// calls or the brief-matching fan-out becomes an error AccountResult; it
// never propagates past this account.
func (e *Evaluator) processAccount(ctx context.Context, accessToken string, briefs []brief.Brief, minStakeOK bool, accountID string) (result evaluation.AccountResult) {
	briefIDs := make([]string, len(briefs))
	for i, b := range briefs {
		briefIDs[i] = b.ID
	}

	defer func() {
		if r := recover(); r != nil {
			e.log.WithField("account_id", accountID).Errorf("panic processing account: %v", r)
			result = evaluation.ErrorResult(accountID, fmt.Sprintf("panic: %v", r), briefIDs)
		}
	}()

	creds := Credentials{AccessToken: accessToken}

	channel, err := e.data.GetChannel(ctx, creds)
	if err != nil {
		e.log.WithField("account_id", accountID).Errorf("fetch channel failed: %v", err)
		return evaluation.ErrorResult(accountID, err.Error(), briefIDs)
	}

	content, err := e.data.ListContent(ctx, creds)
	if err != nil {
		e.log.WithField("account_id", accountID).Errorf("list content failed: %v", err)
		return evaluation.ErrorResult(accountID, err.Error(), briefIDs)
	}

	scores, items, perfStats := e.scoreContent(ctx, creds, channel, content, briefs, minStakeOK)

	return evaluation.AccountResult{
		AccountID: accountID,
		PlatformData: map[string]interface{}{
			"channel_id":       channel.ID,
			"title":            channel.Title,
			"subscriber_count": channel.SubscriberCount,
		},
		ContentItems:     items,
		Scores:           scores,
		PerformanceStats: perfStats,
		Success:          true,
	}
}

// scoreContent fans out content-item x brief matching across a bounded
// worker pool, matching SPEC_FULL.md §3's "bounded worker pool ≤5 for
// brief-matching calls".
func (e *Evaluator) scoreContent(ctx context.Context, creds Credentials, channel Channel, content []ContentMeta, briefs []brief.Brief, minStakeOK bool) (map[string]float64, map[string]evaluation.ContentItem, map[string]interface{}) {
	scores := make(map[string]float64, len(briefs))
	for _, b := range briefs {
		scores[b.ID] = 0
	}
	items := make(map[string]evaluation.ContentItem, len(content))

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(briefMatchWorkerLimit)

	totalViews := 0.0
	for _, item := range content {
		item := item
		briefMetrics := make(map[string]map[string]interface{})
		mu.Lock()
		items[item.ID] = evaluation.ContentItem{
			Details:          map[string]interface{}{"title": item.Title, "publishedAt": item.PublishedAt},
			BitcastContentID: item.ID,
			BriefMetrics:     briefMetrics,
		}
		mu.Unlock()

		for _, b := range briefs {
			item, b := item, b
			g.Go(func() error {
				score, metrics, err := e.matchContentToBrief(gctx, creds, channel, item, b, minStakeOK)
				if err != nil {
					e.log.WithField("content_id", item.ID).Warnf("brief match failed for %s: %v", b.ID, err)
					return nil
				}
				mu.Lock()
				scores[b.ID] += score
				items[item.ID].BriefMetrics[b.ID] = metrics
				if views, ok := metrics["views"]; ok {
					totalViews += views
				}
				mu.Unlock()
				return nil
			})
		}
	}
	_ = g.Wait()

	return scores, items, map[string]interface{}{"total_views": totalViews}
}

// matchContentToBrief checks whether item satisfies b's gating criteria
// (publish date, subscriber range) and, if so, fetches engagement metrics
// and derives a raw score. Minimum-stake gating zeros the score but still
// records the match for telemetry.
func (e *Evaluator) matchContentToBrief(ctx context.Context, creds Credentials, channel Channel, item ContentMeta, b brief.Brief, minStakeOK bool) (float64, map[string]interface{}, error) {
	published, err := time.Parse(time.RFC3339, item.PublishedAt)
	if err == nil && published.Before(b.StartDate) {
		return 0, map[string]interface{}{"matched": false, "reason": "published before brief start"}, nil
	}
	if b.SubsRange != nil {
		if b.SubsRange.Min != nil && channel.SubscriberCount < *b.SubsRange.Min {
			return 0, map[string]interface{}{"matched": false, "reason": "below subs range"}, nil
		}
		if b.SubsRange.Max != nil && channel.SubscriberCount > *b.SubsRange.Max {
			return 0, map[string]interface{}{"matched": false, "reason": "above subs range"}, nil
		}
	}

	if !e.claimScored(item.ID, b.ID) {
		return 0, map[string]interface{}{"matched": true, "deduped": true}, nil
	}

	metricValues, err := e.analytics.QueryMetrics(ctx, creds, item.ID, nil)
	if err != nil {
		e.releaseScored(item.ID, b.ID)
		return 0, nil, err
	}
	views := metricValues["views"]

	score := views
	if !minStakeOK {
		score = 0
	}

	return score, map[string]interface{}{"matched": true, "views": views}, nil
}

// claimScored marks the (content, brief) pair as scored for this cycle and
// reports whether this call made the claim. Check and mark happen under one
// lock, so concurrent accounts cannot both score the same pair.
func (e *Evaluator) claimScored(contentID, briefID string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	key := contentID + ":" + briefID
	if e.scoredContent[key] {
		return false
	}
	e.scoredContent[key] = true
	return true
}

// releaseScored drops a claim whose metrics lookup failed, so a later
// account may still score the pair.
func (e *Evaluator) releaseScored(contentID, briefID string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	delete(e.scoredContent, contentID+":"+briefID)
}
