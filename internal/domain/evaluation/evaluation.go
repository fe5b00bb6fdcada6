// Package evaluation holds the per-miner, per-account outcomes produced by
// platform evaluators and consumed by score aggregation, corrections
// derivation, and telemetry publishing.
package evaluation

// ContentItem is one piece of claimed content (a video, a post, …) scored
// against the cycle's briefs. Details carries platform-specific fields;
// BitcastContentID is the platform-agnostic identifier WeightCorrections
// keys its records on.
type ContentItem struct {
	Details           map[string]interface{}
	BitcastContentID  string
	BriefMetrics      map[string]map[string]interface{}
}

// AccountResult is the outcome of evaluating one claimed account.
type AccountResult struct {
	AccountID        string
	PlatformData     map[string]interface{}
	ContentItems     map[string]ContentItem
	Scores           map[string]float64 // brief_id -> score, one entry per brief
	PerformanceStats map[string]interface{}
	Success          bool
	Error            string
}

// ErrorResult builds an AccountResult with zero scores for every brief,
// the shape produced when a token is missing/empty or processing an
// account panics.
func ErrorResult(accountID, errMsg string, briefIDs []string) AccountResult {
	scores := make(map[string]float64, len(briefIDs))
	for _, id := range briefIDs {
		scores[id] = 0
	}
	return AccountResult{
		AccountID: accountID,
		Scores:    scores,
		Success:   false,
		Error:     errMsg,
	}
}

// MetagraphInfo is the opaque per-miner snapshot pulled from the metagraph:
// stake, alpha stake, incentive, and emission, each optional.
type MetagraphInfo struct {
	Stake      *float64
	AlphaStake *float64
	Incentive  *float64
	Emission   *float64
}

// Platform tags used for EvaluationResult.Platform outside the normal
// per-platform evaluator tags.
const (
	PlatformBurn    = "burn"
	PlatformUnknown = "unknown"
	PlatformError   = "error"
)

// Result is one miner's aggregated outcome for the cycle.
type Result struct {
	UID              int
	Platform         string
	AccountResults   map[string]AccountResult
	AccountOrder     []string // insertion order, account_1, account_2, ...
	AggregatedScores map[string]float64
	MetagraphInfo    MetagraphInfo
}

// AddAccountResult records an account result, preserving insertion order.
func (r *Result) AddAccountResult(accountID string, res AccountResult) {
	if r.AccountResults == nil {
		r.AccountResults = make(map[string]AccountResult)
	}
	if _, exists := r.AccountResults[accountID]; !exists {
		r.AccountOrder = append(r.AccountOrder, accountID)
	}
	r.AccountResults[accountID] = res
}

// ZeroScored builds a Result with all-zero aggregated scores for the given
// briefs — the shape used for the burn uid, the "unknown" platform
// fallback, and the per-miner error fallback.
func ZeroScored(uid int, platform string, briefIDs []string) Result {
	scores := make(map[string]float64, len(briefIDs))
	for _, id := range briefIDs {
		scores[id] = 0
	}
	return Result{UID: uid, Platform: platform, AggregatedScores: scores}
}

// ResultSet maps uid to Result for the cycle's miners; by construction it
// carries exactly one entry per requested uid, in request order.
type ResultSet struct {
	UIDs    []int
	ByUID   map[int]Result
}

// NewResultSet creates an empty ResultSet.
func NewResultSet() *ResultSet {
	return &ResultSet{ByUID: make(map[int]Result)}
}

// Add appends a result for uid, recording it in both the order slice and
// the lookup map.
func (rs *ResultSet) Add(uid int, result Result) {
	if rs.ByUID == nil {
		rs.ByUID = make(map[int]Result)
	}
	if _, exists := rs.ByUID[uid]; !exists {
		rs.UIDs = append(rs.UIDs, uid)
	}
	rs.ByUID[uid] = result
}

// Get returns the result for uid and whether it was present.
func (rs *ResultSet) Get(uid int) (Result, bool) {
	r, ok := rs.ByUID[uid]
	return r, ok
}

// Len returns the number of miners in the set.
func (rs *ResultSet) Len() int {
	return len(rs.UIDs)
}
