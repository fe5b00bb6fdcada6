package youtube

import "context"

// Credentials wraps the OAuth access token a miner claims for one account.
// It is opaque to the evaluator beyond the raw token string.
type Credentials struct {
	AccessToken string
}

// Channel is the subset of channel metadata the evaluator consults for
// subscriber-range gating.
type Channel struct {
	ID              string
	Title           string
	SubscriberCount int64
}

// ContentMeta is one piece of claimed content as listed by the data client.
type ContentMeta struct {
	ID          string
	Title       string
	Description string
	PublishedAt string // RFC3339
}

// DataClient lists a claimed account's channel and content. It is an
// external collaborator contract — SPEC_FULL.md §5 names it as consumed,
// not implemented, by the core.
type DataClient interface {
	GetChannel(ctx context.Context, creds Credentials) (Channel, error)
	ListContent(ctx context.Context, creds Credentials) ([]ContentMeta, error)
}

// AnalyticsClient queries engagement metrics for one content item. dims
// optionally requests a breakdown (e.g. by day); an empty slice requests
// the aggregate only.
type AnalyticsClient interface {
	QueryMetrics(ctx context.Context, creds Credentials, contentID string, dims []string) (map[string]float64, error)
}

// TranscriptClient fetches a content item's transcript text. The evaluator
// holds one, but brief matching does not call it.
type TranscriptClient interface {
	FetchTranscript(ctx context.Context, creds Credentials, contentID string) (string, error)
}
