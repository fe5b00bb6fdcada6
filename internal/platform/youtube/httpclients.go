package youtube

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/bitcast-network/bitcast-sub001/infrastructure/httputil"
)

const defaultMaxBodyBytes = 1 << 20

// RESTDataClient is a thin REST adapter over the YouTube Data API v3
// channel/video listing endpoints. It is an external collaborator
// contract per SPEC_FULL.md §1/§5 — deliberately minimal.
type RESTDataClient struct {
	baseURL string
	client  *http.Client
}

// NewRESTDataClient builds a client against the YouTube Data API v3 base
// URL (https://www.googleapis.com/youtube/v3 in production).
func NewRESTDataClient(baseURL string, timeout time.Duration) *RESTDataClient {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &RESTDataClient{baseURL: strings.TrimRight(baseURL, "/"), client: &http.Client{Timeout: timeout}}
}

func (c *RESTDataClient) get(ctx context.Context, creds Credentials, path string, query url.Values, out interface{}) error {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+creds.AccessToken)
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("youtube data api returned status %d for %s", resp.StatusCode, path)
	}

	body, err := httputil.ReadAllStrict(resp.Body, defaultMaxBodyBytes)
	if err != nil {
		return err
	}
	return json.Unmarshal(body, out)
}

// GetChannel fetches the authenticated account's own channel.
func (c *RESTDataClient) GetChannel(ctx context.Context, creds Credentials) (Channel, error) {
	var reply struct {
		Items []struct {
			ID      string `json:"id"`
			Snippet struct {
				Title string `json:"title"`
			} `json:"snippet"`
			Statistics struct {
				SubscriberCount string `json:"subscriberCount"`
			} `json:"statistics"`
		} `json:"items"`
	}

	query := url.Values{"part": {"snippet,statistics"}, "mine": {"true"}}
	if err := c.get(ctx, creds, "/channels", query, &reply); err != nil {
		return Channel{}, err
	}
	if len(reply.Items) == 0 {
		return Channel{}, fmt.Errorf("no channel found for account")
	}

	item := reply.Items[0]
	var subs int64
	fmt.Sscanf(item.Statistics.SubscriberCount, "%d", &subs)

	return Channel{ID: item.ID, Title: item.Snippet.Title, SubscriberCount: subs}, nil
}

// ListContent fetches the channel's uploaded videos.
func (c *RESTDataClient) ListContent(ctx context.Context, creds Credentials) ([]ContentMeta, error) {
	var reply struct {
		Items []struct {
			ID      struct{ VideoID string `json:"videoId"` } `json:"id"`
			Snippet struct {
				Title       string `json:"title"`
				Description string `json:"description"`
				PublishedAt string `json:"publishedAt"`
			} `json:"snippet"`
		} `json:"items"`
	}

	query := url.Values{"part": {"snippet"}, "forMine": {"true"}, "type": {"video"}}
	if err := c.get(ctx, creds, "/search", query, &reply); err != nil {
		return nil, err
	}

	items := make([]ContentMeta, 0, len(reply.Items))
	for _, it := range reply.Items {
		items = append(items, ContentMeta{
			ID:          it.ID.VideoID,
			Title:       it.Snippet.Title,
			Description: it.Snippet.Description,
			PublishedAt: it.Snippet.PublishedAt,
		})
	}
	return items, nil
}

// RESTAnalyticsClient is a thin REST adapter over the YouTube Analytics
// API's reports endpoint.
type RESTAnalyticsClient struct {
	baseURL string
	client  *http.Client
}

// NewRESTAnalyticsClient builds a client against the YouTube Analytics API
// base URL (https://youtubeanalytics.googleapis.com/v2 in production).
func NewRESTAnalyticsClient(baseURL string, timeout time.Duration) *RESTAnalyticsClient {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &RESTAnalyticsClient{baseURL: strings.TrimRight(baseURL, "/"), client: &http.Client{Timeout: timeout}}
}

// QueryMetrics requests aggregate view/engagement metrics for one video.
func (c *RESTAnalyticsClient) QueryMetrics(ctx context.Context, creds Credentials, contentID string, dims []string) (map[string]float64, error) {
	query := url.Values{
		"ids":        {"channel==MINE"},
		"metrics":    {"views,estimatedMinutesWatched,likes"},
		"filters":    {"video==" + contentID},
		"startDate":  {"2020-01-01"},
		"endDate":    {time.Now().UTC().Format("2006-01-02")},
	}
	if len(dims) > 0 {
		query.Set("dimensions", strings.Join(dims, ","))
	}

	u := c.baseURL + "/reports?" + query.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+creds.AccessToken)
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("youtube analytics api returned status %d", resp.StatusCode)
	}

	body, err := httputil.ReadAllStrict(resp.Body, defaultMaxBodyBytes)
	if err != nil {
		return nil, err
	}

	var reply struct {
		ColumnHeaders []struct{ Name string `json:"name"` } `json:"columnHeaders"`
		Rows          [][]float64                           `json:"rows"`
	}
	if err := json.Unmarshal(body, &reply); err != nil {
		return nil, err
	}
	if len(reply.Rows) == 0 {
		return map[string]float64{"views": 0}, nil
	}

	metrics := make(map[string]float64, len(reply.ColumnHeaders))
	for i, header := range reply.ColumnHeaders {
		if i < len(reply.Rows[0]) {
			metrics[header.Name] = reply.Rows[0][i]
		}
	}
	return metrics, nil
}

// RESTTranscriptClient fetches caption tracks via the Data API's captions
// endpoint. Retries are the caller's responsibility (transcript_max_retries,
// SPEC_FULL.md §6).
type RESTTranscriptClient struct {
	baseURL string
	client  *http.Client
}

// NewRESTTranscriptClient builds a transcript client against baseURL.
func NewRESTTranscriptClient(baseURL string, timeout time.Duration) *RESTTranscriptClient {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &RESTTranscriptClient{baseURL: strings.TrimRight(baseURL, "/"), client: &http.Client{Timeout: timeout}}
}

// FetchTranscript downloads the first available caption track as plain text.
func (c *RESTTranscriptClient) FetchTranscript(ctx context.Context, creds Credentials, contentID string) (string, error) {
	u := c.baseURL + "/captions/" + url.PathEscape(contentID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("Authorization", "Bearer "+creds.AccessToken)

	resp, err := c.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("youtube captions returned status %d", resp.StatusCode)
	}

	body, err := httputil.ReadAllStrict(resp.Body, defaultMaxBodyBytes)
	if err != nil {
		return "", err
	}
	return string(body), nil
}
