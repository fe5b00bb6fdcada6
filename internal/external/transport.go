package external

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/bitcast-network/bitcast-sub001/infrastructure/httputil"
	"github.com/bitcast-network/bitcast-sub001/internal/domain/miner"
)

// AxonResolver maps a uid to the miner's HTTP endpoint. Wallet/signer
// management and the underlying network transport are out of scope
// (SPEC_FULL.md §1); this adapter assumes a plain, already-authenticated
// HTTP endpoint per axon.
type AxonResolver func(uid int) (string, error)

// HTTPMinerTransport implements minerquery.Transport by POSTing a token
// request to the miner's resolved axon endpoint.
type HTTPMinerTransport struct {
	resolve AxonResolver
	client  *http.Client
}

// NewHTTPMinerTransport builds a transport with the given per-call timeout.
func NewHTTPMinerTransport(resolve AxonResolver, timeout time.Duration) *HTTPMinerTransport {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &HTTPMinerTransport{resolve: resolve, client: &http.Client{Timeout: timeout}}
}

type tokenRequestReply struct {
	TokensByType map[string][]string `json:"tokens_by_type"`
}

// RequestTokens sends the token-request message and parses the reply.
func (t *HTTPMinerTransport) RequestTokens(ctx context.Context, uid int) (miner.Response, error) {
	endpoint, err := t.resolve(uid)
	if err != nil {
		return miner.Response{}, fmt.Errorf("resolve axon for uid %d: %w", uid, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint+"/access-token", nil)
	if err != nil {
		return miner.Response{}, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := t.client.Do(req)
	if err != nil {
		return miner.Response{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return miner.Response{}, fmt.Errorf("miner %d returned status %d", uid, resp.StatusCode)
	}

	body, err := httputil.ReadAllStrict(resp.Body, defaultMaxBodyBytes)
	if err != nil {
		return miner.Response{}, err
	}

	var reply tokenRequestReply
	if err := json.Unmarshal(body, &reply); err != nil {
		return miner.Response{}, fmt.Errorf("decode miner %d reply: %w", uid, err)
	}

	return miner.Response{UID: uid, Valid: true, TokensByType: reply.TokensByType}, nil
}
