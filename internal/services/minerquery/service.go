// Package minerquery obtains fresh proof-of-access tokens from miners, one
// at a time, never raising.
package minerquery

import (
	"context"
	"fmt"

	"github.com/bitcast-network/bitcast-sub001/internal/domain/miner"
	"github.com/bitcast-network/bitcast-sub001/pkg/logger"
)

// Transport sends a token-request message to the miner identified by uid
// and returns its reply. Implementations own their own per-call timeout.
type Transport interface {
	RequestTokens(ctx context.Context, uid int) (miner.Response, error)
}

// Service queries one miner at a time. Concurrency across miners is
// rejected by design: tokens are short-lived and must not queue behind a
// batch of parallel requests.
type Service struct {
	transport Transport
	log       *logger.Logger
}

// New builds a Service over the given transport.
func New(transport Transport, log *logger.Logger) *Service {
	if log == nil {
		log = logger.NewDefault("miner-query")
	}
	return &Service{transport: transport, log: log}
}

// QueryOne fetches uid's MinerResponse. Any transport error, timeout, or
// malformed reply is converted into an invalid MinerResponse; this method
// never returns a non-nil error.
func (s *Service) QueryOne(ctx context.Context, uid int) miner.Response {
	s.log.WithField("uid", uid).Debug("querying miner")

	resp, err := s.transport.RequestTokens(ctx, uid)
	if err != nil {
		s.log.WithField("uid", uid).Errorf("miner query failed: %v", err)
		return miner.Invalid(uid, err.Error())
	}
	if resp.UID == 0 && uid != 0 {
		// Defensive: a malformed reply that didn't stamp its own uid.
		resp.UID = uid
	}
	if !resp.Valid && resp.Error == "" {
		resp.Error = fmt.Sprintf("malformed reply from uid %d", uid)
	}
	return resp
}
