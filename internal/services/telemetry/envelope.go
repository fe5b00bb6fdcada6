// Package telemetry signs and publishes per-account and weight-correction
// telemetry to the external authority.
package telemetry

import (
	"crypto/ed25519"
	"encoding/json"
	"time"

	"github.com/bitcast-network/bitcast-sub001/infrastructure/crypto"
	svcerrors "github.com/bitcast-network/bitcast-sub001/infrastructure/errors"
)

// Envelope is the signed wire format published to both endpoints.
type Envelope struct {
	PayloadType string      `json:"payload_type"`
	RunID       string      `json:"run_id"`
	MinerUID    *int        `json:"miner_uid,omitempty"`
	Payload     interface{} `json:"payload"`
	Time        string      `json:"time"`
	Signer      string      `json:"signer"`
	ValiHotkey  string      `json:"vali_hotkey"`
	Signature   string      `json:"signature"`
}

// Signer signs canonicalized payloads with the validator's hotkey.
type Signer struct {
	key     ed25519.PrivateKey
	address string
}

// NewSigner builds a Signer from a configured key pair.
func NewSigner(kp *crypto.KeyPair) *Signer {
	return &Signer{key: kp.PrivateKey, address: crypto.PublicKeyToAddress(kp.PublicKey)}
}

// Clock returns the current time, injected so tests can pin it.
type Clock func() time.Time

// Build constructs a signed Envelope for payload. The timestamp used in
// the signed message and the one stamped on the envelope are the exact
// same string, as required by SPEC_FULL.md §4.8.
func (s *Signer) Build(payloadType, runID string, minerUID *int, payload interface{}, now Clock) (Envelope, error) {
	canonical, err := CanonicalJSON(payload)
	if err != nil {
		return Envelope{}, svcerrors.Internal("canonicalize telemetry payload", err)
	}

	timestamp := now().UTC().Format(time.RFC3339)
	message := s.address + ":" + timestamp + ":" + canonical

	signature, err := crypto.Sign(s.key, []byte(message))
	if err != nil {
		return Envelope{}, svcerrors.SigningFailed(err)
	}

	return Envelope{
		PayloadType: payloadType,
		RunID:       runID,
		MinerUID:    minerUID,
		Payload:     payload,
		Time:        timestamp,
		Signer:      s.address,
		ValiHotkey:  s.address,
		Signature:   signature,
	}, nil
}

// CanonicalJSON renders payload as a JSON string with object keys sorted
// and no insignificant whitespace. encoding/json already sorts map keys,
// which is what every payload type in this package is built from.
func CanonicalJSON(payload interface{}) (string, error) {
	b, err := json.Marshal(payload)
	if err != nil {
		return "", err
	}
	return string(b), nil
}
