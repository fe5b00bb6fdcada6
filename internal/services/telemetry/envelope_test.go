package telemetry

import (
	"testing"
	"time"

	"github.com/bitcast-network/bitcast-sub001/infrastructure/crypto"
)

func fixedClock(t time.Time) Clock {
	return func() time.Time { return t }
}

func TestCanonicalJSON_SortsKeys(t *testing.T) {
	payload := map[string]interface{}{"b": 1, "a": 2}
	got, err := CanonicalJSON(payload)
	if err != nil {
		t.Fatalf("CanonicalJSON: %v", err)
	}
	if got != `{"a":2,"b":1}` {
		t.Fatalf("CanonicalJSON = %q, want sorted-key JSON", got)
	}
}

// S6 — publishing the same payload twice with the same mocked clock
// produces byte-identical signatures and timestamps.
func TestSigner_Build_SamePayloadSameTimeProducesIdenticalSignature(t *testing.T) {
	kp, err := crypto.GenerateKeyPair()
	if err != nil {
		t.Fatalf("GenerateKeyPair: %v", err)
	}
	signer := NewSigner(kp)

	now := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	payload := map[string]interface{}{"x": 1}

	env1, err := signer.Build("youtube", "run-1", nil, payload, fixedClock(now))
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	env2, err := signer.Build("youtube", "run-1", nil, payload, fixedClock(now))
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	if env1.Signature != env2.Signature {
		t.Fatalf("signatures differ for identical payload/time: %q vs %q", env1.Signature, env2.Signature)
	}
	if env1.Time != env2.Time {
		t.Fatalf("timestamps differ: %q vs %q", env1.Time, env2.Time)
	}
}

func TestSigner_Build_VerifiesAgainstSignedMessage(t *testing.T) {
	kp, err := crypto.GenerateKeyPair()
	if err != nil {
		t.Fatalf("GenerateKeyPair: %v", err)
	}
	signer := NewSigner(kp)

	now := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	payload := map[string]interface{}{"x": 1, "y": "z"}

	env, err := signer.Build("weight_corrections", "run-42", nil, payload, fixedClock(now))
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	canonical, err := CanonicalJSON(payload)
	if err != nil {
		t.Fatalf("CanonicalJSON: %v", err)
	}
	message := env.Signer + ":" + env.Time + ":" + canonical

	if !crypto.Verify(kp.PublicKey, []byte(message), env.Signature) {
		t.Fatalf("signature does not verify against signer||time||canonical(payload)")
	}
}

func TestSigner_Build_TimestampMatchesSignedMessage(t *testing.T) {
	kp, err := crypto.GenerateKeyPair()
	if err != nil {
		t.Fatalf("GenerateKeyPair: %v", err)
	}
	signer := NewSigner(kp)
	now := time.Date(2026, 5, 6, 7, 8, 9, 0, time.UTC)

	env, err := signer.Build("youtube", "run-1", nil, map[string]interface{}{"a": 1}, fixedClock(now))
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	want := now.UTC().Format(time.RFC3339)
	if env.Time != want {
		t.Fatalf("Time = %q, want %q", env.Time, want)
	}
}

func TestSigner_Build_DifferentPayloadDifferentSignature(t *testing.T) {
	kp, err := crypto.GenerateKeyPair()
	if err != nil {
		t.Fatalf("GenerateKeyPair: %v", err)
	}
	signer := NewSigner(kp)
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	env1, _ := signer.Build("youtube", "run-1", nil, map[string]interface{}{"x": 1}, fixedClock(now))
	env2, _ := signer.Build("youtube", "run-1", nil, map[string]interface{}{"x": 2}, fixedClock(now))

	if env1.Signature == env2.Signature {
		t.Fatalf("expected different payloads to produce different signatures")
	}
}
