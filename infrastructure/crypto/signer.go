// Package crypto provides the signing primitives used to attest telemetry
// published by the reward engine.
package crypto

import (
	"crypto/ed25519"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// LoadKeyPairFromHex reconstructs a KeyPair from a hex-encoded ed25519
// seed, as read from the SIGNING_KEY environment variable.
func LoadKeyPairFromHex(hexKey string) (*KeyPair, error) {
	seed, err := hex.DecodeString(hexKey)
	if err != nil {
		return nil, fmt.Errorf("crypto: decode signing key: %w", err)
	}
	if len(seed) != ed25519.SeedSize {
		return nil, fmt.Errorf("crypto: signing key must be %d bytes, got %d", ed25519.SeedSize, len(seed))
	}

	priv := ed25519.NewKeyFromSeed(seed)
	pub := priv.Public().(ed25519.PublicKey)
	return &KeyPair{PrivateKey: priv, PublicKey: pub}, nil
}

// KeyPair is an ed25519 key pair standing in for the validator's hotkey.
// ed25519 signatures are deterministic by construction (RFC 8032): signing
// the same message with the same key always yields the same signature
// bytes, which the signed-envelope protocol in SPEC_FULL.md §4.8/§8
// requires (identical payload + timestamp + signer must reproduce the
// identical signature).
type KeyPair struct {
	PrivateKey ed25519.PrivateKey
	PublicKey  ed25519.PublicKey
}

// GenerateKeyPair generates a new ed25519 key pair.
func GenerateKeyPair() (*KeyPair, error) {
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return nil, err
	}
	return &KeyPair{PrivateKey: priv, PublicKey: pub}, nil
}

// Sign signs data and returns the hex-encoded ed25519 signature.
func Sign(privateKey ed25519.PrivateKey, data []byte) (string, error) {
	if len(privateKey) != ed25519.PrivateKeySize {
		return "", ErrNilKey
	}
	signature := ed25519.Sign(privateKey, data)
	return hex.EncodeToString(signature), nil
}

// Verify verifies a hex-encoded ed25519 signature over data.
func Verify(publicKey ed25519.PublicKey, data []byte, signatureHex string) bool {
	signature, err := hex.DecodeString(signatureHex)
	if err != nil || len(signature) != ed25519.SignatureSize {
		return false
	}
	return ed25519.Verify(publicKey, data, signature)
}

// PublicKeyToAddress renders the public key as a hex address string. This
// domain has no on-chain script-hash/Base58Check format to reproduce, so
// the "address" is simply the raw public key, hex-encoded.
func PublicKeyToAddress(pub ed25519.PublicKey) string {
	return hex.EncodeToString(pub)
}

// Hash256 computes SHA-256(data).
func Hash256(data []byte) []byte {
	hash := sha256.Sum256(data)
	return hash[:]
}

// ErrNilKey is returned when a signer is invoked without a configured key.
var ErrNilKey = fmt.Errorf("crypto: signer has no private key configured")
