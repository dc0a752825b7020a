package idem

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
)

// ErrMalformedPayload is wrapped by Fingerprint when the body is not valid JSON.
var ErrMalformedPayload = errors.New("malformed JSON payload")

// Fingerprint hashes the logical content of a JSON request body with SHA-256.
//
// The body is decoded with numbers kept as their source text and re-encoded,
// which sorts object keys, so field ordering and insignificant whitespace do
// not affect the hash while decimal strings and identifiers do. Equal logical
// content always yields the same fingerprint.
func Fingerprint(body []byte) (string, error) {
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return "", fmt.Errorf("%w: %v", ErrMalformedPayload, err)
	}
	if dec.More() {
		return "", fmt.Errorf("%w: trailing data after JSON value", ErrMalformedPayload)
	}
	canonical, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("canonicalize payload: %w", err)
	}
	sum := sha256.Sum256(canonical)
	return hex.EncodeToString(sum[:]), nil
}
