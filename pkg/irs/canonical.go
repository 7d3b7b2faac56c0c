package irs

import (
	"bytes"
	"encoding/json"
	"fmt"

	"golang.org/x/text/unicode/norm"
)

// canonicalBytes returns the byte form of data that Generate hashes.
//
// Strings and fmt.Stringer values hash as their NFC-normalised text, byte
// slices hash raw, everything else hashes as JSON with sorted object keys
// and no HTML escaping, NFC-normalised. Equal payloads therefore hash
// identically regardless of Unicode composition or map iteration order.
func canonicalBytes(data any) ([]byte, error) {
	switch v := data.(type) {
	case string:
		return []byte(norm.NFC.String(v)), nil
	case []byte:
		return v, nil
	case json.RawMessage:
		return canonicalJSON(v)
	case fmt.Stringer:
		return []byte(norm.NFC.String(v.String())), nil
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(data); err != nil {
		return nil, fmt.Errorf("canonical form of %T: %w", data, err)
	}
	return norm.NFC.Bytes(bytes.TrimSuffix(buf.Bytes(), []byte("\n"))), nil
}

// canonicalJSON re-encodes raw JSON so key order and whitespace do not
// affect the hash.
func canonicalJSON(raw json.RawMessage) ([]byte, error) {
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil, fmt.Errorf("canonical form of raw json: %w", err)
	}
	return canonicalBytes(v)
}
