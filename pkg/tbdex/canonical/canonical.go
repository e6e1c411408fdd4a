/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package canonical produces the RFC 8785 (JCS) form of tbDEX payloads and their SHA-256 digest.
package canonical

import (
	"crypto/sha256"
	"encoding/json"
	"fmt"

	"github.com/gowebpki/jcs"
)

// Canonicalize marshals v to JSON and transforms it to its JCS canonical form.
// Absent optional fields must be tagged omitempty so they are omitted instead of emitted as null.
func Canonicalize(v interface{}) ([]byte, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("canonicalize: marshal: %w", err)
	}

	out, err := jcs.Transform(raw)
	if err != nil {
		return nil, fmt.Errorf("canonicalize: %w", err)
	}

	return out, nil
}

// Digest returns SHA-256 over the canonical form of v.
func Digest(v interface{}) ([]byte, error) {
	canonical, err := Canonicalize(v)
	if err != nil {
		return nil, err
	}

	sum := sha256.Sum256(canonical)

	return sum[:], nil
}
