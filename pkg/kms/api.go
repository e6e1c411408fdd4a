/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package kms defines the key management capability used to sign tbDEX messages.
package kms

import (
	"errors"

	"github.com/TBD54566975/tbdex-go/pkg/doc/jose/jwk"
)

// Supported key algorithms.
const (
	Ed25519   = jwk.AlgEdDSA
	Secp256k1 = jwk.AlgES256K
)

// ErrKeyNotFound is returned when the key manager does not hold the requested key.
var ErrKeyNotFound = errors.New("key not found")

// Signer signs payloads with a single private key.
type Signer interface {
	// Sign signs the payload. ES256K signers hash with SHA-256 first, EdDSA signs the payload as is.
	Sign(payload []byte) ([]byte, error)
	// Algorithm returns the JWS algorithm name of the signatures.
	Algorithm() string
}

// KeyManager holds private keys and hands out signers by public key.
type KeyManager interface {
	// GenerateKey creates a new key for the algorithm and returns its public JWK.
	GenerateKey(alg string) (*jwk.JWK, error)
	// ImportPrivateJWK stores a private JWK and returns its public JWK.
	ImportPrivateJWK(privateJWK *jwk.JWK) (*jwk.JWK, error)
	// GetSigner returns a signer for the private key matching the public JWK.
	GetSigner(publicJWK *jwk.JWK) (Signer, error)
}

// KeyExporter is implemented by key managers able to export private keys.
type KeyExporter interface {
	ExportPrivateJWK(publicJWK *jwk.JWK) (*jwk.JWK, error)
}
