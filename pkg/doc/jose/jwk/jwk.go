/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package jwk wraps go-jose JSON Web Keys with the secp256k1 curve used by tbDEX DIDs.
package jwk

import (
	"crypto"
	"crypto/ed25519"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	"github.com/go-jose/go-jose/v3"
)

const (
	ecKty        = "EC"
	okpKty       = "OKP"
	ed25519Crv   = "Ed25519"
	secp256k1Crv = "secp256k1"

	secp256k1CoordSize = 32

	// AlgEdDSA is the JWS algorithm of Ed25519 keys.
	AlgEdDSA = "EdDSA"
	// AlgES256K is the JWS algorithm of secp256k1 keys.
	AlgES256K = "ES256K"
)

// ErrInvalidKey is returned when passed JWK is invalid.
var ErrInvalidKey = errors.New("invalid JWK")

// JWK (JSON Web Key) is a JSON data structure that represents a cryptographic key.
type JWK struct {
	jose.JSONWebKey

	Kty string
	Crv string
}

// jsonWebKey is the raw JSON representation, used for curves go-jose does not know about.
type jsonWebKey struct {
	Use string `json:"use,omitempty"`
	Kty string `json:"kty,omitempty"`
	Kid string `json:"kid,omitempty"`
	Crv string `json:"crv,omitempty"`
	Alg string `json:"alg,omitempty"`

	X string `json:"x,omitempty"`
	Y string `json:"y,omitempty"`
	D string `json:"d,omitempty"`
}

// FromKey creates a JWK from an opaque key: ed25519.PublicKey, ed25519.PrivateKey,
// *secp256k1.PublicKey or *secp256k1.PrivateKey.
func FromKey(opaqueKey interface{}) (*JWK, error) {
	key := &JWK{JSONWebKey: jose.JSONWebKey{Key: opaqueKey}}

	// marshal/unmarshal to get all JWK's fields other than Key filled.
	keyBytes, err := key.MarshalJSON()
	if err != nil {
		return nil, fmt.Errorf("create JWK: %w", err)
	}

	err = key.UnmarshalJSON(keyBytes)
	if err != nil {
		return nil, fmt.Errorf("create JWK: %w", err)
	}

	return key, nil
}

// JWSAlgorithm returns the JWS algorithm of the key, looking at the curve when "alg" is not set.
func (j *JWK) JWSAlgorithm() string {
	if j.JSONWebKey.Algorithm != "" {
		return j.JSONWebKey.Algorithm
	}

	switch j.Crv {
	case ed25519Crv:
		return AlgEdDSA
	case secp256k1Crv:
		return AlgES256K
	default:
		return ""
	}
}

// IsPrivate reports whether the JWK carries private key material.
func (j *JWK) IsPrivate() bool {
	switch j.Key.(type) {
	case ed25519.PrivateKey, *secp256k1.PrivateKey:
		return true
	default:
		return false
	}
}

// Public returns the public part of the JWK.
func (j *JWK) Public() *JWK {
	pub := &JWK{
		JSONWebKey: jose.JSONWebKey{
			KeyID:     j.KeyID,
			Algorithm: j.JSONWebKey.Algorithm,
			Use:       j.Use,
		},
		Kty: j.Kty,
		Crv: j.Crv,
	}

	switch k := j.Key.(type) {
	case ed25519.PrivateKey:
		pub.Key = k.Public()
	case *secp256k1.PrivateKey:
		pub.Key = k.PubKey()
	default:
		pub.Key = j.Key
	}

	return pub
}

// Thumbprint computes the RFC 7638 SHA-256 thumbprint of the key.
func (j *JWK) Thumbprint() ([]byte, error) {
	if j.Crv != secp256k1Crv {
		return j.JSONWebKey.Thumbprint(crypto.SHA256)
	}

	pub, ok := j.Public().Key.(*secp256k1.PublicKey)
	if !ok {
		return nil, ErrInvalidKey
	}

	x, y := secp256k1Coords(pub)

	// members in lexicographic order, no whitespace
	input := fmt.Sprintf(`{"crv":"%s","kty":"%s","x":"%s","y":"%s"}`, secp256k1Crv, ecKty, x, y)
	sum := sha256.Sum256([]byte(input))

	return sum[:], nil
}

// MarshalJSON serializes the JWK.
func (j JWK) MarshalJSON() ([]byte, error) {
	switch key := j.Key.(type) {
	case *secp256k1.PublicKey:
		return j.marshalSecp256k1(key, nil)
	case *secp256k1.PrivateKey:
		return j.marshalSecp256k1(key.PubKey(), key)
	default:
		return j.JSONWebKey.MarshalJSON()
	}
}

func (j JWK) marshalSecp256k1(pub *secp256k1.PublicKey, priv *secp256k1.PrivateKey) ([]byte, error) {
	x, y := secp256k1Coords(pub)

	raw := jsonWebKey{
		Use: j.Use,
		Kty: ecKty,
		Kid: j.KeyID,
		Crv: secp256k1Crv,
		Alg: j.JSONWebKey.Algorithm,
		X:   x,
		Y:   y,
	}

	if priv != nil {
		raw.D = base64.RawURLEncoding.EncodeToString(priv.Serialize())
	}

	return json.Marshal(raw)
}

// UnmarshalJSON reads a key from its JSON representation.
func (j *JWK) UnmarshalJSON(jwkBytes []byte) error {
	var raw jsonWebKey

	if err := json.Unmarshal(jwkBytes, &raw); err != nil {
		return fmt.Errorf("unable to read JWK: %w", err)
	}

	j.Kty = raw.Kty
	j.Crv = raw.Crv

	if raw.Kty == ecKty && raw.Crv == secp256k1Crv {
		return j.unmarshalSecp256k1(&raw)
	}

	if err := (&j.JSONWebKey).UnmarshalJSON(jwkBytes); err != nil {
		return fmt.Errorf("unable to read JOSE JWK: %w", err)
	}

	return nil
}

func (j *JWK) unmarshalSecp256k1(raw *jsonWebKey) error {
	x, err := base64.RawURLEncoding.DecodeString(raw.X)
	if err != nil {
		return fmt.Errorf("secp256k1 x: %w", err)
	}

	y, err := base64.RawURLEncoding.DecodeString(raw.Y)
	if err != nil {
		return fmt.Errorf("secp256k1 y: %w", err)
	}

	if len(x) != secp256k1CoordSize || len(y) != secp256k1CoordSize {
		return ErrInvalidKey
	}

	uncompressed := append([]byte{0x04}, append(x, y...)...) //nolint:gocritic

	pub, err := secp256k1.ParsePubKey(uncompressed)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidKey, err)
	}

	j.JSONWebKey = jose.JSONWebKey{
		Key:       pub,
		KeyID:     raw.Kid,
		Algorithm: raw.Alg,
		Use:       raw.Use,
	}

	if raw.D == "" {
		return nil
	}

	d, err := base64.RawURLEncoding.DecodeString(raw.D)
	if err != nil {
		return fmt.Errorf("secp256k1 d: %w", err)
	}

	priv := secp256k1.PrivKeyFromBytes(d)
	if !priv.PubKey().IsEqual(pub) {
		return fmt.Errorf("%w: private key does not match x/y", ErrInvalidKey)
	}

	j.Key = priv

	return nil
}

// PublicKeyBytes returns the raw public key: 32 bytes for Ed25519, 33 compressed bytes for secp256k1.
func (j *JWK) PublicKeyBytes() ([]byte, error) {
	switch key := j.Public().Key.(type) {
	case ed25519.PublicKey:
		return key, nil
	case *secp256k1.PublicKey:
		return key.SerializeCompressed(), nil
	default:
		return nil, fmt.Errorf("%w: unsupported key type %T", ErrInvalidKey, j.Key)
	}
}

func secp256k1Coords(pub *secp256k1.PublicKey) (string, string) {
	uncompressed := pub.SerializeUncompressed()

	return base64.RawURLEncoding.EncodeToString(uncompressed[1 : 1+secp256k1CoordSize]),
		base64.RawURLEncoding.EncodeToString(uncompressed[1+secp256k1CoordSize:])
}
