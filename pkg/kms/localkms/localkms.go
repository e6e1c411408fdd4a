/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package localkms is an in-memory kms.KeyManager keyed by JWK thumbprint.
package localkms

import (
	"crypto/ed25519"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"sync"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	"github.com/decred/dcrd/dcrec/secp256k1/v4/ecdsa"

	"github.com/TBD54566975/tbdex-go/pkg/doc/jose/jwk"
	"github.com/TBD54566975/tbdex-go/pkg/kms"
)

// LocalKMS keeps private keys in process memory.
type LocalKMS struct {
	mu   sync.RWMutex
	keys map[string]*jwk.JWK
}

// New returns an empty LocalKMS.
func New() *LocalKMS {
	return &LocalKMS{keys: map[string]*jwk.JWK{}}
}

// GenerateKey creates a new key for the algorithm and returns its public JWK.
func (l *LocalKMS) GenerateKey(alg string) (*jwk.JWK, error) {
	var (
		opaque interface{}
		err    error
	)

	switch alg {
	case kms.Ed25519:
		_, opaque, err = ed25519.GenerateKey(rand.Reader)
	case kms.Secp256k1:
		opaque, err = secp256k1.GeneratePrivateKey()
	default:
		return nil, fmt.Errorf("generate key: unsupported algorithm %q", alg)
	}

	if err != nil {
		return nil, fmt.Errorf("generate key: %w", err)
	}

	priv, err := jwk.FromKey(opaque)
	if err != nil {
		return nil, fmt.Errorf("generate key: %w", err)
	}

	return l.ImportPrivateJWK(priv)
}

// ImportPrivateJWK stores a private JWK and returns its public JWK.
func (l *LocalKMS) ImportPrivateJWK(privateJWK *jwk.JWK) (*jwk.JWK, error) {
	if privateJWK == nil || !privateJWK.IsPrivate() {
		return nil, fmt.Errorf("import key: %w: private key material required", jwk.ErrInvalidKey)
	}

	keyID, err := thumbprint(privateJWK)
	if err != nil {
		return nil, fmt.Errorf("import key: %w", err)
	}

	l.mu.Lock()
	l.keys[keyID] = privateJWK
	l.mu.Unlock()

	return privateJWK.Public(), nil
}

// GetSigner returns a signer for the private key matching the public JWK.
func (l *LocalKMS) GetSigner(publicJWK *jwk.JWK) (kms.Signer, error) {
	priv, err := l.ExportPrivateJWK(publicJWK)
	if err != nil {
		return nil, err
	}

	switch key := priv.Key.(type) {
	case ed25519.PrivateKey:
		return &ed25519Signer{privKey: key}, nil
	case *secp256k1.PrivateKey:
		return &es256kSigner{privKey: key}, nil
	default:
		return nil, fmt.Errorf("get signer: unsupported key type %T", priv.Key)
	}
}

// ExportPrivateJWK returns the private JWK matching the public JWK.
func (l *LocalKMS) ExportPrivateJWK(publicJWK *jwk.JWK) (*jwk.JWK, error) {
	keyID, err := thumbprint(publicJWK)
	if err != nil {
		return nil, fmt.Errorf("key lookup: %w", err)
	}

	l.mu.RLock()
	priv, ok := l.keys[keyID]
	l.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("key %s: %w", keyID, kms.ErrKeyNotFound)
	}

	return priv, nil
}

func thumbprint(key *jwk.JWK) (string, error) {
	tp, err := key.Thumbprint()
	if err != nil {
		return "", err
	}

	return base64.RawURLEncoding.EncodeToString(tp), nil
}

type ed25519Signer struct {
	privKey ed25519.PrivateKey
}

func (s *ed25519Signer) Sign(payload []byte) ([]byte, error) {
	return ed25519.Sign(s.privKey, payload), nil
}

func (s *ed25519Signer) Algorithm() string {
	return kms.Ed25519
}

type es256kSigner struct {
	privKey *secp256k1.PrivateKey
}

// Sign produces a 64 byte r||s signature over SHA-256 of the payload.
func (s *es256kSigner) Sign(payload []byte) ([]byte, error) {
	hash := sha256.Sum256(payload)

	// compact signatures are prefixed with the recovery code
	compact := ecdsa.SignCompact(s.privKey, hash[:], false)

	return compact[1:], nil
}

func (s *es256kSigner) Algorithm() string {
	return kms.Secp256k1
}
