/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package bearerdid provides DIDs whose private keys are reachable through a kms.KeyManager.
package bearerdid

import (
	"errors"
	"fmt"

	"github.com/TBD54566975/tbdex-go/pkg/doc/did"
	"github.com/TBD54566975/tbdex-go/pkg/doc/jose"
	"github.com/TBD54566975/tbdex-go/pkg/doc/jose/jwk"
	"github.com/TBD54566975/tbdex-go/pkg/kms"
	"github.com/TBD54566975/tbdex-go/pkg/kms/localkms"
	vdrjwk "github.com/TBD54566975/tbdex-go/pkg/vdr/jwk"
	vdrkey "github.com/TBD54566975/tbdex-go/pkg/vdr/key"
)

// ErrNoSigningMethod is returned when the DID document has no usable assertion method.
var ErrNoSigningMethod = errors.New("no assertion method with a public JWK")

// BearerDID is a DID together with the key manager holding its private keys.
type BearerDID struct {
	URI        string
	Document   *did.Doc
	KeyManager kms.KeyManager
}

// PortableDID is the exportable form of a BearerDID.
type PortableDID struct {
	URI         string     `json:"uri"`
	Document    *did.Doc   `json:"document"`
	PrivateKeys []*jwk.JWK `json:"privateKeys"`
}

// Signer is a jose.Signer bound to one verification method of a BearerDID.
type Signer struct {
	signer kms.Signer
	kid    string
}

// Sign signs.
func (s *Signer) Sign(data []byte) ([]byte, error) {
	return s.signer.Sign(data)
}

// Headers provides the alg and kid JWS headers.
func (s *Signer) Headers() jose.Headers {
	return jose.Headers{
		jose.HeaderAlgorithm: s.signer.Algorithm(),
		jose.HeaderKeyID:     s.kid,
	}
}

// KeyID returns the full DID URL of the verification method.
func (s *Signer) KeyID() string {
	return s.kid
}

// NewJWK creates a did:jwk with a freshly generated key.
func NewJWK(km kms.KeyManager, alg string) (*BearerDID, error) {
	return create(km, alg, vdrjwk.Create)
}

// NewKey creates a did:key with a freshly generated key.
func NewKey(km kms.KeyManager, alg string) (*BearerDID, error) {
	return create(km, alg, vdrkey.Create)
}

func create(km kms.KeyManager, alg string, createDoc func(*jwk.JWK) (*did.Doc, error)) (*BearerDID, error) {
	if km == nil {
		km = localkms.New()
	}

	pub, err := km.GenerateKey(alg)
	if err != nil {
		return nil, fmt.Errorf("create bearer DID: %w", err)
	}

	doc, err := createDoc(pub)
	if err != nil {
		return nil, fmt.Errorf("create bearer DID: %w", err)
	}

	return &BearerDID{URI: doc.ID, Document: doc, KeyManager: km}, nil
}

// GetSigner returns a signer for the given verification method id, or for the first
// assertion method with a public JWK when vmID is empty.
func (b *BearerDID) GetSigner(vmID string) (*Signer, error) {
	vm, err := b.signingMethod(vmID)
	if err != nil {
		return nil, err
	}

	signer, err := b.KeyManager.GetSigner(vm.PublicKeyJwk)
	if err != nil {
		return nil, fmt.Errorf("get signer for %s: %w", vm.ID, err)
	}

	kid := vm.ID
	if len(kid) > 0 && kid[0] == '#' {
		kid = b.URI + kid
	}

	return &Signer{signer: signer, kid: kid}, nil
}

func (b *BearerDID) signingMethod(vmID string) (*did.VerificationMethod, error) {
	if vmID != "" {
		vm, err := b.Document.VerificationMethodByID(vmID)
		if err != nil {
			return nil, err
		}

		if vm.PublicKeyJwk == nil {
			return nil, ErrNoSigningMethod
		}

		return vm, nil
	}

	candidates := b.Document.AssertionMethod
	if len(candidates) == 0 {
		for _, vm := range b.Document.VerificationMethod {
			candidates = append(candidates, vm.ID)
		}
	}

	for _, id := range candidates {
		vm, err := b.Document.VerificationMethodByID(id)
		if err == nil && vm.PublicKeyJwk != nil {
			return vm, nil
		}
	}

	return nil, ErrNoSigningMethod
}

// Export returns the portable form of the DID. The key manager must be able to export keys.
func (b *BearerDID) Export() (*PortableDID, error) {
	exporter, ok := b.KeyManager.(kms.KeyExporter)
	if !ok {
		return nil, errors.New("key manager does not support key export")
	}

	portable := &PortableDID{URI: b.URI, Document: b.Document}

	for _, vm := range b.Document.VerificationMethod {
		if vm.PublicKeyJwk == nil {
			continue
		}

		priv, err := exporter.ExportPrivateJWK(vm.PublicKeyJwk)
		if err != nil {
			return nil, fmt.Errorf("export %s: %w", vm.ID, err)
		}

		portable.PrivateKeys = append(portable.PrivateKeys, priv)
	}

	return portable, nil
}

// Import loads a portable DID, importing its private keys into km (a new localkms if nil).
func Import(portable *PortableDID, km kms.KeyManager) (*BearerDID, error) {
	if portable == nil || portable.Document == nil {
		return nil, errors.New("import bearer DID: document is required")
	}

	if portable.URI != "" && portable.URI != portable.Document.ID {
		return nil, fmt.Errorf("import bearer DID: uri %s does not match document %s", portable.URI, portable.Document.ID)
	}

	if km == nil {
		km = localkms.New()
	}

	for _, priv := range portable.PrivateKeys {
		if _, err := km.ImportPrivateJWK(priv); err != nil {
			return nil, fmt.Errorf("import bearer DID: %w", err)
		}
	}

	return &BearerDID{URI: portable.Document.ID, Document: portable.Document, KeyManager: km}, nil
}
