/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package vdr

import (
	"errors"
	"fmt"

	"github.com/TBD54566975/tbdex-go/pkg/doc/did"
	"github.com/TBD54566975/tbdex-go/pkg/doc/jose"
)

// ErrMissingKeyID is returned when a JWS does not name its verification method.
var ErrMissingKeyID = errors.New("JWS header has no kid")

// JWSVerifier verifies JWS signatures with the public key of the verification method
// named by the "kid" header. The DID part of the kid is resolved for every verification.
type JWSVerifier struct {
	resolver Resolver
}

// NewJWSVerifier creates a JWSVerifier backed by the resolver.
func NewJWSVerifier(resolver Resolver) *JWSVerifier {
	return &JWSVerifier{resolver: resolver}
}

// Verify implements jose.SignatureVerifier.
func (v *JWSVerifier) Verify(joseHeaders jose.Headers, _, signingInput, signature []byte) error {
	kid, ok := joseHeaders.KeyID()
	if !ok || kid == "" {
		return ErrMissingKeyID
	}

	alg, ok := joseHeaders.Algorithm()
	if !ok {
		return fmt.Errorf("%s header is missing", jose.HeaderAlgorithm)
	}

	vm, err := v.VerificationMethod(kid)
	if err != nil {
		return err
	}

	return jose.VerifySignature(vm.PublicKeyJwk, alg, signingInput, signature)
}

// VerificationMethod resolves the DID URL and returns the verification method it points to.
func (v *JWSVerifier) VerificationMethod(kid string) (*did.VerificationMethod, error) {
	didURL, err := did.ParseDIDURL(kid)
	if err != nil {
		return nil, fmt.Errorf("kid is not a DID URL: %w", err)
	}

	signerDID := didURL.DID.String()

	resolution, err := v.resolver.Resolve(signerDID)
	if err != nil {
		return nil, fmt.Errorf("resolve signer DID %s: %w", signerDID, err)
	}

	vm, err := resolution.DIDDocument.VerificationMethodByID(kid)
	if err != nil {
		return nil, fmt.Errorf("signer DID document: %w", err)
	}

	if vm.PublicKeyJwk == nil {
		return nil, fmt.Errorf("verification method %s has no publicKeyJwk", kid)
	}

	return vm, nil
}
