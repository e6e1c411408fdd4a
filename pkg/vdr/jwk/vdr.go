/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package jwk implements the did:jwk method: the method specific id is the base64url encoded public JWK.
package jwk

import (
	"encoding/base64"
	"encoding/json"
	"fmt"

	"github.com/TBD54566975/tbdex-go/pkg/doc/did"
	josejwk "github.com/TBD54566975/tbdex-go/pkg/doc/jose/jwk"
)

const (
	// DIDMethod did method.
	DIDMethod = "jwk"

	verificationMethodFragment = "#0"
)

// VDR implements did:jwk resolution.
type VDR struct{}

// New returns new instance of did:jwk VDR.
func New() *VDR {
	return &VDR{}
}

// Accept accepts did:jwk method.
func (v *VDR) Accept(method string) bool {
	return method == DIDMethod
}

// Read expands a did:jwk value to a DID document.
func (v *VDR) Read(didJWK string) (*did.DocResolution, error) {
	parsed, err := did.Parse(didJWK)
	if err != nil {
		return nil, fmt.Errorf("did:jwk read: %w", err)
	}

	if parsed.Method != DIDMethod {
		return nil, fmt.Errorf("did:jwk read: unexpected method %s", parsed.Method)
	}

	raw, err := base64.RawURLEncoding.DecodeString(parsed.MethodSpecificID)
	if err != nil {
		return nil, fmt.Errorf("did:jwk read: decode method id: %w", err)
	}

	var key josejwk.JWK

	if err = json.Unmarshal(raw, &key); err != nil {
		return nil, fmt.Errorf("did:jwk read: %w", err)
	}

	if key.IsPrivate() {
		return nil, fmt.Errorf("did:jwk read: %w: private key in DID", josejwk.ErrInvalidKey)
	}

	return &did.DocResolution{
		Context:     did.ResolutionContext,
		DIDDocument: createDoc(didJWK, &key),
	}, nil
}

// Create builds the did:jwk DID and its document for the public key.
func Create(publicKey *josejwk.JWK) (*did.Doc, error) {
	raw, err := json.Marshal(publicKey.Public())
	if err != nil {
		return nil, fmt.Errorf("did:jwk create: %w", err)
	}

	didJWK := "did:" + DIDMethod + ":" + base64.RawURLEncoding.EncodeToString(raw)

	return createDoc(didJWK, publicKey.Public()), nil
}

func createDoc(didJWK string, key *josejwk.JWK) *did.Doc {
	vmID := didJWK + verificationMethodFragment

	return &did.Doc{
		Context: []string{did.ContextV1},
		ID:      didJWK,
		VerificationMethod: []did.VerificationMethod{{
			ID:           vmID,
			Type:         did.JSONWebKey2020,
			Controller:   didJWK,
			PublicKeyJwk: key,
		}},
		Authentication:     []string{vmID},
		AssertionMethod:    []string{vmID},
		CapabilityInvoke:   []string{vmID},
		CapabilityDelegate: []string{vmID},
	}
}
