/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package key implements the did:key method for Ed25519 and secp256k1 keys.
package key

import (
	"crypto/ed25519"
	"encoding/binary"
	"fmt"

	"github.com/btcsuite/btcutil/base58"
	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	"github.com/multiformats/go-multibase"

	"github.com/TBD54566975/tbdex-go/pkg/doc/did"
	"github.com/TBD54566975/tbdex-go/pkg/doc/jose/jwk"
)

const (
	// DIDMethod did method.
	DIDMethod = "key"

	// source: https://github.com/multiformats/multicodec/blob/master/table.csv.
	ed25519pub   = 0xed
	secp256k1pub = 0xe7

	multicodecSize = 2
)

// VDR implements did:key resolution.
type VDR struct{}

// New returns new instance of did:key VDR.
func New() *VDR {
	return &VDR{}
}

// Accept accepts did:key method.
func (v *VDR) Accept(method string) bool {
	return method == DIDMethod
}

// Read expands did:key value to a DID document.
func (v *VDR) Read(didKey string) (*did.DocResolution, error) {
	parsed, err := did.Parse(didKey)
	if err != nil {
		return nil, fmt.Errorf("did:key read: %w", err)
	}

	if parsed.Method != DIDMethod {
		return nil, fmt.Errorf("did:key read: unexpected method %s", parsed.Method)
	}

	pub, err := PubKeyFromFingerprint(parsed.MethodSpecificID)
	if err != nil {
		return nil, fmt.Errorf("did:key read: %w", err)
	}

	return &did.DocResolution{
		Context:     did.ResolutionContext,
		DIDDocument: createDoc(parsed.MethodSpecificID, pub),
	}, nil
}

// Create builds the did:key DID and its document for the public key.
func Create(publicKey *jwk.JWK) (*did.Doc, error) {
	fp, err := KeyFingerprint(publicKey)
	if err != nil {
		return nil, fmt.Errorf("did:key create: %w", err)
	}

	return createDoc(fp, publicKey.Public()), nil
}

// KeyFingerprint generates the multicodec fingerprint used as the did:key method specific id.
func KeyFingerprint(publicKey *jwk.JWK) (string, error) {
	raw, err := publicKey.PublicKeyBytes()
	if err != nil {
		return "", err
	}

	var code uint64

	switch publicKey.Public().Key.(type) {
	case ed25519.PublicKey:
		code = ed25519pub
	case *secp256k1.PublicKey:
		code = secp256k1pub
	}

	buf := make([]byte, multicodecSize, multicodecSize+len(raw))
	binary.PutUvarint(buf, code)

	return "z" + base58.Encode(append(buf, raw...)), nil
}

// PubKeyFromFingerprint extracts the public key from a did:key fingerprint.
func PubKeyFromFingerprint(fingerprint string) (*jwk.JWK, error) {
	// did:key:MULTIBASE(base58-btc, MULTICODEC(public-key-type, raw-public-key-bytes))
	enc, mc, err := multibase.Decode(fingerprint)
	if err != nil {
		return nil, fmt.Errorf("decode fingerprint: %w", err)
	}

	if enc != multibase.Base58BTC {
		return nil, fmt.Errorf("fingerprint is not base58btc encoded")
	}

	code, n := binary.Uvarint(mc)
	if n <= 0 {
		return nil, fmt.Errorf("invalid multicodec prefix")
	}

	raw := mc[n:]

	switch code {
	case ed25519pub:
		if len(raw) != ed25519.PublicKeySize {
			return nil, fmt.Errorf("%w: ed25519 key size %d", jwk.ErrInvalidKey, len(raw))
		}

		return jwk.FromKey(ed25519.PublicKey(raw))
	case secp256k1pub:
		pub, err := secp256k1.ParsePubKey(raw)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", jwk.ErrInvalidKey, err)
		}

		return jwk.FromKey(pub)
	default:
		return nil, fmt.Errorf("not supported public key (multicodec code: %#x)", code)
	}
}

func createDoc(fingerprint string, key *jwk.JWK) *did.Doc {
	didKey := "did:" + DIDMethod + ":" + fingerprint
	vmID := didKey + "#" + fingerprint

	return &did.Doc{
		Context: []string{did.ContextV1},
		ID:      didKey,
		VerificationMethod: []did.VerificationMethod{{
			ID:           vmID,
			Type:         did.JSONWebKey2020,
			Controller:   didKey,
			PublicKeyJwk: key,
		}},
		Authentication:     []string{vmID},
		AssertionMethod:    []string{vmID},
		CapabilityInvoke:   []string{vmID},
		CapabilityDelegate: []string{vmID},
	}
}
