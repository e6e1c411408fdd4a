/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package signature creates and verifies the detached compact JWS carried by tbDEX messages and resources.
package signature

import (
	"fmt"

	"github.com/TBD54566975/tbdex-go/pkg/doc/did"
	"github.com/TBD54566975/tbdex-go/pkg/doc/jose"
	"github.com/TBD54566975/tbdex-go/pkg/tbdex/tbdexerr"
	"github.com/TBD54566975/tbdex-go/pkg/vdr"
)

// Sign signs the digest and returns a compact JWS with a detached payload ("header..signature").
// The signer must provide the "kid" header of its verification method.
func Sign(digest []byte, signer jose.Signer) (string, error) {
	if _, ok := signer.Headers().KeyID(); !ok {
		return "", fmt.Errorf("sign: signer does not provide a %s header", jose.HeaderKeyID)
	}

	jws, err := jose.NewJWS(nil, digest, signer)
	if err != nil {
		return "", fmt.Errorf("sign: %w", err)
	}

	return jws.SerializeCompact(true), nil
}

// Verify checks a detached compact JWS over the digest. The DID named by the "kid" header is
// resolved and the key of the referenced verification method checks the signature.
// It returns the signer DID.
func Verify(digest []byte, compactJWS string, resolver vdr.Resolver) (string, error) {
	if compactJWS == "" {
		return "", tbdexerr.New(tbdexerr.InvalidSignature, "signature is missing")
	}

	headers, err := jose.ParseHeaders(compactJWS)
	if err != nil {
		return "", tbdexerr.Wrap(tbdexerr.InvalidSignature, err, "parse signature")
	}

	kid, ok := headers.KeyID()
	if !ok || kid == "" {
		return "", tbdexerr.New(tbdexerr.InvalidSignature, "signature header has no %s", jose.HeaderKeyID)
	}

	didURL, err := did.ParseDIDURL(kid)
	if err != nil {
		return "", tbdexerr.Wrap(tbdexerr.InvalidSignature, err, "signature %s is not a DID URL", jose.HeaderKeyID)
	}

	_, err = jose.ParseJWS(compactJWS, vdr.NewJWSVerifier(resolver), jose.WithJWSDetachedPayload(digest))
	if err != nil {
		return "", tbdexerr.Wrap(tbdexerr.InvalidSignature, err, "verify signature")
	}

	return didURL.DID.String(), nil
}
