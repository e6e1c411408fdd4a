/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package jose

import (
	"crypto/ed25519"
	"crypto/sha256"
	"errors"
	"fmt"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	"github.com/decred/dcrd/dcrec/secp256k1/v4/ecdsa"

	"github.com/TBD54566975/tbdex-go/pkg/doc/jose/jwk"
)

const es256kSignatureSize = 64

// ErrSignatureVerification is returned when a signature does not verify against the key.
var ErrSignatureVerification = errors.New("signature verification failed")

// VerifySignature checks signature over signingInput with the public key for the given JWS algorithm.
func VerifySignature(key *jwk.JWK, alg string, signingInput, signature []byte) error {
	if keyAlg := key.JWSAlgorithm(); keyAlg != alg {
		return fmt.Errorf("alg %q does not match key algorithm %q", alg, keyAlg)
	}

	switch pub := key.Public().Key.(type) {
	case ed25519.PublicKey:
		if !ed25519.Verify(pub, signingInput, signature) {
			return ErrSignatureVerification
		}

		return nil
	case *secp256k1.PublicKey:
		return verifyES256K(pub, signingInput, signature)
	default:
		return fmt.Errorf("unsupported key type %T", key.Key)
	}
}

func verifyES256K(pub *secp256k1.PublicKey, signingInput, signature []byte) error {
	if len(signature) != es256kSignatureSize {
		return fmt.Errorf("%w: invalid ES256K signature size", ErrSignatureVerification)
	}

	var r, s secp256k1.ModNScalar

	if overflow := r.SetByteSlice(signature[:32]); overflow {
		return fmt.Errorf("%w: r overflows", ErrSignatureVerification)
	}

	if overflow := s.SetByteSlice(signature[32:]); overflow {
		return fmt.Errorf("%w: s overflows", ErrSignatureVerification)
	}

	hash := sha256.Sum256(signingInput)

	if !ecdsa.NewSignature(&r, &s).Verify(hash[:], pub) {
		return ErrSignatureVerification
	}

	return nil
}

// PublicKeyVerifier verifies a JWS with one known public key.
type PublicKeyVerifier struct {
	key *jwk.JWK
}

// NewPublicKeyVerifier creates a verifier bound to the public key.
func NewPublicKeyVerifier(key *jwk.JWK) *PublicKeyVerifier {
	return &PublicKeyVerifier{key: key}
}

// Verify verifies JWS signature.
func (v *PublicKeyVerifier) Verify(joseHeaders Headers, _, signingInput, signature []byte) error {
	alg, ok := joseHeaders.Algorithm()
	if !ok {
		return fmt.Errorf("%s header is missing", HeaderAlgorithm)
	}

	return VerifySignature(v.key, alg, signingInput, signature)
}
