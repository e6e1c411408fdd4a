/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package requesttoken creates and verifies the short-lived self-signed JWTs a requester presents to
// a PFI. The token is signed by the requester DID (iss) for the PFI DID (aud).
package requesttoken

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/TBD54566975/tbdex-go/pkg/bearerdid"
	"github.com/TBD54566975/tbdex-go/pkg/doc/did"
	"github.com/TBD54566975/tbdex-go/pkg/doc/jose"
	"github.com/TBD54566975/tbdex-go/pkg/doc/jose/jwk"
	"github.com/TBD54566975/tbdex-go/pkg/vdr"
)

// TTL is how long a token is valid after it is issued.
const TTL = time.Minute

// ErrInvalidToken is returned for tokens that are malformed, expired, not for this PFI, or not signed by their issuer.
var ErrInvalidToken = errors.New("invalid request token")

// didSigningMethod signs with a DID key held by a key manager.
type didSigningMethod struct {
	alg string
}

//nolint:gochecknoinits
func init() {
	// EdDSA is registered by jwt itself.
	jwt.RegisterSigningMethod(jwk.AlgES256K, func() jwt.SigningMethod {
		return &didSigningMethod{alg: jwk.AlgES256K}
	})
}

func (m *didSigningMethod) Alg() string {
	return m.alg
}

// Sign expects a *bearerdid.Signer.
func (m *didSigningMethod) Sign(signingString string, key interface{}) ([]byte, error) {
	signer, ok := key.(*bearerdid.Signer)
	if !ok {
		return nil, jwt.ErrInvalidKeyType
	}

	return signer.Sign([]byte(signingString))
}

// Verify expects a *jwk.JWK.
func (m *didSigningMethod) Verify(signingString string, sig []byte, key interface{}) error {
	pub, ok := key.(*jwk.JWK)
	if !ok {
		return jwt.ErrInvalidKeyType
	}

	return jose.VerifySignature(pub, m.alg, []byte(signingString), sig)
}

type createOpts struct {
	now func() time.Time
}

// Option configures Create and Verify.
type Option func(opts *createOpts)

// WithClock sets the time tokens are issued and checked at.
func WithClock(now func() time.Time) Option {
	return func(opts *createOpts) {
		opts.now = now
	}
}

// Create issues a token for requester addressed to the PFI DID audience.
func Create(requester *bearerdid.BearerDID, audience string, opts ...Option) (string, error) {
	o := applyOpts(opts)

	signer, err := requester.GetSigner("")
	if err != nil {
		return "", fmt.Errorf("create request token: %w", err)
	}

	alg, _ := signer.Headers().Algorithm() //nolint:errcheck
	now := o.now()

	token := jwt.NewWithClaims(&didSigningMethod{alg: alg},
		jwt.RegisteredClaims{
			Issuer:    requester.URI,
			Audience:  jwt.ClaimStrings{audience},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(TTL)),
			ID:        uuid.NewString(),
		})
	token.Header[jose.HeaderKeyID] = signer.KeyID()

	signed, err := token.SignedString(signer)
	if err != nil {
		return "", fmt.Errorf("create request token: %w", err)
	}

	return signed, nil
}

// Verify checks a token addressed to audience and returns the requester DID.
func Verify(token, audience string, resolver vdr.Resolver, opts ...Option) (string, error) {
	o := applyOpts(opts)

	jws, err := jose.ParseJWS(token, vdr.NewJWSVerifier(resolver))
	if err != nil {
		return "", fmt.Errorf("%w: %s", ErrInvalidToken, err)
	}

	claims := &jwt.RegisteredClaims{}

	_, _, err = jwt.NewParser().ParseUnverified(token, claims)
	if err != nil {
		return "", fmt.Errorf("%w: %s", ErrInvalidToken, err)
	}

	validator := jwt.NewValidator(
		jwt.WithAudience(audience),
		jwt.WithIssuedAt(),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(o.now),
	)

	err = validator.Validate(claims)
	if err != nil {
		return "", fmt.Errorf("%w: %s", ErrInvalidToken, err)
	}

	if claims.ID == "" || claims.Issuer == "" || claims.IssuedAt == nil {
		return "", fmt.Errorf("%w: missing jti, iss or iat", ErrInvalidToken)
	}

	if claims.ExpiresAt.Sub(claims.IssuedAt.Time) > TTL {
		return "", fmt.Errorf("%w: lifetime exceeds %s", ErrInvalidToken, TTL)
	}

	kid, _ := jws.ProtectedHeaders.KeyID() //nolint:errcheck

	signerDID, err := did.ParseDIDURL(kid)
	if err != nil {
		return "", fmt.Errorf("%w: kid: %s", ErrInvalidToken, err)
	}

	if signerDID.DID.String() != claims.Issuer {
		return "", fmt.Errorf("%w: signed by %s, issued by %s", ErrInvalidToken, signerDID.DID.String(), claims.Issuer)
	}

	return claims.Issuer, nil
}

// FromHeader extracts the token from an "Authorization: Bearer <token>" header value.
func FromHeader(authorization string) (string, error) {
	token, ok := strings.CutPrefix(authorization, "Bearer ")
	if !ok || token == "" {
		return "", fmt.Errorf("%w: authorization header must be a bearer token", ErrInvalidToken)
	}

	return token, nil
}

func applyOpts(opts []Option) *createOpts {
	o := &createOpts{now: time.Now}

	for _, opt := range opts {
		opt(o)
	}

	return o
}
