/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package verifiable decodes Verifiable Credentials secured as JWTs (VC-JWT).
package verifiable

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/mitchellh/mapstructure"

	"github.com/TBD54566975/tbdex-go/pkg/doc/did"
	"github.com/TBD54566975/tbdex-go/pkg/doc/jose"
	"github.com/TBD54566975/tbdex-go/pkg/vdr"
)

const (
	// ContextV1 is the base context of a Verifiable Credential.
	ContextV1 = "https://www.w3.org/2018/credentials/v1"
	// TypeVerifiableCredential is the base type of a Verifiable Credential.
	TypeVerifiableCredential = "VerifiableCredential"

	vcClaim = "vc"
)

var (
	// ErrExpired is returned for credentials past their "exp" claim.
	ErrExpired = errors.New("credential is expired")
	// ErrNotYetValid is returned for credentials before their "nbf" claim.
	ErrNotYetValid = errors.New("credential is not yet valid")
)

// JWTCredClaims are the registered JWT claims of a VC-JWT together with the "vc" claim.
type JWTCredClaims struct {
	Issuer    string                 `json:"iss,omitempty"`
	Subject   string                 `json:"sub,omitempty"`
	JTI       string                 `json:"jti,omitempty"`
	NotBefore int64                  `json:"nbf,omitempty"`
	IssuedAt  int64                  `json:"iat,omitempty"`
	Expiry    int64                  `json:"exp,omitempty"`
	VC        map[string]interface{} `json:"vc,omitempty"`
}

type rawCredential struct {
	Context        interface{} `json:"@context"`
	ID             string      `json:"id"`
	Type           interface{} `json:"type"`
	Issuer         interface{} `json:"issuer"`
	IssuanceDate   string      `json:"issuanceDate"`
	ExpirationDate string      `json:"expirationDate"`
	Subject        interface{} `json:"credentialSubject"`
}

// Credential is a parsed VC-JWT.
type Credential struct {
	Context        []string
	ID             string
	Types          []string
	Issuer         string
	IssuanceDate   string
	ExpirationDate string
	Subject        interface{}

	JWT    string
	Claims *JWTCredClaims

	payload map[string]interface{}
}

// Payload returns the decoded JWT claims set, the document presentation definitions are evaluated on.
func (vc *Credential) Payload() map[string]interface{} {
	return vc.payload
}

type credentialOpts struct {
	resolver vdr.Resolver
	now      func() time.Time
}

// CredentialOpt is the VC-JWT parsing option.
type CredentialOpt func(opts *credentialOpts)

// WithResolver enables the signature check. The key is read from the issuer DID document.
func WithResolver(resolver vdr.Resolver) CredentialOpt {
	return func(opts *credentialOpts) {
		opts.resolver = resolver
	}
}

// WithClock sets the time source "exp" and "nbf" are checked against.
func WithClock(now func() time.Time) CredentialOpt {
	return func(opts *credentialOpts) {
		opts.now = now
	}
}

// ParseJWT parses a VC-JWT. The signature is checked only when a resolver is given.
func ParseJWT(vcJWT string, opts ...CredentialOpt) (*Credential, error) {
	cOpts := &credentialOpts{now: time.Now}

	for _, opt := range opts {
		opt(cOpts)
	}

	var verifier jose.SignatureVerifier = jose.SignatureVerifierFunc(noVerification)

	if cOpts.resolver != nil {
		verifier = vdr.NewJWSVerifier(cOpts.resolver)
	}

	jws, err := jose.ParseJWS(vcJWT, verifier)
	if err != nil {
		return nil, fmt.Errorf("parse VC-JWT: %w", err)
	}

	var payload map[string]interface{}

	err = json.Unmarshal(jws.Payload, &payload)
	if err != nil {
		return nil, fmt.Errorf("unmarshal VC-JWT claims: %w", err)
	}

	claims := &JWTCredClaims{}

	err = decode(payload, claims)
	if err != nil {
		return nil, fmt.Errorf("decode VC-JWT claims: %w", err)
	}

	if claims.VC == nil {
		return nil, fmt.Errorf("VC-JWT has no %s claim", vcClaim)
	}

	if cOpts.resolver != nil {
		err = checkIssuer(jws.ProtectedHeaders, claims.Issuer)
		if err != nil {
			return nil, err
		}
	}

	err = checkTimes(claims, cOpts.now())
	if err != nil {
		return nil, err
	}

	vc, err := newCredential(claims)
	if err != nil {
		return nil, err
	}

	vc.JWT = vcJWT
	vc.payload = payload

	return vc, nil
}

func newCredential(claims *JWTCredClaims) (*Credential, error) {
	raw := &rawCredential{}

	err := decode(claims.VC, raw)
	if err != nil {
		return nil, fmt.Errorf("decode %s claim: %w", vcClaim, err)
	}

	vc := &Credential{
		Context:        stringOrArray(raw.Context),
		ID:             raw.ID,
		Types:          stringOrArray(raw.Type),
		IssuanceDate:   raw.IssuanceDate,
		ExpirationDate: raw.ExpirationDate,
		Subject:        raw.Subject,
		Claims:         claims,
	}

	switch issuer := raw.Issuer.(type) {
	case string:
		vc.Issuer = issuer
	case map[string]interface{}:
		vc.Issuer, _ = issuer["id"].(string) //nolint:errcheck
	}

	// registered claims take precedence over their "vc" counterparts
	if claims.Issuer != "" {
		vc.Issuer = claims.Issuer
	}

	if claims.JTI != "" {
		vc.ID = claims.JTI
	}

	if claims.IssuedAt != 0 && vc.IssuanceDate == "" {
		vc.IssuanceDate = time.Unix(claims.IssuedAt, 0).UTC().Format(time.RFC3339)
	}

	if claims.Expiry != 0 && vc.ExpirationDate == "" {
		vc.ExpirationDate = time.Unix(claims.Expiry, 0).UTC().Format(time.RFC3339)
	}

	if len(vc.Types) == 0 {
		return nil, errors.New("credential has no type")
	}

	return vc, nil
}

func checkIssuer(headers jose.Headers, issuer string) error {
	kid, _ := headers.KeyID() //nolint:errcheck

	didURL, err := did.ParseDIDURL(kid)
	if err != nil {
		return fmt.Errorf("VC-JWT kid: %w", err)
	}

	if issuer != "" && didURL.DID.String() != issuer {
		return fmt.Errorf("VC-JWT signed by %s but issued by %s", didURL.DID.String(), issuer)
	}

	return nil
}

func checkTimes(claims *JWTCredClaims, now time.Time) error {
	if claims.Expiry != 0 && !now.Before(time.Unix(claims.Expiry, 0)) {
		return ErrExpired
	}

	if claims.NotBefore != 0 && now.Before(time.Unix(claims.NotBefore, 0)) {
		return ErrNotYetValid
	}

	return nil
}

func decode(input interface{}, output interface{}) error {
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName: "json",
		Result:  output,
	})
	if err != nil {
		return err
	}

	return decoder.Decode(input)
}

func noVerification(_ jose.Headers, _, _, _ []byte) error {
	return nil
}

func stringOrArray(v interface{}) []string {
	switch value := v.(type) {
	case string:
		return []string{value}
	case []interface{}:
		out := make([]string, 0, len(value))

		for _, e := range value {
			if s, ok := e.(string); ok {
				out = append(out, strings.TrimSpace(s))
			}
		}

		return out
	default:
		return nil
	}
}
