/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package jose

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

const (
	jwsPartsCount    = 3
	jwsHeaderPart    = 0
	jwsPayloadPart   = 1
	jwsSignaturePart = 2
)

// ErrInvalidJWS is returned for JWS strings that cannot be parsed.
var ErrInvalidJWS = errors.New("invalid JWS")

// JSONWebSignature defines a JSON Web Signature (https://tools.ietf.org/html/rfc7515).
type JSONWebSignature struct {
	ProtectedHeaders Headers

	Payload []byte

	signature     []byte
	joseHeaderB64 string
}

// Signer defines JWS Signer interface. It makes signing of data and provides custom JWS headers relevant to the signer.
type Signer interface {
	// Sign signs.
	Sign(data []byte) ([]byte, error)

	// Headers provides JWS headers. "alg" header must be provided (see https://tools.ietf.org/html/rfc7515#section-4.1)
	Headers() Headers
}

// SignatureVerifier makes verification of JSON Web Signature.
type SignatureVerifier interface {
	// Verify verifies JWS based on the signing input.
	Verify(joseHeaders Headers, payload, signingInput, signature []byte) error
}

// SignatureVerifierFunc is a function wrapper for SignatureVerifier.
type SignatureVerifierFunc func(joseHeaders Headers, payload, signingInput, signature []byte) error

// Verify verifies JWS signature.
func (s SignatureVerifierFunc) Verify(joseHeaders Headers, payload, signingInput, signature []byte) error {
	return s(joseHeaders, payload, signingInput, signature)
}

// NewJWS creates JSON Web Signature.
func NewJWS(protectedHeaders Headers, payload []byte, signer Signer) (*JSONWebSignature, error) {
	headers := mergeHeaders(protectedHeaders, signer.Headers())

	if _, ok := headers.Algorithm(); !ok {
		return nil, fmt.Errorf("%s JWS header is not defined", HeaderAlgorithm)
	}

	headerBytes, err := json.Marshal(headers)
	if err != nil {
		return nil, fmt.Errorf("serialize JWS headers: %w", err)
	}

	jws := &JSONWebSignature{
		ProtectedHeaders: headers,
		Payload:          payload,
		joseHeaderB64:    base64.RawURLEncoding.EncodeToString(headerBytes),
	}

	jws.signature, err = signer.Sign(jws.signingInput())
	if err != nil {
		return nil, fmt.Errorf("sign JWS: %w", err)
	}

	return jws, nil
}

// SerializeCompact makes JWS Compact Serialization (https://tools.ietf.org/html/rfc7515#section-7.1).
// With detached set the payload part is left empty (https://tools.ietf.org/html/rfc7515#appendix-F).
func (s *JSONWebSignature) SerializeCompact(detached bool) string {
	payload := ""
	if !detached {
		payload = base64.RawURLEncoding.EncodeToString(s.Payload)
	}

	return s.joseHeaderB64 + "." + payload + "." + base64.RawURLEncoding.EncodeToString(s.signature)
}

// Signature returns the raw signature bytes.
func (s *JSONWebSignature) Signature() []byte {
	return s.signature
}

func (s *JSONWebSignature) signingInput() []byte {
	return []byte(s.joseHeaderB64 + "." + base64.RawURLEncoding.EncodeToString(s.Payload))
}

type jwsParseOpts struct {
	detachedPayload []byte
}

// JWSParseOpt is the JWS parser option.
type JWSParseOpt func(opts *jwsParseOpts)

// WithJWSDetachedPayload option is for definition of JWS detached payload.
func WithJWSDetachedPayload(payload []byte) JWSParseOpt {
	return func(opts *jwsParseOpts) {
		opts.detachedPayload = payload
	}
}

// ParseJWS parses a compact serialized JWS and verifies its signature with the given verifier.
func ParseJWS(jws string, verifier SignatureVerifier, opts ...JWSParseOpt) (*JSONWebSignature, error) {
	pOpts := &jwsParseOpts{}

	for _, opt := range opts {
		opt(pOpts)
	}

	parts := strings.Split(jws, ".")
	if len(parts) != jwsPartsCount {
		return nil, fmt.Errorf("%w: expected %d parts", ErrInvalidJWS, jwsPartsCount)
	}

	headers, err := parseHeaders(parts[jwsHeaderPart])
	if err != nil {
		return nil, err
	}

	payload := pOpts.detachedPayload
	if payload == nil {
		if parts[jwsPayloadPart] == "" {
			return nil, fmt.Errorf("%w: detached payload is not provided", ErrInvalidJWS)
		}

		payload, err = base64.RawURLEncoding.DecodeString(parts[jwsPayloadPart])
		if err != nil {
			return nil, fmt.Errorf("%w: decode payload: %w", ErrInvalidJWS, err)
		}
	} else if parts[jwsPayloadPart] != "" {
		return nil, fmt.Errorf("%w: payload present in a detached JWS", ErrInvalidJWS)
	}

	signature, err := base64.RawURLEncoding.DecodeString(parts[jwsSignaturePart])
	if err != nil {
		return nil, fmt.Errorf("%w: decode signature: %w", ErrInvalidJWS, err)
	}

	parsed := &JSONWebSignature{
		ProtectedHeaders: headers,
		Payload:          payload,
		signature:        signature,
		joseHeaderB64:    parts[jwsHeaderPart],
	}

	err = verifier.Verify(headers, payload, parsed.signingInput(), signature)
	if err != nil {
		return nil, err
	}

	return parsed, nil
}

// ParseHeaders decodes the protected headers of a compact JWS without verifying it.
func ParseHeaders(jws string) (Headers, error) {
	idx := strings.IndexByte(jws, '.')
	if idx < 0 {
		return nil, ErrInvalidJWS
	}

	return parseHeaders(jws[:idx])
}

func parseHeaders(headerB64 string) (Headers, error) {
	headerBytes, err := base64.RawURLEncoding.DecodeString(headerB64)
	if err != nil {
		return nil, fmt.Errorf("%w: decode headers: %w", ErrInvalidJWS, err)
	}

	var headers Headers

	err = json.Unmarshal(headerBytes, &headers)
	if err != nil {
		return nil, fmt.Errorf("%w: unmarshal headers: %w", ErrInvalidJWS, err)
	}

	if _, ok := headers.Algorithm(); !ok {
		return nil, fmt.Errorf("%w: %s header is missing", ErrInvalidJWS, HeaderAlgorithm)
	}

	return headers, nil
}

func mergeHeaders(h1, h2 Headers) Headers {
	h := make(Headers, len(h1)+len(h2))

	for k, v := range h2 {
		h[k] = v
	}

	for k, v := range h1 {
		h[k] = v
	}

	return h
}

func convertMapToValue(vOriginToBeMapped interface{}, vToBeMapped interface{}) error {
	mBytes, err := json.Marshal(vOriginToBeMapped)
	if err != nil {
		return err
	}

	return json.Unmarshal(mBytes, vToBeMapped)
}
