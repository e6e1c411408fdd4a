/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package jose_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/TBD54566975/tbdex-go/pkg/doc/jose"
	"github.com/TBD54566975/tbdex-go/pkg/doc/jose/jwk"
	"github.com/TBD54566975/tbdex-go/pkg/kms"
	"github.com/TBD54566975/tbdex-go/pkg/kms/localkms"
)

type testSigner struct {
	signer kms.Signer
	kid    string
}

func (s *testSigner) Sign(data []byte) ([]byte, error) {
	return s.signer.Sign(data)
}

func (s *testSigner) Headers() jose.Headers {
	return jose.Headers{
		jose.HeaderAlgorithm: s.signer.Algorithm(),
		jose.HeaderKeyID:     s.kid,
	}
}

func newTestSigner(t *testing.T, alg string) (*testSigner, *jwk.JWK) {
	t.Helper()

	km := localkms.New()

	pub, err := km.GenerateKey(alg)
	require.NoError(t, err)

	signer, err := km.GetSigner(pub)
	require.NoError(t, err)

	return &testSigner{signer: signer, kid: "did:example:123#0"}, pub
}

func TestJWS_CompactDetached(t *testing.T) {
	for _, alg := range []string{kms.Ed25519, kms.Secp256k1} {
		t.Run(alg, func(t *testing.T) {
			signer, pub := newTestSigner(t, alg)
			payload := []byte("digest bytes")

			jws, err := jose.NewJWS(jose.Headers{jose.HeaderType: "JWT"}, payload, signer)
			require.NoError(t, err)

			compact := jws.SerializeCompact(true)
			parts := strings.Split(compact, ".")
			require.Len(t, parts, 3)
			require.Empty(t, parts[1])

			headers, err := jose.ParseHeaders(compact)
			require.NoError(t, err)
			kid, ok := headers.KeyID()
			require.True(t, ok)
			require.Equal(t, "did:example:123#0", kid)
			typ, ok := headers.Type()
			require.True(t, ok)
			require.Equal(t, "JWT", typ)

			verifier := jose.NewPublicKeyVerifier(pub)

			parsed, err := jose.ParseJWS(compact, verifier, jose.WithJWSDetachedPayload(payload))
			require.NoError(t, err)
			require.Equal(t, payload, parsed.Payload)

			_, err = jose.ParseJWS(compact, verifier, jose.WithJWSDetachedPayload([]byte("tampered")))
			require.ErrorIs(t, err, jose.ErrSignatureVerification)

			_, err = jose.ParseJWS(compact, verifier)
			require.ErrorIs(t, err, jose.ErrInvalidJWS)
		})
	}
}

func TestJWS_CompactAttached(t *testing.T) {
	signer, pub := newTestSigner(t, kms.Ed25519)

	jws, err := jose.NewJWS(nil, []byte(`{"iss":"did:example:123"}`), signer)
	require.NoError(t, err)

	parsed, err := jose.ParseJWS(jws.SerializeCompact(false), jose.NewPublicKeyVerifier(pub))
	require.NoError(t, err)
	require.JSONEq(t, `{"iss":"did:example:123"}`, string(parsed.Payload))

	_, err = jose.ParseJWS(jws.SerializeCompact(false), jose.NewPublicKeyVerifier(pub),
		jose.WithJWSDetachedPayload([]byte("x")))
	require.ErrorIs(t, err, jose.ErrInvalidJWS)
}

func TestJWS_ParseErrors(t *testing.T) {
	noop := jose.SignatureVerifierFunc(func(jose.Headers, []byte, []byte, []byte) error { return nil })

	for _, tc := range []struct {
		name string
		jws  string
	}{
		{"too few parts", "a.b"},
		{"header not base64", "!!!..c2ln"},
		{"header not json", "bm90IGpzb24..c2ln"},
		{"alg missing", "e30..c2ln"},
	} {
		t.Run(tc.name, func(t *testing.T) {
			_, err := jose.ParseJWS(tc.jws, noop, jose.WithJWSDetachedPayload([]byte("p")))
			require.ErrorIs(t, err, jose.ErrInvalidJWS)
		})
	}

	_, err := jose.ParseHeaders("nodots")
	require.ErrorIs(t, err, jose.ErrInvalidJWS)
}

func TestHeaders(t *testing.T) {
	h := jose.Headers{
		jose.HeaderAlgorithm:   "EdDSA",
		jose.HeaderContentType: "application/json",
		jose.HeaderJSONWebKey: map[string]interface{}{
			"kty": "OKP", "crv": "Ed25519", "x": "11qYAYKxCrfVS_7TyWQHOg7hcvPapiMlrwIaaPcHURo",
		},
	}

	alg, ok := h.Algorithm()
	require.True(t, ok)
	require.Equal(t, "EdDSA", alg)

	cty, ok := h.ContentType()
	require.True(t, ok)
	require.Equal(t, "application/json", cty)

	headerKey, ok := h.JWK()
	require.True(t, ok)
	require.Equal(t, "Ed25519", headerKey.Crv)

	_, ok = h.KeyID()
	require.False(t, ok)

	_, ok = jose.Headers{jose.HeaderKeyID: 42}.KeyID()
	require.False(t, ok)
}
