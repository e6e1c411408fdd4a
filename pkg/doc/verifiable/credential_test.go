/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package verifiable_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/TBD54566975/tbdex-go/pkg/bearerdid"
	"github.com/TBD54566975/tbdex-go/pkg/doc/verifiable"
	"github.com/TBD54566975/tbdex-go/pkg/kms"
	"github.com/TBD54566975/tbdex-go/pkg/vdr"
	vdrjwk "github.com/TBD54566975/tbdex-go/pkg/vdr/jwk"
)

func issue(t *testing.T, issuer *bearerdid.BearerDID, expiry time.Time) string {
	t.Helper()

	signer, err := issuer.GetSigner("")
	require.NoError(t, err)

	claims := verifiable.NewJWTCredClaims(issuer.URI, []string{"SanctionCredential"},
		verifiable.Subject{"id": "did:example:alice", "beep": "boop"}, expiry)

	vcJWT, err := verifiable.SignJWT(claims, signer)
	require.NoError(t, err)

	return vcJWT
}

func TestParseJWT(t *testing.T) {
	issuer, err := bearerdid.NewJWK(nil, kms.Ed25519)
	require.NoError(t, err)

	resolver := vdr.New(vdr.WithVDR(vdrjwk.New()))

	t.Run("verified", func(t *testing.T) {
		vcJWT := issue(t, issuer, time.Now().Add(time.Hour))

		vc, err := verifiable.ParseJWT(vcJWT, verifiable.WithResolver(resolver))
		require.NoError(t, err)
		require.Equal(t, issuer.URI, vc.Issuer)
		require.Equal(t, []string{verifiable.TypeVerifiableCredential, "SanctionCredential"}, vc.Types)
		require.Equal(t, []string{verifiable.ContextV1}, vc.Context)
		require.Equal(t, "did:example:alice", vc.Claims.Subject)
		require.NotEmpty(t, vc.ExpirationDate)

		subject, ok := vc.Subject.(map[string]interface{})
		require.True(t, ok)
		require.Equal(t, "boop", subject["beep"])

		require.Contains(t, vc.Payload(), "vc")
		require.Equal(t, vcJWT, vc.JWT)
	})

	t.Run("unverified parse of foreign signature", func(t *testing.T) {
		stranger, err := bearerdid.NewJWK(nil, kms.Secp256k1)
		require.NoError(t, err)

		vcJWT := issue(t, stranger, time.Time{})

		_, err = verifiable.ParseJWT(vcJWT)
		require.NoError(t, err)
	})

	t.Run("tampered", func(t *testing.T) {
		vcJWT := issue(t, issuer, time.Time{})
		tampered := vcJWT[:len(vcJWT)-4] + "AAAA"

		_, err := verifiable.ParseJWT(tampered, verifiable.WithResolver(resolver))
		require.Error(t, err)
	})

	t.Run("expired", func(t *testing.T) {
		vcJWT := issue(t, issuer, time.Now().Add(time.Hour))

		_, err := verifiable.ParseJWT(vcJWT, verifiable.WithClock(func() time.Time {
			return time.Now().Add(2 * time.Hour)
		}))
		require.ErrorIs(t, err, verifiable.ErrExpired)
	})

	t.Run("not yet valid", func(t *testing.T) {
		vcJWT := issue(t, issuer, time.Time{})

		_, err := verifiable.ParseJWT(vcJWT, verifiable.WithClock(func() time.Time {
			return time.Now().Add(-time.Hour)
		}))
		require.ErrorIs(t, err, verifiable.ErrNotYetValid)
	})

	t.Run("malformed", func(t *testing.T) {
		_, err := verifiable.ParseJWT("nope")
		require.Error(t, err)
	})
}
