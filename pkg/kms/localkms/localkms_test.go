/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package localkms

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/TBD54566975/tbdex-go/pkg/doc/jose"
	"github.com/TBD54566975/tbdex-go/pkg/doc/jose/jwk"
	"github.com/TBD54566975/tbdex-go/pkg/kms"
)

func TestLocalKMS_SignVerify(t *testing.T) {
	for _, alg := range []string{kms.Ed25519, kms.Secp256k1} {
		t.Run(alg, func(t *testing.T) {
			km := New()

			pub, err := km.GenerateKey(alg)
			require.NoError(t, err)
			require.False(t, pub.IsPrivate())
			require.Equal(t, alg, pub.JWSAlgorithm())

			signer, err := km.GetSigner(pub)
			require.NoError(t, err)
			require.Equal(t, alg, signer.Algorithm())

			payload := []byte("tbdex payload")
			sig, err := signer.Sign(payload)
			require.NoError(t, err)

			require.NoError(t, jose.VerifySignature(pub, alg, payload, sig))
			require.ErrorIs(t, jose.VerifySignature(pub, alg, []byte("other payload"), sig), jose.ErrSignatureVerification)
		})
	}
}

func TestLocalKMS_Import(t *testing.T) {
	source := New()

	pub, err := source.GenerateKey(kms.Ed25519)
	require.NoError(t, err)

	priv, err := source.ExportPrivateJWK(pub)
	require.NoError(t, err)
	require.True(t, priv.IsPrivate())

	target := New()

	_, err = target.GetSigner(pub)
	require.ErrorIs(t, err, kms.ErrKeyNotFound)

	imported, err := target.ImportPrivateJWK(priv)
	require.NoError(t, err)

	tp1, err := pub.Thumbprint()
	require.NoError(t, err)
	tp2, err := imported.Thumbprint()
	require.NoError(t, err)
	require.Equal(t, tp1, tp2)

	_, err = target.GetSigner(pub)
	require.NoError(t, err)

	_, err = target.ImportPrivateJWK(pub)
	require.ErrorIs(t, err, jwk.ErrInvalidKey)

	_, err = target.GenerateKey("RS256")
	require.Error(t, err)
}
