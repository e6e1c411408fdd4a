/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package jwk

import (
	"encoding/base64"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/TBD54566975/tbdex-go/pkg/kms"
	"github.com/TBD54566975/tbdex-go/pkg/kms/localkms"
)

func TestCreateAndRead(t *testing.T) {
	for _, alg := range []string{kms.Ed25519, kms.Secp256k1} {
		t.Run(alg, func(t *testing.T) {
			pub, err := localkms.New().GenerateKey(alg)
			require.NoError(t, err)

			doc, err := Create(pub)
			require.NoError(t, err)
			require.Contains(t, doc.ID, "did:jwk:")

			v := New()
			require.True(t, v.Accept(DIDMethod))
			require.False(t, v.Accept("key"))

			res, err := v.Read(doc.ID)
			require.NoError(t, err)
			require.Equal(t, doc.ID, res.DIDDocument.ID)

			vm, err := res.DIDDocument.VerificationMethodByID(doc.ID + "#0")
			require.NoError(t, err)
			require.Equal(t, alg, vm.PublicKeyJwk.JWSAlgorithm())

			tp1, err := pub.Thumbprint()
			require.NoError(t, err)
			tp2, err := vm.PublicKeyJwk.Thumbprint()
			require.NoError(t, err)
			require.Equal(t, tp1, tp2)
		})
	}
}

func TestRead_Errors(t *testing.T) {
	v := New()

	_, err := v.Read("did:jwk:!!!")
	require.Error(t, err)

	_, err = v.Read("did:key:z6Mk")
	require.ErrorContains(t, err, "unexpected method")

	_, err = v.Read("did:jwk:" + base64.RawURLEncoding.EncodeToString([]byte("not json")))
	require.Error(t, err)

	km := localkms.New()
	pub, err := km.GenerateKey(kms.Ed25519)
	require.NoError(t, err)

	priv, err := km.ExportPrivateJWK(pub)
	require.NoError(t, err)

	raw, err := priv.MarshalJSON()
	require.NoError(t, err)

	_, err = v.Read("did:jwk:" + base64.RawURLEncoding.EncodeToString(raw))
	require.ErrorContains(t, err, "private key in DID")
}
