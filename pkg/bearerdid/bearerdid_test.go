/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package bearerdid

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/TBD54566975/tbdex-go/pkg/doc/jose"
	"github.com/TBD54566975/tbdex-go/pkg/kms"
	"github.com/TBD54566975/tbdex-go/pkg/kms/localkms"
)

func TestBearerDID_Signer(t *testing.T) {
	for _, create := range []func(kms.KeyManager, string) (*BearerDID, error){NewJWK, NewKey} {
		for _, alg := range []string{kms.Ed25519, kms.Secp256k1} {
			bearer, err := create(nil, alg)
			require.NoError(t, err)

			signer, err := bearer.GetSigner("")
			require.NoError(t, err)
			require.True(t, strings.HasPrefix(signer.KeyID(), bearer.URI+"#"))

			headerAlg, ok := signer.Headers().Algorithm()
			require.True(t, ok)
			require.Equal(t, alg, headerAlg)

			jws, err := jose.NewJWS(nil, []byte("payload"), signer)
			require.NoError(t, err)

			vm, err := bearer.Document.VerificationMethodByID(signer.KeyID())
			require.NoError(t, err)

			_, err = jose.ParseJWS(jws.SerializeCompact(false), jose.NewPublicKeyVerifier(vm.PublicKeyJwk))
			require.NoError(t, err)

			_, err = bearer.GetSigner(signer.KeyID())
			require.NoError(t, err)

			_, err = bearer.GetSigner(bearer.URI + "#missing")
			require.Error(t, err)
		}
	}
}

func TestBearerDID_ExportImport(t *testing.T) {
	bearer, err := NewJWK(localkms.New(), kms.Ed25519)
	require.NoError(t, err)

	portable, err := bearer.Export()
	require.NoError(t, err)
	require.Len(t, portable.PrivateKeys, 1)

	data, err := json.Marshal(portable)
	require.NoError(t, err)

	var decoded PortableDID
	require.NoError(t, json.Unmarshal(data, &decoded))

	imported, err := Import(&decoded, nil)
	require.NoError(t, err)
	require.Equal(t, bearer.URI, imported.URI)

	signer, err := imported.GetSigner("")
	require.NoError(t, err)

	sig, err := signer.Sign([]byte("x"))
	require.NoError(t, err)
	require.NotEmpty(t, sig)

	decoded.URI = "did:jwk:other"
	_, err = Import(&decoded, nil)
	require.ErrorContains(t, err, "does not match")

	_, err = Import(&PortableDID{}, nil)
	require.Error(t, err)
}
