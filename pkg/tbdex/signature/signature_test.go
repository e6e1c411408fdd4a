/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package signature_test

import (
	"crypto/sha256"
	"errors"
	"strings"
	"testing"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/require"

	"github.com/TBD54566975/tbdex-go/pkg/bearerdid"
	"github.com/TBD54566975/tbdex-go/pkg/doc/did"
	"github.com/TBD54566975/tbdex-go/pkg/doc/jose"
	mockvdr "github.com/TBD54566975/tbdex-go/pkg/internal/gomocks/vdr"
	"github.com/TBD54566975/tbdex-go/pkg/kms"
	"github.com/TBD54566975/tbdex-go/pkg/tbdex/signature"
	"github.com/TBD54566975/tbdex-go/pkg/tbdex/tbdexerr"
	"github.com/TBD54566975/tbdex-go/pkg/vdr"
	vdrjwk "github.com/TBD54566975/tbdex-go/pkg/vdr/jwk"
	vdrkey "github.com/TBD54566975/tbdex-go/pkg/vdr/key"
)

func TestSignVerify(t *testing.T) {
	resolver := vdr.New(vdr.WithVDR(vdrjwk.New()), vdr.WithVDR(vdrkey.New()))

	for _, newDID := range []func(kms.KeyManager, string) (*bearerdid.BearerDID, error){bearerdid.NewJWK, bearerdid.NewKey} {
		for _, alg := range []string{kms.Ed25519, kms.Secp256k1} {
			bearer, err := newDID(nil, alg)
			require.NoError(t, err)

			signer, err := bearer.GetSigner("")
			require.NoError(t, err)

			digest := sha256.Sum256([]byte(`{"data":{},"metadata":{}}`))

			jws, err := signature.Sign(digest[:], signer)
			require.NoError(t, err)
			require.Contains(t, jws, "..")

			signerDID, err := signature.Verify(digest[:], jws, resolver)
			require.NoError(t, err)
			require.Equal(t, bearer.URI, signerDID)

			tampered := append([]byte{}, digest[:]...)
			tampered[0] ^= 0x01

			_, err = signature.Verify(tampered, jws, resolver)
			require.ErrorIs(t, err, tbdexerr.ErrInvalidSignature)
		}
	}
}

type kidlessSigner struct{}

func (kidlessSigner) Sign([]byte) ([]byte, error) { return []byte("sig"), nil }
func (kidlessSigner) Headers() jose.Headers { return jose.Headers{jose.HeaderAlgorithm: "EdDSA"} }

func TestSign_RequiresKid(t *testing.T) {
	_, err := signature.Sign([]byte("digest"), kidlessSigner{})
	require.Error(t, err)
}

func TestVerify_Failures(t *testing.T) {
	bearer, err := bearerdid.NewJWK(nil, kms.Ed25519)
	require.NoError(t, err)

	signer, err := bearer.GetSigner("")
	require.NoError(t, err)

	digest := []byte("digest")

	jws, err := signature.Sign(digest, signer)
	require.NoError(t, err)

	t.Run("missing", func(t *testing.T) {
		_, err := signature.Verify(digest, "", vdr.New())
		require.ErrorIs(t, err, tbdexerr.ErrInvalidSignature)
	})

	t.Run("garbage", func(t *testing.T) {
		_, err := signature.Verify(digest, "not-a-jws", vdr.New())
		require.ErrorIs(t, err, tbdexerr.ErrInvalidSignature)
	})

	t.Run("resolution fails", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		resolver := mockvdr.NewMockResolver(ctrl)
		resolver.EXPECT().Resolve(bearer.URI).Return(nil, errors.New("offline"))

		_, err := signature.Verify(digest, jws, resolver)
		require.ErrorIs(t, err, tbdexerr.ErrInvalidSignature)
		require.ErrorContains(t, err, "offline")
	})

	t.Run("verification method missing", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		resolver := mockvdr.NewMockResolver(ctrl)
		resolver.EXPECT().Resolve(bearer.URI).Return(&did.DocResolution{DIDDocument: &did.Doc{ID: bearer.URI}}, nil)

		_, err := signature.Verify(digest, jws, resolver)
		require.ErrorIs(t, err, tbdexerr.ErrInvalidSignature)
	})

	t.Run("key swapped in document", func(t *testing.T) {
		other, err := bearerdid.NewJWK(nil, kms.Ed25519)
		require.NoError(t, err)

		doc := *bearer.Document
		doc.VerificationMethod = []did.VerificationMethod{bearer.Document.VerificationMethod[0]}
		doc.VerificationMethod[0].PublicKeyJwk = other.Document.VerificationMethod[0].PublicKeyJwk

		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		resolver := mockvdr.NewMockResolver(ctrl)
		resolver.EXPECT().Resolve(bearer.URI).Return(&did.DocResolution{DIDDocument: &doc}, nil)

		_, err = signature.Verify(digest, jws, resolver)
		require.ErrorIs(t, err, tbdexerr.ErrInvalidSignature)
	})

	t.Run("attached payload", func(t *testing.T) {
		parts := strings.Split(jws, ".")
		attached := parts[0] + ".ZGlnZXN0." + parts[2]

		_, err := signature.Verify(digest, attached, vdr.New(vdr.WithVDR(vdrjwk.New())))
		require.ErrorIs(t, err, tbdexerr.ErrInvalidSignature)
	})
}
