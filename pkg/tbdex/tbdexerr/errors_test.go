/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package tbdexerr

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestError(t *testing.T) {
	cause := errors.New("boom")
	err := Wrap(InvalidSignature, cause, "verify %s", "rfq_01")

	require.EqualError(t, err, "InvalidSignature: verify rfq_01: boom")
	require.ErrorIs(t, err, ErrInvalidSignature)
	require.ErrorIs(t, err, cause)
	require.NotErrorIs(t, err, ErrHashMismatch)

	wrapped := fmt.Errorf("accept message: %w", err)
	require.ErrorIs(t, wrapped, ErrInvalidSignature)

	code, ok := CodeOf(wrapped)
	require.True(t, ok)
	require.Equal(t, InvalidSignature, code)

	_, ok = CodeOf(cause)
	require.False(t, ok)

	require.EqualError(t, New(MalformedMessage, ""), "MalformedMessage")
}

func TestWithDetails(t *testing.T) {
	base := New(OfferingRequirementsNotMet, "payin")
	detailed := base.WithDetails("kind not offered", "amount too low")

	require.Empty(t, base.Details)
	require.Equal(t, []string{"kind not offered", "amount too low"}, detailed.Details)
	require.ErrorIs(t, detailed, ErrOfferingRequirementsNotMet)
}
