/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package typeid

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func TestEncodeDecode(t *testing.T) {
	id := uuid.MustParse("01889c89-df6b-7f1c-a388-91396ec314bc")

	require.Equal(t, "01h2e8kqvbfwea724h75qc655w", encode(id))

	decoded, err := decode("01h2e8kqvbfwea724h75qc655w")
	require.NoError(t, err)
	require.Equal(t, id, decoded)

	require.Equal(t, "00000000000000000000000000", encode(uuid.Nil))
	var maxID uuid.UUID
	for i := range maxID {
		maxID[i] = 0xff
	}

	require.Equal(t, "7zzzzzzzzzzzzzzzzzzzzzzzzz", encode(maxID))
}

func TestNewParse(t *testing.T) {
	id, err := New("rfq")
	require.NoError(t, err)
	require.Len(t, id, len("rfq_")+suffixLen)

	prefix, u, err := Parse(id)
	require.NoError(t, err)
	require.Equal(t, "rfq", prefix)
	require.Equal(t, uuid.Version(7), u.Version())

	require.True(t, HasPrefix(id, "rfq"))
	require.False(t, HasPrefix(id, "quote"))

	other, err := New("rfq")
	require.NoError(t, err)
	require.NotEqual(t, id, other)
}

func TestParseErrors(t *testing.T) {
	for _, bad := range []string{
		"",
		"01h2e8kqvbfwea724h75qc655w",
		"_01h2e8kqvbfwea724h75qc655w",
		"RFQ_01h2e8kqvbfwea724h75qc655w",
		"rfq_01h2e8kqvbfwea724h75qc655",
		"rfq_81h2e8kqvbfwea724h75qc655w",
		"rfq_01h2e8kqvbfwea724h75qc65uw",
	} {
		_, _, err := Parse(bad)
		require.ErrorIs(t, err, ErrInvalid, bad)
	}

	_, err := New("Bad Prefix")
	require.ErrorIs(t, err, ErrInvalid)
}
