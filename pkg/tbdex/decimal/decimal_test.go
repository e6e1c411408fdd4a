/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package decimal_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/TBD54566975/tbdex-go/pkg/tbdex/decimal"
)

func TestCompare(t *testing.T) {
	c, err := decimal.Compare("1001.00", "1001")
	require.NoError(t, err)
	require.Equal(t, 0, c)

	c, err = decimal.Compare("0.1", "0.09999")
	require.NoError(t, err)
	require.Equal(t, 1, c)

	_, err = decimal.Compare("1e3", "1")
	require.Error(t, err)

	_, err = decimal.Compare("1", "-1")
	require.Error(t, err)
}

func TestInRange(t *testing.T) {
	tests := []struct {
		amount, min, max string
		want             bool
	}{
		{"101", "", "", true},
		{"101", "100", "", true},
		{"99.99", "100", "", false},
		{"101", "", "100.50", false},
		{"100.50", "0.0", "100.50", true},
	}

	for _, tc := range tests {
		ok, err := decimal.InRange(tc.amount, tc.min, tc.max)
		require.NoError(t, err)
		require.Equal(t, tc.want, ok, "%s in [%s, %s]", tc.amount, tc.min, tc.max)
	}

	_, err := decimal.InRange("abc", "1", "")
	require.Error(t, err)
}

func TestValid(t *testing.T) {
	require.True(t, decimal.Valid("0"))
	require.True(t, decimal.Valid("12.345"))
	require.False(t, decimal.Valid(""))
	require.False(t, decimal.Valid(".5"))
	require.False(t, decimal.Valid("5."))
}
