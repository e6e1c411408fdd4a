/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package validation_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/TBD54566975/tbdex-go/pkg/tbdex/tbdexerr"
	"github.com/TBD54566975/tbdex-go/pkg/tbdex/validation"
)

type sample struct {
	From      string `json:"from" validate:"required,did"`
	ID        string `json:"id" validate:"required,typeid"`
	Amount    string `json:"amount" validate:"required,decimal"`
	CreatedAt string `json:"createdAt" validate:"required,timestamp"`
	Kind      string `json:"kind" validate:"oneof=rfq quote"`
}

func TestStruct(t *testing.T) {
	valid := sample{
		From:      "did:example:alice",
		ID:        "rfq_01h2e8kqvbfwea724h75qc655w",
		Amount:    "101.00",
		CreatedAt: "2024-01-02T03:04:05.678Z",
		Kind:      "rfq",
	}

	require.NoError(t, validation.Struct(valid))

	invalid := sample{
		From:      "alice",
		ID:        "rfq_nope",
		Amount:    "-1",
		CreatedAt: "yesterday",
		Kind:      "order",
	}

	err := validation.Struct(invalid)
	require.ErrorIs(t, err, tbdexerr.ErrMalformedMessage)

	var tbdexErr *tbdexerr.Error
	require.ErrorAs(t, err, &tbdexErr)
	require.Len(t, tbdexErr.Details, 5)
	require.Contains(t, tbdexErr.Details, "from: failed did")
	require.Contains(t, tbdexErr.Details, "kind: failed oneof=rfq quote")
}
