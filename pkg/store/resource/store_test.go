/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package resource_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/TBD54566975/tbdex-go/pkg/internal/tbdextest"
	"github.com/TBD54566975/tbdex-go/pkg/storage/mem"
	resourcestore "github.com/TBD54566975/tbdex-go/pkg/store/resource"
	"github.com/TBD54566975/tbdex-go/pkg/tbdex/resource"
	"github.com/TBD54566975/tbdex-go/pkg/tbdex/tbdexerr"
)

func TestStore(t *testing.T) {
	p := tbdextest.NewParties(t)

	store, err := resourcestore.New(mem.NewProvider())
	require.NoError(t, err)

	offerings, err := store.Offerings()
	require.NoError(t, err)
	require.Empty(t, offerings)

	_, err = store.Offering("offering_01h2e8kqvbfwea724h75qc655w")
	require.ErrorIs(t, err, tbdexerr.ErrNotFound)

	first := p.Offering(t, true)
	second := p.Offering(t, false)

	require.NoError(t, store.PutOffering(first))
	require.NoError(t, store.PutOffering(second))

	got, err := store.Offering(first.Metadata.ID)
	require.NoError(t, err)
	require.Equal(t, first, got)
	require.NoError(t, got.Verify(tbdextest.Resolver()))

	offerings, err = store.Offerings()
	require.NoError(t, err)
	require.Len(t, offerings, 2)

	balance, err := resource.CreateBalance(p.PFI.URI, resource.BalanceData{CurrencyCode: "USD", Available: "100.00"})
	require.NoError(t, err)
	require.NoError(t, balance.Sign(p.PFI))
	require.NoError(t, store.PutBalance(p.Customer.URI, balance))

	balances, err := store.Balances(p.Customer.URI)
	require.NoError(t, err)
	require.Equal(t, []*resource.Balance{balance}, balances)

	balances, err = store.Balances(p.Issuer.URI)
	require.NoError(t, err)
	require.Empty(t, balances)

	offerings, err = store.Offerings()
	require.NoError(t, err)
	require.Len(t, offerings, 2)
}
