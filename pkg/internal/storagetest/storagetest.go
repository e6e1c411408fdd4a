/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package storagetest runs the same behavioural checks against every storage provider.
package storagetest

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/TBD54566975/tbdex-go/spi/storage"
)

// TestAll runs every check against provider.
func TestAll(t *testing.T, provider storage.Provider) {
	t.Helper()

	t.Run("put get delete", func(t *testing.T) { TestPutGetDelete(t, provider) })
	t.Run("stores are separate", func(t *testing.T) { TestStoresAreSeparate(t, provider) })
	t.Run("query", func(t *testing.T) { TestQuery(t, provider) })
	t.Run("batch", func(t *testing.T) { TestBatch(t, provider) })
}

// TestPutGetDelete checks single key operations.
func TestPutGetDelete(t *testing.T, provider storage.Provider) {
	store, err := provider.OpenStore("basic")
	require.NoError(t, err)

	_, err = provider.OpenStore("")
	require.Error(t, err)

	require.Error(t, store.Put("", []byte("v")))
	require.Error(t, store.Put("k", nil))

	_, err = store.Get("missing")
	require.ErrorIs(t, err, storage.ErrDataNotFound)

	require.NoError(t, store.Put("k", []byte("v1"), storage.Tag{Name: "customer", Value: "did:example:alice"}))
	require.NoError(t, store.Put("k", []byte("v2"), storage.Tag{Name: "customer", Value: "did:example:bob"}))

	value, err := store.Get("k")
	require.NoError(t, err)
	require.Equal(t, []byte("v2"), value)

	tags, err := store.GetTags("k")
	require.NoError(t, err)
	require.Equal(t, []storage.Tag{{Name: "customer", Value: "did:example:bob"}}, tags)

	require.NoError(t, store.Delete("k"))
	require.NoError(t, store.Delete("k"))

	_, err = store.Get("k")
	require.ErrorIs(t, err, storage.ErrDataNotFound)

	_, err = store.GetTags("k")
	require.ErrorIs(t, err, storage.ErrDataNotFound)

	again, err := provider.OpenStore("BASIC")
	require.NoError(t, err)
	require.NoError(t, store.Put("shared", []byte("x")))

	value, err = again.Get("shared")
	require.NoError(t, err)
	require.Equal(t, []byte("x"), value)
}

// TestStoresAreSeparate checks that stores do not see each other's keys.
func TestStoresAreSeparate(t *testing.T, provider storage.Provider) {
	a, err := provider.OpenStore("a")
	require.NoError(t, err)

	b, err := provider.OpenStore("b")
	require.NoError(t, err)

	require.NoError(t, a.Put("k", []byte("a"), storage.Tag{Name: "t"}))

	_, err = b.Get("k")
	require.ErrorIs(t, err, storage.ErrDataNotFound)

	it, err := b.Query("t")
	require.NoError(t, err)

	ok, err := it.Next()
	require.NoError(t, err)
	require.False(t, ok)
	require.NoError(t, it.Close())
}

// TestQuery checks tag queries with and without a value, including values holding ':'.
func TestQuery(t *testing.T, provider storage.Provider) {
	store, err := provider.OpenStore("query")
	require.NoError(t, err)

	_, err = store.Query("")
	require.Error(t, err)

	alice := storage.Tag{Name: "customer", Value: "did:example:alice"}
	bob := storage.Tag{Name: "customer", Value: "did:example:bob"}

	require.NoError(t, store.Put("rfq_3", []byte("3"), alice))
	require.NoError(t, store.Put("rfq_1", []byte("1"), alice))
	require.NoError(t, store.Put("rfq_2", []byte("2"), bob))
	require.NoError(t, store.Put("other", []byte("x"), storage.Tag{Name: "kind", Value: "offering"}))

	require.Equal(t, []string{"rfq_1", "rfq_3"}, collect(t, store, "customer:did:example:alice"))
	require.Equal(t, []string{"rfq_1", "rfq_2", "rfq_3"}, collect(t, store, "customer"))
	require.Empty(t, collect(t, store, "customer:did:example:carol"))

	require.NoError(t, store.Put("rfq_1", []byte("1"), bob))
	require.Equal(t, []string{"rfq_3"}, collect(t, store, "customer:did:example:alice"))

	it, err := store.Query("kind:offering")
	require.NoError(t, err)

	ok, err := it.Next()
	require.NoError(t, err)
	require.True(t, ok)

	value, err := it.Value()
	require.NoError(t, err)
	require.Equal(t, []byte("x"), value)

	ok, err = it.Next()
	require.NoError(t, err)
	require.False(t, ok)

	_, err = it.Key()
	require.Error(t, err)

	storage.Close(it, nil)
}

// TestBatch checks that batches apply in order and all or nothing.
func TestBatch(t *testing.T, provider storage.Provider) {
	store, err := provider.OpenStore("batch")
	require.NoError(t, err)

	require.Error(t, store.Batch(nil))

	require.NoError(t, store.Put("gone", []byte("x"), storage.Tag{Name: "t"}))

	require.NoError(t, store.Batch([]storage.Operation{
		{Key: "a", Value: []byte("1"), Tags: []storage.Tag{{Name: "t"}}},
		{Key: "gone"},
		{Key: "b", Value: []byte("2"), PutOptions: &storage.PutOptions{IsNewKey: true}},
	}))

	require.Equal(t, []string{"a"}, collect(t, store, "t"))

	_, err = store.Get("gone")
	require.ErrorIs(t, err, storage.ErrDataNotFound)

	err = store.Batch([]storage.Operation{
		{Key: "c", Value: []byte("3")},
		{Key: "b", Value: []byte("again"), PutOptions: &storage.PutOptions{IsNewKey: true}},
	})
	require.ErrorIs(t, err, storage.ErrDuplicateKey)

	_, err = store.Get("c")
	require.ErrorIs(t, err, storage.ErrDataNotFound)

	value, err := store.Get("b")
	require.NoError(t, err)
	require.Equal(t, []byte("2"), value)
}

func collect(t *testing.T, store storage.Store, expression string) []string {
	t.Helper()

	it, err := store.Query(expression)
	require.NoError(t, err)

	defer storage.Close(it, nil)

	var keys []string

	for {
		ok, err := it.Next()
		require.NoError(t, err)

		if !ok {
			return keys
		}

		k, err := it.Key()
		require.NoError(t, err)

		keys = append(keys, k)
	}
}
