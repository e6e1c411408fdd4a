/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package mem is an in-memory storage provider. Data lives as long as the provider.
package mem

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/TBD54566975/tbdex-go/spi/storage"
)

// Provider is the in-memory implementation of storage.Provider.
type Provider struct {
	dbs  map[string]*memStore
	lock sync.RWMutex
}

// NewProvider instantiates Provider.
func NewProvider() *Provider {
	return &Provider{dbs: make(map[string]*memStore)}
}

// OpenStore opens and returns a store for given name space.
func (p *Provider) OpenStore(name string) (storage.Store, error) {
	if name == "" {
		return nil, errors.New("store name cannot be empty")
	}

	name = strings.ToLower(name)

	p.lock.Lock()
	defer p.lock.Unlock()

	store, ok := p.dbs[name]
	if !ok {
		store = &memStore{db: make(map[string]entry)}
		p.dbs[name] = store
	}

	return store, nil
}

// Close closes all stores created under this store provider.
func (p *Provider) Close() error {
	p.lock.Lock()
	defer p.lock.Unlock()

	p.dbs = make(map[string]*memStore)

	return nil
}

type entry struct {
	value []byte
	tags  []storage.Tag
}

type memStore struct {
	db map[string]entry
	sync.RWMutex
}

// Put stores the key and the record.
func (s *memStore) Put(k string, v []byte, tags ...storage.Tag) error {
	if k == "" || v == nil {
		return errors.New("key and value are mandatory")
	}

	s.Lock()
	s.db[k] = entry{value: copyBytes(v), tags: append([]storage.Tag(nil), tags...)}
	s.Unlock()

	return nil
}

// Get fetches the record based on key.
func (s *memStore) Get(k string) ([]byte, error) {
	e, err := s.get(k)
	if err != nil {
		return nil, err
	}

	return copyBytes(e.value), nil
}

func (s *memStore) GetTags(k string) ([]storage.Tag, error) {
	e, err := s.get(k)
	if err != nil {
		return nil, err
	}

	return append([]storage.Tag(nil), e.tags...), nil
}

func (s *memStore) get(k string) (entry, error) {
	if k == "" {
		return entry{}, errors.New("key is mandatory")
	}

	s.RLock()
	e, ok := s.db[k]
	s.RUnlock()

	if !ok {
		return entry{}, fmt.Errorf("%s: %w", k, storage.ErrDataNotFound)
	}

	return e, nil
}

// Query returns a snapshot of the entries carrying the tag, sorted by key.
func (s *memStore) Query(expression string) (storage.Iterator, error) {
	tag, err := storage.ParseQuery(expression)
	if err != nil {
		return nil, err
	}

	s.RLock()
	defer s.RUnlock()

	it := &iterator{pos: -1}

	for k, e := range s.db {
		if hasTag(e.tags, tag) {
			it.keys = append(it.keys, k)
			it.values = append(it.values, copyBytes(e.value))
		}
	}

	sort.Sort(it)

	return it, nil
}

// Delete removes the record of key. Deleting a missing key is not an error.
func (s *memStore) Delete(k string) error {
	if k == "" {
		return errors.New("key is mandatory")
	}

	s.Lock()
	delete(s.db, k)
	s.Unlock()

	return nil
}

// Batch applies all operations or none of them.
func (s *memStore) Batch(operations []storage.Operation) error {
	if len(operations) == 0 {
		return errors.New("batch requires at least one operation")
	}

	s.Lock()
	defer s.Unlock()

	for _, op := range operations {
		if op.Key == "" {
			return errors.New("key is mandatory")
		}

		if op.Value != nil && op.PutOptions != nil && op.PutOptions.IsNewKey {
			if _, ok := s.db[op.Key]; ok {
				return fmt.Errorf("%s: %w", op.Key, storage.ErrDuplicateKey)
			}
		}
	}

	for _, op := range operations {
		if op.Value == nil {
			delete(s.db, op.Key)

			continue
		}

		s.db[op.Key] = entry{value: copyBytes(op.Value), tags: append([]storage.Tag(nil), op.Tags...)}
	}

	return nil
}

func (s *memStore) Close() error {
	return nil
}

func hasTag(tags []storage.Tag, query storage.Tag) bool {
	for _, t := range tags {
		if t.Name == query.Name && (query.Value == "" || t.Value == query.Value) {
			return true
		}
	}

	return false
}

func copyBytes(b []byte) []byte {
	return append([]byte(nil), b...)
}

type iterator struct {
	keys   []string
	values [][]byte
	pos    int
}

func (it *iterator) Len() int           { return len(it.keys) }
func (it *iterator) Less(i, j int) bool { return it.keys[i] < it.keys[j] }

func (it *iterator) Swap(i, j int) {
	it.keys[i], it.keys[j] = it.keys[j], it.keys[i]
	it.values[i], it.values[j] = it.values[j], it.values[i]
}

func (it *iterator) Next() (bool, error) {
	it.pos++

	return it.pos < len(it.keys), nil
}

func (it *iterator) Key() (string, error) {
	if it.pos < 0 || it.pos >= len(it.keys) {
		return "", errors.New("iterator is exhausted")
	}

	return it.keys[it.pos], nil
}

func (it *iterator) Value() ([]byte, error) {
	if it.pos < 0 || it.pos >= len(it.values) {
		return nil, errors.New("iterator is exhausted")
	}

	return it.values[it.pos], nil
}

func (it *iterator) Close() error {
	return nil
}
