/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package badger is a persistent storage provider on a BadgerDB directory. All stores of a provider
// share one database and are separated by key prefix.
package badger

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/dgraph-io/badger/v4"

	"github.com/TBD54566975/tbdex-go/pkg/common/log"
	"github.com/TBD54566975/tbdex-go/spi/storage"
)

const (
	sep       = "\x00"
	dataSpace = "d"
	tagSpace  = "t"
	idxSpace  = "i"
)

var logger = log.New("tbdex/storage/badger")

// Provider is the BadgerDB implementation of storage.Provider.
type Provider struct {
	db     *badger.DB
	stores map[string]*badgerStore
	lock   sync.Mutex
}

// NewProvider opens, or creates, the database at dbPath. An empty dbPath keeps the database in memory.
func NewProvider(dbPath string) (*Provider, error) {
	opts := badger.DefaultOptions(dbPath).WithLogger(badgerLogger{})
	if dbPath == "" {
		opts = opts.WithInMemory(true)
	}

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open badger database: %w", err)
	}

	return &Provider{db: db, stores: make(map[string]*badgerStore)}, nil
}

// OpenStore returns the store for the name space.
func (p *Provider) OpenStore(name string) (storage.Store, error) {
	if name == "" {
		return nil, errors.New("store name cannot be empty")
	}

	name = strings.ToLower(name)

	p.lock.Lock()
	defer p.lock.Unlock()

	store, ok := p.stores[name]
	if !ok {
		store = &badgerStore{db: p.db, name: name}
		p.stores[name] = store
	}

	return store, nil
}

// Close closes the underlying database.
func (p *Provider) Close() error {
	p.lock.Lock()
	defer p.lock.Unlock()

	p.stores = make(map[string]*badgerStore)

	return p.db.Close()
}

type badgerStore struct {
	db   *badger.DB
	name string
}

func (s *badgerStore) key(space string, parts ...string) []byte {
	return []byte(s.name + sep + space + sep + strings.Join(parts, sep))
}

// Put stores the key and the record, replacing its tags.
func (s *badgerStore) Put(k string, v []byte, tags ...storage.Tag) error {
	if k == "" || v == nil {
		return errors.New("key and value are mandatory")
	}

	return s.db.Update(func(txn *badger.Txn) error {
		return s.put(txn, k, v, tags)
	})
}

func (s *badgerStore) put(txn *badger.Txn, k string, v []byte, tags []storage.Tag) error {
	err := s.delete(txn, k)
	if err != nil {
		return err
	}

	tagBytes, err := json.Marshal(tags)
	if err != nil {
		return fmt.Errorf("marshal tags: %w", err)
	}

	err = txn.Set(s.key(dataSpace, k), v)
	if err != nil {
		return err
	}

	err = txn.Set(s.key(tagSpace, k), tagBytes)
	if err != nil {
		return err
	}

	for _, t := range tags {
		err = txn.Set(s.key(idxSpace, t.Name, t.Value, k), []byte{})
		if err != nil {
			return err
		}
	}

	return nil
}

// Get fetches the record based on key.
func (s *badgerStore) Get(k string) ([]byte, error) {
	if k == "" {
		return nil, errors.New("key is mandatory")
	}

	var value []byte

	err := s.db.View(func(txn *badger.Txn) error {
		var err error

		value, err = s.get(txn, s.key(dataSpace, k))

		return err
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", k, err)
	}

	return value, nil
}

func (s *badgerStore) GetTags(k string) ([]storage.Tag, error) {
	if k == "" {
		return nil, errors.New("key is mandatory")
	}

	var tags []storage.Tag

	err := s.db.View(func(txn *badger.Txn) error {
		var err error

		tags, err = s.tags(txn, k)

		return err
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", k, err)
	}

	return tags, nil
}

func (s *badgerStore) tags(txn *badger.Txn, k string) ([]storage.Tag, error) {
	raw, err := s.get(txn, s.key(tagSpace, k))
	if err != nil {
		return nil, err
	}

	var tags []storage.Tag

	err = json.Unmarshal(raw, &tags)
	if err != nil {
		return nil, fmt.Errorf("unmarshal tags: %w", err)
	}

	return tags, nil
}

func (s *badgerStore) get(txn *badger.Txn, key []byte) ([]byte, error) {
	item, err := txn.Get(key)
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, storage.ErrDataNotFound
	}

	if err != nil {
		return nil, err
	}

	return item.ValueCopy(nil)
}

// Query collects the entries carrying the tag in one read transaction, sorted by key.
func (s *badgerStore) Query(expression string) (storage.Iterator, error) {
	tag, err := storage.ParseQuery(expression)
	if err != nil {
		return nil, err
	}

	prefix := s.key(idxSpace, tag.Name)
	prefix = append(prefix, sep...)

	if tag.Value != "" {
		prefix = append(prefix, tag.Value+sep...)
	}

	it := &iterator{pos: -1}

	err = s.db.View(func(txn *badger.Txn) error {
		keys := indexedKeys(txn, prefix, tag.Value == "")

		for _, k := range keys {
			value, err := s.get(txn, s.key(dataSpace, k))
			if err != nil {
				return fmt.Errorf("%s: %w", k, err)
			}

			it.keys = append(it.keys, k)
			it.values = append(it.values, value)
		}

		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", expression, err)
	}

	return it, nil
}

// indexedKeys lists the data keys under an index prefix. Without a tag value in the prefix each
// index key still carries the value before the data key.
func indexedKeys(txn *badger.Txn, prefix []byte, withValue bool) []string {
	opts := badger.DefaultIteratorOptions
	opts.PrefetchValues = false
	opts.Prefix = prefix

	bi := txn.NewIterator(opts)
	defer bi.Close()

	seen := make(map[string]struct{})

	var keys []string

	for bi.Rewind(); bi.Valid(); bi.Next() {
		k := string(bi.Item().Key()[len(prefix):])

		if withValue {
			_, k, _ = strings.Cut(k, sep)
		}

		if _, ok := seen[k]; ok {
			continue
		}

		seen[k] = struct{}{}
		keys = append(keys, k)
	}

	sort.Strings(keys)

	return keys
}

// Delete removes the record of key with its tags. Deleting a missing key is not an error.
func (s *badgerStore) Delete(k string) error {
	if k == "" {
		return errors.New("key is mandatory")
	}

	return s.db.Update(func(txn *badger.Txn) error {
		return s.delete(txn, k)
	})
}

func (s *badgerStore) delete(txn *badger.Txn, k string) error {
	tags, err := s.tags(txn, k)
	if errors.Is(err, storage.ErrDataNotFound) {
		return nil
	}

	if err != nil {
		return err
	}

	for _, t := range tags {
		err = txn.Delete(s.key(idxSpace, t.Name, t.Value, k))
		if err != nil {
			return err
		}
	}

	err = txn.Delete(s.key(tagSpace, k))
	if err != nil {
		return err
	}

	return txn.Delete(s.key(dataSpace, k))
}

// Batch runs all operations in one transaction.
func (s *badgerStore) Batch(operations []storage.Operation) error {
	if len(operations) == 0 {
		return errors.New("batch requires at least one operation")
	}

	return s.db.Update(func(txn *badger.Txn) error {
		for _, op := range operations {
			if op.Key == "" {
				return errors.New("key is mandatory")
			}

			if op.Value == nil {
				err := s.delete(txn, op.Key)
				if err != nil {
					return err
				}

				continue
			}

			if op.PutOptions != nil && op.PutOptions.IsNewKey {
				_, err := txn.Get(s.key(dataSpace, op.Key))
				if err == nil {
					return fmt.Errorf("%s: %w", op.Key, storage.ErrDuplicateKey)
				}

				if !errors.Is(err, badger.ErrKeyNotFound) {
					return err
				}
			}

			err := s.put(txn, op.Key, op.Value, op.Tags)
			if err != nil {
				return err
			}
		}

		return nil
	})
}

// Close is a no-op; the provider owns the database.
func (s *badgerStore) Close() error {
	return nil
}

type iterator struct {
	keys   []string
	values [][]byte
	pos    int
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

// badgerLogger routes badger's own logging to the module logger.
type badgerLogger struct{}

func (badgerLogger) Errorf(msg string, args ...interface{}) {
	logger.Errorf(strings.TrimSuffix(msg, "\n"), args...)
}

func (badgerLogger) Warningf(msg string, args ...interface{}) {
	logger.Warnf(strings.TrimSuffix(msg, "\n"), args...)
}

func (badgerLogger) Infof(msg string, args ...interface{}) {
	logger.Debugf(strings.TrimSuffix(msg, "\n"), args...)
}

func (badgerLogger) Debugf(msg string, args ...interface{}) {
	logger.Debugf(strings.TrimSuffix(msg, "\n"), args...)
}
