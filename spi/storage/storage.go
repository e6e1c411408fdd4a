/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package storage defines the key-value storage contract exchanges and resources persist through.
package storage

import (
	"errors"
	"fmt"
	standardlog "log"
	"strings"

	spi "github.com/TBD54566975/tbdex-go/spi/log"
)

var (
	// ErrDataNotFound is returned when data is not found.
	ErrDataNotFound = errors.New("data not found")
	// ErrDuplicateKey is returned when an operation with PutOptions.IsNewKey uses a key that already exists.
	ErrDuplicateKey = errors.New("duplicate key")
)

// Tag represents a Name + Value pair that can be associated with a key + value pair for querying later.
type Tag struct {
	// Name groups entries, for example "customer". Tag names cannot contain ':' characters.
	Name string `json:"name,omitempty"`
	// Value is optional metadata for the tag name, for example a DID. Values may contain ':'.
	Value string `json:"value,omitempty"`
}

// PutOptions represents options for a Put Operation.
type PutOptions struct {
	// IsNewKey makes the operation fail with ErrDuplicateKey if the key already exists.
	IsNewKey bool `json:"isNewKey,omitempty"`
}

// Operation represents an operation to be performed in the Batch method.
type Operation struct {
	Key        string      `json:"key,omitempty"`
	Value      []byte      `json:"value,omitempty"`      // A nil value will result in a delete operation.
	Tags       []Tag       `json:"tags,omitempty"`       // Optional.
	PutOptions *PutOptions `json:"putOptions,omitempty"` // Optional. Only used for Put Operations.
}

// Provider represents a storage provider.
type Provider interface {
	// OpenStore opens a Store with the given name and returns it. Opening the same name twice returns
	// the same store. Store names are not case-sensitive. If name is blank, then an error will be returned.
	OpenStore(name string) (Store, error)

	// Close closes all open Stores in this Provider.
	// For persistent Store implementations, this does not delete any data in the underlying databases.
	Close() error
}

// Store represents a storage database.
type Store interface {
	// Put stores the key + value pair along with the (optional) tags. If the key already exists in the database,
	// then the value and tags will be overwritten silently.
	// If key is empty or value is nil, then an error will be returned.
	Put(key string, value []byte, tags ...Tag) error

	// Get fetches the value associated with the given key.
	// If key cannot be found, then an error wrapping ErrDataNotFound will be returned.
	Get(key string) ([]byte, error)

	// GetTags fetches all tags associated with the given key.
	// If key cannot be found, then an error wrapping ErrDataNotFound will be returned.
	GetTags(key string) ([]Tag, error)

	// Query returns all data tagged with TagName, or with TagName:TagValue, in key order.
	Query(expression string) (Iterator, error)

	// Delete deletes the key + value pair (and all tags) associated with key.
	Delete(key string) error

	// Batch performs multiple Put and/or Delete operations atomically and in order.
	Batch(operations []Operation) error

	// Close closes this store object. Close can be called repeatedly without causing an error.
	Close() error
}

// Iterator allows for iteration over a collection of entries in a store.
type Iterator interface {
	// Next moves the pointer to the next entry in the iterator.
	// Note that it must be called before accessing the first entry.
	// It returns false if the iterator is exhausted - this is not considered an error.
	Next() (bool, error)

	// Key returns the key of the current entry.
	Key() (string, error)

	// Value returns the value of the current entry.
	Value() ([]byte, error)

	// Close closes this iterator object, freeing resources.
	Close() error
}

// ParseQuery splits a query expression into its tag name and optional value.
func ParseQuery(expression string) (Tag, error) {
	if expression == "" {
		return Tag{}, errors.New("invalid expression format: it must be in the following format: TagName:TagValue")
	}

	name, value, _ := strings.Cut(expression, ":")

	return Tag{Name: name, Value: value}, nil
}

// Close closes iterator and logs any error that occurs.
// Is logger is nil, then the standard Go logger will be used.
func Close(iterator Iterator, logger spi.Logger) {
	errClose := iterator.Close()
	if errClose != nil {
		if logger == nil {
			standardlog.Println(fmt.Sprintf("failed to close iterator: %s", errClose.Error()))
		} else {
			logger.Errorf("failed to close iterator: %s", errClose.Error())
		}
	}
}
