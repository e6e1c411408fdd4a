/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package vdr

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/bluele/gcache"

	"github.com/TBD54566975/tbdex-go/pkg/common/log"
	"github.com/TBD54566975/tbdex-go/pkg/doc/did"
)

var logger = log.New("tbdex/vdr")

const (
	defaultCacheSize = 1000
	defaultCacheTTL  = 15 * time.Minute
)

// Option is a vdr instance option.
type Option func(opts *Registry)

// Registry vdr registry.
type Registry struct {
	vdr      []VDR
	cache    gcache.Cache
	cacheTTL time.Duration
	size     int
}

// New return new instance of vdr.
func New(opts ...Option) *Registry {
	r := &Registry{size: defaultCacheSize, cacheTTL: defaultCacheTTL}

	for _, opt := range opts {
		opt(r)
	}

	if r.size > 0 {
		r.cache = gcache.New(r.size).LRU().Expiration(r.cacheTTL).Build()
	}

	return r
}

// WithVDR adds did method implementation for store.
func WithVDR(method VDR) Option {
	return func(opts *Registry) {
		opts.vdr = append(opts.vdr, method)
	}
}

// WithCache sets the size and time to live of the resolution cache. A size of 0 disables caching.
func WithCache(size int, ttl time.Duration) Option {
	return func(opts *Registry) {
		opts.size = size
		opts.cacheTTL = ttl
	}
}

// Resolve did document.
func (r *Registry) Resolve(didID string) (*did.DocResolution, error) {
	if r.cache != nil {
		if cached, err := r.cache.Get(didID); err == nil {
			if res, ok := cached.(*did.DocResolution); ok {
				return res, nil
			}
		}
	}

	didMethod, err := GetDidMethod(didID)
	if err != nil {
		return nil, err
	}

	method, err := r.resolveVDR(didMethod)
	if err != nil {
		return nil, err
	}

	didDocResolution, err := method.Read(didID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, err
		}

		return nil, fmt.Errorf("did method read failed: %w", err)
	}

	if didDocResolution.DIDDocument == nil || didDocResolution.DIDDocument.ID != didID {
		return nil, fmt.Errorf("resolved document does not match DID %s", didID)
	}

	if r.cache != nil {
		if err := r.cache.Set(didID, didDocResolution); err != nil {
			logger.Warnf("failed to cache DID resolution of %s: %v", didID, err)
		}
	}

	return didDocResolution, nil
}

func (r *Registry) resolveVDR(method string) (VDR, error) {
	for _, v := range r.vdr {
		if v.Accept(method) {
			return v, nil
		}
	}

	return nil, fmt.Errorf("did method %s not supported for vdr", method)
}

// GetDidMethod get did method.
func GetDidMethod(didID string) (string, error) {
	const numPartsDID = 3

	didParts := strings.SplitN(didID, ":", numPartsDID)
	if len(didParts) < numPartsDID || didParts[0] != "did" {
		return "", fmt.Errorf("wrong format did input: %s", didID)
	}

	return didParts[1], nil
}
