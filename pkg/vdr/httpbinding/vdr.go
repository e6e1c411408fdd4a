/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package httpbinding resolves DIDs through a DID resolver HTTP endpoint (universal resolver binding).
package httpbinding

import (
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/TBD54566975/tbdex-go/pkg/common/log"
)

var logger = log.New("tbdex/vdr/httpbinding")

const (
	defaultMaxRetries = 3
	defaultRetryDelay = 200 * time.Millisecond
)

// Accept is method to accept did method.
type Accept func(method string) bool

// VDR via HTTP(s) endpoint.
type VDR struct {
	endpointURL      string
	client           *http.Client
	accept           Accept
	resolveAuthToken string
	maxRetries       uint64
	retryDelay       time.Duration
}

// Option configures the http binding vdr.
type Option func(opts *VDR)

// New creates new DID Resolver.
func New(endpointURL string, opts ...Option) (*VDR, error) {
	v := &VDR{
		client:     &http.Client{},
		accept:     func(method string) bool { return true },
		maxRetries: defaultMaxRetries,
		retryDelay: defaultRetryDelay,
	}

	for _, opt := range opts {
		opt(v)
	}

	// Validate host
	_, err := url.ParseRequestURI(endpointURL)
	if err != nil {
		return nil, fmt.Errorf("base URL invalid: %w", err)
	}

	v.endpointURL = endpointURL

	return v, nil
}

// Accept did method - attempt to resolve any method the accept function allows.
func (v *VDR) Accept(method string) bool {
	return v.accept(method)
}

// WithTimeout option is for definition of HTTP(s) timeout value of DID Resolver.
func WithTimeout(timeout time.Duration) Option {
	return func(opts *VDR) {
		opts.client.Timeout = timeout
	}
}

// WithHTTPClient option is for custom http client.
func WithHTTPClient(httpClient *http.Client) Option {
	return func(opts *VDR) {
		opts.client = httpClient
	}
}

// WithAccept option is for accept did method.
func WithAccept(accept Accept) Option {
	return func(opts *VDR) {
		opts.accept = accept
	}
}

// WithResolveAuthToken add auth token for resolve.
func WithResolveAuthToken(authToken string) Option {
	return func(opts *VDR) {
		opts.resolveAuthToken = "Bearer " + authToken
	}
}

// WithRetry sets how often a failed resolution request is retried with exponential backoff.
func WithRetry(maxRetries uint64, initialDelay time.Duration) Option {
	return func(opts *VDR) {
		opts.maxRetries = maxRetries
		opts.retryDelay = initialDelay
	}
}

func (v *VDR) retryPolicy() backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = v.retryDelay

	return backoff.WithMaxRetries(b, v.maxRetries)
}

func closeResponseBody(respBody io.Closer) {
	e := respBody.Close()
	if e != nil {
		logger.Errorf("Failed to close response body: %v", e)
	}
}
