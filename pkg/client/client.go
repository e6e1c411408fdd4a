/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package client talks to PFIs on behalf of a wallet. The endpoint of a PFI is the PFI service of
// its DID document; everything returned by a PFI is verified before it is handed out.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/TBD54566975/tbdex-go/pkg/bearerdid"
	"github.com/TBD54566975/tbdex-go/pkg/common/log"
	"github.com/TBD54566975/tbdex-go/pkg/delivery"
	"github.com/TBD54566975/tbdex-go/pkg/tbdex/message"
	"github.com/TBD54566975/tbdex-go/pkg/tbdex/requesttoken"
	"github.com/TBD54566975/tbdex-go/pkg/tbdex/resource"
	"github.com/TBD54566975/tbdex-go/pkg/vdr"
)

// ServiceType is the DID service type carrying the endpoint of a PFI.
const ServiceType = "PFI"

const (
	defaultMaxRetries      = 3
	defaultInitialInterval = 200 * time.Millisecond
	defaultTimeout         = 10 * time.Second
	contentType            = "application/json"
)

var logger = log.New("tbdex/client")

// ErrNoEndpoint is returned when the DID document of a PFI has no PFI service.
var ErrNoEndpoint = errors.New("DID has no PFI service endpoint")

// ResponseError is a failed request. Message and Details come from the error body of the PFI.
type ResponseError struct {
	StatusCode int
	Message    string
	Details    []string
}

func (e *ResponseError) Error() string {
	msg := fmt.Sprintf("pfi responded %d", e.StatusCode)
	if e.Message != "" {
		msg += ": " + e.Message
	}

	if len(e.Details) > 0 {
		msg += " (" + strings.Join(e.Details, "; ") + ")"
	}

	return msg
}

// Client calls PFI REST APIs.
type Client struct {
	resolver        vdr.Resolver
	httpClient      *http.Client
	maxRetries      uint64
	initialInterval time.Duration
}

// Option configures the Client.
type Option func(c *Client)

// WithHTTPClient sets the client requests go through.
func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// WithRetry sets how often, and starting from which interval, failed requests are retried.
func WithRetry(maxRetries uint64, initialInterval time.Duration) Option {
	return func(c *Client) {
		c.maxRetries = maxRetries
		c.initialInterval = initialInterval
	}
}

// New creates a Client resolving PFI DIDs through resolver.
func New(resolver vdr.Resolver, opts ...Option) *Client {
	c := &Client{
		resolver:        resolver,
		httpClient:      &http.Client{Timeout: defaultTimeout},
		maxRetries:      defaultMaxRetries,
		initialInterval: defaultInitialInterval,
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// Endpoint returns the REST endpoint of the PFI.
func (c *Client) Endpoint(pfiDID string) (string, error) {
	resolution, err := c.resolver.Resolve(pfiDID)
	if err != nil {
		return "", fmt.Errorf("resolve %s: %w", pfiDID, err)
	}

	if resolution.DIDDocument == nil {
		return "", fmt.Errorf("%s: %w", pfiDID, ErrNoEndpoint)
	}

	endpoint, ok := resolution.DIDDocument.ServiceEndpoint(ServiceType)
	if !ok {
		return "", fmt.Errorf("%s: %w", pfiDID, ErrNoEndpoint)
	}

	return strings.TrimSuffix(endpoint, "/"), nil
}

type dataBody struct {
	Data []json.RawMessage `json:"data"`
}

// GetOfferings returns the offerings of the PFI. Each offering is checked to be signed by the PFI.
func (c *Client) GetOfferings(ctx context.Context, pfiDID string) ([]*resource.Offering, error) {
	var body dataBody

	err := c.do(ctx, pfiDID, http.MethodGet, "/offerings", "", nil, &body)
	if err != nil {
		return nil, err
	}

	offerings := make([]*resource.Offering, 0, len(body.Data))

	for _, raw := range body.Data {
		offering, err := resource.ParseOffering(raw)
		if err != nil {
			return nil, err
		}

		err = c.verifyResource(pfiDID, offering)
		if err != nil {
			return nil, err
		}

		offerings = append(offerings, offering)
	}

	return offerings, nil
}

// GetBalances returns the balances requester holds with the PFI.
func (c *Client) GetBalances(ctx context.Context, pfiDID string, requester *bearerdid.BearerDID) ([]*resource.Balance, error) {
	token, err := requesttoken.Create(requester, pfiDID)
	if err != nil {
		return nil, err
	}

	var body dataBody

	err = c.do(ctx, pfiDID, http.MethodGet, "/balances", token, nil, &body)
	if err != nil {
		return nil, err
	}

	balances := make([]*resource.Balance, 0, len(body.Data))

	for _, raw := range body.Data {
		balance, err := resource.ParseBalance(raw)
		if err != nil {
			return nil, err
		}

		err = c.verifyResource(pfiDID, balance)
		if err != nil {
			return nil, err
		}

		balances = append(balances, balance)
	}

	return balances, nil
}

// CreateExchange sends a signed rfq to the PFI it is addressed to. Messages of the PFI are POSTed
// to replyTo when it is set.
func (c *Client) CreateExchange(ctx context.Context, rfq *message.RFQ, replyTo string) error {
	if rfq.Signature == "" {
		return errors.New("create exchange: rfq is not signed")
	}

	body := map[string]interface{}{"message": rfq}
	if replyTo != "" {
		body["replyTo"] = replyTo
	}

	return c.do(ctx, rfq.Metadata.To, http.MethodPost, "/exchanges", "", body, nil)
}

// Submit sends a signed order or cancel for its exchange.
func (c *Client) Submit(ctx context.Context, msg message.Message) error {
	md := msg.GetMetadata()

	if md.Kind != message.KindOrder && md.Kind != message.KindCancel {
		return fmt.Errorf("submit: %s cannot be submitted by a customer", md.Kind)
	}

	if msg.GetSignature() == "" {
		return fmt.Errorf("submit: %s is not signed", md.Kind)
	}

	return c.do(ctx, md.To, http.MethodPut, "/exchanges/"+url.PathEscape(md.ExchangeID), "",
		map[string]interface{}{"message": msg}, nil)
}

// GetExchange returns the messages of an exchange of requester. Each message is checked to be signed
// by its sender.
func (c *Client) GetExchange(ctx context.Context, pfiDID, id string, requester *bearerdid.BearerDID) ([]message.Message, error) {
	token, err := requesttoken.Create(requester, pfiDID)
	if err != nil {
		return nil, err
	}

	var body dataBody

	err = c.do(ctx, pfiDID, http.MethodGet, "/exchanges/"+url.PathEscape(id), token, nil, &body)
	if err != nil {
		return nil, err
	}

	msgs := make([]message.Message, 0, len(body.Data))

	for _, raw := range body.Data {
		msg, err := message.Parse(raw)
		if err != nil {
			return nil, err
		}

		err = msg.Verify(c.resolver)
		if err != nil {
			return nil, err
		}

		msgs = append(msgs, msg)
	}

	return msgs, nil
}

// ListExchanges returns the ids of the exchanges requester has with the PFI.
func (c *Client) ListExchanges(ctx context.Context, pfiDID string, requester *bearerdid.BearerDID) ([]string, error) {
	token, err := requesttoken.Create(requester, pfiDID)
	if err != nil {
		return nil, err
	}

	var body struct {
		Data []string `json:"data"`
	}

	err = c.do(ctx, pfiDID, http.MethodGet, "/exchanges", token, nil, &body)
	if err != nil {
		return nil, err
	}

	return body.Data, nil
}

// Fetcher polls exchanges requester has with the PFI.
func (c *Client) Fetcher(pfiDID string, requester *bearerdid.BearerDID) delivery.Fetcher {
	return &fetcher{client: c, pfiDID: pfiDID, requester: requester}
}

type fetcher struct {
	client    *Client
	pfiDID    string
	requester *bearerdid.BearerDID
}

func (f *fetcher) GetExchange(ctx context.Context, exchangeID string) ([]message.Message, error) {
	return f.client.GetExchange(ctx, f.pfiDID, exchangeID, f.requester)
}

func (c *Client) verifyResource(pfiDID string, r resource.Resource) error {
	if r.GetMetadata().From != pfiDID {
		return fmt.Errorf("%s %s is published by %s, not by %s", r.GetMetadata().Kind, r.GetMetadata().ID,
			r.GetMetadata().From, pfiDID)
	}

	return r.Verify(c.resolver)
}

func (c *Client) do(ctx context.Context, pfiDID, method, path, token string, in, out interface{}) error {
	endpoint, err := c.Endpoint(pfiDID)
	if err != nil {
		return err
	}

	var payload []byte

	if in != nil {
		payload, err = json.Marshal(in)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
	}

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = c.initialInterval

	operation := func() error {
		return c.send(ctx, method, endpoint+path, token, payload, out)
	}

	notify := func(err error, wait time.Duration) {
		logger.Debugf("%s %s failed, retrying in %s: %s", method, path, wait, err)
	}

	return backoff.RetryNotify(operation, backoff.WithContext(backoff.WithMaxRetries(b, c.maxRetries), ctx), notify)
}

func (c *Client) send(ctx context.Context, method, target, token string, payload []byte, out interface{}) error {
	var body io.Reader
	if payload != nil {
		body = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return backoff.Permanent(err)
	}

	if payload != nil {
		req.Header.Set("Content-Type", contentType)
	}

	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}

	defer func() {
		if errClose := resp.Body.Close(); errClose != nil {
			logger.Warnf("failed to close response body: %s", errClose)
		}
	}()

	if resp.StatusCode >= http.StatusMultipleChoices {
		respErr := readError(resp)
		if resp.StatusCode >= http.StatusInternalServerError {
			return respErr
		}

		return backoff.Permanent(respErr)
	}

	if out == nil {
		return nil
	}

	err = json.NewDecoder(resp.Body).Decode(out)
	if err != nil {
		return backoff.Permanent(fmt.Errorf("decode response: %w", err))
	}

	return nil
}

func readError(resp *http.Response) *ResponseError {
	respErr := &ResponseError{StatusCode: resp.StatusCode}

	var body struct {
		Message string `json:"message"`
		Details []struct {
			Message string `json:"message"`
		} `json:"details"`
	}

	if json.NewDecoder(resp.Body).Decode(&body) == nil {
		respErr.Message = body.Message

		for _, d := range body.Details {
			respErr.Details = append(respErr.Details, d.Message)
		}
	}

	return respErr
}
