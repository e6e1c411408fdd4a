/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package delivery

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/TBD54566975/tbdex-go/pkg/tbdex/message"
)

const contentType = "application/json"

// ErrDeliveryFailed is returned when a reply-to endpoint did not accept a message.
var ErrDeliveryFailed = errors.New("delivery failed")

// ReplyToNotifier POSTs messages to the reply-to URL of their exchange. Transport errors and 5xx
// responses are retried with exponential backoff; other non-2xx responses fail at once.
type ReplyToNotifier struct {
	client *http.Client
	cfg    Config
}

// ReplyToOption configures the ReplyToNotifier.
type ReplyToOption func(n *ReplyToNotifier)

// WithHTTPClient sets the client used to POST messages.
func WithHTTPClient(client *http.Client) ReplyToOption {
	return func(n *ReplyToNotifier) {
		n.client = client
	}
}

// NewReplyToNotifier creates a ReplyToNotifier.
func NewReplyToNotifier(cfg Config, opts ...ReplyToOption) *ReplyToNotifier {
	n := &ReplyToNotifier{client: &http.Client{Timeout: cfg.RequestTimeout}, cfg: cfg}

	for _, opt := range opts {
		opt(n)
	}

	return n
}

// Notify POSTs msg to replyTo. Exchanges without a reply-to URL are skipped.
func (n *ReplyToNotifier) Notify(ctx context.Context, replyTo string, msg message.Message) error {
	if replyTo == "" {
		return nil
	}

	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", msg.GetMetadata().Kind, err)
	}

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = n.cfg.InitialInterval
	b.MaxInterval = n.cfg.MaxInterval

	operation := func() error {
		return n.post(ctx, replyTo, body)
	}

	notify := func(err error, wait time.Duration) {
		logger.Debugf("deliver %s to %s failed, retrying in %s: %s", msg.GetMetadata().ID, replyTo, wait, err)
	}

	err = backoff.RetryNotify(operation, backoff.WithContext(backoff.WithMaxRetries(b, n.cfg.MaxRetries), ctx), notify)
	if err != nil {
		return fmt.Errorf("deliver %s %s to %s: %w", msg.GetMetadata().Kind, msg.GetMetadata().ID, replyTo, err)
	}

	return nil
}

func (n *ReplyToNotifier) post(ctx context.Context, url string, body []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return backoff.Permanent(err)
	}

	req.Header.Set("Content-Type", contentType)

	resp, err := n.client.Do(req)
	if err != nil {
		return err
	}

	defer func() {
		if errClose := resp.Body.Close(); errClose != nil {
			logger.Warnf("failed to close response body: %s", errClose)
		}
	}()

	switch {
	case resp.StatusCode >= http.StatusInternalServerError:
		return fmt.Errorf("%w: status %d", ErrDeliveryFailed, resp.StatusCode)
	case resp.StatusCode >= http.StatusMultipleChoices:
		return backoff.Permanent(fmt.Errorf("%w: status %d", ErrDeliveryFailed, resp.StatusCode))
	default:
		return nil
	}
}
