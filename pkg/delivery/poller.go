/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package delivery

import (
	"context"
	"errors"
	"time"

	"github.com/TBD54566975/tbdex-go/pkg/tbdex/message"
)

// ErrStopPolling may be returned by a poll handler to end polling without an error.
var ErrStopPolling = errors.New("stop polling")

// Fetcher returns every message of an exchange in canonical order.
type Fetcher interface {
	GetExchange(ctx context.Context, exchangeID string) ([]message.Message, error)
}

// Poller fetches an exchange at an interval and hands each message to the handler once.
type Poller struct {
	fetcher  Fetcher
	interval time.Duration
}

// NewPoller creates a Poller.
func NewPoller(fetcher Fetcher, interval time.Duration) *Poller {
	return &Poller{fetcher: fetcher, interval: interval}
}

// Poll runs until the exchange is closed, ctx is done, or handle fails. Messages are handed over in
// canonical order and never twice, even if fetches overlap with pushed deliveries. Fetch errors are
// logged and retried at the next tick.
func (p *Poller) Poll(ctx context.Context, exchangeID string, handle func(message.Message) error) error {
	seen := make(map[string]struct{})

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		done, err := p.poll(ctx, exchangeID, seen, handle)
		if errors.Is(err, ErrStopPolling) {
			return nil
		}

		if err != nil || done {
			return err
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

func (p *Poller) poll(ctx context.Context, exchangeID string, seen map[string]struct{},
	handle func(message.Message) error) (bool, error) {
	msgs, err := p.fetcher.GetExchange(ctx, exchangeID)
	if err != nil {
		logger.Warnf("poll exchange %s: %s", exchangeID, err)

		return false, nil
	}

	for _, msg := range NewMessages(seen, msgs) {
		err = handle(msg)
		if err != nil {
			return false, err
		}
	}

	return len(msgs) > 0 && msgs[len(msgs)-1].GetMetadata().Kind == message.KindClose, nil
}

// NewMessages returns the messages whose ids are not in seen and adds them to it.
func NewMessages(seen map[string]struct{}, msgs []message.Message) []message.Message {
	var fresh []message.Message

	for _, msg := range msgs {
		id := msg.GetMetadata().ID
		if _, ok := seen[id]; ok {
			continue
		}

		seen[id] = struct{}{}
		fresh = append(fresh, msg)
	}

	return fresh
}
