/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package delivery moves accepted messages to the counterparty: pushed to a reply-to URL, fanned out
// over WebSocket subscriptions, or pulled by polling the exchange.
package delivery

import (
	"context"
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"

	"github.com/TBD54566975/tbdex-go/pkg/common/log"
	"github.com/TBD54566975/tbdex-go/pkg/tbdex/message"
)

// EnvPrefix prefixes the environment variables Config loads from.
const EnvPrefix = "TBDEX_DELIVERY"

var logger = log.New("tbdex/delivery")

// Notifier delivers a message produced for an exchange.
type Notifier interface {
	// Notify delivers msg. replyTo is the URL the exchange registered, empty if there is none.
	Notify(ctx context.Context, replyTo string, msg message.Message) error
}

// Config tunes reply-to delivery.
type Config struct {
	MaxRetries      uint64        `envconfig:"MAX_RETRIES" default:"5"`
	InitialInterval time.Duration `envconfig:"INITIAL_INTERVAL" default:"500ms"`
	MaxInterval     time.Duration `envconfig:"MAX_INTERVAL" default:"10s"`
	RequestTimeout  time.Duration `envconfig:"REQUEST_TIMEOUT" default:"10s"`
}

// LoadConfig reads TBDEX_DELIVERY_* environment variables over the defaults.
func LoadConfig() (Config, error) {
	var cfg Config

	err := envconfig.Process(EnvPrefix, &cfg)
	if err != nil {
		return Config{}, fmt.Errorf("load delivery config: %w", err)
	}

	return cfg, nil
}

// Notifiers delivers every message through each notifier in turn. The first failure is returned after
// all notifiers ran.
type Notifiers []Notifier

// Notify delivers msg through every notifier.
func (n Notifiers) Notify(ctx context.Context, replyTo string, msg message.Message) error {
	var first error

	for _, notifier := range n {
		err := notifier.Notify(ctx, replyTo, msg)
		if err != nil {
			logger.Warnf("deliver %s %s: %s", msg.GetMetadata().Kind, msg.GetMetadata().ID, err)

			if first == nil {
				first = err
			}
		}
	}

	return first
}
