/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package pfi runs the PFI side of tbDEX exchanges: it admits customer messages after verifying them,
// records them in the exchange store, and signs and delivers the PFI's own replies.
package pfi

import (
	"context"
	"errors"
	"fmt"

	"github.com/samber/lo"

	"github.com/TBD54566975/tbdex-go/pkg/bearerdid"
	"github.com/TBD54566975/tbdex-go/pkg/common/log"
	"github.com/TBD54566975/tbdex-go/pkg/delivery"
	exchangestore "github.com/TBD54566975/tbdex-go/pkg/store/exchange"
	resourcestore "github.com/TBD54566975/tbdex-go/pkg/store/resource"
	"github.com/TBD54566975/tbdex-go/pkg/tbdex/exchange"
	"github.com/TBD54566975/tbdex-go/pkg/tbdex/message"
	"github.com/TBD54566975/tbdex-go/pkg/tbdex/resource"
	"github.com/TBD54566975/tbdex-go/pkg/tbdex/tbdexerr"
	"github.com/TBD54566975/tbdex-go/pkg/vdr"
)

var logger = log.New("tbdex/pfi")

// Listener is told about every message the PFI accepted from a customer.
type Listener interface {
	OnMessage(ctx context.Context, ex *exchange.Exchange, msg message.Message)
}

// ListenerFunc adapts a function to Listener.
type ListenerFunc func(ctx context.Context, ex *exchange.Exchange, msg message.Message)

// OnMessage calls f.
func (f ListenerFunc) OnMessage(ctx context.Context, ex *exchange.Exchange, msg message.Message) {
	f(ctx, ex, msg)
}

// PFI is a participant that publishes offerings and answers rfqs.
type PFI struct {
	bearer    *bearerdid.BearerDID
	resolver  vdr.Resolver
	exchanges *exchangestore.Store
	resources *resourcestore.Store
	notifier  delivery.Notifier
	listeners []Listener
}

// Option configures the PFI.
type Option func(p *PFI)

// WithNotifier sets how PFI messages reach the customer.
func WithNotifier(notifier delivery.Notifier) Option {
	return func(p *PFI) {
		p.notifier = notifier
	}
}

// WithListener adds a listener for accepted customer messages.
func WithListener(listener Listener) Option {
	return func(p *PFI) {
		p.listeners = append(p.listeners, listener)
	}
}

// New creates a PFI acting as bearer.
func New(bearer *bearerdid.BearerDID, resolver vdr.Resolver, exchanges *exchangestore.Store,
	resources *resourcestore.Store, opts ...Option) *PFI {
	p := &PFI{
		bearer:    bearer,
		resolver:  resolver,
		exchanges: exchanges,
		resources: resources,
		notifier:  delivery.Notifiers{},
	}

	for _, opt := range opts {
		opt(p)
	}

	return p
}

// DID returns the DID of the PFI.
func (p *PFI) DID() string {
	return p.bearer.URI
}

// Resolver returns the DID resolver the PFI verifies with.
func (p *PFI) Resolver() vdr.Resolver {
	return p.resolver
}

// Offerings returns the published offerings.
func (p *PFI) Offerings() ([]*resource.Offering, error) {
	return p.resources.Offerings()
}

// PublishOffering signs an offering created by the PFI, if needed, and stores it.
func (p *PFI) PublishOffering(offering *resource.Offering) error {
	return p.publish(offering, func() error { return p.resources.PutOffering(offering) })
}

// PublishBalance signs a balance of owner, if needed, and stores it.
func (p *PFI) PublishBalance(owner string, balance *resource.Balance) error {
	return p.publish(balance, func() error { return p.resources.PutBalance(owner, balance) })
}

func (p *PFI) publish(r resource.Resource, put func() error) error {
	if r.GetMetadata().From != p.DID() {
		return fmt.Errorf("publish %s: published by %s, not by this PFI", r.GetMetadata().Kind, r.GetMetadata().From)
	}

	if r.GetSignature() == "" {
		err := r.Sign(p.bearer)
		if err != nil {
			return fmt.Errorf("publish %s: %w", r.GetMetadata().Kind, err)
		}
	}

	return put()
}

// Balances returns the balances of the requester.
func (p *PFI) Balances(requester string) ([]*resource.Balance, error) {
	return p.resources.Balances(requester)
}

// Exchanges returns the ids of the exchanges of the requester.
func (p *PFI) Exchanges(requester string) ([]string, error) {
	return p.exchanges.List(requester)
}

// Exchange returns the messages of an exchange the requester takes part in. Exchanges of others are
// reported as not found.
func (p *PFI) Exchange(requester, id string) ([]message.Message, error) {
	ex, err := p.exchanges.Get(id)
	if err != nil {
		return nil, err
	}

	if requester != ex.Customer && requester != ex.PFI {
		return nil, tbdexerr.New(tbdexerr.NotFound, "exchange %s not found", id)
	}

	return ex.Messages(), nil
}

// CreateExchange admits an rfq: its signature, full private data and the requirements of the offering
// it selects are checked before it opens an exchange. replyTo receives the PFI's messages.
func (p *PFI) CreateExchange(ctx context.Context, rfq *message.RFQ, replyTo string) error {
	err := p.admit(rfq)
	if err != nil {
		return err
	}

	err = rfq.VerifyAllPrivateData()
	if err != nil {
		return err
	}

	offering, err := p.resources.Offering(rfq.Data.OfferingID)
	if errors.Is(err, tbdexerr.ErrNotFound) {
		return tbdexerr.Wrap(tbdexerr.OfferingRequirementsNotMet, err, "offering %s does not exist", rfq.Data.OfferingID)
	}

	if err != nil {
		return err
	}

	err = rfq.VerifyOfferingRequirements(offering, message.WithClaimsResolver(p.resolver))
	if err != nil {
		return err
	}

	return p.accept(ctx, rfq, replyTo)
}

// Submit admits a customer order or cancel for the exchange id.
func (p *PFI) Submit(ctx context.Context, id string, msg message.Message) error {
	md := msg.GetMetadata()

	if md.Kind != message.KindOrder && md.Kind != message.KindCancel {
		return tbdexerr.New(tbdexerr.MalformedMessage, "only order and cancel can be submitted, got %s", md.Kind)
	}

	if md.ExchangeID != id {
		return tbdexerr.New(tbdexerr.InconsistentMetadata, "%s belongs to exchange %s, not %s", md.Kind, md.ExchangeID, id)
	}

	err := p.admit(msg)
	if err != nil {
		return err
	}

	return p.accept(ctx, msg, "")
}

// Reply creates the PFI's next message for an exchange: it signs msg, records it and delivers it to the
// customer. Delivery failures are returned after the message is recorded.
func (p *PFI) Reply(ctx context.Context, msg message.Message) error {
	if msg.GetMetadata().From != p.DID() {
		return fmt.Errorf("reply %s: sender %s is not this PFI", msg.GetMetadata().Kind, msg.GetMetadata().From)
	}

	if msg.GetSignature() == "" {
		err := msg.Sign(p.bearer)
		if err != nil {
			return fmt.Errorf("reply: %w", err)
		}
	}

	id := msg.GetMetadata().ExchangeID

	_, added, err := p.exchanges.Submit(msg, "")
	if err != nil {
		return err
	}

	if !added {
		return nil
	}

	replyTo, err := p.exchanges.ReplyTo(id)
	if err != nil {
		return err
	}

	return p.notifier.Notify(ctx, replyTo, msg)
}

// admit checks a customer message is addressed to this PFI and signed by its sender.
func (p *PFI) admit(msg message.Message) error {
	md := msg.GetMetadata()

	if md.To != p.DID() {
		return tbdexerr.New(tbdexerr.InconsistentMetadata, "%s is addressed to %s, not to this PFI", md.Kind, md.To)
	}

	if md.Kind.SentByPFI() {
		return tbdexerr.New(tbdexerr.InconsistentMetadata, "%s is sent by the PFI, not by a customer", md.Kind)
	}

	return msg.Verify(p.resolver)
}

func (p *PFI) accept(ctx context.Context, msg message.Message, replyTo string) error {
	ex, added, err := p.exchanges.Submit(msg, replyTo)
	if err != nil {
		return err
	}

	if !added {
		logger.Debugf("exchange %s: %s %s already recorded", ex.ID, msg.GetMetadata().Kind, msg.GetMetadata().ID)

		return nil
	}

	lo.ForEach(p.listeners, func(l Listener, _ int) {
		l.OnMessage(ctx, ex, msg)
	})

	return nil
}
