/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package exchange holds the transition rules of a single tbDEX negotiation.
//
// Apply is pure: it returns the exchange that results from accepting a message, or an error, and
// never modifies the exchange it is given. Callers serialize Apply per exchange id.
package exchange

import (
	"time"

	"github.com/TBD54566975/tbdex-go/pkg/tbdex/message"
	"github.com/TBD54566975/tbdex-go/pkg/tbdex/tbdexerr"
)

// Exchange is the set of messages accepted for one exchange id.
type Exchange struct {
	ID       string
	Customer string
	PFI      string
	Protocol string
	State    string

	RFQ               *message.RFQ
	Quote             *message.Quote
	Order             *message.Order
	OrderInstructions *message.OrderInstructions
	Cancel            *message.Cancel
	OrderStatuses     []*message.OrderStatus
	Close             *message.Close
}

type applyOpts struct {
	now         func() time.Time
	checkExpiry bool
}

// ApplyOption configures Apply.
type ApplyOption func(opts *applyOpts)

// WithClock sets the time quote expiry is checked against.
func WithClock(now func() time.Time) ApplyOption {
	return func(opts *applyOpts) {
		opts.now = now
	}
}

// WithoutExpiryCheck accepts an order against an expired quote. Used when replaying stored exchanges.
func WithoutExpiryCheck() ApplyOption {
	return func(opts *applyOpts) {
		opts.checkExpiry = false
	}
}

// Apply accepts msg into ex. A nil ex accepts only an rfq, which opens the exchange. A message whose id
// is already recorded leaves the exchange unchanged.
func Apply(ex *Exchange, msg message.Message, opts ...ApplyOption) (*Exchange, error) {
	o := &applyOpts{now: time.Now, checkExpiry: true}

	for _, opt := range opts {
		opt(o)
	}

	md := msg.GetMetadata()

	if ex == nil {
		return open(msg)
	}

	if ex.Has(md.ID) {
		return ex, nil
	}

	if md.ExchangeID != ex.ID {
		return nil, tbdexerr.New(tbdexerr.InconsistentMetadata, "%s %s belongs to exchange %s, not %s",
			md.Kind, md.ID, md.ExchangeID, ex.ID)
	}

	if md.Protocol != ex.Protocol {
		return nil, tbdexerr.New(tbdexerr.InconsistentMetadata, "%s uses protocol %s, exchange uses %s",
			md.Kind, md.Protocol, ex.Protocol)
	}

	next := nextState(md.Kind)
	if next == nil {
		return nil, tbdexerr.New(tbdexerr.UnsupportedMessageKind, "unsupported message kind %q", md.Kind)
	}

	current := stateFromName(ex.State)
	if !current.Accepts(md.Kind) {
		return nil, tbdexerr.New(tbdexerr.InvalidStateTransition, "%s is not accepted in state %s",
			md.Kind, current.Name())
	}

	err := ex.checkParties(md)
	if err != nil {
		return nil, err
	}

	if md.Kind == message.KindOrder && o.checkExpiry {
		err = ex.checkQuoteValid(o.now())
		if err != nil {
			return nil, err
		}
	}

	return ex.with(msg, next)
}

// Replay rebuilds an exchange from messages accepted earlier, given in the order Messages returns them.
func Replay(msgs []message.Message) (*Exchange, error) {
	var (
		ex  *Exchange
		err error
	)

	for _, msg := range msgs {
		ex, err = Apply(ex, msg, WithoutExpiryCheck())
		if err != nil {
			return nil, err
		}
	}

	return ex, nil
}

func open(msg message.Message) (*Exchange, error) {
	md := msg.GetMetadata()

	rfq, ok := msg.(*message.RFQ)
	if !ok {
		return nil, tbdexerr.New(tbdexerr.InvalidStateTransition, "an exchange opens with an rfq, not %s", md.Kind)
	}

	if md.ExchangeID != md.ID {
		return nil, tbdexerr.New(tbdexerr.InconsistentMetadata, "rfq exchangeId %s differs from its id %s",
			md.ExchangeID, md.ID)
	}

	return &Exchange{
		ID:       md.ExchangeID,
		Customer: md.From,
		PFI:      md.To,
		Protocol: md.Protocol,
		State:    StateAwaitingQuote,
		RFQ:      rfq,
	}, nil
}

// checkParties requires the customer to send customer kinds to the PFI, and the reverse.
func (ex *Exchange) checkParties(md message.Metadata) error {
	from, to := ex.Customer, ex.PFI
	if md.Kind.SentByPFI() {
		from, to = ex.PFI, ex.Customer
	}

	if md.From != from || md.To != to {
		return tbdexerr.New(tbdexerr.InconsistentMetadata, "%s must be sent from %s to %s, got %s to %s",
			md.Kind, from, to, md.From, md.To)
	}

	return nil
}

func (ex *Exchange) checkQuoteValid(now time.Time) error {
	expired, err := ex.Quote.Expired(now)
	if err != nil {
		return tbdexerr.Wrap(tbdexerr.MalformedMessage, err, "quote expiry")
	}

	if expired {
		return tbdexerr.New(tbdexerr.InvalidStateTransition, "quote expired at %s", ex.Quote.Data.ExpiresAt)
	}

	return nil
}

// with returns a copy of ex holding msg in the next state.
func (ex *Exchange) with(msg message.Message, next state) (*Exchange, error) {
	c := *ex
	c.State = next.Name()

	switch m := msg.(type) {
	case *message.Quote:
		c.Quote = m
	case *message.Order:
		c.Order = m
	case *message.OrderInstructions:
		c.OrderInstructions = m
	case *message.Cancel:
		c.Cancel = m
	case *message.OrderStatus:
		c.OrderStatuses = append(append(make([]*message.OrderStatus, 0, len(ex.OrderStatuses)+1),
			ex.OrderStatuses...), m)
	case *message.Close:
		c.Close = m
	default:
		return nil, tbdexerr.New(tbdexerr.InvalidStateTransition, "%s is not accepted in state %s",
			msg.GetMetadata().Kind, ex.State)
	}

	return &c, nil
}

// Messages returns the accepted messages in the order rfq, quote, order, orderinstructions, cancel,
// orderstatus..., close.
func (ex *Exchange) Messages() []message.Message {
	var msgs []message.Message

	if ex.RFQ != nil {
		msgs = append(msgs, ex.RFQ)
	}

	if ex.Quote != nil {
		msgs = append(msgs, ex.Quote)
	}

	if ex.Order != nil {
		msgs = append(msgs, ex.Order)
	}

	if ex.OrderInstructions != nil {
		msgs = append(msgs, ex.OrderInstructions)
	}

	if ex.Cancel != nil {
		msgs = append(msgs, ex.Cancel)
	}

	for _, s := range ex.OrderStatuses {
		msgs = append(msgs, s)
	}

	if ex.Close != nil {
		msgs = append(msgs, ex.Close)
	}

	return msgs
}

// Has reports whether a message with the id was accepted.
func (ex *Exchange) Has(id string) bool {
	for _, msg := range ex.Messages() {
		if msg.GetMetadata().ID == id {
			return true
		}
	}

	return false
}

// Last returns the most recently accepted message.
func (ex *Exchange) Last() message.Message {
	msgs := ex.Messages()

	return msgs[len(msgs)-1]
}

// Closed reports whether the exchange accepts no more messages.
func (ex *Exchange) Closed() bool {
	return ex.State == StateClosed
}
