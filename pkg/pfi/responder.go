/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package pfi

import (
	"context"
	"fmt"
	"math/big"
	"sync"
	"time"

	"github.com/TBD54566975/tbdex-go/pkg/tbdex/decimal"
	"github.com/TBD54566975/tbdex-go/pkg/tbdex/exchange"
	"github.com/TBD54566975/tbdex-go/pkg/tbdex/message"
	"github.com/TBD54566975/tbdex-go/pkg/tbdex/resource"
)

const (
	// DefaultQuoteTTL is how long automatic quotes stay valid.
	DefaultQuoteTTL = 10 * time.Minute

	amountPrecision = 2
)

// Responder answers customer messages automatically: rfqs are quoted at the offering rate, orders get
// payment instructions and cancels close the exchange. Replies are sent in the background, after the
// customer message has been accepted.
type Responder struct {
	pfi          *PFI
	quoteTTL     time.Duration
	instructions message.OrderInstructionsData
	now          func() time.Time
	inflight     sync.WaitGroup
}

// ResponderOption configures a Responder.
type ResponderOption func(r *Responder)

// WithQuoteTTL sets how long quotes stay valid.
func WithQuoteTTL(ttl time.Duration) ResponderOption {
	return func(r *Responder) {
		r.quoteTTL = ttl
	}
}

// WithInstructions sets the payment instructions sent when an order is placed.
func WithInstructions(instructions message.OrderInstructionsData) ResponderOption {
	return func(r *Responder) {
		r.instructions = instructions
	}
}

// WithResponderClock sets the time source quote expiry is computed from.
func WithResponderClock(now func() time.Time) ResponderOption {
	return func(r *Responder) {
		r.now = now
	}
}

// NewResponder creates a Responder replying as pfi. Register it with WithListener; it is a Listener.
func NewResponder(pfi *PFI, opts ...ResponderOption) *Responder {
	r := &Responder{
		pfi:      pfi,
		quoteTTL: DefaultQuoteTTL,
		instructions: message.OrderInstructionsData{
			Payin:  message.PaymentInstruction{Instruction: "follow the payin method of the offering"},
			Payout: message.PaymentInstruction{Instruction: "funds are sent to the payout details of the rfq"},
		},
		now: time.Now,
	}

	for _, opt := range opts {
		opt(r)
	}

	return r
}

// OnMessage replies to msg in a new goroutine and returns. Failures are logged, the customer message
// stays accepted.
func (r *Responder) OnMessage(ctx context.Context, ex *exchange.Exchange, msg message.Message) {
	ctx = context.WithoutCancel(ctx)

	r.inflight.Add(1)

	go func() {
		defer r.inflight.Done()

		r.respond(ctx, ex, msg)
	}()
}

// Wait blocks until every reply started by OnMessage has been sent or has failed.
func (r *Responder) Wait() {
	r.inflight.Wait()
}

func (r *Responder) respond(ctx context.Context, ex *exchange.Exchange, msg message.Message) {
	reply, err := r.reply(ex, msg)
	if err != nil {
		logger.Errorf("exchange %s: create reply to %s: %s", ex.ID, msg.GetMetadata().Kind, err)

		return
	}

	if reply == nil {
		return
	}

	err = r.pfi.Reply(ctx, reply)
	if err != nil {
		logger.Warnf("exchange %s: reply %s: %s", ex.ID, reply.GetMetadata().Kind, err)
	}
}

func (r *Responder) reply(ex *exchange.Exchange, msg message.Message) (message.Message, error) {
	from, to := r.pfi.DID(), ex.Customer
	opts := []message.Option{message.WithProtocol(ex.Protocol)}

	switch m := msg.(type) {
	case *message.RFQ:
		offering, err := r.pfi.resources.Offering(m.Data.OfferingID)
		if err != nil {
			return nil, err
		}

		data, err := r.Quote(m, offering)
		if err != nil {
			return nil, err
		}

		return message.CreateQuote(from, to, ex.ID, data, opts...)
	case *message.Order:
		return message.CreateOrderInstructions(from, to, ex.ID, r.instructions, opts...)
	case *message.Cancel:
		success := false

		return message.CreateClose(from, to, ex.ID, message.CloseData{Reason: m.Data.Reason, Success: &success}, opts...)
	default:
		return nil, nil
	}
}

// Quote prices rfq at the offering rate with no fee.
func (r *Responder) Quote(rfq *message.RFQ, offering *resource.Offering) (message.QuoteData, error) {
	payin, err := decimal.Parse(rfq.Data.Payin.Amount)
	if err != nil {
		return message.QuoteData{}, fmt.Errorf("quote: payin amount: %w", err)
	}

	rate, err := decimal.Parse(offering.Data.PayoutUnitsPerPayinUnit)
	if err != nil {
		return message.QuoteData{}, fmt.Errorf("quote: rate: %w", err)
	}

	payout := new(big.Rat).Mul(payin, rate)

	return message.QuoteData{
		ExpiresAt:               r.now().Add(r.quoteTTL).UTC().Format(time.RFC3339),
		PayoutUnitsPerPayinUnit: offering.Data.PayoutUnitsPerPayinUnit,
		Payin: message.QuoteDetails{
			CurrencyCode: offering.Data.Payin.CurrencyCode,
			Subtotal:     payin.FloatString(amountPrecision),
			Total:        payin.FloatString(amountPrecision),
		},
		Payout: message.QuoteDetails{
			CurrencyCode: offering.Data.Payout.CurrencyCode,
			Subtotal:     payout.FloatString(amountPrecision),
			Total:        payout.FloatString(amountPrecision),
		},
	}, nil
}
