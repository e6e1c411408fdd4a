/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package exchange_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/TBD54566975/tbdex-go/pkg/internal/tbdextest"
	"github.com/TBD54566975/tbdex-go/pkg/tbdex/exchange"
	"github.com/TBD54566975/tbdex-go/pkg/tbdex/message"
	"github.com/TBD54566975/tbdex-go/pkg/tbdex/tbdexerr"
)

func applyAll(t *testing.T, ex *exchange.Exchange, msgs ...message.Message) *exchange.Exchange {
	t.Helper()

	var err error

	for _, msg := range msgs {
		ex, err = exchange.Apply(ex, msg)
		require.NoError(t, err, msg.GetMetadata().Kind)
	}

	return ex
}

func TestScenario(t *testing.T) {
	p := tbdextest.NewParties(t)
	offering := p.Offering(t, true)

	rfq := p.RFQ(t, offering, "101")
	require.NoError(t, rfq.VerifyOfferingRequirements(offering, message.WithClaimsResolver(tbdextest.Resolver())))

	id := rfq.Metadata.ID
	quote := p.Quote(t, id, time.Hour)
	require.Equal(t, "1.0", quote.Data.PayoutUnitsPerPayinUnit)
	require.Equal(t, "1000.00", quote.Data.Payin.Subtotal)
	require.Equal(t, "1001.00", quote.Data.Payin.Total)

	payin := p.OrderStatus(t, id, message.StatusPayinSettled)
	payout := p.OrderStatus(t, id, message.StatusPayoutSettled)

	ex := applyAll(t, nil,
		rfq,
		quote,
		p.Order(t, id),
		p.OrderInstructions(t, id),
		payin,
		payout,
		p.Close(t, id, true),
	)

	require.Equal(t, exchange.StateClosed, ex.State)
	require.True(t, ex.Closed())
	require.Equal(t, []*message.OrderStatus{payin, payout}, ex.OrderStatuses)
	require.True(t, *ex.Close.Data.Success)
	require.Equal(t, p.Customer.URI, ex.Customer)
	require.Equal(t, p.PFI.URI, ex.PFI)
}

func TestApply_Rejections(t *testing.T) {
	p := tbdextest.NewParties(t)
	offering := p.Offering(t, false)
	rfq := p.RFQ(t, offering, "10")
	id := rfq.Metadata.ID

	opened := applyAll(t, nil, rfq)
	quoted := applyAll(t, opened, p.Quote(t, id, time.Hour))
	placed := applyAll(t, quoted, p.Order(t, id))
	settling := applyAll(t, placed, p.OrderInstructions(t, id))
	closedEx := applyAll(t, settling, p.Close(t, id, true))

	other := p.RFQ(t, offering, "10")

	wrongSender, err := message.CreateQuote(p.Customer.URI, p.PFI.URI, id, quoted.Quote.Data)
	require.NoError(t, err)

	wrongProtocol, err := message.CreateCancel(p.Customer.URI, p.PFI.URI, id, message.CancelData{},
		message.WithProtocol("2.0"))
	require.NoError(t, err)

	tests := []struct {
		name string
		ex   *exchange.Exchange
		msg  message.Message
		err  error
	}{
		{"order before quote", opened, p.Order(t, id), tbdexerr.ErrInvalidStateTransition},
		{"orderstatus before orderinstructions", placed,
			p.OrderStatus(t, id, message.StatusPayinPending), tbdexerr.ErrInvalidStateTransition},
		{"close after order placed", placed, p.Close(t, id, false), tbdexerr.ErrInvalidStateTransition},
		{"second quote", quoted, p.Quote(t, id, time.Hour), tbdexerr.ErrInvalidStateTransition},
		{"cancel after order", placed, p.Cancel(t, id), tbdexerr.ErrInvalidStateTransition},
		{"second orderinstructions", settling, p.OrderInstructions(t, id), tbdexerr.ErrInvalidStateTransition},
		{"orderstatus after close", closedEx,
			p.OrderStatus(t, id, message.StatusPayoutSettled), tbdexerr.ErrInvalidStateTransition},
		{"close after close", closedEx, p.Close(t, id, true), tbdexerr.ErrInvalidStateTransition},
		{"first message not an rfq", nil, p.Quote(t, id, time.Hour), tbdexerr.ErrInvalidStateTransition},
		{"other exchange", opened, p.Quote(t, other.Metadata.ID, time.Hour), tbdexerr.ErrInconsistentMetadata},
		{"rfq of another exchange", opened, other, tbdexerr.ErrInconsistentMetadata},
		{"quote from the customer", opened, wrongSender, tbdexerr.ErrInconsistentMetadata},
		{"protocol", quoted, wrongProtocol, tbdexerr.ErrInconsistentMetadata},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			var before []message.Message
			if tc.ex != nil {
				before = tc.ex.Messages()
			}

			next, err := exchange.Apply(tc.ex, tc.msg)
			require.ErrorIs(t, err, tc.err)
			require.Nil(t, next)

			if tc.ex != nil {
				require.Equal(t, before, tc.ex.Messages())
			}
		})
	}
}

func TestApply_Cancellation(t *testing.T) {
	p := tbdextest.NewParties(t)
	rfq := p.RFQ(t, p.Offering(t, false), "10")
	id := rfq.Metadata.ID

	t.Run("before quote", func(t *testing.T) {
		ex := applyAll(t, nil, rfq, p.Cancel(t, id), p.Close(t, id, false))
		require.Equal(t, exchange.StateClosed, ex.State)
		require.Nil(t, ex.Quote)
		require.NotNil(t, ex.Cancel)
	})

	t.Run("after quote", func(t *testing.T) {
		ex := applyAll(t, nil, rfq, p.Quote(t, id, time.Hour), p.Cancel(t, id))
		require.Equal(t, exchange.StateCancelled, ex.State)

		_, err := exchange.Apply(ex, p.Order(t, id))
		require.ErrorIs(t, err, tbdexerr.ErrInvalidStateTransition)
	})
}

func TestApply_Duplicates(t *testing.T) {
	p := tbdextest.NewParties(t)
	rfq := p.RFQ(t, p.Offering(t, false), "10")
	quote := p.Quote(t, rfq.Metadata.ID, time.Hour)

	ex := applyAll(t, nil, rfq, quote)

	again, err := exchange.Apply(ex, quote)
	require.NoError(t, err)
	require.Same(t, ex, again)

	again, err = exchange.Apply(ex, rfq)
	require.NoError(t, err)
	require.Same(t, ex, again)
}

func TestApply_Pure(t *testing.T) {
	p := tbdextest.NewParties(t)
	rfq := p.RFQ(t, p.Offering(t, false), "10")
	id := rfq.Metadata.ID

	settling := applyAll(t, nil, rfq, p.Quote(t, id, time.Hour), p.Order(t, id), p.OrderInstructions(t, id))
	first := applyAll(t, settling, p.OrderStatus(t, id, message.StatusPayinSettled))
	second := applyAll(t, settling, p.OrderStatus(t, id, message.StatusPayinFailed))

	require.Empty(t, settling.OrderStatuses)
	require.Equal(t, exchange.StateAwaitingSettlement, settling.State)
	require.Equal(t, message.StatusPayinSettled, first.OrderStatuses[0].Data.Status)
	require.Equal(t, message.StatusPayinFailed, second.OrderStatuses[0].Data.Status)
}

func TestApply_QuoteExpiry(t *testing.T) {
	p := tbdextest.NewParties(t)
	rfq := p.RFQ(t, p.Offering(t, false), "10")
	id := rfq.Metadata.ID

	quoted := applyAll(t, nil, rfq, p.Quote(t, id, time.Minute))
	order := p.Order(t, id)
	later := func() time.Time { return time.Now().Add(time.Hour) }

	_, err := exchange.Apply(quoted, order, exchange.WithClock(later))
	require.ErrorIs(t, err, tbdexerr.ErrInvalidStateTransition)
	require.ErrorContains(t, err, "quote expired")

	ex, err := exchange.Apply(quoted, order, exchange.WithClock(later), exchange.WithoutExpiryCheck())
	require.NoError(t, err)
	require.Equal(t, exchange.StateOrderPlaced, ex.State)
}

func TestMessagesAndReplay(t *testing.T) {
	p := tbdextest.NewParties(t)
	rfq := p.RFQ(t, p.Offering(t, false), "10")
	id := rfq.Metadata.ID

	ex := applyAll(t, nil,
		rfq,
		p.Quote(t, id, time.Hour),
		p.Order(t, id),
		p.OrderInstructions(t, id),
		p.OrderStatus(t, id, message.StatusPayinPending),
		p.OrderStatus(t, id, message.StatusPayinSettled),
	)

	msgs := ex.Messages()
	kinds := make([]message.Kind, 0, len(msgs))

	for _, msg := range msgs {
		kinds = append(kinds, msg.GetMetadata().Kind)
	}

	require.Equal(t, []message.Kind{
		message.KindRFQ, message.KindQuote, message.KindOrder, message.KindOrderInstructions,
		message.KindOrderStatus, message.KindOrderStatus,
	}, kinds)
	require.Equal(t, message.KindOrderStatus, ex.Last().GetMetadata().Kind)

	replayed, err := exchange.Replay(msgs)
	require.NoError(t, err)
	require.Equal(t, ex, replayed)
}
