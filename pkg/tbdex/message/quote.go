/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package message

import (
	"time"

	"github.com/TBD54566975/tbdex-go/pkg/tbdex/tbdexerr"
)

// Quote is the binding offer of a PFI in reply to an rfq.
type Quote struct {
	Envelope[QuoteData]
}

// QuoteData is the payload of a quote.
type QuoteData struct {
	ExpiresAt               string       `json:"expiresAt" validate:"required,timestamp"`
	PayoutUnitsPerPayinUnit string       `json:"payoutUnitsPerPayinUnit" validate:"required,decimal"`
	Payin                   QuoteDetails `json:"payin"`
	Payout                  QuoteDetails `json:"payout"`
}

// QuoteDetails are the amounts of one side of a quote.
type QuoteDetails struct {
	CurrencyCode string `json:"currencyCode" validate:"required"`
	Subtotal     string `json:"subtotal" validate:"required,decimal"`
	Fee          string `json:"fee,omitempty" validate:"omitempty,decimal"`
	Total        string `json:"total" validate:"required,decimal"`
}

// CreateQuote creates an unsigned quote from the PFI to the customer.
func CreateQuote(from, to, exchangeID string, data QuoteData, opts ...Option) (*Quote, error) {
	e, err := create(KindQuote, from, to, exchangeID, data, opts)
	if err != nil {
		return nil, err
	}

	return &Quote{Envelope: e}, nil
}

// ParseQuote parses and structurally validates a quote. The signature is not verified.
func ParseQuote(data []byte) (*Quote, error) {
	quote := &Quote{}

	err := parseEnvelope(data, KindQuote, &quote.Envelope)
	if err != nil {
		return nil, err
	}

	return quote, nil
}

// Expired reports whether the quote expired before now.
func (q *Quote) Expired(now time.Time) (bool, error) {
	expiresAt, err := time.Parse(time.RFC3339, q.Data.ExpiresAt)
	if err != nil {
		return false, tbdexerr.Wrap(tbdexerr.MalformedMessage, err, "quote expiresAt")
	}

	return !now.Before(expiresAt), nil
}
