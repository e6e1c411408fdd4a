/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package tbdextest builds signed offerings, claims and messages for tests.
package tbdextest

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/TBD54566975/tbdex-go/pkg/bearerdid"
	"github.com/TBD54566975/tbdex-go/pkg/doc/presexch"
	"github.com/TBD54566975/tbdex-go/pkg/doc/verifiable"
	"github.com/TBD54566975/tbdex-go/pkg/kms"
	"github.com/TBD54566975/tbdex-go/pkg/tbdex/message"
	"github.com/TBD54566975/tbdex-go/pkg/tbdex/resource"
	"github.com/TBD54566975/tbdex-go/pkg/vdr"
	vdrjwk "github.com/TBD54566975/tbdex-go/pkg/vdr/jwk"
	vdrkey "github.com/TBD54566975/tbdex-go/pkg/vdr/key"
)

const (
	// PayinKind is the payin method of the test offering.
	PayinKind = "USD_LEDGER"
	// PayoutKind is the payout method of the test offering.
	PayoutKind = "MOMO_MPESA"
	// SanctionCredential is the credential type the test offering requires.
	SanctionCredential = "SanctionCredential"
)

// Parties of an exchange.
type Parties struct {
	Customer *bearerdid.BearerDID
	PFI      *bearerdid.BearerDID
	Issuer   *bearerdid.BearerDID
}

// NewParties creates fresh did:jwk customer and issuer DIDs and a did:key PFI.
func NewParties(t *testing.T) *Parties {
	t.Helper()

	customer, err := bearerdid.NewJWK(nil, kms.Ed25519)
	require.NoError(t, err)

	pfi, err := bearerdid.NewKey(nil, kms.Secp256k1)
	require.NoError(t, err)

	issuer, err := bearerdid.NewJWK(nil, kms.Secp256k1)
	require.NoError(t, err)

	return &Parties{Customer: customer, PFI: pfi, Issuer: issuer}
}

// Resolver resolves did:jwk and did:key.
func Resolver() *vdr.Registry {
	return vdr.New(vdr.WithVDR(vdrjwk.New()), vdr.WithVDR(vdrkey.New()))
}

// RequiredClaims asks for a SanctionCredential.
func RequiredClaims() *presexch.PresentationDefinition {
	return &presexch.PresentationDefinition{
		ID: "7ce4004c-3c38-4853-968b-e411bafcd945",
		InputDescriptors: []*presexch.InputDescriptor{{
			ID: "bbdb9b7c-5754-4f46-b63b-590bada959e0",
			Constraints: &presexch.Constraints{Fields: []*presexch.Field{
				{
					Path:   []string{"$.vc.type[*]", "$.type[*]"},
					Filter: &presexch.Filter{Type: "string", Pattern: "^" + SanctionCredential + "$"},
				},
				{
					Path:   []string{"$.vc.credentialSubject.beep", "$.credentialSubject.beep"},
					Filter: &presexch.Filter{Type: "string", Const: "boop"},
				},
			}},
		}},
	}
}

// OfferingData is offering O1: USD_LEDGER to MOMO_MPESA, payin between 0.1 and 1000 USD.
func OfferingData(requireClaims bool) resource.OfferingData {
	data := resource.OfferingData{
		Description:             "Selling KES for USD",
		PayoutUnitsPerPayinUnit: "1.0",
		Payin: resource.PayinDetails{
			CurrencyCode: "USD",
			Min:          "0.1",
			Max:          "1000",
			Methods: []resource.PayinMethod{{
				Kind: PayinKind,
				Name: "Ledger",
				RequiredPaymentDetails: map[string]interface{}{
					"type":     "object",
					"required": []interface{}{"accountNumber"},
					"properties": map[string]interface{}{
						"accountNumber": map[string]interface{}{"type": "string"},
					},
				},
			}},
		},
		Payout: resource.PayoutDetails{
			CurrencyCode: "KES",
			Methods: []resource.PayoutMethod{{
				PayinMethod: resource.PayinMethod{
					Kind: PayoutKind,
					RequiredPaymentDetails: map[string]interface{}{
						"type":     "object",
						"required": []interface{}{"phoneNumber"},
						"properties": map[string]interface{}{
							"phoneNumber": map[string]interface{}{"type": "string", "pattern": "^\\+254[0-9]{9}$"},
						},
					},
				},
				EstimatedSettlementTime: 60,
			}},
		},
		Cancellation: resource.CancellationDetails{Enabled: true},
	}

	if requireClaims {
		data.RequiredClaims = RequiredClaims()
	}

	return data
}

// Offering creates offering O1 signed by the PFI.
func (p *Parties) Offering(t *testing.T, requireClaims bool) *resource.Offering {
	t.Helper()

	offering, err := resource.CreateOffering(p.PFI.URI, OfferingData(requireClaims))
	require.NoError(t, err)
	require.NoError(t, offering.Sign(p.PFI))

	return offering
}

// Claim issues a SanctionCredential about the customer.
func (p *Parties) Claim(t *testing.T, subject verifiable.Subject) string {
	t.Helper()

	signer, err := p.Issuer.GetSigner("")
	require.NoError(t, err)

	if _, ok := subject["id"]; !ok {
		subject["id"] = p.Customer.URI
	}

	claims := verifiable.NewJWTCredClaims(p.Issuer.URI, []string{SanctionCredential}, subject, time.Now().Add(time.Hour))

	vcJWT, err := verifiable.SignJWT(claims, signer)
	require.NoError(t, err)

	return vcJWT
}

// RFQData selects offering with a payin of amount and carries a valid claim.
func (p *Parties) RFQData(t *testing.T, offering *resource.Offering, amount string) message.CreateRFQData {
	t.Helper()

	return message.CreateRFQData{
		OfferingID: offering.Metadata.ID,
		Payin: message.CreateSelectedPayinMethod{
			Kind:           PayinKind,
			Amount:         amount,
			PaymentDetails: map[string]interface{}{"accountNumber": "12345"},
		},
		Payout: message.CreateSelectedPayoutMethod{
			Kind:           PayoutKind,
			PaymentDetails: map[string]interface{}{"phoneNumber": "+254712345678"},
		},
		Claims: []string{p.Claim(t, verifiable.Subject{"beep": "boop"})},
	}
}

// RFQ creates an rfq for offering signed by the customer.
func (p *Parties) RFQ(t *testing.T, offering *resource.Offering, amount string) *message.RFQ {
	t.Helper()

	rfq, err := message.CreateRFQ(p.Customer.URI, p.PFI.URI, p.RFQData(t, offering, amount))
	require.NoError(t, err)
	require.NoError(t, rfq.Sign(p.Customer))

	return rfq
}

// Quote creates a quote expiring after ttl, signed by the PFI.
func (p *Parties) Quote(t *testing.T, exchangeID string, ttl time.Duration) *message.Quote {
	t.Helper()

	quote, err := message.CreateQuote(p.PFI.URI, p.Customer.URI, exchangeID, message.QuoteData{
		ExpiresAt:               time.Now().Add(ttl).UTC().Format(time.RFC3339),
		PayoutUnitsPerPayinUnit: "1.0",
		Payin:                   message.QuoteDetails{CurrencyCode: "USD", Subtotal: "1000.00", Fee: "1.00", Total: "1001.00"},
		Payout:                  message.QuoteDetails{CurrencyCode: "KES", Subtotal: "1000.00", Total: "1000.00"},
	})
	require.NoError(t, err)
	require.NoError(t, quote.Sign(p.PFI))

	return quote
}

// Order creates an order signed by the customer.
func (p *Parties) Order(t *testing.T, exchangeID string) *message.Order {
	t.Helper()

	order, err := message.CreateOrder(p.Customer.URI, p.PFI.URI, exchangeID)
	require.NoError(t, err)
	require.NoError(t, order.Sign(p.Customer))

	return order
}

// OrderInstructions creates order instructions signed by the PFI.
func (p *Parties) OrderInstructions(t *testing.T, exchangeID string) *message.OrderInstructions {
	t.Helper()

	instructions, err := message.CreateOrderInstructions(p.PFI.URI, p.Customer.URI, exchangeID,
		message.OrderInstructionsData{
			Payin:  message.PaymentInstruction{Link: "https://pfi.example/pay", Instruction: "pay here"},
			Payout: message.PaymentInstruction{Instruction: "funds arrive by M-Pesa"},
		})
	require.NoError(t, err)
	require.NoError(t, instructions.Sign(p.PFI))

	return instructions
}

// Cancel creates a cancel signed by the customer.
func (p *Parties) Cancel(t *testing.T, exchangeID string) *message.Cancel {
	t.Helper()

	cancel, err := message.CreateCancel(p.Customer.URI, p.PFI.URI, exchangeID, message.CancelData{Reason: "changed my mind"})
	require.NoError(t, err)
	require.NoError(t, cancel.Sign(p.Customer))

	return cancel
}

// OrderStatus creates an order status signed by the PFI.
func (p *Parties) OrderStatus(t *testing.T, exchangeID string, status message.Status) *message.OrderStatus {
	t.Helper()

	orderStatus, err := message.CreateOrderStatus(p.PFI.URI, p.Customer.URI, exchangeID,
		message.OrderStatusData{Status: status})
	require.NoError(t, err)
	require.NoError(t, orderStatus.Sign(p.PFI))

	return orderStatus
}

// Close creates a close signed by the PFI.
func (p *Parties) Close(t *testing.T, exchangeID string, success bool) *message.Close {
	t.Helper()

	c, err := message.CreateClose(p.PFI.URI, p.Customer.URI, exchangeID, message.CloseData{Success: &success})
	require.NoError(t, err)
	require.NoError(t, c.Sign(p.PFI))

	return c
}
