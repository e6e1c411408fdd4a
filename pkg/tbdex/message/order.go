/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package message

// Order is the customer's acceptance of a quote.
type Order struct {
	Envelope[OrderData]
}

// OrderData is the empty payload of an order.
type OrderData struct{}

// CreateOrder creates an unsigned order from the customer to the PFI.
func CreateOrder(from, to, exchangeID string, opts ...Option) (*Order, error) {
	e, err := create(KindOrder, from, to, exchangeID, OrderData{}, opts)
	if err != nil {
		return nil, err
	}

	return &Order{Envelope: e}, nil
}

// ParseOrder parses and structurally validates an order. The signature is not verified.
func ParseOrder(data []byte) (*Order, error) {
	order := &Order{}

	err := parseEnvelope(data, KindOrder, &order.Envelope)
	if err != nil {
		return nil, err
	}

	return order, nil
}

// OrderInstructions tell the customer how to pay in and how the payout will reach them.
type OrderInstructions struct {
	Envelope[OrderInstructionsData]
}

// OrderInstructionsData is the payload of order instructions.
type OrderInstructionsData struct {
	Payin  PaymentInstruction `json:"payin"`
	Payout PaymentInstruction `json:"payout"`
}

// PaymentInstruction is a link and/or a free-form instruction for one side of the exchange.
type PaymentInstruction struct {
	Link        string `json:"link,omitempty" validate:"omitempty,url"`
	Instruction string `json:"instruction,omitempty"`
}

// CreateOrderInstructions creates unsigned order instructions from the PFI to the customer.
func CreateOrderInstructions(from, to, exchangeID string, data OrderInstructionsData,
	opts ...Option) (*OrderInstructions, error) {
	e, err := create(KindOrderInstructions, from, to, exchangeID, data, opts)
	if err != nil {
		return nil, err
	}

	return &OrderInstructions{Envelope: e}, nil
}

// ParseOrderInstructions parses and structurally validates order instructions. The signature is not verified.
func ParseOrderInstructions(data []byte) (*OrderInstructions, error) {
	instructions := &OrderInstructions{}

	err := parseEnvelope(data, KindOrderInstructions, &instructions.Envelope)
	if err != nil {
		return nil, err
	}

	return instructions, nil
}
