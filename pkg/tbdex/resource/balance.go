/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package resource

import "fmt"

// Balance is the amount of a currency a customer holds with the PFI.
type Balance struct {
	Envelope[BalanceData]
}

// BalanceData is the payload of a balance.
type BalanceData struct {
	CurrencyCode string `json:"currencyCode" validate:"required"`
	Available    string `json:"available" validate:"required,decimal"`
}

// CreateBalance creates an unsigned balance published by from.
func CreateBalance(from string, data BalanceData, opts ...Option) (*Balance, error) {
	metadata, err := newMetadata(KindBalance, from, opts)
	if err != nil {
		return nil, fmt.Errorf("create balance: %w", err)
	}

	balance := &Balance{Envelope[BalanceData]{Metadata: metadata, Data: data}}

	err = checkEnvelope(&balance.Envelope)
	if err != nil {
		return nil, err
	}

	return balance, nil
}

// ParseBalance parses and structurally validates a balance. The signature is not verified.
func ParseBalance(data []byte) (*Balance, error) {
	balance := &Balance{}

	err := parseEnvelope(data, KindBalance, &balance.Envelope)
	if err != nil {
		return nil, err
	}

	return balance, nil
}
