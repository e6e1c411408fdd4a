/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package resource

import (
	"errors"
	"fmt"
	"strings"

	"github.com/samber/lo"
	"github.com/xeipuuv/gojsonschema"

	"github.com/TBD54566975/tbdex-go/pkg/doc/presexch"
	"github.com/TBD54566975/tbdex-go/pkg/tbdex/tbdexerr"
)

// Offering describes the currency pair a PFI exchanges, at what rate and with which payment methods.
type Offering struct {
	Envelope[OfferingData]
}

// OfferingData is the payload of an offering.
type OfferingData struct {
	Description             string                           `json:"description" validate:"required"`
	PayoutUnitsPerPayinUnit string                           `json:"payoutUnitsPerPayinUnit" validate:"required,decimal"`
	Payin                   PayinDetails                     `json:"payin"`
	Payout                  PayoutDetails                    `json:"payout"`
	RequiredClaims          *presexch.PresentationDefinition `json:"requiredClaims,omitempty" validate:"-"`
	Cancellation            CancellationDetails              `json:"cancellation"`
}

// PayinDetails lists the ways a customer can pay the PFI.
type PayinDetails struct {
	CurrencyCode string        `json:"currencyCode" validate:"required"`
	Min          string        `json:"min,omitempty" validate:"omitempty,decimal"`
	Max          string        `json:"max,omitempty" validate:"omitempty,decimal"`
	Methods      []PayinMethod `json:"methods" validate:"required,min=1,dive"`
}

// PayoutDetails lists the ways a PFI can pay the customer.
type PayoutDetails struct {
	CurrencyCode string         `json:"currencyCode" validate:"required"`
	Min          string         `json:"min,omitempty" validate:"omitempty,decimal"`
	Max          string         `json:"max,omitempty" validate:"omitempty,decimal"`
	Methods      []PayoutMethod `json:"methods" validate:"required,min=1,dive"`
}

// PayinMethod is a payment method. RequiredPaymentDetails is a JSON Schema the customer's
// payment details must be valid against.
type PayinMethod struct {
	Kind                   string                 `json:"kind" validate:"required"`
	Name                   string                 `json:"name,omitempty"`
	Description            string                 `json:"description,omitempty"`
	Group                  string                 `json:"group,omitempty"`
	RequiredPaymentDetails map[string]interface{} `json:"requiredPaymentDetails,omitempty"`
	Fee                    string                 `json:"fee,omitempty" validate:"omitempty,decimal"`
	Min                    string                 `json:"min,omitempty" validate:"omitempty,decimal"`
	Max                    string                 `json:"max,omitempty" validate:"omitempty,decimal"`
}

// PayoutMethod is a payment method with its estimated settlement time in seconds.
type PayoutMethod struct {
	PayinMethod
	EstimatedSettlementTime uint64 `json:"estimatedSettlementTime"`
}

// CancellationDetails states whether and on which terms an exchange can be cancelled.
type CancellationDetails struct {
	Enabled  bool   `json:"enabled"`
	TermsURL string `json:"termsUrl,omitempty" validate:"omitempty,url"`
	Terms    string `json:"terms,omitempty"`
}

// CreateOffering creates an unsigned offering published by from.
func CreateOffering(from string, data OfferingData, opts ...Option) (*Offering, error) {
	metadata, err := newMetadata(KindOffering, from, opts)
	if err != nil {
		return nil, fmt.Errorf("create offering: %w", err)
	}

	offering := &Offering{Envelope[OfferingData]{Metadata: metadata, Data: data}}

	err = offering.validate()
	if err != nil {
		return nil, err
	}

	return offering, nil
}

// ParseOffering parses and structurally validates an offering. The signature is not verified.
func ParseOffering(data []byte) (*Offering, error) {
	offering := &Offering{}

	err := parseEnvelope(data, KindOffering, &offering.Envelope)
	if err != nil {
		return nil, err
	}

	err = offering.validate()
	if err != nil {
		return nil, err
	}

	return offering, nil
}

func (o *Offering) validate() error {
	err := checkEnvelope(&o.Envelope)
	if err != nil {
		return err
	}

	if o.Data.RequiredClaims != nil {
		err = o.Data.RequiredClaims.ValidateSchema()
		if err != nil {
			return tbdexerr.Wrap(tbdexerr.MalformedMessage, err, "offering requiredClaims")
		}
	}

	for _, kinds := range [][]string{
		lo.Map(o.Data.Payin.Methods, func(m PayinMethod, _ int) string { return m.Kind }),
		lo.Map(o.Data.Payout.Methods, func(m PayoutMethod, _ int) string { return m.Kind }),
	} {
		if dup := lo.FindDuplicates(kinds); len(dup) > 0 {
			return tbdexerr.New(tbdexerr.MalformedMessage, "offering lists payment method kinds more than once: %s",
				strings.Join(dup, ", "))
		}
	}

	return nil
}

// PayinMethod returns the payin method of the kind.
func (o *Offering) PayinMethod(kind string) (*PayinMethod, bool) {
	m, ok := lo.Find(o.Data.Payin.Methods, func(m PayinMethod) bool { return m.Kind == kind })
	if !ok {
		return nil, false
	}

	return &m, true
}

// PayoutMethod returns the payout method of the kind.
func (o *Offering) PayoutMethod(kind string) (*PayoutMethod, bool) {
	m, ok := lo.Find(o.Data.Payout.Methods, func(m PayoutMethod) bool { return m.Kind == kind })
	if !ok {
		return nil, false
	}

	return &m, true
}

// ValidatePaymentDetails validates payment details against the method's requiredPaymentDetails schema.
// Methods without a schema accept any details.
func (m *PayinMethod) ValidatePaymentDetails(details map[string]interface{}) error {
	if len(m.RequiredPaymentDetails) == 0 {
		return nil
	}

	if details == nil {
		details = map[string]interface{}{}
	}

	result, err := gojsonschema.Validate(
		gojsonschema.NewGoLoader(m.RequiredPaymentDetails),
		gojsonschema.NewGoLoader(details),
	)
	if err != nil {
		return fmt.Errorf("requiredPaymentDetails of %s: %w", m.Kind, err)
	}

	if result.Valid() {
		return nil
	}

	errs := lo.Map(result.Errors(), func(e gojsonschema.ResultError, _ int) string { return e.String() })

	return errors.New(strings.Join(errs, ","))
}
