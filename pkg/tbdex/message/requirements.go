/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package message

import (
	"time"

	"github.com/samber/lo"

	"github.com/TBD54566975/tbdex-go/pkg/doc/verifiable"
	"github.com/TBD54566975/tbdex-go/pkg/tbdex/decimal"
	"github.com/TBD54566975/tbdex-go/pkg/tbdex/resource"
	"github.com/TBD54566975/tbdex-go/pkg/tbdex/tbdexerr"
	"github.com/TBD54566975/tbdex-go/pkg/vdr"
)

type verifyOpts struct {
	resolver vdr.Resolver
	now      func() time.Time
}

// VerifyOption configures offering requirement checks.
type VerifyOption func(opts *verifyOpts)

// WithClaimsResolver checks the signatures of the claims with keys resolved through resolver.
func WithClaimsResolver(resolver vdr.Resolver) VerifyOption {
	return func(opts *verifyOpts) {
		opts.resolver = resolver
	}
}

// WithClock sets the time source claim validity is checked against.
func WithClock(now func() time.Time) VerifyOption {
	return func(opts *verifyOpts) {
		opts.now = now
	}
}

func notMet(format string, args ...interface{}) error {
	return tbdexerr.New(tbdexerr.OfferingRequirementsNotMet, format, args...)
}

// VerifyOfferingRequirements checks the rfq against the offering it selects: offering id and protocol,
// payin method and amount, payout method, then the required claims.
func (r *RFQ) VerifyOfferingRequirements(offering *resource.Offering, opts ...VerifyOption) error {
	o := &verifyOpts{now: time.Now}

	for _, opt := range opts {
		opt(o)
	}

	if r.Data.OfferingID != offering.Metadata.ID {
		return notMet("offering id mismatch: rfq selects %s, offering is %s", r.Data.OfferingID, offering.Metadata.ID)
	}

	if r.Metadata.Protocol != offering.Metadata.Protocol {
		return notMet("protocol version mismatch: rfq uses %s, offering uses %s",
			r.Metadata.Protocol, offering.Metadata.Protocol)
	}

	err := r.verifyPayin(offering)
	if err != nil {
		return err
	}

	err = r.verifyPayout(offering)
	if err != nil {
		return err
	}

	return r.verifyClaims(offering, o)
}

func (r *RFQ) verifyPayin(offering *resource.Offering) error {
	method, ok := offering.PayinMethod(r.Data.Payin.Kind)
	if !ok {
		return notMet("payin kind %s is not one of the offering payin methods", r.Data.Payin.Kind)
	}

	amount := r.Data.Payin.Amount

	inRange, err := decimal.InRange(amount, offering.Data.Payin.Min, offering.Data.Payin.Max)
	if err != nil {
		return tbdexerr.Wrap(tbdexerr.OfferingRequirementsNotMet, err, "payin amount")
	}

	if !inRange {
		return notMet("payin amount %s is outside the offering range [%s, %s]", amount,
			offering.Data.Payin.Min, offering.Data.Payin.Max)
	}

	inRange, err = decimal.InRange(amount, method.Min, method.Max)
	if err != nil {
		return tbdexerr.Wrap(tbdexerr.OfferingRequirementsNotMet, err, "payin amount")
	}

	if !inRange {
		return notMet("payin amount %s is outside the range [%s, %s] of payin method %s", amount,
			method.Min, method.Max, method.Kind)
	}

	var details *PrivatePaymentDetails
	if r.PrivateData != nil {
		details = r.PrivateData.Payin
	}

	return verifyPaymentDetails("payin", method, r.Data.Payin.PaymentDetailsHash, details)
}

func (r *RFQ) verifyPayout(offering *resource.Offering) error {
	method, ok := offering.PayoutMethod(r.Data.Payout.Kind)
	if !ok {
		return notMet("payout kind %s is not one of the offering payout methods", r.Data.Payout.Kind)
	}

	var details *PrivatePaymentDetails
	if r.PrivateData != nil {
		details = r.PrivateData.Payout
	}

	return verifyPaymentDetails("payout", &method.PayinMethod, r.Data.Payout.PaymentDetailsHash, details)
}

// verifyPaymentDetails validates disclosed payment details against the method schema. Details
// committed to but withheld cannot be checked and pass.
func verifyPaymentDetails(side string, method *resource.PayinMethod, hash string, details *PrivatePaymentDetails) error {
	if len(method.RequiredPaymentDetails) == 0 {
		return nil
	}

	if details == nil || details.PaymentDetails == nil {
		if hash != "" {
			return nil
		}

		return notMet("%s method %s requires payment details", side, method.Kind)
	}

	err := method.ValidatePaymentDetails(details.PaymentDetails)
	if err != nil {
		return tbdexerr.Wrap(tbdexerr.OfferingRequirementsNotMet, err, "%s payment details do not match method %s",
			side, method.Kind)
	}

	return nil
}

func (r *RFQ) verifyClaims(offering *resource.Offering, o *verifyOpts) error {
	pd := offering.Data.RequiredClaims
	if pd == nil {
		return nil
	}

	var claims []string
	if r.PrivateData != nil {
		claims = r.PrivateData.Claims
	}

	if len(claims) == 0 {
		return notMet("offering requires claims but the rfq has none")
	}

	credOpts := []verifiable.CredentialOpt{verifiable.WithClock(o.now)}
	if o.resolver != nil {
		credOpts = append(credOpts, verifiable.WithResolver(o.resolver))
	}

	credentials := make([]*verifiable.Credential, 0, len(claims))

	for i, claim := range claims {
		vc, err := verifiable.ParseJWT(claim, credOpts...)
		if err != nil {
			return tbdexerr.Wrap(tbdexerr.OfferingRequirementsNotMet, err, "claim %d", i)
		}

		credentials = append(credentials, vc)
	}

	selected, err := pd.SelectCredentials(credentials)
	if err != nil {
		return tbdexerr.Wrap(tbdexerr.OfferingRequirementsNotMet, err, "required claims")
	}

	foreign := lo.Filter(selected, func(vc *verifiable.Credential, _ int) bool {
		return vc.Claims.Subject != "" && vc.Claims.Subject != r.Metadata.From
	})

	if len(foreign) > 0 {
		return notMet("claim %s is about %s, not the rfq sender", foreign[0].ID, foreign[0].Claims.Subject)
	}

	return nil
}
