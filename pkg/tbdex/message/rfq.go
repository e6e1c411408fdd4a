/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package message

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"fmt"

	"github.com/TBD54566975/tbdex-go/pkg/tbdex/canonical"
	"github.com/TBD54566975/tbdex-go/pkg/tbdex/tbdexerr"
	"github.com/TBD54566975/tbdex-go/pkg/tbdex/validation"
)

const saltLength = 16

// RFQ asks a PFI for a quote against one of its offerings. It opens an exchange.
type RFQ struct {
	Envelope[RFQData]
	PrivateData *RFQPrivateData `json:"privateData,omitempty"`
}

// RFQData is the public payload of an rfq. Private values appear only as salted hashes.
type RFQData struct {
	OfferingID string               `json:"offeringId" validate:"required,typeid"`
	Payin      SelectedPayinMethod  `json:"payin"`
	Payout     SelectedPayoutMethod `json:"payout"`
	ClaimsHash string               `json:"claimsHash,omitempty"`
}

// SelectedPayinMethod is the payin method and amount the customer selected.
type SelectedPayinMethod struct {
	Kind               string `json:"kind" validate:"required"`
	Amount             string `json:"amount" validate:"required,decimal"`
	PaymentDetailsHash string `json:"paymentDetailsHash,omitempty"`
}

// SelectedPayoutMethod is the payout method the customer selected.
type SelectedPayoutMethod struct {
	Kind               string `json:"kind" validate:"required"`
	PaymentDetailsHash string `json:"paymentDetailsHash,omitempty"`
}

// RFQPrivateData holds the values committed to by the hashes of RFQData. It is not signed.
type RFQPrivateData struct {
	Salt   string                 `json:"salt"`
	Payin  *PrivatePaymentDetails `json:"payin,omitempty"`
	Payout *PrivatePaymentDetails `json:"payout,omitempty"`
	Claims []string               `json:"claims,omitempty"`
}

// PrivatePaymentDetails are the payment details of one side of an rfq.
type PrivatePaymentDetails struct {
	PaymentDetails map[string]interface{} `json:"paymentDetails"`
}

// CreateRFQData is the rfq content before its private values are committed to.
type CreateRFQData struct {
	OfferingID string
	Payin      CreateSelectedPayinMethod
	Payout     CreateSelectedPayoutMethod
	// Claims are VC-JWTs satisfying the offering's required claims.
	Claims []string
}

// CreateSelectedPayinMethod is a payin selection with its private payment details.
type CreateSelectedPayinMethod struct {
	Kind           string
	Amount         string
	PaymentDetails map[string]interface{}
}

// CreateSelectedPayoutMethod is a payout selection with its private payment details.
type CreateSelectedPayoutMethod struct {
	Kind           string
	PaymentDetails map[string]interface{}
}

// CreateRFQ creates an unsigned rfq from the customer to the PFI. Payment details and claims are
// moved to the private data and replaced by salted hashes.
func CreateRFQ(from, to string, data CreateRFQData, opts ...Option) (*RFQ, error) {
	salt, err := newSalt()
	if err != nil {
		return nil, fmt.Errorf("create rfq: %w", err)
	}

	public := RFQData{
		OfferingID: data.OfferingID,
		Payin:      SelectedPayinMethod{Kind: data.Payin.Kind, Amount: data.Payin.Amount},
		Payout:     SelectedPayoutMethod{Kind: data.Payout.Kind},
	}

	private := &RFQPrivateData{Salt: salt}

	if data.Payin.PaymentDetails != nil {
		private.Payin = &PrivatePaymentDetails{PaymentDetails: data.Payin.PaymentDetails}

		public.Payin.PaymentDetailsHash, err = commitment(salt, data.Payin.PaymentDetails)
		if err != nil {
			return nil, fmt.Errorf("create rfq: payin details: %w", err)
		}
	}

	if data.Payout.PaymentDetails != nil {
		private.Payout = &PrivatePaymentDetails{PaymentDetails: data.Payout.PaymentDetails}

		public.Payout.PaymentDetailsHash, err = commitment(salt, data.Payout.PaymentDetails)
		if err != nil {
			return nil, fmt.Errorf("create rfq: payout details: %w", err)
		}
	}

	if len(data.Claims) > 0 {
		private.Claims = data.Claims

		public.ClaimsHash, err = commitment(salt, data.Claims)
		if err != nil {
			return nil, fmt.Errorf("create rfq: claims: %w", err)
		}
	}

	e, err := create(KindRFQ, from, to, "", public, opts)
	if err != nil {
		return nil, err
	}

	rfq := &RFQ{Envelope: e}

	if private.Payin != nil || private.Payout != nil || private.Claims != nil {
		rfq.PrivateData = private
	}

	return rfq, nil
}

// ParseRFQ parses an rfq and checks its private data against the public hashes. With
// requireAllPrivateData every hash needs its private value; otherwise only the private values
// present are checked. The signature is not verified.
func ParseRFQ(data []byte, requireAllPrivateData bool) (*RFQ, error) {
	rfq := &RFQ{}

	err := json.Unmarshal(data, rfq)
	if err != nil {
		return nil, tbdexerr.Wrap(tbdexerr.MalformedMessage, err, "unmarshal rfq")
	}

	err = checkEnvelope(&rfq.Envelope, KindRFQ)
	if err != nil {
		return nil, err
	}

	if rfq.PrivateData != nil {
		err = validation.Struct(rfq.PrivateData)
		if err != nil {
			return nil, err
		}
	}

	if requireAllPrivateData {
		err = rfq.VerifyAllPrivateData()
	} else {
		err = rfq.VerifyPresentPrivateData()
	}

	if err != nil {
		return nil, err
	}

	return rfq, nil
}

// VerifyAllPrivateData checks that every hash in the rfq data has its private value and that
// the value hashes to it. Private values without a public hash fail as well.
func (r *RFQ) VerifyAllPrivateData() error {
	private := r.PrivateData
	if private == nil {
		private = &RFQPrivateData{}
	}

	for _, c := range r.commitments(private) {
		if c.hash == "" && !c.present {
			continue
		}

		if c.hash == "" {
			return tbdexerr.New(tbdexerr.HashMismatch, "private %s has no hash in the rfq data", c.name)
		}

		if !c.present {
			return tbdexerr.New(tbdexerr.HashMismatch, "private %s is missing", c.name)
		}

		err := verifyCommitment(c, private.Salt)
		if err != nil {
			return err
		}
	}

	return nil
}

// VerifyPresentPrivateData checks the private values that are present against their hashes.
// Hashes without a private value are ignored.
func (r *RFQ) VerifyPresentPrivateData() error {
	if r.PrivateData == nil {
		return nil
	}

	for _, c := range r.commitments(r.PrivateData) {
		if !c.present {
			continue
		}

		if c.hash == "" {
			return tbdexerr.New(tbdexerr.HashMismatch, "private %s has no hash in the rfq data", c.name)
		}

		err := verifyCommitment(c, r.PrivateData.Salt)
		if err != nil {
			return err
		}
	}

	return nil
}

type committed struct {
	name    string
	hash    string
	value   interface{}
	present bool
}

func (r *RFQ) commitments(private *RFQPrivateData) []committed {
	payin := committed{name: "payin.paymentDetails", hash: r.Data.Payin.PaymentDetailsHash}
	if private.Payin != nil && private.Payin.PaymentDetails != nil {
		payin.value, payin.present = private.Payin.PaymentDetails, true
	}

	payout := committed{name: "payout.paymentDetails", hash: r.Data.Payout.PaymentDetailsHash}
	if private.Payout != nil && private.Payout.PaymentDetails != nil {
		payout.value, payout.present = private.Payout.PaymentDetails, true
	}

	claims := committed{name: "claims", hash: r.Data.ClaimsHash}
	if private.Claims != nil {
		claims.value, claims.present = private.Claims, true
	}

	return []committed{payin, payout, claims}
}

func verifyCommitment(c committed, salt string) error {
	if salt == "" {
		return tbdexerr.New(tbdexerr.HashMismatch, "private data has no salt")
	}

	digest, err := commitment(salt, c.value)
	if err != nil {
		return tbdexerr.Wrap(tbdexerr.HashMismatch, err, "hash private %s", c.name)
	}

	if digest != c.hash {
		return tbdexerr.New(tbdexerr.HashMismatch, "private %s does not match its hash", c.name)
	}

	return nil
}

// commitment returns base64url(SHA-256(JCS([salt, value]))).
func commitment(salt string, value interface{}) (string, error) {
	canonicalized, err := canonical.Canonicalize([]interface{}{salt, value})
	if err != nil {
		return "", err
	}

	sum := sha256.Sum256(canonicalized)

	return base64.RawURLEncoding.EncodeToString(sum[:]), nil
}

func newSalt() (string, error) {
	salt := make([]byte, saltLength)

	_, err := rand.Read(salt)
	if err != nil {
		return "", fmt.Errorf("generate salt: %w", err)
	}

	return base64.RawURLEncoding.EncodeToString(salt), nil
}
