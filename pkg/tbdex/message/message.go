/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package message models the seven signed tbDEX message kinds exchanged between a customer and a PFI.
package message

import (
	"encoding/json"
	"fmt"

	"github.com/TBD54566975/tbdex-go/pkg/bearerdid"
	"github.com/TBD54566975/tbdex-go/pkg/tbdex"
	"github.com/TBD54566975/tbdex-go/pkg/tbdex/canonical"
	"github.com/TBD54566975/tbdex-go/pkg/tbdex/signature"
	"github.com/TBD54566975/tbdex-go/pkg/tbdex/tbdexerr"
	"github.com/TBD54566975/tbdex-go/pkg/tbdex/typeid"
	"github.com/TBD54566975/tbdex-go/pkg/tbdex/validation"
	"github.com/TBD54566975/tbdex-go/pkg/vdr"
)

// Kind is the message kind.
type Kind string

// Message kinds.
const (
	KindRFQ               Kind = "rfq"
	KindQuote             Kind = "quote"
	KindOrder             Kind = "order"
	KindOrderInstructions Kind = "orderinstructions"
	KindCancel            Kind = "cancel"
	KindOrderStatus       Kind = "orderstatus"
	KindClose             Kind = "close"
)

// Kinds lists every message kind in the order they appear in an exchange.
//
//nolint:gochecknoglobals
var Kinds = []Kind{KindRFQ, KindQuote, KindOrder, KindOrderInstructions, KindCancel, KindOrderStatus, KindClose}

// SentByPFI reports whether messages of the kind are sent by the PFI rather than the customer.
func (k Kind) SentByPFI() bool {
	switch k {
	case KindQuote, KindOrderInstructions, KindOrderStatus, KindClose:
		return true
	default:
		return false
	}
}

// Metadata is the metadata of every message.
type Metadata struct {
	From       string `json:"from" validate:"required,did"`
	To         string `json:"to" validate:"required,did"`
	Kind       Kind   `json:"kind" validate:"oneof=rfq quote order orderinstructions cancel orderstatus close"`
	ID         string `json:"id" validate:"required,typeid"`
	ExchangeID string `json:"exchangeId" validate:"required,typeid"`
	ExternalID string `json:"externalId,omitempty"`
	Protocol   string `json:"protocol" validate:"required"`
	CreatedAt  string `json:"createdAt" validate:"required,timestamp"`
}

// Message is a signed message of any kind.
type Message interface {
	// GetMetadata returns the message metadata.
	GetMetadata() Metadata
	// GetSignature returns the detached compact JWS, empty until signed.
	GetSignature() string
	// Digest returns the digest the signature covers.
	Digest() ([]byte, error)
	// Sign signs the message. A message is signed once.
	Sign(bearer *bearerdid.BearerDID) error
	// Verify checks the signature was made by the key of metadata.from.
	Verify(resolver vdr.Resolver) error
}

// Envelope is the wire shape of a message with data of type D.
type Envelope[D any] struct {
	Metadata  Metadata `json:"metadata"`
	Data      D        `json:"data"`
	Signature string   `json:"signature,omitempty"`
}

// GetMetadata returns the message metadata.
func (e *Envelope[D]) GetMetadata() Metadata {
	return e.Metadata
}

// GetSignature returns the signature.
func (e *Envelope[D]) GetSignature() string {
	return e.Signature
}

// Digest returns SHA-256 over the canonical form of {metadata, data}.
func (e *Envelope[D]) Digest() ([]byte, error) {
	return canonical.Digest(struct {
		Metadata Metadata `json:"metadata"`
		Data     D        `json:"data"`
	}{Metadata: e.Metadata, Data: e.Data})
}

// Sign signs the message with the assertion key of bearer, which must be metadata.from.
func (e *Envelope[D]) Sign(bearer *bearerdid.BearerDID) error {
	if e.Signature != "" {
		return fmt.Errorf("sign %s: %w", e.Metadata.Kind, tbdex.ErrAlreadySigned)
	}

	if bearer.URI != e.Metadata.From {
		return fmt.Errorf("sign %s: signer %s is not the message sender %s", e.Metadata.Kind, bearer.URI, e.Metadata.From)
	}

	digest, err := e.Digest()
	if err != nil {
		return fmt.Errorf("sign %s: %w", e.Metadata.Kind, err)
	}

	signer, err := bearer.GetSigner("")
	if err != nil {
		return fmt.Errorf("sign %s: %w", e.Metadata.Kind, err)
	}

	sig, err := signature.Sign(digest, signer)
	if err != nil {
		return fmt.Errorf("sign %s: %w", e.Metadata.Kind, err)
	}

	e.Signature = sig

	return nil
}

// Verify checks the signature and that its signer is metadata.from.
func (e *Envelope[D]) Verify(resolver vdr.Resolver) error {
	digest, err := e.Digest()
	if err != nil {
		return tbdexerr.Wrap(tbdexerr.MalformedMessage, err, "digest %s", e.Metadata.Kind)
	}

	signer, err := signature.Verify(digest, e.Signature, resolver)
	if err != nil {
		return err
	}

	if signer != e.Metadata.From {
		return tbdexerr.New(tbdexerr.InvalidSignature, "%s signed by %s, not by its sender %s",
			e.Metadata.Kind, signer, e.Metadata.From)
	}

	return nil
}

type options struct {
	protocol   string
	externalID string
}

// Option configures message creation.
type Option func(opts *options)

// WithProtocol sets the protocol version.
func WithProtocol(protocol string) Option {
	return func(opts *options) {
		opts.protocol = protocol
	}
}

// WithExternalID sets an identifier the sender correlates the exchange with in its own systems.
func WithExternalID(externalID string) Option {
	return func(opts *options) {
		opts.externalID = externalID
	}
}

// newMetadata creates the metadata of a new message. An empty exchangeID starts a new exchange
// whose id is the message id.
func newMetadata(kind Kind, from, to, exchangeID string, opts []Option) (Metadata, error) {
	o := &options{protocol: tbdex.ProtocolVersion}

	for _, opt := range opts {
		opt(o)
	}

	id, err := typeid.New(string(kind))
	if err != nil {
		return Metadata{}, fmt.Errorf("create %s: %w", kind, err)
	}

	if exchangeID == "" {
		exchangeID = id
	}

	return Metadata{
		From:       from,
		To:         to,
		Kind:       kind,
		ID:         id,
		ExchangeID: exchangeID,
		ExternalID: o.externalID,
		Protocol:   o.protocol,
		CreatedAt:  tbdex.Now(),
	}, nil
}

func create[D any](kind Kind, from, to, exchangeID string, data D, opts []Option) (Envelope[D], error) {
	metadata, err := newMetadata(kind, from, to, exchangeID, opts)
	if err != nil {
		return Envelope[D]{}, err
	}

	e := Envelope[D]{Metadata: metadata, Data: data}

	err = checkEnvelope(&e, kind)
	if err != nil {
		return Envelope[D]{}, err
	}

	return e, nil
}

func parseEnvelope[D any](data []byte, kind Kind, out *Envelope[D]) error {
	err := json.Unmarshal(data, out)
	if err != nil {
		return tbdexerr.Wrap(tbdexerr.MalformedMessage, err, "unmarshal %s", kind)
	}

	return checkEnvelope(out, kind)
}

func checkEnvelope[D any](e *Envelope[D], kind Kind) error {
	if e.Metadata.Kind != kind {
		return tbdexerr.New(tbdexerr.MalformedMessage, "expected kind %s, got %q", kind, e.Metadata.Kind)
	}

	err := validation.Struct(e)
	if err != nil {
		return err
	}

	if !typeid.HasPrefix(e.Metadata.ID, string(kind)) {
		return tbdexerr.New(tbdexerr.MalformedMessage, "id %s does not carry the %s prefix", e.Metadata.ID, kind)
	}

	if !typeid.HasPrefix(e.Metadata.ExchangeID, string(KindRFQ)) {
		return tbdexerr.New(tbdexerr.MalformedMessage, "exchangeId %s is not an rfq id", e.Metadata.ExchangeID)
	}

	if kind == KindRFQ && e.Metadata.ExchangeID != e.Metadata.ID {
		return tbdexerr.New(tbdexerr.MalformedMessage, "rfq exchangeId %s differs from its id %s",
			e.Metadata.ExchangeID, e.Metadata.ID)
	}

	return nil
}

// Parse parses a message of any kind. An rfq has its present private data checked against its hashes.
// The signature is not verified.
func Parse(data []byte) (Message, error) {
	var head struct {
		Metadata struct {
			Kind Kind `json:"kind"`
		} `json:"metadata"`
	}

	err := json.Unmarshal(data, &head)
	if err != nil {
		return nil, tbdexerr.Wrap(tbdexerr.MalformedMessage, err, "unmarshal message")
	}

	switch head.Metadata.Kind {
	case KindRFQ:
		return ParseRFQ(data, false)
	case KindQuote:
		return ParseQuote(data)
	case KindOrder:
		return ParseOrder(data)
	case KindOrderInstructions:
		return ParseOrderInstructions(data)
	case KindCancel:
		return ParseCancel(data)
	case KindOrderStatus:
		return ParseOrderStatus(data)
	case KindClose:
		return ParseClose(data)
	default:
		return nil, tbdexerr.New(tbdexerr.UnsupportedMessageKind, "unsupported message kind %q", head.Metadata.Kind)
	}
}
