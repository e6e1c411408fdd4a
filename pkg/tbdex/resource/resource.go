/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package resource models the resources a PFI publishes unilaterally: offerings and balances.
package resource

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

// Kind is the resource kind.
type Kind string

// Resource kinds.
const (
	KindOffering Kind = "offering"
	KindBalance  Kind = "balance"
)

// Metadata is the metadata of every resource.
type Metadata struct {
	Kind      Kind   `json:"kind" validate:"oneof=offering balance"`
	From      string `json:"from" validate:"required,did"`
	ID        string `json:"id" validate:"required,typeid"`
	Protocol  string `json:"protocol" validate:"required"`
	CreatedAt string `json:"createdAt" validate:"required,timestamp"`
	UpdatedAt string `json:"updatedAt,omitempty" validate:"omitempty,timestamp"`
}

// Resource is a signed resource of any kind.
type Resource interface {
	// GetMetadata returns the resource metadata.
	GetMetadata() Metadata
	// GetSignature returns the detached compact JWS, empty until signed.
	GetSignature() string
	// Digest returns the digest the signature covers.
	Digest() ([]byte, error)
	// Sign signs the resource. A resource is signed once.
	Sign(bearer *bearerdid.BearerDID) error
	// Verify checks the signature was made by the key of metadata.from.
	Verify(resolver vdr.Resolver) error
}

// Envelope is the wire shape of a resource with data of type D.
type Envelope[D any] struct {
	Metadata  Metadata `json:"metadata"`
	Data      D        `json:"data"`
	Signature string   `json:"signature,omitempty"`
}

// GetMetadata returns the resource metadata.
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

// Sign signs the resource with the assertion key of bearer, which must be metadata.from.
func (e *Envelope[D]) Sign(bearer *bearerdid.BearerDID) error {
	if e.Signature != "" {
		return fmt.Errorf("sign %s: %w", e.Metadata.Kind, tbdex.ErrAlreadySigned)
	}

	if bearer.URI != e.Metadata.From {
		return fmt.Errorf("sign %s: signer %s is not the resource sender %s", e.Metadata.Kind, bearer.URI, e.Metadata.From)
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

func newMetadata(kind Kind, from string, opts []Option) (Metadata, error) {
	o := &options{protocol: tbdex.ProtocolVersion}

	for _, opt := range opts {
		opt(o)
	}

	id := o.id
	if id == "" {
		var err error

		id, err = typeid.New(string(kind))
		if err != nil {
			return Metadata{}, err
		}
	}

	return Metadata{
		Kind:      kind,
		From:      from,
		ID:        id,
		Protocol:  o.protocol,
		CreatedAt: tbdex.Now(),
	}, nil
}

type options struct {
	protocol string
	id       string
}

// Option configures resource creation.
type Option func(opts *options)

// WithProtocol sets the protocol version.
func WithProtocol(protocol string) Option {
	return func(opts *options) {
		opts.protocol = protocol
	}
}

// WithID keeps an existing resource id, for republishing an updated resource.
func WithID(id string) Option {
	return func(opts *options) {
		opts.id = id
	}
}

// Parse parses a resource of any kind.
func Parse(data []byte) (Resource, error) {
	var head struct {
		Metadata struct {
			Kind Kind `json:"kind"`
		} `json:"metadata"`
	}

	err := json.Unmarshal(data, &head)
	if err != nil {
		return nil, tbdexerr.Wrap(tbdexerr.MalformedMessage, err, "unmarshal resource")
	}

	switch head.Metadata.Kind {
	case KindOffering:
		return ParseOffering(data)
	case KindBalance:
		return ParseBalance(data)
	default:
		return nil, tbdexerr.New(tbdexerr.UnsupportedMessageKind, "unsupported resource kind %q", head.Metadata.Kind)
	}
}

func parseEnvelope[D any](data []byte, kind Kind, out *Envelope[D]) error {
	err := json.Unmarshal(data, out)
	if err != nil {
		return tbdexerr.Wrap(tbdexerr.MalformedMessage, err, "unmarshal %s", kind)
	}

	if out.Metadata.Kind != kind {
		return tbdexerr.New(tbdexerr.MalformedMessage, "expected kind %s, got %q", kind, out.Metadata.Kind)
	}

	return checkEnvelope(out)
}

func checkEnvelope[D any](e *Envelope[D]) error {
	err := validation.Struct(e)
	if err != nil {
		return err
	}

	if !typeid.HasPrefix(e.Metadata.ID, string(e.Metadata.Kind)) {
		return tbdexerr.New(tbdexerr.MalformedMessage, "id %s does not carry the %s prefix", e.Metadata.ID, e.Metadata.Kind)
	}

	return nil
}
