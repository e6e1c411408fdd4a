/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package did models DID documents as far as tbDEX needs them: verification methods carrying
// JWKs and the PFI service endpoint.
package did

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/TBD54566975/tbdex-go/pkg/doc/jose/jwk"
)

const (
	// ContextV1 of the DID document.
	ContextV1 = "https://www.w3.org/ns/did/v1"

	// JSONWebKey2020 is the verification method type carrying a publicKeyJwk.
	JSONWebKey2020 = "JsonWebKey2020"

	// PFIServiceType is the service type a PFI advertises its tbDEX HTTP API under.
	PFIServiceType = "PFI"
)

// ErrVerificationMethodNotFound is returned when a DID URL does not dereference to a verification method.
var ErrVerificationMethodNotFound = errors.New("verification method not found")

// didRegex follows the generic syntax: https://www.w3.org/TR/did-core/#did-syntax
var didRegex = regexp.MustCompile(`^did:([a-z0-9]+):((?:[a-zA-Z0-9._%-]*:)*[a-zA-Z0-9._%-]+)$`) //nolint:gochecknoglobals

// DID is parsed according to the generic syntax: https://w3c.github.io/did-core/#generic-did-syntax
type DID struct {
	Scheme           string // Scheme is always "did"
	Method           string // Method is the specific DID methods
	MethodSpecificID string // MethodSpecificID is the unique ID computed or assigned by the DID method
}

// String returns a string representation of this DID.
func (d *DID) String() string {
	return fmt.Sprintf("%s:%s:%s", d.Scheme, d.Method, d.MethodSpecificID)
}

// Parse parses the string according to the generic DID syntax.
func Parse(did string) (*DID, error) {
	m := didRegex.FindStringSubmatch(did)
	if m == nil {
		return nil, fmt.Errorf("invalid did: %s. Make sure it conforms to the DID syntax", did)
	}

	return &DID{Scheme: "did", Method: m[1], MethodSpecificID: m[2]}, nil
}

// DIDURL is a DID with an optional path, query and fragment.
type DIDURL struct {
	DID
	Path     string
	Query    string
	Fragment string
}

// ParseDIDURL parses a DID URL such as a JWS kid ("did:jwk:...#0").
func ParseDIDURL(didURL string) (*DIDURL, error) {
	rest := didURL
	u := &DIDURL{}

	if i := strings.IndexByte(rest, '#'); i >= 0 {
		u.Fragment = rest[i+1:]
		rest = rest[:i]
	}

	if i := strings.IndexByte(rest, '?'); i >= 0 {
		u.Query = rest[i+1:]
		rest = rest[:i]
	}

	if i := strings.IndexByte(rest, '/'); i >= 0 {
		u.Path = rest[i:]
		rest = rest[:i]
	}

	d, err := Parse(rest)
	if err != nil {
		return nil, err
	}

	u.DID = *d

	return u, nil
}

// Doc DID Document definition.
type Doc struct {
	Context            []string
	ID                 string
	Controller         []string
	AlsoKnownAs        []string
	VerificationMethod []VerificationMethod
	Authentication     []string
	AssertionMethod    []string
	CapabilityInvoke   []string
	CapabilityDelegate []string
	Service            []Service
}

// VerificationMethod DID doc verification method.
type VerificationMethod struct {
	ID           string   `json:"id"`
	Type         string   `json:"type"`
	Controller   string   `json:"controller"`
	PublicKeyJwk *jwk.JWK `json:"publicKeyJwk,omitempty"`
}

// Service DID doc service.
type Service struct {
	ID              string
	Type            string
	ServiceEndpoint []string
}

type rawDoc struct {
	Context            interface{}       `json:"@context,omitempty"`
	ID                 string            `json:"id"`
	Controller         interface{}       `json:"controller,omitempty"`
	AlsoKnownAs        []string          `json:"alsoKnownAs,omitempty"`
	VerificationMethod []json.RawMessage `json:"verificationMethod,omitempty"`
	Authentication     []json.RawMessage `json:"authentication,omitempty"`
	AssertionMethod    []json.RawMessage `json:"assertionMethod,omitempty"`
	CapabilityInvoke   []json.RawMessage `json:"capabilityInvocation,omitempty"`
	CapabilityDelegate []json.RawMessage `json:"capabilityDelegation,omitempty"`
	Service            []rawService      `json:"service,omitempty"`
}

type rawService struct {
	ID              string      `json:"id"`
	Type            string      `json:"type"`
	ServiceEndpoint interface{} `json:"serviceEndpoint"`
}

// ParseDocument creates an instance of DIDDocument by reading a JSON document from bytes.
func ParseDocument(data []byte) (*Doc, error) {
	doc := &Doc{}

	if err := json.Unmarshal(data, doc); err != nil {
		return nil, err
	}

	return doc, nil
}

// UnmarshalJSON reads a DID document. Embedded verification methods in verification
// relationships are moved to VerificationMethod and referenced by id.
func (doc *Doc) UnmarshalJSON(data []byte) error {
	raw := &rawDoc{}

	if err := json.Unmarshal(data, raw); err != nil {
		return fmt.Errorf("unmarshal DID doc: %w", err)
	}

	if raw.ID == "" {
		return errors.New("unmarshal DID doc: id is required")
	}

	doc.ID = raw.ID
	doc.Context = stringOrArray(raw.Context)
	doc.Controller = stringOrArray(raw.Controller)
	doc.AlsoKnownAs = raw.AlsoKnownAs
	doc.VerificationMethod = nil

	for _, m := range raw.VerificationMethod {
		var vm VerificationMethod

		if err := json.Unmarshal(m, &vm); err != nil {
			return fmt.Errorf("unmarshal verification method: %w", err)
		}

		doc.VerificationMethod = append(doc.VerificationMethod, vm)
	}

	var err error

	for _, rel := range []struct {
		raw []json.RawMessage
		out *[]string
	}{
		{raw.Authentication, &doc.Authentication},
		{raw.AssertionMethod, &doc.AssertionMethod},
		{raw.CapabilityInvoke, &doc.CapabilityInvoke},
		{raw.CapabilityDelegate, &doc.CapabilityDelegate},
	} {
		*rel.out, err = doc.parseRelationship(rel.raw)
		if err != nil {
			return err
		}
	}

	doc.Service = nil

	for _, s := range raw.Service {
		doc.Service = append(doc.Service, Service{
			ID:              s.ID,
			Type:            s.Type,
			ServiceEndpoint: stringOrArray(s.ServiceEndpoint),
		})
	}

	return nil
}

func (doc *Doc) parseRelationship(entries []json.RawMessage) ([]string, error) {
	var ids []string

	for _, entry := range entries {
		var ref string
		if err := json.Unmarshal(entry, &ref); err == nil {
			ids = append(ids, ref)

			continue
		}

		var vm VerificationMethod
		if err := json.Unmarshal(entry, &vm); err != nil {
			return nil, fmt.Errorf("unmarshal verification relationship: %w", err)
		}

		doc.VerificationMethod = append(doc.VerificationMethod, vm)
		ids = append(ids, vm.ID)
	}

	return ids, nil
}

// MarshalJSON writes the DID document.
func (doc *Doc) MarshalJSON() ([]byte, error) {
	raw := struct {
		Context            []string             `json:"@context,omitempty"`
		ID                 string               `json:"id"`
		Controller         []string             `json:"controller,omitempty"`
		AlsoKnownAs        []string             `json:"alsoKnownAs,omitempty"`
		VerificationMethod []VerificationMethod `json:"verificationMethod,omitempty"`
		Authentication     []string             `json:"authentication,omitempty"`
		AssertionMethod    []string             `json:"assertionMethod,omitempty"`
		CapabilityInvoke   []string             `json:"capabilityInvocation,omitempty"`
		CapabilityDelegate []string             `json:"capabilityDelegation,omitempty"`
		Service            []rawService         `json:"service,omitempty"`
	}{
		Context:            doc.Context,
		ID:                 doc.ID,
		Controller:         doc.Controller,
		AlsoKnownAs:        doc.AlsoKnownAs,
		VerificationMethod: doc.VerificationMethod,
		Authentication:     doc.Authentication,
		AssertionMethod:    doc.AssertionMethod,
		CapabilityInvoke:   doc.CapabilityInvoke,
		CapabilityDelegate: doc.CapabilityDelegate,
	}

	for _, s := range doc.Service {
		var endpoint interface{} = s.ServiceEndpoint
		if len(s.ServiceEndpoint) == 1 {
			endpoint = s.ServiceEndpoint[0]
		}

		raw.Service = append(raw.Service, rawService{ID: s.ID, Type: s.Type, ServiceEndpoint: endpoint})
	}

	return json.Marshal(raw)
}

// VerificationMethodByID dereferences a DID URL or a relative "#fragment" reference.
func (doc *Doc) VerificationMethodByID(id string) (*VerificationMethod, error) {
	full := doc.absoluteID(id)

	for i := range doc.VerificationMethod {
		if doc.absoluteID(doc.VerificationMethod[i].ID) == full {
			return &doc.VerificationMethod[i], nil
		}
	}

	return nil, fmt.Errorf("%s: %w", id, ErrVerificationMethodNotFound)
}

// ServiceEndpoint returns the first endpoint of the first service with the given type.
func (doc *Doc) ServiceEndpoint(serviceType string) (string, bool) {
	for _, s := range doc.Service {
		if s.Type == serviceType && len(s.ServiceEndpoint) > 0 {
			return s.ServiceEndpoint[0], true
		}
	}

	return "", false
}

func (doc *Doc) absoluteID(id string) string {
	if strings.HasPrefix(id, "#") {
		return doc.ID + id
	}

	return id
}

func stringOrArray(v interface{}) []string {
	switch val := v.(type) {
	case string:
		return []string{val}
	case []interface{}:
		out := make([]string, 0, len(val))

		for _, e := range val {
			if s, ok := e.(string); ok {
				out = append(out, s)
			}
		}

		return out
	default:
		return nil
	}
}
