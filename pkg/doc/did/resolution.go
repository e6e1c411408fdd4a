/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package did

import (
	"encoding/json"
	"errors"
	"fmt"
)

// ResolutionContext is the JSON-LD context of a DID resolution result.
const ResolutionContext = "https://w3id.org/did-resolution/v1"

// ErrDIDDocumentNotExist is returned when a resolution result carries no document.
var ErrDIDDocumentNotExist = errors.New("did document not exists")

// DocResolution did resolution.
type DocResolution struct {
	Context            string              `json:"@context,omitempty"`
	DIDDocument        *Doc                `json:"didDocument,omitempty"`
	DocumentMetadata   *DocumentMetadata   `json:"didDocumentMetadata,omitempty"`
	ResolutionMetadata *ResolutionMetadata `json:"didResolutionMetadata,omitempty"`
}

// DocumentMetadata document metadata.
type DocumentMetadata struct {
	Created     string `json:"created,omitempty"`
	Updated     string `json:"updated,omitempty"`
	Deactivated bool   `json:"deactivated,omitempty"`
}

// ResolutionMetadata resolution metadata.
type ResolutionMetadata struct {
	ContentType string `json:"contentType,omitempty"`
	Error       string `json:"error,omitempty"`
}

// ParseDocumentResolution parse document resolution.
func ParseDocumentResolution(data []byte) (*DocResolution, error) {
	var result DocResolution

	if err := json.Unmarshal(data, &result); err != nil {
		return nil, fmt.Errorf("parse did resolution: %w", err)
	}

	if result.ResolutionMetadata != nil && result.ResolutionMetadata.Error != "" {
		return nil, fmt.Errorf("did resolution error: %s", result.ResolutionMetadata.Error)
	}

	if result.DIDDocument == nil {
		return nil, ErrDIDDocumentNotExist
	}

	return &result, nil
}
