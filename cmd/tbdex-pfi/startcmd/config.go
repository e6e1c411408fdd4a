/*
Copyright SecureKey Technologies Inc. All Rights Reserved.
SPDX-License-Identifier: Apache-2.0
*/

package startcmd

import (
	"encoding/json"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/TBD54566975/tbdex-go/pkg/bearerdid"
	"github.com/TBD54566975/tbdex-go/pkg/kms"
	"github.com/TBD54566975/tbdex-go/pkg/tbdex/resource"
)

// offeringEntry is one offering of the offerings file. Keys follow the JSON names of offering data;
// id is optional and keeps offering ids stable across restarts.
type offeringEntry struct {
	ID string `json:"id,omitempty"`
	resource.OfferingData
}

type offeringsFile struct {
	Offerings []offeringEntry `json:"offerings"`
}

// loadOfferings reads the offerings file. The YAML document is converted to JSON first so offering data
// only carries one set of field names.
func loadOfferings(path string) ([]offeringEntry, error) {
	raw, err := os.ReadFile(path) //nolint:gosec
	if err != nil {
		return nil, fmt.Errorf("read offerings file: %w", err)
	}

	var doc interface{}

	err = yaml.Unmarshal(raw, &doc)
	if err != nil {
		return nil, fmt.Errorf("parse offerings file %s: %w", path, err)
	}

	asJSON, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("parse offerings file %s: %w", path, err)
	}

	var file offeringsFile

	err = json.Unmarshal(asJSON, &file)
	if err != nil {
		return nil, fmt.Errorf("parse offerings file %s: %w", path, err)
	}

	return file.Offerings, nil
}

// loadDID imports the portable DID at path, or creates an ephemeral did:jwk without one.
func loadDID(path string) (*bearerdid.BearerDID, error) {
	if path == "" {
		bearer, err := bearerdid.NewJWK(nil, kms.Ed25519)
		if err != nil {
			return nil, err
		}

		logger.Warnf("no DID file set, using ephemeral DID %s", bearer.URI)

		return bearer, nil
	}

	raw, err := os.ReadFile(path) //nolint:gosec
	if err != nil {
		return nil, fmt.Errorf("read DID file: %w", err)
	}

	var portable bearerdid.PortableDID

	err = json.Unmarshal(raw, &portable)
	if err != nil {
		return nil, fmt.Errorf("parse DID file %s: %w", path, err)
	}

	bearer, err := bearerdid.Import(&portable, nil)
	if err != nil {
		return nil, err
	}

	logger.Infof("acting as %s", bearer.URI)

	return bearer, nil
}
