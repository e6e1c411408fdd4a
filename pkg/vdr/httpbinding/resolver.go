/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package httpbinding

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/TBD54566975/tbdex-go/pkg/doc/did"
	"github.com/TBD54566975/tbdex-go/pkg/vdr"
)

const (
	didLDJson   = "application/did+ld+json"
	didJSON     = "application/did+json"
	jsonContent = "application/json"
	ldJSON      = "application/ld+json"
)

// resolveDID makes DID resolution via HTTP. Transport errors and 5xx responses are retried.
func (v *VDR) resolveDID(uri string) ([]byte, error) {
	var body []byte

	operation := func() error {
		var err error

		body, err = v.get(uri)

		return err
	}

	notify := func(err error, wait time.Duration) {
		logger.Debugf("retrying DID resolution %s in %s: %v", uri, wait, err)
	}

	if err := backoff.RetryNotify(operation, v.retryPolicy(), notify); err != nil {
		return nil, err
	}

	return body, nil
}

func (v *VDR) get(uri string) ([]byte, error) {
	req, err := http.NewRequest(http.MethodGet, uri, nil)
	if err != nil {
		return nil, backoff.Permanent(fmt.Errorf("HTTP create get request failed: %w", err))
	}

	req.Header.Add("Accept", strings.Join([]string{didLDJson, didJSON, ldJSON, jsonContent}, ", "))

	if v.resolveAuthToken != "" {
		req.Header.Add("Authorization", v.resolveAuthToken)
	}

	resp, err := v.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("HTTP Get request failed: %w", err)
	}

	defer closeResponseBody(resp.Body)

	gotBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response body failed: %w", err)
	}

	switch {
	case resp.StatusCode == http.StatusOK:
		return gotBody, nil
	case resp.StatusCode == http.StatusNotFound:
		return nil, backoff.Permanent(vdr.ErrNotFound)
	case resp.StatusCode >= http.StatusInternalServerError:
		return nil, fmt.Errorf("DID resolver returned [%d]", resp.StatusCode)
	default:
		return nil, backoff.Permanent(fmt.Errorf("unsupported response from DID resolver [%v] header [%s] body [%s]",
			resp.StatusCode, resp.Header.Get("Content-type"), gotBody))
	}
}

// Read resolves the DID via the resolver endpoint (https://w3c-ccg.github.io/did-resolution/#bindings-https).
func (v *VDR) Read(didID string) (*did.DocResolution, error) {
	reqURL, err := url.ParseRequestURI(v.endpointURL)
	if err != nil {
		return nil, fmt.Errorf("url parse request uri failed: %w", err)
	}

	reqURL.Path = path.Join(reqURL.Path, didID)

	data, err := v.resolveDID(reqURL.String())
	if err != nil {
		return nil, err
	}

	if len(data) == 0 {
		return nil, vdr.ErrNotFound
	}

	var head map[string]json.RawMessage

	if err = json.Unmarshal(data, &head); err != nil {
		return nil, fmt.Errorf("parse DID resolver response: %w", err)
	}

	_, hasDoc := head["didDocument"]
	_, hasMetadata := head["didResolutionMetadata"]

	if hasDoc || hasMetadata {
		return did.ParseDocumentResolution(data)
	}

	// resolvers may return the bare document instead of a resolution result
	didDoc, err := did.ParseDocument(data)
	if err != nil {
		return nil, fmt.Errorf("parse public DID document: %w", err)
	}

	return &did.DocResolution{Context: did.ResolutionContext, DIDDocument: didDoc}, nil
}
