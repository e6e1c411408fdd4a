/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package vdr resolves DIDs to DID documents through method specific VDR implementations.
package vdr

import (
	"errors"

	"github.com/TBD54566975/tbdex-go/pkg/doc/did"
)

// ErrNotFound is returned when a DID resolver does not find the DID.
var ErrNotFound = errors.New("DID does not exist")

// VDR verifiable data registry interface for one or more DID methods.
type VDR interface {
	// Accept reports whether the VDR handles the DID method.
	Accept(method string) bool
	// Read resolves the DID.
	Read(did string) (*did.DocResolution, error)
}

// Resolver resolves DIDs. The returned documents are untrusted input.
type Resolver interface {
	Resolve(did string) (*did.DocResolution, error)
}
