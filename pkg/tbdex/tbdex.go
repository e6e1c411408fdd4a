/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package tbdex holds the protocol constants shared by tbDEX messages and resources.
package tbdex

import (
	"errors"
	"time"
)

const (
	// ProtocolVersion is the protocol version of messages and resources created by this module.
	ProtocolVersion = "1.0"

	// TimestampFormat is RFC 3339 with millisecond precision.
	TimestampFormat = "2006-01-02T15:04:05.000Z07:00"
)

// ErrAlreadySigned is returned when signing a message or resource that carries a signature.
var ErrAlreadySigned = errors.New("already signed")

// Timestamp formats t in UTC with millisecond precision.
func Timestamp(t time.Time) string {
	return t.UTC().Format(TimestampFormat)
}

// Now returns the current time as a tbDEX timestamp.
func Now() string {
	return Timestamp(time.Now())
}
