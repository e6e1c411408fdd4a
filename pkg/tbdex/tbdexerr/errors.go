/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package tbdexerr defines the error taxonomy every tbDEX operation reports failures with.
package tbdexerr

import (
	"errors"
	"fmt"
)

// Code identifies the kind of a tbDEX failure.
type Code string

// Error codes.
const (
	InvalidSignature           Code = "InvalidSignature"
	HashMismatch               Code = "HashMismatch"
	OfferingRequirementsNotMet Code = "OfferingRequirementsNotMet"
	InvalidStateTransition     Code = "InvalidStateTransition"
	InconsistentMetadata       Code = "InconsistentMetadata"
	MalformedMessage           Code = "MalformedMessage"
	UnsupportedMessageKind     Code = "UnsupportedMessageKind"
	NotFound                   Code = "NotFound"
)

// Sentinels for errors.Is checks; any *Error with the same code matches.
//
//nolint:gochecknoglobals
var (
	ErrInvalidSignature           = &Error{Code: InvalidSignature}
	ErrHashMismatch               = &Error{Code: HashMismatch}
	ErrOfferingRequirementsNotMet = &Error{Code: OfferingRequirementsNotMet}
	ErrInvalidStateTransition     = &Error{Code: InvalidStateTransition}
	ErrInconsistentMetadata       = &Error{Code: InconsistentMetadata}
	ErrMalformedMessage           = &Error{Code: MalformedMessage}
	ErrUnsupportedMessageKind     = &Error{Code: UnsupportedMessageKind}
	ErrNotFound                   = &Error{Code: NotFound}
)

// Error is a tbDEX failure. Message is safe to show to end users: it never carries private data.
type Error struct {
	Code    Code
	Message string
	Details []string
	Err     error
}

// New creates an error with the code and a formatted message.
func New(code Code, format string, args ...interface{}) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Wrap creates an error with the code, a formatted message and a cause.
func Wrap(code Code, err error, format string, args ...interface{}) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...), Err: err}
}

// WithDetails returns a copy of e carrying the details.
func (e *Error) WithDetails(details ...string) *Error {
	c := *e
	c.Details = append(append([]string{}, e.Details...), details...)

	return &c
}

func (e *Error) Error() string {
	msg := string(e.Code)
	if e.Message != "" {
		msg += ": " + e.Message
	}

	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}

	return msg
}

// Unwrap returns the cause.
func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches any *Error target with the same code.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}

	return t.Code == e.Code
}

// CodeOf extracts the code of the first *Error in the chain.
func CodeOf(err error) (Code, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e.Code, true
	}

	return "", false
}
