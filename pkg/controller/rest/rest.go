/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package rest holds what the tbDEX REST operations share: the handler contract, JSON responses,
// the error body and requester authentication.
package rest

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/TBD54566975/tbdex-go/pkg/common/log"
	"github.com/TBD54566975/tbdex-go/pkg/tbdex/requesttoken"
	"github.com/TBD54566975/tbdex-go/pkg/tbdex/tbdexerr"
	"github.com/TBD54566975/tbdex-go/pkg/vdr"
)

var logger = log.New("tbdex/rest")

// Handler http handler for each controller API endpoint.
type Handler interface {
	Path() string
	Method() string
	Handle() http.HandlerFunc
}

type route struct {
	path    string
	method  string
	handler http.HandlerFunc
}

// NewHandler registers handler for method requests on path. Path variables use gorilla/mux syntax.
func NewHandler(path, method string, handler http.HandlerFunc) Handler {
	return &route{path: path, method: method, handler: handler}
}

func (r *route) Path() string {
	return r.path
}

func (r *route) Method() string {
	return r.method
}

func (r *route) Handle() http.HandlerFunc {
	return r.handler
}

// genericErrorBody is the body of every failed request.
type genericErrorBody struct {
	Message string        `json:"message"`
	Details []errorDetail `json:"details,omitempty"`
}

type errorDetail struct {
	Message string `json:"message"`
}

// DataBody wraps the payload of successful list responses.
type DataBody struct {
	Data interface{} `json:"data"`
}

// StatusOf maps an error to the HTTP status reported for it.
func StatusOf(err error) int {
	if errors.Is(err, requesttoken.ErrInvalidToken) {
		return http.StatusUnauthorized
	}

	code, ok := tbdexerr.CodeOf(err)
	if !ok {
		return http.StatusInternalServerError
	}

	switch code {
	case tbdexerr.InvalidSignature:
		return http.StatusUnauthorized
	case tbdexerr.NotFound:
		return http.StatusNotFound
	case tbdexerr.InvalidStateTransition, tbdexerr.InconsistentMetadata:
		return http.StatusConflict
	case tbdexerr.MalformedMessage, tbdexerr.HashMismatch, tbdexerr.OfferingRequirementsNotMet,
		tbdexerr.UnsupportedMessageKind:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// SendError sends the status StatusOf err maps to. Internal failures are logged and reported without
// their cause.
func SendError(rw http.ResponseWriter, err error) {
	status := StatusOf(err)

	if status == http.StatusInternalServerError {
		logger.Errorf("request failed: %s", err)

		SendHTTPStatusError(rw, status, errors.New("internal server error"))

		return
	}

	SendHTTPStatusError(rw, status, err)
}

// SendHTTPStatusError sends given http status code to response with error body.
func SendHTTPStatusError(rw http.ResponseWriter, httpStatus int, err error) {
	body := genericErrorBody{Message: err.Error()}

	var tbdexErr *tbdexerr.Error
	if errors.As(err, &tbdexErr) {
		for _, d := range tbdexErr.Details {
			body.Details = append(body.Details, errorDetail{Message: d})
		}
	}

	WriteJSON(rw, httpStatus, body)
}

// WriteJSON sends v as the JSON body of a response with httpStatus.
func WriteJSON(rw http.ResponseWriter, httpStatus int, v interface{}) {
	rw.Header().Set("Content-Type", "application/json")
	rw.WriteHeader(httpStatus)

	err := json.NewEncoder(rw).Encode(v)
	if err != nil {
		logger.Errorf("Unable to send response, %s", err)
	}
}

// Authenticator resolves the requester of a request from its bearer request token.
type Authenticator struct {
	audience string
	resolver vdr.Resolver
	opts     []requesttoken.Option
}

// NewAuthenticator accepts tokens addressed to audience, the PFI DID.
func NewAuthenticator(audience string, resolver vdr.Resolver, opts ...requesttoken.Option) *Authenticator {
	return &Authenticator{audience: audience, resolver: resolver, opts: opts}
}

// Requester returns the DID that signed the request token of req.
func (a *Authenticator) Requester(req *http.Request) (string, error) {
	token, err := requesttoken.FromHeader(req.Header.Get("Authorization"))
	if err != nil {
		return "", err
	}

	requester, err := requesttoken.Verify(token, a.audience, a.resolver, a.opts...)
	if err != nil {
		return "", fmt.Errorf("authenticate: %w", err)
	}

	return requester, nil
}
