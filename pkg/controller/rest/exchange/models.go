/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package exchange serves the exchanges of a PFI over REST.
package exchange

import (
	"encoding/json"

	"github.com/TBD54566975/tbdex-go/pkg/tbdex/message"
)

// CreateExchangeRequest is the body of POST /exchanges.
type CreateExchangeRequest struct {
	Message json.RawMessage `json:"message"`
	// ReplyTo receives the messages of the PFI for this exchange.
	ReplyTo string `json:"replyTo,omitempty"`
}

// SubmitRequest is the body of PUT /exchanges/{id}.
type SubmitRequest struct {
	Message json.RawMessage `json:"message"`
}

// createExchangeReq model
//
// swagger:parameters createExchangeReq
type createExchangeReq struct { // nolint: unused,deadcode
	// in: body
	Params CreateExchangeRequest
}

// submitMessageReq model
//
// swagger:parameters submitMessageReq
type submitMessageReq struct { // nolint: unused,deadcode
	// in: path
	// required: true
	ID string `json:"id"`

	// in: body
	Params SubmitRequest
}

// getExchangeReq model
//
// swagger:parameters getExchangeReq
type getExchangeReq struct { // nolint: unused,deadcode
	// in: path
	// required: true
	ID string `json:"id"`

	// Bearer request token signed by the requester
	//
	// in: header
	// required: true
	Authorization string `json:"Authorization"`
}

// exchangeRes model
//
// swagger:response exchangeRes
type exchangeRes struct { // nolint: unused,deadcode
	// in: body
	Data []message.Message `json:"data"`
}

// exchangesRes model
//
// swagger:response exchangesRes
type exchangesRes struct { // nolint: unused,deadcode
	// in: body
	Data []string `json:"data"`
}
