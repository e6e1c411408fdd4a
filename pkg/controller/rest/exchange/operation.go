/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package exchange

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"

	"github.com/gorilla/mux"

	"github.com/TBD54566975/tbdex-go/pkg/controller/rest"
	"github.com/TBD54566975/tbdex-go/pkg/tbdex/message"
	"github.com/TBD54566975/tbdex-go/pkg/tbdex/tbdexerr"
)

// constants for the exchange operations
const (
	ExchangesPath = "/exchanges"
	ExchangePath  = ExchangesPath + "/{id}"

	maxBodySize = 1 << 20
)

// provider runs the PFI side of exchanges.
type provider interface {
	CreateExchange(ctx context.Context, rfq *message.RFQ, replyTo string) error
	Submit(ctx context.Context, id string, msg message.Message) error
	Exchange(requester, id string) ([]message.Message, error)
	Exchanges(requester string) ([]string, error)
}

// Operation serves exchanges.
type Operation struct {
	handlers []rest.Handler
	pfi      provider
	auth     *rest.Authenticator
}

// New returns new exchange operations rest client instance.
func New(pfi provider, auth *rest.Authenticator) *Operation {
	o := &Operation{pfi: pfi, auth: auth}
	o.registerHandler()

	return o
}

// GetRESTHandlers get all controller API handler available for this service.
func (o *Operation) GetRESTHandlers() []rest.Handler {
	return o.handlers
}

func (o *Operation) registerHandler() {
	o.handlers = []rest.Handler{
		rest.NewHandler(ExchangesPath, http.MethodPost, o.CreateExchange),
		rest.NewHandler(ExchangesPath, http.MethodGet, o.GetExchanges),
		rest.NewHandler(ExchangePath, http.MethodGet, o.GetExchange),
		rest.NewHandler(ExchangePath, http.MethodPut, o.SubmitMessage),
	}
}

// CreateExchange swagger:route POST /exchanges exchange createExchangeReq
//
// Opens an exchange with an rfq. Payment details and claims must all be disclosed.
//
// Responses:
//    default: genericError
//        202:
func (o *Operation) CreateExchange(rw http.ResponseWriter, req *http.Request) {
	var body CreateExchangeRequest

	err := decode(rw, req, &body)
	if err != nil {
		rest.SendError(rw, err)

		return
	}

	if body.ReplyTo != "" {
		u, e := url.ParseRequestURI(body.ReplyTo)
		if e != nil || u.Host == "" {
			rest.SendError(rw, tbdexerr.New(tbdexerr.MalformedMessage, "replyTo %q is not a url", body.ReplyTo))

			return
		}
	}

	rfq, err := message.ParseRFQ(body.Message, true)
	if err != nil {
		rest.SendError(rw, err)

		return
	}

	err = o.pfi.CreateExchange(req.Context(), rfq, body.ReplyTo)
	if err != nil {
		rest.SendError(rw, err)

		return
	}

	rw.WriteHeader(http.StatusAccepted)
}

// SubmitMessage swagger:route PUT /exchanges/{id} exchange submitMessageReq
//
// Places an order or cancels the exchange.
//
// Responses:
//    default: genericError
//        202:
func (o *Operation) SubmitMessage(rw http.ResponseWriter, req *http.Request) {
	var body SubmitRequest

	err := decode(rw, req, &body)
	if err != nil {
		rest.SendError(rw, err)

		return
	}

	msg, err := message.Parse(body.Message)
	if err != nil {
		rest.SendError(rw, err)

		return
	}

	err = o.pfi.Submit(req.Context(), mux.Vars(req)["id"], msg)
	if err != nil {
		rest.SendError(rw, err)

		return
	}

	rw.WriteHeader(http.StatusAccepted)
}

// GetExchange swagger:route GET /exchanges/{id} exchange getExchangeReq
//
// Returns the messages of an exchange of the requester.
//
// Responses:
//    default: genericError
//        200: exchangeRes
func (o *Operation) GetExchange(rw http.ResponseWriter, req *http.Request) {
	requester, err := o.auth.Requester(req)
	if err != nil {
		rest.SendError(rw, err)

		return
	}

	msgs, err := o.pfi.Exchange(requester, mux.Vars(req)["id"])
	if err != nil {
		rest.SendError(rw, err)

		return
	}

	rest.WriteJSON(rw, http.StatusOK, rest.DataBody{Data: msgs})
}

// GetExchanges swagger:route GET /exchanges exchange getExchangesReq
//
// Returns the ids of the exchanges of the requester.
//
// Responses:
//    default: genericError
//        200: exchangesRes
func (o *Operation) GetExchanges(rw http.ResponseWriter, req *http.Request) {
	requester, err := o.auth.Requester(req)
	if err != nil {
		rest.SendError(rw, err)

		return
	}

	ids, err := o.pfi.Exchanges(requester)
	if err != nil {
		rest.SendError(rw, err)

		return
	}

	if ids == nil {
		ids = []string{}
	}

	rest.WriteJSON(rw, http.StatusOK, rest.DataBody{Data: ids})
}

func decode(rw http.ResponseWriter, req *http.Request, v interface{}) error {
	err := json.NewDecoder(http.MaxBytesReader(rw, req.Body, maxBodySize)).Decode(v)
	if err != nil {
		return tbdexerr.Wrap(tbdexerr.MalformedMessage, err, "request body")
	}

	return nil
}
