/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package controller assembles the REST API of a PFI.
package controller

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/TBD54566975/tbdex-go/pkg/controller/rest"
	exchangerest "github.com/TBD54566975/tbdex-go/pkg/controller/rest/exchange"
	offeringrest "github.com/TBD54566975/tbdex-go/pkg/controller/rest/offering"
	"github.com/TBD54566975/tbdex-go/pkg/delivery"
	"github.com/TBD54566975/tbdex-go/pkg/pfi"
	"github.com/TBD54566975/tbdex-go/pkg/tbdex/requesttoken"
	"github.com/TBD54566975/tbdex-go/pkg/tbdex/tbdexerr"
)

type allOpts struct {
	wsPath      string
	wsHandler   http.Handler
	tokenOpts   []requesttoken.Option
	extraRoutes []rest.Handler
}

// Opt represents a controller option.
type Opt func(opts *allOpts)

// WithWebSocket serves handler, usually a delivery.WSNotifier, for GET requests on path. Only a party
// to the exchange named by the exchangeId query parameter, proven by a request token, gets through.
func WithWebSocket(path string, handler http.Handler) Opt {
	return func(opts *allOpts) {
		opts.wsPath = path
		opts.wsHandler = handler
	}
}

// WithRequestTokenOptions sets how request tokens are verified.
func WithRequestTokenOptions(tokenOpts ...requesttoken.Option) Opt {
	return func(opts *allOpts) {
		opts.tokenOpts = tokenOpts
	}
}

// WithHandlers serves additional routes.
func WithHandlers(handlers ...rest.Handler) Opt {
	return func(opts *allOpts) {
		opts.extraRoutes = append(opts.extraRoutes, handlers...)
	}
}

// GetRESTHandlers returns all REST handlers provided by controller.
func GetRESTHandlers(node *pfi.PFI, opts ...Opt) []rest.Handler {
	restAPIOpts := &allOpts{}
	// Apply options
	for _, opt := range opts {
		opt(restAPIOpts)
	}

	auth := rest.NewAuthenticator(node.DID(), node.Resolver(), restAPIOpts.tokenOpts...)

	var allHandlers []rest.Handler
	allHandlers = append(allHandlers, offeringrest.New(node, auth).GetRESTHandlers()...)
	allHandlers = append(allHandlers, exchangerest.New(node, auth).GetRESTHandlers()...)

	if restAPIOpts.wsHandler != nil {
		allHandlers = append(allHandlers,
			rest.NewHandler(restAPIOpts.wsPath, http.MethodGet, subscribe(node, auth, restAPIOpts.wsHandler)))
	}

	return append(allHandlers, restAPIOpts.extraRoutes...)
}

// subscribe passes a request on to next if its requester takes part in the exchange it subscribes to.
func subscribe(node *pfi.PFI, auth *rest.Authenticator, next http.Handler) http.HandlerFunc {
	return func(rw http.ResponseWriter, req *http.Request) {
		exchangeID := req.URL.Query().Get(delivery.ExchangeIDParam)
		if exchangeID == "" {
			rest.SendError(rw, tbdexerr.New(tbdexerr.MalformedMessage, "missing %s", delivery.ExchangeIDParam))

			return
		}

		requester, err := auth.Requester(req)
		if err != nil {
			rest.SendError(rw, err)

			return
		}

		_, err = node.Exchange(requester, exchangeID)
		if err != nil {
			rest.SendError(rw, err)

			return
		}

		next.ServeHTTP(rw, req)
	}
}

// NewRouter routes requests to handlers.
func NewRouter(handlers []rest.Handler) *mux.Router {
	router := mux.NewRouter()

	for _, handler := range handlers {
		router.HandleFunc(handler.Path(), handler.Handle()).Methods(handler.Method())
	}

	return router
}
