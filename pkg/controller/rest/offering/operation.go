/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package offering

import (
	"net/http"

	"github.com/samber/lo"

	"github.com/TBD54566975/tbdex-go/pkg/controller/rest"
	"github.com/TBD54566975/tbdex-go/pkg/tbdex/resource"
)

// constants for the offering operations
const (
	OfferingsPath = "/offerings"
	BalancesPath  = "/balances"

	payinCurrencyParam  = "payinCurrency"
	payoutCurrencyParam = "payoutCurrency"
	idParam             = "id"
)

// provider publishes the resources of a PFI.
type provider interface {
	Offerings() ([]*resource.Offering, error)
	Balances(requester string) ([]*resource.Balance, error)
}

// Operation serves offerings and balances.
type Operation struct {
	handlers []rest.Handler
	pfi      provider
	auth     *rest.Authenticator
}

// New returns new offering operations rest client instance.
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
		rest.NewHandler(OfferingsPath, http.MethodGet, o.GetOfferings),
		rest.NewHandler(BalancesPath, http.MethodGet, o.GetBalances),
	}
}

// GetOfferings swagger:route GET /offerings offering getOfferingsReq
//
// Lists the offerings of the PFI, optionally filtered by id or currencies.
//
// Responses:
//    default: genericError
//        200: offeringsRes
func (o *Operation) GetOfferings(rw http.ResponseWriter, req *http.Request) {
	offerings, err := o.pfi.Offerings()
	if err != nil {
		rest.SendError(rw, err)

		return
	}

	query := req.URL.Query()

	offerings = lo.Filter(offerings, func(offering *resource.Offering, _ int) bool {
		return matches(query.Get(idParam), offering.Metadata.ID) &&
			matches(query.Get(payinCurrencyParam), offering.Data.Payin.CurrencyCode) &&
			matches(query.Get(payoutCurrencyParam), offering.Data.Payout.CurrencyCode)
	})

	rest.WriteJSON(rw, http.StatusOK, rest.DataBody{Data: offerings})
}

// GetBalances swagger:route GET /balances offering getBalancesReq
//
// Lists the balances of the requester.
//
// Responses:
//    default: genericError
//        200: balancesRes
func (o *Operation) GetBalances(rw http.ResponseWriter, req *http.Request) {
	requester, err := o.auth.Requester(req)
	if err != nil {
		rest.SendError(rw, err)

		return
	}

	balances, err := o.pfi.Balances(requester)
	if err != nil {
		rest.SendError(rw, err)

		return
	}

	rest.WriteJSON(rw, http.StatusOK, rest.DataBody{Data: balances})
}

func matches(filter, value string) bool {
	return filter == "" || filter == value
}
