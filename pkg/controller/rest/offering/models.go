/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package offering serves the resources a PFI publishes over REST.
package offering

import "github.com/TBD54566975/tbdex-go/pkg/tbdex/resource"

// getOfferingsReq model
//
// swagger:parameters getOfferingsReq
type getOfferingsReq struct { // nolint: unused,deadcode
	// in: query
	ID string `json:"id"`

	// in: query
	PayinCurrency string `json:"payinCurrency"`

	// in: query
	PayoutCurrency string `json:"payoutCurrency"`
}

// offeringsRes model
//
// swagger:response offeringsRes
type offeringsRes struct { // nolint: unused,deadcode
	// in: body
	Data []*resource.Offering `json:"data"`
}

// getBalancesReq model
//
// swagger:parameters getBalancesReq
type getBalancesReq struct { // nolint: unused,deadcode
	// Bearer request token signed by the requester
	//
	// in: header
	// required: true
	Authorization string `json:"Authorization"`
}

// balancesRes model
//
// swagger:response balancesRes
type balancesRes struct { // nolint: unused,deadcode
	// in: body
	Data []*resource.Balance `json:"data"`
}
