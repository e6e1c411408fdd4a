/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package client_test

import (
	"encoding/json"
	"net/http"

	"github.com/TBD54566975/tbdex-go/pkg/tbdex/resource"
)

func writeOfferings(rw http.ResponseWriter, offerings ...*resource.Offering) error {
	rw.Header().Set("Content-Type", "application/json")

	return json.NewEncoder(rw).Encode(map[string]interface{}{"data": offerings})
}
