/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package verifiable

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/samber/lo"

	"github.com/TBD54566975/tbdex-go/pkg/doc/jose"
)

const jwtType = "JWT"

// Subject is a credential subject with its own id.
type Subject map[string]interface{}

// NewJWTCredClaims builds the claims of a credential issued by issuer about subject.
// The subject map must carry an "id" entry with the subject DID.
func NewJWTCredClaims(issuer string, types []string, subject Subject, expiry time.Time) *JWTCredClaims {
	now := time.Now().UTC()
	id := "urn:uuid:" + uuid.NewString()

	vc := map[string]interface{}{
		"@context":          []interface{}{ContextV1},
		"id":                id,
		"type":              toInterfaces(append([]string{TypeVerifiableCredential}, types...)),
		"issuer":            issuer,
		"issuanceDate":      now.Format(time.RFC3339),
		"credentialSubject": map[string]interface{}(subject),
	}

	claims := &JWTCredClaims{
		Issuer:    issuer,
		JTI:       id,
		NotBefore: now.Unix(),
		IssuedAt:  now.Unix(),
		VC:        vc,
	}

	if subjectID, ok := subject["id"].(string); ok {
		claims.Subject = subjectID
	}

	if !expiry.IsZero() {
		claims.Expiry = expiry.Unix()
		vc["expirationDate"] = expiry.UTC().Format(time.RFC3339)
	}

	return claims
}

// SignJWT serializes the claims as a compact JWS signed by signer.
func SignJWT(claims *JWTCredClaims, signer jose.Signer) (string, error) {
	payload, err := json.Marshal(claims)
	if err != nil {
		return "", fmt.Errorf("marshal VC-JWT claims: %w", err)
	}

	jws, err := jose.NewJWS(jose.Headers{jose.HeaderType: jwtType}, payload, signer)
	if err != nil {
		return "", fmt.Errorf("sign VC-JWT: %w", err)
	}

	return jws.SerializeCompact(false), nil
}

func toInterfaces(values []string) []interface{} {
	return lo.Map(values, func(v string, _ int) interface{} { return v })
}
