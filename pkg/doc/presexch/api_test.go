/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package presexch_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/TBD54566975/tbdex-go/pkg/bearerdid"
	"github.com/TBD54566975/tbdex-go/pkg/doc/presexch"
	"github.com/TBD54566975/tbdex-go/pkg/doc/verifiable"
	"github.com/TBD54566975/tbdex-go/pkg/kms"
)

const sanctionsDefinition = `{
  "id": "7ce4004c-3c38-4853-968b-e411bafcd945",
  "input_descriptors": [
    {
      "id": "bbdb9b7c-5754-4f46-b63b-590bada959e0",
      "constraints": {
        "fields": [
          {
            "path": ["$.type[*]"],
            "filter": { "type": "string", "pattern": "^SanctionCredential$" }
          },
          {
            "path": ["$.vc.credentialSubject.beep", "$.credentialSubject.beep"],
            "filter": { "type": "string", "const": "boop" }
          }
        ]
      }
    }
  ]
}`

func newCredential(t *testing.T, types []string, subject verifiable.Subject) *verifiable.Credential {
	t.Helper()

	issuer, err := bearerdid.NewJWK(nil, kms.Ed25519)
	require.NoError(t, err)

	signer, err := issuer.GetSigner("")
	require.NoError(t, err)

	vcJWT, err := verifiable.SignJWT(verifiable.NewJWTCredClaims(issuer.URI, types, subject, time.Time{}), signer)
	require.NoError(t, err)

	vc, err := verifiable.ParseJWT(vcJWT)
	require.NoError(t, err)

	return vc
}

func TestParseDefinition(t *testing.T) {
	pd, err := presexch.ParseDefinition([]byte(sanctionsDefinition))
	require.NoError(t, err)
	require.Len(t, pd.InputDescriptors, 1)
	require.Len(t, pd.InputDescriptors[0].Constraints.Fields, 2)

	t.Run("missing input descriptors", func(t *testing.T) {
		_, err := presexch.ParseDefinition([]byte(`{"id":"x"}`))
		require.Error(t, err)
	})

	t.Run("unknown group", func(t *testing.T) {
		_, err := presexch.ParseDefinition([]byte(`{
			"id": "x",
			"submission_requirements": [{"rule": "all", "from": "B"}],
			"input_descriptors": [{"id": "a", "group": ["A"], "constraints": {}}]
		}`))
		require.ErrorContains(t, err, "unknown group")
	})

	t.Run("predicate without filter", func(t *testing.T) {
		_, err := presexch.ParseDefinition([]byte(`{
			"id": "x",
			"input_descriptors": [{"id": "a", "constraints": {"fields": [
				{"path": ["$.credentialSubject.age"], "predicate": "required"}
			]}}]
		}`))
		require.Error(t, err)
	})

	t.Run("not json", func(t *testing.T) {
		_, err := presexch.ParseDefinition([]byte(`{`))
		require.Error(t, err)
	})
}

func TestSelectCredentials(t *testing.T) {
	pd, err := presexch.ParseDefinition([]byte(sanctionsDefinition))
	require.NoError(t, err)

	good := newCredential(t, []string{"SanctionCredential"}, verifiable.Subject{"id": "did:example:alice", "beep": "boop"})
	wrongValue := newCredential(t, []string{"SanctionCredential"}, verifiable.Subject{"id": "did:example:alice", "beep": "bop"})
	wrongType := newCredential(t, []string{"OtherCredential"}, verifiable.Subject{"id": "did:example:alice", "beep": "boop"})

	t.Run("selects matching", func(t *testing.T) {
		selected, err := pd.SelectCredentials([]*verifiable.Credential{wrongValue, good, wrongType})
		require.NoError(t, err)
		require.Equal(t, []*verifiable.Credential{good}, selected)
	})

	t.Run("none match", func(t *testing.T) {
		_, err := pd.SelectCredentials([]*verifiable.Credential{wrongValue, wrongType})
		require.ErrorIs(t, err, presexch.ErrNotSatisfied)
	})

	t.Run("no credentials", func(t *testing.T) {
		_, err := pd.SelectCredentials(nil)
		require.ErrorIs(t, err, presexch.ErrNotSatisfied)
	})
}

func TestSelectCredentials_Filters(t *testing.T) {
	vc := newCredential(t, []string{"KYCCredential"}, verifiable.Subject{
		"id":        "did:example:alice",
		"age":       27,
		"country":   "US",
		"documents": []interface{}{"passport", "license"},
	})

	tests := []struct {
		name   string
		field  string
		accept bool
	}{
		{"minimum met", `{"path": ["$.credentialSubject.age"], "filter": {"type": "number", "minimum": 18}}`, true},
		{"maximum exceeded", `{"path": ["$.credentialSubject.age"], "filter": {"type": "number", "maximum": 21}}`, false},
		{"enum", `{"path": ["$.credentialSubject.country"], "filter": {"type": "string", "enum": ["US", "CA"]}}`, true},
		{"not", `{"path": ["$.credentialSubject.country"], "filter": {"not": {"const": "US"}}}`, false},
		{"contains", `{"path": ["$.credentialSubject.documents"], "filter": {"type": "array", "contains": {"const": "passport"}}}`, true},
		{"max length", `{"path": ["$.credentialSubject.country"], "filter": {"type": "string", "maxLength": 1}}`, false},
		{"missing path", `{"path": ["$.credentialSubject.nope"]}`, false},
		{"missing optional path", `{"path": ["$.credentialSubject.nope"], "optional": true}`, true},
		{"required predicate failed", `{"path": ["$.credentialSubject.age"], "predicate": "required", "filter": {"type": "number", "minimum": 30}}`, false},
		{"preferred predicate met", `{"path": ["$.credentialSubject.age"], "predicate": "preferred", "filter": {"type": "number", "minimum": 18}}`, true},
		{"second path", `{"path": ["$.nope", "$.credentialSubject.country"], "predicate": "required", "filter": {"type": "string"}}`, true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			pd, err := presexch.ParseDefinition([]byte(`{"id": "kyc", "input_descriptors": [
				{"id": "kyc", "constraints": {"fields": [` + tc.field + `]}}]}`))
			require.NoError(t, err)

			selected, err := pd.SelectCredentials([]*verifiable.Credential{vc})
			if tc.accept {
				require.NoError(t, err)
				require.Len(t, selected, 1)
			} else {
				require.ErrorIs(t, err, presexch.ErrNotSatisfied)
			}
		})
	}
}

func TestSelectCredentials_PredicateNeedsFilter(t *testing.T) {
	vc := newCredential(t, []string{"KYCCredential"}, verifiable.Subject{"id": "did:example:alice", "age": 27})
	required := presexch.Required

	pd := &presexch.PresentationDefinition{
		ID: "kyc",
		InputDescriptors: []*presexch.InputDescriptor{{
			ID: "kyc",
			Constraints: &presexch.Constraints{Fields: []*presexch.Field{{
				Path:      []string{"$.credentialSubject.age"},
				Predicate: &required,
			}}},
		}},
	}

	_, err := pd.SelectCredentials([]*verifiable.Credential{vc})
	require.ErrorContains(t, err, "requires a filter")
	require.NotErrorIs(t, err, presexch.ErrNotSatisfied)
}

func TestSelectCredentials_SubmissionRequirements(t *testing.T) {
	passport := newCredential(t, []string{"Passport"}, verifiable.Subject{"id": "did:example:alice"})
	license := newCredential(t, []string{"License"}, verifiable.Subject{"id": "did:example:alice"})
	sanction := newCredential(t, []string{"SanctionCredential"}, verifiable.Subject{"id": "did:example:alice"})

	descriptor := func(id, group, credType string) string {
		return `{"id": "` + id + `", "group": ["` + group + `"], "constraints": {"fields": [
			{"path": ["$.vc.type[*]"], "filter": {"type": "string", "const": "` + credType + `"}}]}}`
	}

	descriptors := `"input_descriptors": [` +
		descriptor("passport", "A", "Passport") + `,` +
		descriptor("license", "A", "License") + `,` +
		descriptor("sanction", "B", "SanctionCredential") + `]`

	tests := []struct {
		name         string
		requirements string
		credentials  []*verifiable.Credential
		selected     int
	}{
		{
			name:         "pick one of A and all of B",
			requirements: `[{"rule": "pick", "count": 1, "from": "A"}, {"rule": "all", "from": "B"}]`,
			credentials:  []*verifiable.Credential{license, sanction},
			selected:     2,
		},
		{
			name:         "pick one of A with two present",
			requirements: `[{"rule": "pick", "count": 1, "from": "A"}]`,
			credentials:  []*verifiable.Credential{license, passport},
			selected:     -1,
		},
		{
			name:         "pick min one of A",
			requirements: `[{"rule": "pick", "min": 1, "from": "A"}]`,
			credentials:  []*verifiable.Credential{license, passport, sanction},
			selected:     2,
		},
		{
			name:         "all of B missing",
			requirements: `[{"rule": "all", "from": "B"}]`,
			credentials:  []*verifiable.Credential{license, passport},
			selected:     -1,
		},
		{
			name: "nested",
			requirements: `[{"rule": "pick", "count": 1, "from_nested": [
				{"rule": "all", "from": "A"}, {"rule": "all", "from": "B"}]}]`,
			credentials: []*verifiable.Credential{sanction},
			selected:    1,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			pd, err := presexch.ParseDefinition([]byte(`{"id": "x", "submission_requirements": ` +
				tc.requirements + `, ` + descriptors + `}`))
			require.NoError(t, err)

			selected, err := pd.SelectCredentials(tc.credentials)
			if tc.selected < 0 {
				require.ErrorIs(t, err, presexch.ErrNotSatisfied)

				return
			}

			require.NoError(t, err)
			require.Len(t, selected, tc.selected)
		})
	}
}
