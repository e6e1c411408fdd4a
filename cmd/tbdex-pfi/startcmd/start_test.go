/*
Copyright SecureKey Technologies Inc. All Rights Reserved.
SPDX-License-Identifier: Apache-2.0
*/

package startcmd

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/require"

	"github.com/TBD54566975/tbdex-go/pkg/bearerdid"
	"github.com/TBD54566975/tbdex-go/pkg/kms"
	"github.com/TBD54566975/tbdex-go/pkg/tbdex/typeid"
)

const offeringsYAML = `
offerings:
  - id: %s
    description: Selling KES for USD
    payoutUnitsPerPayinUnit: "129.5"
    payin:
      currencyCode: USD
      min: "1"
      max: "1000"
      methods:
        - kind: USD_LEDGER
    payout:
      currencyCode: KES
      methods:
        - kind: MOMO_MPESA
          estimatedSettlementTime: 60
          requiredPaymentDetails:
            type: object
            required: [phoneNumber]
            properties:
              phoneNumber:
                type: string
`

type mockServer struct {
	host    string
	handler http.Handler
}

func (s *mockServer) ListenAndServe(host string, handler http.Handler, _, _ string) error {
	s.host = host
	s.handler = handler

	return nil
}

func TestStartCmdContents(t *testing.T) {
	startCmd, err := Cmd(&mockServer{})
	require.NoError(t, err)

	require.Equal(t, "start", startCmd.Use)
	require.Equal(t, "Start a PFI", startCmd.Short)
	require.Equal(t, "Start a tbDEX PFI REST API", startCmd.Long)

	checkFlagPropertiesCorrect(t, startCmd, apiHostFlagName, apiHostFlagShorthand, apiHostFlagUsage, "")
	checkFlagPropertiesCorrect(t, startCmd, httpResolverFlagName,
		httpResolverFlagShorthand, httpResolverFlagUsage, "[]")
	checkFlagPropertiesCorrect(t, startCmd, databaseTypeFlagName, databaseTypeFlagShorthand, databaseTypeFlagUsage, "")
	checkFlagPropertiesCorrect(t, startCmd, didFileFlagName, didFileFlagShorthand, didFileFlagUsage, "")
}

func checkFlagPropertiesCorrect(t *testing.T, cmd *cobra.Command, flagName,
	flagShorthand, flagUsage, expectedVal string) {
	flag := cmd.Flag(flagName)

	require.NotNil(t, flag)
	require.Equal(t, flagName, flag.Name)
	require.Equal(t, flagShorthand, flag.Shorthand)
	require.Equal(t, flagUsage, flag.Usage)
	require.Equal(t, expectedVal, flag.Value.String())
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	return path
}

func writeDIDFile(t *testing.T) (string, *bearerdid.BearerDID) {
	t.Helper()

	bearer, err := bearerdid.NewJWK(nil, kms.Secp256k1)
	require.NoError(t, err)

	portable, err := bearer.Export()
	require.NoError(t, err)

	raw, err := json.Marshal(portable)
	require.NoError(t, err)

	return writeFile(t, "did.json", string(raw)), bearer
}

func TestStartCmdValidArgs(t *testing.T) {
	offeringID, err := typeid.New("offering")
	require.NoError(t, err)

	offeringsPath := writeFile(t, "offerings.yaml", fmt.Sprintf(offeringsYAML, offeringID))
	didPath, bearer := writeDIDFile(t)

	server := &mockServer{}

	startCmd, err := Cmd(server)
	require.NoError(t, err)

	startCmd.SetArgs([]string{
		"--" + apiHostFlagName, "localhost:8080",
		"--" + databaseTypeFlagName, databaseTypeBadgerOption,
		"--" + databasePathFlagName, t.TempDir(),
		"--" + offeringsFileFlagName, offeringsPath,
		"--" + didFileFlagName, didPath,
		"--" + wsPathFlagName, "/ws",
		"--" + autoRespondFlagName, "true",
		"--" + logLevelFlagName, "DEBUG",
		"--" + httpResolverFlagName, "web@https://resolver.example/1.0/identifiers",
	})

	require.NoError(t, startCmd.Execute())
	require.Equal(t, "localhost:8080", server.host)

	rr := httptest.NewRecorder()
	server.handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/offerings", nil))
	require.Equal(t, http.StatusOK, rr.Code)

	var body struct {
		Data []struct {
			Metadata struct {
				ID   string `json:"id"`
				From string `json:"from"`
			} `json:"metadata"`
		} `json:"data"`
	}

	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	require.Len(t, body.Data, 1)
	require.Equal(t, offeringID, body.Data[0].Metadata.ID)
	require.Equal(t, bearer.URI, body.Data[0].Metadata.From)

	rr = httptest.NewRecorder()
	server.handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/ws", nil))
	require.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestStartCmdFromEnv(t *testing.T) {
	t.Setenv(apiHostEnvKey, "localhost:9090")
	t.Setenv(databaseTypeEnvKey, databaseTypeMemOption)
	t.Setenv(databaseTimeoutEnvKey, "1")

	server := &mockServer{}

	startCmd, err := Cmd(server)
	require.NoError(t, err)

	startCmd.SetArgs([]string{})
	require.NoError(t, startCmd.Execute())
	require.Equal(t, "localhost:9090", server.host)

	rr := httptest.NewRecorder()
	server.handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/offerings", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	require.JSONEq(t, `{"data":[]}`, rr.Body.String())
}

func TestStartCmdInvalidArgs(t *testing.T) {
	tests := []struct {
		name string
		args []string
		err  string
	}{
		{
			name: "missing host",
			args: []string{"--" + databaseTypeFlagName, databaseTypeMemOption},
			err:  "Neither api-host (command line flag) nor TBDEX_PFI_API_HOST (environment variable) have been set.",
		},
		{
			name: "blank host",
			args: []string{"--" + apiHostFlagName, "", "--" + databaseTypeFlagName, databaseTypeMemOption},
			err:  errMissingHost.Error(),
		},
		{
			name: "missing database type",
			args: []string{"--" + apiHostFlagName, "localhost:8080"},
			err:  "Neither database-type (command line flag)",
		},
		{
			name: "unsupported database type",
			args: []string{"--" + apiHostFlagName, "localhost:8080", "--" + databaseTypeFlagName, "couchdb"},
			err:  "database type not set to a valid type",
		},
		{
			name: "invalid database timeout",
			args: []string{
				"--" + apiHostFlagName, "localhost:8080", "--" + databaseTypeFlagName, databaseTypeMemOption,
				"--" + databaseTimeoutFlagName, "soon",
			},
			err: "failed to parse db timeout soon",
		},
		{
			name: "invalid log level",
			args: []string{"--" + logLevelFlagName, "LOUD"},
			err:  "failed to parse log level 'LOUD'",
		},
		{
			name: "invalid http resolver",
			args: []string{
				"--" + apiHostFlagName, "localhost:8080", "--" + databaseTypeFlagName, databaseTypeMemOption,
				"--" + httpResolverFlagName, "https://resolver.example",
			},
			err: "invalid http resolver options found",
		},
		{
			name: "invalid auto respond",
			args: []string{
				"--" + apiHostFlagName, "localhost:8080", "--" + databaseTypeFlagName, databaseTypeMemOption,
				"--" + autoRespondFlagName, "sometimes",
			},
			err: "invalid syntax",
		},
		{
			name: "missing DID file",
			args: []string{
				"--" + apiHostFlagName, "localhost:8080", "--" + databaseTypeFlagName, databaseTypeMemOption,
				"--" + didFileFlagName, "/does/not/exist.json",
			},
			err: "read DID file",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			startCmd, err := Cmd(&mockServer{})
			require.NoError(t, err)

			startCmd.SetArgs(tc.args)

			err = startCmd.Execute()
			require.Error(t, err)
			require.Contains(t, err.Error(), tc.err)
		})
	}
}

func TestLoadOfferings(t *testing.T) {
	t.Run("invalid yaml", func(t *testing.T) {
		_, err := loadOfferings(writeFile(t, "offerings.yaml", "offerings: [\n"))
		require.ErrorContains(t, err, "parse offerings file")
	})

	t.Run("unquoted decimal", func(t *testing.T) {
		_, err := loadOfferings(writeFile(t, "offerings.yaml", "offerings:\n  - payoutUnitsPerPayinUnit: 1.5\n"))
		require.ErrorContains(t, err, "parse offerings file")
	})

	t.Run("offering fields", func(t *testing.T) {
		node, err := loadDID("")
		require.NoError(t, err)
		require.NotEmpty(t, node.URI)

		entries, err := loadOfferings(writeFile(t, "offerings.yaml", "offerings:\n  - description: empty\n"))
		require.NoError(t, err)
		require.Len(t, entries, 1)
		require.Equal(t, "empty", entries[0].Description)
	})
}
