/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package tbdex-pfi (tbDEX PFI REST server).
//
//
// Terms Of Service:
//
//
//     Schemes: https
//     Version: 0.1.0
//     License: SPDX-License-Identifier: Apache-2.0
//
//     Consumes:
//     - application/json
//
//     Produces:
//     - application/json
//
// swagger:meta
package main

import (
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/TBD54566975/tbdex-go/cmd/tbdex-pfi/startcmd"
	"github.com/TBD54566975/tbdex-go/pkg/common/log"
)

// This is an application which starts a PFI REST API on given host.
func main() {
	// A .env file is optional, values already in the environment win.
	_ = godotenv.Load()

	rootCmd := &cobra.Command{
		Use: "tbdex-pfi",
		Run: func(cmd *cobra.Command, args []string) {
			cmd.HelpFunc()(cmd, args)
		},
	}

	logger := log.New("tbdex/pfi-rest")

	startCmd, err := startcmd.Cmd(&startcmd.HTTPServer{})
	if err != nil {
		logger.Fatalf(err.Error())
	}

	rootCmd.AddCommand(startCmd)

	if err := rootCmd.Execute(); err != nil {
		logger.Fatalf("Failed to run tbdex-pfi: %s", err)
	}
}
