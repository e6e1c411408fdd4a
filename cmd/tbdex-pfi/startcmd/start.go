/*
Copyright SecureKey Technologies Inc. All Rights Reserved.
SPDX-License-Identifier: Apache-2.0
*/

package startcmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/rs/cors"
	"github.com/spf13/cobra"

	"github.com/TBD54566975/tbdex-go/pkg/common/log"
	"github.com/TBD54566975/tbdex-go/pkg/controller"
	"github.com/TBD54566975/tbdex-go/pkg/delivery"
	"github.com/TBD54566975/tbdex-go/pkg/pfi"
	"github.com/TBD54566975/tbdex-go/pkg/storage/badger"
	"github.com/TBD54566975/tbdex-go/pkg/storage/mem"
	exchangestore "github.com/TBD54566975/tbdex-go/pkg/store/exchange"
	resourcestore "github.com/TBD54566975/tbdex-go/pkg/store/resource"
	"github.com/TBD54566975/tbdex-go/pkg/tbdex/exchange"
	"github.com/TBD54566975/tbdex-go/pkg/tbdex/message"
	"github.com/TBD54566975/tbdex-go/pkg/tbdex/resource"
	"github.com/TBD54566975/tbdex-go/pkg/vdr"
	"github.com/TBD54566975/tbdex-go/pkg/vdr/httpbinding"
	vdrjwk "github.com/TBD54566975/tbdex-go/pkg/vdr/jwk"
	vdrkey "github.com/TBD54566975/tbdex-go/pkg/vdr/key"
	"github.com/TBD54566975/tbdex-go/spi/storage"
)

const (
	// api host flag.
	apiHostFlagName      = "api-host"
	apiHostEnvKey        = "TBDEX_PFI_API_HOST"
	apiHostFlagShorthand = "a"
	apiHostFlagUsage     = "Host Name:Port." +
		" Alternatively, this can be set with the following environment variable: " + apiHostEnvKey

	databaseTypeFlagName      = "database-type"
	databaseTypeEnvKey        = "TBDEX_PFI_DATABASE_TYPE"
	databaseTypeFlagShorthand = "q"
	databaseTypeFlagUsage     = "The type of database exchanges and offerings are kept in. " +
		"Supported options: mem, badger. " +
		" Alternatively, this can be set with the following environment variable: " + databaseTypeEnvKey

	databasePathFlagName      = "database-path"
	databasePathEnvKey        = "TBDEX_PFI_DATABASE_PATH"
	databasePathFlagShorthand = "p"
	databasePathFlagUsage     = "The directory of the badger database. Not needed if using mem." +
		" Alternatively, this can be set with the following environment variable: " + databasePathEnvKey

	databaseTimeoutFlagName  = "database-timeout"
	databaseTimeoutFlagUsage = "Total time in seconds to wait until the db is available before giving up." +
		" Default: " + databaseTimeoutDefault + " seconds." +
		" Alternatively, this can be set with the following environment variable: " + databaseTimeoutEnvKey
	databaseTimeoutEnvKey  = "TBDEX_PFI_DATABASE_TIMEOUT"
	databaseTimeoutDefault = "30"

	// log level.
	logLevelFlagName  = "log-level"
	logLevelEnvKey    = "TBDEX_PFI_LOG_LEVEL"
	logLevelFlagUsage = "Log level." +
		" Possible values [INFO] [DEBUG] [ERROR] [WARNING] [CRITICAL] . Defaults to INFO if not set." +
		" Alternatively, this can be set with the following environment variable: " + logLevelEnvKey

	// http resolver url flag.
	httpResolverFlagName      = "http-resolver-url"
	httpResolverEnvKey        = "TBDEX_PFI_HTTP_RESOLVER"
	httpResolverFlagShorthand = "r"
	httpResolverFlagUsage     = "HTTP binding DID resolver method and url. Values should be in `method@url` format." +
		" This flag can be repeated, allowing multiple http resolvers. did:jwk and did:key always resolve locally." +
		" Alternatively, this can be set with the following environment variable (in CSV format): " +
		httpResolverEnvKey

	didFileFlagName      = "did-file"
	didFileEnvKey        = "TBDEX_PFI_DID_FILE"
	didFileFlagShorthand = "d"
	didFileFlagUsage     = "Portable DID (JSON) of the PFI. A did:jwk is generated if not set." +
		" Alternatively, this can be set with the following environment variable: " + didFileEnvKey

	offeringsFileFlagName      = "offerings-file"
	offeringsFileEnvKey        = "TBDEX_PFI_OFFERINGS_FILE"
	offeringsFileFlagShorthand = "o"
	offeringsFileFlagUsage     = "YAML file listing the offerings published at start." +
		" Alternatively, this can be set with the following environment variable: " + offeringsFileEnvKey

	wsPathFlagName  = "ws-path"
	wsPathEnvKey    = "TBDEX_PFI_WS_PATH"
	wsPathFlagUsage = "Path wallets subscribe to exchange messages on over websocket. Disabled if not set." +
		" Alternatively, this can be set with the following environment variable: " + wsPathEnvKey

	autoRespondFlagName  = "auto-respond"
	autoRespondEnvKey    = "TBDEX_PFI_AUTO_RESPOND"
	autoRespondFlagUsage = "Quote rfqs, send order instructions and close cancelled exchanges automatically." +
		" Possible values [true] [false]. Defaults to false if not set." +
		" Alternatively, this can be set with the following environment variable: " + autoRespondEnvKey

	tlsCertFileFlagName      = "tls-cert-file"
	tlsCertFileEnvKey        = "TBDEX_PFI_TLS_CERT_FILE"
	tlsCertFileFlagShorthand = "c"
	tlsCertFileFlagUsage     = "tls certificate file." +
		" Alternatively, this can be set with the following environment variable: " + tlsCertFileEnvKey

	tlsKeyFileFlagName      = "tls-key-file"
	tlsKeyFileEnvKey        = "TBDEX_PFI_TLS_KEY_FILE"
	tlsKeyFileFlagShorthand = "k"
	tlsKeyFileFlagUsage     = "tls key file." +
		" Alternatively, this can be set with the following environment variable: " + tlsKeyFileEnvKey

	databaseTypeMemOption    = "mem"
	databaseTypeBadgerOption = "badger"

	resolverCacheSize = 100
	resolverCacheTTL  = 15 * time.Minute
)

var (
	errMissingHost = errors.New("host not provided")
	logger         = log.New("tbdex/pfi-rest")
)

type pfiParameters struct {
	server                  server
	host, wsPath            string
	tlsCertFile, tlsKeyFile string
	didFile, offeringsFile  string
	httpResolvers           []string
	autoRespond             bool
	dbParam                 *dbParam
}

type dbParam struct {
	dbType  string
	path    string
	timeout uint64
}

// nolint:gochecknoglobals
var supportedStorageProviders = map[string]func(path string) (storage.Provider, error){
	databaseTypeMemOption: func(_ string) (storage.Provider, error) { // nolint:unparam
		return mem.NewProvider(), nil
	},
	databaseTypeBadgerOption: func(path string) (storage.Provider, error) {
		return badger.NewProvider(path)
	},
}

type server interface {
	ListenAndServe(host string, router http.Handler, certFile, keyFile string) error
}

// HTTPServer represents an actual server implementation.
type HTTPServer struct{}

// ListenAndServe starts the server using the standard Go HTTP server implementation.
func (s *HTTPServer) ListenAndServe(host string, router http.Handler, certFile, keyFile string) error {
	if certFile != "" && keyFile != "" {
		return http.ListenAndServeTLS(host, certFile, keyFile, router)
	}

	return http.ListenAndServe(host, router)
}

// Cmd returns the Cobra start command.
func Cmd(server server) (*cobra.Command, error) {
	startCmd := createStartCMD(server)

	createFlags(startCmd)

	return startCmd, nil
}

func createStartCMD(server server) *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start a PFI",
		Long:  `Start a tbDEX PFI REST API`,
		RunE: func(cmd *cobra.Command, args []string) error {
			parameters, err := getParameters(cmd, server)
			if err != nil {
				return err
			}

			return startPFI(parameters)
		},
	}
}

func getParameters(cmd *cobra.Command, server server) (*pfiParameters, error) { //nolint: funlen
	logLevel, err := getUserSetVar(cmd, logLevelFlagName, logLevelEnvKey, true)
	if err != nil {
		return nil, err
	}

	err = setLogLevel(logLevel)
	if err != nil {
		return nil, err
	}

	host, err := getUserSetVar(cmd, apiHostFlagName, apiHostEnvKey, false)
	if err != nil {
		return nil, err
	}

	dbParam, err := getDBParam(cmd)
	if err != nil {
		return nil, err
	}

	httpResolvers, err := getUserSetVars(cmd, httpResolverFlagName, httpResolverEnvKey, true)
	if err != nil {
		return nil, err
	}

	didFile, err := getUserSetVar(cmd, didFileFlagName, didFileEnvKey, true)
	if err != nil {
		return nil, err
	}

	offeringsFile, err := getUserSetVar(cmd, offeringsFileFlagName, offeringsFileEnvKey, true)
	if err != nil {
		return nil, err
	}

	wsPath, err := getUserSetVar(cmd, wsPathFlagName, wsPathEnvKey, true)
	if err != nil {
		return nil, err
	}

	autoRespond, err := getBoolValue(cmd, autoRespondFlagName, autoRespondEnvKey)
	if err != nil {
		return nil, err
	}

	tlsCertFile, err := getUserSetVar(cmd, tlsCertFileFlagName, tlsCertFileEnvKey, true)
	if err != nil {
		return nil, err
	}

	tlsKeyFile, err := getUserSetVar(cmd, tlsKeyFileFlagName, tlsKeyFileEnvKey, true)
	if err != nil {
		return nil, err
	}

	return &pfiParameters{
		server:        server,
		host:          host,
		wsPath:        wsPath,
		tlsCertFile:   tlsCertFile,
		tlsKeyFile:    tlsKeyFile,
		didFile:       didFile,
		offeringsFile: offeringsFile,
		httpResolvers: httpResolvers,
		autoRespond:   autoRespond,
		dbParam:       dbParam,
	}, nil
}

func getDBParam(cmd *cobra.Command) (*dbParam, error) {
	dbParam := &dbParam{}

	var err error

	dbParam.dbType, err = getUserSetVar(cmd, databaseTypeFlagName, databaseTypeEnvKey, false)
	if err != nil {
		return nil, err
	}

	dbParam.path, err = getUserSetVar(cmd, databasePathFlagName, databasePathEnvKey, true)
	if err != nil {
		return nil, err
	}

	dbTimeout, err := getUserSetVar(cmd, databaseTimeoutFlagName, databaseTimeoutEnvKey, true)
	if err != nil {
		return nil, err
	}

	if dbTimeout == "" || dbTimeout == "0" {
		dbTimeout = databaseTimeoutDefault
	}

	t, err := strconv.ParseUint(dbTimeout, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("failed to parse db timeout %s: %w", dbTimeout, err)
	}

	dbParam.timeout = t

	return dbParam, nil
}

func getBoolValue(cmd *cobra.Command, flagName, envKey string) (bool, error) {
	v, err := getUserSetVar(cmd, flagName, envKey, true)
	if err != nil {
		return false, err
	}

	if v == "" {
		return false, nil
	}

	return strconv.ParseBool(v)
}

func createFlags(startCmd *cobra.Command) {
	startCmd.Flags().StringP(apiHostFlagName, apiHostFlagShorthand, "", apiHostFlagUsage)
	startCmd.Flags().StringP(databaseTypeFlagName, databaseTypeFlagShorthand, "", databaseTypeFlagUsage)
	startCmd.Flags().StringP(databasePathFlagName, databasePathFlagShorthand, "", databasePathFlagUsage)
	startCmd.Flags().StringP(databaseTimeoutFlagName, "", "", databaseTimeoutFlagUsage)
	startCmd.Flags().StringP(logLevelFlagName, "", "", logLevelFlagUsage)
	startCmd.Flags().StringSliceP(httpResolverFlagName, httpResolverFlagShorthand, []string{},
		httpResolverFlagUsage)
	startCmd.Flags().StringP(didFileFlagName, didFileFlagShorthand, "", didFileFlagUsage)
	startCmd.Flags().StringP(offeringsFileFlagName, offeringsFileFlagShorthand, "", offeringsFileFlagUsage)
	startCmd.Flags().StringP(wsPathFlagName, "", "", wsPathFlagUsage)
	startCmd.Flags().StringP(autoRespondFlagName, "", "", autoRespondFlagUsage)
	startCmd.Flags().StringP(tlsCertFileFlagName, tlsCertFileFlagShorthand, "", tlsCertFileFlagUsage)
	startCmd.Flags().StringP(tlsKeyFileFlagName, tlsKeyFileFlagShorthand, "", tlsKeyFileFlagUsage)
}

func getUserSetVar(cmd *cobra.Command, flagName, envKey string, isOptional bool) (string, error) {
	if cmd.Flags().Changed(flagName) {
		value, err := cmd.Flags().GetString(flagName)
		if err != nil {
			return "", fmt.Errorf(flagName+" flag not found: %s", err)
		}

		return value, nil
	}

	value, isSet := os.LookupEnv(envKey)

	if isOptional || isSet {
		return value, nil
	}

	return "", errors.New("Neither " + flagName + " (command line flag) nor " + envKey +
		" (environment variable) have been set.")
}

func getUserSetVars(cmd *cobra.Command, flagName, envKey string, isOptional bool) ([]string, error) {
	if cmd.Flags().Changed(flagName) {
		value, err := cmd.Flags().GetStringSlice(flagName)
		if err != nil {
			return nil, fmt.Errorf(flagName+" flag not found: %s", err)
		}

		return value, nil
	}

	value, isSet := os.LookupEnv(envKey)

	var values []string

	if isSet {
		values = strings.Split(value, ",")
	}

	if isOptional || isSet {
		return values, nil
	}

	return nil, fmt.Errorf(" %s not set. "+
		"It must be set via either command line or environment variable", flagName)
}

func createResolver(httpResolvers []string) (*vdr.Registry, error) {
	opts := []vdr.Option{
		vdr.WithVDR(vdrjwk.New()),
		vdr.WithVDR(vdrkey.New()),
		vdr.WithCache(resolverCacheSize, resolverCacheTTL),
	}

	const numPartsResolverOption = 2

	for _, httpResolver := range httpResolvers {
		r := strings.Split(httpResolver, "@")
		if len(r) != numPartsResolverOption {
			return nil, fmt.Errorf("invalid http resolver options found")
		}

		method := r[0]

		httpVDR, err := httpbinding.New(r[1],
			httpbinding.WithAccept(func(m string) bool { return m == method }))
		if err != nil {
			return nil, fmt.Errorf("failed to setup http resolver :  %w", err)
		}

		opts = append(opts, vdr.WithVDR(httpVDR))
	}

	return vdr.New(opts...), nil
}

func setLogLevel(logLevel string) error {
	if logLevel != "" {
		level, err := log.ParseLevel(logLevel)
		if err != nil {
			return fmt.Errorf("failed to parse log level '%s' : %w", logLevel, err)
		}

		log.SetLevel("", level)

		logger.Infof("logger level set to %s", logLevel)
	}

	return nil
}

func startPFI(parameters *pfiParameters) error {
	if parameters.host == "" {
		return errMissingHost
	}

	handler, err := createHandler(parameters)
	if err != nil {
		return fmt.Errorf("failed to start tbdex pfi on [%s]: %w", parameters.host, err)
	}

	logger.Infof("Starting tbdex pfi rest on host [%s]", parameters.host)

	err = parameters.server.ListenAndServe(parameters.host, handler, parameters.tlsCertFile, parameters.tlsKeyFile)
	if err != nil {
		return fmt.Errorf("failed to start tbdex pfi rest on [%s], cause:  %w", parameters.host, err)
	}

	return nil
}

func createHandler(parameters *pfiParameters) (http.Handler, error) {
	bearer, err := loadDID(parameters.didFile)
	if err != nil {
		return nil, err
	}

	resolver, err := createResolver(parameters.httpResolvers)
	if err != nil {
		return nil, err
	}

	storeProvider, err := createStoreProvider(parameters.dbParam)
	if err != nil {
		return nil, err
	}

	exchanges, err := exchangestore.New(storeProvider)
	if err != nil {
		return nil, err
	}

	resources, err := resourcestore.New(storeProvider)
	if err != nil {
		return nil, err
	}

	deliveryCfg, err := delivery.LoadConfig()
	if err != nil {
		return nil, err
	}

	notifiers := delivery.Notifiers{delivery.NewReplyToNotifier(deliveryCfg)}

	var controllerOpts []controller.Opt

	if parameters.wsPath != "" {
		ws := delivery.NewWSNotifier()
		notifiers = append(notifiers, ws)
		controllerOpts = append(controllerOpts, controller.WithWebSocket(parameters.wsPath, ws))
	}

	var responder *pfi.Responder

	pfiOpts := []pfi.Option{pfi.WithNotifier(notifiers)}

	if parameters.autoRespond {
		pfiOpts = append(pfiOpts, pfi.WithListener(pfi.ListenerFunc(func(ctx context.Context, ex *exchange.Exchange,
			msg message.Message) {
			responder.OnMessage(ctx, ex, msg)
		})))
	}

	node := pfi.New(bearer, resolver, exchanges, resources, pfiOpts...)
	responder = pfi.NewResponder(node)

	err = publishOfferings(node, parameters.offeringsFile)
	if err != nil {
		return nil, err
	}

	router := controller.NewRouter(controller.GetRESTHandlers(node, controllerOpts...))

	return cors.New(
		cors.Options{
			AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodHead},
			AllowedHeaders: []string{"Origin", "Accept", "Content-Type", "X-Requested-With", "Authorization"},
		},
	).Handler(router), nil
}

func publishOfferings(node *pfi.PFI, path string) error {
	if path == "" {
		return nil
	}

	data, err := loadOfferings(path)
	if err != nil {
		return err
	}

	for i, d := range data {
		offering, err := resource.CreateOffering(node.DID(), d.OfferingData, resource.WithID(d.ID))
		if err != nil {
			return fmt.Errorf("offering %d of %s: %w", i, path, err)
		}

		err = node.PublishOffering(offering)
		if err != nil {
			return err
		}

		logger.Infof("published offering %s", offering.Metadata.ID)
	}

	return nil
}

func createStoreProvider(param *dbParam) (storage.Provider, error) {
	provider, supported := supportedStorageProviders[param.dbType]
	if !supported {
		return nil, fmt.Errorf("database type not set to a valid type." +
			" run start --help to see the available options")
	}

	var store storage.Provider

	err := backoff.RetryNotify(
		func() error {
			var openErr error
			store, openErr = provider(param.path)
			return openErr
		},
		backoff.WithMaxRetries(backoff.NewConstantBackOff(time.Second), param.timeout),
		func(retryErr error, t time.Duration) {
			logger.Warnf(
				"failed to open storage, will sleep for %s before trying again : %s\n",
				t, retryErr)
		},
	)
	if err != nil {
		return nil, fmt.Errorf("failed to open storage at %s : %w", param.path, err)
	}

	return store, nil
}
