/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package log

import (
	"os"
	"sync"

	"github.com/TBD54566975/tbdex-go/pkg/internal/logging/modlog"
	"github.com/TBD54566975/tbdex-go/spi/log"
)

// frames between a Log method call site and the zap logger: Log, ModLog.
const defaultCallerSkip = 2

//nolint:gochecknoglobals
var (
	provider     log.LoggerProvider
	providerOnce sync.Once
)

// Initialize replaces the zap logger on stderr with l. Only the first call, made before the
// first log line, takes effect.
func Initialize(l log.LoggerProvider) {
	providerOnce.Do(func() {
		provider = levelled(l.GetLogger)
	})
}

func loggerProvider() log.LoggerProvider {
	providerOnce.Do(func() {
		provider = levelled(func(module string) log.Logger {
			return modlog.NewZapLog(module, os.Stderr, defaultCallerSkip)
		})
	})

	return provider
}

// levelled applies module levels to the loggers made by newLogger.
type levelled func(module string) log.Logger

func (f levelled) GetLogger(module string) log.Logger {
	return modlog.NewModLog(f(module), module)
}
