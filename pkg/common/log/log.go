/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package log implements a module based string logger for the tbDEX engine.
package log

import (
	"sync"

	"github.com/TBD54566975/tbdex-go/pkg/internal/logging/metadata"
	"github.com/TBD54566975/tbdex-go/spi/log"
)

// Log is a module logger. The provider logger behind it is resolved on first use, so a custom
// provider has to be passed to Initialize before anything is logged.
type Log struct {
	module string
	once   sync.Once
	inner  log.Logger
}

// New returns the logger for module, e.g. "tbdex/pfi".
func New(module string) *Log {
	return &Log{module: module}
}

// Fatalf logs and exits the process.
func (l *Log) Fatalf(msg string, args ...interface{}) { l.logger().Fatalf(msg, args...) }

// Errorf logs at ERROR.
func (l *Log) Errorf(msg string, args ...interface{}) { l.logger().Errorf(msg, args...) }

// Warnf logs at WARNING.
func (l *Log) Warnf(msg string, args ...interface{}) { l.logger().Warnf(msg, args...) }

// Infof logs at INFO.
func (l *Log) Infof(msg string, args ...interface{}) { l.logger().Infof(msg, args...) }

// Debugf logs at DEBUG.
func (l *Log) Debugf(msg string, args ...interface{}) { l.logger().Debugf(msg, args...) }

func (l *Log) logger() log.Logger {
	l.once.Do(func() {
		l.inner = loggerProvider().GetLogger(l.module)
	})

	return l.inner
}

// SetLevel sets the level of module, or of every module not set explicitly when module is empty.
// INFO if never set.
func SetLevel(module string, level log.Level) {
	metadata.SetLevel(module, level)
}

// ParseLevel parses a level name such as "debug" or "WARNING".
func ParseLevel(level string) (log.Level, error) {
	return metadata.ParseLevel(level)
}
