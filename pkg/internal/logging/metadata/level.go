/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package metadata holds the process-wide log level of each module.
package metadata

import (
	"errors"
	"strings"
	"sync"

	"github.com/TBD54566975/tbdex-go/spi/log"
)

// defaultModule holds the level of modules that were never set.
const defaultModule = ""

//nolint:gochecknoglobals
var (
	levelNames = []string{"CRITICAL", "ERROR", "WARNING", "INFO", "DEBUG"}
	levels     = newModuleLevels()
)

type moduleLevels struct {
	mu     sync.RWMutex
	levels map[string]log.Level
}

func newModuleLevels() *moduleLevels {
	return &moduleLevels{levels: map[string]log.Level{defaultModule: log.INFO}}
}

func (l *moduleLevels) set(module string, level log.Level) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.levels[module] = level
}

func (l *moduleLevels) enabled(module string, level log.Level) bool {
	l.mu.RLock()
	defer l.mu.RUnlock()

	limit, ok := l.levels[module]
	if !ok {
		limit = l.levels[defaultModule]
	}

	return level <= limit
}

// SetLevel sets the level of module. The empty module sets the level of every module not set explicitly.
func SetLevel(module string, level log.Level) {
	levels.set(module, level)
}

// IsEnabledFor reports whether module logs at level.
func IsEnabledFor(module string, level log.Level) bool {
	return levels.enabled(module, level)
}

// ParseLevel parses a case-insensitive level name such as "debug".
func ParseLevel(level string) (log.Level, error) {
	for i, name := range levelNames {
		if strings.EqualFold(name, level) {
			return log.Level(i), nil
		}
	}

	return log.ERROR, errors.New("logger: invalid log level")
}
