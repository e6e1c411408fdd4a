/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package log defines the logging contract shared by every tbDEX engine module.
package log

// Level defines all available log levels for log messages.
type Level int

// Log levels. INFO is the default.
const (
	CRITICAL Level = iota
	ERROR
	WARNING
	INFO
	DEBUG
)

// Logger represents a general logging interface for fmt-style messages.
type Logger interface {
	// Fatalf is CRITICAL log followed by a call to os.Exit(1).
	Fatalf(msg string, args ...interface{})
	Errorf(msg string, args ...interface{})
	Warnf(msg string, args ...interface{})
	Infof(msg string, args ...interface{})
	Debugf(msg string, args ...interface{})
}

// LoggerProvider is a factory for module loggers.
type LoggerProvider interface {
	GetLogger(module string) Logger
}
