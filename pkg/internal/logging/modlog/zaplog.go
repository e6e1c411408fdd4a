/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package modlog

import (
	"io"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// ZapLog is the default provider logger. It writes console encoded lines with the caller of the
// module logger. Levels are filtered by ModLog, so the zap core accepts everything.
type ZapLog struct {
	sugar *zap.SugaredLogger
	exit  func(code int)
}

// NewZapLog creates a logger named module writing to out. callerSkip is the number of wrapper
// frames between the call site and this logger.
func NewZapLog(module string, out io.Writer, callerSkip int) *ZapLog {
	encCfg := zap.NewProductionEncoderConfig()
	encCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	encCfg.EncodeLevel = zapcore.CapitalLevelEncoder

	core := zapcore.NewCore(zapcore.NewConsoleEncoder(encCfg), zapcore.AddSync(out), zapcore.DebugLevel)

	return &ZapLog{
		sugar: zap.New(core, zap.AddCaller(), zap.AddCallerSkip(callerSkip+1)).Named(module).Sugar(),
		exit:  os.Exit,
	}
}

// Fatalf logs at error level and exits with status 1.
func (l *ZapLog) Fatalf(format string, args ...interface{}) {
	l.sugar.Errorf(format, args...)
	_ = l.sugar.Sync() //nolint:errcheck
	l.exit(1)
}

func (l *ZapLog) Errorf(format string, args ...interface{}) { l.sugar.Errorf(format, args...) }
func (l *ZapLog) Warnf(format string, args ...interface{}) { l.sugar.Warnf(format, args...) }
func (l *ZapLog) Infof(format string, args ...interface{}) { l.sugar.Infof(format, args...) }
func (l *ZapLog) Debugf(format string, args ...interface{}) { l.sugar.Debugf(format, args...) }
