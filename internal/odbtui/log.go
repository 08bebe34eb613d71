// Copyright (C) 2024  OpenDB Core Authors
//
// SPDX-License-Identifier: GPL-2.0-or-later

// Package odbtui provides the CLI-facing logging glue: a dlog-backed
// odberr.Logger adapter and a pflag.Value log-level flag, following the
// shape of the teacher's lib/textui package.
package odbtui

import (
	"context"
	"strings"

	"github.com/datawire/dlib/dlog"
	"github.com/sirupsen/logrus"
	"github.com/spf13/pflag"

	"github.com/opendb-core/odb/internal/odberr"
)

// DlogAdapter routes odberr.Logger calls through dlib's context-scoped
// logger, so every CLI front-end shares one logging backend with the core.
type DlogAdapter struct {
	Ctx context.Context
}

var _ odberr.Logger = DlogAdapter{}

func (a DlogAdapter) Log(sev odberr.Severity, toolID string, code int, message string) {
	logger := dlog.WithField(a.Ctx, "tool", toolID)
	switch sev {
	case odberr.SeverityDebug:
		dlog.Debugf(logger, "[%d] %s", code, message)
	case odberr.SeverityInfo:
		dlog.Infof(logger, "[%d] %s", code, message)
	case odberr.SeverityWarning:
		dlog.Warnf(logger, "[%d] %s", code, message)
	case odberr.SeverityError:
		dlog.Errorf(logger, "[%d] %s", code, message)
	}
}

// LogLevelFlag is a pflag.Value for --verbosity, mirroring
// lib/textui.LogLevelFlag.
type LogLevelFlag struct {
	Level dlog.LogLevel
}

var _ pflag.Value = (*LogLevelFlag)(nil)

func (f *LogLevelFlag) Type() string { return "loglevel" }
func (f *LogLevelFlag) String() string {
	switch f.Level {
	case dlog.LogLevelError:
		return "error"
	case dlog.LogLevelWarn:
		return "warn"
	case dlog.LogLevelInfo:
		return "info"
	case dlog.LogLevelDebug:
		return "debug"
	case dlog.LogLevelTrace:
		return "trace"
	default:
		return "info"
	}
}

func (f *LogLevelFlag) Set(str string) error {
	switch strings.ToLower(str) {
	case "error":
		f.Level = dlog.LogLevelError
	case "warn", "warning":
		f.Level = dlog.LogLevelWarn
	case "info":
		f.Level = dlog.LogLevelInfo
	case "debug":
		f.Level = dlog.LogLevelDebug
	case "trace":
		f.Level = dlog.LogLevelTrace
	default:
		f.Level = dlog.LogLevelInfo
	}
	return nil
}

// NewLogger builds a dlib-wrapped logrus logger at this flag's level, for
// CLI front-ends to install into their root context.
func (f *LogLevelFlag) NewLogger() dlog.Logger {
	logger := logrus.New()
	switch f.Level {
	case dlog.LogLevelError:
		logger.SetLevel(logrus.ErrorLevel)
	case dlog.LogLevelWarn:
		logger.SetLevel(logrus.WarnLevel)
	case dlog.LogLevelInfo:
		logger.SetLevel(logrus.InfoLevel)
	case dlog.LogLevelDebug:
		logger.SetLevel(logrus.DebugLevel)
	case dlog.LogLevelTrace:
		logger.SetLevel(logrus.TraceLevel)
	}
	return dlog.WrapLogrus(logger)
}
