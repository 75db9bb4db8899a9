// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// This product includes software developed at Datadog (https://www.datadoghq.com/).
// Copyright 2026 Datadog, Inc.

package o11y

import (
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// levelMarkers are matched in order against the messages of the datadog libraries
var levelMarkers = []struct {
	marker string
	level  zapcore.Level
}{
	{"ERROR", zapcore.ErrorLevel},
	{"WARN", zapcore.WarnLevel},
	{"INFO", zapcore.InfoLevel},
}

// DDLogger sends the tracer logs through the engine logger, at the level written in each message
type DDLogger struct {
	Logger *zap.SugaredLogger
}

//nolint:golint
func (l DDLogger) Log(msg string) {
	level := zapcore.DebugLevel

	for _, m := range levelMarkers {
		if strings.Contains(msg, m.marker) {
			level = m.level
			break
		}
	}

	l.Logger.Desugar().Check(level, strings.TrimSpace(msg)).Write(zap.String("logger", "datadog"))
}
