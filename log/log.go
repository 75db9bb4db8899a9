// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// This product includes software developed at Datadog (https://www.datadoghq.com/).
// Copyright 2026 Datadog, Inc.

package log

import (
	"context"
	"os"

	"github.com/go-logr/logr"
	"github.com/go-logr/zapr"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"k8s.io/klog/v2"
)

// contextKey is used to store logger in context
type contextKey string

const loggerContextKey contextKey = "chaos-seal-logger"

func newConfig() zap.Config {
	loggerConfig := zap.NewProductionConfig()
	loggerConfig.Level.SetLevel(zapcore.DebugLevel)
	loggerConfig.EncoderConfig.MessageKey = "message"
	loggerConfig.EncoderConfig.EncodeTime = zapcore.EpochMillisTimeEncoder

	// optionally override the log level from the default based on the LOG_LEVEL env var
	if lvl, exists := os.LookupEnv("LOG_LEVEL"); exists {
		if ll, err := zapcore.ParseLevel(lvl); err == nil {
			loggerConfig.Level.SetLevel(ll)
		}
	}

	return loggerConfig
}

// NewZapLogger returns a zap production sugared logger with pre-configured encoder settings
func NewZapLogger() (*zap.SugaredLogger, error) {
	logger, err := newConfig().Build()
	if err != nil {
		return nil, err
	}

	return logger.Sugar(), nil
}

// NewZapLoggerWithSink returns the same logger as NewZapLogger, every entry being also written
// in a human readable form to the given sink (used to keep recent logs in memory)
func NewZapLoggerWithSink(sink zapcore.WriteSyncer) (*zap.SugaredLogger, error) {
	loggerConfig := newConfig()

	encoderConfig := zap.NewDevelopmentEncoderConfig()
	encoderConfig.EncodeTime = zapcore.RFC3339TimeEncoder

	sinkCore := zapcore.NewCore(zapcore.NewConsoleEncoder(encoderConfig), sink, loggerConfig.Level)

	logger, err := loggerConfig.Build(zap.WrapCore(func(core zapcore.Core) zapcore.Core {
		return zapcore.NewTee(core, sinkCore)
	}))
	if err != nil {
		return nil, err
	}

	return logger.Sugar(), nil
}

// WithLogger stores a logger in the context
func WithLogger(ctx context.Context, logger *zap.SugaredLogger) context.Context {
	return context.WithValue(ctx, loggerContextKey, logger)
}

// FromContext extracts a logger from the context, creating a default logger if not found
func FromContext(ctx context.Context) *zap.SugaredLogger {
	if logger, ok := ctx.Value(loggerContextKey).(*zap.SugaredLogger); ok && logger != nil {
		return logger
	}

	defaultLogger, err := NewZapLogger()
	if err != nil {
		// If we can't create a logger, use zap's no-op logger to avoid panics
		return zap.NewNop().Sugar()
	}

	return defaultLogger
}

// NewLogr wraps the logger for libraries logging through logr
func NewLogr(logger *zap.SugaredLogger) logr.Logger {
	return zapr.NewLogger(logger.Desugar())
}

// RedirectKlog sends the logs of the kubernetes client libraries to the given logger
func RedirectKlog(logger *zap.SugaredLogger) {
	klog.SetLogger(NewLogr(logger.With("logger", "klog")))
}
