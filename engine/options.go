/*
 * Copyright (c) 2024, NVIDIA CORPORATION. All rights reserved.
 */
package engine

import "go.uber.org/zap"

// config collects the construction-time knobs of an Engine. The zero
// value plus applying every Option yields the final configuration; it
// is never mutated again after New returns.
type config struct {
	udpPort     int // 0 means the serialization side-channel is disabled
	workerCount int // 0 means compute W = max(1, NumCPU()-2)
	logger      *zap.Logger
}

// Option configures an Engine at construction time, the functional
// options pattern idiomatic Go libraries use for optional constructor
// parameters.
type Option func(*config)

// WithUDPPort activates the serialization side-channel,
// binding an ephemeral local socket and sending each produced entity
// to 127.0.0.1:port as one UDP datagram per tick.
func WithUDPPort(port int) Option {
	return func(c *config) { c.udpPort = port }
}

// WithWorkerCount overrides the default W = max(1, NumCPU()-2) worker
// pool size. Mainly useful in tests that want a small, deterministic
// pool size independent of the host machine's core count.
func WithWorkerCount(n int) Option {
	return func(c *config) { c.workerCount = n }
}

// WithLogger overrides the engine's logging backend (see
// internal/nlog.SetBackend). Useful for hosts that want the engine's
// log lines folded into their own zap core.
func WithLogger(l *zap.Logger) Option {
	return func(c *config) { c.logger = l }
}
