/*
 * Copyright (c) 2024, NVIDIA CORPORATION. All rights reserved.
 */
package engine

import (
	"context"
	"time"

	"github.com/mcgoddard/fungine/frame"
	"github.com/mcgoddard/fungine/internal/metrics"
	"github.com/mcgoddard/fungine/internal/nlog"
	"github.com/teris-io/shortid"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

// Engine is the façade of the simulation: it owns the worker pool, the
// current frame, and the current message table, and exposes the three
// stepping modes callers drive the simulation through.
type Engine struct {
	id      string // correlation id tagging this instance's log lines
	cfg     config
	pool    *pool
	disp    *dispatcher
	serial  *serializer
	metrics *metrics.Recorder
	log     *zap.Logger

	initial *frame.Frame
	current *frame.Frame
	table   *frame.Table
}

// ID returns the short, process-unique identifier generated for this
// engine instance at construction time. It has no bearing on
// simulation semantics — it exists purely so log lines from more than
// one concurrently running Engine can be told apart.
func (e *Engine) ID() string { return e.id }

// New constructs an Engine over the given initial frame. All ids in
// initial must be unique; the engine does not validate this (it trusts
// the caller the way every entity author is trusted).
// Construction is synchronous: every worker goroutine, and the
// serializer goroutine if WithUDPPort is given, is live and its queues
// connected before New returns.
func New(initial []IdentifiedEntity, opts ...Option) (*Engine, error) {
	var cfg config
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.logger != nil {
		nlog.SetBackend(cfg.logger)
	}

	rec := metrics.New()
	p := newPool(workerCount(cfg.workerCount), rec)
	d := newDispatcher(p, rec)

	var s *serializer
	if cfg.udpPort != 0 {
		var err error
		s, err = newSerializer(cfg.udpPort, rec)
		if err != nil {
			_ = p.shutdown()
			return nil, err
		}
		d.onEach = func(res UpdateResult) { s.submit(res.Next.CloneForSharing()) }
	}

	entities := make([]frame.Identified, len(initial))
	for i, ie := range initial {
		entities[i] = frame.Identified{ID: ie.ID, Entity: ie.Entity}
	}
	f0 := frame.New(entities)

	id, err := shortid.Generate()
	if err != nil {
		// shortid draws from a process-seeded worker; a generation
		// failure this early is not worth failing construction over,
		// so fall back to an empty tag rather than propagating it.
		id = ""
	}

	return &Engine{
		id:      id,
		cfg:     cfg,
		pool:    p,
		disp:    d,
		serial:  s,
		metrics: rec,
		log:     nlog.ForComponent("engine").With(zap.String("engine_id", id)),
		initial: f0,
		current: f0,
		table:   frame.EmptyTable(),
	}, nil
}

// Metrics returns the engine's Prometheus recorder.
func (e *Engine) Metrics() *metrics.Recorder { return e.metrics }

// Run steps the engine forward indefinitely from its initial frame,
// logging a throughput summary every ten seconds (every tick is also
// recorded to Metrics by the dispatcher), until ctx is cancelled. Cancellation is cooperative: it is
// observed between ticks, never in the middle of a barrier, and an
// in-flight tick with a stuck update still blocks indefinitely — there
// is no per-tick timeout.
func (e *Engine) Run(ctx context.Context) {
	states := e.initial
	table := frame.EmptyTable()
	ticker := time.NewTicker(10 * time.Second)
	defer ticker.Stop()
	frames := 0

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			e.log.Info("frames processed per second", zap.Int("rate", frames/10))
			frames = 0
		default:
		}
		states, table = e.disp.step(states, table, time.Second)
		frames++
	}
}

// RunSteps advances exactly n ticks starting from the engine's initial
// frame and returns the resulting frame. It does not mutate the
// engine's current frame/table — repeated calls always replay from the
// same initial state, which is what makes it suitable for determinism
// tests and benchmarks.
func (e *Engine) RunSteps(n int, dt time.Duration) *frame.Frame {
	states := e.initial
	table := frame.EmptyTable()
	for i := 0; i < n; i++ {
		states, table = e.disp.step(states, table, dt)
	}
	return states
}

// RunStepsContinuing advances n ticks starting from the engine's
// current frame, updating the current frame/table in place so a
// following call picks up where this one left off (multi-segment
// simulation).
func (e *Engine) RunStepsContinuing(n int, dt time.Duration) *frame.Frame {
	states, table := e.current, e.table
	for i := 0; i < n; i++ {
		states, table = e.disp.step(states, table, dt)
	}
	e.current, e.table = states, table
	return states
}

// Shutdown closes every worker's inbound queue — the sole shutdown
// signal — and, if the serialization side-channel is
// active, closes its queue and socket too. It blocks until every
// goroutine the engine spawned has exited.
func (e *Engine) Shutdown() error {
	serialErr := e.serial.shutdown()
	poolErr := e.pool.shutdown()
	return multierr.Combine(poolErr, serialErr)
}
