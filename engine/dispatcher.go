/*
 * Copyright (c) 2024, NVIDIA CORPORATION. All rights reserved.
 */
package engine

import (
	"time"

	"github.com/mcgoddard/fungine/frame"
	"github.com/mcgoddard/fungine/internal/metrics"
	"github.com/mcgoddard/fungine/internal/nlog"
	"go.uber.org/zap"
)

// dispatcher is the per-tick barrier: it fans every
// entity in the current frame out to the worker pool, blocks until
// exactly one result per entity has returned, and assembles the next
// (frame, table) pair. It is a strict barrier — no worker begins tick
// k+1 until this pass has published tick k+1's inputs.
type dispatcher struct {
	pool    *pool
	metrics *metrics.Recorder
	log     *zap.Logger
	onEach  func(UpdateResult) // optional hook: serializer hand-off
}

func newDispatcher(p *pool, rec *metrics.Recorder) *dispatcher {
	return &dispatcher{pool: p, metrics: rec, log: nlog.ForComponent("dispatcher")}
}

// step performs one full tick: dispatch -> parallel update -> collect
// -> publish. It returns the next frame and message table, or panics
// if any worker reported a fatal update panic.
func (d *dispatcher) step(f *frame.Frame, t *frame.Table, dt time.Duration) (*frame.Frame, *frame.Table) {
	start := time.Now()
	n := f.Len()

	// Submission runs on its own goroutine, concurrently with the
	// collect loop below: the outbound queue is bounded and every
	// inbound channel is unbuffered, so if all n jobs were submitted
	// before any result were drained, a full pool would fill outbound
	// and block on the next send with nobody left to receive it. The
	// collect loop draining outbound as submission proceeds is what
	// keeps a frame of any size from deadlocking.
	go func() {
		for x := 0; x < n; x++ {
			ie := f.At(x)
			ent, ok := ie.Entity.(Entity)
			if !ok {
				// Entities stored in a frame always originate from this
				// package's own Entity interface (see frame.New / the
				// builder in this file); a non-Entity Shareable here
				// would mean the caller built a Frame by hand with the
				// wrong element type.
				panic("engine: frame contains a Shareable that is not an Entity")
			}
			d.pool.submit(x, job{
				id:     ie.ID,
				entity: ent,
				prev:   f,
				inbox:  t.Inbox(ie.ID),
				dt:     dt,
			})
		}
	}()

	fb := frame.NewBuilder(f.Tick()+1, n)
	tb := frame.NewTableBuilder()

	for x := 0; x < n; x++ {
		res, ok := <-d.pool.outbound
		if !ok {
			// Fatal: the outbound queue closed before every result of
			// this tick arrived.
			panic("engine: outbound queue closed mid-collection")
		}
		d.pool.collected(x)
		if res.Err != nil {
			// Fatal: an entity's update panicked. The dispatcher does
			// not retry, reorder, or requeue — the process surfaces
			// the failure by panicking in turn.
			panic(res.Err)
		}
		fb.Add(res.ID, res.Next)
		for _, msg := range res.Outbox {
			tb.Add(msg)
			d.metrics.MessagesDelivered.Inc()
		}
		if d.onEach != nil {
			d.onEach(res)
		}
	}

	d.metrics.FramesProcessed.Inc()
	d.metrics.FrameDuration.Observe(time.Since(start).Seconds())

	return fb.Build(), tb.Build()
}
