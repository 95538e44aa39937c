/*
 * Copyright (c) 2024, NVIDIA CORPORATION. All rights reserved.
 */
package engine

import (
	"fmt"
	"runtime"
	"runtime/debug"
	"time"

	"github.com/mcgoddard/fungine/frame"
	"github.com/mcgoddard/fungine/internal/metrics"
	"github.com/mcgoddard/fungine/internal/nlog"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// job is what the dispatcher enqueues on a worker's inbound channel:
// the identified entity to update, the previous frame it is allowed to
// read, its inbox for this tick, and the tick's time delta.
type job struct {
	id     uint64
	entity Entity
	prev   *frame.Frame
	inbox  []Message
	dt     time.Duration
}

// updatePanic is the sentinel wrapped around a recovered panic from an
// entity's Update call. The worker pool never swallows it: update is
// contractually total, so a panic there reflects a bug in user code
// and must surface as a fatal condition.
type updatePanic struct {
	id      uint64
	tick    uint64
	recover any
	stack   []byte
}

func (p *updatePanic) Error() string {
	return fmt.Sprintf("entity %d update panicked at tick %d: %v\n%s", p.id, p.tick, p.recover, p.stack)
}

// pool is a fixed-size set of long-lived workers. Each worker owns one
// single-producer/single-consumer inbound channel; all workers share
// one multi-producer/single-consumer outbound channel that the
// dispatcher alone drains.
type pool struct {
	inbound  []chan job
	outbound chan UpdateResult
	group    *errgroup.Group
	metrics  *metrics.Recorder
	log      *zap.Logger
}

// workerCount computes W = max(1, NumCPU-2), leaving room for the
// dispatcher's own goroutine and the optional serializer goroutine. A
// caller-supplied override (WithWorkerCount) is honored as-is, mainly
// so tests can pin a small deterministic pool.
func workerCount(override int) int {
	if override > 0 {
		return override
	}
	if n := runtime.NumCPU() - 2; n > 0 {
		return n
	}
	return 1
}

// newPool spawns w long-lived worker goroutines under an errgroup, which
// shutdown waits on. A recovered entity-update panic does not end a
// worker or reach group.Wait: it travels back on the result's Err field
// for the dispatcher to treat as fatal.
func newPool(w int, rec *metrics.Recorder) *pool {
	p := &pool{
		inbound:  make([]chan job, w),
		outbound: make(chan UpdateResult, w*4),
		metrics:  rec,
		log:      nlog.ForComponent("worker"),
	}
	p.group = &errgroup.Group{}
	for i := 0; i < w; i++ {
		ch := make(chan job)
		p.inbound[i] = ch
		idx := i
		p.group.Go(func() error { return p.run(idx, ch) })
	}
	return p
}

// run is the worker loop: block on inbound; on a job, invoke the
// entity's update and push the result to the shared outbound queue; a
// closed inbound channel is the sole, normal shutdown signal.
func (p *pool) run(idx int, in <-chan job) error {
	for j := range in {
		// A recovered update panic is reported back on the result,
		// not by tearing down this goroutine: the worker keeps
		// draining its queue so shutdown() can still close cleanly.
		// It is the dispatcher's job to treat res.Err as fatal.
		p.outbound <- p.process(j)
	}
	p.log.Info("closing worker thread", zap.Int("worker", idx))
	return nil
}

// process invokes one entity's update, recovering a panic into a
// fatal *updatePanic rather than letting it take down the worker
// goroutine silently.
func (p *pool) process(j job) (res UpdateResult) {
	res.ID = j.id
	defer func() {
		if r := recover(); r != nil {
			res.Err = &updatePanic{id: j.id, tick: j.prev.Tick() + 1, recover: r, stack: debug.Stack()}
		}
	}()
	start := time.Now()
	next, outbox := j.entity.Update(j.id, j.prev, j.inbox, j.dt)
	res.Next = next
	res.Outbox = outbox
	res.Elapsed = time.Since(start)
	return res
}

// submit enqueues a job on worker x mod len(inbound), per the
// round-robin distribution policy.
func (p *pool) submit(x int, j job) {
	idx := x % len(p.inbound)
	p.metrics.WorkerQueueDepth.WithLabelValues(fmt.Sprint(idx)).Inc()
	p.inbound[idx] <- j
}

// collected marks one job as having left a worker's queue, for the
// matching queue-depth gauge.
func (p *pool) collected(x int) {
	idx := x % len(p.inbound)
	p.metrics.WorkerQueueDepth.WithLabelValues(fmt.Sprint(idx)).Dec()
}

// shutdown closes every inbound channel, the sole termination signal
// workers observe, then waits for every worker goroutine to exit.
func (p *pool) shutdown() error {
	for _, ch := range p.inbound {
		close(ch)
	}
	return p.group.Wait()
}
