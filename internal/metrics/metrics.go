// Package metrics is the engine's Prometheus instrumentation: the same
// throughput numbers the engine logs periodically, exposed as
// scrapeable counters/gauges instead of (or in addition to) a log
// line every ten seconds.
/*
 * Copyright (c) 2024, NVIDIA CORPORATION. All rights reserved.
 */
package metrics

import "github.com/prometheus/client_golang/prometheus"

// Recorder bundles every metric the engine updates during its hot
// path. It owns a private registry rather than registering against
// prometheus.DefaultRegisterer so that more than one Engine can run in
// the same process without colliding on metric names.
type Recorder struct {
	registry *prometheus.Registry

	FramesProcessed   prometheus.Counter
	FrameDuration     prometheus.Histogram
	MessagesDelivered prometheus.Counter
	WorkerQueueDepth  *prometheus.GaugeVec
	SerializerSends   prometheus.Counter
	SerializerErrors  prometheus.Counter
	SerializerDropped prometheus.Counter
}

// New constructs a Recorder with all metrics registered against a
// fresh registry.
func New() *Recorder {
	reg := prometheus.NewRegistry()
	r := &Recorder{
		registry: reg,
		FramesProcessed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "fungine_frames_processed_total",
			Help: "Total number of frames (ticks) completed by the dispatcher.",
		}),
		FrameDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "fungine_frame_duration_seconds",
			Help:    "Wall-clock time to fan out, update, and collect one tick.",
			Buckets: prometheus.DefBuckets,
		}),
		MessagesDelivered: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "fungine_messages_delivered_total",
			Help: "Total number of addressed messages folded into a message table.",
		}),
		WorkerQueueDepth: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "fungine_worker_queue_depth",
			Help: "Number of jobs currently enqueued for a worker, sampled at dispatch time.",
		}, []string{"worker"}),
		SerializerSends: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "fungine_serializer_sends_total",
			Help: "Total number of entities successfully sent over the UDP side-channel.",
		}),
		SerializerErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "fungine_serializer_errors_total",
			Help: "Total number of UDP send errors, logged and discarded.",
		}),
		SerializerDropped: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "fungine_serializer_dropped_total",
			Help: "Total number of entities dropped because the serializer queue was full.",
		}),
	}
	reg.MustRegister(
		r.FramesProcessed,
		r.FrameDuration,
		r.MessagesDelivered,
		r.WorkerQueueDepth,
		r.SerializerSends,
		r.SerializerErrors,
		r.SerializerDropped,
	)
	return r
}

// Registry exposes the private registry so the host process can mount
// it on whatever HTTP mux (or other exposition mechanism) it already
// runs. The engine itself never binds a listener.
func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}
