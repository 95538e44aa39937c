/*
 * Copyright (c) 2024, NVIDIA CORPORATION. All rights reserved.
 */
package engine

import (
	"fmt"
	"net"
	"time"

	jsoniter "github.com/json-iterator/go"
	"github.com/mcgoddard/fungine/frame"
	"github.com/mcgoddard/fungine/internal/metrics"
	"github.com/mcgoddard/fungine/internal/nlog"
	"github.com/pkg/errors"
	"go.uber.org/atomic"
	"go.uber.org/zap"
)

var jsonAPI = jsoniter.ConfigCompatibleWithStandardLibrary

// serializer is an optional side-channel: a single dedicated goroutine
// that owns a UDP socket and forwards each produced entity to a fixed
// destination port, independently of the dispatcher's barrier. A slow
// or absent reader degrades the serialization stream but never the
// simulation rate.
type serializer struct {
	conn    *net.UDPConn
	dest    *net.UDPAddr
	queue   chan frame.Shareable
	metrics *metrics.Recorder
	log     *zap.Logger
	done    chan struct{}
	dropped atomic.Int64 // poor man's throttle: log the 1st, 1000th, 2000th, ... drop
}

// newSerializer binds an ephemeral local UDP socket and starts the
// encode-and-send goroutine. Bind failure is fatal at construction,
// surfaced as a wrapped error rather than a panic so New can report it
// synchronously.
func newSerializer(port int, rec *metrics.Recorder) (*serializer, error) {
	local, err := net.ListenUDP("udp", &net.UDPAddr{IP: net.IPv4zero, Port: 0})
	if err != nil {
		return nil, errors.Wrap(err, "bind udp serializer socket")
	}
	dest, err := net.ResolveUDPAddr("udp", fmt.Sprintf("127.0.0.1:%d", port))
	if err != nil {
		local.Close()
		return nil, errors.Wrapf(err, "resolve udp destination port %d", port)
	}
	s := &serializer{
		conn:    local,
		dest:    dest,
		queue:   make(chan frame.Shareable, 1024),
		metrics: rec,
		log:     nlog.ForComponent("serializer"),
		done:    make(chan struct{}),
	}
	go s.run()
	return s, nil
}

// submit hands one produced entity to the serializer without blocking
// the dispatcher: a full queue drops the entity and counts it, rather
// than applying backpressure to the caller.
func (s *serializer) submit(e frame.Shareable) {
	if s == nil {
		return
	}
	select {
	case s.queue <- e:
	default:
		s.metrics.SerializerDropped.Inc()
		if n := s.dropped.Inc(); n == 1 || n%1000 == 0 {
			s.log.Warn("dropping serialized entities, reader can't keep up", zap.Int64("dropped", n))
		}
	}
}

// run encodes and sends every entity it receives until the queue is
// closed, emitting a throughput summary every ten seconds.
func (s *serializer) run() {
	defer close(s.done)
	ticker := time.NewTicker(10 * time.Second)
	defer ticker.Stop()
	sent := 0
	for {
		select {
		case e, ok := <-s.queue:
			if !ok {
				s.log.Info("closing serializer thread")
				return
			}
			s.send(e)
			sent++
		case <-ticker.C:
			s.log.Info("state sends per second", zap.Int("rate", sent/10))
			sent = 0
		}
	}
}

func (s *serializer) send(e frame.Shareable) {
	payload, err := jsonAPI.Marshal(e)
	if err != nil {
		s.log.Warn("failed to encode entity", zap.Error(err))
		s.metrics.SerializerErrors.Inc()
		return
	}
	if _, err := s.conn.WriteToUDP(payload, s.dest); err != nil {
		s.log.Warn("failed to send", zap.Error(err))
		s.metrics.SerializerErrors.Inc()
		return
	}
	s.metrics.SerializerSends.Inc()
}

// shutdown closes the serializer's queue (its sole termination signal)
// and waits for the goroutine to send every entity still queued before
// closing the socket.
func (s *serializer) shutdown() error {
	if s == nil {
		return nil
	}
	close(s.queue)
	<-s.done
	return s.conn.Close()
}
