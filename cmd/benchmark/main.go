// Command benchmark drives the engine over a configurable number of
// entities and ticks and reports the wall-clock time taken.
/*
 * Copyright (c) 2024, NVIDIA CORPORATION. All rights reserved.
 */
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/mcgoddard/fungine/engine"
	"github.com/mcgoddard/fungine/frame"
)

type boid struct {
	Value int `json:"value"`
}

func (b boid) CloneForSharing() frame.Shareable { return boid{Value: b.Value} }

func (b boid) Update(_ uint64, _ *frame.Frame, _ []engine.Message, _ time.Duration) (engine.Entity, []engine.Addressed) {
	return boid{Value: b.Value + 1}, nil
}

func main() {
	var (
		entities = flag.Int("entities", 1000, "number of entities to simulate")
		steps    = flag.Int("steps", 1000, "number of ticks to run before exiting (0 to run forever)")
		udpPort  = flag.Int("udp-port", 0, "if non-zero, stream produced entities to 127.0.0.1:<port> as JSON over UDP")
		workers  = flag.Int("workers", 0, "override the worker pool size (0 = max(1, runtime.NumCPU()-2))")
	)
	flag.Parse()

	initial := make([]engine.IdentifiedEntity, *entities)
	for i := range initial {
		initial[i] = engine.IdentifiedEntity{ID: uint64(i), Entity: boid{}}
	}

	opts := []engine.Option{}
	if *workers > 0 {
		opts = append(opts, engine.WithWorkerCount(*workers))
	}
	if *udpPort != 0 {
		opts = append(opts, engine.WithUDPPort(*udpPort))
	}

	e, err := engine.New(initial, opts...)
	if err != nil {
		fmt.Fprintln(os.Stderr, "construct engine:", err)
		os.Exit(1)
	}
	defer e.Shutdown()

	if *steps == 0 {
		ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
		defer cancel()
		e.Run(ctx)
		return
	}

	start := time.Now()
	result := e.RunSteps(*steps, time.Second)
	fmt.Printf("processed %d entities over %d ticks in %s\n", result.Len(), *steps, time.Since(start))
}
