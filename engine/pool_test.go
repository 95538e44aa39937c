/*
 * Copyright (c) 2024, NVIDIA CORPORATION. All rights reserved.
 */
package engine_test

import (
	"testing"
	"time"

	"github.com/mcgoddard/fungine/engine"
	"github.com/mcgoddard/fungine/frame"
)

// panickyEntity always panics from Update, simulating the one error
// class that is fatal: a bug in user code that makes update
// non-total.
type panickyEntity struct{}

func (panickyEntity) CloneForSharing() frame.Shareable { return panickyEntity{} }

func (panickyEntity) Update(uint64, *frame.Frame, []engine.Message, time.Duration) (engine.Entity, []engine.Addressed) {
	panic("update is not total")
}

func TestUpdatePanicIsFatal(t *testing.T) {
	e, err := engine.New(
		[]engine.IdentifiedEntity{{ID: 0, Entity: panickyEntity{}}},
		engine.WithWorkerCount(1),
	)
	if err != nil {
		t.Fatalf("engine.New: %v", err)
	}
	defer func() { _ = e.Shutdown() }()

	defer func() {
		if r := recover(); r == nil {
			t.Fatal("expected RunSteps to panic when an entity's update panics")
		}
	}()
	e.RunSteps(1, time.Second)
}
