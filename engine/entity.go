// Package engine implements the deterministic, parallel,
// frame-stepping simulation core: the worker pool, the dispatcher/
// barrier, and the façade that drives them tick by tick.
/*
 * Copyright (c) 2024, NVIDIA CORPORATION. All rights reserved.
 */
package engine

import (
	"time"

	"github.com/mcgoddard/fungine/frame"
)

// Message is an opaque, shareable value addressed to another entity.
// The engine never inspects a message's contents; it only moves it
// from the outbox of one tick's update into the inbox of the next.
type Message = frame.Shareable

// Addressed pairs a recipient id with a message produced by some
// entity's update call during the current tick, for delivery on the
// next tick.
type Addressed = frame.Addressed

// Entity is the contract every simulated game object must satisfy.
// Implementations are expected to be cheap to clone and safe to read
// concurrently from many goroutines: Update is called on behalf of
// exactly one (id, tick) pair at a time, but the *frame.Frame passed in
// is observed by every worker processing that same tick.
type Entity interface {
	// CloneForSharing returns an independent copy suitable for being
	// handed to a second observer. The engine calls this only when it
	// needs to fan the same logical value out to more than one
	// consumer (e.g. both the next frame and the serializer lane);
	// most entities can return *e or a shallow copy.
	CloneForSharing() frame.Shareable

	// Update is the pure per-tick step: given the entity's own id, an
	// immutable snapshot of the previous frame, the ordered inbox
	// addressed to this id, and the tick's time delta, it returns the
	// entity's next value and zero or more messages to deliver on the
	// following tick. Update must not mutate prev, must be total (it
	// always returns a next value, even if unchanged), and must not
	// depend on anything outside its arguments — the dispatcher may
	// call it concurrently with updates for every other entity in the
	// same frame.
	Update(id uint64, prev *frame.Frame, inbox []Message, dt time.Duration) (Entity, []Addressed)
}

// IdentifiedEntity pairs a stable identifier with an entity value. Ids
// are supplied by the caller at construction and are never minted or
// reused by the engine.
type IdentifiedEntity struct {
	ID     uint64
	Entity Entity
}

// UpdateResult is what a worker sends back to the dispatcher for one
// processed entity.
type UpdateResult struct {
	ID      uint64
	Next    Entity
	Outbox  []Addressed
	Err     error
	Elapsed time.Duration
}
