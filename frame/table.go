/*
 * Copyright (c) 2024, NVIDIA CORPORATION. All rights reserved.
 */
package frame

// Addressed pairs a recipient entity id with a message produced for
// delivery on the following tick.
type Addressed struct {
	To      uint64
	Message Shareable
}

// Table is the immutable, per-tick mapping from recipient id to the
// ordered inbox of messages addressed to it. A Table is built once by
// a TableBuilder and never mutated after publication; lookups for ids
// with no pending mail return an empty slice, never nil-dereference.
type Table struct {
	inboxes map[uint64][]Shareable
}

// EmptyTable is the table handed to tick 0, before any entity has had
// a chance to produce a message.
func EmptyTable() *Table {
	return &Table{}
}

// Inbox returns the ordered messages addressed to id on this tick.
// Ordering across messages from different senders is not guaranteed
// (see TableBuilder); callers must not depend on it.
func (t *Table) Inbox(id uint64) []Shareable {
	if t == nil || t.inboxes == nil {
		return nil
	}
	return t.inboxes[id]
}

// TableBuilder accumulates addressed messages produced during one tick
// into the bucket-by-recipient structure the next Table publishes. Not
// safe for concurrent use: the dispatcher is its sole writer, draining
// the outbound result queue on a single goroutine.
type TableBuilder struct {
	inboxes map[uint64][]Shareable
}

// NewTableBuilder preallocates a table builder for an upcoming tick.
func NewTableBuilder() *TableBuilder {
	return &TableBuilder{inboxes: make(map[uint64][]Shareable)}
}

// Add appends one addressed message to its recipient's bucket.
// Messages addressed to ids that never appear in the corresponding
// next Frame are silently retained in the Table anyway: it is the
// absence of that id from the next Frame that makes the entry
// unreachable, not a filtering step here: the engine does not know the
// shape of the next frame until the same barrier pass that builds this
// table completes.
func (b *TableBuilder) Add(msg Addressed) {
	b.inboxes[msg.To] = append(b.inboxes[msg.To], msg.Message)
}

// Build publishes the assembled table. The builder must not be reused.
func (b *TableBuilder) Build() *Table {
	return &Table{inboxes: b.inboxes}
}
