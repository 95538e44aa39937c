/*
 * Copyright (c) 2024, NVIDIA CORPORATION. All rights reserved.
 */
package frame_test

import (
	"github.com/mcgoddard/fungine/frame"
	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"
)

type stubMessage struct{ payload string }

func (m stubMessage) CloneForSharing() frame.Shareable { return stubMessage{payload: m.payload} }

var _ = Describe("Table", func() {
	Describe("Inbox", func() {
		It("returns an empty inbox for an id with no mail", func() {
			table := frame.EmptyTable()
			Expect(table.Inbox(42)).To(BeEmpty())
		})

		It("does not panic on a nil table", func() {
			var table *frame.Table
			Expect(table.Inbox(1)).To(BeNil())
		})
	})

	Describe("TableBuilder", func() {
		It("buckets messages by recipient id", func() {
			b := frame.NewTableBuilder()
			b.Add(frame.Addressed{To: 1, Message: stubMessage{payload: "a"}})
			b.Add(frame.Addressed{To: 2, Message: stubMessage{payload: "b"}})
			b.Add(frame.Addressed{To: 1, Message: stubMessage{payload: "c"}})

			table := b.Build()

			inbox1 := table.Inbox(1)
			Expect(inbox1).To(HaveLen(2))

			inbox2 := table.Inbox(2)
			Expect(inbox2).To(HaveLen(1))
			Expect(inbox2[0]).To(Equal(stubMessage{payload: "b"}))

			Expect(table.Inbox(3)).To(BeEmpty())
		})

		It("keeps messages addressed to an id the builder never sees again as harmlessly unreachable", func() {
			// The table itself never filters by what the next frame
			// contains — dropping mail to a since-removed recipient is
			// a property of that id no longer appearing in the next
			// Frame, not of the Table actively discarding entries.
			b := frame.NewTableBuilder()
			b.Add(frame.Addressed{To: 404, Message: stubMessage{payload: "orphan"}})
			table := b.Build()
			Expect(table.Inbox(404)).To(HaveLen(1))
		})
	})
})
