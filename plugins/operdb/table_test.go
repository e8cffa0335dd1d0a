// Copyright (c) 2019 Cisco and/or its affiliates.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at:
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package operdb

import (
	"testing"

	. "github.com/onsi/gomega"

	"github.com/ligato/cn-infra/logging/logrus"
)

type testEntry struct {
	EntryBase
	value int
}

func TestListenerStateSlots(t *testing.T) {
	RegisterTestingT(t)

	sched := NewScheduler(logrus.DefaultLogger())
	table := NewTable(logrus.DefaultLogger(), "test", sched)

	var seen []string
	id1 := table.Register(func(part *Partition, e Entry) {
		seen = append(seen, "l1")
		if e.IsDeleted() {
			e.ClearState(0)
			return
		}
		e.SetState(0, "state-1")
	})
	table.Register(func(part *Partition, e Entry) {
		seen = append(seen, "l2")
	})

	e := &testEntry{value: 1}
	sched.Ref()
	table.Update("a", e)
	sched.Unref()

	Expect(seen).To(Equal([]string{"l1", "l2"}))
	Expect(e.GetState(id1)).To(BeEquivalentTo("state-1"))
	Expect(e.GetState(42)).To(BeNil())
	Expect(table.Get("a")).To(BeIdenticalTo(e))

	sched.Ref()
	table.MarkDelete(e)
	sched.Unref()
	Expect(table.Get("a")).To(BeNil())
	Expect(table.Len()).To(BeZero())
}

func TestWalkDeferralAndRearm(t *testing.T) {
	RegisterTestingT(t)

	sched := NewScheduler(logrus.DefaultLogger())
	table := NewTable(logrus.DefaultLogger(), "test", sched)

	var visited []string
	done := 0
	w := table.AllocWalker(
		func(part *Partition, e Entry) bool {
			visited = append(visited, e.Key())
			return true
		},
		func(w *Walker, t *Table) {
			done++
		})

	sched.Ref()
	table.Update("b", &testEntry{})
	table.WalkAgain(w)
	// re-arming a queued walker must not produce a second scan
	table.WalkAgain(w)
	table.Update("a", &testEntry{})
	// the walk has not run yet: it is deferred to the unwind
	Expect(visited).To(BeEmpty())
	sched.Unref()

	// one scan, observing the entry added after scheduling, sorted order
	Expect(visited).To(Equal([]string{"a", "b"}))
	Expect(done).To(Equal(1))

	// a released walker never runs again
	table.ReleaseWalker(w)
	sched.Ref()
	table.WalkAgain(w)
	sched.Unref()
	Expect(done).To(Equal(1))
}

func TestWalkSchedulesNestedWalk(t *testing.T) {
	RegisterTestingT(t)

	sched := NewScheduler(logrus.DefaultLogger())
	table := NewTable(logrus.DefaultLogger(), "test", sched)

	nested := 0
	var nestedWalker *Walker
	nestedWalker = table.AllocWalker(
		func(part *Partition, e Entry) bool {
			nested++
			return true
		}, nil)

	outer := table.AllocWalker(
		func(part *Partition, e Entry) bool {
			// visitors may schedule further walks; they run in the same
			// drain cycle
			table.WalkAgain(nestedWalker)
			return false
		}, nil)

	sched.Ref()
	table.Update("a", &testEntry{})
	table.WalkAgain(outer)
	sched.Unref()

	Expect(nested).To(Equal(1))
}
