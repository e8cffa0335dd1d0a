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
	"sort"

	"github.com/ligato/cn-infra/logging"
)

// NotifyCb is invoked for every add/change/delete of a table entry.
// The add/change/delete distinction is read from the entry itself
// (Entry.IsDeleted plus listener state presence).
type NotifyCb func(part *Partition, e Entry)

// Partition groups entries of a table for the purpose of notification
// dispatch. The agent keeps one partition per table.
type Partition struct {
	table *Table
}

// Table returns the table this partition belongs to.
func (p *Partition) Table() *Table {
	return p.table
}

// Table is a keyed set of entries observable through listener callbacks
// and walkers. Tables are not safe for concurrent use; all mutations must
// come from the agent's event goroutine (the scheduler serializes outside
// readers).
type Table struct {
	log   logging.Logger
	name  string
	sched *Scheduler

	part        *Partition
	entries     map[string]Entry
	listeners   map[ListenerID]NotifyCb
	listenerIDs []ListenerID
	nextID      ListenerID
}

// NewTable creates an empty table attached to the given walk scheduler.
func NewTable(log logging.Logger, name string, sched *Scheduler) *Table {
	t := &Table{
		log:       log,
		name:      name,
		sched:     sched,
		entries:   make(map[string]Entry),
		listeners: make(map[ListenerID]NotifyCb),
	}
	t.part = &Partition{table: t}
	return t
}

// Name returns the table name.
func (t *Table) Name() string {
	return t.name
}

// Partition returns the (single) partition of the table.
func (t *Table) Partition() *Partition {
	return t.part
}

// Scheduler returns the walk scheduler shared by the owning database.
func (t *Table) Scheduler() *Scheduler {
	return t.sched
}

// Register adds a listener and returns its ID. Listeners are notified in
// registration order.
func (t *Table) Register(cb NotifyCb) ListenerID {
	id := t.nextID
	t.nextID++
	t.listeners[id] = cb
	t.listenerIDs = append(t.listenerIDs, id)
	return id
}

// Unregister removes a previously registered listener.
func (t *Table) Unregister(id ListenerID) {
	delete(t.listeners, id)
	for i, lid := range t.listenerIDs {
		if lid == id {
			t.listenerIDs = append(t.listenerIDs[:i], t.listenerIDs[i+1:]...)
			break
		}
	}
}

// Get returns the entry stored under the key, or nil.
func (t *Table) Get(key string) Entry {
	return t.entries[key]
}

// Len returns the number of entries, including deleted ones still pending
// listener cleanup.
func (t *Table) Len() int {
	return len(t.entries)
}

// Update inserts the entry under the key if it is not present yet and
// notifies all listeners.
func (t *Table) Update(key string, e Entry) {
	if _, ok := t.entries[key]; !ok {
		e.setKey(key)
		t.entries[key] = e
	}
	t.Notify(e)
}

// Notify re-emits a change notification for an entry already present in
// the table.
func (t *Table) Notify(e Entry) {
	for _, id := range t.listenerIDs {
		cb, ok := t.listeners[id]
		if !ok {
			continue
		}
		cb(t.part, e)
	}
}

// MarkDelete flags the entry as deleted, notifies all listeners so they
// can tear down their attached state and removes the entry afterwards.
// Listeners that keep state on the entry are expected to clear it inside
// the delete notification.
func (t *Table) MarkDelete(e Entry) {
	e.markDeleted()
	t.Notify(e)
	if e.hasStates() {
		t.log.Warnf("table %s: entry %s deleted with listener state still attached",
			t.name, e.Key())
	}
	delete(t.entries, e.Key())
}

// Keys returns the entry keys in sorted order. Walks and debug output rely
// on this for determinism.
func (t *Table) Keys() []string {
	keys := make([]string, 0, len(t.entries))
	for key := range t.entries {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

// AllocWalker allocates a walker over this table. The walker must be
// scheduled with WalkAgain and released with ReleaseWalker once its owner
// is done with it.
func (t *Table) AllocWalker(visit WalkFn, done WalkDoneFn) *Walker {
	return &Walker{table: t, visit: visit, done: done}
}

// WalkAgain (re)schedules the walker. If the walker is already queued its
// scan simply restarts from the state visible when it eventually runs.
// The walk itself is deferred until the outermost mutation unwinds.
func (t *Table) WalkAgain(w *Walker) {
	t.sched.schedule(w)
}

// ReleaseWalker drops the walker; a queued walk that did not run yet is
// cancelled.
func (t *Table) ReleaseWalker(w *Walker) {
	w.released = true
}
