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
	"sync"

	"github.com/ligato/cn-infra/logging"
)

// WalkFn visits one entry during a table walk. Returning false stops the
// walk early.
type WalkFn func(part *Partition, e Entry) bool

// WalkDoneFn is invoked once a walk has finished visiting entries.
type WalkDoneFn func(w *Walker, t *Table)

// Walker is a re-armable table walk. At most one scan of a walker is
// queued at any time; scheduling a queued walker is a no-op because the
// pending scan will already observe the latest table state.
type Walker struct {
	table    *Table
	visit    WalkFn
	done     WalkDoneFn
	queued   bool
	released bool
}

// Table returns the table the walker scans.
func (w *Walker) Table() *Table {
	return w.table
}

func (w *Walker) run() {
	for _, key := range w.table.Keys() {
		e := w.table.Get(key)
		if e == nil {
			continue
		}
		if !w.visit(w.table.part, e) {
			break
		}
	}
	if w.done != nil {
		w.done(w, w.table)
	}
}

// Scheduler defers table walks until the outermost externally-driven
// mutation has unwound. Every public mutation entry point of the oper DB
// brackets itself with Ref/Unref; walks scheduled in between run when the
// reference count drops back to zero. The scheduler also serializes
// outside readers against the event goroutine via Synchronize.
type Scheduler struct {
	log logging.Logger

	mu       sync.Mutex
	depth    int
	draining bool
	queue    []*Walker
}

// NewScheduler creates an idle walk scheduler.
func NewScheduler(log logging.Logger) *Scheduler {
	return &Scheduler{log: log}
}

// Ref enters a mutation section. The first Ref takes the database lock.
// Sections entered from within a draining walk reuse the already-held lock.
func (s *Scheduler) Ref() {
	if s.depth == 0 && !s.draining {
		s.mu.Lock()
	}
	s.depth++
}

// Unref leaves a mutation section. When the outermost section unwinds,
// all queued walks are drained before the database lock is released.
func (s *Scheduler) Unref() {
	s.depth--
	if s.depth == 0 && !s.draining {
		s.drain()
		s.mu.Unlock()
	}
}

// Synchronize runs fn while the database is quiescent. Intended for
// readers outside of the event goroutine (REST handlers, CLI dumps).
func (s *Scheduler) Synchronize(fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn()
}

func (s *Scheduler) schedule(w *Walker) {
	if w.released || w.queued {
		return
	}
	w.queued = true
	s.queue = append(s.queue, w)
}

func (s *Scheduler) drain() {
	if s.draining {
		return
	}
	s.draining = true
	defer func() { s.draining = false }()

	for len(s.queue) > 0 {
		w := s.queue[0]
		s.queue = s.queue[1:]
		w.queued = false
		if w.released {
			continue
		}
		w.run()
	}
}
