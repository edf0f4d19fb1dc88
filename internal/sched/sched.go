// Package sched abstracts timer scheduling so debounce and suppression
// windows can be driven deterministically in tests.
package sched

import (
	"sync"
	"time"
)

// Timer is a cancellable scheduled task.
type Timer interface {
	// Stop cancels the task. It reports whether the cancel happened before
	// the task ran.
	Stop() bool
}

// Scheduler schedules a function to run after a delay.
type Scheduler interface {
	AfterFunc(d time.Duration, fn func()) Timer
}

// Wall schedules on real time via time.AfterFunc.
type Wall struct{}

func (Wall) AfterFunc(d time.Duration, fn func()) Timer {
	return wallTimer{t: time.AfterFunc(d, fn)}
}

type wallTimer struct{ t *time.Timer }

func (w wallTimer) Stop() bool { return w.t.Stop() }

// Manual is a test scheduler: tasks run only when Advance moves the fake
// clock past their deadline.
type Manual struct {
	mu    sync.Mutex
	now   time.Duration
	next  int
	tasks map[int]manualTask
}

type manualTask struct {
	due time.Duration
	fn  func()
}

// NewManual creates a manual scheduler starting at time zero.
func NewManual() *Manual {
	return &Manual{tasks: make(map[int]manualTask)}
}

func (m *Manual) AfterFunc(d time.Duration, fn func()) Timer {
	m.mu.Lock()
	defer m.mu.Unlock()
	id := m.next
	m.next++
	m.tasks[id] = manualTask{due: m.now + d, fn: fn}
	return &manualTimer{m: m, id: id}
}

// Advance moves the clock forward and runs every task whose deadline has
// passed, in deadline order.
func (m *Manual) Advance(d time.Duration) {
	m.mu.Lock()
	m.now += d
	now := m.now
	m.mu.Unlock()

	for {
		m.mu.Lock()
		bestID := -1
		var best manualTask
		for id, t := range m.tasks {
			if t.due <= now && (bestID == -1 || t.due < best.due) {
				bestID = id
				best = t
			}
		}
		if bestID == -1 {
			m.mu.Unlock()
			return
		}
		delete(m.tasks, bestID)
		m.mu.Unlock()
		best.fn()
	}
}

// Pending returns the number of scheduled, unfired tasks.
func (m *Manual) Pending() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.tasks)
}

type manualTimer struct {
	m  *Manual
	id int
}

func (t *manualTimer) Stop() bool {
	t.m.mu.Lock()
	defer t.m.mu.Unlock()
	if _, ok := t.m.tasks[t.id]; !ok {
		return false
	}
	delete(t.m.tasks, t.id)
	return true
}
