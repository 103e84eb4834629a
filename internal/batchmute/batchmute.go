// Package batchmute throttles repeated diagnostic logging under sustained
// error or loss storms.
package batchmute

import (
	"sync"
	"time"
)

// Mute limits how many times an event's logged per reset interval.
type Mute struct {
	batchStart time.Time
	interval   time.Duration
	count      int
	max        int
}

// New creates a Mute allowing up to max events per interval before muting.
// The first interval starts at the first event.
func New(interval time.Duration, max int) *Mute {
	return &Mute{
		interval: interval,
		max:      max,
	}
}

// Increment records one event and reports whether it should be muted, plus
// how many events were skipped since the muting window last reset.
func (m *Mute) Increment() (muted bool, skipped int) {
	return m.increment(1, time.Now().UTC())
}

func (m *Mute) increment(n int, now time.Time) (muted bool, skipped int) {
	if m.max == 0 || m.interval == 0 {
		return false, 0
	}

	if m.count >= m.max {
		skipped = m.count - m.max
	}
	if now.Sub(m.batchStart) > m.interval {
		m.count = 0
		m.batchStart = now
	}
	m.count += n

	return m.count > m.max, skipped
}

// Set throttles several independent event streams, keyed by a caller
// string, under one interval/max policy. It exists because a decoder
// emits diagnostics of several unrelated kinds (UnknownTemplate,
// Truncated, InvalidTemplate, ...); muting them against one shared Mute
// would let a storm of one kind silence another kind's first occurrence.
type Set struct {
	interval time.Duration
	max      int

	mu    sync.Mutex
	mutes map[string]*Mute
}

// NewSet creates a Set applying interval/max independently per kind.
func NewSet(interval time.Duration, max int) *Set {
	return &Set{
		interval: interval,
		max:      max,
		mutes:    make(map[string]*Mute),
	}
}

// Increment records one event of kind and reports whether it should be
// muted, same semantics as Mute.Increment but scoped to kind.
func (s *Set) Increment(kind string) (muted bool, skipped int) {
	s.mu.Lock()
	m, ok := s.mutes[kind]
	if !ok {
		m = New(s.interval, s.max)
		s.mutes[kind] = m
	}
	s.mu.Unlock()

	return m.Increment()
}
