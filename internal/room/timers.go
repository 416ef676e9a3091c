package room

import (
	"time"

	"github.com/sasha-s/go-deadlock"

	"github.com/ugaemi/geohunt-server/internal/clock"
)

// TimerSet holds at most one deferred task per room code.
type TimerSet struct {
	clock  clock.Clock
	timers map[string]*timerEntry
	mu     deadlock.Mutex
}

type timerEntry struct {
	timer clock.Timer
}

// NewTimerSet creates an empty TimerSet driven by clk.
func NewTimerSet(clk clock.Clock) *TimerSet {
	return &TimerSet{
		clock:  clk,
		timers: make(map[string]*timerEntry),
	}
}

// Schedule arms fn to run once after delay, replacing any task already
// armed for code.
func (s *TimerSet) Schedule(code string, delay time.Duration, fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if old, ok := s.timers[code]; ok {
		old.timer.Stop()
	}

	entry := &timerEntry{}
	entry.timer = s.clock.AfterFunc(delay, func() {
		s.mu.Lock()
		if s.timers[code] != entry {
			// cancelled or replaced after the timer fired
			s.mu.Unlock()
			return
		}
		delete(s.timers, code)
		s.mu.Unlock()

		fn()
	})
	s.timers[code] = entry
}

// Cancel stops the task armed for code. It returns false if none was armed.
func (s *TimerSet) Cancel(code string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.timers[code]
	if !ok {
		return false
	}
	entry.timer.Stop()
	delete(s.timers, code)
	return true
}

// Armed reports whether a task is armed for code.
func (s *TimerSet) Armed(code string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.timers[code]
	return ok
}
