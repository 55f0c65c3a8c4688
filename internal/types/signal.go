package types

import "sync/atomic"

// StopSignal carries the two-level stop request for a run. The first
// level ends discovery but lets extraction of already-loaded items
// finish; the second ends the run outright, keeping what was gathered.
// Safe for concurrent use.
type StopSignal struct {
	stopScrolling atomic.Bool
	stopAll       atomic.Bool
}

// RequestStopScrolling asks the discovery loop to stop after the
// current poll.
func (s *StopSignal) RequestStopScrolling() { s.stopScrolling.Store(true) }

// RequestStopAll asks every stage to stop at its next checkpoint.
func (s *StopSignal) RequestStopAll() {
	s.stopScrolling.Store(true)
	s.stopAll.Store(true)
}

// StopScrolling reports whether discovery should end. A stop-all
// request implies it.
func (s *StopSignal) StopScrolling() bool {
	return s.stopScrolling.Load() || s.stopAll.Load()
}

// StopAll reports whether the whole run should end.
func (s *StopSignal) StopAll() bool { return s.stopAll.Load() }

// Reset clears both levels before a new run.
func (s *StopSignal) Reset() {
	s.stopScrolling.Store(false)
	s.stopAll.Store(false)
}
