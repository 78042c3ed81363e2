// Package scheduler walks the (run, call position, variant) space so that
// every enabled variant of every controllable call is exercised exactly
// once, reproducing each accepted run's fixed prefix exactly along the way.
//
// Only a BFS-style strategy is implemented (the only one this harness ever
// specifies), but the type is kept narrow enough that an alternative
// strategy could satisfy the same interface.
package scheduler

import (
	"errtracer/call"
	"errtracer/catalog"
	"errtracer/protocol"
)

// RunStore is the read view a scheduler needs onto the session's list of
// already-accepted runs — it never mutates them, only reads Depth/Len/
// VariantAt to reproduce a prefix.
type RunStore interface {
	Count() int
	At(i int) *call.Run
}

// BFS implements the original analyzer's expansion strategy: pick a run to
// use as a model, walk its calls in order, and for the single call position
// currently being expanded, try each configured variant in turn before
// moving the expansion point to the next call.
type BFS struct {
	variants map[catalog.Function][]int
	runs     RunStore

	currentRun     int
	currentCall    int
	currentVariant int
	nextCallFlag   bool
	completed      bool
}

// NewBFS creates a scheduler over the given per-function variant lists
// (typically catalog.VariantsForGroups' result) backed by runs, the
// session's accepted-run list.
func NewBFS(variants map[catalog.Function][]int, runs RunStore) *BFS {
	return &BFS{variants: variants, runs: runs}
}

// Completed reports whether every expansion point has been exhausted.
func (s *BFS) Completed() bool {
	return s.completed
}

// ScheduleCall decides the variant for a controllable call at callNum in
// the run currently being traced, advances internal bookkeeping, and
// returns the EXEC message to send back to the shim.
func (s *BFS) ScheduleCall(c *call.Call, run *call.Run, callNum int) *protocol.Outbound {
	var variant int
	switch {
	case callNum == s.currentCall:
		list := s.variants[c.Function]
		if s.currentVariant != len(list) {
			variant = list[s.currentVariant]
			s.currentVariant++
		} else {
			variant = 0
		}
		run.Depth = s.currentCall + 1
		c.Variant = variant
		if s.currentVariant == len(list) {
			s.nextCallFlag = true
		}

	case s.runs.Count() > 0 && callNum < s.runs.At(s.currentRun).Depth:
		model := s.runs.At(s.currentRun)
		variant = model.VariantAt(callNum)
		c.Variant = variant
		if callNum == model.Len()-1 {
			s.goToNextRun()
		}

	default:
		variant = 0
		c.Variant = 0
	}
	return protocol.NewExec(c.Name, variant)
}

// NotifyCall advances the expansion cursor for a notify-only call: if this
// position is the current expansion point, move past it, possibly rolling
// over to the next run. A no-op before any run has been accepted (the
// notify-only baseline run has no model to advance against).
func (s *BFS) NotifyCall(callNum int) {
	if s.runs.Count() == 0 {
		return
	}
	if callNum != s.currentCall {
		return
	}
	s.currentCall++
	if s.currentCall == s.runs.At(s.currentRun).Len() {
		s.goToNextRun()
	}
}

// NextRun tells the scheduler the traced run just ended; if the previous
// call's variant list was exhausted, the expansion point moves to the next
// call (possibly rolling over to the next model run).
func (s *BFS) NextRun() {
	if !s.nextCallFlag {
		return
	}
	s.nextCallFlag = false
	s.currentVariant = 0
	s.currentCall++
	if s.currentCall == s.runs.At(s.currentRun).Len() {
		s.goToNextRun()
	}
}

func (s *BFS) goToNextRun() {
	s.currentRun++
	if s.currentRun == s.runs.Count() {
		s.completed = true
		return
	}
	s.currentVariant = 0
	s.currentCall = s.runs.At(s.currentRun).Depth
}
