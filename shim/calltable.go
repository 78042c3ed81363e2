package shim

import "sync"

// CallTable hands out integer handles for in-flight Call values so a cgo
// boundary that can only pass scalars (no Go struct by value) can still
// round-trip a Dispatch result to the matching Complete call. Handles are
// single-use: Take removes the entry, matching the original's one-shot
// TInMsg lifetime (allocated per call, freed once its RETURN is sent).
type CallTable struct {
	mu      sync.Mutex
	next    int64
	entries map[int64]Call
}

// NewCallTable returns an empty table.
func NewCallTable() *CallTable {
	return &CallTable{entries: make(map[int64]Call)}
}

// Put registers call and returns its handle.
func (t *CallTable) Put(call Call) int64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.next++
	handle := t.next
	t.entries[handle] = call
	return handle
}

// Take removes and returns the call registered under handle. ok is false
// if handle is unknown (already consumed, or never issued).
func (t *CallTable) Take(handle int64) (Call, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	call, ok := t.entries[handle]
	if ok {
		delete(t.entries, handle)
	}
	return call, ok
}
