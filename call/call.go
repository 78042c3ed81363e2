// Package call defines the in-memory representation of one observed libc
// call and one traced run (an ordered sequence of calls).
package call

import "errtracer/catalog"

// Call is one observed invocation of a cataloged function: its identity,
// the parameters it was invoked with (as the shim serialized them), the
// return value it produced, and the variant code applied to it (0 if none).
type Call struct {
	Function  catalog.Function
	Name      string
	Params    []string
	ReturnVal string
	Variant   int
}

// Param returns the parameter at index, or "" if out of range — mirrors
// the original's tolerant getParam rather than panicking on a malformed
// wire message.
func (c *Call) Param(index int) string {
	if index < 0 || index >= len(c.Params) {
		return ""
	}
	return c.Params[index]
}

// Run is the ordered sequence of calls observed on one connection, plus the
// bookkeeping the scheduler needs to reproduce and extend it.
type Run struct {
	Calls []*Call
	// Depth is the call index already fixed by a previous run's prefix;
	// positions before Depth must replay exactly, positions at or after
	// are where this run is allowed to diverge.
	Depth int
	// Final marks that this run's last graph node has been closed out.
	// No code in this module sets it; the aggregator records finality on
	// its own graph nodes instead.
	Final bool
}

// Append adds c to the run.
func (r *Run) Append(c *Call) {
	r.Calls = append(r.Calls, c)
}

// Len returns the number of calls recorded so far.
func (r *Run) Len() int {
	return len(r.Calls)
}

// VariantAt returns the variant code used at position i, or 0 if i is out
// of range (no call recorded there yet).
func (r *Run) VariantAt(i int) int {
	if i < 0 || i >= len(r.Calls) {
		return 0
	}
	return r.Calls[i].Variant
}
