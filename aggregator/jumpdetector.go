package aggregator

// traceTable maps a trace's canonical string to the node index window it
// was first observed at, mirroring HashTable's find-or-insert semantics.
type traceTable struct {
	entries map[string][]int
}

func newTraceTable() *traceTable {
	return &traceTable{entries: make(map[string][]int)}
}

// findOrInsert looks up traceStr; if absent, it inserts indexes under that
// key and returns (nil, false) — the find-or-insert behavior HashTable's
// comment documents ("method can be used as insert if return value is not
// handled"). If present, it returns the stored window and true.
func (t *traceTable) findOrInsert(traceStr string, indexes []int) ([]int, bool) {
	if found, ok := t.entries[traceStr]; ok {
		return found, true
	}
	t.entries[traceStr] = indexes
	return nil, false
}

// changeTrace rewrites the tail of the stored window for traceStr, from
// startIndex onward, to newValues — but only if the window currently
// stored still equals indexes exactly. That guard stops a shallower
// window's rewrite from clobbering an entry a deeper, already-processed
// window has since rewritten to something else.
func (t *traceTable) changeTrace(traceStr string, indexes []int, startIndex int, newValues []int) {
	found, ok := t.entries[traceStr]
	if !ok || !intsEqual(found, indexes) {
		return
	}
	for i, j := startIndex, 0; i < len(found); i, j = i+1, j+1 {
		found[i] = newValues[j]
	}
}

func intsEqual(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// jumpDetector folds a window of minSize nodes into a single back-edge
// once the same canonical sequence has been observed twice in a row ending
// at the current position, within the run that created it.
type jumpDetector struct {
	minSize int
	graph   *Graph
	table   *traceTable
}

func newJumpDetector(minSize int, g *Graph) *jumpDetector {
	return &jumpDetector{minSize: minSize, graph: g, table: newTraceTable()}
}

// getTrace walks minSize predecessors back from start and returns the
// window's node indexes (oldest first) and its canonical join string. ok
// is false if the walk would step before node 0 — too early in the run for
// a window of this size to exist yet.
func (d *jumpDetector) getTrace(start int) (indexes []int, traceStr string, ok bool) {
	path := make([]int, d.minSize)
	nodeIndex := start
	for i := d.minSize - 1; i >= 0; i-- {
		path[i] = nodeIndex
		nodeIndex = d.graph.nodes[nodeIndex].predecessor
	}
	if path[0] == 0 {
		return nil, "", false
	}
	canonicals := make([]string, d.minSize)
	for i, idx := range path {
		canonicals[i] = d.graph.nodes[idx].canonical
	}
	return path, traceString(canonicals), true
}

// findJumps is invoked immediately after a new node is appended. It looks
// for a trailing window of minSize nodes that has already occurred earlier
// in the graph, entirely within nodes this run created, and if so collapses
// it into a single edge to the earlier occurrence.
func (d *jumpDetector) findJumps() {
	indexes, traceStr, ok := d.getTrace(d.graph.current)
	if !ok {
		return
	}

	jumpDest, found := d.table.findOrInsert(traceStr, indexes)
	if !found {
		return
	}

	// The matched window must be entirely nodes created during this run,
	// and must not overlap its own earlier occurrence.
	if !isSuffixOf(indexes, d.graph.insertedNodes) {
		return
	}
	if indexes[0]-jumpDest[0] < d.minSize {
		return
	}

	for i := 0; i < d.minSize; i++ {
		curIndexes, curTraceStr, curOK := d.getTrace(d.graph.current)
		if curOK {
			d.table.changeTrace(curTraceStr, curIndexes, i, jumpDest)
		}
		d.graph.current = d.graph.nodes[d.graph.current].predecessor
		d.graph.deleteLastNode()
		d.graph.insertedNodes = d.graph.insertedNodes[:len(d.graph.insertedNodes)-1]
	}

	cur := d.graph.nodes[d.graph.current]
	cur.successors = cur.successors[:len(cur.successors)-1]
	cur.successors = append(cur.successors, jumpDest[0])
	d.graph.current = jumpDest[len(jumpDest)-1]
}

// isSuffixOf reports whether indexes equals the trailing len(indexes)
// elements of insertedNodes. This replaces the original analyzer's
// std::equal(indexes.begin(), indexes.end(), insertedNodes.end() - minSize)
// — which reads minSize elements backward from insertedNodes.end() without
// checking insertedNodes is that long — with an explicit bounds check: a
// window can't be a suffix of a shorter stack, so it safely reports false
// instead of reading before the start of the slice.
func isSuffixOf(indexes, insertedNodes []int) bool {
	if len(indexes) > len(insertedNodes) {
		return false
	}
	offset := len(insertedNodes) - len(indexes)
	return intsEqual(indexes, insertedNodes[offset:])
}
