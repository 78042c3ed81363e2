package aggregator

import (
	"testing"

	"errtracer/call"
	"errtracer/catalog"
)

func openClose(variant int) []*call.Call {
	return []*call.Call{
		{Function: catalog.Open, Name: "open", Params: []string{"x"}, Variant: variant},
		{Function: catalog.Close, Name: "close", Params: []string{"0"}},
	}
}

// TestBaselineVariantsCollapseByName reproduces scenario 1: a baseline run
// (open, close) plus four error-variant runs that fail at open (so they
// never reach close). Under name-only canonicalization all five runs share
// the same "open" node; the error runs mark it final without creating a
// second node.
func TestBaselineVariantsCollapseByName(t *testing.T) {
	g := New(NameOnly, 1)

	for _, c := range openClose(0) {
		g.NewNode(c)
	}
	g.NextRun()

	for _, variant := range []int{60, 61, 62, 92} {
		g.NewNode(&call.Call{Function: catalog.Open, Name: "open", Params: []string{"x"}, Variant: variant})
		g.NextRun()
	}

	if g.NodeCount() != 3 {
		t.Fatalf("NodeCount() = %d, want 3 (root, open, close)", g.NodeCount())
	}
	if !g.IsFinal(1) {
		t.Fatal("open node should be final (error runs end there)")
	}
	if !g.IsFinal(2) {
		t.Fatal("close node should be final (baseline run ends there)")
	}
}

// TestBaseParamDistinguishesPath reproduces scenario 2: open("a") then
// open("b") produce two distinct nodes under base-param canonicalization.
func TestBaseParamDistinguishesPath(t *testing.T) {
	g := New(BaseParam, 1)

	g.NewNode(&call.Call{Function: catalog.Open, Name: "open", Params: []string{"a"}})
	g.NewNode(&call.Call{Function: catalog.Open, Name: "open", Params: []string{"b"}})

	if g.NodeCount() != 3 {
		t.Fatalf("NodeCount() = %d, want 3 (root, open(a), open(b))", g.NodeCount())
	}
	if g.Label(1) == g.Label(2) {
		t.Fatalf("expected distinct labels, got %q twice", g.Label(1))
	}
}

// TestBaseParamUsesSecondParamForLink checks that link/symlink canonicalize
// on their second parameter (the new-name/target side), matching the
// original's baseParamMap, not the first.
func TestBaseParamUsesSecondParamForLink(t *testing.T) {
	c := &call.Call{Function: catalog.Link, Name: "link", Params: []string{"old", "new"}}
	if got, want := BaseParam(c), "link(new)"; got != want {
		t.Fatalf("BaseParam(link) = %q, want %q", got, want)
	}
}

// TestBaseParamNoEntryYieldsEmptyParens checks that a controllable function
// absent from baseParamMap (readdir/closedir) canonicalizes to "name()".
func TestBaseParamNoEntryYieldsEmptyParens(t *testing.T) {
	c := &call.Call{Function: catalog.Readdir, Name: "readdir", Params: []string{"3"}}
	if got, want := BaseParam(c), "readdir()"; got != want {
		t.Fatalf("BaseParam(readdir) = %q, want %q", got, want)
	}
}

// TestJumpDetectionFoldsRepeatedSubroutine reproduces scenario 3's shape
// with a period-3 cycle (read, write, close repeated twice) and
// subroutine=3: the distance guard (indexes.front()-jumpDest.front() >=
// minSize) only fires once the repeat is a full, non-overlapping period
// away, which for minSize 3 requires a period-3 cycle observed twice.
func TestJumpDetectionFoldsRepeatedSubroutine(t *testing.T) {
	g := New(NameOnly, 3)

	seq := []string{"read", "write", "close", "read", "write", "close"}
	for _, name := range seq {
		g.NewNode(&call.Call{Name: name})
	}

	if got, want := g.NodeCount(), 4; got != want {
		t.Fatalf("NodeCount() = %d, want %d (root + read + write + close)", got, want)
	}
	if got, want := g.Successors(3), []int{1}; len(got) != 1 || got[0] != want[0] {
		t.Fatalf("close node successors = %v, want back-edge to node 1 (read)", got)
	}
	if g.CurrentNode() != 3 {
		t.Fatalf("CurrentNode() = %d, want 3 (cursor returns to the close node after folding)", g.CurrentNode())
	}
}

// TestJumpDetectionDisabledBelowMinSize checks that a subroutine size <= 1
// never constructs a jump detector, so repeats of any length simply keep
// growing the graph (exercised indirectly: NewNode never triggers a
// panic from a nil jumps field).
func TestJumpDetectionDisabledBelowMinSize(t *testing.T) {
	g := New(NameOnly, 1)
	for _, name := range []string{"read", "write", "read", "write", "read", "write"} {
		g.NewNode(&call.Call{Name: name})
	}
	if g.jumps != nil {
		t.Fatal("expected jump detector to be disabled for minSubroutineSize=1")
	}
}

func TestNodeInsertedClearedAcrossRuns(t *testing.T) {
	g := New(NameOnly, 1)
	g.NewNode(&call.Call{Name: "read"})
	if !g.NodeInserted() {
		t.Fatal("expected NodeInserted true after a fresh node")
	}
	g.NextRun()
	if g.NodeInserted() {
		t.Fatal("expected NodeInserted false immediately after NextRun")
	}
	// Replaying the same call from the root finds the existing node rather
	// than inserting a new one.
	g.NewNode(&call.Call{Name: "read"})
	if g.NodeInserted() {
		t.Fatal("expected NodeInserted false when the node already existed")
	}
}

func TestIsSuffixOf(t *testing.T) {
	cases := []struct {
		name    string
		indexes []int
		stack   []int
		want    bool
	}{
		{"exact match", []int{1, 2, 3}, []int{1, 2, 3}, true},
		{"trailing suffix", []int{2, 3}, []int{1, 2, 3}, true},
		{"longer than stack", []int{1, 2, 3, 4}, []int{2, 3, 4}, false},
		{"not a suffix", []int{1, 2}, []int{1, 2, 3}, false},
		{"empty stack", []int{1}, nil, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := isSuffixOf(tc.indexes, tc.stack); got != tc.want {
				t.Fatalf("isSuffixOf(%v, %v) = %v, want %v", tc.indexes, tc.stack, got, tc.want)
			}
		})
	}
}
