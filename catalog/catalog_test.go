package catalog

import "testing"

func TestLookupAndIsControllable(t *testing.T) {
	cases := []struct {
		name         string
		wantExists   bool
		wantControl  bool
	}{
		{"open", true, true},
		{"read", true, true},
		{"mmap", true, false},
		{"sync", true, false},
		{"bogus", false, false},
	}
	for _, tc := range cases {
		_, ok := Lookup(tc.name)
		if ok != tc.wantExists {
			t.Errorf("Lookup(%q) exists = %v, want %v", tc.name, ok, tc.wantExists)
		}
		if got := IsControllable(tc.name); got != tc.wantControl {
			t.Errorf("IsControllable(%q) = %v, want %v", tc.name, got, tc.wantControl)
		}
	}
}

func TestControllableCount(t *testing.T) {
	if got := len(Controllable()); got != 24 {
		t.Errorf("len(Controllable()) = %d, want 24", got)
	}
}

func TestBaseParamIndexLinkUsesSecondParam(t *testing.T) {
	idx, ok := BaseParamIndex(Link)
	if !ok || idx != 1 {
		t.Errorf("BaseParamIndex(Link) = (%d, %v), want (1, true)", idx, ok)
	}
	idx, ok = BaseParamIndex(Open)
	if !ok || idx != 0 {
		t.Errorf("BaseParamIndex(Open) = (%d, %v), want (0, true)", idx, ok)
	}
	if _, ok := BaseParamIndex(Readdir); ok {
		t.Errorf("BaseParamIndex(Readdir) should have no entry")
	}
}

func TestVariantsForGroupsOrderAndContent(t *testing.T) {
	groups := []VariantGroup{Path, DestFile}
	m := VariantsForGroups(groups)
	got := m[Open]
	want := []int{60, 61, 62, 90, 91, 92}
	if len(got) != len(want) {
		t.Fatalf("VariantsForGroups(open path,file) = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("index %d: got %d want %d", i, got[i], want[i])
		}
	}
}

func TestVariantsForGroupsSkipsEmptyContribution(t *testing.T) {
	m := VariantsForGroups([]VariantGroup{Inval})
	if got := m[Open]; len(got) != 0 {
		t.Errorf("open has no Inval variants, got %v", got)
	}
	if got := m[Read]; len(got) != 2 {
		t.Errorf("read Inval variants = %v, want 2 entries", got)
	}
}

func TestErrnoName(t *testing.T) {
	name, ok := ErrnoName(61)
	if !ok || name != "ENOENT" {
		t.Errorf("ErrnoName(61) = (%q, %v), want (ENOENT, true)", name, ok)
	}
	if _, ok := ErrnoName(999); ok {
		t.Errorf("ErrnoName(999) should not be recognized")
	}
}

func TestLookupGroup(t *testing.T) {
	for _, name := range []string{"inval", "io", "access", "memory", "interrupt", "path", "limits", "permissions", "file"} {
		if _, ok := LookupGroup(name); !ok {
			t.Errorf("LookupGroup(%q) not found", name)
		}
	}
	if _, ok := LookupGroup("bogus"); ok {
		t.Errorf("LookupGroup(bogus) should not be found")
	}
}
