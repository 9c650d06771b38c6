package hierarchy_test

import (
	"testing"

	"stockroom/internal/hierarchy"
)

func TestSearchMatchesSurfaceAncestors(t *testing.T) {
	s := hierarchy.NewSnapshot(fixture())
	got, err := hierarchy.Search(s, "Shoe")
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"Sports", "Running", "Shoes"}
	if len(got) != len(want) {
		t.Fatalf("got %d results, want %d", len(got), len(want))
	}
	for i, w := range want {
		if got[i].Name != w {
			t.Fatalf("result[%d] = %s, want %s", i, got[i].Name, w)
		}
	}
}

func TestSearchIsCaseInsensitive(t *testing.T) {
	s := hierarchy.NewSnapshot(fixture())
	got, err := hierarchy.Search(s, "cYcLiNg")
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 || got[0].Name != "Sports" || got[1].Name != "Cycling" {
		t.Fatalf("unexpected results: %+v", got)
	}
}

func TestSearchBlankKeywordReturnsAllInTreeOrder(t *testing.T) {
	s := hierarchy.NewSnapshot(fixture())
	got, err := hierarchy.Search(s, "   ")
	if err != nil {
		t.Fatal(err)
	}
	// Level ascending, sort_order within level: same order the full tree
	// flattens to.
	want := []string{"Sports", "Outdoor", "Running", "Cycling", "Shoes"}
	if len(got) != len(want) {
		t.Fatalf("got %d results, want %d", len(got), len(want))
	}
	for i, w := range want {
		if got[i].Name != w {
			t.Fatalf("result[%d] = %s, want %s", i, got[i].Name, w)
		}
	}
}

func TestSearchNoMatches(t *testing.T) {
	s := hierarchy.NewSnapshot(fixture())
	got, err := hierarchy.Search(s, "zzz")
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 0 {
		t.Fatalf("want empty result, got %+v", got)
	}
}

func TestSearchDeduplicatesSharedAncestors(t *testing.T) {
	s := hierarchy.NewSnapshot(fixture())
	// "ing" matches Running and Cycling; Sports appears once.
	got, err := hierarchy.Search(s, "ing")
	if err != nil {
		t.Fatal(err)
	}
	seen := map[int64]int{}
	for _, c := range got {
		seen[c.ID]++
	}
	if seen[1] != 1 {
		t.Fatalf("Sports should appear exactly once, got %d", seen[1])
	}
	if len(got) != 3 {
		t.Fatalf("want Sports+Running+Cycling, got %+v", got)
	}
}
