package hierarchy_test

import (
	"math/rand"
	"strconv"
	"testing"

	"stockroom/internal/domain"
	"stockroom/internal/hierarchy"
)

func TestCountsForSumsBottomUp(t *testing.T) {
	s := hierarchy.NewSnapshot(fixture())
	direct := map[int64]int{1: 1, 2: 2, 3: 4, 5: 8}
	got := hierarchy.CountsFor(s, direct)

	want := map[int64]hierarchy.Counts{
		1: {Direct: 1, Transitive: 15}, // 1+2+4+8
		2: {Direct: 2, Transitive: 6},  // 2+4
		3: {Direct: 4, Transitive: 4},
		4: {Direct: 0, Transitive: 0},
		5: {Direct: 8, Transitive: 8},
	}
	for id, w := range want {
		if got[id] != w {
			t.Fatalf("counts[%d] = %+v, want %+v", id, got[id], w)
		}
	}
}

func TestCountsForEmptyCategoryIsZero(t *testing.T) {
	s := hierarchy.NewSnapshot(fixture())
	got := hierarchy.CountsFor(s, nil)
	for id, c := range got {
		if c.Direct != 0 || c.Transitive != 0 {
			t.Fatalf("category %d with no products reports %+v", id, c)
		}
	}
}

func TestTransitiveCountMatchesBulk(t *testing.T) {
	s := hierarchy.NewSnapshot(fixture())
	direct := map[int64]int{2: 3, 3: 7}
	bulk := hierarchy.CountsFor(s, direct)
	for _, c := range s.All() {
		one, err := hierarchy.TransitiveCount(s, direct, c.ID)
		if err != nil {
			t.Fatal(err)
		}
		if one != bulk[c.ID].Transitive {
			t.Fatalf("per-node count %d != bulk %d for category %d", one, bulk[c.ID].Transitive, c.ID)
		}
	}
	if _, err := hierarchy.TransitiveCount(s, direct, 404); err == nil {
		t.Fatal("unknown id should error")
	}
}

// recursiveTransitive is the definitionally-correct reference: direct count
// plus the recursive sum over children.
func recursiveTransitive(s *hierarchy.Snapshot, direct map[int64]int, id int64) int {
	total := direct[id]
	for _, child := range s.ChildIDs(id) {
		total += recursiveTransitive(s, direct, child)
	}
	return total
}

func TestCountsForAgainstRecursiveDefinitionRandomTrees(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	for trial := 0; trial < 50; trial++ {
		var cats []domain.Category
		direct := map[int64]int{}
		n := 1 + rng.Intn(30)
		for i := 0; i < n; i++ {
			id := int64(i + 1)
			c := domain.Category{ID: id, Name: "c" + strconv.Itoa(i), SortOrder: rng.Intn(5)}
			// Pick a parent among earlier categories that still has room
			// below the depth cap; otherwise stay a root.
			if i > 0 && rng.Intn(4) != 0 {
				p := cats[rng.Intn(i)]
				if p.Level < hierarchy.MaxDepth-1 {
					pidv := p.ID
					c.ParentID = &pidv
					c.Level = p.Level + 1
				}
			}
			cats = append(cats, c)
			direct[id] = rng.Intn(4)
		}
		s := hierarchy.NewSnapshot(cats)
		bulk := hierarchy.CountsFor(s, direct)
		for _, c := range cats {
			want := recursiveTransitive(s, direct, c.ID)
			if bulk[c.ID].Transitive != want {
				t.Fatalf("trial %d: bulk transitive for %d = %d, recursive = %d",
					trial, c.ID, bulk[c.ID].Transitive, want)
			}
			if bulk[c.ID].Direct != direct[c.ID] {
				t.Fatalf("trial %d: direct for %d = %d, want %d",
					trial, c.ID, bulk[c.ID].Direct, direct[c.ID])
			}
		}
	}
}
