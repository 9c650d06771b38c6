package hierarchy

import "sort"

// Counts holds the product association counts for one category.
// Direct counts only the category's own join rows; Transitive adds every
// descendant's direct count.
type Counts struct {
	Direct     int `json:"direct"`
	Transitive int `json:"transitive"`
}

// CountsFor computes Counts for every category in the snapshot in one
// bottom-up pass: categories are processed deepest level first, so each
// parent sums already-final child totals. O(n) instead of the naive
// per-node re-traversal.
//
// directCounts maps category id to its own join-row count; ids missing
// from the map count as 0.
func CountsFor(s *Snapshot, directCounts map[int64]int) map[int64]Counts {
	ids := make([]int64, 0, len(s.all))
	for _, c := range s.all {
		ids = append(ids, c.ID)
	}
	// Deepest first. Snapshot levels are re-derived from the parent links
	// at build time, so they are a safe processing key here.
	sort.Slice(ids, func(i, j int) bool {
		a, b := s.byID[ids[i]], s.byID[ids[j]]
		if a.Level != b.Level {
			return a.Level > b.Level
		}
		return a.ID < b.ID
	})

	out := make(map[int64]Counts, len(ids))
	for _, id := range ids {
		c := Counts{Direct: directCounts[id], Transitive: directCounts[id]}
		for _, child := range s.byParent[id] {
			c.Transitive += out[child].Transitive
		}
		out[id] = c
	}
	return out
}

// TransitiveCount is the single-category convenience form. It runs the same
// bulk pass under the hood; there is deliberately no second algorithm.
func TransitiveCount(s *Snapshot, directCounts map[int64]int, id int64) (int, error) {
	if _, ok := s.byID[id]; !ok {
		return 0, ErrNotFound
	}
	return CountsFor(s, directCounts)[id].Transitive, nil
}
