package hierarchy

import (
	"sort"
	"strings"

	"stockroom/internal/domain"
)

// Search finds categories whose name contains keyword (case-insensitive)
// and returns them together with all of their ancestors, so a UI can render
// matches in their proper place in a pruned tree. A blank keyword is a
// passthrough: every category is returned.
//
// Results are ordered level ascending, then sort_order, then id — the same
// order a full tree flattens to, so filtered and unfiltered listings line up.
func Search(s *Snapshot, keyword string) ([]domain.Category, error) {
	keyword = strings.ToLower(strings.TrimSpace(keyword))

	keep := make(map[int64]bool)
	for _, c := range s.all {
		if keyword != "" && !strings.Contains(strings.ToLower(c.Name), keyword) {
			continue
		}
		if keep[c.ID] {
			continue
		}
		chain, err := s.AncestorPath(c.ID)
		if err != nil {
			return nil, err
		}
		for _, a := range chain {
			keep[a.ID] = true
		}
	}

	out := make([]domain.Category, 0, len(keep))
	for _, c := range s.all {
		if keep[c.ID] {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Level != out[j].Level {
			return out[i].Level < out[j].Level
		}
		if out[i].SortOrder != out[j].SortOrder {
			return out[i].SortOrder < out[j].SortOrder
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}
