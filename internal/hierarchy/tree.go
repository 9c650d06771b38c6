// Package hierarchy implements the category tree engine: building nested
// trees from the flat category table, ancestor/descendant walks, product
// count aggregation, validation of hierarchy mutations, and keyword search.
//
// Everything here is pure computation over a Snapshot — an immutable copy of
// all categories taken once per request — so it is safe to call from any
// number of handlers concurrently.
package hierarchy

import (
	"errors"
	"sort"

	"stockroom/internal/domain"
)

// MaxDepth is the number of levels the tree may have. Levels are 0-based,
// so valid levels are 0..MaxDepth-1.
const MaxDepth = 3

// PathSeparator joins category names in a full path ("Sports > Running > Shoes").
const PathSeparator = " > "

var (
	// ErrNotFound means a referenced category id is not in the snapshot.
	ErrNotFound = errors.New("category not found")
	// ErrCorruptHierarchy means a bounded walk ran past MaxDepth, i.e. the
	// stored data has a cycle or an impossible depth. This is a data bug,
	// never a user error.
	ErrCorruptHierarchy = errors.New("corrupt category hierarchy")
)

// Node is a category with its children attached, ordered for display.
type Node struct {
	domain.Category
	Children []*Node `json:"children,omitempty"`
}

// Snapshot indexes a flat category slice for tree and path queries.
// Children are always derived from parent_id via the byParent index,
// never stored as object references.
type Snapshot struct {
	all      []domain.Category
	byID     map[int64]domain.Category
	byParent map[int64][]int64 // parent id -> child ids, display order
	roots    []int64           // includes dangling-parent categories
	dangling []int64           // categories whose parent_id points nowhere
}

// NewSnapshot builds the indexes. Input order does not matter; sibling
// groups come out sorted by sort_order ascending, ties broken by id.
func NewSnapshot(cats []domain.Category) *Snapshot {
	all := make([]domain.Category, len(cats))
	copy(all, cats)
	s := &Snapshot{
		all:      all,
		byID:     make(map[int64]domain.Category, len(cats)),
		byParent: make(map[int64][]int64),
	}
	for _, c := range cats {
		s.byID[c.ID] = c
	}
	for _, c := range cats {
		if c.ParentID == nil {
			s.roots = append(s.roots, c.ID)
			continue
		}
		if _, ok := s.byID[*c.ParentID]; !ok {
			// Dangling parent reference: treat as a root so the category
			// still renders, but report it for integrity checks.
			s.roots = append(s.roots, c.ID)
			s.dangling = append(s.dangling, c.ID)
			continue
		}
		s.byParent[*c.ParentID] = append(s.byParent[*c.ParentID], c.ID)
	}
	s.sortSiblings(s.roots)
	for _, ids := range s.byParent {
		s.sortSiblings(ids)
	}
	// Stored levels can go stale: a dangling-parent category renders as a
	// root, so the snapshot re-derives every level from the live parent
	// links. Level-keyed ordering (counts, search) then agrees with what
	// Tree renders.
	for _, rid := range s.roots {
		s.relevel(rid, 0)
	}
	for i, c := range s.all {
		s.all[i] = s.byID[c.ID]
	}
	return s
}

func (s *Snapshot) relevel(id int64, level int) {
	if level >= MaxDepth {
		return
	}
	c := s.byID[id]
	c.Level = level
	s.byID[id] = c
	for _, cid := range s.byParent[id] {
		s.relevel(cid, level+1)
	}
}

func (s *Snapshot) sortSiblings(ids []int64) {
	sort.Slice(ids, func(i, j int) bool {
		a, b := s.byID[ids[i]], s.byID[ids[j]]
		if a.SortOrder != b.SortOrder {
			return a.SortOrder < b.SortOrder
		}
		return a.ID < b.ID
	})
}

// All returns the snapshot's categories in input order.
func (s *Snapshot) All() []domain.Category { return s.all }

// Get looks up a category by id.
func (s *Snapshot) Get(id int64) (domain.Category, bool) {
	c, ok := s.byID[id]
	return c, ok
}

// Dangling returns the ids of categories whose parent_id references a
// missing category. Empty on healthy data.
func (s *Snapshot) Dangling() []int64 { return s.dangling }

// HasChildren reports whether any category references id as its parent.
func (s *Snapshot) HasChildren(id int64) bool { return len(s.byParent[id]) > 0 }

// ChildIDs returns the direct children of id in display order.
func (s *Snapshot) ChildIDs(id int64) []int64 { return s.byParent[id] }

// Tree returns the full forest, roots in display order.
func (s *Snapshot) Tree() []*Node {
	out := make([]*Node, 0, len(s.roots))
	for _, id := range s.roots {
		out = append(out, s.buildNode(id, 0))
	}
	return out
}

// Subtree returns the tree rooted at rootID, or ErrNotFound.
func (s *Snapshot) Subtree(rootID int64) (*Node, error) {
	if _, ok := s.byID[rootID]; !ok {
		return nil, ErrNotFound
	}
	return s.buildNode(rootID, 0), nil
}

func (s *Snapshot) buildNode(id int64, depth int) *Node {
	n := &Node{Category: s.byID[id]}
	if depth >= MaxDepth {
		// Deeper than the invariant allows; stop attaching rather than
		// recurse into a possible cycle. The walk-based queries report
		// ErrCorruptHierarchy for this state.
		return n
	}
	for _, cid := range s.byParent[id] {
		n.Children = append(n.Children, s.buildNode(cid, depth+1))
	}
	return n
}

// AncestorPath returns the chain from the root down to id, inclusive.
// The walk is bounded to MaxDepth+1 hops; exceeding the bound means the
// stored parent links form a cycle and yields ErrCorruptHierarchy.
func (s *Snapshot) AncestorPath(id int64) ([]domain.Category, error) {
	c, ok := s.byID[id]
	if !ok {
		return nil, ErrNotFound
	}
	chain := []domain.Category{c}
	for hops := 0; c.ParentID != nil; hops++ {
		if hops >= MaxDepth {
			return nil, ErrCorruptHierarchy
		}
		p, ok := s.byID[*c.ParentID]
		if !ok {
			// Dangling parent: the category itself is the top of what we
			// can resolve; callers see a truncated but terminating path.
			break
		}
		chain = append(chain, p)
		c = p
	}
	// Collected leaf-first; reverse to root-first.
	for i, j := 0, len(chain)-1; i < j; i, j = i+1, j-1 {
		chain[i], chain[j] = chain[j], chain[i]
	}
	return chain, nil
}

// FullPath returns the root-to-id names joined with PathSeparator.
func (s *Snapshot) FullPath(id int64) (string, error) {
	chain, err := s.AncestorPath(id)
	if err != nil {
		return "", err
	}
	path := ""
	for i, c := range chain {
		if i > 0 {
			path += PathSeparator
		}
		path += c.Name
	}
	return path, nil
}

// Level counts ancestor hops from id to its root: 0 for a root.
// Unlike the stored level column this is computed from the live parent
// links, which makes it the authority when the two disagree.
func (s *Snapshot) Level(id int64) (int, error) {
	chain, err := s.AncestorPath(id)
	if err != nil {
		return 0, err
	}
	return len(chain) - 1, nil
}

// DepthBelow returns how many levels of descendants hang under id:
// 0 for a leaf, 1 when it has children but no grandchildren, and so on.
// Needed when re-parenting: the moved node's whole subtree must still fit
// under the depth cap.
func (s *Snapshot) DepthBelow(id int64) int {
	depth := 0
	frontier := s.byParent[id]
	for depth < MaxDepth && len(frontier) > 0 {
		depth++
		var next []int64
		for _, cid := range frontier {
			next = append(next, s.byParent[cid]...)
		}
		frontier = next
	}
	return depth
}

// Descendants returns every category below id, breadth-first in display
// order. The traversal is bounded by MaxDepth so a corrupt parent link
// cannot loop it.
func (s *Snapshot) Descendants(id int64) []int64 {
	var out []int64
	frontier := s.byParent[id]
	for depth := 0; depth < MaxDepth && len(frontier) > 0; depth++ {
		var next []int64
		for _, cid := range frontier {
			out = append(out, cid)
			next = append(next, s.byParent[cid]...)
		}
		frontier = next
	}
	return out
}
