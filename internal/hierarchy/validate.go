package hierarchy

import "stockroom/internal/domain"

// Result is the outcome of a hierarchy validation. Expected failures are
// carried as messages, never as errors, so callers can surface them to the
// form verbatim.
type Result struct {
	Valid  bool     `json:"valid"`
	Errors []string `json:"errors,omitempty"`
}

func failure(msgs ...string) Result { return Result{Valid: false, Errors: msgs} }

// IsNameDuplicate reports whether any category other than excludeID already
// uses name (exact, case-sensitive match). Pass excludeID=0 when creating.
func IsNameDuplicate(cats []domain.Category, name string, excludeID int64) bool {
	for _, c := range cats {
		if c.ID != excludeID && c.Name == name {
			return true
		}
	}
	return false
}

// ValidateParent checks a proposed parent assignment for a new category
// (currentID=0) or an existing one (currentID set). All applicable rules are
// evaluated; violations accumulate instead of short-circuiting so the form
// can show everything that is wrong at once.
//
// parentID=0 means "make it a root", which is always structurally valid.
func ValidateParent(s *Snapshot, parentID, currentID int64) Result {
	if parentID == 0 {
		return Result{Valid: true}
	}

	var errs []string
	parent, ok := s.Get(parentID)
	if !ok {
		errs = append(errs, "parent not found")
	} else if parent.Level+1 > MaxDepth-1 {
		errs = append(errs, "maximum depth exceeded")
	}
	if currentID != 0 {
		if parentID == currentID {
			errs = append(errs, "self-parent")
		} else if isDescendant(s, currentID, parentID) {
			errs = append(errs, "circular reference")
		}
	}

	if len(errs) > 0 {
		return failure(errs...)
	}
	return Result{Valid: true}
}

// WouldCreateCircularReference reports whether re-parenting id under
// newParentID would close a cycle: true when newParentID is id itself or
// any of id's descendants.
func WouldCreateCircularReference(s *Snapshot, id, newParentID int64) bool {
	return newParentID == id || isDescendant(s, id, newParentID)
}

func isDescendant(s *Snapshot, ancestor, candidate int64) bool {
	for _, d := range s.Descendants(ancestor) {
		if d == candidate {
			return true
		}
	}
	return false
}

// CanDelete reports whether a category may be removed: it must have no
// children and no directly attached products. directCounts comes from the
// product join table (see CountsFor); transitive counts do not matter here
// because an empty category with populated children is still blocked by the
// child rule.
func CanDelete(s *Snapshot, id int64, directCounts map[int64]int) bool {
	if s.HasChildren(id) {
		return false
	}
	return directCounts[id] == 0
}
