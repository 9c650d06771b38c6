package hierarchy_test

import (
	"testing"

	"stockroom/internal/hierarchy"
)

func hasError(r hierarchy.Result, msg string) bool {
	for _, e := range r.Errors {
		if e == msg {
			return true
		}
	}
	return false
}

func TestIsNameDuplicate(t *testing.T) {
	cats := fixture()
	if !hierarchy.IsNameDuplicate(cats, "Sports", 0) {
		t.Fatal("Sports exists; expected duplicate")
	}
	// Editing Sports itself keeps its own name.
	if hierarchy.IsNameDuplicate(cats, "Sports", 1) {
		t.Fatal("excludeId should skip the record being edited")
	}
	// Uniqueness is case-sensitive exact match.
	if hierarchy.IsNameDuplicate(cats, "sports", 0) {
		t.Fatal("different casing is a different name")
	}
	if hierarchy.IsNameDuplicate(cats, "Tennis", 0) {
		t.Fatal("fresh name flagged as duplicate")
	}
}

func TestValidateParentDepth(t *testing.T) {
	s := hierarchy.NewSnapshot(fixture())
	// Under Running (level 1) -> level 2: fine.
	if r := hierarchy.ValidateParent(s, 2, 0); !r.Valid {
		t.Fatalf("level-2 placement rejected: %v", r.Errors)
	}
	// Under Shoes (level 2) -> level 3: over the cap.
	r := hierarchy.ValidateParent(s, 3, 0)
	if r.Valid || !hasError(r, "maximum depth exceeded") {
		t.Fatalf("want depth error, got %+v", r)
	}
}

func TestValidateParentMissing(t *testing.T) {
	s := hierarchy.NewSnapshot(fixture())
	r := hierarchy.ValidateParent(s, 404, 0)
	if r.Valid || !hasError(r, "parent not found") {
		t.Fatalf("want parent-not-found, got %+v", r)
	}
}

func TestValidateParentSelf(t *testing.T) {
	s := hierarchy.NewSnapshot(fixture())
	r := hierarchy.ValidateParent(s, 1, 1)
	if r.Valid || !hasError(r, "self-parent") {
		t.Fatalf("want self-parent, got %+v", r)
	}
}

func TestValidateParentCircular(t *testing.T) {
	s := hierarchy.NewSnapshot(fixture())
	// Moving Sports under its grandchild Shoes closes a cycle.
	r := hierarchy.ValidateParent(s, 3, 1)
	if r.Valid || !hasError(r, "circular reference") {
		t.Fatalf("want circular reference, got %+v", r)
	}
	// Moving Shoes under Sports (its ancestor) is a legal re-parent.
	if r := hierarchy.ValidateParent(s, 1, 3); !r.Valid {
		t.Fatalf("ancestor re-parent rejected: %v", r.Errors)
	}
}

func TestValidateParentRootAlwaysValid(t *testing.T) {
	s := hierarchy.NewSnapshot(fixture())
	if r := hierarchy.ValidateParent(s, 0, 3); !r.Valid {
		t.Fatalf("detaching to root rejected: %v", r.Errors)
	}
}

func TestValidateCollectsAllViolations(t *testing.T) {
	s := hierarchy.NewSnapshot(fixture())
	// Self-parent under a level-2 node: both rules apply, both reported.
	r := hierarchy.ValidateParent(s, 3, 3)
	if !hasError(r, "maximum depth exceeded") || !hasError(r, "self-parent") {
		t.Fatalf("want both violations, got %v", r.Errors)
	}
}

func TestWouldCreateCircularReference(t *testing.T) {
	s := hierarchy.NewSnapshot(fixture())
	if !hierarchy.WouldCreateCircularReference(s, 1, 1) {
		t.Fatal("self is circular")
	}
	if !hierarchy.WouldCreateCircularReference(s, 1, 3) {
		t.Fatal("descendant is circular")
	}
	if hierarchy.WouldCreateCircularReference(s, 3, 1) {
		t.Fatal("ancestor is not circular")
	}
	if hierarchy.WouldCreateCircularReference(s, 1, 4) {
		t.Fatal("unrelated category is not circular")
	}
}

func TestCanDelete(t *testing.T) {
	s := hierarchy.NewSnapshot(fixture())
	none := map[int64]int{}
	if hierarchy.CanDelete(s, 1, none) {
		t.Fatal("Sports has children; delete must be blocked")
	}
	if !hierarchy.CanDelete(s, 3, none) {
		t.Fatal("empty leaf should be deletable")
	}
	if hierarchy.CanDelete(s, 3, map[int64]int{3: 2}) {
		t.Fatal("attached products must block delete")
	}
	// Transitive-only products under a childless... not possible; but a
	// parent whose products all hang off children is still blocked by the
	// child rule, not the count rule.
	if hierarchy.CanDelete(s, 2, map[int64]int{3: 5}) {
		t.Fatal("Running has a child; delete must be blocked")
	}
}
