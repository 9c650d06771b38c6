package services

import (
	"database/sql"
	"errors"

	"stockroom/internal/domain"
	"stockroom/internal/hierarchy"
	"stockroom/internal/repos"
)

// CategoryService orchestrates the hierarchy engine against the store.
// Every operation fetches the category snapshot once and reuses it across
// tree building, validation and counting; mutations re-validate against a
// fresh snapshot immediately before the write.
type CategoryService struct {
	Cats  *repos.CategoryRepo
	Prods *repos.ProductRepo
}

func NewCategoryService(cats *repos.CategoryRepo, prods *repos.ProductRepo) *CategoryService {
	return &CategoryService{Cats: cats, Prods: prods}
}

func (s *CategoryService) snapshot() (*hierarchy.Snapshot, error) {
	cats, err := s.Cats.All()
	if err != nil {
		return nil, err
	}
	return hierarchy.NewSnapshot(cats), nil
}

// Tree returns the nested forest plus per-category counts and any
// dangling-parent ids found while indexing.
func (s *CategoryService) Tree() ([]*hierarchy.Node, map[int64]hierarchy.Counts, []int64, error) {
	snap, err := s.snapshot()
	if err != nil {
		return nil, nil, nil, err
	}
	direct, err := s.Prods.DirectCounts()
	if err != nil {
		return nil, nil, nil, err
	}
	return snap.Tree(), hierarchy.CountsFor(snap, direct), snap.Dangling(), nil
}

// Subtree is Tree rooted at one category.
func (s *CategoryService) Subtree(rootID int64) (*hierarchy.Node, map[int64]hierarchy.Counts, error) {
	snap, err := s.snapshot()
	if err != nil {
		return nil, nil, err
	}
	node, err := snap.Subtree(rootID)
	if err != nil {
		return nil, nil, err
	}
	direct, err := s.Prods.DirectCounts()
	if err != nil {
		return nil, nil, err
	}
	return node, hierarchy.CountsFor(snap, direct), nil
}

// Detail is everything the category page needs, assembled from one snapshot.
type Detail struct {
	Category   domain.Category
	FullPath   string
	Breadcrumb []domain.Category
	Counts     hierarchy.Counts
	Children   []domain.Category
	Products   []domain.Product
	CanDelete  bool
}

func (s *CategoryService) Get(id int64) (Detail, error) {
	snap, err := s.snapshot()
	if err != nil {
		return Detail{}, err
	}
	c, ok := snap.Get(id)
	if !ok {
		return Detail{}, hierarchy.ErrNotFound
	}
	chain, err := snap.AncestorPath(id)
	if err != nil {
		return Detail{}, err
	}
	path, err := snap.FullPath(id)
	if err != nil {
		return Detail{}, err
	}
	direct, err := s.Prods.DirectCounts()
	if err != nil {
		return Detail{}, err
	}
	counts := hierarchy.CountsFor(snap, direct)

	var children []domain.Category
	for _, cid := range snap.ChildIDs(id) {
		if child, ok := snap.Get(cid); ok {
			children = append(children, child)
		}
	}
	// Products of the whole subtree, matching the transitive count.
	subtreeIDs := append([]int64{id}, snap.Descendants(id)...)
	products, err := s.Prods.ListByCategories(subtreeIDs, 50, 0)
	if err != nil {
		return Detail{}, err
	}

	return Detail{
		Category:   c,
		FullPath:   path,
		Breadcrumb: chain,
		Counts:     counts[id],
		Children:   children,
		Products:   products,
		CanDelete:  hierarchy.CanDelete(snap, id, direct),
	}, nil
}

// Input is a create/update form payload. ParentID 0 means root.
type Input struct {
	Name        string
	Description string
	ParentID    int64
	SortOrder   int
}

// Create validates against a fresh snapshot, then writes. Validation
// failures come back in the Result; the error channel is for the store.
func (s *CategoryService) Create(in Input) (int64, hierarchy.Result, error) {
	snap, err := s.snapshot()
	if err != nil {
		return 0, hierarchy.Result{}, err
	}
	res := hierarchy.ValidateParent(snap, in.ParentID, 0)
	if hierarchy.IsNameDuplicate(snap.All(), in.Name, 0) {
		res.Valid = false
		res.Errors = append(res.Errors, "duplicate name")
	}
	if !res.Valid {
		return 0, res, nil
	}

	c := domain.Category{
		Name:        in.Name,
		Description: in.Description,
		SortOrder:   in.SortOrder,
	}
	if in.ParentID != 0 {
		parent, _ := snap.Get(in.ParentID)
		p := in.ParentID
		c.ParentID = &p
		c.Level = parent.Level + 1
	}
	id, err := s.Cats.Insert(c)
	if err != nil {
		return 0, hierarchy.Result{}, err
	}
	return id, hierarchy.Result{Valid: true}, nil
}

// Update edits a category, including re-parenting. Beyond the standard
// parent rules it checks that the moved subtree still fits under the depth
// cap, and rewrites the stored levels of every descendant when the node's
// own level shifts.
func (s *CategoryService) Update(id int64, in Input) (hierarchy.Result, error) {
	snap, err := s.snapshot()
	if err != nil {
		return hierarchy.Result{}, err
	}
	current, ok := snap.Get(id)
	if !ok {
		return hierarchy.Result{}, hierarchy.ErrNotFound
	}

	res := hierarchy.ValidateParent(snap, in.ParentID, id)
	if hierarchy.IsNameDuplicate(snap.All(), in.Name, id) {
		res.Valid = false
		res.Errors = append(res.Errors, "duplicate name")
	}
	newLevel := 0
	if in.ParentID != 0 {
		if parent, ok := snap.Get(in.ParentID); ok {
			newLevel = parent.Level + 1
		}
	}
	if res.Valid && newLevel+snap.DepthBelow(id) > hierarchy.MaxDepth-1 {
		res.Valid = false
		res.Errors = append(res.Errors, "maximum depth exceeded")
	}
	if !res.Valid {
		return res, nil
	}

	updated := current
	updated.Name = in.Name
	updated.Description = in.Description
	updated.SortOrder = in.SortOrder
	updated.ParentID = nil
	if in.ParentID != 0 {
		p := in.ParentID
		updated.ParentID = &p
	}
	updated.Level = newLevel

	// A level change moves the whole subtree: the node row and every
	// descendant's level must commit together, or the store would hold
	// levels that disagree with the parent links.
	if delta := newLevel - current.Level; delta != 0 {
		levels := map[int64]int{}
		for _, did := range snap.Descendants(id) {
			if d, ok := snap.Get(did); ok {
				levels[did] = d.Level + delta
			}
		}
		if err := s.Cats.Reparent(updated, levels); err != nil {
			return hierarchy.Result{}, err
		}
		return hierarchy.Result{Valid: true}, nil
	}
	if err := s.Cats.Update(updated); err != nil {
		return hierarchy.Result{}, err
	}
	return hierarchy.Result{Valid: true}, nil
}

// Delete removes a category when it has no children and no attached
// products; otherwise the blocking reasons come back in the Result.
func (s *CategoryService) Delete(id int64) (hierarchy.Result, error) {
	snap, err := s.snapshot()
	if err != nil {
		return hierarchy.Result{}, err
	}
	if _, ok := snap.Get(id); !ok {
		return hierarchy.Result{}, hierarchy.ErrNotFound
	}
	direct, err := s.Prods.DirectCounts()
	if err != nil {
		return hierarchy.Result{}, err
	}

	var errs []string
	if snap.HasChildren(id) {
		errs = append(errs, "category has child categories")
	}
	if direct[id] > 0 {
		errs = append(errs, "category has attached products")
	}
	if len(errs) > 0 {
		return hierarchy.Result{Valid: false, Errors: errs}, nil
	}

	if err := s.Cats.Delete(id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return hierarchy.Result{}, hierarchy.ErrNotFound
		}
		return hierarchy.Result{}, err
	}
	return hierarchy.Result{Valid: true}, nil
}

// CanDelete answers the delete pre-check without mutating anything.
func (s *CategoryService) CanDelete(id int64) (bool, error) {
	snap, err := s.snapshot()
	if err != nil {
		return false, err
	}
	if _, ok := snap.Get(id); !ok {
		return false, hierarchy.ErrNotFound
	}
	direct, err := s.Prods.DirectCounts()
	if err != nil {
		return false, err
	}
	return hierarchy.CanDelete(snap, id, direct), nil
}

// Validate runs the hierarchy rules for the Ajax form pre-check.
func (s *CategoryService) Validate(parentID, currentID int64) (hierarchy.Result, error) {
	snap, err := s.snapshot()
	if err != nil {
		return hierarchy.Result{}, err
	}
	return hierarchy.ValidateParent(snap, parentID, currentID), nil
}

// Search returns keyword matches plus their ancestors, with counts for
// rendering the pruned tree.
func (s *CategoryService) Search(q string) ([]domain.Category, map[int64]hierarchy.Counts, error) {
	snap, err := s.snapshot()
	if err != nil {
		return nil, nil, err
	}
	cats, err := hierarchy.Search(snap, q)
	if err != nil {
		return nil, nil, err
	}
	direct, err := s.Prods.DirectCounts()
	if err != nil {
		return nil, nil, err
	}
	return cats, hierarchy.CountsFor(snap, direct), nil
}

// Option is a parent-dropdown entry: a category that can legally take
// children, labelled with its full path.
type Option struct {
	ID       int64  `json:"id"`
	FullPath string `json:"full_path"`
}

// Options lists every category with its full path, in tree order. Used by
// the product form's attachment picker, where leaves are selectable too.
func (s *CategoryService) Options() ([]Option, error) {
	snap, err := s.snapshot()
	if err != nil {
		return nil, err
	}
	cats, err := hierarchy.Search(snap, "")
	if err != nil {
		return nil, err
	}
	out := make([]Option, 0, len(cats))
	for _, c := range cats {
		path, err := snap.FullPath(c.ID)
		if err != nil {
			return nil, err
		}
		out = append(out, Option{ID: c.ID, FullPath: path})
	}
	return out, nil
}

// ParentOptions lists legal parents for a category form. For an edit
// (currentID != 0) the category itself and its descendants are excluded,
// since choosing them would close a cycle.
func (s *CategoryService) ParentOptions(currentID int64) ([]Option, error) {
	snap, err := s.snapshot()
	if err != nil {
		return nil, err
	}
	excluded := map[int64]bool{}
	if currentID != 0 {
		excluded[currentID] = true
		for _, did := range snap.Descendants(currentID) {
			excluded[did] = true
		}
	}
	cats, err := hierarchy.Search(snap, "")
	if err != nil {
		return nil, err
	}
	var out []Option
	for _, c := range cats {
		if excluded[c.ID] || c.Level >= hierarchy.MaxDepth-1 {
			continue
		}
		path, err := snap.FullPath(c.ID)
		if err != nil {
			return nil, err
		}
		out = append(out, Option{ID: c.ID, FullPath: path})
	}
	return out, nil
}
