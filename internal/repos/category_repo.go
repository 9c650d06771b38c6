package repos

import (
	"database/sql"
	"time"

	"github.com/jmoiron/sqlx"

	"stockroom/internal/domain"
)

type CategoryRepo struct{ db *sqlx.DB }

func NewCategoryRepo(db *sqlx.DB) *CategoryRepo { return &CategoryRepo{db: db} }

// All returns every category; this is the snapshot the hierarchy engine
// works on, fetched once per logical operation.
func (r *CategoryRepo) All() ([]domain.Category, error) {
	var out []domain.Category
	err := r.db.Select(&out, `
  SELECT
    id, name, COALESCE(description,'') AS description, parent_id,
    level, sort_order,
    created_at, COALESCE(updated_at,'') AS updated_at
  FROM categories
  ORDER BY level, sort_order, id
`)
	return out, err
}

func (r *CategoryRepo) Get(id int64) (domain.Category, error) {
	var c domain.Category
	err := r.db.Get(&c, `
  SELECT
    id, name, COALESCE(description,'') AS description, parent_id,
    level, sort_order,
    created_at, COALESCE(updated_at,'') AS updated_at
  FROM categories
  WHERE id = ?
`, id)
	return c, err
}

// Insert creates a category and returns its assigned id. The UNIQUE index
// on name is the transactional backstop behind the engine's duplicate check.
func (r *CategoryRepo) Insert(c domain.Category) (int64, error) {
	res, err := r.db.Exec(`
  INSERT INTO categories(name, description, parent_id, level, sort_order)
  VALUES(?, ?, ?, ?, ?)
`, c.Name, nullIfEmpty(c.Description), c.ParentID, c.Level, c.SortOrder)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

func (r *CategoryRepo) Update(c domain.Category) error {
	_, err := r.db.Exec(`
  UPDATE categories
  SET name=?, description=?, parent_id=?, level=?, sort_order=?, updated_at=?
  WHERE id=?
`, c.Name, nullIfEmpty(c.Description), c.ParentID, c.Level, c.SortOrder,
		time.Now().UTC().Format(time.RFC3339), c.ID)
	return err
}

// Reparent persists a move: the node's new parent and level, plus the
// shifted level of every listed descendant, in one transaction. A failure
// anywhere rolls the whole move back, so the store never holds a node whose
// level disagrees with its parent's.
func (r *CategoryRepo) Reparent(c domain.Category, levels map[int64]int) error {
	tx, err := r.db.Beginx()
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()
	now := time.Now().UTC().Format(time.RFC3339)
	if _, err := tx.Exec(`
  UPDATE categories
  SET name=?, description=?, parent_id=?, level=?, sort_order=?, updated_at=?
  WHERE id=?
`, c.Name, nullIfEmpty(c.Description), c.ParentID, c.Level, c.SortOrder, now, c.ID); err != nil {
		return err
	}
	for id, level := range levels {
		if _, err := tx.Exec(`UPDATE categories SET level=?, updated_at=? WHERE id=?`, level, now, id); err != nil {
			return err
		}
	}
	return tx.Commit()
}

func (r *CategoryRepo) Delete(id int64) error {
	res, err := r.db.Exec(`DELETE FROM categories WHERE id=?`, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err == nil && n == 0 {
		return sql.ErrNoRows
	}
	return err
}

func nullIfEmpty(s string) any {
	if s == "" {
		return nil
	}
	return s
}
