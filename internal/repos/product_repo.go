package repos

import (
	"time"

	"github.com/jmoiron/sqlx"

	"stockroom/internal/domain"
)

type ProductRepo struct{ db *sqlx.DB }

func NewProductRepo(db *sqlx.DB) *ProductRepo { return &ProductRepo{db: db} }

func (r *ProductRepo) List(limit, offset int) ([]domain.Product, error) {
	var out []domain.Product
	err := r.db.Select(&out, `
  SELECT
    id, name, COALESCE(sku,'') AS sku, COALESCE(description,'') AS description,
    price, status, created_at, COALESCE(updated_at,'') AS updated_at
  FROM products
  ORDER BY created_at DESC, id
  LIMIT ? OFFSET ?
`, limit, offset)
	return out, err
}

func (r *ProductRepo) Get(id string) (domain.Product, error) {
	var p domain.Product
	err := r.db.Get(&p, `
  SELECT
    id, name, COALESCE(sku,'') AS sku, COALESCE(description,'') AS description,
    price, status, created_at, COALESCE(updated_at,'') AS updated_at
  FROM products
  WHERE id = ?
`, id)
	return p, err
}

// ListByCategories returns products attached to any of the given category
// ids, newest first. Used with a category plus its descendants to list a
// subtree's products.
func (r *ProductRepo) ListByCategories(catIDs []int64, limit, offset int) ([]domain.Product, error) {
	if len(catIDs) == 0 {
		return nil, nil
	}
	query, args, err := sqlx.In(`
  SELECT DISTINCT
    p.id, p.name, COALESCE(p.sku,'') AS sku, COALESCE(p.description,'') AS description,
    p.price, p.status, p.created_at, COALESCE(p.updated_at,'') AS updated_at
  FROM products p
  JOIN product_categories pc ON pc.product_id = p.id
  WHERE pc.category_id IN (?)
  ORDER BY p.created_at DESC, p.id
  LIMIT ? OFFSET ?`, catIDs, limit, offset)
	if err != nil {
		return nil, err
	}
	var out []domain.Product
	err = r.db.Select(&out, r.db.Rebind(query), args...)
	return out, err
}

// Insert stores a product and its category attachments in one transaction.
func (r *ProductRepo) Insert(p domain.Product, categoryIDs []int64) error {
	tx, err := r.db.Beginx()
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()
	if _, err := tx.Exec(`
  INSERT INTO products(id, name, sku, description, price, status)
  VALUES(?, ?, ?, ?, ?, ?)
`, p.ID, p.Name, nullIfEmpty(p.SKU), nullIfEmpty(p.Description), p.Price, p.Status); err != nil {
		return err
	}
	for _, cid := range categoryIDs {
		if _, err := tx.Exec(`
  INSERT INTO product_categories(product_id, category_id) VALUES(?, ?)
  ON CONFLICT(product_id, category_id) DO NOTHING
`, p.ID, cid); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// Update rewrites the product and replaces its category attachments.
func (r *ProductRepo) Update(p domain.Product, categoryIDs []int64) error {
	tx, err := r.db.Beginx()
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()
	if _, err := tx.Exec(`
  UPDATE products SET name=?, sku=?, description=?, price=?, status=?, updated_at=?
  WHERE id=?
`, p.Name, nullIfEmpty(p.SKU), nullIfEmpty(p.Description), p.Price, p.Status,
		time.Now().UTC().Format(time.RFC3339), p.ID); err != nil {
		return err
	}
	if _, err := tx.Exec(`DELETE FROM product_categories WHERE product_id=?`, p.ID); err != nil {
		return err
	}
	for _, cid := range categoryIDs {
		if _, err := tx.Exec(`
  INSERT INTO product_categories(product_id, category_id) VALUES(?, ?)
`, p.ID, cid); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// Delete removes the product; join rows go with it via ON DELETE CASCADE.
func (r *ProductRepo) Delete(id string) error {
	_, err := r.db.Exec(`DELETE FROM products WHERE id=?`, id)
	return err
}

// CategoryIDs returns the categories a product is attached to.
func (r *ProductRepo) CategoryIDs(productID string) ([]int64, error) {
	var out []int64
	err := r.db.Select(&out, `
  SELECT category_id FROM product_categories WHERE product_id=? ORDER BY category_id
`, productID)
	return out, err
}

// DirectCounts returns per-category join-row counts in a single query.
// This is the one store read behind the count aggregator's bulk pass.
func (r *ProductRepo) DirectCounts() (map[int64]int, error) {
	rows := []struct {
		CategoryID int64 `db:"category_id"`
		N          int   `db:"n"`
	}{}
	err := r.db.Select(&rows, `
  SELECT category_id, COUNT(*) AS n
  FROM product_categories
  GROUP BY category_id
`)
	if err != nil {
		return nil, err
	}
	out := make(map[int64]int, len(rows))
	for _, row := range rows {
		out[row.CategoryID] = row.N
	}
	return out, nil
}

// DirectCount returns the join-row count for one category.
func (r *ProductRepo) DirectCount(categoryID int64) (int, error) {
	var n int
	err := r.db.Get(&n, `SELECT COUNT(*) FROM product_categories WHERE category_id=?`, categoryID)
	return n, err
}
