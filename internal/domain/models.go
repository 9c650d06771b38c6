package domain

type Category struct {
	ID          int64  `db:"id" json:"id"`
	Name        string `db:"name" json:"name"`
	Description string `db:"description" json:"description,omitempty"`
	ParentID    *int64 `db:"parent_id" json:"parent_id,omitempty"`
	Level       int    `db:"level" json:"level"`
	SortOrder   int    `db:"sort_order" json:"sort_order"`
	CreatedAt   string `db:"created_at" json:"created_at"`
	UpdatedAt   string `db:"updated_at" json:"updated_at,omitempty"`
}

// Root reports whether the category has no parent.
func (c Category) Root() bool { return c.ParentID == nil }

type Product struct {
	ID          string  `db:"id" json:"id"`
	Name        string  `db:"name" json:"name"`
	SKU         string  `db:"sku" json:"sku"`
	Description string  `db:"description" json:"description,omitempty"`
	Price       float64 `db:"price" json:"price"`
	Status      string  `db:"status" json:"status"` // ACTIVE | DISCONTINUED
	CreatedAt   string  `db:"created_at" json:"created_at"`
	UpdatedAt   string  `db:"updated_at" json:"updated_at,omitempty"`
}

// statusLabels maps the stored product status enum to its display label.
var statusLabels = map[string]string{
	"ACTIVE":       "Active",
	"DISCONTINUED": "Discontinued",
}

// StatusLabel returns the display label for a product status; unknown
// values fall through unchanged so bad data stays visible.
func StatusLabel(status string) string {
	if l, ok := statusLabels[status]; ok {
		return l
	}
	return status
}
