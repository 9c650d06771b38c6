package services_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite" // pure-Go SQLite driver

	"stockroom/internal/hierarchy"
	"stockroom/internal/repos"
	"stockroom/internal/services"
)

func memdb(t *testing.T) *sqlx.DB {
	t.Helper()
	db, err := sqlx.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatal(err)
	}
	schema := `
	PRAGMA foreign_keys = ON;
	CREATE TABLE categories(
	  id INTEGER PRIMARY KEY AUTOINCREMENT,
	  name TEXT NOT NULL UNIQUE,
	  description TEXT,
	  parent_id INTEGER NULL REFERENCES categories(id),
	  level INTEGER NOT NULL DEFAULT 0,
	  sort_order INTEGER NOT NULL DEFAULT 0,
	  created_at TEXT DEFAULT CURRENT_TIMESTAMP,
	  updated_at TEXT
	);
	CREATE TABLE products(
	  id TEXT PRIMARY KEY,
	  name TEXT NOT NULL,
	  sku TEXT UNIQUE,
	  description TEXT,
	  price NUMERIC NOT NULL DEFAULT 0,
	  status TEXT NOT NULL DEFAULT 'ACTIVE',
	  created_at TEXT DEFAULT CURRENT_TIMESTAMP,
	  updated_at TEXT
	);
	CREATE TABLE product_categories(
	  product_id TEXT NOT NULL REFERENCES products(id) ON DELETE CASCADE,
	  category_id INTEGER NOT NULL REFERENCES categories(id) ON DELETE RESTRICT,
	  created_at TEXT DEFAULT CURRENT_TIMESTAMP,
	  PRIMARY KEY(product_id, category_id)
	);
	`
	if _, err := db.Exec(schema); err != nil {
		t.Fatal(err)
	}
	return db
}

func newService(t *testing.T) (*services.CategoryService, *sqlx.DB) {
	t.Helper()
	db := memdb(t)
	return services.NewCategoryService(repos.NewCategoryRepo(db), repos.NewProductRepo(db)), db
}

func mustCreate(t *testing.T, svc *services.CategoryService, name string, parentID int64) int64 {
	t.Helper()
	id, res, err := svc.Create(services.Input{Name: name, ParentID: parentID})
	if err != nil {
		t.Fatal(err)
	}
	if !res.Valid {
		t.Fatalf("create %s rejected: %v", name, res.Errors)
	}
	return id
}

func TestCreateThreeLevelsThenDepthCap(t *testing.T) {
	svc, _ := newService(t)
	sports := mustCreate(t, svc, "Sports", 0)
	running := mustCreate(t, svc, "Running", sports)
	shoes := mustCreate(t, svc, "Shoes", running)

	d, err := svc.Get(shoes)
	if err != nil {
		t.Fatal(err)
	}
	if d.FullPath != "Sports > Running > Shoes" {
		t.Fatalf("full path = %q", d.FullPath)
	}
	if d.Category.Level != 2 {
		t.Fatalf("level = %d, want 2", d.Category.Level)
	}

	// A fourth level is over the cap.
	_, res, err := svc.Create(services.Input{Name: "Trail", ParentID: shoes})
	if err != nil {
		t.Fatal(err)
	}
	if res.Valid {
		t.Fatal("fourth level accepted")
	}
	found := false
	for _, e := range res.Errors {
		if e == "maximum depth exceeded" {
			found = true
		}
	}
	if !found {
		t.Fatalf("want depth error, got %v", res.Errors)
	}
}

func TestCreateDuplicateName(t *testing.T) {
	svc, _ := newService(t)
	id := mustCreate(t, svc, "Sports", 0)
	_, res, err := svc.Create(services.Input{Name: "Sports"})
	if err != nil {
		t.Fatal(err)
	}
	if res.Valid {
		t.Fatal("duplicate name accepted")
	}
	// Editing the category to its own name stays legal.
	upd, err := svc.Update(id, services.Input{Name: "Sports"})
	if err != nil {
		t.Fatal(err)
	}
	if !upd.Valid {
		t.Fatalf("self-rename rejected: %v", upd.Errors)
	}
}

func TestCreateUnderMissingParent(t *testing.T) {
	svc, _ := newService(t)
	_, res, err := svc.Create(services.Input{Name: "Orphan", ParentID: 404})
	if err != nil {
		t.Fatal(err)
	}
	if res.Valid || res.Errors[0] != "parent not found" {
		t.Fatalf("want parent-not-found, got %+v", res)
	}
}

func TestUpdateSelfParentAndCircular(t *testing.T) {
	svc, _ := newService(t)
	sports := mustCreate(t, svc, "Sports", 0)
	running := mustCreate(t, svc, "Running", sports)

	res, err := svc.Update(sports, services.Input{Name: "Sports", ParentID: sports})
	if err != nil {
		t.Fatal(err)
	}
	if res.Valid {
		t.Fatal("self-parent accepted")
	}

	// Sports under its own child closes a cycle.
	res, err = svc.Update(sports, services.Input{Name: "Sports", ParentID: running})
	if err != nil {
		t.Fatal(err)
	}
	if res.Valid {
		t.Fatal("circular re-parent accepted")
	}
}

func TestReparentShiftsSubtreeLevels(t *testing.T) {
	svc, _ := newService(t)
	sports := mustCreate(t, svc, "Sports", 0)
	running := mustCreate(t, svc, "Running", sports)
	shoes := mustCreate(t, svc, "Shoes", running)
	_ = mustCreate(t, svc, "Outdoor", 0)

	// Detach Running to the root; Shoes must follow one level up.
	res, err := svc.Update(running, services.Input{Name: "Running"})
	if err != nil {
		t.Fatal(err)
	}
	if !res.Valid {
		t.Fatalf("detach rejected: %v", res.Errors)
	}
	d, err := svc.Get(shoes)
	if err != nil {
		t.Fatal(err)
	}
	if d.Category.Level != 1 {
		t.Fatalf("Shoes level after detach = %d, want 1", d.Category.Level)
	}
	if d.FullPath != "Running > Shoes" {
		t.Fatalf("Shoes path after detach = %q", d.FullPath)
	}
	_ = sports
}

func TestReparentRollsBackWhenLevelShiftFails(t *testing.T) {
	svc, db := newService(t)
	sports := mustCreate(t, svc, "Sports", 0)
	running := mustCreate(t, svc, "Running", sports)
	shoes := mustCreate(t, svc, "Shoes", running)

	// Force the descendant level rewrite to fail after the node row has
	// already been written inside the move's transaction.
	db.MustExec(fmt.Sprintf(
		`CREATE TRIGGER fail_shift BEFORE UPDATE OF level ON categories
		 WHEN NEW.id = %d
		 BEGIN SELECT RAISE(ABORT, 'shift blocked'); END`, shoes))

	if _, err := svc.Update(running, services.Input{Name: "Running"}); err == nil {
		t.Fatal("want an error from the blocked level shift")
	}

	// Nothing of the move may have committed: Running stays under Sports
	// and Shoes keeps its old level.
	d, err := svc.Get(running)
	if err != nil {
		t.Fatal(err)
	}
	if d.Category.ParentID == nil || *d.Category.ParentID != sports || d.Category.Level != 1 {
		t.Fatalf("half-applied move: %+v", d.Category)
	}
	if d, err = svc.Get(shoes); err != nil || d.Category.Level != 2 {
		t.Fatalf("Shoes after rollback = %+v, %v", d.Category, err)
	}
	if d.FullPath != "Sports > Running > Shoes" {
		t.Fatalf("Shoes path after rollback = %q", d.FullPath)
	}
}

func TestReparentBlockedWhenSubtreeWouldExceedDepth(t *testing.T) {
	svc, _ := newService(t)
	sports := mustCreate(t, svc, "Sports", 0)
	running := mustCreate(t, svc, "Running", sports)
	_ = mustCreate(t, svc, "Shoes", running)
	outdoor := mustCreate(t, svc, "Outdoor", 0)
	camping := mustCreate(t, svc, "Camping", outdoor)

	// Running carries Shoes; under Camping (level 1) Shoes would land on
	// level 3.
	res, err := svc.Update(running, services.Input{Name: "Running", ParentID: camping})
	if err != nil {
		t.Fatal(err)
	}
	if res.Valid {
		t.Fatal("subtree past the depth cap accepted")
	}
}

func TestDeleteRules(t *testing.T) {
	svc, db := newService(t)
	sports := mustCreate(t, svc, "Sports", 0)
	running := mustCreate(t, svc, "Running", sports)

	// Parent with a child is blocked.
	res, err := svc.Delete(sports)
	if err != nil {
		t.Fatal(err)
	}
	if res.Valid {
		t.Fatal("delete of a parent accepted")
	}
	if can, _ := svc.CanDelete(sports); can {
		t.Fatal("CanDelete(parent) = true")
	}

	// Attached product blocks the leaf.
	db.MustExec(`INSERT INTO products(id,name,price) VALUES('p1','Marathon Flats',99)`)
	db.MustExec(`INSERT INTO product_categories(product_id,category_id) VALUES('p1',?)`, running)
	res, err = svc.Delete(running)
	if err != nil {
		t.Fatal(err)
	}
	if res.Valid {
		t.Fatal("delete of a category with products accepted")
	}

	// Detach the product, then the leaf goes, then the parent goes.
	db.MustExec(`DELETE FROM product_categories WHERE product_id='p1'`)
	if res, err = svc.Delete(running); err != nil || !res.Valid {
		t.Fatalf("leaf delete failed: %+v %v", res, err)
	}
	if can, _ := svc.CanDelete(sports); !can {
		t.Fatal("CanDelete(parent) = false after child removed")
	}
	if res, err = svc.Delete(sports); err != nil || !res.Valid {
		t.Fatalf("parent delete failed: %+v %v", res, err)
	}
}

func TestDeleteMissingIsNotFound(t *testing.T) {
	svc, _ := newService(t)
	if _, err := svc.Delete(404); !errors.Is(err, hierarchy.ErrNotFound) {
		t.Fatalf("want ErrNotFound, got %v", err)
	}
}

func TestTreeCountsRollUp(t *testing.T) {
	svc, db := newService(t)
	sports := mustCreate(t, svc, "Sports", 0)
	running := mustCreate(t, svc, "Running", sports)
	shoes := mustCreate(t, svc, "Shoes", running)

	db.MustExec(`INSERT INTO products(id,name,price) VALUES('p1','Flats',99),('p2','Socks',9)`)
	db.MustExec(`INSERT INTO product_categories(product_id,category_id) VALUES('p1',?),('p2',?)`, shoes, running)

	tree, counts, dangling, err := svc.Tree()
	if err != nil {
		t.Fatal(err)
	}
	if len(dangling) != 0 {
		t.Fatalf("unexpected dangling ids: %v", dangling)
	}
	if len(tree) != 1 || tree[0].ID != sports {
		t.Fatalf("unexpected tree shape: %+v", tree)
	}
	if c := counts[sports]; c.Direct != 0 || c.Transitive != 2 {
		t.Fatalf("Sports counts = %+v", c)
	}
	if c := counts[running]; c.Direct != 1 || c.Transitive != 2 {
		t.Fatalf("Running counts = %+v", c)
	}
	if c := counts[shoes]; c.Direct != 1 || c.Transitive != 1 {
		t.Fatalf("Shoes counts = %+v", c)
	}
}

func TestSearchKeepsAncestors(t *testing.T) {
	svc, _ := newService(t)
	sports := mustCreate(t, svc, "Sports", 0)
	running := mustCreate(t, svc, "Running", sports)
	mustCreate(t, svc, "Shoes", running)

	cats, _, err := svc.Search("Shoe")
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"Sports", "Running", "Shoes"}
	if len(cats) != len(want) {
		t.Fatalf("got %d results, want %d", len(cats), len(want))
	}
	for i, w := range want {
		if cats[i].Name != w {
			t.Fatalf("result[%d] = %s, want %s", i, cats[i].Name, w)
		}
	}
}

func TestParentOptionsExcludeSelfDescendantsAndFullLevels(t *testing.T) {
	svc, _ := newService(t)
	sports := mustCreate(t, svc, "Sports", 0)
	running := mustCreate(t, svc, "Running", sports)
	shoes := mustCreate(t, svc, "Shoes", running)
	outdoor := mustCreate(t, svc, "Outdoor", 0)

	opts, err := svc.ParentOptions(sports)
	if err != nil {
		t.Fatal(err)
	}
	for _, o := range opts {
		if o.ID == sports || o.ID == running || o.ID == shoes {
			t.Fatalf("option %d should be excluded when editing Sports", o.ID)
		}
	}
	if len(opts) != 1 || opts[0].ID != outdoor {
		t.Fatalf("want only Outdoor, got %+v", opts)
	}

	// For a create, level-2 categories cannot take children.
	opts, err = svc.ParentOptions(0)
	if err != nil {
		t.Fatal(err)
	}
	for _, o := range opts {
		if o.ID == shoes {
			t.Fatal("level-2 category offered as a parent")
		}
	}
}
