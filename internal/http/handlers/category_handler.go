package handlers

import (
	"errors"

	"stockroom/internal/hierarchy"
	applog "stockroom/internal/log"
	"stockroom/internal/services"
	"stockroom/internal/validate"

	"github.com/gofiber/fiber/v2"
)

type CategoryHandler struct {
	Categories *services.CategoryService
}

// Home renders the full category tree with transitive product counts.
func (h *CategoryHandler) Home(c *fiber.Ctx) error {
	tree, counts, dangling, err := h.Categories.Tree()
	if err != nil {
		applog.Error(c, "category.tree.fail", err, nil)
		return c.Status(500).Render("notfound", fiber.Map{"Message": "Could not load categories"})
	}
	if len(dangling) > 0 {
		applog.Integrity(c, "category.tree.dangling", nil, map[string]any{"ids": dangling})
	}
	return render(c, "home", fiber.Map{"Tree": tree, "Counts": counts})
}

// Detail shows one category: breadcrumb, children, subtree products.
func (h *CategoryHandler) Detail(c *fiber.Ctx) error {
	id, ok := validate.CategoryID(c.Params("id"))
	if !ok || id == 0 {
		return c.Status(404).Render("notfound", fiber.Map{"Message": "Category not found"})
	}
	d, err := h.Categories.Get(id)
	if err != nil {
		return h.renderErr(c, "category.detail.fail", err)
	}
	return render(c, "category", fiber.Map{"D": d})
}

// NewForm renders the create form with the legal-parent dropdown.
func (h *CategoryHandler) NewForm(c *fiber.Ctx) error {
	opts, err := h.Categories.ParentOptions(0)
	if err != nil {
		return h.renderErr(c, "category.form.fail", err)
	}
	return render(c, "category_form", fiber.Map{"Options": opts, "ParentSelected": int64(0)})
}

// Create handles the new-category form post.
func (h *CategoryHandler) Create(c *fiber.Ctx) error {
	in, formErr := categoryInput(c)
	if formErr != "" {
		opts, _ := h.Categories.ParentOptions(0)
		c.Status(400)
		return render(c, "category_form", fiber.Map{"Options": opts, "Errors": []string{formErr}, "In": in, "ParentSelected": in.ParentID})
	}
	id, res, err := h.Categories.Create(in)
	if err != nil {
		return h.renderErr(c, "category.create.fail", err)
	}
	if !res.Valid {
		opts, _ := h.Categories.ParentOptions(0)
		c.Status(400)
		return render(c, "category_form", fiber.Map{"Options": opts, "Errors": res.Errors, "In": in, "ParentSelected": in.ParentID})
	}
	applog.Audit(c, "category.create", map[string]any{"id": id, "name": in.Name})
	return c.Redirect("/")
}

// EditForm renders the edit form; the dropdown excludes the category
// itself and its descendants.
func (h *CategoryHandler) EditForm(c *fiber.Ctx) error {
	id, ok := validate.CategoryID(c.Params("id"))
	if !ok || id == 0 {
		return c.Status(404).Render("notfound", fiber.Map{"Message": "Category not found"})
	}
	d, err := h.Categories.Get(id)
	if err != nil {
		return h.renderErr(c, "category.edit.fail", err)
	}
	opts, err := h.Categories.ParentOptions(id)
	if err != nil {
		return h.renderErr(c, "category.edit.fail", err)
	}
	selected := int64(0)
	if d.Category.ParentID != nil {
		selected = *d.Category.ParentID
	}
	return render(c, "category_form", fiber.Map{"Edit": d.Category, "Options": opts, "ParentSelected": selected})
}

// Update handles the edit form post, including re-parenting.
func (h *CategoryHandler) Update(c *fiber.Ctx) error {
	id, ok := validate.CategoryID(c.Params("id"))
	if !ok || id == 0 {
		return c.Status(404).Render("notfound", fiber.Map{"Message": "Category not found"})
	}
	in, formErr := categoryInput(c)
	if formErr != "" {
		opts, _ := h.Categories.ParentOptions(id)
		c.Status(400)
		return render(c, "category_form", fiber.Map{"Options": opts, "Errors": []string{formErr}, "In": in, "ParentSelected": in.ParentID})
	}
	res, err := h.Categories.Update(id, in)
	if err != nil {
		return h.renderErr(c, "category.update.fail", err)
	}
	if !res.Valid {
		opts, _ := h.Categories.ParentOptions(id)
		c.Status(400)
		return render(c, "category_form", fiber.Map{"Options": opts, "Errors": res.Errors, "In": in, "ParentSelected": in.ParentID})
	}
	applog.Audit(c, "category.update", map[string]any{"id": id, "name": in.Name})
	return c.Redirect("/")
}

// Delete handles the delete post; blocked deletes surface their reasons.
func (h *CategoryHandler) Delete(c *fiber.Ctx) error {
	id, ok := validate.CategoryID(c.Params("id"))
	if !ok || id == 0 {
		return c.Status(404).Render("notfound", fiber.Map{"Message": "Category not found"})
	}
	res, err := h.Categories.Delete(id)
	if err != nil {
		return h.renderErr(c, "category.delete.fail", err)
	}
	if !res.Valid {
		d, derr := h.Categories.Get(id)
		if derr != nil {
			return h.renderErr(c, "category.delete.fail", derr)
		}
		c.Status(409)
		return render(c, "category", fiber.Map{"D": d, "Errors": res.Errors})
	}
	applog.Audit(c, "category.delete", map[string]any{"id": id})
	return c.Redirect("/")
}

func (h *CategoryHandler) renderErr(c *fiber.Ctx, action string, err error) error {
	if errors.Is(err, hierarchy.ErrNotFound) {
		return c.Status(404).Render("notfound", fiber.Map{"Message": "Category not found"})
	}
	if errors.Is(err, hierarchy.ErrCorruptHierarchy) {
		applog.Integrity(c, action, err, nil)
		return c.Status(500).Render("notfound", fiber.Map{"Message": "Something went wrong. Please try again."})
	}
	applog.Error(c, action, err, nil)
	return c.Status(500).Render("notfound", fiber.Map{"Message": "Something went wrong. Please try again."})
}

// categoryInput parses and validates the shared create/edit form fields.
// Returns a user-facing message on the first bad field.
func categoryInput(c *fiber.Ctx) (services.Input, string) {
	var in services.Input
	name, ok := validate.Name(c.FormValue("name"))
	if !ok {
		return in, "Name is required (max 50 characters)"
	}
	desc, ok := validate.Description(c.FormValue("description"))
	if !ok {
		return in, "Description is too long (max 500 characters)"
	}
	parentID, ok := validate.CategoryID(c.FormValue("parent_id"))
	if !ok {
		return in, "Invalid parent category"
	}
	sortOrder, ok := validate.SortOrder(c.FormValue("sort_order"))
	if !ok {
		return in, "Invalid sort order"
	}
	in = services.Input{Name: name, Description: desc, ParentID: parentID, SortOrder: sortOrder}
	return in, ""
}
