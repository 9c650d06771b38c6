package handlers

import (
	"errors"

	"stockroom/internal/hierarchy"
	applog "stockroom/internal/log"
	"stockroom/internal/services"
	"stockroom/internal/validate"

	"github.com/gofiber/fiber/v2"
)

// APIHandler serves the Ajax/JSON endpoints backing the admin screens:
// tree loading, live search suggestions, form pre-validation and delete
// pre-checks.
type APIHandler struct {
	Categories *services.CategoryService
}

// Tree returns the nested forest with counts, or a single subtree when
// root_id is given.
//
// GET /api/v1/categories/tree[?root_id=N]
func (h *APIHandler) Tree(c *fiber.Ctx) error {
	rootID, ok := validate.CategoryID(c.Query("root_id"))
	if !ok {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid root_id"})
	}

	if rootID != 0 {
		node, counts, err := h.Categories.Subtree(rootID)
		if err != nil {
			return h.jsonErr(c, "api.tree.fail", err)
		}
		return c.JSON(fiber.Map{"tree": []any{node}, "counts": counts})
	}

	tree, counts, dangling, err := h.Categories.Tree()
	if err != nil {
		return h.jsonErr(c, "api.tree.fail", err)
	}
	if len(dangling) > 0 {
		applog.Integrity(c, "api.tree.dangling", nil, map[string]any{"ids": dangling})
	}
	return c.JSON(fiber.Map{"tree": tree, "counts": counts})
}

// Search returns keyword matches plus their ancestors, flat, in tree
// order. Feeds the suggestion dropdown.
//
// GET /api/v1/categories/search?q=keyword
func (h *APIHandler) Search(c *fiber.Ctx) error {
	q, ok := validate.Q(c.Query("q"))
	if !ok {
		applog.Security(c, "validation.fail", map[string]any{"field": "q"})
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid keyword"})
	}
	cats, counts, err := h.Categories.Search(q)
	if err != nil {
		return h.jsonErr(c, "api.search.fail", err)
	}
	return c.JSON(fiber.Map{"categories": cats, "counts": counts, "count": len(cats)})
}

// Validate pre-checks a parent assignment for the category form so the
// screen can flag problems before submit. Failures are a 200 with
// valid=false: they are expected outcomes, not errors.
//
// GET /api/v1/categories/validate?parent_id=N&current_id=N
func (h *APIHandler) Validate(c *fiber.Ctx) error {
	parentID, ok := validate.CategoryID(c.Query("parent_id"))
	if !ok {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid parent_id"})
	}
	currentID, ok := validate.CategoryID(c.Query("current_id"))
	if !ok {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid current_id"})
	}
	res, err := h.Categories.Validate(parentID, currentID)
	if err != nil {
		return h.jsonErr(c, "api.validate.fail", err)
	}
	return c.JSON(res)
}

// Counts returns the direct and transitive product counts for one category.
//
// GET /api/v1/categories/:id/counts
func (h *APIHandler) Counts(c *fiber.Ctx) error {
	id, ok := validate.CategoryID(c.Params("id"))
	if !ok || id == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid id"})
	}
	d, err := h.Categories.Get(id)
	if err != nil {
		return h.jsonErr(c, "api.counts.fail", err)
	}
	return c.JSON(fiber.Map{"id": id, "direct": d.Counts.Direct, "transitive": d.Counts.Transitive})
}

// CanDelete answers the delete pre-check used by the confirm dialog.
//
// GET /api/v1/categories/:id/can-delete
func (h *APIHandler) CanDelete(c *fiber.Ctx) error {
	id, ok := validate.CategoryID(c.Params("id"))
	if !ok || id == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid id"})
	}
	can, err := h.Categories.CanDelete(id)
	if err != nil {
		return h.jsonErr(c, "api.candelete.fail", err)
	}
	return c.JSON(fiber.Map{"id": id, "can_delete": can})
}

// Path returns the breadcrumb string for one category.
//
// GET /api/v1/categories/:id/path
func (h *APIHandler) Path(c *fiber.Ctx) error {
	id, ok := validate.CategoryID(c.Params("id"))
	if !ok || id == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid id"})
	}
	d, err := h.Categories.Get(id)
	if err != nil {
		return h.jsonErr(c, "api.path.fail", err)
	}
	return c.JSON(fiber.Map{"id": id, "full_path": d.FullPath})
}

func (h *APIHandler) jsonErr(c *fiber.Ctx, action string, err error) error {
	if errors.Is(err, hierarchy.ErrNotFound) {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "category not found"})
	}
	if errors.Is(err, hierarchy.ErrCorruptHierarchy) {
		applog.Integrity(c, action, err, nil)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal error"})
	}
	applog.Error(c, action, err, nil)
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal error"})
}
