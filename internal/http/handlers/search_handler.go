package handlers

import (
	applog "stockroom/internal/log"
	"stockroom/internal/services"
	"stockroom/internal/validate"

	"github.com/gofiber/fiber/v2"
)

type SearchHandler struct {
	Categories *services.CategoryService
}

// Search renders the category tree pruned to keyword matches and their
// ancestors, so hits stay in their hierarchical position. A blank keyword
// lists everything.
func (h *SearchHandler) Search(c *fiber.Ctx) error {
	q, ok := validate.Q(c.Query("q"))
	if !ok {
		applog.Security(c, "validation.fail", map[string]any{"field": "q", "value": c.Query("q")})
		return c.Status(fiber.StatusBadRequest).Render("search", fiber.Map{
			"Q": "", "Categories": []any{}, "Count": 0, "Err": "Enter a valid keyword (letters/numbers only)",
		})
	}

	cats, counts, err := h.Categories.Search(q)
	if err != nil {
		applog.Error(c, "search.error", err, nil)
		return c.Status(500).Render("notfound", fiber.Map{"Message": "Could not load results. Please retry."})
	}

	return render(c, "search", fiber.Map{
		"Q": q, "Categories": cats, "Counts": counts, "Count": len(cats),
	})
}
