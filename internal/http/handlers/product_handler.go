package handlers

import (
	"database/sql"
	"errors"
	"strconv"
	"strings"

	applog "stockroom/internal/log"
	"stockroom/internal/services"
	"stockroom/internal/validate"

	"github.com/gofiber/fiber/v2"
)

type ProductHandler struct {
	Products   *services.ProductService
	Categories *services.CategoryService
}

func (h *ProductHandler) List(c *fiber.Ctx) error {
	page, _ := strconv.Atoi(c.Query("page", "1"))
	if page < 1 {
		page = 1
	}
	const pageSize = 20
	products, err := h.Products.List(page, pageSize)
	if err != nil {
		applog.Error(c, "product.list.fail", err, nil)
		return c.Status(500).Render("notfound", fiber.Map{"Message": "Could not load products"})
	}
	return render(c, "products", fiber.Map{
		"Products": products, "Page": page,
		"Prev": page - 1, "Next": page + 1, "HasMore": len(products) == pageSize,
	})
}

func (h *ProductHandler) Detail(c *fiber.Ctx) error {
	id, ok := validate.ProductID(c.Params("id"))
	if !ok {
		applog.Security(c, "validation.fail", map[string]any{"field": "product"})
		return c.Status(404).Render("notfound", fiber.Map{"Message": "This item is no longer available"})
	}
	d, err := h.Products.Get(id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return c.Status(404).Render("notfound", fiber.Map{"Message": "This item is no longer available"})
		}
		applog.Error(c, "product.detail.fail", err, nil)
		return c.Status(500).Render("notfound", fiber.Map{"Message": "Something went wrong. Please try again."})
	}
	return render(c, "product", fiber.Map{"D": d})
}

func (h *ProductHandler) NewForm(c *fiber.Ctx) error {
	opts, err := h.categoryOptions()
	if err != nil {
		applog.Error(c, "product.form.fail", err, nil)
		return c.Status(500).Render("notfound", fiber.Map{"Message": "Could not load form"})
	}
	return render(c, "product_form", fiber.Map{"Options": opts})
}

func (h *ProductHandler) Create(c *fiber.Ctx) error {
	in, formErr := productInput(c)
	if formErr != "" {
		opts, _ := h.categoryOptions()
		c.Status(400)
		return render(c, "product_form", fiber.Map{"Options": opts, "Err": formErr})
	}
	id, err := h.Products.Create(in)
	if err != nil {
		if errors.Is(err, services.ErrNoCategory) {
			opts, _ := h.categoryOptions()
			c.Status(400)
			return render(c, "product_form", fiber.Map{"Options": opts, "Err": "Pick at least one category"})
		}
		applog.Error(c, "product.create.fail", err, nil)
		return c.Status(500).Render("notfound", fiber.Map{"Message": "Could not save product"})
	}
	applog.Audit(c, "product.create", map[string]any{"id": id, "name": in.Name})
	return c.Redirect("/product/" + id)
}

func (h *ProductHandler) EditForm(c *fiber.Ctx) error {
	id, ok := validate.ProductID(c.Params("id"))
	if !ok {
		return c.Status(404).Render("notfound", fiber.Map{"Message": "This item is no longer available"})
	}
	d, err := h.Products.Get(id)
	if err != nil {
		return c.Status(404).Render("notfound", fiber.Map{"Message": "This item is no longer available"})
	}
	opts, err := h.categoryOptions()
	if err != nil {
		applog.Error(c, "product.form.fail", err, nil)
		return c.Status(500).Render("notfound", fiber.Map{"Message": "Could not load form"})
	}
	attached := map[int64]bool{}
	for _, cid := range d.CategoryIDs {
		attached[cid] = true
	}
	return render(c, "product_form", fiber.Map{"Edit": d, "Options": opts, "Attached": attached})
}

func (h *ProductHandler) Update(c *fiber.Ctx) error {
	id, ok := validate.ProductID(c.Params("id"))
	if !ok {
		return c.Status(404).Render("notfound", fiber.Map{"Message": "This item is no longer available"})
	}
	in, formErr := productInput(c)
	if formErr != "" {
		opts, _ := h.categoryOptions()
		c.Status(400)
		return render(c, "product_form", fiber.Map{"Options": opts, "Err": formErr})
	}
	if err := h.Products.Update(id, in); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return c.Status(404).Render("notfound", fiber.Map{"Message": "This item is no longer available"})
		}
		applog.Error(c, "product.update.fail", err, map[string]any{"id": id})
		return c.Status(500).Render("notfound", fiber.Map{"Message": "Could not save product"})
	}
	applog.Audit(c, "product.update", map[string]any{"id": id})
	return c.Redirect("/product/" + id)
}

func (h *ProductHandler) Delete(c *fiber.Ctx) error {
	id, ok := validate.ProductID(c.Params("id"))
	if !ok {
		return c.Status(404).Render("notfound", fiber.Map{"Message": "This item is no longer available"})
	}
	if err := h.Products.Delete(id); err != nil {
		applog.Error(c, "product.delete.fail", err, map[string]any{"id": id})
		return c.Status(500).Render("notfound", fiber.Map{"Message": "Could not delete product"})
	}
	applog.Audit(c, "product.delete", map[string]any{"id": id})
	return c.Redirect("/products")
}

func (h *ProductHandler) categoryOptions() ([]services.Option, error) {
	return h.Categories.Options()
}

func productInput(c *fiber.Ctx) (services.ProductInput, string) {
	var in services.ProductInput
	name, ok := validate.Name(c.FormValue("name"))
	if !ok {
		return in, "Name is required (max 50 characters)"
	}
	sku, ok := validate.SKU(c.FormValue("sku"))
	if !ok {
		return in, "Invalid SKU"
	}
	desc, ok := validate.Description(c.FormValue("description"))
	if !ok {
		return in, "Description is too long (max 500 characters)"
	}
	price, ok := validate.Price(c.FormValue("price"))
	if !ok {
		return in, "Invalid price"
	}
	status, ok := validate.Status(c.FormValue("status"))
	if !ok {
		return in, "Invalid status"
	}
	var catIDs []int64
	for _, raw := range strings.Split(c.FormValue("category_ids"), ",") {
		if strings.TrimSpace(raw) == "" {
			continue
		}
		id, ok := validate.CategoryID(raw)
		if !ok || id == 0 {
			return in, "Invalid category"
		}
		catIDs = append(catIDs, id)
	}
	in = services.ProductInput{Name: name, SKU: sku, Description: desc, Price: price, Status: status, CategoryIDs: catIDs}
	return in, ""
}
