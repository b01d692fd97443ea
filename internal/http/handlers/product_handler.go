package handlers

import (
	"bytes"
	"encoding/json"
	"errors"
	"mime/multipart"
	"strings"

	"github.com/gofiber/fiber/v2"

	applog "storefront/internal/log"
	"storefront/internal/media"
	"storefront/internal/repos"
	"storefront/internal/services"
	"storefront/internal/validate"
)

type ProductHandler struct {
	Catalog *services.CatalogService
	Media   *media.Store
}

func filterFrom(c *fiber.Ctx) (repos.ProductFilter, error) {
	f := repos.ProductFilter{}
	f.Limit, f.Offset = validate.Page(c.Query("limit"), c.Query("offset"))
	if cat := c.Query("category"); cat != "" {
		v, ok := validate.Category(cat)
		if !ok {
			return f, services.Validationf("Invalid category")
		}
		f.Category = v
	}
	if q := c.Query("search"); q != "" {
		v, ok := validate.Q(q)
		if !ok {
			return f, services.Validationf("Invalid search query")
		}
		f.Search = v
	}
	return f, nil
}

// GET /api/products
func (h *ProductHandler) List(c *fiber.Ctx) error {
	f, err := filterFrom(c)
	if err != nil {
		applog.Security(c, "input.invalid.products", map[string]any{"category": c.Query("category"), "search": c.Query("search")})
		return fail(c, err, "products.list")
	}
	rows, page, err := h.Catalog.List(c.UserContext(), f)
	if err != nil {
		return fail(c, err, "products.list")
	}
	return c.JSON(fiber.Map{"products": rows, "pagination": page})
}

// GET /api/products/admin/products
func (h *ProductHandler) ListOwn(c *fiber.Ctx) error {
	f, err := filterFrom(c)
	if err != nil {
		return fail(c, err, "products.own")
	}
	rows, page, err := h.Catalog.ListOwn(c.UserContext(), identity(c).UserID, f)
	if err != nil {
		return fail(c, err, "products.own")
	}
	return c.JSON(fiber.Map{"products": rows, "pagination": page})
}

// GET /api/products/:id
func (h *ProductHandler) Get(c *fiber.Ctx) error {
	id, ok := validate.ID(c.Params("id"))
	if !ok {
		return message(c, fiber.StatusBadRequest, "Invalid product ID")
	}
	p, err := h.Catalog.Get(c.UserContext(), id)
	if err != nil {
		return fail(c, err, "products.get")
	}
	return c.JSON(fiber.Map{"product": p})
}

// GET /api/products/categories/list
func (h *ProductHandler) Categories(c *fiber.Ctx) error {
	cats, err := h.Catalog.Categories(c.UserContext())
	if err != nil {
		return fail(c, err, "products.categories")
	}
	return c.JSON(fiber.Map{"categories": cats})
}

// POST /api/products
func (h *ProductHandler) Create(c *fiber.Ctx) error {
	in, err := h.input(c)
	if err != nil {
		return h.inputFail(c, err)
	}
	p, err := h.Catalog.Create(c.UserContext(), identity(c).UserID, in)
	if err != nil {
		return fail(c, err, "products.create")
	}
	applog.Audit(c, "products.create", map[string]any{"product_id": p.ID, "images": len(p.Images)})
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"message": "Product created successfully", "product": p})
}

// PUT /api/products/:id
func (h *ProductHandler) Update(c *fiber.Ctx) error {
	id, ok := validate.ID(c.Params("id"))
	if !ok {
		return message(c, fiber.StatusBadRequest, "Invalid product ID")
	}
	in, err := h.input(c)
	if err != nil {
		return h.inputFail(c, err)
	}
	p, err := h.Catalog.Update(c.UserContext(), identity(c).UserID, id, in)
	if err != nil {
		return fail(c, err, "products.update")
	}
	applog.Audit(c, "products.update", map[string]any{"product_id": id})
	return c.JSON(fiber.Map{"message": "Product updated successfully", "product": p})
}

// DELETE /api/products/:id
func (h *ProductHandler) Delete(c *fiber.Ctx) error {
	id, ok := validate.ID(c.Params("id"))
	if !ok {
		return message(c, fiber.StatusBadRequest, "Invalid product ID")
	}
	if err := h.Catalog.Delete(c.UserContext(), identity(c).UserID, id); err != nil {
		return fail(c, err, "products.delete")
	}
	applog.Audit(c, "products.delete", map[string]any{"product_id": id})
	return c.JSON(fiber.Map{"message": "Product deleted successfully"})
}

var productFields = []string{"name", "description", "price", "category", "stock_quantity"}

// input reads product fields from a JSON, multipart or urlencoded body.
// Multipart uploads under "images" are stored before returning.
func (h *ProductHandler) input(c *fiber.Ctx) (services.ProductInput, error) {
	vals := map[string]*string{}
	var files []*multipart.FileHeader

	ct := strings.ToLower(string(c.Request().Header.ContentType()))
	switch {
	case strings.HasPrefix(ct, fiber.MIMEApplicationJSON):
		dec := json.NewDecoder(bytes.NewReader(c.Body()))
		dec.UseNumber()
		raw := map[string]any{}
		if err := dec.Decode(&raw); err != nil {
			return services.ProductInput{}, services.Validationf("Invalid request body")
		}
		for _, k := range productFields {
			switch v := raw[k].(type) {
			case string:
				vals[k] = &v
			case json.Number:
				s := v.String()
				vals[k] = &s
			}
		}
	case strings.HasPrefix(ct, fiber.MIMEMultipartForm):
		form, err := c.MultipartForm()
		if err != nil {
			return services.ProductInput{}, services.Validationf("Invalid multipart body")
		}
		for _, k := range productFields {
			if v, ok := form.Value[k]; ok && len(v) > 0 {
				vals[k] = &v[0]
			}
		}
		files = form.File["images"]
	default:
		args := c.Request().PostArgs()
		for _, k := range productFields {
			if args.Has(k) {
				v := string(args.Peek(k))
				vals[k] = &v
			}
		}
	}

	if len(files) > services.MaxProductImages {
		return services.ProductInput{}, services.Validationf("At most %d images are allowed", services.MaxProductImages)
	}
	in := services.ProductInput{
		Name:        vals["name"],
		Description: vals["description"],
		Price:       vals["price"],
		Category:    vals["category"],
		Stock:       vals["stock_quantity"],
	}
	if len(files) > 0 {
		urls, err := h.Media.Save(files)
		if err != nil {
			return services.ProductInput{}, err
		}
		in.Images = urls
	}
	return in, nil
}

func (h *ProductHandler) inputFail(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, media.ErrNotImage):
		applog.Security(c, "upload.rejected", map[string]any{"reason": "type"})
		return message(c, fiber.StatusBadRequest, "Only image files are allowed")
	case errors.Is(err, media.ErrTooLarge):
		applog.Security(c, "upload.rejected", map[string]any{"reason": "size"})
		return message(c, fiber.StatusRequestEntityTooLarge, "File too large")
	}
	return fail(c, err, "products.input")
}
