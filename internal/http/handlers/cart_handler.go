package handlers

import (
	"github.com/gofiber/fiber/v2"

	applog "storefront/internal/log"
	"storefront/internal/services"
	"storefront/internal/validate"
)

type CartHandler struct {
	Cart *services.CartService
}

// GET /api/users/cart
func (h *CartHandler) View(c *fiber.Ctx) error {
	v, err := h.Cart.View(c.UserContext(), identity(c).UserID)
	if err != nil {
		return fail(c, err, "cart.view")
	}
	return c.JSON(v)
}

// POST /api/users/cart
func (h *CartHandler) Add(c *fiber.Ctx) error {
	var body struct {
		ProductID int64 `json:"productId"`
		Quantity  *int  `json:"quantity"`
	}
	if err := c.BodyParser(&body); err != nil {
		return message(c, fiber.StatusBadRequest, "Invalid request body")
	}
	if body.ProductID < 1 {
		return message(c, fiber.StatusBadRequest, "Product ID is required")
	}
	if err := h.Cart.Add(c.UserContext(), identity(c).UserID, body.ProductID, body.Quantity); err != nil {
		return fail(c, err, "cart.add")
	}
	applog.Info(c, "cart.add", map[string]any{"product_id": body.ProductID})
	return c.JSON(fiber.Map{"message": "Item added to cart successfully"})
}

// PUT /api/users/cart/:cartId
func (h *CartHandler) Update(c *fiber.Ctx) error {
	entryID, ok := validate.ID(c.Params("cartId"))
	if !ok {
		return message(c, fiber.StatusNotFound, "Cart item not found")
	}
	var body struct {
		Quantity int `json:"quantity"`
	}
	if err := c.BodyParser(&body); err != nil {
		return message(c, fiber.StatusBadRequest, "Invalid request body")
	}
	if err := h.Cart.Update(c.UserContext(), identity(c).UserID, entryID, body.Quantity); err != nil {
		return fail(c, err, "cart.update")
	}
	return c.JSON(fiber.Map{"message": "Cart item updated successfully"})
}

// DELETE /api/users/cart/:cartId
func (h *CartHandler) Remove(c *fiber.Ctx) error {
	entryID, ok := validate.ID(c.Params("cartId"))
	if !ok {
		return message(c, fiber.StatusNotFound, "Cart item not found")
	}
	if err := h.Cart.Remove(c.UserContext(), identity(c).UserID, entryID); err != nil {
		return fail(c, err, "cart.remove")
	}
	return c.JSON(fiber.Map{"message": "Item removed from cart successfully"})
}

// DELETE /api/users/cart
func (h *CartHandler) Clear(c *fiber.Ctx) error {
	if err := h.Cart.Clear(c.UserContext(), identity(c).UserID); err != nil {
		return fail(c, err, "cart.clear")
	}
	return c.JSON(fiber.Map{"message": "Cart cleared successfully"})
}
