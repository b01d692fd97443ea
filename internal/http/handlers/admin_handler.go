package handlers

import (
	"strconv"

	"github.com/gofiber/fiber/v2"

	applog "storefront/internal/log"
	"storefront/internal/services"
	"storefront/internal/validate"
)

type AdminHandler struct {
	Orders *services.OrderService
}

// GET /api/admin/orders
func (h *AdminHandler) ListOrders(c *fiber.Ctx) error {
	limit, _ := strconv.Atoi(c.Query("limit", "100"))
	if limit < 1 || limit > 500 {
		limit = 100
	}
	ords, err := h.Orders.ListLatest(c.UserContext(), limit)
	if err != nil {
		return fail(c, err, "admin.orders.list")
	}
	return c.JSON(fiber.Map{"orders": ords})
}

// PUT /api/admin/orders/:id/status
func (h *AdminHandler) UpdateOrderStatus(c *fiber.Ctx) error {
	id, ok := validate.ID(c.Params("id"))
	if !ok {
		return message(c, fiber.StatusNotFound, "Order not found")
	}
	var body struct {
		Status string `json:"status" form:"status"`
	}
	if err := c.BodyParser(&body); err != nil {
		return message(c, fiber.StatusBadRequest, "Invalid request body")
	}
	if err := h.Orders.UpdateStatus(c.UserContext(), id, body.Status); err != nil {
		return fail(c, err, "admin.orders.update")
	}
	applog.Audit(c, "admin.orders.update", map[string]any{"order_id": id, "status": body.Status})
	return c.JSON(fiber.Map{"message": "Order status updated"})
}
