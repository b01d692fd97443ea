package handlers

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"

	"storefront/internal/domain"
	applog "storefront/internal/log"
	"storefront/internal/metrics"
	"storefront/internal/services"
	"storefront/internal/validate"
)

// IdempotencyHeader lets clients retry a checkout without placing it twice.
const IdempotencyHeader = "Idempotency-Key"

type OrderHandler struct {
	Checkout *services.CheckoutService
	Orders   *services.OrderService
	Metrics  *metrics.Metrics
}

func (h *OrderHandler) count(outcome string) {
	if h.Metrics != nil {
		h.Metrics.Checkouts.WithLabelValues(outcome).Inc()
	}
}

func checkoutOutcome(err error) string {
	switch {
	case errors.Is(err, services.ErrEmptyCart):
		return "empty_cart"
	case errors.Is(err, services.ErrInsufficientStock):
		return "insufficient_stock"
	case errors.Is(err, services.ErrDuplicateRequest):
		return "duplicate"
	case errors.Is(err, services.ErrValidation):
		return "invalid"
	}
	return "error"
}

// POST /api/users/checkout
func (h *OrderHandler) PlaceOrder(c *fiber.Ctx) error {
	var body struct {
		PaymentMethod string `json:"paymentMethod" form:"paymentMethod"`
	}
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&body); err != nil {
			return message(c, fiber.StatusBadRequest, "Invalid request body")
		}
	}
	who := identity(c)
	key := strings.TrimSpace(c.Get(IdempotencyHeader))
	if len(key) > 128 {
		return message(c, fiber.StatusBadRequest, "Idempotency key too long")
	}

	res, err := h.Checkout.CheckoutOnce(c.UserContext(), key, who.UserID, body.PaymentMethod)
	if errors.Is(err, services.ErrInvalidPaymentMethod) {
		h.count("invalid_payment")
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message":              err.Error(),
			"allowedPaymentMethod": domain.PaymentCashOnDelivery,
		})
	}
	if err != nil {
		h.count(checkoutOutcome(err))
		applog.Info(c, "checkout.rejected", map[string]any{"reason": err.Error()})
		return fail(c, err, "checkout")
	}

	h.count("ok")
	applog.Audit(c, "order.placed", map[string]any{"order_id": res.OrderID, "total": res.TotalAmount.StringFixed(2)})
	return c.JSON(fiber.Map{
		"message":       "Order placed successfully. Payment method: Cash on Delivery.",
		"orderId":       res.OrderID,
		"totalAmount":   res.TotalAmount.StringFixed(2),
		"paymentMethod": res.PaymentMethod,
	})
}

// GET /api/users/orders
func (h *OrderHandler) History(c *fiber.Ctx) error {
	orders, err := h.Orders.ListForUser(c.UserContext(), identity(c).UserID)
	if err != nil {
		return fail(c, err, "orders.history")
	}
	return c.JSON(fiber.Map{"orders": orders})
}

// GET /api/users/orders/:id
func (h *OrderHandler) Detail(c *fiber.Ctx) error {
	id, ok := validate.ID(c.Params("id"))
	if !ok {
		return message(c, fiber.StatusNotFound, "Order not found")
	}
	o, err := h.Orders.GetFor(c.UserContext(), identity(c), id)
	if err != nil {
		if errors.Is(err, services.ErrNotFound) {
			// foreign orders answer exactly like missing ones
			applog.Security(c, "access.denied.order", map[string]any{"order_id": id})
		}
		return fail(c, err, "orders.detail")
	}
	return c.JSON(fiber.Map{"order": o})
}
