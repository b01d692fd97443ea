package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	applog "storefront/internal/log"
	"storefront/internal/services"
)

// GenericError is the only message a client sees for unexpected failures.
const GenericError = "Something went wrong!"

func message(c *fiber.Ctx, status int, msg string) error {
	return c.Status(status).JSON(fiber.Map{"message": msg})
}

// fail maps a service error onto the HTTP surface. Unclassified errors are
// logged under action and answered with a generic 500.
func fail(c *fiber.Ctx, err error, action string) error {
	status := statusOf(err)
	if status == fiber.StatusInternalServerError {
		applog.Error(c, action, err, nil)
		return message(c, status, GenericError)
	}
	if status == fiber.StatusUnauthorized || status == fiber.StatusForbidden {
		applog.Security(c, action+".denied", map[string]any{"reason": err.Error()})
	}
	return message(c, status, err.Error())
}

func statusOf(err error) int {
	switch {
	case errors.Is(err, services.ErrValidation):
		return fiber.StatusBadRequest
	case errors.Is(err, services.ErrNotFound):
		return fiber.StatusNotFound
	case errors.Is(err, services.ErrForbidden):
		return fiber.StatusForbidden
	case errors.Is(err, services.ErrConflict):
		return fiber.StatusConflict
	case errors.Is(err, services.ErrUnauthorized), errors.Is(err, services.ErrBadCredentials):
		return fiber.StatusUnauthorized
	}
	return fiber.StatusInternalServerError
}

// ErrorHandler is the app-wide fallback. It never exposes internals.
func ErrorHandler(c *fiber.Ctx, err error) error {
	var fe *fiber.Error
	if errors.As(err, &fe) && fe.Code < fiber.StatusInternalServerError {
		return message(c, fe.Code, fe.Message)
	}
	applog.Error(c, "server.error", err, nil)
	return message(c, fiber.StatusInternalServerError, GenericError)
}
