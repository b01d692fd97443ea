package handlers

import (
	"github.com/gofiber/fiber/v2"

	"storefront/internal/domain"
	"storefront/internal/log"
	"storefront/internal/services"
)

type AuthHandler struct {
	Auth *services.AuthService
}

type credentials struct {
	Username string `json:"username" form:"username"`
	Email    string `json:"email" form:"email"`
	Password string `json:"password" form:"password"`
}

// login identifier: whichever of email or username was sent
func (cr credentials) login() string {
	if cr.Email != "" {
		return cr.Email
	}
	return cr.Username
}

func parseCredentials(c *fiber.Ctx) (credentials, bool) {
	var cr credentials
	if len(c.Body()) == 0 {
		return cr, true
	}
	if err := c.BodyParser(&cr); err != nil {
		return cr, false
	}
	return cr, true
}

// POST /api/auth/register
func (h *AuthHandler) Register(c *fiber.Ctx) error {
	cr, ok := parseCredentials(c)
	if !ok {
		return message(c, fiber.StatusBadRequest, "Invalid request body")
	}
	sess, err := h.Auth.Register(c.UserContext(), cr.Username, cr.Email, cr.Password)
	if err != nil {
		log.Security(c, "auth.register.fail", map[string]any{"username": cr.Username, "reason": err.Error()})
		return fail(c, err, "auth.register")
	}
	log.Audit(c, "auth.register.success", map[string]any{"user_id": sess.User.ID})
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": "User registered successfully",
		"token":   sess.Token,
		"user":    sess.User,
	})
}

// POST /api/auth/login
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	return h.login(c, domain.RoleUser, "Login successful")
}

// POST /api/auth/admin/login
func (h *AuthHandler) AdminLogin(c *fiber.Ctx) error {
	return h.login(c, domain.RoleAdmin, "Admin login successful")
}

func (h *AuthHandler) login(c *fiber.Ctx, role, okMsg string) error {
	cr, ok := parseCredentials(c)
	if !ok {
		return message(c, fiber.StatusBadRequest, "Invalid request body")
	}
	sess, err := h.Auth.Login(c.UserContext(), cr.login(), cr.Password, role)
	if err != nil {
		log.Security(c, "auth.login.fail", map[string]any{"login": cr.login(), "role": role})
		return fail(c, err, "auth.login")
	}
	log.Audit(c, "auth.login.success", map[string]any{"user_id": sess.User.ID, "role": role})
	return c.JSON(fiber.Map{"message": okMsg, "token": sess.Token, "user": sess.User})
}

// POST /api/auth/admin/create
func (h *AuthHandler) CreateAdmin(c *fiber.Ctx) error {
	cr, ok := parseCredentials(c)
	if !ok {
		return message(c, fiber.StatusBadRequest, "Invalid request body")
	}
	u, err := h.Auth.CreateAdmin(c.UserContext(), cr.Username, cr.Email, cr.Password)
	if err != nil {
		return fail(c, err, "auth.admin.create")
	}
	log.Audit(c, "auth.admin.create", map[string]any{"new_admin_id": u.ID})
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"message": "Admin account created successfully", "user": u})
}

// GET /api/auth/profile
func (h *AuthHandler) Profile(c *fiber.Ctx) error {
	u, err := h.Auth.Profile(c.UserContext(), identity(c).UserID)
	if err != nil {
		return fail(c, err, "auth.profile")
	}
	return c.JSON(fiber.Map{"user": u})
}
