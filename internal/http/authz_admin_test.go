package handlers_test

import (
	"net/http"
	"testing"

	"github.com/shopspring/decimal"
)

// Admin routes require the admin role, and refusals are logged.
func TestAdminGuardRequiresAdmin(t *testing.T) {
	env := newEnv(t, nil)
	shopper := env.register("carol")
	admin := env.adminToken()

	for _, path := range []string{"/api/admin/orders", "/api/products/admin/products"} {
		if r := env.call("GET", path, nil, ""); r.Status != http.StatusUnauthorized {
			t.Fatalf("%s anonymous: expected 401, got %d", path, r.Status)
		}

		var r reply
		entries := captureAccessLogs(t, func() {
			r = env.call("GET", path, nil, shopper)
		})
		if r.Status != http.StatusForbidden || r.str("message") != "Admin access required" {
			t.Fatalf("%s shopper: expected 403, got %d %s", path, r.Status, r.Raw)
		}
		e, ok := findAction(entries, "access.denied.admin")
		if !ok || e.UserID == 0 {
			t.Fatalf("%s: expected access.denied.admin with user id, got %+v", path, entries)
		}

		if r := env.call("GET", path, nil, admin); r.Status != http.StatusOK {
			t.Fatalf("%s admin: expected 200, got %d %s", path, r.Status, r.Raw)
		}
	}
}

func TestCreateAdminRequiresAdmin(t *testing.T) {
	env := newEnv(t, nil)
	body := map[string]string{"username": "root2", "email": "root2@ecommerce.com", "password": "admin456"}

	if r := env.call("POST", "/api/auth/admin/create", body, ""); r.Status != http.StatusUnauthorized {
		t.Fatalf("anonymous admin create: expected 401, got %d", r.Status)
	}
	if r := env.call("POST", "/api/auth/admin/create", body, env.register("dave")); r.Status != http.StatusForbidden {
		t.Fatalf("shopper admin create: expected 403, got %d", r.Status)
	}
	r := env.call("POST", "/api/auth/admin/create", body, env.adminToken())
	if r.Status != http.StatusCreated {
		t.Fatalf("admin create: %d %s", r.Status, r.Raw)
	}
	login := env.call("POST", "/api/auth/admin/login", map[string]string{"username": "root2", "password": "admin456"}, "")
	if login.Status != http.StatusOK {
		t.Fatalf("new admin login: %d %s", login.Status, login.Raw)
	}
}

func TestProductOwnership(t *testing.T) {
	env := newEnv(t, nil)
	first := env.adminToken()
	env.call("POST", "/api/auth/admin/create", map[string]string{
		"username": "second", "email": "second@ecommerce.com", "password": "admin456",
	}, first)
	second := env.call("POST", "/api/auth/admin/login", map[string]string{"username": "second", "password": "admin456"}, "").str("token")

	id := env.product(first, "Desk Lamp", "25.50", 4)
	path := "/api/products/" + itoa(id)

	if r := env.call("PUT", path, map[string]any{"price": "30.00"}, second); r.Status != http.StatusForbidden {
		t.Fatalf("foreign update: expected 403, got %d %s", r.Status, r.Raw)
	}
	if r := env.call("DELETE", path, nil, second); r.Status != http.StatusForbidden {
		t.Fatalf("foreign delete: expected 403, got %d", r.Status)
	}

	r := env.call("PUT", path, map[string]any{"price": "30.00", "stock_quantity": 9}, first)
	if r.Status != http.StatusOK {
		t.Fatalf("owner update: %d %s", r.Status, r.Raw)
	}
	p := r.Body["product"].(map[string]any)
	if !decimalField(p, "price").Equal(decimal.RequireFromString("30")) || p["stock_quantity"].(float64) != 9 {
		t.Fatalf("update not applied: %+v", p)
	}

	own := env.call("GET", "/api/products/admin/products", nil, second)
	if n := len(own.Body["products"].([]any)); n != 0 {
		t.Fatalf("second admin owns %d products, want 0", n)
	}

	if r := env.call("DELETE", path, nil, first); r.Status != http.StatusOK {
		t.Fatalf("owner delete: %d", r.Status)
	}
	if r := env.call("GET", path, nil, ""); r.Status != http.StatusNotFound {
		t.Fatalf("deleted product: expected 404, got %d", r.Status)
	}
}
