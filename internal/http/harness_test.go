package handlers_test

import (
	"bytes"
	"encoding/json"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"

	"storefront/internal/config"
	"storefront/internal/http/handlers"
	"storefront/internal/metrics"
	"storefront/internal/repos"
)

type testEnv struct {
	t   *testing.T
	app *fiber.App
	db  *sqlx.DB
}

// newEnv spins up the full app over a fresh sqlite file. tweak, when given,
// adjusts the app config before the routes are built.
func newEnv(t *testing.T, tweak func(*handlers.AppConfig)) *testEnv {
	t.Helper()
	dir := t.TempDir()
	db, err := repos.OpenDB(repos.DriverSQLite, filepath.Join(dir, "test.db"))
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	cfg := config.Config{
		JWTSecret:   "test-secret",
		TokenTTL:    time.Hour,
		MediaDir:    filepath.Join(dir, "uploads"),
		MaxFileSize: 1 << 20,
	}
	deps, err := handlers.NewDeps(db, cfg, metrics.New(), nil)
	if err != nil {
		t.Fatalf("deps: %v", err)
	}
	ac := handlers.AppConfig{
		TemplatesDir: "../../web/templates",
		StaticDir:    "../../web/static",
		LoginLimit:   50,
		Quiet:        true,
	}
	if tweak != nil {
		tweak(&ac)
	}
	return &testEnv{t: t, app: handlers.NewApp(deps, ac), db: db}
}

type reply struct {
	Status int
	Body   map[string]any
	Raw    string
}

func (r reply) str(key string) string {
	s, _ := r.Body[key].(string)
	return s
}

// call sends a JSON request (body may be nil) with an optional bearer token.
func (e *testEnv) call(method, path string, body any, token string, headers ...string) reply {
	e.t.Helper()
	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			e.t.Fatal(err)
		}
		rd = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, rd)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	return e.send(req)
}

func (e *testEnv) send(req *http.Request) reply {
	e.t.Helper()
	resp, err := e.app.Test(req, -1)
	if err != nil {
		e.t.Fatalf("%s %s: %v", req.Method, req.URL.Path, err)
	}
	defer resp.Body.Close()
	raw, _ := io.ReadAll(resp.Body)
	r := reply{Status: resp.StatusCode, Raw: string(raw)}
	_ = json.Unmarshal(raw, &r.Body)
	return r
}

// register creates a shopper account and returns its token.
func (e *testEnv) register(name string) string {
	e.t.Helper()
	r := e.call("POST", "/api/auth/register", map[string]string{
		"username": name, "email": name + "@example.com", "password": "secret1",
	}, "")
	if r.Status != http.StatusCreated {
		e.t.Fatalf("register %s: %d %s", name, r.Status, r.Raw)
	}
	return r.str("token")
}

func (e *testEnv) adminToken() string {
	e.t.Helper()
	r := e.call("POST", "/api/auth/admin/login", map[string]string{"username": "admin", "password": "admin123"}, "")
	if r.Status != http.StatusOK {
		e.t.Fatalf("admin login: %d %s", r.Status, r.Raw)
	}
	return r.str("token")
}

// product creates a catalog entry through the admin API and returns its id.
func (e *testEnv) product(admin, name, price string, stock int) int64 {
	e.t.Helper()
	r := e.call("POST", "/api/products", map[string]any{
		"name": name, "description": "test item", "price": price, "category": "Testing", "stock_quantity": stock,
	}, admin)
	if r.Status != http.StatusCreated {
		e.t.Fatalf("create product: %d %s", r.Status, r.Raw)
	}
	p := r.Body["product"].(map[string]any)
	return int64(p["id"].(float64))
}

func (e *testEnv) addToCart(token string, productID int64, qty int) {
	e.t.Helper()
	r := e.call("POST", "/api/users/cart", map[string]any{"productId": productID, "quantity": qty}, token)
	if r.Status != http.StatusOK {
		e.t.Fatalf("add to cart: %d %s", r.Status, r.Raw)
	}
}

func itoa(id int64) string { return strconv.FormatInt(id, 10) }

// decimalField reads a money value that may be serialized as string or number.
func decimalField(m map[string]any, key string) decimal.Decimal {
	switch v := m[key].(type) {
	case string:
		return decimal.RequireFromString(v)
	case float64:
		return decimal.NewFromFloat(v)
	}
	return decimal.Zero
}

type accessLogEntry struct {
	Level  string         `json:"level"`
	Action string         `json:"action"`
	UserID int64          `json:"user_id"`
	Fields map[string]any `json:"fields"`
}

type lockedBuf struct {
	b  *bytes.Buffer
	mu *sync.Mutex
}

func (l *lockedBuf) Write(p []byte) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.b.Write(p)
}

func captureAccessLogs(t *testing.T, fn func()) []accessLogEntry {
	t.Helper()
	var buf bytes.Buffer
	var mu sync.Mutex
	oldW := log.Writer()
	oldFlags := log.Flags()
	log.SetOutput(&lockedBuf{b: &buf, mu: &mu})
	log.SetFlags(0)
	defer func() {
		log.SetOutput(oldW)
		log.SetFlags(oldFlags)
	}()

	fn()

	var entries []accessLogEntry
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		var e accessLogEntry
		if err := json.Unmarshal([]byte(line), &e); err == nil {
			entries = append(entries, e)
		}
	}
	return entries
}

func findAction(entries []accessLogEntry, action string) (accessLogEntry, bool) {
	for _, e := range entries {
		if e.Action == action {
			return e, true
		}
	}
	return accessLogEntry{}, false
}
