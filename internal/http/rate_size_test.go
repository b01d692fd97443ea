package handlers_test

import (
	"bytes"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"strings"
	"testing"

	"storefront/internal/http/handlers"
)

// Bursts against the API answer 429 once the per-IP budget is spent.
func TestAPIRateLimit(t *testing.T) {
	env := newEnv(t, func(ac *handlers.AppConfig) { ac.RateLimit = 3 })
	for i := 0; i < 4; i++ {
		r := env.call("GET", "/api/products", nil, "")
		if i < 3 && r.Status == http.StatusTooManyRequests {
			t.Fatalf("hit rate limit too early at %d", i)
		}
		if i == 3 && r.Status != http.StatusTooManyRequests {
			t.Fatalf("expected 429 after limit, got %d", r.Status)
		}
	}
	// non-API routes are not counted
	if r := env.call("GET", "/healthz", nil, ""); r.Status != http.StatusOK {
		t.Fatalf("healthz limited: %d", r.Status)
	}
}

func TestBodySizeLimit(t *testing.T) {
	env := newEnv(t, func(ac *handlers.AppConfig) { ac.BodyLimit = 4 << 10 })
	oversize := bytes.Repeat([]byte("A"), (4<<10)+10)
	req := httptest.NewRequest("POST", "/api/auth/register", bytes.NewReader(oversize))
	req.Header.Set("Content-Type", "application/json")
	resp, err := env.app.Test(req, -1)
	// fasthttp may refuse the body before a response is written; treat that as pass
	if err != nil {
		if strings.Contains(err.Error(), "body size exceeds") || strings.Contains(err.Error(), "too large") {
			return
		}
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.StatusCode != http.StatusRequestEntityTooLarge {
		body, _ := io.ReadAll(resp.Body)
		t.Fatalf("expected 413 for oversize, got %d body=%s", resp.StatusCode, string(body))
	}
}

func imagePart(t *testing.T, w *multipart.Writer, filename, contentType string, data []byte) {
	t.Helper()
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", `form-data; name="images"; filename="`+filename+`"`)
	h.Set("Content-Type", contentType)
	part, err := w.CreatePart(h)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := part.Write(data); err != nil {
		t.Fatal(err)
	}
}

func multipartProduct(t *testing.T, token string, files func(*multipart.Writer)) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for k, v := range map[string]string{"name": "Poster", "price": "15.00", "category": "Home", "stock_quantity": "3"} {
		_ = w.WriteField(k, v)
	}
	files(w)
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}
	req := httptest.NewRequest("POST", "/api/products", &buf)
	req.Header.Set("Content-Type", w.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+token)
	return req
}

var pngBytes = []byte("\x89PNG\r\n\x1a\n fake image body")

func TestImageUploadAndServe(t *testing.T) {
	env := newEnv(t, nil)
	admin := env.adminToken()

	r := env.send(multipartProduct(t, admin, func(w *multipart.Writer) {
		imagePart(t, w, "poster.png", "image/png", pngBytes)
	}))
	if r.Status != http.StatusCreated {
		t.Fatalf("create with image: %d %s", r.Status, r.Raw)
	}
	images := r.Body["product"].(map[string]any)["images"].([]any)
	if len(images) != 1 {
		t.Fatalf("images: %+v", images)
	}
	url := images[0].(string)
	if !strings.HasPrefix(url, "/uploads/") || !strings.HasSuffix(url, ".png") || strings.Contains(url, "poster") {
		t.Fatalf("stored name should be random with the original extension: %s", url)
	}

	got := env.call("GET", url, nil, "")
	if got.Status != http.StatusOK || got.Raw != string(pngBytes) {
		t.Fatalf("serve upload: %d", got.Status)
	}
}

func TestImageUploadRejections(t *testing.T) {
	env := newEnv(t, nil)
	admin := env.adminToken()

	r := env.send(multipartProduct(t, admin, func(w *multipart.Writer) {
		imagePart(t, w, "shell.php", "application/x-php", []byte("<?php echo 1;"))
	}))
	if r.Status != http.StatusBadRequest || r.str("message") != "Only image files are allowed" {
		t.Fatalf("non-image: %d %s", r.Status, r.Raw)
	}

	r = env.send(multipartProduct(t, admin, func(w *multipart.Writer) {
		imagePart(t, w, "huge.png", "image/png", bytes.Repeat([]byte("x"), (1<<20)+1))
	}))
	if r.Status != http.StatusRequestEntityTooLarge {
		t.Fatalf("oversized image: %d %s", r.Status, r.Raw)
	}

	r = env.send(multipartProduct(t, admin, func(w *multipart.Writer) {
		for i := 0; i < 6; i++ {
			imagePart(t, w, "p.png", "image/png", pngBytes)
		}
	}))
	if r.Status != http.StatusBadRequest {
		t.Fatalf("too many images: %d %s", r.Status, r.Raw)
	}

	list := env.call("GET", "/api/products/admin/products?limit=100", nil, admin)
	for _, p := range list.Body["products"].([]any) {
		if p.(map[string]any)["name"] == "Poster" {
			t.Fatal("rejected upload still created a product")
		}
	}
}

func TestUploadTraversalBlocked(t *testing.T) {
	env := newEnv(t, nil)
	for _, path := range []string{
		"/uploads/..%2f..%2fgo.mod",
		"/uploads/%2e%2e/%2e%2e/go.mod",
		"/uploads/missing.png",
	} {
		var r reply
		entries := captureAccessLogs(t, func() {
			r = env.send(httptest.NewRequest("GET", path, nil))
		})
		if r.Status != http.StatusNotFound {
			t.Fatalf("%s: expected 404, got %d", path, r.Status)
		}
		if strings.Contains(path, "..") || strings.Contains(path, "%2e") {
			if _, ok := findAction(entries, "media.traversal.block"); !ok {
				t.Fatalf("%s: traversal not logged", path)
			}
		}
	}
}
