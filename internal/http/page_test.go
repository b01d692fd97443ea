package handlers_test

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestIndexAndStatic(t *testing.T) {
	env := newEnv(t, nil)

	r := env.send(httptest.NewRequest("GET", "/", nil))
	if r.Status != http.StatusOK {
		t.Fatalf("index: %d", r.Status)
	}
	if !strings.Contains(r.Raw, `data-api="/api"`) || !strings.Contains(r.Raw, "/static/app.js") {
		t.Fatalf("index missing api base or script: %s", r.Raw)
	}

	js := env.send(httptest.NewRequest("GET", "/static/app.js", nil))
	if js.Status != http.StatusOK || !strings.Contains(js.Raw, "/users/checkout") {
		t.Fatalf("static asset: %d", js.Status)
	}

	resp, err := env.app.Test(httptest.NewRequest("GET", "/", nil))
	if err != nil {
		t.Fatal(err)
	}
	if resp.Header.Get("X-Content-Type-Options") != "nosniff" {
		t.Fatal("security headers missing")
	}
}
