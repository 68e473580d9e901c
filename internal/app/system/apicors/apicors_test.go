package apicors

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func serve(mw func(http.Handler) http.Handler, method, origin string) *httptest.ResponseRecorder {
	h := mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	req := httptest.NewRequest(method, "/api/catalog", nil)
	if origin != "" {
		req.Header.Set("Origin", origin)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestMiddleware_AnyOrigin(t *testing.T) {
	rec := serve(Middleware(), http.MethodGet, "https://elsewhere.test")
	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "*" {
		t.Errorf("Allow-Origin = %q, want *", got)
	}
	if rec.Code != http.StatusOK {
		t.Errorf("Status = %d, want 200", rec.Code)
	}
}

func TestMiddleware_Restricted(t *testing.T) {
	mw := Middleware("https://site.test/", "https://admin.site.test")

	rec := serve(mw, http.MethodGet, "https://site.test")
	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "https://site.test" {
		t.Errorf("Allow-Origin = %q, want https://site.test", got)
	}

	rec = serve(mw, http.MethodGet, "https://evil.test")
	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "" {
		t.Errorf("Allow-Origin = %q, want empty", got)
	}
	if got := rec.Header().Get("Vary"); got != "Origin" {
		t.Errorf("Vary = %q, want Origin", got)
	}
}

func TestMiddleware_Preflight(t *testing.T) {
	rec := serve(Middleware("*"), http.MethodOptions, "https://site.test")
	if rec.Code != http.StatusNoContent {
		t.Errorf("Status = %d, want 204", rec.Code)
	}
	if got := rec.Header().Get("Access-Control-Allow-Methods"); got != allowMethods {
		t.Errorf("Allow-Methods = %q", got)
	}
}
