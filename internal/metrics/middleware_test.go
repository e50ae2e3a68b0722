package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestResponseWriter(t *testing.T) {
	rec := httptest.NewRecorder()
	rw := wrapResponseWriter(rec)

	if rw.status != http.StatusOK {
		t.Errorf("initial status = %d, want 200", rw.status)
	}

	rw.WriteHeader(http.StatusNotFound)
	if rw.status != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rw.status)
	}

	// A second WriteHeader must not change the recorded status.
	rw.WriteHeader(http.StatusInternalServerError)
	if rw.status != http.StatusNotFound {
		t.Errorf("status after second WriteHeader = %d, want 404", rw.status)
	}
}

func TestResponseWriterImplicitStatus(t *testing.T) {
	rec := httptest.NewRecorder()
	rw := wrapResponseWriter(rec)

	if _, err := rw.Write([]byte("body")); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if rw.status != http.StatusOK {
		t.Errorf("status = %d, want 200 after bare Write", rw.status)
	}
	if rec.Body.String() != "body" {
		t.Errorf("body = %q", rec.Body.String())
	}
}

func TestHTTPMiddlewareRecords(t *testing.T) {
	m := New()
	SetGlobal(m)
	defer SetGlobal(nil)

	r := chi.NewRouter()
	r.Use(HTTPMiddleware)
	r.Get("/templates/{id}", func(w http.ResponseWriter, req *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	req := httptest.NewRequest("GET", "/templates/0c2d9a6e-1f3b-4c5d-8e7f-9a0b1c2d3e4f", nil)
	r.ServeHTTP(httptest.NewRecorder(), req)

	got := testutil.ToFloat64(m.APIRequestsTotal.WithLabelValues("GET", "/templates/{id}", "404"))
	if got != 1 {
		t.Errorf("request counter = %v, want 1", got)
	}
	if errs := testutil.ToFloat64(m.APIErrorsTotal.WithLabelValues("not_found")); errs != 1 {
		t.Errorf("error counter = %v, want 1", errs)
	}
}

func TestHTTPMiddlewareNoGlobal(t *testing.T) {
	SetGlobal(nil)

	handler := HTTPMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest("GET", "/anything", nil))

	if rec.Code != http.StatusTeapot {
		t.Errorf("status = %d, want 418", rec.Code)
	}
}

func TestNormalizePath(t *testing.T) {
	tests := []struct {
		name string
		path string
		want string
	}{
		{"plain path", "/health", "/health"},
		{"uuid collapsed", "/templates/0c2d9a6e-1f3b-4c5d-8e7f-9a0b1c2d3e4f", "/templates/{id}"},
		{"short segment kept", "/templates/abc", "/templates/abc"},
		{"36 chars but not a uuid", "/templates/zzzzzzzz-zzzz-zzzz-zzzz-zzzzzzzzzzzz", "/templates/zzzzzzzz-zzzz-zzzz-zzzz-zzzzzzzzzzzz"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", tt.path, nil)
			if got := normalizePath(req); got != tt.want {
				t.Errorf("normalizePath(%s) = %q, want %q", tt.path, got, tt.want)
			}
		})
	}
}

func TestCategorizeStatus(t *testing.T) {
	tests := []struct {
		status int
		want   string
	}{
		{400, "bad_request"},
		{401, "auth_error"},
		{403, "auth_error"},
		{404, "not_found"},
		{409, "client_error"},
		{422, "client_error"},
		{500, "server_error"},
		{503, "server_error"},
		{507, "storage_full"},
		{200, "unknown"},
	}

	for _, tt := range tests {
		if got := categorizeStatus(tt.status); got != tt.want {
			t.Errorf("categorizeStatus(%d) = %q, want %q", tt.status, got, tt.want)
		}
	}
}
