package ipfilter

import (
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"
)

func newFilter(t *testing.T, entries []string) *Filter {
	t.Helper()
	return New(entries, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestNew(t *testing.T) {
	tests := []struct {
		name      string
		entries   []string
		wantCount int
	}{
		{"empty", nil, 0},
		{"single IP", []string{"192.168.1.1"}, 1},
		{"CIDR", []string{"10.0.0.0/8"}, 1},
		{"mixed with whitespace", []string{" 192.168.1.1 ", "10.0.0.0/8", ""}, 2},
		{"invalid entries skipped", []string{"192.168.1.1", "not-an-ip", "300.0.0.0/8"}, 1},
		{"IPv6", []string{"::1", "2001:db8::/32"}, 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFilter(t, tt.entries)
			if f.Count() != tt.wantCount {
				t.Errorf("Count() = %d, want %d", f.Count(), tt.wantCount)
			}
			if f.Enabled() != (tt.wantCount > 0) {
				t.Errorf("Enabled() = %v with %d networks", f.Enabled(), tt.wantCount)
			}
		})
	}
}

func TestIsAllowed(t *testing.T) {
	tests := []struct {
		name    string
		entries []string
		ip      string
		want    bool
	}{
		{"empty filter allows all", nil, "1.2.3.4", true},
		{"exact match", []string{"192.168.1.1"}, "192.168.1.1", true},
		{"exact mismatch", []string{"192.168.1.1"}, "192.168.1.2", false},
		{"inside CIDR", []string{"192.168.0.0/16"}, "192.168.200.5", true},
		{"outside CIDR", []string{"192.168.0.0/16"}, "10.0.0.1", false},
		{"second network matches", []string{"10.0.0.0/8", "172.16.0.0/12"}, "172.20.1.1", true},
		{"IPv6 loopback", []string{"::1"}, "::1", true},
		{"IPv6 CIDR", []string{"2001:db8::/32"}, "2001:db8::42", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFilter(t, tt.entries)
			ip := net.ParseIP(tt.ip)
			if ip == nil {
				t.Fatalf("bad test IP %q", tt.ip)
			}
			if got := f.IsAllowed(ip); got != tt.want {
				t.Errorf("IsAllowed(%s) = %v, want %v", tt.ip, got, tt.want)
			}
		})
	}
}

func TestIsAllowedStringAndAddr(t *testing.T) {
	f := newFilter(t, []string{"192.168.1.0/24"})

	if !f.IsAllowedString("192.168.1.50") {
		t.Error("in-range IP denied")
	}
	if f.IsAllowedString("10.0.0.1") {
		t.Error("out-of-range IP allowed")
	}
	if f.IsAllowedString("garbage") {
		t.Error("unparseable input allowed")
	}

	if !f.IsAllowedAddr("192.168.1.50:8080") {
		t.Error("in-range host:port denied")
	}
	if f.IsAllowedAddr("10.0.0.1:8080") {
		t.Error("out-of-range host:port allowed")
	}
	if !f.IsAllowedAddr("192.168.1.50") {
		t.Error("bare host without port denied")
	}
}

func TestGetClientIP(t *testing.T) {
	tests := []struct {
		name       string
		xff        string
		xri        string
		remoteAddr string
		want       string
	}{
		{"remote addr", "", "", "192.168.1.100:54321", "192.168.1.100"},
		{"forwarded single", "203.0.113.50", "", "127.0.0.1:1", "203.0.113.50"},
		{"forwarded chain takes first", "203.0.113.50, 70.41.3.18", "", "127.0.0.1:1", "203.0.113.50"},
		{"real-ip", "", "198.51.100.25", "127.0.0.1:1", "198.51.100.25"},
		{"forwarded beats real-ip", "203.0.113.50", "198.51.100.25", "127.0.0.1:1", "203.0.113.50"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/", nil)
			req.RemoteAddr = tt.remoteAddr
			if tt.xff != "" {
				req.Header.Set("X-Forwarded-For", tt.xff)
			}
			if tt.xri != "" {
				req.Header.Set("X-Real-IP", tt.xri)
			}

			ip := GetClientIP(req)
			if ip == nil || ip.String() != tt.want {
				t.Errorf("GetClientIP() = %v, want %s", ip, tt.want)
			}
		})
	}
}

func TestHTTPMiddleware(t *testing.T) {
	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	tests := []struct {
		name     string
		entries  []string
		clientIP string
		want     int
	}{
		{"disabled filter passes through", nil, "1.2.3.4", http.StatusOK},
		{"allowed", []string{"192.168.0.0/16"}, "192.168.1.100", http.StatusOK},
		{"denied", []string{"192.168.0.0/16"}, "10.0.0.1", http.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFilter(t, tt.entries)

			req := httptest.NewRequest("GET", "/", nil)
			req.RemoteAddr = tt.clientIP + ":12345"
			rec := httptest.NewRecorder()
			f.HTTPMiddleware(ok).ServeHTTP(rec, req)

			if rec.Code != tt.want {
				t.Errorf("status = %d, want %d", rec.Code, tt.want)
			}
		})
	}
}
