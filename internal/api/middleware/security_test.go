package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClientIP(t *testing.T) {
	cases := []struct {
		name   string
		remote string
		xff    string
		realIP string
		want   string
	}{
		{name: "direct public peer ignores headers", remote: "203.0.113.7:5000", xff: "1.1.1.1", want: "203.0.113.7"},
		{name: "proxy forwards client", remote: "10.0.0.2:80", xff: "198.51.100.4", want: "198.51.100.4"},
		{name: "skips trusted hops from the right", remote: "127.0.0.1:80", xff: "198.51.100.4, 10.0.0.9", want: "198.51.100.4"},
		{name: "spoofed leftmost entry is not trusted", remote: "10.0.0.2:80", xff: "6.6.6.6, 198.51.100.4", want: "198.51.100.4"},
		{name: "x-real-ip fallback", remote: "192.168.1.1:80", realIP: "198.51.100.9", want: "198.51.100.9"},
		{name: "ipv6 loopback without headers", remote: "[::1]:443", want: "::1"},
		{name: "garbage remote", remote: "nope", want: ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/api/servers", nil)
			r.RemoteAddr = tc.remote
			if tc.xff != "" {
				r.Header.Set("X-Forwarded-For", tc.xff)
			}
			if tc.realIP != "" {
				r.Header.Set("X-Real-IP", tc.realIP)
			}
			assert.Equal(t, tc.want, ClientIP(r))
		})
	}
}

func TestCORS(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusTeapot) })
	h := CORS(DefaultCORSConfig([]string{"https://admin.example"}))(next)

	pre := httptest.NewRequest(http.MethodOptions, "/api/servers", nil)
	pre.Header.Set("Origin", "https://admin.example")
	pre.Header.Set("Access-Control-Request-Method", http.MethodPut)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, pre)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "https://admin.example", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Contains(t, rec.Header().Get("Access-Control-Allow-Methods"), http.MethodPut)
	assert.Equal(t, "86400", rec.Header().Get("Access-Control-Max-Age"))

	other := httptest.NewRequest(http.MethodGet, "/api/servers", nil)
	other.Header.Set("Origin", "https://evil.example")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, other)
	assert.Equal(t, http.StatusTeapot, rec.Code)
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestBodyLimitRejectsDeclaredOversize(t *testing.T) {
	called := false
	next := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) { called = true })
	h := BodyLimit(BodyLimitConfig{MaxBytes: 8})(next)

	r := httptest.NewRequest(http.MethodPost, "/api/servers", strings.NewReader(`{"country":"Brazil"}`))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, r)
	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
	assert.False(t, called)

	r = httptest.NewRequest(http.MethodPost, "/api/servers", strings.NewReader(`{}`))
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, r)
	assert.True(t, called)
}
