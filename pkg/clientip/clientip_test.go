package clientip_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/dmitrymomot/authcore/pkg/clientip"
)

func TestResolve(t *testing.T) {
	t.Parallel()

	trusted := []string{"X-Forwarded-For", "X-Real-IP"}

	tests := []struct {
		name    string
		headers map[string]string
		remote  string
		want    string
	}{
		{name: "remote addr", remote: "203.0.113.7:5123", want: "203.0.113.7"},
		{name: "remote without port", remote: "203.0.113.7", want: "203.0.113.7"},
		{name: "first forwarded", headers: map[string]string{"X-Forwarded-For": "198.51.100.1, 10.0.0.1"}, remote: "10.0.0.2:1", want: "198.51.100.1"},
		{name: "skips garbage in chain", headers: map[string]string{"X-Forwarded-For": "unknown, 198.51.100.9"}, remote: "10.0.0.2:1", want: "198.51.100.9"},
		{name: "real ip", headers: map[string]string{"X-Real-IP": "2001:db8::1"}, remote: "10.0.0.2:1", want: "2001:db8::1"},
		{name: "untrusted header ignored", headers: map[string]string{"CF-Connecting-IP": "198.51.100.3"}, remote: "10.0.0.2:1", want: "10.0.0.2"},
		{name: "invalid everything", headers: map[string]string{"X-Real-IP": "nope"}, remote: "bogus", want: ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			r := httptest.NewRequest(http.MethodGet, "/", nil)
			r.RemoteAddr = tt.remote
			for k, v := range tt.headers {
				r.Header.Set(k, v)
			}
			assert.Equal(t, tt.want, clientip.Resolve(r, trusted...))
		})
	}
}

func TestMiddleware(t *testing.T) {
	t.Parallel()

	var got string
	h := clientip.Middleware("X-Real-IP")(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		got = clientip.FromContext(r.Context())
	}))
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.Header.Set("X-Real-IP", "192.0.2.44")
	h.ServeHTTP(httptest.NewRecorder(), r)

	assert.Equal(t, "192.0.2.44", got)
}

func TestLogAttr(t *testing.T) {
	t.Parallel()

	_, ok := clientip.LogAttr(context.Background())
	assert.False(t, ok)

	attr, ok := clientip.LogAttr(clientip.WithContext(context.Background(), "192.0.2.1"))
	assert.True(t, ok)
	assert.Equal(t, "client_ip", attr.Key)
	assert.Equal(t, "192.0.2.1", attr.Value.String())
}
