package httpauth

import (
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type backend struct {
	status    int
	challenge string
	lastAuth  atomic.Value
}

func (b *backend) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	b.lastAuth.Store(r.Header.Get("Authorization"))
	if b.challenge != "" {
		w.Header().Set("WWW-Authenticate", b.challenge)
	}
	w.WriteHeader(b.status)
}

func (b *backend) auth() string {
	v, _ := b.lastAuth.Load().(string)
	return v
}

func do(t *testing.T, c *Client, url string) int {
	t.Helper()
	req, err := http.NewRequest(http.MethodGet, url, nil)
	require.NoError(t, err)
	resp, err := c.HTTPClient().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	return resp.StatusCode
}

func TestClient_AttachesBearerToken(t *testing.T) {
	b := &backend{status: http.StatusOK}
	srv := httptest.NewServer(b)
	defer srv.Close()

	c := NewClient(ClientOptions{})
	c.RegisterTokenSupplier(func() string { return "tok-1" }, func() { t.Error("unexpected sign-out") })

	assert.Equal(t, http.StatusOK, do(t, c, srv.URL))
	assert.Equal(t, "Bearer tok-1", b.auth())
}

func TestClient_NoTokenPassesThrough(t *testing.T) {
	b := &backend{status: http.StatusUnauthorized}
	srv := httptest.NewServer(b)
	defer srv.Close()

	signedOut := false
	c := NewClient(ClientOptions{})
	assert.Equal(t, http.StatusUnauthorized, do(t, c, srv.URL))

	c.RegisterTokenSupplier(func() string { return "" }, func() { signedOut = true })
	assert.Equal(t, http.StatusUnauthorized, do(t, c, srv.URL))
	assert.Empty(t, b.auth())
	assert.False(t, signedOut)
}

func TestClient_SignsOutOnRejectedToken(t *testing.T) {
	tests := []struct {
		name      string
		status    int
		challenge string
		signOut   bool
	}{
		{name: "unauthorized", status: http.StatusUnauthorized, signOut: true},
		{name: "forbidden invalid token", status: http.StatusForbidden, challenge: `Bearer error="invalid_token"`, signOut: true},
		{name: "forbidden insufficient scope", status: http.StatusForbidden, challenge: `Bearer error="insufficient_scope"`},
		{name: "forbidden", status: http.StatusForbidden},
		{name: "server error", status: http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(&backend{status: tt.status, challenge: tt.challenge})
			defer srv.Close()

			calls := 0
			c := NewClient(ClientOptions{})
			c.RegisterTokenSupplier(func() string { return "tok" }, func() { calls++ })

			assert.Equal(t, tt.status, do(t, c, srv.URL))
			if tt.signOut {
				assert.Equal(t, 1, calls)
			} else {
				assert.Zero(t, calls)
			}
		})
	}
}
