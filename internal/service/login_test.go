package service

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newLoginServer(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/login", r.URL.Path)
		require.NoError(t, r.ParseForm())

		switch r.PostForm.Get("password") {
		case "hunter2":
			http.SetCookie(w, &http.Cookie{Name: "session", Value: "sess-42"})
			w.Header().Set("Location", "/")
			w.WriteHeader(http.StatusFound)
		case "throttle":
			w.WriteHeader(http.StatusTooManyRequests)
		default:
			w.WriteHeader(http.StatusUnauthorized)
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestLoginClient_Success(t *testing.T) {
	srv := newLoginServer(t)
	c := NewLoginClient(srv.URL, zap.NewNop())

	session, err := c.Login("hunter2")
	require.NoError(t, err)
	assert.Equal(t, "sess-42", session)
}

func TestLoginClient_BadPassword(t *testing.T) {
	srv := newLoginServer(t)
	c := NewLoginClient(srv.URL, zap.NewNop())

	_, err := c.Login("wrong")
	assert.ErrorIs(t, err, ErrBadPassword)
}

func TestLoginClient_RateLimited(t *testing.T) {
	srv := newLoginServer(t)
	c := NewLoginClient(srv.URL, zap.NewNop())

	_, err := c.Login("throttle")
	assert.ErrorIs(t, err, ErrRateLimited)
}
