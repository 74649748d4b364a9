package httpx

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/oldgoods/thriftstore/internal/users"
)

type fakeResolver struct{ byToken map[string]*users.Session }

func (f fakeResolver) Resolve(_ context.Context, token string) (*users.Session, error) {
	if s, ok := f.byToken[token]; ok {
		return s, nil
	}
	return nil, users.ErrNoSession
}

func TestRequireSession(t *testing.T) {
	resolver := fakeResolver{byToken: map[string]*users.Session{
		"good-token": {Token: "good-token", UserID: "u-1", Username: "thriftfan"},
	}}

	var got *users.Session
	handler := RequireSession(resolver)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = sessionFrom(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	t.Run("bearer header", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer good-token")
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "u-1", got.UserID)
	})

	t.Run("session header", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("X-Session-Token", "good-token")
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("missing token", func(t *testing.T) {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("bad token", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer expired")
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}

func TestCanActFor(t *testing.T) {
	sess := &users.Session{UserID: "u-1", Username: "thriftfan"}
	assert.True(t, canActFor(sess, "u-1"))
	assert.True(t, canActFor(sess, "thriftfan"), "legacy clients send the username")
	assert.False(t, canActFor(sess, "u-2"))
	assert.False(t, canActFor(nil, "u-1"))

	admin := &users.Session{UserID: "a-1", IsAdmin: true}
	assert.True(t, canActFor(admin, "u-1"))
}
