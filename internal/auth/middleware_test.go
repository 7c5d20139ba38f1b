package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenIssuer_Authenticate(t *testing.T) {
	issuer := NewTokenIssuer("test-secret", 15*time.Minute)
	studentID := uuid.New()
	token, _, err := issuer.GenerateAccessToken(studentID, 1234)
	require.NoError(t, err)

	t.Run("NoToken", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)

		id, ok, err := issuer.Authenticate(req)
		require.NoError(t, err)
		assert.False(t, ok)
		assert.Equal(t, uuid.Nil, id)
	})

	t.Run("Cookie", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.AddCookie(&http.Cookie{Name: cookieName, Value: token})

		id, ok, err := issuer.Authenticate(req)
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Equal(t, studentID, id)
	})

	t.Run("BearerHeader", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer "+token)

		id, ok, err := issuer.Authenticate(req)
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Equal(t, studentID, id)
	})

	t.Run("InvalidToken", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer not.a.token")

		_, ok, err := issuer.Authenticate(req)
		assert.ErrorIs(t, err, ErrInvalidToken)
		assert.False(t, ok)
	})
}
