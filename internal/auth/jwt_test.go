package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenIssuer(t *testing.T) {
	issuer := NewTokenIssuer("test-secret", 15*time.Minute)
	studentID := uuid.New()

	t.Run("RoundTrip", func(t *testing.T) {
		token, expiresAt, err := issuer.GenerateAccessToken(studentID, 1234)
		require.NoError(t, err)
		assert.WithinDuration(t, time.Now().Add(15*time.Minute), expiresAt, 5*time.Second)

		claims, err := issuer.ValidateAccessToken(token)
		require.NoError(t, err)
		assert.Equal(t, studentID.String(), claims.StudentID)
		assert.Equal(t, 1234, claims.IDSv)
		assert.Equal(t, studentID.String(), claims.Subject)
	})

	t.Run("WrongSecret", func(t *testing.T) {
		token, _, err := issuer.GenerateAccessToken(studentID, 1234)
		require.NoError(t, err)

		_, err = NewTokenIssuer("other-secret", time.Minute).ValidateAccessToken(token)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("Expired", func(t *testing.T) {
		past := NewTokenIssuer("test-secret", time.Minute)
		past.now = func() time.Time { return time.Now().Add(-time.Hour) }
		token, _, err := past.GenerateAccessToken(studentID, 1234)
		require.NoError(t, err)

		_, err = issuer.ValidateAccessToken(token)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("RejectsOtherSigningMethod", func(t *testing.T) {
		claims := Claims{
			StudentID: studentID.String(),
			RegisteredClaims: jwt.RegisteredClaims{
				Issuer:    "student-registry",
				ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Minute)),
			},
		}
		token, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
		require.NoError(t, err)

		_, err = issuer.ValidateAccessToken(token)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("Garbage", func(t *testing.T) {
		_, err := issuer.ValidateAccessToken("not.a.token")
		assert.ErrorIs(t, err, ErrInvalidToken)
	})
}
