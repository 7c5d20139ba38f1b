package auth

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"student-registry/internal/httputil"

	"github.com/google/uuid"
)

type contextKey string

// StudentIDKey is the context key for student ID
const StudentIDKey contextKey = "student_id"

const cookieName = "token"

// Middleware validates the JWT from the token cookie (or a Bearer header) and
// adds the student ID to the request context.
func Middleware(tokens *TokenIssuer, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id, ok, err := tokens.Authenticate(r)
			if err != nil {
				logger.WarnContext(r.Context(), "invalid token", "error", err)
				httputil.RespondWithError(w, http.StatusUnauthorized, "unauthorized")
				return
			}
			if !ok {
				logger.WarnContext(r.Context(), "no auth token found", "path", r.URL.Path)
				httputil.RespondWithError(w, http.StatusUnauthorized, "unauthorized")
				return
			}

			ctx := context.WithValue(r.Context(), StudentIDKey, id)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// Authenticate returns the student the request's token was issued for.
// ok is false when the request carries no token.
func (t *TokenIssuer) Authenticate(r *http.Request) (uuid.UUID, bool, error) {
	raw := tokenFromRequest(r)
	if raw == "" {
		return uuid.Nil, false, nil
	}

	claims, err := t.ValidateAccessToken(raw)
	if err != nil {
		return uuid.Nil, false, err
	}
	id, err := uuid.Parse(claims.StudentID)
	if err != nil {
		return uuid.Nil, false, ErrInvalidToken
	}
	return id, true, nil
}

func tokenFromRequest(r *http.Request) string {
	if cookie, err := r.Cookie(cookieName); err == nil && cookie.Value != "" {
		return cookie.Value
	}
	if token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer "); ok {
		return strings.TrimSpace(token)
	}
	return ""
}

// GetStudentID extracts student ID from context
func GetStudentID(ctx context.Context) (uuid.UUID, bool) {
	studentID, ok := ctx.Value(StudentIDKey).(uuid.UUID)
	return studentID, ok
}

// CookieOptions controls the attributes of the auth cookie.
type CookieOptions struct {
	Secure bool
	MaxAge int
}

// SetAuthCookie sets JWT token in an HttpOnly cookie
func SetAuthCookie(w http.ResponseWriter, token string, opts CookieOptions) {
	sameSite := http.SameSiteStrictMode
	if !opts.Secure {
		sameSite = http.SameSiteLaxMode // Allow testing from Postman
	}

	http.SetCookie(w, &http.Cookie{
		Name:     cookieName,
		Value:    token,
		HttpOnly: true,
		Secure:   opts.Secure,
		SameSite: sameSite,
		Path:     "/",
		MaxAge:   opts.MaxAge,
	})
}

// ClearAuthCookie removes the auth cookie
func ClearAuthCookie(w http.ResponseWriter, secure bool) {
	http.SetCookie(w, &http.Cookie{
		Name:     cookieName,
		Value:    "",
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteStrictMode,
		Path:     "/",
		MaxAge:   -1, // Delete cookie
	})
}
