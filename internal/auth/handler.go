package auth

import (
	"errors"
	"log/slog"
	"net/http"

	"student-registry/internal/httputil"
	"student-registry/internal/metrics"
	"student-registry/internal/student"
	"student-registry/internal/validation"

	"github.com/go-chi/chi/v5"
)

type Handler struct {
	service      *Service
	tokens       *TokenIssuer
	validate     *validation.Validator
	logger       *slog.Logger
	metrics      *metrics.Metrics
	secureCookie bool
}

func NewHandler(service *Service, tokens *TokenIssuer, validate *validation.Validator, logger *slog.Logger, m *metrics.Metrics, secureCookie bool) *Handler {
	return &Handler{
		service:      service,
		tokens:       tokens,
		validate:     validate,
		logger:       logger,
		metrics:      m,
		secureCookie: secureCookie,
	}
}

func (h *Handler) RegisterRoutes(router chi.Router) {
	router.Route("/auth", func(r chi.Router) {
		r.Post("/login", h.Login)
		r.Post("/logout", h.Logout)
		r.With(Middleware(h.tokens, h.logger)).Get("/me", h.Me)
	})
}

// Login authenticates a student
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := h.validate.Decode(r.Body, &req); err != nil {
		var validationErr *validation.Error
		if errors.As(err, &validationErr) {
			httputil.RespondWithDetails(w, http.StatusBadRequest, "validation failed", validationErr.Fields)
			return
		}
		httputil.RespondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	resp, err := h.service.Login(r.Context(), *req.IDSv, *req.Password)
	if err != nil {
		h.metrics.RecordLogin(r.Context(), false)
		if errors.Is(err, ErrInvalidCredentials) {
			h.logger.InfoContext(r.Context(), "login rejected", "id_sv", *req.IDSv)
			httputil.RespondWithError(w, http.StatusUnauthorized, err.Error())
			return
		}
		h.logger.ErrorContext(r.Context(), "login failed", "error", err)
		httputil.RespondWithError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	h.metrics.RecordLogin(r.Context(), true)
	h.logger.InfoContext(r.Context(), "student logged in", "student_id", resp.Student.ID)

	SetAuthCookie(w, resp.AccessToken, CookieOptions{
		Secure: h.secureCookie,
		MaxAge: int(h.tokens.TTL().Seconds()),
	})
	httputil.RespondWithJSON(w, http.StatusOK, resp)
}

func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	ClearAuthCookie(w, h.secureCookie)
	h.logger.InfoContext(r.Context(), "student logged out")
	w.WriteHeader(http.StatusNoContent)
}

// Me returns the authenticated student
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	studentID, ok := GetStudentID(r.Context())
	if !ok {
		httputil.RespondWithError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	stud, err := h.service.Me(r.Context(), studentID)
	if err != nil {
		if errors.Is(err, student.ErrStudentNotFound) {
			httputil.RespondWithError(w, http.StatusUnauthorized, "unauthorized")
			return
		}
		h.logger.ErrorContext(r.Context(), "failed to load current student", "error", err)
		httputil.RespondWithError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	httputil.RespondWithJSON(w, http.StatusOK, stud)
}
