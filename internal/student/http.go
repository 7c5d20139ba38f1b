package student

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"student-registry/internal/httputil"
	"student-registry/internal/metrics"
	"student-registry/internal/validation"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

// Authenticator identifies the student behind a request. ok is false when
// the request carries no credentials.
type Authenticator interface {
	Authenticate(r *http.Request) (id uuid.UUID, ok bool, err error)
}

type Handler struct {
	service  Service
	validate *validation.Validator
	auth     Authenticator
	logger   *slog.Logger
	metrics  *metrics.Metrics
}

func NewHandler(service Service, validate *validation.Validator, auth Authenticator, logger *slog.Logger, metrics *metrics.Metrics) *Handler {
	return &Handler{
		service:  service,
		validate: validate,
		auth:     auth,
		logger:   logger,
		metrics:  metrics,
	}
}

func (h *Handler) RegisterRoutes(router chi.Router) {
	router.Route("/students", func(r chi.Router) {
		r.Post("/", h.CreateStudent)
		r.Get("/", h.ListStudents)
		r.Get("/{studentId}", h.GetStudent)
		r.Patch("/{studentId}", h.UpdateStudent)
		r.Delete("/{studentId}", h.DeleteStudent)
		r.Put("/{studentId}/password", h.SetPassword)
	})
}

func (h *Handler) CreateStudent(w http.ResponseWriter, r *http.Request) {
	req, err := h.validate.CreateStudent(r.Body)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	student := &Student{
		Name:    *req.Name,
		IDSv:    *req.IDSv,
		Address: *req.Address,
		Born:    *req.Born,
	}

	h.logger.InfoContext(r.Context(), "creating student", "id_sv", student.IDSv)
	created, err := h.service.CreateStudent(r.Context(), student)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	h.metrics.RecordStudentCreated(r.Context())
	httputil.RespondWithJSON(w, http.StatusCreated, created)
}

func (h *Handler) ListStudents(w http.ResponseWriter, r *http.Request) {
	query, err := h.validate.ListStudents(r.URL.Query())
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	var opts QueryOptions
	if query.SortBy != nil {
		opts.SortBy = *query.SortBy
	}
	if query.Limit != nil {
		opts.Limit = *query.Limit
	}
	if query.Page != nil {
		opts.Page = *query.Page
	}

	h.logger.InfoContext(r.Context(), "listing students")
	page, err := h.service.ListStudents(r.Context(), Filter{Name: query.Name}, opts)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	h.metrics.RecordStudentsListViewed(r.Context())
	httputil.RespondWithJSON(w, http.StatusOK, page)
}

func (h *Handler) GetStudent(w http.ResponseWriter, r *http.Request) {
	id, err := h.validate.GetStudent(chi.URLParam(r, "studentId"))
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	h.logger.InfoContext(r.Context(), "fetching student by ID", "student_id", id)
	student, err := h.service.GetStudentByID(r.Context(), id)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	h.metrics.RecordStudentViewed(r.Context())
	httputil.RespondWithJSON(w, http.StatusOK, student)
}

func (h *Handler) UpdateStudent(w http.ResponseWriter, r *http.Request) {
	id, req, err := h.validate.UpdateStudent(chi.URLParam(r, "studentId"), r.Body)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	patch := Patch{
		Name:    req.Name,
		IDSv:    req.IDSv,
		Address: req.Address,
		Born:    req.Born,
	}

	h.logger.InfoContext(r.Context(), "updating student", "student_id", id)
	student, err := h.service.UpdateStudent(r.Context(), id, patch)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	h.metrics.RecordStudentUpdated(r.Context())
	httputil.RespondWithJSON(w, http.StatusOK, student)
}

func (h *Handler) DeleteStudent(w http.ResponseWriter, r *http.Request) {
	id, err := h.validate.DeleteStudent(chi.URLParam(r, "studentId"))
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	h.logger.InfoContext(r.Context(), "deleting student", "student_id", id)
	if err := h.service.DeleteStudent(r.Context(), id); err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	h.metrics.RecordStudentDeleted(r.Context())
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) SetPassword(w http.ResponseWriter, r *http.Request) {
	id, req, err := h.validate.SetPassword(chi.URLParam(r, "studentId"), r.Body)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	caller, err := h.caller(r)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	h.logger.InfoContext(r.Context(), "setting student password", "student_id", id, "caller_id", caller)
	if err := h.service.SetPassword(r.Context(), id, caller, *req.Password); err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// caller returns the authenticated student, or uuid.Nil for an anonymous request.
func (h *Handler) caller(r *http.Request) (uuid.UUID, error) {
	if h.auth == nil {
		return uuid.Nil, nil
	}
	id, ok, err := h.auth.Authenticate(r)
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: %w", ErrUnauthorized, err)
	}
	if !ok {
		return uuid.Nil, nil
	}
	return id, nil
}

func (h *Handler) handleServiceError(w http.ResponseWriter, r *http.Request, err error) {
	ctx := r.Context()

	var validationErr *validation.Error
	switch {
	case errors.As(err, &validationErr):
		h.logger.InfoContext(ctx, "validation failed", "error", err)
		httputil.RespondWithDetails(w, http.StatusBadRequest, "validation failed", validationErr.Fields)
	case errors.Is(err, ErrStudentNotFound):
		h.logger.InfoContext(ctx, "student not found")
		httputil.RespondWithError(w, http.StatusNotFound, "Student not found")
	case errors.Is(err, ErrIDSvTaken):
		h.logger.InfoContext(ctx, "idSv already taken")
		httputil.RespondWithError(w, http.StatusConflict, "idSv already taken")
	case errors.Is(err, ErrUnauthorized):
		h.logger.WarnContext(ctx, "unauthenticated request", "error", err)
		httputil.RespondWithError(w, http.StatusUnauthorized, "unauthorized")
	case errors.Is(err, ErrForbidden):
		h.logger.WarnContext(ctx, "forbidden request", "error", err)
		httputil.RespondWithError(w, http.StatusForbidden, "forbidden")
	case errors.Is(err, ErrInvalidInput):
		h.logger.InfoContext(ctx, "invalid input", "error", err)
		httputil.RespondWithError(w, http.StatusBadRequest, err.Error())
	default:
		h.logger.ErrorContext(ctx, "internal error", "error", err)
		httputil.RespondWithError(w, http.StatusInternalServerError, "Internal server error")
	}
}
