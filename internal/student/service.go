package student

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"student-registry/internal/events"

	"github.com/google/uuid"
)

var (
	ErrStudentNotFound = errors.New("student not found")
	ErrInvalidInput    = errors.New("invalid input")
	ErrIDSvTaken       = errors.New("idSv already taken")
	ErrUnauthorized    = errors.New("authentication required")
	ErrForbidden       = errors.New("cannot change another student's password")
)

type Service interface {
	CreateStudent(ctx context.Context, student *Student) (*Student, error)
	ListStudents(ctx context.Context, filter Filter, opts QueryOptions) (*Page, error)
	GetStudentByID(ctx context.Context, id uuid.UUID) (*Student, error)
	UpdateStudent(ctx context.Context, id uuid.UUID, patch Patch) (*Student, error)
	DeleteStudent(ctx context.Context, id uuid.UUID) error
	// SetPassword stores a new password for id. caller is the authenticated
	// student, or uuid.Nil for an anonymous request. An anonymous caller may
	// only set a first password; otherwise caller must be id.
	SetPassword(ctx context.Context, id, caller uuid.UUID, password string) error
}

type service struct {
	repo      Repository
	publisher events.Publisher
	logger    *slog.Logger
}

func NewService(repo Repository, publisher events.Publisher, logger *slog.Logger) Service {
	if publisher == nil {
		publisher = events.NopPublisher{}
	}
	return &service{
		repo:      repo,
		publisher: publisher,
		logger:    logger,
	}
}

func (s *service) CreateStudent(ctx context.Context, student *Student) (*Student, error) {
	taken, err := s.repo.IsTaken(ctx, FieldIDSv, student.IDSv, uuid.Nil)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, ErrIDSvTaken
	}

	created, err := s.repo.Create(ctx, student)
	if err != nil {
		return nil, err
	}

	s.publish(ctx, events.StudentCreated, created.ID, created.IDSv)
	return created, nil
}

func (s *service) ListStudents(ctx context.Context, filter Filter, opts QueryOptions) (*Page, error) {
	return s.repo.List(ctx, filter, opts)
}

func (s *service) GetStudentByID(ctx context.Context, id uuid.UUID) (*Student, error) {
	if id == uuid.Nil {
		return nil, ErrInvalidInput
	}
	return s.repo.GetByID(ctx, id)
}

func (s *service) UpdateStudent(ctx context.Context, id uuid.UUID, patch Patch) (*Student, error) {
	if id == uuid.Nil {
		return nil, ErrInvalidInput
	}

	student, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if patch.IDSv != nil && *patch.IDSv != student.IDSv {
		taken, err := s.repo.IsTaken(ctx, FieldIDSv, *patch.IDSv, id)
		if err != nil {
			return nil, err
		}
		if taken {
			return nil, ErrIDSvTaken
		}
	}

	patch.Apply(student)
	if err := s.repo.Update(ctx, student); err != nil {
		return nil, err
	}

	s.publish(ctx, events.StudentUpdated, student.ID, student.IDSv)
	return student, nil
}

func (s *service) DeleteStudent(ctx context.Context, id uuid.UUID) error {
	if id == uuid.Nil {
		return ErrInvalidInput
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}

	s.publish(ctx, events.StudentDeleted, id, 0)
	return nil
}

func (s *service) SetPassword(ctx context.Context, id, caller uuid.UUID, password string) error {
	student, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}

	switch {
	case caller == uuid.Nil && student.Password != "":
		return ErrUnauthorized
	case caller != uuid.Nil && caller != id:
		return ErrForbidden
	}

	student.SetPassword(password)
	return s.repo.Update(ctx, student)
}

// publish emits a lifecycle event. The write is already committed, so a
// failure is logged rather than returned.
func (s *service) publish(ctx context.Context, eventType string, id uuid.UUID, idSv int) {
	event := events.Event{
		Type:       eventType,
		StudentID:  id.String(),
		IDSv:       idSv,
		OccurredAt: time.Now().UTC(),
	}
	if err := s.publisher.Publish(ctx, event); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish student event",
			"type", eventType,
			"student_id", event.StudentID,
			"error", err,
		)
	}
}
