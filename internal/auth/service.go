package auth

import (
	"context"
	"errors"
	"time"

	"student-registry/internal/student"

	"github.com/google/uuid"
)

var ErrInvalidCredentials = errors.New("invalid idSv or password")

// StudentFinder is the part of the student repository that login needs.
type StudentFinder interface {
	GetByID(ctx context.Context, id uuid.UUID) (*student.Student, error)
	GetByIDSv(ctx context.Context, idSv int) (*student.Student, error)
}

// LoginRequest is the request body for login
type LoginRequest struct {
	IDSv     *int    `json:"idSv" validate:"required"`
	Password *string `json:"password" validate:"required,min=1"`
}

// AuthResponse is the response for successful authentication
type AuthResponse struct {
	AccessToken string           `json:"accessToken"`
	ExpiresAt   time.Time        `json:"expiresAt"`
	Student     *student.Student `json:"student"`
}

type Service struct {
	students StudentFinder
	hasher   student.PasswordHasher
	tokens   *TokenIssuer
}

func NewService(students StudentFinder, hasher student.PasswordHasher, tokens *TokenIssuer) *Service {
	return &Service{
		students: students,
		hasher:   hasher,
		tokens:   tokens,
	}
}

// Login authenticates a student by idSv and password
func (s *Service) Login(ctx context.Context, idSv int, password string) (*AuthResponse, error) {
	stud, err := s.students.GetByIDSv(ctx, idSv)
	if err != nil {
		if errors.Is(err, student.ErrStudentNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	ok, err := stud.PasswordMatches(s.hasher, password)
	if err != nil {
		if errors.Is(err, student.ErrPasswordNotSet) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if !ok {
		return nil, ErrInvalidCredentials
	}

	token, expiresAt, err := s.tokens.GenerateAccessToken(stud.ID, stud.IDSv)
	if err != nil {
		return nil, err
	}

	return &AuthResponse{
		AccessToken: token,
		ExpiresAt:   expiresAt,
		Student:     stud,
	}, nil
}

// Me returns the student the token was issued for
func (s *Service) Me(ctx context.Context, studentID uuid.UUID) (*student.Student, error) {
	return s.students.GetByID(ctx, studentID)
}
