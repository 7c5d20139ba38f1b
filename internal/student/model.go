package student

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

var (
	ErrNameRequired    = errors.New("name is required")
	ErrAddressRequired = errors.New("address is required")
)

type Student struct {
	bun.BaseModel `bun:"table:students,alias:s"`

	ID        uuid.UUID `bun:"id,pk,type:uuid" json:"id"`
	Name      string    `bun:"name,notnull" json:"name"`
	IDSv      int       `bun:"id_sv,notnull,unique" json:"idSv"`
	Address   string    `bun:"address,notnull" json:"address"`
	Born      int       `bun:"born,notnull" json:"born"`
	Password  string    `bun:"password,nullzero" json:"-"` // Never expose password in JSON
	CreatedAt time.Time `bun:"created_at,notnull" json:"createdAt"`
	UpdatedAt time.Time `bun:"updated_at,notnull" json:"updatedAt"`

	passwordModified bool `bun:"-"`
}

// Patch carries the fields of a partial update. Nil fields are left untouched.
type Patch struct {
	Name    *string
	IDSv    *int
	Address *string
	Born    *int
}

// Apply copies the non-nil patch fields onto s.
func (p Patch) Apply(s *Student) {
	if p.Name != nil {
		s.Name = *p.Name
	}
	if p.IDSv != nil {
		s.IDSv = *p.IDSv
	}
	if p.Address != nil {
		s.Address = *p.Address
	}
	if p.Born != nil {
		s.Born = *p.Born
	}
}

// SetPassword stores a clear-text password and marks it for hashing on the next save.
func (s *Student) SetPassword(plain string) {
	s.Password = plain
	s.passwordModified = true
}

// PasswordModified reports whether the password changed since the last save.
func (s *Student) PasswordModified() bool {
	return s.passwordModified
}

// Normalize trims surrounding whitespace from text fields.
func (s *Student) Normalize() {
	s.Name = strings.TrimSpace(s.Name)
	s.Address = strings.TrimSpace(s.Address)
}

// Validate enforces the write-time field constraints.
func (s *Student) Validate() error {
	if s.Name == "" {
		return ErrNameRequired
	}
	if s.Address == "" {
		return ErrAddressRequired
	}
	return nil
}

// BeforeSave prepares s for a write. It must be called before every insert
// and update: it normalizes and validates the fields, assigns the id and
// timestamps, and replaces a modified password with its hash. A failure
// aborts the write.
func (s *Student) BeforeSave(hasher PasswordHasher, now time.Time) error {
	s.Normalize()
	if err := s.Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}

	if s.passwordModified {
		hash, err := hasher.Hash(s.Password)
		if err != nil {
			return err
		}
		s.Password = hash
		s.passwordModified = false
	}

	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	if s.CreatedAt.IsZero() {
		s.CreatedAt = now
	}
	s.UpdatedAt = now
	return nil
}

// PasswordMatches compares a clear-text candidate with the stored hash.
// A mismatch is reported as false with a nil error.
func (s *Student) PasswordMatches(hasher PasswordHasher, candidate string) (bool, error) {
	if s.Password == "" {
		return false, ErrPasswordNotSet
	}
	if s.passwordModified {
		// the stored value is still clear text
		return false, ErrMalformedPassword
	}
	return hasher.Compare(s.Password, candidate)
}
