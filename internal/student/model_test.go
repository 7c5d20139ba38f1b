package student_test

import (
	"errors"
	"strings"
	"testing"
	"time"

	"student-registry/internal/student"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type failingHasher struct{}

func (failingHasher) Hash(string) (string, error)            { return "", errors.New("hash failed") }
func (failingHasher) Compare(string, string) (bool, error) { return false, nil }

func TestStudentBeforeSave(t *testing.T) {
	hasher := student.NewBcryptHasher()
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	t.Run("AssignsIdentityAndTimestamps", func(t *testing.T) {
		s := &student.Student{Name: "Ana", IDSv: 1234, Address: "Main St 1", Born: 2000}

		require.NoError(t, s.BeforeSave(hasher, now))

		assert.NotEqual(t, uuid.Nil, s.ID)
		assert.Equal(t, now, s.CreatedAt)
		assert.Equal(t, now, s.UpdatedAt)
	})

	t.Run("KeepsCreatedAtOnLaterSaves", func(t *testing.T) {
		s := &student.Student{Name: "Ana", IDSv: 1234, Address: "Main St 1", Born: 2000}
		require.NoError(t, s.BeforeSave(hasher, now))
		id := s.ID

		later := now.Add(time.Hour)
		require.NoError(t, s.BeforeSave(hasher, later))

		assert.Equal(t, id, s.ID)
		assert.Equal(t, now, s.CreatedAt)
		assert.Equal(t, later, s.UpdatedAt)
	})

	t.Run("HashesModifiedPassword", func(t *testing.T) {
		s := &student.Student{Name: "Ana", IDSv: 1234, Address: "Main St 1", Born: 2000}
		s.SetPassword("correct horse")
		require.True(t, s.PasswordModified())

		require.NoError(t, s.BeforeSave(hasher, now))

		assert.False(t, s.PasswordModified())
		assert.NotEqual(t, "correct horse", s.Password)
		assert.True(t, strings.HasPrefix(s.Password, "$2a$08$"))
	})

	t.Run("DoesNotRehashUnchangedPassword", func(t *testing.T) {
		s := &student.Student{Name: "Ana", IDSv: 1234, Address: "Main St 1", Born: 2000}
		s.SetPassword("correct horse")
		require.NoError(t, s.BeforeSave(hasher, now))
		hash := s.Password

		s.Address = "Second St 2"
		require.NoError(t, s.BeforeSave(hasher, now.Add(time.Minute)))

		assert.Equal(t, hash, s.Password)
	})

	t.Run("TrimsTextFields", func(t *testing.T) {
		s := &student.Student{Name: "  Ana ", IDSv: 1, Address: "\tMain St 1\n", Born: 2000}

		require.NoError(t, s.BeforeSave(hasher, now))

		assert.Equal(t, "Ana", s.Name)
		assert.Equal(t, "Main St 1", s.Address)
	})

	t.Run("RejectsBlankName", func(t *testing.T) {
		s := &student.Student{Name: "   ", IDSv: 1, Address: "Main St 1", Born: 2000}

		err := s.BeforeSave(hasher, now)

		assert.ErrorIs(t, err, student.ErrInvalidInput)
		assert.ErrorIs(t, err, student.ErrNameRequired)
		assert.EqualError(t, err, "invalid input: name is required")
		assert.Equal(t, uuid.Nil, s.ID)
	})

	t.Run("RejectsBlankAddress", func(t *testing.T) {
		s := &student.Student{Name: "Ana", IDSv: 1, Address: " ", Born: 2000}

		err := s.BeforeSave(hasher, now)

		assert.ErrorIs(t, err, student.ErrAddressRequired)
	})

	t.Run("HashFailureAbortsSave", func(t *testing.T) {
		s := &student.Student{Name: "Ana", IDSv: 1, Address: "Main St 1", Born: 2000}
		s.SetPassword("correct horse")

		err := s.BeforeSave(failingHasher{}, now)

		assert.ErrorContains(t, err, "hash failed")
		assert.True(t, s.PasswordModified())
		assert.Equal(t, uuid.Nil, s.ID)
	})
}

func TestStudentPasswordMatches(t *testing.T) {
	hasher := student.NewBcryptHasher()
	now := time.Now().UTC()

	saved := &student.Student{Name: "Ana", IDSv: 1234, Address: "Main St 1", Born: 2000}
	saved.SetPassword("correct horse")
	require.NoError(t, saved.BeforeSave(hasher, now))

	t.Run("Match", func(t *testing.T) {
		ok, err := saved.PasswordMatches(hasher, "correct horse")
		require.NoError(t, err)
		assert.True(t, ok)
	})

	t.Run("Mismatch", func(t *testing.T) {
		ok, err := saved.PasswordMatches(hasher, "wrong horse")
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("PasswordNotSet", func(t *testing.T) {
		s := &student.Student{Name: "Ana"}
		_, err := s.PasswordMatches(hasher, "anything")
		assert.ErrorIs(t, err, student.ErrPasswordNotSet)
	})

	t.Run("UnsavedClearText", func(t *testing.T) {
		s := &student.Student{Name: "Ana"}
		s.SetPassword("correct horse")
		_, err := s.PasswordMatches(hasher, "correct horse")
		assert.ErrorIs(t, err, student.ErrMalformedPassword)
	})

	t.Run("MalformedStoredHash", func(t *testing.T) {
		s := &student.Student{Name: "Ana", Password: "not-a-bcrypt-hash"}
		_, err := s.PasswordMatches(hasher, "not-a-bcrypt-hash")
		assert.ErrorIs(t, err, student.ErrMalformedPassword)
	})
}

func TestPatchApply(t *testing.T) {
	s := &student.Student{Name: "Ana", IDSv: 1, Address: "Main St 1", Born: 2000}
	born := 1999

	student.Patch{Born: &born}.Apply(s)

	assert.Equal(t, "Ana", s.Name)
	assert.Equal(t, 1, s.IDSv)
	assert.Equal(t, "Main St 1", s.Address)
	assert.Equal(t, 1999, s.Born)
}
