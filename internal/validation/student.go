// Package validation declares the accepted shape of student requests.
//
// Each operation has its own request type. Validator methods decode raw
// request data, apply the rules and return either the typed request or an
// *Error listing every rejected field.
package validation

import (
	"encoding/json"
	"errors"
	"io"
	"net/url"
	"reflect"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

// CreateStudentRequest is the body of a create call. All fields are mandatory.
type CreateStudentRequest struct {
	Name    *string `json:"name" validate:"required,min=1"`
	IDSv    *int    `json:"idSv" validate:"required"`
	Address *string `json:"address" validate:"required,min=1"`
	Born    *int    `json:"born" validate:"required"`
}

// ListStudentsQuery holds the optional filter and pagination parameters of a list call.
type ListStudentsQuery struct {
	Name   *string `query:"name" validate:"omitempty,min=1"`
	SortBy *string `query:"sortBy" validate:"omitempty,min=1"`
	Limit  *int    `query:"limit" validate:"omitempty,min=1,max=100"`
	Page   *int    `query:"page" validate:"omitempty,min=1,max=1000000"`
}

// UpdateStudentRequest is the body of an update call. Any subset of fields
// may be present but at least one is required.
type UpdateStudentRequest struct {
	Name    *string `json:"name" validate:"omitempty,min=1"`
	IDSv    *int    `json:"idSv"`
	Address *string `json:"address" validate:"omitempty,min=1"`
	Born    *int    `json:"born"`
}

// Empty reports whether no field was supplied.
func (r UpdateStudentRequest) Empty() bool {
	return r.Name == nil && r.IDSv == nil && r.Address == nil && r.Born == nil
}

// SetPasswordRequest is the body of a password change.
type SetPasswordRequest struct {
	Password *string `json:"password" validate:"required,min=8,max=72"`
}

type studentIDParams struct {
	StudentID string `param:"studentId" validate:"required"`
}

// Validator checks student requests. It is safe for concurrent use.
type Validator struct {
	validate *validator.Validate
}

func New() *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(fieldName)
	return &Validator{validate: v}
}

// fieldName reports fields by their wire name instead of the Go name.
func fieldName(fld reflect.StructField) string {
	for _, tag := range []string{"json", "query", "param"} {
		name, _, _ := strings.Cut(fld.Tag.Get(tag), ",")
		if name == "-" {
			return ""
		}
		if name != "" {
			return name
		}
	}
	return fld.Name
}

// CreateStudent validates a create body.
func (v *Validator) CreateStudent(body io.Reader) (*CreateStudentRequest, error) {
	var req CreateStudentRequest
	if err := decodeBody(body, &req); err != nil {
		return nil, err
	}
	if err := v.validate.Struct(&req); err != nil {
		return nil, fromValidator(err)
	}
	return &req, nil
}

// ListStudents validates list query parameters. Unknown parameters are rejected.
func (v *Validator) ListStudents(values url.Values) (*ListStudentsQuery, error) {
	var q ListStudentsQuery
	var fields []FieldError

	for key, vals := range values {
		if len(vals) == 0 {
			continue
		}
		raw := vals[0]
		switch key {
		case "name":
			q.Name = &raw
		case "sortBy":
			q.SortBy = &raw
		case "limit":
			n, err := strconv.Atoi(raw)
			if err != nil {
				fields = append(fields, FieldError{Field: key, Rule: "type", Message: key + " must be an integer"})
				continue
			}
			q.Limit = &n
		case "page":
			n, err := strconv.Atoi(raw)
			if err != nil {
				fields = append(fields, FieldError{Field: key, Rule: "type", Message: key + " must be an integer"})
				continue
			}
			q.Page = &n
		default:
			fields = append(fields, FieldError{Field: key, Rule: "unknown", Message: key + " is not allowed"})
		}
	}
	if len(fields) > 0 {
		return nil, newError(fields...)
	}

	if err := v.validate.Struct(&q); err != nil {
		return nil, fromValidator(err)
	}
	return &q, nil
}

// GetStudent validates the identifier of a get-one call.
func (v *Validator) GetStudent(studentID string) (uuid.UUID, error) {
	return v.studentID(studentID)
}

// DeleteStudent validates the identifier of a delete call.
func (v *Validator) DeleteStudent(studentID string) (uuid.UUID, error) {
	return v.studentID(studentID)
}

// UpdateStudent validates the identifier and body of an update call.
func (v *Validator) UpdateStudent(studentID string, body io.Reader) (uuid.UUID, *UpdateStudentRequest, error) {
	id, err := v.studentID(studentID)
	if err != nil {
		return uuid.Nil, nil, err
	}

	var req UpdateStudentRequest
	if err := decodeBody(body, &req); err != nil {
		return uuid.Nil, nil, err
	}
	if req.Empty() {
		return uuid.Nil, nil, newError(FieldError{Field: "body", Rule: "min", Message: "at least one field required"})
	}
	if err := v.validate.Struct(&req); err != nil {
		return uuid.Nil, nil, fromValidator(err)
	}
	return id, &req, nil
}

// SetPassword validates the identifier and body of a password change.
func (v *Validator) SetPassword(studentID string, body io.Reader) (uuid.UUID, *SetPasswordRequest, error) {
	id, err := v.studentID(studentID)
	if err != nil {
		return uuid.Nil, nil, err
	}

	var req SetPasswordRequest
	if err := decodeBody(body, &req); err != nil {
		return uuid.Nil, nil, err
	}
	if err := v.validate.Struct(&req); err != nil {
		return uuid.Nil, nil, fromValidator(err)
	}
	return id, &req, nil
}

// Struct validates any tagged struct, e.g. auth request bodies.
func (v *Validator) Struct(s any) error {
	if err := v.validate.Struct(s); err != nil {
		return fromValidator(err)
	}
	return nil
}

// Decode reads a strict JSON body into dst and validates it.
func (v *Validator) Decode(body io.Reader, dst any) error {
	if err := decodeBody(body, dst); err != nil {
		return err
	}
	return v.Struct(dst)
}

func (v *Validator) studentID(raw string) (uuid.UUID, error) {
	params := studentIDParams{StudentID: raw}
	if err := v.validate.Struct(&params); err != nil {
		return uuid.Nil, fromValidator(err)
	}
	// uuid.Parse also takes the braced, urn and bare-hex forms; only the
	// canonical form is an identifier here. Hex digits may be either case.
	if len(raw) != 36 {
		return uuid.Nil, invalidStudentID()
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, invalidStudentID()
	}
	return id, nil
}

func invalidStudentID() *Error {
	return newError(FieldError{Field: "studentId", Rule: "uuid", Message: "studentId must be a valid id"})
}

// decodeBody decodes a JSON object, rejecting unknown keys. An empty body is
// treated as an empty object so that missing fields are reported individually.
func decodeBody(body io.Reader, dst any) error {
	if body == nil {
		return nil
	}
	dec := json.NewDecoder(body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return fromDecode(err)
	}
	return nil
}
