package student

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"student-registry/internal/metrics"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/driver/pgdriver"
)

const table = "students"

// UniqueField names a field that IsTaken can check.
type UniqueField string

const FieldIDSv UniqueField = "idSv"

var uniqueColumns = map[UniqueField]string{
	FieldIDSv: "id_sv",
}

type Repository interface {
	Create(ctx context.Context, student *Student) (*Student, error)
	List(ctx context.Context, filter Filter, opts QueryOptions) (*Page, error)
	GetByID(ctx context.Context, id uuid.UUID) (*Student, error)
	GetByIDSv(ctx context.Context, idSv int) (*Student, error)
	Update(ctx context.Context, student *Student) error
	Delete(ctx context.Context, id uuid.UUID) error
	// IsTaken reports whether a record other than excludeID already holds
	// value in field. Pass uuid.Nil to exclude nothing.
	IsTaken(ctx context.Context, field UniqueField, value any, excludeID uuid.UUID) (bool, error)
}

type repository struct {
	db      *bun.DB
	metrics *metrics.Metrics
	hasher  PasswordHasher
	now     func() time.Time
}

func NewRepository(db *bun.DB, m *metrics.Metrics, hasher PasswordHasher) Repository {
	return &repository{
		db:      db,
		metrics: m,
		hasher:  hasher,
		now: func() time.Time {
			return time.Now().UTC().Truncate(time.Microsecond)
		},
	}
}

func (r *repository) record(ctx context.Context, operation string, start time.Time, err error) {
	if r.metrics != nil {
		r.metrics.Database.RecordQuery(ctx, operation, table, time.Since(start), err)
	}
}

func (r *repository) Create(ctx context.Context, student *Student) (*Student, error) {
	if err := student.BeforeSave(r.hasher, r.now()); err != nil {
		return nil, err
	}

	start := time.Now()
	_, err := r.db.NewInsert().Model(student).Returning("*").Exec(ctx)
	r.record(ctx, "insert", start, err)

	if err != nil {
		return nil, mapWriteError(err)
	}
	return student, nil
}

func (r *repository) List(ctx context.Context, filter Filter, opts QueryOptions) (*Page, error) {
	order, err := opts.orderBy()
	if err != nil {
		return nil, err
	}

	start := time.Now()
	students := make([]Student, 0)
	q := r.db.NewSelect().Model(&students)
	if filter.Name != nil {
		q = q.Where("name = ?", *filter.Name)
	}
	for _, o := range order {
		q = q.OrderExpr(o)
	}
	total, err := q.Limit(opts.limit()).Offset(opts.offset()).ScanAndCount(ctx)
	r.record(ctx, "select", start, err)

	if err != nil {
		return nil, fmt.Errorf("failed to list students: %w", err)
	}

	return &Page{
		Results:      students,
		Page:         opts.page(),
		Limit:        opts.limit(),
		TotalPages:   totalPages(total, opts.limit()),
		TotalResults: total,
	}, nil
}

func (r *repository) GetByID(ctx context.Context, id uuid.UUID) (*Student, error) {
	start := time.Now()
	student := new(Student)
	err := r.db.NewSelect().Model(student).Where("id = ?", id).Scan(ctx)
	r.record(ctx, "select", start, err)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrStudentNotFound
		}
		return nil, err
	}
	return student, nil
}

func (r *repository) GetByIDSv(ctx context.Context, idSv int) (*Student, error) {
	start := time.Now()
	student := new(Student)
	err := r.db.NewSelect().Model(student).Where("id_sv = ?", idSv).Scan(ctx)
	r.record(ctx, "select", start, err)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrStudentNotFound
		}
		return nil, err
	}
	return student, nil
}

func (r *repository) Update(ctx context.Context, student *Student) error {
	if err := student.BeforeSave(r.hasher, r.now()); err != nil {
		return err
	}

	start := time.Now()
	result, err := r.db.NewUpdate().Model(student).WherePK().Exec(ctx)
	r.record(ctx, "update", start, err)

	if err != nil {
		return mapWriteError(err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rowsAffected == 0 {
		return ErrStudentNotFound
	}
	return nil
}

func (r *repository) Delete(ctx context.Context, id uuid.UUID) error {
	start := time.Now()
	result, err := r.db.NewDelete().Model((*Student)(nil)).Where("id = ?", id).Exec(ctx)
	r.record(ctx, "delete", start, err)

	if err != nil {
		return err
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rowsAffected == 0 {
		return ErrStudentNotFound
	}
	return nil
}

func (r *repository) IsTaken(ctx context.Context, field UniqueField, value any, excludeID uuid.UUID) (bool, error) {
	column, ok := uniqueColumns[field]
	if !ok {
		return false, fmt.Errorf("%w: %q is not a unique field", ErrInvalidInput, field)
	}

	start := time.Now()
	q := r.db.NewSelect().Model((*Student)(nil)).Where("? = ?", bun.Ident(column), value)
	if excludeID != uuid.Nil {
		q = q.Where("id <> ?", excludeID)
	}
	exists, err := q.Exists(ctx)
	r.record(ctx, "select", start, err)

	if err != nil {
		return false, fmt.Errorf("failed to check %s uniqueness: %w", field, err)
	}
	return exists, nil
}

// mapWriteError translates a unique index violation into ErrIDSvTaken.
func mapWriteError(err error) error {
	var pgErr pgdriver.Error
	if errors.As(err, &pgErr) && pgErr.Field('C') == "23505" {
		return ErrIDSvTaken
	}
	return err
}
