package sqldb

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"

	"github.com/aanand-mishra/student-records/internal/storage"
	"github.com/aanand-mishra/student-records/internal/types"
)

// Statements are written with ? placeholders and rebound per driver.
// Values are always bound parameters, never part of the statement text.
const (
	selectStudents = "SELECT id, name, email, phone, course FROM students"
	selectByID     = selectStudents + " WHERE id = ?"
	listStudents   = selectStudents + " ORDER BY id DESC"
	insertStudent  = "INSERT INTO students (name, email, phone, course) VALUES (?, ?, ?, ?)"
	updateStudent  = "UPDATE students SET name = ?, email = ?, phone = ?, course = ? WHERE id = ?"
	deleteStudent  = "DELETE FROM students WHERE id = ?"
)

// Repository is the relational implementation of storage.Storage.
// It holds no connection between calls; each operation acquires its own.
type Repository struct {
	provider *Provider
	dialect  Dialect
	validate *validator.Validate
	timeout  time.Duration
	log      *slog.Logger
}

var _ storage.Storage = (*Repository)(nil)

// NewRepository returns a repository that acquires connections from p.
// timeout bounds each operation whose context has no deadline; zero means
// no bound. A nil logger falls back to slog.Default().
func NewRepository(p *Provider, timeout time.Duration, log *slog.Logger) *Repository {
	if log == nil {
		log = slog.Default()
	}

	validate := validator.New()
	validate.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "" || name == "-" {
			return f.Name
		}
		return name
	})

	return &Repository{
		provider: p,
		dialect:  p.Dialect(),
		validate: validate,
		timeout:  timeout,
		log:      log,
	}
}

// Close releases the underlying provider.
func (r *Repository) Close() error {
	return r.provider.Close()
}

// ListStudents returns all students, newest first.
func (r *Repository) ListStudents(ctx context.Context) ([]types.Student, error) {
	students := make([]types.Student, 0)

	err := r.withConn(ctx, "ListStudents", storage.KindQuery, func(ctx context.Context, conn *sqlx.Conn) error {
		rows, err := conn.QueryxContext(ctx, listStudents)
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			var s types.Student
			if err := rows.StructScan(&s); err != nil {
				return err
			}
			students = append(students, s)
		}
		return rows.Err()
	})
	if err != nil {
		return make([]types.Student, 0), err
	}

	return students, nil
}

// GetStudentByID fetches one student or storage.ErrNotFound.
func (r *Repository) GetStudentByID(ctx context.Context, id int64) (types.Student, error) {
	var s types.Student

	err := r.withConn(ctx, "GetStudentByID", storage.KindQuery, func(ctx context.Context, conn *sqlx.Conn) error {
		return conn.GetContext(ctx, &s, conn.Rebind(selectByID), id)
	})
	if err != nil {
		return types.Student{}, err
	}

	return s, nil
}

// CreateStudent validates in, inserts it and returns the stored student.
//
// Validation runs before a connection is acquired. A duplicate email is
// reported as storage.ErrDuplicateEmail, recognised from the driver's
// constraint-violation code.
func (r *Repository) CreateStudent(ctx context.Context, in types.StudentInput) (types.Student, error) {
	const op = "CreateStudent"

	if err := r.validateInput(op, in); err != nil {
		return types.Student{}, err
	}

	var id int64
	err := r.withTx(ctx, op, func(ctx context.Context, tx *sqlx.Tx) error {
		var err error
		id, err = r.insert(ctx, tx, in)
		return err
	})
	if err != nil {
		return types.Student{}, err
	}

	return in.Student(id), nil
}

func (r *Repository) insert(ctx context.Context, tx *sqlx.Tx, in types.StudentInput) (int64, error) {
	args := []any{in.Name, in.Email, types.Nullable(in.Phone), types.Nullable(in.Course)}

	if r.dialect.SupportsReturning() {
		var id int64
		err := tx.QueryRowxContext(ctx, tx.Rebind(insertStudent+" RETURNING id"), args...).Scan(&id)
		return id, err
	}

	result, err := tx.ExecContext(ctx, tx.Rebind(insertStudent), args...)
	if err != nil {
		return 0, err
	}
	return result.LastInsertId()
}

// UpdateStudentByID validates in and overwrites the row with the given id.
// Returns storage.ErrNotFound if no row matched; the id itself never changes.
func (r *Repository) UpdateStudentByID(ctx context.Context, id int64, in types.StudentInput) (types.Student, error) {
	const op = "UpdateStudentByID"

	if err := r.validateInput(op, in); err != nil {
		return types.Student{}, err
	}

	var updated types.Student
	err := r.withTx(ctx, op, func(ctx context.Context, tx *sqlx.Tx) error {
		result, err := tx.ExecContext(ctx, tx.Rebind(updateStudent),
			in.Name, in.Email, types.Nullable(in.Phone), types.Nullable(in.Course), id)
		if err != nil {
			return err
		}

		// Matched rows, not changed rows: the MySQL DSN sets clientFoundRows.
		matched, err := result.RowsAffected()
		if err != nil {
			return err
		}
		if matched == 0 {
			return &storage.Error{Kind: storage.KindNotFound, Op: op}
		}

		return tx.GetContext(ctx, &updated, tx.Rebind(selectByID), id)
	})
	if err != nil {
		return types.Student{}, err
	}

	return updated, nil
}

// DeleteStudentByID removes the row with the given id. A missing row is
// not an error.
func (r *Repository) DeleteStudentByID(ctx context.Context, id int64) error {
	return r.withTx(ctx, "DeleteStudentByID", func(ctx context.Context, tx *sqlx.Tx) error {
		_, err := tx.ExecContext(ctx, tx.Rebind(deleteStudent), id)
		return err
	})
}

// Ping acquires and releases a connection.
func (r *Repository) Ping(ctx context.Context) error {
	return r.withConn(ctx, "Ping", storage.KindConnection, func(ctx context.Context, conn *sqlx.Conn) error {
		return nil
	})
}

// withConn runs fn on a freshly acquired connection and always releases it.
// Any error fn returns is translated to a *storage.Error, using fallback
// when nothing more specific applies.
func (r *Repository) withConn(ctx context.Context, op string, fallback storage.Kind, fn func(context.Context, *sqlx.Conn) error) error {
	ctx, cancel := r.bound(ctx)
	defer cancel()

	conn, err := r.provider.Acquire(ctx)
	if err != nil {
		return r.translate(ctx, op, fallback, err)
	}
	defer r.release(op, conn)

	if err := fn(ctx, conn); err != nil {
		return r.translate(ctx, op, fallback, err)
	}
	return nil
}

// withTx runs fn inside a transaction and commits only if fn succeeded.
// On any failure the transaction is rolled back.
func (r *Repository) withTx(ctx context.Context, op string, fn func(context.Context, *sqlx.Tx) error) error {
	return r.withConn(ctx, op, storage.KindWrite, func(ctx context.Context, conn *sqlx.Conn) error {
		tx, err := conn.BeginTxx(ctx, nil)
		if err != nil {
			return err
		}
		defer func() {
			if err := tx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
				r.log.Warn("rollback failed", slog.String("op", op), slog.String("error", err.Error()))
			}
		}()

		if err := fn(ctx, tx); err != nil {
			return err
		}
		return tx.Commit()
	})
}

// release closes conn. A close failure is logged and never replaces the
// operation's own result.
func (r *Repository) release(op string, conn *sqlx.Conn) {
	if err := conn.Close(); err != nil && !errors.Is(err, sql.ErrConnDone) {
		r.log.Warn("release connection failed", slog.String("op", op), slog.String("error", err.Error()))
	}
}

func (r *Repository) bound(ctx context.Context) (context.Context, context.CancelFunc) {
	if _, ok := ctx.Deadline(); ok || r.timeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, r.timeout)
}

// translate maps err to a *storage.Error labelled with op.
func (r *Repository) translate(ctx context.Context, op string, fallback storage.Kind, err error) error {
	var se *storage.Error
	if errors.As(err, &se) {
		if se.Op == op {
			return se
		}
		return &storage.Error{Kind: se.Kind, Op: op, Fields: se.Fields, Err: se.Err}
	}

	switch {
	case errors.Is(err, context.DeadlineExceeded), errors.Is(ctx.Err(), context.DeadlineExceeded):
		return &storage.Error{Kind: storage.KindTimeout, Op: op, Err: err}
	case r.dialect.IsUniqueViolation(err):
		return &storage.Error{Kind: storage.KindDuplicateEmail, Op: op, Fields: []string{"email"}, Err: err}
	case errors.Is(err, sql.ErrNoRows):
		return &storage.Error{Kind: storage.KindNotFound, Op: op}
	default:
		return &storage.Error{Kind: fallback, Op: op, Err: err}
	}
}

func (r *Repository) validateInput(op string, in types.StudentInput) error {
	err := r.validate.Struct(in)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return &storage.Error{Kind: storage.KindValidation, Op: op, Err: err}
	}

	fields := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		fields = append(fields, fe.Field())
	}
	return &storage.Error{Kind: storage.KindValidation, Op: op, Fields: fields, Err: err}
}
