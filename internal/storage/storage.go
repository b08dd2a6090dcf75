// Package storage defines the Storage interface that the HTTP layer depends
// on, and the error kinds every implementation reports.
//
// Handlers never see a raw driver error: each failure comes back as a
// *Error whose Kind tells the caller what happened (see errors.go).
package storage

import (
	"context"

	"github.com/aanand-mishra/student-records/internal/types"
)

// Storage is the student repository contract.
//
// Every method may block on network I/O to the store and honours ctx
// cancellation and deadlines.
type Storage interface {
	// ListStudents returns every student ordered by id, newest first.
	// On failure it returns an empty (non-nil) slice together with the error.
	ListStudents(ctx context.Context) ([]types.Student, error)

	// GetStudentByID fetches a single student by primary key.
	// Returns ErrNotFound if no row has that id.
	GetStudentByID(ctx context.Context, id int64) (types.Student, error)

	// CreateStudent validates and inserts a new student and returns it with
	// its generated id.
	CreateStudent(ctx context.Context, in types.StudentInput) (types.Student, error)

	// UpdateStudentByID replaces name, email, phone and course of an existing
	// student. Returns ErrNotFound if no row has that id.
	UpdateStudentByID(ctx context.Context, id int64, in types.StudentInput) (types.Student, error)

	// DeleteStudentByID removes a student. Deleting a missing id succeeds.
	DeleteStudentByID(ctx context.Context, id int64) error

	// Ping reports whether a connection to the store can be acquired.
	Ping(ctx context.Context) error
}
