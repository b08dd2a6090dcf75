// Package student contains the HTTP handlers for the Student resource.
//
// Each exported function is a factory: it receives its dependencies once at
// route registration and returns the http.HandlerFunc that serves every
// request.
//
//	router.HandleFunc("POST /api/students", student.New(storage, log))
//
// Handlers only decode requests and encode responses. Validation, duplicate
// detection and not-found reporting come from the storage layer as typed
// errors and are turned into status codes by response.StorageError.
package student

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/aanand-mishra/student-records/internal/http/middleware"
	"github.com/aanand-mishra/student-records/internal/storage"
	"github.com/aanand-mishra/student-records/internal/types"
	"github.com/aanand-mishra/student-records/internal/utils/response"
)

// ─────────────────────────────────────────────────────────────────────────────
// New handles POST /api/students
//
// Request body:
//
//	{ "name": "Ada", "email": "ada@example.com", "phone": "", "course": "Math" }
//
// Responses: 201 with the created student, 400 on a bad body or missing
// field, 409 on a duplicate email, 503/504 when the store is unavailable.
// ─────────────────────────────────────────────────────────────────────────────
func New(storage storage.Storage, log *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		log := requestLogger(log, r)
		log.Info("creating a student")

		in, ok := decodeInput(w, r)
		if !ok {
			return
		}

		created, err := storage.CreateStudent(r.Context(), in)
		if err != nil {
			logFailure(log, "error creating student", err)
			response.WriteStorageError(w, err)
			return
		}

		log.Info("student created", slog.Int64("id", created.ID))
		response.WriteJSON(w, http.StatusCreated, created)
	}
}

// ─────────────────────────────────────────────────────────────────────────────
// GetByID handles GET /api/students/{id}
//
// Responses: 200 with the student, 400 on a non-integer id, 404 if absent.
// ─────────────────────────────────────────────────────────────────────────────
func GetByID(storage storage.Storage, log *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		log := requestLogger(log, r)

		id, ok := pathID(w, r)
		if !ok {
			return
		}
		log.Info("getting a student", slog.Int64("id", id))

		student, err := storage.GetStudentByID(r.Context(), id)
		if err != nil {
			logFailure(log, "error getting student", err, slog.Int64("id", id))
			response.WriteStorageError(w, err)
			return
		}

		response.WriteJSON(w, http.StatusOK, student)
	}
}

// ─────────────────────────────────────────────────────────────────────────────
// GetList handles GET /api/students
//
// Returns a JSON array ordered newest first; [] (not null) when empty.
// ─────────────────────────────────────────────────────────────────────────────
func GetList(storage storage.Storage, log *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		log := requestLogger(log, r)
		log.Info("getting all students")

		students, err := storage.ListStudents(r.Context())
		if err != nil {
			logFailure(log, "error getting students", err)
			response.WriteStorageError(w, err)
			return
		}

		response.WriteJSON(w, http.StatusOK, students)
	}
}

// ─────────────────────────────────────────────────────────────────────────────
// Update handles PUT /api/students/{id}
//
// Replaces name, email, phone and course. Responses: 200 with the updated
// student, 400, 404 if the id does not exist, 409 on a duplicate email.
// ─────────────────────────────────────────────────────────────────────────────
func Update(storage storage.Storage, log *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		log := requestLogger(log, r)

		id, ok := pathID(w, r)
		if !ok {
			return
		}
		log.Info("updating a student", slog.Int64("id", id))

		in, ok := decodeInput(w, r)
		if !ok {
			return
		}

		updated, err := storage.UpdateStudentByID(r.Context(), id, in)
		if err != nil {
			logFailure(log, "error updating student", err, slog.Int64("id", id))
			response.WriteStorageError(w, err)
			return
		}

		log.Info("student updated", slog.Int64("id", id))
		response.WriteJSON(w, http.StatusOK, updated)
	}
}

// ─────────────────────────────────────────────────────────────────────────────
// Delete handles DELETE /api/students/{id}
//
// Idempotent: deleting an id that does not exist still answers
// 200 { "status": "deleted" }.
// ─────────────────────────────────────────────────────────────────────────────
func Delete(storage storage.Storage, log *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		log := requestLogger(log, r)

		id, ok := pathID(w, r)
		if !ok {
			return
		}
		log.Info("deleting a student", slog.Int64("id", id))

		if err := storage.DeleteStudentByID(r.Context(), id); err != nil {
			logFailure(log, "error deleting student", err, slog.Int64("id", id))
			response.WriteStorageError(w, err)
			return
		}

		log.Info("student deleted", slog.Int64("id", id))
		response.WriteJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
	}
}

func pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		response.WriteJSON(w, http.StatusBadRequest,
			response.GeneralError(errors.New("invalid id: must be an integer")))
		return 0, false
	}
	return id, true
}

func decodeInput(w http.ResponseWriter, r *http.Request) (types.StudentInput, bool) {
	var in types.StudentInput

	err := json.NewDecoder(r.Body).Decode(&in)
	if errors.Is(err, io.EOF) {
		response.WriteJSON(w, http.StatusBadRequest,
			response.GeneralError(errors.New("request body is empty")))
		return in, false
	}
	if err != nil {
		response.WriteJSON(w, http.StatusBadRequest, response.GeneralError(err))
		return in, false
	}

	return in, true
}

func requestLogger(log *slog.Logger, r *http.Request) *slog.Logger {
	if id := middleware.RequestIDFrom(r.Context()); id != "" {
		return log.With(slog.String("request_id", id))
	}
	return log
}

// logFailure logs expected outcomes (validation, duplicates, missing rows)
// at WARN and store failures at ERROR.
func logFailure(log *slog.Logger, msg string, err error, attrs ...any) {
	attrs = append(attrs, slog.String("error", err.Error()))

	switch storage.KindOf(err) {
	case storage.KindValidation, storage.KindDuplicateEmail, storage.KindNotFound:
		log.Warn(msg, attrs...)
	default:
		log.Error(msg, attrs...)
	}
}
