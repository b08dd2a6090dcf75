// Package response provides helpers for writing consistent JSON HTTP responses.
//
// Error responses always look like:
//
//	{ "status": "error", "error": "email already exists", "fields": ["email"] }
package response

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/aanand-mishra/student-records/internal/storage"
)

// Response is the standard envelope returned for error cases.
type Response struct {
	Status string   `json:"status"`
	Error  string   `json:"error"`
	Fields []string `json:"fields,omitempty"`
}

const (
	StatusOK    = "ok"
	StatusError = "error"
)

// WriteJSON writes data as JSON with the given HTTP status code.
// Header() → WriteHeader() → body, in that order.
func WriteJSON(w http.ResponseWriter, status int, data any) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	return json.NewEncoder(w).Encode(data)
}

// GeneralError wraps any error into the standard Response shape.
func GeneralError(err error) Response {
	return Response{
		Status: StatusError,
		Error:  err.Error(),
	}
}

// StorageError converts a storage failure into an HTTP status and a body
// the client can act on. Driver details stay out of the message; they are
// for the logs.
func StorageError(err error) (int, Response) {
	fields := storage.FieldsOf(err)

	switch storage.KindOf(err) {
	case storage.KindValidation:
		return http.StatusBadRequest, Response{
			Status: StatusError,
			Error:  requiredMessage(fields),
			Fields: fields,
		}
	case storage.KindDuplicateEmail:
		return http.StatusConflict, Response{
			Status: StatusError,
			Error:  "email already exists",
			Fields: fields,
		}
	case storage.KindNotFound:
		return http.StatusNotFound, Response{Status: StatusError, Error: "student not found"}
	case storage.KindConnection:
		return http.StatusServiceUnavailable, Response{Status: StatusError, Error: "database connection failed"}
	case storage.KindTimeout:
		return http.StatusGatewayTimeout, Response{Status: StatusError, Error: "database operation timed out"}
	default:
		var se *storage.Error
		if errors.As(err, &se) {
			return http.StatusInternalServerError, Response{
				Status: StatusError,
				Error:  fmt.Sprintf("database %s failed", se.Kind),
			}
		}
		return http.StatusInternalServerError, Response{Status: StatusError, Error: "internal error"}
	}
}

// WriteStorageError writes the response for a storage failure.
func WriteStorageError(w http.ResponseWriter, err error) error {
	status, body := StorageError(err)
	return WriteJSON(w, status, body)
}

func requiredMessage(fields []string) string {
	if len(fields) == 0 {
		return "invalid input"
	}
	msgs := make([]string, 0, len(fields))
	for _, f := range fields {
		msgs = append(msgs, fmt.Sprintf("field %s is required", f))
	}
	return strings.Join(msgs, ", ")
}
