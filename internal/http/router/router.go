// Package router assembles the route table and middleware stack.
package router

import (
	"log/slog"
	"net/http"

	"github.com/aanand-mishra/student-records/internal/config"
	"github.com/aanand-mishra/student-records/internal/http/handlers/health"
	"github.com/aanand-mishra/student-records/internal/http/handlers/student"
	"github.com/aanand-mishra/student-records/internal/http/middleware"
	"github.com/aanand-mishra/student-records/internal/storage"
)

// New returns the application handler.
//
// Route table:
//
//	POST   /api/students        → create a new student
//	GET    /api/students        → list all students, newest first
//	GET    /api/students/{id}   → get one student by ID
//	PUT    /api/students/{id}   → update a student
//	DELETE /api/students/{id}   → delete a student
//	GET    /healthz             → store reachability
func New(storage storage.Storage, cfg config.HTTPServer, log *slog.Logger) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /api/students", student.New(storage, log))
	mux.HandleFunc("GET /api/students", student.GetList(storage, log))
	mux.HandleFunc("GET /api/students/{id}", student.GetByID(storage, log))
	mux.HandleFunc("PUT /api/students/{id}", student.Update(storage, log))
	mux.HandleFunc("DELETE /api/students/{id}", student.Delete(storage, log))
	mux.HandleFunc("GET /healthz", health.Check(storage, log))

	return middleware.Chain(mux,
		middleware.RequestID(),
		middleware.Logger(log),
		middleware.CORS(cfg.AllowedOrigins),
		middleware.RateLimit(cfg.RateLimit, cfg.RateBurst),
	)
}
