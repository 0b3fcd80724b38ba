// Package router assembles the HTTP route table.
package router

import (
	"log/slog"
	"net/http"

	"github.com/aanand-mishra/patients-api/internal/http/handlers/patient"
	"github.com/aanand-mishra/patients-api/internal/http/middleware"
	"github.com/aanand-mishra/patients-api/internal/metrics"
)

// New returns the full handler:
//
//	GET  /               → liveness message
//	GET  /about          → description
//	GET  /view           → every patient keyed by id
//	GET  /patient/{id}   → one patient
//	GET  /sort           → patients ordered by sort_by / order
//	POST /create         → create a patient
//	GET  /metrics        → Prometheus metrics
func New(svc patient.Service, m *metrics.Metrics, log *slog.Logger) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /{$}", patient.Home())
	mux.HandleFunc("GET /about", patient.About())
	mux.HandleFunc("GET /view", patient.View(svc))
	mux.HandleFunc("GET /patient/{id}", patient.GetByID(svc))
	mux.HandleFunc("GET /sort", patient.Sort(svc))
	mux.HandleFunc("POST /create", patient.Create(svc, m))

	if m != nil {
		mux.Handle("GET /metrics", m.Handler())
	}

	return middleware.Chain(mux, middleware.RequestID, middleware.Observe(log, m))
}
