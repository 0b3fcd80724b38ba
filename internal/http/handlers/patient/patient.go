// Package patient contains the HTTP handlers for the patient resource.
//
// Each exported function is a factory: it receives its dependencies once
// at startup and returns the http.HandlerFunc the router calls on every
// request.
//
//	router.HandleFunc("GET /patient/{id}", patient.GetByID(svc))
package patient

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/aanand-mishra/patients-api/internal/metrics"
	"github.com/aanand-mishra/patients-api/internal/service"
	"github.com/aanand-mishra/patients-api/internal/types"
	"github.com/aanand-mishra/patients-api/internal/utils/response"
)

// maxBodyBytes caps the size of a create request body.
const maxBodyBytes = 1 << 20

const (
	homeMessage    = "Patient Management System API"
	aboutMessage   = "Fully functional Patient Management System API for your patient records."
	createdMessage = "Patient created successfully."
)

// Service is what the handlers need from the service layer.
type Service interface {
	View(ctx context.Context) (*types.Collection, error)
	Get(ctx context.Context, id string) (types.Patient, error)
	Sort(ctx context.Context, field, order string) ([]types.Patient, error)
	Create(ctx context.Context, p types.Patient) (types.Patient, error)
}

// CreatedResponse is the body of a successful create.
type CreatedResponse struct {
	Message string        `json:"message"`
	Patient types.Patient `json:"patient"`
}

// Home handles GET /
func Home() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		response.WriteJSON(w, http.StatusOK, response.Message{Message: homeMessage})
	}
}

// About handles GET /about
func About() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		response.WriteJSON(w, http.StatusOK, response.Message{Message: aboutMessage})
	}
}

// View handles GET /view and returns the whole collection as an object
// keyed by id, with derived fields on every record.
func View(svc Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		slog.Info("viewing all patients")

		c, err := svc.View(r.Context())
		if err != nil {
			slog.Error("error loading patients", slog.String("error", err.Error()))
			response.Error(w, err)
			return
		}

		response.WriteJSON(w, http.StatusOK, c.View())
	}
}

// GetByID handles GET /patient/{id}
//
// Error responses:
//
//	404 Not Found            : no patient with that id
//	500 Internal Server Error: storage failure
func GetByID(svc Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := r.PathValue("id")
		slog.Info("getting a patient", slog.String("id", id))

		p, err := svc.Get(r.Context(), id)
		if err != nil {
			if !errors.Is(err, service.ErrNotFound) {
				slog.Error("error getting patient",
					slog.String("id", id),
					slog.String("error", err.Error()))
			}
			response.Error(w, err)
			return
		}

		response.WriteJSON(w, http.StatusOK, p)
	}
}

// Sort handles GET /sort?sort_by=height|weight|bmi&order=asc|desc
//
// order defaults to asc when absent. A missing or unknown sort_by, or any
// order other than asc or desc (including an empty one), is a 400.
func Sort(svc Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		field := q.Get("sort_by")
		order := string(service.Asc)
		if q.Has("order") {
			order = q.Get("order")
		}
		slog.Info("sorting patients", slog.String("sort_by", field), slog.String("order", order))

		patients, err := svc.Sort(r.Context(), field, order)
		if err != nil {
			if !errors.Is(err, service.ErrInvalidArgument) {
				slog.Error("error sorting patients", slog.String("error", err.Error()))
			}
			response.Error(w, err)
			return
		}

		response.WriteJSON(w, http.StatusOK, patients)
	}
}

// Create handles POST /create
//
// Request body (JSON):
//
//	{ "id": "P010", "name": "Alex", "city": "Pune", "age": 30,
//	  "gender": "male", "height": 1.75, "weight": 80 }
//
// Success response (201 Created):
//
//	{ "message": "Patient created successfully.", "patient": { ..., "bmi": 26.12, "verdict": "Normal" } }
//
// Error responses:
//
//	400 Bad Request          : a patient with that id already exists
//	422 Unprocessable Entity : empty or malformed body, or a field failed validation
//	500 Internal Server Error: storage failure
func Create(svc Service, m *metrics.Metrics) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		slog.Info("creating a patient")

		body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
		if err != nil {
			var tooLarge *http.MaxBytesError
			if errors.As(err, &tooLarge) {
				response.WriteJSON(w, http.StatusRequestEntityTooLarge, response.GeneralError(errors.New("request body too large")))
				return
			}
			response.WriteJSON(w, http.StatusBadRequest, response.GeneralError(err))
			return
		}

		p, err := service.ParsePatient(body)
		if err != nil {
			response.Error(w, err)
			return
		}

		created, err := svc.Create(r.Context(), p)
		if err != nil {
			if !errors.Is(err, service.ErrConflict) && !errors.Is(err, service.ErrValidation) {
				slog.Error("error creating patient",
					slog.String("id", p.ID),
					slog.String("error", err.Error()))
			}
			response.Error(w, err)
			return
		}

		m.PatientCreated()
		slog.Info("patient created", slog.String("id", created.ID))

		response.WriteJSON(w, http.StatusCreated, CreatedResponse{Message: createdMessage, Patient: created})
	}
}
