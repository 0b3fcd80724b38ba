// Package response provides helpers for writing consistent JSON HTTP
// responses.
//
// Every error response has the same shape:
//
//	{ "status": "error", "error": "human-readable message" }
//
// and validation failures add the rejected fields:
//
//	{ "status": "error", "error": "...", "fields": [ { "field": "age", "rule": "gt", "message": "..." } ] }
package response

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/aanand-mishra/patients-api/internal/service"
)

// Response is the standard error envelope.
type Response struct {
	Status string               `json:"status"`
	Error  string               `json:"error"`
	Fields []service.FieldError `json:"fields,omitempty"`
}

// Message is the body of the informational endpoints.
type Message struct {
	Message string `json:"message"`
}

const (
	StatusOK    = "ok"
	StatusError = "error"
)

// WriteJSON sets the Content-Type header, writes the status code and
// encodes data as JSON. data is encoded before the status is written, so
// a value that cannot be encoded becomes a 500 instead of an empty body.
func WriteJSON(w http.ResponseWriter, status int, data any) error {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(data); err != nil {
		buf.Reset()
		_ = json.NewEncoder(&buf).Encode(GeneralError(errors.New("failed to encode response")))
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write(buf.Bytes())
		return err
	}

	w.Header().Set("Content-Type", "application/json")

	w.WriteHeader(status)

	_, err := w.Write(buf.Bytes())
	return err
}

// GeneralError wraps err in the standard error envelope.
func GeneralError(err error) Response {
	return Response{
		Status: StatusError,
		Error:  err.Error(),
	}
}

// ValidationError converts a validation failure into the error envelope
// with one entry per rejected field.
func ValidationError(err *service.ValidationError) Response {
	return Response{
		Status: StatusError,
		Error:  err.Error(),
		Fields: err.Fields,
	}
}

// Error writes err with the HTTP status its kind maps to:
//
//	ValidationError  → 422
//	ErrNotFound      → 404
//	ErrConflict      → 400
//	ErrInvalidArgument → 400
//	anything else    → 500
//
// It returns the status that was written.
func Error(w http.ResponseWriter, err error) int {
	var verr *service.ValidationError
	switch {
	case errors.As(err, &verr):
		WriteJSON(w, http.StatusUnprocessableEntity, ValidationError(verr))
		return http.StatusUnprocessableEntity
	case errors.Is(err, service.ErrNotFound):
		WriteJSON(w, http.StatusNotFound, GeneralError(service.ErrNotFound))
		return http.StatusNotFound
	case errors.Is(err, service.ErrConflict):
		WriteJSON(w, http.StatusBadRequest, GeneralError(service.ErrConflict))
		return http.StatusBadRequest
	case errors.Is(err, service.ErrInvalidArgument):
		WriteJSON(w, http.StatusBadRequest, GeneralError(err))
		return http.StatusBadRequest
	default:
		WriteJSON(w, http.StatusInternalServerError, GeneralError(errors.New("internal storage error")))
		return http.StatusInternalServerError
	}
}
