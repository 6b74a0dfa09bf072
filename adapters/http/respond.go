package http

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/artpar/invoicer/app"
	"github.com/artpar/invoicer/domain/gateway"
	"github.com/artpar/invoicer/domain/invoice"
	"github.com/artpar/invoicer/ports"
	"github.com/rs/zerolog"
)

// maxBodyBytes caps request bodies.
const maxBodyBytes = 1 << 20

// ErrorResponseBody represents an error response body for swagger docs.
type ErrorResponseBody struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail represents error details for swagger docs.
type ErrorDetail struct {
	Code    string `json:"code" example:"not_found"`
	Message string `json:"message" example:"invoice not found"`
}

// apiError is an error with a fixed HTTP status and code.
type apiError struct {
	status  int
	code    string
	message string
}

func (e *apiError) Error() string { return e.message }

func badRequest(message string) error {
	return &apiError{status: http.StatusBadRequest, code: "bad_request", message: message}
}

// errorStatus maps service and domain errors to HTTP statuses and codes.
func errorStatus(err error) (int, string) {
	var ae *apiError
	switch {
	case errors.As(err, &ae):
		return ae.status, ae.code
	case errors.Is(err, ports.ErrNotFound):
		return http.StatusNotFound, "not_found"
	case errors.Is(err, ports.ErrDuplicate):
		return http.StatusConflict, "duplicate"
	case errors.Is(err, invoice.ErrNotDraft),
		errors.Is(err, invoice.ErrNotViewable),
		errors.Is(err, invoice.ErrDraftPayment),
		errors.Is(err, invoice.ErrAlreadyPaid):
		return http.StatusConflict, "invalid_state"
	case errors.Is(err, app.ErrMissingUser):
		return http.StatusUnauthorized, "missing_user"
	case errors.Is(err, invoice.ErrInvalidAmount),
		errors.Is(err, app.ErrInvalidItems),
		errors.Is(err, app.ErrInvalidRate),
		errors.Is(err, app.ErrInvalidCurrency),
		errors.Is(err, app.ErrInvalidEmail),
		errors.Is(err, app.ErrMissingDueDate),
		errors.Is(err, app.ErrInvalidPattern),
		errors.Is(err, gateway.ErrUnknownGateway),
		errors.Is(err, gateway.ErrInvalidMode),
		errors.Is(err, gateway.ErrMissingUser):
		return http.StatusBadRequest, "validation_failed"
	case errors.Is(err, app.ErrPDFDisabled):
		return http.StatusNotImplemented, "pdf_disabled"
	}
	return http.StatusInternalServerError, "internal_error"
}

// writeError writes err as a JSON error body. Internal errors are logged
// and reported without detail.
func writeError(w http.ResponseWriter, logger zerolog.Logger, err error) {
	status, code := errorStatus(err)
	message := err.Error()
	if status == http.StatusInternalServerError {
		logger.Error().Err(err).Msg("request failed")
		message = "internal server error"
	}
	writeJSON(w, status, ErrorResponseBody{Error: ErrorDetail{Code: code, Message: message}})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// decodeJSON reads a JSON body into v, rejecting unknown fields.
func decodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return badRequest("invalid request body: " + err.Error())
	}
	return nil
}
