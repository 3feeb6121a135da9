package api

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/garnizeh/intake/internal/apperr"
)

// maxJSONBody caps form submissions; files go through the upload endpoint.
const maxJSONBody = 64 << 10

type response struct {
	Success bool              `json:"success"`
	ID      string            `json:"id,omitempty"`
	Data    any               `json:"data,omitempty"`
	Error   string            `json:"error,omitempty"`
	Fields  map[string]string `json:"fields,omitempty"`
}

type page struct {
	Items  any `json:"items"`
	Limit  int `json:"limit"`
	Offset int `json:"offset"`
}

func writeJSON(w http.ResponseWriter, v any, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Error("failed to encode response", slog.Any("err", err))
	}
}

func writeData(w http.ResponseWriter, data any) {
	writeJSON(w, response{Success: true, Data: data}, http.StatusOK)
}

func writeCreated(w http.ResponseWriter, id string) {
	writeJSON(w, response{Success: true, ID: id}, http.StatusCreated)
}

// writeError renders err in the failure envelope. Errors outside the
// taxonomy are logged and reported generically.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	if ve, ok := apperr.IsValidation(err); ok {
		writeJSON(w, response{Error: "Please correct the highlighted fields", Fields: ve.Fields}, http.StatusBadRequest)
		return
	}

	var tooBig *http.MaxBytesError
	var status int
	var msg string
	switch {
	case errors.Is(err, apperr.ErrPayloadTooLarge), errors.As(err, &tooBig):
		status, msg = http.StatusRequestEntityTooLarge, "File is too large"
	case errors.Is(err, apperr.ErrUnsupportedType):
		status, msg = http.StatusUnsupportedMediaType, "Unsupported file type"
	case errors.Is(err, apperr.ErrListingNotOpen):
		status, msg = http.StatusUnprocessableEntity, "This position is not accepting applications"
	case errors.Is(err, apperr.ErrInvalidTransition):
		status, msg = http.StatusConflict, err.Error()
	case errors.Is(err, apperr.ErrConflict):
		status, msg = http.StatusConflict, err.Error()
	case errors.Is(err, apperr.ErrNotFound):
		status, msg = http.StatusNotFound, "Not found"
	default:
		logger.Error("request failed",
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.Any("err", err),
		)
		status, msg = http.StatusInternalServerError, "Something went wrong, please try again"
	}
	writeJSON(w, response{Error: msg}, status)
}

// readBody reads a size-capped request body.
func readBody(w http.ResponseWriter, r *http.Request) ([]byte, error) {
	return io.ReadAll(http.MaxBytesReader(w, r.Body, maxJSONBody))
}

// decodeBody unmarshals a size-capped JSON body into v.
func decodeBody(w http.ResponseWriter, r *http.Request, v any) error {
	raw, err := readBody(w, r)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return apperr.NewValidationError(map[string]string{"body": "must be a valid JSON object"})
	}
	return nil
}

// pagination reads limit and offset; limit defaults to 50 and is capped at 500.
func pagination(r *http.Request) (int, int) {
	q := r.URL.Query()
	limit := 50
	if l := q.Get("limit"); l != "" {
		if v, err := strconv.Atoi(l); err == nil && v > 0 && v <= 500 {
			limit = v
		}
	}
	offset := 0
	if o := q.Get("offset"); o != "" {
		if v, err := strconv.Atoi(o); err == nil && v >= 0 {
			offset = v
		}
	}
	return limit, offset
}
