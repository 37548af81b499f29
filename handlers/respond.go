package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"go.uber.org/zap"

	"customerdash/backend/middleware"
	"customerdash/backend/services"
	"customerdash/backend/store"
)

type errorBody struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorBody{Error: msg})
}

// statusFor maps domain errors onto HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, store.ErrInvalidRecord),
		errors.Is(err, services.ErrUnknownField),
		errors.Is(err, errBadQuery),
		errors.Is(err, errBadBody):
		return http.StatusBadRequest
	case errors.Is(err, store.ErrNotFound),
		errors.Is(err, services.ErrFilterNotFound):
		return http.StatusNotFound
	case errors.Is(err, services.ErrNoSheet),
		errors.Is(err, services.ErrNoRows),
		errors.Is(err, services.ErrNoValidRows),
		errors.Is(err, services.ErrUnsupportedFormat),
		errors.Is(err, services.ErrUnreadableFile):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

// fail writes err with its mapped status. Internal errors are logged and
// their text is not exposed.
func fail(w http.ResponseWriter, logger *zap.Logger, r *http.Request, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		logger.Error("request failed",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Error(err))
		writeError(w, status, "internal server error")
		return
	}
	writeError(w, status, err.Error())
}

// absorbWarning turns a persistence warning into the storage warning
// header and reports whether err still needs handling.
func absorbWarning(w http.ResponseWriter, err error) error {
	if err == nil {
		return nil
	}
	if store.IsPersistWarning(err) {
		w.Header().Set(middleware.StorageWarningHeader, "changes are kept in memory but could not be saved")
		return nil
	}
	return err
}

var errBadBody = errors.New("invalid request body")

func decodeJSON(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return fmt.Errorf("%w: %v", errBadBody, err)
	}
	return nil
}

func nopIfNil(l *zap.Logger) *zap.Logger {
	if l == nil {
		return zap.NewNop()
	}
	return l
}
