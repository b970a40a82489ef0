package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/safar/go-bookshop/internal/apperr"
	"github.com/safar/go-bookshop/internal/database"
)

func respondJSON(w http.ResponseWriter, r *http.Request, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		logger(r).WithError(err).Warn("encode response")
	}
}

func respondError(w http.ResponseWriter, r *http.Request, status int, message string) {
	respondJSON(w, r, status, map[string]string{"error": message})
}

// respondErr picks the status from the error's kind. Server-side failures
// are logged and reported without detail.
func respondErr(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		logger(r).WithError(err).Error("request failed")
		respondError(w, r, status, http.StatusText(status))
		return
	}
	respondError(w, r, status, err.Error())
}

func statusFor(err error) int {
	switch apperr.KindOf(err) {
	case apperr.KindNotFound:
		return http.StatusNotFound
	case apperr.KindInvalid:
		return http.StatusBadRequest
	case apperr.KindUnauthorized:
		return http.StatusUnauthorized
	case apperr.KindForbidden:
		return http.StatusForbidden
	case apperr.KindConflict:
		return http.StatusConflict
	case apperr.KindExternalUnavailable:
		return http.StatusBadGateway
	}

	switch {
	case errors.Is(err, database.ErrBookNotFound),
		errors.Is(err, database.ErrOrderNotFound),
		errors.Is(err, database.ErrUserNotFound):
		return http.StatusNotFound
	case errors.Is(err, database.ErrInsufficientStock):
		return http.StatusConflict
	}
	return http.StatusInternalServerError
}

const maxBodyBytes = 1 << 20

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil && !errors.Is(err, io.EOF) {
		respondError(w, r, http.StatusBadRequest, "Invalid request body")
		return false
	}
	return true
}
