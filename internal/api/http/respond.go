package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-playground/validator/v10"

	"github.com/lotus-edu/lotus-backend/internal/apperr"
)

var validate = validator.New()

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeErr maps the domain sentinels to HTTP statuses. Internal errors stay
// opaque to the client.
func writeErr(w http.ResponseWriter, err error) {
	var status int
	switch {
	case errors.Is(err, apperr.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, apperr.ErrAlreadyReleased),
		errors.Is(err, apperr.ErrPendingCorrections):
		status = http.StatusConflict
	case errors.Is(err, apperr.ErrNotAMember),
		errors.Is(err, apperr.ErrInvalidAnswer),
		errors.Is(err, apperr.ErrInvalidWeight),
		errors.Is(err, apperr.ErrInvalidPenaltyFactor):
		status = http.StatusBadRequest
	default:
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
		return
	}
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

// decodeValid decodes JSON into dst and runs struct validation.
func decodeValid(r *http.Request, dst interface{}) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return apperr.Invalid(apperr.ErrInvalidAnswer, "bad json: %v", err)
	}
	if err := validate.Struct(dst); err != nil {
		return apperr.Invalid(apperr.ErrInvalidAnswer, "validation: %v", err)
	}
	return nil
}
