package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/tobinmarsh/reelnight/internal/membership"
	"github.com/tobinmarsh/reelnight/internal/watchlist"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// writeServiceError maps service sentinels onto HTTP statuses. Unknown
// errors surface as a plain 500; details stay in the log, not the response.
func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, membership.ErrValidation) || errors.Is(err, watchlist.ErrValidation):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, membership.ErrNotFound) || errors.Is(err, watchlist.ErrNotFound):
		writeError(w, http.StatusNotFound, "not found")
	case errors.Is(err, membership.ErrNotAuthorized) || errors.Is(err, watchlist.ErrNotMember):
		writeError(w, http.StatusForbidden, "not authorized")
	case errors.Is(err, membership.ErrDuplicateMember):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, membership.ErrLastAdmin):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, watchlist.ErrNothingToPick):
		writeError(w, http.StatusConflict, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

// decodeJSON decodes a request body, rejecting unknown fields.
func decodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}

// parseIDParam reads a numeric path parameter registered as {name}.
func parseIDParam(r *http.Request, name string) (int64, error) {
	return strconv.ParseInt(r.PathValue(name), 10, 64)
}
