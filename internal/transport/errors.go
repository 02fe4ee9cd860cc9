package transport

import (
	"encoding/json"
	"errors"
	"net/http"

	"exchanged/internal/xerr"
)

// writeError maps a domain error to an HTTP status using the sentinel
// taxonomy and writes a JSON error body.
func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, xerr.ErrBadRequest):
		status = http.StatusBadRequest
	case errors.Is(err, xerr.ErrUnknownSymbol):
		status = http.StatusBadRequest
	case errors.Is(err, xerr.ErrInsufficientBalance):
		status = http.StatusUnprocessableEntity
	case errors.Is(err, xerr.ErrInsufficientMarketInventory):
		status = http.StatusUnprocessableEntity
	case errors.Is(err, xerr.ErrUseMarketOrderInstead):
		status = http.StatusUnprocessableEntity
	case errors.Is(err, xerr.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, xerr.ErrConflict):
		status = http.StatusConflict
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(errorResponse{Error: err.Error()})
}
