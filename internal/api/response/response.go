package response

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/edvin/subpay/internal/core"
)

func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func WriteError(w http.ResponseWriter, status int, message string) {
	WriteJSON(w, status, map[string]string{"error": message})
}

// WriteServiceError maps the service error taxonomy onto HTTP statuses.
// Unknown errors become an opaque 500 so internal details never leak.
func WriteServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, core.ErrInvalidSignature):
		WriteError(w, http.StatusUnauthorized, err.Error())
	case errors.Is(err, core.ErrUnauthorized):
		WriteError(w, http.StatusForbidden, err.Error())
	case errors.Is(err, core.ErrExpired):
		WriteError(w, http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, core.ErrIdentifierTooLong), errors.Is(err, core.ErrZeroAddress):
		WriteError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, core.ErrDuplicateIdentifier):
		WriteError(w, http.StatusConflict, err.Error())
	case errors.Is(err, core.ErrTransferFailed):
		WriteError(w, http.StatusPaymentRequired, err.Error())
	case errors.Is(err, core.ErrNotFound):
		WriteError(w, http.StatusNotFound, err.Error())
	default:
		WriteError(w, http.StatusInternalServerError, "internal error")
	}
}

// PaginatedResponse wraps a list with pagination metadata.
type PaginatedResponse struct {
	Items      any    `json:"items"`
	NextCursor string `json:"next_cursor,omitempty"`
	HasMore    bool   `json:"has_more"`
}

// WritePaginated writes a paginated JSON response.
func WritePaginated(w http.ResponseWriter, status int, items any, nextCursor string, hasMore bool) {
	WriteJSON(w, status, PaginatedResponse{
		Items:      items,
		NextCursor: nextCursor,
		HasMore:    hasMore,
	})
}
