package http

import (
	"errors"
	"net/http"

	"github.com/healthdesk/medvault/internal/models"
)

// writeError maps core errors to HTTP statuses. Every denial or
// failure renders a clear reason, except authentication failures which
// stay generic so credentials cannot be probed.
func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, models.ErrAuthenticationFailed):
		http.Error(w, models.ErrAuthenticationFailed.Error(), http.StatusUnauthorized)
	case errors.Is(err, models.ErrAuthorizationDenied):
		http.Error(w, err.Error(), http.StatusForbidden)
	case errors.Is(err, models.ErrNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, models.ErrAlreadyAnonymized):
		http.Error(w, err.Error(), http.StatusConflict)
	case errors.Is(err, models.ErrDecryptionFailed):
		http.Error(w, err.Error(), http.StatusUnprocessableEntity)
	case errors.Is(err, models.ErrStorage):
		http.Error(w, err.Error(), http.StatusServiceUnavailable)
	default:
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}
