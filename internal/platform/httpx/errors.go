package httpx

import (
	"errors"
	"net/http"

	"github.com/logify-app/logify/internal/shared"
)

// RespondError maps domain errors to HTTP responses using RFC7807. Rejection
// detail never includes store internals or another user's data; anything that
// is not a recognized domain error collapses into an opaque 500.
func RespondError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, shared.ErrInvalidCredentials):
		Problem(w, http.StatusUnauthorized, "Unauthorized", "invalid email or password")
	case errors.Is(err, shared.ErrUnauthenticated):
		Problem(w, http.StatusUnauthorized, "Unauthorized", "invalid or expired session")
	case errors.Is(err, shared.ErrAlreadyExists):
		Problem(w, http.StatusConflict, "Conflict", "email already exists")
	case errors.Is(err, shared.ErrMissingEmail):
		Problem(w, http.StatusBadRequest, "Bad Request", "provider profile has no email")
	case errors.Is(err, shared.ErrNotFound):
		Problem(w, http.StatusNotFound, "Not Found", "resource not found")
	default:
		Problem(w, http.StatusInternalServerError, "Internal Error", "")
	}
}
