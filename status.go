package later2pdf

import (
	"errors"
	"net/http"
)

// StatusCode maps a Convert error onto an HTTP status: 400 for rejected
// requests, 404 when no article could be fetched, 500 otherwise.
func StatusCode(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, ErrMissingCredentials),
		errors.Is(err, ErrTooManyArticles),
		errors.Is(err, ErrInvalidFormat),
		errors.Is(err, ErrInvalidLayout):
		return http.StatusBadRequest
	case errors.Is(err, ErrNoArticles):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}
