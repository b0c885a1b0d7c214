package api

import (
	"errors"
	"net/http"

	"github.com/go-chi/render"
	"github.com/tendant/simple-articles/pkg/simplearticle"
)

// ErrorResponse is the uniform error body for the API
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail carries a stable machine-readable code plus a message
type ErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func respondError(w http.ResponseWriter, r *http.Request, status int, code, message string) {
	render.Status(r, status)
	render.JSON(w, r, ErrorResponse{Error: ErrorDetail{Code: code, Message: message}})
}

// respondServiceError maps service errors onto HTTP statuses. Wrapped
// sentinels drive the mapping so handlers never inspect error strings.
func respondServiceError(w http.ResponseWriter, r *http.Request, err error) {
	var storageErr *simplearticle.StorageError

	switch {
	case errors.Is(err, simplearticle.ErrInvalidInput),
		errors.Is(err, simplearticle.ErrInvalidArticleStatus):
		respondError(w, r, http.StatusBadRequest, "validation_error", err.Error())

	case errors.Is(err, simplearticle.ErrInvalidTransition):
		respondError(w, r, http.StatusBadRequest, "invalid_transition", err.Error())

	case errors.Is(err, simplearticle.ErrArticleNotFound):
		respondError(w, r, http.StatusNotFound, "article_not_found", err.Error())

	case errors.Is(err, simplearticle.ErrImageNotFound):
		respondError(w, r, http.StatusNotFound, "image_not_found", err.Error())

	case errors.Is(err, simplearticle.ErrHTMLNotFound):
		respondError(w, r, http.StatusNotFound, "html_not_found", err.Error())

	case errors.Is(err, simplearticle.ErrBlobNotFound):
		respondError(w, r, http.StatusNotFound, "blob_not_found", err.Error())

	case errors.Is(err, simplearticle.ErrHTMLAlreadyExists):
		respondError(w, r, http.StatusConflict, "html_already_exists", err.Error())

	case errors.Is(err, simplearticle.ErrVersionConflict),
		errors.Is(err, simplearticle.ErrTransitionConflict),
		errors.Is(err, simplearticle.ErrStatusConflict):
		respondError(w, r, http.StatusConflict, "conflict", err.Error())

	case errors.As(err, &storageErr),
		errors.Is(err, simplearticle.ErrStorageUnavailable),
		errors.Is(err, simplearticle.ErrStorageBackendNotFound):
		respondError(w, r, http.StatusServiceUnavailable, "storage_unavailable", err.Error())

	default:
		respondError(w, r, http.StatusInternalServerError, "internal_error", err.Error())
	}
}
