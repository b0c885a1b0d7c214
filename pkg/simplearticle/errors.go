package simplearticle

import (
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// Error types
var (
	// ErrArticleNotFound indicates an article was not found
	ErrArticleNotFound = errors.New("article not found")

	// ErrImageNotFound indicates an article image was not found
	ErrImageNotFound = errors.New("image not found")

	// ErrHTMLNotFound indicates an image has no HTML source attached, or
	// the HTML blob is missing from storage
	ErrHTMLNotFound = errors.New("html source not found")

	// ErrBlobNotFound indicates a blob is absent from the storage backend
	ErrBlobNotFound = errors.New("blob not found")

	// ErrInvalidInput indicates malformed or missing required input
	ErrInvalidInput = errors.New("invalid input")

	// ErrHTMLAlreadyExists indicates an image already has an HTML source
	// (the update operation must be used instead of attach)
	ErrHTMLAlreadyExists = errors.New("html source already exists")

	// ErrInvalidArticleStatus indicates an unrecognized lifecycle state
	ErrInvalidArticleStatus = errors.New("invalid article status")

	// ErrInvalidTransition indicates the status engine rejected a move
	ErrInvalidTransition = errors.New("invalid status transition")

	// ErrStatusConflict indicates a status compare-and-swap lost a race
	// (the article's status changed between read and write)
	ErrStatusConflict = errors.New("article status changed concurrently")

	// ErrVersionConflict indicates a version number was taken concurrently
	ErrVersionConflict = errors.New("version number conflict")

	// ErrTransitionConflict indicates the transition retry budget was
	// exhausted without a successful compare-and-swap
	ErrTransitionConflict = errors.New("status transition conflict: retries exhausted")

	// ErrStorageUnavailable indicates a blob store call failed
	ErrStorageUnavailable = errors.New("storage unavailable")

	// ErrStorageBackendNotFound indicates the requested storage backend is not registered
	ErrStorageBackendNotFound = errors.New("storage backend not found")
)

// InvalidTransitionError reports a rejected status move together with the
// moves that would have been accepted, so callers can self-correct.
type InvalidTransitionError struct {
	Current ArticleStatus
	Target  ArticleStatus
	Allowed []ArticleStatus
}

func (e *InvalidTransitionError) Error() string {
	allowed := make([]string, len(e.Allowed))
	for i, s := range e.Allowed {
		allowed[i] = string(s)
	}
	return fmt.Sprintf("cannot transition from %q to %q (allowed: %s)",
		e.Current, e.Target, strings.Join(allowed, ", "))
}

func (e *InvalidTransitionError) Unwrap() error {
	return ErrInvalidTransition
}

// ArticleError represents an error related to article operations
type ArticleError struct {
	ArticleID uuid.UUID
	Op        string
	Err       error
}

func (e *ArticleError) Error() string {
	return fmt.Sprintf("article operation %s failed for article %s: %v", e.Op, e.ArticleID, e.Err)
}

func (e *ArticleError) Unwrap() error {
	return e.Err
}

// ImageError represents an error related to image operations
type ImageError struct {
	ImageID uuid.UUID
	Op      string
	Err     error
}

func (e *ImageError) Error() string {
	return fmt.Sprintf("image operation %s failed for image %s: %v", e.Op, e.ImageID, e.Err)
}

func (e *ImageError) Unwrap() error {
	return e.Err
}

// StorageError represents an error related to blob storage operations
type StorageError struct {
	Backend string
	Key     string
	Op      string
	Err     error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage operation %s failed for key %s on backend %s: %v", e.Op, e.Key, e.Backend, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}
