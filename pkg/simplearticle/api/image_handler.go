package api

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/google/uuid"
	"github.com/tendant/simple-articles/pkg/simplearticle"
)

// maxUploadMemory bounds the in-memory portion of multipart parsing
const maxUploadMemory = 8 << 20

// ImageResponse is the response body for an article image
type ImageResponse struct {
	ID              string    `json:"id"`
	ArticleID       string    `json:"article_id"`
	URL             string    `json:"url"`
	StoragePath     string    `json:"storage_path"`
	HTMLURL         string    `json:"html_url,omitempty"`
	HTMLStoragePath string    `json:"html_storage_path,omitempty"`
	SortOrder       int       `json:"sort_order"`
	CreatedAt       time.Time `json:"created_at"`
}

// ImageListResponse wraps an article's images in sort order
type ImageListResponse struct {
	ArticleID string          `json:"article_id"`
	Images    []ImageResponse `json:"images"`
	Total     int             `json:"total"`
}

// ImageHTMLResponse is the response body for an image's html source
type ImageHTMLResponse struct {
	ImageID         string `json:"image_id"`
	HTMLURL         string `json:"html_url"`
	HTMLStoragePath string `json:"html_storage_path"`
	HTMLContent     string `json:"html_content"`
}

// ImageHTMLAckResponse acknowledges an html source mutation
type ImageHTMLAckResponse struct {
	ImageID         string `json:"image_id"`
	HTMLURL         string `json:"html_url,omitempty"`
	HTMLStoragePath string `json:"html_storage_path,omitempty"`
	Message         string `json:"message"`
}

func toImageResponse(image *simplearticle.ArticleImage) ImageResponse {
	return ImageResponse{
		ID:              image.ID.String(),
		ArticleID:       image.ArticleID.String(),
		URL:             image.URL,
		StoragePath:     image.StoragePath,
		HTMLURL:         image.HTMLURL,
		HTMLStoragePath: image.HTMLStoragePath,
		SortOrder:       image.SortOrder,
		CreatedAt:       image.CreatedAt,
	}
}

// AddImage uploads an image file (multipart field "file") and attaches it
// to the article
func (h *ArticleHandler) AddImage(w http.ResponseWriter, r *http.Request) {
	id, ok := parseIDParam(w, r, "id")
	if !ok {
		return
	}

	if err := r.ParseMultipartForm(maxUploadMemory); err != nil {
		respondError(w, r, http.StatusBadRequest, "invalid_request", "multipart form required: "+err.Error())
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		respondError(w, r, http.StatusBadRequest, "validation_error", "file is required")
		return
	}
	defer file.Close()

	sortOrder := 0
	if v := r.FormValue("sort_order"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			respondError(w, r, http.StatusBadRequest, "invalid_request", "invalid sort_order")
			return
		}
		sortOrder = n
	}

	image, err := h.service.AddImage(r.Context(), simplearticle.AddImageRequest{
		ArticleID: id,
		FileName:  header.Filename,
		MimeType:  header.Header.Get("Content-Type"),
		Size:      header.Size,
		SortOrder: sortOrder,
		Reader:    file,
	})
	if err != nil {
		slog.Error("Failed to add image", "article_id", id.String(), "error", err)
		respondServiceError(w, r, err)
		return
	}

	slog.Info("Image added", "article_id", id.String(), "image_id", image.ID.String())
	render.Status(r, http.StatusCreated)
	render.JSON(w, r, toImageResponse(image))
}

// ListImages lists an article's images by sort order
func (h *ArticleHandler) ListImages(w http.ResponseWriter, r *http.Request) {
	id, ok := parseIDParam(w, r, "id")
	if !ok {
		return
	}

	images, err := h.service.ListImages(r.Context(), id)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}

	resp := make([]ImageResponse, 0, len(images))
	for _, image := range images {
		resp = append(resp, toImageResponse(image))
	}
	render.JSON(w, r, ImageListResponse{
		ArticleID: id.String(),
		Images:    resp,
		Total:     len(resp),
	})
}

// DeleteImage removes an image (query parameter image_id) and its blobs
func (h *ArticleHandler) DeleteImage(w http.ResponseWriter, r *http.Request) {
	id, ok := parseIDParam(w, r, "id")
	if !ok {
		return
	}

	imageIDStr := r.URL.Query().Get("image_id")
	imageID, err := uuid.Parse(imageIDStr)
	if err != nil {
		respondError(w, r, http.StatusBadRequest, "invalid_id", "image_id query parameter is required")
		return
	}

	if err := h.service.DeleteImage(r.Context(), id, imageID); err != nil {
		slog.Error("Failed to delete image", "article_id", id.String(), "image_id", imageIDStr, "error", err)
		respondServiceError(w, r, err)
		return
	}

	slog.Info("Image deleted", "article_id", id.String(), "image_id", imageIDStr)
	render.JSON(w, r, MessageResponse{Message: "image deleted"})
}

// AttachImageHTML stores the image's html source. The body is either JSON
// {"html": "..."} or a multipart form with a "file" field.
func (h *ArticleHandler) AttachImageHTML(w http.ResponseWriter, r *http.Request) {
	id, imageID, ok := parseImageParams(w, r)
	if !ok {
		return
	}

	html, ok := readHTMLBody(w, r)
	if !ok {
		return
	}

	image, err := h.service.AttachImageHTML(r.Context(), id, imageID, html)
	if err != nil {
		slog.Error("Failed to attach image html", "image_id", imageID.String(), "error", err)
		respondServiceError(w, r, err)
		return
	}

	slog.Info("Image html attached", "image_id", imageID.String(), "path", image.HTMLStoragePath)
	render.Status(r, http.StatusCreated)
	render.JSON(w, r, toImageResponse(image))
}

// GetImageHTML returns the image's html source content
func (h *ArticleHandler) GetImageHTML(w http.ResponseWriter, r *http.Request) {
	id, imageID, ok := parseImageParams(w, r)
	if !ok {
		return
	}

	html, err := h.service.GetImageHTML(r.Context(), id, imageID)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}

	render.JSON(w, r, ImageHTMLResponse{
		ImageID:         html.ImageID.String(),
		HTMLURL:         html.HTMLURL,
		HTMLStoragePath: html.HTMLStoragePath,
		HTMLContent:     html.Content,
	})
}

// UpdateImageHTML overwrites the image's html source in place
func (h *ArticleHandler) UpdateImageHTML(w http.ResponseWriter, r *http.Request) {
	id, imageID, ok := parseImageParams(w, r)
	if !ok {
		return
	}

	html, ok := readHTMLBody(w, r)
	if !ok {
		return
	}

	image, err := h.service.UpdateImageHTML(r.Context(), id, imageID, html)
	if err != nil {
		slog.Error("Failed to update image html", "image_id", imageID.String(), "error", err)
		respondServiceError(w, r, err)
		return
	}

	slog.Info("Image html updated", "image_id", imageID.String())
	render.JSON(w, r, ImageHTMLAckResponse{
		ImageID:         imageID.String(),
		HTMLURL:         image.HTMLURL,
		HTMLStoragePath: image.HTMLStoragePath,
		Message:         "html updated",
	})
}

// RemoveImageHTML deletes the html source and clears its linkage
func (h *ArticleHandler) RemoveImageHTML(w http.ResponseWriter, r *http.Request) {
	id, imageID, ok := parseImageParams(w, r)
	if !ok {
		return
	}

	if _, err := h.service.RemoveImageHTML(r.Context(), id, imageID); err != nil {
		slog.Error("Failed to remove image html", "image_id", imageID.String(), "error", err)
		respondServiceError(w, r, err)
		return
	}

	slog.Info("Image html removed", "image_id", imageID.String())
	render.JSON(w, r, MessageResponse{Message: "html removed"})
}

func parseImageParams(w http.ResponseWriter, r *http.Request) (uuid.UUID, uuid.UUID, bool) {
	id, ok := parseIDParam(w, r, "id")
	if !ok {
		return uuid.Nil, uuid.Nil, false
	}
	imageID, ok := parseIDParam(w, r, "imageID")
	if !ok {
		return uuid.Nil, uuid.Nil, false
	}
	return id, imageID, true
}

// readHTMLBody resolves the two accepted html payload encodings at the edge
// so the service sees a plain string either way.
func readHTMLBody(w http.ResponseWriter, r *http.Request) (string, bool) {
	contentType := r.Header.Get("Content-Type")

	if strings.HasPrefix(contentType, "multipart/form-data") {
		if err := r.ParseMultipartForm(maxUploadMemory); err != nil {
			respondError(w, r, http.StatusBadRequest, "invalid_request", err.Error())
			return "", false
		}
		file, _, err := r.FormFile("file")
		if err != nil {
			respondError(w, r, http.StatusBadRequest, "validation_error", "file is required")
			return "", false
		}
		defer file.Close()
		data, err := io.ReadAll(file)
		if err != nil {
			respondError(w, r, http.StatusBadRequest, "invalid_request", err.Error())
			return "", false
		}
		if len(data) == 0 {
			respondError(w, r, http.StatusBadRequest, "validation_error", "html content is required")
			return "", false
		}
		return string(data), true
	}

	var body struct {
		HTML string `json:"html"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		respondError(w, r, http.StatusBadRequest, "invalid_request", err.Error())
		return "", false
	}
	if body.HTML == "" {
		respondError(w, r, http.StatusBadRequest, "validation_error", "html content is required")
		return "", false
	}
	return body.HTML, true
}

// MediaHandler streams stored blobs back over the application routes that
// the stored image and html URLs point at.
type MediaHandler struct {
	service simplearticle.Service
}

// NewMediaHandler creates a new media handler
func NewMediaHandler(service simplearticle.Service) *MediaHandler {
	return &MediaHandler{service: service}
}

// Routes returns the routes for serving blobs
func (h *MediaHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/*", h.ServeBlob)
	return r
}

// ServeBlob streams the blob at the wildcard path
func (h *MediaHandler) ServeBlob(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "*")
	if key == "" {
		respondError(w, r, http.StatusBadRequest, "invalid_request", "blob path is required")
		return
	}

	reader, contentType, err := h.service.OpenBlob(r.Context(), key)
	if err != nil {
		if errors.Is(err, simplearticle.ErrBlobNotFound) {
			respondError(w, r, http.StatusNotFound, "blob_not_found", "blob not found")
			return
		}
		slog.Error("Failed to open blob", "key", key, "error", err)
		respondServiceError(w, r, err)
		return
	}
	defer reader.Close()

	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Cache-Control", "public, max-age=31536000, immutable")
	if _, err := io.Copy(w, reader); err != nil {
		slog.Warn("Blob stream interrupted", "key", key, "error", err)
	}
}
