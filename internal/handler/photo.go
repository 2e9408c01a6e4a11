package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/photoshare/photoshare/internal/auth"
	"github.com/photoshare/photoshare/internal/service"
)

// PhotoHandler handles HTTP requests for photo posting.
type PhotoHandler struct {
	svc    *service.PhotoService
	logger *slog.Logger
}

// NewPhotoHandler creates a new PhotoHandler.
func NewPhotoHandler(svc *service.PhotoService, logger *slog.Logger) *PhotoHandler {
	return &PhotoHandler{svc: svc, logger: logger}
}

// postPhotoRequest is the body of POST /api/photos.
type postPhotoRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Category    string `json:"category"`
}

// photoResponse is the stored photo as returned to clients: canonical id and
// derived url alongside the stored fields.
type photoResponse struct {
	ID          string `json:"id"`
	URL         string `json:"url"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Category    string `json:"category"`
	PostedBy    string `json:"postedBy"`
	Created     string `json:"created"`
}

// Post handles POST /api/photos.
func (h *PhotoHandler) Post(w http.ResponseWriter, r *http.Request) {
	var req postPhotoRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_JSON", "Invalid request body")
		return
	}

	photo, err := h.svc.PostPhoto(r.Context(), auth.IdentityFromContext(r.Context()), service.PostPhotoInput{
		Name:        req.Name,
		Description: req.Description,
		Category:    req.Category,
	})
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	h.logger.Info("photo_posted",
		"photo_id", photo.CanonicalID(),
		"posted_by", photo.UserID,
		"category", photo.Category,
	)

	writeJSON(w, http.StatusCreated, photoResponse{
		ID:          photo.CanonicalID(),
		URL:         photo.URL(),
		Name:        photo.Name,
		Description: photo.Description,
		Category:    string(photo.Category),
		PostedBy:    photo.UserID,
		Created:     photo.Created.Format(time.RFC3339),
	})
}

func (h *PhotoHandler) handleServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, service.ErrUnauthorized):
		writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Authentication required")
	case errors.Is(err, service.ErrNameRequired):
		writeError(w, http.StatusBadRequest, "VALIDATION_REJECTED", "Photo name is required")
	case errors.Is(err, service.ErrInvalidCategory):
		writeError(w, http.StatusBadRequest, "VALIDATION_REJECTED", "Unknown photo category")
	case errors.Is(err, service.ErrTimeout):
		writeError(w, http.StatusGatewayTimeout, "TIMEOUT", "Downstream operation timed out")
	default:
		h.logger.Error("internal_error", "error", err)
		writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "An internal error occurred")
	}
}
