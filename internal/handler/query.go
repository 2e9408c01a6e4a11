package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/photoshare/photoshare/internal/auth"
	"github.com/photoshare/photoshare/internal/resolver"
)

// QueryHandler serves the read surface: selection documents resolved against
// the store.
type QueryHandler struct {
	resolver *resolver.Resolver
	logger   *slog.Logger
}

// NewQueryHandler creates a new QueryHandler.
func NewQueryHandler(r *resolver.Resolver, logger *slog.Logger) *QueryHandler {
	return &QueryHandler{resolver: r, logger: logger}
}

// Query handles POST /api/query.
func (h *QueryHandler) Query(w http.ResponseWriter, r *http.Request) {
	doc, err := resolver.ParseDocument(r.Body)
	if err != nil {
		var verr *resolver.ValidationError
		if errors.As(err, &verr) {
			writeError(w, http.StatusBadRequest, "VALIDATION_REJECTED", verr.Message)
			return
		}
		writeError(w, http.StatusBadRequest, "INVALID_JSON", "Invalid request body")
		return
	}

	result, err := h.resolver.Execute(r.Context(), doc, auth.IdentityFromContext(r.Context()))
	if err != nil {
		var verr *resolver.ValidationError
		if errors.As(err, &verr) {
			writeError(w, http.StatusBadRequest, "VALIDATION_REJECTED", verr.Message)
			return
		}
		h.logger.Error("query execution failed", "error", err)
		writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "An internal error occurred")
		return
	}

	writeJSON(w, http.StatusOK, result)
}
