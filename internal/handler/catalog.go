package handler

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/goccy/go-json"

	"github.com/actuallystonmai/taste-service/internal/domain"
	"github.com/actuallystonmai/taste-service/internal/provider"
	"github.com/actuallystonmai/taste-service/internal/service"
)

const (
	maxBodyBytes   = 4 << 20
	maxCatalogIDs  = 20
	maxUserIDBytes = 128
)

// POST /users/{userID}/catalogs/{catalogID}
func (h *Handler) GetCatalog(w http.ResponseWriter, r *http.Request) {
	userID, ok := userParam(w, r)
	if !ok {
		return
	}
	catalogID := strings.TrimSpace(chi.URLParam(r, "catalogID"))
	if catalogID == "" {
		writeError(w, http.StatusBadRequest, "invalid_parameter", "Invalid catalog_id parameter")
		return
	}
	body, ok := decodeBody(w, r)
	if !ok {
		return
	}

	items, err := h.service.Catalog(r.Context(), toRequest(userID, body), catalogID)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	if items == nil {
		items = []domain.RankedItem{}
	}

	writeJSON(w, http.StatusOK, RowResponse{
		UserID:    userID,
		CatalogID: catalogID,
		Items:     items,
		Metadata: RowMeta{
			GeneratedAt: time.Now().UTC().Format(time.RFC3339),
			TotalCount:  len(items),
		},
	})
}

// POST /users/{userID}/catalogs
func (h *Handler) GetCatalogBatch(w http.ResponseWriter, r *http.Request) {
	userID, ok := userParam(w, r)
	if !ok {
		return
	}
	body, ok := decodeBody(w, r)
	if !ok {
		return
	}
	if len(body.CatalogIDs) == 0 || len(body.CatalogIDs) > maxCatalogIDs {
		writeError(w, http.StatusBadRequest, "invalid_parameter",
			fmt.Sprintf("catalog_ids must hold between 1 and %d ids", maxCatalogIDs))
		return
	}

	resp, err := h.service.CatalogBatch(r.Context(), toRequest(userID, body))
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// DELETE /users/{userID}/cache
func (h *Handler) InvalidateUser(w http.ResponseWriter, r *http.Request) {
	userID, ok := userParam(w, r)
	if !ok {
		return
	}
	if err := h.service.InvalidateUser(r.Context(), userID); err != nil {
		h.log.Error().Err(err).Str("user", userID).Msg("cache invalidation failed")
		writeError(w, http.StatusInternalServerError, "internal_error", "An unexpected error occurred")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func userParam(w http.ResponseWriter, r *http.Request) (string, bool) {
	userID := strings.TrimSpace(chi.URLParam(r, "userID"))
	if userID == "" || len(userID) > maxUserIDBytes || strings.ContainsAny(userID, ":*") {
		writeError(w, http.StatusBadRequest, "invalid_parameter", "Invalid user_id parameter")
		return "", false
	}
	return userID, true
}

func decodeBody(w http.ResponseWriter, r *http.Request) (CatalogBody, bool) {
	var body CatalogBody
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_body", "Request body must be a JSON catalog request")
		return body, false
	}
	if !body.ContentType.Valid() {
		writeError(w, http.StatusBadRequest, "invalid_parameter", "content_type must be movie or series")
		return body, false
	}
	return body, true
}

func toRequest(userID string, body CatalogBody) service.CatalogRequest {
	return service.CatalogRequest{
		UserID:         userID,
		ContentType:    body.ContentType,
		CatalogIDs:     body.CatalogIDs,
		Library:        body.Library,
		ExcludedGenres: body.ExcludedGenres,
	}
}

func (h *Handler) writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrUnsupportedContentType):
		writeError(w, http.StatusBadRequest, "unsupported_content_type", "content_type must be movie or series")
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		writeError(w, http.StatusServiceUnavailable, "request_timeout", "Request timed out, please try again")
	case provider.IsUpstreamError(err):
		h.log.Warn().Err(err).Msg("catalog upstream failure")
		writeError(w, http.StatusServiceUnavailable, "upstream_error", "Metadata provider unavailable, please try again")
	default:
		h.log.Error().Err(err).Msg("catalog request failed")
		writeError(w, http.StatusInternalServerError, "internal_error", "An unexpected error occurred")
	}
}
