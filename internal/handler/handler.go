// Package handler exposes catalog rows over HTTP.
package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"

	"github.com/actuallystonmai/taste-service/internal/domain"
	"github.com/actuallystonmai/taste-service/internal/logging"
	"github.com/actuallystonmai/taste-service/internal/service"
)

// CatalogService is the slice of the service the handlers call.
type CatalogService interface {
	Catalog(ctx context.Context, req service.CatalogRequest, catalogID string) ([]domain.RankedItem, error)
	CatalogBatch(ctx context.Context, req service.CatalogRequest) (*domain.BatchResponse, error)
	InvalidateUser(ctx context.Context, userID string) error
}

// Check reports whether a dependency is reachable.
type Check func(ctx context.Context) error

type Handler struct {
	service CatalogService
	checks  map[string]Check
	log     zerolog.Logger
}

func NewHandler(svc CatalogService, checks map[string]Check) *Handler {
	return &Handler{service: svc, checks: checks, log: logging.Component("handler")}
}

// GET /health
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// GET /ready
func (h *Handler) Ready(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	status := http.StatusOK
	results := make(map[string]string, len(h.checks))
	for name, check := range h.checks {
		if err := check(ctx); err != nil {
			h.log.Warn().Err(err).Str("check", name).Msg("readiness check failed")
			results[name] = "unavailable"
			status = http.StatusServiceUnavailable
			continue
		}
		results[name] = "ok"
	}
	writeJSON(w, status, results)
}

// write JSON response
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writes JSON error response.
func writeError(w http.ResponseWriter, status int, errCode, message string) {
	writeJSON(w, status, ErrorResponse{
		Error:   errCode,
		Message: message,
	})
}
