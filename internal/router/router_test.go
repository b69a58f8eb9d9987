package router

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/actuallystonmai/taste-service/internal/domain"
	"github.com/actuallystonmai/taste-service/internal/handler"
	"github.com/actuallystonmai/taste-service/internal/service"
)

type nopService struct{}

func (nopService) Catalog(ctx context.Context, req service.CatalogRequest, catalogID string) ([]domain.RankedItem, error) {
	return nil, nil
}

func (nopService) CatalogBatch(ctx context.Context, req service.CatalogRequest) (*domain.BatchResponse, error) {
	return &domain.BatchResponse{UserID: req.UserID}, nil
}

func (nopService) InvalidateUser(ctx context.Context, userID string) error { return nil }

func TestHealthAndMetrics(t *testing.T) {
	srv := Setup(handler.NewHandler(nopService{}, nil), Config{})

	for _, path := range []string{"/health", "/ready", "/metrics"} {
		rec := httptest.NewRecorder()
		srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		if rec.Code != http.StatusOK {
			t.Errorf("%s: expected 200, got %d", path, rec.Code)
		}
	}

	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if !strings.Contains(rec.Body.String(), "http_requests_total") {
		t.Error("expected request counter in metrics output")
	}
}

func TestRateLimitAppliesToAPIRoutes(t *testing.T) {
	srv := Setup(handler.NewHandler(nopService{}, nil), Config{RateLimitRequests: 2, RateLimitWindow: time.Minute})

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodDelete, "/users/u1/cache", nil)
		req.RemoteAddr = "10.0.0.1:1234"
		rec := httptest.NewRecorder()
		srv.ServeHTTP(rec, req)
		codes = append(codes, rec.Code)
	}
	if codes[0] != http.StatusNoContent || codes[1] != http.StatusNoContent || codes[2] != http.StatusTooManyRequests {
		t.Errorf("expected 204, 204, 429, got %v", codes)
	}

	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodGet, "/health", nil)
		req.RemoteAddr = "10.0.0.1:1234"
		rec := httptest.NewRecorder()
		srv.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("health must not be rate limited, got %d", rec.Code)
		}
	}
}
