package handler_test

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/goccy/go-json"

	"github.com/actuallystonmai/taste-service/internal/domain"
	"github.com/actuallystonmai/taste-service/internal/handler"
	"github.com/actuallystonmai/taste-service/internal/provider"
	"github.com/actuallystonmai/taste-service/internal/service"
)

type stubService struct {
	lastReq     service.CatalogRequest
	lastCatalog string
	items       []domain.RankedItem
	err         error
	invalidated string
}

func (s *stubService) Catalog(ctx context.Context, req service.CatalogRequest, catalogID string) ([]domain.RankedItem, error) {
	s.lastReq, s.lastCatalog = req, catalogID
	return s.items, s.err
}

func (s *stubService) CatalogBatch(ctx context.Context, req service.CatalogRequest) (*domain.BatchResponse, error) {
	s.lastReq = req
	if s.err != nil {
		return nil, s.err
	}
	resp := &domain.BatchResponse{UserID: req.UserID}
	for _, id := range req.CatalogIDs {
		resp.Rows = append(resp.Rows, domain.RowResult{CatalogID: id, Items: s.items, Status: domain.StatusSuccess})
	}
	resp.Summary.SuccessCount = len(resp.Rows)
	return resp, nil
}

func (s *stubService) InvalidateUser(ctx context.Context, userID string) error {
	s.invalidated = userID
	return s.err
}

func newServer(svc handler.CatalogService, checks map[string]handler.Check) http.Handler {
	h := handler.NewHandler(svc, checks)
	r := chi.NewRouter()
	r.Get("/health", h.Health)
	r.Get("/ready", h.Ready)
	r.Post("/users/{userID}/catalogs", h.GetCatalogBatch)
	r.Post("/users/{userID}/catalogs/{catalogID}", h.GetCatalog)
	r.Delete("/users/{userID}/cache", h.InvalidateUser)
	return r
}

func do(t *testing.T, srv http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	return rec
}

const rowBody = `{"content_type":"movie","library":{"loved":[{"id":"tmdb:1","type":"movie"}]}}`

func TestGetCatalog(t *testing.T) {
	svc := &stubService{items: []domain.RankedItem{{CandidateItem: domain.CandidateItem{ID: 7}, Score: 0.9}}}
	rec := do(t, newServer(svc, nil), http.MethodPost, "/users/u1/catalogs/tmdb.rec", rowBody)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var resp handler.RowResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp.CatalogID != "tmdb.rec" || resp.Metadata.TotalCount != 1 || resp.Items[0].ID != 7 {
		t.Errorf("unexpected response %+v", resp)
	}
	if svc.lastReq.UserID != "u1" || len(svc.lastReq.Library.Loved) != 1 {
		t.Errorf("request not forwarded: %+v", svc.lastReq)
	}
}

func TestGetCatalogEmptyRowIsArray(t *testing.T) {
	rec := do(t, newServer(&stubService{}, nil), http.MethodPost, "/users/u1/catalogs/unknown", rowBody)
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"items":[]`) {
		t.Errorf("expected empty items array, got %d %s", rec.Code, rec.Body.String())
	}
}

func TestGetCatalogRejectsBadInput(t *testing.T) {
	srv := newServer(&stubService{}, nil)
	cases := []struct {
		name, path, body string
	}{
		{"malformed body", "/users/u1/catalogs/tmdb.rec", "{"},
		{"bad content type", "/users/u1/catalogs/tmdb.rec", `{"content_type":"podcast"}`},
		{"wildcard user", "/users/u*/catalogs/tmdb.rec", rowBody},
	}
	for _, tc := range cases {
		if rec := do(t, srv, http.MethodPost, tc.path, tc.body); rec.Code != http.StatusBadRequest {
			t.Errorf("%s: expected 400, got %d", tc.name, rec.Code)
		}
	}
}

func TestServiceErrorMapping(t *testing.T) {
	cases := []struct {
		err  error
		code int
	}{
		{domain.ErrUnsupportedContentType, http.StatusBadRequest},
		{context.DeadlineExceeded, http.StatusServiceUnavailable},
		{fmt.Errorf("source: %w", &provider.UpstreamError{Op: "discover", Err: errors.New("down")}), http.StatusServiceUnavailable},
		{errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		rec := do(t, newServer(&stubService{err: tc.err}, nil), http.MethodPost, "/users/u1/catalogs/tmdb.rec", rowBody)
		if rec.Code != tc.code {
			t.Errorf("%v: expected %d, got %d", tc.err, tc.code, rec.Code)
		}
	}

	upstream := &provider.UpstreamError{Op: "find tt1", Err: errors.New("down")}
	rec := do(t, newServer(&stubService{err: upstream}, nil), http.MethodPost, "/users/u1/catalogs/tmdb.rec", rowBody)
	if !strings.Contains(rec.Body.String(), `"error":"upstream_error"`) {
		t.Errorf("expected upstream_error code, got %s", rec.Body.String())
	}
}

func TestGetCatalogBatch(t *testing.T) {
	svc := &stubService{}
	body := `{"content_type":"series","catalog_ids":["tmdb.rec","tmdb.top"],"library":{}}`
	rec := do(t, newServer(svc, nil), http.MethodPost, "/users/u2/catalogs", body)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var resp domain.BatchResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp.UserID != "u2" || len(resp.Rows) != 2 || resp.Summary.SuccessCount != 2 {
		t.Errorf("unexpected batch %+v", resp)
	}
	if svc.lastReq.ContentType != domain.ContentSeries {
		t.Errorf("expected series request, got %q", svc.lastReq.ContentType)
	}
}

func TestGetCatalogBatchRequiresIDs(t *testing.T) {
	srv := newServer(&stubService{}, nil)
	if rec := do(t, srv, http.MethodPost, "/users/u2/catalogs", `{"content_type":"movie"}`); rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400 without catalog ids, got %d", rec.Code)
	}
	ids := make([]string, 21)
	for i := range ids {
		ids[i] = `"tmdb.rec"`
	}
	body := `{"content_type":"movie","catalog_ids":[` + strings.Join(ids, ",") + `]}`
	if rec := do(t, srv, http.MethodPost, "/users/u2/catalogs", body); rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400 above the id limit, got %d", rec.Code)
	}
}

func TestInvalidateUser(t *testing.T) {
	svc := &stubService{}
	rec := do(t, newServer(svc, nil), http.MethodDelete, "/users/u3/cache", "")
	if rec.Code != http.StatusNoContent || svc.invalidated != "u3" {
		t.Errorf("expected 204 for u3, got %d (%q)", rec.Code, svc.invalidated)
	}
}

func TestReady(t *testing.T) {
	ok := func(context.Context) error { return nil }
	down := func(context.Context) error { return errors.New("down") }

	rec := do(t, newServer(&stubService{}, map[string]handler.Check{"postgres": ok, "redis": ok}), http.MethodGet, "/ready", "")
	if rec.Code != http.StatusOK {
		t.Errorf("expected 200 when all checks pass, got %d", rec.Code)
	}

	rec = do(t, newServer(&stubService{}, map[string]handler.Check{"postgres": ok, "redis": down}), http.MethodGet, "/ready", "")
	if rec.Code != http.StatusServiceUnavailable || !strings.Contains(rec.Body.String(), `"redis":"unavailable"`) {
		t.Errorf("expected 503 with redis unavailable, got %d %s", rec.Code, rec.Body.String())
	}
}
