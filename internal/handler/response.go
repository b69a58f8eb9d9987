package handler

import "github.com/actuallystonmai/taste-service/internal/domain"

// CatalogBody is the request body shared by the catalog endpoints.
type CatalogBody struct {
	ContentType    domain.ContentType `json:"content_type"`
	CatalogIDs     []string           `json:"catalog_ids,omitempty"`
	Library        domain.Library     `json:"library"`
	ExcludedGenres []int              `json:"excluded_genres,omitempty"`
}

type RowResponse struct {
	UserID    string              `json:"user_id"`
	CatalogID string              `json:"catalog_id"`
	Items     []domain.RankedItem `json:"items"`
	Metadata  RowMeta             `json:"metadata"`
}

type RowMeta struct {
	GeneratedAt string `json:"generated_at"`
	TotalCount  int    `json:"total_count"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}
