package service

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"example.com/textile/erp/internal/api"
	"example.com/textile/erp/internal/appctx"
	"example.com/textile/erp/internal/search"
)

// Search types accepted by the search endpoint
const (
	SearchProductionOrder = "production_order"
	SearchDispatch        = "dispatch"
)

const searchSize = 20

// SearchHit is one search result
type SearchHit struct {
	Type     string                 `json:"type"`
	Document map[string]interface{} `json:"document"`
}

// SearchService runs full-text searches scoped to the caller's tenant
type SearchService interface {
	Search(ctx context.Context, query, kind string) ([]SearchHit, error)
}

type searchService struct {
	index search.Indexer
}

// NewSearchService creates a new search service
func NewSearchService(index search.Indexer) SearchService {
	return &searchService{index: index}
}

// Search queries one index, or both when kind is empty
func (s *searchService) Search(ctx context.Context, query, kind string) ([]SearchHit, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, api.NewValidationError("q is required")
	}

	var kinds []string
	switch kind {
	case "":
		kinds = []string{SearchProductionOrder, SearchDispatch}
	case SearchProductionOrder, SearchDispatch:
		kinds = []string{kind}
	default:
		return nil, api.NewValidationError("type must be one of production_order, dispatch")
	}

	hits := []SearchHit{}
	for _, k := range kinds {
		index := search.IndexProductionOrders
		if k == SearchDispatch {
			index = search.IndexDispatches
		}
		docs, err := s.index.Search(ctx, appctx.TenantID(ctx), index, query, searchSize)
		if err != nil {
			if errors.Is(err, search.ErrDisabled) {
				return nil, api.NewError("search is not available", http.StatusServiceUnavailable, "SERVICE_UNAVAILABLE")
			}
			return nil, err
		}
		for _, d := range docs {
			hits = append(hits, SearchHit{Type: k, Document: d})
		}
	}
	return hits, nil
}
