package service

import (
	"testing"

	"example.com/textile/erp/internal/api"
	"example.com/textile/erp/internal/search"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSearch(t *testing.T) {
	ctx, _ := tenantContext()
	index := &stubIndexer{docs: []map[string]interface{}{{"order_number": "PO-1"}}}
	svc := NewSearchService(index)

	hits, err := svc.Search(ctx, "voile", "")
	require.NoError(t, err)
	require.Len(t, hits, 2)
	assert.Equal(t, SearchProductionOrder, hits[0].Type)
	assert.Equal(t, SearchDispatch, hits[1].Type)

	hits, err = svc.Search(ctx, "voile", SearchDispatch)
	require.NoError(t, err)
	assert.Len(t, hits, 1)
}

func TestSearchErrors(t *testing.T) {
	ctx, _ := tenantContext()

	tests := []struct {
		name       string
		index      *stubIndexer
		query      string
		kind       string
		wantStatus int
	}{
		{name: "empty query", index: &stubIndexer{}, query: "  ", wantStatus: 400},
		{name: "unknown type", index: &stubIndexer{}, query: "x", kind: "invoice", wantStatus: 400},
		{name: "search disabled", index: &stubIndexer{err: search.ErrDisabled}, query: "x", wantStatus: 503},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewSearchService(tt.index).Search(ctx, tt.query, tt.kind)
			require.Error(t, err)
			assert.Equal(t, tt.wantStatus, api.AsError(err).StatusCode)
		})
	}
}

func TestDocumentNumber(t *testing.T) {
	n := documentNumber("PO", fixedNow)
	assert.Regexp(t, `^PO-20260418-[0-9A-F]{6}$`, n)
	assert.NotEqual(t, n, documentNumber("PO", fixedNow))
}
