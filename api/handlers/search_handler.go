package handlers

import (
	"net/http"

	"example.com/textile/erp/api/middleware"
	"example.com/textile/erp/internal/api"
	"example.com/textile/erp/internal/models"
	"example.com/textile/erp/internal/service"

	"github.com/gin-gonic/gin"
)

// searchPermissions is the permission each search type requires
var searchPermissions = []struct {
	kind       string
	permission string
}{
	{service.SearchProductionOrder, models.PermissionProductionRead},
	{service.SearchDispatch, models.PermissionDispatchRead},
}

// SearchHandler serves full-text search
type SearchHandler struct {
	service service.SearchService
}

// NewSearchHandler creates a new SearchHandler instance
func NewSearchHandler(svc service.SearchService) *SearchHandler {
	return &SearchHandler{service: svc}
}

// Search handles GET /search?q&type. Only indexes the caller may read are
// searched; without a type that is every permitted index.
func (h *SearchHandler) Search(c *gin.Context) {
	kind, ok := permittedSearchKind(c, c.Query("type"))
	if !ok {
		return
	}
	hits, err := h.service.Search(c.Request.Context(), c.Query("q"), kind)
	if err != nil {
		api.WriteError(c, err)
		return
	}
	api.OK(c, hits)
}

// permittedSearchKind narrows the requested type to what the caller's
// permissions allow. It writes a 403 and returns false when nothing is left.
func permittedSearchKind(c *gin.Context, requested string) (string, bool) {
	var granted []string
	if claims := middleware.Claims(c); claims != nil {
		granted = claims.Permissions
	}

	var allowed []string
	for _, sp := range searchPermissions {
		if requested != "" && requested != sp.kind {
			continue
		}
		if models.HasPermission(granted, sp.permission) {
			allowed = append(allowed, sp.kind)
		}
	}

	switch {
	case requested != "" && len(allowed) == 0:
		for _, sp := range searchPermissions {
			if sp.kind == requested {
				api.WriteError(c, api.NewError("missing permission "+sp.permission, http.StatusForbidden, "FORBIDDEN"))
				return "", false
			}
		}
		// unknown types are rejected by the service
		return requested, true
	case len(allowed) == 0:
		api.WriteError(c, api.NewError("no searchable index is permitted", http.StatusForbidden, "FORBIDDEN"))
		return "", false
	case requested == "" && len(allowed) == len(searchPermissions):
		return "", true
	default:
		return allowed[0], true
	}
}
