package handlers

import (
	"strconv"
	"time"

	"example.com/textile/erp/internal/api"
	"example.com/textile/erp/internal/models"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// bindJSON decodes the request body into dst, writing a 400 on failure
func bindJSON(c *gin.Context, dst interface{}) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		log.Warn().Err(err).Str("path", c.FullPath()).Msg("Invalid request body")
		api.WriteError(c, api.NewValidationError("invalid request body: %s", err.Error()))
		return false
	}
	return true
}

// bindOptionalJSON is bindJSON for endpoints whose body may be empty
func bindOptionalJSON(c *gin.Context, dst interface{}) bool {
	if c.Request.ContentLength == 0 {
		return true
	}
	return bindJSON(c, dst)
}

// pathID parses a uuid path parameter
func pathID(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		api.WriteError(c, api.NewValidationError("invalid %s", name))
		return uuid.Nil, false
	}
	return id, true
}

// queryID parses an optional uuid query parameter
func queryID(c *gin.Context, name string) (*uuid.UUID, bool) {
	raw := c.Query(name)
	if raw == "" {
		return nil, true
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		api.WriteError(c, api.NewValidationError("invalid %s", name))
		return nil, false
	}
	return &id, true
}

// queryTime parses an optional date (2006-01-02) or RFC 3339 timestamp
func queryTime(c *gin.Context, name string) (*time.Time, bool) {
	raw := c.Query(name)
	if raw == "" {
		return nil, true
	}
	for _, layout := range []string{"2006-01-02", time.RFC3339} {
		if t, err := time.Parse(layout, raw); err == nil {
			t = t.UTC()
			return &t, true
		}
	}
	api.WriteError(c, api.NewValidationError("invalid %s, expected YYYY-MM-DD or RFC 3339", name))
	return nil, false
}

// queryBool parses an optional boolean query parameter
func queryBool(c *gin.Context, name string) (*bool, bool) {
	raw := c.Query(name)
	if raw == "" {
		return nil, true
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		api.WriteError(c, api.NewValidationError("invalid %s", name))
		return nil, false
	}
	return &v, true
}

// queryPage reads page and page_size
func queryPage(c *gin.Context) (models.Page, bool) {
	var page models.Page
	for name, dst := range map[string]*int{"page": &page.Page, "page_size": &page.PageSize} {
		raw := c.Query(name)
		if raw == "" {
			continue
		}
		n, err := strconv.Atoi(raw)
		if err != nil {
			api.WriteError(c, api.NewValidationError("invalid %s", name))
			return models.Page{}, false
		}
		*dst = n
	}
	return page.Normalize(), true
}

// list writes items with the paging metadata of page
func list(c *gin.Context, items interface{}, page models.Page, total int64) {
	api.List(c, items, page.Page, page.PageSize, total)
}
