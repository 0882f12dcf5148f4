package middleware

import (
	"example.com/textile/erp/internal/appctx"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/newrelic/go-agent/v3/integrations/nrgin"
	"github.com/newrelic/go-agent/v3/newrelic"
)

// attributeAdder is the part of *newrelic.Transaction the middleware uses
type attributeAdder interface {
	AddAttribute(key string, val interface{})
}

// NewRelicMiddleware starts a New Relic transaction per request and, once the
// handlers have run, tags it with the matched route and the request's tenant.
// Register the returned handlers in order.
func NewRelicMiddleware(app *newrelic.Application) []gin.HandlerFunc {
	return []gin.HandlerFunc{
		nrgin.Middleware(app),
		annotateTransaction(func(c *gin.Context) attributeAdder {
			if txn := nrgin.Transaction(c); txn != nil {
				return txn
			}
			return nil
		}),
	}
}

func annotateTransaction(transaction func(*gin.Context) attributeAdder) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		txn := transaction(c)
		if txn == nil {
			return
		}
		if route := c.FullPath(); route != "" {
			txn.AddAttribute("route", route)
		}
		if id := RequestID(c); id != "" {
			txn.AddAttribute("request_id", id)
		}
		ctx := c.Request.Context()
		if tenantID := appctx.TenantID(ctx); tenantID != uuid.Nil {
			txn.AddAttribute("tenant_id", tenantID.String())
		}
		if userID := appctx.UserID(ctx); userID != uuid.Nil {
			txn.AddAttribute("user_id", userID.String())
		}
	}
}
