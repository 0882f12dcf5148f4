package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"example.com/textile/erp/internal/appctx"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

type recordedAttributes map[string]interface{}

func (r recordedAttributes) AddAttribute(key string, val interface{}) {
	r[key] = val
}

func TestAnnotateTransaction(t *testing.T) {
	gin.SetMode(gin.TestMode)
	tenantID := uuid.New()
	userID := uuid.New()

	tests := []struct {
		name   string
		scoped bool
		want   recordedAttributes
	}{
		{
			name:   "authenticated request",
			scoped: true,
			want: recordedAttributes{
				"route":      "/orders/:id",
				"request_id": "req-1",
				"tenant_id":  tenantID.String(),
				"user_id":    userID.String(),
			},
		},
		{
			name: "anonymous request",
			want: recordedAttributes{
				"route":      "/orders/:id",
				"request_id": "req-1",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := recordedAttributes{}
			r := gin.New()
			r.Use(RequestIDMiddleware())
			r.Use(annotateTransaction(func(*gin.Context) attributeAdder { return got }))
			r.GET("/orders/:id", func(c *gin.Context) {
				if tt.scoped {
					ctx := appctx.WithTenant(c.Request.Context(), tenantID)
					c.Request = c.Request.WithContext(appctx.WithUser(ctx, userID, "asha"))
				}
				c.Status(http.StatusOK)
			})

			req := httptest.NewRequest(http.MethodGet, "/orders/42", nil)
			req.Header.Set(RequestIDHeader, "req-1")
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			assert.Equal(t, http.StatusOK, w.Code)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestAnnotateTransactionWithoutTransaction(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(annotateTransaction(func(*gin.Context) attributeAdder { return nil }))
	r.GET("/health", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, w.Code)
}
