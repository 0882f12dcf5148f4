package middleware

import (
	"net/http"
	"strings"

	"example.com/textile/erp/internal/api"
	"example.com/textile/erp/internal/appctx"
	"example.com/textile/erp/internal/auth"
	"example.com/textile/erp/internal/models"
	"example.com/textile/erp/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/newrelic/go-agent/v3/integrations/nrgin"
	"github.com/newrelic/go-agent/v3/newrelic"
	"github.com/rs/zerolog/log"
)

// ClaimsKey is the gin context key of the verified token claims
const ClaimsKey = "claims"

var errMissingToken = api.NewError("Authorization header required, expected 'Bearer {token}'", http.StatusUnauthorized, "UNAUTHORIZED")

// Authenticate validates the bearer access token and scopes the request to
// the token's tenant and user
func Authenticate(authService service.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := bearerToken(c.GetHeader("Authorization"))
		if !ok {
			api.WriteError(c, errMissingToken)
			return
		}

		claims, err := authService.Authenticate(c.Request.Context(), token)
		if err != nil {
			log.Warn().Err(err).Str("request_id", RequestID(c)).Msg("Rejected access token")
			api.WriteError(c, err)
			return
		}

		ctx := appctx.WithTenant(c.Request.Context(), claims.TenantID)
		ctx = appctx.WithUser(ctx, claims.UserID, claims.Username)
		if txn := nrgin.Transaction(c); txn != nil {
			ctx = newrelic.NewContext(ctx, txn)
		}
		c.Request = c.Request.WithContext(ctx)
		c.Set(ClaimsKey, claims)

		c.Next()
	}
}

// RequirePermission aborts with 403 unless the token grants permission
func RequirePermission(permission string) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims := Claims(c)
		if claims == nil || !models.HasPermission(claims.Permissions, permission) {
			api.WriteError(c, api.NewError("missing permission "+permission, http.StatusForbidden, "FORBIDDEN"))
			return
		}
		c.Next()
	}
}

// Claims returns the claims stored by Authenticate, nil when absent
func Claims(c *gin.Context) *auth.Claims {
	v, ok := c.Get(ClaimsKey)
	if !ok {
		return nil
	}
	claims, _ := v.(*auth.Claims)
	return claims
}

func bearerToken(header string) (string, bool) {
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", false
	}
	token := strings.TrimSpace(parts[1])
	return token, token != ""
}
