// Package appctx carries the authenticated principal through request contexts.
package appctx

import (
	"context"

	"github.com/google/uuid"
)

type contextKey string

const (
	tenantKey    contextKey = "tenant_id"
	userKey      contextKey = "user_id"
	usernameKey  contextKey = "username"
	skipScopeKey contextKey = "skip_tenant_scope"
)

// WithTenant returns a context scoped to the given tenant
func WithTenant(ctx context.Context, tenantID uuid.UUID) context.Context {
	return context.WithValue(ctx, tenantKey, tenantID)
}

// TenantID returns the tenant stored in ctx, or uuid.Nil
func TenantID(ctx context.Context) uuid.UUID {
	if v, ok := ctx.Value(tenantKey).(uuid.UUID); ok {
		return v
	}
	return uuid.Nil
}

// WithUser stores the acting user on ctx
func WithUser(ctx context.Context, userID uuid.UUID, username string) context.Context {
	ctx = context.WithValue(ctx, userKey, userID)
	return context.WithValue(ctx, usernameKey, username)
}

// UserID returns the acting user stored in ctx, or uuid.Nil
func UserID(ctx context.Context) uuid.UUID {
	if v, ok := ctx.Value(userKey).(uuid.UUID); ok {
		return v
	}
	return uuid.Nil
}

// Username returns the acting username, "system" when none is set
func Username(ctx context.Context) string {
	if v, ok := ctx.Value(usernameKey).(string); ok && v != "" {
		return v
	}
	return "system"
}

// WithoutTenantScope marks ctx so the tenant guard leaves queries unscoped.
// Used by the worker and by login, which resolve tenants themselves.
func WithoutTenantScope(ctx context.Context) context.Context {
	return context.WithValue(ctx, skipScopeKey, true)
}

// SkipTenantScope reports whether ctx bypasses the tenant guard
func SkipTenantScope(ctx context.Context) bool {
	v, ok := ctx.Value(skipScopeKey).(bool)
	return ok && v
}
