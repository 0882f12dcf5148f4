package database

import (
	"strings"

	"example.com/textile/erp/internal/appctx"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const tenantColumn = "tenant_id"

// ErrMissingTenant is returned for statements on tenant tables whose context
// carries neither a tenant nor an explicit bypass.
var ErrMissingTenant = errors.New("tenant scope missing from context")

// TenantGuardPlugin scopes queries, updates and deletes on tables with a
// tenant_id column to the tenant carried by the statement context.
// A statement with no tenant fails unless the context opts out with
// appctx.WithoutTenantScope. Raw SQL is not rewritten and must filter by tenant itself.
type TenantGuardPlugin struct{}

// NewTenantGuardPlugin returns the plugin for db.Use
func NewTenantGuardPlugin() *TenantGuardPlugin { return &TenantGuardPlugin{} }

// Name implements gorm.Plugin
func (p *TenantGuardPlugin) Name() string { return "tenant_guard" }

// Initialize implements gorm.Plugin
func (p *TenantGuardPlugin) Initialize(db *gorm.DB) error {
	if err := db.Callback().Query().Before("gorm:query").Register("tenant_guard:query", tenantGuardCallback); err != nil {
		return err
	}
	if err := db.Callback().Row().Before("gorm:row").Register("tenant_guard:row", tenantGuardCallback); err != nil {
		return err
	}
	if err := db.Callback().Update().Before("gorm:update").Register("tenant_guard:update", tenantGuardCallback); err != nil {
		return err
	}
	if err := db.Callback().Delete().Before("gorm:delete").Register("tenant_guard:delete", tenantGuardCallback); err != nil {
		return err
	}
	return nil
}

func tenantGuardCallback(db *gorm.DB) {
	if db == nil || db.Statement == nil || db.Statement.Context == nil {
		return
	}
	ctx := db.Statement.Context
	if appctx.SkipTenantScope(ctx) {
		return
	}
	if db.Statement.Schema == nil || db.Statement.Schema.LookUpField(tenantColumn) == nil {
		return
	}
	tenantID := appctx.TenantID(ctx)
	if tenantID == uuid.Nil {
		_ = db.AddError(ErrMissingTenant)
		return
	}
	if whereHasTenant(db.Statement.Clauses["WHERE"]) {
		return
	}

	db.Statement.AddClause(clause.Where{
		Exprs: []clause.Expression{
			clause.Eq{
				Column: clause.Column{Table: db.Statement.Table, Name: tenantColumn},
				Value:  tenantID,
			},
		},
	})
}

func whereHasTenant(c clause.Clause) bool {
	w, ok := c.Expression.(clause.Where)
	if !ok {
		return false
	}
	for _, e := range w.Exprs {
		switch expr := e.(type) {
		case clause.Eq:
			if col, ok := expr.Column.(clause.Column); ok && strings.EqualFold(col.Name, tenantColumn) {
				return true
			}
		case clause.Expr:
			if strings.Contains(strings.ToLower(expr.SQL), tenantColumn) {
				return true
			}
		}
	}
	return false
}
