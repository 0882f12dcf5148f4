package cmd

import (
	"context"

	"example.com/textile/erp/internal/appctx"
	"example.com/textile/erp/internal/auth"
	"example.com/textile/erp/internal/database"
	"example.com/textile/erp/internal/models"
	"example.com/textile/erp/internal/repository"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

const adminRoleName = "admin"

var seedOpts struct {
	tenantName string
	tenantSlug string
	username   string
	password   string
}

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Create a tenant with an administrator",
	Long: `Create a tenant, an admin role holding every permission and an admin
user. Existing records are left untouched, so the command can be rerun.`,
	RunE: runSeed,
}

func init() {
	seedCmd.Flags().StringVar(&seedOpts.tenantName, "tenant", "Demo Textiles", "tenant display name")
	seedCmd.Flags().StringVar(&seedOpts.tenantSlug, "slug", "demo", "tenant slug used at login")
	seedCmd.Flags().StringVar(&seedOpts.username, "username", "admin", "administrator username")
	seedCmd.Flags().StringVar(&seedOpts.password, "password", "", "administrator password (required)")
	_ = seedCmd.MarkFlagRequired("password")
	rootCmd.AddCommand(seedCmd)
}

func runSeed(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	db, err := database.Connect(cfg.DB, nil)
	if err != nil {
		return err
	}
	defer db.Close()

	repos := repository.NewRepositories(db)
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	return repos.Tx.WithTransaction(ctx, func(ctx context.Context) error {
		tenant, err := seedTenant(ctx, repos)
		if err != nil {
			return err
		}

		ctx = appctx.WithTenant(ctx, tenant.ID)
		role, err := seedAdminRole(ctx, repos, tenant)
		if err != nil {
			return err
		}
		return seedAdminUser(ctx, repos, tenant, role, cfg.Auth.BcryptCost)
	})
}

func seedTenant(ctx context.Context, repos *repository.Repositories) (*models.Tenant, error) {
	tenant, err := repos.Tenants.FindBySlug(appctx.WithoutTenantScope(ctx), seedOpts.tenantSlug)
	if err == nil {
		log.Info().Str("slug", tenant.Slug).Msg("Tenant already exists")
		return tenant, nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}

	tenant = &models.Tenant{Name: seedOpts.tenantName, Slug: seedOpts.tenantSlug, Active: true}
	if err := repos.Tenants.Create(ctx, tenant); err != nil {
		return nil, err
	}
	log.Info().Str("slug", tenant.Slug).Str("tenant_id", tenant.ID.String()).Msg("Tenant created")
	return tenant, nil
}

func seedAdminRole(ctx context.Context, repos *repository.Repositories, tenant *models.Tenant) (*models.Role, error) {
	role, err := repos.Roles.FindByName(ctx, adminRoleName)
	if err == nil {
		return role, nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}

	role = &models.Role{
		Base:        models.Base{TenantID: tenant.ID},
		Name:        adminRoleName,
		Description: "Full access to every module",
		Permissions: []string{models.PermissionAll},
	}
	if err := repos.Roles.Create(ctx, role); err != nil {
		return nil, err
	}
	log.Info().Str("role", role.Name).Msg("Admin role created")
	return role, nil
}

func seedAdminUser(ctx context.Context, repos *repository.Repositories, tenant *models.Tenant, role *models.Role, cost int) error {
	if _, err := repos.Users.FindByUsername(ctx, tenant.ID, seedOpts.username); err == nil {
		log.Info().Str("username", seedOpts.username).Msg("Admin user already exists")
		return nil
	} else if !errors.Is(err, repository.ErrNotFound) {
		return err
	}

	hash, err := auth.HashPassword(seedOpts.password, cost)
	if err != nil {
		return errors.Wrap(err, "failed to hash password")
	}

	user := &models.User{
		Base:         models.Base{TenantID: tenant.ID},
		Username:     seedOpts.username,
		FullName:     "Administrator",
		PasswordHash: hash,
		RoleID:       role.ID,
		Active:       true,
	}
	if err := repos.Users.Create(ctx, user); err != nil {
		return err
	}
	log.Info().Str("username", user.Username).Msg("Admin user created")
	return nil
}
