package repository

import (
	"context"

	"example.com/textile/erp/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// TenantRepository defines data access for tenants
type TenantRepository interface {
	Create(ctx context.Context, tenant *models.Tenant) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Tenant, error)
	FindBySlug(ctx context.Context, slug string) (*models.Tenant, error)
}

type tenantRepository struct {
	db *gorm.DB
}

// NewTenantRepository creates a new tenant repository
func NewTenantRepository(db *gorm.DB) TenantRepository {
	return &tenantRepository{db: db}
}

func (r *tenantRepository) Create(ctx context.Context, tenant *models.Tenant) error {
	return translate(conn(ctx, r.db).Create(tenant).Error, "failed to create tenant")
}

func (r *tenantRepository) FindByID(ctx context.Context, id uuid.UUID) (*models.Tenant, error) {
	return findByID[models.Tenant](ctx, r.db, id, "failed to get tenant")
}

func (r *tenantRepository) FindBySlug(ctx context.Context, slug string) (*models.Tenant, error) {
	var tenant models.Tenant
	if err := conn(ctx, r.db).Where("slug = ?", slug).First(&tenant).Error; err != nil {
		return nil, translate(err, "failed to get tenant by slug")
	}
	return &tenant, nil
}

// UserRepository defines data access for users
type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	Update(ctx context.Context, user *models.User) error
	Delete(ctx context.Context, id uuid.UUID) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	FindByUsername(ctx context.Context, tenantID uuid.UUID, username string) (*models.User, error)
	ExistsByUsername(ctx context.Context, username string, excludeID uuid.UUID) (bool, error)
	List(ctx context.Context, page models.Page) ([]models.User, int64, error)
	CountByRole(ctx context.Context, roleID uuid.UUID) (int64, error)
}

type userRepository struct {
	db *gorm.DB
}

// NewUserRepository creates a new user repository
func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) Create(ctx context.Context, user *models.User) error {
	return translate(conn(ctx, r.db).Omit(clause.Associations).Create(user).Error, "failed to create user")
}

func (r *userRepository) Update(ctx context.Context, user *models.User) error {
	return translate(conn(ctx, r.db).Omit(clause.Associations).Save(user).Error, "failed to update user")
}

func (r *userRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return deleteByID[models.User](ctx, r.db, id, "failed to delete user")
}

func (r *userRepository) FindByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	return findByID[models.User](ctx, r.db, id, "failed to get user", "Role")
}

// FindByUsername filters by tenant explicitly so it works before a tenant is
// on the context, as during login.
func (r *userRepository) FindByUsername(ctx context.Context, tenantID uuid.UUID, username string) (*models.User, error) {
	var user models.User
	err := conn(ctx, r.db).
		Preload("Role").
		Where("tenant_id = ? AND username = ?", tenantID, username).
		First(&user).Error
	if err != nil {
		return nil, translate(err, "failed to get user by username")
	}
	return &user, nil
}

func (r *userRepository) ExistsByUsername(ctx context.Context, username string, excludeID uuid.UUID) (bool, error) {
	return existsBy[models.User](ctx, r.db, "username", username, excludeID)
}

func (r *userRepository) List(ctx context.Context, page models.Page) ([]models.User, int64, error) {
	users := []models.User{}
	total, err := paginate(conn(ctx, r.db).Model(&models.User{}), page, "username", &users, "Role")
	if err != nil {
		return nil, 0, translate(err, "failed to list users")
	}
	return users, total, nil
}

func (r *userRepository) CountByRole(ctx context.Context, roleID uuid.UUID) (int64, error) {
	var n int64
	err := conn(ctx, r.db).Model(&models.User{}).Where("role_id = ?", roleID).Count(&n).Error
	return n, translate(err, "failed to count users by role")
}

// RoleRepository defines data access for roles
type RoleRepository interface {
	Create(ctx context.Context, role *models.Role) error
	Update(ctx context.Context, role *models.Role) error
	Delete(ctx context.Context, id uuid.UUID) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Role, error)
	FindByName(ctx context.Context, name string) (*models.Role, error)
	ExistsByName(ctx context.Context, name string, excludeID uuid.UUID) (bool, error)
	List(ctx context.Context) ([]models.Role, error)
}

type roleRepository struct {
	db *gorm.DB
}

// NewRoleRepository creates a new role repository
func NewRoleRepository(db *gorm.DB) RoleRepository {
	return &roleRepository{db: db}
}

func (r *roleRepository) Create(ctx context.Context, role *models.Role) error {
	return translate(conn(ctx, r.db).Create(role).Error, "failed to create role")
}

func (r *roleRepository) Update(ctx context.Context, role *models.Role) error {
	return translate(conn(ctx, r.db).Save(role).Error, "failed to update role")
}

func (r *roleRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return deleteByID[models.Role](ctx, r.db, id, "failed to delete role")
}

func (r *roleRepository) FindByID(ctx context.Context, id uuid.UUID) (*models.Role, error) {
	return findByID[models.Role](ctx, r.db, id, "failed to get role")
}

func (r *roleRepository) FindByName(ctx context.Context, name string) (*models.Role, error) {
	var role models.Role
	if err := conn(ctx, r.db).Where("name = ?", name).First(&role).Error; err != nil {
		return nil, translate(err, "failed to get role by name")
	}
	return &role, nil
}

func (r *roleRepository) ExistsByName(ctx context.Context, name string, excludeID uuid.UUID) (bool, error) {
	return existsBy[models.Role](ctx, r.db, "name", name, excludeID)
}

func (r *roleRepository) List(ctx context.Context) ([]models.Role, error) {
	roles := []models.Role{}
	if err := conn(ctx, r.db).Order("name").Find(&roles).Error; err != nil {
		return nil, translate(err, "failed to list roles")
	}
	return roles, nil
}
