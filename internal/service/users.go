package service

import (
	"context"
	"strings"
	"time"

	"example.com/textile/erp/config"
	"example.com/textile/erp/internal/api"
	"example.com/textile/erp/internal/appctx"
	"example.com/textile/erp/internal/auth"
	"example.com/textile/erp/internal/cache"
	"example.com/textile/erp/internal/models"
	"example.com/textile/erp/internal/repository"

	"github.com/google/uuid"
)

// CreateUserRequest creates a user in the caller's tenant
type CreateUserRequest struct {
	Username string    `json:"username" validate:"required,min=3,max=100"`
	Email    string    `json:"email" validate:"omitempty,email"`
	FullName string    `json:"full_name" validate:"max=200"`
	Password string    `json:"password" validate:"required,min=8,max=72"`
	RoleID   uuid.UUID `json:"role_id" validate:"required"`
	Active   *bool     `json:"active"`
}

// UpdateUserRequest changes the supplied fields of a user
type UpdateUserRequest struct {
	Email    *string    `json:"email" validate:"omitempty,email"`
	FullName *string    `json:"full_name" validate:"omitempty,max=200"`
	Password *string    `json:"password" validate:"omitempty,min=8,max=72"`
	RoleID   *uuid.UUID `json:"role_id"`
	Active   *bool      `json:"active"`
}

// UserService administers the users of a tenant
type UserService interface {
	Create(ctx context.Context, req CreateUserRequest) (*models.User, error)
	Get(ctx context.Context, id uuid.UUID) (*models.User, error)
	List(ctx context.Context, page models.Page) ([]models.User, int64, error)
	Update(ctx context.Context, id uuid.UUID, req UpdateUserRequest) (*models.User, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type userService struct {
	users repository.UserRepository
	roles repository.RoleRepository
	cache cache.Cache
	cfg   config.AuthConfig
	now   func() time.Time
}

// NewUserService creates a new user service. Deactivating or deleting a user,
// or changing their role or password, revokes their outstanding tokens.
func NewUserService(users repository.UserRepository, roles repository.RoleRepository, c cache.Cache, cfg config.AuthConfig) UserService {
	return &userService{users: users, roles: roles, cache: c, cfg: cfg, now: time.Now}
}

func (s *userService) Create(ctx context.Context, req CreateUserRequest) (*models.User, error) {
	if err := validate(req); err != nil {
		return nil, err
	}
	req.Username = strings.TrimSpace(req.Username)

	exists, err := s.users.ExistsByUsername(ctx, req.Username, uuid.Nil)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, api.NewConflictError("username %s already exists", req.Username)
	}

	role, err := s.roles.FindByID(ctx, req.RoleID)
	if err != nil {
		return nil, mustExist(err, "role")
	}

	hash, err := auth.HashPassword(req.Password, s.cfg.BcryptCost)
	if err != nil {
		return nil, err
	}

	user := &models.User{
		Base:         models.Base{ID: uuid.New(), TenantID: appctx.TenantID(ctx)},
		Username:     req.Username,
		Email:        req.Email,
		FullName:     req.FullName,
		PasswordHash: hash,
		RoleID:       role.ID,
		Active:       boolOr(req.Active, true),
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}
	user.Role = role
	return user, nil
}

func (s *userService) Get(ctx context.Context, id uuid.UUID) (*models.User, error) {
	user, err := s.users.FindByID(ctx, id)
	if err != nil {
		return nil, notFound(err, "user")
	}
	return user, nil
}

func (s *userService) List(ctx context.Context, page models.Page) ([]models.User, int64, error) {
	return s.users.List(ctx, page)
}

func (s *userService) Update(ctx context.Context, id uuid.UUID, req UpdateUserRequest) (*models.User, error) {
	if err := validate(req); err != nil {
		return nil, err
	}
	user, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Email != nil {
		user.Email = *req.Email
	}
	if req.FullName != nil {
		user.FullName = *req.FullName
	}

	revoke := false
	if req.Active != nil {
		if !*req.Active && user.ID == appctx.UserID(ctx) {
			return nil, api.NewValidationError("you cannot deactivate your own account")
		}
		revoke = user.Active && !*req.Active
		user.Active = *req.Active
	}
	if req.RoleID != nil && *req.RoleID != user.RoleID {
		role, err := s.roles.FindByID(ctx, *req.RoleID)
		if err != nil {
			return nil, mustExist(err, "role")
		}
		user.RoleID = role.ID
		user.Role = role
		revoke = true
	}
	if req.Password != nil {
		hash, err := auth.HashPassword(*req.Password, s.cfg.BcryptCost)
		if err != nil {
			return nil, err
		}
		user.PasswordHash = hash
		revoke = true
	}

	if err := s.users.Update(ctx, user); err != nil {
		return nil, err
	}
	if revoke {
		revokeTokens(ctx, s.cache, cache.UserRevokedKey(user.ID), s.cfg.AccessTokenTTL, s.now())
	}
	return user, nil
}

func (s *userService) Delete(ctx context.Context, id uuid.UUID) error {
	if id == appctx.UserID(ctx) {
		return api.NewValidationError("you cannot delete your own account")
	}
	if err := s.users.Delete(ctx, id); err != nil {
		return notFound(err, "user")
	}
	revokeTokens(ctx, s.cache, cache.UserRevokedKey(id), s.cfg.AccessTokenTTL, s.now())
	return nil
}

// RoleRequest creates or replaces a role
type RoleRequest struct {
	Name        string   `json:"name" validate:"required,max=100"`
	Description string   `json:"description" validate:"max=500"`
	Permissions []string `json:"permissions" validate:"required,min=1,dive,permission"`
}

// RoleService administers the roles of a tenant
type RoleService interface {
	Create(ctx context.Context, req RoleRequest) (*models.Role, error)
	Get(ctx context.Context, id uuid.UUID) (*models.Role, error)
	List(ctx context.Context) ([]models.Role, error)
	Update(ctx context.Context, id uuid.UUID, req RoleRequest) (*models.Role, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type roleService struct {
	roles repository.RoleRepository
	users repository.UserRepository
	cache cache.Cache
	cfg   config.AuthConfig
	now   func() time.Time
}

// NewRoleService creates a new role service. Updating a role revokes the
// tokens of everyone holding it, so new permissions apply at next sign in.
func NewRoleService(roles repository.RoleRepository, users repository.UserRepository, c cache.Cache, cfg config.AuthConfig) RoleService {
	return &roleService{roles: roles, users: users, cache: c, cfg: cfg, now: time.Now}
}

func (s *roleService) Create(ctx context.Context, req RoleRequest) (*models.Role, error) {
	if err := validate(req); err != nil {
		return nil, err
	}
	name := strings.TrimSpace(req.Name)
	exists, err := s.roles.ExistsByName(ctx, name, uuid.Nil)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, api.NewConflictError("role %s already exists", name)
	}

	role := &models.Role{
		Base:        models.Base{ID: uuid.New(), TenantID: appctx.TenantID(ctx)},
		Name:        name,
		Description: req.Description,
		Permissions: dedupe(req.Permissions),
	}
	if err := s.roles.Create(ctx, role); err != nil {
		return nil, err
	}
	return role, nil
}

func (s *roleService) Get(ctx context.Context, id uuid.UUID) (*models.Role, error) {
	role, err := s.roles.FindByID(ctx, id)
	if err != nil {
		return nil, notFound(err, "role")
	}
	return role, nil
}

func (s *roleService) List(ctx context.Context) ([]models.Role, error) {
	return s.roles.List(ctx)
}

func (s *roleService) Update(ctx context.Context, id uuid.UUID, req RoleRequest) (*models.Role, error) {
	if err := validate(req); err != nil {
		return nil, err
	}
	role, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	name := strings.TrimSpace(req.Name)
	if name != role.Name {
		exists, err := s.roles.ExistsByName(ctx, name, role.ID)
		if err != nil {
			return nil, err
		}
		if exists {
			return nil, api.NewConflictError("role %s already exists", name)
		}
	}

	role.Name = name
	role.Description = req.Description
	role.Permissions = dedupe(req.Permissions)
	if err := s.roles.Update(ctx, role); err != nil {
		return nil, err
	}
	revokeTokens(ctx, s.cache, cache.RoleRevokedKey(role.ID), s.cfg.AccessTokenTTL, s.now())
	return role, nil
}

func (s *roleService) Delete(ctx context.Context, id uuid.UUID) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}
	n, err := s.users.CountByRole(ctx, id)
	if err != nil {
		return err
	}
	if n > 0 {
		return api.NewConflictError("role is assigned to %d user(s)", n)
	}
	return notFound(s.roles.Delete(ctx, id), "role")
}

func dedupe(values []string) []string {
	seen := make(map[string]struct{}, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}
