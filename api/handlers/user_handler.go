package handlers

import (
	"example.com/textile/erp/internal/api"
	"example.com/textile/erp/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

// UserHandler handles user and role administration
type UserHandler struct {
	users service.UserService
	roles service.RoleService
}

// NewUserHandler creates a new UserHandler instance
func NewUserHandler(users service.UserService, roles service.RoleService) *UserHandler {
	return &UserHandler{users: users, roles: roles}
}

func (h *UserHandler) CreateUser(c *gin.Context) {
	var req service.CreateUserRequest
	if !bindJSON(c, &req) {
		return
	}
	user, err := h.users.Create(c.Request.Context(), req)
	if err != nil {
		log.Warn().Err(err).Str("username", req.Username).Msg("Failed to create user")
		api.WriteError(c, err)
		return
	}
	api.Created(c, user)
}

func (h *UserHandler) ListUsers(c *gin.Context) {
	page, ok := queryPage(c)
	if !ok {
		return
	}
	users, total, err := h.users.List(c.Request.Context(), page)
	if err != nil {
		api.WriteError(c, err)
		return
	}
	list(c, users, page, total)
}

func (h *UserHandler) GetUser(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	user, err := h.users.Get(c.Request.Context(), id)
	if err != nil {
		api.WriteError(c, err)
		return
	}
	api.OK(c, user)
}

func (h *UserHandler) UpdateUser(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req service.UpdateUserRequest
	if !bindJSON(c, &req) {
		return
	}
	user, err := h.users.Update(c.Request.Context(), id, req)
	if err != nil {
		api.WriteError(c, err)
		return
	}
	api.OK(c, user)
}

func (h *UserHandler) DeleteUser(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := h.users.Delete(c.Request.Context(), id); err != nil {
		api.WriteError(c, err)
		return
	}
	api.NoContent(c)
}

func (h *UserHandler) CreateRole(c *gin.Context) {
	var req service.RoleRequest
	if !bindJSON(c, &req) {
		return
	}
	role, err := h.roles.Create(c.Request.Context(), req)
	if err != nil {
		api.WriteError(c, err)
		return
	}
	api.Created(c, role)
}

// ListRoles returns every role of the tenant; roles are few so the list is
// not paged
func (h *UserHandler) ListRoles(c *gin.Context) {
	roles, err := h.roles.List(c.Request.Context())
	if err != nil {
		api.WriteError(c, err)
		return
	}
	api.OK(c, roles)
}

func (h *UserHandler) GetRole(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	role, err := h.roles.Get(c.Request.Context(), id)
	if err != nil {
		api.WriteError(c, err)
		return
	}
	api.OK(c, role)
}

func (h *UserHandler) UpdateRole(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req service.RoleRequest
	if !bindJSON(c, &req) {
		return
	}
	role, err := h.roles.Update(c.Request.Context(), id, req)
	if err != nil {
		api.WriteError(c, err)
		return
	}
	api.OK(c, role)
}

func (h *UserHandler) DeleteRole(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := h.roles.Delete(c.Request.Context(), id); err != nil {
		api.WriteError(c, err)
		return
	}
	api.NoContent(c)
}
