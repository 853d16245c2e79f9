package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/commonweb/user-manager/internal/core/domain"
	"github.com/commonweb/user-manager/internal/core/ports"
)

type RoleHandler struct {
	manager ports.UserDataManager
}

func NewRoleHandler(manager ports.UserDataManager) *RoleHandler {
	return &RoleHandler{manager: manager}
}

// Create creates a new role.
//
// @Summary      Create a role
// @Tags         roles
// @Accept       json
// @Produce      json
// @Param        body  body      roleRequest  true  "Role details"
// @Success      201   {object}  domain.Role
// @Failure      400   {object}  errorResponse
// @Failure      409   {object}  errorResponse
// @Router       /roles [post]
func (h *RoleHandler) Create(c echo.Context) error {
	var req roleRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	created, err := h.manager.CreateRole(c.Request().Context(), req.toDomain(), nil)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, created)
}

// Update replaces the permission set of an existing role.
//
// @Summary      Update a role
// @Tags         roles
// @Accept       json
// @Produce      json
// @Param        name  path      string       true  "Role name"
// @Param        body  body      roleRequest  true  "Role details"
// @Success      200   {object}  domain.Role
// @Failure      400   {object}  errorResponse
// @Failure      404   {object}  errorResponse
// @Router       /roles/{name} [put]
func (h *RoleHandler) Update(c echo.Context) error {
	var req roleRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	req.Name = c.Param("name")
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	updated, err := h.manager.UpdateRole(c.Request().Context(), req.toDomain(), nil)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, updated)
}

// Delete removes a role, stripping it from every user that holds it.
//
// @Summary      Delete a role
// @Tags         roles
// @Param        name  path  string  true  "Role name"
// @Success      204
// @Failure      404  {object}  errorResponse
// @Router       /roles/{name} [delete]
func (h *RoleHandler) Delete(c echo.Context) error {
	if err := h.manager.DeleteRole(c.Request().Context(), c.Param("name"), nil); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

// Get returns a single role by name.
//
// @Summary      Get a role
// @Tags         roles
// @Produce      json
// @Param        name  path      string  true  "Role name"
// @Success      200   {object}  domain.Role
// @Failure      404   {object}  errorResponse
// @Router       /roles/{name} [get]
func (h *RoleHandler) Get(c echo.Context) error {
	role, err := h.manager.GetRole(c.Request().Context(), c.Param("name"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, role)
}

// List returns all roles ordered by name.
//
// @Summary      List roles
// @Tags         roles
// @Produce      json
// @Success      200  {object}  listResponse[domain.Role]
// @Router       /roles [get]
func (h *RoleHandler) List(c echo.Context) error {
	roles, err := h.manager.GetRoles(c.Request().Context())
	if err != nil {
		return err
	}
	if roles == nil {
		roles = []*domain.Role{}
	}
	return c.JSON(http.StatusOK, listResponse[*domain.Role]{Data: roles})
}
