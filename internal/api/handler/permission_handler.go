package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/commonweb/user-manager/internal/core/domain"
	"github.com/commonweb/user-manager/internal/core/ports"
)

type PermissionHandler struct {
	manager ports.UserDataManager
}

func NewPermissionHandler(manager ports.UserDataManager) *PermissionHandler {
	return &PermissionHandler{manager: manager}
}

// Create creates a new permission.
//
// @Summary      Create a permission
// @Tags         permissions
// @Accept       json
// @Produce      json
// @Param        body  body      permissionRequest  true  "Permission details"
// @Success      201   {object}  domain.Permission
// @Failure      400   {object}  errorResponse
// @Failure      409   {object}  errorResponse
// @Router       /permissions [post]
func (h *PermissionHandler) Create(c echo.Context) error {
	var req permissionRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	created, err := h.manager.CreatePermission(c.Request().Context(), req.toDomain(), nil)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, created)
}

// CreateCRUDSet creates the four create/read/update/delete permissions for a
// namespace and name in one transaction.
//
// @Summary      Create a CRUD permission set
// @Tags         permissions
// @Accept       json
// @Produce      json
// @Param        body  body      crudPermissionsRequest  true  "Namespace and name"
// @Success      201   {object}  map[string]domain.Permission
// @Failure      400   {object}  errorResponse
// @Failure      409   {object}  errorResponse
// @Router       /permissions/crud [post]
func (h *PermissionHandler) CreateCRUDSet(c echo.Context) error {
	var req crudPermissionsRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	perms, err := h.manager.CreateCRUDPermissions(c.Request().Context(), req.Namespace, req.Name, nil)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, perms)
}

// Update replaces the implied set of an existing permission.
//
// @Summary      Update a permission
// @Tags         permissions
// @Accept       json
// @Produce      json
// @Param        name  path      string             true  "Permission name"
// @Param        body  body      permissionRequest  true  "Permission details"
// @Success      200   {object}  domain.Permission
// @Failure      400   {object}  errorResponse
// @Failure      404   {object}  errorResponse
// @Router       /permissions/{name} [put]
func (h *PermissionHandler) Update(c echo.Context) error {
	var req permissionRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	req.Name = c.Param("name")
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	updated, err := h.manager.UpdatePermission(c.Request().Context(), req.toDomain(), nil)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, updated)
}

// Delete removes a permission, stripping it from every role that holds it.
//
// @Summary      Delete a permission
// @Tags         permissions
// @Param        name  path  string  true  "Permission name"
// @Success      204
// @Failure      404  {object}  errorResponse
// @Router       /permissions/{name} [delete]
func (h *PermissionHandler) Delete(c echo.Context) error {
	if err := h.manager.DeletePermission(c.Request().Context(), c.Param("name"), nil); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

// Get returns a single permission by name.
//
// @Summary      Get a permission
// @Tags         permissions
// @Produce      json
// @Param        name  path      string  true  "Permission name"
// @Success      200   {object}  domain.Permission
// @Failure      404   {object}  errorResponse
// @Router       /permissions/{name} [get]
func (h *PermissionHandler) Get(c echo.Context) error {
	perm, err := h.manager.GetPermission(c.Request().Context(), c.Param("name"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, perm)
}

// List returns all permissions ordered by name.
//
// @Summary      List permissions
// @Tags         permissions
// @Produce      json
// @Success      200  {object}  listResponse[domain.Permission]
// @Router       /permissions [get]
func (h *PermissionHandler) List(c echo.Context) error {
	perms, err := h.manager.GetPermissions(c.Request().Context())
	if err != nil {
		return err
	}
	if perms == nil {
		perms = []*domain.Permission{}
	}
	return c.JSON(http.StatusOK, listResponse[*domain.Permission]{Data: perms})
}
