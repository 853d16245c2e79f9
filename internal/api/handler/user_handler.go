package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/commonweb/user-manager/internal/core/domain"
	"github.com/commonweb/user-manager/internal/core/ports"
)

type UserHandler struct {
	manager   ports.UserDataManager
	passwords ports.PasswordService
}

func NewUserHandler(manager ports.UserDataManager, passwords ports.PasswordService) *UserHandler {
	return &UserHandler{manager: manager, passwords: passwords}
}

// Create creates a new user. When no password is supplied, the service
// assigns a generated one-time password.
//
// @Summary      Create a user
// @Tags         users
// @Accept       json
// @Produce      json
// @Param        body  body      userRequest  true  "User details"
// @Success      201   {object}  domain.User
// @Failure      400   {object}  errorResponse
// @Failure      409   {object}  errorResponse
// @Router       /users [post]
func (h *UserHandler) Create(c echo.Context) error {
	var req userRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	user := req.toDomain()
	if req.Password != "" {
		digest, err := h.passwords.DigestPassword(req.Password)
		if err != nil {
			return err
		}
		user.PasswordDigest = digest
	}

	created, err := h.manager.CreateUser(c.Request().Context(), user, nil)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, created)
}

// Update replaces the mutable fields of an existing user. The username in
// the path is the identity; a username in the body is ignored. Omitting the
// password keeps the current one; the merge itself is last write wins, so
// the handler carries the stored digest into the request when no new
// password is supplied.
//
// @Summary      Update a user
// @Tags         users
// @Accept       json
// @Produce      json
// @Param        username  path      string       true  "Username"
// @Param        body      body      userRequest  true  "User details"
// @Success      200       {object}  domain.User
// @Failure      400       {object}  errorResponse
// @Failure      404       {object}  errorResponse
// @Router       /users/{username} [put]
func (h *UserHandler) Update(c echo.Context) error {
	var req userRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	req.Username = c.Param("username")
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	user := req.toDomain()
	if req.Password != "" {
		digest, err := h.passwords.DigestPassword(req.Password)
		if err != nil {
			return err
		}
		user.PasswordDigest = digest
	} else {
		stored, err := h.manager.GetUser(c.Request().Context(), user.Username)
		if err != nil {
			return err
		}
		user.PasswordDigest = stored.PasswordDigest
	}

	updated, err := h.manager.UpdateUser(c.Request().Context(), user, nil)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, updated)
}

// Delete removes a user.
//
// @Summary      Delete a user
// @Tags         users
// @Param        username  path  string  true  "Username"
// @Success      204
// @Failure      404  {object}  errorResponse
// @Router       /users/{username} [delete]
func (h *UserHandler) Delete(c echo.Context) error {
	if err := h.manager.DeleteUser(c.Request().Context(), c.Param("username"), nil); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

// Get returns a single user by username.
//
// @Summary      Get a user
// @Tags         users
// @Produce      json
// @Param        username  path      string  true  "Username"
// @Success      200       {object}  domain.User
// @Failure      404       {object}  errorResponse
// @Router       /users/{username} [get]
func (h *UserHandler) Get(c echo.Context) error {
	user, err := h.manager.GetUser(c.Request().Context(), c.Param("username"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, user)
}

// List returns all users ordered by last name then first name.
//
// @Summary      List users
// @Tags         users
// @Produce      json
// @Success      200  {object}  listResponse[domain.User]
// @Router       /users [get]
func (h *UserHandler) List(c echo.Context) error {
	users, err := h.manager.GetUsers(c.Request().Context())
	if err != nil {
		return err
	}
	if users == nil {
		users = []*domain.User{}
	}
	return c.JSON(http.StatusOK, listResponse[*domain.User]{Data: users})
}
