package handler

import (
	"net/http"

	"github.com/AliMakkawi/library-management/library/internal/model"
	"github.com/labstack/echo/v4"
)

// Register godoc
// @Summary Create an account, optionally with an invitation token
// @Tags auth
// @Param user body model.RegisterInput true "account"
// @Success 201 {object} model.User
// @Failure 409 {object} echo.HTTPError
// @Failure 410 {object} echo.HTTPError
// @Router /auth/register [post]
func (h *Handler) Register(c echo.Context) error {
	var req model.RegisterInput
	if err := bindValid(c, &req); err != nil {
		return err
	}
	user, err := h.librarySvc.Register(c.Request().Context(), req)
	if err != nil {
		return h.fail(err)
	}
	return c.JSON(http.StatusCreated, user)
}

// Login godoc
// @Summary Exchange credentials for an access token
// @Tags auth
// @Param credentials body model.LoginInput true "credentials"
// @Success 200 {object} model.AccessToken
// @Failure 401 {object} echo.HTTPError
// @Router /auth/login [post]
func (h *Handler) Login(c echo.Context) error {
	var req model.LoginInput
	if err := bindValid(c, &req); err != nil {
		return err
	}
	token, err := h.librarySvc.Login(c.Request().Context(), req)
	if err != nil {
		return h.fail(err)
	}
	return c.JSON(http.StatusOK, token)
}

// CreateInvitation godoc
// @Summary Invite someone with a role (admin)
// @Tags members
// @Security BearerAuth
// @Param invitation body model.InvitationInput true "invitation"
// @Success 201 {object} model.Invitation
// @Router /invitations [post]
func (h *Handler) CreateInvitation(c echo.Context) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}
	var req model.InvitationInput
	if err = bindValid(c, &req); err != nil {
		return err
	}
	inv, err := h.librarySvc.CreateInvitation(c.Request().Context(), actor, req)
	if err != nil {
		return h.fail(err)
	}
	return c.JSON(http.StatusCreated, inv)
}

// ListInvitations godoc
// @Summary Invitations, newest first (admin)
// @Tags members
// @Security BearerAuth
// @Success 200 {array} model.Invitation
// @Router /invitations [get]
func (h *Handler) ListInvitations(c echo.Context) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}
	items, err := h.librarySvc.ListInvitations(c.Request().Context(), actor)
	if err != nil {
		return h.fail(err)
	}
	if items == nil {
		items = []model.Invitation{}
	}
	return c.JSON(http.StatusOK, items)
}

// ListMembers godoc
// @Summary Users with their active loan count (admin)
// @Tags members
// @Security BearerAuth
// @Success 200 {array} model.Member
// @Router /members [get]
func (h *Handler) ListMembers(c echo.Context) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}
	items, err := h.librarySvc.ListMembers(c.Request().Context(), actor)
	if err != nil {
		return h.fail(err)
	}
	if items == nil {
		items = []model.Member{}
	}
	return c.JSON(http.StatusOK, items)
}

// UpdateUserRole godoc
// @Summary Change another user's role (admin)
// @Tags members
// @Security BearerAuth
// @Param id path string true "user id"
// @Param role body model.RoleInput true "role"
// @Success 200 {object} model.User
// @Router /members/{id}/role [patch]
func (h *Handler) UpdateUserRole(c echo.Context) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}
	var req model.RoleInput
	if err = bindValid(c, &req); err != nil {
		return err
	}
	user, err := h.librarySvc.UpdateUserRole(c.Request().Context(), actor, c.Param("id"), req.Role)
	if err != nil {
		return h.fail(err)
	}
	return c.JSON(http.StatusOK, user)
}
