package handler

import (
	"net/http"

	"github.com/AliMakkawi/library-management/library/internal/model"
	"github.com/labstack/echo/v4"
)

// SearchBooks godoc
// @Summary Natural-language catalog search
// @Tags ai
// @Security BearerAuth
// @Param query body model.SearchInput true "query"
// @Success 200 {array} model.SearchResult
// @Failure 400 {object} echo.HTTPError
// @Failure 503 {object} echo.HTTPError
// @Router /ai/search [post]
func (h *Handler) SearchBooks(c echo.Context) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}
	var req model.SearchInput
	if err = c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	results, err := h.librarySvc.SearchBooks(c.Request().Context(), actor, req.Query)
	if err != nil {
		return h.fail(err)
	}
	if results == nil {
		results = []model.SearchResult{}
	}
	return c.JSON(http.StatusOK, results)
}

// ListActivity godoc
// @Summary Audit trail of workflow events (admin)
// @Tags activity
// @Security BearerAuth
// @Param limit query int false "max rows, default 100"
// @Success 200 {array} model.Activity
// @Router /activity [get]
func (h *Handler) ListActivity(c echo.Context) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}
	limit, err := intQuery(c, "limit")
	if err != nil {
		return err
	}
	items, err := h.librarySvc.ListActivity(c.Request().Context(), actor, limit)
	if err != nil {
		return h.fail(err)
	}
	if items == nil {
		items = []model.Activity{}
	}
	return c.JSON(http.StatusOK, items)
}
