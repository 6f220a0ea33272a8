package handler

import (
	"net/http"

	"github.com/AliMakkawi/library-management/library/internal/model"
	"github.com/labstack/echo/v4"
)

// Checkout godoc
// @Summary Borrow one copy
// @Tags borrowings
// @Security BearerAuth
// @Param id path string true "book id"
// @Success 201 {object} model.BorrowingRecord
// @Failure 404 {object} echo.HTTPError
// @Failure 409 {object} echo.HTTPError
// @Router /books/{id}/checkout [post]
func (h *Handler) Checkout(c echo.Context) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}
	rec, err := h.librarySvc.Checkout(c.Request().Context(), actor, c.Param("id"))
	if err != nil {
		return h.fail(err)
	}
	return c.JSON(http.StatusCreated, rec)
}

// ReturnBook godoc
// @Summary Return a borrowed copy
// @Tags borrowings
// @Security BearerAuth
// @Param id path string true "borrowing id"
// @Success 200 {object} model.BorrowingRecord
// @Failure 403 {object} echo.HTTPError
// @Failure 409 {object} echo.HTTPError
// @Router /borrowings/{id}/return [post]
func (h *Handler) ReturnBook(c echo.Context) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}
	rec, err := h.librarySvc.ReturnBook(c.Request().Context(), actor, c.Param("id"))
	if err != nil {
		return h.fail(err)
	}
	return c.JSON(http.StatusOK, rec)
}

// ListBorrowings godoc
// @Summary Ledger: everything for staff, own records for members
// @Tags borrowings
// @Security BearerAuth
// @Success 200 {array} model.BorrowingView
// @Router /borrowings [get]
func (h *Handler) ListBorrowings(c echo.Context) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}
	items, err := h.librarySvc.ListBorrowings(c.Request().Context(), actor)
	if err != nil {
		return h.fail(err)
	}
	if items == nil {
		items = []model.BorrowingView{}
	}
	return c.JSON(http.StatusOK, items)
}

// Dashboard godoc
// @Summary Counters: library-wide for staff, personal for members
// @Tags dashboard
// @Security BearerAuth
// @Success 200 {object} model.DashboardStats
// @Router /dashboard [get]
func (h *Handler) Dashboard(c echo.Context) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}
	stats, err := h.librarySvc.Dashboard(c.Request().Context(), actor)
	if err != nil {
		return h.fail(err)
	}
	return c.JSON(http.StatusOK, stats)
}

// RecentBorrowings godoc
// @Summary Five newest loans
// @Tags dashboard
// @Security BearerAuth
// @Success 200 {array} model.BorrowingView
// @Router /dashboard/recent [get]
func (h *Handler) RecentBorrowings(c echo.Context) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}
	items, err := h.librarySvc.RecentBorrowings(c.Request().Context(), actor)
	if err != nil {
		return h.fail(err)
	}
	if items == nil {
		items = []model.BorrowingView{}
	}
	return c.JSON(http.StatusOK, items)
}
