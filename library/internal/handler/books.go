package handler

import (
	"net/http"
	"strconv"

	"github.com/AliMakkawi/library-management/library/internal/model"
	"github.com/labstack/echo/v4"
)

// ListBooks godoc
// @Summary List the catalog
// @Tags books
// @Security BearerAuth
// @Param search query string false "title, author, genre or ISBN fragment"
// @Param page query int false "page, 1-based"
// @Param size query int false "page size"
// @Success 200 {object} model.ListBooks
// @Router /books [get]
func (h *Handler) ListBooks(c echo.Context) error {
	page, err := intQuery(c, "page")
	if err != nil {
		return err
	}
	size, err := intQuery(c, "size")
	if err != nil {
		return err
	}
	books, err := h.librarySvc.ListBooks(c.Request().Context(), c.QueryParam("search"), page, size)
	if err != nil {
		return h.fail(err)
	}
	if books.Items == nil {
		books.Items = []model.Book{}
	}
	return c.JSON(http.StatusOK, books)
}

// GetBook godoc
// @Summary Book with its active loans
// @Tags books
// @Security BearerAuth
// @Param id path string true "book id"
// @Success 200 {object} model.BookDetails
// @Failure 404 {object} echo.HTTPError
// @Router /books/{id} [get]
func (h *Handler) GetBook(c echo.Context) error {
	book, err := h.librarySvc.GetBook(c.Request().Context(), c.Param("id"))
	if err != nil {
		return h.fail(err)
	}
	return c.JSON(http.StatusOK, book)
}

// CreateBook godoc
// @Summary Add a book (staff)
// @Tags books
// @Security BearerAuth
// @Param book body model.BookInput true "book"
// @Success 201 {object} model.Book
// @Failure 409 {object} echo.HTTPError
// @Router /books [post]
func (h *Handler) CreateBook(c echo.Context) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}
	var req model.BookInput
	if err = bindValid(c, &req); err != nil {
		return err
	}
	book, err := h.librarySvc.CreateBook(c.Request().Context(), actor, req)
	if err != nil {
		return h.fail(err)
	}
	return c.JSON(http.StatusCreated, book)
}

// UpdateBook godoc
// @Summary Edit a book (staff)
// @Tags books
// @Security BearerAuth
// @Param id path string true "book id"
// @Param book body model.BookInput true "book"
// @Success 200 {object} model.Book
// @Router /books/{id} [put]
func (h *Handler) UpdateBook(c echo.Context) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}
	var req model.BookInput
	if err = bindValid(c, &req); err != nil {
		return err
	}
	book, err := h.librarySvc.UpdateBook(c.Request().Context(), actor, c.Param("id"), req)
	if err != nil {
		return h.fail(err)
	}
	return c.JSON(http.StatusOK, book)
}

// DeleteBook godoc
// @Summary Remove a book without active loans (staff)
// @Tags books
// @Security BearerAuth
// @Param id path string true "book id"
// @Success 204
// @Router /books/{id} [delete]
func (h *Handler) DeleteBook(c echo.Context) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}
	if err = h.librarySvc.DeleteBook(c.Request().Context(), actor, c.Param("id")); err != nil {
		return h.fail(err)
	}
	return c.NoContent(http.StatusNoContent)
}

// Summarize godoc
// @Summary AI summary of a book, cached on the book
// @Tags ai
// @Security BearerAuth
// @Param id path string true "book id"
// @Param regenerate query bool false "ignore the cached summary"
// @Success 200 {object} model.Summary
// @Failure 503 {object} echo.HTTPError
// @Router /books/{id}/summary [post]
func (h *Handler) Summarize(c echo.Context) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}
	var regenerate bool
	if v := c.QueryParam("regenerate"); v != "" {
		if regenerate, err = strconv.ParseBool(v); err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "regenerate is invalid")
		}
	}
	summary, err := h.librarySvc.SummarizeBook(c.Request().Context(), actor, c.Param("id"), regenerate)
	if err != nil {
		return h.fail(err)
	}
	return c.JSON(http.StatusOK, summary)
}
