package annotations

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"github.com/quillreader/quill/pkg/auth"
	"github.com/quillreader/quill/pkg/books"
	"github.com/quillreader/quill/pkg/errcodes"
	"github.com/quillreader/quill/pkg/models"
)

type handler struct {
	annotationService *Service
	bookService       *books.Service
}

func (h *handler) createHighlight(c echo.Context) error {
	ctx := c.Request().Context()

	bookID, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return errcodes.NotFound("Book")
	}

	userID, err := auth.UserID(c)
	if err != nil {
		return errors.WithStack(err)
	}

	params := CreateHighlightPayload{}
	if err := c.Bind(&params); err != nil {
		return errors.WithStack(err)
	}

	if _, err := h.bookService.RetrieveBook(ctx, books.RetrieveBookOptions{ID: &bookID}); err != nil {
		return errors.WithStack(err)
	}

	hl := &models.Highlight{
		UserID:   userID,
		BookID:   bookID,
		Location: params.Location,
		Content:  params.Content,
		Note:     params.Note,
		Color:    params.Color,
	}
	if err := h.annotationService.CreateHighlight(ctx, hl); err != nil {
		return errors.WithStack(err)
	}

	return errors.WithStack(c.JSON(http.StatusCreated, hl))
}

func (h *handler) listHighlights(c echo.Context) error {
	ctx := c.Request().Context()

	bookID, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return errcodes.NotFound("Book")
	}

	userID, err := auth.UserID(c)
	if err != nil {
		return errors.WithStack(err)
	}

	highlights, err := h.annotationService.ListHighlights(ctx, userID, bookID)
	if err != nil {
		return errors.WithStack(err)
	}

	return errors.WithStack(c.JSON(http.StatusOK, map[string]any{
		"highlights": highlights,
	}))
}

func (h *handler) updateHighlight(c echo.Context) error {
	ctx := c.Request().Context()

	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return errcodes.NotFound("Highlight")
	}

	userID, err := auth.UserID(c)
	if err != nil {
		return errors.WithStack(err)
	}

	params := UpdateHighlightPayload{}
	if err := c.Bind(&params); err != nil {
		return errors.WithStack(err)
	}

	hl, err := h.annotationService.RetrieveHighlight(ctx, userID, id)
	if err != nil {
		return errors.WithStack(err)
	}

	opts := UpdateHighlightOptions{Columns: []string{}}
	if params.Note != nil && *params.Note != hl.Note {
		hl.Note = *params.Note
		opts.Columns = append(opts.Columns, "note")
	}
	if params.Color != nil && *params.Color != hl.Color {
		hl.Color = *params.Color
		opts.Columns = append(opts.Columns, "color")
	}

	if err := h.annotationService.UpdateHighlight(ctx, hl, opts); err != nil {
		return errors.WithStack(err)
	}

	return errors.WithStack(c.JSON(http.StatusOK, hl))
}

func (h *handler) deleteHighlight(c echo.Context) error {
	ctx := c.Request().Context()

	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return errcodes.NotFound("Highlight")
	}

	userID, err := auth.UserID(c)
	if err != nil {
		return errors.WithStack(err)
	}

	if err := h.annotationService.DeleteHighlight(ctx, userID, id); err != nil {
		return errors.WithStack(err)
	}

	return errors.WithStack(c.NoContent(http.StatusNoContent))
}

func (h *handler) createBookmark(c echo.Context) error {
	ctx := c.Request().Context()

	bookID, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return errcodes.NotFound("Book")
	}

	userID, err := auth.UserID(c)
	if err != nil {
		return errors.WithStack(err)
	}

	params := CreateBookmarkPayload{}
	if err := c.Bind(&params); err != nil {
		return errors.WithStack(err)
	}

	if _, err := h.bookService.RetrieveBook(ctx, books.RetrieveBookOptions{ID: &bookID}); err != nil {
		return errors.WithStack(err)
	}

	bm := &models.Bookmark{
		UserID:   userID,
		BookID:   bookID,
		Location: params.Location,
		Note:     params.Note,
	}
	if err := h.annotationService.CreateBookmark(ctx, bm); err != nil {
		return errors.WithStack(err)
	}

	return errors.WithStack(c.JSON(http.StatusCreated, bm))
}

func (h *handler) listBookmarks(c echo.Context) error {
	ctx := c.Request().Context()

	bookID, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return errcodes.NotFound("Book")
	}

	userID, err := auth.UserID(c)
	if err != nil {
		return errors.WithStack(err)
	}

	bookmarks, err := h.annotationService.ListBookmarks(ctx, userID, bookID)
	if err != nil {
		return errors.WithStack(err)
	}

	return errors.WithStack(c.JSON(http.StatusOK, map[string]any{
		"bookmarks": bookmarks,
	}))
}

func (h *handler) deleteBookmark(c echo.Context) error {
	ctx := c.Request().Context()

	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return errcodes.NotFound("Bookmark")
	}

	userID, err := auth.UserID(c)
	if err != nil {
		return errors.WithStack(err)
	}

	if err := h.annotationService.DeleteBookmark(ctx, userID, id); err != nil {
		return errors.WithStack(err)
	}

	return errors.WithStack(c.NoContent(http.StatusNoContent))
}
