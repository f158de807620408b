package chapters

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"github.com/quillreader/quill/pkg/books"
	"github.com/quillreader/quill/pkg/errcodes"
	"github.com/quillreader/quill/pkg/models"
)

type handler struct {
	chapterService *Service
	bookService    *books.Service
}

// metadata serves the book-level totals, concatenated styles, and the full
// per-chapter index (HTML excluded) in one response, so clients can estimate
// page counts before fetching any content.
func (h *handler) metadata(c echo.Context) error {
	ctx := c.Request().Context()

	bookID, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return errcodes.NotFound("Book")
	}

	book, err := h.bookService.RetrieveBook(ctx, books.RetrieveBookOptions{ID: &bookID})
	if err != nil {
		return errors.WithStack(err)
	}
	if !book.Parsed() {
		return errcodes.NotReady("Book")
	}

	chapters, err := h.chapterService.ListIndex(ctx, bookID)
	if err != nil {
		return errors.WithStack(err)
	}

	resp := struct {
		TotalChapters int               `json:"total_chapters"`
		TotalChars    int               `json:"total_characters"`
		Styles        string            `json:"styles"`
		Chapters      []*models.Chapter `json:"chapters"`
	}{book.TotalChapters, book.TotalChars, book.Styles, chapters}

	return errors.WithStack(c.JSON(http.StatusOK, resp))
}

// list serves a bounded window of chapter content.
func (h *handler) list(c echo.Context) error {
	ctx := c.Request().Context()

	bookID, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return errcodes.NotFound("Book")
	}

	params := ListChaptersQuery{}
	if err := c.Bind(&params); err != nil {
		return errors.WithStack(err)
	}
	if params.To != nil && *params.To < params.From {
		return errcodes.ValidationError("to must be greater than or equal to from")
	}

	book, err := h.bookService.RetrieveBook(ctx, books.RetrieveBookOptions{ID: &bookID})
	if err != nil {
		return errors.WithStack(err)
	}
	if !book.Parsed() {
		return errcodes.NotReady("Book")
	}

	from, to := ClampWindow(params.From, params.To)

	chapters, err := h.chapterService.ListRange(ctx, bookID, from, to)
	if err != nil {
		return errors.WithStack(err)
	}

	return errors.WithStack(c.JSON(http.StatusOK, map[string]any{
		"chapters": chapters,
	}))
}
