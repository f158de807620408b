package progress

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"github.com/quillreader/quill/pkg/auth"
	"github.com/quillreader/quill/pkg/books"
	"github.com/quillreader/quill/pkg/errcodes"
)

type handler struct {
	progressService *Service
	bookService     *books.Service
}

func (h *handler) retrieve(c echo.Context) error {
	ctx := c.Request().Context()

	bookID, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return errcodes.NotFound("Book")
	}

	userID, err := auth.UserID(c)
	if err != nil {
		return errors.WithStack(err)
	}

	p, err := h.progressService.Retrieve(ctx, userID, bookID)
	if err != nil {
		return errors.WithStack(err)
	}

	return errors.WithStack(c.JSON(http.StatusOK, p))
}

func (h *handler) save(c echo.Context) error {
	ctx := c.Request().Context()

	bookID, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return errcodes.NotFound("Book")
	}

	userID, err := auth.UserID(c)
	if err != nil {
		return errors.WithStack(err)
	}

	params := SaveProgressPayload{}
	if err := c.Bind(&params); err != nil {
		return errors.WithStack(err)
	}

	// The row is keyed by (user, book); make sure the book half exists.
	if _, err := h.bookService.RetrieveBook(ctx, books.RetrieveBookOptions{ID: &bookID}); err != nil {
		return errors.WithStack(err)
	}

	p, err := h.progressService.Save(ctx, SaveProgressOptions{
		UserID:          userID,
		BookID:          bookID,
		CurrentLocation: params.CurrentLocation,
		Percentage:      params.Percentage,
		ReadTimeDelta:   params.ReadTimeDelta,
	})
	if err != nil {
		return errors.WithStack(err)
	}

	return errors.WithStack(c.JSON(http.StatusOK, p))
}
