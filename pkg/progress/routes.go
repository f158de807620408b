package progress

import (
	"github.com/labstack/echo/v4"
	"github.com/quillreader/quill/pkg/books"
	"github.com/uptrace/bun"
)

func RegisterRoutes(g *echo.Group, db *bun.DB) {
	h := &handler{
		progressService: NewService(db),
		bookService:     books.NewService(db),
	}

	g.GET("/books/:id/progress", h.retrieve)
	g.PUT("/books/:id/progress", h.save)
}
