package chapters

import (
	"github.com/labstack/echo/v4"
	"github.com/quillreader/quill/pkg/books"
	"github.com/uptrace/bun"
)

func RegisterRoutes(g *echo.Group, db *bun.DB) {
	h := &handler{
		chapterService: NewService(db),
		bookService:    books.NewService(db),
	}

	g.GET("/books/:id/chapters/metadata", h.metadata)
	g.GET("/books/:id/chapters", h.list)
}
