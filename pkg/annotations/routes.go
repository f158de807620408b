package annotations

import (
	"github.com/labstack/echo/v4"
	"github.com/quillreader/quill/pkg/books"
	"github.com/uptrace/bun"
)

func RegisterRoutes(g *echo.Group, db *bun.DB) {
	h := &handler{
		annotationService: NewService(db),
		bookService:       books.NewService(db),
	}

	g.POST("/books/:id/highlights", h.createHighlight)
	g.GET("/books/:id/highlights", h.listHighlights)
	g.POST("/highlights/:id", h.updateHighlight)
	g.DELETE("/highlights/:id", h.deleteHighlight)

	g.POST("/books/:id/bookmarks", h.createBookmark)
	g.GET("/books/:id/bookmarks", h.listBookmarks)
	g.DELETE("/bookmarks/:id", h.deleteBookmark)
}
