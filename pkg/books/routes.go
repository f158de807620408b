package books

import (
	"github.com/labstack/echo/v4"
	"github.com/quillreader/quill/pkg/blob"
	"github.com/quillreader/quill/pkg/jobs"
	"github.com/uptrace/bun"
)

func RegisterRoutes(g *echo.Group, db *bun.DB, blobStore blob.Store, parser Parser) {
	h := &handler{
		bookService: NewService(db),
		jobService:  jobs.NewService(db),
		blobStore:   blobStore,
		parser:      parser,
	}

	g.POST("/books", h.upload)
	g.GET("/books", h.list)
	g.GET("/books/:id", h.retrieve)
	g.DELETE("/books/:id", h.delete)
	g.GET("/books/:id/cover", h.cover)
	g.POST("/books/:id/parse", h.parse)
}
