package server

import (
	"fmt"
	"net/http"
	"path/filepath"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"
	"github.com/quillreader/quill/pkg/annotations"
	"github.com/quillreader/quill/pkg/auth"
	"github.com/quillreader/quill/pkg/binder"
	"github.com/quillreader/quill/pkg/blob"
	"github.com/quillreader/quill/pkg/books"
	"github.com/quillreader/quill/pkg/chapters"
	"github.com/quillreader/quill/pkg/config"
	"github.com/quillreader/quill/pkg/errcodes"
	"github.com/quillreader/quill/pkg/jobs"
	"github.com/quillreader/quill/pkg/progress"
	"github.com/robinjoseph08/golib/echo/v4/health"
	"github.com/robinjoseph08/golib/echo/v4/middleware/logger"
	"github.com/robinjoseph08/golib/echo/v4/middleware/recovery"
	"github.com/uptrace/bun"
)

// BlobRoute is where locally stored blobs (covers, re-hosted chapter assets)
// are served from. The blob store's URL method must agree with it.
const BlobRoute = "/blob"

func New(cfg *config.Config, db *bun.DB, blobStore blob.Store, parser books.Parser) (*http.Server, error) {
	e := echo.New()

	b, err := binder.New()
	if err != nil {
		return nil, errors.WithStack(err)
	}
	e.Binder = b

	e.Use(logger.Middleware())
	e.Use(recovery.Middleware())
	e.Use(middleware.CORS())
	e.Use(auth.Middleware())

	health.RegisterRoutes(e)

	// Chapter assets are re-hosted into local blob storage during
	// segmentation and served statically.
	e.Static(BlobRoute, filepath.Join(cfg.DataDir, "blob"))

	api := e.Group("")
	books.RegisterRoutes(api, db, blobStore, parser)
	chapters.RegisterRoutes(api, db)
	progress.RegisterRoutes(api, db)
	annotations.RegisterRoutes(api, db)
	jobs.RegisterRoutes(api, db)

	echo.NotFoundHandler = notFoundHandler
	e.HTTPErrorHandler = errcodes.NewHandler().Handle

	srv := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.ServerHost, cfg.ServerPort),
		Handler:           e,
		ReadHeaderTimeout: 3 * time.Second,
	}

	return srv, nil
}

func notFoundHandler(c echo.Context) error {
	c.SetPath("/:path")
	return errcodes.NotFound("Page")
}
