package books

import (
	"context"
	"io"
	"net/http"
	"path"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"github.com/quillreader/quill/pkg/auth"
	"github.com/quillreader/quill/pkg/blob"
	"github.com/quillreader/quill/pkg/epub"
	"github.com/quillreader/quill/pkg/errcodes"
	"github.com/quillreader/quill/pkg/jobs"
	"github.com/quillreader/quill/pkg/models"
	"github.com/robinjoseph08/golib/logger"
)

// Parser runs the segmentation pipeline for a book, synchronously.
// Implemented by the worker package and injected so the HTTP layer stays
// free of parse internals.
type Parser interface {
	ParseBook(ctx context.Context, bookID int) error
}

type handler struct {
	bookService *Service
	jobService  *jobs.Service
	blobStore   blob.Store
	parser      Parser
}

// upload stores the EPUB binary and creates the book record. Metadata and
// cover extraction are best effort: a malformed container still produces a
// book, just one without title/author/cover. Segmentation only happens on an
// explicit parse trigger.
func (h *handler) upload(c echo.Context) error {
	ctx := c.Request().Context()
	log := logger.FromContext(ctx)

	userID, err := auth.UserID(c)
	if err != nil {
		return errors.WithStack(err)
	}

	params := UploadBookPayload{}
	if err := c.Bind(&params); err != nil {
		return errors.WithStack(err)
	}

	fileHeader := params.FormFiles["file"]
	if fileHeader == nil {
		return errcodes.ValidationError("file is required")
	}
	if !strings.EqualFold(path.Ext(fileHeader.Filename), ".epub") {
		return errcodes.ValidationError("only EPUB files are supported")
	}

	f, err := fileHeader.Open()
	if err != nil {
		return errors.WithStack(err)
	}
	defer f.Close()
	data, err := io.ReadAll(f)
	if err != nil {
		return errors.WithStack(err)
	}

	book := &models.Book{
		UserID: userID,
		Format: models.FormatEPUB,
	}
	if params.Title != nil {
		book.Title = *params.Title
	}
	if params.Author != nil {
		book.Author = *params.Author
	}

	// Best-effort metadata. A book that fails here still exists, it just has
	// no title/author/cover until the client supplies them.
	container := epub.ReadContainer(data)
	pkg, err := epub.ResolvePackage(container)
	if err != nil {
		log.Err(err).Warn("could not resolve package metadata from upload")
	} else {
		if book.Title == "" {
			book.Title = pkg.Title
		}
		if book.Author == "" {
			book.Author = pkg.Author
		}
	}

	key := uuid.NewString()
	book.Filepath = path.Join("books", key, "book.epub")
	if err := h.blobStore.Put(ctx, book.Filepath, data, "application/epub+zip"); err != nil {
		return errors.WithStack(err)
	}

	if pkg != nil {
		if cover := epub.ExtractCover(container, pkg); cover != nil {
			coverPath := path.Join("books", key, "cover."+cover.Ext)
			if err := h.blobStore.Put(ctx, coverPath, cover.Data, cover.ContentType); err != nil {
				log.Err(err).Warn("could not store cover image")
			} else {
				book.CoverFilename = &coverPath
				book.CoverMimeType = &cover.ContentType
			}
		}
	}

	if err := h.bookService.CreateBook(ctx, book); err != nil {
		// Don't leave blobs behind with no row pointing at them.
		if derr := h.blobStore.DeletePrefix(ctx, path.Dir(book.Filepath)); derr != nil {
			log.Err(derr).Warn("could not clean up blobs for failed upload")
		}
		return errors.WithStack(err)
	}

	return errors.WithStack(c.JSON(http.StatusCreated, book))
}

func (h *handler) retrieve(c echo.Context) error {
	ctx := c.Request().Context()
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return errcodes.NotFound("Book")
	}

	book, err := h.bookService.RetrieveBook(ctx, RetrieveBookOptions{ID: &id})
	if err != nil {
		return errors.WithStack(err)
	}

	return errors.WithStack(c.JSON(http.StatusOK, book))
}

func (h *handler) list(c echo.Context) error {
	ctx := c.Request().Context()

	params := ListBooksQuery{}
	if err := c.Bind(&params); err != nil {
		return errors.WithStack(err)
	}

	opts := ListBooksOptions{
		Limit:  &params.Limit,
		Offset: &params.Offset,
	}
	if params.Mine {
		userID, err := auth.UserID(c)
		if err != nil {
			return errors.WithStack(err)
		}
		opts.UserID = &userID
	}

	books, total, err := h.bookService.ListBooksWithTotal(ctx, opts)
	if err != nil {
		return errors.WithStack(err)
	}

	resp := struct {
		Books []*models.Book `json:"books"`
		Total int            `json:"total"`
	}{books, total}

	return errors.WithStack(c.JSON(http.StatusOK, resp))
}

func (h *handler) delete(c echo.Context) error {
	ctx := c.Request().Context()
	log := logger.FromContext(ctx)

	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return errcodes.NotFound("Book")
	}

	userID, err := auth.UserID(c)
	if err != nil {
		return errors.WithStack(err)
	}

	book, err := h.bookService.RetrieveBook(ctx, RetrieveBookOptions{ID: &id})
	if err != nil {
		return errors.WithStack(err)
	}
	if book.UserID != userID {
		return errcodes.Forbidden("Deleting another user's book")
	}

	if err := h.bookService.DeleteBook(ctx, id); err != nil {
		return errors.WithStack(err)
	}

	// Blob cleanup is best effort; an orphaned directory is preferable to a
	// failed delete.
	if err := h.blobStore.DeletePrefix(ctx, path.Dir(book.Filepath)); err != nil {
		log.Err(err).Warn("could not delete book blobs", logger.Data{"book_id": id})
	}

	return errors.WithStack(c.NoContent(http.StatusNoContent))
}

func (h *handler) cover(c echo.Context) error {
	ctx := c.Request().Context()
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return errcodes.NotFound("Book")
	}

	book, err := h.bookService.RetrieveBook(ctx, RetrieveBookOptions{ID: &id})
	if err != nil {
		return errors.WithStack(err)
	}
	if book.CoverFilename == nil {
		return errcodes.NotFound("Cover")
	}

	data, err := h.blobStore.Get(ctx, *book.CoverFilename)
	if err != nil {
		return errcodes.NotFound("Cover")
	}

	contentType := "image/jpeg"
	if book.CoverMimeType != nil {
		contentType = *book.CoverMimeType
	}

	return errors.WithStack(c.Blob(http.StatusOK, contentType, data))
}

// parse triggers segmentation. Already-segmented books are a successful
// no-op; a parse already running for the book is a conflict. The sync path
// exists for tests and small books; real uploads go through the job queue.
func (h *handler) parse(c echo.Context) error {
	ctx := c.Request().Context()
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return errcodes.NotFound("Book")
	}

	// The trigger has no body; sync is a bare query flag.
	sync, _ := strconv.ParseBool(c.QueryParam("sync"))

	book, err := h.bookService.RetrieveBook(ctx, RetrieveBookOptions{ID: &id})
	if err != nil {
		return errors.WithStack(err)
	}
	if book.Format != models.FormatEPUB {
		return errcodes.ValidationError("only EPUB books can be parsed")
	}
	if book.Parsed() {
		return errors.WithStack(c.JSON(http.StatusOK, book))
	}

	if sync {
		if err := h.parser.ParseBook(ctx, id); err != nil {
			return errors.WithStack(err)
		}
		book, err = h.bookService.RetrieveBook(ctx, RetrieveBookOptions{ID: &id})
		if err != nil {
			return errors.WithStack(err)
		}
		return errors.WithStack(c.JSON(http.StatusOK, book))
	}

	job := &models.Job{
		Type:       models.JobTypeParse,
		Status:     models.JobStatusPending,
		DataParsed: &models.JobParseData{BookID: id},
	}
	if err := h.jobService.CreateJob(ctx, job); err != nil {
		return errors.WithStack(err)
	}

	return errors.WithStack(c.JSON(http.StatusAccepted, job))
}
