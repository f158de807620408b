package worker

import (
	"context"
	"path"
	"sync"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/pkg/errors"
	"github.com/quillreader/quill/pkg/blob"
	"github.com/quillreader/quill/pkg/books"
	"github.com/quillreader/quill/pkg/chapters"
	"github.com/quillreader/quill/pkg/config"
	"github.com/quillreader/quill/pkg/epub"
	"github.com/quillreader/quill/pkg/errcodes"
	"github.com/quillreader/quill/pkg/models"
	"github.com/robinjoseph08/golib/logger"
	"github.com/uptrace/bun"
)

// Parser runs the segmentation pipeline: load the stored EPUB, read the
// container, resolve the package, segment the spine, and atomically replace
// the book's chapters. It holds a per-book lock so two parses of the same
// book can't interleave their delete-then-insert batches; a second caller
// gets a conflict instead of a race.
type Parser struct {
	blobStore      blob.Store
	bookService    *books.Service
	chapterService *chapters.Service
	timeout        time.Duration

	// locks holds one entry per book currently being parsed.
	locks sync.Map
}

func NewParser(cfg *config.Config, db *bun.DB, blobStore blob.Store) *Parser {
	return &Parser{
		blobStore:      blobStore,
		bookService:    books.NewService(db),
		chapterService: chapters.NewService(db),
		timeout:        cfg.ParseTimeout,
	}
}

// ProcessParseJob handles a queued parse job. A book that was segmented
// while the job sat in the queue is a no-op.
func (p *Parser) ProcessParseJob(ctx context.Context, job *models.Job) error {
	log := logger.FromContext(ctx)

	data, ok := job.DataParsed.(*models.JobParseData)
	if !ok {
		return errors.Errorf("unexpected parse job data: %T", job.DataParsed)
	}

	log.Info("processing parse job", logger.Data{"book_id": data.BookID})

	book, err := p.bookService.RetrieveBook(ctx, books.RetrieveBookOptions{ID: &data.BookID})
	if err != nil {
		return errors.WithStack(err)
	}
	if book.Parsed() {
		log.Info("book already segmented, skipping", logger.Data{"book_id": book.ID})
		return nil
	}

	return p.ParseBook(ctx, data.BookID)
}

// ParseBook segments a book synchronously. Implements books.Parser.
func (p *Parser) ParseBook(ctx context.Context, bookID int) error {
	if _, running := p.locks.LoadOrStore(bookID, struct{}{}); running {
		return errcodes.Conflict("A parse is already running for this book.")
	}
	defer p.locks.Delete(bookID)

	// Large EPUBs can legitimately take a while; run under an extended
	// timeout rather than decomposing the parse into incremental steps.
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	log := logger.FromContext(ctx)

	book, err := p.bookService.RetrieveBook(ctx, books.RetrieveBookOptions{ID: &bookID})
	if err != nil {
		return errors.WithStack(err)
	}
	if book.Format != models.FormatEPUB {
		return errcodes.ValidationError("only EPUB books can be parsed")
	}

	raw, err := p.blobStore.Get(ctx, book.Filepath)
	if err != nil {
		return errors.Wrap(err, "load book binary")
	}

	container := epub.ReadContainer(raw)
	pkg, err := epub.ResolvePackage(container)
	if err != nil {
		if errors.Is(err, epub.ErrMissingPackage) {
			return errcodes.ValidationError("Book container has no package document.")
		}
		return errors.WithStack(err)
	}

	// Re-hosted chapter assets live next to the book binary so they're
	// cleaned up together when the book is deleted.
	assetDir := path.Join(path.Dir(book.Filepath), "assets")
	resolver := epub.NewResourceResolver(container, func(archivePath string, data []byte) (string, error) {
		key := path.Join(assetDir, archivePath)
		contentType := mimetype.Detect(data).String()
		if err := p.blobStore.Put(ctx, key, data, contentType); err != nil {
			return "", errors.WithStack(err)
		}
		return p.blobStore.URL(key), nil
	})

	segmented := epub.Segment(container, pkg, resolver, log)

	// Backfill metadata the upload path couldn't resolve.
	cols := []string{}
	if book.Title == "" && pkg.Title != "" {
		book.Title = pkg.Title
		cols = append(cols, "title")
	}
	if book.Author == "" && pkg.Author != "" {
		book.Author = pkg.Author
		cols = append(cols, "author")
	}
	if len(cols) > 0 {
		if err := p.bookService.UpdateBook(ctx, book, books.UpdateBookOptions{Columns: cols}); err != nil {
			return errors.WithStack(err)
		}
	}

	if err := p.chapterService.ReplaceChapters(ctx, book, segmented); err != nil {
		return errors.WithStack(err)
	}

	log.Info("segmented book", logger.Data{
		"book_id":          book.ID,
		"total_chapters":   book.TotalChapters,
		"total_characters": book.TotalChars,
	})

	return nil
}
