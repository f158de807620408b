package chapters

import (
	"context"
	"database/sql"
	"time"

	"github.com/pkg/errors"
	"github.com/quillreader/quill/pkg/epub"
	"github.com/quillreader/quill/pkg/models"
	"github.com/uptrace/bun"
)

// MaxWindowSize is the hard ceiling on chapters returned per content
// request, regardless of what the client asks for.
const MaxWindowSize = 20

// DefaultWindowSize is how many chapters a request without an explicit upper
// bound gets.
const DefaultWindowSize = 10

type Service struct {
	db *bun.DB
}

func NewService(db *bun.DB) *Service {
	return &Service{db: db}
}

// ReplaceChapters deletes all existing chapters for a book and inserts the
// segmented batch, assigning dense 0-based indexes and running character
// offsets in spine order. The book's totals, styles, and parsed_at are
// updated in the same transaction, so a reader never observes a mix of old
// and new chapters.
func (svc *Service) ReplaceChapters(ctx context.Context, book *models.Book, segmented *epub.Segmented) error {
	now := time.Now()

	return svc.db.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		_, err := tx.NewDelete().
			Model((*models.Chapter)(nil)).
			Where("book_id = ?", book.ID).
			Exec(ctx)
		if err != nil {
			return errors.WithStack(err)
		}

		offset := 0
		chapters := make([]*models.Chapter, 0, len(segmented.Chapters))
		for i, ch := range segmented.Chapters {
			chapters = append(chapters, &models.Chapter{
				CreatedAt:    now,
				BookID:       book.ID,
				ChapterIndex: i,
				Href:         ch.Href,
				HTML:         ch.HTML,
				CharOffset:   offset,
				CharLength:   ch.CharLength,
			})
			offset += ch.CharLength
		}

		if len(chapters) > 0 {
			_, err = tx.NewInsert().Model(&chapters).Exec(ctx)
			if err != nil {
				return errors.WithStack(err)
			}
		}

		book.TotalChapters = len(chapters)
		book.TotalChars = offset
		book.Styles = segmented.Styles
		book.ParsedAt = &now
		book.UpdatedAt = now

		_, err = tx.NewUpdate().
			Model(book).
			Column("total_chapters", "total_characters", "styles", "parsed_at", "updated_at").
			WherePK().
			Exec(ctx)
		return errors.WithStack(err)
	})
}

// ListIndex returns every chapter of a book without its HTML, ordered by
// index. This is the cheap metadata read clients use for page estimation.
func (svc *Service) ListIndex(ctx context.Context, bookID int) ([]*models.Chapter, error) {
	chapters := []*models.Chapter{}
	err := svc.db.NewSelect().
		Model(&chapters).
		ExcludeColumn("html").
		Where("book_id = ?", bookID).
		Order("chapter_index ASC").
		Scan(ctx)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	return chapters, nil
}

// ListRange returns the chapters of a book with indexes in [from, to]
// inclusive, ordered by index, including HTML.
func (svc *Service) ListRange(ctx context.Context, bookID, from, to int) ([]*models.Chapter, error) {
	chapters := []*models.Chapter{}
	err := svc.db.NewSelect().
		Model(&chapters).
		Where("book_id = ?", bookID).
		Where("chapter_index >= ?", from).
		Where("chapter_index <= ?", to).
		Order("chapter_index ASC").
		Scan(ctx)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	return chapters, nil
}

// DeleteChaptersForBook deletes all chapters for a book.
func (svc *Service) DeleteChaptersForBook(ctx context.Context, bookID int) error {
	_, err := svc.db.NewDelete().
		Model((*models.Chapter)(nil)).
		Where("book_id = ?", bookID).
		Exec(ctx)
	return errors.WithStack(err)
}

// ClampWindow resolves a requested chapter window to the range actually
// served: a missing upper bound defaults to from plus DefaultWindowSize-1,
// and the window is silently clamped to MaxWindowSize chapters.
func ClampWindow(from int, to *int) (int, int) {
	resolvedTo := from + DefaultWindowSize - 1
	if to != nil {
		resolvedTo = *to
	}
	if resolvedTo-from+1 > MaxWindowSize {
		resolvedTo = from + MaxWindowSize - 1
	}
	return from, resolvedTo
}
