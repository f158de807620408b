package progress

import (
	"context"
	"database/sql"
	"time"

	"github.com/pkg/errors"
	"github.com/quillreader/quill/pkg/errcodes"
	"github.com/quillreader/quill/pkg/models"
	"github.com/uptrace/bun"
)

type SaveProgressOptions struct {
	UserID          int
	BookID          int
	CurrentLocation string
	Percentage      float64
	// ReadTimeDelta is seconds of reading since the caller's last save. It's
	// added to the stored total, never used to overwrite it.
	ReadTimeDelta int
}

type Service struct {
	db *bun.DB
}

func NewService(db *bun.DB) *Service {
	return &Service{db}
}

// Retrieve returns the progress row for a (user, book) pair.
func (svc *Service) Retrieve(ctx context.Context, userID, bookID int) (*models.ReadingProgress, error) {
	p := &models.ReadingProgress{}

	err := svc.db.
		NewSelect().
		Model(p).
		Where("rp.user_id = ?", userID).
		Where("rp.book_id = ?", bookID).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, errcodes.NotFound("Progress")
		}
		return nil, errors.WithStack(err)
	}

	return p, nil
}

// Save upserts the progress row keyed by (user, book). The last write is
// authoritative for location and percentage; read time accumulates. Racing
// saves from multiple tracker flushes therefore degrade to last-write-wins
// rather than an error.
func (svc *Service) Save(ctx context.Context, opts SaveProgressOptions) (*models.ReadingProgress, error) {
	now := time.Now()
	p := &models.ReadingProgress{
		CreatedAt:       now,
		UpdatedAt:       now,
		UserID:          opts.UserID,
		BookID:          opts.BookID,
		CurrentLocation: opts.CurrentLocation,
		Percentage:      opts.Percentage,
		TotalReadTime:   opts.ReadTimeDelta,
	}

	_, err := svc.db.
		NewInsert().
		Model(p).
		On("CONFLICT (user_id, book_id) DO UPDATE").
		Set("current_location = EXCLUDED.current_location").
		Set("percentage = EXCLUDED.percentage").
		Set("total_read_time = total_read_time + EXCLUDED.total_read_time").
		Set("updated_at = EXCLUDED.updated_at").
		Returning("*").
		Exec(ctx)
	if err != nil {
		return nil, errors.WithStack(err)
	}

	return p, nil
}

// DeleteForBook removes every user's progress for a book. Used by cascade
// cleanup paths; normal book deletion relies on foreign keys.
func (svc *Service) DeleteForBook(ctx context.Context, bookID int) error {
	_, err := svc.db.
		NewDelete().
		Model((*models.ReadingProgress)(nil)).
		Where("book_id = ?", bookID).
		Exec(ctx)
	return errors.WithStack(err)
}
