package annotations

import (
	"context"
	"database/sql"
	"time"

	"github.com/pkg/errors"
	"github.com/quillreader/quill/pkg/errcodes"
	"github.com/quillreader/quill/pkg/models"
	"github.com/uptrace/bun"
)

type UpdateHighlightOptions struct {
	Columns []string
}

type Service struct {
	db *bun.DB
}

func NewService(db *bun.DB) *Service {
	return &Service{db}
}

func (svc *Service) CreateHighlight(ctx context.Context, hl *models.Highlight) error {
	if hl.CreatedAt.IsZero() {
		hl.CreatedAt = time.Now()
	}

	_, err := svc.db.
		NewInsert().
		Model(hl).
		Returning("*").
		Exec(ctx)
	return errors.WithStack(err)
}

func (svc *Service) ListHighlights(ctx context.Context, userID, bookID int) ([]*models.Highlight, error) {
	highlights := []*models.Highlight{}
	err := svc.db.
		NewSelect().
		Model(&highlights).
		Where("hl.user_id = ?", userID).
		Where("hl.book_id = ?", bookID).
		Order("hl.created_at ASC").
		Scan(ctx)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	return highlights, nil
}

// RetrieveHighlight fetches a highlight by ID, scoped to its owner.
func (svc *Service) RetrieveHighlight(ctx context.Context, userID, id int) (*models.Highlight, error) {
	hl := &models.Highlight{}
	err := svc.db.
		NewSelect().
		Model(hl).
		Where("hl.id = ?", id).
		Where("hl.user_id = ?", userID).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, errcodes.NotFound("Highlight")
		}
		return nil, errors.WithStack(err)
	}
	return hl, nil
}

func (svc *Service) UpdateHighlight(ctx context.Context, hl *models.Highlight, opts UpdateHighlightOptions) error {
	if len(opts.Columns) == 0 {
		return nil
	}

	_, err := svc.db.
		NewUpdate().
		Model(hl).
		Column(opts.Columns...).
		WherePK().
		Exec(ctx)
	return errors.WithStack(err)
}

func (svc *Service) DeleteHighlight(ctx context.Context, userID, id int) error {
	res, err := svc.db.
		NewDelete().
		Model((*models.Highlight)(nil)).
		Where("id = ?", id).
		Where("user_id = ?", userID).
		Exec(ctx)
	if err != nil {
		return errors.WithStack(err)
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		return errcodes.NotFound("Highlight")
	}
	return nil
}

func (svc *Service) CreateBookmark(ctx context.Context, bm *models.Bookmark) error {
	if bm.CreatedAt.IsZero() {
		bm.CreatedAt = time.Now()
	}

	_, err := svc.db.
		NewInsert().
		Model(bm).
		Returning("*").
		Exec(ctx)
	return errors.WithStack(err)
}

func (svc *Service) ListBookmarks(ctx context.Context, userID, bookID int) ([]*models.Bookmark, error) {
	bookmarks := []*models.Bookmark{}
	err := svc.db.
		NewSelect().
		Model(&bookmarks).
		Where("bm.user_id = ?", userID).
		Where("bm.book_id = ?", bookID).
		Order("bm.created_at ASC").
		Scan(ctx)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	return bookmarks, nil
}

func (svc *Service) DeleteBookmark(ctx context.Context, userID, id int) error {
	res, err := svc.db.
		NewDelete().
		Model((*models.Bookmark)(nil)).
		Where("id = ?", id).
		Where("user_id = ?", userID).
		Exec(ctx)
	if err != nil {
		return errors.WithStack(err)
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		return errcodes.NotFound("Bookmark")
	}
	return nil
}
