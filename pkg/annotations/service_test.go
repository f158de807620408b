package annotations

import (
	"context"
	"database/sql"
	"testing"

	"github.com/quillreader/quill/pkg/errcodes"
	"github.com/quillreader/quill/pkg/migrations"
	"github.com/quillreader/quill/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"
)

func setupTestDB(t *testing.T) *bun.DB {
	t.Helper()

	sqldb, err := sql.Open(sqliteshim.ShimName, ":memory:")
	require.NoError(t, err)

	db := bun.NewDB(sqldb, sqlitedialect.New())

	_, err = migrations.BringUpToDate(context.Background(), db)
	require.NoError(t, err)

	t.Cleanup(func() {
		db.Close()
	})

	return db
}

func createTestBook(t *testing.T, db *bun.DB) *models.Book {
	t.Helper()
	book := &models.Book{
		UserID:   1,
		Title:    "Annotated Book",
		Format:   models.FormatEPUB,
		Filepath: "books/test/book.epub",
	}
	_, err := db.NewInsert().Model(book).Exec(context.Background())
	require.NoError(t, err)
	return book
}

func TestService_Highlights(t *testing.T) {
	db := setupTestDB(t)
	svc := NewService(db)
	ctx := context.Background()

	book := createTestBook(t, db)

	hl := &models.Highlight{
		UserID:   1,
		BookID:   book.ID,
		Location: "ch2.xhtml#range(10,45)",
		Content:  "a memorable passage",
		Color:    "yellow",
	}
	require.NoError(t, svc.CreateHighlight(ctx, hl))
	assert.NotZero(t, hl.ID)

	t.Run("list is scoped to the user", func(t *testing.T) {
		mine, err := svc.ListHighlights(ctx, 1, book.ID)
		require.NoError(t, err)
		assert.Len(t, mine, 1)

		theirs, err := svc.ListHighlights(ctx, 2, book.ID)
		require.NoError(t, err)
		assert.Empty(t, theirs)
	})

	t.Run("update note and color", func(t *testing.T) {
		hl.Note = "revised note"
		hl.Color = "blue"
		err := svc.UpdateHighlight(ctx, hl, UpdateHighlightOptions{Columns: []string{"note", "color"}})
		require.NoError(t, err)

		got, err := svc.RetrieveHighlight(ctx, 1, hl.ID)
		require.NoError(t, err)
		assert.Equal(t, "revised note", got.Note)
		assert.Equal(t, "blue", got.Color)
	})

	t.Run("cannot delete someone else's highlight", func(t *testing.T) {
		err := svc.DeleteHighlight(ctx, 2, hl.ID)
		assert.ErrorIs(t, err, errcodes.NotFound("Highlight"))
	})

	t.Run("owner deletes", func(t *testing.T) {
		require.NoError(t, svc.DeleteHighlight(ctx, 1, hl.ID))
		_, err := svc.RetrieveHighlight(ctx, 1, hl.ID)
		assert.ErrorIs(t, err, errcodes.NotFound("Highlight"))
	})
}

func TestService_Bookmarks(t *testing.T) {
	db := setupTestDB(t)
	svc := NewService(db)
	ctx := context.Background()

	book := createTestBook(t, db)

	bm := &models.Bookmark{
		UserID:   1,
		BookID:   book.ID,
		Location: "ch7.xhtml#p12",
		Note:     "pick up here",
	}
	require.NoError(t, svc.CreateBookmark(ctx, bm))
	assert.NotZero(t, bm.ID)

	bookmarks, err := svc.ListBookmarks(ctx, 1, book.ID)
	require.NoError(t, err)
	require.Len(t, bookmarks, 1)
	assert.Equal(t, "ch7.xhtml#p12", bookmarks[0].Location)

	require.NoError(t, svc.DeleteBookmark(ctx, 1, bm.ID))
	assert.ErrorIs(t, svc.DeleteBookmark(ctx, 1, bm.ID), errcodes.NotFound("Bookmark"))
}
