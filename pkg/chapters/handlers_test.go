package chapters

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/quillreader/quill/pkg/binder"
	"github.com/quillreader/quill/pkg/books"
	"github.com/quillreader/quill/pkg/epub"
	"github.com/quillreader/quill/pkg/errcodes"
	"github.com/quillreader/quill/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
)

func setupTestHandler(t *testing.T) (*handler, *bun.DB, *echo.Echo) {
	t.Helper()

	db := setupTestDB(t)
	h := &handler{
		chapterService: NewService(db),
		bookService:    books.NewService(db),
	}

	e := echo.New()
	b, err := binder.New()
	require.NoError(t, err)
	e.Binder = b

	return h, db, e
}

func seedParsedBook(t *testing.T, db *bun.DB, svc *Service, chapterCount int) *models.Book {
	t.Helper()

	book := createTestBook(t, db)
	segmented := &epub.Segmented{Styles: "p { margin: 0; }"}
	for i := 0; i < chapterCount; i++ {
		segmented.Chapters = append(segmented.Chapters, epub.SegmentedChapter{
			Href:       fmt.Sprintf("OEBPS/chapter%d.xhtml", i+1),
			HTML:       fmt.Sprintf("<p>chapter %d</p>", i+1),
			CharLength: 100,
		})
	}
	require.NoError(t, svc.ReplaceChapters(context.Background(), book, segmented))
	return book
}

func TestHandler_Metadata(t *testing.T) {
	h, db, e := setupTestHandler(t)

	book := seedParsedBook(t, db, h.chapterService, 3)

	req := httptest.NewRequest(http.MethodGet, "/books/1/chapters/metadata", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues(fmt.Sprint(book.ID))

	err := h.metadata(c)
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		TotalChapters int               `json:"total_chapters"`
		TotalChars    int               `json:"total_characters"`
		Styles        string            `json:"styles"`
		Chapters      []*models.Chapter `json:"chapters"`
	}
	err = json.Unmarshal(rec.Body.Bytes(), &resp)
	require.NoError(t, err)

	assert.Equal(t, 3, resp.TotalChapters)
	assert.Equal(t, 300, resp.TotalChars)
	assert.Equal(t, "p { margin: 0; }", resp.Styles)
	require.Len(t, resp.Chapters, 3)
	assert.Equal(t, 100, resp.Chapters[1].CharOffset)
	// The index carries no content.
	assert.Empty(t, resp.Chapters[0].HTML)
}

func TestHandler_Metadata_NotReady(t *testing.T) {
	h, db, e := setupTestHandler(t)

	book := createTestBook(t, db)

	req := httptest.NewRequest(http.MethodGet, "/books/1/chapters/metadata", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues(fmt.Sprint(book.ID))

	err := h.metadata(c)
	require.Error(t, err)
	assert.ErrorIs(t, err, errcodes.NotReady("Book"))
}

func TestHandler_Metadata_BookNotFound(t *testing.T) {
	h, _, e := setupTestHandler(t)

	req := httptest.NewRequest(http.MethodGet, "/books/999/chapters/metadata", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues("999")

	err := h.metadata(c)
	require.Error(t, err)
	assert.ErrorIs(t, err, errcodes.NotFound("Book"))
}

func TestHandler_List(t *testing.T) {
	h, db, e := setupTestHandler(t)

	book := seedParsedBook(t, db, h.chapterService, 20)

	listChapters := func(t *testing.T, query string) []*models.Chapter {
		t.Helper()

		req := httptest.NewRequest(http.MethodGet, "/books/1/chapters"+query, nil)
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)
		c.SetParamNames("id")
		c.SetParamValues(fmt.Sprint(book.ID))

		err := h.list(c)
		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, rec.Code)

		var resp struct {
			Chapters []*models.Chapter `json:"chapters"`
		}
		err = json.Unmarshal(rec.Body.Bytes(), &resp)
		require.NoError(t, err)
		return resp.Chapters
	}

	t.Run("defaults to a ten chapter window", func(t *testing.T) {
		chapters := listChapters(t, "")
		require.Len(t, chapters, 10)
		assert.Equal(t, 0, chapters[0].ChapterIndex)
		assert.Equal(t, 9, chapters[9].ChapterIndex)
		assert.Equal(t, "<p>chapter 1</p>", chapters[0].HTML)
	})

	t.Run("default window starts at from", func(t *testing.T) {
		chapters := listChapters(t, "?from=5")
		require.Len(t, chapters, 10)
		assert.Equal(t, 5, chapters[0].ChapterIndex)
		assert.Equal(t, 14, chapters[9].ChapterIndex)
	})

	t.Run("explicit window is inclusive", func(t *testing.T) {
		chapters := listChapters(t, "?from=2&to=4")
		require.Len(t, chapters, 3)
		assert.Equal(t, 2, chapters[0].ChapterIndex)
		assert.Equal(t, 4, chapters[2].ChapterIndex)
	})

	t.Run("oversized window is clamped to twenty", func(t *testing.T) {
		chapters := listChapters(t, "?from=3&to=50")
		require.Len(t, chapters, 17)
		assert.Equal(t, 3, chapters[0].ChapterIndex)
		assert.Equal(t, 19, chapters[16].ChapterIndex)
	})
}

func TestHandler_List_InvalidWindow(t *testing.T) {
	h, db, e := setupTestHandler(t)

	book := seedParsedBook(t, db, h.chapterService, 5)

	req := httptest.NewRequest(http.MethodGet, "/books/1/chapters?from=5&to=2", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues(fmt.Sprint(book.ID))

	err := h.list(c)
	require.Error(t, err)
	assert.ErrorIs(t, err, errcodes.ValidationError("to must be greater than or equal to from"))
}

func TestHandler_List_NotReady(t *testing.T) {
	h, db, e := setupTestHandler(t)

	book := createTestBook(t, db)

	req := httptest.NewRequest(http.MethodGet, "/books/1/chapters", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues(fmt.Sprint(book.ID))

	err := h.list(c)
	require.Error(t, err)
	assert.ErrorIs(t, err, errcodes.NotReady("Book"))
}
