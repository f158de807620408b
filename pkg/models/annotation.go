package models

import (
	"time"

	"github.com/uptrace/bun"
)

// Highlight is anchored to a location string within a book, independent of
// reading progress. Owned by the (user, book) pair.
type Highlight struct {
	bun.BaseModel `bun:"table:highlights,alias:hl"`

	ID        int       `bun:",pk,autoincrement" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UserID    int       `bun:",notnull" json:"user_id"`
	BookID    int       `bun:",notnull" json:"book_id"`
	Location  string    `bun:",notnull" json:"location"`
	Content   string    `json:"content"`
	Note      string    `json:"note"`
	Color     string    `json:"color"`

	Book *Book `bun:"rel:belongs-to,join:book_id=id" json:"-"`
}

type Bookmark struct {
	bun.BaseModel `bun:"table:bookmarks,alias:bm"`

	ID        int       `bun:",pk,autoincrement" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UserID    int       `bun:",notnull" json:"user_id"`
	BookID    int       `bun:",notnull" json:"book_id"`
	Location  string    `bun:",notnull" json:"location"`
	Note      string    `json:"note"`

	Book *Book `bun:"rel:belongs-to,join:book_id=id" json:"-"`
}
