package models

import (
	"time"

	"github.com/uptrace/bun"
)

const (
	FormatEPUB = "epub"
)

type Book struct {
	bun.BaseModel `bun:"table:books,alias:b"`

	ID            int        `bun:",pk,autoincrement" json:"id"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
	UserID        int        `bun:",notnull" json:"user_id"`
	Title         string     `bun:",nullzero" json:"title"`
	Author        string     `bun:",nullzero" json:"author"`
	Format        string     `bun:",notnull" json:"format"`
	Filepath      string     `bun:",notnull" json:"filepath"`
	CoverFilename *string    `json:"cover_filename"`
	CoverMimeType *string    `json:"cover_mime_type"`
	TotalChapters int        `json:"total_chapters"`
	TotalChars    int        `bun:"total_characters" json:"total_characters"`
	Styles        string     `json:"styles"`
	ParsedAt      *time.Time `json:"parsed_at"`

	Chapters []*Chapter `bun:"rel:has-many,join:id=book_id" json:"chapters,omitempty"`
}

// Parsed reports whether the book has been segmented into chapters. A book
// uploaded but never parsed has a null parsed_at.
func (b *Book) Parsed() bool {
	return b.ParsedAt != nil
}
