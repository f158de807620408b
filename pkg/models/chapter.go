package models

import (
	"time"

	"github.com/uptrace/bun"
)

// Chapter is one spine item of a segmented book. ChapterIndex is dense,
// 0-based, and matches the OPF spine order. CharOffset is the cumulative
// plain-text character count of all prior chapters, so for i>0:
// chapters[i].CharOffset == chapters[i-1].CharOffset + chapters[i-1].CharLength.
type Chapter struct {
	bun.BaseModel `bun:"table:chapters,alias:ch"`

	ID           int       `bun:",pk,autoincrement" json:"-"`
	CreatedAt    time.Time `json:"-"`
	BookID       int       `bun:",notnull" json:"book_id"`
	ChapterIndex int       `bun:",notnull" json:"chapter_index"`
	Href         string    `bun:",notnull" json:"href"`
	HTML         string    `bun:"html" json:"html,omitempty"`
	CharOffset   int       `bun:",notnull" json:"char_offset"`
	CharLength   int       `bun:",notnull" json:"char_length"`

	Book *Book `bun:"rel:belongs-to,join:book_id=id" json:"-"`
}
