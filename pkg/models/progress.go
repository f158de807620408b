package models

import (
	"time"

	"github.com/uptrace/bun"
)

// ReadingProgress is one row per (user, book). CurrentLocation is the
// authoritative resume anchor; Percentage is display-only. TotalReadTime is
// accumulated seconds and is only ever incremented.
type ReadingProgress struct {
	bun.BaseModel `bun:"table:reading_progress,alias:rp"`

	ID              int       `bun:",pk,autoincrement" json:"id"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
	UserID          int       `bun:",notnull" json:"user_id"`
	BookID          int       `bun:",notnull" json:"book_id"`
	CurrentLocation string    `json:"current_location"`
	Percentage      float64   `json:"percentage"`
	TotalReadTime   int       `json:"total_read_time"`

	Book *Book `bun:"rel:belongs-to,join:book_id=id" json:"-"`
}
