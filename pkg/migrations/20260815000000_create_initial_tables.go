package migrations

import (
	"context"

	"github.com/pkg/errors"
	"github.com/uptrace/bun"
)

func init() {
	up := func(_ context.Context, db *bun.DB) error {
		queries := []string{
			`CREATE TABLE books (
				id INTEGER PRIMARY KEY AUTOINCREMENT,
				created_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
				updated_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
				user_id INTEGER NOT NULL,
				title TEXT,
				author TEXT,
				format TEXT NOT NULL DEFAULT 'epub',
				filepath TEXT NOT NULL,
				cover_filename TEXT,
				cover_mime_type TEXT,
				total_chapters INTEGER NOT NULL DEFAULT 0,
				total_characters INTEGER NOT NULL DEFAULT 0,
				styles TEXT NOT NULL DEFAULT '',
				parsed_at TIMESTAMPTZ
			)`,
			`CREATE INDEX ix_books_user_id ON books(user_id)`,

			`CREATE TABLE chapters (
				id INTEGER PRIMARY KEY AUTOINCREMENT,
				created_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
				book_id INTEGER NOT NULL REFERENCES books(id) ON DELETE CASCADE,
				chapter_index INTEGER NOT NULL,
				href TEXT NOT NULL,
				html TEXT NOT NULL DEFAULT '',
				char_offset INTEGER NOT NULL,
				char_length INTEGER NOT NULL
			)`,
			`CREATE UNIQUE INDEX ux_chapters_book_index ON chapters(book_id, chapter_index)`,

			`CREATE TABLE reading_progress (
				id INTEGER PRIMARY KEY AUTOINCREMENT,
				created_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
				updated_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
				user_id INTEGER NOT NULL,
				book_id INTEGER NOT NULL REFERENCES books(id) ON DELETE CASCADE,
				current_location TEXT NOT NULL DEFAULT '',
				percentage REAL NOT NULL DEFAULT 0,
				total_read_time INTEGER NOT NULL DEFAULT 0
			)`,
			`CREATE UNIQUE INDEX ux_reading_progress_user_book ON reading_progress(user_id, book_id)`,

			`CREATE TABLE highlights (
				id INTEGER PRIMARY KEY AUTOINCREMENT,
				created_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
				user_id INTEGER NOT NULL,
				book_id INTEGER NOT NULL REFERENCES books(id) ON DELETE CASCADE,
				location TEXT NOT NULL,
				content TEXT NOT NULL DEFAULT '',
				note TEXT NOT NULL DEFAULT '',
				color TEXT NOT NULL DEFAULT ''
			)`,
			`CREATE INDEX ix_highlights_user_book ON highlights(user_id, book_id)`,

			`CREATE TABLE bookmarks (
				id INTEGER PRIMARY KEY AUTOINCREMENT,
				created_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
				user_id INTEGER NOT NULL,
				book_id INTEGER NOT NULL REFERENCES books(id) ON DELETE CASCADE,
				location TEXT NOT NULL,
				note TEXT NOT NULL DEFAULT ''
			)`,
			`CREATE INDEX ix_bookmarks_user_book ON bookmarks(user_id, book_id)`,

			`CREATE TABLE jobs (
				id INTEGER PRIMARY KEY AUTOINCREMENT,
				created_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
				updated_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
				type TEXT NOT NULL,
				status TEXT NOT NULL,
				data TEXT NOT NULL DEFAULT '{}',
				progress INTEGER NOT NULL DEFAULT 0,
				error TEXT,
				process_id TEXT
			)`,
			`CREATE INDEX ix_jobs_status ON jobs(status)`,
		}

		for _, q := range queries {
			if _, err := db.Exec(q); err != nil {
				return errors.WithStack(err)
			}
		}

		return nil
	}

	down := func(_ context.Context, db *bun.DB) error {
		tables := []string{"jobs", "bookmarks", "highlights", "reading_progress", "chapters", "books"}
		for _, t := range tables {
			if _, err := db.Exec("DROP TABLE IF EXISTS " + t); err != nil {
				return errors.WithStack(err)
			}
		}
		return nil
	}

	Migrations.MustRegister(up, down)
}
