package models

import (
	"time"

	"github.com/pkg/errors"
	"github.com/segmentio/encoding/json"
	"github.com/uptrace/bun"
)

const (
	JobStatusPending    = "pending"
	JobStatusInProgress = "in_progress"
	JobStatusCompleted  = "completed"
	JobStatusFailed     = "failed"
)

const (
	JobTypeParse = "parse"
)

type Job struct {
	bun.BaseModel `bun:"table:jobs,alias:j"`

	ID         int         `bun:",pk,autoincrement" json:"id"`
	CreatedAt  time.Time   `json:"created_at"`
	UpdatedAt  time.Time   `json:"updated_at"`
	Type       string      `bun:",nullzero" json:"type"`
	Status     string      `bun:",nullzero" json:"status"`
	Data       string      `bun:",nullzero" json:"-"`
	DataParsed interface{} `bun:"-" json:"data"`
	Progress   int         `json:"progress"`
	Error      *string     `json:"error,omitempty"`
	ProcessID  *string     `json:"process_id,omitempty"`
}

func (job *Job) UnmarshalData() error {
	switch job.Type {
	case JobTypeParse:
		job.DataParsed = &JobParseData{}
	}

	err := json.Unmarshal([]byte(job.Data), job.DataParsed)
	if err != nil {
		return errors.WithStack(err)
	}

	return nil
}

// JobParseData is the payload of a parse job: which book to segment.
type JobParseData struct {
	BookID int `json:"book_id"`
}
