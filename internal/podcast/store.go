package podcast

import (
	"context"
	"errors"
)

var ErrNotFound = errors.New("podcast not found")

// Store is the durable record keyed by job id. The pipeline engine and the
// HTTP handlers depend on this interface so both are testable with an
// in-memory fake; the production implementation is the GORM-backed Repo.
type Store interface {
	Create(ctx context.Context, p *Podcast) error

	// Get loads a job regardless of owner (engine use).
	Get(ctx context.Context, id string) (*Podcast, error)

	// GetForUser loads a job owned by userID, ErrNotFound otherwise.
	GetForUser(ctx context.Context, id, userID string) (*Podcast, error)

	// ListByUser returns the user's jobs ordered by creation time, newest first.
	ListByUser(ctx context.Context, userID string) ([]Podcast, error)

	// Update applies a single atomic field-set to one row. Column names are
	// snake_case as persisted. Unknown id is not an error (no-op); races
	// between overlapping engine advances resolve as last-write-wins.
	Update(ctx context.Context, id string, fields map[string]any) error

	// AppendLog atomically appends one already-formatted line to the job log.
	AppendLog(ctx context.Context, id, line string) error

	// Delete removes the user's job. Deleting a missing row is not an error.
	Delete(ctx context.Context, id, userID string) error
}
