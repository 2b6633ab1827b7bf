package job

import (
	"context"
	"errors"
)

var (
	// ErrNotFound indicates an unknown job id.
	ErrNotFound = errors.New("job not found")

	// ErrInvalidState indicates an operation that the job's current
	// status does not permit, such as reading results before completion.
	ErrInvalidState = errors.New("job is not in a valid state for this operation")
)

// Store persists job records. Claim and Update serialize through the
// store so a job id is never processed by two workers at once.
type Store interface {
	// Create persists a new job.
	Create(ctx context.Context, j *Job) error

	// Get returns the job by id, or ErrNotFound.
	Get(ctx context.Context, id string) (*Job, error)

	// Update overwrites the stored record for j.ID.
	Update(ctx context.Context, j *Job) error

	// Claim atomically moves the oldest queued job to processing and
	// returns it. It returns (nil, nil) when no job is queued.
	Claim(ctx context.Context) (*Job, error)

	// List returns jobs newest-first.
	List(ctx context.Context, limit, offset int) ([]*Job, error)

	// Close releases store resources.
	Close() error
}

// Results returns the job's terminal outputs. Completion is required;
// polling a job that is still running yields ErrInvalidState.
func Results(j *Job) (*Stats, error) {
	if j.Status != StatusCompleted {
		return nil, ErrInvalidState
	}
	return j.Stats, nil
}
