// Package storage persists analysis run history so score changes can be
// tracked across content revisions.
package storage

import (
	"context"
	"errors"

	"github.com/hyperjump/kurabe/internal/models"
)

// ErrNotFound is returned when a run id does not exist.
var ErrNotFound = errors.New("run not found")

// RunStore persists completed analysis runs.
type RunStore interface {
	SaveRun(ctx context.Context, run *models.Run) error
	GetRun(ctx context.Context, id string) (*models.Run, error)
	// ListRuns returns runs newest first, at most limit (0 means all).
	ListRuns(ctx context.Context, limit int) ([]*models.Run, error)
	CountRuns(ctx context.Context) (int, error)
	Close() error
}
