package analyses

import (
	"context"
	"time"
)

// Repo defines persistence operations for analyses.
type Repo interface {
	Create(ctx context.Context, a Analysis) error
	GetByID(ctx context.Context, analysisID string) (Analysis, error)
	// MarkProcessing moves a queued analysis to processing and reports
	// whether this caller won the transition.
	MarkProcessing(ctx context.Context, analysisID string) (bool, error)
	Complete(ctx context.Context, a Analysis) error
	Fail(ctx context.Context, analysisID, message string, at time.Time) error
	List(ctx context.Context, f ListFilter) ([]Analysis, error)
}
