package engine

import (
	"context"
	"time"

	"github.com/coastalmech/apflow/internal/approval"
	"github.com/coastalmech/apflow/internal/model"
)

// Storage defines the persistence contract for batch results.
type Storage interface {
	SaveCanonicalRecord(ctx context.Context, rec model.CanonicalRecord) error
	RecordSkip(ctx context.Context, batchCode string, skip model.SkippedDocument) error
	StartBatchRun(ctx context.Context, runID, batchCode string, total int) error
	CompleteBatchRun(ctx context.Context, runID string, saved, skipped int, poBypassed bool) error
}

// Gate defines the contract for one human-approval checkpoint. The
// reviewing actor is a separate process; the gate never assumes an
// in-process callback.
type Gate interface {
	Open(candidates []approval.Candidate) error
	AwaitDecision(ctx context.Context, timeout time.Duration) (approval.ApprovedSet, error)
	Close() error
}
