package maintenance

import (
	"context"
	"log/slog"
	"time"
)

// TranscriptPruner is the subset of memory.TranscriptStore needed by the
// retention job. Defined here to keep the package free of a dependency on
// the memory package.
type TranscriptPruner interface {
	PruneBefore(ctx context.Context, cutoff time.Time) (int, error)
}

// RetentionJob deletes transcript entries older than MaxAge.
type RetentionJob struct {
	Transcript   TranscriptPruner
	MaxAge       time.Duration
	Logger       *slog.Logger
	ScheduleExpr string // empty = default "0 3 * * *"

	now func() time.Time // test seam
}

// Compile-time interface check.
var _ Job = (*RetentionJob)(nil)

// Name implements Job.
func (j *RetentionJob) Name() string {
	return "transcript_retention"
}

// Schedule implements Job.
func (j *RetentionJob) Schedule() string {
	if j.ScheduleExpr != "" {
		return j.ScheduleExpr
	}
	return "0 3 * * *"
}

// Run prunes transcript entries created before now minus MaxAge.
func (j *RetentionJob) Run(ctx context.Context) error {
	now := time.Now
	if j.now != nil {
		now = j.now
	}

	cutoff := now().Add(-j.MaxAge)
	pruned, err := j.Transcript.PruneBefore(ctx, cutoff)
	if err != nil {
		return err
	}
	if pruned > 0 {
		j.Logger.Info("maintenance: pruned old transcript entries",
			"count", pruned,
			"cutoff", cutoff.UTC().Format(time.RFC3339),
		)
	}
	return nil
}
