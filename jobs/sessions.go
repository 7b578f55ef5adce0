package jobs

import (
	"context"
	"log/slog"

	"github.com/hibiken/asynq"
)

// TaskSessionPurge removes expired session audit records from postgres. The
// live session state in Redis expires on its own; this only trims the trail.
const TaskSessionPurge = "sessions:purge"

// SessionPurger deletes expired session audit rows.
type SessionPurger interface {
	PurgeExpiredSessions(ctx context.Context) (int64, error)
}

// NewSessionPurgeTask constructs the purge task for scheduling.
func NewSessionPurgeTask() *asynq.Task {
	return asynq.NewTask(TaskSessionPurge, nil)
}

// NewSessionPurgeHandler returns the Asynq handler for TaskSessionPurge.
func NewSessionPurgeHandler(purger SessionPurger, logger *slog.Logger) asynq.HandlerFunc {
	return func(ctx context.Context, t *asynq.Task) error {
		removed, err := purger.PurgeExpiredSessions(ctx)
		if err != nil {
			return err
		}
		if logger != nil && removed > 0 {
			logger.Info("purged expired sessions", slog.Int64("count", removed))
		}
		return nil
	}
}
