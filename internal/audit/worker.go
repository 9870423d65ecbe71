package audit

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

// ActivityStore persists the human-readable activity feed.
type ActivityStore interface {
	Append(ctx context.Context, activity Activity) error
	ListRecent(ctx context.Context, limit int) ([]Activity, error)
}

// ActivityLog buffers activity entries on a channel and persists them in the
// background. Activity entries are best-effort: a full buffer drops the entry
// with a log line rather than blocking the request.
type ActivityLog struct {
	store  ActivityStore
	logger *slog.Logger
	inbox  chan Activity
}

func NewActivityLog(store ActivityStore, logger *slog.Logger, buffer int) *ActivityLog {
	if buffer <= 0 {
		buffer = 64
	}
	return &ActivityLog{
		store:  store,
		logger: logger,
		inbox:  make(chan Activity, buffer),
	}
}

// Record enqueues an activity entry without blocking.
func (l *ActivityLog) Record(message, actorName string) {
	activity := Activity{
		ID:        uuid.New(),
		Message:   message,
		ActorName: actorName,
		CreatedAt: time.Now().UTC(),
	}
	select {
	case l.inbox <- activity:
	default:
		l.logger.Warn("activity log buffer full, dropping entry", "message", message)
	}
}

// Run consumes the inbox until the context is canceled. Persistence failures
// are logged and never propagate; the activity feed is informational.
func (l *ActivityLog) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case activity := <-l.inbox:
			if err := l.store.Append(ctx, activity); err != nil {
				l.logger.ErrorContext(ctx, "failed to persist activity entry",
					"error", err,
					"message", activity.Message,
				)
			}
		}
	}
}

// ListRecent returns the newest feed entries.
func (l *ActivityLog) ListRecent(ctx context.Context, limit int) ([]Activity, error) {
	return l.store.ListRecent(ctx, limit)
}
