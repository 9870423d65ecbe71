package audit

import (
	"context"
	"time"

	"github.com/google/uuid"

	"acredita/pkg/requestcontext"
)

// Store persists audit entries. Append-only; implementations must never
// update or delete.
type Store interface {
	Append(ctx context.Context, entry Entry) error
	ListRecent(ctx context.Context, limit int) ([]Entry, error)
	ListByEntity(ctx context.Context, entityType, entityID string) ([]Entry, error)
}

// Publisher captures structured audit entries. It uses the storage layer for
// persistence so tests can swap sinks easily, and stamps actor metadata from
// the request context.
type Publisher struct {
	store Store
}

func NewPublisher(store Store) *Publisher {
	return &Publisher{store: store}
}

// Emit fills in id, timestamp, and request-scoped actor metadata before
// appending. Explicitly set fields win over context values.
func (p *Publisher) Emit(ctx context.Context, entry Entry) error {
	if entry.ID == uuid.Nil {
		entry.ID = uuid.New()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}
	if entry.ActorUserID == "" {
		entry.ActorUserID = requestcontext.ActorID(ctx)
	}
	if entry.ActorName == "" {
		entry.ActorName = requestcontext.ActorName(ctx)
	}
	if entry.IPAddress == "" {
		entry.IPAddress = requestcontext.ClientIP(ctx)
	}
	if entry.UserAgent == "" {
		entry.UserAgent = requestcontext.UserAgent(ctx)
	}
	return p.store.Append(ctx, entry)
}

// ListRecent returns the most recent entries, newest first.
func (p *Publisher) ListRecent(ctx context.Context, limit int) ([]Entry, error) {
	return p.store.ListRecent(ctx, limit)
}

// ListByEntity returns the trail for one entity, newest first.
func (p *Publisher) ListByEntity(ctx context.Context, entityType, entityID string) ([]Entry, error) {
	return p.store.ListByEntity(ctx, entityType, entityID)
}
