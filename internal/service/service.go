// Package service holds the marketplace business logic between the HTTP
// handlers and the stores.
package service

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/alanyoungcy/domainmart/internal/domain"
)

// Notifier delivers back-office alerts.
type Notifier interface {
	Notify(ctx context.Context, event, title, message string) error
}

// effects performs the best-effort side effects that follow a write: bus
// events, audit entries and notifications. Failures are logged, never
// returned, since the write itself already succeeded.
type effects struct {
	bus    domain.EventBus
	audit  domain.AuditStore
	notify Notifier
	logger *slog.Logger
	now    func() time.Time
}

func newEffects(bus domain.EventBus, audit domain.AuditStore, notify Notifier, logger *slog.Logger) effects {
	return effects{bus: bus, audit: audit, notify: notify, logger: logger, now: time.Now}
}

func (e effects) publish(ctx context.Context, channel, eventType, id string, data any) {
	if e.bus == nil {
		return
	}
	payload, err := json.Marshal(domain.Event{
		Type:      eventType,
		ID:        id,
		Data:      data,
		Timestamp: e.now().UTC(),
	})
	if err != nil {
		e.log().WarnContext(ctx, "marshal event failed",
			slog.String("type", eventType),
			slog.String("error", err.Error()),
		)
		return
	}
	if err := e.bus.Publish(ctx, channel, payload); err != nil {
		e.log().WarnContext(ctx, "publish event failed",
			slog.String("type", eventType),
			slog.String("id", id),
			slog.String("error", err.Error()),
		)
	}
}

func (e effects) record(ctx context.Context, event, actor string, detail map[string]any) {
	if e.audit == nil {
		return
	}
	if err := e.audit.Log(ctx, event, actor, detail); err != nil {
		e.log().WarnContext(ctx, "audit log failed",
			slog.String("event", event),
			slog.String("error", err.Error()),
		)
	}
}

func (e effects) alert(ctx context.Context, event, title, message string) {
	if e.notify == nil {
		return
	}
	if err := e.notify.Notify(ctx, event, title, message); err != nil {
		e.log().WarnContext(ctx, "notify failed",
			slog.String("event", event),
			slog.String("error", err.Error()),
		)
	}
}

func (e effects) log() *slog.Logger {
	if e.logger == nil {
		return slog.Default()
	}
	return e.logger
}

func newID() string {
	return uuid.NewString()
}

// Page is one page of a list result.
type Page[T any] struct {
	Items  []T   `json:"items"`
	Total  int64 `json:"total"`
	Limit  int   `json:"limit"`
	Offset int   `json:"offset"`
}
