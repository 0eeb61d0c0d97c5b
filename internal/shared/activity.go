package shared

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ActivityEvent is one entry in the append-only per-document event log.
type ActivityEvent struct {
	ID         uuid.UUID `json:"id"`
	Entity     string    `json:"entity"`
	EntityID   int64     `json:"entity_id"`
	ActorID    int64     `json:"actor_id"`
	Message    string    `json:"message"`
	OccurredAt time.Time `json:"occurred_at"`
}

// ActivityLogger appends workflow events into activity_logs.
type ActivityLogger struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

// NewActivityLogger returns a new ActivityLogger.
func NewActivityLogger(pool *pgxpool.Pool, logger *slog.Logger) *ActivityLogger {
	return &ActivityLogger{pool: pool, logger: logger}
}

// Record persists the event. Callers that must not fail on logging errors
// should use Log instead.
func (l *ActivityLogger) Record(ctx context.Context, event ActivityEvent) error {
	if l == nil || l.pool == nil {
		return errors.New("activity logger not initialised")
	}
	if event.Entity == "" || event.EntityID == 0 || event.Message == "" {
		return errors.New("activity event requires entity/entity_id/message")
	}
	if event.ID == uuid.Nil {
		event.ID = uuid.New()
	}
	_, err := l.pool.Exec(ctx,
		`INSERT INTO activity_logs (id, entity, entity_id, actor_id, message, occurred_at)
		 VALUES ($1, $2, $3, $4, $5, COALESCE(NULLIF($6, '0001-01-01 00:00:00+00'::timestamptz), NOW()))`,
		event.ID, event.Entity, event.EntityID, event.ActorID, event.Message, event.OccurredAt)
	return err
}

// Log records the event best-effort. Failures are written to the
// application log and never propagated to the triggering operation.
func (l *ActivityLogger) Log(ctx context.Context, entity string, entityID int64, message string) {
	if l == nil {
		return
	}
	event := ActivityEvent{
		Entity:   entity,
		EntityID: entityID,
		ActorID:  ActorFromContext(ctx),
		Message:  message,
	}
	if err := l.Record(ctx, event); err != nil {
		log := l.logger
		if log == nil {
			log = slog.Default()
		}
		log.Warn("activity log write failed",
			slog.String("entity", entity),
			slog.Int64("entity_id", entityID),
			slog.Any("error", err))
	}
}

// History returns events for one document, newest first.
func (l *ActivityLogger) History(ctx context.Context, entity string, entityID int64, limit int) ([]ActivityEvent, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := l.pool.Query(ctx,
		`SELECT id, entity, entity_id, actor_id, message, occurred_at
		 FROM activity_logs
		 WHERE entity = $1 AND entity_id = $2
		 ORDER BY occurred_at DESC, id DESC
		 LIMIT $3`, entity, entityID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []ActivityEvent
	for rows.Next() {
		var e ActivityEvent
		if err := rows.Scan(&e.ID, &e.Entity, &e.EntityID, &e.ActorID, &e.Message, &e.OccurredAt); err != nil {
			return nil, err
		}
		events = append(events, e)
	}
	return events, rows.Err()
}
