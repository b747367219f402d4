// Package audit records security events (logins, refreshes, account state
// changes). Events are always structured-logged; when a queue is configured
// they are also shipped to the worker for durable storage.
package audit

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/flow4ops/backend/pkg/queue"
)

// Recorder emits audit events. A nil queue degrades to log-only.
type Recorder struct {
	queue  *queue.Queue
	logger *zap.Logger
}

// NewRecorder creates an audit recorder.
func NewRecorder(q *queue.Queue, logger *zap.Logger) *Recorder {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Recorder{queue: q, logger: logger}
}

// Record logs the event and, when a queue is configured, enqueues it for the
// audit worker. Enqueue failures are logged, never surfaced: losing an audit
// row must not fail the request that produced it.
func (r *Recorder) Record(ctx context.Context, event string, fields map[string]any) {
	zapFields := make([]zap.Field, 0, len(fields)+1)
	zapFields = append(zapFields, zap.String("event", event))
	for k, v := range fields {
		zapFields = append(zapFields, zap.Any(k, v))
	}
	r.logger.Info("audit", zapFields...)

	if r.queue == nil {
		return
	}
	payload := queue.AuditEventPayload{
		Event:      event,
		Fields:     fields,
		OccurredAt: time.Now().UTC(),
	}
	if err := r.queue.EnqueueAuditEvent(ctx, payload); err != nil {
		r.logger.Warn("enqueue audit event", zap.Error(err), zap.String("event", event))
	}
}
