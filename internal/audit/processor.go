package audit

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/flow4ops/backend/pkg/queue"
)

// Processor consumes audit event jobs and persists them to the
// audit_events table.
type Processor struct {
	pool   *pgxpool.Pool
	queue  *queue.Queue
	logger *zap.Logger
}

// NewProcessor creates an audit event processor.
func NewProcessor(pool *pgxpool.Pool, q *queue.Queue, logger *zap.Logger) *Processor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Processor{pool: pool, queue: q, logger: logger}
}

// Run consumes jobs until ctx is cancelled. Failed jobs are retried with the
// queue's DLQ policy.
func (p *Processor) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		job, err := p.queue.Dequeue(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			p.logger.Error("dequeue", zap.Error(err))
			continue
		}
		if job == nil {
			continue
		}

		if err := p.process(ctx, job); err != nil {
			p.logger.Error("process audit job", zap.Error(err), zap.String("job_id", job.ID))
			if err := p.queue.Retry(ctx, job); err != nil {
				p.logger.Error("retry audit job", zap.Error(err), zap.String("job_id", job.ID))
			}
		}
	}
}

func (p *Processor) process(ctx context.Context, job *queue.Job) error {
	if job.Type != queue.JobTypeAuditEvent {
		return fmt.Errorf("unknown job type: %s", job.Type)
	}
	var payload queue.AuditEventPayload
	if err := json.Unmarshal(job.Payload, &payload); err != nil {
		return fmt.Errorf("unmarshal payload: %w", err)
	}
	fields := payload.Fields
	if fields == nil {
		fields = map[string]any{}
	}
	id, err := uuid.Parse(job.ID)
	if err != nil {
		id = uuid.New()
	}
	const q = `INSERT INTO audit_events (id, event, fields, created_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (id) DO NOTHING`
	_, err = p.pool.Exec(ctx, q, id, payload.Event, fields, payload.OccurredAt)
	if err != nil {
		return fmt.Errorf("insert audit event: %w", err)
	}
	return nil
}
