// Package worker relays audit events from the transactional outbox to the
// Kafka stream. Rows are claimed with SKIP LOCKED so multiple instances can
// run side by side, and marked published only after the broker acknowledges
// the record.
package worker

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

const (
	defaultInterval  = time.Second
	defaultBatchSize = 100
)

// Producer is the publishing side the relay needs from Kafka.
type Producer interface {
	Produce(ctx context.Context, key, value []byte) error
}

// Relay moves unpublished outbox rows onto the audit topic.
type Relay struct {
	db       *sql.DB
	producer Producer
	logger   *slog.Logger

	interval  time.Duration
	batchSize int
}

// Option configures the Relay.
type Option func(*Relay)

// WithInterval sets the polling interval.
func WithInterval(d time.Duration) Option {
	return func(r *Relay) {
		if d > 0 {
			r.interval = d
		}
	}
}

// WithBatchSize bounds how many rows one pass claims.
func WithBatchSize(n int) Option {
	return func(r *Relay) {
		if n > 0 {
			r.batchSize = n
		}
	}
}

// NewRelay creates an outbox relay.
func NewRelay(db *sql.DB, producer Producer, logger *slog.Logger, opts ...Option) *Relay {
	r := &Relay{
		db:        db,
		producer:  producer,
		logger:    logger,
		interval:  defaultInterval,
		batchSize: defaultBatchSize,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run polls the outbox until the context is cancelled.
func (r *Relay) Run(ctx context.Context) error {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if n, err := r.relayBatch(ctx); err != nil {
				r.logger.ErrorContext(ctx, "outbox relay pass failed", "error", err)
			} else if n > 0 {
				r.logger.DebugContext(ctx, "relayed outbox entries", "count", n)
			}
		}
	}
}

// relayBatch claims one batch of unpublished rows, produces them, and marks
// them published. The claim and the mark happen in one transaction; a crash
// between produce and commit redelivers, which the consumer absorbs through
// idempotent inserts.
func (r *Relay) relayBatch(ctx context.Context) (int, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin relay tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	rows, err := tx.QueryContext(ctx, `
		SELECT id, payload
		FROM outbox
		WHERE published_at IS NULL
		ORDER BY created_at
		LIMIT $1
		FOR UPDATE SKIP LOCKED
	`, r.batchSize)
	if err != nil {
		return 0, fmt.Errorf("claim outbox rows: %w", err)
	}

	type entry struct {
		id      uuid.UUID
		payload []byte
	}
	var entries []entry
	for rows.Next() {
		var e entry
		if err := rows.Scan(&e.id, &e.payload); err != nil {
			rows.Close()
			return 0, fmt.Errorf("scan outbox row: %w", err)
		}
		entries = append(entries, e)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return 0, fmt.Errorf("iterate outbox rows: %w", err)
	}
	if len(entries) == 0 {
		return 0, nil
	}

	published := make([]uuid.UUID, 0, len(entries))
	for _, e := range entries {
		if err := r.producer.Produce(ctx, []byte(e.id.String()), e.payload); err != nil {
			// Publish what made it; the rest stays claimed until rollback.
			r.logger.ErrorContext(ctx, "outbox produce failed",
				"entry_id", e.id, "error", err)
			break
		}
		published = append(published, e.id)
	}
	if len(published) == 0 {
		return 0, nil
	}

	if _, err := tx.ExecContext(ctx, `
		UPDATE outbox SET published_at = $1 WHERE id = ANY($2)
	`, time.Now(), pq.Array(published)); err != nil {
		return 0, fmt.Errorf("mark outbox published: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit relay tx: %w", err)
	}
	return len(published), nil
}
