package outbox

import (
	"context"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
)

type store interface {
	Begin(ctx context.Context) (pgx.Tx, error)
	FetchUnpublished(ctx context.Context, tx pgx.Tx, limit int) ([]Record, error)
	MarkPublished(ctx context.Context, tx pgx.Tx, ids []int64) error
}

type Publisher struct {
	repo        store
	sink        Sink
	logger      *slog.Logger
	pollEvery   time.Duration
	batchSize   int
	maxAttempts int

	// Consecutive send failures per record id, and records set aside after
	// maxAttempts. Both are only touched by the Run goroutine and reset on
	// restart.
	failures map[int64]int
	parked   map[int64]bool
}

type PublisherConfig struct {
	PollEvery time.Duration
	BatchSize int
	// MaxAttempts parks a record after that many consecutive failed sends so
	// the rows behind it keep flowing. Zero retries the head row forever.
	MaxAttempts int
}

func NewPublisher(repo *Repository, sink Sink, logger *slog.Logger, cfg PublisherConfig) *Publisher {
	if cfg.PollEvery <= 0 {
		cfg.PollEvery = 2 * time.Second
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 50
	}
	return &Publisher{
		repo:        repo,
		sink:        sink,
		logger:      logger,
		pollEvery:   cfg.PollEvery,
		batchSize:   cfg.BatchSize,
		maxAttempts: cfg.MaxAttempts,
		failures:    map[int64]int{},
		parked:      map[int64]bool{},
	}
}

// Run polls until ctx is done. Rows are marked published only after the sink
// accepted them, so a crash re-sends (at-least-once). A failed send stops the
// batch; the rows sent before it are still marked.
func (p *Publisher) Run(ctx context.Context) {
	if p.sink == nil {
		p.logger.Warn("outbox publisher disabled (no sink configured)")
		return
	}
	defer p.sink.Close()

	ticker := time.NewTicker(p.pollEvery)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := p.publishBatch(ctx); err != nil {
				p.logger.Error("outbox publish failed", "err", err)
			}
		}
	}
}

func (p *Publisher) publishBatch(ctx context.Context) error {
	tx, err := p.repo.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	records, err := p.repo.FetchUnpublished(ctx, tx, p.batchSize)
	if err != nil {
		return err
	}
	if len(records) == 0 {
		return tx.Commit(ctx)
	}

	ids := make([]int64, 0, len(records))
	var sendErr error
	for _, r := range records {
		if p.parked[r.ID] {
			continue
		}
		if err := p.sink.Send(ctx, r); err != nil {
			if p.fail(r, err) {
				continue
			}
			sendErr = err
			break
		}
		delete(p.failures, r.ID)
		ids = append(ids, r.ID)
	}
	if len(ids) > 0 {
		if err := p.repo.MarkPublished(ctx, tx, ids); err != nil {
			return err
		}
	}
	if err := tx.Commit(ctx); err != nil {
		return err
	}
	return sendErr
}

// fail counts a failed send of r and reports whether r is now parked.
func (p *Publisher) fail(r Record, err error) bool {
	if p.failures == nil {
		p.failures = map[int64]int{}
	}
	p.failures[r.ID]++
	attempts := p.failures[r.ID]
	if p.maxAttempts <= 0 || attempts < p.maxAttempts {
		p.logger.Warn("outbox send failed", "err", err, "outbox_id", r.ID, "event_id", r.EventID, "event_type", r.EventType, "attempts", attempts)
		return false
	}
	if p.parked == nil {
		p.parked = map[int64]bool{}
	}
	p.parked[r.ID] = true
	delete(p.failures, r.ID)
	p.logger.Error("outbox record parked until restart", "err", err, "outbox_id", r.ID, "event_id", r.EventID, "event_type", r.EventType, "attempts", attempts)
	return true
}
