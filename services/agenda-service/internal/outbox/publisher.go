package outbox

import (
	"context"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/md-rashed-zaman/clinicagenda/libs/db"
	"github.com/md-rashed-zaman/clinicagenda/libs/kafkax"
	otelx "github.com/md-rashed-zaman/clinicagenda/libs/otel"
	"github.com/segmentio/kafka-go"
)

// MessageWriter is the part of *kafka.Writer the publisher needs.
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// txRunner runs fn in a transaction that is rolled back when fn fails.
type txRunner interface {
	InTx(ctx context.Context, fn func(pgx.Tx) error) error
}

type eventStore interface {
	FetchUnpublished(ctx context.Context, tx pgx.Tx, limit int) ([]Record, error)
	MarkPublished(ctx context.Context, tx pgx.Tx, ids []int64) error
}

var (
	_ txRunner   = (*db.Pool)(nil)
	_ eventStore = (*Repository)(nil)
)

type Publisher struct {
	pool      txRunner
	repo      eventStore
	logger    *slog.Logger
	brokers   []string
	pollEvery time.Duration
	batchSize int
}

type PublisherConfig struct {
	Brokers   []string
	PollEvery time.Duration
	BatchSize int
}

func NewPublisher(pool *db.Pool, repo *Repository, logger *slog.Logger, cfg PublisherConfig) *Publisher {
	return newPublisher(pool, repo, logger, cfg)
}

func newPublisher(pool txRunner, repo eventStore, logger *slog.Logger, cfg PublisherConfig) *Publisher {
	if cfg.PollEvery <= 0 {
		cfg.PollEvery = 2 * time.Second
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 50
	}
	return &Publisher{
		pool:      pool,
		repo:      repo,
		logger:    logger,
		brokers:   cfg.Brokers,
		pollEvery: cfg.PollEvery,
		batchSize: cfg.BatchSize,
	}
}

// Run polls the outbox until ctx is done. Events stay in the table when no
// brokers are configured.
func (p *Publisher) Run(ctx context.Context) {
	if len(p.brokers) == 0 {
		p.logger.Warn("outbox publisher disabled (no kafka brokers configured)")
		return
	}

	writer := kafkax.NewWriter(p.brokers)
	defer writer.Close()

	ticker := time.NewTicker(p.pollEvery)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := p.publishBatch(ctx, writer)
			if err != nil {
				p.logger.Error("outbox publish failed", "err", err)
				continue
			}
			if n > 0 {
				p.logger.Debug("outbox batch published", "count", n)
			}
		}
	}
}

// publishBatch sends one batch and marks it published in the same
// transaction. A failed write leaves every fetched row unpublished.
func (p *Publisher) publishBatch(ctx context.Context, writer MessageWriter) (int, error) {
	published := 0
	err := p.pool.InTx(ctx, func(tx pgx.Tx) error {
		records, err := p.repo.FetchUnpublished(ctx, tx, p.batchSize)
		if err != nil || len(records) == 0 {
			return err
		}
		if err := writer.WriteMessages(ctx, Messages(ctx, records)...); err != nil {
			return err
		}
		ids := make([]int64, 0, len(records))
		for _, r := range records {
			ids = append(ids, r.ID)
		}
		published = len(ids)
		return p.repo.MarkPublished(ctx, tx, ids)
	})
	if err != nil {
		return 0, err
	}
	return published, nil
}

// Messages converts outbox records to Kafka messages, restoring the trace
// context captured when each event was written.
func Messages(ctx context.Context, records []Record) []kafka.Message {
	msgs := make([]kafka.Message, 0, len(records))
	for _, r := range records {
		msgCtx := otelx.ContextWithTraceContext(ctx, r.Traceparent, r.Tracestate)
		meta := kafkax.EventMeta{EventID: r.EventID, EventType: r.EventType}
		msgs = append(msgs, kafkax.NewMessage(msgCtx, meta, r.AggregateID, r.Payload))
	}
	return msgs
}
