package workers

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	go_redis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	apperrors "github.com/bewie03/epok/internal/common/errors"
	"github.com/bewie03/epok/internal/common/logger"
	"github.com/bewie03/epok/internal/features/raffle/models"
)

const (
	StreamKey     = "raffle:tx"
	consumerGroup = "raffle_ingest_consumers"

	txHashField = "tx_hash"
	sourceField = "source"
)

// Ingester is implemented by the raffle IngestService
type Ingester interface {
	IngestHash(ctx context.Context, txHash string) (*models.IngestResult, error)
}

// StreamQueue publishes hashes onto the ingestion stream
type StreamQueue struct {
	rdb    go_redis.Cmdable
	source string
}

func NewStreamQueue(rdb go_redis.Cmdable, source string) *StreamQueue {
	return &StreamQueue{rdb: rdb, source: source}
}

func (q *StreamQueue) Enqueue(ctx context.Context, txHash string) error {
	err := q.rdb.XAdd(ctx, &go_redis.XAddArgs{
		Stream: StreamKey,
		Values: map[string]interface{}{txHashField: txHash, sourceField: q.source},
	}).Err()
	if err != nil {
		return fmt.Errorf("failed to enqueue %s: %w", txHash, err)
	}
	return nil
}

const (
	defaultReadBlock     = 5 * time.Second
	defaultRetryInterval = 30 * time.Second
	readCount            = 10
)

type RedisStreamWorker struct {
	rdb           go_redis.Cmdable
	ingester      Ingester
	consumer      string
	block         time.Duration
	retryInterval time.Duration
	log           zerolog.Logger
}

func NewRedisStreamWorker(rdb go_redis.Cmdable, ingester Ingester, consumer string) *RedisStreamWorker {
	return &RedisStreamWorker{
		rdb:           rdb,
		ingester:      ingester,
		consumer:      consumer,
		block:         defaultReadBlock,
		retryInterval: defaultRetryInterval,
		log:           logger.Component("stream_worker"),
	}
}

// WithIntervals overrides how long a read blocks for new messages and how
// often the pending list is walked again.
func (w *RedisStreamWorker) WithIntervals(block, retry time.Duration) *RedisStreamWorker {
	w.block = block
	w.retryInterval = retry
	return w
}

// Start consumes the stream until ctx is done. Messages left pending by a
// failed attempt, in this run or a previous one, are retried every
// retryInterval.
func (w *RedisStreamWorker) Start(ctx context.Context) {
	if err := w.ensureGroup(ctx); err != nil {
		w.log.Error().Err(err).Msg("Error creating consumer group")
	}

	w.log.Info().
		Str("consumer", w.consumer).
		Dur("retry_interval", w.retryInterval).
		Msg("Starting Redis stream worker...")

	var lastRetry time.Time
	for {
		select {
		case <-ctx.Done():
			w.log.Info().Msg("Stopping Redis stream worker...")
			return
		default:
		}

		if time.Since(lastRetry) >= w.retryInterval {
			if err := w.retryPending(ctx); err != nil && ctx.Err() == nil {
				w.log.Error().Err(err).Msg("Error retrying pending messages")
			}
			lastRetry = time.Now()
		}

		if _, err := w.consume(ctx, ">", w.block); err != nil {
			if ctx.Err() != nil {
				continue
			}
			w.log.Error().Err(err).Msg("Error reading from stream")
			time.Sleep(time.Second)
		}
	}
}

func (w *RedisStreamWorker) ensureGroup(ctx context.Context) error {
	err := w.rdb.XGroupCreateMkStream(ctx, StreamKey, consumerGroup, "0").Err()
	if err != nil && !strings.HasPrefix(err.Error(), "BUSYGROUP") {
		return err
	}
	return nil
}

// retryPending walks this consumer's pending list once, oldest first.
// Messages that fail again stay pending for the next walk.
func (w *RedisStreamWorker) retryPending(ctx context.Context) error {
	id := "0"
	for ctx.Err() == nil {
		b, err := w.consume(ctx, id, -1)
		if err != nil {
			return err
		}
		if b.read == 0 {
			return nil
		}
		id = b.lastID
	}
	return ctx.Err()
}

type batch struct {
	read      int
	processed int
	lastID    string
}

// consume reads one batch after id (an id from this consumer's pending
// list, or ">" for new messages). A negative block returns immediately.
func (w *RedisStreamWorker) consume(ctx context.Context, id string, block time.Duration) (batch, error) {
	var b batch
	entries, err := w.rdb.XReadGroup(ctx, &go_redis.XReadGroupArgs{
		Group:    consumerGroup,
		Consumer: w.consumer,
		Streams:  []string{StreamKey, id},
		Count:    readCount,
		Block:    block,
	}).Result()
	if errors.Is(err, go_redis.Nil) {
		return b, nil
	}
	if err != nil {
		return b, err
	}

	for _, stream := range entries {
		for _, msg := range stream.Messages {
			b.read++
			b.lastID = msg.ID
			if !w.processMessage(ctx, msg) {
				continue
			}
			if err := w.rdb.XAck(ctx, StreamKey, consumerGroup, msg.ID).Err(); err != nil {
				w.log.Warn().Err(err).Str("id", msg.ID).Msg("Failed to ack message")
				continue
			}
			b.processed++
		}
	}
	return b, nil
}

// processMessage reports whether the message is done with. Transient
// failures leave it pending for the next retry.
func (w *RedisStreamWorker) processMessage(ctx context.Context, msg go_redis.XMessage) bool {
	txHash, ok := msg.Values[txHashField].(string)
	if !ok || txHash == "" {
		w.log.Warn().Str("id", msg.ID).Interface("values", msg.Values).Msg("Invalid stream message")
		return true
	}

	res, err := w.ingester.IngestHash(ctx, txHash)
	if err != nil {
		if retryable(err) {
			w.log.Warn().Err(err).Str("tx_hash", txHash).Msg("Ingestion failed, leaving message pending")
			return false
		}
		w.log.Info().Err(err).Str("tx_hash", txHash).Msg("Dropping message")
		return true
	}

	w.log.Debug().
		Str("tx_hash", txHash).
		Str("status", string(res.Status)).
		Str("reason", res.Reason).
		Msg("Processed stream message")
	return true
}

func retryable(err error) bool {
	appErr, ok := apperrors.AsAppError(err)
	if !ok {
		return true
	}
	return appErr.IsInternal()
}
