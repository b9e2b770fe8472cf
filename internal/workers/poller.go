package workers

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/bewie03/epok/internal/common/logger"
	"github.com/bewie03/epok/internal/features/raffle/models"
	"github.com/bewie03/epok/internal/features/raffle/repository"
	"github.com/bewie03/epok/internal/metrics"
)

const maxPollPages = 10

// AddressSource lists an address history newest first
type AddressSource interface {
	ListAddressTransactions(ctx context.Context, address string, page, count int) ([]models.AddressTransaction, error)
}

// Queue hands discovered hashes to ingestion
type Queue interface {
	Enqueue(ctx context.Context, txHash string) error
}

// DirectQueue ingests in the poller goroutine when no stream is configured
type DirectQueue struct {
	ingester Ingester
}

func NewDirectQueue(ingester Ingester) *DirectQueue {
	return &DirectQueue{ingester: ingester}
}

func (q *DirectQueue) Enqueue(ctx context.Context, txHash string) error {
	if _, err := q.ingester.IngestHash(ctx, txHash); err != nil && retryable(err) {
		return err
	}
	return nil
}

// Poller pulls the raffle wallet history and queues transactions it has not
// seen. The newest hash seen is kept as the cursor.
type Poller struct {
	source   AddressSource
	cursors  repository.CursorStore
	queue    Queue
	metrics  *metrics.Metrics
	address  string
	interval time.Duration
	pageSize int
	log      zerolog.Logger
}

func NewPoller(
	source AddressSource,
	cursors repository.CursorStore,
	queue Queue,
	m *metrics.Metrics,
	address string,
	interval time.Duration,
	pageSize int,
) *Poller {
	if pageSize <= 0 {
		pageSize = 100
	}
	return &Poller{
		source:   source,
		cursors:  cursors,
		queue:    queue,
		metrics:  m,
		address:  address,
		interval: interval,
		pageSize: pageSize,
		log:      logger.Component("poller"),
	}
}

// Start polls immediately and then on every tick until ctx is done.
func (p *Poller) Start(ctx context.Context) {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	p.log.Info().Str("address", p.address).Dur("interval", p.interval).Msg("Starting address poller")

	for {
		if n, err := p.PollOnce(ctx); err != nil {
			p.log.Error().Err(err).Msg("Poll failed")
		} else if n > 0 {
			p.log.Info().Int("count", n).Msg("Queued new transactions")
		}

		select {
		case <-ctx.Done():
			p.log.Info().Msg("Stopping address poller")
			return
		case <-ticker.C:
		}
	}
}

// PollOnce queues every transaction newer than the cursor, oldest first.
// Without a cursor only the first page is considered.
func (p *Poller) PollOnce(ctx context.Context) (int, error) {
	cursor, err := p.cursors.GetCursor(ctx, p.address)
	if err != nil {
		return 0, err
	}

	var fresh []string
	for page := 1; page <= maxPollPages; page++ {
		txs, err := p.source.ListAddressTransactions(ctx, p.address, page, p.pageSize)
		if err != nil {
			return 0, err
		}

		reached := false
		for _, tx := range txs {
			if tx.TxHash == cursor {
				reached = true
				break
			}
			fresh = append(fresh, tx.TxHash)
		}
		if reached || cursor == "" || len(txs) < p.pageSize {
			break
		}
	}
	if len(fresh) == 0 {
		return 0, nil
	}

	for i := len(fresh) - 1; i >= 0; i-- {
		if err := p.queue.Enqueue(ctx, fresh[i]); err != nil {
			// keep what was queued; the next poll resumes at fresh[i]
			if i < len(fresh)-1 {
				if setErr := p.cursors.SetCursor(ctx, p.address, fresh[i+1]); setErr != nil {
					p.log.Warn().Err(setErr).Msg("Failed to save cursor")
				}
			}
			queued := len(fresh) - 1 - i
			p.metrics.AddPolled(queued)
			return queued, fmt.Errorf("failed to queue %s: %w", fresh[i], err)
		}
	}

	if err := p.cursors.SetCursor(ctx, p.address, fresh[0]); err != nil {
		return len(fresh), err
	}
	p.metrics.AddPolled(len(fresh))
	return len(fresh), nil
}
