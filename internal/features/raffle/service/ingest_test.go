package service

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/bewie03/epok/internal/common/errors"
	"github.com/bewie03/epok/internal/features/raffle/models"
)

func TestIngestAcceptedThenDuplicate(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	hash := txHash(1)
	f.oracle.add(paymentTx(hash, "addr1qxsender", 5_000_000, 1000))

	res, err := f.ingest.IngestHash(ctx, hash)
	require.NoError(t, err)
	assert.Equal(t, models.IngestStatusAccepted, res.Status)
	assert.Equal(t, "addr1qxsender", res.Wallet)
	assert.Equal(t, int64(1), res.TicketCount)
	require.NotNil(t, res.AdaAmount)
	assert.True(t, decimal.NewFromInt(5).Equal(*res.AdaAmount))
	assert.NotZero(t, res.EpochID)

	res, err = f.ingest.IngestHash(ctx, hash)
	require.NoError(t, err)
	assert.Equal(t, models.IngestStatusIgnored, res.Status)
	assert.Equal(t, models.ReasonAlreadyProcessed, res.Reason)

	entries, err := f.raffle.GetEntries(ctx)
	require.NoError(t, err)
	require.Len(t, entries.Entries, 1)
	assert.Equal(t, int64(1), entries.Count)
	assert.Equal(t, hash, entries.Entries[0].TransactionHash)
}

func TestIngestIgnoresUnrelatedTransaction(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	tx := &models.Transaction{
		Hash:    txHash(2),
		Inputs:  []models.TxInput{{Address: "addr1qxsender"}},
		Outputs: []models.TxOutput{{Address: "addr1qxelsewhere"}},
	}
	res, err := f.ingest.IngestTransaction(ctx, tx)
	require.NoError(t, err)
	assert.Equal(t, models.IngestStatusIgnored, res.Status)
	assert.Equal(t, models.ReasonNoRafflePayment, res.Reason)

	participants, err := f.raffle.GetParticipants(ctx)
	require.NoError(t, err)
	assert.Empty(t, participants.Participants)
	assert.Zero(t, participants.TotalEntries)
}

func TestIngestRejectsUnderpayment(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	res, err := f.ingest.IngestTransaction(ctx, paymentTx(txHash(3), "addr1qxsender", 5_000_000, 10))
	require.NoError(t, err)
	assert.Equal(t, models.IngestStatusIgnored, res.Status)
	assert.Equal(t, models.ReasonInsufficientEpok, res.Reason)
}

func TestIngestOracleFailures(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	res, err := f.ingest.IngestHash(ctx, txHash(4))
	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeOracleNotFound))
	require.NotNil(t, res)
	assert.Equal(t, models.IngestStatusError, res.Status)
	assert.Equal(t, models.ReasonOracleNotFound, res.Reason)

	f.oracle.err = apperrors.NewOracleUnavailableError("fetch transaction", errors.New("timeout"))
	res, err = f.ingest.IngestHash(ctx, txHash(4))
	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeOracleUnavailable))
	assert.Equal(t, models.IngestStatusError, res.Status)
	assert.Equal(t, models.ReasonOracleUnavailable, res.Reason)
}

func TestIngestRejectsMalformedHash(t *testing.T) {
	f := newFixture(t)

	res, err := f.ingest.IngestHash(context.Background(), "not-a-hash")
	assert.Nil(t, res)
	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeValidation))
}

func TestIngestConcurrentDuplicates(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	hash := txHash(5)
	f.oracle.add(paymentTx(hash, "addr1qxsender", 10_000_000, 1000))

	const deliveries = 6
	results := make([]*models.IngestResult, deliveries)
	var wg sync.WaitGroup
	for i := 0; i < deliveries; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			res, err := f.ingest.IngestHash(ctx, hash)
			if assert.NoError(t, err) {
				results[i] = res
			}
		}(i)
	}
	wg.Wait()

	accepted := 0
	for _, r := range results {
		require.NotNil(t, r)
		if r.Status == models.IngestStatusAccepted {
			accepted++
		} else {
			assert.Equal(t, models.ReasonAlreadyProcessed, r.Reason)
		}
	}
	assert.Equal(t, 1, accepted)

	current, err := f.raffle.GetCurrentEpoch(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), current.TotalTickets)
}

func TestRecordTokenBurn(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	req := tokenBurnRequest(txHash(9), 2500)
	burn, err := f.raffle.RecordTokenBurn(ctx, req)
	require.NoError(t, err)
	assert.NotZero(t, burn.EpochID)

	_, err = f.raffle.RecordTokenBurn(ctx, req)
	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeDuplicateTransaction))

	burns, err := f.raffle.GetTokenBurns(ctx)
	require.NoError(t, err)
	assert.Len(t, burns.Burns, 1)
	assert.True(t, decimal.NewFromInt(2500).Equal(burns.Total))

	_, err = f.raffle.RecordTokenBurn(ctx, tokenBurnRequest(txHash(10), 0))
	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeValidation))
}
