package service

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	apperrors "github.com/bewie03/epok/internal/common/errors"
	"github.com/bewie03/epok/internal/features/raffle/models"
	"github.com/bewie03/epok/internal/features/raffle/models/dto"
	"github.com/bewie03/epok/internal/features/raffle/repository"
	"github.com/bewie03/epok/internal/testutil"
)

const (
	raffleAddress = "addr1qxraffle"
	tokenUnit     = "a0028f350aaabe0545fdcb56b039bfb08e4bb4d8c4d7c3c7d481c235" + "45504f4b"
)

type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func newTestClock() *testClock {
	return &testClock{now: time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type lockedRand struct {
	mu sync.Mutex
	r  *rand.Rand
}

func (l *lockedRand) Int63n(n int64) int64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.r.Int63n(n)
}

type fakeOracle struct {
	mu  sync.Mutex
	txs map[string]*models.Transaction
	err error
}

func newFakeOracle() *fakeOracle {
	return &fakeOracle{txs: make(map[string]*models.Transaction)}
}

func (o *fakeOracle) add(tx *models.Transaction) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.txs[tx.Hash] = tx
}

func (o *fakeOracle) FetchTransaction(_ context.Context, txHash string) (*models.Transaction, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.err != nil {
		return nil, o.err
	}
	tx, ok := o.txs[txHash]
	if !ok {
		return nil, apperrors.NewOracleNotFoundError("transaction " + txHash)
	}
	cp := *tx
	return &cp, nil
}

func (o *fakeOracle) FetchCurrentNetworkEpoch(context.Context) (*models.NetworkEpoch, error) {
	return &models.NetworkEpoch{Number: 512}, nil
}

func (o *fakeOracle) ListAddressTransactions(context.Context, string, int, int) ([]models.AddressTransaction, error) {
	return nil, nil
}

type fixture struct {
	repo      repository.RaffleRepository
	clock     *testClock
	lifecycle *LifecycleService
	ingest    *IngestService
	raffle    *RaffleService
	oracle    *fakeOracle
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	repo := testutil.GetTestRepository(t)
	clock := newTestClock()
	lifecycle := NewLifecycleService(
		repo,
		repository.NewLocalLocker(),
		&lockedRand{r: rand.New(rand.NewSource(7))},
		nil,
		LifecycleConfig{
			EpochDuration: 120 * time.Hour,
			DefaultPrize:  models.Prize{Name: "Current NFT Prize"},
			LockTimeout:   5 * time.Second,
		},
	).WithClock(clock.Now)

	oracle := newFakeOracle()
	validator := NewPaymentValidator(testRules(models.PaymentModeAtLeast))

	return &fixture{
		repo:      repo,
		clock:     clock,
		lifecycle: lifecycle,
		ingest:    NewIngestService(repo, lifecycle, oracle, validator, nil),
		raffle:    NewRaffleService(repo, lifecycle, oracle),
		oracle:    oracle,
	}
}

func testRules(mode models.PaymentMode) models.PaymentRules {
	return models.PaymentRules{
		RaffleAddress:  raffleAddress,
		TokenUnit:      tokenUnit,
		MinBaseAmount:  decimal.NewFromInt(5),
		MinTokenAmount: decimal.NewFromInt(1000),
		TicketPrice:    decimal.NewFromInt(5),
		Mode:           mode,
	}
}

func txHash(n int) string {
	return fmt.Sprintf("%064x", n)
}

// paymentTx pays lovelace and tokens from sender to the raffle wallet
func paymentTx(hash, sender string, lovelace, tokens int64) *models.Transaction {
	amounts := []models.Amount{{Unit: models.LovelaceUnit, Quantity: decimal.NewFromInt(lovelace)}}
	if tokens > 0 {
		amounts = append(amounts, models.Amount{Unit: tokenUnit, Quantity: decimal.NewFromInt(tokens)})
	}
	return &models.Transaction{
		Hash:   hash,
		Inputs: []models.TxInput{{Address: sender}},
		Outputs: []models.TxOutput{
			{Address: "addr1qxchange", Amounts: []models.Amount{{Unit: models.LovelaceUnit, Quantity: decimal.NewFromInt(1_000_000)}}},
			{Address: raffleAddress, Amounts: amounts},
		},
	}
}

func tokenBurnRequest(hash string, amount int64) *dto.TokenBurnRequest {
	return &dto.TokenBurnRequest{TxHash: hash, TotalTokensBurned: decimal.NewFromInt(amount)}
}
