package oracle

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/bewie03/epok/internal/common/cache"
	apperrors "github.com/bewie03/epok/internal/common/errors"
	"github.com/bewie03/epok/internal/features/raffle/models"
	"github.com/bewie03/epok/internal/metrics"
	"github.com/bewie03/epok/internal/platform/blockfrost"
)

const networkEpochCacheKey = "raffle:network_epoch"

// BlockfrostOracle adapts the Blockfrost client to the raffle domain.
// Not-found answers become ORACLE_NOT_FOUND, everything else
// ORACLE_UNAVAILABLE.
type BlockfrostOracle struct {
	client   *blockfrost.Client
	cache    *cache.CacheService
	epochTTL time.Duration
	metrics  *metrics.Metrics
	now      func() time.Time
}

// NewBlockfrostOracle builds the adapter. cacheService may be nil.
func NewBlockfrostOracle(client *blockfrost.Client, cacheService *cache.CacheService, epochTTL time.Duration, m *metrics.Metrics) *BlockfrostOracle {
	return &BlockfrostOracle{
		client:   client,
		cache:    cacheService,
		epochTTL: epochTTL,
		metrics:  m,
		now:      time.Now,
	}
}

func (o *BlockfrostOracle) FetchTransaction(ctx context.Context, txHash string) (*models.Transaction, error) {
	started := time.Now()
	utxos, err := o.client.TransactionUTXOs(ctx, txHash)
	o.metrics.ObserveOracle("fetch_transaction", err, started)
	if err != nil {
		return nil, mapError("fetch transaction", "transaction "+txHash, err)
	}

	hash := utxos.Hash
	if hash == "" {
		hash = txHash
	}
	inputs := make([]models.TxInput, 0, len(utxos.Inputs))
	for _, in := range utxos.Inputs {
		amounts, err := toAmounts(in.Amount)
		if err != nil {
			return nil, apperrors.NewOracleUnavailableError("decode transaction", err)
		}
		inputs = append(inputs, models.TxInput{
			Address:    in.Address,
			Amounts:    amounts,
			Collateral: in.Collateral,
			Reference:  in.Reference,
		})
	}
	outputs := make([]models.TxOutput, 0, len(utxos.Outputs))
	for _, out := range utxos.Outputs {
		amounts, err := toAmounts(out.Amount)
		if err != nil {
			return nil, apperrors.NewOracleUnavailableError("decode transaction", err)
		}
		outputs = append(outputs, models.TxOutput{Address: out.Address, Amounts: amounts, Collateral: out.Collateral})
	}
	return models.NewTransaction(hash, inputs, outputs), nil
}

// FetchCurrentNetworkEpoch is served from cache for epochTTL when Redis is on
func (o *BlockfrostOracle) FetchCurrentNetworkEpoch(ctx context.Context) (*models.NetworkEpoch, error) {
	if o.cache == nil {
		return o.fetchNetworkEpoch(ctx)
	}

	var epoch models.NetworkEpoch
	err := o.cache.GetOrSet(ctx, networkEpochCacheKey, &epoch, o.epochTTL, func() (interface{}, error) {
		return o.fetchNetworkEpoch(ctx)
	})
	if err != nil {
		return nil, err
	}
	// progress moves on while the cached bounds stay valid
	epoch.Progress = progress(epoch.StartTime, epoch.EndTime, o.now())
	return &epoch, nil
}

func (o *BlockfrostOracle) fetchNetworkEpoch(ctx context.Context) (*models.NetworkEpoch, error) {
	started := time.Now()
	latest, err := o.client.LatestEpoch(ctx)
	o.metrics.ObserveOracle("latest_epoch", err, started)
	if err != nil {
		return nil, mapError("fetch network epoch", "latest epoch", err)
	}

	start := time.Unix(latest.StartTime, 0).UTC()
	end := time.Unix(latest.EndTime, 0).UTC()
	return &models.NetworkEpoch{
		Number:    latest.Epoch,
		StartTime: start,
		EndTime:   end,
		Progress:  progress(start, end, o.now()),
		TxCount:   latest.TxCount,
	}, nil
}

// ListAddressTransactions returns an empty page for addresses without history
func (o *BlockfrostOracle) ListAddressTransactions(ctx context.Context, address string, page, count int) ([]models.AddressTransaction, error) {
	started := time.Now()
	rows, err := o.client.AddressTransactions(ctx, address, page, count)
	o.metrics.ObserveOracle("address_transactions", err, started)
	if errors.Is(err, blockfrost.ErrNotFound) {
		return []models.AddressTransaction{}, nil
	}
	if err != nil {
		return nil, mapError("list address transactions", "address "+address, err)
	}

	txs := make([]models.AddressTransaction, 0, len(rows))
	for _, r := range rows {
		txs = append(txs, models.AddressTransaction{
			TxHash:      r.TxHash,
			TxIndex:     r.TxIndex,
			BlockHeight: r.BlockHeight,
		})
	}
	return txs, nil
}

func mapError(operation, resource string, err error) error {
	if errors.Is(err, blockfrost.ErrNotFound) {
		return apperrors.NewOracleNotFoundError(resource)
	}
	return apperrors.NewOracleUnavailableError(operation, err)
}

func toAmounts(raw []blockfrost.Amount) ([]models.Amount, error) {
	amounts := make([]models.Amount, 0, len(raw))
	for _, a := range raw {
		q, err := decimal.NewFromString(a.Quantity)
		if err != nil {
			return nil, fmt.Errorf("invalid quantity %q for unit %s: %w", a.Quantity, a.Unit, err)
		}
		amounts = append(amounts, models.Amount{Unit: a.Unit, Quantity: q})
	}
	return amounts, nil
}

func progress(start, end, now time.Time) float64 {
	total := end.Sub(start)
	if total <= 0 {
		return 0
	}
	elapsed := now.Sub(start)
	switch {
	case elapsed <= 0:
		return 0
	case elapsed >= total:
		return 1
	}
	return float64(elapsed) / float64(total)
}
