package oracle

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bewie03/epok/internal/common/cache"
	apperrors "github.com/bewie03/epok/internal/common/errors"
	"github.com/bewie03/epok/internal/platform/blockfrost"
)

func newTestOracle(t *testing.T, h http.HandlerFunc, cacheService *cache.CacheService) *BlockfrostOracle {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return NewBlockfrostOracle(blockfrost.NewClient(srv.URL, "pid", time.Second), cacheService, time.Minute, nil)
}

func TestFetchTransactionMapsAmounts(t *testing.T) {
	o := newTestOracle(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{
			"hash": "h1",
			"inputs": [
				{"address": "addr1reference", "amount": [{"unit": "lovelace", "quantity": "2000000"}], "reference": true},
				{"address": "addr1collateral", "amount": [], "collateral": true},
				{"address": "addr1sender", "amount": [{"unit": "lovelace", "quantity": "9000000"}]}
			],
			"outputs": [
				{"address": "addr1raffle", "amount": [{"unit": "lovelace", "quantity": "5000000"}]},
				{"address": "addr1collateral", "amount": [{"unit": "lovelace", "quantity": "4000000"}], "collateral": true}
			]
		}`))
	}, nil)

	tx, err := o.FetchTransaction(context.Background(), "h1")
	require.NoError(t, err)
	assert.Equal(t, "h1", tx.Hash)
	assert.Equal(t, "addr1sender", tx.Sender())
	require.Len(t, tx.Inputs, 1)
	require.Len(t, tx.Outputs, 1)
	assert.True(t, decimal.NewFromInt(5_000_000).Equal(tx.Outputs[0].Amounts[0].Quantity))
}

func TestFetchTransactionErrors(t *testing.T) {
	var status atomic.Int32
	o := newTestOracle(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(int(status.Load()))
	}, nil)

	status.Store(http.StatusNotFound)
	_, err := o.FetchTransaction(context.Background(), "h1")
	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeOracleNotFound))

	for _, code := range []int{http.StatusTooManyRequests, http.StatusInternalServerError, http.StatusForbidden} {
		status.Store(int32(code))
		_, err = o.FetchTransaction(context.Background(), "h1")
		assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeOracleUnavailable), "status %d", code)
	}
}

func TestAddressWithoutHistoryIsEmpty(t *testing.T) {
	o := newTestOracle(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}, nil)

	txs, err := o.ListAddressTransactions(context.Background(), "addr1new", 1, 10)
	require.NoError(t, err)
	assert.Empty(t, txs)
}

func TestNetworkEpochIsCached(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	var calls atomic.Int32
	start := time.Now().Add(-time.Hour).Unix()
	end := time.Now().Add(time.Hour).Unix()
	o := newTestOracle(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		assert.Equal(t, "/epochs/latest", r.URL.Path)
		_, _ = w.Write([]byte(`{"epoch": 500, "start_time": ` + strconv.FormatInt(start, 10) + `, "end_time": ` + strconv.FormatInt(end, 10) + `, "tx_count": 12}`))
	}, cache.NewCacheService(client))

	first, err := o.FetchCurrentNetworkEpoch(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 500, first.Number)
	assert.InDelta(t, 0.5, first.Progress, 0.01)

	second, err := o.FetchCurrentNetworkEpoch(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 500, second.Number)
	assert.Equal(t, int32(1), calls.Load())
	assert.True(t, mr.Exists(networkEpochCacheKey))
}

func TestProgressBounds(t *testing.T) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	end := start.Add(10 * time.Hour)

	assert.Equal(t, 0.0, progress(start, end, start.Add(-time.Hour)))
	assert.InDelta(t, 0.3, progress(start, end, start.Add(3*time.Hour)), 1e-9)
	assert.Equal(t, 1.0, progress(start, end, end.Add(time.Hour)))
	assert.Equal(t, 0.0, progress(end, start, start))
}
