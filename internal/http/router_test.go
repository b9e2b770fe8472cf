package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bewie03/epok/internal/common/config"
	apperrors "github.com/bewie03/epok/internal/common/errors"
	rafflehttp "github.com/bewie03/epok/internal/features/raffle/delivery/http"
	"github.com/bewie03/epok/internal/features/raffle/models"
	"github.com/bewie03/epok/internal/features/raffle/models/dto"
	"github.com/bewie03/epok/internal/features/raffle/repository"
	"github.com/bewie03/epok/internal/features/raffle/service"
	"github.com/bewie03/epok/internal/metrics"
	"github.com/bewie03/epok/internal/testutil"
)

const (
	testSecret   = "hook-secret"
	testAdminKey = "admin-key"
	raffleAddr   = "addr1qxraffle"
	epokUnit     = "a0028f350aaabe0545fdcb56b039bfb08e4bb4d8c4d7c3c7d481c235" + "45504f4b"
)

type stubOracle struct {
	mu  sync.Mutex
	txs map[string]*models.Transaction
}

func (o *stubOracle) FetchTransaction(_ context.Context, txHash string) (*models.Transaction, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	tx, ok := o.txs[txHash]
	if !ok {
		return nil, apperrors.NewOracleNotFoundError("transaction " + txHash)
	}
	return tx, nil
}

func (o *stubOracle) FetchCurrentNetworkEpoch(context.Context) (*models.NetworkEpoch, error) {
	return &models.NetworkEpoch{Number: 530, Progress: 42.5}, nil
}

func (o *stubOracle) ListAddressTransactions(context.Context, string, int, int) ([]models.AddressTransaction, error) {
	return nil, nil
}

type failingCheck struct{}

func (failingCheck) HealthCheck(context.Context) error { return errors.New("connection refused") }

type testServer struct {
	oracle *stubOracle
	h      http.Handler
}

func newTestServer(t *testing.T, checks map[string]HealthChecker) *testServer {
	t.Helper()

	cfg := &config.Config{}
	cfg.Server.Origins = []string{"http://localhost:3000"}
	cfg.Webhook.Header = "X-Webhook-Secret"
	cfg.Webhook.Secret = testSecret
	cfg.Admin.APIKey = testAdminKey

	reg := prometheus.NewRegistry()
	m := metrics.NewMetrics(reg, "raffle")

	repo := testutil.GetTestRepository(t)
	lifecycle := service.NewLifecycleService(
		repo,
		repository.NewLocalLocker(),
		rand.New(rand.NewSource(3)),
		m,
		service.LifecycleConfig{
			EpochDuration: 120 * time.Hour,
			DefaultPrize:  models.Prize{Name: "Current NFT Prize"},
			LockTimeout:   5 * time.Second,
		},
	)
	oracle := &stubOracle{txs: make(map[string]*models.Transaction)}
	validator := service.NewPaymentValidator(models.PaymentRules{
		RaffleAddress:  raffleAddr,
		TokenUnit:      epokUnit,
		MinBaseAmount:  decimal.NewFromInt(5),
		MinTokenAmount: decimal.NewFromInt(1000),
		TicketPrice:    decimal.NewFromInt(5),
		Mode:           models.PaymentModeAtLeast,
	})

	handler := rafflehttp.NewRaffleHandler(
		service.NewRaffleService(repo, lifecycle, oracle),
		lifecycle,
		service.NewIngestService(repo, lifecycle, oracle, validator, m),
	)

	router := NewRouter(cfg, Dependencies{Raffle: handler, Gatherer: reg, Checks: checks})
	return &testServer{oracle: oracle, h: router}
}

func (s *testServer) do(method, path string, body any, headers map[string]string) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		switch b := body.(type) {
		case string:
			buf.WriteString(b)
		default:
			_ = json.NewEncoder(&buf).Encode(b)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	s.h.ServeHTTP(w, req)
	return w
}

func hash(n int) string {
	return fmt.Sprintf("%064x", n)
}

func payment(h, sender string, lovelace, tokens int64) *models.Transaction {
	return &models.Transaction{
		Hash:   h,
		Inputs: []models.TxInput{{Address: sender}},
		Outputs: []models.TxOutput{{
			Address: raffleAddr,
			Amounts: []models.Amount{
				{Unit: models.LovelaceUnit, Quantity: decimal.NewFromInt(lovelace)},
				{Unit: epokUnit, Quantity: decimal.NewFromInt(tokens)},
			},
		}},
	}
}

var (
	webhookHeaders = map[string]string{"X-Webhook-Secret": testSecret}
	adminHeaders   = map[string]string{"X-Admin-Key": testAdminKey}
)

func TestProbes(t *testing.T) {
	s := newTestServer(t, nil)

	assert.Equal(t, http.StatusOK, s.do(http.MethodGet, "/", nil, nil).Code)
	assert.Equal(t, http.StatusOK, s.do(http.MethodGet, "/health", nil, nil).Code)
	assert.Equal(t, http.StatusOK, s.do(http.MethodGet, "/live", nil, nil).Code)
	assert.Equal(t, http.StatusOK, s.do(http.MethodGet, "/ready", nil, nil).Code)

	unready := newTestServer(t, map[string]HealthChecker{"redis": failingCheck{}})
	w := unready.do(http.MethodGet, "/ready", nil, nil)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Contains(t, w.Body.String(), "redis unavailable")
}

func TestWebhookRequiresSecret(t *testing.T) {
	s := newTestServer(t, nil)

	w := s.do(http.MethodPost, "/webhook/transaction", map[string]string{"tx_hash": hash(1)}, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = s.do(http.MethodPost, "/webhook/transaction", map[string]string{"tx_hash": hash(1)},
		map[string]string{"X-Webhook-Secret": "wrong"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestWebhookRejectsBadBody(t *testing.T) {
	s := newTestServer(t, nil)

	w := s.do(http.MethodPost, "/webhook/transaction", "{not json", webhookHeaders)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(http.MethodPost, "/webhook/transaction", map[string]string{}, webhookHeaders)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "No transaction hash provided")

	w = s.do(http.MethodPost, "/webhook/transaction", map[string]string{"tx_hash": "xyz"}, webhookHeaders)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestWebhookAcceptsPaymentAndReportsDuplicates(t *testing.T) {
	s := newTestServer(t, nil)
	s.oracle.txs[hash(1)] = payment(hash(1), "addr1qxalice", 10_000_000, 1000)

	w := s.do(http.MethodPost, "/webhook/transaction", map[string]string{"tx_hash": hash(1)}, webhookHeaders)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp dto.WebhookResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, models.IngestStatusAccepted, resp.Status)
	require.Len(t, resp.Results, 1)
	assert.Equal(t, int64(2), resp.Results[0].TicketCount)

	w = s.do(http.MethodPost, "/webhook/transaction", map[string]string{"tx_hash": hash(1)}, webhookHeaders)
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, models.IngestStatusIgnored, resp.Status)
	assert.Equal(t, models.ReasonAlreadyProcessed, resp.Results[0].Reason)

	w = s.do(http.MethodGet, "/api/participants", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var participants dto.ParticipantsResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &participants))
	require.Len(t, participants.Participants, 1)
	assert.Equal(t, "addr1qxalice", participants.Participants[0].WalletAddress)
}

func TestWebhookUnknownTransaction(t *testing.T) {
	s := newTestServer(t, nil)

	w := s.do(http.MethodPost, "/webhook/transaction", map[string]string{"tx_hash": hash(9)}, webhookHeaders)
	assert.Equal(t, http.StatusNotFound, w.Code)

	var resp dto.WebhookResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, models.IngestStatusError, resp.Status)
}

func TestWebhookEmbeddedPayload(t *testing.T) {
	s := newTestServer(t, nil)

	body := map[string]any{
		"type": "transaction",
		"payload": []map[string]any{{
			"tx":     map[string]string{"hash": hash(2)},
			"inputs": []map[string]any{{"address": "addr1qxbob"}},
			"outputs": []map[string]any{{
				"address": raffleAddr,
				"amount": []map[string]string{
					{"unit": "lovelace", "quantity": "5000000"},
					{"unit": epokUnit, "quantity": "1000"},
				},
			}},
		}},
	}
	w := s.do(http.MethodPost, "/webhook/transaction", body, webhookHeaders)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp dto.WebhookResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, models.IngestStatusAccepted, resp.Status)
	assert.Equal(t, "addr1qxbob", resp.Results[0].Wallet)
}

func TestAdminRoutes(t *testing.T) {
	s := newTestServer(t, nil)

	w := s.do(http.MethodPost, "/api/admin/draw-winner", nil, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = s.do(http.MethodPost, "/api/admin/draw-winner", nil, adminHeaders)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), string(apperrors.ErrCodeNoActiveEpoch))

	w = s.do(http.MethodGet, "/api/latest-winner", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"winner_address":null`)

	s.oracle.txs[hash(3)] = payment(hash(3), "addr1qxcarol", 5_000_000, 1000)
	w = s.do(http.MethodPost, "/api/admin/ingest", map[string]string{"tx_hash": hash(3)}, adminHeaders)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = s.do(http.MethodPost, "/api/admin/draw-winner", nil, adminHeaders)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var draw models.DrawResult
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &draw))
	assert.Equal(t, "addr1qxcarol", draw.Winner)

	w = s.do(http.MethodGet, "/api/latest-winner", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var winner dto.WinnerResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &winner))
	require.NotNil(t, winner.WinnerAddress)
	assert.Equal(t, "addr1qxcarol", *winner.WinnerAddress)

	w = s.do(http.MethodGet, "/api/winners", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "addr1qxcarol")

	w = s.do(http.MethodGet, "/api/winners?limit=-1", nil, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCreateEpochConflict(t *testing.T) {
	s := newTestServer(t, nil)

	end := time.Now().Add(48 * time.Hour).UTC()
	w := s.do(http.MethodPost, "/api/admin/epochs/new",
		map[string]any{"end_time": end, "prize_nft_name": "Epok Genesis"}, adminHeaders)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = s.do(http.MethodPost, "/api/admin/epochs/new", map[string]any{"end_time": end}, adminHeaders)
	assert.Equal(t, http.StatusConflict, w.Code)

	w = s.do(http.MethodGet, "/api/current-prize", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Epok Genesis")
}

func TestMetricsEndpoint(t *testing.T) {
	s := newTestServer(t, nil)
	s.do(http.MethodPost, "/webhook/transaction", map[string]string{"tx_hash": hash(7)}, webhookHeaders)

	w := s.do(http.MethodGet, "/metrics", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `raffle_ingest_total{status="error"} 1`)
}
