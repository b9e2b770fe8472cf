package blockfrost

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	bf "github.com/blockfrost/blockfrost-go"
)

const (
	DefaultBaseURL  = "https://cardano-mainnet.blockfrost.io/api/v0"
	projectIDHeader = "project_id"
	maxErrorBody    = 512
)

var ErrNotFound = errors.New("blockfrost: resource not found")

// StatusError is any non-2xx answer other than 404
type StatusError struct {
	StatusCode int
	Message    string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("blockfrost http %d: %s", e.StatusCode, e.Message)
}

// Client wraps the Blockfrost SDK. Calls are never retried: the SDK gets a
// plain http.Client instead of its retrying default, and every call shares
// the same status mapping.
type Client struct {
	api        bf.APIClient
	baseURL    string
	projectID  string
	httpClient *http.Client
}

func NewClient(baseURL, projectID string, timeout time.Duration) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	baseURL = strings.TrimRight(baseURL, "/")
	httpClient := &http.Client{
		Timeout:   timeout,
		Transport: &statusTransport{next: http.DefaultTransport},
	}

	return &Client{
		api: bf.NewAPIClient(bf.APIClientOptions{
			ProjectID: projectID,
			Server:    baseURL,
			Client:    httpClient,
		}),
		baseURL:    baseURL,
		projectID:  projectID,
		httpClient: httpClient,
	}
}

// statusTransport turns 404 into ErrNotFound and other non-2xx answers
// into *StatusError before any body decoding happens.
type statusTransport struct {
	next http.RoundTripper
}

func (t *statusTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	resp, err := t.next.RoundTrip(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return resp, nil
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, ErrNotFound
	}
	body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	return nil, &StatusError{StatusCode: resp.StatusCode, Message: strings.TrimSpace(string(body))}
}

type Amount struct {
	Unit     string `json:"unit"`
	Quantity string `json:"quantity"`
}

type UTXO struct {
	Address     string   `json:"address"`
	Amount      []Amount `json:"amount"`
	TxHash      string   `json:"tx_hash,omitempty"`
	OutputIndex int      `json:"output_index"`
	Collateral  bool     `json:"collateral,omitempty"`
	Reference   bool     `json:"reference,omitempty"`
}

type TransactionUTXOs struct {
	Hash    string `json:"hash"`
	Inputs  []UTXO `json:"inputs"`
	Outputs []UTXO `json:"outputs"`
}

type Epoch struct {
	Epoch     int
	StartTime int64
	EndTime   int64
	TxCount   int
}

type AddressTransaction struct {
	TxHash      string
	TxIndex     int
	BlockHeight int64
}

// TransactionUTXOs fetches GET /txs/{hash}/utxos. The SDK model lacks the
// reference input flag, so this endpoint is decoded here.
func (c *Client) TransactionUTXOs(ctx context.Context, hash string) (*TransactionUTXOs, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/txs/"+url.PathEscape(hash)+"/utxos", nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if c.projectID != "" {
		req.Header.Set(projectIDHeader, c.projectID)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var out TransactionUTXOs
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode transaction utxos: %w", err)
	}
	return &out, nil
}

// LatestEpoch fetches GET /epochs/latest
func (c *Client) LatestEpoch(ctx context.Context) (*Epoch, error) {
	e, err := c.api.EpochLatest(ctx)
	if err != nil {
		return nil, err
	}
	return &Epoch{
		Epoch:     int(e.Epoch),
		StartTime: int64(e.StartTime),
		EndTime:   int64(e.EndTime),
		TxCount:   int(e.TxCount),
	}, nil
}

// AddressTransactions fetches GET /addresses/{address}/transactions, newest first
func (c *Client) AddressTransactions(ctx context.Context, address string, page, count int) ([]AddressTransaction, error) {
	rows, err := c.api.AddressTransactions(ctx, address, bf.APIQueryParams{
		Order: "desc",
		Page:  page,
		Count: count,
	})
	if err != nil {
		return nil, err
	}

	out := make([]AddressTransaction, 0, len(rows))
	for _, r := range rows {
		out = append(out, AddressTransaction{
			TxHash:      r.TxHash,
			TxIndex:     int(r.TxIndex),
			BlockHeight: int64(r.BlockHeight),
		})
	}
	return out, nil
}
