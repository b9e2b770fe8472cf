package service

import (
	"context"

	"github.com/bewie03/epok/internal/features/raffle/models"
)

// ChainOracle is the read-only view of the chain. Implementations bound
// every call with a timeout and never retry.
type ChainOracle interface {
	FetchTransaction(ctx context.Context, txHash string) (*models.Transaction, error)
	FetchCurrentNetworkEpoch(ctx context.Context) (*models.NetworkEpoch, error)
	ListAddressTransactions(ctx context.Context, address string, page, count int) ([]models.AddressTransaction, error)
}
