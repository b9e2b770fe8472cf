package repository

import (
	"context"
	"errors"
	"time"

	"github.com/bewie03/epok/internal/features/raffle/models"
)

var (
	ErrEpochNotFound         = errors.New("epoch not found")
	ErrOpenEpochExists       = errors.New("an open epoch already exists")
	ErrEpochAlreadyCompleted = errors.New("epoch already completed")
	ErrDuplicateTransaction  = errors.New("transaction already recorded")
	ErrLockTimeout           = errors.New("failed to acquire lock: timeout")
	ErrAlreadyLocked         = errors.New("resource is already locked")
)

// RaffleRepository is the only writer of epochs, entries and burns.
type RaffleRepository interface {
	// Transaction runs fn against a repository bound to one database
	// transaction. fn's error rolls it back.
	Transaction(ctx context.Context, fn func(repo RaffleRepository) error) error

	GetOpenEpoch(ctx context.Context) (*models.Epoch, error)
	// GetOpenEpochForUpdate locks the open epoch row for the enclosing transaction
	GetOpenEpochForUpdate(ctx context.Context) (*models.Epoch, error)
	GetActiveEpoch(ctx context.Context, now time.Time) (*models.Epoch, error)
	GetEpoch(ctx context.Context, id uint) (*models.Epoch, error)
	CreateEpoch(ctx context.Context, epoch *models.Epoch) error
	CompleteEpoch(ctx context.Context, id uint, winner *string, totalTickets int64, completedAt, endTime time.Time) error
	UpdatePrize(ctx context.Context, id uint, prize models.Prize) error
	GetLatestCompletedEpochWithWinner(ctx context.Context) (*models.Epoch, error)
	ListCompletedEpochs(ctx context.Context, limit int) ([]models.Epoch, error)

	RecordEntry(ctx context.Context, entry *models.Entry) error
	ListEntries(ctx context.Context, epochID uint) ([]models.Entry, error)
	SumTickets(ctx context.Context, epochID uint) (int64, error)

	RecordTokenBurn(ctx context.Context, burn *models.TokenBurn) error
	ListTokenBurns(ctx context.Context, epochID uint) ([]models.TokenBurn, error)

	Migrate(ctx context.Context) error
}

// Locker serializes epoch lifecycle transitions.
type Locker interface {
	// Acquire blocks until the lock is held or ctx is done.
	Acquire(ctx context.Context, key string) (release func(), err error)
}

// CursorStore persists the poller position per address.
type CursorStore interface {
	GetCursor(ctx context.Context, address string) (string, error)
	SetCursor(ctx context.Context, address, txHash string) error
}
