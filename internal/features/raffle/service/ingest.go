package service

import (
	"context"
	"errors"

	"github.com/rs/zerolog"

	apperrors "github.com/bewie03/epok/internal/common/errors"
	"github.com/bewie03/epok/internal/common/logger"
	"github.com/bewie03/epok/internal/common/validation"
	"github.com/bewie03/epok/internal/features/raffle/models"
	"github.com/bewie03/epok/internal/features/raffle/repository"
	"github.com/bewie03/epok/internal/metrics"
)

// IngestService turns observed transactions into ledger entries.
// Deliveries are idempotent on the transaction hash.
type IngestService struct {
	repo      repository.RaffleRepository
	lifecycle *LifecycleService
	oracle    ChainOracle
	validator *PaymentValidator
	metrics   *metrics.Metrics
	log       zerolog.Logger
}

func NewIngestService(
	repo repository.RaffleRepository,
	lifecycle *LifecycleService,
	oracle ChainOracle,
	validator *PaymentValidator,
	m *metrics.Metrics,
) *IngestService {
	return &IngestService{
		repo:      repo,
		lifecycle: lifecycle,
		oracle:    oracle,
		validator: validator,
		metrics:   m,
		log:       logger.Component("ingest"),
	}
}

// IngestHash enriches a bare hash through the oracle. Oracle failures are
// reported both as an error result and as the returned AppError.
func (s *IngestService) IngestHash(ctx context.Context, txHash string) (*models.IngestResult, error) {
	if err := validation.ValidateTxHash(txHash); err != nil {
		return nil, apperrors.NewValidationError("tx_hash", err.Error())
	}

	tx, err := s.oracle.FetchTransaction(ctx, txHash)
	if err != nil {
		reason := models.ReasonOracleUnavailable
		if apperrors.HasCode(err, apperrors.ErrCodeOracleNotFound) {
			reason = models.ReasonOracleNotFound
		}
		s.log.Warn().Err(err).Str("tx_hash", txHash).Msg("Failed to fetch transaction")
		return s.finish(&models.IngestResult{
			Status: models.IngestStatusError,
			TxHash: txHash,
			Reason: reason,
		}), err
	}
	if tx.Hash == "" {
		tx.Hash = txHash
	}

	return s.IngestTransaction(ctx, tx)
}

// IngestTransaction validates an already enriched transaction and records
// it in the active epoch.
func (s *IngestService) IngestTransaction(ctx context.Context, tx *models.Transaction) (*models.IngestResult, error) {
	if _, err := s.lifecycle.AdvanceIfDue(ctx); err != nil {
		return s.finish(&models.IngestResult{
			Status: models.IngestStatusError,
			TxHash: tx.Hash,
			Reason: "epoch unavailable",
		}), err
	}

	verdict := s.validator.Validate(tx)
	if !verdict.Accepted {
		s.log.Debug().
			Str("tx_hash", tx.Hash).
			Str("reason", verdict.Reason).
			Msg("Transaction ignored")
		return s.finish(&models.IngestResult{
			Status: models.IngestStatusIgnored,
			TxHash: tx.Hash,
			Wallet: verdict.Sender,
			Reason: verdict.Reason,
		}), nil
	}

	entry := &models.Entry{
		WalletAddress:   verdict.Sender,
		TransactionHash: tx.Hash,
		AdaAmount:       verdict.BaseAmount,
		EpokAmount:      verdict.TokenAmount,
		Tickets:         verdict.TicketCount,
	}

	err := s.recordInActiveEpoch(ctx, entry)
	if errors.Is(err, errEpochClosed) {
		// the epoch was drawn between advance and insert; retry in its successor
		if _, err = s.lifecycle.AdvanceIfDue(ctx); err == nil {
			err = s.recordInActiveEpoch(ctx, entry)
		}
	}

	switch {
	case errors.Is(err, repository.ErrDuplicateTransaction):
		return s.finish(&models.IngestResult{
			Status: models.IngestStatusIgnored,
			TxHash: tx.Hash,
			Wallet: verdict.Sender,
			Reason: models.ReasonAlreadyProcessed,
		}), nil
	case errors.Is(err, errEpochClosed):
		return s.finish(&models.IngestResult{
			Status: models.IngestStatusError,
			TxHash: tx.Hash,
			Reason: "epoch unavailable",
		}), apperrors.NewNoActiveEpochError()
	case err != nil:
		return s.finish(&models.IngestResult{
			Status: models.IngestStatusError,
			TxHash: tx.Hash,
			Reason: "failed to record entry",
		}), dbError("record entry", err)
	}

	s.log.Info().
		Str("tx_hash", tx.Hash).
		Str("wallet", entry.WalletAddress).
		Int64("tickets", entry.Tickets).
		Uint("epoch_id", entry.EpochID).
		Msg("Entry recorded")

	return s.finish(&models.IngestResult{
		Status:      models.IngestStatusAccepted,
		TxHash:      tx.Hash,
		Wallet:      entry.WalletAddress,
		TicketCount: entry.Tickets,
		AdaAmount:   &entry.AdaAmount,
		EpokAmount:  &entry.EpokAmount,
		EpochID:     entry.EpochID,
	}), nil
}

// recordInActiveEpoch inserts under the open epoch row lock so a
// concurrent draw cannot complete the epoch mid-insert.
func (s *IngestService) recordInActiveEpoch(ctx context.Context, entry *models.Entry) error {
	return s.repo.Transaction(ctx, func(tx repository.RaffleRepository) error {
		now := s.lifecycle.Now()
		open, err := tx.GetOpenEpochForUpdate(ctx)
		if err != nil {
			return err
		}
		if open == nil || !open.IsActive(now) {
			return errEpochClosed
		}

		entry.ID = 0
		entry.EpochID = open.ID
		entry.EntryTime = now
		return tx.RecordEntry(ctx, entry)
	})
}

func (s *IngestService) finish(result *models.IngestResult) *models.IngestResult {
	s.metrics.IncIngest(string(result.Status))
	return result
}
