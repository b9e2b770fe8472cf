package service

import (
	"context"
	"errors"

	"github.com/rs/zerolog"

	apperrors "github.com/bewie03/epok/internal/common/errors"
	"github.com/bewie03/epok/internal/common/logger"
	"github.com/bewie03/epok/internal/common/validation"
	"github.com/bewie03/epok/internal/features/raffle/mapper"
	"github.com/bewie03/epok/internal/features/raffle/models"
	"github.com/bewie03/epok/internal/features/raffle/models/dto"
	"github.com/bewie03/epok/internal/features/raffle/repository"
)

// RaffleService serves the read side and the administrative burn ledger.
// Every read advances the lifecycle first.
type RaffleService struct {
	repo      repository.RaffleRepository
	lifecycle *LifecycleService
	oracle    ChainOracle
	log       zerolog.Logger
}

func NewRaffleService(repo repository.RaffleRepository, lifecycle *LifecycleService, oracle ChainOracle) *RaffleService {
	return &RaffleService{
		repo:      repo,
		lifecycle: lifecycle,
		oracle:    oracle,
		log:       logger.Component("raffle"),
	}
}

func (s *RaffleService) GetCurrentEpoch(ctx context.Context) (*dto.CurrentEpochResponse, error) {
	epoch, err := s.lifecycle.AdvanceIfDue(ctx)
	if err != nil {
		return nil, err
	}
	total, err := s.repo.SumTickets(ctx, epoch.ID)
	if err != nil {
		return nil, dbError("sum tickets", err)
	}
	return mapper.ToCurrentEpochResponse(epoch, total, s.lifecycle.Now()), nil
}

func (s *RaffleService) GetCurrentPrize(ctx context.Context) (*dto.PrizeResponse, error) {
	epoch, err := s.lifecycle.AdvanceIfDue(ctx)
	if err != nil {
		return nil, err
	}
	return mapper.ToPrizeResponse(epoch), nil
}

func (s *RaffleService) GetParticipants(ctx context.Context) (*dto.ParticipantsResponse, error) {
	epoch, entries, err := s.activeEntries(ctx)
	if err != nil {
		return nil, err
	}
	return mapper.ToParticipantsResponse(epoch.ID, entries), nil
}

func (s *RaffleService) GetEntries(ctx context.Context) (*dto.EntriesResponse, error) {
	epoch, entries, err := s.activeEntries(ctx)
	if err != nil {
		return nil, err
	}
	return mapper.ToEntriesResponse(epoch.ID, entries), nil
}

func (s *RaffleService) activeEntries(ctx context.Context) (*models.Epoch, []models.Entry, error) {
	epoch, err := s.lifecycle.AdvanceIfDue(ctx)
	if err != nil {
		return nil, nil, err
	}
	entries, err := s.repo.ListEntries(ctx, epoch.ID)
	if err != nil {
		return nil, nil, dbError("list entries", err)
	}
	return epoch, entries, nil
}

// GetLatestWinner returns a null winner when no epoch has one yet
func (s *RaffleService) GetLatestWinner(ctx context.Context) (*dto.WinnerResponse, error) {
	if _, err := s.lifecycle.AdvanceIfDue(ctx); err != nil {
		return nil, err
	}
	epoch, err := s.repo.GetLatestCompletedEpochWithWinner(ctx)
	if err != nil {
		return nil, dbError("get latest winner", err)
	}
	return mapper.ToWinnerResponse(epoch), nil
}

func (s *RaffleService) GetWinners(ctx context.Context, limit int) (*dto.WinnersResponse, error) {
	if limit <= 0 {
		limit = DefaultWinnersPage
	}
	if limit > MaxWinnersPage {
		limit = MaxWinnersPage
	}
	if _, err := s.lifecycle.AdvanceIfDue(ctx); err != nil {
		return nil, err
	}
	epochs, err := s.repo.ListCompletedEpochs(ctx, limit)
	if err != nil {
		return nil, dbError("list winners", err)
	}
	return mapper.ToWinnersResponse(epochs), nil
}

// GetNetworkEpoch is informational; it never drives the raffle lifecycle
func (s *RaffleService) GetNetworkEpoch(ctx context.Context) (*models.NetworkEpoch, error) {
	return s.oracle.FetchCurrentNetworkEpoch(ctx)
}

func (s *RaffleService) GetTokenBurns(ctx context.Context) (*dto.TokenBurnsResponse, error) {
	epoch, err := s.lifecycle.AdvanceIfDue(ctx)
	if err != nil {
		return nil, err
	}
	burns, err := s.repo.ListTokenBurns(ctx, epoch.ID)
	if err != nil {
		return nil, dbError("list token burns", err)
	}
	return mapper.ToTokenBurnsResponse(epoch.ID, burns), nil
}

// RecordTokenBurn ties a burn to the active epoch. Repeated hashes conflict.
func (s *RaffleService) RecordTokenBurn(ctx context.Context, req *dto.TokenBurnRequest) (*models.TokenBurn, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	epoch, err := s.lifecycle.AdvanceIfDue(ctx)
	if err != nil {
		return nil, err
	}

	burnTime := s.lifecycle.Now()
	if req.BurnTime != nil {
		burnTime = req.BurnTime.UTC()
	}
	burn := &models.TokenBurn{
		EpochID:           epoch.ID,
		BurnTime:          burnTime,
		TotalTokensBurned: req.TotalTokensBurned,
		TransactionHash:   req.TxHash,
	}
	if err := s.repo.RecordTokenBurn(ctx, burn); err != nil {
		if errors.Is(err, repository.ErrDuplicateTransaction) {
			return nil, apperrors.NewDuplicateTransactionError(req.TxHash)
		}
		return nil, dbError("record token burn", err)
	}

	s.log.Info().
		Str("tx_hash", burn.TransactionHash).
		Str("amount", burn.TotalTokensBurned.String()).
		Uint("epoch_id", burn.EpochID).
		Msg("Token burn recorded")
	return burn, nil
}

// ValidateLimit parses the winners page size query value
func ValidateLimit(limit int64) error {
	if limit == 0 {
		return nil
	}
	return validation.ValidatePositiveInt(limit, "limit")
}
