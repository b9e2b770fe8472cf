package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/rs/zerolog"

	apperrors "github.com/bewie03/epok/internal/common/errors"
	"github.com/bewie03/epok/internal/common/logger"
	"github.com/bewie03/epok/internal/common/validation"
	"github.com/bewie03/epok/internal/features/raffle/models"
	"github.com/bewie03/epok/internal/features/raffle/repository"
	"github.com/bewie03/epok/internal/metrics"
	"github.com/bewie03/epok/internal/utils/random"
)

type LifecycleConfig struct {
	EpochDuration time.Duration
	DefaultPrize  models.Prize
	LockTimeout   time.Duration
}

// LifecycleService owns every epoch transition. Transitions run under the
// lifecycle lock and inside one transaction holding the open epoch row.
type LifecycleService struct {
	repo    repository.RaffleRepository
	locker  repository.Locker
	random  random.Source
	metrics *metrics.Metrics
	cfg     LifecycleConfig
	now     func() time.Time
	log     zerolog.Logger
}

func NewLifecycleService(
	repo repository.RaffleRepository,
	locker repository.Locker,
	src random.Source,
	m *metrics.Metrics,
	cfg LifecycleConfig,
) *LifecycleService {
	if cfg.LockTimeout <= 0 {
		cfg.LockTimeout = DefaultLockTimeout
	}
	if src == nil {
		src = random.NewCryptoSource()
	}
	return &LifecycleService{
		repo:    repo,
		locker:  locker,
		random:  src,
		metrics: m,
		cfg:     cfg,
		now:     func() time.Time { return time.Now().UTC() },
		log:     logger.Component("lifecycle"),
	}
}

// WithClock replaces the wall clock
func (s *LifecycleService) WithClock(now func() time.Time) *LifecycleService {
	s.now = now
	return s
}

func (s *LifecycleService) Now() time.Time {
	return s.now()
}

// AdvanceIfDue returns the active epoch, closing an expired one and
// opening its successor first when needed.
func (s *LifecycleService) AdvanceIfDue(ctx context.Context) (*models.Epoch, error) {
	active, err := s.repo.GetActiveEpoch(ctx, s.now())
	if err != nil {
		return nil, dbError("get active epoch", err)
	}
	if active != nil {
		return active, nil
	}

	var result *models.Epoch
	err = s.withLock(ctx, func(ctx context.Context) error {
		return s.repo.Transaction(ctx, func(tx repository.RaffleRepository) error {
			now := s.now()
			open, err := tx.GetOpenEpochForUpdate(ctx)
			if err != nil {
				return err
			}
			if open != nil && open.IsActive(now) {
				result = open
				return nil
			}
			if open != nil {
				if _, err := s.closeEpoch(ctx, tx, open, now, open.EndTime); err != nil {
					return err
				}
			}

			next := &models.Epoch{StartTime: now, EndTime: now.Add(s.cfg.EpochDuration)}
			next.SetPrize(s.cfg.DefaultPrize)
			if err := tx.CreateEpoch(ctx, next); err != nil {
				return err
			}
			s.epochCreated(next)
			result = next
			return nil
		})
	})
	if errors.Is(err, repository.ErrOpenEpochExists) {
		// another process opened the epoch first
		return s.activeAfterRace(ctx)
	}
	if err != nil {
		return nil, dbError("advance epoch", err)
	}
	return result, nil
}

func (s *LifecycleService) activeAfterRace(ctx context.Context) (*models.Epoch, error) {
	active, err := s.repo.GetActiveEpoch(ctx, s.now())
	if err != nil {
		return nil, dbError("get active epoch", err)
	}
	if active == nil {
		return nil, apperrors.NewNoActiveEpochError()
	}
	return active, nil
}

// DrawWinner force-closes the open epoch now. An epoch without entries
// stays open. The successor is created by the next AdvanceIfDue.
func (s *LifecycleService) DrawWinner(ctx context.Context) (*models.DrawResult, error) {
	var result *models.DrawResult
	err := s.withLock(ctx, func(ctx context.Context) error {
		return s.repo.Transaction(ctx, func(tx repository.RaffleRepository) error {
			now := s.now()
			open, err := tx.GetOpenEpochForUpdate(ctx)
			if err != nil {
				return err
			}
			if open == nil {
				return apperrors.NewNoActiveEpochError()
			}

			entries, err := tx.ListEntries(ctx, open.ID)
			if err != nil {
				return err
			}
			if len(entries) == 0 {
				return apperrors.NewNoEntriesError(open.ID)
			}

			endTime := open.EndTime
			if now.Before(endTime) {
				endTime = now
			}
			result, err = s.completeWithEntries(ctx, tx, open, entries, now, endTime)
			return err
		})
	})
	if err != nil {
		return nil, dbError("draw winner", err)
	}

	s.metrics.IncDraw(drawOutcomeForced)
	s.log.Info().
		Uint("epoch_id", result.EpochID).
		Str("winner", result.Winner).
		Int64("total_entries", result.TotalEntries).
		Msg("Forced draw completed")
	return result, nil
}

// CreateEpoch opens an epoch ending at endTime. An expired open epoch is
// drawn first; an active one is a conflict.
func (s *LifecycleService) CreateEpoch(ctx context.Context, endTime time.Time, prize models.Prize) (*models.Epoch, error) {
	if !endTime.After(s.now()) {
		return nil, apperrors.NewValidationError("end_time", "must be in the future")
	}
	if prize.Name != "" {
		if err := validation.ValidatePrizeName(prize.Name); err != nil {
			return nil, apperrors.NewValidationError("prize_nft_name", err.Error())
		}
	} else {
		prize = s.cfg.DefaultPrize
	}

	var created *models.Epoch
	err := s.withLock(ctx, func(ctx context.Context) error {
		return s.repo.Transaction(ctx, func(tx repository.RaffleRepository) error {
			now := s.now()
			open, err := tx.GetOpenEpochForUpdate(ctx)
			if err != nil {
				return err
			}
			if open != nil && open.IsActive(now) {
				return apperrors.NewActiveEpochExistsError(open.ID)
			}
			if open != nil {
				if _, err := s.closeEpoch(ctx, tx, open, now, open.EndTime); err != nil {
					return err
				}
			}

			epoch := &models.Epoch{StartTime: now, EndTime: endTime.UTC()}
			epoch.SetPrize(prize)
			if err := tx.CreateEpoch(ctx, epoch); err != nil {
				return err
			}
			s.epochCreated(epoch)
			created = epoch
			return nil
		})
	})
	if errors.Is(err, repository.ErrOpenEpochExists) {
		return nil, apperrors.Wrap(err, apperrors.ErrCodeActiveEpochExists, "An active epoch already exists")
	}
	if err != nil {
		return nil, dbError("create epoch", err)
	}
	return created, nil
}

// UpdateCurrentPrize sets the prize descriptor of the active epoch
func (s *LifecycleService) UpdateCurrentPrize(ctx context.Context, prize models.Prize) (*models.Epoch, error) {
	if strings.TrimSpace(prize.Name) == "" {
		return nil, apperrors.NewValidationError("name", "prize name is required")
	}
	if err := validation.ValidatePrizeName(prize.Name); err != nil {
		return nil, apperrors.NewValidationError("name", err.Error())
	}

	epoch, err := s.AdvanceIfDue(ctx)
	if err != nil {
		return nil, err
	}

	if err := s.repo.UpdatePrize(ctx, epoch.ID, prize); err != nil {
		if errors.Is(err, repository.ErrEpochAlreadyCompleted) || errors.Is(err, repository.ErrEpochNotFound) {
			return nil, apperrors.NewNoActiveEpochError()
		}
		return nil, dbError("update prize", err)
	}
	epoch.SetPrize(prize)

	s.log.Info().Uint("epoch_id", epoch.ID).Str("prize", prize.Name).Msg("Prize updated")
	return epoch, nil
}

// closeEpoch draws over the epoch's entries and completes it. No entries
// means completion without a winner.
func (s *LifecycleService) closeEpoch(ctx context.Context, tx repository.RaffleRepository, epoch *models.Epoch, now, endTime time.Time) (*models.DrawResult, error) {
	entries, err := tx.ListEntries(ctx, epoch.ID)
	if err != nil {
		return nil, err
	}
	if len(entries) == 0 {
		if err := tx.CompleteEpoch(ctx, epoch.ID, nil, 0, now, endTime); err != nil {
			return nil, err
		}
		s.metrics.IncDraw(drawOutcomeNoWinner)
		s.log.Info().Uint("epoch_id", epoch.ID).Msg("Epoch completed without entries")
		return &models.DrawResult{EpochID: epoch.ID, Prize: epoch.Prize()}, nil
	}

	result, err := s.completeWithEntries(ctx, tx, epoch, entries, now, endTime)
	if err != nil {
		return nil, err
	}
	s.metrics.IncDraw(drawOutcomeWinner)
	s.log.Info().
		Uint("epoch_id", result.EpochID).
		Str("winner", result.Winner).
		Int64("total_entries", result.TotalEntries).
		Msg("Epoch completed")
	return result, nil
}

func (s *LifecycleService) completeWithEntries(ctx context.Context, tx repository.RaffleRepository, epoch *models.Epoch, entries []models.Entry, now, endTime time.Time) (*models.DrawResult, error) {
	winner, ok := SelectWinner(entries, s.random)
	if !ok {
		return nil, apperrors.NewNoEntriesError(epoch.ID)
	}

	total := models.TotalTickets(entries)
	if err := tx.CompleteEpoch(ctx, epoch.ID, &winner, total, now, endTime); err != nil {
		return nil, err
	}

	wallets := make(map[string]struct{}, len(entries))
	for _, e := range entries {
		wallets[e.WalletAddress] = struct{}{}
	}
	return &models.DrawResult{
		EpochID:      epoch.ID,
		Winner:       winner,
		TotalEntries: total,
		Participants: len(wallets),
		Prize:        epoch.Prize(),
	}, nil
}

func (s *LifecycleService) epochCreated(epoch *models.Epoch) {
	s.metrics.EpochCreated(epoch.ID)
	s.log.Info().
		Uint("epoch_id", epoch.ID).
		Time("start", epoch.StartTime).
		Time("end", epoch.EndTime).
		Msg("Epoch created")
}

func (s *LifecycleService) withLock(ctx context.Context, fn func(ctx context.Context) error) error {
	lockCtx, cancel := context.WithTimeout(ctx, s.cfg.LockTimeout)
	release, err := s.locker.Acquire(lockCtx, LifecycleLockKey)
	cancel()
	if err != nil {
		return apperrors.Wrap(err, apperrors.ErrCodeInternal, "Failed to acquire lifecycle lock")
	}
	defer release()

	return fn(ctx)
}
