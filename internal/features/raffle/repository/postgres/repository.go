package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/bewie03/epok/internal/features/raffle/models"
	"github.com/bewie03/epok/internal/features/raffle/repository"
)

// uniqueViolation is the SQLSTATE for unique_violation
const uniqueViolation = "23505"

// singleOpenEpochIndex allows at most one row with is_completed = false.
const singleOpenEpochIndex = `CREATE UNIQUE INDEX IF NOT EXISTS idx_raffle_epochs_single_open
	ON raffle_epochs (is_completed) WHERE is_completed = false`

type gormRepository struct {
	db *gorm.DB
}

func NewRaffleRepository(db *gorm.DB) repository.RaffleRepository {
	return &gormRepository{db: db}
}

func (r *gormRepository) Migrate(ctx context.Context) error {
	db := r.db.WithContext(ctx)
	if err := db.AutoMigrate(&models.Epoch{}, &models.Entry{}, &models.TokenBurn{}); err != nil {
		return fmt.Errorf("failed to migrate raffle tables: %w", err)
	}
	if err := db.Exec(singleOpenEpochIndex).Error; err != nil {
		return fmt.Errorf("failed to create single open epoch index: %w", err)
	}
	return nil
}

func (r *gormRepository) Transaction(ctx context.Context, fn func(repo repository.RaffleRepository) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&gormRepository{db: tx})
	})
}

func (r *gormRepository) GetOpenEpoch(ctx context.Context) (*models.Epoch, error) {
	return r.findOpenEpoch(r.db.WithContext(ctx))
}

func (r *gormRepository) GetOpenEpochForUpdate(ctx context.Context) (*models.Epoch, error) {
	return r.findOpenEpoch(r.db.WithContext(ctx).Clauses(clause.Locking{Strength: "UPDATE"}))
}

func (r *gormRepository) findOpenEpoch(db *gorm.DB) (*models.Epoch, error) {
	var epoch models.Epoch
	err := db.Where("is_completed = ?", false).Order("id DESC").First(&epoch).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get open epoch: %w", err)
	}
	return &epoch, nil
}

// GetActiveEpoch compares end time in Go so that sqlite and postgres agree
// on timestamp semantics.
func (r *gormRepository) GetActiveEpoch(ctx context.Context, now time.Time) (*models.Epoch, error) {
	epoch, err := r.GetOpenEpoch(ctx)
	if err != nil || epoch == nil {
		return nil, err
	}
	if !epoch.IsActive(now) {
		return nil, nil
	}
	return epoch, nil
}

func (r *gormRepository) GetEpoch(ctx context.Context, id uint) (*models.Epoch, error) {
	var epoch models.Epoch
	err := r.db.WithContext(ctx).First(&epoch, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, repository.ErrEpochNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get epoch %d: %w", id, err)
	}
	return &epoch, nil
}

func (r *gormRepository) CreateEpoch(ctx context.Context, epoch *models.Epoch) error {
	epoch.IsCompleted = false
	if err := r.db.WithContext(ctx).Create(epoch).Error; err != nil {
		if isUniqueViolation(err) {
			return repository.ErrOpenEpochExists
		}
		return fmt.Errorf("failed to create epoch: %w", err)
	}
	return nil
}

func (r *gormRepository) CompleteEpoch(ctx context.Context, id uint, winner *string, totalTickets int64, completedAt, endTime time.Time) error {
	res := r.db.WithContext(ctx).
		Model(&models.Epoch{}).
		Where("id = ? AND is_completed = ?", id, false).
		Updates(map[string]interface{}{
			"is_completed":   true,
			"winner_address": winner,
			"total_tickets":  totalTickets,
			"completed_at":   completedAt,
			"end_time":       endTime,
		})
	if res.Error != nil {
		return fmt.Errorf("failed to complete epoch %d: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return r.missOrCompleted(ctx, id)
	}
	return nil
}

func (r *gormRepository) UpdatePrize(ctx context.Context, id uint, prize models.Prize) error {
	var epoch models.Epoch
	epoch.SetPrize(prize)

	res := r.db.WithContext(ctx).
		Model(&models.Epoch{}).
		Where("id = ? AND is_completed = ?", id, false).
		Updates(map[string]interface{}{
			"prize_nft_name":     epoch.PrizeNFTName,
			"prize_nft_asset_id": epoch.PrizeNFTAssetID,
		})
	if res.Error != nil {
		return fmt.Errorf("failed to update prize of epoch %d: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return r.missOrCompleted(ctx, id)
	}
	return nil
}

func (r *gormRepository) missOrCompleted(ctx context.Context, id uint) error {
	if _, err := r.GetEpoch(ctx, id); err != nil {
		return err
	}
	return repository.ErrEpochAlreadyCompleted
}

func (r *gormRepository) GetLatestCompletedEpochWithWinner(ctx context.Context) (*models.Epoch, error) {
	var epoch models.Epoch
	err := r.db.WithContext(ctx).
		Where("is_completed = ? AND winner_address IS NOT NULL", true).
		Order("end_time DESC").
		Order("id DESC").
		First(&epoch).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get latest winner: %w", err)
	}
	return &epoch, nil
}

func (r *gormRepository) ListCompletedEpochs(ctx context.Context, limit int) ([]models.Epoch, error) {
	var epochs []models.Epoch
	q := r.db.WithContext(ctx).
		Where("is_completed = ? AND winner_address IS NOT NULL", true).
		Order("end_time DESC").
		Order("id DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&epochs).Error; err != nil {
		return nil, fmt.Errorf("failed to list completed epochs: %w", err)
	}
	return epochs, nil
}

// RecordEntry relies on the unique index on transaction_hash, never on a
// prior read, so concurrent deliveries of one hash yield one row.
func (r *gormRepository) RecordEntry(ctx context.Context, entry *models.Entry) error {
	if err := r.db.WithContext(ctx).Create(entry).Error; err != nil {
		if isUniqueViolation(err) {
			return repository.ErrDuplicateTransaction
		}
		return fmt.Errorf("failed to record entry %s: %w", entry.TransactionHash, err)
	}
	return nil
}

func (r *gormRepository) ListEntries(ctx context.Context, epochID uint) ([]models.Entry, error) {
	var entries []models.Entry
	err := r.db.WithContext(ctx).
		Where("epoch_id = ?", epochID).
		Order("entry_time ASC").
		Order("id ASC").
		Find(&entries).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list entries of epoch %d: %w", epochID, err)
	}
	return entries, nil
}

func (r *gormRepository) SumTickets(ctx context.Context, epochID uint) (int64, error) {
	var total int64
	err := r.db.WithContext(ctx).
		Model(&models.Entry{}).
		Where("epoch_id = ?", epochID).
		Select("COALESCE(SUM(tickets), 0)").
		Scan(&total).Error
	if err != nil {
		return 0, fmt.Errorf("failed to sum tickets of epoch %d: %w", epochID, err)
	}
	return total, nil
}

func (r *gormRepository) RecordTokenBurn(ctx context.Context, burn *models.TokenBurn) error {
	if err := r.db.WithContext(ctx).Create(burn).Error; err != nil {
		if isUniqueViolation(err) {
			return repository.ErrDuplicateTransaction
		}
		return fmt.Errorf("failed to record token burn %s: %w", burn.TransactionHash, err)
	}
	return nil
}

func (r *gormRepository) ListTokenBurns(ctx context.Context, epochID uint) ([]models.TokenBurn, error) {
	var burns []models.TokenBurn
	err := r.db.WithContext(ctx).
		Where("epoch_id = ?", epochID).
		Order("burn_time ASC").
		Order("id ASC").
		Find(&burns).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list token burns of epoch %d: %w", epochID, err)
	}
	return burns, nil
}

// isUniqueViolation covers gorm's translated error and raw lib/pq errors,
// which the postgres dialector does not translate.
func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == uniqueViolation
	}
	return false
}
