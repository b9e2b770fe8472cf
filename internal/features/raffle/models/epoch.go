package models

import (
	"time"
)

// EpochStatus is the lifecycle state reported to clients
type EpochStatus string

const (
	EpochStatusOpen    EpochStatus = "open"    // accepting entries
	EpochStatusExpired EpochStatus = "expired" // end time passed, draw pending
	EpochStatusClosed  EpochStatus = "closed"  // completed, winner drawn (or none)
)

// Epoch is a time-boxed raffle round. At most one epoch is not completed.
type Epoch struct {
	ID              uint       `gorm:"primaryKey" json:"id"`
	StartTime       time.Time  `gorm:"column:start_time;not null" json:"start_time"`
	EndTime         time.Time  `gorm:"column:end_time;not null;index" json:"end_time"`
	WinnerAddress   *string    `gorm:"column:winner_address" json:"winner_address"`
	PrizeNFTName    *string    `gorm:"column:prize_nft_name" json:"prize_nft_name"`
	PrizeNFTAssetID *string    `gorm:"column:prize_nft_asset_id" json:"prize_nft_asset_id"`
	IsCompleted     bool       `gorm:"column:is_completed;not null;default:false;index" json:"is_completed"`
	TotalTickets    int64      `gorm:"column:total_tickets;not null;default:0" json:"total_tickets"`
	CompletedAt     *time.Time `gorm:"column:completed_at" json:"completed_at,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`

	Entries []Entry `gorm:"foreignKey:EpochID" json:"-"`
}

func (Epoch) TableName() string {
	return "raffle_epochs"
}

// HasEnded reports whether the epoch window is over at now
func (e *Epoch) HasEnded(now time.Time) bool {
	return !e.EndTime.After(now)
}

// IsActive reports whether the epoch accepts entries at now
func (e *Epoch) IsActive(now time.Time) bool {
	return !e.IsCompleted && !e.HasEnded(now)
}

func (e *Epoch) Status(now time.Time) EpochStatus {
	switch {
	case e.IsCompleted:
		return EpochStatusClosed
	case e.HasEnded(now):
		return EpochStatusExpired
	default:
		return EpochStatusOpen
	}
}

// TimeRemaining is zero once the epoch has ended
func (e *Epoch) TimeRemaining(now time.Time) time.Duration {
	if e.HasEnded(now) {
		return 0
	}
	return e.EndTime.Sub(now)
}

// Progress is the elapsed fraction of the window in [0, 1]
func (e *Epoch) Progress(now time.Time) float64 {
	total := e.EndTime.Sub(e.StartTime)
	if total <= 0 || e.HasEnded(now) {
		return 1
	}
	elapsed := now.Sub(e.StartTime)
	if elapsed <= 0 {
		return 0
	}
	return float64(elapsed) / float64(total)
}

// Prize is the optional prize descriptor of an epoch
type Prize struct {
	Name    string `json:"name"`
	AssetID string `json:"asset_id"`
}

func (e *Epoch) Prize() Prize {
	var p Prize
	if e.PrizeNFTName != nil {
		p.Name = *e.PrizeNFTName
	}
	if e.PrizeNFTAssetID != nil {
		p.AssetID = *e.PrizeNFTAssetID
	}
	return p
}

func (e *Epoch) SetPrize(p Prize) {
	e.PrizeNFTName = optional(p.Name)
	e.PrizeNFTAssetID = optional(p.AssetID)
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
