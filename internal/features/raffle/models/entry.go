package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Entry is one accepted payment. Append-only; TransactionHash is unique.
type Entry struct {
	ID              uint            `gorm:"primaryKey" json:"id"`
	WalletAddress   string          `gorm:"column:wallet_address;not null;index" json:"wallet_address"`
	TransactionHash string          `gorm:"column:transaction_hash;not null;uniqueIndex" json:"transaction_hash"`
	AdaAmount       decimal.Decimal `gorm:"column:ada_amount;type:numeric(30,6);not null" json:"ada_amount"`
	EpokAmount      decimal.Decimal `gorm:"column:epok_amount;type:numeric(40,6);not null" json:"epok_amount"`
	Tickets         int64           `gorm:"column:tickets;not null" json:"tickets"`
	EntryTime       time.Time       `gorm:"column:entry_time;not null;index" json:"entry_time"`
	EpochID         uint            `gorm:"column:epoch_id;not null;index" json:"epoch_id"`
}

func (Entry) TableName() string {
	return "raffle_entries"
}

// TokenBurn records burned EPOK tied to an epoch. Append-only.
type TokenBurn struct {
	ID                uint            `gorm:"primaryKey" json:"id"`
	EpochID           uint            `gorm:"column:epoch_id;not null;index" json:"epoch_id"`
	BurnTime          time.Time       `gorm:"column:burn_time;not null" json:"burn_time"`
	TotalTokensBurned decimal.Decimal `gorm:"column:total_tokens_burned;type:numeric(40,6);not null" json:"total_tokens_burned"`
	TransactionHash   string          `gorm:"column:transaction_hash;not null;uniqueIndex" json:"transaction_hash"`
}

func (TokenBurn) TableName() string {
	return "token_burns"
}

// TotalTickets sums ticket counts
func TotalTickets(entries []Entry) int64 {
	var total int64
	for _, e := range entries {
		total += e.Tickets
	}
	return total
}
