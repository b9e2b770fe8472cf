package models

import (
	"github.com/shopspring/decimal"
)

type IngestStatus string

const (
	IngestStatusAccepted IngestStatus = "accepted"
	IngestStatusIgnored  IngestStatus = "ignored"
	IngestStatusError    IngestStatus = "error"
)

// IngestResult is reported for every observed transaction
type IngestResult struct {
	Status      IngestStatus     `json:"status"`
	TxHash      string           `json:"tx_hash"`
	Wallet      string           `json:"wallet,omitempty"`
	TicketCount int64            `json:"tickets,omitempty"`
	AdaAmount   *decimal.Decimal `json:"ada_amount,omitempty"`
	EpokAmount  *decimal.Decimal `json:"epok_amount,omitempty"`
	EpochID     uint             `json:"epoch_id,omitempty"`
	Reason      string           `json:"reason,omitempty"`
}

// DrawResult is returned by a forced or scheduled draw
type DrawResult struct {
	EpochID      uint   `json:"epoch_id"`
	Winner       string `json:"winner"`
	TotalEntries int64  `json:"total_entries"`
	Participants int    `json:"participants"`
	Prize        Prize  `json:"prize"`
}
