package dto

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/bewie03/epok/internal/common/errors"
	"github.com/bewie03/epok/internal/common/validation"
	"github.com/bewie03/epok/internal/features/raffle/models"
)

// WebhookRequest accepts either a bare transaction hash or a Blockfrost
// transaction webhook envelope with embedded transactions.
type WebhookRequest struct {
	TxHash string `json:"tx_hash"`

	ID         string               `json:"id,omitempty"`
	WebhookID  string               `json:"webhook_id,omitempty"`
	Type       string               `json:"type,omitempty"`
	APIVersion int                  `json:"api_version,omitempty"`
	Payload    []WebhookTransaction `json:"payload,omitempty"`
}

type WebhookTransaction struct {
	Tx struct {
		Hash string `json:"hash"`
	} `json:"tx"`
	Inputs  []models.TxInput  `json:"inputs"`
	Outputs []models.TxOutput `json:"outputs"`
}

// Validate fails fast on shapes the ingestion path cannot use
func (r *WebhookRequest) Validate() *errors.AppError {
	if len(r.Payload) == 0 {
		if r.TxHash == "" {
			return errors.NewBadRequestError("No transaction hash provided")
		}
		if err := validation.ValidateTxHash(r.TxHash); err != nil {
			return errors.NewValidationError("tx_hash", err.Error())
		}
		return nil
	}

	if r.Type != "" && r.Type != "transaction" {
		return errors.NewValidationError("type", fmt.Sprintf("unsupported webhook type %q", r.Type))
	}
	for i, tx := range r.Payload {
		field := fmt.Sprintf("payload[%d]", i)
		if err := validation.ValidateTxHash(tx.Tx.Hash); err != nil {
			return errors.NewValidationError(field+".tx.hash", err.Error())
		}
		if tx.Outputs == nil {
			return errors.NewValidationError(field+".outputs", "outputs are required")
		}
		for j, out := range tx.Outputs {
			if out.Address == "" {
				return errors.NewValidationError(fmt.Sprintf("%s.outputs[%d].address", field, j), "address is required")
			}
		}
	}
	return nil
}

// Transactions converts embedded payloads into oracle-shaped transactions,
// dropping reference and collateral entries the same way the oracle does
func (r *WebhookRequest) Transactions() []models.Transaction {
	txs := make([]models.Transaction, 0, len(r.Payload))
	for _, p := range r.Payload {
		txs = append(txs, *models.NewTransaction(p.Tx.Hash, p.Inputs, p.Outputs))
	}
	return txs
}

// WebhookResponse carries one result per transaction in the delivery
type WebhookResponse struct {
	Status  models.IngestStatus   `json:"status"`
	Results []models.IngestResult `json:"results"`
}

// AggregateStatus: error wins over accepted, accepted over ignored
func AggregateStatus(results []models.IngestResult) models.IngestStatus {
	status := models.IngestStatusIgnored
	for _, r := range results {
		switch r.Status {
		case models.IngestStatusError:
			return models.IngestStatusError
		case models.IngestStatusAccepted:
			status = models.IngestStatusAccepted
		}
	}
	return status
}

type IngestRequest struct {
	TxHash string `json:"tx_hash" binding:"required"`
}

type CurrentEpochResponse struct {
	EpochID       uint               `json:"epoch_id"`
	EpochStart    time.Time          `json:"epoch_start"`
	EpochEnd      time.Time          `json:"epoch_end"`
	TimeRemaining float64            `json:"time_remaining"` // seconds
	Progress      float64            `json:"progress"`
	Status        models.EpochStatus `json:"status"`
	TotalTickets  int64              `json:"total_tickets"`
}

type PrizeResponse struct {
	EpochID   uint   `json:"epoch_id"`
	PrizeType string `json:"prize_type"`
	Name      string `json:"name"`
	AssetID   string `json:"asset_id"`
}

type ParticipantResponse struct {
	WalletAddress string          `json:"wallet_address"`
	EntryTime     time.Time       `json:"entry_time"`
	AdaAmount     decimal.Decimal `json:"ada_amount" swaggertype:"string"`
	EpokAmount    decimal.Decimal `json:"epok_amount" swaggertype:"string"`
	Tickets       int64           `json:"tickets"`
}

type ParticipantsResponse struct {
	EpochID      uint                  `json:"epoch_id"`
	Participants []ParticipantResponse `json:"participants"`
	TotalEntries int64                 `json:"total_entries"`
}

type EntryResponse struct {
	WalletAddress   string `json:"wallet_address"`
	Tickets         int64  `json:"tickets"`
	TransactionHash string `json:"transaction_hash"`
}

type EntriesResponse struct {
	EpochID uint            `json:"epoch_id"`
	Entries []EntryResponse `json:"entries"`
	Count   int64           `json:"count"`
}

type WinnerResponse struct {
	EpochID       uint       `json:"epoch_id,omitempty"`
	WinnerAddress *string    `json:"winner_address"`
	PrizeNFTName  *string    `json:"prize_nft_name,omitempty"`
	EpochEnd      *time.Time `json:"epoch_end,omitempty"`
	TotalTickets  int64      `json:"total_tickets,omitempty"`
}

type WinnersResponse struct {
	Winners []WinnerResponse `json:"winners"`
}

type CreateEpochRequest struct {
	EndTime         time.Time `json:"end_time" binding:"required"`
	PrizeNFTName    string    `json:"prize_nft_name"`
	PrizeNFTAssetID string    `json:"prize_nft_asset_id"`
}

type UpdatePrizeRequest struct {
	Name    string `json:"name" binding:"required"`
	AssetID string `json:"asset_id"`
}

type TokenBurnRequest struct {
	TxHash            string          `json:"tx_hash" binding:"required"`
	TotalTokensBurned decimal.Decimal `json:"total_tokens_burned" swaggertype:"string"`
	BurnTime          *time.Time      `json:"burn_time,omitempty"`
}

func (r *TokenBurnRequest) Validate() *errors.AppError {
	if err := validation.ValidateTxHash(r.TxHash); err != nil {
		return errors.NewValidationError("tx_hash", err.Error())
	}
	if !r.TotalTokensBurned.IsPositive() {
		return errors.NewValidationError("total_tokens_burned", "must be positive")
	}
	return nil
}

type TokenBurnsResponse struct {
	EpochID uint               `json:"epoch_id"`
	Burns   []models.TokenBurn `json:"burns"`
	Total   decimal.Decimal    `json:"total" swaggertype:"string"`
}

type EpochResponse struct {
	Epoch  *models.Epoch      `json:"epoch"`
	Status models.EpochStatus `json:"status"`
}
