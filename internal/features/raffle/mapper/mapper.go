package mapper

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/bewie03/epok/internal/features/raffle/models"
	"github.com/bewie03/epok/internal/features/raffle/models/dto"
)

const prizeTypeNFT = "NFT"

// ToCurrentEpochResponse maps the active epoch at now
func ToCurrentEpochResponse(epoch *models.Epoch, totalTickets int64, now time.Time) *dto.CurrentEpochResponse {
	return &dto.CurrentEpochResponse{
		EpochID:       epoch.ID,
		EpochStart:    epoch.StartTime,
		EpochEnd:      epoch.EndTime,
		TimeRemaining: epoch.TimeRemaining(now).Seconds(),
		Progress:      epoch.Progress(now),
		Status:        epoch.Status(now),
		TotalTickets:  totalTickets,
	}
}

func ToPrizeResponse(epoch *models.Epoch) *dto.PrizeResponse {
	prize := epoch.Prize()
	return &dto.PrizeResponse{
		EpochID:   epoch.ID,
		PrizeType: prizeTypeNFT,
		Name:      prize.Name,
		AssetID:   prize.AssetID,
	}
}

func ToParticipantsResponse(epochID uint, entries []models.Entry) *dto.ParticipantsResponse {
	resp := &dto.ParticipantsResponse{
		EpochID:      epochID,
		Participants: make([]dto.ParticipantResponse, 0, len(entries)),
	}
	for _, e := range entries {
		resp.Participants = append(resp.Participants, dto.ParticipantResponse{
			WalletAddress: e.WalletAddress,
			EntryTime:     e.EntryTime,
			AdaAmount:     e.AdaAmount,
			EpokAmount:    e.EpokAmount,
			Tickets:       e.Tickets,
		})
		resp.TotalEntries += e.Tickets
	}
	return resp
}

func ToEntriesResponse(epochID uint, entries []models.Entry) *dto.EntriesResponse {
	resp := &dto.EntriesResponse{
		EpochID: epochID,
		Entries: make([]dto.EntryResponse, 0, len(entries)),
	}
	for _, e := range entries {
		resp.Entries = append(resp.Entries, dto.EntryResponse{
			WalletAddress:   e.WalletAddress,
			Tickets:         e.Tickets,
			TransactionHash: e.TransactionHash,
		})
		resp.Count += e.Tickets
	}
	return resp
}

// ToWinnerResponse maps a completed epoch. A nil epoch yields a null winner.
func ToWinnerResponse(epoch *models.Epoch) *dto.WinnerResponse {
	if epoch == nil {
		return &dto.WinnerResponse{}
	}
	end := epoch.EndTime
	return &dto.WinnerResponse{
		EpochID:       epoch.ID,
		WinnerAddress: epoch.WinnerAddress,
		PrizeNFTName:  epoch.PrizeNFTName,
		EpochEnd:      &end,
		TotalTickets:  epoch.TotalTickets,
	}
}

func ToWinnersResponse(epochs []models.Epoch) *dto.WinnersResponse {
	resp := &dto.WinnersResponse{Winners: make([]dto.WinnerResponse, 0, len(epochs))}
	for i := range epochs {
		resp.Winners = append(resp.Winners, *ToWinnerResponse(&epochs[i]))
	}
	return resp
}

func ToTokenBurnsResponse(epochID uint, burns []models.TokenBurn) *dto.TokenBurnsResponse {
	total := decimal.Zero
	for _, b := range burns {
		total = total.Add(b.TotalTokensBurned)
	}
	if burns == nil {
		burns = []models.TokenBurn{}
	}
	return &dto.TokenBurnsResponse{EpochID: epochID, Burns: burns, Total: total}
}
