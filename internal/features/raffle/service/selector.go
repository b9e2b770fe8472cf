package service

import (
	"github.com/bewie03/epok/internal/features/raffle/models"
	"github.com/bewie03/epok/internal/utils/random"
)

// SelectWinner picks one wallet with probability proportional to its
// tickets: r is drawn uniformly from [0, total) and matched against the
// running ticket sum, which equals drawing from the flattened ticket pool.
func SelectWinner(entries []models.Entry, src random.Source) (string, bool) {
	var total int64
	for _, e := range entries {
		if e.Tickets > 0 {
			total += e.Tickets
		}
	}
	if total == 0 {
		return "", false
	}

	r := src.Int63n(total)
	for _, e := range entries {
		if e.Tickets <= 0 {
			continue
		}
		if r < e.Tickets {
			return e.WalletAddress, true
		}
		r -= e.Tickets
	}
	// unreachable while r < total
	return "", false
}
