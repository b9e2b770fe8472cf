package service

import "time"

const (
	LifecycleLockKey   = "raffle:lifecycle" // stored as lock:raffle:lifecycle
	DefaultLockTimeout = 10 * time.Second   // wait for the lifecycle lock
	DefaultWinnersPage = 20
	MaxWinnersPage     = 100
)

// draw outcomes reported to metrics
const (
	drawOutcomeWinner   = "winner"
	drawOutcomeNoWinner = "no_winner"
	drawOutcomeForced   = "forced"
)
