package models

import (
	"github.com/shopspring/decimal"
)

// PaymentMode decides how the base amount is compared to the minimum
type PaymentMode string

const (
	PaymentModeAtLeast PaymentMode = "at_least" // tickets = floor(ada / price)
	PaymentModeExact   PaymentMode = "exact"    // ada must equal the minimum, one ticket
)

// MaxAdaSupply bounds any single payment. Larger amounts cannot be real.
var MaxAdaSupply = decimal.NewFromInt(45_000_000_000)

// PaymentRules is the immutable validator configuration
type PaymentRules struct {
	RaffleAddress  string
	TokenUnit      string // policy id + hex asset name
	MinBaseAmount  decimal.Decimal
	MinTokenAmount decimal.Decimal
	TicketPrice    decimal.Decimal
	Mode           PaymentMode
}

// Rejection reasons
const (
	ReasonNoRafflePayment   = "no payment to raffle wallet"
	ReasonMissingSender     = "missing sender address"
	ReasonInsufficientAda   = "insufficient ada amount"
	ReasonAdaAboveSupply    = "ada amount exceeds total supply"
	ReasonAdaNotExact       = "ada amount must equal"
	ReasonInsufficientEpok  = "insufficient epok amount"
	ReasonAlreadyProcessed  = "already processed"
	ReasonOracleUnavailable = "chain oracle unavailable"
	ReasonOracleNotFound    = "transaction not found on chain"
)

// Validation is the validator verdict for one transaction
type Validation struct {
	Accepted    bool            `json:"accepted"`
	Sender      string          `json:"sender,omitempty"`
	TicketCount int64           `json:"ticket_count"`
	BaseAmount  decimal.Decimal `json:"ada_amount"`
	TokenAmount decimal.Decimal `json:"epok_amount"`
	Reason      string          `json:"reason,omitempty"`
}
