package service

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/bewie03/epok/internal/features/raffle/models"
)

// PaymentValidator decides whether a transaction is a valid raffle entry.
// It is pure: the same transaction always yields the same verdict.
type PaymentValidator struct {
	rules models.PaymentRules
}

func NewPaymentValidator(rules models.PaymentRules) *PaymentValidator {
	if rules.Mode == "" {
		rules.Mode = models.PaymentModeAtLeast
	}
	return &PaymentValidator{rules: rules}
}

func (v *PaymentValidator) Rules() models.PaymentRules {
	return v.rules
}

func (v *PaymentValidator) Validate(tx *models.Transaction) models.Validation {
	out := v.findRaffleOutput(tx)
	if out == nil {
		return models.Validation{Reason: models.ReasonNoRafflePayment}
	}

	res := models.Validation{
		Sender:      tx.Sender(),
		BaseAmount:  sumUnit(out.Amounts, models.LovelaceUnit).Div(models.LovelacePerAda),
		TokenAmount: sumUnit(out.Amounts, v.rules.TokenUnit),
	}
	if res.Sender == "" {
		res.Reason = models.ReasonMissingSender
		return res
	}
	// keeps the ticket count inside int64
	if res.BaseAmount.GreaterThan(models.MaxAdaSupply) {
		res.Reason = models.ReasonAdaAboveSupply
		return res
	}

	switch v.rules.Mode {
	case models.PaymentModeExact:
		if !res.BaseAmount.Equal(v.rules.MinBaseAmount) {
			res.Reason = fmt.Sprintf("%s %s", models.ReasonAdaNotExact, v.rules.MinBaseAmount.String())
			return res
		}
		res.TicketCount = 1
	default:
		if res.BaseAmount.LessThan(v.rules.MinBaseAmount) {
			res.Reason = models.ReasonInsufficientAda
			return res
		}
		res.TicketCount = res.BaseAmount.Div(v.rules.TicketPrice).Floor().IntPart()
	}

	if res.TokenAmount.LessThan(v.rules.MinTokenAmount) {
		res.TicketCount = 0
		res.Reason = models.ReasonInsufficientEpok
		return res
	}
	if res.TicketCount < 1 {
		res.Reason = models.ReasonInsufficientAda
		return res
	}

	res.Accepted = true
	return res
}

// findRaffleOutput returns the first output paying the raffle wallet
func (v *PaymentValidator) findRaffleOutput(tx *models.Transaction) *models.TxOutput {
	if tx == nil {
		return nil
	}
	for i := range tx.Outputs {
		if tx.Outputs[i].Address == v.rules.RaffleAddress {
			return &tx.Outputs[i]
		}
	}
	return nil
}

func sumUnit(amounts []models.Amount, unit string) decimal.Decimal {
	total := decimal.Zero
	if unit == "" {
		return total
	}
	for _, a := range amounts {
		if a.Unit == unit {
			total = total.Add(a.Quantity)
		}
	}
	return total
}
