package service

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bewie03/epok/internal/features/raffle/models"
)

func TestValidateAtLeast(t *testing.T) {
	v := NewPaymentValidator(testRules(models.PaymentModeAtLeast))

	tests := []struct {
		name     string
		tx       *models.Transaction
		accepted bool
		tickets  int64
		reason   string
	}{
		{
			name:     "minimum payment",
			tx:       paymentTx("h", "addr1qxa", 5_000_000, 1000),
			accepted: true,
			tickets:  1,
		},
		{
			name:     "tickets are floored",
			tx:       paymentTx("h", "addr1qxa", 14_999_999, 1000),
			accepted: true,
			tickets:  2,
		},
		{
			name:     "fifty ada buys ten tickets",
			tx:       paymentTx("h", "addr1qxa", 50_000_000, 5000),
			accepted: true,
			tickets:  10,
		},
		{
			name:   "below ada minimum",
			tx:     paymentTx("h", "addr1qxa", 4_999_999, 1000),
			reason: models.ReasonInsufficientAda,
		},
		{
			name:   "below token minimum",
			tx:     paymentTx("h", "addr1qxa", 5_000_000, 999),
			reason: models.ReasonInsufficientEpok,
		},
		{
			name:   "no token at all",
			tx:     paymentTx("h", "addr1qxa", 5_000_000, 0),
			reason: models.ReasonInsufficientEpok,
		},
		{
			name:   "missing sender",
			tx:     paymentTx("h", "", 5_000_000, 1000),
			reason: models.ReasonMissingSender,
		},
		{
			name: "no output to the raffle wallet",
			tx: &models.Transaction{
				Hash:    "h",
				Inputs:  []models.TxInput{{Address: "addr1qxa"}},
				Outputs: []models.TxOutput{{Address: "addr1qxother"}},
			},
			reason: models.ReasonNoRafflePayment,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := v.Validate(tt.tx)
			assert.Equal(t, tt.accepted, got.Accepted)
			assert.Equal(t, tt.tickets, got.TicketCount)
			assert.Equal(t, tt.reason, got.Reason)
		})
	}
}

func TestValidateExact(t *testing.T) {
	v := NewPaymentValidator(testRules(models.PaymentModeExact))

	got := v.Validate(paymentTx("h", "addr1qxa", 5_000_000, 2000))
	assert.True(t, got.Accepted)
	assert.Equal(t, int64(1), got.TicketCount)

	got = v.Validate(paymentTx("h", "addr1qxa", 10_000_000, 2000))
	assert.False(t, got.Accepted)
	assert.Equal(t, "ada amount must equal 5", got.Reason)
}

func TestValidateUsesFirstRaffleOutputOnly(t *testing.T) {
	v := NewPaymentValidator(testRules(models.PaymentModeAtLeast))

	tx := paymentTx("h", "addr1qxa", 5_000_000, 1000)
	tx.Outputs = append(tx.Outputs, models.TxOutput{
		Address: raffleAddress,
		Amounts: []models.Amount{{Unit: models.LovelaceUnit, Quantity: decimal.NewFromInt(100_000_000)}},
	})

	got := v.Validate(tx)
	assert.True(t, got.Accepted)
	assert.Equal(t, int64(1), got.TicketCount)
	assert.True(t, decimal.NewFromInt(5).Equal(got.BaseAmount))
	assert.True(t, decimal.NewFromInt(1000).Equal(got.TokenAmount))
	assert.Equal(t, "addr1qxa", got.Sender)
}

func TestValidateSumsRepeatedUnitsAndIgnoresOthers(t *testing.T) {
	v := NewPaymentValidator(testRules(models.PaymentModeAtLeast))

	tx := paymentTx("h", "addr1qxa", 3_000_000, 600)
	out := &tx.Outputs[1]
	out.Amounts = append(out.Amounts,
		models.Amount{Unit: models.LovelaceUnit, Quantity: decimal.NewFromInt(2_000_000)},
		models.Amount{Unit: tokenUnit, Quantity: decimal.NewFromInt(400)},
		models.Amount{Unit: "deadbeef", Quantity: decimal.NewFromInt(1_000_000_000)},
	)

	got := v.Validate(tx)
	assert.True(t, got.Accepted)
	assert.True(t, decimal.NewFromInt(5).Equal(got.BaseAmount))
	assert.True(t, decimal.NewFromInt(1000).Equal(got.TokenAmount))
}

func TestValidateRejectsAmountsAboveSupply(t *testing.T) {
	v := NewPaymentValidator(testRules(models.PaymentModeAtLeast))

	// 5 ADA * (2^64 + 3) would wrap to a tiny ticket count
	huge, err := decimal.NewFromString("92233720368547758095000000")
	require.NoError(t, err)
	tx := paymentTx("h", "addr1qxa", 0, 1000)
	tx.Outputs[1].Amounts[0].Quantity = huge

	got := v.Validate(tx)
	assert.False(t, got.Accepted)
	assert.Equal(t, int64(0), got.TicketCount)
	assert.Equal(t, models.ReasonAdaAboveSupply, got.Reason)

	tx.Outputs[1].Amounts[0].Quantity = models.MaxAdaSupply.Mul(models.LovelacePerAda)
	got = v.Validate(tx)
	assert.True(t, got.Accepted)
	assert.Equal(t, int64(9_000_000_000), got.TicketCount)
}

func TestValidateIsDeterministic(t *testing.T) {
	v := NewPaymentValidator(testRules(models.PaymentModeAtLeast))
	tx := paymentTx("h", "addr1qxa", 12_000_000, 1000)

	assert.Equal(t, v.Validate(tx), v.Validate(tx))
}
