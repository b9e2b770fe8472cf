package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// LovelaceUnit is the unit identifier of the base currency
const LovelaceUnit = "lovelace"

// LovelacePerAda converts the smallest unit into display ADA
var LovelacePerAda = decimal.NewFromInt(1_000_000)

// Amount is a quantity of one asset. Quantity is in the asset's smallest unit.
type Amount struct {
	Unit     string          `json:"unit"`
	Quantity decimal.Decimal `json:"quantity"`
}

type TxInput struct {
	Address    string   `json:"address"`
	Amounts    []Amount `json:"amount,omitempty"`
	Collateral bool     `json:"collateral,omitempty"`
	Reference  bool     `json:"reference,omitempty"`
}

type TxOutput struct {
	Address    string   `json:"address"`
	Amounts    []Amount `json:"amount"`
	Collateral bool     `json:"collateral,omitempty"`
}

// Transaction is the oracle view of a transaction needed to validate a payment
type Transaction struct {
	Hash    string     `json:"hash"`
	Inputs  []TxInput  `json:"inputs"`
	Outputs []TxOutput `json:"outputs"`
}

// NewTransaction keeps only the inputs a wallet spends and the outputs it
// creates. Reference inputs and collateral (inputs and collateral return)
// never count as the sender or as a payment.
func NewTransaction(hash string, inputs []TxInput, outputs []TxOutput) *Transaction {
	tx := &Transaction{
		Hash:    hash,
		Inputs:  make([]TxInput, 0, len(inputs)),
		Outputs: make([]TxOutput, 0, len(outputs)),
	}
	for _, in := range inputs {
		if in.Collateral || in.Reference {
			continue
		}
		tx.Inputs = append(tx.Inputs, in)
	}
	for _, out := range outputs {
		if out.Collateral {
			continue
		}
		tx.Outputs = append(tx.Outputs, out)
	}
	return tx
}

// Sender is the first input address, the convention for the paying wallet
func (t *Transaction) Sender() string {
	if len(t.Inputs) == 0 {
		return ""
	}
	return t.Inputs[0].Address
}

// NetworkEpoch is the chain's native epoch, informational only
type NetworkEpoch struct {
	Number    int       `json:"number"`
	StartTime time.Time `json:"start_time"`
	EndTime   time.Time `json:"end_time"`
	Progress  float64   `json:"progress"`
	TxCount   int       `json:"tx_count"`
}

// AddressTransaction is one row of an address history listing
type AddressTransaction struct {
	TxHash      string `json:"tx_hash"`
	TxIndex     int    `json:"tx_index"`
	BlockHeight int64  `json:"block_height"`
}
