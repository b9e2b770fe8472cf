package dto

import (
	"encoding/json"
	"fmt"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bewie03/epok/internal/common/errors"
	"github.com/bewie03/epok/internal/features/raffle/models"
)

func hash(n int) string {
	return fmt.Sprintf("%064x", n)
}

func TestWebhookRequestValidateBareHash(t *testing.T) {
	req := WebhookRequest{}
	err := req.Validate()
	require.NotNil(t, err)
	assert.Equal(t, errors.ErrCodeBadRequest, err.Code)

	req.TxHash = "ABC"
	err = req.Validate()
	require.NotNil(t, err)
	assert.Equal(t, errors.ErrCodeValidation, err.Code)

	req.TxHash = hash(1)
	assert.Nil(t, req.Validate())
}

func TestWebhookRequestEnvelope(t *testing.T) {
	body := fmt.Sprintf(`{
		"id": "evt-1",
		"webhook_id": "wh-1",
		"type": "transaction",
		"api_version": 1,
		"payload": [{
			"tx": {"hash": %q},
			"inputs": [{"address": "addr1qxsender", "amount": [{"unit": "lovelace", "quantity": "9000000"}]}],
			"outputs": [{"address": "addr1qxraffle", "amount": [{"unit": "lovelace", "quantity": "5000000"}]}]
		}]
	}`, hash(2))

	var req WebhookRequest
	require.NoError(t, json.Unmarshal([]byte(body), &req))
	assert.Nil(t, req.Validate())

	txs := req.Transactions()
	require.Len(t, txs, 1)
	assert.Equal(t, hash(2), txs[0].Hash)
	assert.Equal(t, "addr1qxsender", txs[0].Sender())
	require.Len(t, txs[0].Outputs, 1)
	assert.True(t, decimal.NewFromInt(5_000_000).Equal(txs[0].Outputs[0].Amounts[0].Quantity))
}

func TestWebhookRequestEnvelopeSkipsReferenceAndCollateral(t *testing.T) {
	body := fmt.Sprintf(`{
		"type": "transaction",
		"payload": [{
			"tx": {"hash": %q},
			"inputs": [
				{"address": "addr1qxscript", "amount": [{"unit": "lovelace", "quantity": "2000000"}], "reference": true},
				{"address": "addr1qxcollateral", "amount": [{"unit": "lovelace", "quantity": "5000000"}], "collateral": true},
				{"address": "addr1qxsender", "amount": [{"unit": "lovelace", "quantity": "9000000"}]}
			],
			"outputs": [
				{"address": "addr1qxraffle", "amount": [{"unit": "lovelace", "quantity": "4000000"}], "collateral": true},
				{"address": "addr1qxraffle", "amount": [{"unit": "lovelace", "quantity": "5000000"}]}
			]
		}]
	}`, hash(3))

	var req WebhookRequest
	require.NoError(t, json.Unmarshal([]byte(body), &req))
	require.Nil(t, req.Validate())

	txs := req.Transactions()
	require.Len(t, txs, 1)
	assert.Equal(t, "addr1qxsender", txs[0].Sender())
	require.Len(t, txs[0].Inputs, 1)
	require.Len(t, txs[0].Outputs, 1)
	assert.True(t, decimal.NewFromInt(5_000_000).Equal(txs[0].Outputs[0].Amounts[0].Quantity))
}

func TestWebhookRequestEnvelopeRejections(t *testing.T) {
	valid := func() WebhookRequest {
		p := WebhookTransaction{Outputs: []models.TxOutput{{Address: "addr1qxraffle"}}}
		p.Tx.Hash = hash(3)
		return WebhookRequest{Type: "transaction", Payload: []WebhookTransaction{p}}
	}

	req := valid()
	req.Type = "block"
	assert.Equal(t, errors.ErrCodeValidation, req.Validate().Code)

	req = valid()
	req.Payload[0].Tx.Hash = ""
	assert.Equal(t, errors.ErrCodeValidation, req.Validate().Code)

	req = valid()
	req.Payload[0].Outputs = nil
	assert.Equal(t, errors.ErrCodeValidation, req.Validate().Code)

	req = valid()
	req.Payload[0].Outputs[0].Address = ""
	assert.Equal(t, errors.ErrCodeValidation, req.Validate().Code)
}

func TestAggregateStatus(t *testing.T) {
	r := func(s models.IngestStatus) models.IngestResult { return models.IngestResult{Status: s} }

	assert.Equal(t, models.IngestStatusIgnored, AggregateStatus(nil))
	assert.Equal(t, models.IngestStatusIgnored, AggregateStatus([]models.IngestResult{r(models.IngestStatusIgnored)}))
	assert.Equal(t, models.IngestStatusAccepted, AggregateStatus([]models.IngestResult{
		r(models.IngestStatusIgnored), r(models.IngestStatusAccepted),
	}))
	assert.Equal(t, models.IngestStatusError, AggregateStatus([]models.IngestResult{
		r(models.IngestStatusAccepted), r(models.IngestStatusError), r(models.IngestStatusIgnored),
	}))
}

func TestTokenBurnRequestValidate(t *testing.T) {
	req := TokenBurnRequest{TxHash: hash(4), TotalTokensBurned: decimal.NewFromInt(10)}
	assert.Nil(t, req.Validate())

	req.TotalTokensBurned = decimal.Zero
	assert.Equal(t, errors.ErrCodeValidation, req.Validate().Code)

	req = TokenBurnRequest{TxHash: "short", TotalTokensBurned: decimal.NewFromInt(10)}
	assert.Equal(t, errors.ErrCodeValidation, req.Validate().Code)
}
