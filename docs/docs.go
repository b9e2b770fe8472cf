// Package docs registers the OpenAPI description served at /swagger.
// Regenerate with: swag init -g cmd/app/main.go
package docs

import "github.com/swaggo/swag"

const docTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "contact": {},
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "paths": {
        "/api/current-epoch": {
            "get": {
                "produces": ["application/json"],
                "tags": ["raffle"],
                "summary": "Current epoch",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/dto.CurrentEpochResponse"}},
                    "500": {"description": "Internal Server Error", "schema": {"$ref": "#/definitions/middleware.ErrorResponse"}}
                }
            }
        },
        "/api/current-prize": {
            "get": {
                "produces": ["application/json"],
                "tags": ["raffle"],
                "summary": "Current prize",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/dto.PrizeResponse"}}
                }
            }
        },
        "/api/participants": {
            "get": {
                "produces": ["application/json"],
                "tags": ["raffle"],
                "summary": "Participants of the active epoch",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/dto.ParticipantsResponse"}}
                }
            }
        },
        "/api/entries": {
            "get": {
                "produces": ["application/json"],
                "tags": ["raffle"],
                "summary": "Entries of the active epoch",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/dto.EntriesResponse"}}
                }
            }
        },
        "/api/latest-winner": {
            "get": {
                "produces": ["application/json"],
                "tags": ["raffle"],
                "summary": "Latest winner",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/dto.WinnerResponse"}}
                }
            }
        },
        "/api/winners": {
            "get": {
                "produces": ["application/json"],
                "tags": ["raffle"],
                "summary": "Winner history",
                "parameters": [
                    {"type": "integer", "description": "Page size (default 20, max 100)", "name": "limit", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/dto.WinnersResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/middleware.ErrorResponse"}}
                }
            }
        },
        "/api/network-epoch": {
            "get": {
                "produces": ["application/json"],
                "tags": ["raffle"],
                "summary": "Current Cardano network epoch",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/models.NetworkEpoch"}}
                }
            }
        },
        "/api/burns": {
            "get": {
                "produces": ["application/json"],
                "tags": ["raffle"],
                "summary": "Token burns of the active epoch",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/dto.TokenBurnsResponse"}}
                }
            }
        },
        "/webhook/transaction": {
            "post": {
                "security": [{"WebhookSecret": []}],
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["webhook"],
                "summary": "Transaction webhook",
                "parameters": [
                    {"description": "Observed transaction", "name": "input", "in": "body", "required": true, "schema": {"$ref": "#/definitions/dto.WebhookRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/dto.WebhookResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/middleware.ErrorResponse"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/middleware.ErrorResponse"}},
                    "404": {"description": "Transaction unknown to the oracle", "schema": {"$ref": "#/definitions/dto.WebhookResponse"}},
                    "500": {"description": "Oracle unavailable", "schema": {"$ref": "#/definitions/dto.WebhookResponse"}}
                }
            }
        },
        "/api/admin/draw-winner": {
            "post": {
                "security": [{"AdminKey": []}],
                "produces": ["application/json"],
                "tags": ["admin"],
                "summary": "Force a draw",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/models.DrawResult"}},
                    "400": {"description": "No active epoch or no entries", "schema": {"$ref": "#/definitions/middleware.ErrorResponse"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/middleware.ErrorResponse"}}
                }
            }
        },
        "/api/admin/epochs/new": {
            "post": {
                "security": [{"AdminKey": []}],
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["admin"],
                "summary": "Create an epoch",
                "parameters": [
                    {"description": "Epoch window and prize", "name": "input", "in": "body", "required": true, "schema": {"$ref": "#/definitions/dto.CreateEpochRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/dto.EpochResponse"}},
                    "409": {"description": "Active epoch exists", "schema": {"$ref": "#/definitions/middleware.ErrorResponse"}}
                }
            }
        },
        "/api/admin/epochs/current/prize": {
            "put": {
                "security": [{"AdminKey": []}],
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["admin"],
                "summary": "Set the prize of the active epoch",
                "parameters": [
                    {"description": "Prize descriptor", "name": "input", "in": "body", "required": true, "schema": {"$ref": "#/definitions/dto.UpdatePrizeRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/dto.PrizeResponse"}}
                }
            }
        },
        "/api/admin/burns": {
            "post": {
                "security": [{"AdminKey": []}],
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["admin"],
                "summary": "Record a token burn for the active epoch",
                "parameters": [
                    {"description": "Burn", "name": "input", "in": "body", "required": true, "schema": {"$ref": "#/definitions/dto.TokenBurnRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/models.TokenBurn"}},
                    "409": {"description": "Burn already recorded", "schema": {"$ref": "#/definitions/middleware.ErrorResponse"}}
                }
            }
        },
        "/api/admin/ingest": {
            "post": {
                "security": [{"AdminKey": []}],
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["admin"],
                "summary": "Ingest a transaction by hash",
                "parameters": [
                    {"description": "Transaction hash", "name": "input", "in": "body", "required": true, "schema": {"$ref": "#/definitions/dto.IngestRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/dto.WebhookResponse"}}
                }
            }
        }
    },
    "definitions": {
        "dto.CurrentEpochResponse": {
            "type": "object",
            "properties": {
                "epoch_id": {"type": "integer"},
                "epoch_start": {"type": "string"},
                "epoch_end": {"type": "string"},
                "time_remaining": {"type": "number"},
                "progress": {"type": "number"},
                "status": {"type": "string"},
                "total_tickets": {"type": "integer"}
            }
        },
        "dto.PrizeResponse": {
            "type": "object",
            "properties": {
                "epoch_id": {"type": "integer"},
                "prize_type": {"type": "string"},
                "name": {"type": "string"},
                "asset_id": {"type": "string"}
            }
        },
        "dto.ParticipantResponse": {
            "type": "object",
            "properties": {
                "wallet_address": {"type": "string"},
                "entry_time": {"type": "string"},
                "ada_amount": {"type": "string"},
                "epok_amount": {"type": "string"},
                "tickets": {"type": "integer"}
            }
        },
        "dto.ParticipantsResponse": {
            "type": "object",
            "properties": {
                "epoch_id": {"type": "integer"},
                "participants": {"type": "array", "items": {"$ref": "#/definitions/dto.ParticipantResponse"}},
                "total_entries": {"type": "integer"}
            }
        },
        "dto.EntryResponse": {
            "type": "object",
            "properties": {
                "wallet_address": {"type": "string"},
                "tickets": {"type": "integer"},
                "transaction_hash": {"type": "string"}
            }
        },
        "dto.EntriesResponse": {
            "type": "object",
            "properties": {
                "epoch_id": {"type": "integer"},
                "entries": {"type": "array", "items": {"$ref": "#/definitions/dto.EntryResponse"}},
                "count": {"type": "integer"}
            }
        },
        "dto.WinnerResponse": {
            "type": "object",
            "properties": {
                "epoch_id": {"type": "integer"},
                "winner_address": {"type": "string", "x-nullable": true},
                "prize_nft_name": {"type": "string"},
                "epoch_end": {"type": "string"},
                "total_tickets": {"type": "integer"}
            }
        },
        "dto.WinnersResponse": {
            "type": "object",
            "properties": {
                "winners": {"type": "array", "items": {"$ref": "#/definitions/dto.WinnerResponse"}}
            }
        },
        "dto.TokenBurnsResponse": {
            "type": "object",
            "properties": {
                "epoch_id": {"type": "integer"},
                "burns": {"type": "array", "items": {"$ref": "#/definitions/models.TokenBurn"}},
                "total": {"type": "string"}
            }
        },
        "dto.WebhookRequest": {
            "type": "object",
            "properties": {
                "tx_hash": {"type": "string"},
                "id": {"type": "string"},
                "webhook_id": {"type": "string"},
                "type": {"type": "string"},
                "api_version": {"type": "integer"},
                "payload": {"type": "array", "items": {"type": "object"}}
            }
        },
        "dto.WebhookResponse": {
            "type": "object",
            "properties": {
                "status": {"type": "string"},
                "results": {"type": "array", "items": {"$ref": "#/definitions/models.IngestResult"}}
            }
        },
        "dto.IngestRequest": {
            "type": "object",
            "required": ["tx_hash"],
            "properties": {
                "tx_hash": {"type": "string"}
            }
        },
        "dto.CreateEpochRequest": {
            "type": "object",
            "required": ["end_time"],
            "properties": {
                "end_time": {"type": "string"},
                "prize_nft_name": {"type": "string"},
                "prize_nft_asset_id": {"type": "string"}
            }
        },
        "dto.UpdatePrizeRequest": {
            "type": "object",
            "required": ["name"],
            "properties": {
                "name": {"type": "string"},
                "asset_id": {"type": "string"}
            }
        },
        "dto.TokenBurnRequest": {
            "type": "object",
            "required": ["tx_hash"],
            "properties": {
                "tx_hash": {"type": "string"},
                "total_tokens_burned": {"type": "string"},
                "burn_time": {"type": "string"}
            }
        },
        "dto.EpochResponse": {
            "type": "object",
            "properties": {
                "epoch": {"type": "object"},
                "status": {"type": "string"}
            }
        },
        "models.IngestResult": {
            "type": "object",
            "properties": {
                "status": {"type": "string"},
                "tx_hash": {"type": "string"},
                "wallet": {"type": "string"},
                "tickets": {"type": "integer"},
                "ada_amount": {"type": "string"},
                "epok_amount": {"type": "string"},
                "epoch_id": {"type": "integer"},
                "reason": {"type": "string"}
            }
        },
        "models.DrawResult": {
            "type": "object",
            "properties": {
                "epoch_id": {"type": "integer"},
                "winner": {"type": "string"},
                "total_entries": {"type": "integer"},
                "participants": {"type": "integer"},
                "prize": {"type": "object"}
            }
        },
        "models.NetworkEpoch": {
            "type": "object",
            "properties": {
                "number": {"type": "integer"},
                "start_time": {"type": "string"},
                "end_time": {"type": "string"},
                "progress": {"type": "number"},
                "tx_count": {"type": "integer"}
            }
        },
        "models.TokenBurn": {
            "type": "object",
            "properties": {
                "id": {"type": "integer"},
                "epoch_id": {"type": "integer"},
                "burn_time": {"type": "string"},
                "total_tokens_burned": {"type": "string"},
                "transaction_hash": {"type": "string"}
            }
        },
        "middleware.ErrorResponse": {
            "type": "object",
            "properties": {
                "success": {"type": "boolean"},
                "error": {"type": "object"},
                "timestamp": {"type": "string"},
                "request_id": {"type": "string"},
                "path": {"type": "string"},
                "method": {"type": "string"}
            }
        }
    },
    "securityDefinitions": {
        "AdminKey": {"type": "apiKey", "name": "X-Admin-Key", "in": "header"},
        "WebhookSecret": {"type": "apiKey", "name": "X-Webhook-Secret", "in": "header"}
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "Epok Raffle API",
	Description:      "Cardano payment-funded raffle",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
