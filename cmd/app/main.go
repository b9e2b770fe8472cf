package main

import (
	"os"

	"github.com/urfave/cli/v2"

	"github.com/bewie03/epok/internal/common/logger"
)

// @title           Epok Raffle API
// @version         1.0
// @description     Cardano payment-funded raffle. Payments to the raffle wallet become tickets; every epoch ends with a ticket-weighted draw.

// @BasePath  /

// @securityDefinitions.apikey AdminKey
// @in header
// @name X-Admin-Key

// @securityDefinitions.apikey WebhookSecret
// @in header
// @name X-Webhook-Secret

// @tag.name raffle
// @tag.description Public read API

// @tag.name webhook
// @tag.description Transaction notifications

// @tag.name admin
// @tag.description Administrative operations

func main() {
	app := cli.NewApp()
	app.Name = "epok"
	app.Usage = "Epok raffle backend"
	app.Action = serve
	app.Commands = []*cli.Command{
		{
			Action:      serve,
			Name:        "serve",
			Usage:       "Start the HTTP api",
			Category:    "Api",
			Description: `Serves the public, webhook and admin routes. Starts the address poller and stream worker when enabled.`,
		},
		{
			Action:      migrate,
			Name:        "migrate",
			Usage:       "Create or update the database schema",
			Category:    "Maintenance",
			Description: `Runs the schema migration including the single open epoch index, then exits.`,
		},
		{
			Action:      ingest,
			Name:        "ingest",
			Usage:       "Ingest transactions by hash",
			ArgsUsage:   "<tx_hash>...",
			Category:    "Maintenance",
			Description: `Fetches each transaction from the chain oracle and records it like a webhook delivery would.`,
		},
		{
			Action:      draw,
			Name:        "draw",
			Usage:       "Force a draw of the active epoch",
			Category:    "Maintenance",
			Description: `Completes the active epoch with a ticket-weighted winner now.`,
		},
	}

	if err := app.Run(os.Args); err != nil {
		logger.Fatal().Err(err).Msg("Command failed")
	}
}
