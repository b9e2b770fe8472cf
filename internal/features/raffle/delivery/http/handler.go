package http

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/bewie03/epok/internal/common/errors"
	"github.com/bewie03/epok/internal/common/middleware"
	"github.com/bewie03/epok/internal/features/raffle/mapper"
	"github.com/bewie03/epok/internal/features/raffle/models"
	"github.com/bewie03/epok/internal/features/raffle/models/dto"
	raffleservice "github.com/bewie03/epok/internal/features/raffle/service"
)

type RaffleHandler struct {
	raffle    *raffleservice.RaffleService
	lifecycle *raffleservice.LifecycleService
	ingest    *raffleservice.IngestService
}

func NewRaffleHandler(
	raffle *raffleservice.RaffleService,
	lifecycle *raffleservice.LifecycleService,
	ingest *raffleservice.IngestService,
) *RaffleHandler {
	return &RaffleHandler{
		raffle:    raffle,
		lifecycle: lifecycle,
		ingest:    ingest,
	}
}

// RegisterRoutes mounts the public read API
func (h *RaffleHandler) RegisterRoutes(router *gin.RouterGroup) {
	router.GET("/current-epoch", h.getCurrentEpoch)
	router.GET("/current-prize", h.getCurrentPrize)
	router.GET("/participants", h.getParticipants)
	router.GET("/entries", h.getEntries)
	router.GET("/latest-winner", h.getLatestWinner)
	router.GET("/winners", h.getWinners)
	router.GET("/network-epoch", h.getNetworkEpoch)
	router.GET("/burns", h.getBurns)
}

// RegisterWebhookRoutes mounts ingestion. The caller guards the group.
func (h *RaffleHandler) RegisterWebhookRoutes(router *gin.RouterGroup) {
	router.POST("/transaction", h.webhookTransaction)
}

// RegisterAdminRoutes mounts administrative operations. The caller guards the group.
func (h *RaffleHandler) RegisterAdminRoutes(router *gin.RouterGroup) {
	router.POST("/draw-winner", h.drawWinner)
	router.POST("/ingest", h.ingestHash)
	router.POST("/burns", h.recordBurn)

	epochs := router.Group("/epochs")
	{
		epochs.POST("/new", h.createEpoch)
		epochs.PUT("/current/prize", h.updatePrize)
	}
}

// @Summary Current epoch
// @Description Active epoch with its window, progress and ticket total
// @Tags raffle
// @Produce json
// @Success 200 {object} dto.CurrentEpochResponse
// @Failure 500 {object} middleware.ErrorResponse
// @Router /api/current-epoch [get]
func (h *RaffleHandler) getCurrentEpoch(c *gin.Context) {
	resp, err := h.raffle.GetCurrentEpoch(c.Request.Context())
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// @Summary Current prize
// @Tags raffle
// @Produce json
// @Success 200 {object} dto.PrizeResponse
// @Failure 500 {object} middleware.ErrorResponse
// @Router /api/current-prize [get]
func (h *RaffleHandler) getCurrentPrize(c *gin.Context) {
	resp, err := h.raffle.GetCurrentPrize(c.Request.Context())
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// @Summary Participants of the active epoch
// @Tags raffle
// @Produce json
// @Success 200 {object} dto.ParticipantsResponse
// @Failure 500 {object} middleware.ErrorResponse
// @Router /api/participants [get]
func (h *RaffleHandler) getParticipants(c *gin.Context) {
	resp, err := h.raffle.GetParticipants(c.Request.Context())
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// @Summary Entries of the active epoch
// @Tags raffle
// @Produce json
// @Success 200 {object} dto.EntriesResponse
// @Failure 500 {object} middleware.ErrorResponse
// @Router /api/entries [get]
func (h *RaffleHandler) getEntries(c *gin.Context) {
	resp, err := h.raffle.GetEntries(c.Request.Context())
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// @Summary Latest winner
// @Description winner_address is null until an epoch has been won
// @Tags raffle
// @Produce json
// @Success 200 {object} dto.WinnerResponse
// @Failure 500 {object} middleware.ErrorResponse
// @Router /api/latest-winner [get]
func (h *RaffleHandler) getLatestWinner(c *gin.Context) {
	resp, err := h.raffle.GetLatestWinner(c.Request.Context())
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// @Summary Winner history
// @Tags raffle
// @Produce json
// @Param limit query int false "Page size (default 20, max 100)"
// @Success 200 {object} dto.WinnersResponse
// @Failure 400 {object} middleware.ErrorResponse
// @Router /api/winners [get]
func (h *RaffleHandler) getWinners(c *gin.Context) {
	var limit int64
	if raw := c.Query("limit"); raw != "" {
		v, err := strconv.ParseInt(raw, 10, 64)
		if err == nil {
			err = raffleservice.ValidateLimit(v)
		}
		if err != nil {
			c.Error(errors.NewValidationError("limit", "must be a positive integer"))
			return
		}
		limit = v
	}

	resp, err := h.raffle.GetWinners(c.Request.Context(), int(limit))
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// @Summary Current Cardano network epoch
// @Description Informational, does not drive the raffle
// @Tags raffle
// @Produce json
// @Success 200 {object} models.NetworkEpoch
// @Failure 500 {object} middleware.ErrorResponse
// @Router /api/network-epoch [get]
func (h *RaffleHandler) getNetworkEpoch(c *gin.Context) {
	resp, err := h.raffle.GetNetworkEpoch(c.Request.Context())
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// @Summary Token burns of the active epoch
// @Tags raffle
// @Produce json
// @Success 200 {object} dto.TokenBurnsResponse
// @Failure 500 {object} middleware.ErrorResponse
// @Router /api/burns [get]
func (h *RaffleHandler) getBurns(c *gin.Context) {
	resp, err := h.raffle.GetTokenBurns(c.Request.Context())
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// @Summary Transaction webhook
// @Description Accepts {"tx_hash": "..."} or a Blockfrost transaction webhook with embedded payload
// @Tags webhook
// @Accept json
// @Produce json
// @Security WebhookSecret
// @Param input body dto.WebhookRequest true "Observed transaction"
// @Success 200 {object} dto.WebhookResponse
// @Failure 400 {object} middleware.ErrorResponse
// @Failure 401 {object} middleware.ErrorResponse
// @Failure 404 {object} dto.WebhookResponse "Transaction unknown to the oracle"
// @Failure 500 {object} dto.WebhookResponse "Oracle unavailable"
// @Router /webhook/transaction [post]
func (h *RaffleHandler) webhookTransaction(c *gin.Context) {
	var input dto.WebhookRequest
	if err := c.ShouldBindJSON(&input); err != nil {
		c.Error(errors.NewBadRequestError("Invalid webhook body: " + err.Error()))
		return
	}
	if appErr := input.Validate(); appErr != nil {
		c.Error(appErr)
		return
	}

	ctx := c.Request.Context()
	var (
		results  []models.IngestResult
		firstErr error
	)
	collect := func(res *models.IngestResult, err error) {
		if res != nil {
			results = append(results, *res)
		}
		if err != nil && firstErr == nil {
			firstErr = err
		}
	}

	if len(input.Payload) == 0 {
		collect(h.ingest.IngestHash(ctx, input.TxHash))
	} else {
		txs := input.Transactions()
		for i := range txs {
			collect(h.ingest.IngestTransaction(ctx, &txs[i]))
		}
	}

	h.respondIngest(c, results, firstErr)
}

// @Summary Ingest a transaction by hash
// @Tags admin
// @Accept json
// @Produce json
// @Security AdminKey
// @Param input body dto.IngestRequest true "Transaction hash"
// @Success 200 {object} dto.WebhookResponse
// @Failure 400 {object} middleware.ErrorResponse
// @Failure 401 {object} middleware.ErrorResponse
// @Router /api/admin/ingest [post]
func (h *RaffleHandler) ingestHash(c *gin.Context) {
	var input dto.IngestRequest
	if err := c.ShouldBindJSON(&input); err != nil {
		c.Error(errors.NewBadRequestError("No transaction hash provided"))
		return
	}

	res, err := h.ingest.IngestHash(c.Request.Context(), input.TxHash)
	var results []models.IngestResult
	if res != nil {
		results = append(results, *res)
	}
	h.respondIngest(c, results, err)
}

// respondIngest reports per-transaction outcomes. Errors without a result
// are rendered by the error middleware; otherwise the status follows the
// first error code.
func (h *RaffleHandler) respondIngest(c *gin.Context, results []models.IngestResult, err error) {
	if len(results) == 0 {
		if err == nil {
			err = errors.NewBadRequestError("No transaction to ingest")
		}
		c.Error(err)
		return
	}

	status := http.StatusOK
	if err != nil {
		appErr, ok := errors.AsAppError(err)
		if !ok {
			appErr = errors.Wrap(err, errors.ErrCodeInternal, "Ingestion failed")
		}
		status = middleware.HTTPStatusCode(appErr)
	}

	c.JSON(status, dto.WebhookResponse{
		Status:  dto.AggregateStatus(results),
		Results: results,
	})
}

// @Summary Force a draw
// @Description Completes the open epoch with a winner now; the next epoch starts on the next request
// @Tags admin
// @Produce json
// @Security AdminKey
// @Success 200 {object} models.DrawResult
// @Failure 400 {object} middleware.ErrorResponse "No active epoch or no entries"
// @Failure 401 {object} middleware.ErrorResponse
// @Router /api/admin/draw-winner [post]
func (h *RaffleHandler) drawWinner(c *gin.Context) {
	result, err := h.lifecycle.DrawWinner(c.Request.Context())
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// @Summary Create an epoch
// @Tags admin
// @Accept json
// @Produce json
// @Security AdminKey
// @Param input body dto.CreateEpochRequest true "Epoch window and prize"
// @Success 201 {object} dto.EpochResponse
// @Failure 400 {object} middleware.ErrorResponse
// @Failure 401 {object} middleware.ErrorResponse
// @Failure 409 {object} middleware.ErrorResponse "Active epoch exists"
// @Router /api/admin/epochs/new [post]
func (h *RaffleHandler) createEpoch(c *gin.Context) {
	var input dto.CreateEpochRequest
	if err := c.ShouldBindJSON(&input); err != nil {
		c.Error(errors.NewBadRequestError("Invalid epoch request: " + err.Error()))
		return
	}

	epoch, err := h.lifecycle.CreateEpoch(c.Request.Context(), input.EndTime, models.Prize{
		Name:    input.PrizeNFTName,
		AssetID: input.PrizeNFTAssetID,
	})
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusCreated, dto.EpochResponse{
		Epoch:  epoch,
		Status: epoch.Status(h.lifecycle.Now()),
	})
}

// @Summary Set the prize of the active epoch
// @Tags admin
// @Accept json
// @Produce json
// @Security AdminKey
// @Param input body dto.UpdatePrizeRequest true "Prize descriptor"
// @Success 200 {object} dto.PrizeResponse
// @Failure 400 {object} middleware.ErrorResponse
// @Failure 401 {object} middleware.ErrorResponse
// @Router /api/admin/epochs/current/prize [put]
func (h *RaffleHandler) updatePrize(c *gin.Context) {
	var input dto.UpdatePrizeRequest
	if err := c.ShouldBindJSON(&input); err != nil {
		c.Error(errors.NewBadRequestError("Invalid prize request: " + err.Error()))
		return
	}

	epoch, err := h.lifecycle.UpdateCurrentPrize(c.Request.Context(), models.Prize{
		Name:    input.Name,
		AssetID: input.AssetID,
	})
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, mapper.ToPrizeResponse(epoch))
}

// @Summary Record a token burn for the active epoch
// @Tags admin
// @Accept json
// @Produce json
// @Security AdminKey
// @Param input body dto.TokenBurnRequest true "Burn"
// @Success 201 {object} models.TokenBurn
// @Failure 400 {object} middleware.ErrorResponse
// @Failure 401 {object} middleware.ErrorResponse
// @Failure 409 {object} middleware.ErrorResponse "Burn already recorded"
// @Router /api/admin/burns [post]
func (h *RaffleHandler) recordBurn(c *gin.Context) {
	var input dto.TokenBurnRequest
	if err := c.ShouldBindJSON(&input); err != nil {
		c.Error(errors.NewBadRequestError("Invalid burn request: " + err.Error()))
		return
	}

	burn, err := h.raffle.RecordTokenBurn(c.Request.Context(), &input)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusCreated, burn)
}
