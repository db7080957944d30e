package handler

import (
	"errors"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/trade-journal/internal/middleware"
	"github.com/trade-journal/internal/repository"
	"github.com/trade-journal/internal/service"
	"github.com/trade-journal/pkg/response"
)

// ExchangeHandler handles real-exchange connections and journal sync
type ExchangeHandler struct {
	syncService *service.SyncService
}

// NewExchangeHandler creates a new ExchangeHandler
func NewExchangeHandler(syncService *service.SyncService) *ExchangeHandler {
	return &ExchangeHandler{
		syncService: syncService,
	}
}

// Connect validates and stores exchange API credentials
// POST /api/v1/exchanges/connect
func (h *ExchangeHandler) Connect(c *gin.Context) {
	userID := middleware.GetUserID(c)

	var req service.ConnectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	conn, err := h.syncService.Connect(c.Request.Context(), userID, &req)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrUnsupportedExchange):
			response.BadRequest(c, err.Error())
		case errors.Is(err, service.ErrCredentialsRejected):
			response.BadRequest(c, err.Error())
		default:
			response.InternalError(c, "failed to connect exchange")
		}
		return
	}

	response.Created(c, conn)
}

// Status lists the user's active exchange connections
// GET /api/v1/exchanges/status
func (h *ExchangeHandler) Status(c *gin.Context) {
	userID := middleware.GetUserID(c)

	statuses, err := h.syncService.Status(userID)
	if err != nil {
		response.InternalError(c, "failed to load connections")
		return
	}

	response.Success(c, statuses)
}

// Sync imports fill history for the requested symbols
// POST /api/v1/exchanges/:id/sync
func (h *ExchangeHandler) Sync(c *gin.Context) {
	userID := middleware.GetUserID(c)

	connectionID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		response.BadRequest(c, "invalid connection id")
		return
	}

	var req service.SyncRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	result, err := h.syncService.Sync(c.Request.Context(), userID, uint(connectionID), req.Symbols)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrConnectionNotFound):
			response.NotFound(c, "connection not found")
		case errors.Is(err, service.ErrUnsupportedExchange):
			response.BadRequest(c, err.Error())
		default:
			response.InternalError(c, "sync failed")
		}
		return
	}

	response.Success(c, result)
}

// RegisterRoutes registers exchange routes
func (h *ExchangeHandler) RegisterRoutes(rg *gin.RouterGroup) {
	exchanges := rg.Group("/exchanges")
	{
		exchanges.POST("/connect", h.Connect)
		exchanges.GET("/status", h.Status)
		exchanges.POST("/:id/sync", h.Sync)
	}
}
