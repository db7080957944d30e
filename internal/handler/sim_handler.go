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

// SimHandler handles the simulated exchange API: wallets, spot orders and
// leveraged futures positions.
type SimHandler struct {
	walletService  *service.WalletService
	spotService    *service.SpotService
	futuresService *service.FuturesService
}

// NewSimHandler creates a new SimHandler
func NewSimHandler(
	walletService *service.WalletService,
	spotService *service.SpotService,
	futuresService *service.FuturesService,
) *SimHandler {
	return &SimHandler{
		walletService:  walletService,
		spotService:    spotService,
		futuresService: futuresService,
	}
}

// orderError maps order placement failures onto HTTP statuses
func orderError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrInvalidSymbol),
		errors.Is(err, service.ErrInvalidQuantity),
		errors.Is(err, service.ErrInvalidSide),
		errors.Is(err, service.ErrInvalidLeverage),
		errors.Is(err, service.ErrInsufficientFund):
		response.BadRequest(c, err.Error())
	case errors.Is(err, service.ErrPriceUnavailable):
		response.BadGateway(c, err.Error())
	case errors.Is(err, repository.ErrPositionNotFound):
		response.NotFound(c, "position not found")
	default:
		response.InternalError(c, "order failed")
	}
}

// ListWallets returns the user's simulated wallets
// GET /api/v1/sim/wallets
func (h *SimHandler) ListWallets(c *gin.Context) {
	userID := middleware.GetUserID(c)

	wallets, err := h.walletService.ListWallets(userID)
	if err != nil {
		response.InternalError(c, "failed to load wallets")
		return
	}

	response.Success(c, wallets)
}

// ResetWallets closes all open positions and restores the seed balance
// POST /api/v1/sim/wallets/reset
func (h *SimHandler) ResetWallets(c *gin.Context) {
	userID := middleware.GetUserID(c)

	result, err := h.walletService.Reset(userID)
	if err != nil {
		response.InternalError(c, "failed to reset wallets")
		return
	}

	response.Success(c, result)
}

// PlaceSpotOrder executes a simulated spot market order
// POST /api/v1/sim/spot/orders
func (h *SimHandler) PlaceSpotOrder(c *gin.Context) {
	userID := middleware.GetUserID(c)

	var req service.SpotOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	fill, err := h.spotService.PlaceOrder(c.Request.Context(), userID, &req)
	if err != nil {
		orderError(c, err)
		return
	}

	response.Created(c, fill)
}

// OpenFuturesPosition opens a simulated leveraged position
// POST /api/v1/sim/futures/positions
func (h *SimHandler) OpenFuturesPosition(c *gin.Context) {
	userID := middleware.GetUserID(c)

	var req service.FuturesOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	result, err := h.futuresService.Open(c.Request.Context(), userID, &req)
	if err != nil {
		orderError(c, err)
		return
	}

	response.Created(c, result)
}

// CloseFuturesPosition closes an open position at the current mark price
// POST /api/v1/sim/futures/positions/:id/close
func (h *SimHandler) CloseFuturesPosition(c *gin.Context) {
	userID := middleware.GetUserID(c)

	positionID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		response.BadRequest(c, "invalid position id")
		return
	}

	result, err := h.futuresService.Close(c.Request.Context(), userID, uint(positionID))
	if err != nil {
		orderError(c, err)
		return
	}

	response.Success(c, result)
}

// ListOpenPositions returns the user's open futures positions
// GET /api/v1/sim/futures/positions
func (h *SimHandler) ListOpenPositions(c *gin.Context) {
	userID := middleware.GetUserID(c)

	positions, err := h.futuresService.ListOpen(userID)
	if err != nil {
		response.InternalError(c, "failed to load positions")
		return
	}

	response.Success(c, positions)
}

// PositionHistory returns recently closed futures positions
// GET /api/v1/sim/futures/history
func (h *SimHandler) PositionHistory(c *gin.Context) {
	userID := middleware.GetUserID(c)

	positions, err := h.futuresService.History(userID)
	if err != nil {
		response.InternalError(c, "failed to load position history")
		return
	}

	response.Success(c, positions)
}

// RegisterRoutes registers simulated exchange routes
func (h *SimHandler) RegisterRoutes(rg *gin.RouterGroup, orderLogger gin.HandlerFunc) {
	sim := rg.Group("/sim")
	{
		sim.GET("/wallets", h.ListWallets)
		sim.POST("/wallets/reset", orderLogger, h.ResetWallets)
		sim.POST("/spot/orders", orderLogger, h.PlaceSpotOrder)
		sim.POST("/futures/positions", orderLogger, h.OpenFuturesPosition)
		sim.POST("/futures/positions/:id/close", orderLogger, h.CloseFuturesPosition)
		sim.GET("/futures/positions", h.ListOpenPositions)
		sim.GET("/futures/history", h.PositionHistory)
	}
}
