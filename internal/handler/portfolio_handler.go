package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/trade-journal/internal/middleware"
	"github.com/trade-journal/internal/service"
	"github.com/trade-journal/pkg/response"
)

// PortfolioHandler serves the account overview
type PortfolioHandler struct {
	portfolioService *service.PortfolioService
}

// NewPortfolioHandler creates a new PortfolioHandler
func NewPortfolioHandler(portfolioService *service.PortfolioService) *PortfolioHandler {
	return &PortfolioHandler{
		portfolioService: portfolioService,
	}
}

// Summary returns wallets, open positions, simulation performance and real
// exchange balances in one response
// GET /api/v1/portfolio/summary
func (h *PortfolioHandler) Summary(c *gin.Context) {
	userID := middleware.GetUserID(c)

	summary, err := h.portfolioService.GetSummary(c.Request.Context(), userID)
	if err != nil {
		response.InternalError(c, "failed to build portfolio summary")
		return
	}

	response.Success(c, summary)
}

// RegisterRoutes registers portfolio routes
func (h *PortfolioHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/portfolio/summary", h.Summary)
}
