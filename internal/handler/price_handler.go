package handler

import (
	"errors"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/trade-journal/internal/service"
	"github.com/trade-journal/pkg/response"
)

// PriceHandler serves public market quotes
type PriceHandler struct {
	priceService *service.PriceService
}

// NewPriceHandler creates a new PriceHandler
func NewPriceHandler(priceService *service.PriceService) *PriceHandler {
	return &PriceHandler{
		priceService: priceService,
	}
}

// GetQuote returns the latest price for one symbol. Quotes may be up to
// five seconds stale.
// GET /api/v1/prices/:symbol
func (h *PriceHandler) GetQuote(c *gin.Context) {
	symbol := strings.ToUpper(strings.TrimSpace(c.Param("symbol")))
	if symbol == "" {
		response.BadRequest(c, "symbol is required")
		return
	}

	price, err := h.priceService.GetQuote(c.Request.Context(), symbol)
	if err != nil {
		if errors.Is(err, service.ErrPriceUnavailable) {
			response.BadGateway(c, "price unavailable")
			return
		}
		response.InternalError(c, "failed to fetch price")
		return
	}

	response.Success(c, gin.H{
		"symbol": symbol,
		"price":  price,
	})
}

// RegisterRoutes registers public price routes
func (h *PriceHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/prices/:symbol", h.GetQuote)
}
