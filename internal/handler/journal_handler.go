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

// JournalHandler handles manual journal entry CRUD
type JournalHandler struct {
	journalService *service.JournalService
}

// NewJournalHandler creates a new JournalHandler
func NewJournalHandler(journalService *service.JournalService) *JournalHandler {
	return &JournalHandler{
		journalService: journalService,
	}
}

func entryID(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		response.BadRequest(c, "invalid entry id")
		return 0, false
	}
	return uint(id), true
}

// Create records a new journal entry
// POST /api/v1/trades
func (h *JournalHandler) Create(c *gin.Context) {
	userID := middleware.GetUserID(c)

	var req service.CreateEntryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	entry, err := h.journalService.Create(userID, &req)
	if err != nil {
		response.InternalError(c, "failed to create entry")
		return
	}

	response.Created(c, entry)
}

// Get returns one journal entry
// GET /api/v1/trades/:id
func (h *JournalHandler) Get(c *gin.Context) {
	userID := middleware.GetUserID(c)

	id, ok := entryID(c)
	if !ok {
		return
	}

	entry, err := h.journalService.Get(userID, id)
	if err != nil {
		if errors.Is(err, repository.ErrEntryNotFound) {
			response.NotFound(c, "entry not found")
			return
		}
		response.InternalError(c, "failed to load entry")
		return
	}

	response.Success(c, entry)
}

// List returns the user's journal entries, newest first
// GET /api/v1/trades?page=1&page_size=20
func (h *JournalHandler) List(c *gin.Context) {
	userID := middleware.GetUserID(c)

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}

	entries, total, err := h.journalService.List(userID, page, pageSize)
	if err != nil {
		response.InternalError(c, "failed to load entries")
		return
	}

	response.SuccessPaginated(c, entries, total, page, pageSize)
}

// Update modifies an entry; setting an exit price closes it
// PUT /api/v1/trades/:id
func (h *JournalHandler) Update(c *gin.Context) {
	userID := middleware.GetUserID(c)

	id, ok := entryID(c)
	if !ok {
		return
	}

	var req service.UpdateEntryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	entry, err := h.journalService.Update(userID, id, &req)
	if err != nil {
		if errors.Is(err, repository.ErrEntryNotFound) {
			response.NotFound(c, "entry not found")
			return
		}
		response.InternalError(c, "failed to update entry")
		return
	}

	response.Success(c, entry)
}

// Delete removes an entry
// DELETE /api/v1/trades/:id
func (h *JournalHandler) Delete(c *gin.Context) {
	userID := middleware.GetUserID(c)

	id, ok := entryID(c)
	if !ok {
		return
	}

	if err := h.journalService.Delete(userID, id); err != nil {
		if errors.Is(err, repository.ErrEntryNotFound) {
			response.NotFound(c, "entry not found")
			return
		}
		response.InternalError(c, "failed to delete entry")
		return
	}

	response.NoContent(c)
}

// RegisterRoutes registers journal routes
func (h *JournalHandler) RegisterRoutes(rg *gin.RouterGroup) {
	trades := rg.Group("/trades")
	{
		trades.POST("", h.Create)
		trades.GET("", h.List)
		trades.GET("/:id", h.Get)
		trades.PUT("/:id", h.Update)
		trades.DELETE("/:id", h.Delete)
	}
}
