package handler

import (
	"context"

	billingapp "github.com/facturio/backend/internal/application/billing"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// QuoteHandler handles quote-related API endpoints
type QuoteHandler struct {
	BaseHandler
	quoteService    *billingapp.QuoteService
	dispatchService *billingapp.DispatchService
}

// NewQuoteHandler creates a new QuoteHandler
func NewQuoteHandler(quoteService *billingapp.QuoteService, dispatchService *billingapp.DispatchService) *QuoteHandler {
	return &QuoteHandler{
		quoteService:    quoteService,
		dispatchService: dispatchService,
	}
}

// RegisterRoutes registers quote routes on the given group
func (h *QuoteHandler) RegisterRoutes(rg *gin.RouterGroup) {
	quotes := rg.Group("/quotes")
	{
		quotes.POST("", h.Create)
		quotes.GET("", h.List)
		quotes.GET("/summary", h.StatusSummary)
		quotes.GET("/:id", h.GetByID)
		quotes.PUT("/:id", h.Update)
		quotes.DELETE("/:id", h.Delete)
		quotes.POST("/:id/accept", h.Accept)
		quotes.POST("/:id/reject", h.Reject)
		quotes.POST("/:id/send", h.Send)
	}
}

// Create creates a new quote
func (h *QuoteHandler) Create(c *gin.Context) {
	orgID, err := getOrganizationID(c)
	if err != nil {
		h.Unauthorized(c, "Missing organization context")
		return
	}

	var req billingapp.CreateQuoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	quote, err := h.quoteService.Create(c.Request.Context(), orgID, getUserID(c), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, quote)
}

// GetByID retrieves a quote with its lines
func (h *QuoteHandler) GetByID(c *gin.Context) {
	orgID, err := getOrganizationID(c)
	if err != nil {
		h.Unauthorized(c, "Missing organization context")
		return
	}

	quoteID, err := parseIDParam(c)
	if err != nil {
		h.BadRequest(c, "Invalid quote ID format")
		return
	}

	quote, err := h.quoteService.GetByID(c.Request.Context(), orgID, quoteID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, quote)
}

// List returns a filtered, paginated quote list
func (h *QuoteHandler) List(c *gin.Context) {
	orgID, err := getOrganizationID(c)
	if err != nil {
		h.Unauthorized(c, "Missing organization context")
		return
	}

	var filter billingapp.QuoteListFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	result, err := h.quoteService.List(c.Request.Context(), orgID, filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.SuccessWithMeta(c, result, result.Total, result.Page, result.PageSize, result.TotalPages)
}

// StatusSummary returns quote counts per status
func (h *QuoteHandler) StatusSummary(c *gin.Context) {
	orgID, err := getOrganizationID(c)
	if err != nil {
		h.Unauthorized(c, "Missing organization context")
		return
	}

	summary, err := h.quoteService.StatusSummary(c.Request.Context(), orgID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, summary)
}

// Update applies a partial update to a draft or sent quote
func (h *QuoteHandler) Update(c *gin.Context) {
	orgID, err := getOrganizationID(c)
	if err != nil {
		h.Unauthorized(c, "Missing organization context")
		return
	}

	quoteID, err := parseIDParam(c)
	if err != nil {
		h.BadRequest(c, "Invalid quote ID format")
		return
	}

	var req billingapp.UpdateQuoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	quote, err := h.quoteService.Update(c.Request.Context(), orgID, quoteID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, quote)
}

// Accept marks a quote as accepted by the customer
func (h *QuoteHandler) Accept(c *gin.Context) {
	h.transition(c, h.quoteService.Accept)
}

// Reject marks a quote as rejected by the customer
func (h *QuoteHandler) Reject(c *gin.Context) {
	h.transition(c, h.quoteService.Reject)
}

// Delete deletes a quote
func (h *QuoteHandler) Delete(c *gin.Context) {
	orgID, err := getOrganizationID(c)
	if err != nil {
		h.Unauthorized(c, "Missing organization context")
		return
	}

	quoteID, err := parseIDParam(c)
	if err != nil {
		h.BadRequest(c, "Invalid quote ID format")
		return
	}

	if err := h.quoteService.Delete(c.Request.Context(), orgID, quoteID); err != nil {
		h.HandleError(c, err)
		return
	}

	h.NoContent(c)
}

// Send renders the quote PDF and emails it to the customer
func (h *QuoteHandler) Send(c *gin.Context) {
	orgID, err := getOrganizationID(c)
	if err != nil {
		h.Unauthorized(c, "Missing organization context")
		return
	}

	userID := getUserID(c)
	if userID == uuid.Nil {
		h.Unauthorized(c, "Missing user context")
		return
	}

	quoteID, err := parseIDParam(c)
	if err != nil {
		h.BadRequest(c, "Invalid quote ID format")
		return
	}

	var req billingapp.SendDocumentRequest
	// Allow empty body
	_ = c.ShouldBindJSON(&req)

	result, err := h.dispatchService.SendQuote(c.Request.Context(), orgID, userID, quoteID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, result)
}

type quoteTransition func(ctx context.Context, organizationID, quoteID uuid.UUID) (*billingapp.QuoteResponse, error)

func (h *QuoteHandler) transition(c *gin.Context, apply quoteTransition) {
	orgID, err := getOrganizationID(c)
	if err != nil {
		h.Unauthorized(c, "Missing organization context")
		return
	}

	quoteID, err := parseIDParam(c)
	if err != nil {
		h.BadRequest(c, "Invalid quote ID format")
		return
	}

	quote, err := apply(c.Request.Context(), orgID, quoteID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, quote)
}
