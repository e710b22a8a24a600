package handler

import (
	billingapp "github.com/facturio/backend/internal/application/billing"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// InvoiceHandler handles invoice-related API endpoints
type InvoiceHandler struct {
	BaseHandler
	invoiceService  *billingapp.InvoiceService
	paymentService  *billingapp.PaymentService
	dispatchService *billingapp.DispatchService
}

// NewInvoiceHandler creates a new InvoiceHandler
func NewInvoiceHandler(
	invoiceService *billingapp.InvoiceService,
	paymentService *billingapp.PaymentService,
	dispatchService *billingapp.DispatchService,
) *InvoiceHandler {
	return &InvoiceHandler{
		invoiceService:  invoiceService,
		paymentService:  paymentService,
		dispatchService: dispatchService,
	}
}

// RegisterRoutes registers invoice routes on the given group
func (h *InvoiceHandler) RegisterRoutes(rg *gin.RouterGroup) {
	invoices := rg.Group("/invoices")
	{
		invoices.POST("", h.Create)
		invoices.GET("", h.List)
		invoices.GET("/summary", h.StatusSummary)
		invoices.GET("/:id", h.GetByID)
		invoices.PUT("/:id", h.Update)
		invoices.DELETE("/:id", h.Delete)
		invoices.POST("/:id/cancel", h.Cancel)
		invoices.GET("/:id/payments", h.ListPayments)
		invoices.POST("/:id/payments", h.RecordPayment)
		invoices.POST("/:id/send", h.Send)
		invoices.POST("/:id/send-with-payment-link", h.SendWithPaymentLink)
	}
}

// Create creates a new invoice
func (h *InvoiceHandler) Create(c *gin.Context) {
	orgID, err := getOrganizationID(c)
	if err != nil {
		h.Unauthorized(c, "Missing organization context")
		return
	}

	var req billingapp.CreateInvoiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	invoice, err := h.invoiceService.Create(c.Request.Context(), orgID, getUserID(c), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, invoice)
}

// GetByID retrieves an invoice with its lines and payments
func (h *InvoiceHandler) GetByID(c *gin.Context) {
	orgID, err := getOrganizationID(c)
	if err != nil {
		h.Unauthorized(c, "Missing organization context")
		return
	}

	invoiceID, err := parseIDParam(c)
	if err != nil {
		h.BadRequest(c, "Invalid invoice ID format")
		return
	}

	invoice, err := h.invoiceService.GetByID(c.Request.Context(), orgID, invoiceID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, invoice)
}

// List returns a filtered, paginated invoice list
func (h *InvoiceHandler) List(c *gin.Context) {
	orgID, err := getOrganizationID(c)
	if err != nil {
		h.Unauthorized(c, "Missing organization context")
		return
	}

	var filter billingapp.InvoiceListFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	result, err := h.invoiceService.List(c.Request.Context(), orgID, filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.SuccessWithMeta(c, result, result.Total, result.Page, result.PageSize, result.TotalPages)
}

// StatusSummary returns invoice counts per status
func (h *InvoiceHandler) StatusSummary(c *gin.Context) {
	orgID, err := getOrganizationID(c)
	if err != nil {
		h.Unauthorized(c, "Missing organization context")
		return
	}

	summary, err := h.invoiceService.StatusSummary(c.Request.Context(), orgID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, summary)
}

// Update applies a partial update to a pending invoice
func (h *InvoiceHandler) Update(c *gin.Context) {
	orgID, err := getOrganizationID(c)
	if err != nil {
		h.Unauthorized(c, "Missing organization context")
		return
	}

	invoiceID, err := parseIDParam(c)
	if err != nil {
		h.BadRequest(c, "Invalid invoice ID format")
		return
	}

	var req billingapp.UpdateInvoiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	invoice, err := h.invoiceService.Update(c.Request.Context(), orgID, invoiceID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, invoice)
}

// Cancel cancels an invoice
func (h *InvoiceHandler) Cancel(c *gin.Context) {
	orgID, err := getOrganizationID(c)
	if err != nil {
		h.Unauthorized(c, "Missing organization context")
		return
	}

	invoiceID, err := parseIDParam(c)
	if err != nil {
		h.BadRequest(c, "Invalid invoice ID format")
		return
	}

	invoice, err := h.invoiceService.Cancel(c.Request.Context(), orgID, invoiceID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, invoice)
}

// Delete deletes a pending invoice
func (h *InvoiceHandler) Delete(c *gin.Context) {
	orgID, err := getOrganizationID(c)
	if err != nil {
		h.Unauthorized(c, "Missing organization context")
		return
	}

	invoiceID, err := parseIDParam(c)
	if err != nil {
		h.BadRequest(c, "Invalid invoice ID format")
		return
	}

	if err := h.invoiceService.Delete(c.Request.Context(), orgID, invoiceID); err != nil {
		h.HandleError(c, err)
		return
	}

	h.NoContent(c)
}

// ListPayments returns the payments recorded against an invoice
func (h *InvoiceHandler) ListPayments(c *gin.Context) {
	orgID, err := getOrganizationID(c)
	if err != nil {
		h.Unauthorized(c, "Missing organization context")
		return
	}

	invoiceID, err := parseIDParam(c)
	if err != nil {
		h.BadRequest(c, "Invalid invoice ID format")
		return
	}

	payments, err := h.paymentService.ListForInvoice(c.Request.Context(), orgID, invoiceID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, payments)
}

// RecordPayment records a payment against an invoice
func (h *InvoiceHandler) RecordPayment(c *gin.Context) {
	orgID, err := getOrganizationID(c)
	if err != nil {
		h.Unauthorized(c, "Missing organization context")
		return
	}

	invoiceID, err := parseIDParam(c)
	if err != nil {
		h.BadRequest(c, "Invalid invoice ID format")
		return
	}

	var req billingapp.RecordPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	payment, err := h.paymentService.Record(c.Request.Context(), orgID, invoiceID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, payment)
}

// Send renders the invoice PDF and emails it to the customer
func (h *InvoiceHandler) Send(c *gin.Context) {
	h.sendInvoice(c, false)
}

// SendWithPaymentLink sends the invoice with an online payment link attached
func (h *InvoiceHandler) SendWithPaymentLink(c *gin.Context) {
	h.sendInvoice(c, true)
}

func (h *InvoiceHandler) sendInvoice(c *gin.Context, withPaymentLink bool) {
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

	invoiceID, err := parseIDParam(c)
	if err != nil {
		h.BadRequest(c, "Invalid invoice ID format")
		return
	}

	var req billingapp.SendDocumentRequest
	// Allow empty body
	_ = c.ShouldBindJSON(&req)

	var result *billingapp.SendDocumentResponse
	if withPaymentLink {
		result, err = h.dispatchService.SendInvoiceWithPaymentLink(c.Request.Context(), orgID, userID, invoiceID, req)
	} else {
		result, err = h.dispatchService.SendInvoice(c.Request.Context(), orgID, userID, invoiceID, req)
	}
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, result)
}
