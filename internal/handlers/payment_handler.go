package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rkco/fuel-ledger/internal/middleware"
	"github.com/rkco/fuel-ledger/internal/models"
	"github.com/rkco/fuel-ledger/internal/services"
	"github.com/shopspring/decimal"
)

// PaymentHandler records lump-sum payments and serves receipts
type PaymentHandler struct {
	allocationService *services.AllocationService
}

func NewPaymentHandler(allocationService *services.AllocationService) *PaymentHandler {
	return &PaymentHandler{allocationService: allocationService}
}

// PaymentRequest is a lump-sum payment for one party
type PaymentRequest struct {
	Amount decimal.Decimal `json:"amount"`
	Notes  string          `json:"notes"`
}

// @Summary Record Customer Payment
// @Description Applies a payment to the customer's unpaid and partial sales, oldest first. A remainder that finds no sale is reported with warning=true.
// @Tags Payments
// @Accept json
// @Produce json
// @Param name path string true "Customer name"
// @Param request body PaymentRequest true "Payment"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Security BearerAuth
// @Router /payments/customers/{name} [post]
func (h *PaymentHandler) PayCustomer(c *gin.Context) {
	h.allocate(c, models.PartyTypeCustomer)
}

// @Summary Record Supplier Payment
// @Description Applies a payment to the supplier's unpaid and partial purchases, oldest first. A remainder that finds no purchase is reported with warning=true.
// @Tags Payments
// @Accept json
// @Produce json
// @Param name path string true "Supplier name"
// @Param request body PaymentRequest true "Payment"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Security BearerAuth
// @Router /payments/suppliers/{name} [post]
func (h *PaymentHandler) PaySupplier(c *gin.Context) {
	h.allocate(c, models.PartyTypeSupplier)
}

func (h *PaymentHandler) allocate(c *gin.Context, partyType string) {
	var req PaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "amount must be a number"})
		return
	}

	allocation := services.AllocationRequest{
		PartyType: partyType,
		PartyName: c.Param("name"),
		Amount:    req.Amount,
		ActorID:   middleware.GetActorID(c),
		IP:        c.ClientIP(),
		UserAgent: c.Request.UserAgent(),
	}
	if notes := strings.TrimSpace(req.Notes); notes != "" {
		allocation.Notes = &notes
	}

	result, err := h.allocationService.Allocate(c.Request.Context(), allocation)
	if err != nil {
		var perr *services.PersistenceError
		if errors.As(err, &perr) {
			captureException(c, err)
			c.JSON(http.StatusInternalServerError, gin.H{
				"error":                err.Error(),
				"failedOrderId":        perr.OrderID,
				"completedAllocations": allocationResponses(perr.Completed),
			})
			return
		}
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, allocationPayload(result))
}

func allocationResponses(allocations []models.ReceiptAllocation) []models.AllocationResponse {
	out := make([]models.AllocationResponse, 0, len(allocations))
	for i := range allocations {
		out = append(out, allocations[i].ToResponse())
	}
	return out
}

func allocationPayload(result *services.AllocationResult) gin.H {
	count := len(result.Allocations)
	payload := gin.H{
		"message":           fmt.Sprintf("Payment applied to %d order(s)", count),
		"allocatedOrders":   count,
		"allocatedTotal":    result.AllocatedTotal.Round(2),
		"remaining":         result.Remaining.Round(2),
		"allocationResults": allocationResponses(result.Allocations),
		"receipt":           result.Receipt.ToResponse(),
	}
	if result.IsWarning() {
		payload["warning"] = true
		payload["message"] = fmt.Sprintf("Payment applied to %d order(s); %s exceeded the outstanding balance and was not applied",
			count, result.Remaining.StringFixed(2))
	}
	return payload
}

// @Summary List Receipts
// @Description Paginated payment receipts, newest first
// @Tags Payments
// @Produce json
// @Param party_type query string false "customer or supplier"
// @Param party_name query string false "Exact party name"
// @Param warning query bool false "Only receipts with an unapplied remainder"
// @Success 200 {object} map[string]interface{}
// @Security BearerAuth
// @Router /payments [get]
func (h *PaymentHandler) Index(c *gin.Context) {
	query := listQuery(c)
	query.Filters["party_type"] = c.Query("party_type")
	query.Filters["party_name"] = c.Query("party_name")
	query.Filters["warning"] = c.Query("warning")

	receipts, total, err := h.allocationService.ListReceipts(c.Request.Context(), query)
	if err != nil {
		respondError(c, err)
		return
	}

	responses := make([]models.ReceiptResponse, 0, len(receipts))
	for i := range receipts {
		responses = append(responses, receipts[i].ToResponse())
	}

	c.JSON(http.StatusOK, gin.H{
		"payments":   responses,
		"pagination": pagination(query, total),
	})
}

// @Summary Get Receipt
// @Description A receipt with its allocations in payment order
// @Tags Payments
// @Produce json
// @Param id path int true "Receipt ID"
// @Success 200 {object} models.ReceiptResponse
// @Failure 404 {object} map[string]string
// @Security BearerAuth
// @Router /payments/{id} [get]
func (h *PaymentHandler) Show(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	receipt, err := h.allocationService.FindReceipt(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"payment": receipt.ToResponse()})
}
