package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rkco/fuel-ledger/internal/middleware"
	"github.com/rkco/fuel-ledger/internal/models"
	"github.com/rkco/fuel-ledger/internal/services"
	"github.com/shopspring/decimal"
)

// LedgerHandler serves purchases, sales and the balance reads
type LedgerHandler struct {
	balanceService *services.BalanceService
	orderService   *services.OrderService
}

func NewLedgerHandler(balanceService *services.BalanceService, orderService *services.OrderService) *LedgerHandler {
	return &LedgerHandler{balanceService: balanceService, orderService: orderService}
}

// @Summary Global Balance
// @Description Station-wide receivable and payable totals. Paid amounts are clamped to order totals.
// @Tags Ledger
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Security BearerAuth
// @Router /ledger/balance [get]
func (h *LedgerHandler) Balance(c *gin.Context) {
	balance, err := h.balanceService.GlobalBalance(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"totals": gin.H{
			"purchases":     balance.Purchases.TotalAmount,
			"sales":         balance.Sales.TotalAmount,
			"netReceivable": balance.NetReceivable,
			"netPayable":    balance.NetPayable,
		},
		"counts": gin.H{
			"purchases": balance.Purchases.OrderCount,
			"sales":     balance.Sales.OrderCount,
		},
		"summary": balance,
	})
}

// @Summary Customer Balances
// @Description Per-customer rollups with their sales, sorted by name
// @Tags Ledger
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Security BearerAuth
// @Router /ledger/customers [get]
func (h *LedgerHandler) Customers(c *gin.Context) {
	h.partyReports(c, models.PartyTypeCustomer, "customers")
}

// @Summary Supplier Balances
// @Description Per-supplier rollups with their purchases, sorted by name
// @Tags Ledger
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Security BearerAuth
// @Router /ledger/suppliers [get]
func (h *LedgerHandler) Suppliers(c *gin.Context) {
	h.partyReports(c, models.PartyTypeSupplier, "suppliers")
}

func (h *LedgerHandler) partyReports(c *gin.Context, partyType, key string) {
	reports, err := h.balanceService.PartyReports(c.Request.Context(), partyType)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{key: reports})
}

// @Summary Customer Balance
// @Description One customer's rollup and sales, newest first. Unknown names return an empty report.
// @Tags Ledger
// @Produce json
// @Param name path string true "Customer name"
// @Success 200 {object} services.PartyReport
// @Security BearerAuth
// @Router /ledger/customers/{name} [get]
func (h *LedgerHandler) Customer(c *gin.Context) {
	h.partyReport(c, models.PartyTypeCustomer)
}

// @Summary Supplier Balance
// @Description One supplier's rollup and purchases, newest first. Unknown names return an empty report.
// @Tags Ledger
// @Produce json
// @Param name path string true "Supplier name"
// @Success 200 {object} services.PartyReport
// @Security BearerAuth
// @Router /ledger/suppliers/{name} [get]
func (h *LedgerHandler) Supplier(c *gin.Context) {
	h.partyReport(c, models.PartyTypeSupplier)
}

func (h *LedgerHandler) partyReport(c *gin.Context, partyType string) {
	report, err := h.balanceService.PartyReport(c.Request.Context(), partyType, c.Param("name"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, report)
}

// @Summary List Purchases
// @Description Paginated purchases, newest first
// @Tags Ledger
// @Produce json
// @Param page query int false "Page number" default(1)
// @Param per_page query int false "Items per page" default(20)
// @Param search_term query string false "Supplier name contains"
// @Param payment_status query string false "unpaid, partial or paid"
// @Param product query string false "Product"
// @Param start_date query string false "YYYY-MM-DD"
// @Param end_date query string false "YYYY-MM-DD"
// @Success 200 {object} map[string]interface{}
// @Security BearerAuth
// @Router /ledger/purchases [get]
func (h *LedgerHandler) Purchases(c *gin.Context) {
	h.listOrders(c, models.OrderKindPurchase, "purchases")
}

// @Summary List Sales
// @Description Paginated sales, newest first
// @Tags Ledger
// @Produce json
// @Param page query int false "Page number" default(1)
// @Param per_page query int false "Items per page" default(20)
// @Param search_term query string false "Customer name contains"
// @Param payment_status query string false "unpaid, partial or paid"
// @Success 200 {object} map[string]interface{}
// @Security BearerAuth
// @Router /ledger/sales [get]
func (h *LedgerHandler) Sales(c *gin.Context) {
	h.listOrders(c, models.OrderKindSale, "sales")
}

func (h *LedgerHandler) listOrders(c *gin.Context, kind, key string) {
	query := listQuery(c)
	for _, f := range []string{"payment_status", "product", "start_date", "end_date"} {
		query.Filters[f] = c.Query(f)
	}

	orders, total, err := h.orderService.List(c.Request.Context(), kind, query)
	if err != nil {
		respondError(c, err)
		return
	}

	responses := make([]models.OrderResponse, 0, len(orders))
	for i := range orders {
		responses = append(responses, orders[i].ToResponse())
	}

	c.JSON(http.StatusOK, gin.H{
		key:          responses,
		"pagination": pagination(query, total),
	})
}

// orderForm is the multipart submission for purchases and sales. Numbers
// arrive as form strings.
type orderForm struct {
	PartyName    string `form:"party_name"`
	SupplierName string `form:"supplier_name"`
	CustomerName string `form:"customer_name"`
	Product      string `form:"product"`
	Liters       string `form:"liters"`
	RatePerLitre string `form:"rate_per_litre"`
	TotalAmount  string `form:"total_amount"`
	PaidAmount   string `form:"paid_amount"`
	Notes        string `form:"notes"`
	Date         string `form:"date"`
}

// @Summary Create Purchase
// @Description Records a purchase from a supplier. Total is liters x rate unless product is "other". Optional deposit slip (PDF, JPG, PNG).
// @Tags Ledger
// @Accept multipart/form-data
// @Produce json
// @Param supplier_name formData string true "Supplier name"
// @Param product formData string true "petrol, hi-octane, diesel, mobile oil or other"
// @Param liters formData number false "Liters"
// @Param rate_per_litre formData number false "Rate per litre"
// @Param total_amount formData number false "Total (product other only)"
// @Param paid_amount formData number false "Amount paid upfront"
// @Param attachment formData file false "Deposit slip"
// @Success 201 {object} models.OrderResponse
// @Failure 400 {object} map[string]string
// @Security BearerAuth
// @Router /ledger/purchases [post]
func (h *LedgerHandler) CreatePurchase(c *gin.Context) {
	h.createOrder(c, models.OrderKindPurchase, "purchase")
}

// @Summary Create Sale
// @Description Records a sale to a customer. Total is liters x rate unless product is "other". Optional sale image.
// @Tags Ledger
// @Accept multipart/form-data
// @Produce json
// @Param customer_name formData string true "Customer name"
// @Param product formData string true "petrol, hi-octane, diesel, mobile oil or other"
// @Param liters formData number false "Liters"
// @Param rate_per_litre formData number false "Rate per litre"
// @Param total_amount formData number false "Total (product other only)"
// @Param paid_amount formData number false "Amount paid upfront"
// @Param attachment formData file false "Sale image"
// @Success 201 {object} models.OrderResponse
// @Failure 400 {object} map[string]string
// @Security BearerAuth
// @Router /ledger/sales [post]
func (h *LedgerHandler) CreateSale(c *gin.Context) {
	h.createOrder(c, models.OrderKindSale, "sale")
}

func (h *LedgerHandler) createOrder(c *gin.Context, kind, key string) {
	var form orderForm
	if err := c.ShouldBind(&form); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	in, err := form.toInput(kind)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	in.ActorID = middleware.GetActorID(c)
	in.IP = c.ClientIP()
	in.UserAgent = c.Request.UserAgent()

	var attachment *services.Attachment
	if header, err := c.FormFile("attachment"); err == nil {
		file, err := header.Open()
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "could not read attachment"})
			return
		}
		defer file.Close()
		attachment = &services.Attachment{File: file, Header: header}
	} else if !errors.Is(err, http.ErrMissingFile) && !errors.Is(err, http.ErrNotMultipart) {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	order, err := h.orderService.Create(c.Request.Context(), in, attachment)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{key: order.ToResponse()})
}

func (f *orderForm) toInput(kind string) (services.CreateOrderInput, error) {
	in := services.CreateOrderInput{Kind: kind, Product: strings.TrimSpace(f.Product)}

	in.PartyName = f.PartyName
	if kind == models.OrderKindPurchase && f.SupplierName != "" {
		in.PartyName = f.SupplierName
	}
	if kind == models.OrderKindSale && f.CustomerName != "" {
		in.PartyName = f.CustomerName
	}

	var err error
	if in.Liters, err = optionalDecimal("liters", f.Liters); err != nil {
		return in, err
	}
	if in.RatePerLitre, err = optionalDecimal("rate_per_litre", f.RatePerLitre); err != nil {
		return in, err
	}
	if in.TotalAmount, err = optionalDecimal("total_amount", f.TotalAmount); err != nil {
		return in, err
	}
	if in.PaidAmount, err = optionalDecimal("paid_amount", f.PaidAmount); err != nil {
		return in, err
	}

	if notes := strings.TrimSpace(f.Notes); notes != "" {
		in.Notes = &notes
	}
	if f.Date != "" {
		date, err := parseDate(f.Date)
		if err != nil {
			return in, err
		}
		in.Date = &date
	}
	return in, nil
}

func optionalDecimal(field, value string) (*decimal.Decimal, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil, nil
	}
	d, err := decimal.NewFromString(value)
	if err != nil {
		return nil, fmt.Errorf("%s must be a number", field)
	}
	return &d, nil
}

func parseDate(value string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return t, nil
	}
	t, err := time.Parse("2006-01-02", value)
	if err != nil {
		return time.Time{}, fmt.Errorf("date must be YYYY-MM-DD")
	}
	return t, nil
}

// UpdatePaymentRequest is the manual paid amount edit
type UpdatePaymentRequest struct {
	PaidAmount *decimal.Decimal `json:"paid_amount" binding:"required"`
}

// @Summary Update Purchase Payment
// @Description Sets the paid amount of a purchase. Amounts above the total are clamped; status follows the amount.
// @Tags Ledger
// @Accept json
// @Produce json
// @Param id path int true "Purchase ID"
// @Param request body UpdatePaymentRequest true "Paid amount"
// @Success 200 {object} models.OrderResponse
// @Security BearerAuth
// @Router /ledger/purchases/{id}/payment [patch]
func (h *LedgerHandler) UpdatePurchasePayment(c *gin.Context) {
	h.updatePayment(c, models.OrderKindPurchase, "purchase")
}

// @Summary Update Sale Payment
// @Description Sets the paid amount of a sale. Amounts above the total are clamped; status follows the amount.
// @Tags Ledger
// @Accept json
// @Produce json
// @Param id path int true "Sale ID"
// @Param request body UpdatePaymentRequest true "Paid amount"
// @Success 200 {object} models.OrderResponse
// @Security BearerAuth
// @Router /ledger/sales/{id}/payment [patch]
func (h *LedgerHandler) UpdateSalePayment(c *gin.Context) {
	h.updatePayment(c, models.OrderKindSale, "sale")
}

func (h *LedgerHandler) updatePayment(c *gin.Context, kind, key string) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}

	var req UpdatePaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "paid_amount is required"})
		return
	}

	order, err := h.orderService.UpdatePayment(c.Request.Context(), kind, id, *req.PaidAmount,
		middleware.GetActorID(c), c.ClientIP(), c.Request.UserAgent())
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{key: order.ToResponse()})
}

// @Summary Download Deposit Slip
// @Tags Ledger
// @Produce octet-stream
// @Param id path int true "Purchase ID"
// @Success 200 {file} file
// @Security BearerAuth
// @Router /ledger/purchases/{id}/attachment [get]
func (h *LedgerHandler) PurchaseAttachment(c *gin.Context) {
	h.attachment(c, models.OrderKindPurchase)
}

// @Summary Download Sale Image
// @Tags Ledger
// @Produce octet-stream
// @Param id path int true "Sale ID"
// @Success 200 {file} file
// @Security BearerAuth
// @Router /ledger/sales/{id}/attachment [get]
func (h *LedgerHandler) SaleAttachment(c *gin.Context) {
	h.attachment(c, models.OrderKindSale)
}

func (h *LedgerHandler) attachment(c *gin.Context, kind string) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	path, err := h.orderService.AttachmentPath(c.Request.Context(), kind, id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.File(path)
}
