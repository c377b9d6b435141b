package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/rkco/fuel-ledger/internal/middleware"
	"github.com/rkco/fuel-ledger/internal/models"
	"github.com/rkco/fuel-ledger/internal/services"
	"github.com/shopspring/decimal"
)

// PartyHandler serves one party directory (customers or suppliers)
type PartyHandler struct {
	partyService *services.PartyService
	partyType    string
}

func NewPartyHandler(partyService *services.PartyService, partyType string) *PartyHandler {
	return &PartyHandler{partyService: partyService, partyType: partyType}
}

func (h *PartyHandler) key() string {
	return h.partyType + "s"
}

// @Summary List Parties
// @Description All customers or suppliers, by name
// @Tags Parties
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Security BearerAuth
// @Router /customers [get]
// @Router /suppliers [get]
func (h *PartyHandler) Index(c *gin.Context) {
	parties, err := h.partyService.List(c.Request.Context(), h.partyType)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{h.key(): parties})
}

// @Summary Search Parties
// @Description Up to ten customers or suppliers whose name contains q
// @Tags Parties
// @Produce json
// @Param q query string true "Name contains"
// @Success 200 {object} map[string]interface{}
// @Security BearerAuth
// @Router /customers/search [get]
// @Router /suppliers/search [get]
func (h *PartyHandler) Search(c *gin.Context) {
	parties, err := h.partyService.Search(c.Request.Context(), h.partyType, c.Query("q"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{h.key(): parties})
}

type CreatePartyRequest struct {
	Name    string `json:"name" binding:"required"`
	Phone   string `json:"phone"`
	Email   string `json:"email"`
	Address string `json:"address"`
}

// @Summary Create Party
// @Description Returns the customer or supplier with this name, registering it first when new.
// @Tags Parties
// @Accept json
// @Produce json
// @Param request body CreatePartyRequest true "Party"
// @Success 201 {object} models.Party
// @Failure 400 {object} map[string]string
// @Security BearerAuth
// @Router /customers [post]
// @Router /suppliers [post]
func (h *PartyHandler) Create(c *gin.Context) {
	var req CreatePartyRequest
	if err := BindNestedOrFlat(c, h.partyType, &req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	if err := binding.Validator.ValidateStruct(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "name is required"})
		return
	}

	party := &models.Party{
		Name:    req.Name,
		Phone:   optionalString(req.Phone),
		Email:   optionalString(req.Email),
		Address: optionalString(req.Address),
	}

	created, err := h.partyService.Create(c.Request.Context(), h.partyType, party)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{h.partyType: created})
}

func optionalString(s string) *string {
	if s = strings.TrimSpace(s); s == "" {
		return nil
	}
	return &s
}

// ProductHandler serves the fuel catalog
type ProductHandler struct {
	productService *services.ProductService
}

func NewProductHandler(productService *services.ProductService) *ProductHandler {
	return &ProductHandler{productService: productService}
}

// @Summary List Products
// @Tags Products
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Security BearerAuth
// @Router /products [get]
func (h *ProductHandler) Index(c *gin.Context) {
	products, err := h.productService.List(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	if products == nil {
		products = []models.Product{}
	}
	c.JSON(http.StatusOK, gin.H{"products": products})
}

type CreateProductRequest struct {
	Name        string           `json:"name" binding:"required"`
	Description string           `json:"description"`
	BaseRate    *decimal.Decimal `json:"base_rate"`
	Unit        string           `json:"unit"`
}

// @Summary Create Product
// @Description Registers petrol, hi-octane, diesel or mobile oil. Each name once.
// @Tags Products
// @Accept json
// @Produce json
// @Param request body CreateProductRequest true "Product"
// @Success 201 {object} models.Product
// @Failure 400 {object} map[string]string
// @Failure 409 {object} map[string]string
// @Security BearerAuth
// @Router /products [post]
func (h *ProductHandler) Create(c *gin.Context) {
	var req CreateProductRequest
	if err := BindNestedOrFlat(c, "product", &req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	if err := binding.Validator.ValidateStruct(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "name is required"})
		return
	}

	product := &models.Product{
		Name:        req.Name,
		Description: optionalString(req.Description),
		BaseRate:    req.BaseRate,
		Unit:        req.Unit,
	}
	if err := h.productService.Create(c.Request.Context(), product, middleware.GetActorID(c)); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"product": product})
}

type NotificationHandler struct {
	notificationService *services.NotificationService
}

func NewNotificationHandler(notificationService *services.NotificationService) *NotificationHandler {
	return &NotificationHandler{notificationService: notificationService}
}

// @Summary List Notifications
// @Description Paginated notifications for the current user with the unread count
// @Tags Notifications
// @Produce json
// @Param page query int false "Page number" default(1)
// @Param per_page query int false "Items per page" default(20)
// @Param status query string false "read or unread"
// @Param type query string false "Notification type"
// @Success 200 {object} map[string]interface{}
// @Security BearerAuth
// @Router /notifications [get]
func (h *NotificationHandler) Index(c *gin.Context) {
	userID := middleware.GetUserID(c)
	query := listQuery(c)
	query.Filters["status"] = c.Query("status")
	query.Filters["type"] = c.Query("type")

	notifications, total, err := h.notificationService.FindByUser(c.Request.Context(), userID, query)
	if err != nil {
		respondError(c, err)
		return
	}
	unread, err := h.notificationService.CountUnread(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}

	responses := make([]models.NotificationResponse, 0, len(notifications))
	for i := range notifications {
		responses = append(responses, notifications[i].ToResponse())
	}

	c.JSON(http.StatusOK, gin.H{
		"notifications": responses,
		"unread":        unread,
		"pagination":    pagination(query, total),
	})
}

// @Summary Mark Notification Read
// @Tags Notifications
// @Produce json
// @Param id path int true "Notification ID"
// @Success 200 {object} map[string]string
// @Security BearerAuth
// @Router /notifications/{id}/read [patch]
func (h *NotificationHandler) MarkAsRead(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	if err := h.notificationService.MarkAsRead(c.Request.Context(), middleware.GetUserID(c), id); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Notification marked as read"})
}

// @Summary Mark All Notifications Read
// @Tags Notifications
// @Produce json
// @Success 200 {object} map[string]string
// @Security BearerAuth
// @Router /notifications/read_all [post]
func (h *NotificationHandler) MarkAllAsRead(c *gin.Context) {
	if err := h.notificationService.MarkAllAsRead(c.Request.Context(), middleware.GetUserID(c)); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "All notifications marked as read"})
}

type ReportHandler struct {
	reportService *services.ReportService
}

func NewReportHandler(reportService *services.ReportService) *ReportHandler {
	return &ReportHandler{reportService: reportService}
}

// @Summary Customer Statement PDF
// @Tags Reports
// @Produce application/pdf
// @Param name path string true "Customer name"
// @Success 200 {file} file "statement.pdf"
// @Security BearerAuth
// @Router /reports/customers/{name}/pdf [get]
func (h *ReportHandler) CustomerPDF(c *gin.Context) {
	h.statementPDF(c, models.PartyTypeCustomer)
}

// @Summary Supplier Statement PDF
// @Tags Reports
// @Produce application/pdf
// @Param name path string true "Supplier name"
// @Success 200 {file} file "statement.pdf"
// @Security BearerAuth
// @Router /reports/suppliers/{name}/pdf [get]
func (h *ReportHandler) SupplierPDF(c *gin.Context) {
	h.statementPDF(c, models.PartyTypeSupplier)
}

func (h *ReportHandler) statementPDF(c *gin.Context, partyType string) {
	data, filename, err := h.reportService.PartyStatementPDF(c.Request.Context(), partyType, c.Param("name"))
	if err != nil {
		respondError(c, err)
		return
	}
	attachmentHeader(c, filename)
	c.Data(http.StatusOK, "application/pdf", data)
}

// @Summary Customer Statement XLSX
// @Tags Reports
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Param name path string true "Customer name"
// @Success 200 {file} file "statement.xlsx"
// @Security BearerAuth
// @Router /reports/customers/{name}/xlsx [get]
func (h *ReportHandler) CustomerXLSX(c *gin.Context) {
	h.statementXLSX(c, models.PartyTypeCustomer)
}

// @Summary Supplier Statement XLSX
// @Tags Reports
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Param name path string true "Supplier name"
// @Success 200 {file} file "statement.xlsx"
// @Security BearerAuth
// @Router /reports/suppliers/{name}/xlsx [get]
func (h *ReportHandler) SupplierXLSX(c *gin.Context) {
	h.statementXLSX(c, models.PartyTypeSupplier)
}

func (h *ReportHandler) statementXLSX(c *gin.Context, partyType string) {
	data, filename, err := h.reportService.PartyStatementXLSX(c.Request.Context(), partyType, c.Param("name"))
	if err != nil {
		respondError(c, err)
		return
	}
	attachmentHeader(c, filename)
	c.Data(http.StatusOK, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", data)
}

// @Summary Balance Sheet PDF
// @Description Station-wide balance sheet rendered with wkhtmltopdf
// @Tags Reports
// @Produce application/pdf
// @Success 200 {file} file "balance_sheet.pdf"
// @Security BearerAuth
// @Router /reports/balance_sheet_pdf [get]
func (h *ReportHandler) BalanceSheetPDF(c *gin.Context) {
	data, filename, err := h.reportService.BalanceSheetPDF(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	attachmentHeader(c, filename)
	c.Data(http.StatusOK, "application/pdf", data)
}

type AuditHandler struct {
	auditService *services.AuditService
}

func NewAuditHandler(auditService *services.AuditService) *AuditHandler {
	return &AuditHandler{auditService: auditService}
}

// @Summary List Audit Logs
// @Description Paginated audit trail, newest first
// @Tags Audit
// @Produce json
// @Param page query int false "Page number" default(1)
// @Param per_page query int false "Items per page" default(20)
// @Param entity query string false "Order, PaymentReceipt or User"
// @Param action query string false "CREATE, ALLOCATE, UPDATE_PAYMENT, TOGGLE"
// @Success 200 {object} map[string]interface{}
// @Security BearerAuth
// @Router /audits [get]
func (h *AuditHandler) Index(c *gin.Context) {
	query := listQuery(c)
	query.Filters["entity"] = c.Query("entity")
	query.Filters["action"] = c.Query("action")

	logs, total, err := h.auditService.List(c.Request.Context(), query)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"audits": logs, "pagination": pagination(query, total)})
}
