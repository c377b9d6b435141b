package handlers

import (
	"github.com/rkco/fuel-ledger/internal/models"
	"github.com/rkco/fuel-ledger/internal/services"
)

// Handlers holds all handler instances
type Handlers struct {
	Health       *HealthHandler
	Auth         *AuthHandler
	User         *UserHandler
	Ledger       *LedgerHandler
	Payment      *PaymentHandler
	Customer     *PartyHandler
	Supplier     *PartyHandler
	Product      *ProductHandler
	Notification *NotificationHandler
	Report       *ReportHandler
	Audit        *AuditHandler
	Job          *JobHandler
}

// NewHandlers creates all handler instances
func NewHandlers(svcs *services.Services) *Handlers {
	return &Handlers{
		Health:       NewHealthHandler(),
		Auth:         NewAuthHandler(svcs.Auth, svcs.User),
		User:         NewUserHandler(svcs.User),
		Ledger:       NewLedgerHandler(svcs.Balance, svcs.Order),
		Payment:      NewPaymentHandler(svcs.Allocation),
		Customer:     NewPartyHandler(svcs.Party, models.PartyTypeCustomer),
		Supplier:     NewPartyHandler(svcs.Party, models.PartyTypeSupplier),
		Product:      NewProductHandler(svcs.Product),
		Notification: NewNotificationHandler(svcs.Notification),
		Report:       NewReportHandler(svcs.Report),
		Audit:        NewAuditHandler(svcs.Audit),
		Job:          NewJobHandler(svcs.Job, svcs.Reconciliation),
	}
}
