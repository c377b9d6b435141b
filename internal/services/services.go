package services

import (
	"github.com/rkco/fuel-ledger/internal/config"
	"github.com/rkco/fuel-ledger/internal/jobs"
	"github.com/rkco/fuel-ledger/internal/repository"
	"github.com/rkco/fuel-ledger/internal/storage"
)

// Services holds all service instances
type Services struct {
	Auth           *AuthService
	User           *UserService
	Allocation     *AllocationService
	Balance        *BalanceService
	Order          *OrderService
	Party          *PartyService
	Product        *ProductService
	Reconciliation *ReconciliationService
	Report         *ReportService
	Notification   *NotificationService
	Audit          *AuditService
	Email          *EmailService
	Job            *JobService
}

// NewServices creates all service instances
func NewServices(repos *repository.Repositories, worker *jobs.Worker, store *storage.LocalStorage, cfg *config.Config) *Services {
	notificationSvc := NewNotificationService(repos.Notification, repos.User)
	emailSvc := NewEmailService(cfg)
	auditSvc := NewAuditService(repos.Audit)
	balanceSvc := NewBalanceService(repos.Order)

	var locker *PartyLocker
	if cfg.SerializePartyPayments {
		locker = NewDatabasePartyLocker(repos.PartyLock)
	}

	return &Services{
		Auth:           NewAuthService(repos.User, repos.RefreshToken, cfg),
		User:           NewUserService(repos.User, worker, emailSvc, auditSvc),
		Allocation:     NewAllocationService(repos.Order, repos.Receipt, locker, notificationSvc, emailSvc, auditSvc, worker),
		Balance:        balanceSvc,
		Order:          NewOrderService(repos.Order, repos.Customer, repos.Supplier, store, NewImageService(), auditSvc, worker),
		Party:          NewPartyService(repos.Customer, repos.Supplier),
		Product:        NewProductService(repos.Product, auditSvc),
		Reconciliation: NewReconciliationService(repos.Order, notificationSvc, emailSvc),
		Report:         NewReportService(balanceSvc),
		Notification:   notificationSvc,
		Audit:          auditSvc,
		Email:          emailSvc,
		Job:            NewJobService(worker),
	}
}
