package services

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rkco/fuel-ledger/internal/jobs"
	"github.com/rkco/fuel-ledger/internal/models"
	"github.com/rkco/fuel-ledger/internal/repository"
	"github.com/rkco/fuel-ledger/internal/statemachine"
	"github.com/rkco/fuel-ledger/pkg/logger"
	"github.com/shopspring/decimal"

	"gorm.io/gorm"
)

// AllocationRequest is a lump-sum payment from a customer or to a supplier
type AllocationRequest struct {
	PartyType string
	PartyName string
	Amount    decimal.Decimal
	Notes     *string
	ActorID   *uint
	IP        string
	UserAgent string
}

// AllocationResult describes how a payment was spread across orders
type AllocationResult struct {
	Allocations    []models.ReceiptAllocation
	AllocatedTotal decimal.Decimal
	Remaining      decimal.Decimal
	Receipt        *models.PaymentReceipt
}

// IsWarning reports whether part of the payment found no order to settle
func (r *AllocationResult) IsWarning() bool {
	return r.Remaining.IsPositive()
}

// AllocationService applies lump-sum payments to a party's outstanding
// orders, oldest first.
type AllocationService struct {
	orderRepo     repository.OrderRepository
	receiptRepo   repository.ReceiptRepository
	locker        *PartyLocker
	notifications *NotificationService
	email         *EmailService
	audit         *AuditService
	worker        *jobs.Worker
	now           func() time.Time
}

// NewAllocationService creates the allocator. A nil locker leaves
// concurrent payments for the same party unserialized.
func NewAllocationService(
	orderRepo repository.OrderRepository,
	receiptRepo repository.ReceiptRepository,
	locker *PartyLocker,
	notifications *NotificationService,
	email *EmailService,
	audit *AuditService,
	worker *jobs.Worker,
) *AllocationService {
	return &AllocationService{
		orderRepo:     orderRepo,
		receiptRepo:   receiptRepo,
		locker:        locker,
		notifications: notifications,
		email:         email,
		audit:         audit,
		worker:        worker,
		now:           time.Now,
	}
}

// Allocate distributes req.Amount over the party's unpaid and partial orders.
// Each order update is an independent write; a failure part way through
// returns a *PersistenceError listing what was already committed.
func (s *AllocationService) Allocate(ctx context.Context, req AllocationRequest) (*AllocationResult, error) {
	if !models.IsValidPartyType(req.PartyType) {
		return nil, ErrInvalidPartyType
	}
	if !req.Amount.IsPositive() {
		return nil, ErrInvalidAmount
	}
	partyName := strings.TrimSpace(req.PartyName)
	if partyName == "" {
		return nil, validationError("party name is required")
	}

	if s.locker == nil {
		return s.allocate(ctx, req, partyName)
	}

	var result *AllocationResult
	err := s.locker.Run(ctx, req.PartyType, partyName, func(ctx context.Context) error {
		var err error
		result, err = s.allocate(ctx, req, partyName)
		return err
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (s *AllocationService) allocate(ctx context.Context, req AllocationRequest, partyName string) (*AllocationResult, error) {
	orders, err := s.orderRepo.FindOutstanding(ctx, models.OrderKindForParty(req.PartyType), partyName)
	if err != nil {
		return nil, fmt.Errorf("failed to load outstanding orders: %w", err)
	}
	if len(orders) == 0 {
		return nil, ErrNoOutstandingOrders
	}

	// Stable so equal dates keep store order
	slices.SortStableFunc(orders, func(a, b models.Order) int {
		return a.Date.Compare(b.Date)
	})

	remaining := req.Amount
	allocations := make([]models.ReceiptAllocation, 0, len(orders))

	for i := range orders {
		if !remaining.IsPositive() {
			break
		}
		order := &orders[i]

		currentPaid := order.ClampedPaid()
		balance := order.TotalAmount.Sub(currentPaid)
		if !balance.IsPositive() {
			// Stale status on an order that is already settled
			continue
		}

		toApply := decimal.Min(remaining, balance)
		newPaid := currentPaid.Add(toApply)
		newStatus := models.PaymentStatusPartial
		if newPaid.GreaterThanOrEqual(order.TotalAmount) {
			newStatus = models.PaymentStatusPaid
		}

		if err := statemachine.NewOrderFSM(order).TransitionTo(ctx, newStatus); err != nil {
			return nil, &PersistenceError{OrderID: order.ID, Completed: allocations, Err: fmt.Errorf("%w: %v", ErrInvalidState, err)}
		}
		if err := s.orderRepo.UpdatePayment(ctx, order.ID, newPaid, newStatus); err != nil {
			s.reportPersistenceFailure(req, partyName, order.ID, allocations, err)
			return nil, &PersistenceError{OrderID: order.ID, Completed: allocations, Err: err}
		}

		allocations = append(allocations, models.ReceiptAllocation{
			Position:     len(allocations),
			OrderID:      order.ID,
			Allocated:    toApply,
			PreviousPaid: currentPaid,
			NewPaid:      newPaid,
			Status:       newStatus,
		})
		remaining = remaining.Sub(toApply)
	}

	allocated := req.Amount.Sub(remaining)

	receipt := &models.PaymentReceipt{
		Reference:    uuid.New().String(),
		PartyType:    req.PartyType,
		PartyName:    partyName,
		Amount:       req.Amount,
		Allocated:    allocated,
		Remaining:    remaining,
		Notes:        req.Notes,
		RecordedByID: req.ActorID,
		Date:         s.now(),
		Allocations:  allocations,
	}
	if err := s.receiptRepo.Create(ctx, receipt); err != nil {
		s.reportPersistenceFailure(req, partyName, 0, allocations, err)
		return nil, &PersistenceError{Completed: allocations, Err: err}
	}

	logger.Info("Payment allocated",
		"party_type", req.PartyType,
		"party", partyName,
		"amount", req.Amount.String(),
		"allocated", allocated.String(),
		"remaining", remaining.String(),
		"orders", len(allocations),
		"receipt", receipt.Reference,
	)

	s.recordAudit(req, receipt)

	result := &AllocationResult{
		Allocations:    allocations,
		AllocatedTotal: allocated,
		Remaining:      remaining,
		Receipt:        receipt,
	}

	if result.IsWarning() {
		logger.Warn("Payment exceeds outstanding balance",
			"party_type", req.PartyType,
			"party", partyName,
			"remaining", remaining.String(),
			"receipt", receipt.Reference,
		)
		s.alertOverAllocation(receipt)
	}

	return result, nil
}

func (s *AllocationService) recordAudit(req AllocationRequest, receipt *models.PaymentReceipt) {
	if s.audit == nil || s.worker == nil {
		return
	}
	details := fmt.Sprintf("%s %s paid %s, allocated %s over %d orders, remaining %s",
		receipt.PartyType, receipt.PartyName,
		receipt.Amount.StringFixed(2), receipt.Allocated.StringFixed(2),
		len(receipt.Allocations), receipt.Remaining.StringFixed(2))

	s.worker.EnqueueAsync(func(ctx context.Context) error {
		return s.audit.Log(ctx, req.ActorID, models.AuditActionAllocate, "PaymentReceipt", receipt.ID, details, req.IP, req.UserAgent)
	})
}

func (s *AllocationService) alertOverAllocation(receipt *models.PaymentReceipt) {
	if s.worker == nil {
		return
	}
	title := "Payment exceeds outstanding balance"
	message := fmt.Sprintf("Payment %s for %s %s left %s unallocated",
		receipt.Reference, receipt.PartyType, receipt.PartyName, receipt.Remaining.StringFixed(2))

	s.worker.EnqueueAsync(func(ctx context.Context) error {
		if s.notifications != nil {
			if err := s.notifications.NotifyAdmins(ctx, title, message, models.NotificationTypeOverAllocation); err != nil {
				return err
			}
		}
		if s.email != nil {
			return s.email.SendOverAllocationAlert(ctx, receipt)
		}
		return nil
	})
}

// reportPersistenceFailure tells admins which orders were written before
// the failure so the party can be reconciled by hand.
func (s *AllocationService) reportPersistenceFailure(req AllocationRequest, partyName string, orderID uint, completed []models.ReceiptAllocation, cause error) {
	ids := make([]string, 0, len(completed))
	for _, a := range completed {
		ids = append(ids, fmt.Sprint(a.OrderID))
	}
	logger.Error("Payment allocation interrupted",
		"party_type", req.PartyType,
		"party", partyName,
		"amount", req.Amount.String(),
		"failed_order", orderID,
		"completed_orders", strings.Join(ids, ","),
		"error", cause,
	)

	if s.notifications == nil || s.worker == nil {
		return
	}
	message := fmt.Sprintf("Payment of %s for %s %s stopped at order %d. Orders already updated: [%s]. Reconcile manually.",
		req.Amount.StringFixed(2), req.PartyType, partyName, orderID, strings.Join(ids, ", "))
	s.worker.EnqueueAsync(func(ctx context.Context) error {
		return s.notifications.NotifyAdmins(ctx, "Payment allocation interrupted", message, models.NotificationTypeSystemError)
	})
}

// FindReceipt returns a receipt with its allocations in payment order
func (s *AllocationService) FindReceipt(ctx context.Context, id uint) (*models.PaymentReceipt, error) {
	receipt, err := s.receiptRepo.FindByID(ctx, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	return receipt, err
}

// ListReceipts returns receipts, newest first
func (s *AllocationService) ListReceipts(ctx context.Context, query *repository.ListQuery) ([]models.PaymentReceipt, int64, error) {
	return s.receiptRepo.List(ctx, query)
}
