package services

import (
	"context"
	"fmt"
	"time"

	"github.com/rkco/fuel-ledger/internal/models"
	"github.com/rkco/fuel-ledger/internal/repository"
	"github.com/rkco/fuel-ledger/pkg/logger"
	"github.com/shopspring/decimal"
)

// Discrepancy issues
const (
	IssuePaidExceedsTotal = "paid_exceeds_total"
	IssueNegativePaid     = "negative_paid"
	IssueStatusMismatch   = "status_mismatch"
)

// Discrepancy is a stored order that breaks the paid/status invariants
type Discrepancy struct {
	OrderID        uint            `json:"order_id"`
	Kind           string          `json:"kind"`
	PartyName      string          `json:"party_name"`
	TotalAmount    decimal.Decimal `json:"total_amount"`
	StoredPaid     decimal.Decimal `json:"stored_paid"`
	StoredStatus   string          `json:"stored_status"`
	ExpectedStatus string          `json:"expected_status"`
	Issue          string          `json:"issue"`
}

// ReconciliationReport is the result of one scan
type ReconciliationReport struct {
	ScannedAt     time.Time     `json:"scanned_at"`
	OrdersScanned int           `json:"orders_scanned"`
	Findings      []Discrepancy `json:"findings"`
}

// ReconciliationService finds stored orders that the read-path clamp is
// hiding. It never rewrites them.
type ReconciliationService struct {
	orderRepo     repository.OrderRepository
	notifications *NotificationService
	email         *EmailService
}

func NewReconciliationService(orderRepo repository.OrderRepository, notifications *NotificationService, email *EmailService) *ReconciliationService {
	return &ReconciliationService{orderRepo: orderRepo, notifications: notifications, email: email}
}

// Scan checks every order against the clamp and status invariants
func (s *ReconciliationService) Scan(ctx context.Context) (*ReconciliationReport, error) {
	orders, err := s.orderRepo.FindAll(ctx, "")
	if err != nil {
		return nil, fmt.Errorf("failed to load orders: %w", err)
	}

	report := &ReconciliationReport{
		ScannedAt:     time.Now(),
		OrdersScanned: len(orders),
		Findings:      []Discrepancy{},
	}
	for i := range orders {
		if d, ok := inspectOrder(&orders[i]); ok {
			report.Findings = append(report.Findings, d)
		}
	}
	return report, nil
}

func inspectOrder(o *models.Order) (Discrepancy, bool) {
	expected := models.DeriveStatus(o.ClampedPaid(), o.TotalAmount)

	var issue string
	switch {
	case o.PaidAmount.GreaterThan(o.TotalAmount):
		issue = IssuePaidExceedsTotal
	case o.PaidAmount.IsNegative():
		issue = IssueNegativePaid
	case o.PaymentStatus != expected:
		issue = IssueStatusMismatch
	default:
		return Discrepancy{}, false
	}

	return Discrepancy{
		OrderID:        o.ID,
		Kind:           o.Kind,
		PartyName:      o.PartyName,
		TotalAmount:    o.TotalAmount,
		StoredPaid:     o.PaidAmount,
		StoredStatus:   o.PaymentStatus,
		ExpectedStatus: expected,
		Issue:          issue,
	}, true
}

// ScanAndAlert is the scheduled job: it scans and alerts admins when
// anything is found.
func (s *ReconciliationService) ScanAndAlert(ctx context.Context) error {
	report, err := s.Scan(ctx)
	if err != nil {
		return err
	}

	logger.Info("Reconciliation scan finished",
		"orders", report.OrdersScanned,
		"findings", len(report.Findings),
	)
	if len(report.Findings) == 0 {
		return nil
	}

	if s.notifications != nil {
		message := fmt.Sprintf("%d of %d orders have a paid amount or status that disagrees with their total",
			len(report.Findings), report.OrdersScanned)
		if err := s.notifications.NotifyAdmins(ctx, "Ledger reconciliation findings", message, models.NotificationTypeReconciliation); err != nil {
			logger.Error("Failed to notify admins of reconciliation findings", "error", err)
		}
	}
	if s.email != nil {
		return s.email.SendReconciliationReport(ctx, report)
	}
	return nil
}
