package services

import (
	"context"
	"errors"
	"fmt"
	"mime/multipart"
	"strings"
	"time"

	"github.com/rkco/fuel-ledger/internal/jobs"
	"github.com/rkco/fuel-ledger/internal/models"
	"github.com/rkco/fuel-ledger/internal/repository"
	"github.com/rkco/fuel-ledger/internal/statemachine"
	"github.com/rkco/fuel-ledger/internal/storage"
	"github.com/rkco/fuel-ledger/pkg/logger"
	"github.com/shopspring/decimal"

	"gorm.io/gorm"
)

// CreateOrderInput carries a purchase or sale submission
type CreateOrderInput struct {
	Kind         string
	PartyName    string
	Product      string
	Liters       *decimal.Decimal
	RatePerLitre *decimal.Decimal
	TotalAmount  *decimal.Decimal
	PaidAmount   *decimal.Decimal
	Notes        *string
	Date         *time.Time
	ActorID      *uint
	IP           string
	UserAgent    string
}

// Attachment is an optional deposit slip or sale image
type Attachment struct {
	File   multipart.File
	Header *multipart.FileHeader
}

// OrderService manages purchases and sales
type OrderService struct {
	orderRepo    repository.OrderRepository
	customerRepo repository.PartyRepository
	supplierRepo repository.PartyRepository
	storage      *storage.LocalStorage
	images       *ImageService
	audit        *AuditService
	worker       *jobs.Worker
}

func NewOrderService(
	orderRepo repository.OrderRepository,
	customerRepo repository.PartyRepository,
	supplierRepo repository.PartyRepository,
	storage *storage.LocalStorage,
	images *ImageService,
	audit *AuditService,
	worker *jobs.Worker,
) *OrderService {
	return &OrderService{
		orderRepo:    orderRepo,
		customerRepo: customerRepo,
		supplierRepo: supplierRepo,
		storage:      storage,
		images:       images,
		audit:        audit,
		worker:       worker,
	}
}

// Create validates and stores a purchase or sale. The payment status is
// always derived from the paid amount.
func (s *OrderService) Create(ctx context.Context, in CreateOrderInput, attachment *Attachment) (*models.Order, error) {
	order, err := buildOrder(in)
	if err != nil {
		return nil, err
	}

	partyRepo := s.partyRepo(order.Kind)
	if _, err := partyRepo.FindOrCreate(ctx, &models.Party{Name: order.PartyName}); err != nil {
		return nil, fmt.Errorf("failed to save party: %w", err)
	}

	if attachment != nil && attachment.Header != nil {
		path, err := s.saveAttachment(order.Kind, attachment)
		if err != nil {
			return nil, err
		}
		order.AttachmentPath = &path
	}

	if err := s.orderRepo.Create(ctx, order); err != nil {
		if order.AttachmentPath != nil && s.storage != nil {
			_ = s.storage.Delete(*order.AttachmentPath)
		}
		return nil, err
	}

	s.recordAudit(in.ActorID, models.AuditActionCreate, order,
		fmt.Sprintf("%s for %s: %s %s, paid %s", order.Kind, order.PartyName, order.Product,
			order.TotalAmount.StringFixed(2), order.PaidAmount.StringFixed(2)),
		in.IP, in.UserAgent)

	return order, nil
}

// buildOrder applies the submission rules: total is liters times rate unless
// the product is "other", and paid may not exceed total.
func buildOrder(in CreateOrderInput) (*models.Order, error) {
	if !models.IsValidOrderKind(in.Kind) {
		return nil, validationError("invalid order kind %q", in.Kind)
	}
	partyName := strings.TrimSpace(in.PartyName)
	if partyName == "" {
		return nil, validationError("%s name is required", models.PartyTypeForKind(in.Kind))
	}
	if !models.IsValidProduct(in.Product) {
		return nil, validationError("invalid product %q", in.Product)
	}

	order := &models.Order{
		Kind:      in.Kind,
		PartyName: partyName,
		Product:   in.Product,
		Notes:     in.Notes,
		Date:      time.Now(),
	}
	if in.Date != nil && !in.Date.IsZero() {
		order.Date = *in.Date
	}

	if in.Product == models.ProductOther {
		if in.TotalAmount == nil || !in.TotalAmount.IsPositive() {
			return nil, validationError("total amount must be a positive number")
		}
		order.TotalAmount = *in.TotalAmount
	} else {
		if in.Liters == nil || !in.Liters.IsPositive() {
			return nil, validationError("liters must be a positive number")
		}
		if in.RatePerLitre == nil || !in.RatePerLitre.IsPositive() {
			return nil, validationError("rate per litre must be a positive number")
		}
		order.Liters = in.Liters
		order.RatePerLitre = in.RatePerLitre
		order.TotalAmount = in.Liters.Mul(*in.RatePerLitre)
	}

	paid := decimal.Zero
	if in.PaidAmount != nil {
		paid = *in.PaidAmount
	}
	if paid.IsNegative() {
		return nil, validationError("paid amount cannot be negative")
	}
	if paid.GreaterThan(order.TotalAmount) {
		return nil, validationError("paid amount (%s) cannot exceed total amount (%s)",
			paid.StringFixed(2), order.TotalAmount.StringFixed(2))
	}
	order.PaidAmount = paid
	order.PaymentStatus = models.DeriveStatus(paid, order.TotalAmount)

	return order, nil
}

// UpdatePayment is the manual "update payment" edit. The amount is clamped to
// the order total before it is written and the status follows from it.
func (s *OrderService) UpdatePayment(ctx context.Context, kind string, id uint, paid decimal.Decimal, actorID *uint, ip, userAgent string) (*models.Order, error) {
	if paid.IsNegative() {
		return nil, validationError("paid amount cannot be negative")
	}

	order, err := s.FindByID(ctx, kind, id)
	if err != nil {
		return nil, err
	}

	previous := order.ClampedPaid()
	newPaid := decimal.Min(paid, order.TotalAmount)
	if paid.GreaterThan(order.TotalAmount) {
		logger.Warn("Manual payment above order total clamped",
			"order_id", id, "requested", paid.String(), "total", order.TotalAmount.String())
	}

	status := models.DeriveStatus(newPaid, order.TotalAmount)
	if err := statemachine.NewOrderFSM(order).TransitionTo(ctx, status); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidState, err)
	}
	if err := s.orderRepo.UpdatePayment(ctx, order.ID, newPaid, status); err != nil {
		return nil, err
	}
	order.PaidAmount = newPaid

	s.recordAudit(actorID, models.AuditActionUpdatePayment, order,
		fmt.Sprintf("paid %s -> %s (%s)", previous.StringFixed(2), newPaid.StringFixed(2), status), ip, userAgent)

	return order, nil
}

func (s *OrderService) FindByID(ctx context.Context, kind string, id uint) (*models.Order, error) {
	order, err := s.orderRepo.FindByID(ctx, kind, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	return order, err
}

func (s *OrderService) List(ctx context.Context, kind string, query *repository.ListQuery) ([]models.Order, int64, error) {
	return s.orderRepo.List(ctx, kind, query)
}

// AttachmentPath returns the on-disk path of an order's attachment
func (s *OrderService) AttachmentPath(ctx context.Context, kind string, id uint) (string, error) {
	order, err := s.FindByID(ctx, kind, id)
	if err != nil {
		return "", err
	}
	if order.AttachmentPath == nil || *order.AttachmentPath == "" || s.storage == nil {
		return "", ErrNotFound
	}
	return s.storage.SafeFullPath(*order.AttachmentPath)
}

func (s *OrderService) partyRepo(kind string) repository.PartyRepository {
	if kind == models.OrderKindPurchase {
		return s.supplierRepo
	}
	return s.customerRepo
}

func (s *OrderService) saveAttachment(kind string, attachment *Attachment) (string, error) {
	if s.storage == nil {
		return "", validationError("file uploads are not configured")
	}
	if attachment.Header.Size > storage.MaxFileSize() {
		return "", validationError("file exceeds %d MB", storage.MaxFileSize()/(1024*1024))
	}
	if !storage.IsValidContentType(attachment.Header.Header.Get("Content-Type")) {
		return "", validationError("only PDF, JPG and PNG files are accepted")
	}

	data, filename, err := s.images.Prepare(attachment.File, attachment.Header)
	if err != nil {
		return "", validationError("%v", err)
	}

	subDir := "sales"
	if kind == models.OrderKindPurchase {
		subDir = "deposit_slips"
	}
	return s.storage.UploadFromBytes(data, filename, subDir)
}

func (s *OrderService) recordAudit(actorID *uint, action string, order *models.Order, details, ip, userAgent string) {
	if s.audit == nil || s.worker == nil {
		return
	}
	orderID := order.ID
	s.worker.EnqueueAsync(func(ctx context.Context) error {
		return s.audit.Log(ctx, actorID, action, "Order", orderID, details, ip, userAgent)
	})
}
