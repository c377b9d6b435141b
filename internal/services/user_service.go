package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rkco/fuel-ledger/internal/jobs"
	"github.com/rkco/fuel-ledger/internal/models"
	"github.com/rkco/fuel-ledger/internal/repository"
	"github.com/rkco/fuel-ledger/pkg/logger"

	"gorm.io/gorm"
)

const minPasswordLength = 8

// UserService handles user-related business logic
type UserService struct {
	repo         repository.UserRepository
	worker       *jobs.Worker
	emailService *EmailService
	auditSvc     *AuditService
}

func NewUserService(repo repository.UserRepository, worker *jobs.Worker, emailService *EmailService, auditSvc *AuditService) *UserService {
	return &UserService{
		repo:         repo,
		worker:       worker,
		emailService: emailService,
		auditSvc:     auditSvc,
	}
}

func (s *UserService) FindByID(ctx context.Context, id uint) (*models.User, error) {
	user, err := s.repo.FindByID(ctx, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	return user, err
}

func (s *UserService) List(ctx context.Context, query *repository.ListQuery) ([]models.User, int64, error) {
	return s.repo.List(ctx, query)
}

// Create registers a staff member. actorID is nil when bootstrapping.
func (s *UserService) Create(ctx context.Context, user *models.User, password string, actorID *uint) error {
	user.Email = strings.ToLower(strings.TrimSpace(user.Email))
	user.Name = strings.TrimSpace(user.Name)

	if user.Email == "" || user.Name == "" {
		return validationError("name and email are required")
	}
	if user.Role == "" {
		user.Role = models.RoleViewer
	}
	if !models.IsValidRole(user.Role) {
		return validationError("unknown role %q", user.Role)
	}
	if len(password) < minPasswordLength {
		return validationError("password must be at least %d characters", minPasswordLength)
	}

	hashedPassword, err := HashPassword(password)
	if err != nil {
		return err
	}
	user.EncryptedPassword = hashedPassword
	user.Active = true

	if err := s.repo.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicateEmail) {
			return fmt.Errorf("%w: %v", ErrDuplicate, err)
		}
		return err
	}

	if s.worker != nil && s.emailService != nil {
		created := *user
		s.worker.EnqueueAsync(func(ctx context.Context) error {
			return s.emailService.SendAccountCreated(ctx, &created)
		})
	}

	return s.auditSvc.Log(ctx, actorID, models.AuditActionCreate, "User", user.ID,
		fmt.Sprintf("User created: %s (%s) role %s", user.Name, user.Email, user.Role), "", "")
}

// ToggleActive flips a user's active flag. Admins cannot deactivate themselves.
func (s *UserService) ToggleActive(ctx context.Context, id uint, actorID uint) (*models.User, error) {
	if id == actorID {
		return nil, validationError("you cannot deactivate your own account")
	}

	user, err := s.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	user.Active = !user.Active
	if err := s.repo.Update(ctx, user); err != nil {
		return nil, err
	}

	if err := s.auditSvc.Log(ctx, &actorID, models.AuditActionToggle, "User", id, fmt.Sprintf("Active set to %t", user.Active), "", ""); err != nil {
		logger.Error("Failed to audit user toggle", "user_id", id, "error", err)
	}
	return user, nil
}

// EnsureAdmin creates the bootstrap admin when no user with that email exists
func (s *UserService) EnsureAdmin(ctx context.Context, name, email, password string) (*models.User, bool, error) {
	existing, err := s.repo.FindByEmail(ctx, email)
	if err == nil {
		return existing, false, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, false, err
	}

	if name == "" {
		name = "Administrator"
	}
	admin := &models.User{Name: name, Email: email, Role: models.RoleAdmin}
	if err := s.Create(ctx, admin, password, nil); err != nil {
		return nil, false, err
	}
	logger.Info("Bootstrap admin created", "email", admin.Email)
	return admin, true, nil
}
