package services

import (
	"bytes"
	"context"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"time"

	"github.com/resend/resend-go/v2"
	"github.com/rkco/fuel-ledger/internal/config"
	"github.com/rkco/fuel-ledger/internal/models"
	"github.com/rkco/fuel-ledger/pkg/logger"
)

//go:embed templates/email/*.html
var emailTemplates embed.FS

const appURL = "https://ledger.rkco.app"

type EmailService struct {
	config       *config.Config
	resendClient *resend.Client
}

func NewEmailService(cfg *config.Config) *EmailService {
	client := resend.NewClient(cfg.ResendAPIKey)
	return &EmailService{
		config:       cfg,
		resendClient: client,
	}
}

// checkEmailPreconditions returns false without error when email is switched
// off, and an error when it is on but cannot be sent.
func (s *EmailService) checkEmailPreconditions(to, operation string) (bool, error) {
	if s.config.ResendAPIKey == "" {
		logger.Debug("Email disabled, skipping", "operation", operation)
		return false, nil
	}
	if s.config.FromEmail == "" {
		return false, errors.New("FROM_EMAIL is not set")
	}
	if to == "" {
		return false, errors.New("email address is empty")
	}
	return true, nil
}

// SendOverAllocationAlert tells the alert inbox that a payment had money left over
func (s *EmailService) SendOverAllocationAlert(ctx context.Context, receipt *models.PaymentReceipt) error {
	ok, err := s.checkEmailPreconditions(s.config.AlertEmail, "over-allocation alert")
	if !ok {
		return err
	}

	data := struct {
		PartyType  string
		PartyName  string
		Reference  string
		Amount     string
		Allocated  string
		Remaining  string
		OrderCount int
		Date       string
	}{
		PartyType:  receipt.PartyType,
		PartyName:  receipt.PartyName,
		Reference:  receipt.Reference,
		Amount:     receipt.Amount.StringFixed(2),
		Allocated:  receipt.Allocated.StringFixed(2),
		Remaining:  receipt.Remaining.StringFixed(2),
		OrderCount: len(receipt.Allocations),
		Date:       receipt.Date.Format("02/01/2006 15:04"),
	}

	body, err := s.renderTemplate("over_allocation.html", data)
	if err != nil {
		return err
	}

	return s.send(s.config.AlertEmail, fmt.Sprintf("Unapplied payment for %s", receipt.PartyName), body)
}

// SendReconciliationReport mails the findings of a reconciliation scan
func (s *EmailService) SendReconciliationReport(ctx context.Context, report *ReconciliationReport) error {
	ok, err := s.checkEmailPreconditions(s.config.AlertEmail, "reconciliation report")
	if !ok {
		return err
	}

	data := struct {
		Findings  []Discrepancy
		ScannedAt string
	}{
		Findings:  report.Findings,
		ScannedAt: report.ScannedAt.Format(time.RFC1123),
	}

	body, err := s.renderTemplate("reconciliation.html", data)
	if err != nil {
		return err
	}

	return s.send(s.config.AlertEmail, fmt.Sprintf("Ledger reconciliation: %d findings", len(report.Findings)), body)
}

func (s *EmailService) SendAccountCreated(ctx context.Context, user *models.User) error {
	ok, err := s.checkEmailPreconditions(user.Email, "account created")
	if !ok {
		return err
	}

	data := struct {
		Name   string
		Role   string
		AppURL string
	}{
		Name:   user.Name,
		Role:   user.Role,
		AppURL: appURL,
	}

	body, err := s.renderTemplate("account_created.html", data)
	if err != nil {
		return err
	}

	return s.send(user.Email, "Your fuel ledger account", body)
}

func (s *EmailService) send(to, subject, body string) error {
	params := &resend.SendEmailRequest{
		From:    s.config.FromEmail,
		To:      []string{to},
		Subject: subject,
		Html:    body,
	}
	if _, err := s.resendClient.Emails.Send(params); err != nil {
		logger.Error("Failed to send email", "to", to, "subject", subject, "error", err)
		return err
	}

	logger.Info("Email sent", "to", to, "subject", subject)
	return nil
}

func (s *EmailService) renderTemplate(name string, data interface{}) (string, error) {
	tmpl, err := template.ParseFS(emailTemplates, "templates/email/"+name)
	if err != nil {
		return "", fmt.Errorf("failed to parse template %s: %w", name, err)
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to execute template %s: %w", name, err)
	}

	return buf.String(), nil
}
