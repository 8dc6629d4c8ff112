package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/resend/resend-go/v2"
	"go.uber.org/zap"

	"github.com/bfc-aero/charter-leads-api/internal/models"
	"github.com/bfc-aero/charter-leads-api/pkg/config"
)

type emailSender interface {
	SendWithContext(ctx context.Context, params *resend.SendEmailRequest) (*resend.SendEmailResponse, error)
}

// NotifyResult reports the outcome of one best-effort dispatch attempt.
type NotifyResult struct {
	Sent   bool   `json:"sent"`
	Reason string `json:"reason,omitempty"`
}

// NotifyService sends operations staff a plain-text summary of each new
// submission through the Resend API. Running without mail configured is a
// valid steady state, not an error.
type NotifyService struct {
	sender emailSender
	cfg    config.MailConfig
	logger *zap.Logger
}

// NewNotifyService constructs a NotifyService. The sender stays nil when no
// API key is configured.
func NewNotifyService(cfg config.MailConfig, logger *zap.Logger) *NotifyService {
	if logger == nil {
		logger = zap.NewNop()
	}
	svc := &NotifyService{cfg: cfg, logger: logger}
	if cfg.APIKey != "" {
		client := resend.NewClient(cfg.APIKey)
		svc.sender = client.Emails
	}
	return svc
}

// Notify attempts one delivery. Missing configuration yields sent:false with
// no error; a transport failure is returned so the caller can log it, but the
// submission it describes is already committed either way.
func (s *NotifyService) Notify(ctx context.Context, sub *models.Submission) (NotifyResult, error) {
	if s.sender == nil || s.cfg.From == "" || s.cfg.To == "" {
		return NotifyResult{Sent: false, Reason: "mail_not_configured"}, nil
	}

	publicID := ""
	if sub.PublicID != nil {
		publicID = *sub.PublicID
	}

	subject := fmt.Sprintf("[BFC] New %s submission %s", sub.Source, publicID)
	_, err := s.sender.SendWithContext(ctx, &resend.SendEmailRequest{
		From:    s.cfg.From,
		To:      []string{s.cfg.To},
		Subject: subject,
		Text:    summaryText(sub, publicID),
	})
	if err != nil {
		return NotifyResult{Sent: false, Reason: "send_failed"}, fmt.Errorf("send notification: %w", err)
	}

	return NotifyResult{Sent: true}, nil
}

func summaryText(sub *models.Submission, publicID string) string {
	lines := []string{
		"Public ID: " + orDash(publicID),
		"Source: " + string(sub.Source),
		"Status: " + string(sub.Status),
		"Name: " + orDash(sub.Name),
		"Email: " + orDash(sub.Email),
		"Phone: " + orDash(sub.Phone),
		"From: " + orDashPtr(sub.RouteFrom),
		"To: " + orDashPtr(sub.RouteTo),
		"Departure: " + orDashPtr(sub.DepartureDate),
		"Return: " + orDashPtr(sub.ReturnDate),
		"Passengers: " + passengerText(sub.Passengers),
		"Notes: " + orDashPtr(sub.Notes),
		"Created: " + sub.CreatedAt.UTC().Format(time.RFC3339),
	}
	return strings.Join(lines, "\n")
}

func orDash(value string) string {
	if value == "" {
		return "-"
	}
	return value
}

func orDashPtr(value *string) string {
	if value == nil {
		return "-"
	}
	return orDash(*value)
}

func passengerText(count *int) string {
	if count == nil {
		return "-"
	}
	return fmt.Sprintf("%d", *count)
}
