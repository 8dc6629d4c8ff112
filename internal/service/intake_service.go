package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/bfc-aero/charter-leads-api/internal/models"
	"github.com/bfc-aero/charter-leads-api/internal/validate"
	"github.com/bfc-aero/charter-leads-api/pkg/config"
	appErrors "github.com/bfc-aero/charter-leads-api/pkg/errors"
)

type submissionStore interface {
	Create(ctx context.Context, rec *models.NewSubmission, publicIDPrefix string) (*models.Submission, error)
}

type notifier interface {
	Notify(ctx context.Context, sub *models.Submission) (NotifyResult, error)
}

type challengeVerifier interface {
	Verify(tok string, answer int) error
}

type intakeMetrics interface {
	ObserveSubmission(source string, accepted bool)
}

// IntakeResult is the success payload returned to a submitting client.
type IntakeResult struct {
	PublicID     string       `json:"id"`
	Message      string       `json:"message"`
	Notification NotifyResult `json:"notification"`
}

// IntakeService validates, normalises and persists incoming lead
// submissions, then attempts a best-effort staff notification.
type IntakeService struct {
	store     submissionStore
	notify    notifier
	challenge challengeVerifier
	metrics   intakeMetrics
	cfg       config.IntakeConfig
	enforce   bool
	logger    *zap.Logger
	now       func() time.Time
}

// NewIntakeService constructs an IntakeService. challengeEnforce gates the
// optional server-side verification of the signed challenge answer.
func NewIntakeService(store submissionStore, notify notifier, challenge challengeVerifier, metrics intakeMetrics, cfg config.IntakeConfig, challengeEnforce bool, logger *zap.Logger) *IntakeService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.PublicIDPrefix == "" {
		cfg.PublicIDPrefix = "BFC"
	}
	if cfg.MaxPassengers <= 0 {
		cfg.MaxPassengers = 19
	}
	return &IntakeService{
		store:     store,
		notify:    notify,
		challenge: challenge,
		metrics:   metrics,
		cfg:       cfg,
		enforce:   challengeEnforce,
		logger:    logger,
		now:       time.Now,
	}
}

// SubmitBooking runs the intake pipeline for the booking form.
func (s *IntakeService) SubmitBooking(ctx context.Context, req validate.BookingRequest) (*IntakeResult, error) {
	rec, fieldErrs := validate.ParseBooking(req, s.now(), s.cfg.MaxPassengers)
	if fieldErrs != nil {
		s.observe(string(models.SourceBooking), false)
		return nil, appErrors.Validation(fieldErrs)
	}
	if err := s.verifyChallenge(req.ChallengeToken, req.ChallengeAnswer); err != nil {
		s.observe(string(models.SourceBooking), false)
		return nil, err
	}
	return s.persist(ctx, rec, "Booking request saved.")
}

// SubmitContact runs the intake pipeline for the contact form.
func (s *IntakeService) SubmitContact(ctx context.Context, req validate.ContactRequest) (*IntakeResult, error) {
	rec, fieldErrs := validate.ParseContact(req)
	if fieldErrs != nil {
		s.observe(string(models.SourceContact), false)
		return nil, appErrors.Validation(fieldErrs)
	}
	if err := s.verifyChallenge(req.ChallengeToken, req.ChallengeAnswer); err != nil {
		s.observe(string(models.SourceContact), false)
		return nil, err
	}
	return s.persist(ctx, rec, "Contact request saved.")
}

func (s *IntakeService) persist(ctx context.Context, rec *models.NewSubmission, message string) (*IntakeResult, error) {
	sub, err := s.store.Create(ctx, rec, s.cfg.PublicIDPrefix)
	if err != nil {
		s.observe(string(rec.Source), false)
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "Submission failed. Please try again.")
	}
	s.observe(string(rec.Source), true)

	notification, err := s.notify.Notify(ctx, sub)
	if err != nil {
		// committed submission stands regardless of mail transport trouble
		s.logger.Warn("submission notification failed",
			zap.String("public_id", publicIDOf(sub)),
			zap.Error(err))
	}

	return &IntakeResult{
		PublicID:     publicIDOf(sub),
		Message:      message,
		Notification: notification,
	}, nil
}

// verifyChallenge enforces the signed arithmetic challenge only when
// configured to; otherwise the challenge remains presentation-layer friction
// and submissions pass through unchecked, matching the public site's
// historical behaviour.
func (s *IntakeService) verifyChallenge(tok string, rawAnswer interface{}) error {
	if !s.enforce || s.challenge == nil {
		return nil
	}
	answer, ok := validate.CoerceInt(rawAnswer)
	if tok == "" || !ok {
		return appErrors.Validation(map[string]string{"challenge_answer": "Answer the verification question."})
	}
	if err := s.challenge.Verify(tok, answer); err != nil {
		return appErrors.Validation(map[string]string{"challenge_answer": "Verification answer is incorrect."})
	}
	return nil
}

func (s *IntakeService) observe(source string, accepted bool) {
	if s.metrics != nil {
		s.metrics.ObserveSubmission(source, accepted)
	}
}

func publicIDOf(sub *models.Submission) string {
	if sub == nil || sub.PublicID == nil {
		return ""
	}
	return *sub.PublicID
}
