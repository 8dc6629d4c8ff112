package service

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/bfc-aero/charter-leads-api/internal/models"
	"github.com/bfc-aero/charter-leads-api/internal/validate"
	"github.com/bfc-aero/charter-leads-api/pkg/config"
	appErrors "github.com/bfc-aero/charter-leads-api/pkg/errors"
)

type mockSubmissionStore struct {
	created   *models.NewSubmission
	createErr error
	nextID    int64
}

func (m *mockSubmissionStore) Create(ctx context.Context, rec *models.NewSubmission, prefix string) (*models.Submission, error) {
	if m.createErr != nil {
		return nil, m.createErr
	}
	m.created = rec
	if m.nextID == 0 {
		m.nextID = 1
	}
	id := m.nextID
	pid := publicIDFor(prefix, id)
	now := time.Now().UTC()
	return &models.Submission{
		ID:        id,
		PublicID:  &pid,
		Source:    rec.Source,
		Status:    models.StatusNew,
		Name:      rec.Name,
		Email:     rec.Email,
		Phone:     rec.Phone,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

func publicIDFor(prefix string, id int64) string {
	return fmt.Sprintf("%s-%d-%06d", prefix, time.Now().UTC().Year(), id)
}

type mockNotifier struct {
	result  NotifyResult
	err     error
	calls   int
	lastSub *models.Submission
}

func (m *mockNotifier) Notify(ctx context.Context, sub *models.Submission) (NotifyResult, error) {
	m.calls++
	m.lastSub = sub
	return m.result, m.err
}

type mockChallengeVerifier struct {
	err   error
	calls int
}

func (m *mockChallengeVerifier) Verify(tok string, answer int) error {
	m.calls++
	return m.err
}

type mockMetricsObserver struct {
	observed []string
}

func (m *mockMetricsObserver) ObserveSubmission(source string, accepted bool) {
	outcome := "rejected"
	if accepted {
		outcome = "accepted"
	}
	m.observed = append(m.observed, source+":"+outcome)
}

func validBookingRequest() validate.BookingRequest {
	return validate.BookingRequest{
		From:          "Wellington",
		To:            "Queenstown",
		DepartureDate: "2030-01-15",
		DepartureTime: "09:30",
		Passengers:    4,
		ContactEmail:  "pilot@example.com",
		ContactPhone:  "+64 21 555 0100",
		Notes:         "Golf clubs on board.",
		SourcePage:    "/booking",
	}
}

func validContactRequest() validate.ContactRequest {
	return validate.ContactRequest{
		ContactName:  "Dana Field",
		ContactEmail: "dana@example.com",
		ContactPhone: "021 555 0101",
		Notes:        "Quote for a team trip please.",
	}
}

func newIntakeService(store submissionStore, notify notifier, challenge challengeVerifier, metrics intakeMetrics, enforce bool) *IntakeService {
	return NewIntakeService(store, notify, challenge, metrics, config.IntakeConfig{PublicIDPrefix: "BFC", MaxPassengers: 19}, enforce, zap.NewNop())
}

func TestSubmitBookingAssignsPublicID(t *testing.T) {
	store := &mockSubmissionStore{nextID: 42}
	notify := &mockNotifier{result: NotifyResult{Sent: true}}
	metrics := &mockMetricsObserver{}
	svc := newIntakeService(store, notify, nil, metrics, false)

	res, err := svc.SubmitBooking(context.Background(), validBookingRequest())
	require.NoError(t, err)
	assert.Regexp(t, `^BFC-\d{4}-\d{6}$`, res.PublicID)
	assert.Equal(t, "Booking request saved.", res.Message)
	assert.True(t, res.Notification.Sent)
	assert.Equal(t, []string{"booking:accepted"}, metrics.observed)

	require.NotNil(t, store.created)
	assert.Equal(t, models.SourceBooking, store.created.Source)
	assert.Equal(t, "pilot@example.com", store.created.Email)
	assert.Equal(t, 1, notify.calls)
}

func TestSubmitBookingValidationFailure(t *testing.T) {
	store := &mockSubmissionStore{}
	metrics := &mockMetricsObserver{}
	svc := newIntakeService(store, &mockNotifier{}, nil, metrics, false)

	req := validBookingRequest()
	req.ContactEmail = "not-an-email"
	req.Passengers = 0

	_, err := svc.SubmitBooking(context.Background(), req)
	require.Error(t, err)
	appErr, ok := err.(*appErrors.Error)
	require.True(t, ok)
	assert.Equal(t, appErrors.ErrValidation.Code, appErr.Code)
	assert.Contains(t, appErr.Fields, "contact_email")
	assert.Contains(t, appErr.Fields, "passengers")
	assert.Nil(t, store.created)
	assert.Equal(t, []string{"booking:rejected"}, metrics.observed)
}

func TestSubmitContactSuccess(t *testing.T) {
	store := &mockSubmissionStore{}
	notify := &mockNotifier{result: NotifyResult{Sent: false, Reason: "mail_not_configured"}}
	svc := newIntakeService(store, notify, nil, nil, false)

	res, err := svc.SubmitContact(context.Background(), validContactRequest())
	require.NoError(t, err)
	assert.Equal(t, "Contact request saved.", res.Message)
	assert.False(t, res.Notification.Sent)
	assert.Equal(t, "mail_not_configured", res.Notification.Reason)
	assert.Equal(t, models.SourceContact, store.created.Source)
}

func TestSubmitNotifyFailureDoesNotFailSubmission(t *testing.T) {
	store := &mockSubmissionStore{}
	notify := &mockNotifier{result: NotifyResult{Sent: false, Reason: "send_failed"}, err: errors.New("smtp down")}
	svc := newIntakeService(store, notify, nil, nil, false)

	res, err := svc.SubmitContact(context.Background(), validContactRequest())
	require.NoError(t, err)
	assert.NotEmpty(t, res.PublicID)
	assert.Equal(t, "send_failed", res.Notification.Reason)
}

func TestSubmitStoreFailure(t *testing.T) {
	store := &mockSubmissionStore{createErr: errors.New("insert failed")}
	notify := &mockNotifier{}
	metrics := &mockMetricsObserver{}
	svc := newIntakeService(store, notify, nil, metrics, false)

	_, err := svc.SubmitContact(context.Background(), validContactRequest())
	require.Error(t, err)
	appErr, ok := err.(*appErrors.Error)
	require.True(t, ok)
	assert.Equal(t, appErrors.ErrInternal.Code, appErr.Code)
	assert.Equal(t, "Submission failed. Please try again.", appErr.Message)
	assert.Equal(t, 0, notify.calls)
	assert.Equal(t, []string{"contact:rejected"}, metrics.observed)
}

func TestChallengeSkippedWhenNotEnforced(t *testing.T) {
	challenge := &mockChallengeVerifier{err: errors.New("would fail")}
	svc := newIntakeService(&mockSubmissionStore{}, &mockNotifier{}, challenge, nil, false)

	_, err := svc.SubmitContact(context.Background(), validContactRequest())
	require.NoError(t, err)
	assert.Equal(t, 0, challenge.calls)
}

func TestChallengeEnforced(t *testing.T) {
	challenge := &mockChallengeVerifier{}
	svc := newIntakeService(&mockSubmissionStore{}, &mockNotifier{}, challenge, nil, true)

	req := validContactRequest()
	req.ChallengeToken = "tok"
	req.ChallengeAnswer = 7

	_, err := svc.SubmitContact(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, 1, challenge.calls)
}

func TestChallengeEnforcedRejectsWrongAnswer(t *testing.T) {
	challenge := &mockChallengeVerifier{err: errors.New("mismatch")}
	store := &mockSubmissionStore{}
	svc := newIntakeService(store, &mockNotifier{}, challenge, nil, true)

	req := validContactRequest()
	req.ChallengeToken = "tok"
	req.ChallengeAnswer = 3

	_, err := svc.SubmitContact(context.Background(), req)
	require.Error(t, err)
	appErr, ok := err.(*appErrors.Error)
	require.True(t, ok)
	assert.Equal(t, appErrors.ErrValidation.Code, appErr.Code)
	assert.Contains(t, appErr.Fields, "challenge_answer")
	assert.Nil(t, store.created)
}

func TestChallengeEnforcedRequiresToken(t *testing.T) {
	challenge := &mockChallengeVerifier{}
	svc := newIntakeService(&mockSubmissionStore{}, &mockNotifier{}, challenge, nil, true)

	req := validContactRequest()

	_, err := svc.SubmitContact(context.Background(), req)
	require.Error(t, err)
	appErr, ok := err.(*appErrors.Error)
	require.True(t, ok)
	assert.Contains(t, appErr.Fields, "challenge_answer")
	assert.Equal(t, 0, challenge.calls)
}
