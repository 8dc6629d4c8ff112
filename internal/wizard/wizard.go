// Package wizard drives the three-step booking flow as an embeddable state
// machine. It mirrors the field rules of the intake pipeline so a front end
// gets immediate feedback, but the pipeline remains the authority: whatever
// this package accepts is validated again on submission.
package wizard

import (
	"context"
	"time"

	"github.com/bfc-aero/charter-leads-api/internal/models"
	"github.com/bfc-aero/charter-leads-api/internal/service"
	"github.com/bfc-aero/charter-leads-api/internal/validate"
	appErrors "github.com/bfc-aero/charter-leads-api/pkg/errors"
)

// Step identifies the wizard position.
type Step int

const (
	StepRoute Step = iota + 1
	StepDetails
	StepConfirm
)

// StepOneForm is the quick-capture field set.
type StepOneForm struct {
	From          string
	To            string
	DepartureDate string
}

// StepTwoForm is the full booking field set including the challenge answer.
type StepTwoForm struct {
	From            string
	To              string
	DepartureDate   string
	DepartureTime   string
	ReturnDate      string
	ReturnTime      string
	Passengers      string
	ContactEmail    string
	ContactPhone    string
	Notes           string
	ChallengeAnswer string
}

// SeedParams carries referral query parameters used to pre-fill the wizard.
type SeedParams struct {
	From          string
	To            string
	DepartureDate string
	Promo         bool
}

type submitter interface {
	SubmitBooking(ctx context.Context, req validate.BookingRequest) (*service.IntakeResult, error)
}

type challengeSource interface {
	Generate() (*models.Challenge, error)
}

// Wizard is one in-progress booking flow. It is not safe for concurrent use;
// each client session owns its own instance.
type Wizard struct {
	intake     submitter
	challenges challengeSource
	sourcePage string
	maxPax     int
	now        func() time.Time

	step      Step
	one       StepOneForm
	two       StepTwoForm
	challenge *models.Challenge
	errors    validate.FieldErrors
	result    *service.IntakeResult
}

// New constructs a wizard positioned on the route step with a fresh
// challenge.
func New(intake submitter, challenges challengeSource, sourcePage string, maxPassengers int) (*Wizard, error) {
	if maxPassengers <= 0 {
		maxPassengers = 19
	}
	w := &Wizard{
		intake:     intake,
		challenges: challenges,
		sourcePage: sourcePage,
		maxPax:     maxPassengers,
		now:        time.Now,
		step:       StepRoute,
	}
	if err := w.refreshChallenge(); err != nil {
		return nil, err
	}
	return w, nil
}

// Current reports the wizard position.
func (w *Wizard) Current() Step { return w.step }

// Errors returns the field errors from the last failed transition.
func (w *Wizard) Errors() validate.FieldErrors { return w.errors }

// Challenge returns the current proof-of-human prompt.
func (w *Wizard) Challenge() *models.Challenge { return w.challenge }

// Result returns the intake outcome once the confirmation step is reached.
func (w *Wizard) Result() *service.IntakeResult { return w.result }

// RouteForm returns the current step-one values.
func (w *Wizard) RouteForm() StepOneForm { return w.one }

// DetailsForm returns the current step-two values.
func (w *Wizard) DetailsForm() StepTwoForm { return w.two }

// SetRoute replaces the step-one values.
func (w *Wizard) SetRoute(form StepOneForm) { w.one = form }

// SetDetails replaces the step-two values.
func (w *Wizard) SetDetails(form StepTwoForm) { w.two = form }

// Seed pre-fills the wizard from referral parameters. A promotional referral
// carrying at least one route field opens directly on the details step.
func (w *Wizard) Seed(params SeedParams) {
	w.one = StepOneForm{
		From:          validate.CleanText(params.From, validate.MaxRouteLen),
		To:            validate.CleanText(params.To, validate.MaxRouteLen),
		DepartureDate: validate.CleanText(params.DepartureDate, validate.MaxTimeLen),
	}
	if params.Promo && (w.one.From != "" || w.one.To != "" || w.one.DepartureDate != "") {
		w.copyRouteForward()
		w.step = StepDetails
	}
}

// Next advances one step. Route→Details validates the quick-capture fields
// and copies them forward. Details→Confirm validates everything including
// the challenge answer, then submits; field errors from either side land on
// the details step and the wizard stays put.
func (w *Wizard) Next(ctx context.Context) error {
	switch w.step {
	case StepRoute:
		if errs := w.validateRoute(); len(errs) > 0 {
			w.errors = errs
			return appErrors.Validation(errs)
		}
		w.errors = nil
		w.copyRouteForward()
		w.step = StepDetails
		return nil

	case StepDetails:
		if errs := w.validateDetails(); len(errs) > 0 {
			w.errors = errs
			return appErrors.Validation(errs)
		}

		result, err := w.intake.SubmitBooking(ctx, w.bookingRequest())
		if err != nil {
			w.errors = fieldErrorsFrom(err)
			return err
		}
		w.errors = nil
		w.result = result
		w.step = StepConfirm
		return nil
	}
	return nil
}

// Back returns from the details step to the route step, carrying the shared
// fields with it. No validation runs.
func (w *Wizard) Back() {
	if w.step != StepDetails {
		return
	}
	w.one = StepOneForm{
		From:          w.two.From,
		To:            w.two.To,
		DepartureDate: w.two.DepartureDate,
	}
	w.step = StepRoute
}

// Restart clears both forms, regenerates the challenge and returns to the
// route step. A solved answer is never replayable across restarts.
func (w *Wizard) Restart() error {
	w.one = StepOneForm{}
	w.two = StepTwoForm{}
	w.errors = nil
	w.result = nil
	w.step = StepRoute
	return w.refreshChallenge()
}

func (w *Wizard) validateRoute() validate.FieldErrors {
	errs := validate.FieldErrors{}

	if validate.CleanText(w.one.From, validate.MaxRouteLen) == "" {
		errs["from"] = "From is required."
	}
	if validate.CleanText(w.one.To, validate.MaxRouteLen) == "" {
		errs["to"] = "To is required."
	}

	departure := validate.CleanText(w.one.DepartureDate, validate.MaxTimeLen)
	switch {
	case departure == "":
		errs["departure_date"] = "Departure date is required."
	case !validate.ValidDate(departure):
		errs["departure_date"] = "Enter a valid date."
	case validate.DateBefore(departure, validate.Today(w.now())):
		errs["departure_date"] = "Departure date cannot be in the past."
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

func (w *Wizard) validateDetails() validate.FieldErrors {
	_, errs := validate.ParseBooking(w.bookingRequest(), w.now(), w.maxPax)
	if errs == nil {
		errs = validate.FieldErrors{}
	}

	answer, ok := validate.CoerceInt(w.two.ChallengeAnswer)
	if w.challenge == nil || !ok || answer != w.challenge.Answer {
		errs["challenge_answer"] = "Verification answer is incorrect."
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

func (w *Wizard) bookingRequest() validate.BookingRequest {
	req := validate.BookingRequest{
		From:            w.two.From,
		To:              w.two.To,
		DepartureDate:   w.two.DepartureDate,
		DepartureTime:   w.two.DepartureTime,
		ReturnDate:      w.two.ReturnDate,
		ReturnTime:      w.two.ReturnTime,
		Passengers:      w.two.Passengers,
		ContactEmail:    w.two.ContactEmail,
		ContactPhone:    w.two.ContactPhone,
		Notes:           w.two.Notes,
		SourcePage:      w.sourcePage,
		ChallengeAnswer: w.two.ChallengeAnswer,
	}
	if w.challenge != nil {
		req.ChallengeToken = w.challenge.Token
	}
	return req
}

func (w *Wizard) copyRouteForward() {
	w.two.From = w.one.From
	w.two.To = w.one.To
	w.two.DepartureDate = w.one.DepartureDate
}

func (w *Wizard) refreshChallenge() error {
	if w.challenges == nil {
		w.challenge = nil
		return nil
	}
	challenge, err := w.challenges.Generate()
	if err != nil {
		return err
	}
	w.challenge = challenge
	return nil
}

func fieldErrorsFrom(err error) validate.FieldErrors {
	appErr := appErrors.FromError(err)
	if appErr == nil || len(appErr.Fields) == 0 {
		return validate.FieldErrors{validate.FormKey: appErr.Message}
	}
	errs := validate.FieldErrors{}
	for field, message := range appErr.Fields {
		errs[field] = message
	}
	return errs
}
