package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/bfc-aero/charter-leads-api/internal/models"
	"github.com/bfc-aero/charter-leads-api/internal/service"
	"github.com/bfc-aero/charter-leads-api/internal/validate"
	appErrors "github.com/bfc-aero/charter-leads-api/pkg/errors"
	"github.com/bfc-aero/charter-leads-api/pkg/response"
)

type intakeService interface {
	SubmitBooking(ctx context.Context, req validate.BookingRequest) (*service.IntakeResult, error)
	SubmitContact(ctx context.Context, req validate.ContactRequest) (*service.IntakeResult, error)
}

type challengeProvider interface {
	Generate() (*models.Challenge, error)
}

// SubmissionHandler wires the public intake endpoints.
type SubmissionHandler struct {
	intake    intakeService
	challenge challengeProvider
}

// NewSubmissionHandler creates a new handler.
func NewSubmissionHandler(intake intakeService, challenge challengeProvider) *SubmissionHandler {
	return &SubmissionHandler{intake: intake, challenge: challenge}
}

// SubmitBooking godoc
// @Summary Submit a booking inquiry
// @Description Validate and persist a charter booking request
// @Tags Submissions
// @Accept json
// @Produce json
// @Param payload body validate.BookingRequest true "Booking payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 429 {object} response.Envelope
// @Router /submissions/booking [post]
func (h *SubmissionHandler) SubmitBooking(c *gin.Context) {
	var req validate.BookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid booking payload"))
		return
	}

	res, err := h.intake.SubmitBooking(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, res)
}

// SubmitContact godoc
// @Summary Submit a contact inquiry
// @Description Validate and persist a general contact request
// @Tags Submissions
// @Accept json
// @Produce json
// @Param payload body validate.ContactRequest true "Contact payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 429 {object} response.Envelope
// @Router /submissions/contact [post]
func (h *SubmissionHandler) SubmitContact(c *gin.Context) {
	var req validate.ContactRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid contact payload"))
		return
	}

	res, err := h.intake.SubmitContact(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, res)
}

// Challenge godoc
// @Summary Fetch a verification challenge
// @Description Return an arithmetic challenge with a signed answer token
// @Tags Submissions
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /challenge [get]
func (h *SubmissionHandler) Challenge(c *gin.Context) {
	challenge, err := h.challenge.Generate()
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to generate challenge"))
		return
	}
	response.JSON(c, http.StatusOK, challenge, nil)
}
