package validate

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/bfc-aero/charter-leads-api/internal/models"
)

// FieldErrors maps a field name (or the catch-all "form" key) to a
// human-readable message.
type FieldErrors map[string]string

// FormKey is the catch-all error key for failures not tied to one field.
const FormKey = "form"

// BookingRequest is the raw booking form field set as submitted.
type BookingRequest struct {
	From            string      `json:"from"`
	To              string      `json:"to"`
	DepartureDate   string      `json:"departure_date"`
	DepartureTime   string      `json:"departure_time"`
	ReturnDate      string      `json:"return_date"`
	ReturnTime      string      `json:"return_time"`
	Passengers      interface{} `json:"passengers"`
	ContactEmail    string      `json:"contact_email"`
	ContactPhone    string      `json:"contact_phone"`
	Notes           string      `json:"notes"`
	SourcePage      string      `json:"source_page"`
	ChallengeToken  string      `json:"challenge_token"`
	ChallengeAnswer interface{} `json:"challenge_answer"`
}

// ContactRequest is the raw contact form field set as submitted.
type ContactRequest struct {
	ContactName     string      `json:"contact_name"`
	ContactEmail    string      `json:"contact_email"`
	ContactPhone    string      `json:"contact_phone"`
	Notes           string      `json:"notes"`
	SourcePage      string      `json:"source_page"`
	ChallengeToken  string      `json:"challenge_token"`
	ChallengeAnswer interface{} `json:"challenge_answer"`
}

// ParseBooking validates and normalises a booking submission. The returned
// record uses the contact email as the display name since the booking form
// collects none. Every rule runs here regardless of what any client-side
// evaluation already checked.
func ParseBooking(req BookingRequest, now time.Time, maxPassengers int) (*models.NewSubmission, FieldErrors) {
	errs := FieldErrors{}

	from := CleanText(req.From, MaxRouteLen)
	if from == "" {
		errs["from"] = "From is required."
	}

	to := CleanText(req.To, MaxRouteLen)
	if to == "" {
		errs["to"] = "To is required."
	}

	departureDate := CleanText(req.DepartureDate, MaxTimeLen)
	switch {
	case departureDate == "":
		errs["departure_date"] = "Departure date is required."
	case !ValidDate(departureDate):
		errs["departure_date"] = "Enter a valid date."
	case DateBefore(departureDate, Today(now)):
		errs["departure_date"] = "Departure date cannot be in the past."
	}

	departureTime := CleanText(req.DepartureTime, MaxTimeLen)
	if departureTime == "" {
		errs["departure_time"] = "Departure time is required."
	}

	returnDate := CleanText(req.ReturnDate, MaxTimeLen)
	if returnDate != "" {
		switch {
		case !ValidDate(returnDate):
			errs["return_date"] = "Enter a valid date."
		case departureDate != "" && ValidDate(departureDate) && DateBefore(returnDate, departureDate):
			errs["return_date"] = "Return date cannot be before departure."
		}
	}
	returnTime := CleanText(req.ReturnTime, MaxTimeLen)

	passengers, ok := CoerceInt(req.Passengers)
	if !ok || passengers < 1 || passengers > maxPassengers {
		errs["passengers"] = "Enter a valid passenger count."
	}

	email := SanitizeEmail(req.ContactEmail)
	switch {
	case email == "":
		errs["contact_email"] = "Email is required."
	case !ValidEmail(email):
		errs["contact_email"] = "Enter a valid email address."
	}

	phone := SanitizePhone(req.ContactPhone)
	switch {
	case phone == "":
		errs["contact_phone"] = "Phone is required."
	case !ValidPhone(phone):
		errs["contact_phone"] = "Enter a valid phone number."
	}

	notes := CleanText(req.Notes, MaxNotesLen)
	sourcePage := CleanText(req.SourcePage, MaxSourcePageLen)

	if len(errs) > 0 {
		return nil, errs
	}

	payload := map[string]interface{}{
		"from":           from,
		"to":             to,
		"departure_date": departureDate,
		"departure_time": departureTime,
		"return_date":    returnDate,
		"return_time":    returnTime,
		"passengers":     passengers,
		"contact_email":  email,
		"contact_phone":  phone,
		"notes":          notes,
		"source_page":    sourcePage,
	}

	return &models.NewSubmission{
		Source:        models.SourceBooking,
		Name:          email,
		Email:         email,
		Phone:         phone,
		RouteFrom:     optional(from),
		RouteTo:       optional(to),
		DepartureDate: optional(departureDate),
		ReturnDate:    optional(returnDate),
		Passengers:    &passengers,
		Notes:         optional(notes),
		Payload:       payload,
	}, nil
}

// ParseContact validates and normalises a contact submission.
func ParseContact(req ContactRequest) (*models.NewSubmission, FieldErrors) {
	errs := FieldErrors{}

	name := CleanText(req.ContactName, MaxNameLen)
	if name == "" {
		errs["contact_name"] = "Name is required."
	}

	email := SanitizeEmail(req.ContactEmail)
	switch {
	case email == "":
		errs["contact_email"] = "Email is required."
	case !ValidEmail(email):
		errs["contact_email"] = "Enter a valid email address."
	}

	phone := SanitizePhone(req.ContactPhone)
	switch {
	case phone == "":
		errs["contact_phone"] = "Phone is required."
	case !ValidPhone(phone):
		errs["contact_phone"] = "Enter a valid phone number."
	}

	notes := CleanText(req.Notes, MaxNotesLen)
	sourcePage := CleanText(req.SourcePage, MaxSourcePageLen)

	if len(errs) > 0 {
		return nil, errs
	}

	payload := map[string]interface{}{
		"contact_name":  name,
		"contact_email": email,
		"contact_phone": phone,
		"notes":         notes,
		"source_page":   sourcePage,
	}

	return &models.NewSubmission{
		Source:  models.SourceContact,
		Name:    name,
		Email:   email,
		Phone:   phone,
		Notes:   optional(notes),
		Payload: payload,
	}, nil
}

// ParseAdminUpdate validates a status/notes patch. At least one of the two
// fields must be present.
func ParseAdminUpdate(update models.SubmissionUpdate) (models.SubmissionUpdate, FieldErrors) {
	errs := FieldErrors{}

	if update.Status == nil && update.AdminNotes == nil {
		errs[FormKey] = "No updatable fields provided."
		return update, errs
	}

	if update.Status != nil && !update.Status.Valid() {
		errs["status"] = "Unknown status."
	}

	if update.AdminNotes != nil {
		trimmed := strings.TrimSpace(stripControlPreservingNewlines(*update.AdminNotes))
		if len(trimmed) > MaxAdminNotesLen {
			errs["admin_notes"] = "Admin notes too long."
		} else {
			update.AdminNotes = &trimmed
		}
	}

	if len(errs) > 0 {
		return update, errs
	}
	return update, nil
}

// CoerceInt accepts JSON numbers, numeric strings and integral floats.
// Anything non-finite or non-numeric is rejected.
func CoerceInt(raw interface{}) (int, bool) {
	switch v := raw.(type) {
	case nil:
		return 0, false
	case int:
		return v, true
	case int64:
		return int(v), true
	case float64:
		if math.IsNaN(v) || math.IsInf(v, 0) || v != math.Trunc(v) {
			return 0, false
		}
		return int(v), true
	case json.Number:
		n, err := v.Int64()
		if err != nil {
			return 0, false
		}
		return int(n), true
	case string:
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return 0, false
		}
		return n, true
	}
	return 0, false
}

// Admin notes keep line breaks; only the other control characters go.
func stripControlPreservingNewlines(raw string) string {
	return strings.Map(func(r rune) rune {
		if r == '\n' || r == '\t' {
			return r
		}
		if r < 0x20 || r == 0x7f {
			return -1
		}
		return r
	}, raw)
}

func optional(value string) *string {
	if value == "" {
		return nil
	}
	return &value
}
