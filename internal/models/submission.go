package models

import (
	"encoding/json"
	"time"
)

// SubmissionSource identifies which public form produced a lead.
type SubmissionSource string

const (
	SourceBooking SubmissionSource = "booking"
	SourceContact SubmissionSource = "contact"
)

// SubmissionStatus is the review state assigned by operators. Transitions are
// unconstrained; any status may follow any other.
type SubmissionStatus string

const (
	StatusNew       SubmissionStatus = "new"
	StatusContacted SubmissionStatus = "contacted"
	StatusQualified SubmissionStatus = "qualified"
	StatusClosed    SubmissionStatus = "closed"
	StatusSpam      SubmissionStatus = "spam"
)

// Valid reports whether the status is one of the enumerated review states.
func (s SubmissionStatus) Valid() bool {
	switch s {
	case StatusNew, StatusContacted, StatusQualified, StatusClosed, StatusSpam:
		return true
	}
	return false
}

// Submission is one customer-originated lead stored in the submissions table.
// PublicID is assigned once inside the insert transaction and never changes.
// ContactedAt is set on the first transition into contacted and kept as-is on
// any later transition through that status.
type Submission struct {
	ID            int64            `db:"id" json:"id"`
	PublicID      *string          `db:"public_id" json:"public_id"`
	Source        SubmissionSource `db:"source" json:"source"`
	Status        SubmissionStatus `db:"status" json:"status"`
	Name          string           `db:"name" json:"name"`
	Email         string           `db:"email" json:"email"`
	Phone         string           `db:"phone" json:"phone"`
	RouteFrom     *string          `db:"route_from" json:"route_from"`
	RouteTo       *string          `db:"route_to" json:"route_to"`
	DepartureDate *string          `db:"departure_date" json:"departure_date"`
	ReturnDate    *string          `db:"return_date" json:"return_date"`
	Passengers    *int             `db:"passengers" json:"passengers"`
	Notes         *string          `db:"notes" json:"notes"`
	Payload       json.RawMessage  `db:"payload" json:"payload,omitempty"`
	AdminNotes    string           `db:"admin_notes" json:"admin_notes"`
	CreatedAt     time.Time        `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time        `db:"updated_at" json:"updated_at"`
	ContactedAt   *time.Time       `db:"contacted_at" json:"contacted_at"`
}

// NewSubmission is the normalised record the intake pipeline persists.
// Payload keeps the full validated field set for forensic reference beyond
// the normalised columns.
type NewSubmission struct {
	Source        SubmissionSource
	Name          string
	Email         string
	Phone         string
	RouteFrom     *string
	RouteTo       *string
	DepartureDate *string
	ReturnDate    *string
	Passengers    *int
	Notes         *string
	Payload       map[string]interface{}
}

// SubmissionFilter captures the listing/export filter set. Query matches as a
// case-insensitive substring across public id, name, email, phone and notes;
// the date bounds cover whole days against created_at.
type SubmissionFilter struct {
	Status   string
	Source   string
	Query    string
	DateFrom string
	DateTo   string
}

// SubmissionListParams adds paging and sorting on top of the filter.
type SubmissionListParams struct {
	Filter   SubmissionFilter
	Page     int
	PageSize int
	Sort     string
}

// SubmissionUpdate carries the mutable operator-editable fields. At least one
// of the two must be present.
type SubmissionUpdate struct {
	Status     *SubmissionStatus `json:"status"`
	AdminNotes *string           `json:"admin_notes"`
}

// Pagination contains pagination metadata returned in list responses.
type Pagination struct {
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	TotalCount int `json:"total_count"`
	TotalPages int `json:"total_pages"`
}
