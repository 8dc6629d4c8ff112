package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/bfc-aero/charter-leads-api/internal/models"
)

const submissionColumns = `id, public_id, source, status, name, email, phone, route_from, route_to, departure_date, return_date, passengers, notes, payload, admin_notes, created_at, updated_at, contacted_at`

var sortClauses = map[string]string{
	"created_desc": "created_at DESC",
	"created_asc":  "created_at ASC",
	"updated_desc": "updated_at DESC",
	"updated_asc":  "updated_at ASC",
}

// SubmissionRepository provides database access for lead submissions.
type SubmissionRepository struct {
	db *sqlx.DB
}

// NewSubmissionRepository creates a new instance of SubmissionRepository.
func NewSubmissionRepository(db *sqlx.DB) *SubmissionRepository {
	return &SubmissionRepository{db: db}
}

// Create inserts a submission and assigns its public identifier in the same
// transaction. The identifier depends on the serial id the store hands out,
// so the insert and the public_id write commit or roll back together.
func (r *SubmissionRepository) Create(ctx context.Context, rec *models.NewSubmission, publicIDPrefix string) (*models.Submission, error) {
	payload, err := json.Marshal(rec.Payload)
	if err != nil {
		return nil, fmt.Errorf("marshal payload: %w", err)
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin create submission: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	now := time.Now().UTC()
	const insertQuery = `INSERT INTO submissions (source, status, name, email, phone, route_from, route_to, departure_date, return_date, passengers, notes, payload, admin_notes, created_at, updated_at)
		VALUES ($1, 'new', $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, '', $12, $12) RETURNING id`

	var id int64
	if err := tx.QueryRowxContext(ctx, insertQuery,
		rec.Source, rec.Name, rec.Email, rec.Phone,
		rec.RouteFrom, rec.RouteTo, rec.DepartureDate, rec.ReturnDate,
		rec.Passengers, rec.Notes, payload, now,
	).Scan(&id); err != nil {
		return nil, fmt.Errorf("insert submission: %w", err)
	}

	publicID := fmt.Sprintf("%s-%d-%06d", publicIDPrefix, now.Year(), id)
	if _, err := tx.ExecContext(ctx, `UPDATE submissions SET public_id = $1 WHERE id = $2`, publicID, id); err != nil {
		return nil, fmt.Errorf("assign public id: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit submission: %w", err)
	}

	return r.FindByID(ctx, id)
}

// FindByID returns one full submission including its payload snapshot.
func (r *SubmissionRepository) FindByID(ctx context.Context, id int64) (*models.Submission, error) {
	query := fmt.Sprintf(`SELECT %s FROM submissions WHERE id = $1 LIMIT 1`, submissionColumns)
	var sub models.Submission
	if err := r.db.GetContext(ctx, &sub, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find submission by id: %w", err)
	}
	return &sub, nil
}

// List returns a page of submissions plus the total count over the same
// filter set.
func (r *SubmissionRepository) List(ctx context.Context, params models.SubmissionListParams) ([]models.Submission, int, error) {
	whereSQL, args := buildSubmissionWhere(params.Filter)

	sortSQL, ok := sortClauses[params.Sort]
	if !ok {
		sortSQL = sortClauses["created_desc"]
	}

	page := params.Page
	if page < 1 {
		page = 1
	}
	pageSize := params.PageSize
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}
	offset := (page - 1) * pageSize

	listQuery := fmt.Sprintf("SELECT %s FROM submissions%s ORDER BY %s LIMIT %d OFFSET %d",
		submissionColumns, whereSQL, sortSQL, pageSize, offset)

	var rows []models.Submission
	if err := r.db.SelectContext(ctx, &rows, listQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("list submissions: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM submissions%s", whereSQL)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count submissions: %w", err)
	}

	return rows, total, nil
}

// ListForExport returns every submission matching the filter, newest first.
func (r *SubmissionRepository) ListForExport(ctx context.Context, filter models.SubmissionFilter) ([]models.Submission, error) {
	whereSQL, args := buildSubmissionWhere(filter)
	query := fmt.Sprintf("SELECT %s FROM submissions%s ORDER BY created_at DESC", submissionColumns, whereSQL)

	var rows []models.Submission
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("export submissions: %w", err)
	}
	return rows, nil
}

// Update applies a status and/or admin notes patch. A transition into
// contacted stamps contacted_at only when it is still unset; updated_at
// always advances. The refreshed record is returned.
func (r *SubmissionRepository) Update(ctx context.Context, id int64, update models.SubmissionUpdate) (*models.Submission, error) {
	sets := []string{}
	args := []interface{}{}

	if update.AdminNotes != nil {
		args = append(args, *update.AdminNotes)
		sets = append(sets, fmt.Sprintf("admin_notes = $%d", len(args)))
	}

	now := time.Now().UTC()
	if update.Status != nil {
		args = append(args, *update.Status)
		sets = append(sets, fmt.Sprintf("status = $%d", len(args)))

		if *update.Status == models.StatusContacted {
			args = append(args, now)
			sets = append(sets, fmt.Sprintf("contacted_at = COALESCE(contacted_at, $%d)", len(args)))
		}
	}

	args = append(args, now)
	sets = append(sets, fmt.Sprintf("updated_at = $%d", len(args)))

	args = append(args, id)
	query := fmt.Sprintf("UPDATE submissions SET %s WHERE id = $%d", strings.Join(sets, ", "), len(args))

	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("update submission: %w", err)
	}
	if affected, err := res.RowsAffected(); err == nil && affected == 0 {
		return nil, sql.ErrNoRows
	}

	return r.FindByID(ctx, id)
}

func buildSubmissionWhere(filter models.SubmissionFilter) (string, []interface{}) {
	var conditions []string
	var args []interface{}

	if filter.Status != "" {
		args = append(args, filter.Status)
		conditions = append(conditions, fmt.Sprintf("status = $%d", len(args)))
	}
	if filter.Source != "" {
		args = append(args, filter.Source)
		conditions = append(conditions, fmt.Sprintf("source = $%d", len(args)))
	}
	if filter.DateFrom != "" {
		if from, err := time.Parse("2006-01-02", filter.DateFrom); err == nil {
			args = append(args, from.UTC())
			conditions = append(conditions, fmt.Sprintf("created_at >= $%d", len(args)))
		}
	}
	if filter.DateTo != "" {
		if to, err := time.Parse("2006-01-02", filter.DateTo); err == nil {
			args = append(args, to.UTC().Add(24*time.Hour-time.Millisecond))
			conditions = append(conditions, fmt.Sprintf("created_at <= $%d", len(args)))
		}
	}
	if filter.Query != "" {
		args = append(args, "%"+filter.Query+"%")
		n := len(args)
		conditions = append(conditions, fmt.Sprintf(
			"(public_id ILIKE $%d OR name ILIKE $%d OR email ILIKE $%d OR phone ILIKE $%d OR notes ILIKE $%d)",
			n, n, n, n, n))
	}

	if len(conditions) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conditions, " AND "), args
}
