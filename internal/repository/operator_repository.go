package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/bfc-aero/charter-leads-api/internal/models"
)

// OperatorRepository provides database access for staff accounts and their
// sessions.
type OperatorRepository struct {
	db *sqlx.DB
}

// NewOperatorRepository creates a new instance of OperatorRepository.
func NewOperatorRepository(db *sqlx.DB) *OperatorRepository {
	return &OperatorRepository{db: db}
}

// FindByEmail returns an operator by email. Callers pass the address already
// lowercased; the column stores the canonical form.
func (r *OperatorRepository) FindByEmail(ctx context.Context, email string) (*models.Operator, error) {
	const query = `SELECT id, email, password_hash, created_at, last_login_at FROM operators WHERE email = $1 LIMIT 1`
	var op models.Operator
	if err := r.db.GetContext(ctx, &op, query, email); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find operator by email: %w", err)
	}
	return &op, nil
}

// FindByID returns an operator by identifier.
func (r *OperatorRepository) FindByID(ctx context.Context, id string) (*models.Operator, error) {
	const query = `SELECT id, email, password_hash, created_at, last_login_at FROM operators WHERE id = $1 LIMIT 1`
	var op models.Operator
	if err := r.db.GetContext(ctx, &op, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find operator by id: %w", err)
	}
	return &op, nil
}

// Create inserts an operator account. Used by the seed/migration path only.
func (r *OperatorRepository) Create(ctx context.Context, op *models.Operator) error {
	if op.ID == "" {
		op.ID = uuid.NewString()
	}
	if op.CreatedAt.IsZero() {
		op.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO operators (id, email, password_hash, created_at) VALUES (:id, :email, :password_hash, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, op); err != nil {
		return fmt.Errorf("create operator: %w", err)
	}
	return nil
}

// UpdateLastLogin records a successful login.
func (r *OperatorRepository) UpdateLastLogin(ctx context.Context, id string, ts time.Time) error {
	const query = `UPDATE operators SET last_login_at = $2 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, ts); err != nil {
		return fmt.Errorf("update last login: %w", err)
	}
	return nil
}

// CreateSession persists a session row for an authenticated operator.
func (r *OperatorRepository) CreateSession(ctx context.Context, session *models.OperatorSession) error {
	if session.ID == "" {
		session.ID = uuid.NewString()
	}
	if session.CreatedAt.IsZero() {
		session.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO operator_sessions (id, operator_id, csrf_token, revoked, created_at, expires_at) VALUES (:id, :operator_id, :csrf_token, :revoked, :created_at, :expires_at)`
	if _, err := r.db.NamedExecContext(ctx, query, session); err != nil {
		return fmt.Errorf("create session: %w", err)
	}
	return nil
}

// FindSession returns a session row by identifier.
func (r *OperatorRepository) FindSession(ctx context.Context, id string) (*models.OperatorSession, error) {
	const query = `SELECT id, operator_id, csrf_token, revoked, created_at, expires_at FROM operator_sessions WHERE id = $1 LIMIT 1`
	var session models.OperatorSession
	if err := r.db.GetContext(ctx, &session, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find session: %w", err)
	}
	return &session, nil
}

// SetSessionCSRF stores the lazily minted anti-forgery token.
func (r *OperatorRepository) SetSessionCSRF(ctx context.Context, id, token string) error {
	const query = `UPDATE operator_sessions SET csrf_token = $2 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, token); err != nil {
		return fmt.Errorf("set session csrf: %w", err)
	}
	return nil
}

// RevokeSession invalidates a session.
func (r *OperatorRepository) RevokeSession(ctx context.Context, id string) error {
	const query = `UPDATE operator_sessions SET revoked = TRUE WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("revoke session: %w", err)
	}
	return nil
}
