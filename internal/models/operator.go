package models

import "time"

// Operator is a staff account allowed into the admin review service.
// Accounts are provisioned by the migrate command, never self-service.
type Operator struct {
	ID           string     `db:"id" json:"id"`
	Email        string     `db:"email" json:"email"`
	PasswordHash string     `db:"password_hash" json:"-"`
	CreatedAt    time.Time  `db:"created_at" json:"created_at"`
	LastLoginAt  *time.Time `db:"last_login_at" json:"last_login_at,omitempty"`
}

// OperatorSession is the server-side record backing one authenticated
// session. The anti-forgery token is minted lazily on first need and lives
// exactly as long as the session.
type OperatorSession struct {
	ID         string    `db:"id" json:"id"`
	OperatorID string    `db:"operator_id" json:"operator_id"`
	CSRFToken  *string   `db:"csrf_token" json:"-"`
	Revoked    bool      `db:"revoked" json:"-"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
	ExpiresAt  time.Time `db:"expires_at" json:"expires_at"`
}
