package models

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// LoginRequest is the admin login payload.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// OperatorInfo is the operator identity exposed to clients.
type OperatorInfo struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

// LoginResponse carries the issued session credential and anti-forgery token.
type LoginResponse struct {
	Operator  OperatorInfo `json:"operator"`
	Token     string       `json:"token"`
	CSRFToken string       `json:"csrf_token"`
	ExpiresAt time.Time    `json:"expires_at"`
}

// SessionInfo mirrors LoginResponse for the session endpoint, minus the
// bearer credential the caller already holds.
type SessionInfo struct {
	Operator  OperatorInfo `json:"operator"`
	CSRFToken string       `json:"csrf_token"`
	ExpiresAt time.Time    `json:"expires_at"`
}

// SessionClaims is the JWT payload binding a bearer credential to a
// server-side session row.
type SessionClaims struct {
	SessionID  string `json:"sid"`
	OperatorID string `json:"oid"`
	Email      string `json:"email"`
	jwt.RegisteredClaims
}
