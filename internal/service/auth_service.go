package service

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/bfc-aero/charter-leads-api/internal/models"
	"github.com/bfc-aero/charter-leads-api/pkg/config"
	appErrors "github.com/bfc-aero/charter-leads-api/pkg/errors"
)

type authOperatorRepo interface {
	FindByEmail(ctx context.Context, email string) (*models.Operator, error)
	FindByID(ctx context.Context, id string) (*models.Operator, error)
	UpdateLastLogin(ctx context.Context, id string, ts time.Time) error
	CreateSession(ctx context.Context, session *models.OperatorSession) error
	FindSession(ctx context.Context, id string) (*models.OperatorSession, error)
	SetSessionCSRF(ctx context.Context, id, token string) error
	RevokeSession(ctx context.Context, id string) error
}

// AuthService authenticates operators and manages their sessions and
// anti-forgery tokens. The bearer credential is a JWT naming a server-side
// session row, so logout and out-of-band operator removal both invalidate
// outstanding credentials immediately.
type AuthService struct {
	repo      authOperatorRepo
	validator *validator.Validate
	logger    *zap.Logger
	cfg       config.AuthConfig
}

// NewAuthService constructs an AuthService instance.
func NewAuthService(repo authOperatorRepo, validate *validator.Validate, logger *zap.Logger, cfg config.AuthConfig) *AuthService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &AuthService{repo: repo, validator: validate, logger: logger, cfg: cfg}
}

// Login authenticates an operator. Unknown address and wrong password yield
// the identical error so accounts cannot be enumerated.
func (s *AuthService) Login(ctx context.Context, req models.LoginRequest) (*models.LoginResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "Email and password are required.")
	}

	email := strings.ToLower(strings.TrimSpace(req.Email))
	op, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrInvalidCredentials, "")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to fetch operator")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(op.PasswordHash), []byte(req.Password)); err != nil {
		return nil, appErrors.Clone(appErrors.ErrInvalidCredentials, "")
	}

	now := time.Now().UTC()
	session := &models.OperatorSession{
		OperatorID: op.ID,
		CreatedAt:  now,
		ExpiresAt:  now.Add(s.cfg.SessionTTL),
	}
	if err := s.repo.CreateSession(ctx, session); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create session")
	}

	csrfToken, err := s.ensureCSRF(ctx, session)
	if err != nil {
		return nil, err
	}

	signed, err := s.signSessionToken(session, op)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to sign session token")
	}

	if err := s.repo.UpdateLastLogin(ctx, op.ID, now); err != nil {
		s.logger.Warn("failed to update last login", zap.Error(err))
	}

	return &models.LoginResponse{
		Operator:  models.OperatorInfo{ID: op.ID, Email: op.Email},
		Token:     signed,
		CSRFToken: csrfToken,
		ExpiresAt: session.ExpiresAt,
	}, nil
}

// Logout revokes the current session; its anti-forgery token dies with it.
func (s *AuthService) Logout(ctx context.Context, sessionID string) error {
	if err := s.repo.RevokeSession(ctx, sessionID); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to revoke session")
	}
	return nil
}

// Authenticate resolves a bearer token to its live session and operator.
// A revoked or expired session, or one whose operator no longer exists,
// is treated as unauthenticated.
func (s *AuthService) Authenticate(ctx context.Context, tokenString string) (*models.SessionClaims, *models.Operator, error) {
	parsed, err := jwt.ParseWithClaims(tokenString, &models.SessionClaims{}, func(t *jwt.Token) (interface{}, error) {
		if t.Method != jwt.SigningMethodHS256 {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return []byte(s.cfg.SessionSecret), nil
	})
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrUnauthorized.Code, appErrors.ErrUnauthorized.Status, "unauthorized")
	}

	claims, ok := parsed.Claims.(*models.SessionClaims)
	if !ok || !parsed.Valid {
		return nil, nil, appErrors.Clone(appErrors.ErrUnauthorized, "")
	}

	session, err := s.repo.FindSession(ctx, claims.SessionID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil, appErrors.Clone(appErrors.ErrUnauthorized, "")
		}
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load session")
	}
	if session.Revoked || time.Now().UTC().After(session.ExpiresAt) {
		return nil, nil, appErrors.Clone(appErrors.ErrUnauthorized, "")
	}

	op, err := s.repo.FindByID(ctx, session.OperatorID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			// operator removed out-of-band, the session must not outlive it
			if revokeErr := s.repo.RevokeSession(ctx, session.ID); revokeErr != nil {
				s.logger.Warn("failed to revoke orphaned session", zap.Error(revokeErr))
			}
			return nil, nil, appErrors.Clone(appErrors.ErrUnauthorized, "")
		}
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load operator")
	}

	return claims, op, nil
}

// SessionInfo returns the current operator identity and anti-forgery token,
// minting the token if this session never needed one before.
func (s *AuthService) SessionInfo(ctx context.Context, claims *models.SessionClaims, op *models.Operator) (*models.SessionInfo, error) {
	session, err := s.repo.FindSession(ctx, claims.SessionID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load session")
	}

	csrfToken, err := s.ensureCSRF(ctx, session)
	if err != nil {
		return nil, err
	}

	return &models.SessionInfo{
		Operator:  models.OperatorInfo{ID: op.ID, Email: op.Email},
		CSRFToken: csrfToken,
		ExpiresAt: session.ExpiresAt,
	}, nil
}

// VerifyCSRF checks the presented anti-forgery token against the session's.
// Absence, mismatch and a session that never minted a token all fail the
// same way.
func (s *AuthService) VerifyCSRF(ctx context.Context, sessionID, presented string) error {
	session, err := s.repo.FindSession(ctx, sessionID)
	if err != nil {
		return appErrors.Clone(appErrors.ErrCSRF, "")
	}
	if session.CSRFToken == nil || presented == "" {
		return appErrors.Clone(appErrors.ErrCSRF, "")
	}
	if subtle.ConstantTimeCompare([]byte(*session.CSRFToken), []byte(presented)) != 1 {
		return appErrors.Clone(appErrors.ErrCSRF, "")
	}
	return nil
}

func (s *AuthService) ensureCSRF(ctx context.Context, session *models.OperatorSession) (string, error) {
	if session.CSRFToken != nil && *session.CSRFToken != "" {
		return *session.CSRFToken, nil
	}

	buf := make([]byte, 24)
	if _, err := rand.Read(buf); err != nil {
		return "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to mint anti-forgery token")
	}
	tok := hex.EncodeToString(buf)

	if err := s.repo.SetSessionCSRF(ctx, session.ID, tok); err != nil {
		return "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store anti-forgery token")
	}
	session.CSRFToken = &tok
	return tok, nil
}

func (s *AuthService) signSessionToken(session *models.OperatorSession, op *models.Operator) (string, error) {
	claims := &models.SessionClaims{
		SessionID:  session.ID,
		OperatorID: op.ID,
		Email:      op.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    s.cfg.Issuer,
			Subject:   op.ID,
			ExpiresAt: jwt.NewNumericDate(session.ExpiresAt),
			IssuedAt:  jwt.NewNumericDate(session.CreatedAt),
			NotBefore: jwt.NewNumericDate(session.CreatedAt),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(s.cfg.SessionSecret))
}
