package service

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/bfc-aero/charter-leads-api/internal/models"
	"github.com/bfc-aero/charter-leads-api/pkg/config"
	appErrors "github.com/bfc-aero/charter-leads-api/pkg/errors"
)

type mockOperatorRepo struct {
	operator         *models.Operator
	findByEmailErr   error
	findByIDErr      error
	sessions         map[string]*models.OperatorSession
	createSessionErr error
	setCSRFErr       error
	revoked          []string
	lastLoginUpdated bool
}

func (m *mockOperatorRepo) FindByEmail(ctx context.Context, email string) (*models.Operator, error) {
	if m.findByEmailErr != nil {
		return nil, m.findByEmailErr
	}
	return m.operator, nil
}

func (m *mockOperatorRepo) FindByID(ctx context.Context, id string) (*models.Operator, error) {
	if m.findByIDErr != nil {
		return nil, m.findByIDErr
	}
	return m.operator, nil
}

func (m *mockOperatorRepo) UpdateLastLogin(ctx context.Context, id string, ts time.Time) error {
	m.lastLoginUpdated = true
	return nil
}

func (m *mockOperatorRepo) CreateSession(ctx context.Context, session *models.OperatorSession) error {
	if m.createSessionErr != nil {
		return m.createSessionErr
	}
	if session.ID == "" {
		session.ID = "session-1"
	}
	if m.sessions == nil {
		m.sessions = make(map[string]*models.OperatorSession)
	}
	m.sessions[session.ID] = session
	return nil
}

func (m *mockOperatorRepo) FindSession(ctx context.Context, id string) (*models.OperatorSession, error) {
	session, ok := m.sessions[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	copied := *session
	return &copied, nil
}

func (m *mockOperatorRepo) SetSessionCSRF(ctx context.Context, id, token string) error {
	if m.setCSRFErr != nil {
		return m.setCSRFErr
	}
	if session, ok := m.sessions[id]; ok {
		session.CSRFToken = &token
	}
	return nil
}

func (m *mockOperatorRepo) RevokeSession(ctx context.Context, id string) error {
	m.revoked = append(m.revoked, id)
	if session, ok := m.sessions[id]; ok {
		session.Revoked = true
	}
	return nil
}

func authTestConfig() config.AuthConfig {
	return config.AuthConfig{
		SessionSecret: "auth-test-secret",
		SessionTTL:    time.Hour,
		Issuer:        "charter-leads-api",
	}
}

func hashPassword(t *testing.T, password string) string {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	return string(hash)
}

func TestLoginSuccess(t *testing.T) {
	repo := &mockOperatorRepo{
		operator: &models.Operator{
			ID:           "op-1",
			Email:        "ops@example.com",
			PasswordHash: hashPassword(t, "correct horse"),
		},
	}
	svc := NewAuthService(repo, validator.New(), zap.NewNop(), authTestConfig())

	resp, err := svc.Login(context.Background(), models.LoginRequest{
		Email:    "  Ops@Example.COM ",
		Password: "correct horse",
	})
	require.NoError(t, err)
	assert.Equal(t, "op-1", resp.Operator.ID)
	assert.NotEmpty(t, resp.Token)
	assert.NotEmpty(t, resp.CSRFToken)
	assert.True(t, repo.lastLoginUpdated)

	stored := repo.sessions["session-1"]
	require.NotNil(t, stored)
	require.NotNil(t, stored.CSRFToken)
	assert.Equal(t, resp.CSRFToken, *stored.CSRFToken)
}

func TestLoginWrongPassword(t *testing.T) {
	repo := &mockOperatorRepo{
		operator: &models.Operator{
			ID:           "op-1",
			Email:        "ops@example.com",
			PasswordHash: hashPassword(t, "correct horse"),
		},
	}
	svc := NewAuthService(repo, validator.New(), zap.NewNop(), authTestConfig())

	_, err := svc.Login(context.Background(), models.LoginRequest{
		Email:    "ops@example.com",
		Password: "wrong",
	})
	require.Error(t, err)
	appErr, ok := err.(*appErrors.Error)
	require.True(t, ok)
	assert.Equal(t, appErrors.ErrInvalidCredentials.Code, appErr.Code)
}

func TestLoginUnknownEmailSameError(t *testing.T) {
	repo := &mockOperatorRepo{findByEmailErr: sql.ErrNoRows}
	svc := NewAuthService(repo, validator.New(), zap.NewNop(), authTestConfig())

	_, err := svc.Login(context.Background(), models.LoginRequest{
		Email:    "nobody@example.com",
		Password: "whatever",
	})
	require.Error(t, err)
	appErr, ok := err.(*appErrors.Error)
	require.True(t, ok)
	assert.Equal(t, appErrors.ErrInvalidCredentials.Code, appErr.Code)
	assert.Equal(t, appErrors.ErrInvalidCredentials.Message, appErr.Message)
}

func TestLoginMissingFields(t *testing.T) {
	repo := &mockOperatorRepo{}
	svc := NewAuthService(repo, validator.New(), zap.NewNop(), authTestConfig())

	_, err := svc.Login(context.Background(), models.LoginRequest{Email: "ops@example.com"})
	require.Error(t, err)
	appErr, ok := err.(*appErrors.Error)
	require.True(t, ok)
	assert.Equal(t, appErrors.ErrValidation.Code, appErr.Code)
}

func TestAuthenticateRoundTrip(t *testing.T) {
	repo := &mockOperatorRepo{
		operator: &models.Operator{
			ID:           "op-1",
			Email:        "ops@example.com",
			PasswordHash: hashPassword(t, "correct horse"),
		},
	}
	svc := NewAuthService(repo, validator.New(), zap.NewNop(), authTestConfig())

	resp, err := svc.Login(context.Background(), models.LoginRequest{
		Email:    "ops@example.com",
		Password: "correct horse",
	})
	require.NoError(t, err)

	claims, op, err := svc.Authenticate(context.Background(), resp.Token)
	require.NoError(t, err)
	assert.Equal(t, "op-1", claims.OperatorID)
	assert.Equal(t, "session-1", claims.SessionID)
	assert.Equal(t, "ops@example.com", op.Email)
}

func TestAuthenticateRevokedSession(t *testing.T) {
	repo := &mockOperatorRepo{
		operator: &models.Operator{
			ID:           "op-1",
			Email:        "ops@example.com",
			PasswordHash: hashPassword(t, "correct horse"),
		},
	}
	svc := NewAuthService(repo, validator.New(), zap.NewNop(), authTestConfig())

	resp, err := svc.Login(context.Background(), models.LoginRequest{
		Email:    "ops@example.com",
		Password: "correct horse",
	})
	require.NoError(t, err)

	require.NoError(t, svc.Logout(context.Background(), "session-1"))

	_, _, err = svc.Authenticate(context.Background(), resp.Token)
	require.Error(t, err)
	appErr, ok := err.(*appErrors.Error)
	require.True(t, ok)
	assert.Equal(t, appErrors.ErrUnauthorized.Code, appErr.Code)
}

func TestAuthenticateOrphanedOperatorRevokesSession(t *testing.T) {
	repo := &mockOperatorRepo{
		operator: &models.Operator{
			ID:           "op-1",
			Email:        "ops@example.com",
			PasswordHash: hashPassword(t, "correct horse"),
		},
	}
	svc := NewAuthService(repo, validator.New(), zap.NewNop(), authTestConfig())

	resp, err := svc.Login(context.Background(), models.LoginRequest{
		Email:    "ops@example.com",
		Password: "correct horse",
	})
	require.NoError(t, err)

	repo.findByIDErr = sql.ErrNoRows

	_, _, err = svc.Authenticate(context.Background(), resp.Token)
	require.Error(t, err)
	assert.Contains(t, repo.revoked, "session-1")
}

func TestAuthenticateGarbageToken(t *testing.T) {
	svc := NewAuthService(&mockOperatorRepo{}, validator.New(), zap.NewNop(), authTestConfig())

	_, _, err := svc.Authenticate(context.Background(), "not-a-jwt")
	require.Error(t, err)
	appErr, ok := err.(*appErrors.Error)
	require.True(t, ok)
	assert.Equal(t, appErrors.ErrUnauthorized.Code, appErr.Code)
}

func TestVerifyCSRF(t *testing.T) {
	tok := "anti-forgery-token"
	repo := &mockOperatorRepo{
		sessions: map[string]*models.OperatorSession{
			"session-1": {ID: "session-1", OperatorID: "op-1", CSRFToken: &tok, ExpiresAt: time.Now().Add(time.Hour)},
			"session-2": {ID: "session-2", OperatorID: "op-1", ExpiresAt: time.Now().Add(time.Hour)},
		},
	}
	svc := NewAuthService(repo, validator.New(), zap.NewNop(), authTestConfig())

	assert.NoError(t, svc.VerifyCSRF(context.Background(), "session-1", tok))
	assert.Error(t, svc.VerifyCSRF(context.Background(), "session-1", "mismatch"))
	assert.Error(t, svc.VerifyCSRF(context.Background(), "session-1", ""))
	assert.Error(t, svc.VerifyCSRF(context.Background(), "session-2", tok))
	assert.Error(t, svc.VerifyCSRF(context.Background(), "missing", tok))
}

func TestSessionInfoMintsTokenOnce(t *testing.T) {
	repo := &mockOperatorRepo{
		operator: &models.Operator{ID: "op-1", Email: "ops@example.com"},
		sessions: map[string]*models.OperatorSession{
			"session-1": {ID: "session-1", OperatorID: "op-1", ExpiresAt: time.Now().Add(time.Hour)},
		},
	}
	svc := NewAuthService(repo, validator.New(), zap.NewNop(), authTestConfig())

	claims := &models.SessionClaims{SessionID: "session-1", OperatorID: "op-1"}
	first, err := svc.SessionInfo(context.Background(), claims, repo.operator)
	require.NoError(t, err)
	require.NotEmpty(t, first.CSRFToken)

	second, err := svc.SessionInfo(context.Background(), claims, repo.operator)
	require.NoError(t, err)
	assert.Equal(t, first.CSRFToken, second.CSRFToken)
}

func TestLoginRepoFailure(t *testing.T) {
	repo := &mockOperatorRepo{findByEmailErr: errors.New("connection refused")}
	svc := NewAuthService(repo, validator.New(), zap.NewNop(), authTestConfig())

	_, err := svc.Login(context.Background(), models.LoginRequest{
		Email:    "ops@example.com",
		Password: "whatever",
	})
	require.Error(t, err)
	appErr, ok := err.(*appErrors.Error)
	require.True(t, ok)
	assert.Equal(t, appErrors.ErrInternal.Code, appErr.Code)
}
