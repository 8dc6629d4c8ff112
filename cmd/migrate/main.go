package main

import (
	"context"
	"database/sql"
	"errors"
	"log"
	"os"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/bfc-aero/charter-leads-api/internal/models"
	"github.com/bfc-aero/charter-leads-api/internal/repository"
	"github.com/bfc-aero/charter-leads-api/pkg/config"
	"github.com/bfc-aero/charter-leads-api/pkg/database"
	"github.com/bfc-aero/charter-leads-api/pkg/logger"
)

const schema = `
CREATE TABLE IF NOT EXISTS submissions (
	id             BIGSERIAL PRIMARY KEY,
	public_id      TEXT UNIQUE,
	source         TEXT NOT NULL CHECK (source IN ('booking', 'contact')),
	status         TEXT NOT NULL DEFAULT 'new'
	               CHECK (status IN ('new', 'contacted', 'qualified', 'closed', 'spam')),
	name           TEXT NOT NULL,
	email          TEXT NOT NULL,
	phone          TEXT NOT NULL,
	route_from     TEXT,
	route_to       TEXT,
	departure_date TEXT,
	return_date    TEXT,
	passengers     INTEGER,
	notes          TEXT,
	payload        JSONB NOT NULL DEFAULT '{}'::jsonb,
	admin_notes    TEXT NOT NULL DEFAULT '',
	created_at     TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at     TIMESTAMPTZ NOT NULL DEFAULT now(),
	contacted_at   TIMESTAMPTZ
);

CREATE INDEX IF NOT EXISTS idx_submissions_status ON submissions (status);
CREATE INDEX IF NOT EXISTS idx_submissions_source ON submissions (source);
CREATE INDEX IF NOT EXISTS idx_submissions_created_at ON submissions (created_at DESC);

CREATE TABLE IF NOT EXISTS operators (
	id            UUID PRIMARY KEY,
	email         TEXT NOT NULL UNIQUE,
	password_hash TEXT NOT NULL,
	created_at    TIMESTAMPTZ NOT NULL DEFAULT now(),
	last_login_at TIMESTAMPTZ
);

CREATE TABLE IF NOT EXISTS operator_sessions (
	id          UUID PRIMARY KEY,
	operator_id UUID NOT NULL REFERENCES operators (id) ON DELETE CASCADE,
	csrf_token  TEXT,
	revoked     BOOLEAN NOT NULL DEFAULT FALSE,
	created_at  TIMESTAMPTZ NOT NULL DEFAULT now(),
	expires_at  TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_operator_sessions_operator ON operator_sessions (operator_id);
`

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck
	sugar := logr.Sugar()

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		sugar.Fatalw("failed to connect database", "error", err)
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if _, err := db.ExecContext(ctx, schema); err != nil {
		sugar.Fatalw("failed to apply schema", "error", err)
	}
	sugar.Infow("schema applied")

	if err := seedOperator(ctx, db, sugar); err != nil {
		sugar.Fatalw("failed to seed operator", "error", err)
	}
}

// seedOperator provisions the initial staff account from the environment.
// ADMIN_EMAIL plus either ADMIN_PASSWORD_HASH (preferred) or ADMIN_PASSWORD
// must be set; without them the step is skipped. An existing account with
// the same email is left untouched.
func seedOperator(ctx context.Context, db *sqlx.DB, sugar *zap.SugaredLogger) error {
	email := strings.ToLower(strings.TrimSpace(os.Getenv("ADMIN_EMAIL")))
	if email == "" {
		sugar.Infow("operator seed skipped", "reason", "ADMIN_EMAIL not set")
		return nil
	}

	hash := os.Getenv("ADMIN_PASSWORD_HASH")
	if hash == "" {
		password := os.Getenv("ADMIN_PASSWORD")
		if password == "" {
			sugar.Infow("operator seed skipped", "reason", "no password material set")
			return nil
		}
		hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
		if err != nil {
			return err
		}
		hash = string(hashed)
	}

	repo := repository.NewOperatorRepository(db)
	if _, err := repo.FindByEmail(ctx, email); err == nil {
		sugar.Infow("operator already provisioned", "email", email)
		return nil
	} else if !errors.Is(err, sql.ErrNoRows) {
		return err
	}

	op := &models.Operator{Email: email, PasswordHash: hash}
	if err := repo.Create(ctx, op); err != nil {
		return err
	}
	sugar.Infow("operator provisioned", "email", email, "id", op.ID)
	return nil
}
