package token

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
	"time"
)

// ChallengeSigner mints and verifies stateless challenge-answer tokens.
// The token commits to the expected answer without revealing it: it carries
// a nonce, an expiry and an HMAC over nonce, expiry and answer, so only a
// caller presenting the matching answer can pass verification.
type ChallengeSigner struct {
	secret []byte
	ttl    time.Duration
}

// NewChallengeSigner constructs a signer with the provided secret and TTL.
func NewChallengeSigner(secret string, ttl time.Duration) *ChallengeSigner {
	if ttl <= 0 {
		ttl = 30 * time.Minute
	}
	return &ChallengeSigner{
		secret: []byte(secret),
		ttl:    ttl,
	}
}

// Sign returns a token committing to the given answer.
func (s *ChallengeSigner) Sign(answer int) (string, time.Time, error) {
	if len(s.secret) == 0 {
		return "", time.Time{}, fmt.Errorf("signing secret missing")
	}
	nonce := make([]byte, 12)
	if _, err := rand.Read(nonce); err != nil {
		return "", time.Time{}, fmt.Errorf("generate nonce: %w", err)
	}
	expiresAt := time.Now().Add(s.ttl)
	encodedNonce := hex.EncodeToString(nonce)
	signature := s.digest(encodedNonce, expiresAt.Unix(), answer)
	token := strings.Join([]string{encodedNonce, fmt.Sprintf("%d", expiresAt.Unix()), signature}, ".")
	return token, expiresAt, nil
}

// Verify checks the token against the submitted answer.
func (s *ChallengeSigner) Verify(tok string, answer int) error {
	parts := strings.Split(tok, ".")
	if len(parts) != 3 {
		return fmt.Errorf("invalid token format")
	}
	encodedNonce, ts, signature := parts[0], parts[1], parts[2]

	expUnix, err := parseUnix(ts)
	if err != nil {
		return err
	}
	if time.Now().After(time.Unix(expUnix, 0)) {
		return fmt.Errorf("token expired")
	}

	expected := s.digest(encodedNonce, expUnix, answer)
	if !hmac.Equal([]byte(expected), []byte(signature)) {
		return fmt.Errorf("answer does not match token")
	}
	return nil
}

func (s *ChallengeSigner) digest(nonce string, expUnix int64, answer int) string {
	mac := hmac.New(sha256.New, s.secret)
	_, _ = mac.Write([]byte(fmt.Sprintf("%s|%d|%d", nonce, expUnix, answer)))
	return hex.EncodeToString(mac.Sum(nil))
}

func parseUnix(raw string) (int64, error) {
	var ts int64
	_, err := fmt.Sscanf(raw, "%d", &ts)
	if err != nil {
		return 0, fmt.Errorf("invalid timestamp")
	}
	return ts, nil
}
