package service

import (
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/bfc-aero/charter-leads-api/internal/models"
	"github.com/bfc-aero/charter-leads-api/pkg/config"
	"github.com/bfc-aero/charter-leads-api/pkg/token"
)

// ChallengeService produces arithmetic proof-of-human prompts. Generation is
// stateless; the signed token lets the intake pipeline verify an answer
// later without holding any server-side challenge state.
type ChallengeService struct {
	cfg    config.ChallengeConfig
	signer *token.ChallengeSigner

	mu  sync.Mutex
	rng *rand.Rand
}

// NewChallengeService constructs a ChallengeService.
func NewChallengeService(cfg config.ChallengeConfig) *ChallengeService {
	if cfg.Max <= cfg.Min {
		cfg.Min, cfg.Max = 1, 9
	}
	return &ChallengeService{
		cfg:    cfg,
		signer: token.NewChallengeSigner(cfg.Secret, cfg.TokenTTL),
		rng:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// Generate picks two integers in the configured range and emits either an
// addition prompt or a subtraction prompt with a non-negative answer.
func (s *ChallengeService) Generate() (*models.Challenge, error) {
	a, b, add := s.draw()

	var prompt string
	var answer int
	if add {
		prompt = fmt.Sprintf("What is %d + %d?", a, b)
		answer = a + b
	} else {
		hi, lo := a, b
		if lo > hi {
			hi, lo = lo, hi
		}
		prompt = fmt.Sprintf("What is %d - %d?", hi, lo)
		answer = hi - lo
	}

	tok, expiresAt, err := s.signer.Sign(answer)
	if err != nil {
		return nil, fmt.Errorf("sign challenge: %w", err)
	}

	return &models.Challenge{
		Prompt:    prompt,
		Answer:    answer,
		Token:     tok,
		ExpiresAt: expiresAt,
	}, nil
}

// Verify checks a submitted answer against its token.
func (s *ChallengeService) Verify(tok string, answer int) error {
	return s.signer.Verify(tok, answer)
}

func (s *ChallengeService) draw() (a, b int, add bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	span := s.cfg.Max - s.cfg.Min + 1
	a = s.cfg.Min + s.rng.Intn(span)
	b = s.cfg.Min + s.rng.Intn(span)
	add = s.rng.Intn(2) == 0
	return a, b, add
}
