package service

import (
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bfc-aero/charter-leads-api/pkg/config"
)

func challengeTestConfig() config.ChallengeConfig {
	return config.ChallengeConfig{
		Min:      1,
		Max:      9,
		Secret:   "challenge-test-secret",
		TokenTTL: time.Minute,
	}
}

func TestChallengeGenerate(t *testing.T) {
	svc := NewChallengeService(challengeTestConfig())
	promptRe := regexp.MustCompile(`^What is (\d+) ([+-]) (\d+)\?$`)

	for i := 0; i < 50; i++ {
		challenge, err := svc.Generate()
		require.NoError(t, err)

		m := promptRe.FindStringSubmatch(challenge.Prompt)
		require.NotNil(t, m, "prompt %q", challenge.Prompt)
		assert.GreaterOrEqual(t, challenge.Answer, 0, "prompt %q", challenge.Prompt)
		assert.NotEmpty(t, challenge.Token)
		assert.True(t, challenge.ExpiresAt.After(time.Now()))
	}
}

func TestChallengeTokenVerifiesOwnAnswer(t *testing.T) {
	svc := NewChallengeService(challengeTestConfig())

	challenge, err := svc.Generate()
	require.NoError(t, err)

	assert.NoError(t, svc.Verify(challenge.Token, challenge.Answer))
	assert.Error(t, svc.Verify(challenge.Token, challenge.Answer+1))
}

func TestChallengeDegenerateRangeFallsBack(t *testing.T) {
	cfg := challengeTestConfig()
	cfg.Min, cfg.Max = 5, 5
	svc := NewChallengeService(cfg)

	challenge, err := svc.Generate()
	require.NoError(t, err)
	assert.NotEmpty(t, challenge.Prompt)
}
